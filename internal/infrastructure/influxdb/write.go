package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteHeartbeat records the gauge fields of a device heartbeat.
//
// Only the fields the device actually reported are written; nil inputs
// are skipped so the series never carries fabricated zeros. A heartbeat
// with no gauge fields writes nothing.
//
// The write is non-blocking; data is batched and sent asynchronously.
func (c *Client) WriteHeartbeat(deviceID string, batteryLevel, signalStrength *int) {
	if !c.IsConnected() {
		return
	}

	fields := make(map[string]interface{}, 2)
	if batteryLevel != nil {
		fields["battery_level"] = float64(*batteryLevel)
	}
	if signalStrength != nil {
		fields["signal_strength"] = float64(*signalStrength)
	}
	if len(fields) == 0 {
		return
	}

	point := write.NewPoint(
		"device_heartbeat",
		map[string]string{"device_id": deviceID},
		fields,
		time.Now(),
	)
	c.writeAPI.WritePoint(point)
}

// WriteDeviceEvent records a lifecycle transition (activation, offline
// sweep) as a point with the status as a field value.
func (c *Client) WriteDeviceEvent(deviceID, status string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"device_events",
		map[string]string{"device_id": deviceID},
		map[string]interface{}{"status": status},
		time.Now(),
	)
	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and
// fields, for measurements the helpers don't cover.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}
