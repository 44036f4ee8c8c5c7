package telemetry

import (
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/PeluPrice/PeluPrice-MVP/internal/infrastructure/logging"
	"github.com/PeluPrice/PeluPrice-MVP/internal/infrastructure/mqtt"
)

// Subscriber is the slice of the MQTT client the listener needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Listener consumes device-published MQTT telemetry.
//
// It subscribes to the status, heartbeat, and data channels for all
// devices and logs what arrives. It deliberately does not feed the
// device lifecycle: last_seen and status change only through the HTTP
// heartbeat path. Folding MQTT telemetry into lifecycle state is a
// separate, unfinished track.
type Listener struct {
	client Subscriber
	qos    byte
	log    *logging.Logger

	received atomic.Int64
}

// NewListener creates a telemetry listener over the given MQTT client.
func NewListener(client Subscriber, qos byte, log *logging.Logger) *Listener {
	return &Listener{
		client: client,
		qos:    qos,
		log:    log.With("component", "telemetry"),
	}
}

// Start subscribes to all device telemetry channels.
func (l *Listener) Start() error {
	topics := mqtt.Topics{}

	for _, pattern := range []string{
		topics.AllDeviceStatus(),
		topics.AllDeviceHeartbeats(),
		topics.AllDeviceData(),
	} {
		if err := l.client.Subscribe(pattern, l.qos, l.handleMessage); err != nil {
			return fmt.Errorf("subscribing to %s: %w", pattern, err)
		}
	}

	l.log.Info("telemetry listener started")
	return nil
}

// ReceivedCount returns how many telemetry messages have arrived since
// startup.
func (l *Listener) ReceivedCount() int64 {
	return l.received.Load()
}

// handleMessage logs a telemetry message. Malformed topics or payloads
// are reported and dropped; there is nothing downstream to poison.
func (l *Listener) handleMessage(topic string, payload []byte) error {
	deviceID, channel, err := mqtt.ParseDeviceTopic(topic)
	if err != nil {
		return fmt.Errorf("unexpected telemetry topic: %w", err)
	}

	if !json.Valid(payload) {
		return fmt.Errorf("device %s sent invalid JSON on %s", deviceID, channel)
	}

	l.received.Add(1)
	l.log.Info("telemetry received",
		"device_id", deviceID,
		"channel", channel,
		"bytes", len(payload),
	)
	return nil
}
