package mqtt

import (
	"fmt"
	"strings"
)

// Topic structure for the PeluPrice platform:
//
//	peluprice/devices/{device_id}/status     — device-published lifecycle events
//	peluprice/devices/{device_id}/heartbeat  — device-published liveness telemetry
//	peluprice/devices/{device_id}/data       — device-published sensor payloads
//	peluprice/devices/{device_id}/commands   — backend-published commands to one device
//	peluprice/system/status                  — backend online/offline (retained, LWT)
//
// The backend subscribes to the three device-published channels with a
// single-level wildcard and publishes to commands and system status.

// topicPrefix is the root of all PeluPrice topics.
const topicPrefix = "peluprice"

// Device-published channels.
const (
	ChannelStatus    = "status"
	ChannelHeartbeat = "heartbeat"
	ChannelData      = "data"
)

// Topics provides type-safe builders for PeluPrice MQTT topics.
//
// Usage:
//
//	t := mqtt.Topics{}
//	client.Publish(t.DeviceCommands("pp-0042"), payload, 1, false)
//	client.Subscribe(t.AllDeviceHeartbeats(), 1, handler)
type Topics struct{}

// DeviceStatus returns the status topic for a specific device.
func (Topics) DeviceStatus(deviceID string) string {
	return fmt.Sprintf("%s/devices/%s/%s", topicPrefix, deviceID, ChannelStatus)
}

// DeviceHeartbeat returns the heartbeat topic for a specific device.
func (Topics) DeviceHeartbeat(deviceID string) string {
	return fmt.Sprintf("%s/devices/%s/%s", topicPrefix, deviceID, ChannelHeartbeat)
}

// DeviceData returns the data topic for a specific device.
func (Topics) DeviceData(deviceID string) string {
	return fmt.Sprintf("%s/devices/%s/%s", topicPrefix, deviceID, ChannelData)
}

// DeviceCommands returns the command topic for a specific device.
// The backend publishes here; the device subscribes.
func (Topics) DeviceCommands(deviceID string) string {
	return fmt.Sprintf("%s/devices/%s/commands", topicPrefix, deviceID)
}

// AllDeviceStatus returns the wildcard pattern matching every device's
// status topic.
func (Topics) AllDeviceStatus() string {
	return fmt.Sprintf("%s/devices/+/%s", topicPrefix, ChannelStatus)
}

// AllDeviceHeartbeats returns the wildcard pattern matching every
// device's heartbeat topic.
func (Topics) AllDeviceHeartbeats() string {
	return fmt.Sprintf("%s/devices/+/%s", topicPrefix, ChannelHeartbeat)
}

// AllDeviceData returns the wildcard pattern matching every device's
// data topic.
func (Topics) AllDeviceData() string {
	return fmt.Sprintf("%s/devices/+/%s", topicPrefix, ChannelData)
}

// SystemStatus returns the backend's own status topic (retained; also
// the LWT target).
func (Topics) SystemStatus() string {
	return topicPrefix + "/system/status"
}

// ParseDeviceTopic extracts the device ID and channel from a concrete
// device topic, e.g. "peluprice/devices/pp-0042/heartbeat" yields
// ("pp-0042", "heartbeat").
//
// Returns an error for topics outside the devices tree or with empty
// segments.
func ParseDeviceTopic(topic string) (deviceID, channel string, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != topicPrefix || parts[1] != "devices" {
		return "", "", fmt.Errorf("%w: %q is not a device topic", ErrInvalidTopic, topic)
	}
	if parts[2] == "" || parts[2] == "+" || parts[3] == "" {
		return "", "", fmt.Errorf("%w: %q has empty segments", ErrInvalidTopic, topic)
	}
	return parts[2], parts[3], nil
}
