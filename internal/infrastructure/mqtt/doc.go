// Package mqtt provides the MQTT client for the PeluPrice backend.
//
// It wraps eclipse/paho.mqtt.golang with connection management,
// automatic reconnection and re-subscription, Last Will and Testament
// on the system status topic, and panic-safe message handlers.
//
// # Topic Structure
//
//	peluprice/devices/{id}/status      device lifecycle events (device → backend)
//	peluprice/devices/{id}/heartbeat   liveness telemetry (device → backend)
//	peluprice/devices/{id}/data        sensor payloads (device → backend)
//	peluprice/devices/{id}/commands    commands (backend → device)
//	peluprice/system/status            backend presence (retained, LWT)
//
// Use the Topics builder rather than string literals:
//
//	t := mqtt.Topics{}
//	client.Subscribe(t.AllDeviceHeartbeats(), 1, handler)
//	client.Publish(t.DeviceCommands(id), payload, 1, false)
package mqtt
