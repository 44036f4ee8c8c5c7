// Package telemetry subscribes to device-published MQTT traffic for
// the PeluPrice backend.
//
// The listener is observe-only: incoming status, heartbeat, and data
// messages are validated and logged but never written into the device
// lifecycle. Device liveness is owned exclusively by the HTTP heartbeat
// endpoint.
package telemetry
