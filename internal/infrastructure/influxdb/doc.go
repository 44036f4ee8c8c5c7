// Package influxdb records heartbeat metric history for PeluPrice
// devices in InfluxDB v2.
//
// The integration is optional: Connect returns ErrDisabled when turned
// off in config, and every write helper is a no-op on a disconnected
// client. Writes are batched and asynchronous; failures are reported
// through the SetOnError callback and never block or fail the device
// lifecycle path.
package influxdb
