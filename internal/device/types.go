package device

import (
	"fmt"
	"time"
)

// Status represents a device's position in its lifecycle.
//
// The lifecycle runs factory → field → owned:
//
//	created → deployed → delivered → activated → working ⇄ offline
//
// with error reachable from any state. Persistence and the API use the
// same lower-case string values; there is no second enumeration at the
// transport layer.
type Status string

// Device lifecycle statuses.
const (
	// StatusCreated is a factory-provisioned device not yet shipped.
	StatusCreated Status = "created"

	// StatusDeployed is a device that has phoned home from the field
	// but has no owner yet.
	StatusDeployed Status = "deployed"

	// StatusDelivered is a device confirmed delivered to a customer.
	StatusDelivered Status = "delivered"

	// StatusActivated is a device claimed by a user account.
	StatusActivated Status = "activated"

	// StatusWorking is an owned device that is actively reporting.
	StatusWorking Status = "working"

	// StatusOffline is a device that has missed its heartbeat window.
	StatusOffline Status = "offline"

	// StatusError is a device reporting a fault condition.
	StatusError Status = "error"
)

// Valid reports whether the status is one of the recognised values.
func (s Status) Valid() bool {
	switch s {
	case StatusCreated, StatusDeployed, StatusDelivered,
		StatusActivated, StatusWorking, StatusOffline, StatusError:
		return true
	}
	return false
}

// String returns the status as its wire/database representation.
func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a string to a Status.
// Returns ErrInvalidStatus for unrecognised values.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

// Device is a registered hardware unit.
//
// Optional columns map to pointer fields; nil means the value has never
// been reported. OwnerID is nil until a user activates the device.
type Device struct {
	// ID is the hardware-assigned device identifier.
	ID string `json:"id"`

	// Name is the user-facing label. Defaults to "Device {suffix}" at
	// activation if the user supplied none.
	Name *string `json:"name"`

	// OwnerID is the owning user, nil while unclaimed.
	OwnerID *int64 `json:"owner_id"`

	// Status is the lifecycle state.
	Status Status `json:"status"`

	// ActivationKey is the secret printed on the device packaging.
	// Unique across all devices.
	ActivationKey string `json:"-"`

	// IsActive reports whether the device is currently considered online.
	IsActive bool `json:"is_active"`

	// FirmwareVersion is the last firmware version the device reported.
	FirmwareVersion *string `json:"firmware_version"`

	// HardwareVersion is the hardware revision reported at registration.
	HardwareVersion *string `json:"hardware_version"`

	// IPAddress is the last reported network address.
	IPAddress *string `json:"ip_address"`

	// SignalStrength is the last reported RSSI-style value.
	SignalStrength *int `json:"signal_strength"`

	// BatteryLevel is the last reported battery percentage.
	BatteryLevel *int `json:"battery_level"`

	// LastSeen is the time of the last registration or heartbeat.
	LastSeen *time.Time `json:"last_seen"`

	// ActivatedAt is when the device was claimed by its owner.
	ActivatedAt *time.Time `json:"activated_at"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// Owned reports whether the device has been claimed by a user.
func (d *Device) Owned() bool {
	return d.OwnerID != nil
}

// RegisterInput is the payload a device sends when it phones home.
//
// Nil version fields are stored as nil: registration is a full
// overwrite of the version metadata, last write wins.
type RegisterInput struct {
	DeviceID        string
	ActivationKey   string
	FirmwareVersion *string
	HardwareVersion *string
}

// HeartbeatInput is the periodic status payload from a device.
//
// Unlike registration, heartbeats merge: only non-nil fields replace
// stored values.
type HeartbeatInput struct {
	IPAddress       *string
	SignalStrength  *int
	BatteryLevel    *int
	FirmwareVersion *string
}

// defaultNameSuffixLen is how many trailing characters of the device ID
// form the default name assigned at activation. The derivation itself
// lives in the activation statement so the name is set in the same
// write that claims the device.
const defaultNameSuffixLen = 6
