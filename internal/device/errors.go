package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrNotFound) {
//	    // handle not found case
//	}
var (
	// ErrNotFound is returned when a device ID or activation key does
	// not exist.
	ErrNotFound = errors.New("device: not found")

	// ErrActivationKeyInUse is returned when a registration presents an
	// activation key that already belongs to a different device.
	ErrActivationKeyInUse = errors.New("device: activation key in use")

	// ErrAlreadyActivated is returned when activating a device that
	// already has an owner.
	ErrAlreadyActivated = errors.New("device: already activated")

	// ErrInvalidDeviceID is returned when a device ID is empty or
	// exceeds the maximum length.
	ErrInvalidDeviceID = errors.New("device: invalid device id")

	// ErrInvalidActivationKey is returned when an activation key is
	// empty or exceeds the maximum length.
	ErrInvalidActivationKey = errors.New("device: invalid activation key")

	// ErrInvalidStatus is returned when a status value is not recognised.
	ErrInvalidStatus = errors.New("device: invalid status")

	// ErrInvalidMetadata is returned when heartbeat metadata fails
	// validation.
	ErrInvalidMetadata = errors.New("device: invalid metadata")
)
