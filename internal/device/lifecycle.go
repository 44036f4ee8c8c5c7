package device

import (
	"context"
	"fmt"
	"time"

	"github.com/PeluPrice/PeluPrice-MVP/internal/infrastructure/logging"
)

// Input length limits. Generous but bounded; device firmware is not
// trusted to be well-behaved.
const (
	maxDeviceIDLen      = 64
	maxActivationKeyLen = 128
	maxStringFieldLen   = 64
)

// Manager coordinates the device lifecycle.
//
// It validates inputs, delegates the atomic state transitions to the
// Repository, and logs outcomes. All dependencies are injected; the
// clock is a function so tests can pin time.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Serialization of
//     conflicting writes happens in the repository's SQL statements,
//     not here.
type Manager struct {
	repo Repository
	log  *logging.Logger
	now  func() time.Time
}

// NewManager creates a lifecycle manager backed by repo.
func NewManager(repo Repository, log *logging.Logger) *Manager {
	return &Manager{
		repo: repo,
		log:  log.With("component", "device"),
		now:  time.Now,
	}
}

// Register handles a device phoning home from the field.
//
// Idempotent: re-registration refreshes last_seen and overwrites the
// version metadata (nil overwrites too). Ownership and the stored
// activation key are never modified after creation. Returns
// ErrActivationKeyInUse when a new device supplies a key that already
// belongs to another device.
func (m *Manager) Register(ctx context.Context, in RegisterInput) (*Device, error) {
	if err := validateID(in.DeviceID); err != nil {
		return nil, err
	}
	if err := validateActivationKey(in.ActivationKey); err != nil {
		return nil, err
	}
	if err := validateOptionalField(in.FirmwareVersion); err != nil {
		return nil, fmt.Errorf("%w: firmware_version", ErrInvalidMetadata)
	}
	if err := validateOptionalField(in.HardwareVersion); err != nil {
		return nil, fmt.Errorf("%w: hardware_version", ErrInvalidMetadata)
	}

	dev, err := m.repo.Register(ctx, in, m.now())
	if err != nil {
		return nil, err
	}

	m.log.Info("device registered",
		"device_id", dev.ID,
		"status", dev.Status,
		"owned", dev.Owned(),
	)
	return dev, nil
}

// Activate claims a device for the calling user.
//
// The caller's identity comes from the authenticated request; exactly
// one concurrent caller can win the claim. Returns ErrNotFound for an
// unknown key and ErrAlreadyActivated for an owned device.
func (m *Manager) Activate(ctx context.Context, activationKey string, ownerID int64) (*Device, error) {
	if err := validateActivationKey(activationKey); err != nil {
		return nil, err
	}

	dev, err := m.repo.Activate(ctx, activationKey, ownerID, m.now())
	if err != nil {
		return nil, err
	}

	m.log.Info("device activated",
		"device_id", dev.ID,
		"owner_id", ownerID,
	)
	return dev, nil
}

// Heartbeat records a liveness report.
//
// Forces the device back to working/active, refreshes last_seen, and
// merges only the metadata fields present in the payload. Returns
// ErrNotFound for an unknown device.
func (m *Manager) Heartbeat(ctx context.Context, id string, in HeartbeatInput) (*Device, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if err := validateHeartbeat(in); err != nil {
		return nil, err
	}

	dev, err := m.repo.Heartbeat(ctx, id, in, m.now())
	if err != nil {
		return nil, err
	}

	m.log.Debug("heartbeat recorded", "device_id", dev.ID)
	return dev, nil
}

// SweepOffline marks every active device unseen for longer than
// threshold as offline. Returns the number of devices transitioned.
func (m *Manager) SweepOffline(ctx context.Context, threshold time.Duration) (int64, error) {
	now := m.now()
	swept, err := m.repo.SweepOffline(ctx, now.Add(-threshold), now)
	if err != nil {
		return 0, err
	}

	if swept > 0 {
		m.log.Info("devices marked offline", "count", swept, "threshold", threshold.String())
	}
	return swept, nil
}

// GetForOwner retrieves a device if it is owned by ownerID.
//
// Returns ErrNotFound both for unknown devices and for devices owned by
// someone else, so the API never leaks another user's device IDs.
func (m *Manager) GetForOwner(ctx context.Context, id string, ownerID int64) (*Device, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	dev, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if dev.OwnerID == nil || *dev.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return dev, nil
}

// ListForOwner retrieves every device owned by ownerID.
func (m *Manager) ListForOwner(ctx context.Context, ownerID int64) ([]Device, error) {
	return m.repo.ListByOwner(ctx, ownerID)
}

func validateID(id string) error {
	if id == "" || len(id) > maxDeviceIDLen {
		return ErrInvalidDeviceID
	}
	return nil
}

func validateActivationKey(key string) error {
	if key == "" || len(key) > maxActivationKeyLen {
		return ErrInvalidActivationKey
	}
	return nil
}

func validateOptionalField(s *string) error {
	if s != nil && (len(*s) == 0 || len(*s) > maxStringFieldLen) {
		return ErrInvalidMetadata
	}
	return nil
}

func validateHeartbeat(in HeartbeatInput) error {
	if err := validateOptionalField(in.IPAddress); err != nil {
		return fmt.Errorf("%w: ip_address", ErrInvalidMetadata)
	}
	if err := validateOptionalField(in.FirmwareVersion); err != nil {
		return fmt.Errorf("%w: firmware_version", ErrInvalidMetadata)
	}
	if in.BatteryLevel != nil && (*in.BatteryLevel < 0 || *in.BatteryLevel > 100) {
		return fmt.Errorf("%w: battery_level out of range", ErrInvalidMetadata)
	}
	return nil
}
