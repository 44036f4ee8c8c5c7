package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for device persistence operations.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
//
// The four lifecycle operations (Register, Activate, Heartbeat,
// SweepOffline) each execute as a single conditional SQL statement, so
// concurrent callers serialize per device inside the store and no
// read-modify-write races are possible.
type Repository interface {
	// GetByID retrieves a device by its unique identifier.
	// Returns ErrNotFound if the device does not exist.
	GetByID(ctx context.Context, id string) (*Device, error)

	// ListByOwner retrieves all devices owned by the given user.
	ListByOwner(ctx context.Context, ownerID int64) ([]Device, error)

	// Register upserts a device keyed by its hardware ID.
	//
	// New devices are created as deployed and unowned. Re-registration
	// refreshes last_seen, overwrites both version fields with the
	// supplied values (nil overwrites too), and sets status to working
	// if owned, deployed otherwise. Ownership, activation fields and
	// the stored activation key are never touched: the key is written
	// once at creation and ignored on re-registration.
	//
	// Returns ErrActivationKeyInUse when creating a device with a key
	// that already belongs to a different device.
	Register(ctx context.Context, in RegisterInput, now time.Time) (*Device, error)

	// Activate claims an unowned device for ownerID.
	//
	// Exactly one caller can win: the ownership write is conditional on
	// owner_id still being NULL. The winner gets status=working,
	// is_active=true, activated_at=now and a default name if none is
	// set.
	//
	// Returns ErrNotFound for an unknown key and ErrAlreadyActivated if
	// the device already has an owner (including the caller).
	Activate(ctx context.Context, activationKey string, ownerID int64, now time.Time) (*Device, error)

	// Heartbeat records a liveness report from a device.
	//
	// Refreshes last_seen, forces status=working and is_active=true,
	// and merges only the non-nil metadata fields. Returns ErrNotFound
	// for an unknown device.
	Heartbeat(ctx context.Context, id string, in HeartbeatInput, now time.Time) (*Device, error)

	// SweepOffline flips every active device whose last_seen is older
	// than cutoff to offline/inactive. Returns the number of devices
	// transitioned.
	SweepOffline(ctx context.Context, cutoff, now time.Time) (int64, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection with the devices
// table migrated.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// deviceColumns is the canonical SELECT column list, kept in sync with
// scanDevice.
const deviceColumns = `id, name, owner_id, status, activation_key, is_active,
	firmware_version, hardware_version, ip_address, signal_strength,
	battery_level, last_seen, activated_at, created_at, updated_at`

// GetByID retrieves a device by its unique identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	dev, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying device by id: %w", err)
	}
	return dev, nil
}

// ListByOwner retrieves all devices owned by the given user.
func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID int64) ([]Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE owner_id = ? ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying devices by owner: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only query cleanup

	var devices []Device
	for rows.Next() {
		dev, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device row: %w", err)
		}
		devices = append(devices, *dev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating device rows: %w", err)
	}
	return devices, nil
}

// Register upserts a device keyed by its hardware ID.
//
// The whole operation is one INSERT ... ON CONFLICT statement. The
// activation key is written only on the insert path: registration is
// unauthenticated, so letting a re-register rewrite the stored key
// would let anyone rebind a device to a key they know and then claim
// it. For a known id the supplied key is ignored. A new device whose
// key already belongs to another device trips the unique index on
// insert.
func (r *SQLiteRepository) Register(ctx context.Context, in RegisterInput, now time.Time) (*Device, error) {
	ts := formatTime(now)

	query := `
		INSERT INTO devices (
			id, activation_key, status, is_active,
			firmware_version, hardware_version, last_seen, created_at
		)
		VALUES (?, ?, ?, 0, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			firmware_version = excluded.firmware_version,
			hardware_version = excluded.hardware_version,
			last_seen = excluded.last_seen,
			updated_at = excluded.last_seen,
			status = CASE
				WHEN devices.owner_id IS NULL THEN ?
				ELSE ?
			END`

	_, err := r.db.ExecContext(ctx, query,
		in.DeviceID,
		in.ActivationKey,
		string(StatusDeployed),
		nullString(in.FirmwareVersion),
		nullString(in.HardwareVersion),
		ts,
		ts,
		string(StatusDeployed),
		string(StatusWorking),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrActivationKeyInUse
		}
		return nil, fmt.Errorf("registering device: %w", err)
	}

	return r.GetByID(ctx, in.DeviceID)
}

// Activate claims an unowned device for ownerID.
func (r *SQLiteRepository) Activate(ctx context.Context, activationKey string, ownerID int64, now time.Time) (*Device, error) {
	ts := formatTime(now)

	// The owner_id IS NULL guard makes activation exclusive: of any
	// number of concurrent callers, exactly one UPDATE matches.
	query := `
		UPDATE devices
		SET owner_id = ?,
			status = ?,
			is_active = 1,
			activated_at = ?,
			updated_at = ?,
			name = COALESCE(name, 'Device ' || substr(id, -` + fmt.Sprint(defaultNameSuffixLen) + `))
		WHERE activation_key = ? AND owner_id IS NULL`

	result, err := r.db.ExecContext(ctx, query,
		ownerID, string(StatusWorking), ts, ts, activationKey,
	)
	if err != nil {
		return nil, fmt.Errorf("activating device: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking activation result: %w", err)
	}

	if affected == 0 {
		// Lost the update: either the key is unknown or someone owns
		// the device. Disambiguate with a read.
		if _, err := r.getByActivationKey(ctx, activationKey); err != nil {
			return nil, err
		}
		// The key exists, so someone owns the device (or claimed it
		// between our UPDATE and this read).
		return nil, ErrAlreadyActivated
	}

	return r.getByActivationKey(ctx, activationKey)
}

// Heartbeat records a liveness report from a device.
//
// COALESCE against the bound parameters gives merge semantics: a nil
// input field binds NULL and the stored value survives.
func (r *SQLiteRepository) Heartbeat(ctx context.Context, id string, in HeartbeatInput, now time.Time) (*Device, error) {
	ts := formatTime(now)

	query := `
		UPDATE devices
		SET last_seen = ?,
			status = ?,
			is_active = 1,
			updated_at = ?,
			ip_address = COALESCE(?, ip_address),
			signal_strength = COALESCE(?, signal_strength),
			battery_level = COALESCE(?, battery_level),
			firmware_version = COALESCE(?, firmware_version)
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		ts,
		string(StatusWorking),
		ts,
		nullString(in.IPAddress),
		nullInt(in.SignalStrength),
		nullInt(in.BatteryLevel),
		nullString(in.FirmwareVersion),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("recording heartbeat: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking heartbeat result: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return r.GetByID(ctx, id)
}

// SweepOffline flips stale active devices to offline in one bulk update.
//
// Devices that have never reported (last_seen IS NULL) are left alone;
// RFC3339 UTC text compares lexicographically, so the cutoff comparison
// is a plain string comparison inside SQLite.
func (r *SQLiteRepository) SweepOffline(ctx context.Context, cutoff, now time.Time) (int64, error) {
	query := `
		UPDATE devices
		SET status = ?, is_active = 0, updated_at = ?
		WHERE is_active = 1 AND last_seen < ?`

	result, err := r.db.ExecContext(ctx, query,
		string(StatusOffline), formatTime(now), formatTime(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("sweeping offline devices: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking sweep result: %w", err)
	}
	return affected, nil
}

// getByActivationKey retrieves a device by its activation key.
// Returns ErrNotFound if no device holds the key.
func (r *SQLiteRepository) getByActivationKey(ctx context.Context, key string) (*Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE activation_key = ?`

	row := r.db.QueryRowContext(ctx, query, key)
	dev, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying device by activation key: %w", err)
	}
	return dev, nil
}

// rowScanner abstracts sql.Row and sql.Rows for scanDevice.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanDevice scans a device row in deviceColumns order.
func scanDevice(row rowScanner) (*Device, error) {
	var (
		dev             Device
		name            sql.NullString
		ownerID         sql.NullInt64
		status          string
		isActive        int
		firmware        sql.NullString
		hardware        sql.NullString
		ipAddress       sql.NullString
		signalStrength  sql.NullInt64
		batteryLevel    sql.NullInt64
		lastSeen        sql.NullString
		activatedAt     sql.NullString
		createdAt       string
		updatedAt       sql.NullString
	)

	err := row.Scan(
		&dev.ID, &name, &ownerID, &status, &dev.ActivationKey, &isActive,
		&firmware, &hardware, &ipAddress, &signalStrength,
		&batteryLevel, &lastSeen, &activatedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	dev.Status = Status(status)
	dev.IsActive = isActive != 0
	dev.Name = stringPtr(name)
	dev.FirmwareVersion = stringPtr(firmware)
	dev.HardwareVersion = stringPtr(hardware)
	dev.IPAddress = stringPtr(ipAddress)
	if ownerID.Valid {
		dev.OwnerID = &ownerID.Int64
	}
	if signalStrength.Valid {
		v := int(signalStrength.Int64)
		dev.SignalStrength = &v
	}
	if batteryLevel.Valid {
		v := int(batteryLevel.Int64)
		dev.BatteryLevel = &v
	}

	if dev.LastSeen, err = timePtr(lastSeen); err != nil {
		return nil, fmt.Errorf("parsing last_seen: %w", err)
	}
	if dev.ActivatedAt, err = timePtr(activatedAt); err != nil {
		return nil, fmt.Errorf("parsing activated_at: %w", err)
	}
	if dev.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if dev.UpdatedAt, err = timePtr(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &dev, nil
}

// formatTime renders a timestamp as RFC3339 UTC text for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime parses an RFC3339 timestamp from storage.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// timePtr converts a nullable timestamp column to *time.Time.
func timePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// stringPtr converts a sql.NullString to *string.
func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// nullString converts a *string to a driver-friendly value.
func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// nullInt converts a *int to a driver-friendly value.
func nullInt(i *int) any {
	if i == nil {
		return nil
	}
	return *i
}

// isUniqueViolation reports whether err is a SQLite unique constraint
// failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
