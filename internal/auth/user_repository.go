package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// UserRepository defines the interface for user account persistence.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Count(ctx context.Context) (int, error)
}

// SQLiteUserRepository implements UserRepository using SQLite.
type SQLiteUserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLite-backed user repository.
func NewUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

const userColumns = `id, email, hashed_password, first_name, last_name,
	phone_country_code, phone_number, language, notify_email, notify_sms,
	notify_push, is_active, is_verified, created_at, updated_at`

// Create inserts a new user account and fills in the generated ID.
// Emails are stored lower-cased so lookups are case-insensitive.
func (r *SQLiteUserRepository) Create(ctx context.Context, user *User) error {
	user.Email = strings.ToLower(user.Email)
	if user.Language == "" {
		user.Language = "en"
	}

	now := time.Now().UTC().Truncate(time.Second)
	user.CreatedAt = now

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, hashed_password, first_name, last_name,
			phone_country_code, phone_number, language, notify_email,
			notify_sms, notify_push, is_active, is_verified, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Email, user.PasswordHash, user.FirstName, user.LastName,
		nullString(user.PhoneCountryCode), nullString(user.PhoneNumber),
		user.Language, boolToInt(user.NotifyEmail), boolToInt(user.NotifySMS),
		boolToInt(user.NotifyPush), boolToInt(user.IsActive),
		boolToInt(user.IsVerified), now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("creating user: %w", err)
	}

	user.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading new user id: %w", err)
	}
	return nil
}

// GetByID retrieves a user by their numeric ID.
func (r *SQLiteUserRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetByEmail retrieves a user by their email address (case-insensitive).
func (r *SQLiteUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(email))
}

// Count returns the number of registered users.
func (r *SQLiteUserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

func (r *SQLiteUserRepository) getUser(ctx context.Context, query string, arg any) (*User, error) {
	var (
		u                User
		phoneCountryCode sql.NullString
		phoneNumber      sql.NullString
		notifyEmail      int
		notifySMS        int
		notifyPush       int
		isActive         int
		isVerified       int
		createdAt        string
		updatedAt        sql.NullString
	)

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&phoneCountryCode, &phoneNumber, &u.Language, &notifyEmail,
		&notifySMS, &notifyPush, &isActive, &isVerified,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("querying user: %w", err)
	}

	if phoneCountryCode.Valid {
		u.PhoneCountryCode = &phoneCountryCode.String
	}
	if phoneNumber.Valid {
		u.PhoneNumber = &phoneNumber.String
	}
	u.NotifyEmail = notifyEmail != 0
	u.NotifySMS = notifySMS != 0
	u.NotifyPush = notifyPush != 0
	u.IsActive = isActive != 0
	u.IsVerified = isVerified != 0

	if u.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if updatedAt.Valid {
		t, err := time.Parse(time.RFC3339, updatedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing updated_at: %w", err)
		}
		u.UpdatedAt = &t
	}

	return &u, nil
}

// nullString converts a *string to a driver-friendly value.
func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// boolToInt converts a bool to SQLite's 0/1 representation.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueViolation reports whether err is a SQLite unique constraint
// failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
