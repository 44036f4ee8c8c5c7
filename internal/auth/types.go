package auth

import (
	"errors"
	"regexp"
	"time"
)

// emailPattern is a pragmatic format check; deliverability is the
// verification email's problem, not ours.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Field limits for registration input.
const (
	maxEmailLength    = 254
	minPasswordLength = 8
	maxPasswordLength = 128
	maxNameLength     = 64
)

// IsValidEmail checks if an email address meets format requirements.
func IsValidEmail(email string) bool {
	return len(email) <= maxEmailLength && emailPattern.MatchString(email)
}

// User represents a registered account.
//
// IDs are numeric (SQLite rowid); they appear in JWT subjects as their
// decimal string form.
type User struct {
	ID               int64      `json:"id"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"` // never serialised
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	PhoneCountryCode *string    `json:"phone_country_code,omitempty"`
	PhoneNumber      *string    `json:"phone_number,omitempty"`
	Language         string     `json:"language"`
	NotifyEmail      bool       `json:"notify_email"`
	NotifySMS        bool       `json:"notify_sms"`
	NotifyPush       bool       `json:"notify_push"`
	IsActive         bool       `json:"is_active"`
	IsVerified       bool       `json:"is_verified"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}

// RefreshToken represents a stored refresh token for session management.
//
// Only the SHA-256 hash of the raw token is persisted. FamilyID groups
// tokens across rotations so a replayed token can invalidate the whole
// chain.
type RefreshToken struct {
	ID        string     `json:"id"`
	UserID    int64      `json:"user_id"`
	FamilyID  string     `json:"family_id"`
	TokenHash string     `json:"-"` // never serialised
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Revoked reports whether the token has been invalidated.
func (t *RefreshToken) Revoked() bool {
	return t.RevokedAt != nil
}

// TokenPair is the credential set returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"` // seconds
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrUserNotFound       = errors.New("auth: user not found")
	ErrUserInactive       = errors.New("auth: user account is inactive")
	ErrEmailExists        = errors.New("auth: email already registered")
	ErrInvalidEmail       = errors.New("auth: invalid email address")
	ErrInvalidName        = errors.New("auth: invalid name")
	ErrWeakPassword       = errors.New("auth: password does not meet requirements")
	ErrTokenExpired       = errors.New("auth: token has expired")
	ErrTokenInvalid       = errors.New("auth: invalid token")
	ErrTokenReuse         = errors.New("auth: refresh token reuse detected")
)
