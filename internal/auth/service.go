package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/PeluPrice/PeluPrice-MVP/internal/infrastructure/logging"
)

const secondsPerMinute = 60

// Service implements account registration, login, and refresh-token
// rotation on top of the repositories.
//
// Access tokens are stateless JWTs; refresh tokens are stored hashed
// and rotated on every use, with family-wide revocation when a consumed
// token is replayed.
type Service struct {
	users         UserRepository
	tokens        TokenRepository
	log           *logging.Logger
	jwtSecret     string
	accessTTLMin  int
	refreshTTLMin int
}

// NewService creates an auth service. TTLs are in minutes.
func NewService(users UserRepository, tokens TokenRepository, log *logging.Logger, jwtSecret string, accessTTLMin, refreshTTLMin int) *Service {
	return &Service{
		users:         users,
		tokens:        tokens,
		log:           log.With("component", "auth"),
		jwtSecret:     jwtSecret,
		accessTTLMin:  accessTTLMin,
		refreshTTLMin: refreshTTLMin,
	}
}

// RegisterInput is the payload for account creation.
type RegisterInput struct {
	Email            string
	Password         string
	FirstName        string
	LastName         string
	PhoneCountryCode *string
	PhoneNumber      *string
	Language         string
}

// Register creates a new account.
//
// Returns ErrInvalidEmail or ErrWeakPassword on validation failure and
// ErrEmailExists when the address is taken.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if !IsValidEmail(in.Email) {
		return nil, ErrInvalidEmail
	}
	if len(in.Password) < minPasswordLength || len(in.Password) > maxPasswordLength {
		return nil, ErrWeakPassword
	}
	if len(in.FirstName) > maxNameLength || len(in.LastName) > maxNameLength {
		return nil, ErrInvalidName
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &User{
		Email:            in.Email,
		PasswordHash:     hash,
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		PhoneCountryCode: in.PhoneCountryCode,
		PhoneNumber:      in.PhoneNumber,
		Language:         in.Language,
		NotifyEmail:      true,
		NotifyPush:       true,
		IsActive:         true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Login verifies credentials and issues a fresh token pair.
//
// Returns ErrInvalidCredentials for both unknown emails and wrong
// passwords so callers cannot probe which addresses exist.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, *User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, nil, ErrUserInactive
	}

	pair, err := s.issueTokens(ctx, user, "")
	if err != nil {
		return nil, nil, err
	}

	s.log.Info("user logged in", "user_id", user.ID)
	return pair, user, nil
}

// Refresh rotates a refresh token and issues a new pair.
//
// A revoked token presented here means the raw token leaked (the
// legitimate client already rotated past it), so the entire family is
// revoked and ErrTokenReuse is returned.
func (s *Service) Refresh(ctx context.Context, rawToken string) (*TokenPair, error) {
	stored, err := s.tokens.GetByTokenHash(ctx, HashToken(rawToken))
	if err != nil {
		return nil, err
	}

	if stored.Revoked() {
		if err := s.tokens.RevokeFamily(ctx, stored.FamilyID); err != nil {
			s.log.Error("revoking token family failed", "error", err)
		}
		s.log.Warn("refresh token reuse detected", "user_id", stored.UserID)
		return nil, ErrTokenReuse
	}

	if time.Now().After(stored.ExpiresAt) {
		return nil, ErrTokenExpired
	}

	user, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	return s.rotateTokens(ctx, user, stored)
}

// GetUser loads a user by ID, for authenticated profile reads.
func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// ValidateAccessToken parses an access token and returns the caller's
// user ID.
func (s *Service) ValidateAccessToken(tokenString string) (int64, error) {
	claims, err := ParseToken(tokenString, s.jwtSecret)
	if err != nil {
		return 0, err
	}
	return claims.UserID()
}

// issueTokens creates an access token and a refresh token in a new (or
// given) family.
func (s *Service) issueTokens(ctx context.Context, user *User, familyID string) (*TokenPair, error) {
	access, err := GenerateAccessToken(user, s.jwtSecret, s.accessTTLMin)
	if err != nil {
		return nil, err
	}

	raw, err := GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	token := &RefreshToken{
		UserID:    user.ID,
		FamilyID:  familyID,
		TokenHash: HashToken(raw),
		ExpiresAt: time.Now().Add(time.Duration(s.refreshTTLMin) * time.Minute),
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: raw,
		TokenType:    "bearer",
		ExpiresIn:    s.accessTTLMin * secondsPerMinute,
	}, nil
}

// rotateTokens revokes the consumed refresh token and issues its
// successor in the same family.
func (s *Service) rotateTokens(ctx context.Context, user *User, old *RefreshToken) (*TokenPair, error) {
	access, err := GenerateAccessToken(user, s.jwtSecret, s.accessTTLMin)
	if err != nil {
		return nil, err
	}

	raw, err := GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	next := &RefreshToken{
		UserID:    user.ID,
		FamilyID:  old.FamilyID,
		TokenHash: HashToken(raw),
		ExpiresAt: time.Now().Add(time.Duration(s.refreshTTLMin) * time.Minute),
	}
	if err := s.tokens.Rotate(ctx, old.ID, next); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: raw,
		TokenType:    "bearer",
		ExpiresIn:    s.accessTTLMin * secondsPerMinute,
	}, nil
}
