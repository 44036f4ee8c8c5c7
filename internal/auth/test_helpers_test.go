package auth

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/PeluPrice/PeluPrice-MVP/internal/infrastructure/logging"
)

// setupAuthDB creates an in-memory SQLite database with the auth tables.
func setupAuthDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL UNIQUE,
			hashed_password TEXT NOT NULL,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			phone_country_code TEXT,
			phone_number TEXT,
			language TEXT NOT NULL DEFAULT 'en',
			notify_email INTEGER NOT NULL DEFAULT 1,
			notify_sms INTEGER NOT NULL DEFAULT 0,
			notify_push INTEGER NOT NULL DEFAULT 1,
			is_active INTEGER NOT NULL DEFAULT 1,
			is_verified INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT
		);
		CREATE TABLE refresh_tokens (
			id TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			token_hash TEXT NOT NULL UNIQUE,
			family_id TEXT NOT NULL,
			expires_at TEXT NOT NULL,
			revoked_at TEXT,
			created_at TEXT NOT NULL
		);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// testSecret satisfies the 32-character minimum for JWT secrets.
const testSecret = "unit-test-jwt-secret-0123456789abcdef"

// quietLogger discards all output.
func quietLogger() *logging.Logger {
	return &logging.Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// setupService wires a Service over fresh repositories.
func setupService(t *testing.T) *Service {
	t.Helper()

	db := setupAuthDB(t)
	return NewService(
		NewUserRepository(db),
		NewTokenRepository(db),
		quietLogger(),
		testSecret,
		30,    // access TTL minutes
		10080, // refresh TTL minutes (7 days)
	)
}

// pastTime is an expiry safely in the past.
func pastTime(t *testing.T) time.Time {
	t.Helper()
	return time.Now().Add(-time.Hour)
}

// futureTime is an expiry safely in the future.
func futureTime(t *testing.T) time.Time {
	t.Helper()
	return time.Now().Add(time.Hour)
}

// createTestUser registers a user through the service and returns it.
func createTestUser(t *testing.T, s *Service, email string) *User {
	t.Helper()

	user, err := s.Register(context.Background(), RegisterInput{
		Email:     email,
		Password:  "correct-horse-battery",
		FirstName: "Test",
		LastName:  "User",
	})
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}
