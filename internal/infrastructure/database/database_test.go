package database

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	}
}

func TestOpen_CreatesDatabase(t *testing.T) {
	db, err := Open(testConfig(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck

	if err := db.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestOpen_CreatesDirectory(t *testing.T) {
	cfg := Config{
		Path:        filepath.Join(t.TempDir(), "nested", "dir", "test.db"),
		WALMode:     false,
		BusyTimeout: 5,
	}

	db, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck
}

func TestDB_ForeignKeysEnabled(t *testing.T) {
	db, err := Open(testConfig(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck

	var enabled int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled); err != nil {
		t.Fatalf("querying foreign_keys pragma: %v", err)
	}
	if enabled != 1 {
		t.Error("expected foreign key enforcement to be enabled")
	}
}

func TestDB_Close(t *testing.T) {
	db, err := Open(testConfig(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if err := db.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestMigrate_AppliesInOrder(t *testing.T) {
	db, err := Open(testConfig(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck

	migrationsFS := fstest.MapFS{
		"20250102_000000_add_column.up.sql": &fstest.MapFile{
			Data: []byte("ALTER TABLE widgets ADD COLUMN label TEXT;"),
		},
		"20250101_000000_create_table.up.sql": &fstest.MapFile{
			Data: []byte("CREATE TABLE widgets (id INTEGER PRIMARY KEY);"),
		},
	}

	applied, err := db.Migrate(context.Background(), migrationsFS)
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if applied != 2 {
		t.Errorf("Migrate() applied = %d, want 2", applied)
	}

	// The ALTER only succeeds if the CREATE ran first despite the
	// reversed map ordering.
	if _, err := db.Exec("INSERT INTO widgets (id, label) VALUES (1, 'a')"); err != nil {
		t.Errorf("expected migrated schema to be usable: %v", err)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db, err := Open(testConfig(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck

	migrationsFS := fstest.MapFS{
		"20250101_000000_create_table.up.sql": &fstest.MapFile{
			Data: []byte("CREATE TABLE widgets (id INTEGER PRIMARY KEY);"),
		},
	}

	if _, err := db.Migrate(context.Background(), migrationsFS); err != nil {
		t.Fatalf("first Migrate() error = %v", err)
	}

	applied, err := db.Migrate(context.Background(), migrationsFS)
	if err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
	if applied != 0 {
		t.Errorf("second Migrate() applied = %d, want 0", applied)
	}
}

func TestMigrate_FailureRollsBack(t *testing.T) {
	db, err := Open(testConfig(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck

	migrationsFS := fstest.MapFS{
		"20250101_000000_broken.up.sql": &fstest.MapFile{
			Data: []byte("CREATE SYNTAX ERROR;"),
		},
	}

	if _, err := db.Migrate(context.Background(), migrationsFS); err == nil {
		t.Fatal("Migrate() expected error for broken SQL, got nil")
	}

	// The failed migration must not be recorded as applied.
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("querying schema_migrations: %v", err)
	}
	if count != 0 {
		t.Errorf("schema_migrations count = %d, want 0", count)
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		wantVersion string
		wantName    string
		wantErr     bool
	}{
		{
			name:        "valid filename",
			path:        "20250101_120000_initial_schema.up.sql",
			wantVersion: "20250101_120000",
			wantName:    "initial_schema",
		},
		{
			name:        "nested path",
			path:        "sql/20250101_120000_initial_schema.up.sql",
			wantVersion: "20250101_120000",
			wantName:    "initial_schema",
		},
		{
			name:    "missing name segment",
			path:    "20250101_120000.up.sql",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, name, err := parseMigrationFilename(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseMigrationFilename(%q) error = %v, wantErr = %v", tt.path, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if version != tt.wantVersion {
				t.Errorf("version = %q, want %q", version, tt.wantVersion)
			}
			if name != tt.wantName {
				t.Errorf("name = %q, want %q", name, tt.wantName)
			}
		})
	}
}
