package database

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// Migration represents a single database migration.
type Migration struct {
	// Version is the migration identifier (e.g., "20250115_120000").
	// Migrations are applied in lexicographic version order.
	Version string

	// Name is a human-readable description (e.g., "initial_schema").
	Name string

	// SQL is the migration script to execute.
	SQL string
}

// Migrate applies all pending migrations from the provided filesystem.
//
// Migration files must follow the naming convention:
//
//	{version}_{name}.up.sql
//
// For example: 20250115_120000_initial_schema.up.sql
//
// Applied migrations are recorded in the schema_migrations table and
// skipped on subsequent runs. Each migration runs in its own transaction,
// so a failure leaves previously applied migrations intact.
//
// Parameters:
//   - ctx: Context for cancellation
//   - migrationsFS: Filesystem containing .up.sql files (typically embed.FS)
//
// Returns:
//   - int: Number of migrations applied in this run
//   - error: If any migration fails
func (db *DB) Migrate(ctx context.Context, migrationsFS fs.FS) (int, error) {
	if err := db.ensureMigrationsTable(ctx); err != nil {
		return 0, err
	}

	applied, err := db.appliedVersions(ctx)
	if err != nil {
		return 0, err
	}

	migrations, err := loadMigrations(migrationsFS)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if err := db.applyMigration(ctx, m); err != nil {
			return count, fmt.Errorf("applying migration %s_%s: %w", m.Version, m.Name, err)
		}
		count++
	}

	return count, nil
}

// ensureMigrationsTable creates the schema_migrations tracking table.
func (db *DB) ensureMigrationsTable(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}
	return nil
}

// appliedVersions returns the set of already-applied migration versions.
func (db *DB) appliedVersions(ctx context.Context) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("querying applied migrations: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only query cleanup

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scanning migration version: %w", err)
		}
		applied[version] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating migration versions: %w", err)
	}

	return applied, nil
}

// applyMigration executes a single migration in a transaction and records it.
func (db *DB) applyMigration(ctx context.Context, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // No-op if committed

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("executing migration SQL: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
		m.Version, m.Name,
	)
	if err != nil {
		return fmt.Errorf("recording migration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration: %w", err)
	}

	return nil
}

// loadMigrations reads and parses all .up.sql files from the filesystem,
// sorted by version.
func loadMigrations(migrationsFS fs.FS) ([]Migration, error) {
	var migrations []Migration

	err := fs.WalkDir(migrationsFS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".up.sql") {
			return nil
		}

		content, err := fs.ReadFile(migrationsFS, path)
		if err != nil {
			return fmt.Errorf("reading migration file %s: %w", path, err)
		}

		version, name, err := parseMigrationFilename(path)
		if err != nil {
			return err
		}

		migrations = append(migrations, Migration{
			Version: version,
			Name:    name,
			SQL:     string(content),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading migrations: %w", err)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// parseMigrationFilename extracts version and name from a migration path.
//
// Expected format: {date}_{time}_{name}.up.sql
// The version is the first two underscore-separated segments.
func parseMigrationFilename(path string) (version, name string, err error) {
	base := path
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		base = base[idx+1:]
	}
	base = strings.TrimSuffix(base, ".up.sql")

	parts := strings.SplitN(base, "_", 3)
	if len(parts) < 3 {
		return "", "", fmt.Errorf("invalid migration filename %q: expected {date}_{time}_{name}.up.sql", path)
	}

	return parts[0] + "_" + parts[1], parts[2], nil
}
