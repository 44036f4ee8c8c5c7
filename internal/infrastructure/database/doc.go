// Package database provides SQLite connection management and schema
// migrations for the PeluPrice backend.
//
// # Connection Management
//
// The DB type wraps database/sql with SQLite-specific configuration:
//
//   - WAL mode for concurrent reads during writes
//   - Busy timeout to handle lock contention
//   - Foreign key enforcement (off by default in SQLite)
//   - Single writer connection (SQLite's sweet spot)
//   - Restrictive file permissions (0600)
//
// # Migrations
//
// Schema changes are embedded .up.sql files applied in version order.
// Applied versions are tracked in the schema_migrations table, so
// Migrate is safe to call on every startup:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	applied, err := db.Migrate(ctx, migrations.FS)
//
// Each migration runs in its own transaction. There is no automatic
// rollback support; down migrations exist for manual recovery only.
package database
