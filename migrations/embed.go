// Package migrations embeds the SQL schema migration files.
//
// Files follow the naming convention {date}_{time}_{name}.up.sql and
// are applied in version order by the database package. Down scripts
// are kept alongside for manual recovery; they are never executed
// automatically.
package migrations

import "embed"

// FS contains all migration SQL files.
//
//go:embed *.sql
var FS embed.FS
