// Package migrations embeds the SQL migration files for the SQLite store.
package migrations

import "embed"

// FS holds the SQL migration files, applied in version order at startup.
//
//go:embed *.sql
var FS embed.FS
