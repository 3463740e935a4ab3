package migrations

import "embed"

// FS contains embedded SQLite migrations for the asset registry.
//
//go:embed *.sql
var FS embed.FS
