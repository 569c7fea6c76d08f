// Package migrations embeds the goose migrations for each SQL dialect.
package migrations

import "embed"

// FS holds one directory of goose migrations per dialect.
//
//go:embed postgres/*.sql mysql/*.sql
var FS embed.FS
