// Package migrations embeds the SQLite save-store schema for goose.
package migrations

import "embed"

// FS holds the goose migration files.
//
//go:embed *.sql
var FS embed.FS
