// Package migrations embeds the goose SQL migrations, one tree per dialect.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed sqlite/*.sql postgres/*.sql
var Migrations embed.FS

// Dialect returns the migration tree for dialect ("sqlite" or "postgres").
func Dialect(dialect string) (fs.FS, error) {
	return fs.Sub(Migrations, dialect)
}
