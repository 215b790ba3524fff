// Package migrations embeds the goose SQL migrations for both supported
// database dialects.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed postgres/*.sql sqlite/*.sql
var Migrations embed.FS

// Postgres returns the migrations for PostgreSQL rooted at their directory.
func Postgres() fs.FS {
	return sub("postgres")
}

// SQLite returns the migrations for SQLite rooted at their directory.
func SQLite() fs.FS {
	return sub("sqlite")
}

func sub(dir string) fs.FS {
	f, err := fs.Sub(Migrations, dir)
	if err != nil {
		// dir is a compile-time constant present in the embed pattern
		panic(err)
	}
	return f
}
