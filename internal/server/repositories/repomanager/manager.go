package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"

	"github.com/dmitrijs2005/pinboard/internal/dbx"
	"github.com/dmitrijs2005/pinboard/internal/server/repositories/posts"
	"github.com/dmitrijs2005/pinboard/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/pinboard/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code
// path works against the pool or inside dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Posts(db dbx.DBTX) posts.Repository
	Sessions(db dbx.DBTX) sessions.Repository
}

// gooseUp is a seam for testing the goose provider.
var gooseUp = func(ctx context.Context, dialect goose.Dialect, db *sql.DB, fsys fs.FS) error {
	p, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return err
	}
	_, err = p.Up(ctx)
	return err
}

// IsPostgresDSN reports whether dsn selects the PostgreSQL backend.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Open connects to the database named by dsn, applies migrations and returns
// the handle together with the matching RepositoryManager. A postgres:// URL
// selects pgx; anything else is treated as a SQLite file path.
func Open(ctx context.Context, dsn string) (*sql.DB, RepositoryManager, error) {
	var (
		db  *sql.DB
		m   RepositoryManager
		err error
	)

	if IsPostgresDSN(dsn) {
		db, err = sql.Open("pgx", dsn)
		m = NewPostgresRepositoryManager()
	} else {
		db, err = sql.Open("sqlite", SQLiteDSN(dsn))
		m = NewSQLiteRepositoryManager()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	if !IsPostgresDSN(dsn) {
		// one connection serializes writers; see dbx.WithTx
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, m, nil
}
