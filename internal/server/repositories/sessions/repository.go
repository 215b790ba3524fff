// Package sessions declares the repository contract for login sessions and
// its PostgreSQL and SQLite implementations. Only token hashes are stored.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/pinboard/internal/server/models"
)

// Repository defines operations for creating, resolving and revoking sessions.
type Repository interface {
	// Create stores a new session row.
	Create(ctx context.Context, session *models.Session) error

	// FindActive returns the session with tokenHash that has not expired at
	// now. Missing and expired rows both yield common.ErrorNotFound.
	FindActive(ctx context.Context, tokenHash string, now time.Time) (*models.Session, error)

	// Delete removes a session by token hash. Deleting a non-existent
	// session is not an error.
	Delete(ctx context.Context, tokenHash string) error

	// DeleteExpired removes every session that expired at or before now and
	// reports how many rows were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
