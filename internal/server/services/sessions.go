package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pinboard/internal/common"
	"github.com/dmitrijs2005/pinboard/internal/dbx"
	"github.com/dmitrijs2005/pinboard/internal/logging"
	"github.com/dmitrijs2005/pinboard/internal/server/auth"
	"github.com/dmitrijs2005/pinboard/internal/server/models"
	"github.com/dmitrijs2005/pinboard/internal/server/repositories/repomanager"
)

// SessionService binds connections to authenticated users. The value handed
// to clients is a signed envelope around a random token; the database only
// stores the token hash.
type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	secret      []byte
	lifetime    time.Duration
	now         func() time.Time
}

// NewSessionService constructs a SessionService.
func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, secret []byte, lifetime time.Duration) *SessionService {
	return &SessionService{
		db:          db,
		repomanager: m,
		secret:      secret,
		lifetime:    lifetime,
		now:         time.Now,
	}
}

// Establish creates a session for userID and returns the client token. The
// session behind previousToken, if any, is removed in the same transaction.
func (s *SessionService) Establish(ctx context.Context, previousToken, userID string) (string, error) {
	raw, err := auth.NewSessionToken()
	if err != nil {
		return "", fmt.Errorf("error generating session token: %w", err)
	}

	signed, err := auth.GenerateToken(raw, s.secret, s.lifetime)
	if err != nil {
		return "", fmt.Errorf("error signing session token: %w", err)
	}

	previousHash := s.hashOf(previousToken)
	now := s.now().UTC()

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Sessions(tx)
		if previousHash != "" {
			if err := repo.Delete(ctx, previousHash); err != nil {
				return fmt.Errorf("error deleting previous session: %w", err)
			}
		}
		return repo.Create(ctx, &models.Session{
			TokenHash: auth.HashToken(raw),
			UserID:    userID,
			ExpiresAt: now.Add(s.lifetime),
			CreatedAt: now,
		})
	})
	if err != nil {
		return "", fmt.Errorf("error establishing session: %w", err)
	}

	return signed, nil
}

// CurrentUser resolves token to a user id. Bad signatures, expired envelopes
// and missing or expired rows all report ok == false; only store failures
// return an error.
func (s *SessionService) CurrentUser(ctx context.Context, token string) (string, bool, error) {
	if token == "" {
		return "", false, nil
	}

	raw, err := auth.GetSessionToken(token, s.secret)
	if err != nil {
		return "", false, nil
	}

	session, err := s.repomanager.Sessions(s.db).FindActive(ctx, auth.HashToken(raw), s.now().UTC())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("error resolving session: %w", err)
	}

	return session.UserID, true, nil
}

// Terminate ends the session behind token. Unknown, malformed and already
// terminated tokens are not an error.
func (s *SessionService) Terminate(ctx context.Context, token string) error {
	hash := s.hashOf(token)
	if hash == "" {
		return nil
	}

	if err := s.repomanager.Sessions(s.db).Delete(ctx, hash); err != nil {
		return fmt.Errorf("error terminating session: %w", err)
	}
	return nil
}

// Sweep deletes expired sessions.
func (s *SessionService) Sweep(ctx context.Context) (int64, error) {
	n, err := s.repomanager.Sessions(s.db).DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("error sweeping sessions: %w", err)
	}
	return n, nil
}

// RunSweeper calls Sweep every interval until ctx is done. A non-positive
// interval disables sweeping.
func (s *SessionService) RunSweeper(ctx context.Context, interval time.Duration, logger logging.Logger) {
	if interval <= 0 {
		logger.Warn(ctx, "session sweeper disabled", "interval", interval.String())
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				if ctx.Err() == nil {
					logger.Error(ctx, "session sweep failed", "error", err)
				}
				continue
			}
			if n > 0 {
				logger.Info(ctx, "expired sessions removed", "count", n)
			}
		}
	}
}

// hashOf returns the stored hash for a client token, or "" when the token
// does not carry a valid signature.
func (s *SessionService) hashOf(token string) string {
	if token == "" {
		return ""
	}
	raw, err := auth.GetSessionTokenIgnoringExpiry(token, s.secret)
	if err != nil {
		return ""
	}
	return auth.HashToken(raw)
}
