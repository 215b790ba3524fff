package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/pinboard/internal/common"
	"github.com/dmitrijs2005/pinboard/internal/server/auth"
	"github.com/dmitrijs2005/pinboard/internal/server/models"
)

// SessionResolver is the part of SessionService the gate needs.
type SessionResolver interface {
	CurrentUser(ctx context.Context, token string) (string, bool, error)
}

// Gate decides whether a caller may proceed.
type Gate struct {
	sessions SessionResolver
}

func NewGate(sessions SessionResolver) *Gate {
	return &Gate{sessions: sessions}
}

// RequireAuthenticated returns the user bound to token or
// common.ErrorUnauthenticated.
func (g *Gate) RequireAuthenticated(ctx context.Context, token string) (string, error) {
	userID, ok, err := g.sessions.CurrentUser(ctx, token)
	if err != nil {
		return "", fmt.Errorf("error checking session: %w", err)
	}
	if !ok {
		return "", common.ErrorUnauthenticated
	}
	return userID, nil
}

// Authenticated returns the user the session middleware put on ctx.
func (g *Gate) Authenticated(ctx context.Context) (string, error) {
	userID, ok := auth.UserIDFrom(ctx)
	if !ok {
		return "", common.ErrorUnauthenticated
	}
	return userID, nil
}

// RequireOwner allows only the owner of post.
func (g *Gate) RequireOwner(userID string, post *models.Post) error {
	if post == nil || userID == "" || post.OwnerID != userID {
		return common.ErrorForbidden
	}
	return nil
}
