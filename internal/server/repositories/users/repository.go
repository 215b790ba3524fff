// Package users persists user accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/pinboard/internal/server/models"
)

// Repository stores users. Implementations map a missing row to
// common.ErrorNotFound and a username collision to common.ErrorAlreadyExists.
// PostIDs is never read or written here.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUserName(ctx context.Context, userName string) (*models.User, error)
	// GetByIDs returns the users found among ids, keyed by id.
	GetByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
	// UpdateProfile applies the non-nil fields of upd in a single statement
	// and returns the updated row.
	UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error)
	// ReplaceProfileImage stores handle and returns the handle it replaced.
	ReplaceProfileImage(ctx context.Context, id, handle string) (string, error)
}

const userColumns = `id, username, password_hash, email, contact, display_name, profile_image, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}
