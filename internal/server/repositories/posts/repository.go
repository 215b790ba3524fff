// Package posts persists posts and the ordered per-user ownership list.
package posts

import (
	"context"

	"github.com/dmitrijs2005/pinboard/internal/server/models"
)

// Repository stores posts and the user_posts ownership rows. Only the
// content ledger writes through it.
type Repository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	// Delete removes the post row; common.ErrorNotFound when nothing matched.
	Delete(ctx context.Context, id string) error
	// ListRecent returns up to limit posts, newest first.
	ListRecent(ctx context.Context, limit int) ([]*models.Post, error)
	// ListOwned returns the posts listed for userID in ownership order.
	ListOwned(ctx context.Context, userID string) ([]*models.Post, error)

	// AppendOwned adds postID to the end of userID's post list.
	AppendOwned(ctx context.Context, userID, postID string) error
	// RemoveOwned drops postID from userID's post list. Absent rows are not
	// an error.
	RemoveOwned(ctx context.Context, userID, postID string) error
	// OwnedIDs returns userID's post list in order.
	OwnedIDs(ctx context.Context, userID string) ([]string, error)
}

const postColumns = `p.id, p.user_id, p.title, p.description, p.image_handle, p.created_at`

type rowScanner interface {
	Scan(dest ...any) error
}
