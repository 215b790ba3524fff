package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/pinboard/internal/common"
	"github.com/dmitrijs2005/pinboard/internal/dbx"
	"github.com/dmitrijs2005/pinboard/internal/server/models"
	"github.com/dmitrijs2005/pinboard/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// DefaultFeedLimit caps the number of posts returned by Feed.
const DefaultFeedLimit = 100

// ContentService is the only writer of posts and of the per-user post lists.
// Every write that touches both happens in one transaction, so a post is in
// its owner's list exactly when it exists.
type ContentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	gate        *Gate
	now         func() time.Time
	feedLimit   int
}

// NewContentService constructs a ContentService.
func NewContentService(db *sql.DB, m repomanager.RepositoryManager, gate *Gate) *ContentService {
	return &ContentService{
		db:          db,
		repomanager: m,
		gate:        gate,
		now:         time.Now,
		feedLimit:   DefaultFeedLimit,
	}
}

// CreatePost inserts a post owned by ownerID and appends it to the owner's
// post list.
func (s *ContentService) CreatePost(ctx context.Context, ownerID, title, description, imageHandle string) (*models.Post, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	switch {
	case title == "":
		return nil, fmt.Errorf("%w: title is required", common.ErrorValidation)
	case description == "":
		return nil, fmt.Errorf("%w: description is required", common.ErrorValidation)
	case imageHandle == "":
		return nil, fmt.Errorf("%w: image is required", common.ErrorValidation)
	}

	post := &models.Post{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		ImageHandle: imageHandle,
		CreatedAt:   s.now().UTC(),
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Users(tx).GetByID(ctx, ownerID); err != nil {
			return err
		}

		postRepo := s.repomanager.Posts(tx)
		if err := postRepo.Create(ctx, post); err != nil {
			return err
		}
		return postRepo.AppendOwned(ctx, ownerID, post.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}

	return post, nil
}

// DeletePost removes postID on behalf of userID and returns the removed
// record. Non-owners get common.ErrorForbidden and nothing changes; a post
// that is already gone yields common.ErrorNotFound.
func (s *ContentService) DeletePost(ctx context.Context, userID, postID string) (*models.Post, error) {
	var removed *models.Post

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		postRepo := s.repomanager.Posts(tx)

		post, err := postRepo.GetByID(ctx, postID)
		if err != nil {
			return err
		}
		if err := s.gate.RequireOwner(userID, post); err != nil {
			return err
		}

		if err := postRepo.RemoveOwned(ctx, post.OwnerID, post.ID); err != nil {
			return err
		}
		// zero rows here means a concurrent delete won
		if err := postRepo.Delete(ctx, post.ID); err != nil {
			return err
		}

		removed = post
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error deleting post: %w", err)
	}

	return removed, nil
}

// SetProfileImage replaces userID's profile image and returns the previous
// handle ("" when there was none).
func (s *ContentService) SetProfileImage(ctx context.Context, userID, handle string) (string, error) {
	if handle == "" {
		return "", fmt.Errorf("%w: image is required", common.ErrorValidation)
	}

	var previous string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		previous, err = s.repomanager.Users(tx).ReplaceProfileImage(ctx, userID, handle)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("error setting profile image: %w", err)
	}

	return previous, nil
}

// UpdateProfile applies the non-nil fields of upd as a single write. It never
// touches the post list or the credential.
func (s *ContentService) UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.User, error) {
	upd = trimUpdate(upd)
	if upd.UserName != nil && *upd.UserName == "" {
		return nil, fmt.Errorf("%w: username cannot be empty", common.ErrorValidation)
	}

	if upd.Empty() {
		return s.User(ctx, userID)
	}

	u, err := s.repomanager.Users(s.db).UpdateProfile(ctx, userID, upd)
	if err != nil {
		return nil, fmt.Errorf("error updating profile: %w", err)
	}

	ids, err := s.repomanager.Posts(s.db).OwnedIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading posts: %w", err)
	}
	u.PostIDs = ids

	return u, nil
}

// User returns a user with PostIDs populated.
func (s *ContentService) User(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	ids, err := s.repomanager.Posts(s.db).OwnedIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading posts: %w", err)
	}
	u.PostIDs = ids

	return u, nil
}

// Post returns a single post.
func (s *ContentService) Post(ctx context.Context, postID string) (*models.Post, error) {
	p, err := s.repomanager.Posts(s.db).GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("error loading post: %w", err)
	}
	return p, nil
}

// Profile returns userID together with its posts in list order.
func (s *ContentService) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	u, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	posts, err := s.repomanager.Posts(s.db).ListOwned(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading posts: %w", err)
	}

	u.PostIDs = make([]string, len(posts))
	for i, p := range posts {
		u.PostIDs[i] = p.ID
	}

	return &models.Profile{User: u, Posts: posts}, nil
}

// Feed returns the most recent posts of all users, newest first, each with
// its owner resolved. IsOwner marks the viewer's own posts.
func (s *ContentService) Feed(ctx context.Context, viewerID string) ([]*models.FeedItem, error) {
	posts, err := s.repomanager.Posts(s.db).ListRecent(ctx, s.feedLimit)
	if err != nil {
		return nil, fmt.Errorf("error loading feed: %w", err)
	}

	ownerIDs := make([]string, 0, len(posts))
	seen := make(map[string]struct{}, len(posts))
	for _, p := range posts {
		if _, ok := seen[p.OwnerID]; ok {
			continue
		}
		seen[p.OwnerID] = struct{}{}
		ownerIDs = append(ownerIDs, p.OwnerID)
	}

	owners, err := s.repomanager.Users(s.db).GetByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, fmt.Errorf("error loading feed owners: %w", err)
	}

	items := make([]*models.FeedItem, 0, len(posts))
	for _, p := range posts {
		items = append(items, &models.FeedItem{
			Post:    p,
			Owner:   owners[p.OwnerID],
			IsOwner: viewerID != "" && p.OwnerID == viewerID,
		})
	}

	return items, nil
}

func trimUpdate(upd models.ProfileUpdate) models.ProfileUpdate {
	trim := func(v *string) *string {
		if v == nil {
			return nil
		}
		t := strings.TrimSpace(*v)
		return &t
	}
	return models.ProfileUpdate{
		DisplayName: trim(upd.DisplayName),
		UserName:    trim(upd.UserName),
		Email:       trim(upd.Email),
		Contact:     trim(upd.Contact),
	}
}
