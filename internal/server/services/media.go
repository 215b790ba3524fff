package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/pinboard/internal/common"
	"github.com/dmitrijs2005/pinboard/internal/logging"
	"github.com/dmitrijs2005/pinboard/internal/server/models"
	"github.com/dmitrijs2005/pinboard/internal/server/storage"
)

// FileUpload is an uploaded file as received from a form.
type FileUpload struct {
	Name    string
	Size    int64
	Content io.Reader
}

// PostUpload is a post creation request: metadata plus the image file.
type PostUpload struct {
	Title       string
	Description string
	File        *FileUpload
}

// MediaService ties stored files to ledger entries. A file is stored before
// the ledger write and removed again if that write fails, so a post never
// references a missing file.
type MediaService struct {
	gate    *Gate
	content *ContentService
	storage storage.FileStorage
	logger  logging.Logger
}

// NewMediaService constructs a MediaService.
func NewMediaService(gate *Gate, content *ContentService, fs storage.FileStorage, logger logging.Logger) *MediaService {
	return &MediaService{
		gate:    gate,
		content: content,
		storage: fs,
		logger:  logger.With("module", "media"),
	}
}

// CreatePost stores the uploaded image and records a post owned by the
// authenticated user.
func (s *MediaService) CreatePost(ctx context.Context, in PostUpload) (*models.Post, error) {
	userID, err := s.gate.Authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if !hasFile(in.File) {
		return nil, common.ErrorMissingFile
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", common.ErrorValidation)
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", common.ErrorValidation)
	}

	handle, err := s.store(ctx, in.File)
	if err != nil {
		return nil, err
	}

	post, err := s.content.CreatePost(ctx, userID, in.Title, in.Description, handle)
	if err != nil {
		s.discard(ctx, handle, "post creation failed")
		return nil, err
	}

	s.logger.Info(ctx, "post created", "post_id", post.ID, "owner_id", userID)
	return post, nil
}

// SetProfileImage stores the uploaded image as the authenticated user's
// profile image and returns its handle. The replaced image file is removed.
func (s *MediaService) SetProfileImage(ctx context.Context, file *FileUpload) (string, error) {
	userID, err := s.gate.Authenticated(ctx)
	if err != nil {
		return "", err
	}

	if !hasFile(file) {
		return "", common.ErrorMissingFile
	}

	handle, err := s.store(ctx, file)
	if err != nil {
		return "", err
	}

	previous, err := s.content.SetProfileImage(ctx, userID, handle)
	if err != nil {
		s.discard(ctx, handle, "profile image update failed")
		return "", err
	}

	if previous != "" && previous != handle {
		s.discard(ctx, previous, "profile image replaced")
	}

	return handle, nil
}

// DeletePost removes one of the authenticated user's posts and then its
// image file.
func (s *MediaService) DeletePost(ctx context.Context, postID string) (*models.Post, error) {
	userID, err := s.gate.Authenticated(ctx)
	if err != nil {
		return nil, err
	}

	post, err := s.content.DeletePost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	s.discard(ctx, post.ImageHandle, "post deleted")
	s.logger.Info(ctx, "post deleted", "post_id", post.ID, "owner_id", userID)
	return post, nil
}

// URL resolves a handle for presentation. Empty handles map to "".
func (s *MediaService) URL(ctx context.Context, handle string) string {
	if handle == "" {
		return ""
	}
	u, err := s.storage.URL(ctx, handle)
	if err != nil {
		s.logger.Warn(ctx, "cannot resolve file url", "handle", handle, "error", err)
		return ""
	}
	return u
}

func (s *MediaService) store(ctx context.Context, f *FileUpload) (string, error) {
	handle, err := s.storage.Store(ctx, f.Content, f.Size, f.Name)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrorStorage, err)
	}
	return handle, nil
}

// discard deletes a stored file best-effort. Failures leave an orphan file
// and are logged.
func (s *MediaService) discard(ctx context.Context, handle, reason string) {
	if handle == "" {
		return
	}
	if err := s.storage.Delete(context.WithoutCancel(ctx), handle); err != nil {
		s.logger.Error(ctx, "stored file cleanup failed", "handle", handle, "reason", reason, "error", err)
	}
}

func hasFile(f *FileUpload) bool {
	return f != nil && f.Content != nil && f.Name != ""
}
