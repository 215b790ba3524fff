// Package storage keeps uploaded image bytes outside the database. The core
// only ever sees the opaque handle a backend returns from Store.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/pinboard/internal/common"
	"github.com/google/uuid"
)

// FileStorage stores and removes uploaded files.
type FileStorage interface {
	// Store writes size bytes from r and returns a fresh handle. originalName
	// only contributes its extension.
	Store(ctx context.Context, r io.Reader, size int64, originalName string) (string, error)
	// Delete removes the file behind handle. Unknown handles are not an error.
	Delete(ctx context.Context, handle string) error
	// URL returns where a client can fetch the file.
	URL(ctx context.Context, handle string) (string, error)
}

var extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,10}$`)

// NewKey returns a storage key of the form users/YYYY/M/D/<uuid><ext>.
func NewKey(now time.Time, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !extPattern.MatchString(ext) {
		ext = ""
	}
	return fmt.Sprintf("%s/%d/%d/%d/%v%s", common.StorageKeyPrefix, now.Year(), now.Month(), now.Day(), uuid.New(), ext)
}

// ValidHandle reports whether handle has the shape NewKey produces, so it
// can never address anything outside the storage root.
func ValidHandle(handle string) bool {
	if !strings.HasPrefix(handle, common.StorageKeyPrefix+"/") {
		return false
	}
	if strings.Contains(handle, "\\") || strings.Contains(handle, "..") {
		return false
	}
	return path.Clean(handle) == handle
}
