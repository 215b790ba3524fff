package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/pinboard/internal/filex"
)

// LocalURLPrefix is the HTTP path under which local files are served.
const LocalURLPrefix = "/uploads/"

// LocalStorage keeps files in a directory tree mirroring the handle.
type LocalStorage struct {
	root string
	now  func() time.Time
}

// NewLocalStorage creates dir if needed.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	root, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return &LocalStorage{root: root, now: time.Now}, nil
}

// Root is the absolute directory files are written to.
func (s *LocalStorage) Root() string {
	return s.root
}

func (s *LocalStorage) Store(ctx context.Context, r io.Reader, size int64, originalName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := NewKey(s.now(), originalName)
	dst := s.path(key)

	if err := os.MkdirAll(filepath.Dir(dst), 0o770); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", key, err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && size >= 0 && n != size {
		err = fmt.Errorf("short write: %d of %d bytes", n, size)
	}
	if err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("write %s: %w", key, err)
	}

	return key, nil
}

func (s *LocalStorage) Delete(ctx context.Context, handle string) error {
	if !ValidHandle(handle) {
		return fmt.Errorf("invalid handle %q", handle)
	}
	if err := os.Remove(s.path(handle)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", handle, err)
	}
	return nil
}

func (s *LocalStorage) URL(ctx context.Context, handle string) (string, error) {
	if !ValidHandle(handle) {
		return "", fmt.Errorf("invalid handle %q", handle)
	}
	return LocalURLPrefix + handle, nil
}

func (s *LocalStorage) path(handle string) string {
	return filepath.Join(s.root, filepath.FromSlash(handle))
}
