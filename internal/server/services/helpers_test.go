package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/pinboard/internal/logging"
	"github.com/dmitrijs2005/pinboard/internal/server/auth"
	"github.com/dmitrijs2005/pinboard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/pinboard/internal/server/repositories/repotest"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	auth.PasswordCost = bcrypt.MinCost
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

// memStorage is an in-memory storage.FileStorage with switchable failures.
type memStorage struct {
	mu        sync.Mutex
	files     map[string][]byte
	seq       int
	storeErr  error
	deleteErr error
	deleted   []string
}

func newMemStorage() *memStorage {
	return &memStorage{files: map[string][]byte{}}
}

func (m *memStorage) Store(ctx context.Context, r io.Reader, size int64, originalName string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storeErr != nil {
		return "", m.storeErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.seq++
	h := fmt.Sprintf("users/2024/1/1/file-%d-%s", m.seq, originalName)
	m.files[h] = b
	return h, nil
}

func (m *memStorage) Delete(ctx context.Context, handle string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.files, handle)
	m.deleted = append(m.deleted, handle)
	return nil
}

func (m *memStorage) URL(ctx context.Context, handle string) (string, error) {
	if handle == "bad" {
		return "", errors.New("no url")
	}
	return "/uploads/" + handle, nil
}

func (m *memStorage) handles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.files))
	for h := range m.files {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

// env wires every service against a migrated SQLite database.
type env struct {
	db       *sql.DB
	rm       repomanager.RepositoryManager
	store    *memStorage
	users    *UserService
	sessions *SessionService
	gate     *Gate
	content  *ContentService
	media    *MediaService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := repotest.OpenSQLite(t)
	rm := repomanager.NewSQLiteRepositoryManager()
	store := newMemStorage()

	sessions := NewSessionService(db, rm, []byte("test-secret"), 24*time.Hour)
	gate := NewGate(sessions)
	content := NewContentService(db, rm, gate)

	return &env{
		db:       db,
		rm:       rm,
		store:    store,
		users:    NewUserService(db, rm),
		sessions: sessions,
		gate:     gate,
		content:  content,
		media:    NewMediaService(gate, content, store, logging.NewDiscardLogger()),
	}
}

// register creates a user and returns its id.
func (e *env) register(t *testing.T, name string) string {
	t.Helper()
	u, err := e.users.Register(context.Background(), RegisterInput{Username: name, Password: "pw-" + name})
	require.NoError(t, err)
	return u.ID
}

// as returns a context authenticated as userID, like the HTTP middleware.
func as(userID string) context.Context {
	return auth.WithUserID(context.Background(), userID)
}

func upload(name, body string) *FileUpload {
	return &FileUpload{Name: name, Size: int64(len(body)), Content: bytes.NewReader([]byte(body))}
}

// assertLedger checks that every user's post list equals the set of posts
// whose owner is that user.
func assertLedger(t *testing.T, db *sql.DB) {
	t.Helper()

	listed := map[string][]string{}
	rows, err := db.Query(`SELECT user_id, post_id FROM user_posts ORDER BY user_id, post_id`)
	require.NoError(t, err)
	for rows.Next() {
		var u, p string
		require.NoError(t, rows.Scan(&u, &p))
		listed[u] = append(listed[u], p)
	}
	require.NoError(t, rows.Err())
	require.NoError(t, rows.Close())

	owned := map[string][]string{}
	rows, err = db.Query(`SELECT user_id, id FROM posts ORDER BY user_id, id`)
	require.NoError(t, err)
	for rows.Next() {
		var u, p string
		require.NoError(t, rows.Scan(&u, &p))
		owned[u] = append(owned[u], p)
	}
	require.NoError(t, rows.Err())
	require.NoError(t, rows.Close())

	require.Equal(t, owned, listed, "post lists out of sync with post owners")
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}
