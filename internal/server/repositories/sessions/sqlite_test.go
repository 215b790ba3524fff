package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/pinboard/internal/common"
	"github.com/dmitrijs2005/pinboard/internal/server/models"
	"github.com/dmitrijs2005/pinboard/internal/server/repositories/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) *SQLiteRepository {
	t.Helper()
	db := repotest.OpenSQLite(t)
	_, err := db.Exec(`INSERT INTO users (id, username, password_hash, created_at) VALUES ('u1', 'alice', 'h', 0)`)
	require.NoError(t, err)
	return NewSQLiteRepository(db)
}

func TestSQLite_SessionLifecycle(t *testing.T) {
	r := setup(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, r.Create(ctx, &models.Session{TokenHash: "h1", UserID: "u1", ExpiresAt: now.Add(time.Hour), CreatedAt: now}))

	s, err := r.FindActive(ctx, "h1", now)
	require.NoError(t, err)
	assert.Equal(t, "u1", s.UserID)
	assert.True(t, s.ExpiresAt.Equal(now.Add(time.Hour)))

	_, err = r.FindActive(ctx, "h1", now.Add(time.Hour))
	require.ErrorIs(t, err, common.ErrorNotFound, "expired at the boundary")

	require.NoError(t, r.Delete(ctx, "h1"))
	require.NoError(t, r.Delete(ctx, "h1"), "deleting twice is fine")

	_, err = r.FindActive(ctx, "h1", now)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSQLite_CreateUnknownUserFails(t *testing.T) {
	r := setup(t)

	err := r.Create(context.Background(), &models.Session{TokenHash: "h", UserID: "ghost", ExpiresAt: time.Now()})
	require.Error(t, err)
}

func TestSQLite_DeleteExpired(t *testing.T) {
	r := setup(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, r.Create(ctx, &models.Session{TokenHash: "old", UserID: "u1", ExpiresAt: now.Add(-time.Minute), CreatedAt: now}))
	require.NoError(t, r.Create(ctx, &models.Session{TokenHash: "edge", UserID: "u1", ExpiresAt: now, CreatedAt: now}))
	require.NoError(t, r.Create(ctx, &models.Session{TokenHash: "live", UserID: "u1", ExpiresAt: now.Add(time.Minute), CreatedAt: now}))

	n, err := r.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = r.FindActive(ctx, "live", now)
	require.NoError(t, err)
}
