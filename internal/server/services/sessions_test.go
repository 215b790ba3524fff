package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/pinboard/internal/logging"
	"github.com/dmitrijs2005/pinboard/internal/server/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_EstablishAndResolve(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")

	tok, err := e.sessions.Establish(ctx, "", alice)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	id, ok, err := e.sessions.CurrentUser(ctx, tok)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, alice, id)

	raw, err := auth.GetSessionToken(tok, []byte("test-secret"))
	require.NoError(t, err)
	var stored int
	require.NoError(t, e.db.QueryRow(`SELECT COUNT(*) FROM sessions WHERE token_hash = ?`, auth.HashToken(raw)).Scan(&stored))
	assert.Equal(t, 1, stored, "only the hash is persisted")
	require.NoError(t, e.db.QueryRow(`SELECT COUNT(*) FROM sessions WHERE token_hash = ?`, raw).Scan(&stored))
	assert.Equal(t, 0, stored)
}

func TestSession_CurrentUserIsPure(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")
	tok, err := e.sessions.Establish(ctx, "", alice)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, ok, err := e.sessions.CurrentUser(ctx, tok)
		require.NoError(t, err)
		require.True(t, ok)
	}
	assert.Equal(t, 1, countRows(t, e.db, "sessions"))
}

func TestSession_InvalidTokens(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")
	tok, err := e.sessions.Establish(ctx, "", alice)
	require.NoError(t, err)

	forged, err := auth.GenerateToken("made-up", []byte("test-secret"), time.Hour)
	require.NoError(t, err)
	otherKey, err := auth.GenerateToken("x", []byte("other-secret"), time.Hour)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":         "",
		"garbage":       "not-a-token",
		"tampered":      tok + "x",
		"unknown row":   forged,
		"wrong signing": otherKey,
	} {
		t.Run(name, func(t *testing.T) {
			id, ok, err := e.sessions.CurrentUser(ctx, token)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Empty(t, id)
		})
	}
}

func TestSession_ExpiredRowIsAnonymous(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")

	tok, err := e.sessions.Establish(ctx, "", alice)
	require.NoError(t, err)

	e.sessions.now = func() time.Time { return time.Now().Add(25 * time.Hour) }

	_, ok, err := e.sessions.CurrentUser(ctx, tok)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := e.sessions.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 0, countRows(t, e.db, "sessions"))
}

func TestSession_EstablishReplacesPrevious(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")
	bob := e.register(t, "bob")

	first, err := e.sessions.Establish(ctx, "", alice)
	require.NoError(t, err)

	second, err := e.sessions.Establish(ctx, first, bob)
	require.NoError(t, err)

	_, ok, err := e.sessions.CurrentUser(ctx, first)
	require.NoError(t, err)
	assert.False(t, ok, "re-authentication drops the previous binding")

	id, ok, err := e.sessions.CurrentUser(ctx, second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, bob, id)
	assert.Equal(t, 1, countRows(t, e.db, "sessions"))
}

func TestSession_TerminateIsIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")
	tok, err := e.sessions.Establish(ctx, "", alice)
	require.NoError(t, err)

	require.NoError(t, e.sessions.Terminate(ctx, tok))
	_, ok, err := e.sessions.CurrentUser(ctx, tok)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, e.sessions.Terminate(ctx, tok))
	_, ok, err = e.sessions.CurrentUser(ctx, tok)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, e.sessions.Terminate(ctx, ""))
	require.NoError(t, e.sessions.Terminate(ctx, "garbage"))
}

func TestSession_TerminateExpiredEnvelopeRemovesRow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")

	e.sessions.lifetime = -time.Second
	tok, err := e.sessions.Establish(ctx, "", alice)
	require.NoError(t, err)
	require.Equal(t, 1, countRows(t, e.db, "sessions"))

	require.NoError(t, e.sessions.Terminate(ctx, tok))
	assert.Equal(t, 0, countRows(t, e.db, "sessions"))
}

func TestSession_EstablishRollsBackOnFailure(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	repo := &fakeSessionsRepo{createErr: errBoom{}}
	s := NewSessionService(db, &fakeRepoManager{s: repo}, []byte("k"), time.Hour)

	prev, err := auth.GenerateToken("prev", []byte("k"), time.Hour)
	require.NoError(t, err)

	_, err = s.Establish(context.Background(), prev, "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, []string{auth.HashToken("prev")}, repo.deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSession_EstablishCommits(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	repo := &fakeSessionsRepo{}
	s := NewSessionService(db, &fakeRepoManager{s: repo}, []byte("k"), time.Hour)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	tok, err := s.Establish(context.Background(), "", "u1")
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.Empty(t, repo.deleted, "no previous token, nothing to delete")
	assert.Equal(t, "u1", repo.created[0].UserID)
	assert.Equal(t, fixed.Add(time.Hour), repo.created[0].ExpiresAt)

	raw, err := auth.GetSessionToken(tok, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, auth.HashToken(raw), repo.created[0].TokenHash)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSession_StoreFailures(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	repo := &fakeSessionsRepo{findErr: errBoom{}, deleteErr: errBoom{}}
	s := NewSessionService(db, &fakeRepoManager{s: repo}, []byte("k"), time.Hour)
	tok, err := auth.GenerateToken("raw", []byte("k"), time.Hour)
	require.NoError(t, err)

	_, _, err = s.CurrentUser(context.Background(), tok)
	require.Error(t, err)

	require.Error(t, s.Terminate(context.Background(), tok))

	_, err = s.Sweep(context.Background())
	require.Error(t, err)
}

func TestSession_RunSweeperStopsWithContext(t *testing.T) {
	e := newEnv(t)
	alice := e.register(t, "alice")

	e.sessions.lifetime = time.Millisecond
	_, err := e.sessions.Establish(context.Background(), "", alice)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.sessions.RunSweeper(ctx, 5*time.Millisecond, logging.NewDiscardLogger())
	}()

	require.Eventually(t, func() bool {
		var n int
		if err := e.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
			return false
		}
		return n == 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	wg.Wait()
}

func TestSession_RunSweeperNonPositiveInterval(t *testing.T) {
	e := newEnv(t)

	for _, interval := range []time.Duration{0, -time.Second} {
		done := make(chan struct{})
		go func() {
			defer close(done)
			e.sessions.RunSweeper(context.Background(), interval, logging.NewDiscardLogger())
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("RunSweeper(%s) did not return", interval)
		}
	}
}
