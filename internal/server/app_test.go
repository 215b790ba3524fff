package server

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/pinboard/internal/logging"
	"github.com/dmitrijs2005/pinboard/internal/server/config"
	"github.com/dmitrijs2005/pinboard/internal/server/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.LoadDefaults()
	dir := t.TempDir()
	c.DatabaseDSN = filepath.Join(dir, "pinboard.db")
	c.UploadDir = filepath.Join(dir, "uploads")
	c.EndpointAddrHTTP = "127.0.0.1:0"
	c.EndpointAddrGRPC = "127.0.0.1:0"
	c.SessionSweepInterval = time.Hour
	return c
}

func TestNewFileStorage(t *testing.T) {
	c := testConfig(t)

	fs, err := newFileStorage(context.Background(), c)
	require.NoError(t, err)
	local, ok := fs.(*storage.LocalStorage)
	require.True(t, ok, "local backend expected, got %T", fs)
	assert.Equal(t, c.UploadDir, local.Root())

	c.StorageBackend = "ftp"
	_, err = newFileStorage(context.Background(), c)
	require.Error(t, err)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	c := testConfig(t)

	app, err := newApp(context.Background(), c, logging.NewDiscardLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop after cancel")
	}

	require.Error(t, app.db.PingContext(context.Background()), "database closed on shutdown")
}

func TestNewApp_BadDatabase(t *testing.T) {
	c := testConfig(t)
	c.DatabaseDSN = filepath.Join(t.TempDir(), "missing", "dir", "pinboard.db")

	_, err := newApp(context.Background(), c, logging.NewDiscardLogger())
	require.Error(t, err)
}

func TestNewApp_WarnsOnDefaultSecret(t *testing.T) {
	var logs bytes.Buffer
	c := testConfig(t)

	app, err := newApp(context.Background(), c, logging.NewJSONLogger(&logs, slog.LevelDebug))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.db.Close() })
	assert.Contains(t, logs.String(), "development default")

	logs.Reset()
	c = testConfig(t)
	c.SecretKey = "a-real-secret"
	app, err = newApp(context.Background(), c, logging.NewJSONLogger(&logs, slog.LevelDebug))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.db.Close() })
	assert.NotContains(t, logs.String(), "development default")
}
