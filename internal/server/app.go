// Package server initializes and runs the Pinboard server: it opens the
// database, picks the file storage backend, wires the services and runs the
// HTTP endpoint, the gRPC health endpoint and the session sweeper until a
// shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/pinboard/internal/logging"
	"github.com/dmitrijs2005/pinboard/internal/server/config"
	"github.com/dmitrijs2005/pinboard/internal/server/httpx"
	"github.com/dmitrijs2005/pinboard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/pinboard/internal/server/services"
	"github.com/dmitrijs2005/pinboard/internal/server/storage"

	gs "github.com/dmitrijs2005/pinboard/internal/server/grpc"
)

// healthCheckInterval is how often the gRPC health status re-pings the
// database.
const healthCheckInterval = 15 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	sessions *services.SessionService
	http     *httpx.Server
	grpc     *gs.HealthServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if c.SecretKey == config.DefaultSecretKey {
		logger.Warn(ctx, "session secret is the development default; set SECRET_KEY or -s")
	}

	db, rm, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	fs, err := newFileStorage(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	sessions := services.NewSessionService(db, rm, []byte(c.SecretKey), c.SessionLifetime)
	gate := services.NewGate(sessions)
	content := services.NewContentService(db, rm, gate)
	media := services.NewMediaService(gate, content, fs, logger)

	hs := httpx.NewServer(c, httpx.Services{
		Users:    services.NewUserService(db, rm),
		Sessions: sessions,
		Gate:     gate,
		Content:  content,
		Media:    media,
	}, logger)

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		sessions: sessions,
		http:     hs,
		grpc:     gs.NewHealthServer(c.EndpointAddrGRPC, logger, db, healthCheckInterval),
	}, nil
}

// newFileStorage returns the backend selected by c.StorageBackend.
func newFileStorage(ctx context.Context, c *config.Config) (storage.FileStorage, error) {
	switch c.StorageBackend {
	case config.StorageLocal:
		fs, err := storage.NewLocalStorage(c.UploadDir)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case config.StorageS3:
		fs, err := storage.NewS3Storage(ctx, storage.S3Config{
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			BaseEndpoint: c.S3BaseEndpoint,
			Bucket:       c.S3Bucket,
		})
		if err != nil {
			return nil, err
		}
		return fs, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.http.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.grpc.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is canceled, a shutdown signal arrives or one of the
// servers fails, then closes the database.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.sessions.RunSweeper(ctx, app.config.SessionSweepInterval, app.logger.With("module", "session_sweeper"))
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "error closing database", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
