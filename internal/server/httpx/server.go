// Package httpx is the HTTP boundary of the server. It maps form posts and
// cookie sessions onto the services and renders read models as JSON.
package httpx

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/pinboard/internal/logging"
	"github.com/dmitrijs2005/pinboard/internal/server/config"
	"github.com/dmitrijs2005/pinboard/internal/server/services"
	"github.com/dmitrijs2005/pinboard/internal/server/storage"
)

const shutdownTimeout = 5 * time.Second

// Services groups the application services the handlers call.
type Services struct {
	Users    *services.UserService
	Sessions *services.SessionService
	Gate     *services.Gate
	Content  *services.ContentService
	Media    *services.MediaService
}

type Server struct {
	address         string
	users           *services.UserService
	sessions        *services.SessionService
	gate            *services.Gate
	content         *services.ContentService
	media           *services.MediaService
	logger          logging.Logger
	sessionLifetime time.Duration
	requestTimeout  time.Duration
	maxUploadSize   int64
	uploadDir       string
	handler         http.Handler
}

// NewServer builds the routing table. Stored files are served under
// storage.LocalURLPrefix only for the local storage backend.
func NewServer(c *config.Config, svc Services, l logging.Logger) *Server {
	s := &Server{
		address:         c.EndpointAddrHTTP,
		users:           svc.Users,
		sessions:        svc.Sessions,
		gate:            svc.Gate,
		content:         svc.Content,
		media:           svc.Media,
		logger:          l.With("module", "http_server"),
		sessionLifetime: c.SessionLifetime,
		requestTimeout:  c.RequestTimeout,
		maxUploadSize:   c.MaxUploadSize,
	}
	if c.StorageBackend == config.StorageLocal {
		s.uploadDir = c.UploadDir
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	public := func(h http.HandlerFunc) http.Handler {
		return s.withSession(h)
	}
	private := func(h http.HandlerFunc) http.Handler {
		return s.withSession(s.requireAuth(h))
	}

	mux.Handle("GET /{$}", public(s.handleIndex))
	mux.Handle("POST /register", public(s.handleRegister))
	mux.Handle("POST /login", public(s.handleLogin))
	mux.Handle("GET /logout", public(s.handleLogout))

	mux.Handle("GET /profile", private(s.handleProfile))
	mux.Handle("GET /edit", private(s.handleProfile))
	mux.Handle("GET /show/posts", private(s.handleProfile))
	mux.Handle("GET /feed", private(s.handleFeed))
	mux.Handle("POST /createpost", private(s.handleCreatePost))
	mux.Handle("POST /fileupload", private(s.handleFileUpload))
	mux.Handle("POST /update", private(s.handleUpdate))
	mux.Handle("GET /delete/{postID}", private(s.handleDelete))

	if s.uploadDir != "" {
		files := http.StripPrefix(storage.LocalURLPrefix, http.FileServer(http.Dir(s.uploadDir)))
		mux.Handle("GET "+storage.LocalURLPrefix, noDirListing(files))
	}

	return s.withAccessLog(s.withTimeout(mux))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.handler.ServeHTTP(w, r) }

// Run serves HTTP on the configured address until ctx is done, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-stopped
	return nil
}

func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
