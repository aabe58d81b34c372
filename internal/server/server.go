// Package server is the composition root: it builds the store Manager,
// the services and handlers, mounts the routes and runs the HTTP server.
//
// DEPENDENCY FLOW:
//
//	config → Opener (sqlstore | pgstore) → repository.Manager
//	       → UserService, PostService, CommentService
//	       → AuthHandler, PostHandler, CommentHandler, UserHandler, SystemHandler
//
// Nothing below this package knows which database driver is in use.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/qaforum/internal/auth"
	"github.com/sakif/qaforum/internal/config"
	"github.com/sakif/qaforum/internal/handler"
	"github.com/sakif/qaforum/internal/middleware"
	"github.com/sakif/qaforum/internal/repository"
	"github.com/sakif/qaforum/internal/repository/pgstore"
	"github.com/sakif/qaforum/internal/repository/sqlstore"
	"github.com/sakif/qaforum/internal/service"
)

// Config holds what the server needs to wire itself.
type Config struct {
	Port           int
	DBDriver       string
	DBDSN          string
	ConnectTimeout time.Duration
	// JWTSecret enables login tokens when non-empty.
	JWTSecret string
	// PasswordCost is the bcrypt cost; 0 means auth.DefaultCost.
	PasswordCost int
}

// FromConfig maps the process configuration onto a server Config.
func FromConfig(c config.Config) Config {
	return Config{
		Port:           c.Port,
		DBDriver:       c.DBDriver,
		DBDSN:          c.DBDSN,
		ConnectTimeout: c.ConnectTimeout,
		JWTSecret:      c.JWTSecret,
	}
}

// Server owns the router and the store Manager. The Manager is closed on
// shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	stores *repository.Manager
}

// New wires the dependency graph. It does not touch the database; the
// first connection is made lazily by the Manager.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	open, err := newOpener(cfg)
	if err != nil {
		return nil, err
	}

	var tokens *auth.TokenService
	if cfg.JWTSecret != "" {
		tokens, err = auth.NewTokenService(cfg.JWTSecret, auth.DefaultTokenTTL)
		if err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		stores: repository.NewManager(open, logger),
	}
	s.setupRoutes(tokens)
	return s, nil
}

// newOpener picks the store implementation for cfg.DBDriver.
func newOpener(cfg Config) (repository.Opener, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite, "":
		return func(ctx context.Context) (repository.Store, error) {
			if err := ensureSQLiteDir(cfg.DBDSN); err != nil {
				return nil, err
			}
			db, err := sqlstore.Open(ctx, sqlstore.Config{
				Driver:         sqlstore.DriverSQLite,
				DSN:            cfg.DBDSN,
				ConnectTimeout: cfg.ConnectTimeout,
			})
			if err != nil {
				return nil, err
			}
			return db, nil
		}, nil

	case config.DriverMySQL:
		return func(ctx context.Context) (repository.Store, error) {
			db, err := sqlstore.Open(ctx, sqlstore.Config{
				Driver:         sqlstore.DriverMySQL,
				DSN:            cfg.DBDSN,
				ConnectTimeout: cfg.ConnectTimeout,
			})
			if err != nil {
				return nil, err
			}
			return db, nil
		}, nil

	case config.DriverPostgres:
		return func(ctx context.Context) (repository.Store, error) {
			db, err := pgstore.Open(ctx, cfg.DBDSN, cfg.ConnectTimeout)
			if err != nil {
				return nil, err
			}
			return db, nil
		}, nil
	}
	return nil, fmt.Errorf("server: unsupported database driver %q", cfg.DBDriver)
}

// ensureSQLiteDir creates the directory of a file-backed SQLite database,
// like `mkdir -p`. In-memory and URI DSNs are left alone.
func ensureSQLiteDir(dsn string) error {
	if dsn == "" || strings.HasPrefix(dsn, ":memory:") || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("server: creating database directory %s: %w", dir, err)
	}
	return nil
}

// setupRoutes mounts middleware and every API route.
//
// MIDDLEWARE ORDER:
//  1. RequestID   → X-Request-Id for tracing, read by the logger
//  2. RealIP      → client address from proxy headers
//  3. Logger      → one structured line per request
//  4. Recover     → panics become 500 JSON, logged with the request id
//  5. OptionalAuth→ bearer token identity, when tokens are enabled
func (s *Server) setupRoutes(tokens *auth.TokenService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Recover(s.logger))
	s.router.Use(auth.OptionalAuth(tokens))

	passwords := auth.NewPasswordService(s.config.PasswordCost)
	users := service.NewUserService(s.stores, passwords, tokens, s.logger)
	posts := service.NewPostService(s.stores, s.logger)
	comments := service.NewCommentService(s.stores, s.logger)

	authHandler := handler.NewAuthHandler(users)
	postHandler := handler.NewPostHandler(posts)
	commentHandler := handler.NewCommentHandler(comments)
	userHandler := handler.NewUserHandler(users, posts, comments)
	systemHandler := handler.NewSystemHandler(s.stores)

	s.router.NotFound(systemHandler.NotFound)
	s.router.MethodNotAllowed(systemHandler.MethodNotAllowed)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/test", systemHandler.Test)

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)

		r.Get("/posts", postHandler.List)
		r.Post("/posts", postHandler.Create)
		r.Get("/posts/{postId}", postHandler.Get)
		r.Delete("/posts/{postId}", postHandler.Delete)

		r.Get("/comments", commentHandler.List)
		r.Post("/comments", commentHandler.Create)
		r.Delete("/comments/{commentId}", commentHandler.Delete)

		r.Get("/user/role", userHandler.Role)
		r.Get("/user/posts", userHandler.Posts)
		r.Get("/user/comments", userHandler.Comments)

		r.Put("/users/{id}/username", userHandler.ChangeUsername)
		r.Put("/users/{id}/password", userHandler.ChangePassword)
	})
}

// Handler exposes the router, for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the store.
func (s *Server) Close() error {
	return s.stores.Close()
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests
// for up to 30 seconds and closes the store.
//
// The first store acquisition happens here so a misconfigured database is
// visible in the startup log. Failure is logged, not fatal: the Manager
// retries on the next request.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("diagnostics", fmt.Sprintf("http://localhost:%d/api/test", s.config.Port)),
			slog.String("driver", s.config.DBDriver),
			slog.Bool("tokens", s.config.JWTSecret != ""),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	if _, err := s.stores.Acquire(context.Background()); err != nil {
		s.logger.Warn("database not reachable at startup, will retry on first request")
	} else {
		s.logger.Info("database ready")
	}

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
