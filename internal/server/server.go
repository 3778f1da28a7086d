package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/booknest/apiserver/config"
	"github.com/booknest/apiserver/internal/catalog"
	"github.com/booknest/apiserver/internal/db"
	"github.com/booknest/apiserver/internal/events"
	"github.com/booknest/apiserver/internal/handlers"
	"github.com/booknest/apiserver/internal/mq"
	"github.com/booknest/apiserver/internal/services"
	"github.com/booknest/apiserver/internal/store"
)

// Server wraps the HTTP server and its long-lived dependencies.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	broker     mq.Backend
	logger     *slog.Logger
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	broker, err := mq.NewBackend(ctx, cfg.Events)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if broker == nil {
		logger.Info("book events disabled, no broker configured")
	}

	userRepo := store.NewUserRepository(dbConn)
	bookRepo := store.NewBookRepository(dbConn)

	userService := services.NewUserService(userRepo)
	bookService := services.NewBookService(bookRepo, events.NewPublisher(broker), logger)

	catalogClient := catalog.NewClient(cfg.Catalog)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, userService, jwtSecret)
	})
	router.Route("/books", func(r chi.Router) {
		r.Use(handlers.WithIdentity(jwtSecret))
		handlers.BookRouter(r, bookService, catalogClient)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		broker:     broker,
		logger:     logger,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.broker != nil {
		_ = s.broker.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
