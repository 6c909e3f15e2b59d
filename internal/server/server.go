// Package server wires the application together: database, object store,
// auth, services, handlers and routes — the composition root. main.go
// stays minimal and just hands over a Config.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/otabek/ijara/internal/auth"
	"github.com/otabek/ijara/internal/handler"
	"github.com/otabek/ijara/internal/middleware"
	sqliteRepo "github.com/otabek/ijara/internal/repository/sqlite"
	"github.com/otabek/ijara/internal/service"
	s3store "github.com/otabek/ijara/internal/storage/s3"
)

// initDataMaxAge bounds how old a Telegram initData payload may be before
// sign-in rejects it as a replay.
const initDataMaxAge = 24 * time.Hour

// Config holds everything the server needs to start. It is assembled in
// main.go from the environment.
type Config struct {
	Port        int
	TemplateDir string
	StaticDir   string
	DBPath      string

	// BotToken verifies Telegram initData signatures; SessionSecret signs
	// the session tokens issued after verification. Both are required:
	// without an identity there is no listing submission.
	BotToken      string
	SessionSecret string

	Storage s3store.Config
}

// Server owns the router and the resources that must be released on
// shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates the server and assembles the whole dependency chain:
// database and object store at the bottom, the listing service on top of
// them, handlers on top of the service. Each layer only sees interfaces of
// the layer below.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware, pages and the API.
//
// ROUTE STRUCTURE:
//
//	GET    /                        → browse feed (HTML)
//	GET    /new                     → submission form (HTML)
//	GET    /profile                 → own listings (HTML)
//	GET    /house/{id}              → listing detail with carousel (HTML)
//	GET    /static/*                → static assets
//	GET    /health                  → liveness probe
//	POST   /api/auth/telegram       → initData sign-in, sets session cookie
//	GET    /api/listings            → filtered feed + facets (JSON)
//	GET    /api/listings/{id}       → single listing (JSON)
//	POST   /api/listings/validate   → draft completeness check (JSON)
//	GET    /api/catalog/districts   → districts of a city (JSON)
//	POST   /api/listings            → submit listing (multipart, session)
//	GET    /api/my/listings         → own listings (JSON, session)
//	DELETE /api/listings/{id}       → delete own listing (session)
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	fileServer := http.FileServer(http.Dir(s.config.StaticDir))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	store, err := s3store.New(context.Background(), s.config.Storage)
	if err != nil {
		return fmt.Errorf("creating object store: %w", err)
	}

	tokens, err := auth.NewTokenService(s.config.SessionSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	verifier := auth.NewInitDataVerifier(s.config.BotToken, initDataMaxAge)

	listingService := service.NewListingService(s.db.Listings(), s.db.Users(), store, s.logger)

	listingHandler := handler.NewListingHandler(listingService, s.logger)
	authHandler := handler.NewAuthHandler(verifier, tokens, s.logger)
	catalogHandler := handler.NewCatalogHandler()

	pageHandler, err := handler.NewPageHandler(s.config.TemplateDir, listingService, s.logger)
	if err != nil {
		return fmt.Errorf("creating page handler: %w", err)
	}
	s.router.Get("/", pageHandler.HandleIndex)
	s.router.Get("/new", pageHandler.HandleNew)
	s.router.Get("/profile", pageHandler.HandleProfile)
	s.router.Get("/house/{id}", pageHandler.HandleDetail)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/telegram", authHandler.HandleTelegramAuth)

		r.Get("/listings", listingHandler.HandleBrowse)
		r.Get("/listings/{id}", listingHandler.HandleGet)
		r.Post("/listings/validate", listingHandler.HandleValidate)
		r.Get("/catalog/districts", catalogHandler.HandleDistricts)

		// Everything below needs a verified session.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Post("/listings", listingHandler.HandleCreate)
			r.Get("/my/listings", listingHandler.HandleMine)
			r.Delete("/listings/{id}", listingHandler.HandleDelete)
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests, close
// the database to flush the WAL.
func (s *Server) Start() error {
	defer s.db.Close()

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
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
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
