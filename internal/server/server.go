// Package server sets up the HTTP server, router and all route definitions.
//
// This is the composition root: every dependency in the app is created and
// wired here, then handed down. Handlers never touch the database; services
// never touch HTTP.
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
	"github.com/go-chi/cors"

	"github.com/sakif/snippethub/internal/auth"
	"github.com/sakif/snippethub/internal/explain"
	"github.com/sakif/snippethub/internal/handler"
	"github.com/sakif/snippethub/internal/middleware"
	sqliteRepo "github.com/sakif/snippethub/internal/repository/sqlite"
	"github.com/sakif/snippethub/internal/service"
)

// Config holds server configuration, loaded from the environment in main.
type Config struct {
	Port   int
	DBPath string

	JWTSecret string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string

	// FrontendOrigin is the browser origin of the web client. It is both
	// the allowed CORS origin and the post-OAuth redirect target.
	FrontendOrigin string

	// SecureCookies sets the Secure flag on the session cookie. Off only
	// for plain-HTTP local development.
	SecureCookies bool
}

// Server owns the router and the process-lifetime resources, chiefly the
// database connection, which it closes on shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server and wires the full dependency chain: database →
// repositories → services → handlers → routes. explainer may be nil, in
// which case the explain endpoint reports itself unavailable.
func New(cfg Config, logger *slog.Logger, explainer explain.Explainer) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		return nil, err
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

	s.setupRoutes(tokens, explainer)
	return s, nil
}

// setupRoutes configures global middleware and the full route table.
//
// Middleware order matters: RequestID and RealIP first so the logger sees
// them, Recoverer before anything that can panic, CORS before routing so
// preflights get answered.
func (s *Server) setupRoutes(tokens *auth.TokenService, explainer explain.Explainer) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.config.FrontendOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true, // session cookie
		MaxAge:           300,
	}))

	// The sqlite.DB satisfies every repository interface; each service
	// receives only the interfaces it needs.
	passwords := auth.NewPasswordService()
	google := auth.NewGoogleProvider(
		s.config.GoogleClientID,
		s.config.GoogleClientSecret,
		s.config.GoogleCallbackURL,
	)

	authService := service.NewAuthService(s.db, s.db, tokens, passwords, s.logger)
	snippetService := service.NewSnippetService(s.db, s.db, s.logger)
	folderService := service.NewFolderService(s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, google, s.config.FrontendOrigin, s.config.SecureCookies, s.logger)
	snippetHandler := handler.NewSnippetHandler(snippetService, s.logger)
	folderHandler := handler.NewFolderHandler(folderService, snippetService, s.logger)
	explainHandler := handler.NewExplainHandler(explainer, s.logger)

	// Auth entry points sit outside /api: they are browser-facing, not part
	// of the JSON procedure surface.
	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.HandleSignUp)
		r.Post("/signin", authHandler.HandleSignIn)
		r.Post("/signout", authHandler.HandleSignOut)
		r.Get("/google/login", authHandler.HandleGoogleLogin)
		r.Get("/google/callback", authHandler.HandleGoogleCallback)
	})

	s.router.Route("/api", func(r chi.Router) {
		// Anonymous-friendly routes: the public read surface.
		r.Group(func(r chi.Router) {
			r.Get("/snippets/{id}/public", snippetHandler.HandleGetPublic)
			r.Get("/snippets/{id}/visibility", snippetHandler.HandleGetVisibility)
			r.Get("/search", snippetHandler.HandleSearch)
		})

		// Everything else requires a signed-in caller.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(authService))

			r.Get("/me", authHandler.HandleMe)

			r.Get("/snippets", snippetHandler.HandleList)
			r.Post("/snippets", snippetHandler.HandleCreate)
			r.Get("/snippets/starred", snippetHandler.HandleListStarred)
			r.Get("/snippets/{id}", snippetHandler.HandleGetByID)
			r.Put("/snippets/{id}", snippetHandler.HandleUpdate)
			r.Delete("/snippets/{id}", snippetHandler.HandleDelete)
			r.Post("/snippets/{id}/star", snippetHandler.HandleStar)

			r.Get("/folders", folderHandler.HandleList)
			r.Post("/folders", folderHandler.HandleCreate)
			r.Get("/folders/{id}", folderHandler.HandleGetByID)
			r.Put("/folders/{id}", folderHandler.HandleUpdate)
			r.Delete("/folders/{id}", folderHandler.HandleDelete)
			r.Get("/folders/{id}/children", folderHandler.HandleChildren)
			r.Get("/folders/{id}/snippets", folderHandler.HandleSnippets)

			r.Post("/explain", explainHandler.HandleExplain)
		})
	})
}

// Start runs the HTTP server until a shutdown signal arrives, then drains
// in-flight requests and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	// Sweep expired session rows hourly. Resolution rejects stale sessions
	// on sight regardless; this just keeps the table from growing.
	sweepDone := make(chan struct{})
	defer close(sweepDone)
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.db.DeleteExpiredSessions(context.Background(), time.Now()); err != nil {
					s.logger.Warn("session sweep failed", slog.String("error", err.Error()))
				}
			case <-sweepDone:
				return
			}
		}
	}()

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", s.config.Port),
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the explain endpoint streams for as long as the
		// model generates. Per-request deadlines come from the client.
		IdleTimeout: 60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
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
