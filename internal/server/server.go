// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects handlers, middleware and
// routes, and decides:
//   - Which URL patterns map to which handler functions
//   - Which routes need a session and which only look at one
//   - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
// main.go reads the environment into a Config, then:
//
//	Server.New() creates: sqlite.DB → achievement catalog → services → handlers
//
// Everything is wired in one place (New/setupRoutes), the "composition root".
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/taskquest/internal/auth"
	"github.com/sakif/taskquest/internal/catalog"
	"github.com/sakif/taskquest/internal/game"
	"github.com/sakif/taskquest/internal/handler"
	"github.com/sakif/taskquest/internal/middleware"
	"github.com/sakif/taskquest/internal/model"
	sqliteRepo "github.com/sakif/taskquest/internal/repository/sqlite"
	"github.com/sakif/taskquest/internal/service"
)

// Config holds server configuration.
type Config struct {
	Port        int
	TemplateDir string
	StaticDir   string
	DBPath      string

	JWTSecret     string
	SessionTTL    time.Duration  // 0 means auth.DefaultSessionTTL
	Location      *time.Location // calendar used for streaks and task dates; nil means UTC
	SecureCookies bool
	// TrustProxy makes the client address come from X-Forwarded-For /
	// X-Real-IP. Only set it behind a reverse proxy that overwrites them.
	TrustProxy bool

	// GitHub sign-in is enabled only when both ID and secret are set.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	// Achievements seeded at startup. nil means the built-in catalog.
	Achievements []model.Achievement

	// Login/register throttle per client IP. Zero values use the defaults.
	AuthRatePerMinute int
	AuthRateBurst     int
}

const (
	defaultAuthRatePerMinute = 10
	defaultAuthRateBurst     = 5
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection. Start closes it after the HTTP
// server has drained, so pending writes are flushed and the file lock is
// released.
type Server struct {
	router  *chi.Mux
	config  Config
	logger  *slog.Logger
	db      *sqliteRepo.DB
	limiter *middleware.RateLimiter
}

// New opens the database, seeds the achievement catalog and wires every
// route. The returned server is ready for Start, or for Handler in tests.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.AuthRatePerMinute <= 0 {
		cfg.AuthRatePerMinute = defaultAuthRatePerMinute
	}
	if cfg.AuthRateBurst <= 0 {
		cfg.AuthRateBurst = defaultAuthRateBurst
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("configuring sessions: %w", err)
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	defs := cfg.Achievements
	if defs == nil {
		if defs, err = catalog.Default(); err != nil {
			db.Close()
			return nil, fmt.Errorf("loading achievement catalog: %w", err)
		}
	}
	cat, err := service.SeedAchievements(context.Background(), db, defs)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("seeding achievements: %w", err)
	}
	logger.Info("achievement catalog ready", slog.Int("achievements", cat.Len()))

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		db:      db,
		limiter: middleware.NewRateLimiter(cfg.AuthRatePerMinute, cfg.AuthRateBurst),
	}

	if err := s.setupRoutes(tokens, cat); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database. Start calls it on shutdown.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET  /                        → landing page
//	GET  /index                   → dashboard (login forms when anonymous)
//	POST /register, /login        → account forms (throttled per IP)
//	GET  /logout                  → clear the session cookie
//	GET  /auth/github/*           → GitHub sign-in, when configured
//	GET  /health                  → JSON liveness
//	GET  /static/*                → CSS, icons
//	---- session required, otherwise 303 to /index ----
//	GET/POST /config-musica       → music settings
//	POST /add                     → new task
//	GET  /concluir/{taskID}       → complete a task
//	GET  /ranking                 → leaderboards
//	GET  /amizade/enviar/{userID} → send a friend request
//	GET  /amizade/aceitar/{id}    → accept
//	GET  /amizade/recusar/{id}    → reject
//
// MIDDLEWARE ORDER MATTERS:
// RequestID first so the logger can print it, RealIP (behind a trusted
// proxy only) before anything keyed on the client address, Recoverer
// innermost so a panic is still logged as a 500.
func (s *Server) setupRoutes(tokens *auth.TokenService, cat *game.Catalog) error {
	s.router.Use(chimiddleware.RequestID)
	if s.config.TrustProxy {
		s.router.Use(chimiddleware.RealIP)
	}
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	fileServer := http.FileServer(http.Dir(s.config.StaticDir))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))
	s.router.Get("/health", handler.HandleHealth(s.db))

	// === Services ===
	deps := service.Deps{Logger: s.logger, Location: s.config.Location}
	authSvc := service.NewAuthService(s.db, cat, tokens, auth.NewPasswordService(), deps)
	taskSvc := service.NewTaskService(s.db, cat, deps)
	friendSvc := service.NewFriendService(s.db, deps)
	rankingSvc := service.NewRankingService(s.db, friendSvc)
	profileSvc := service.NewProfileService(s.db, taskSvc, friendSvc, deps)

	// === Handlers ===
	renderer, err := handler.NewRenderer(s.config.TemplateDir)
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}

	// A nil *auth.GitHubProvider stored in the interface would not compare
	// equal to nil, so only assign when configured.
	var github handler.GitHubProvider
	githubEnabled := s.config.GitHubClientID != "" && s.config.GitHubClientSecret != ""
	if githubEnabled {
		github = auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL)
	} else {
		s.logger.Info("GitHub sign-in disabled: GITHUB_CLIENT_ID or GITHUB_CLIENT_SECRET not set")
	}

	pages := handler.NewPageHandler(renderer, profileSvc, rankingSvc, handler.PageConfig{
		GitHubEnabled: githubEnabled,
		Location:      s.config.Location,
	}, s.logger)
	authHandler := handler.NewAuthHandler(authSvc, github, pages, handler.AuthConfig{
		SecureCookies: s.config.SecureCookies,
	}, s.logger)
	taskHandler := handler.NewTaskHandler(taskSvc, s.logger)
	friendHandler := handler.NewFriendHandler(friendSvc, s.logger)

	// === Public routes ===
	s.router.Group(func(r chi.Router) {
		r.Use(auth.OptionalAuth(tokens))
		r.Get("/", pages.HandleMenu)
		r.Get("/index", pages.HandleDashboard)

		r.With(middleware.RateLimit(s.limiter, middleware.ClientIP)).Group(func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
		})
	})
	s.router.Get("/logout", authHandler.HandleLogout)

	if githubEnabled {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	}

	// === Session routes ===
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens, handler.DashboardPath))

		r.Get("/config-musica", pages.HandleMusicForm)
		r.Post("/config-musica", pages.HandleMusicSave)
		r.Get("/ranking", pages.HandleRanking)

		r.Post("/add", taskHandler.HandleAdd)
		r.Get("/concluir/{taskID}", taskHandler.HandleComplete)

		r.Get("/amizade/enviar/{userID}", friendHandler.HandleSend)
		r.Get("/amizade/aceitar/{id}", friendHandler.HandleAccept)
		r.Get("/amizade/recusar/{id}", friendHandler.HandleReject)
	})

	return nil
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new HTTP connections
//  2. Wait for in-flight requests to finish (30s timeout)
//  3. Stop the rate limiter sweeper and close the database
func (s *Server) Start() error {
	defer s.Close()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go s.limiter.Run(ctx, time.Minute)

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
			slog.String("timezone", s.config.Location.String()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
