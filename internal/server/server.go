// Package server wires the application together: database, services,
// handlers, middleware, and routes, plus startup and graceful shutdown.
// Everything is assembled in New so main.go stays a thin entry point.
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
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/harplab/site-api/internal/auth"
	"github.com/harplab/site-api/internal/blob"
	"github.com/harplab/site-api/internal/config"
	"github.com/harplab/site-api/internal/handler"
	"github.com/harplab/site-api/internal/metrics"
	"github.com/harplab/site-api/internal/middleware"
	sqliteRepo "github.com/harplab/site-api/internal/repository/sqlite"
	"github.com/harplab/site-api/internal/service"
)

// Server owns the router, the database pool, and the rate limiter's
// background goroutine. Construct with New; Start blocks until shutdown.
type Server struct {
	router  *chi.Mux
	cfg     *config.Config
	logger  *slog.Logger
	db      *sqliteRepo.DB
	limiter *middleware.RateLimiter
}

// New assembles the full dependency graph. Optional integrations degrade
// rather than fail: without Google credentials the OAuth routes are not
// registered, and without object storage the profile upload route answers
// 503.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router:  chi.NewRouter(),
		cfg:     cfg,
		logger:  logger,
		db:      db,
		limiter: middleware.NewRateLimiter(cfg.LoginRatePerMinute, cfg.LoginRateBurst, logger),
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func (s *Server) setupRoutes() error {
	// Auth building blocks shared across services and middleware.
	tokens, err := auth.NewTokenService(s.cfg.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()
	if s.cfg.BcryptCost > 0 {
		passwords = auth.NewPasswordServiceWithCost(s.cfg.BcryptCost)
	}

	users := s.db.Users()
	articles := s.db.Articles()
	teamMembers := s.db.TeamMembers()

	authService := service.NewAuthService(users, tokens, passwords, s.cfg.FrontendURL, s.logger)
	articleService := service.NewArticleService(articles, s.logger)
	teamService := service.NewTeamService(teamMembers, s.logger)

	var profileService *service.ProfileService
	if s.cfg.S3Enabled() {
		store, err := blob.New(context.Background(), blob.Config{
			Endpoint:      s.cfg.S3Endpoint,
			Region:        s.cfg.S3Region,
			Bucket:        s.cfg.S3Bucket,
			AccessKey:     s.cfg.S3AccessKey,
			SecretKey:     s.cfg.S3SecretKey,
			PublicBaseURL: s.cfg.S3PublicBaseURL,
		})
		if err != nil {
			return fmt.Errorf("creating object store: %w", err)
		}
		profileService = service.NewProfileService(users, store, s.logger)
	} else {
		s.logger.Warn("object storage not configured, profile uploads disabled")
	}

	var google *auth.GoogleProvider
	if s.cfg.GoogleEnabled() {
		google = auth.NewGoogleProvider(
			s.cfg.GoogleClientID,
			s.cfg.GoogleClientSecret,
			s.cfg.GoogleRedirectURL,
		)
	} else {
		s.logger.Warn("google credentials not configured, google login disabled")
	}

	authHandler := handler.NewAuthHandler(authService, google, s.cfg.FrontendURL, s.logger)
	articleHandler := handler.NewArticleHandler(articleService, s.logger)
	teamHandler := handler.NewTeamHandler(teamService, s.logger)
	userHandler := handler.NewUserHandler(authService, s.logger)
	profileHandler := handler.NewProfileHandler(profileService, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)

	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	requireAuth := auth.RequireAuth(tokens, users)

	// Global middleware, in execution order.
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(chimw.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.CORS(s.cfg.FrontendURL))
	s.router.Use(middleware.Metrics(collector))

	s.router.NotFound(handler.NotFound)
	s.router.MethodNotAllowed(handler.MethodNotAllowed)

	s.router.Get("/healthz", healthHandler.HandleHealth)
	s.router.Handle("/metrics", metrics.Handler(prometheus.DefaultGatherer))

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)

			// Credential endpoints are throttled per IP.
			r.Group(func(r chi.Router) {
				r.Use(s.limiter.Middleware)
				r.Post("/login", authHandler.HandleLogin)
				r.Post("/forgot-password", authHandler.HandleForgotPassword)
			})

			r.Post("/reset-password/{token}", authHandler.HandleResetPassword)
			r.Get("/logout", authHandler.HandleLogout)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me", authHandler.HandleMe)
			})

			if google != nil {
				r.Get("/google", authHandler.HandleGoogleLogin)
				r.Get("/google/callback", authHandler.HandleGoogleCallback)
			}
		})

		r.Route("/articles", func(r chi.Router) {
			r.Get("/", articleHandler.HandleList)
			r.Get("/search", articleHandler.HandleSearch)
			r.Get("/top", articleHandler.HandleListTop)
			r.Get("/{id}/image", articleHandler.HandleImage)
		})

		r.Route("/team", func(r chi.Router) {
			r.Get("/", teamHandler.HandleList)
			r.Get("/{id}", teamHandler.HandleGet)
			r.Get("/{id}/image", teamHandler.HandleImage)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/profile/upload", profileHandler.HandleUpload)
		})

		// Admin routes: authenticated and admin-flagged.
		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(auth.RequireAdmin)

			r.Post("/articles", articleHandler.HandleCreate)
			r.Patch("/articles/{id}/top-story", articleHandler.HandleToggleTopStory)
			r.Delete("/articles/{id}", articleHandler.HandleDelete)

			r.Post("/team", teamHandler.HandleCreate)
			r.Put("/team/{id}", teamHandler.HandleUpdate)
			r.Delete("/team/{id}", teamHandler.HandleDelete)

			r.Get("/users", userHandler.HandleList)
			r.Put("/users/{email}/toggle-admin", userHandler.HandleToggleAdmin)
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests for up
// to 30 seconds, close the database.
func (s *Server) Start() error {
	defer s.db.Close()
	defer s.limiter.Stop()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
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
			slog.Int("port", s.cfg.Port),
			slog.String("database", s.cfg.DBPath),
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

// Router exposes the configured mux for tests.
func (s *Server) Router() http.Handler {
	return s.router
}
