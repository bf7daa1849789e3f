// Package server wires the application together: it owns the router, the
// database connection, and the dependency graph from repositories up to
// HTTP handlers. main.go stays minimal; everything composable lives here.
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

	"github.com/softdeskhq/softdesk/internal/auth"
	"github.com/softdeskhq/softdesk/internal/config"
	"github.com/softdeskhq/softdesk/internal/handler"
	"github.com/softdeskhq/softdesk/internal/middleware"
	sqliteRepo "github.com/softdeskhq/softdesk/internal/repository/sqlite"
	"github.com/softdeskhq/softdesk/internal/service"
)

// Server owns the HTTP router and the resources that must be released on
// shutdown.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database, builds the service and handler layers, and
// registers all routes.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
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

// Handler exposes the router, mainly for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.AccessTTL, s.config.RefreshTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	authService := service.NewAuthService(s.db.Users, tokens, passwords, s.logger)
	userService := service.NewUserService(s.db.Users, s.logger)
	projectService := service.NewProjectService(s.db.Projects, s.db.Users, s.db.Issues, s.logger)
	issueService := service.NewIssueService(s.db.Issues, s.db.Projects, s.db.Users, s.logger)
	commentService := service.NewCommentService(s.db.Comments, s.db.Issues, s.db.Projects, s.db.Users, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)
	projectHandler := handler.NewProjectHandler(projectService, s.logger)
	issueHandler := handler.NewIssueHandler(issueService, s.logger)
	commentHandler := handler.NewCommentHandler(commentService, s.logger)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.config.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.router.Route("/api", func(r chi.Router) {
		// Public routes: account creation and the token endpoints.
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/token", authHandler.HandleToken)
		r.Post("/token/refresh", authHandler.HandleRefresh)

		// Everything else requires a valid access token.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/users", userHandler.HandleList)
			r.Get("/users/{id}", userHandler.HandleGet)
			r.Patch("/users/{id}", userHandler.HandleUpdate)
			r.Delete("/users/{id}", userHandler.HandleDelete)
			r.Post("/users/{id}/change_password", authHandler.HandleChangePassword)

			r.Get("/projects", projectHandler.HandleList)
			r.Post("/projects", projectHandler.HandleCreate)
			r.Get("/projects/{id}", projectHandler.HandleGet)
			r.Patch("/projects/{id}", projectHandler.HandleUpdate)
			r.Delete("/projects/{id}", projectHandler.HandleDelete)
			r.Post("/projects/{id}/add_contributors", projectHandler.HandleAddContributors)
			r.Post("/projects/{id}/remove_contributors", projectHandler.HandleRemoveContributors)

			r.Get("/issues", issueHandler.HandleList)
			r.Post("/issues", issueHandler.HandleCreate)
			r.Get("/issues/{id}", issueHandler.HandleGet)
			r.Patch("/issues/{id}", issueHandler.HandleUpdate)
			r.Patch("/issues/{id}/update_status", issueHandler.HandleUpdateStatus)
			r.Delete("/issues/{id}", issueHandler.HandleDelete)

			r.Get("/comments", commentHandler.HandleList)
			r.Post("/comments", commentHandler.HandleCreate)
			r.Get("/comments/{id}", commentHandler.HandleGet)
			r.Patch("/comments/{id}", commentHandler.HandleUpdate)
			r.Delete("/comments/{id}", commentHandler.HandleDelete)
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then drains in-flight
// requests for up to 30 seconds and closes the database.
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
