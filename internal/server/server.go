// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "composition root" — the one place where the entire
// dependency graph is assembled: storage → repositories → services →
// handlers → routes. Each layer only receives what it needs; handlers never
// touch the database, services never touch HTTP.
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

	"github.com/sakif/expense-tracker/internal/auth"
	"github.com/sakif/expense-tracker/internal/config"
	"github.com/sakif/expense-tracker/internal/filestore"
	"github.com/sakif/expense-tracker/internal/handler"
	"github.com/sakif/expense-tracker/internal/middleware"
	sqliteRepo "github.com/sakif/expense-tracker/internal/repository/sqlite"
	"github.com/sakif/expense-tracker/internal/service"
	"github.com/sakif/expense-tracker/internal/sms"
)

// Server owns the router and the resources that must be released on
// shutdown (the database connection).
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New wires the full dependency graph and returns a ready-to-start Server.
//
// The SMS provider is injected rather than constructed here so cmd/server
// decides once — from configuration — whether codes go to a real gateway or
// to the development side channel. Nothing below this point knows which one
// it got.
func New(cfg *config.Config, sender sms.Provider, logger *slog.Logger) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT secret is required (set JWT_SECRET)")
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

	if err := s.setupRoutes(sender); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	POST   /api/auth/request-code       → issue an OTP (public)
//	POST   /api/auth/verify             → verify OTP, open session (public)
//	POST   /api/auth/logout             → clear session cookie (public)
//	GET    /api/me                      → current user            (auth)
//	CRUD   /api/categories[/{id}]                                 (auth)
//	CRUD   /api/expenses[/{id}]                                   (auth)
//	GET    /api/expenses/{id}/receipt   → stored photo            (auth)
//	GET    /api/stats/summary           → dashboard summary       (auth)
//	GET    /api/stats/period            → week/month/year stats   (auth)
//
// MIDDLEWARE ORDER MATTERS: RequestID and RealIP enrich the request before
// the logger records it; Recoverer wraps everything so a panic becomes a 500
// instead of a dead process.
func (s *Server) setupRoutes(sender sms.Provider) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	files, err := filestore.New(s.config.UploadDir)
	if err != nil {
		return fmt.Errorf("creating file store: %w", err)
	}

	users := s.db.Users()
	categories := s.db.Categories()
	expenses := s.db.Expenses()

	authSvc := service.NewAuthService(users, categories, tokens, sender, s.logger)
	categorySvc := service.NewCategoryService(categories, expenses, s.logger)
	expenseSvc := service.NewExpenseService(expenses, categories, files, s.logger)
	statsSvc := service.NewStatsService(expenses)

	authHandler := handler.NewAuthHandler(authSvc, s.logger)
	categoryHandler := handler.NewCategoryHandler(categorySvc, s.logger)
	expenseHandler := handler.NewExpenseHandler(expenseSvc, s.logger)
	statsHandler := handler.NewStatsHandler(statsSvc, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		// Pre-authentication: these three are how you GET a session.
		r.Post("/auth/request-code", authHandler.HandleRequestCode)
		r.Post("/auth/verify", authHandler.HandleVerify)
		r.Post("/auth/logout", authHandler.HandleLogout)

		// Everything else re-checks the user on every request.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens, users))

			r.Get("/me", authHandler.HandleMe)

			r.Get("/categories", categoryHandler.HandleList)
			r.Post("/categories", categoryHandler.HandleCreate)
			r.Get("/categories/{id}", categoryHandler.HandleGet)
			r.Put("/categories/{id}", categoryHandler.HandleUpdate)
			r.Delete("/categories/{id}", categoryHandler.HandleDelete)

			r.Get("/expenses", expenseHandler.HandleList)
			r.Post("/expenses", expenseHandler.HandleCreate)
			r.Get("/expenses/{id}", expenseHandler.HandleGet)
			r.Put("/expenses/{id}", expenseHandler.HandleUpdate)
			r.Delete("/expenses/{id}", expenseHandler.HandleDelete)
			r.Get("/expenses/{id}/receipt", expenseHandler.HandleReceipt)

			r.Get("/stats/summary", statsHandler.HandleSummary)
			r.Get("/stats/period", statsHandler.HandlePeriod)
		})
	})

	return nil
}

// Start starts the HTTP server and handles graceful shutdown.
//
// On SIGINT/SIGTERM: stop accepting connections, give in-flight requests 30
// seconds to finish, then close the database (flushes the WAL and releases
// the file lock).
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

// Router exposes the configured router for httptest-based tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Close releases the database without starting the server. Start handles
// this itself; tests that only use Router should defer Close.
func (s *Server) Close() error {
	return s.db.Close()
}
