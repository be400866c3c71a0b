package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/nhm-india/fund-tracker/internal/auth"
	"github.com/nhm-india/fund-tracker/internal/config"
	"github.com/nhm-india/fund-tracker/internal/http/handlers"
	"github.com/nhm-india/fund-tracker/internal/middleware"
	"github.com/nhm-india/fund-tracker/internal/services"
	"github.com/nhm-india/fund-tracker/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up services, middleware, and routes, and returns a ready server.
func New(cfg config.Config, store storage.Store, log *zap.Logger) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           NewHandler(cfg, store, log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// NewHandler builds the full middleware and route stack.
func NewHandler(cfg config.Config, store storage.Store, log *zap.Logger) http.Handler {
	tokens := auth.NewTokenManager(cfg.SecretKey, cfg.JWTIssuer, cfg.JWTTTL)
	admin := middleware.RequireAdmin(tokens, cfg.EnforceAdminAuth, log)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(time.Now()).Register(mux)
	handlers.NewAuthHandler(services.NewAccessService(store, log), tokens, log).Register(mux, admin)
	handlers.NewFundsHandler(services.NewLedgerService(store, log), log).Register(mux, admin)
	handlers.NewResetHandler(services.NewResetService(store, log), log).Register(mux)

	return middleware.CORS(cfg.CORSOrigins, middleware.Logging(log, mux))
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
