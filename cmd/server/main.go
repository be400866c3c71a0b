package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/nhm-india/fund-tracker/internal/config"
	"github.com/nhm-india/fund-tracker/internal/logging"
	"github.com/nhm-india/fund-tracker/internal/server"
	"github.com/nhm-india/fund-tracker/internal/services"
	"github.com/nhm-india/fund-tracker/internal/storage/backend"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if envErr != nil {
		logger.Info("no .env file found; relying on existing environment")
	}
	if cfg.UsesDefaultSecret() {
		logger.Warn("SECRET_KEY not set; tokens are signed with the built-in default key")
	}
	if !cfg.EnforceAdminAuth {
		logger.Warn("admin routes are not access-controlled; set ENFORCE_ADMIN_AUTH=true to require an admin token")
	}

	ctx := context.Background()
	store, err := backend.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("init database", zap.Error(err))
	}
	defer store.Close()
	logger.Info("database ready", zap.String("driver", backend.Driver(cfg.DatabaseURL)))

	created, err := services.NewAccessService(store, logger).ProvisionDefaultAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		logger.Fatal("provision default admin", zap.Error(err))
	}
	if !created {
		logger.Info("default admin already present", zap.String("username", cfg.AdminUsername))
	}

	srv := server.New(cfg, store, logger)

	go func() {
		logger.Info("fund tracker listening", zap.String("addr", cfg.HTTPAddress()))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("graceful shutdown error", zap.Error(err))
	}
}
