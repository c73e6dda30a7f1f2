package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ddepu11/DimensionServer/internal/server/config"
	"github.com/ddepu11/DimensionServer/internal/server/handlers"
	"github.com/ddepu11/DimensionServer/internal/server/middleware"
	"github.com/ddepu11/DimensionServer/internal/server/poke"
	"github.com/ddepu11/DimensionServer/internal/server/storage/sqlite"
	syncsvc "github.com/ddepu11/DimensionServer/internal/server/sync"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Parse flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := cfg.NewLogger()

	// Контекст живет до SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Открываем SQLite storage, миграции применяются при старте
	store, err := sqlite.New(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", "error", err)
		}
	}()

	// Собираем ядро синхронизации
	hub := poke.NewHub(logger)
	defer hub.Close()

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow, logger)
	defer rateLimiter.Stop()

	registry := syncsvc.NewRegistry(syncsvc.TodoMutators()...)
	service := syncsvc.New(logger, store, registry, hub)

	syncHandler := handlers.NewSyncHandler(logger, service)
	statusHandler := handlers.NewStatusHandler(logger)

	// Роутинг
	r := chi.NewRouter()
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RecoveryMiddleware(logger))
	r.Use(middleware.LoggingWithSkip(logger, []string{"/api/status", "/api/replicache/poke"}))

	r.Route("/api/replicache", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitMiddleware(rateLimiter))
			r.Post("/push", syncHandler.HandlePush)
			r.Post("/pull", syncHandler.HandlePull)
		})
		r.Get("/poke", hub.HandleWS)
	})
	r.Get("/api/status", statusHandler.Status)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			"addr", cfg.Addr(),
			"database", cfg.DatabasePath,
			"version", Version)
		errC <- srv.ListenAndServe()
	}()

	select {
	case err := <-errC:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}

	return nil
}

func printVersion() {
	fmt.Printf("DimensionServer\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
