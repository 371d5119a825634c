// Starboost - Sales challenge evaluation engine.
// Copyright (c) 2025 Starboost
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/starboost/starboost/internal/api"
	"github.com/starboost/starboost/internal/bus"
	"github.com/starboost/starboost/internal/cache"
	"github.com/starboost/starboost/internal/directory"
	"github.com/starboost/starboost/internal/domain"
	"github.com/starboost/starboost/internal/evaluation"
	"github.com/starboost/starboost/internal/repository"
	"github.com/starboost/starboost/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("STARBOOST_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Log startup
	slog.Info("starting starboost",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg := domain.DefaultConfig()

	// Check for Pro tier via environment
	if os.Getenv("STARBOOST_TIER") == "pro" {
		cfg = domain.ProConfig()
		slog.Info("running in Pro tier mode")
	}

	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Store
	store, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize name directory with cache-backed reads
	dir := directory.New(store, cacheImpl, cfg.Cache.LocalTTL)

	// Initialize Evaluation Service
	service := evaluation.NewService(store, busImpl)
	slog.Info("evaluation service initialized")

	// Initialize async Worker. Always on for the Pro tier; opt-in for
	// Community so single-node setups can use the async endpoint too.
	var asyncWorker *worker.Worker
	if cfg.Tier == domain.TierPro || os.Getenv("STARBOOST_ASYNC_WORKER") == "true" {
		asyncWorker = worker.NewWorker(busImpl, service)
		if err := asyncWorker.Start(); err != nil {
			slog.Error("failed to start async worker", "error", err)
		}
	}

	// Initialize Server
	srv := api.NewServer(cfg.Server, store, cacheImpl, busImpl, service, dir, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("starboost is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop async worker first
	if asyncWorker != nil {
		if err := asyncWorker.Stop(); err != nil {
			slog.Error("failed to stop async worker", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("starboost shutdown complete")
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════╗")
	fmt.Println("  ║              ⭐ STARBOOST                 ║")
	fmt.Println("  ║    Sales Challenge Evaluation Engine      ║")
	fmt.Println("  ║      Every sale counts. Literally.        ║")
	fmt.Println("  ╚═══════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /challenges                              - Create a challenge with rules")
	fmt.Println("    GET  /challenges/{id}                         - Get challenge and rules")
	fmt.Println("    PUT  /challenges/{id}/participants            - Enroll participants")
	fmt.Println("    POST /challenges/{id}/transactions            - Record a sale")
	fmt.Println("    GET  /challenges/{id}/scores                  - Per-seller scores")
	fmt.Println("    GET  /challenges/{id}/performance/{view}      - Ranked leaderboards")
	fmt.Println("    GET  /challenges/{id}/winners                 - Evaluate and list winners")
	fmt.Println("    POST /challenges/{id}/evaluate                - Run and persist an evaluation")
	fmt.Println("    POST /challenges/{id}/evaluate/async          - Queue an evaluation")
	fmt.Println("    GET  /challenges/{id}/evaluations/{runId}     - Get a persisted run")
	fmt.Println("    POST /challenges/{id}/rewards/compute         - Preview a payout")
	fmt.Println("    GET  /health                                  - Health check")
	fmt.Println()
}
