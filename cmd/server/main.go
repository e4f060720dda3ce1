package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pmarks/flashdeck/internal/api"
	"github.com/pmarks/flashdeck/internal/config"
	"github.com/pmarks/flashdeck/internal/logger"
	"github.com/pmarks/flashdeck/internal/repository"
	"github.com/pmarks/flashdeck/internal/session"
	"github.com/pmarks/flashdeck/internal/stats"
	"github.com/pmarks/flashdeck/internal/storage"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("FlashDeck Server Starting")
	log.Info("===========================================")

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)

	// Open storage
	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open storage: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing storage")
		store.Close()
	}()

	ctx := context.Background()

	// Restore persisted state
	repo := repository.New(store)
	if err := repo.Load(ctx); err != nil {
		log.Error("failed to load repository: %v", err)
		os.Exit(1)
	}

	aggregator := stats.New(repo, store)
	if err := aggregator.Load(ctx); err != nil {
		log.Error("failed to load statistics: %v", err)
		os.Exit(1)
	}

	engine := session.New(repo, aggregator, store)
	if err := engine.Load(ctx); err != nil {
		log.Error("failed to load session state: %v", err)
		os.Exit(1)
	}

	srv := &api.Server{
		Repo:    repo,
		Session: engine,
		Stats:   aggregator,
	}

	// Configure HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Info("===========================================")
	log.Info("FlashDeck Server Stopped")
	log.Info("===========================================")
}
