package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/flightline/casa-compliance/internal/api"
	"github.com/flightline/casa-compliance/internal/compliance"
	"github.com/flightline/casa-compliance/internal/config"
	"github.com/flightline/casa-compliance/internal/rules"
	"github.com/flightline/casa-compliance/internal/seed"
	"github.com/flightline/casa-compliance/internal/service"
	"github.com/flightline/casa-compliance/internal/storage/sql"
	"github.com/flightline/casa-compliance/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Create data directory if needed (for SQLite)
	if cfg.Database.Driver == "sqlite3" {
		if dir := filepath.Dir(cfg.Database.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				log.Fatalf("Failed to create data directory: %v", err)
			}
		}
	}

	// Initialize storage
	store, err := sql.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	// Seed rules from file, if configured
	if cfg.Compliance.RuleSeedFile != "" {
		if err := seed.LoadFile(context.Background(), store, logger, cfg.Compliance.RuleSeedFile); err != nil {
			log.Fatalf("Failed to seed compliance rules: %v", err)
		}
	}

	// Wire the evaluation pipeline
	cache := rules.NewCache(store)
	engine := compliance.NewEngine(logger)

	var collector *metrics.Collector
	var metricsHandler http.Handler
	if cfg.Compliance.MetricsEnabled {
		collector = metrics.NewCollector()
		metricsHandler = collector.Handler()
	}

	complianceService := service.NewComplianceService(store, cache, engine, collector, logger)

	// Background recheck loop
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	go complianceService.StartRecheckLoop(loopCtx, cfg.Compliance.RecheckInterval)

	// Create router
	router := api.NewRouter(store, cache, complianceService, cfg.Auth.BootstrapAPIKey, metricsHandler)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Starting CASA compliance engine on http://%s", cfg.Server.Addr())
	log.Printf("Press Ctrl+C to stop")

	// Start server in goroutine
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	stopLoop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
