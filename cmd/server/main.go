// Package main provides the entry point for the Sharpline engine service.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/api"
	"github.com/yourusername/sharpline/internal/config"
	"github.com/yourusername/sharpline/internal/database"
	"github.com/yourusername/sharpline/internal/datasource"
	"github.com/yourusername/sharpline/internal/engine"
	"github.com/yourusername/sharpline/internal/health"
	"github.com/yourusername/sharpline/internal/logger"
	"github.com/yourusername/sharpline/internal/metrics"
	"github.com/yourusername/sharpline/internal/repository"
	"github.com/yourusername/sharpline/internal/scheduler"
	"github.com/yourusername/sharpline/internal/stream"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.LoadWithDefaults(os.Getenv("SHARPLINE_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Load AWS secrets if enabled
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			log.Fatalf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			log.Fatalf("Failed to load secrets: %v", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLog := logger.NewLogger(cfg.App.LogLevel)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"log_level":   cfg.App.LogLevel,
		"provider":    cfg.DataSources.Provider,
	}).Info("Sharpline engine starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()
	appLog.Info("Database connection established")

	repos, err := repository.NewRepositories(db)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to create repositories")
	}

	sources := datasource.NewSources(cfg, appLog)
	pipeline := engine.NewPipeline(cfg, db, repos, sources, appLog)

	hub := stream.NewHub(appLog)
	if cfg.API.StreamEnabled {
		pipeline.SetNotifier(hub)
		go hub.Run(ctx)
	}

	// Health server for container probes
	healthServer := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		Logger:      appLog,
		DB:          db,
	})
	if err := healthServer.Start(ctx); err != nil {
		appLog.WithError(err).Fatal("Failed to start health server")
	}

	// Metrics endpoint
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		go func() {
			mux := http.NewServeMux()
			mux.Handle(cfg.Metrics.Path, metrics.Handler())
			addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
			appLog.WithField("addr", addr).Info("Metrics server starting")
			if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
				appLog.WithError(err).Error("Metrics server error")
			}
		}()
	}

	// HTTP API
	handlers := api.NewHandlers(repos, pipeline, hub, cfg, appLog)
	apiServer := api.NewServer(cfg.API, handlers, appLog)
	if err := apiServer.Start(ctx); err != nil {
		appLog.WithError(err).Fatal("Failed to start API server")
	}

	// Scheduler
	sched := scheduler.NewScheduler(pipeline, cfg.Schedule, appLog)
	if err := sched.ScheduleJobs(); err != nil {
		appLog.WithError(err).Fatal("Failed to schedule jobs")
	}
	if err := sched.Start(); err != nil {
		appLog.WithError(err).Fatal("Failed to start scheduler")
	}

	healthServer.SetReady(true)
	appLog.WithFields(logrus.Fields{
		"api_port":     cfg.API.Port,
		"next_run":     sched.NextUpdateRun().Format(time.RFC3339),
		"mock_sources": cfg.UseMockSources(),
	}).Info("Sharpline engine running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	appLog.WithField("signal", sig).Info("Shutdown signal received")

	healthServer.SetReady(false)
	sched.Stop()
	cancel()

	// Give the API and stream goroutines time to drain
	time.Sleep(2 * time.Second)
	appLog.Info("Sharpline engine shut down")
}
