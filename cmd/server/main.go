package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/civicdesk/civicdesk/internal"
	classifiermock "github.com/civicdesk/civicdesk/internal/classifier/mock"
	"github.com/civicdesk/civicdesk/internal/handler"
	"github.com/civicdesk/civicdesk/internal/middleware"
	"github.com/civicdesk/civicdesk/internal/notify"
	"github.com/civicdesk/civicdesk/internal/repository"
	"github.com/civicdesk/civicdesk/internal/service"
	"github.com/civicdesk/civicdesk/internal/storage"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	// Initialize repository
	repo := repository.New(db)

	// Initialize notification sink and dispatcher
	var sink notify.Notifier
	if cfg.AMQPUrl != "" {
		amqpSink, cleanup, err := notify.NewAMQPNotifier(cfg.AMQPUrl, cfg.NotificationQueue)
		if err != nil {
			return fmt.Errorf("notification broker connection failed: %w", err)
		}
		defer cleanup()
		sink = amqpSink
		logger.Info("Notifications via AMQP", "queue", cfg.NotificationQueue)
	} else {
		sink = notify.NewSlogNotifier(logger)
		logger.Info("Notifications via log sink")
	}
	dispatcher := notify.NewDispatcher(sink, logger, cfg.DispatchBuffer, cfg.DispatchTimeout)
	defer dispatcher.Close()

	// Initialize photo storage
	var store storage.Storage
	switch cfg.StorageProvider {
	case storage.ProviderS3:
		store, err = storage.NewS3Storage(storage.S3Config{
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			BucketName:      cfg.S3BucketName,
			Region:          cfg.S3Region,
		}, logger)
	default:
		store, err = storage.NewLocalStorage(storage.LocalConfig{
			BasePath: cfg.LocalStoragePath,
			BaseURL:  cfg.LocalStorageURL,
		}, logger)
	}
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}

	// Initialize classifier
	categoryClassifier := classifiermock.New(logger)

	// Initialize services
	reportService := service.NewReportService(repo, repo, repo, categoryClassifier, dispatcher, logger)
	photoService := service.NewPhotoService(repo, store, logger)

	// Initialize handlers
	reportHandler := handler.NewReportHandler(reportService, logger)
	photoHandler := handler.NewPhotoHandler(photoService, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Metrics (optionally behind basic auth)
	metricsAuth := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)
	mux.Handle("GET /metrics", metricsAuth.Handler(promhttp.Handler()))

	// API routes
	reportHandler.RegisterRoutes(mux)
	photoHandler.RegisterRoutes(mux)

	// Local photo serving in development
	if cfg.StorageProvider == storage.ProviderLocal {
		filesFS := http.FileServer(http.Dir(cfg.LocalStoragePath))
		mux.Handle("GET /files/", http.StripPrefix("/files/", filesFS))
	}

	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	root := loggingMw.Handler(middleware.Metrics(mux))

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: root,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
