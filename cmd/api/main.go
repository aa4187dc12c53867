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

	"github.com/go-chi/chi/v5"

	"github.com/oakline/customer-directory/internal/cache"
	"github.com/oakline/customer-directory/internal/config"
	"github.com/oakline/customer-directory/internal/db"
	"github.com/oakline/customer-directory/internal/handler"
	"github.com/oakline/customer-directory/internal/repository"
	"github.com/oakline/customer-directory/internal/repository/memory"
	"github.com/oakline/customer-directory/internal/repository/postgres"
	"github.com/oakline/customer-directory/internal/repository/sqlite"
	"github.com/oakline/customer-directory/internal/service"
)

func main() {
	// Initialize logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	logger.Info("starting customer directory API server")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Open the storage backend
	store, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	// Connect the cache when configured
	var customerCache cache.Cache
	if cfg.Cache.RedisURL != "" {
		customerCache, err = cache.NewRedisCache(cache.RedisConfig{
			URL: cfg.Cache.RedisURL,
			TTL: cfg.Cache.TTL(),
		}, logger)
		if err != nil {
			logger.Error("failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer customerCache.Close()
	}

	// Initialize services
	customerSvc := service.NewCustomerService(store, customerCache, logger)

	// Initialize handlers
	customerHandler := handler.NewCustomerHandler(customerSvc, logger)
	healthHandler := handler.NewHealthHandler(store, customerCache, logger)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(handler.RecoveryMiddleware(logger))
	r.Use(handler.RequestIDMiddleware)
	r.Use(handler.LoggingMiddleware(logger))
	r.Use(handler.MetricsMiddleware)
	r.Use(handler.CORSMiddleware)

	// Register routes
	r.Get("/health", healthHandler.Health)
	r.Handle("/metrics", handler.MetricsHandler())

	r.Route("/api/customers", customerHandler.Routes)

	// Create server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("API server listening", slog.String("addr", addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Wait for interrupt signal or server error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)

	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server shutdown failed", slog.String("error", err.Error()))
			os.Exit(1)
		}

		logger.Info("server stopped gracefully")
	}
}

// openStore builds the storage backend selected by the configuration
func openStore(cfg *config.Config, logger *slog.Logger) (repository.CustomerStore, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		database, err := db.NewPostgres(db.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		store := postgres.NewStore(database)
		if err := store.EnsureSchema(context.Background()); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to ensure schema: %w", err)
		}

		logger.Info("connected to database", slog.String("driver", "postgres"))
		return store, nil

	case "sqlite":
		database, err := db.NewSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}

		store := sqlite.NewStore(database)
		if err := store.EnsureSchema(context.Background()); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to ensure schema: %w", err)
		}

		logger.Info("connected to database",
			slog.String("driver", "sqlite"),
			slog.String("path", cfg.Storage.SQLitePath),
		)
		return store, nil

	default:
		logger.Info("using in-memory store")
		return memory.NewStore(), nil
	}
}
