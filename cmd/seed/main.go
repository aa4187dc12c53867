package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/oakline/customer-directory/internal/config"
	"github.com/oakline/customer-directory/internal/db"
	"github.com/oakline/customer-directory/internal/models"
	"github.com/oakline/customer-directory/internal/repository"
	"github.com/oakline/customer-directory/internal/repository/postgres"
	"github.com/oakline/customer-directory/internal/repository/sqlite"
)

func main() {
	// Initialize logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	logger.Info("seeding customer directory")

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

	if err := seed(context.Background(), store, logger); err != nil {
		logger.Error("failed to seed customers", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// seed stages a demo customer set and persists it in one batch
func seed(ctx context.Context, store repository.CustomerStore, logger *slog.Logger) error {
	customers := []*models.Customer{
		{FirstName: "Alice", LastName: "Anderson", IsActive: true},
		{FirstName: "Benjamin", LastName: "Smith", IsActive: true},
		{FirstName: "Clara", LastName: "Jones", IsActive: true},
		{FirstName: "Smithson", LastName: "Baker", IsActive: false},
		{FirstName: "Dana", LastName: "Watts", IsActive: false},
	}

	repo := store.Open()
	for _, customer := range customers {
		if err := customer.Validate(); err != nil {
			return err
		}
		repo.Add(customer)
	}

	if err := repo.Persist(ctx); err != nil {
		return err
	}

	for _, customer := range customers {
		logger.Info("customer seeded",
			slog.Int64("id", customer.ID),
			slog.String("last_name", customer.LastName),
			slog.Bool("active", customer.IsActive),
		)
	}

	logger.Info("seed complete", slog.Int("count", len(customers)))

	return nil
}

// openStore builds the storage backend selected by the configuration. The
// in-memory driver is rejected because seeded data would be lost at exit.
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
		return nil, fmt.Errorf("storage driver %q cannot be seeded", cfg.Storage.Driver)
	}
}
