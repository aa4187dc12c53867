package cache

import (
	"context"

	"github.com/oakline/customer-directory/internal/models"
)

// Cache defines the interface for the customer read cache
type Cache interface {
	// GetCustomer returns the cached customer, or nil on a miss
	GetCustomer(ctx context.Context, id int64) (*models.Customer, error)

	// SetCustomer stores customer under its id for the configured TTL
	SetCustomer(ctx context.Context, customer *models.Customer) error

	// InvalidateCustomer drops the entry for id, if any
	InvalidateCustomer(ctx context.Context, id int64) error

	// Close closes the cache connection
	Close() error

	// Health checks if the cache is healthy
	Health(ctx context.Context) error
}
