package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oakline/customer-directory/internal/models"
)

// redisCache implements Cache using Redis
type redisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// RedisConfig holds Redis cache configuration
type RedisConfig struct {
	URL string
	TTL time.Duration
}

// NewRedisCache creates a new Redis-backed customer cache
func NewRedisCache(cfg RedisConfig, logger *slog.Logger) (Cache, error) {
	// Parse Redis URL
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Create Redis client
	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("connected to Redis",
		slog.String("addr", opts.Addr),
		slog.Duration("ttl", cfg.TTL),
	)

	return &redisCache{
		client: client,
		ttl:    cfg.TTL,
		logger: logger,
	}, nil
}

// customerKey builds the cache key for a customer id
func customerKey(id int64) string {
	return fmt.Sprintf("customer:%d", id)
}

// GetCustomer returns the cached customer, or nil on a miss
func (c *redisCache) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	data, err := c.client.Get(ctx, customerKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read customer from cache: %w", err)
	}

	var customer models.Customer
	if err := json.Unmarshal(data, &customer); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached customer: %w", err)
	}

	c.logger.Debug("customer cache hit", slog.Int64("customer_id", id))

	return &customer, nil
}

// SetCustomer stores customer under its id for the configured TTL
func (c *redisCache) SetCustomer(ctx context.Context, customer *models.Customer) error {
	data, err := json.Marshal(customer)
	if err != nil {
		return fmt.Errorf("failed to marshal customer: %w", err)
	}

	if err := c.client.Set(ctx, customerKey(customer.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write customer to cache: %w", err)
	}

	return nil
}

// InvalidateCustomer drops the entry for id, if any
func (c *redisCache) InvalidateCustomer(ctx context.Context, id int64) error {
	if err := c.client.Del(ctx, customerKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached customer: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *redisCache) Close() error {
	c.logger.Info("closing Redis connection")
	return c.client.Close()
}

// Health checks if Redis is healthy
func (c *redisCache) Health(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis health check failed: %w", err)
	}
	return nil
}
