package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Cache    CacheConfig    `yaml:"cache"`
}

// ServerConfig holds API server configuration
type ServerConfig struct {
	Port int `yaml:"port"`
}

// StorageConfig selects and configures the storage backend
type StorageConfig struct {
	// Driver is one of "postgres", "sqlite" or "memory"
	Driver string `yaml:"driver"`
	// SQLitePath is the database file used by the sqlite driver
	SQLitePath string `yaml:"sqlite_path"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// CacheConfig holds Redis cache configuration. An empty URL disables the
// cache.
type CacheConfig struct {
	RedisURL   string `yaml:"redis_url"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// Load builds configuration from defaults, an optional YAML file and
// environment variables, in that order of precedence
func Load() (*Config, error) {
	cfg := defaults()

	if err := loadFile(cfg); err != nil {
		return nil, err
	}
	if err := loadEnv(cfg); err != nil {
		return nil, err
	}

	switch cfg.Storage.Driver {
	case "postgres", "sqlite", "memory":
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Storage: StorageConfig{
			Driver:     "memory",
			SQLitePath: "customers.db",
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "customer_directory",
			Password: "customer_directory",
			DBName:   "customer_directory",
			SSLMode:  "disable",
		},
		Cache: CacheConfig{
			TTLSeconds: 300,
		},
	}
}

// loadFile overlays the YAML file named by CONFIG_FILE, or config.yaml in
// the working directory when present
func loadFile(cfg *Config) error {
	path := os.Getenv("CONFIG_FILE")
	required := path != ""
	if path == "" {
		path = "config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables on cfg
func loadEnv(cfg *Config) error {
	if err := setInt(&cfg.Server.Port, "API_PORT"); err != nil {
		return err
	}

	setString(&cfg.Storage.Driver, "STORAGE_DRIVER")
	setString(&cfg.Storage.SQLitePath, "SQLITE_PATH")

	setString(&cfg.Database.Host, "DB_HOST")
	if err := setInt(&cfg.Database.Port, "DB_PORT"); err != nil {
		return err
	}
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.DBName, "DB_NAME")
	setString(&cfg.Database.SSLMode, "DB_SSLMODE")

	setString(&cfg.Cache.RedisURL, "REDIS_URL")
	if err := setInt(&cfg.Cache.TTLSeconds, "CACHE_TTL_SECONDS"); err != nil {
		return err
	}

	return nil
}

// DSN returns the database connection string
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// TTL returns the cache entry lifetime
func (c *CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// setString overrides target when the environment variable is set
func setString(target *string, key string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}

// setInt overrides target when the environment variable is set
func setInt(target *int, key string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*target = n

	return nil
}
