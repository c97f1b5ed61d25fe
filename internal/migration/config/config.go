package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config holds all configuration for the migration module.
type Config struct {
	// MongoDB Configuration
	MongoURI     string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017/"`
	DatabaseName string `env:"MONGO_DB_NAME" envDefault:"wearapp"`

	// URL replacement configuration
	OldURL string `env:"OLD_URL" envDefault:"http://155.248.254.206:9000"`
	NewURL string `env:"NEW_URL" envDefault:"https://images.nomo.software"`

	// Polling interval in seconds
	PollIntervalSeconds int `env:"POLL_INTERVAL" envDefault:"1"`

	// Collection configuration
	GroundTruthCollection string `env:"GROUNDTRUTH_COLLECTION" envDefault:"imageUrl"`
	UserClothesCollection string `env:"USER_CLOTHES_COLLECTION" envDefault:"userUploadedClothes"`

	// Store operation timeouts. The store client defaults would otherwise be
	// unbounded for queries and updates; an unresponsive store must not wedge
	// the polling loop.
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
	QueryTimeout   time.Duration `env:"QUERY_TIMEOUT" envDefault:"30s"`
	UpdateTimeout  time.Duration `env:"UPDATE_TIMEOUT" envDefault:"10s"`

	// Log file, written in addition to stdout
	LogFile string `env:"LOG_FILE" envDefault:"url_migration.log"`
}

// LoadConfig loads configuration from environment variables and applies defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, errors.New("failed to load configuration from environment: " + err.Error())
	}

	if cfg.MongoURI == "" {
		return nil, errors.New("mongo_uri must not be empty")
	}
	if cfg.DatabaseName == "" {
		return nil, errors.New("mongo_db_name must not be empty")
	}
	if cfg.OldURL == "" {
		return nil, errors.New("old_url must not be empty")
	}
	if cfg.NewURL == "" {
		return nil, errors.New("new_url must not be empty")
	}
	if cfg.PollIntervalSeconds <= 0 {
		return nil, errors.New("poll_interval must be a positive number of seconds")
	}
	if cfg.ConnectTimeout <= 0 || cfg.QueryTimeout <= 0 || cfg.UpdateTimeout <= 0 {
		return nil, errors.New("store timeouts must be positive durations")
	}
	if cfg.GroundTruthCollection == "" {
		return nil, errors.New("groundtruth_collection must not be empty")
	}
	if cfg.UserClothesCollection == "" {
		return nil, errors.New("user_clothes_collection must not be empty")
	}

	return cfg, nil
}

// PollInterval returns the polling interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}
