package main

import (
	"context"
	"fmt"

	"github.com/yashrajoria/shopswift/services/common/config"
	"github.com/yashrajoria/shopswift/services/common/database"
)

// Config holds all configuration for the promotion service.
type Config struct {
	config.Common
	CartServiceURL string
	Postgres       database.PostgresConfig
}

// LoadConfig reads configuration from environment variables with optional
// Secrets Manager override.
func LoadConfig(ctx context.Context, common config.Common) (*Config, error) {
	cfg := &Config{
		Common:         common,
		CartServiceURL: config.GetEnv("CART_SERVICE_URL", "http://localhost:8083"),
		Postgres:       database.PostgresConfigFromEnv(),
	}

	// Override DB credentials from Secrets Manager when running on AWS
	if err := config.LoadSecretOverrides(ctx, config.GetEnv("PROMOTION_SECRET_NAME", "promotion/DB_CREDENTIALS"), map[string]*string{
		"DATABASE_URL":      &cfg.Postgres.DSN,
		"POSTGRES_USER":     &cfg.Postgres.User,
		"POSTGRES_PASSWORD": &cfg.Postgres.Password,
		"POSTGRES_DB":       &cfg.Postgres.DBName,
		"POSTGRES_HOST":     &cfg.Postgres.Host,
		"POSTGRES_PORT":     &cfg.Postgres.Port,
		"JWT_SECRET":        &cfg.JWTSecret,
	}); err != nil {
		return nil, fmt.Errorf("secrets override: %w", err)
	}

	switch cfg.DBProvider {
	case "memory", "postgres":
	default:
		return nil, fmt.Errorf("DB_PROVIDER %q is not supported by promotion-service (memory, postgres)", cfg.DBProvider)
	}
	return cfg, nil
}
