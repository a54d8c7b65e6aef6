package main

import (
	"context"
	"fmt"

	"github.com/yashrajoria/shopswift/services/common/config"
	"github.com/yashrajoria/shopswift/services/common/database"
)

type Config struct {
	config.Common
	InventoryServiceURL string
	Postgres            database.PostgresConfig
}

func LoadConfig(ctx context.Context, common config.Common) (*Config, error) {
	cfg := &Config{
		Common:              common,
		InventoryServiceURL: config.GetEnv("INVENTORY_SERVICE_URL", "http://localhost:8084"),
		Postgres:            database.PostgresConfigFromEnv(),
	}

	if err := config.LoadSecretOverrides(ctx, config.GetEnv("ORDER_SECRET_NAME", "order/DB_CREDENTIALS"), map[string]*string{
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
		return nil, fmt.Errorf("DB_PROVIDER %q is not supported by order-service (memory, postgres)", cfg.DBProvider)
	}
	if cfg.InventoryServiceURL == "" {
		return nil, fmt.Errorf("INVENTORY_SERVICE_URL is required")
	}
	return cfg, nil
}
