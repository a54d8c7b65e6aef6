package main

import (
	"context"
	"fmt"

	"github.com/yashrajoria/shopswift/services/common/config"
)

// Config holds all configuration for the inventory-service.
type Config struct {
	config.Common
}

// LoadConfig loads environment variables into Config struct.
func LoadConfig(ctx context.Context, common config.Common) (*Config, error) {
	cfg := &Config{
		Common: common,
	}

	if err := config.LoadSecretOverrides(ctx, config.GetEnv("INVENTORY_SECRET_NAME", "inventory/config"), map[string]*string{
		"JWT_SECRET": &cfg.JWTSecret,
	}); err != nil {
		return nil, fmt.Errorf("secrets override: %w", err)
	}

	if cfg.DBProvider != "memory" {
		return nil, fmt.Errorf("DB_PROVIDER %q is not supported by inventory-service (memory only)", cfg.DBProvider)
	}
	return cfg, nil
}
