package main

import (
	"context"
	"fmt"

	"github.com/yashrajoria/shopswift/services/common/config"
)

// Config holds all configuration for the admin-service.
type Config struct {
	config.Common
	CartServiceURL      string
	OrderServiceURL     string
	InventoryServiceURL string
	PromotionServiceURL string
	LowStockThreshold   int
	// RequireIdentity rejects /admin requests without a resolved user id.
	RequireIdentity bool
}

func LoadConfig(ctx context.Context, common config.Common) (*Config, error) {
	cfg := &Config{
		Common:              common,
		CartServiceURL:      config.GetEnv("CART_SERVICE_URL", "http://localhost:8083"),
		OrderServiceURL:     config.GetEnv("ORDER_SERVICE_URL", "http://localhost:8082"),
		InventoryServiceURL: config.GetEnv("INVENTORY_SERVICE_URL", "http://localhost:8084"),
		PromotionServiceURL: config.GetEnv("PROMOTION_SERVICE_URL", "http://localhost:8090"),
		LowStockThreshold:   config.GetInt("LOW_STOCK_THRESHOLD", 5),
		RequireIdentity:     config.GetBool("ADMIN_REQUIRE_IDENTITY", true),
	}
	// The admin API is the edge; it is rate limited unless RATE_LIMIT_RPS=0.
	cfg.RateLimitRPS = config.GetFloat("RATE_LIMIT_RPS", 50)

	if err := config.LoadSecretOverrides(ctx, config.GetEnv("ADMIN_SECRET_NAME", "admin/config"), map[string]*string{
		"JWT_SECRET": &cfg.JWTSecret,
	}); err != nil {
		return nil, fmt.Errorf("secrets override: %w", err)
	}

	if cfg.LowStockThreshold < 0 {
		return nil, fmt.Errorf("LOW_STOCK_THRESHOLD must not be negative")
	}
	return cfg, nil
}
