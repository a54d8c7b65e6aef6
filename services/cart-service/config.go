package main

import (
	"context"
	"fmt"
	"time"

	"github.com/yashrajoria/shopswift/services/common/config"
)

type Config struct {
	config.Common
	RedisURL            string
	CartTTL             time.Duration
	// LockTTL is the Redis lease on a customer's cart lock. It covers a
	// checkout's upstream calls and is extended while the lock is held.
	LockTTL             time.Duration
	InventoryServiceURL string
	PromotionServiceURL string
	OrderServiceURL     string
}

func LoadConfig(ctx context.Context, common config.Common) (*Config, error) {
	cfg := &Config{
		Common:              common,
		RedisURL:            config.GetEnv("REDIS_URL", "redis://localhost:6379"),
		CartTTL:             config.GetDuration("CART_TTL", 7*24*time.Hour),
		LockTTL:             config.GetDuration("CART_LOCK_TTL", 2*common.UpstreamTimeout+5*time.Second),
		InventoryServiceURL: config.GetEnv("INVENTORY_SERVICE_URL", "http://localhost:8084"),
		PromotionServiceURL: config.GetEnv("PROMOTION_SERVICE_URL", "http://localhost:8090"),
		OrderServiceURL:     config.GetEnv("ORDER_SERVICE_URL", "http://localhost:8082"),
	}

	if err := config.LoadSecretOverrides(ctx, config.GetEnv("CART_SECRET_NAME", "cart/REDIS_CREDENTIALS"), map[string]*string{
		"REDIS_URL":  &cfg.RedisURL,
		"JWT_SECRET": &cfg.JWTSecret,
	}); err != nil {
		return nil, fmt.Errorf("secrets override: %w", err)
	}

	switch cfg.DBProvider {
	case "memory", "redis":
	default:
		return nil, fmt.Errorf("DB_PROVIDER %q is not supported by cart-service (memory, redis)", cfg.DBProvider)
	}
	if cfg.CartTTL <= 0 {
		return nil, fmt.Errorf("CART_TTL must be positive")
	}
	if cfg.LockTTL <= 0 {
		return nil, fmt.Errorf("CART_LOCK_TTL must be positive")
	}
	return cfg, nil
}
