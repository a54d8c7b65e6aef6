package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/yashrajoria/shopswift/pkg/store"
	"github.com/yashrajoria/shopswift/services/common/events"
	"github.com/yashrajoria/shopswift/services/common/server"
	"github.com/yashrajoria/shopswift/services/inventory-service/controllers"
	"github.com/yashrajoria/shopswift/services/inventory-service/repository"
	"github.com/yashrajoria/shopswift/services/inventory-service/routes"
	"github.com/yashrajoria/shopswift/services/inventory-service/services"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	common, logger, metricsClient, limiter := server.Bootstrap(ctx, "inventory-service", "8084")
	defer logger.Sync()

	cfg, err := LoadConfig(ctx, common)
	if err != nil {
		logger.Fatal("Config load failed", zap.Error(err))
	}

	publisher, err := events.NewPublisher(ctx, cfg.Common)
	if err != nil {
		logger.Fatal("Event publisher init failed", zap.Error(err))
	}

	productRepo := repository.NewMemoryProductRepository()
	if cfg.SeedData {
		n, err := repository.Seed(ctx, productRepo)
		if err != nil {
			logger.Fatal("Seeding catalog failed", zap.Error(err))
		}
		logger.Info("Catalog seeded", zap.Int("products", n))
	}

	locker := store.NewLocker(cfg.StrictLocking)
	if !cfg.StrictLocking {
		logger.Warn("STRICT_LOCKING disabled: concurrent deducts on one product may oversell")
	}

	inventoryService := services.NewInventoryService(productRepo, locker, publisher, metricsClient, logger)
	inventoryController := controllers.NewInventoryController(inventoryService)

	r := server.NewRouter(server.Options{
		Name:        "inventory-service",
		Config:      cfg.Common,
		Logger:      logger,
		Metrics:     metricsClient,
		RateLimiter: limiter,
	})
	routes.RegisterRoutes(r, inventoryController)

	if err := server.Run(":"+cfg.Port, r, logger, func(context.Context) error { return publisher.Close() }); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
