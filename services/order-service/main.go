package main

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yashrajoria/shopswift/pkg/store"
	"github.com/yashrajoria/shopswift/services/common/database"
	"github.com/yashrajoria/shopswift/services/common/events"
	"github.com/yashrajoria/shopswift/services/common/httpclient"
	"github.com/yashrajoria/shopswift/services/common/server"
	"github.com/yashrajoria/shopswift/services/order-service/clients"
	"github.com/yashrajoria/shopswift/services/order-service/controllers"
	"github.com/yashrajoria/shopswift/services/order-service/models"
	repositories "github.com/yashrajoria/shopswift/services/order-service/repository"
	"github.com/yashrajoria/shopswift/services/order-service/routes"
	"github.com/yashrajoria/shopswift/services/order-service/services"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	common, logger, metricsClient, limiter := server.Bootstrap(ctx, "order-service", "8082")
	defer logger.Sync()

	cfg, err := LoadConfig(ctx, common)
	if err != nil {
		logger.Fatal("Config load failed", zap.Error(err))
	}

	var (
		orderRepo repositories.OrderRepository
		db        *gorm.DB
	)
	switch cfg.DBProvider {
	case "postgres":
		db, err = database.ConnectPostgres(ctx, cfg.Postgres, logger, &models.Order{})
		if err != nil {
			logger.Fatal("Error connecting to database", zap.Error(err))
		}
		orderRepo = repositories.NewGormOrderRepository(db)
	default:
		orderRepo = repositories.NewMemoryOrderRepository()
		if cfg.SeedData {
			n, err := repositories.Seed(ctx, orderRepo, time.Now())
			if err != nil {
				logger.Fatal("Seeding orders failed", zap.Error(err))
			}
			logger.Info("Order history seeded", zap.Int("orders", n))
		}
	}

	publisher, err := events.NewPublisher(ctx, cfg.Common)
	if err != nil {
		logger.Fatal("Event publisher init failed", zap.Error(err))
	}

	settings := httpclient.DefaultSettings()
	settings.Timeout = cfg.UpstreamTimeout
	inventoryClient := clients.NewInventoryClient(cfg.InventoryServiceURL, settings)

	orderService := services.NewOrderService(
		orderRepo, inventoryClient, store.NewLocker(cfg.StrictLocking), publisher, metricsClient, logger,
	)
	orderController := controllers.NewOrderController(orderService)

	r := server.NewRouter(server.Options{
		Name:        "order-service",
		Config:      cfg.Common,
		Logger:      logger,
		Metrics:     metricsClient,
		RateLimiter: limiter,
	})
	routes.RegisterOrderRoutes(r, orderController)

	err = server.Run(":"+cfg.Port, r, logger,
		func(context.Context) error { return publisher.Close() },
		func(context.Context) error {
			if db == nil {
				return nil
			}
			return database.Close(db)
		},
	)
	if err != nil {
		logger.Fatal("Error starting server", zap.Error(err))
	}
}
