package main

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yashrajoria/shopswift/pkg/store"
	"github.com/yashrajoria/shopswift/services/common/database"
	"github.com/yashrajoria/shopswift/services/common/events"
	"github.com/yashrajoria/shopswift/services/common/httpclient"
	"github.com/yashrajoria/shopswift/services/common/server"
	"github.com/yashrajoria/shopswift/services/promotion-service/clients"
	"github.com/yashrajoria/shopswift/services/promotion-service/controllers"
	"github.com/yashrajoria/shopswift/services/promotion-service/models"
	"github.com/yashrajoria/shopswift/services/promotion-service/repository"
	"github.com/yashrajoria/shopswift/services/promotion-service/routes"
	"github.com/yashrajoria/shopswift/services/promotion-service/services"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	common, logger, metricsClient, limiter := server.Bootstrap(ctx, "promotion-service", "8090")
	defer logger.Sync()

	cfg, err := LoadConfig(ctx, common)
	if err != nil {
		logger.Fatal("Config load failed", zap.Error(err))
	}

	// --- Storage ---
	var (
		promotionRepo repository.PromotionRepository
		db            *gorm.DB
	)
	switch cfg.DBProvider {
	case "postgres":
		db, err = database.ConnectPostgres(ctx, cfg.Postgres, logger, &models.Promotion{})
		if err != nil {
			logger.Fatal("DB connection failed", zap.Error(err))
		}
		promotionRepo = repository.NewGormPromotionRepository(db)
	default:
		promotionRepo = repository.NewMemoryPromotionRepository()
	}
	if cfg.SeedData {
		n, err := repository.Seed(ctx, promotionRepo)
		if err != nil {
			logger.Fatal("Seeding promotions failed", zap.Error(err))
		}
		logger.Info("Promotions seeded", zap.Int("promotions", n))
	}

	publisher, err := events.NewPublisher(ctx, cfg.Common)
	if err != nil {
		logger.Fatal("Event publisher init failed", zap.Error(err))
	}

	// --- Dependency injection ---
	settings := httpclient.DefaultSettings()
	settings.Timeout = cfg.UpstreamTimeout
	cartClient := clients.NewCartClient(cfg.CartServiceURL, settings)

	promotionService := services.NewPromotionService(
		promotionRepo, cartClient, store.NewLocker(cfg.StrictLocking), publisher, metricsClient, logger,
	)
	promotionController := controllers.NewPromotionController(promotionService)

	r := server.NewRouter(server.Options{
		Name:        "promotion-service",
		Config:      cfg.Common,
		Logger:      logger,
		Metrics:     metricsClient,
		RateLimiter: limiter,
	})
	routes.RegisterPromotionRoutes(r, promotionController)

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
		logger.Fatal("Server failed", zap.Error(err))
	}
}
