package main

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yashrajoria/shopswift/pkg/store"
	"github.com/yashrajoria/shopswift/services/cart-service/clients"
	"github.com/yashrajoria/shopswift/services/cart-service/controllers"
	"github.com/yashrajoria/shopswift/services/cart-service/repository"
	"github.com/yashrajoria/shopswift/services/cart-service/routes"
	"github.com/yashrajoria/shopswift/services/cart-service/services"
	"github.com/yashrajoria/shopswift/services/common/database"
	"github.com/yashrajoria/shopswift/services/common/events"
	"github.com/yashrajoria/shopswift/services/common/httpclient"
	"github.com/yashrajoria/shopswift/services/common/server"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	common, logger, metricsClient, limiter := server.Bootstrap(ctx, "cart-service", "8083")
	defer logger.Sync()

	cfg, err := LoadConfig(ctx, common)
	if err != nil {
		logger.Fatal("Config load failed", zap.Error(err))
	}

	// Carts live in Redis when DB_PROVIDER=redis; the per-customer lock then
	// moves to Redis too so replicas serialise on the same key.
	var (
		cartRepo    repository.CartRepository
		locker      = store.NewLocker(cfg.StrictLocking)
		redisClient *redis.Client
	)
	switch cfg.DBProvider {
	case "redis":
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("Redis connection failed", zap.Error(err))
		}
		logger.Info("Connected to Redis")
		cartRepo = repository.NewRedisCartRepository(redisClient, cfg.CartTTL)
		if cfg.StrictLocking {
			locker = store.NewRedisLocker(redisClient, "cart", cfg.LockTTL)
		}
	default:
		cartRepo = repository.NewMemoryCartRepository()
	}
	if !cfg.StrictLocking {
		logger.Warn("STRICT_LOCKING disabled: concurrent updates to one cart may interleave")
	}

	publisher, err := events.NewPublisher(ctx, cfg.Common)
	if err != nil {
		logger.Fatal("Event publisher init failed", zap.Error(err))
	}

	settings := httpclient.DefaultSettings()
	settings.Timeout = cfg.UpstreamTimeout

	cartService := services.NewCartService(
		cartRepo,
		clients.NewInventoryClient(cfg.InventoryServiceURL, settings),
		clients.NewPromotionClient(cfg.PromotionServiceURL, settings),
		clients.NewOrderClient(cfg.OrderServiceURL, settings),
		locker,
		publisher,
		metricsClient,
		logger,
	)
	cartController := controllers.NewCartController(cartService)

	r := server.NewRouter(server.Options{
		Name:        "cart-service",
		Config:      cfg.Common,
		Logger:      logger,
		Metrics:     metricsClient,
		RateLimiter: limiter,
	})
	routes.RegisterCartRoutes(r, cartController)

	err = server.Run(":"+cfg.Port, r, logger,
		func(context.Context) error { return publisher.Close() },
		func(context.Context) error {
			if redisClient == nil {
				return nil
			}
			return redisClient.Close()
		},
	)
	if err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
