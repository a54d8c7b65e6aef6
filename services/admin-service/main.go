package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yashrajoria/shopswift/services/admin-service/clients"
	"github.com/yashrajoria/shopswift/services/admin-service/controllers"
	"github.com/yashrajoria/shopswift/services/admin-service/middleware"
	"github.com/yashrajoria/shopswift/services/admin-service/routes"
	"github.com/yashrajoria/shopswift/services/admin-service/services"
	"github.com/yashrajoria/shopswift/services/common/httpclient"
	"github.com/yashrajoria/shopswift/services/common/server"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	common, logger, metricsClient, limiter := server.Bootstrap(ctx, "admin-service", "8000")
	defer logger.Sync()

	cfg, err := LoadConfig(ctx, common)
	if err != nil {
		logger.Fatal("Config load failed", zap.Error(err))
	}

	if limiter == nil {
		limiter = server.StartRateLimiter(ctx, cfg.Common)
	}

	settings := httpclient.DefaultSettings()
	settings.Timeout = cfg.UpstreamTimeout

	gateway := clients.NewGatewayClient(clients.URLs{
		Cart:      cfg.CartServiceURL,
		Order:     cfg.OrderServiceURL,
		Inventory: cfg.InventoryServiceURL,
		Promotion: cfg.PromotionServiceURL,
	}, settings)
	adminService := services.NewAdminService(gateway, cfg.LowStockThreshold, logger)
	adminController := controllers.NewAdminController(adminService)

	r := server.NewRouter(server.Options{
		Name:           "admin-service",
		Config:         cfg.Common,
		Logger:         logger,
		Metrics:        metricsClient,
		RateLimiter:    limiter,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	var guards []gin.HandlerFunc
	if cfg.RequireIdentity {
		guards = append(guards, middleware.RequireIdentity())
	} else {
		logger.Warn("ADMIN_REQUIRE_IDENTITY disabled: admin routes accept anonymous callers")
	}
	routes.RegisterRoutes(r, adminController, guards...)

	if err := server.Run(":"+cfg.Port, r, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
