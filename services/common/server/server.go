// Package server assembles the gin engine and lifecycle shared by every
// service's main.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	awspkg "github.com/yashrajoria/shopswift/pkg/aws"
	"github.com/yashrajoria/shopswift/services/common/auth"
	"github.com/yashrajoria/shopswift/services/common/config"
	apperrors "github.com/yashrajoria/shopswift/services/common/errors"
	"github.com/yashrajoria/shopswift/services/common/logger"
	"github.com/yashrajoria/shopswift/services/common/middleware"
)

type Options struct {
	Name    string
	Config  config.Common
	Logger  *zap.Logger
	Metrics awspkg.MetricsRecorder
	// RateLimiter is optional; nil disables rate limiting.
	RateLimiter *middleware.RateLimiter
	// AllowedOrigins enables CORS when non-empty.
	AllowedOrigins []string
}

// NewRouter returns an engine with the standard middleware chain and /health.
func NewRouter(opts Options) *gin.Engine {
	if opts.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestID())
	r.Use(middleware.Identity(auth.NewTokenParser(opts.Config.JWTSecret)))
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(middleware.SecurityHeaders())
	if len(opts.AllowedOrigins) > 0 {
		r.Use(middleware.CORSMiddleware(opts.AllowedOrigins))
	}
	if opts.RateLimiter != nil {
		r.Use(middleware.RateLimitMiddleware(opts.RateLimiter))
	}
	r.Use(middleware.MetricsMiddleware(opts.Metrics, opts.Name))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(apperrors.ErrorMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": opts.Name})
	})
	r.NoRoute(func(c *gin.Context) {
		apperrors.Respond(c, apperrors.New(apperrors.KindNotFound, "Route not found"))
	})
	return r
}

// Run serves handler on addr until SIGINT or SIGTERM, then drains for up to
// 10s. onShutdown runs after the listener has stopped.
func Run(addr string, handler http.Handler, log *zap.Logger, onShutdown ...func(context.Context) error) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-quit:
	}

	log.Info("initiating graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := srv.Shutdown(ctx)
	for _, fn := range onShutdown {
		if ferr := fn(ctx); ferr != nil {
			log.Error("shutdown hook failed", zap.Error(ferr))
		}
	}
	log.Info("server stopped")
	return err
}

// Bootstrap loads the environment, initialises logging and metrics, and
// starts the rate limiter sweeper. It is the common prologue of every main.
func Bootstrap(ctx context.Context, name, defaultPort string) (config.Common, *zap.Logger, *awspkg.MetricsClient, *middleware.RateLimiter) {
	loaded := config.LoadDotEnv()
	cfg := config.LoadCommon(defaultPort)

	logger.Initialize(cfg.Env)
	var sinkErr error
	if cfg.CloudWatchEnabled {
		var cwLogs *awspkg.CloudWatchLogsWriter
		if cwLogs, sinkErr = awspkg.NewCloudWatchLogsWriter(ctx, name); sinkErr == nil {
			logger.AddSink(cwLogs)
		}
	}
	log := logger.Log.With(zap.String("service", name))
	if sinkErr != nil {
		log.Warn("CloudWatch Logs init failed (non-fatal)", zap.Error(sinkErr))
	}
	if !loaded {
		log.Debug("no .env file found, using environment variables")
	}

	metrics, err := awspkg.NewMetricsClient(ctx, cfg.MetricsNamespace, cfg.CloudWatchEnabled)
	if err != nil {
		log.Warn("CloudWatch metrics client init failed (non-fatal)", zap.Error(err))
		metrics, _ = awspkg.NewMetricsClient(ctx, cfg.MetricsNamespace, false)
	}

	return cfg, log, metrics, StartRateLimiter(ctx, cfg)
}

// StartRateLimiter returns a per-client limiter and starts its sweeper, or
// nil when cfg.RateLimitRPS is not positive.
func StartRateLimiter(ctx context.Context, cfg config.Common) *middleware.RateLimiter {
	if cfg.RateLimitRPS <= 0 {
		return nil
	}
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 5*time.Minute)
	go limiter.Run(ctx)
	return limiter
}
