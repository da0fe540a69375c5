package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mkurniadi/faregate/internal/aggregator"
	"github.com/mkurniadi/faregate/internal/cache"
	"github.com/mkurniadi/faregate/internal/config"
	"github.com/mkurniadi/faregate/internal/handler"
	"github.com/mkurniadi/faregate/internal/observability"
	"github.com/mkurniadi/faregate/internal/providers"
	"github.com/mkurniadi/faregate/internal/ratelimit"
	"github.com/mkurniadi/faregate/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := observability.NewLogger(cfg.AppEnv)

	reg := observability.InitRegistry()

	adapters := []providers.Adapter{
		providers.NewAerolink(cfg.AerolinkBaseURL, cfg.AdapterTimeout, log),
		providers.NewSkybridge(cfg.SkybridgeBaseURL, cfg.AdapterTimeout, log),
	}
	log.Info().Int("adapters", len(adapters)).Msg("provider adapters initialized")

	rateLimiter := ratelimit.NewProviderLimiter(ratelimit.Config{
		RequestsPerSecond: cfg.ProviderRPS,
		BurstSize:         cfg.ProviderBurst,
	})

	engineCfg := aggregator.Config{
		AdapterTimeout: cfg.AdapterTimeout,
		RateLimiter:    rateLimiter,
	}

	var searchCache cache.Cache
	if cfg.CacheEnabled {
		redisCache, err := cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.RedisTTL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		searchCache = redisCache
		log.Info().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.RedisTTL).Msg("redis cache enabled")
	} else {
		searchCache = cache.NewNoOpCache()
		log.Info().Msg("cache disabled")
	}
	defer searchCache.Close()

	initiator := session.NewInitiator(cfg.SessionBaseURL, cfg.SessionTimeout, log)
	manager := session.NewManager(cfg.SessionTTL)

	searchHandler := handler.NewSearchHandler(
		initiator, manager, adapters, engineCfg, searchCache, cfg.OverallTimeout, log,
	)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())

	api := e.Group("/api/v1")
	api.POST("/flights/search", searchHandler.Search)
	api.POST("/flights/search/async", searchHandler.SearchAsync)
	api.GET("/flights/search/:token", searchHandler.Results)
	e.GET("/health", handler.HealthHandler)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting flight aggregation server")
		if err := e.Start(":" + cfg.Port); err != nil {
			log.Info().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}
