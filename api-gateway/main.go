package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	gatewayconfig "github.com/tair/storefront/api-gateway/config"
	"github.com/tair/storefront/api-gateway/server"
	storefront "github.com/tair/storefront/internal/app"
	"github.com/tair/storefront/internal/catalog/demo"
	"github.com/tair/storefront/internal/config"
	"github.com/tair/storefront/pkg/logger"
	"github.com/tair/storefront/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.ServiceName+"-gateway", cfg.IsDevelopment())
	logger.SetLevel(cfg.LogLevel)

	logger.Logger.Info().
		Str("environment", cfg.Environment).
		Str("mode", cfg.Catalog.Mode).
		Msg("Starting storefront gateway")

	tp, err := tracing.InitTracer(tracing.Config{
		ServiceName:    cfg.ServiceName + "-gateway",
		JaegerEndpoint: cfg.JaegerEndpoint,
	})
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(ctx, tp); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
			}
		}()
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Logger.Warn().
			Err(err).
			Str("redis_addr", cfg.Redis.Addr).
			Msg("Failed to connect to Redis - caching disabled")
		redisClient.Close()
		redisClient = nil
	}
	cancel()

	gwCfg := gatewayconfig.FromConfig(cfg)

	var (
		catalog  *demo.Catalog
		accounts *demo.Accounts
	)
	if gwCfg.IsDemo() {
		catalog, err = demo.NewCatalog()
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to load demo catalog")
		}
		accounts, err = storefront.ProvideDemoAccounts(cfg)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to seed demo accounts")
		}
	}

	app := server.New(gwCfg, redisClient, catalog, accounts)

	go func() {
		addr := ":" + gwCfg.Port
		logger.Logger.Info().
			Str("addr", addr).
			Strs("upstreams", gwCfg.Upstream.Instances).
			Msg("Gateway listening")
		if err := app.Listen(addr); err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to start gateway")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down gateway")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Logger.Error().Err(err).Msg("Gateway forced to shutdown")
	}
	if redisClient != nil {
		redisClient.Close()
	}
}
