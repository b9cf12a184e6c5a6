package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/tair/storefront/internal/config"
	"github.com/tair/storefront/internal/notify"
	"github.com/tair/storefront/internal/state"
	"github.com/tair/storefront/kafka"
	"github.com/tair/storefront/pkg/logger"
)

// App is the assembled state service.
type App struct {
	Config   *config.Config
	Registry *state.Registry
	Handler  http.Handler

	redis     *redis.Client
	relay     *notify.RedisRelay
	publisher *kafka.Publisher
	consumer  *kafka.Consumer
}

// NewApp creates a new App
func NewApp(
	cfg *config.Config,
	registry *state.Registry,
	handler http.Handler,
	rdb *redis.Client,
	relay *notify.RedisRelay,
	publisher *kafka.Publisher,
	consumer *kafka.Consumer,
) *App {
	return &App{
		Config:    cfg,
		Registry:  registry,
		Handler:   handler,
		redis:     rdb,
		relay:     relay,
		publisher: publisher,
		consumer:  consumer,
	}
}

// Start runs the background workers until ctx is cancelled: the slot change
// relay and the consumer mirroring placed orders into the back office.
func (a *App) Start(ctx context.Context) error {
	if a.relay != nil {
		if err := a.relay.Start(ctx); err != nil {
			return err
		}
	}
	if a.consumer != nil {
		a.consumer.OnOrderPlaced(a.Registry.MirrorOrder)
		a.consumer.Start(ctx)
	}
	return nil
}

// Close releases connections. It keeps going past failures and returns them
// joined.
func (a *App) Close() error {
	var errs []error
	if a.consumer != nil {
		errs = append(errs, a.consumer.Close())
	}
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	err := errors.Join(errs...)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to close resources")
	}
	return err
}
