// Package app assembles the storefront state service from configuration.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"

	"github.com/tair/storefront/internal/api"
	"github.com/tair/storefront/internal/catalog/client"
	"github.com/tair/storefront/internal/catalog/demo"
	"github.com/tair/storefront/internal/checkout"
	"github.com/tair/storefront/internal/config"
	"github.com/tair/storefront/internal/notify"
	"github.com/tair/storefront/internal/persist"
	"github.com/tair/storefront/internal/session"
	"github.com/tair/storefront/internal/state"
	statehttp "github.com/tair/storefront/internal/state/delivery/http"
	"github.com/tair/storefront/internal/storage"
	"github.com/tair/storefront/kafka"
	"github.com/tair/storefront/pkg/database"
	"github.com/tair/storefront/pkg/logger"
)

// ProvideRedis connects to Redis when something needs it: the redis backend,
// the cross-process relay of a shared backend, or the proxy catalog cache.
// An unreachable Redis is fatal only for the redis backend.
func ProvideRedis(cfg *config.Config) (*redis.Client, error) {
	needed := cfg.Storage.Backend == config.StorageRedis ||
		cfg.Storage.Backend == config.StoragePostgres ||
		(cfg.Catalog.Mode == config.CatalogProxy && cfg.Catalog.CacheTTL > 0)
	if !needed {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		if cfg.Storage.Backend == config.StorageRedis {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		logger.Logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unavailable, continuing without it")
		return nil, nil
	}

	logger.Logger.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")
	return rdb, nil
}

// ProvideBackend opens the configured slot backend. "none" yields a nil
// Backend: reads return defaults and writes are dropped.
func ProvideBackend(cfg *config.Config, rdb *redis.Client) (storage.Backend, error) {
	switch cfg.Storage.Backend {
	case config.StorageMemory:
		return storage.NewTraced(storage.NewMemory(), config.StorageMemory), nil
	case config.StorageRedis:
		if rdb == nil {
			return nil, fmt.Errorf("redis backend needs a Redis connection")
		}
		return storage.NewTraced(storage.NewRedis(rdb), config.StorageRedis), nil
	case config.StoragePostgres:
		db, err := database.NewGormConnection(cfg.Database)
		if err != nil {
			return nil, err
		}
		pg := storage.NewPostgres(db)
		if err := pg.AutoMigrate(); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return storage.NewTraced(pg, config.StoragePostgres), nil
	case config.StorageNone:
		return nil, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

// ProvideRelay returns a Redis relay when the backend is shared between
// processes and Redis is reachable, otherwise nil.
func ProvideRelay(cfg *config.Config, rdb *redis.Client) *notify.RedisRelay {
	if rdb == nil || cfg.Storage.Backend == config.StorageMemory || cfg.Storage.Backend == config.StorageNone {
		return nil
	}
	return notify.NewRedisRelay(rdb, cfg.Storage.Prefix+":slot-changes")
}

// ProvideNotifier adds the relay to the local bus when there is one.
func ProvideNotifier(relay *notify.RedisRelay) notify.Notifier {
	if relay == nil {
		return notify.NewBus()
	}
	return notify.NewHub(notify.NewBus(), relay)
}

// ProvideScope binds the stores to the backend and notifier.
func ProvideScope(cfg *config.Config, backend storage.Backend, notifier notify.Notifier) persist.Scope {
	return persist.Scope{
		Prefix:   cfg.Storage.Prefix,
		Backend:  backend,
		Notifier: notifier,
	}
}

// ProvideAPIClient targets the first configured upstream.
func ProvideAPIClient(cfg *config.Config) *api.Client {
	base := ""
	if len(cfg.Catalog.Upstreams) > 0 {
		base = cfg.Catalog.Upstreams[0]
	}
	return api.NewClient(base, cfg.Catalog.Timeout)
}

// ProvideDemoAccounts seeds the demo administrator.
func ProvideDemoAccounts(cfg *config.Config) (*demo.Accounts, error) {
	accounts := demo.NewAccounts(cfg.Demo.JWTSecret, cfg.Demo.TokenTTL)
	if err := accounts.SeedAdmin(cfg.Demo.AdminEmail, cfg.Demo.AdminPassword); err != nil {
		return nil, fmt.Errorf("failed to seed demo admin: %w", err)
	}
	return accounts, nil
}

// ProvideCatalog serves the in-memory catalog in demo mode and the cached
// HTTP client in proxy mode.
func ProvideCatalog(cfg *config.Config, c *api.Client, rdb *redis.Client) (statehttp.Catalog, error) {
	if cfg.Catalog.Mode == config.CatalogDemo {
		catalog, err := demo.NewCatalog()
		if err != nil {
			return nil, fmt.Errorf("failed to load demo catalog: %w", err)
		}
		return catalog, nil
	}
	return client.New(c, client.NewCache(rdb, cfg.Catalog.CacheTTL)), nil
}

// ProvideAuthenticator uses the demo accounts in demo mode and the upstream API otherwise.
func ProvideAuthenticator(cfg *config.Config, c *api.Client, accounts *demo.Accounts) session.Authenticator {
	if cfg.Catalog.Mode == config.CatalogDemo {
		return demo.NewLocalAuth(accounts)
	}
	return session.NewClient(c)
}

// ProvidePublisher returns nil when no brokers are configured.
func ProvidePublisher(cfg *config.Config) (*kafka.Publisher, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	return kafka.NewPublisher(cfg.Kafka.Brokers)
}

// ProvideEventPublisher keeps a nil publisher a nil interface.
func ProvideEventPublisher(p *kafka.Publisher) checkout.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}

// ProvideConsumer returns nil when no brokers are configured.
func ProvideConsumer(cfg *config.Config) (*kafka.Consumer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	return kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
}

// ProvideRegistry creates the namespace registry.
func ProvideRegistry(scope persist.Scope, auth session.Authenticator, publisher checkout.EventPublisher) *state.Registry {
	return state.NewRegistry(scope, auth, publisher)
}

// ProvideStateHandler creates the state HTTP handler.
func ProvideStateHandler(cfg *config.Config, registry *state.Registry, catalog statehttp.Catalog) *statehttp.StateHandler {
	return statehttp.NewStateHandler(registry, catalog, cfg.AllowedOrigins)
}

// ProvideRouter mounts the state handler.
func ProvideRouter(cfg *config.Config, h *statehttp.StateHandler) http.Handler {
	return statehttp.NewRouter(h, cfg.AllowedOrigins)
}

// Wire sets
var InfrastructureSet = wire.NewSet(
	ProvideRedis,
	ProvideBackend,
	ProvideRelay,
	ProvideNotifier,
	ProvideScope,
	ProvidePublisher,
	ProvideEventPublisher,
	ProvideConsumer,
)

var CatalogSet = wire.NewSet(
	ProvideAPIClient,
	ProvideDemoAccounts,
	ProvideCatalog,
	ProvideAuthenticator,
)

var StateSet = wire.NewSet(
	ProvideRegistry,
	ProvideStateHandler,
	ProvideRouter,
	NewApp,
)

var AllSet = wire.NewSet(
	InfrastructureSet,
	CatalogSet,
	StateSet,
)
