package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/storefront/internal/catalog/demo"
	"github.com/tair/storefront/internal/config"
	"github.com/tair/storefront/internal/notify"
	"github.com/tair/storefront/internal/session"
)

func testConfig() *config.Config {
	return &config.Config{
		ServiceName:    "storefront",
		AllowedOrigins: []string{"*"},
		Storage:        config.StorageConfig{Backend: config.StorageMemory, Prefix: "test"},
		Catalog: config.CatalogConfig{
			Mode:      config.CatalogDemo,
			Upstreams: []string{"http://localhost:8085"},
			Timeout:   time.Second,
		},
		Demo: config.DemoConfig{
			JWTSecret:     "secret",
			TokenTTL:      time.Hour,
			AdminEmail:    "admin@shop.local",
			AdminPassword: "admin123",
		},
	}
}

func TestInitializeMemoryApp(t *testing.T) {
	a, err := InitializeApp(testConfig())
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Start(context.Background()))
	assert.Nil(t, a.redis)
	assert.Nil(t, a.relay)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNoneBackendDropsWrites(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Backend = config.StorageNone

	backend, err := ProvideBackend(cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, backend)
}

func TestUnknownBackend(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Backend = "tape"
	_, err := ProvideBackend(cfg, nil)
	assert.Error(t, err)
}

func TestRedisBackendWiresRelay(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Storage.Backend = config.StorageRedis
	cfg.Redis.Addr = mr.Addr()

	rdb, err := ProvideRedis(cfg)
	require.NoError(t, err)
	require.NotNil(t, rdb)
	defer rdb.Close()

	backend, err := ProvideBackend(cfg, rdb)
	require.NoError(t, err)
	assert.NotNil(t, backend)

	relay := ProvideRelay(cfg, rdb)
	require.NotNil(t, relay)
	_, isHub := ProvideNotifier(relay).(*notify.Hub)
	assert.True(t, isHub)
}

func TestRedisBackendNeedsRedis(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Backend = config.StorageRedis
	cfg.Redis.Addr = "127.0.0.1:1"

	_, err := ProvideRedis(cfg)
	assert.Error(t, err)
}

func TestMemoryBackendUsesLocalBus(t *testing.T) {
	cfg := testConfig()
	assert.Nil(t, ProvideRelay(cfg, nil))
	_, isBus := ProvideNotifier(nil).(*notify.Bus)
	assert.True(t, isBus)

	rdb, err := ProvideRedis(cfg)
	require.NoError(t, err)
	assert.Nil(t, rdb)
}

func TestAuthenticatorFollowsCatalogMode(t *testing.T) {
	cfg := testConfig()
	accounts, err := ProvideDemoAccounts(cfg)
	require.NoError(t, err)
	client := ProvideAPIClient(cfg)

	_, isLocal := ProvideAuthenticator(cfg, client, accounts).(*demo.LocalAuth)
	assert.True(t, isLocal)

	cfg.Catalog.Mode = config.CatalogProxy
	_, isHTTP := ProvideAuthenticator(cfg, client, accounts).(*session.Client)
	assert.True(t, isHTTP)
}

func TestNoBrokersMeansNoKafka(t *testing.T) {
	cfg := testConfig()

	p, err := ProvidePublisher(cfg)
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.Nil(t, ProvideEventPublisher(p))

	c, err := ProvideConsumer(cfg)
	require.NoError(t, err)
	assert.Nil(t, c)
}
