package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tair/storefront/pkg/database"
)

// Catalog modes.
const (
	CatalogProxy = "proxy"
	CatalogDemo  = "demo"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
	StorageNone     = "none"
)

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type StorageConfig struct {
	Backend string `yaml:"backend"`
	Prefix  string `yaml:"prefix"`
}

type CatalogConfig struct {
	Mode      string        `yaml:"mode"`
	Upstreams []string      `yaml:"upstreams"`
	Timeout   time.Duration `yaml:"timeout"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	GroupID string   `yaml:"group_id"`
}

// DemoConfig drives the in-memory catalog and auth served in demo mode.
type DemoConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	AdminEmail    string        `yaml:"admin_email"`
	AdminPassword string        `yaml:"admin_password"`
}

// Config is the full storefront configuration.
type Config struct {
	ServiceName    string   `yaml:"service_name"`
	Environment    string   `yaml:"environment"`
	LogLevel       string   `yaml:"log_level"`
	HTTPPort       string   `yaml:"http_port"`
	GatewayPort    string   `yaml:"gateway_port"`
	JaegerEndpoint string   `yaml:"jaeger_endpoint"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	Storage  StorageConfig   `yaml:"storage"`
	Redis    RedisConfig     `yaml:"redis"`
	Database database.Config `yaml:"-"`
	Catalog  CatalogConfig   `yaml:"catalog"`
	Kafka    KafkaConfig     `yaml:"kafka"`
	Demo     DemoConfig      `yaml:"demo"`
}

// IsDevelopment reports whether pretty logging and demo defaults apply.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Load reads an optional .env file, then the environment, then an optional
// YAML overlay named by STOREFRONT_CONFIG.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := fromEnv()

	if path := os.Getenv("STOREFRONT_CONFIG"); path != "" {
		if err := cfg.overlay(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv() *Config {
	return &Config{
		ServiceName:    getEnv("OTEL_SERVICE_NAME", "storefront"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		HTTPPort:       getEnv("HTTP_PORT", "8090"),
		GatewayPort:    getEnv("GATEWAY_PORT", "5000"),
		JaegerEndpoint: getEnv("JAEGER_ENDPOINT", ""),
		AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		Storage: StorageConfig{
			Backend: getEnv("STORAGE_BACKEND", StorageMemory),
			Prefix:  getEnv("STORAGE_PREFIX", "storefront"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Database: database.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "storefront"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Catalog: CatalogConfig{
			Mode:      getEnv("CATALOG_MODE", CatalogDemo),
			Upstreams: splitList(getEnv("STOREFRONT_API_BASE_URL", "http://localhost:8085")),
			Timeout:   getEnvDuration("CATALOG_TIMEOUT", 30*time.Second),
			CacheTTL:  getEnvDuration("CATALOG_CACHE_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "")),
			GroupID: getEnv("KAFKA_GROUP_ID", "storefront"),
		},
		Demo: DemoConfig{
			JWTSecret:     getEnv("DEMO_JWT_SECRET", "storefront-demo-secret"),
			TokenTTL:      getEnvDuration("DEMO_TOKEN_TTL", 24*time.Hour),
			AdminEmail:    getEnv("DEMO_ADMIN_EMAIL", "admin@storefront.local"),
			AdminPassword: getEnv("DEMO_ADMIN_PASSWORD", "admin123"),
		},
	}
}

func (c *Config) overlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case StorageMemory, StorageRedis, StoragePostgres, StorageNone:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	switch c.Catalog.Mode {
	case CatalogProxy:
		if len(c.Catalog.Upstreams) == 0 {
			return fmt.Errorf("catalog proxy mode needs at least one upstream")
		}
	case CatalogDemo:
	default:
		return fmt.Errorf("unknown catalog mode %q", c.Catalog.Mode)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
