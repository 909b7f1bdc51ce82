package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func setRequired(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "15")
	t.Setenv("BCRYPT_COST", "4")
}

func TestLoadMemoryStoreSkipsDatabaseVars(t *testing.T) {
	setRequired(t)
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("QRCODE_BASE_PATH", "https://menu.example.com/")

	cfg := Load()
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, "https://menu.example.com", cfg.QRCodeBasePath)
	assert.Equal(t, 15, cfg.AccessTTLMin)
	assert.Equal(t, "dev", cfg.LogMode)
	assert.False(t, cfg.IsProduction())
}

func TestLoadMySQLStore(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_USER", "menu")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "menu")
	t.Setenv("DB_MIGRATE", "off")

	cfg := Load()
	assert.Equal(t, StoreMySQL, cfg.StoreDriver)
	assert.Equal(t, "db", cfg.DBHost)
	assert.False(t, cfg.DBMigrate)
	assert.True(t, cfg.IsProduction())
}

func TestRateLimitDefaultsAreClamped(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 10*time.Second, cfg.TTL)
	assert.Equal(t, "ip_route", cfg.KeyStrategy)
}

func TestCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_TTL", "not-a-duration")

	cfg := LoadCacheConfig()
	assert.True(t, cfg.Methods["GET"])
	assert.True(t, cfg.Methods["HEAD"])
	assert.Equal(t, 5*time.Minute, cfg.TTL)
}

func TestQueueConfigFallsBackToAMQPURL(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://u:p@broker:5672/")

	cfg := LoadQueueConfig()
	assert.Equal(t, "amqp://u:p@broker:5672/", cfg.URL)
	assert.Equal(t, "catalog.changed", cfg.CatalogQueue)
}

func TestTracingConfig(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_SAMPLER_RATIO", "3")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "api-key=abc, tenant = menu ,broken")

	cfg := LoadTracingConfig("test")
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 1.0, cfg.SamplerRatio)
	assert.Equal(t, map[string]string{"api-key": "abc", "tenant": "menu"}, cfg.Headers)
}

func TestRedisConfigHostPortWins(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_TLS", "1")

	cfg := LoadRedisConfig()
	assert.Equal(t, "redis:6380", cfg.Addr)
	assert.True(t, cfg.TLS)
}
