package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("LOW_STOCK_THRESHOLD", "")
	t.Setenv("DEMO_FALLBACK", "")

	cfg := Load()

	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 10, cfg.LowStockThreshold)
	assert.False(t, cfg.DemoFallback)
	assert.Equal(t, time.Minute, cfg.DashboardCacheTTL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " k1:9092, ,k2:9092 ")
	t.Setenv("LOW_STOCK_THRESHOLD", "3")
	t.Setenv("DEMO_FALLBACK", "true")
	t.Setenv("DASHBOARD_CACHE_TTL", "15s")

	cfg := Load()

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 3, cfg.LowStockThreshold)
	assert.True(t, cfg.DemoFallback)
	assert.Equal(t, 15*time.Second, cfg.DashboardCacheTTL)
}

func TestLoad_BadNumbersFallBack(t *testing.T) {
	t.Setenv("LOW_STOCK_THRESHOLD", "-4")
	t.Setenv("ANALYTICS_WORKERS", "many")
	t.Setenv("DASHBOARD_CACHE_TTL", "soon")

	cfg := Load()

	assert.Equal(t, 10, cfg.LowStockThreshold)
	assert.Equal(t, 4, cfg.AnalyticsWorkers)
	assert.Equal(t, time.Minute, cfg.DashboardCacheTTL)
}

func TestValidate(t *testing.T) {
	assert.ErrorIs(t, Config{}.Validate(), ErrMissingJWTSecret)
	assert.ErrorIs(t, Config{JWTSecret: "short"}.Validate(), ErrShortJWTSecret)
	assert.NoError(t, Config{JWTSecret: strings.Repeat("x", 32)}.Validate())
}
