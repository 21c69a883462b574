package config

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, NotifyDirect, cfg.NotifyMode)
	assert.Equal(t, time.Hour, cfg.CatalogCacheTTL)
	assert.Equal(t, 5*time.Minute, cfg.SearchCacheTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("NOTIFY_MODE", "kafka")
	t.Setenv("CART_TTL", "30m")
	t.Setenv("NOTIFIER_WORKERS", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, NotifyKafka, cfg.NotifyMode)
	assert.Equal(t, 30*time.Minute, cfg.CartTTL)
	assert.Equal(t, 1, cfg.NotifierWorkers)
}

func TestLoadRejectsUnknownNotifyMode(t *testing.T) {
	t.Setenv("NOTIFY_MODE", "carrier-pigeon")
	_, err := Load()
	assert.Error(t, err)
}
