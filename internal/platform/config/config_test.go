package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"TRAVELKEEP_ADDR", "TRAVELKEEP_STORAGE_DRIVER", "TRAVELKEEP_KAFKA_BROKERS", "TRAVELKEEP_REDIS_URL"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "fs", cfg.Blob.Driver)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Empty(t, cfg.Redis.URL)
	assert.Equal(t, 15*time.Second, cfg.Server.RequestTimeout)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("TRAVELKEEP_ADDR", ":9090")
	t.Setenv("TRAVELKEEP_STORAGE_DRIVER", "postgres")
	t.Setenv("TRAVELKEEP_KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("TRAVELKEEP_REDIS_POOL_SIZE", "42")
	t.Setenv("TRAVELKEEP_BLOB_S3_PATH_STYLE", "true")
	t.Setenv("TRAVELKEEP_REQUEST_TIMEOUT", "2s")

	cfg := FromEnv()
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 42, cfg.Redis.PoolSize)
	assert.True(t, cfg.Blob.S3PathStyle)
	assert.Equal(t, 2*time.Second, cfg.Server.RequestTimeout)
}
