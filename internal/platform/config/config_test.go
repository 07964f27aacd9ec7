package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsRunInMemory(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Providers.Backend)
	assert.Equal(t, BackendMemory, cfg.Claims.Backend)
	assert.Equal(t, 15, cfg.Pagination.DefaultItemsPerPage)
	assert.Equal(t, 100, cfg.Pagination.MaxItemsPerPage)
	assert.True(t, cfg.Claims.Cache.Enabled)
	assert.Equal(t, "idv", cfg.Redis.KeyPrefix)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "idvmgt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
pagination:
  default_items_per_page: 20
  max_items_per_page: 50
claims:
  backend: mongo
  cache:
    enabled: false
    ttl: 30s
mongo:
  url: mongodb://localhost:27017
  collection: claims
`), 0o600))

	t.Setenv("IDVMGT_ADDR", ":7070")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("REDIS_KEY_PREFIX", "idv-eu")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, 20, cfg.Pagination.DefaultItemsPerPage)
	assert.Equal(t, BackendMongo, cfg.Claims.Backend)
	assert.False(t, cfg.Claims.Cache.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Claims.Cache.TTL)
	assert.Equal(t, "claims", cfg.Mongo.Collection)
	assert.Equal(t, "idv", cfg.Mongo.Database)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "idv-eu", cfg.Redis.KeyPrefix)
}

func TestValidate(t *testing.T) {
	t.Run("postgres backend requires url", func(t *testing.T) {
		cfg := Default()
		cfg.Providers.Backend = BackendPostgres
		assert.Error(t, cfg.Validate())
	})

	t.Run("mongo is not a provider backend", func(t *testing.T) {
		cfg := Default()
		cfg.Providers.Backend = BackendMongo
		assert.Error(t, cfg.Validate())
	})

	t.Run("default page larger than max", func(t *testing.T) {
		cfg := Default()
		cfg.Pagination.DefaultItemsPerPage = 200
		assert.Error(t, cfg.Validate())
	})
}
