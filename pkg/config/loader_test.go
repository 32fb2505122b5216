package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailqueue/pkg/config"
	"github.com/dmitrymomot/mailqueue/pkg/mailqueue"
)

// Tests in this file share process environment and the config cache,
// so they run sequentially.

type defaultsConfig struct {
	Name    string        `env:"TEST_CFG_NAME" envDefault:"mailqueue"`
	Workers int           `env:"TEST_CFG_WORKERS" envDefault:"4"`
	Timeout time.Duration `env:"TEST_CFG_TIMEOUT" envDefault:"15s"`
}

type cachedConfig struct {
	Value string `env:"TEST_CFG_CACHED"`
}

type requiredConfig struct {
	Token string `env:"TEST_CFG_TOKEN,required"`
}

type fileConfig struct {
	Value string `env:"TEST_FILE_ONLY"`
}

func TestLoad_Defaults(t *testing.T) {
	config.ResetCache()

	var cfg defaultsConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "mailqueue", cfg.Name)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
}

func TestLoad_CachesPerType(t *testing.T) {
	config.ResetCache()
	t.Setenv("TEST_CFG_CACHED", "first")

	var first cachedConfig
	require.NoError(t, config.Load(&first))

	t.Setenv("TEST_CFG_CACHED", "second")
	var second cachedConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "first", second.Value, "served from cache")

	var reloaded cachedConfig
	require.NoError(t, config.ForceReloadConfig(&reloaded))
	assert.Equal(t, "second", reloaded.Value)

	var afterReload cachedConfig
	require.NoError(t, config.Load(&afterReload))
	assert.Equal(t, "second", afterReload.Value, "reload replaces the cached value")
}

func TestLoad_Errors(t *testing.T) {
	config.ResetCache()

	t.Run("nil pointer", func(t *testing.T) {
		var cfg *defaultsConfig
		assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
		assert.ErrorIs(t, config.ForceReloadConfig(cfg), config.ErrNilPointer)
	})

	t.Run("missing required", func(t *testing.T) {
		require.NoError(t, os.Unsetenv("TEST_CFG_TOKEN"))

		var cfg requiredConfig
		assert.ErrorIs(t, config.Load(&cfg), config.ErrParsingConfig)
		assert.Panics(t, func() { config.MustLoad(&cfg) })

		t.Setenv("TEST_CFG_TOKEN", "secret")
		require.NoError(t, config.Load(&cfg), "failures are not cached")
		assert.Equal(t, "secret", cfg.Token)
	})

	t.Run("validator", func(t *testing.T) {
		t.Setenv("QUEUE_STORAGE", "sqlite")

		var cfg mailqueue.Config
		err := config.ForceReloadConfig(&cfg)
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
		assert.ErrorIs(t, err, mailqueue.ErrInvalidConfig)
	})
}

func TestLoadEnv(t *testing.T) {
	config.ResetCache()
	t.Cleanup(func() {
		for _, k := range []string{"QUEUE_BATCH_SIZE", "QUEUE_STORAGE", "TEST_FILE_ONLY"} {
			_ = os.Unsetenv(k)
		}
		config.ResetCache()
	})

	require.NoError(t, config.LoadEnv("testdata/base.env", "testdata/override.env"))

	var file fileConfig
	require.NoError(t, config.Load(&file))
	assert.Equal(t, "from_override", file.Value, "later files win")

	var queue mailqueue.Config
	require.NoError(t, config.Load(&queue))
	assert.Equal(t, 50, queue.BatchSize)
	assert.Equal(t, mailqueue.StorageMemory, queue.Storage)
	assert.Equal(t, 5*time.Minute, queue.ClaimTTL)

	assert.ErrorIs(t, config.LoadEnv("testdata/missing.env"), config.ErrLoadingEnvFile)
	assert.Panics(t, func() { config.MustLoadEnv("testdata/missing.env") })
}
