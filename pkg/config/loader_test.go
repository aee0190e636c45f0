package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windlogs/notifykit/pkg/config"
)

type brokerConfig struct {
	URL       string        `env:"TEST_BROKER_URL" envDefault:"ws://localhost:8080/ws"`
	Heartbeat time.Duration `env:"TEST_BROKER_HEARTBEAT" envDefault:"4s"`
	Attempts  int           `env:"TEST_BROKER_ATTEMPTS" envDefault:"5"`
}

type requiredConfig struct {
	Required string `env:"TEST_REQUIRED_VALUE,required"`
}

type cachedConfig struct {
	Value string `env:"TEST_CACHED_VALUE" envDefault:"first"`
}

type dotenvConfig struct {
	Email string `env:"TEST_DOTENV_EMAIL"`
}

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	config.ResetCache()
	t.Setenv("TEST_BROKER_ATTEMPTS", "7")

	var cfg brokerConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "ws://localhost:8080/ws", cfg.URL)
	assert.Equal(t, 4*time.Second, cfg.Heartbeat)
	assert.Equal(t, 7, cfg.Attempts)
}

func TestLoad_RequiredMissing(t *testing.T) {
	config.ResetCache()
	os.Unsetenv("TEST_REQUIRED_VALUE")

	var cfg requiredConfig
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestLoad_NilPointer(t *testing.T) {
	err := config.Load[brokerConfig](nil)
	assert.ErrorIs(t, err, config.ErrNilPointer)
}

func TestLoad_CachesPerType(t *testing.T) {
	config.ResetCache()
	t.Setenv("TEST_CACHED_VALUE", "first")

	var a cachedConfig
	require.NoError(t, config.Load(&a))

	t.Setenv("TEST_CACHED_VALUE", "second")
	var b cachedConfig
	require.NoError(t, config.Load(&b))
	assert.Equal(t, "first", b.Value)

	config.ResetCache()
	var c cachedConfig
	require.NoError(t, config.Load(&c))
	assert.Equal(t, "second", c.Value)
}

func TestMustLoad_Panics(t *testing.T) {
	config.ResetCache()
	os.Unsetenv("TEST_REQUIRED_VALUE")

	assert.Panics(t, func() {
		var cfg requiredConfig
		config.MustLoad(&cfg)
	})
}

func TestLoadEnv(t *testing.T) {
	config.ResetCache()
	os.Unsetenv("TEST_DOTENV_EMAIL")
	t.Cleanup(func() { os.Unsetenv("TEST_DOTENV_EMAIL") })

	path := filepath.Join(t.TempDir(), ".env.test")
	require.NoError(t, os.WriteFile(path, []byte("TEST_DOTENV_EMAIL=a@x.com\n"), 0o600))

	require.NoError(t, config.LoadEnv(path))

	var cfg dotenvConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "a@x.com", cfg.Email)
}

func TestLoadEnv_MissingFile(t *testing.T) {
	err := config.LoadEnv(filepath.Join(t.TempDir(), "absent.env"))
	assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
}
