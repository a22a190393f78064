package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "PaymentRecordQueue", cfg.Queue)
	assert.Equal(t, "PaymentRecordExchange", cfg.Exchange)
	assert.Equal(t, "record", cfg.RoutingKey)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.InitialInterval)
}

func TestNewConfigFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
port: "9090"
queue: file-queue
retry:
  max_attempts: 5
  initial_interval: 200ms
  multiplier: 1.5
  max_interval: 2s
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("AMQP_QUEUE", "env-queue")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "env-queue", cfg.Queue)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 200*time.Millisecond, cfg.Retry.InitialInterval)
	assert.Equal(t, 1.5, cfg.Retry.Multiplier)
	assert.Equal(t, 2*time.Second, cfg.Retry.MaxInterval)
}

func TestNewConfigRejectsBadValues(t *testing.T) {
	t.Run("empty db conn", func(t *testing.T) {
		t.Setenv("DB_CONN", "")
		_, err := NewConfig()
		require.Error(t, err)
	})

	t.Run("unparsable attempts", func(t *testing.T) {
		t.Setenv("RETRY_MAX_ATTEMPTS", "three")
		_, err := NewConfig()
		require.Error(t, err)
	})

	t.Run("zero attempts", func(t *testing.T) {
		t.Setenv("RETRY_MAX_ATTEMPTS", "0")
		_, err := NewConfig()
		require.Error(t, err)
	})

	t.Run("max interval below initial", func(t *testing.T) {
		t.Setenv("RETRY_INITIAL_INTERVAL", "5s")
		t.Setenv("RETRY_MAX_INTERVAL", "1s")
		_, err := NewConfig()
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
		_, err := NewConfig()
		require.Error(t, err)
	})
}
