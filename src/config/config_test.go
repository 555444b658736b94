package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seazero-dotcom/CryptoTraderPro/src/models"
)

// -----------------------------------------------------------------------------

const validYAML = `
name: "test-app"
host: "0.0.0.0"
port: 8090
log_level: "INFO"

storage:
  db_type: "memory"

network:
  timeout: 10
  user_agent: "test-agent"

exchange:
  base_url: "https://api.binance.com"

relay:
  symbols:
    - "BTCUSDT"
    - "ETHUSDT"
  interval_seconds: 5
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// -----------------------------------------------------------------------------

func TestNewConfigLoadsYAML(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "test-app", cfg.Name)
	assert.Equal(t, 8090, cfg.Port)
	assert.Equal(t, "memory", cfg.Storage.DBType)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, cfg.Relay.Symbols)
	assert.Equal(t, 5, cfg.Relay.IntervalSeconds)
}

func TestNewConfigMissingFile(t *testing.T) {
	_, err := NewConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestNewConfigEnvOverrides(t *testing.T) {
	t.Setenv("EXCHANGE_API_KEY", "env-key")
	t.Setenv("EXCHANGE_API_SECRET", "env-secret")

	cfg, err := NewConfig(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Exchange.APIKey)
	assert.Equal(t, "env-secret", cfg.Exchange.APISecret)
}

// -----------------------------------------------------------------------------

func baseConfig() *Config {
	return &Config{MConfig: &models.MConfig{
		Name:     "test",
		Host:     "localhost",
		Port:     8090,
		LogLevel: "INFO",
		Storage:  models.MStorageConfig{DBType: "memory"},
		Network:  models.MNetworkConfig{RequestTimeout: 10},
		Exchange: models.MExchangeConfig{BaseURL: "https://api.binance.com"},
		Relay:    models.MRelayConfig{Symbols: []string{"BTCUSDT"}, IntervalSeconds: 5},
	}}
}

func TestValidate(t *testing.T) {
	require.NoError(t, baseConfig().Validate())

	bad := baseConfig()
	bad.Port = 80
	assert.Error(t, bad.Validate(), "privileged ports are rejected")

	bad = baseConfig()
	bad.Storage.DBType = "sqlite"
	assert.Error(t, bad.Validate(), "sqlite needs a db path")
	bad.Storage.DBPath = "test.db"
	assert.NoError(t, bad.Validate())

	bad = baseConfig()
	bad.Storage.DBType = "postgres"
	assert.Error(t, bad.Validate(), "postgres needs a connection string")

	bad = baseConfig()
	bad.Storage.DBType = "cassandra"
	assert.Error(t, bad.Validate(), "unknown storage type is rejected")

	bad = baseConfig()
	bad.Relay.Symbols = nil
	assert.Error(t, bad.Validate(), "relay needs symbols")

	bad = baseConfig()
	bad.Relay.IntervalSeconds = 0
	assert.Error(t, bad.Validate(), "relay needs a positive interval")

	bad = baseConfig()
	bad.Exchange.BaseURL = ""
	assert.Error(t, bad.Validate(), "exchange base URL is required")
}

// -----------------------------------------------------------------------------

func TestSaveRoundTrip(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, validYAML))
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, cfg.Save(out))

	reloaded, err := NewConfig(out)
	require.NoError(t, err)
	assert.Equal(t, cfg.Name, reloaded.Name)
	assert.Equal(t, cfg.Relay.Symbols, reloaded.Relay.Symbols)
}
