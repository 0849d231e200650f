package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `environment: test
server:
  port: 8080
forecast:
  symbols: [BTCUSDT]
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, 0.8, c.Forecast.TrainSplit)
	assert.Equal(t, 2, c.Forecast.P)
	assert.Equal(t, 60, c.Forecast.TimeSteps)
	assert.Equal(t, "min_volatility", c.Portfolio.Objective)
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("SYMBOLS", "ETHUSDT,SOLUSDT")

	c, err := LoadWithEnv(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, 9999, c.Server.Port)
	assert.Equal(t, []string{"ETHUSDT", "SOLUSDT"}, c.Forecast.Symbols)
}

func TestLoadWithEnvBadPortKeepsFileValue(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-port")

	c, err := LoadWithEnv(writeConfig(t, minimalYAML))
	require.NoError(t, err)
	assert.Equal(t, 8080, c.Server.Port)
}
