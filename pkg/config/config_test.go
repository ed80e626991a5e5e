package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, "development", c.Environment)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, 15*time.Second, c.Server.ShutdownTimeout)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, "json", c.Log.Format)
	assert.Equal(t, 85.0, c.Curve.TargetSuccessRate)
	assert.Equal(t, "round", c.Curve.TurnRule)
	assert.Equal(t, "inclusive", c.Curve.DrawConvention)
	assert.Equal(t, "hypergeometric", c.Curve.Model)
	assert.Equal(t, 7, c.Curve.OpeningHandSize)
	assert.Equal(t, -1, c.Kafka.RequiredAcks)
	assert.Equal(t, 2*time.Second, c.Kafka.Consumer.BackoffMax)
	assert.False(t, c.Kafka.Enabled)
	assert.False(t, c.Redis.Enabled)
	assert.False(t, c.ClickHouse.Enabled)
}

func TestParseOverridesDefaults(t *testing.T) {
	c, err := Parse([]byte(`
environment: production
server:
  port: 9090
log:
  level: debug
  format: console
curve:
  target_success_rate: 90
  model: binomial
  required_deck_size: 60
kafka:
  enabled: true
  brokers: ["k1:9092", "k2:9092"]
`))
	require.NoError(t, err)

	assert.Equal(t, "production", c.Environment)
	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, 10*time.Second, c.Server.ReadTimeout, "untouched keys keep defaults")
	assert.Equal(t, "console", c.Log.Format)
	assert.Equal(t, 90.0, c.Curve.TargetSuccessRate)
	assert.Equal(t, "binomial", c.Curve.Model)
	assert.Equal(t, 60, c.Curve.RequiredDeckSize)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"target rate at 100":     "curve:\n  target_success_rate: 100\n",
		"unknown model":          "curve:\n  model: poisson\n",
		"unknown rule":           "curve:\n  turn_rule: floor\n",
		"bad port":               "server:\n  port: 70000\n",
		"kafka without brokers":  "kafka:\n  enabled: true\n",
		"consumer without kafka": "kafka:\n  consumer:\n    enabled: true\n",
		"bad log level":          "log:\n  level: loud\n",
		"not yaml":               "server: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	env := map[string]string{
		"PR_ENV":             "staging",
		"PR_HTTP_PORT":       "8181",
		"PR_LOG_LEVEL":       "WARN",
		"PR_KAFKA_BROKERS":   "a:9092, b:9092,",
		"PR_REDIS_ADDR":      "redis:6379",
		"PR_CLICKHOUSE_HOST": "  ",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	require.NoError(t, c.applyEnv(lookup))

	assert.Equal(t, "staging", c.Environment)
	assert.Equal(t, 8181, c.Server.Port)
	assert.Equal(t, "warn", c.Log.Level)
	assert.Equal(t, []string{"a:9092", "b:9092"}, c.Kafka.Brokers)
	assert.True(t, c.Kafka.Enabled)
	assert.True(t, c.Redis.Enabled)
	assert.Equal(t, "redis:6379", c.Redis.Addr)
	assert.False(t, c.ClickHouse.Enabled, "blank values are ignored")

	env["PR_HTTP_PORT"] = "eighty"
	assert.Error(t, c.applyEnv(lookup))
}

func TestLoadSampleConfig(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/metrics", c.Metrics.Path)
}

func TestLoadWithEnvMissingFile(t *testing.T) {
	_, err := LoadWithEnv(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: test\n"), 0o600))
	t.Setenv("PR_HTTP_PORT", "7070")
	c, err := LoadWithEnv(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, c.Server.Port)
}
