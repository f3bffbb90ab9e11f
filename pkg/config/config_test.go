package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, "development", c.Environment)
	assert.Equal(t, 3000, c.Server.Port)
	assert.Equal(t, 30*time.Second, c.Quotes.TTL)
	assert.Equal(t, 3, c.Quotes.Retry.MaxAttempts)
	assert.Equal(t, time.Second, c.Quotes.Retry.Delay)
	assert.Equal(t, []string{"SPY", "QQQ", "DIA", "GLD"}, c.Quotes.WatchList)
	assert.Equal(t, 3, c.Calendar.Retry.MaxAttempts)
	assert.Equal(t, 10*time.Second, c.Calendar.Retry.AttemptTimeout)
	assert.Equal(t, "llama-3.1-8b-instant", c.Groq.Model)
	assert.Equal(t, 800, c.Groq.MaxTokens)
	assert.True(t, c.Debate.Refine)
	assert.NoError(t, c.Validate())
}

func TestParseYAMLOverridesDefaults(t *testing.T) {
	doc := []byte(`
environment: production
quotes:
  ttl: 10s
  watch_list: [AAPL]
debate:
  refine: false
ratelimit:
  backend: redis
`)
	c, err := Parse(doc)
	require.NoError(t, err)

	assert.Equal(t, "production", c.Environment)
	assert.Equal(t, 10*time.Second, c.Quotes.TTL)
	assert.Equal(t, []string{"AAPL"}, c.Quotes.WatchList)
	assert.Equal(t, 3, c.Quotes.Retry.MaxAttempts, "untouched nested default survives")
	assert.False(t, c.Debate.Refine)
	assert.Equal(t, "redis", c.RateLimit.Backend)
}

func TestApplyEnv(t *testing.T) {
	c, err := Parse(nil)
	require.NoError(t, err)

	env := map[string]string{
		"FINNHUB_API_KEY": "fh",
		"GEMINI_API_KEY":  "gm",
		"PORT":            "8081",
		"SYMBOLS":         "ES, NQ ,",
		"KAFKA_BROKERS":   "k1:9092,k2:9092",
	}
	require.NoError(t, c.ApplyEnv(func(k string) string { return env[k] }))

	assert.Equal(t, "fh", c.Finnhub.APIKey)
	assert.Equal(t, "gm", c.Gemini.APIKey)
	assert.Equal(t, 8081, c.Server.Port)
	assert.Equal(t, []string{"ES", "NQ"}, c.Quotes.WatchList)
	assert.True(t, c.Events.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Events.Brokers)
	assert.Equal(t, []string{"GROQ_API_KEY"}, c.MissingKeys())

	bad := func(k string) string {
		if k == "PORT" {
			return "abc"
		}
		return ""
	}
	assert.Error(t, c.ApplyEnv(bad))
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"environment": func(c *Config) { c.Environment = "qa" },
		"log format":  func(c *Config) { c.Log.Format = "xml" },
		"attempts":    func(c *Config) { c.Quotes.Retry.MaxAttempts = 0 },
		"calendar":    func(c *Config) { c.Calendar.Retry.MaxAttempts = 0 },
		"limiter":     func(c *Config) { c.RateLimit.Backend = "memcached" },
		"brokers":     func(c *Config) { c.Events.Enabled = true; c.Events.Brokers = nil },
		"port":        func(c *Config) { c.Server.Port = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c, err := Parse(nil)
			require.NoError(t, err)
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 3000, c.Server.Port)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9999\n"), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, c.Server.Port)
	assert.Equal(t, "0.0.0.0", c.Server.Host)
}
