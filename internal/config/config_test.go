package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "MONGO_DB", "JWT_EXPIRY", "MQTT_BROKER", "INVITE_TTL", "LOG_FORMAT"} {
		t.Setenv(k, "")
	}
	t.Setenv("JWT_SECRET", "a-long-enough-secret")

	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "fuellog", cfg.MongoDB)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 7*24*time.Hour, cfg.InviteTTL)
	assert.Empty(t, cfg.MQTTBroker)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NoSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.Empty(t, cfg.JWTSecret)
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET is required")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_EXPIRY", "2h")
	t.Setenv("RATE_LIMIT_REQUESTS", "10")
	t.Setenv("INVITE_TTL", "not-a-duration")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1, ,172.16.0.0/12")

	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 10, cfg.RateLimitRequests)
	assert.Equal(t, 7*24*time.Hour, cfg.InviteTTL, "bad durations fall back to the default")
	assert.Equal(t, []string{"10.0.0.1", "172.16.0.0/12"}, cfg.TrustedProxies)
}

func TestLoad_DotEnvFile(t *testing.T) {
	// t.Setenv restores the original value; godotenv only fills unset keys
	t.Setenv("MONGO_DB", "")
	require.NoError(t, os.Unsetenv("MONGO_DB"))
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MONGO_DB=from_file\n"), 0o600))

	cfg := Load(path)

	assert.Equal(t, "from_file", cfg.MongoDB)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:              "8080",
			MongoURI:          "mongodb://localhost:27017",
			MongoDB:           "fuellog",
			JWTSecret:         "a-long-enough-secret",
			JWTExpiry:         time.Hour,
			LogFormat:         "json",
			InviteTTL:         time.Hour,
			RateLimitRequests: 5,
			RateLimitWindow:   time.Minute,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Port = "http" }, "invalid port"},
		{"port out of range", func(c *Config) { c.Port = "70000" }, "between 1 and 65535"},
		{"bad mongo uri", func(c *Config) { c.MongoURI = "postgres://x" }, "MONGO_URI"},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, "JWT_SECRET"},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, "JWT_SECRET is required"},
		{"bad broker scheme", func(c *Config) { c.MQTTBroker = "http://broker:1883" }, "MQTT broker scheme"},
		{"broker without topic", func(c *Config) { c.MQTTBroker = "tcp://broker:1883" }, "MQTT_TOPIC"},
		{"good broker", func(c *Config) { c.MQTTBroker = "tcp://broker:1883"; c.MQTTTopic = "fills" }, ""},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "log format"},
		{"zero rate limit", func(c *Config) { c.RateLimitRequests = 0 }, "RATE_LIMIT_REQUESTS"},
		{"trusted proxies", func(c *Config) { c.TrustedProxies = []string{"10.0.0.1", "172.16.0.0/12"} }, ""},
		{"bad trusted proxy", func(c *Config) { c.TrustedProxies = []string{"lb.internal"} }, "TRUSTED_PROXIES"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
