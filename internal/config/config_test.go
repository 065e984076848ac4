package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thanos-io/thanos/pkg/tracing/otlp"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(tmpfile.Name()) })

	_, err = tmpfile.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())
	return tmpfile.Name()
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	path := writeConfig(t, `
upstream:
  url: "http://localhost:2016"
  timeout: "3s"
  requests_per_second: 20
  burst: 40
server:
  insecure_listen_address: ":9000"
browser:
  refresh_interval: "5m"
  debounce: "250ms"
  limit: 100
  sort: "down"
  mode: "m"
  past: "3h"
locale:
  language: "zh"
cache:
  enabled: true
  addr: "localhost:6379"
  password: "secret"
  ttl: "1m"
cors:
  allowed_origins: ["https://console.example.com"]
  allowed_methods: ["GET"]
  allowed_headers: ["Content-Type"]
  allow_credentials: false
  max_age: 60
`)

	Reset()
	t.Cleanup(Reset)

	require.NoError(t, LoadConfig(path))

	assert.Equal(t, "http://localhost:2016", DefaultConfig.Upstream.URL)
	assert.Equal(t, 3*time.Second, DefaultConfig.Upstream.Timeout)
	assert.Equal(t, 20.0, DefaultConfig.Upstream.RequestsPerSecond)
	assert.Equal(t, 40, DefaultConfig.Upstream.Burst)
	assert.Equal(t, ":9000", DefaultConfig.Server.InsecureListenAddress)
	assert.Equal(t, 5*time.Minute, DefaultConfig.Browser.RefreshInterval)
	assert.Equal(t, 250*time.Millisecond, DefaultConfig.Browser.Debounce)
	assert.Equal(t, 100, DefaultConfig.Browser.Limit)
	assert.Equal(t, "down", DefaultConfig.Browser.Sort)
	assert.Equal(t, "m", DefaultConfig.Browser.Mode)
	assert.Equal(t, "3h", DefaultConfig.Browser.Past)
	assert.Equal(t, 120, DefaultConfig.Browser.Size)
	assert.Equal(t, "zh", DefaultConfig.Locale.Language)
	assert.True(t, DefaultConfig.Cache.Enabled)
	assert.Equal(t, "localhost:6379", DefaultConfig.Cache.Addr)
	assert.Equal(t, time.Minute, DefaultConfig.Cache.TTL)
	assert.Equal(t, []string{"https://console.example.com"}, DefaultConfig.CORS.AllowedOrigins)
	assert.Equal(t, []string{"GET"}, DefaultConfig.CORS.AllowedMethods)
	assert.Equal(t, 60, DefaultConfig.CORS.MaxAge)
	assert.NoError(t, DefaultConfig.Validate())
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfig(t, `
browser:
  limit: "invalid" # Should be int, not string
`)
	Reset()
	t.Cleanup(Reset)

	err := LoadConfig(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal config file")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	err := LoadConfig("nonexistent-file.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestDefaults(t *testing.T) {
	c := defaultConfig()
	assert.Equal(t, 10*time.Minute, c.Browser.RefreshInterval)
	assert.Equal(t, 500*time.Millisecond, c.Browser.Debounce)
	assert.Equal(t, 50, c.Browser.Limit)
	assert.Equal(t, "up", c.Browser.Sort)
	assert.Equal(t, "v", c.Browser.Mode)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing upstream", mutate: func(c *Config) { c.Upstream.URL = "" }, wantErr: "upstream.url is required"},
		{name: "bad timeout", mutate: func(c *Config) { c.Upstream.Timeout = 0 }, wantErr: "upstream.timeout"},
		{name: "bad refresh", mutate: func(c *Config) { c.Browser.RefreshInterval = 0 }, wantErr: "browser.refresh_interval"},
		{name: "bad debounce", mutate: func(c *Config) { c.Browser.Debounce = -time.Second }, wantErr: "browser.debounce"},
		{name: "bad mode", mutate: func(c *Config) { c.Browser.Mode = "x" }, wantErr: "browser.mode"},
		{name: "bad sort", mutate: func(c *Config) { c.Browser.Sort = "sideways" }, wantErr: "browser.sort"},
		{name: "cache without addr", mutate: func(c *Config) { c.Cache.Enabled = true }, wantErr: "cache.addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := defaultConfig()
			c.Upstream.URL = "http://banshee:2016"
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

func TestConfig_IsTracingEnabled(t *testing.T) {
	var nilConfig *Config
	assert.False(t, nilConfig.IsTracingEnabled())
	assert.False(t, (&Config{}).IsTracingEnabled())
	assert.True(t, (&Config{Tracing: &otlp.Config{}}).IsTracingEnabled())
}

func TestConfig_GetTracingServiceName(t *testing.T) {
	c := &Config{Tracing: &otlp.Config{ServiceName: "banshee-console"}}
	t.Setenv("OTEL_SERVICE_NAME", "")
	assert.Equal(t, "banshee-console", c.GetTracingServiceName())

	t.Setenv("OTEL_SERVICE_NAME", "from-env")
	assert.Equal(t, "from-env", c.GetTracingServiceName())
}

func TestGetSanitizedConfig(t *testing.T) {
	c := defaultConfig()
	c.Cache.Username = "admin"
	c.Cache.Password = "secret"

	sanitized := c.GetSanitizedConfig()
	assert.Empty(t, sanitized.Cache.Username)
	assert.Empty(t, sanitized.Cache.Password)
	assert.Equal(t, "secret", c.Cache.Password)
}

func TestRegisterFlags(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	RegisterUpstreamFlags(fs)
	RegisterBrowserFlags(fs)
	RegisterCacheFlags(fs)
	RegisterMemoryLimitFlags(fs)

	require.NoError(t, fs.Parse([]string{"-upstream", "http://banshee:2016", "-limit", "30", "-mode", "m", "-cache-ttl", "30s"}))
	assert.Equal(t, "http://banshee:2016", DefaultConfig.Upstream.URL)
	assert.Equal(t, 30, DefaultConfig.Browser.Limit)
	assert.Equal(t, "m", DefaultConfig.Browser.Mode)
	assert.Equal(t, 30*time.Second, DefaultConfig.Cache.TTL)
}
