package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/thanos-io/thanos/pkg/tracing/otlp"
	yaml "gopkg.in/yaml.v3"
)

type Config struct {
	Upstream UpstreamConfig `yaml:"upstream,omitempty"`
	Server   ServerConfig   `yaml:"server,omitempty"`
	Browser  BrowserConfig  `yaml:"browser,omitempty"`
	Locale   LocaleConfig   `yaml:"locale,omitempty"`
	Cache    CacheConfig    `yaml:"cache,omitempty"`
	Tracing  *otlp.Config   `yaml:"tracing,omitempty"`
	CORS     CORSConfig     `yaml:"cors,omitempty"`
	Memory   MemoryConfig   `yaml:"memory,omitempty"`
}

type UpstreamConfig struct {
	URL               string        `yaml:"url,omitempty"`
	Timeout           time.Duration `yaml:"timeout,omitempty"`
	RequestsPerSecond float64       `yaml:"requests_per_second,omitempty"`
	Burst             int           `yaml:"burst,omitempty"`
}

type ServerConfig struct {
	InsecureListenAddress string `yaml:"insecure_listen_address,omitempty"`
}

type BrowserConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval,omitempty"`
	Debounce        time.Duration `yaml:"debounce,omitempty"`
	Limit           int           `yaml:"limit,omitempty"`
	Sort            string        `yaml:"sort,omitempty"`
	Mode            string        `yaml:"mode,omitempty"`
	Past            string        `yaml:"past,omitempty"`
	Project         int           `yaml:"project,omitempty"`
	Pattern         string        `yaml:"pattern,omitempty"`
	Size            int           `yaml:"size,omitempty"`
}

type LocaleConfig struct {
	Language string `yaml:"language,omitempty"`
}

type CacheConfig struct {
	Enabled  bool          `yaml:"enabled,omitempty"`
	Addr     string        `yaml:"addr,omitempty"`
	Username string        `yaml:"username,omitempty"`
	Password string        `yaml:"password,omitempty"`
	DB       int           `yaml:"db,omitempty"`
	TTL      time.Duration `yaml:"ttl,omitempty"`
}

type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins,omitempty"`
	AllowedMethods   []string `yaml:"allowed_methods,omitempty"`
	AllowedHeaders   []string `yaml:"allowed_headers,omitempty"`
	AllowCredentials bool     `yaml:"allow_credentials,omitempty"`
	MaxAge           int      `yaml:"max_age,omitempty"`
}

type MemoryConfig struct {
	LimitRatio float64 `yaml:"limit_ratio,omitempty"`
}

func defaultConfig() *Config {
	return &Config{
		Upstream: UpstreamConfig{
			Timeout:           10 * time.Second,
			RequestsPerSecond: 50,
			Burst:             100,
		},
		Server: ServerConfig{
			InsecureListenAddress: ":8989",
		},
		Browser: BrowserConfig{
			RefreshInterval: 10 * time.Minute,
			Debounce:        500 * time.Millisecond,
			Limit:           50,
			Sort:            "up",
			Mode:            "v",
			Size:            120,
		},
		Cache: CacheConfig{
			TTL: 5 * time.Minute,
		},
		CORS: CORSConfig{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With"},
			AllowCredentials: true,
			MaxAge:           300,
		},
		Memory: MemoryConfig{
			LimitRatio: 0.9,
		},
	}
}

var DefaultConfig = defaultConfig()

// Reset restores DefaultConfig to the built-in defaults.
func Reset() {
	DefaultConfig = defaultConfig()
}

func LoadConfig(path string) error {
	f, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	err = yaml.Unmarshal(f, DefaultConfig)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config file: %w", err)
	}
	return nil
}

// Validate checks the settings every subcommand depends on.
func (c *Config) Validate() error {
	if c.Upstream.URL == "" {
		return fmt.Errorf("upstream.url is required")
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive (got: %v)", c.Upstream.Timeout)
	}
	if c.Browser.RefreshInterval <= 0 {
		return fmt.Errorf("browser.refresh_interval must be positive (got: %v)", c.Browser.RefreshInterval)
	}
	if c.Browser.Debounce < 0 {
		return fmt.Errorf("browser.debounce must not be negative (got: %v)", c.Browser.Debounce)
	}
	if c.Browser.Mode != "v" && c.Browser.Mode != "m" {
		return fmt.Errorf("browser.mode must be one of v, m (got: %q)", c.Browser.Mode)
	}
	if c.Browser.Sort != "up" && c.Browser.Sort != "down" {
		return fmt.Errorf("browser.sort must be one of up, down (got: %q)", c.Browser.Sort)
	}
	if c.Cache.Enabled && c.Cache.Addr == "" {
		return fmt.Errorf("cache.addr is required when the cache is enabled")
	}
	return nil
}

func (c *Config) IsTracingEnabled() bool {
	if c == nil {
		return false
	}
	return c.Tracing != nil
}

func (c *Config) GetTracingServiceName() string {
	serviceName := os.Getenv("OTEL_SERVICE_NAME")
	if serviceName == "" {
		if c == nil || c.Tracing == nil {
			return ""
		}
		return c.Tracing.ServiceName
	}
	return serviceName
}

// GetSanitizedConfig returns a copy of the configuration without credentials.
func (c *Config) GetSanitizedConfig() *Config {
	sanitized := *c
	sanitized.Cache.Username = ""
	sanitized.Cache.Password = ""
	return &sanitized
}

func RegisterUpstreamFlags(fs *flag.FlagSet) {
	fs.StringVar(&DefaultConfig.Upstream.URL, "upstream", DefaultConfig.Upstream.URL, "The URL of the banshee web API.")
	fs.DurationVar(&DefaultConfig.Upstream.Timeout, "upstream-timeout", DefaultConfig.Upstream.Timeout, "Timeout of a single request to the banshee API.")
	fs.Float64Var(&DefaultConfig.Upstream.RequestsPerSecond, "upstream-rps", DefaultConfig.Upstream.RequestsPerSecond, "Maximum requests per second sent to the banshee API (0 disables the limit).")
	fs.IntVar(&DefaultConfig.Upstream.Burst, "upstream-burst", DefaultConfig.Upstream.Burst, "Request burst allowed above upstream-rps.")
	fs.StringVar(&DefaultConfig.Locale.Language, "language", DefaultConfig.Locale.Language, "Console language, defaults to the language configured in banshee.")
}

func RegisterBrowserFlags(fs *flag.FlagSet) {
	fs.DurationVar(&DefaultConfig.Browser.RefreshInterval, "refresh-interval", DefaultConfig.Browser.RefreshInterval, "Interval between full rebuilds of the metric feeds while live.")
	fs.DurationVar(&DefaultConfig.Browser.Debounce, "debounce", DefaultConfig.Browser.Debounce, "Delay collapsing rapid filter changes into one rebuild.")
	fs.IntVar(&DefaultConfig.Browser.Limit, "limit", DefaultConfig.Browser.Limit, "Maximum number of metrics to chart.")
	fs.StringVar(&DefaultConfig.Browser.Sort, "sort", DefaultConfig.Browser.Sort, "Metric order by trend: up or down.")
	fs.StringVar(&DefaultConfig.Browser.Mode, "mode", DefaultConfig.Browser.Mode, "Chart values (v) or anomaly scores (m).")
	fs.StringVar(&DefaultConfig.Browser.Past, "past", DefaultConfig.Browser.Past, "Shift the chart window into the past, e.g. 3h or 1d.")
	fs.IntVar(&DefaultConfig.Browser.Project, "project", DefaultConfig.Browser.Project, "Chart the metrics matched by the rules of this project.")
	fs.StringVar(&DefaultConfig.Browser.Pattern, "pattern", DefaultConfig.Browser.Pattern, "Chart the metrics matching this pattern.")
	fs.IntVar(&DefaultConfig.Browser.Size, "size", DefaultConfig.Browser.Size, "Number of steps in the chart window.")
}

func RegisterCacheFlags(fs *flag.FlagSet) {
	fs.BoolVar(&DefaultConfig.Cache.Enabled, "cache-enabled", DefaultConfig.Cache.Enabled, "Cache banshee static configuration responses in redis.")
	fs.StringVar(&DefaultConfig.Cache.Addr, "cache-addr", DefaultConfig.Cache.Addr, "Redis address of the configuration cache.")
	fs.StringVar(&DefaultConfig.Cache.Username, "cache-username", DefaultConfig.Cache.Username, "Redis username of the configuration cache.")
	fs.StringVar(&DefaultConfig.Cache.Password, "cache-password", DefaultConfig.Cache.Password, "Redis password of the configuration cache.")
	fs.IntVar(&DefaultConfig.Cache.DB, "cache-db", DefaultConfig.Cache.DB, "Redis database of the configuration cache.")
	fs.DurationVar(&DefaultConfig.Cache.TTL, "cache-ttl", DefaultConfig.Cache.TTL, "Lifetime of cached configuration responses.")
}

func RegisterMemoryLimitFlags(fs *flag.FlagSet) {
	fs.Float64Var(&DefaultConfig.Memory.LimitRatio, "memory-limit-ratio", DefaultConfig.Memory.LimitRatio, "Ratio of the cgroup memory limit used as GOMEMLIMIT (0 disables).")
}

func RegisterServerFlags(fs *flag.FlagSet) {
	fs.StringVar(&DefaultConfig.Server.InsecureListenAddress, "insecure-listen-address", DefaultConfig.Server.InsecureListenAddress, "The address the banshee-console HTTP server should listen on.")
}
