package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/complexity"
)

// Log encodings accepted by observability.logging.format
const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

// DefaultPath is used when CONFIG_PATH is unset
const DefaultPath = "/app/config/analyzer.yaml"

type AnalyzerConfig struct {
	Mode          string `mapstructure:"mode"`
	MaxInputBytes int    `mapstructure:"max_input_bytes"`
	IncludeReport bool   `mapstructure:"include_report"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	ReadTimeoutMs  int `mapstructure:"read_timeout_ms"`
	WriteTimeoutMs int `mapstructure:"write_timeout_ms"`
	IdleTimeoutMs  int `mapstructure:"idle_timeout_ms"`
	ShutdownMs     int `mapstructure:"shutdown_timeout_ms"`
	// AuthToken, when set, is required as a Bearer token on the analyze API
	AuthToken string `mapstructure:"auth_token"`
}

type ObservabilityConfig struct {
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
		Port    int  `mapstructure:"port"`
	} `mapstructure:"metrics"`
	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"logging"`
	Tracing struct {
		Enabled      bool   `mapstructure:"enabled"`
		ServiceName  string `mapstructure:"service_name"`
		OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	} `mapstructure:"tracing"`
}

// RateLimitConfig controls per-client request limiting. Requests == 0 disables it.
type RateLimitConfig struct {
	Requests   int         `mapstructure:"requests"`
	IntervalMs int         `mapstructure:"interval_ms"`
	TiersFile  string      `mapstructure:"tiers_file"`
	Redis      RedisConfig `mapstructure:"redis"`
}

// RedisConfig points the limiter at a shared counter store. An empty Addr keeps
// limiting local to the process.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type Config struct {
	Analyzer      AnalyzerConfig      `mapstructure:"analyzer"`
	Server        ServerConfig        `mapstructure:"server"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"`
}

// envBindings maps config keys to their environment overrides
var envBindings = map[string]string{
	"analyzer.mode":                       "ANALYZER_MODE",
	"analyzer.max_input_bytes":            "ANALYZER_MAX_INPUT_BYTES",
	"server.port":                         "HTTP_PORT",
	"server.auth_token":                   "ANALYZER_AUTH_TOKEN",
	"observability.metrics.port":          "METRICS_PORT",
	"observability.logging.level":         "LOG_LEVEL",
	"observability.logging.format":        "LOG_FORMAT",
	"observability.tracing.enabled":       "TRACING_ENABLED",
	"observability.tracing.otlp_endpoint": "OTEL_EXPORTER_OTLP_ENDPOINT",
	"rate_limit.requests":                 "RATE_LIMIT_REQUESTS",
	"rate_limit.interval_ms":              "RATE_LIMIT_INTERVAL_MS",
	"rate_limit.redis.addr":               "REDIS_ADDR",
	"rate_limit.redis.password":           "REDIS_PASSWORD",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("analyzer.mode", complexity.ModeAdvanced)
	v.SetDefault("analyzer.max_input_bytes", 64*1024)
	v.SetDefault("analyzer.include_report", false)

	v.SetDefault("server.port", 8081)
	v.SetDefault("server.read_timeout_ms", 10000)
	v.SetDefault("server.write_timeout_ms", 10000)
	v.SetDefault("server.idle_timeout_ms", 60000)
	v.SetDefault("server.shutdown_timeout_ms", 5000)
	v.SetDefault("server.auth_token", "")

	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.port", 2112)
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", LogFormatJSON)
	v.SetDefault("observability.tracing.enabled", false)
	v.SetDefault("observability.tracing.service_name", "goal-analyzer")
	v.SetDefault("observability.tracing.otlp_endpoint", "localhost:4317")

	// rate limiting disabled unless configured
	v.SetDefault("rate_limit.requests", 0)
	v.SetDefault("rate_limit.interval_ms", 1000)
	v.SetDefault("rate_limit.tiers_file", "")
	v.SetDefault("rate_limit.redis.addr", "")
	v.SetDefault("rate_limit.redis.password", "")
	v.SetDefault("rate_limit.redis.db", 0)
}

// Path returns CONFIG_PATH or DefaultPath
func Path() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads the config file at Path(). A missing file yields defaults plus
// environment overrides.
func Load() (*Config, error) {
	return LoadFile(Path())
}

// LoadFile reads the config at path, applying defaults and env overrides
func LoadFile(path string) (*Config, error) {
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}
	return decode(v)
}

func newViper(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}
	if path == "" {
		return v, nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.Analyzer.Mode = strings.ToLower(strings.TrimSpace(c.Analyzer.Mode))
	c.Observability.Logging.Format = strings.ToLower(strings.TrimSpace(c.Observability.Logging.Format))
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func isNotFound(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf) || errors.Is(err, fs.ErrNotExist)
}

// Validate rejects values no component can run with
func (c *Config) Validate() error {
	if _, err := complexity.New(c.Analyzer.Mode); err != nil {
		return fmt.Errorf("analyzer.mode: %w", err)
	}
	if c.Analyzer.MaxInputBytes <= 0 {
		return fmt.Errorf("analyzer.max_input_bytes must be positive, got %d", c.Analyzer.MaxInputBytes)
	}
	switch c.Observability.Logging.Format {
	case LogFormatJSON, LogFormatConsole:
	default:
		return fmt.Errorf("observability.logging.format must be %q or %q, got %q",
			LogFormatJSON, LogFormatConsole, c.Observability.Logging.Format)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.RateLimit.Requests < 0 {
		return fmt.Errorf("rate_limit.requests must not be negative, got %d", c.RateLimit.Requests)
	}
	if c.RateLimit.Requests > 0 && c.RateLimit.IntervalMs <= 0 {
		return fmt.Errorf("rate_limit.interval_ms must be positive when limiting is enabled")
	}
	return nil
}

// MetricsPort returns the configured metrics port or defaultPort when unset
func (c *Config) MetricsPort(defaultPort int) int {
	if c != nil && c.Observability.Metrics.Port > 0 {
		return c.Observability.Metrics.Port
	}
	return defaultPort
}
