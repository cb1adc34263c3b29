// Package config loads the front end configuration from a yaml file, a
// .env file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	BackendCookie = "cookie"
	BackendSQL    = "sql"
	BackendRedis  = "redis"
)

type Config struct {
	Port       string `yaml:"port" mapstructure:"PORT"`
	APIBaseURL string `yaml:"api_base_url" mapstructure:"API_BASE_URL"`
	// PollInterval is how often the locker directory refreshes (e.g. "10s").
	PollInterval string `yaml:"poll_interval" mapstructure:"POLL_INTERVAL"`
	// RequestTimeout bounds every backend call (e.g. "15s").
	RequestTimeout string `yaml:"request_timeout" mapstructure:"REQUEST_TIMEOUT"`

	// SessionBackend is cookie, sql or redis.
	SessionBackend string `yaml:"session_backend" mapstructure:"SESSION_BACKEND"`
	// SessionTTL is how long an idle browser session is kept server-side.
	SessionTTL    string `yaml:"session_ttl" mapstructure:"SESSION_TTL"`
	SessionSecret string `yaml:"session_secret" mapstructure:"SESSION_SECRET"`
	CookieSecure  bool   `yaml:"cookie_secure" mapstructure:"COOKIE_SECURE"`

	DBDriver      string `yaml:"db_driver" mapstructure:"DB_DRIVER"`
	DBDSN         string `yaml:"db_dsn" mapstructure:"DB_DSN"`
	RedisAddr     string `yaml:"redis_addr" mapstructure:"REDIS_ADDR"`
	RedisPassword string `yaml:"redis_password" mapstructure:"REDIS_PASSWORD"`
	RedisTLS      bool   `yaml:"redis_tls" mapstructure:"REDIS_TLS"`

	LogLevel  string `yaml:"log_level" mapstructure:"LOG_LEVEL"`
	LogFormat string `yaml:"log_format" mapstructure:"LOG_FORMAT"`
}

func Defaults() *Config {
	return &Config{
		Port:           "8080",
		APIBaseURL:     "http://localhost:8000",
		PollInterval:   "10s",
		RequestTimeout: "15s",
		SessionBackend: BackendCookie,
		SessionTTL:     "168h",
		DBDriver:       "sqlite3",
		DBDSN:          "smartlocker.db",
		RedisAddr:      "localhost:6379",
		LogLevel:       "info",
		LogFormat:      "json",
	}
}

// Load reads filename over the defaults, then applies .env and environment
// overrides. A missing file is not an error.
func Load(filename string) (*Config, error) {
	cfg := Defaults()

	if filename != "" {
		data, err := os.ReadFile(filename)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", filename, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // a missing .env is fine

	v.AutomaticEnv()

	v.SetDefault("PORT", c.Port)
	v.SetDefault("API_BASE_URL", c.APIBaseURL)
	v.SetDefault("POLL_INTERVAL", c.PollInterval)
	v.SetDefault("REQUEST_TIMEOUT", c.RequestTimeout)
	v.SetDefault("SESSION_BACKEND", c.SessionBackend)
	v.SetDefault("SESSION_TTL", c.SessionTTL)
	v.SetDefault("SESSION_SECRET", c.SessionSecret)
	v.SetDefault("COOKIE_SECURE", c.CookieSecure)
	v.SetDefault("DB_DRIVER", c.DBDriver)
	v.SetDefault("DB_DSN", c.DBDSN)
	v.SetDefault("REDIS_ADDR", c.RedisAddr)
	v.SetDefault("REDIS_PASSWORD", c.RedisPassword)
	v.SetDefault("REDIS_TLS", c.RedisTLS)
	v.SetDefault("LOG_LEVEL", c.LogLevel)
	v.SetDefault("LOG_FORMAT", c.LogFormat)

	if err := v.Unmarshal(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("config: PORT must be set")
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: API_BASE_URL %q is not an http(s) URL", c.APIBaseURL)
	}
	switch c.SessionBackend {
	case BackendCookie, BackendRedis:
	case BackendSQL:
		if c.DBDriver != "sqlite3" && c.DBDriver != "postgres" {
			return fmt.Errorf("config: DB_DRIVER must be sqlite3 or postgres, got %q", c.DBDriver)
		}
	default:
		return fmt.Errorf("config: SESSION_BACKEND must be cookie, sql or redis, got %q", c.SessionBackend)
	}
	return nil
}

// APIURL returns the backend base URL without a trailing slash.
func (c *Config) APIURL() string {
	return strings.TrimSuffix(c.APIBaseURL, "/")
}

// Poll parses PollInterval. Returns 10s if unset or invalid.
func (c *Config) Poll() time.Duration {
	return parseDuration(c.PollInterval, 10*time.Second)
}

// Timeout parses RequestTimeout. Returns 15s if unset or invalid.
func (c *Config) Timeout() time.Duration {
	return parseDuration(c.RequestTimeout, 15*time.Second)
}

// SessionLifetime parses SessionTTL. Returns 168h if unset or invalid.
func (c *Config) SessionLifetime() time.Duration {
	return parseDuration(c.SessionTTL, 168*time.Hour)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
