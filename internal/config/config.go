// Package config loads the server settings from defaults, an optional YAML
// file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileEnv names the environment variable pointing at the YAML file.
const FileEnv = "BOARD_CONFIG"

// Config holds every tunable of the board server.
type Config struct {
	Port           string        `yaml:"port"`
	APIBaseURL     string        `yaml:"api_base_url"`
	APITimeout     time.Duration `yaml:"api_timeout"`
	DisplayTZ      string        `yaml:"display_tz"`
	SessionStore   string        `yaml:"session_store"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
	CORSOrigin     string        `yaml:"cors_origin"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps"`
	RateLimitBurst int           `yaml:"rate_limit_burst"`
	LiveUpdates    bool          `yaml:"live_updates"`
	LogLevel       string        `yaml:"log_level"`
	LogFormat      string        `yaml:"log_format"`
	GinMode        string        `yaml:"gin_mode"`

	location *time.Location
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:           "8080",
		APIBaseURL:     "http://localhost:5000/api",
		DisplayTZ:      "Local",
		SessionStore:   "memory",
		SessionTTL:     24 * time.Hour,
		CORSOrigin:     "*",
		RateLimitRPS:   2,
		RateLimitBurst: 5,
		LogLevel:       "info",
		LogFormat:      "console",
	}
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom reads the configuration using lookup for environment values.
func LoadFrom(lookup LookupFunc) (*Config, error) {
	cfg := Default()

	if path, ok := lookup(FileEnv); ok && strings.TrimSpace(path) != "" {
		if err := cfg.mergeFile(strings.TrimSpace(path)); err != nil {
			return nil, err
		}
	}
	if err := cfg.mergeEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Location returns the time zone used to display timestamps.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv(lookup LookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	raw := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	str("PORT", &c.Port)
	str("API_BASE_URL", &c.APIBaseURL)
	str("DISPLAY_TZ", &c.DisplayTZ)
	str("SESSION_STORE", &c.SessionStore)
	str("CORS_ORIGIN", &c.CORSOrigin)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	str("GIN_MODE", &c.GinMode)

	var errs []error
	if v, ok := raw("API_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("API_TIMEOUT: %w", err))
		}
		c.APITimeout = d
	}
	if v, ok := raw("SESSION_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("SESSION_TTL: %w", err))
		}
		c.SessionTTL = d
	}
	if v, ok := raw("RATE_LIMIT_RPS"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS: %w", err))
		}
		c.RateLimitRPS = f
	}
	if v, ok := raw("RATE_LIMIT_BURST"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("RATE_LIMIT_BURST: %w", err))
		}
		c.RateLimitBurst = n
	}
	if v, ok := raw("LIVE_UPDATES"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("LIVE_UPDATES: %w", err))
		}
		c.LiveUpdates = b
	}
	return errors.Join(errs...)
}

func (c *Config) validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if c.APIBaseURL == "" {
		errs = append(errs, errors.New("API_BASE_URL must not be empty"))
	}
	if c.APITimeout < 0 {
		errs = append(errs, errors.New("API_TIMEOUT must not be negative"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must not be negative"))
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q: want console or json", c.LogFormat))
	}
	loc, err := time.LoadLocation(c.DisplayTZ)
	if err != nil {
		errs = append(errs, fmt.Errorf("DISPLAY_TZ: %w", err))
	}
	c.location = loc
	return errors.Join(errs...)
}
