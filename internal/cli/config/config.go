package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/sundayschool-dev/sundayschool/internal/authctx"
	"github.com/sundayschool-dev/sundayschool/internal/cli/client"
)

const (
	configDirName  = "sundayschool"
	configFileName = "config.json"

	// EnvPrefix prefixes every environment override, e.g. SUNDAYSCHOOL_BASE_URL
	EnvPrefix = "SUNDAYSCHOOL_"
)

// Duration is a time.Duration that reads and writes as "15s" in JSON and env
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// RetryConfig tunes how long a login waits for the new session to show up
type RetryConfig struct {
	Attempts   int      `json:"attempts" env:"ATTEMPTS"`
	Delay      Duration `json:"delay" env:"DELAY"`
	Multiplier float64  `json:"multiplier" env:"MULTIPLIER"`
}

// Policy converts the config to the orchestrator's retry policy
func (r RetryConfig) Policy() authctx.RetryPolicy {
	return authctx.RetryPolicy{
		MaxAttempts: r.Attempts,
		Delay:       r.Delay.Duration,
		Multiplier:  r.Multiplier,
	}
}

// Config is the user's local configuration stored in
// ~/.config/sundayschool/config.json
type Config struct {
	BaseURL     string           `json:"base_url" env:"BASE_URL"`
	Transport   client.Transport `json:"transport" env:"TRANSPORT"`
	Timeout     Duration         `json:"timeout" env:"TIMEOUT"`
	InsecureTLS bool             `json:"insecure_tls,omitempty" env:"INSECURE_TLS"`
	SessionTTL  Duration         `json:"session_ttl" env:"SESSION_TTL"`
	LogLevel    string           `json:"log_level" env:"LOG_LEVEL"`
	Retry       RetryConfig      `json:"retry" envPrefix:"RETRY_"`
}

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	policy := authctx.DefaultRetryPolicy()
	return &Config{
		BaseURL:    "http://localhost:3000/api/sunday-school",
		Transport:  client.TransportBearer,
		Timeout:    Duration{15 * time.Second},
		SessionTTL: Duration{5 * time.Minute},
		LogLevel:   "warn",
		Retry: RetryConfig{
			Attempts:   policy.MaxAttempts,
			Delay:      Duration{policy.Delay},
			Multiplier: policy.Multiplier,
		},
	}
}

// DefaultPath returns the path to the user config file
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", configDirName, configFileName), nil
}

// Load reads the config file at path over the defaults, then applies
// SUNDAYSCHOOL_* environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values a client cannot start without
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute URL, got %q", c.BaseURL)
	}
	switch c.Transport {
	case client.TransportBearer, client.TransportCookie:
	default:
		return fmt.Errorf("invalid transport: %q (valid options: bearer, cookie)", c.Transport)
	}
	if c.Timeout.Duration <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Retry.Attempts < 1 {
		return fmt.Errorf("retry.attempts must be at least 1, got %d", c.Retry.Attempts)
	}
	return nil
}

// Save writes the configuration to path
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
