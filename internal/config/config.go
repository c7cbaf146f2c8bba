package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds all configuration for the backend
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP listener configuration
type ServerConfig struct {
	Addr           string   `env:"LISTEN_ADDR" envDefault:":3000"`
	BasePath       string   `env:"API_BASE_PATH" envDefault:"/api/sunday-school"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string `env:"DATABASE_URL" envDefault:"sundayschool.sqlite"`
}

// AuthConfig holds session configuration
type AuthConfig struct {
	TokenTTL      time.Duration `env:"JWT_TTL" envDefault:"168h"`
	CookieName    string        `env:"SESSION_COOKIE_NAME" envDefault:"jwt"`
	CookieSecure  bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
	SweepSchedule string        `env:"SESSION_SWEEP_SCHEDULE" envDefault:"@every 1h"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"` // json, console
}

// Load loads .env files and then configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	return Parse()
}

// Parse reads configuration from the current environment
func Parse() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("API_BASE_PATH must start with '/': %q", c.Server.BasePath)
	}
	c.Server.BasePath = strings.TrimRight(c.Server.BasePath, "/")

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Auth.CookieName == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME must not be empty")
	}
	if _, err := cron.ParseStandard(c.Auth.SweepSchedule); err != nil {
		return fmt.Errorf("invalid SESSION_SWEEP_SCHEDULE %q: %w", c.Auth.SweepSchedule, err)
	}
	return nil
}
