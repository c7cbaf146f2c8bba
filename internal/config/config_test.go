package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, "/api/sunday-school", cfg.Server.BasePath)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "sundayschool.sqlite", cfg.Database.URL)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "jwt", cfg.Auth.CookieName)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":8081")
	t.Setenv("API_BASE_PATH", "/api/v2/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("JWT_TTL", "90m")
	t.Setenv("SESSION_SWEEP_SCHEDULE", "*/5 * * * *")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, ":8081", cfg.Server.Addr)
	assert.Equal(t, "/api/v2", cfg.Server.BasePath)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 90*time.Minute, cfg.Auth.TokenTTL)
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string][2]string{
		"bad ttl":       {"JWT_TTL", "soon"},
		"negative ttl":  {"JWT_TTL", "-1h"},
		"relative path": {"API_BASE_PATH", "api"},
		"bad schedule":  {"SESSION_SWEEP_SCHEDULE", "whenever"},
	}
	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := Parse()
			assert.Error(t, err)
		})
	}
}
