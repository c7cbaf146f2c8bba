package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundayschool-dev/sundayschool/internal/cli/client"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)

	assert.Equal(t, client.TransportBearer, cfg.Transport)
	assert.Equal(t, 15*time.Second, cfg.Timeout.Duration)
	assert.Equal(t, 3, cfg.Retry.Attempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.Delay.Duration)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := Defaults()
	cfg.BaseURL = "https://school.example.org/api/sunday-school"
	cfg.Transport = client.TransportCookie
	cfg.Retry.Delay = Duration{250 * time.Millisecond}
	require.NoError(t, Save(path, cfg))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"delay": "250ms"`)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"base_url":"http://file.example","timeout":"5s"}`), 0644))

	t.Setenv("SUNDAYSCHOOL_BASE_URL", "http://env.example/api")
	t.Setenv("SUNDAYSCHOOL_TRANSPORT", "COOKIE")
	t.Setenv("SUNDAYSCHOOL_RETRY_ATTEMPTS", "5")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://env.example/api", cfg.BaseURL)
	assert.Equal(t, client.TransportCookie, cfg.Transport)
	assert.Equal(t, 5*time.Second, cfg.Timeout.Duration)
	assert.Equal(t, 5, cfg.Retry.Attempts)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{`), 0644))
	_, err := Load(bad)
	assert.ErrorContains(t, err, "failed to parse config file")

	relative := filepath.Join(dir, "relative.json")
	require.NoError(t, os.WriteFile(relative, []byte(`{"base_url":"/api"}`), 0644))
	_, err = Load(relative)
	assert.ErrorContains(t, err, "base_url")

	t.Setenv("SUNDAYSCHOOL_TRANSPORT", "carrier-pigeon")
	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestRetryConfig_Policy(t *testing.T) {
	p := RetryConfig{Attempts: 4, Delay: Duration{time.Second}, Multiplier: 2}.Policy()
	assert.Equal(t, 4, p.MaxAttempts)
	assert.Equal(t, time.Second, p.Delay)
	assert.Equal(t, 2.0, p.Multiplier)
}
