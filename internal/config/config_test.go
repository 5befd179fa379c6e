package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelcm/marketing-intel/internal/ingest"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"PORT", "LOG_LEVEL", "HTTP_TIMEOUT_SECONDS", "DATA_DIR", "SINK_URL", "SINK_SECRET",
		"VALIDATION_POLICY", "BUSINESS_SOURCE", "FACEBOOK_SOURCE", "GOOGLE_SOURCE", "TIKTOK_SOURCE", "CONFIG_FILE"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
	assert.Equal(t, ingest.PolicyClamp, cfg.Policy)
	assert.Empty(t, cfg.SourceSet().Marketing)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "3")
	t.Setenv("DATA_DIR", "/data")
	t.Setenv("FACEBOOK_SOURCE", "fb.csv")
	t.Setenv("GOOGLE_SOURCE", "https://example.com/google.csv")
	t.Setenv("BUSINESS_SOURCE", "/abs/business.csv")
	t.Setenv("VALIDATION_POLICY", "strict")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, ingest.PolicyStrict, cfg.Policy)

	set := cfg.SourceSet()
	require.Len(t, set.Marketing, 2)
	assert.Equal(t, filepath.Join("/data", "fb.csv"), set.Marketing[0].Location)
	assert.Equal(t, "https://example.com/google.csv", set.Marketing[1].Location)
	assert.Equal(t, "/abs/business.csv", set.Business.Location)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "7000"
http_timeout_seconds: 20
sources:
  - channel: facebook
    location: fb.csv
  - name: snap
    channel: snapchat
    location: snap.csv
business: business.csv
`), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("FACEBOOK_SOURCE", "fb-override.csv")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, 20*time.Second, cfg.HTTPTimeout)
	require.Len(t, cfg.Sources, 2)
	assert.Equal(t, "fb-override.csv", cfg.Sources[0].Location)
	assert.Equal(t, "snapchat", cfg.Sources[1].Channel)
	assert.Equal(t, "business.csv", cfg.SourceSet().Business.Location)
}

func TestLoadRejectsInvalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("VALIDATION_POLICY", "lenient")
	_, err := Load()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("SINK_URL", "http://sink.local/hook")
	_, err = Load()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("PORT", "http")
	_, err = Load()
	assert.Error(t, err)
}
