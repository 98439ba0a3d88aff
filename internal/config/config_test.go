package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	require.Equal(t, "info", cfg.Log.Level)
	require.NotEmpty(t, cfg.Log.File)
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "api:\n  base_url: https://tasks.example.com/api/v1\nlog:\n  level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://tasks.example.com/api/v1", cfg.API.BaseURL)
	require.Equal(t, "debug", cfg.Log.Level)
	// Unset keys keep their defaults.
	require.NotEmpty(t, cfg.Log.File)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "api:\n  base_url: https://from-file.example.com\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("TASKTRACKER_API_URL", "https://from-env.example.com")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://from-env.example.com", cfg.API.BaseURL)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	want := &Config{
		API: APIConfig{BaseURL: "http://localhost:9000/api/v1"},
		Log: LogConfig{Level: "warn", File: "/tmp/tt.log"},
	}
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, want.API.BaseURL, got.API.BaseURL)
	require.Equal(t, want.Log.Level, got.Log.Level)
	require.Equal(t, want.Log.File, got.Log.File)
}
