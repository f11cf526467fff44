package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrigins(t *testing.T) {
	assert.Nil(t, parseOrigins(""))
	assert.Equal(t, []string{"http://a", "http://b"}, parseOrigins(" http://a , ,http://b"))
}

func TestGetEnvDurationFallsBack(t *testing.T) {
	t.Setenv("FOLDER_CACHE_TTL", "nonsense")
	assert.Equal(t, time.Minute, getEnvDuration("FOLDER_CACHE_TTL", time.Minute))

	t.Setenv("FOLDER_CACHE_TTL", "30s")
	assert.Equal(t, 30*time.Second, getEnvDuration("FOLDER_CACHE_TTL", time.Minute))
}

func TestLoadConsoleDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConsole("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
}

func TestLoadConsoleFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "console.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: http://api.local/\ntimeout: 5s\n"), 0o600))
	t.Setenv("COURSEWARE_TOKEN", "abc")

	cfg, err := LoadConsole(path)
	require.NoError(t, err)
	assert.Equal(t, "http://api.local", cfg.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "abc", cfg.Token)
}

func TestLoadConsoleMissingExplicitFile(t *testing.T) {
	_, err := LoadConsole(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
