package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Cleanup(Reset)
	dir := t.TempDir()

	require.NoError(t, Load(dir))

	cfg, err := GetConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultHost, cfg.Server.Host)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, int64(DefaultMaxUploadBytes), cfg.Limits.MaxUploadBytes)
	assert.Equal(t, DefaultMaxRows, cfg.Limits.MaxRows)
	assert.Equal(t, filepath.Join(dir, DefaultDBFilename), cfg.DBPath)
	assert.Equal(t, DefaultRunRetention, cfg.RunRetention)
	assert.Equal(t, dir, DataDir())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	t.Cleanup(Reset)
	dir := t.TempDir()

	content := `{"server": {"host": "127.0.0.1", "port": 9090}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFilename), []byte(content), 0o644))

	require.NoError(t, Load(dir))

	cfg, err := GetConfig()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Unset sections keep defaults.
	assert.Equal(t, DefaultMaxRows, cfg.Limits.MaxRows)
}

func TestLoad_InvalidConfigs(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad json", `{not json`},
		{"port out of range", `{"server": {"port": 70000}}`},
		{"zero upload limit", `{"limits": {"max_upload_bytes": -1, "max_rows": 10}}`},
		{"zero max rows", `{"limits": {"max_upload_bytes": 1024, "max_rows": 0}}`},
		{"negative retention", `{"run_retention": -5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Cleanup(Reset)
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFilename), []byte(tt.content), 0o644))
			require.Error(t, Load(dir))
		})
	}
}

func TestGetConfig_NotLoaded(t *testing.T) {
	Reset()
	_, err := GetConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config not loaded")
}

func TestGetConfig_ReturnsCopy(t *testing.T) {
	t.Cleanup(Reset)
	require.NoError(t, Load(t.TempDir()))

	cfg, err := GetConfig()
	require.NoError(t, err)
	cfg.Server.Port = 1

	again, err := GetConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, again.Server.Port)
}

func TestUpdateAuth_Persists(t *testing.T) {
	t.Cleanup(Reset)
	dir := t.TempDir()
	require.NoError(t, Load(dir))

	auth := AuthConfig{Username: "admin", PasswordHash: "$2a$10$fakehashfortest"}
	require.NoError(t, UpdateAuth(auth))

	// In-memory config updated.
	cfg, err := GetConfig()
	require.NoError(t, err)
	assert.Equal(t, auth, cfg.Auth)

	// Survives a reload from disk.
	data, err := os.ReadFile(filepath.Join(dir, ConfigFilename))
	require.NoError(t, err)
	var onDisk Config
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, auth, onDisk.Auth)

	Reset()
	require.NoError(t, Load(dir))
	cfg, err = GetConfig()
	require.NoError(t, err)
	assert.Equal(t, auth, cfg.Auth)
}

func TestUpdateAuth_NotLoaded(t *testing.T) {
	Reset()
	require.Error(t, UpdateAuth(AuthConfig{Username: "admin"}))
}
