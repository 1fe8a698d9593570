// Package config provides configuration loading, validation, and management
// for the feedcheck service.
//
// A single global Config instance is maintained in memory, protected by a
// mutex. GetConfig() returns the config BY VALUE (copy, not reference) to
// prevent external mutation; all updates go through Load/Update functions
// which validate before persisting.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Default settings applied when a field is absent from the config file.
const (
	DefaultHost           = "0.0.0.0"
	DefaultPort           = 8080
	DefaultMaxUploadBytes = 10 << 20 // 10MB
	DefaultMaxRows        = 50000
	DefaultDBFilename     = "feedcheck.db"
	DefaultRunRetention   = 100 // validation runs kept in history
)

// ConfigFilename is the expected name of the config file inside the data dir.
const ConfigFilename = "config.json"

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// LimitsConfig caps upload size and feed length.
type LimitsConfig struct {
	MaxUploadBytes int64 `json:"max_upload_bytes"`
	MaxRows        int   `json:"max_rows"`
}

// AuthConfig enables HTTP basic auth on the API when PasswordHash is set.
// PasswordHash is a bcrypt hash, written by `feedcheck -setpass`.
type AuthConfig struct {
	Username     string `json:"username,omitempty"`
	PasswordHash string `json:"password_hash,omitempty"`
}

// Config represents the feedcheck service configuration.
type Config struct {
	Server       ServerConfig `json:"server"`
	Limits       LimitsConfig `json:"limits"`
	Auth         AuthConfig   `json:"auth"`
	DBPath       string       `json:"db_path"`
	RulebookPath string       `json:"rulebook_path,omitempty"` // overrides the embedded rulebook
	RunRetention int          `json:"run_retention"`
}

//nolint:gochecknoglobals // Intentional singleton pattern for config management
var (
	config  *Config
	dataDir string // Immutable after Load - where config.json and the db live
	mu      sync.RWMutex
)

// defaults returns a Config populated with default values.
func defaults(dir string) *Config {
	return &Config{
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Limits: LimitsConfig{
			MaxUploadBytes: DefaultMaxUploadBytes,
			MaxRows:        DefaultMaxRows,
		},
		DBPath:       filepath.Join(dir, DefaultDBFilename),
		RunRetention: DefaultRunRetention,
	}
}

// Load reads config.json from dir, filling absent fields with defaults.
// A missing file is not an error: defaults are used and persisted on the
// first update. Must be called once at startup before GetConfig.
func Load(dir string) error {
	mu.Lock()
	defer mu.Unlock()

	cfg := defaults(dir)
	path := filepath.Join(dir, ConfigFilename)

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// First run: defaults only.
	case err != nil:
		return fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := validate(cfg); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}

	config = cfg
	dataDir = dir
	return nil
}

// validate rejects configs that cannot produce a working service.
func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", cfg.Server.Port)
	}
	if cfg.Limits.MaxUploadBytes <= 0 {
		return fmt.Errorf("limits.max_upload_bytes must be positive")
	}
	if cfg.Limits.MaxRows <= 0 {
		return fmt.Errorf("limits.max_rows must be positive")
	}
	if cfg.RunRetention < 0 {
		return fmt.Errorf("run_retention must not be negative")
	}
	return nil
}

// GetConfig returns a copy of the current configuration.
func GetConfig() (Config, error) {
	mu.RLock()
	defer mu.RUnlock()

	if config == nil {
		return Config{}, fmt.Errorf("config not loaded: call config.Load first")
	}
	return *config, nil
}

// DataDir returns the directory the config was loaded from.
func DataDir() string {
	mu.RLock()
	defer mu.RUnlock()
	return dataDir
}

// UpdateAuth atomically replaces the auth section and persists the config.
func UpdateAuth(auth AuthConfig) error {
	mu.Lock()
	defer mu.Unlock()

	if config == nil {
		return fmt.Errorf("config not loaded: call config.Load first")
	}

	updated := *config
	updated.Auth = auth
	if err := persist(&updated); err != nil {
		return err
	}
	config = &updated
	return nil
}

// persist writes the config to disk atomically (write temp, then rename).
func persist(cfg *Config) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir %s: %w", dataDir, err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(dataDir, ConfigFilename)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}

// Reset clears the singleton for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	config = nil
	dataDir = ""
}
