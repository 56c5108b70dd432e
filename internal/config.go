package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Config holds client settings loaded from config.yaml
type Config struct {
	Backend   string `yaml:"backend"`
	DataDir   string `yaml:"data_dir"`
	LoginPath string `yaml:"login_path"`
	HomePath  string `yaml:"home_path"`
	StateKey  string `yaml:"state_key"`
}

// DefaultConfig returns the built-in settings for dataDir
func DefaultConfig(dataDir string) Config {
	return Config{
		Backend:   BackendSQLite,
		DataDir:   dataDir,
		LoginPath: DefaultLoginPath,
		HomePath:  DefaultHomePath,
		StateKey:  ConversationKey,
	}
}

// LoadConfig reads path over the defaults. A missing file yields the defaults.
func LoadConfig(path, dataDir string) (Config, error) {
	cfg := DefaultConfig(dataDir)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		LogDebug("No config at %s, using defaults", path)
		return cfg, nil
	}
	if err != nil {
		return cfg, &ConfigError{Path: path, Err: err}
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(dataDir), &ConfigError{Path: path, Err: fmt.Errorf("failed to unmarshal config: %w", err)}
	}

	// Empty values in the file fall back to defaults
	if cfg.Backend == "" {
		cfg.Backend = BackendSQLite
	}
	if cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = DefaultLoginPath
	}
	if cfg.HomePath == "" {
		cfg.HomePath = DefaultHomePath
	}
	if cfg.StateKey == "" {
		cfg.StateKey = ConversationKey
	}

	return cfg, nil
}

// SaveConfig writes cfg to path
func SaveConfig(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return &ConfigError{Path: path, Err: fmt.Errorf("failed to marshal config: %w", err)}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &ConfigError{Path: path, Err: err}
	}
	return nil
}
