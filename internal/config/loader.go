// Package config provides layered configuration loading for kbchat.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/coral-mesh/kbchat/internal/constants"
)

// Loader resolves the kbchat config directory and reads and writes the
// config file inside it.
type Loader struct {
	dir    string
	layers *LayeredLoader
}

// NewLoader creates a config loader.
// The config directory is resolved in this order:
//  1. KBCHAT_CONFIG_DIR environment variable.
//  2. ~/.kbchat.
//  3. A kbchat directory under os.TempDir() when there is no home directory.
func NewLoader() *Loader {
	return &Loader{
		dir:    resolveDir(),
		layers: NewLayeredLoader(),
	}
}

func resolveDir() string {
	if dir := os.Getenv("KBCHAT_CONFIG_DIR"); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, constants.DefaultDir)
	}
	return filepath.Join(os.TempDir(), "kbchat")
}

// Layers exposes the layered loader so callers can enable the dotenv and
// flags layers.
func (l *Loader) Layers() *LayeredLoader {
	return l.layers
}

// Dir returns the config directory.
func (l *Loader) Dir() string {
	return l.dir
}

// ConfigPath returns the path to the config file.
func (l *Loader) ConfigPath() string {
	return filepath.Join(l.dir, constants.ConfigFile)
}

// LogPath returns the default log file path.
func (l *Loader) LogPath() string {
	return filepath.Join(l.dir, constants.DefaultLogFile)
}

// Load loads the configuration from path, or from ConfigPath when path is
// empty, and fills in the default log file.
func (l *Loader) Load(path string) (*Config, error) {
	if path == "" {
		path = l.ConfigPath()
	}

	cfg, err := l.layers.Load(path)
	if err != nil {
		return nil, err
	}
	if cfg.Logging.File == "" {
		cfg.Logging.File = l.LogPath()
	}
	return cfg, nil
}

// Save writes cfg to path, or to ConfigPath when path is empty.
func (l *Loader) Save(cfg *Config, path string) (string, error) {
	if path == "" {
		path = l.ConfigPath()
	}

	if err := cfg.Validate(); err != nil {
		return "", err
	}

	//nolint:gosec // G301: directory needs standard permissions for traversal.
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return path, nil
}
