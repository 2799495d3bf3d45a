package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/coral-mesh/kbchat/internal/safe"
)

// Layer represents a configuration layer source.
type Layer string

const (
	// LayerDefaults represents default configuration values.
	LayerDefaults Layer = "defaults"

	// LayerFile represents the YAML configuration file.
	LayerFile Layer = "file"

	// LayerDotEnv represents a .env file loaded into the process environment.
	LayerDotEnv Layer = "dotenv"

	// LayerEnv represents KBCHAT_* environment variables.
	LayerEnv Layer = "env"

	// LayerFlags represents command-line flags.
	LayerFlags Layer = "flags"
)

// maxConfigFileSize caps the YAML file read by the file layer.
const maxConfigFileSize = 64 << 10

// LayeredLoader loads configuration in the following order, each layer
// overriding the previous ones:
//  1. Defaults
//  2. File (YAML)
//  3. .env file, exported into the environment without overriding it
//  4. Environment
//  5. Flags
type LayeredLoader struct {
	enabledLayers map[Layer]bool
	envFile       string
	flags         *Flags
}

// NewLayeredLoader creates a loader with the defaults, file and env layers
// enabled. The dotenv and flags layers are enabled by SetEnvFile and SetFlags.
func NewLayeredLoader() *LayeredLoader {
	return &LayeredLoader{
		enabledLayers: map[Layer]bool{
			LayerDefaults: true,
			LayerFile:     true,
			LayerDotEnv:   false,
			LayerEnv:      true,
			LayerFlags:    false,
		},
	}
}

// EnableLayer enables a specific configuration layer.
func (l *LayeredLoader) EnableLayer(layer Layer) {
	l.enabledLayers[layer] = true
}

// DisableLayer disables a specific configuration layer.
func (l *LayeredLoader) DisableLayer(layer Layer) {
	l.enabledLayers[layer] = false
}

// SetEnvFile enables the dotenv layer for path.
func (l *LayeredLoader) SetEnvFile(path string) {
	l.envFile = path
	l.enabledLayers[LayerDotEnv] = path != ""
}

// SetFlags enables the flags layer.
func (l *LayeredLoader) SetFlags(f *Flags) {
	l.flags = f
	l.enabledLayers[LayerFlags] = f != nil
}

// Load builds the configuration and validates it. A missing config or .env
// file is not an error.
func (l *LayeredLoader) Load(configPath string) (*Config, error) {
	var cfg *Config

	// Layer 1: Defaults
	if l.enabledLayers[LayerDefaults] {
		cfg = Default()
	} else {
		cfg = &Config{}
	}

	// Layer 2: File
	if l.enabledLayers[LayerFile] && configPath != "" {
		if err := l.mergeFromFile(cfg, configPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Layer 3: .env
	if l.enabledLayers[LayerDotEnv] {
		if err := godotenv.Load(l.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", l.envFile, err)
		}
	}

	// Layer 4: Environment
	if l.enabledLayers[LayerEnv] {
		if err := LoadFromEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from environment: %w", err)
		}
	}

	// Layer 5: Flags
	if l.enabledLayers[LayerFlags] {
		l.flags.Apply(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFromFile loads a YAML file and merges it into cfg.
func (l *LayeredLoader) mergeFromFile(cfg *Config, filePath string) error {
	data, err := safe.ReadFile(filePath, &safe.FileOptions{MaxSize: maxConfigFileSize, AllowSymlinks: true})
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse YAML in %s: %w", filePath, err)
	}
	return nil
}
