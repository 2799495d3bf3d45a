package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

// LoadFromEnv overlays the KBCHAT_* environment variables named by the `env`
// struct tags onto cfg. Unset, empty and blank variables keep the value cfg
// already has.
func LoadFromEnv(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	if err := env.ParseWithOptions(cfg, env.Options{Environment: nonEmptyEnv()}); err != nil {
		return fmt.Errorf("invalid environment: %w", err)
	}
	return nil
}

// nonEmptyEnv returns the process environment with values trimmed and blank
// entries dropped.
func nonEmptyEnv() map[string]string {
	vars := make(map[string]string)
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if value = strings.TrimSpace(value); value != "" {
			vars[key] = value
		}
	}
	return vars
}
