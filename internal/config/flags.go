package config

import (
	"time"

	"github.com/spf13/pflag"
)

// Flags are the command-line overrides, the last configuration layer.
// Only flags the user actually set are applied.
type Flags struct {
	fs *pflag.FlagSet

	ConfigPath string
	URL        string
	UploadPath string
	Timeout    time.Duration
	LogLevel   string
	Debug      bool
}

// BindFlags registers the configuration flags on fs.
func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVar(&f.ConfigPath, "config", "", "Config file (default ~/.kbchat/config.yaml)")
	fs.StringVar(&f.URL, "url", "", "Knowledge Service base URL")
	fs.StringVar(&f.UploadPath, "upload-path", "", "Ingestion endpoint path (/upload or /add-knowledge)")
	fs.DurationVar(&f.Timeout, "timeout", 0, "Per-request timeout (0 waits forever)")
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.BoolVar(&f.Debug, "debug", false, "Shorthand for --log-level=debug")
	return f
}

// Apply copies every changed flag onto cfg.
func (f *Flags) Apply(cfg *Config) {
	if f == nil || f.fs == nil {
		return
	}
	if f.fs.Changed("url") {
		cfg.Service.URL = f.URL
	}
	if f.fs.Changed("upload-path") {
		cfg.Service.UploadPath = f.UploadPath
	}
	if f.fs.Changed("timeout") {
		cfg.Service.Timeout = f.Timeout
	}
	if f.fs.Changed("log-level") {
		cfg.Logging.Level = f.LogLevel
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
}
