package config

import "github.com/coral-mesh/kbchat/internal/constants"

// Default returns a config with sensible defaults.
// Logging.File is left empty; the loader fills it with the path under the
// config directory.
func Default() *Config {
	return &Config{
		Version: SchemaVersion,
		Service: ServiceConfig{
			URL:        constants.DefaultServiceURL,
			UploadPath: constants.DefaultUploadPath,
			Timeout:    constants.DefaultServiceTimeout,
		},
		UI: UIConfig{
			AssistantName: constants.DefaultAssistantName,
			Markdown:      true,
			MaxMessages:   constants.DefaultMaxMessages,
		},
		Logging: LoggingConfig{
			Level:  constants.DefaultLogLevel,
			Pretty: true,
		},
		Upload: UploadConfig{
			MaxSizeBytes: constants.DefaultUploadMaxBytes,
		},
	}
}
