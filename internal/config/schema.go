package config

import "time"

// SchemaVersion is the configuration schema version.
const SchemaVersion = "1"

// Config represents ~/.kbchat/config.yaml.
type Config struct {
	Version string        `yaml:"version" json:"version"`
	Service ServiceConfig `yaml:"service" json:"service"`
	UI      UIConfig      `yaml:"ui" json:"ui"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Upload  UploadConfig  `yaml:"upload" json:"upload"`
}

// ServiceConfig locates the Knowledge Service.
type ServiceConfig struct {
	URL        string        `yaml:"url" json:"url" env:"KBCHAT_URL"`
	UploadPath string        `yaml:"upload_path" json:"upload_path" env:"KBCHAT_UPLOAD_PATH"`         // "/upload" or "/add-knowledge"
	Timeout    time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty" env:"KBCHAT_TIMEOUT"` // 0 waits forever
	UserAgent  string        `yaml:"user_agent,omitempty" json:"user_agent,omitempty" env:"KBCHAT_USER_AGENT"`
}

// UIConfig contains chat presentation settings.
type UIConfig struct {
	AssistantName string `yaml:"assistant_name" json:"assistant_name" env:"KBCHAT_ASSISTANT_NAME"`
	Markdown      bool   `yaml:"markdown" json:"markdown" env:"KBCHAT_MARKDOWN"`
	MaxMessages   int    `yaml:"max_messages,omitempty" json:"max_messages,omitempty" env:"KBCHAT_MAX_MESSAGES"`
	Plain         bool   `yaml:"plain,omitempty" json:"plain,omitempty" env:"KBCHAT_PLAIN"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level" env:"KBCHAT_LOG_LEVEL"`
	File   string `yaml:"file,omitempty" json:"file,omitempty" env:"KBCHAT_LOG_FILE"`
	Pretty bool   `yaml:"pretty" json:"pretty" env:"KBCHAT_LOG_PRETTY"`
}

// UploadConfig limits uploaded files.
type UploadConfig struct {
	// MaxSizeBytes caps files sent by the upload path. 0 means
	// constants.DefaultUploadMaxBytes (25 MiB).
	MaxSizeBytes int64 `yaml:"max_size_bytes" json:"max_size_bytes" env:"KBCHAT_UPLOAD_MAX_BYTES"`
}
