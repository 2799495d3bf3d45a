// Package constants defines shared configuration constants.
package constants

var (
	ConfigFile = "config.yaml"

	DefaultDir = ".kbchat"

	// DefaultLogFile is where the interactive client writes its log.
	DefaultLogFile = "kbchat.log"

	// EnvFile is loaded from the working directory before the env layer.
	EnvFile = ".env"

	// DefaultServiceURL is the Knowledge Service base URL.
	DefaultServiceURL = "http://127.0.0.1:8000"

	DefaultUploadPath = "/upload"

	DefaultAssistantName = "Nova"
)
