// Package constants defines shared configuration constants and defaults.
package constants

import "time"

// Timeouts - Default timeout values.
const (
	// DefaultServiceTimeout is zero: requests run until the service answers.
	DefaultServiceTimeout time.Duration = 0

	// DefaultPingTimeout bounds `kbchat ping`.
	DefaultPingTimeout = 5 * time.Second

	// DefaultPingBackoff and DefaultPingMaxBackoff pace `kbchat ping --retries`.
	DefaultPingBackoff    = 250 * time.Millisecond
	DefaultPingMaxBackoff = 2 * time.Second
)

// Limits.
const (
	// DefaultUploadMaxBytes caps files read by the upload path (25 MiB).
	DefaultUploadMaxBytes int64 = 25 << 20

	// MaxInputLineBytes caps one line read from a piped stdin (1 MiB).
	MaxInputLineBytes = 1 << 20

	// DefaultMaxMessages is how many transcript messages the TUI renders.
	// Zero renders everything.
	DefaultMaxMessages = 0
)

// Logging defaults.
const (
	DefaultLogLevel = "info"
)
