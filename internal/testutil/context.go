// Package testutil provides testing helpers shared by the kbchat packages.
package testutil

import (
	"context"
	"testing"
	"time"
)

// DefaultTimeout bounds every test context.
const DefaultTimeout = 30 * time.Second

// NewTestContext returns a context that is cancelled when the test ends or
// after DefaultTimeout.
func NewTestContext(t testing.TB) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	t.Cleanup(cancel)
	return ctx
}

// NewConfigDir points KBCHAT_CONFIG_DIR at a fresh temporary directory and
// clears the KBCHAT_* variables that would leak in from the environment.
func NewConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("KBCHAT_CONFIG_DIR", dir)
	for _, key := range []string{
		"KBCHAT_URL",
		"KBCHAT_UPLOAD_PATH",
		"KBCHAT_TIMEOUT",
		"KBCHAT_USER_AGENT",
		"KBCHAT_ASSISTANT_NAME",
		"KBCHAT_MARKDOWN",
		"KBCHAT_MAX_MESSAGES",
		"KBCHAT_PLAIN",
		"KBCHAT_LOG_LEVEL",
		"KBCHAT_LOG_FILE",
		"KBCHAT_LOG_PRETTY",
		"KBCHAT_UPLOAD_MAX_BYTES",
	} {
		t.Setenv(key, "")
	}
	return dir
}
