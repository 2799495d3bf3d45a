package testutil

import (
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// NewTestLogger returns a logger that discards output.
// Use NewTestLoggerWithOutput to see log lines in `go test -v`.
func NewTestLogger(t testing.TB) zerolog.Logger {
	t.Helper()
	return zerolog.New(io.Discard).With().Timestamp().Logger()
}

// NewTestLoggerWithOutput returns a debug-level logger that writes to t.Log.
func NewTestLoggerWithOutput(t testing.TB) zerolog.Logger {
	t.Helper()
	return zerolog.New(&testLogWriter{t: t}).
		Level(zerolog.DebugLevel).
		With().Timestamp().Logger()
}

type testLogWriter struct {
	t testing.TB
}

func (w *testLogWriter) Write(p []byte) (n int, err error) {
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
