package errors

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeferClose(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	DeferClose(logger, nil, "nil closer")
	assert.Zero(t, buf.Len())

	f, err := os.Create(filepath.Join(t.TempDir(), "upload.txt"))
	require.NoError(t, err)

	DeferClose(logger, f, "failed to close upload file")
	assert.Zero(t, buf.Len(), "first close succeeds silently")

	DeferClose(logger, f, "failed to close upload file")
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "failed to close upload file")
}
