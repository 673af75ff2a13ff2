package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewDisabled(t *testing.T) {
	log, err := New(false, "")
	require.NoError(t, err)
	require.NotNil(t, log)

	// discards without touching the filesystem
	log.Debug("dropped")
	log.Error("also dropped")
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")

	log, err := New(true, path)
	require.NoError(t, err)
	log.Debug("hello from the test", zap.String("key", "value"))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello from the test"`)
	assert.Contains(t, string(data), `"level":"debug"`)
	assert.Contains(t, string(data), `"key":"value"`)
}

func TestNewDefaultPath(t *testing.T) {
	t.Chdir(t.TempDir())

	log, err := New(true, "")
	require.NoError(t, err)
	log.Info("starting up")
	require.NoError(t, log.Sync())

	_, err = os.Stat(DefaultPath)
	assert.NoError(t, err)
}
