package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoader_ConfigDirOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("KBCHAT_CONFIG_DIR", dir)

	loader := NewLoader()
	assert.Equal(t, dir, loader.Dir())
	assert.Equal(t, filepath.Join(dir, "config.yaml"), loader.ConfigPath())
	assert.Equal(t, filepath.Join(dir, "kbchat.log"), loader.LogPath())
}

func TestLoader_SaveAndLoad(t *testing.T) {
	loader := &Loader{dir: t.TempDir(), layers: NewLayeredLoader()}
	loader.Layers().DisableLayer(LayerEnv)

	cfg := Default()
	cfg.Service.URL = "https://kb.example.com"
	cfg.UI.AssistantName = "Quill"

	path, err := loader.Save(cfg, "")
	require.NoError(t, err)
	assert.Equal(t, loader.ConfigPath(), path)
	assert.FileExists(t, path)

	loaded, err := loader.Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://kb.example.com", loaded.Service.URL)
	assert.Equal(t, "Quill", loaded.UI.AssistantName)
	assert.Equal(t, loader.LogPath(), loaded.Logging.File)
}

func TestLoader_LoadDefaultsWhenMissing(t *testing.T) {
	loader := &Loader{dir: t.TempDir(), layers: NewLayeredLoader()}
	loader.Layers().DisableLayer(LayerEnv)

	cfg, err := loader.Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Service, cfg.Service)
}

func TestLoader_SaveRejectsInvalid(t *testing.T) {
	loader := &Loader{dir: t.TempDir(), layers: NewLayeredLoader()}

	cfg := Default()
	cfg.Service.URL = "ftp://nope"

	_, err := loader.Save(cfg, "")
	require.Error(t, err)
	assert.NoFileExists(t, loader.ConfigPath())
}
