package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/koyote-engine/koyote/gfx/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, shader.MaxModuleRetries, cfg.Shader.ModuleRetries)
	assert.Equal(t, 800, cfg.Window.Width)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "koyote.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
window:
  title: demo
  width: 1024
graphics:
  validation: false
  debug_general: true
shader:
  cache_dir: /tmp/koyote-shaders
  module_retries: 1
logging:
  level: trace
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.Window.Title)
	assert.Equal(t, 1024, cfg.Window.Width)
	assert.Equal(t, 600, cfg.Window.Height)
	assert.False(t, cfg.Graphics.Validation)
	assert.True(t, cfg.Graphics.DebugGeneral)
	assert.Equal(t, "/tmp/koyote-shaders", cfg.Shader.CacheDir)
	assert.Equal(t, "trace", cfg.Logging.Level)

	opts := cfg.ShaderOptions(nil)
	assert.Equal(t, 1, opts.ModuleRetries)
	assert.Equal(t, "/tmp/koyote-shaders", opts.CacheDir)
	assert.NotNil(t, opts.Compiler)

	gopts := cfg.GraphicsOptions(nil)
	assert.False(t, gopts.Validation)
	assert.True(t, gopts.DebugGeneral)
}

func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "koyote.yaml")
	require.NoError(t, os.WriteFile(path, []byte("window:\n  width: 640\n"), 0o644))
	t.Setenv("KOYOTE_WINDOW_WIDTH", "1920")
	t.Setenv("KOYOTE_SHADER_MODULE_RETRIES", "0")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1920, cfg.Window.Width)
	assert.Equal(t, 0, cfg.Shader.ModuleRetries)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "loud"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Window.Height = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Shader.ModuleRetries = -1
	assert.Error(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
