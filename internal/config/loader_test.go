package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoader() *Loader {
	return NewLoaderWithViper(viper.New())
}

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	require.NotNil(t, loader)
	assert.Same(t, viper.GetViper(), loader.GetViper())
}

func TestLoadWithNoConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := newTestLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}

func TestLoadWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tallyocr.yaml")
	content := `
log_level: debug
raster:
  dpi: 600
  pages: "1-2"
engine:
  language: deu
  timeout: 30s
parallel:
  max_workers: 3
output:
  format: json
  include_passes: true
metrics:
  textfile: /tmp/tallyocr.prom
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	loader := newTestLoader()
	cfg, err := loader.LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 600, cfg.Raster.DPI)
	assert.Equal(t, "1-2", cfg.Raster.Pages)
	assert.Equal(t, "deu", cfg.Engine.Language)
	assert.Equal(t, "tesseract", cfg.Engine.Binary)
	assert.Equal(t, 30*time.Second, cfg.Engine.Timeout)
	assert.Equal(t, 3, cfg.Parallel.MaxWorkers)
	assert.Equal(t, 2, cfg.Parallel.MaxPages)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.True(t, cfg.Output.IncludePasses)
	assert.Equal(t, "/tmp/tallyocr.prom", cfg.Metrics.Textfile)
	assert.Equal(t, path, loader.GetConfigFileUsed())
}

func TestLoadWithFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := newTestLoader().LoadWithFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("raster: [unclosed"), 0o600))
	_, err = newTestLoader().LoadWithFile(broken)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("log_level: loud\n"), 0o600))
	_, err = newTestLoader().LoadWithFile(invalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")

	cfg, err := newTestLoader().LoadWithFileWithoutValidation(invalid)
	require.NoError(t, err)
	assert.Equal(t, "loud", cfg.LogLevel)
}

func TestLoadFromSearchPath(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tallyocr.yaml"), []byte("engine:\n  oem: 1\n"), 0o600))

	cfg, err := newTestLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Engine.OEM)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TALLYOCR_RASTER_DPI", "300")
	t.Setenv("TALLYOCR_ENGINE_TIMEOUT", "45s")
	t.Setenv("TALLYOCR_CORRECTION_STRICT_TABLES", "true")
	t.Setenv("TALLYOCR_LOG_LEVEL", "warn")

	cfg, err := newTestLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Raster.DPI)
	assert.Equal(t, 45*time.Second, cfg.Engine.Timeout)
	assert.True(t, cfg.Correction.StrictTables)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestSetOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tallyocr.yaml")
	require.NoError(t, os.WriteFile(path, []byte("parallel:\n  max_pages: 3\n"), 0o600))

	loader := newTestLoader()
	loader.Set("parallel.max_pages", 5)
	cfg, err := loader.LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Parallel.MaxPages)
	assert.Equal(t, 5, loader.Get("parallel.max_pages"))
}

func TestGenerateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "generated.yaml")
	require.NoError(t, GenerateDefaultConfigFile(path))

	cfg, err := newTestLoader().LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}

func TestGetConfigSearchPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	paths := GetConfigSearchPaths()
	assert.Equal(t, ".", paths[0])
	assert.Contains(t, paths, filepath.Join("/xdg", "tallyocr"))
	assert.Equal(t, "/etc/tallyocr", paths[len(paths)-1])
}

func TestPrintConfigInfo(t *testing.T) {
	var buf bytes.Buffer
	newTestLoader().PrintConfigInfo(&buf)
	assert.Contains(t, buf.String(), "Environment prefix: TALLYOCR")
}
