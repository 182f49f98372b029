package poly

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("full config", func(t *testing.T) {
		path := writeConfig(t, `
inputDir: /data/plans
outputDir: /data/refined
polDir: /data/pol
renderDir: /data/renders
renderFormat: both
workers: 4
fileTimeout: 30s
tolerances:
  dupTolerance: 1e-7
  collinearTolerance: 1e-7
  snapTolerance: 1e-3
`)
		cfg, err := LoadConfig(path)
		require.NoError(t, err)

		assert.Equal(t, "/data/plans", cfg.InputDir)
		assert.Equal(t, "/data/refined", cfg.OutputDir)
		assert.Equal(t, "/data/pol", cfg.PolDir)
		assert.Equal(t, "/data/renders", cfg.RenderDir)
		assert.Equal(t, RenderBoth, cfg.RenderFormat)
		assert.Equal(t, 4, cfg.Workers)
		assert.Equal(t, Duration(30*time.Second), cfg.FileTimeout)
		assert.Equal(t, 1e-7, cfg.Tolerances.DupTolerance)
		assert.Equal(t, 1e-3, cfg.Tolerances.SnapTolerance)
	})

	t.Run("defaults fill unset fields", func(t *testing.T) {
		path := writeConfig(t, `inputDir: plans`)

		cfg, err := LoadConfig(path)
		require.NoError(t, err)

		def := DefaultConfig()
		assert.Equal(t, "plans", cfg.InputDir)
		assert.Equal(t, def.OutputDir, cfg.OutputDir)
		assert.Equal(t, def.PolDir, cfg.PolDir)
		assert.Equal(t, def.Workers, cfg.Workers)
		assert.Equal(t, def.FileTimeout, cfg.FileTimeout)
		assert.Equal(t, DefaultOptions(), cfg.Tolerances)
		assert.Equal(t, RenderNone, cfg.RenderFormat)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config file not found")
	})

	t.Run("invalid YAML", func(t *testing.T) {
		path := writeConfig(t, "inputDir: [unclosed")
		_, err := LoadConfig(path)
		require.Error(t, err)
	})

	t.Run("bad render format", func(t *testing.T) {
		path := writeConfig(t, `renderFormat: jpeg`)
		_, err := LoadConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "renderFormat")
	})

	t.Run("snap tolerance too large", func(t *testing.T) {
		path := writeConfig(t, "tolerances:\n  snapTolerance: 0.6\n")
		_, err := LoadConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "snapTolerance")
	})
}

func TestSaveConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := DefaultConfig()
	cfg.InputDir = "floorplans"
	cfg.Workers = 8
	cfg.RenderDir = "renders"
	cfg.RenderFormat = RenderSVG

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestOptionsWithDefaults(t *testing.T) {
	var zero Options
	assert.Equal(t, DefaultOptions(), zero.withDefaults())

	custom := Options{DupTolerance: 1e-9}
	filled := custom.withDefaults()
	assert.Equal(t, 1e-9, filled.DupTolerance)
	assert.Equal(t, DefaultOptions().CollinearTolerance, filled.CollinearTolerance)
	assert.Equal(t, DefaultOptions().SnapTolerance, filled.SnapTolerance)
}
