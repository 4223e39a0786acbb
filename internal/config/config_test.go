package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ivlev/aecomp/internal/importer"
	"github.com/ivlev/aecomp/internal/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, importer.DefaultOptions(), cfg.Import)
	assert.Equal(t, "yaml", cfg.Format)
	assert.Equal(t, 24, cfg.SceneFPS)
	assert.Equal(t, "dev", cfg.BuildVersion)
}

func TestLoadPresetYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "film.yaml")
	data := `
format: glb
workers: 4
import:
  scale_factor: 0.1
  handle_framerate: remap_times
  cameras_to_markers: true
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg := Default()
	require.NoError(t, cfg.LoadPreset(path))
	assert.Equal(t, "glb", cfg.Format)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 0.1, cfg.Import.ScaleFactor)
	assert.Equal(t, importer.RemapTimes, cfg.Import.HandleFramerate)
	assert.True(t, cfg.Import.CamerasToMarkers)
	// untouched keys keep their defaults
	assert.Equal(t, scene.SensorFitVertical, cfg.Import.SensorFit)
	assert.Equal(t, "output", cfg.OutputDir)
	assert.Equal(t, path, cfg.Preset)
}

func TestLoadPresetTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "film.toml")
	data := `
format = "gltf"
scene_fps = 30

[import]
sensor_fit = "HORIZONTAL"
comp_center_to_origin = true
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg := Default()
	require.NoError(t, cfg.LoadPreset(path))
	assert.Equal(t, "gltf", cfg.Format)
	assert.Equal(t, 30, cfg.SceneFPS)
	assert.Equal(t, scene.SensorFitHorizontal, cfg.Import.SensorFit)
	assert.True(t, cfg.Import.CompCenterToOrigin)
	assert.Equal(t, 0.01, cfg.Import.ScaleFactor)
}

func TestLoadPresetErrors(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()

	assert.Error(t, cfg.LoadPreset(filepath.Join(dir, "missing.yaml")))

	ini := filepath.Join(dir, "preset.ini")
	require.NoError(t, os.WriteFile(ini, []byte("a=b"), 0644))
	assert.Error(t, cfg.LoadPreset(ini))

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("import: [1, 2"), 0644))
	assert.Error(t, cfg.LoadPreset(broken))
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"AECOMP_FORMAT":      "glb",
		"AECOMP_SCALE":       "0.5",
		"AECOMP_FPS_MODE":    "set_framerate",
		"AECOMP_MARKERS":     "true",
		"AECOMP_SENSOR_FIT":  "horizontal",
		"AECOMP_WORKERS":     "3",
		"AECOMP_OUTPUT_DIR":  "/tmp/out",
		"AECOMP_FRAME_RANGE": "1",
	}
	cfg := Default()
	require.NoError(t, cfg.applyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}))
	assert.Equal(t, "glb", cfg.Format)
	assert.Equal(t, 0.5, cfg.Import.ScaleFactor)
	assert.Equal(t, importer.SetFramerate, cfg.Import.HandleFramerate)
	assert.True(t, cfg.Import.CamerasToMarkers)
	assert.True(t, cfg.Import.AdjustFrameStartEnd)
	assert.Equal(t, scene.SensorFitHorizontal, cfg.Import.SensorFit)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "/tmp/out", cfg.OutputDir)
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnvErrors(t *testing.T) {
	env := map[string]string{
		"AECOMP_SCALE":   "big",
		"AECOMP_WORKERS": "many",
	}
	cfg := Default()
	err := cfg.applyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AECOMP_SCALE")
	assert.Contains(t, err.Error(), "AECOMP_WORKERS")
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("AECOMP_SCENE_FPS=25\n"), 0644))
	t.Setenv("AECOMP_SCENE_FPS", "")
	os.Unsetenv("AECOMP_SCENE_FPS")

	cfg := Default()
	require.NoError(t, cfg.LoadEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, 25, cfg.SceneFPS)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"format", func(c *Config) { c.Format = "fbx" }},
		{"scale", func(c *Config) { c.Import.ScaleFactor = 0 }},
		{"policy", func(c *Config) { c.Import.HandleFramerate = "stretch" }},
		{"scene fps", func(c *Config) { c.SceneFPS = 0 }},
		{"workers", func(c *Config) { c.Workers = 0 }},
		{"output with many inputs", func(c *Config) {
			c.OutputPath = "out.yaml"
			c.InputPath = "a.json"
			c.Inputs = []string{"b.json"}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestAllInputs(t *testing.T) {
	cfg := Default()
	assert.Empty(t, cfg.AllInputs())

	cfg.InputPath = "a.json"
	cfg.Inputs = []string{"b.json", "a.json", "c.json"}
	assert.Equal(t, []string{"a.json", "b.json", "c.json"}, cfg.AllInputs())
}

func TestExpandPaths(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	cfg := Default()
	cfg.OutputDir = "~/renders"
	cfg.Inputs = []string{"~/a.json"}
	require.NoError(t, cfg.ExpandPaths())
	assert.Equal(t, filepath.Join(home, "renders"), cfg.OutputDir)
	assert.Equal(t, filepath.Join(home, "a.json"), cfg.Inputs[0])
	assert.Equal(t, "input", cfg.InputDir)
}
