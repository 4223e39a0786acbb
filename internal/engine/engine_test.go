package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ivlev/aecomp/internal/config"
	"github.com/ivlev/aecomp/internal/export"
	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exportTemplate = `{
  "version": %d,
  "comp": {"name": "Main", "width": 1920, "height": 1080, "frameRate": 24,
           "pixelAspect": 1, "workArea": [0, 5]},
  "sources": [{"width": 640, "height": 480, "name": "Plate", "type": "solid", "color": [1, 0, 0]}],
  "transformsBaked": false,
  "layers": [
    {"index": 1, "name": "Camera 1", "type": "camera", "parentIndex": null,
     "position": {"channels": [
       {"isKeyframed": true, "keyframesFormat": "calculated", "startFrame": 0, "keyframes": [960, 970, 980]},
       {"isKeyframed": false, "value": 540},
       {"isKeyframed": false, "value": -1500}]},
     "zoom": {"channels": [{"isKeyframed": false, "value": 1500}]},
     "inFrame": 0, "outFrame": 120, "enabled": true},
    {"index": 2, "name": "Plate", "type": "av", "parentIndex": null, "source": 0}
  ]
}`

func writeExport(t *testing.T, dir, name string, version int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(exportTemplate, version)), 0644))
	return path
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.OutputDir = t.TempDir()
	cfg.Import.CamerasToMarkers = true
	return cfg
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun(t *testing.T) {
	input := writeExport(t, t.TempDir(), "shot_010.json", 3)
	cfg := testConfig(t)

	p, err := New(cfg, discard())
	require.NoError(t, err)
	p.now = func() time.Time { return time.Date(2026, 2, 13, 1, 0, 0, 0, time.UTC) }

	res, err := p.Run(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, res.Cancelled)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "shot_010_2026-02-13_01-00-00.yaml"), res.Output)
	assert.Equal(t, 1, res.Markers)
	assert.Greater(t, res.Curves, 0)

	doc, err := export.ReadYAML(res.Output)
	require.NoError(t, err)
	assert.Equal(t, "shot_010", doc.Name)
	assert.NotNil(t, doc.Object("Camera 1"))
	assert.NotNil(t, doc.Object("Plate"))
	require.Len(t, doc.Timeline.Markers, 1)
	assert.Equal(t, "M_Camera 1", doc.Timeline.Markers[0].Name)
}

func TestRunVersionCancelled(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t)
	p, err := New(cfg, discard())
	require.NoError(t, err)

	for _, v := range []int{2, 4} {
		res, err := p.Run(context.Background(), writeExport(t, dir, fmt.Sprintf("v%d.json", v), v))
		require.NoError(t, err)
		assert.True(t, res.Cancelled)
		assert.NotEmpty(t, res.Warning)
		assert.Empty(t, res.Output)
	}

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "cancelled imports must not write anything")
}

func TestRunVersionCancelledBeforeLayout(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"v4_new_format.json": `{"version": 4, "comp": {"name": "Main"}, "layers": [{"index": 1, "type": "av",
			"position": {"channels": [{"isKeyframed": true, "keyframesFormat": "spatialBezier", "keyframes": []}]}}]}`,
		"v4_work_area.json": `{"version": 4, "comp": {"workArea": {"start": 0, "end": 5}}}`,
		"v2_static.json":    `{"version": 2, "layers": [{"index": 1, "scale": {"channels": [{"isKeyframed": false}]}}]}`,
	}
	cfg := testConfig(t)
	p, err := New(cfg, discard())
	require.NoError(t, err)

	for name, data := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(data), 0644))

		res, err := p.Run(context.Background(), path)
		require.NoError(t, err, name)
		assert.True(t, res.Cancelled, name)
		assert.NotEmpty(t, res.Warning, name)
	}
	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	p, err := New(testConfig(t), discard())
	require.NoError(t, err)

	_, err = p.Run(context.Background(), filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"version": 3,`), 0644))
	_, err = p.Run(context.Background(), broken)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Run(ctx, writeExport(t, dir, "ok.json", 3))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOutputFormatFromPath(t *testing.T) {
	input := writeExport(t, t.TempDir(), "shot.json", 3)
	cfg := testConfig(t)
	cfg.OutputPath = filepath.Join(t.TempDir(), "nested", "shot.glb")

	p, err := New(cfg, discard())
	require.NoError(t, err)
	res, err := p.Run(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, cfg.OutputPath, res.Output)

	data, err := os.ReadFile(res.Output)
	require.NoError(t, err)
	assert.Equal(t, "glTF", string(data[:4]))

	doc, err := gltf.Open(res.Output)
	require.NoError(t, err)
	assert.Equal(t, "aecomp dev", doc.Asset.Generator)
}

func TestBaseSceneReusesMarkers(t *testing.T) {
	dir := t.TempDir()
	input := writeExport(t, dir, "shot.json", 3)

	cfg := testConfig(t)
	cfg.OutputPath = filepath.Join(dir, "first.yaml")
	p, err := New(cfg, discard())
	require.NoError(t, err)
	_, err = p.Run(context.Background(), input)
	require.NoError(t, err)

	cfg2 := testConfig(t)
	cfg2.BaseScene = cfg.OutputPath
	cfg2.OutputPath = filepath.Join(dir, "second.yaml")
	p2, err := New(cfg2, discard())
	require.NoError(t, err)
	_, err = p2.Run(context.Background(), input)
	require.NoError(t, err)

	doc, err := export.ReadYAML(cfg2.OutputPath)
	require.NoError(t, err)
	assert.NotNil(t, doc.Object("Camera 1.001"), "second import adds new objects")
	require.Len(t, doc.Timeline.Markers, 1, "marker at the same frame is reused")
	assert.Equal(t, "Camera 1.001", doc.Timeline.Markers[0].Camera.Name)
}

func TestRunAll(t *testing.T) {
	dir := t.TempDir()
	inputs := []string{
		writeExport(t, dir, "a.json", 3),
		writeExport(t, dir, "b.json", 5),
		writeExport(t, dir, "c.json", 3),
	}
	cfg := testConfig(t)
	cfg.Workers = 2

	p, err := New(cfg, discard())
	require.NoError(t, err)
	results, err := p.RunAll(context.Background(), inputs)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, res := range results {
		assert.Equal(t, inputs[i], res.Input)
	}
	assert.True(t, results[1].Cancelled)
	assert.FileExists(t, results[0].Output)
	assert.FileExists(t, results[2].Output)

	_, err = p.RunAll(context.Background(), append(inputs, filepath.Join(dir, "missing.json")))
	assert.Error(t, err)
}

func TestNewRejectsConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Format = "fbx"
	_, err := New(cfg, nil)
	assert.Error(t, err)
}
