package runner

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/micromag/internal/config"
	"github.com/banshee-data/micromag/internal/engine"
	"github.com/banshee-data/micromag/internal/fsutil"
	"github.com/banshee-data/micromag/internal/physics"
	"github.com/banshee-data/micromag/internal/quant"
	"github.com/banshee-data/micromag/internal/storage/sqlite"
)

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrString(v string) *string    { return &v }

func writeRegionImage(t *testing.T, dir string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			c := color.NRGBA{R: 255, A: 255}
			if x >= 4 {
				c = color.NRGBA{B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	f, err := os.Create(filepath.Join(dir, "regions.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func openDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func baseConfig() *config.RunConfig {
	return &config.RunConfig{
		Grid:      config.GridConfig{Size: []int{4, 2, 1}, CellSize: []float64{5e-9, 5e-9, 5e-9}},
		OutputDir: ptrString("/out"),
	}
}

func TestRunImageRegions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeRegionImage(t, dir)
	mfs := fsutil.NewMemoryFileSystem()
	db := openDB(t)

	cfg := baseConfig()
	cfg.Label = ptrString("two regions")
	cfg.Modules = []string{"test"}
	cfg.Vectors = map[string][]float64{physics.ExternalField: {0, 0, 1e5}}
	cfg.Regions = &config.RegionsConfig{Image: "regions.png", Colors: map[string]string{"left": "red", "right": "#0000ff"}}
	cfg.RegionValues = []config.RegionValueConfig{
		{Quantity: "Msat", Scalar: map[string]float64{"left": 8e5, "right": 4e5}},
		{Quantity: "m", Vector: map[string][]float64{"left": {1, 0, 0}, "right": {0, 1, 0}}},
	}
	cfg.Dt = ptrFloat64(1e-12)
	cfg.Steps = ptrInt(9)
	cfg.Autosaves = []config.AutosaveConfig{{Quantity: "m", Format: "txt", Options: []string{"Text"}, Period: 2.5e-12}}
	cfg.Tables = []config.TableConfig{{Quantities: []string{"t", "m"}, Path: "t.txt", Period: 2.5e-12}}
	cfg.Saves = []config.SaveConfig{
		{Quantity: "m", Format: "png", Options: []string{"z"}, Path: "final/m.png"},
		{Quantity: "m", Format: sqlite.Format},
		{Quantity: "regionDefinition", Format: "txt", Path: "regionDefinition.txt"},
	}
	require.NoError(t, cfg.Validate())

	res, err := Run(context.Background(), cfg, Options{BaseDir: dir, FS: mfs, DB: db})
	require.NoError(t, err)

	assert.Equal(t, 9, res.Stats.Steps)
	assert.Equal(t, engine.Running, res.Stats.State)
	assert.Equal(t, []string{"hfield", "zeeman", "test"}, res.Stats.Modules)
	assert.Zero(t, res.RegionReport.UnknownCells)
	require.Len(t, res.InitReports, 2)
	for _, rep := range res.InitReports {
		assert.Equal(t, 8, rep.Painted)
		assert.NoError(t, rep.Err())
	}

	assert.Equal(t, []string{
		"/out/final/m.png",
		"/out/m000000.txt",
		"/out/m000001.txt",
		"/out/m000002.txt",
		"/out/regionDefinition.txt",
		"/out/t.png",
		"/out/t.txt",
	}, mfs.Files("/out"))

	snaps, err := db.ListSnapshots(res.Stats.RunID.String())
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "m", snaps[0].Name)
	assert.Equal(t, "m000003.db", snaps[0].Path)
	assert.Equal(t, 9, snaps[0].Step)

	runs, err := db.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "two regions", runs[0].Label)
	assert.Equal(t, 4, runs[0].NX)

	_, rec, err := db.LoadSnapshot(snaps[0].SnapshotID)
	require.NoError(t, err)
	for _, n := range quant.Norms(rec.Field) {
		assert.InDelta(t, 1.0, n, 1e-12)
	}
}

func TestRunScriptRegionsAndPreload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	script := `
function classify(x, y, z, params)
  if x < params.split then
    return "left"
  end
  return "right"
end
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "regions.lua"), []byte(script), 0o644))
	db := openDB(t)

	cfg := baseConfig()
	cfg.Regions = &config.RegionsConfig{Script: "regions.lua", Params: map[string]float64{"split": 1e-8}}
	cfg.RegionValues = []config.RegionValueConfig{{Quantity: "alpha", Scalar: map[string]float64{"left": 0.1, "right": 0.2}}}
	cfg.Saves = []config.SaveConfig{{Quantity: "alpha", Format: sqlite.Format}}

	res, err := Run(context.Background(), cfg, Options{BaseDir: dir, FS: fsutil.NewMemoryFileSystem(), DB: db})
	require.NoError(t, err)
	assert.Zero(t, res.Stats.Steps)
	assert.Nil(t, res.RegionReport)

	snaps, err := db.ListSnapshots(res.Stats.RunID.String())
	require.NoError(t, err)
	require.Len(t, snaps, 1)

	next := baseConfig()
	next.Preload = []config.PreloadConfig{{Quantity: "alpha", Snapshot: snaps[0].SnapshotID}}
	sim, err := Prepare(next, Options{FS: fsutil.NewMemoryFileSystem(), DB: db})
	require.NoError(t, err)

	a, err := sim.Field("alpha")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.1, 0.2, 0.2, 0.1, 0.1, 0.2, 0.2}, a.Data[0])
}

func TestPreloadNeedsDatabase(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.Preload = []config.PreloadConfig{{Quantity: "m", Snapshot: "abc"}}
	_, err := Prepare(cfg, Options{FS: fsutil.NewMemoryFileSystem()})
	assert.ErrorIs(t, err, ErrNoDatabase)
}

func TestRunErrors(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.Modules = []string{"exchange"}
	_, err := Run(context.Background(), cfg, Options{FS: fsutil.NewMemoryFileSystem()})
	assert.ErrorIs(t, err, engine.ErrUnknownModule)

	cfg = baseConfig()
	cfg.Steps = ptrInt(1)
	_, err = Run(context.Background(), cfg, Options{FS: fsutil.NewMemoryFileSystem()})
	assert.Error(t, err, "no dt")

	cfg = baseConfig()
	cfg.Autosaves = []config.AutosaveConfig{{Quantity: "m", Format: "txt", Period: 1}}
	_, err = Run(context.Background(), cfg, Options{FS: fsutil.NewMemoryFileSystem()})
	assert.ErrorIs(t, err, quant.ErrUnknownQuantity)
}
