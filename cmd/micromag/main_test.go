package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/micromag/internal/storage/sqlite"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args, "--log-level", "off"))
	err := cmd.Execute()
	return out.String(), err
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			c := color.NRGBA{A: 255}
			if x >= 2 {
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "micromag version dev"))

	out, err = execute(t, "version", "--json")
	require.NoError(t, err)
	var v map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "dev", v["version"])
}

func TestRegionsCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.png")
	writePNG(t, path)

	out, err := execute(t, "regions", path, "--grid", "4,2,1", "--color", "disk=black", "--color", "hole=white")
	require.NoError(t, err)
	assert.Contains(t, out, "disk             4 cells")
	assert.Contains(t, out, "hole             4 cells")

	out, err = execute(t, "regions", path, "--grid", "4,2,1", "--color", "disk=black")
	require.NoError(t, err)
	assert.Contains(t, out, "(background)     4 cells")
	assert.Contains(t, out, "#ffffff")

	_, err = execute(t, "regions", path, "--grid", "4,2,1", "--color", "disk=black", "--strict")
	assert.Error(t, err)
	_, err = execute(t, "regions", path, "--color", "disk")
	assert.ErrorContains(t, err, "name=colour")
}

func TestRunAndSnapshotsCmd(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "disk.png"))
	run := `
label: cli
grid: {size: [4, 2, 1], cell_size: [5e-9, 5e-9, 5e-9]}
modules: [test]
vectors: {H_ext: [0, 0, 1e5]}
regions:
  image: disk.png
  colors: {disk: black, hole: white}
region_values:
  - {quantity: Msat, scalar: {disk: 8e5, hole: 0}}
dt: 1e-13
steps: 4
autosaves:
  - {quantity: m, format: txt, period: 2e-13}
saves:
  - {quantity: Msat, format: db}
`
	runFile := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(runFile, []byte(run), 0o644))
	outDir := filepath.Join(dir, "out")
	dbPath := filepath.Join(dir, "runs.db")

	out, err := execute(t, "run", runFile, "--output-dir", outDir, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "4 steps")
	assert.FileExists(t, filepath.Join(outDir, "m000000.txt"))

	out, err = execute(t, "snapshots", "list", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, `"cli"`)
	assert.Contains(t, out, "Msat")

	db, err := sqlite.Open(dbPath)
	require.NoError(t, err)
	snaps, err := db.ListSnapshots("")
	require.NoError(t, err)
	require.NoError(t, db.Close())
	require.Len(t, snaps, 1)

	out, err = execute(t, "snapshots", "show", snaps[0].SnapshotID, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "comp 0: min 0 mean 400000 max 800000")

	_, err = execute(t, "snapshots", "show", "missing", "--db", dbPath)
	assert.ErrorIs(t, err, sqlite.ErrNotFound)
}
