package table

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/micromag/internal/fsutil"
)

func TestAppendWritesHeaderOnce(t *testing.T) {
	t.Parallel()

	mfs := fsutil.NewMemoryFileSystem()
	tab := New(mfs, "/out/t.txt", []string{"H_ext_x", "H_ext_y", "H_ext_z"})

	require.NoError(t, tab.Append(1e-12, []float64{1, 0, 0}))
	require.NoError(t, tab.Append(2e-12, []float64{2, 0, 0.5}))

	data, err := mfs.ReadFile("/out/t.txt")
	require.NoError(t, err)
	assert.Equal(t, "# t H_ext_x H_ext_y H_ext_z\n1e-12 1 0 0\n2e-12 2 0 0.5\n", string(data))
	assert.Equal(t, [][]float64{{1e-12, 1, 0, 0}, {2e-12, 2, 0, 0.5}}, tab.Rows())
}

func TestAppendTruncatesExistingFile(t *testing.T) {
	t.Parallel()

	mfs := fsutil.NewMemoryFileSystem()
	w, _ := mfs.Create("/t.txt")
	w.Write([]byte("stale\n"))
	w.Close()

	tab := New(mfs, "/t.txt", []string{"m_x"})
	require.NoError(t, tab.Append(0, []float64{1}))
	data, _ := mfs.ReadFile("/t.txt")
	assert.Equal(t, "# t m_x\n0 1\n", string(data))
}

func TestAppendRejectsWrongWidth(t *testing.T) {
	t.Parallel()

	tab := New(fsutil.NewMemoryFileSystem(), "t.txt", []string{"a", "b"})
	assert.Error(t, tab.Append(0, []float64{1}))
	assert.Empty(t, tab.Rows())
}

func TestPlot(t *testing.T) {
	t.Parallel()

	mfs := fsutil.NewMemoryFileSystem()
	tab := New(mfs, "/out/t.txt", []string{"a", "b"})

	require.NoError(t, tab.Plot())
	assert.False(t, mfs.Exists("/out/t.png"), "no rows, no plot")

	for i := 0; i < 5; i++ {
		require.NoError(t, tab.Append(float64(i)*1e-12, []float64{float64(i), float64(i * i)}))
	}
	require.NoError(t, tab.Plot())

	data, err := mfs.ReadFile(tab.PlotPath())
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(data))
	assert.NoError(t, err)
	assert.Equal(t, "/out/t.png", tab.PlotPath())
}

func TestLineColors(t *testing.T) {
	t.Parallel()

	cs := lineColors(3)
	require.Len(t, cs, 3)
	assert.NotEqual(t, cs[0], cs[1])
	assert.NotEqual(t, cs[1], cs[2])
}
