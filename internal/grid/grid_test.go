package grid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		nx, ny, nz int
		dx, dy, dz float64
	}{
		{512, 512, 2, 5e-9, 5e-9, 50e-9},
		{80, 40, 2, 5e-9, 5e-9, 50e-9},
		{1, 1, 1, 1, 1, 1},
		{7, 3, 11, 1.25e-10, 3.3e-9, 0.1},
	}
	for _, tc := range cases {
		g := New()
		require.NoError(t, g.SetGridSize(tc.nx, tc.ny, tc.nz))
		require.NoError(t, g.SetCellSize(tc.dx, tc.dy, tc.dz))
		assert.Equal(t, Size{tc.nx, tc.ny, tc.nz}, g.GridSize())
		assert.Equal(t, CellSize{tc.dx, tc.dy, tc.dz}, g.CellSize())
		assert.NoError(t, g.Ready())
	}
}

func TestGridRejectsInvalidValues(t *testing.T) {
	t.Parallel()

	g := New()
	assert.ErrorIs(t, g.SetGridSize(0, 1, 1), ErrConfiguration)
	assert.ErrorIs(t, g.SetGridSize(4, -1, 1), ErrConfiguration)
	assert.ErrorIs(t, g.SetCellSize(1e-9, 0, 1e-9), ErrConfiguration)
	assert.ErrorIs(t, g.SetCellSize(math.NaN(), 1, 1), ErrConfiguration)
	assert.ErrorIs(t, g.SetCellSize(1, math.Inf(1), 1), ErrConfiguration)
	assert.ErrorIs(t, g.Ready(), ErrConfiguration)
}

func TestGridReadyNeedsBoth(t *testing.T) {
	t.Parallel()

	g := New()
	require.NoError(t, g.SetGridSize(2, 2, 2))
	err := g.Ready()
	require.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "cell size")

	require.NoError(t, g.SetCellSize(1, 1, 1))
	assert.NoError(t, g.Ready())
}

func TestGridFrozenRejectsMutation(t *testing.T) {
	t.Parallel()

	g := New()
	require.NoError(t, g.SetGridSize(4, 4, 1))
	require.NoError(t, g.SetCellSize(1, 1, 1))
	g.Freeze()

	assert.ErrorIs(t, g.SetGridSize(8, 8, 1), ErrConfiguration)
	assert.ErrorIs(t, g.SetCellSize(2, 2, 2), ErrConfiguration)
	assert.Equal(t, Size{4, 4, 1}, g.GridSize())
	assert.Equal(t, CellSize{1, 1, 1}, g.CellSize())
}

func TestIndexAndCoords(t *testing.T) {
	t.Parallel()

	s := Size{NX: 5, NY: 4, NZ: 3}
	seen := make(map[int]bool)
	for k := 0; k < s.NZ; k++ {
		for j := 0; j < s.NY; j++ {
			for i := 0; i < s.NX; i++ {
				idx := s.Index(i, j, k)
				require.False(t, seen[idx], "duplicate index %d", idx)
				seen[idx] = true
				ci, cj, ck := s.Coords(idx)
				assert.Equal(t, [3]int{i, j, k}, [3]int{ci, cj, ck})
			}
		}
	}
	assert.Len(t, seen, s.NCells())
	assert.Equal(t, 1, s.Index(1, 0, 0))
	assert.Equal(t, 5, s.Index(0, 1, 0))
	assert.Equal(t, 20, s.Index(0, 0, 1))
}

func TestContains(t *testing.T) {
	t.Parallel()

	s := Size{NX: 2, NY: 3, NZ: 1}
	assert.True(t, s.Contains(0, 0, 0))
	assert.True(t, s.Contains(1, 2, 0))
	assert.False(t, s.Contains(2, 0, 0))
	assert.False(t, s.Contains(0, 3, 0))
	assert.False(t, s.Contains(0, 0, 1))
	assert.False(t, s.Contains(-1, 0, 0))
}

func TestCenterAndWorldSize(t *testing.T) {
	t.Parallel()

	g := New()
	require.NoError(t, g.SetGridSize(4, 2, 1))
	require.NoError(t, g.SetCellSize(2, 3, 5))

	x, y, z := g.Center(0, 0, 0)
	assert.Equal(t, [3]float64{1, 1.5, 2.5}, [3]float64{x, y, z})
	x, y, z = g.Center(3, 1, 0)
	assert.Equal(t, [3]float64{7, 4.5, 2.5}, [3]float64{x, y, z})

	wx, wy, wz := g.WorldSize()
	assert.Equal(t, [3]float64{8, 6, 5}, [3]float64{wx, wy, wz})
}
