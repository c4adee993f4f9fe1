// Package grid describes the simulation domain: cell counts, cell size and
// the physical extent they imply.
//
// A Grid is configured once. The first quantity or region map built against
// it freezes it, after which both setters fail with ErrConfiguration.
package grid

import (
	"errors"
	"fmt"
	"math"
)

// ErrConfiguration reports grid or cell-size misuse.
var ErrConfiguration = errors.New("configuration error")

// Size holds the number of cells along each axis.
type Size struct {
	NX, NY, NZ int
}

// NCells returns the total number of cells.
func (s Size) NCells() int { return s.NX * s.NY * s.NZ }

// String formats the size as "NXxNYxNZ".
func (s Size) String() string { return fmt.Sprintf("%dx%dx%d", s.NX, s.NY, s.NZ) }

// CellSize holds the physical cell dimensions in metres.
type CellSize struct {
	DX, DY, DZ float64
}

// Grid is the regular 3D simulation domain.
type Grid struct {
	size    Size
	cell    CellSize
	sizeSet bool
	cellSet bool
	frozen  bool
}

// New returns an unconfigured grid.
func New() *Grid { return &Grid{} }

// SetGridSize stores the number of cells along x, y and z.
func (g *Grid) SetGridSize(nx, ny, nz int) error {
	if g.frozen {
		return fmt.Errorf("%w: grid size cannot change once quantities or regions exist", ErrConfiguration)
	}
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return fmt.Errorf("%w: grid size must be positive, got %dx%dx%d", ErrConfiguration, nx, ny, nz)
	}
	g.size = Size{NX: nx, NY: ny, NZ: nz}
	g.sizeSet = true
	return nil
}

// SetCellSize stores the cell dimensions along x, y and z.
func (g *Grid) SetCellSize(dx, dy, dz float64) error {
	if g.frozen {
		return fmt.Errorf("%w: cell size cannot change once quantities or regions exist", ErrConfiguration)
	}
	for _, v := range []float64{dx, dy, dz} {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: cell size must be positive and finite, got (%g, %g, %g)", ErrConfiguration, dx, dy, dz)
		}
	}
	g.cell = CellSize{DX: dx, DY: dy, DZ: dz}
	g.cellSet = true
	return nil
}

// GridSize returns the configured cell counts.
func (g *Grid) GridSize() Size { return g.size }

// CellSize returns the configured cell dimensions.
func (g *Grid) CellSize() CellSize { return g.cell }

// Ready reports whether both the grid size and the cell size have been set.
func (g *Grid) Ready() error {
	if !g.sizeSet {
		return fmt.Errorf("%w: grid size not set", ErrConfiguration)
	}
	if !g.cellSet {
		return fmt.Errorf("%w: cell size not set", ErrConfiguration)
	}
	return nil
}

// Freeze makes the grid immutable.
func (g *Grid) Freeze() { g.frozen = true }

// Frozen reports whether the grid can no longer change.
func (g *Grid) Frozen() bool { return g.frozen }

// NCells returns the total number of cells.
func (g *Grid) NCells() int { return g.size.NCells() }

// Contains reports whether (i, j, k) addresses a cell of the grid.
func (g *Grid) Contains(i, j, k int) bool { return g.size.Contains(i, j, k) }

// Index returns the linear cell index of (i, j, k). x varies fastest.
func (g *Grid) Index(i, j, k int) int { return g.size.Index(i, j, k) }

// Center returns the physical coordinates of the centre of cell (i, j, k).
func (g *Grid) Center(i, j, k int) (x, y, z float64) {
	return (float64(i) + 0.5) * g.cell.DX,
		(float64(j) + 0.5) * g.cell.DY,
		(float64(k) + 0.5) * g.cell.DZ
}

// WorldSize returns the physical extent of the domain.
func (g *Grid) WorldSize() (x, y, z float64) {
	return float64(g.size.NX) * g.cell.DX,
		float64(g.size.NY) * g.cell.DY,
		float64(g.size.NZ) * g.cell.DZ
}

// Contains reports whether (i, j, k) lies inside the size.
func (s Size) Contains(i, j, k int) bool {
	return i >= 0 && i < s.NX && j >= 0 && j < s.NY && k >= 0 && k < s.NZ
}

// Index returns the linear index of (i, j, k): idx = (k*NY + j)*NX + i.
func (s Size) Index(i, j, k int) int { return (k*s.NY+j)*s.NX + i }

// Coords inverts Index.
func (s Size) Coords(idx int) (i, j, k int) {
	i = idx % s.NX
	j = (idx / s.NX) % s.NY
	k = idx / (s.NX * s.NY)
	return i, j, k
}
