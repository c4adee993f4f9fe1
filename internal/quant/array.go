package quant

import (
	"fmt"

	"github.com/banshee-data/micromag/internal/grid"
)

// Array is a per-cell field of Comp components over a grid.
// Data[c] holds component c for every cell, indexed by grid.Size.Index.
type Array struct {
	Comp int
	Size grid.Size
	Data [][]float64
}

// NewArray allocates a zero-filled array.
func NewArray(comp int, size grid.Size) *Array {
	n := size.NCells()
	data := make([][]float64, comp)
	for c := range data {
		data[c] = make([]float64, n)
	}
	return &Array{Comp: comp, Size: size, Data: data}
}

// UniformArray allocates an array with every cell set to value.
func UniformArray(value []float64, size grid.Size) *Array {
	a := NewArray(len(value), size)
	for c, v := range value {
		fill(a.Data[c], v)
	}
	return a
}

// ArrayFromNested converts a nested [comp][i][j][k] slice, the layout used
// by run files and scripts, into an Array. Ragged input fails with
// ErrShapeMismatch.
func ArrayFromNested(v [][][][]float64) (*Array, error) {
	if len(v) == 0 || len(v[0]) == 0 || len(v[0][0]) == 0 || len(v[0][0][0]) == 0 {
		return nil, fmt.Errorf("%w: empty array", ErrShapeMismatch)
	}
	size := grid.Size{NX: len(v[0]), NY: len(v[0][0]), NZ: len(v[0][0][0])}
	a := NewArray(len(v), size)
	for c := range v {
		if len(v[c]) != size.NX {
			return nil, fmt.Errorf("%w: component %d has %d x-planes, want %d", ErrShapeMismatch, c, len(v[c]), size.NX)
		}
		for i := range v[c] {
			if len(v[c][i]) != size.NY {
				return nil, fmt.Errorf("%w: component %d, x=%d has %d rows, want %d", ErrShapeMismatch, c, i, len(v[c][i]), size.NY)
			}
			for j := range v[c][i] {
				if len(v[c][i][j]) != size.NZ {
					return nil, fmt.Errorf("%w: component %d, (x=%d, y=%d) has %d layers, want %d", ErrShapeMismatch, c, i, j, len(v[c][i][j]), size.NZ)
				}
				for k, val := range v[c][i][j] {
					a.Data[c][size.Index(i, j, k)] = val
				}
			}
		}
	}
	return a, nil
}

// Nested returns the array in [comp][i][j][k] layout.
func (a *Array) Nested() [][][][]float64 {
	out := make([][][][]float64, a.Comp)
	for c := range out {
		out[c] = make([][][]float64, a.Size.NX)
		for i := range out[c] {
			out[c][i] = make([][]float64, a.Size.NY)
			for j := range out[c][i] {
				out[c][i][j] = make([]float64, a.Size.NZ)
				for k := range out[c][i][j] {
					out[c][i][j][k] = a.Data[c][a.Size.Index(i, j, k)]
				}
			}
		}
	}
	return out
}

// At returns component c of cell (i, j, k).
func (a *Array) At(c, i, j, k int) float64 { return a.Data[c][a.Size.Index(i, j, k)] }

// Set writes component c of cell (i, j, k).
func (a *Array) Set(c, i, j, k int, v float64) { a.Data[c][a.Size.Index(i, j, k)] = v }

// Vector returns all components of the cell with linear index idx.
func (a *Array) Vector(idx int) []float64 {
	v := make([]float64, a.Comp)
	for c := range v {
		v[c] = a.Data[c][idx]
	}
	return v
}

// Clone returns a deep copy.
func (a *Array) Clone() *Array {
	out := &Array{Comp: a.Comp, Size: a.Size, Data: make([][]float64, a.Comp)}
	for c := range a.Data {
		out.Data[c] = append([]float64(nil), a.Data[c]...)
	}
	return out
}

// checkShape verifies the array is (comp, size) and internally consistent.
func (a *Array) checkShape(comp int, size grid.Size) error {
	if a == nil {
		return fmt.Errorf("%w: nil array", ErrShapeMismatch)
	}
	if a.Size != size {
		return fmt.Errorf("%w: array is %v, grid is %v", ErrShapeMismatch, a.Size, size)
	}
	if a.Comp != comp || len(a.Data) != comp {
		return fmt.Errorf("%w: array has %d components, want %d", ErrShapeMismatch, len(a.Data), comp)
	}
	n := size.NCells()
	for c := range a.Data {
		if len(a.Data[c]) != n {
			return fmt.Errorf("%w: component %d has %d cells, want %d", ErrShapeMismatch, c, len(a.Data[c]), n)
		}
	}
	return nil
}

func fill(s []float64, v float64) {
	for i := range s {
		s[i] = v
	}
}
