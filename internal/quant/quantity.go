package quant

import (
	"fmt"

	"github.com/banshee-data/micromag/internal/grid"
)

// Arity is the number of components per cell.
type Arity int

const (
	Scalar Arity = 1
	Vector Arity = 3
)

// ArityOf maps a component count to an Arity.
func ArityOf(n int) (Arity, error) {
	switch n {
	case 1:
		return Scalar, nil
	case 3:
		return Vector, nil
	default:
		return 0, fmt.Errorf("%w: %d components, want 1 or 3", ErrShapeMismatch, n)
	}
}

func (a Arity) String() string {
	switch a {
	case Scalar:
		return "scalar"
	case Vector:
		return "vector"
	default:
		return fmt.Sprintf("arity(%d)", int(a))
	}
}

// Kind is the current storage representation of a quantity.
type Kind int

const (
	// Uniform stores one value (or vector) for every cell.
	Uniform Kind = iota
	// Dense stores one value (or vector) per cell.
	Dense
	// Masked stores a uniform base multiplied by a per-cell mask in [0, 1].
	Masked
)

func (k Kind) String() string {
	switch k {
	case Uniform:
		return "uniform"
	case Dense:
		return "dense"
	case Masked:
		return "masked"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Info describes a registered quantity.
type Info struct {
	Name        string
	Arity       Arity
	Kind        Kind
	Unit        string
	Description string
	ReadOnly    bool
}

// Quantity is a named field. Exactly one of the representations is live:
// Uniform uses value, Dense uses field, Masked uses value and mask.
type Quantity struct {
	info  Info
	value []float64
	field *Array
	mask  *Array // Comp is 1 (shared by all components) or the arity
}

// cell returns component c of cell idx under the current representation.
func (q *Quantity) cell(c, idx int) float64 {
	switch q.info.Kind {
	case Dense:
		return q.field.Data[c][idx]
	case Masked:
		mc := c
		if q.mask.Comp == 1 {
			mc = 0
		}
		return q.value[c] * q.mask.Data[mc][idx]
	default:
		return q.value[c]
	}
}

// reference returns the uniform-accessor value: the uniform value, the
// masked base, or the value of the dense reference cell (0,0,0).
func (q *Quantity) reference() []float64 {
	out := make([]float64, q.info.Arity)
	if q.info.Kind == Dense {
		for c := range out {
			out[c] = q.field.Data[c][0]
		}
		return out
	}
	copy(out, q.value)
	return out
}

// materialize returns a fresh per-cell array of the quantity.
func (q *Quantity) materialize(size grid.Size) *Array {
	if q.info.Kind == Dense {
		return q.field.Clone()
	}
	a := NewArray(int(q.info.Arity), size)
	n := size.NCells()
	for c := range a.Data {
		for idx := 0; idx < n; idx++ {
			a.Data[c][idx] = q.cell(c, idx)
		}
	}
	return a
}

func (q *Quantity) setUniform(v []float64) {
	q.value = append([]float64(nil), v...)
	q.field = nil
	if q.info.Kind != Masked {
		q.info.Kind = Uniform
	}
}

func (q *Quantity) setDense(a *Array) {
	q.field = a
	q.value = nil
	q.mask = nil
	q.info.Kind = Dense
}

func (q *Quantity) setMasked(base []float64, mask *Array) {
	q.value = append([]float64(nil), base...)
	q.mask = mask
	q.field = nil
	q.info.Kind = Masked
}
