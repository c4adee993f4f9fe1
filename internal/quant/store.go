// Package quant is the quantity store: a registry of named scalar and vector
// fields over a fixed grid, each held in a uniform, dense or masked
// representation.
//
// Uniform accessors (Scalar, Value) on a non-uniform quantity return a
// documented approximation rather than failing: a dense quantity reports the
// value of the reference cell (0,0,0), a masked quantity reports its base
// value (the multiplier applied to the mask).
package quant

import (
	"fmt"
	"math"

	"github.com/banshee-data/micromag/internal/grid"
)

// Store maps quantity names to fields sized to one grid.
// It is not safe for concurrent use.
type Store struct {
	size     grid.Size
	quants   map[string]*Quantity
	order    []string
	readOnly map[string]bool
}

// NewStore returns an empty store for the given grid size.
func NewStore(size grid.Size) *Store {
	return &Store{
		size:     size,
		quants:   make(map[string]*Quantity),
		readOnly: make(map[string]bool),
	}
}

// Size returns the grid size every per-cell array must match.
func (s *Store) Size() grid.Size { return s.size }

// Has reports whether name is registered.
func (s *Store) Has(name string) bool {
	_, ok := s.quants[name]
	return ok
}

// Names returns the registered quantity names in registration order.
func (s *Store) Names() []string { return append([]string(nil), s.order...) }

// Info describes the named quantity.
func (s *Store) Info(name string) (Info, error) {
	q, err := s.get(name)
	if err != nil {
		return Info{}, err
	}
	return q.info, nil
}

// Register creates a quantity on behalf of the physics layer. Registering an
// existing name with the same arity updates its unit, description and
// read-only flag; a different arity fails with ErrArityMismatch.
// New quantities start uniform at zero.
func (s *Store) Register(name string, arity Arity, readOnly bool, unit, desc string) error {
	if _, err := ArityOf(int(arity)); err != nil {
		return err
	}
	if q, ok := s.quants[name]; ok {
		if q.info.Arity != arity {
			return fmt.Errorf("%w: %q is a %v, cannot register as %v", ErrArityMismatch, name, q.info.Arity, arity)
		}
		q.info.ReadOnly = q.info.ReadOnly || readOnly
		if unit != "" {
			q.info.Unit = unit
		}
		if desc != "" {
			q.info.Description = desc
		}
		return nil
	}
	q := s.create(name, arity)
	q.info.Unit = unit
	q.info.Description = desc
	q.info.ReadOnly = q.info.ReadOnly || readOnly
	return nil
}

// MarkReadOnly flags name as owned by the physics layer. The flag applies
// to a quantity registered later under the same name.
func (s *Store) MarkReadOnly(name string) {
	s.readOnly[name] = true
	if q, ok := s.quants[name]; ok {
		q.info.ReadOnly = true
	}
}

// SetScalar sets a uniform scalar value.
func (s *Store) SetScalar(name string, v float64) error {
	return s.SetValue(name, []float64{v})
}

// SetValue sets a uniform value; the arity follows len(v). A masked
// quantity keeps its mask and takes v as its new base.
func (s *Store) SetValue(name string, v []float64) error {
	arity, err := ArityOf(len(v))
	if err != nil {
		return err
	}
	q, err := s.writable(name, arity)
	if err != nil {
		return err
	}
	if q == nil {
		q = s.create(name, arity)
	}
	q.setUniform(v)
	return nil
}

// Scalar returns the uniform value of a scalar quantity.
func (s *Store) Scalar(name string) (float64, error) {
	q, err := s.get(name)
	if err != nil {
		return 0, err
	}
	if q.info.Arity != Scalar {
		return 0, fmt.Errorf("%w: %q is a %v", ErrArityMismatch, name, q.info.Arity)
	}
	return q.reference()[0], nil
}

// Value returns the uniform value of a quantity as a fresh slice.
func (s *Store) Value(name string) ([]float64, error) {
	q, err := s.get(name)
	if err != nil {
		return nil, err
	}
	return q.reference(), nil
}

// SetField installs a full per-cell array. The array is copied.
func (s *Store) SetField(name string, a *Array) error {
	if a == nil {
		return fmt.Errorf("%w: nil array", ErrShapeMismatch)
	}
	arity, err := ArityOf(a.Comp)
	if err != nil {
		return err
	}
	q, err := s.writable(name, arity)
	if err != nil {
		return err
	}
	if err := a.checkShape(int(arity), s.size); err != nil {
		return err
	}
	if q == nil {
		q = s.create(name, arity)
	}
	q.setDense(a.Clone())
	return nil
}

// SetArray is an alias of SetField.
func (s *Store) SetArray(name string, a *Array) error { return s.SetField(name, a) }

// Field returns a per-cell copy of the quantity. Masked quantities are
// returned as base*mask.
func (s *Store) Field(name string) (*Array, error) {
	q, err := s.get(name)
	if err != nil {
		return nil, err
	}
	return q.materialize(s.size), nil
}

// Cell returns the value of cell (i, j, k).
func (s *Store) Cell(name string, i, j, k int) ([]float64, error) {
	q, err := s.get(name)
	if err != nil {
		return nil, err
	}
	if !s.size.Contains(i, j, k) {
		return nil, s.indexErr(i, j, k)
	}
	idx := s.size.Index(i, j, k)
	out := make([]float64, q.info.Arity)
	for c := range out {
		out[c] = q.cell(c, idx)
	}
	return out, nil
}

// SetCell writes one cell, promoting the quantity to the dense
// representation. The other cells keep their prior values. An absent
// quantity is created with arity len(v) and zero elsewhere.
func (s *Store) SetCell(name string, i, j, k int, v []float64) error {
	q, ok := s.quants[name]
	if ok && len(v) != int(q.info.Arity) {
		return fmt.Errorf("%w: %q is a %v, got %d components", ErrArityMismatch, name, q.info.Arity, len(v))
	}
	arity, err := ArityOf(len(v))
	if err != nil {
		return err
	}
	if _, err := s.writable(name, arity); err != nil {
		return err
	}
	if !s.size.Contains(i, j, k) {
		return s.indexErr(i, j, k)
	}
	if !ok {
		q = s.create(name, arity)
	}
	if q.info.Kind != Dense {
		q.setDense(q.materialize(s.size))
	}
	idx := s.size.Index(i, j, k)
	for c, val := range v {
		q.field.Data[c][idx] = val
	}
	return nil
}

// SetMask attaches a multiplicative mask and switches the quantity to the
// masked representation. A mask with one component applies to every
// component; otherwise it must match the arity. The base becomes the
// quantity's current uniform-accessor value.
func (s *Store) SetMask(name string, mask *Array) error {
	q, err := s.get(name)
	if err != nil {
		return err
	}
	if q.info.ReadOnly {
		return fmt.Errorf("%w: %q", ErrReadOnly, name)
	}
	if mask == nil {
		return fmt.Errorf("%w: nil mask", ErrShapeMismatch)
	}
	if mask.Comp != 1 && mask.Comp != int(q.info.Arity) {
		return fmt.Errorf("%w: mask has %d components, %q needs 1 or %d", ErrArityMismatch, mask.Comp, name, q.info.Arity)
	}
	if err := mask.checkShape(mask.Comp, s.size); err != nil {
		return err
	}
	for c := range mask.Data {
		for idx, m := range mask.Data[c] {
			if math.IsNaN(m) || m < 0 || m > 1 {
				i, j, k := s.size.Coords(idx)
				return fmt.Errorf("%w: value %g at component %d cell (%d,%d,%d) is outside [0,1]", ErrInvalidMask, m, c, i, j, k)
			}
		}
	}
	q.setMasked(q.reference(), mask.Clone())
	return nil
}

// Paint writes the value returned by fn into every cell for which fn
// reports true, promoting the quantity to the dense representation. An
// absent quantity is created zero-filled. Either every selected cell is
// written or, on error, none is. It returns the number of cells written.
func (s *Store) Paint(name string, arity Arity, fn func(idx int) ([]float64, bool)) (int, error) {
	q, err := s.writable(name, arity)
	if err != nil {
		return 0, err
	}
	var next *Array
	if q == nil {
		next = NewArray(int(arity), s.size)
	} else {
		next = q.materialize(s.size)
	}
	painted := 0
	n := s.size.NCells()
	for idx := 0; idx < n; idx++ {
		v, ok := fn(idx)
		if !ok {
			continue
		}
		if len(v) != int(arity) {
			return 0, fmt.Errorf("%w: %q is a %v, got %d components", ErrArityMismatch, name, arity, len(v))
		}
		for c, val := range v {
			next.Data[c][idx] = val
		}
		painted++
	}
	if q == nil {
		q = s.create(name, arity)
	}
	q.setDense(next)
	return painted, nil
}

// Derive installs a per-cell array on behalf of the quantity's owner,
// bypassing the read-only flag. The quantity must be registered.
func (s *Store) Derive(name string, a *Array) error {
	q, err := s.get(name)
	if err != nil {
		return err
	}
	if err := a.checkShape(int(q.info.Arity), s.size); err != nil {
		return err
	}
	q.setDense(a.Clone())
	return nil
}

// DeriveValue sets a uniform value on behalf of the quantity's owner,
// bypassing the read-only flag and dropping any mask.
func (s *Store) DeriveValue(name string, v []float64) error {
	q, err := s.get(name)
	if err != nil {
		return err
	}
	if len(v) != int(q.info.Arity) {
		return fmt.Errorf("%w: %q is a %v, got %d components", ErrArityMismatch, name, q.info.Arity, len(v))
	}
	q.mask = nil
	q.info.Kind = Uniform
	q.setUniform(v)
	return nil
}

func (s *Store) get(name string) (*Quantity, error) {
	q, ok := s.quants[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownQuantity, name)
	}
	return q, nil
}

// writable returns the existing quantity (nil if absent) after checking the
// read-only flag and arity.
func (s *Store) writable(name string, arity Arity) (*Quantity, error) {
	q, ok := s.quants[name]
	if !ok {
		if s.readOnly[name] {
			return nil, fmt.Errorf("%w: %q", ErrReadOnly, name)
		}
		return nil, nil
	}
	if q.info.ReadOnly {
		return nil, fmt.Errorf("%w: %q", ErrReadOnly, name)
	}
	if q.info.Arity != arity {
		return nil, fmt.Errorf("%w: %q is a %v, got a %v", ErrArityMismatch, name, q.info.Arity, arity)
	}
	return q, nil
}

func (s *Store) create(name string, arity Arity) *Quantity {
	q := &Quantity{
		info: Info{
			Name:     name,
			Arity:    arity,
			Kind:     Uniform,
			ReadOnly: s.readOnly[name],
		},
		value: make([]float64, arity),
	}
	s.quants[name] = q
	s.order = append(s.order, name)
	return q
}

func (s *Store) indexErr(i, j, k int) error {
	return fmt.Errorf("%w: (%d,%d,%d) outside [0,%d)x[0,%d)x[0,%d)", ErrIndexOutOfRange, i, j, k, s.size.NX, s.size.NY, s.size.NZ)
}
