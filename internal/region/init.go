package region

import (
	"fmt"
	"sort"

	"github.com/banshee-data/micromag/internal/quant"
)

// InitReport describes a region-based initialisation. Gaps are diagnostics:
// the cells involved keep their prior values.
type InitReport struct {
	Quantity string
	// Painted is the number of cells written.
	Painted int
	// Unmapped is the number of cells whose region had no table entry.
	Unmapped int
	// UnmappedRegions lists the named regions with cells but no table entry.
	UnmappedRegions []string
	// UnusedNames lists table entries that match no region in the map.
	UnusedNames []string
}

// Err returns nil when every cell was covered, or an error wrapping
// ErrUnmappedRegion otherwise. Background cells without an entry for ""
// count as unmapped but are not listed by name.
func (r *InitReport) Err() error {
	if r.Unmapped == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s: %d cells untouched, regions %v", ErrUnmappedRegion, r.Quantity, r.Unmapped, r.UnmappedRegions)
}

// InitScalar writes values[name] into every cell of each region of m, for a
// scalar quantity. An absent quantity is created.
func InitScalar(s *quant.Store, m *Map, quantity string, values map[string]float64) (*InitReport, error) {
	vec := make(map[string][]float64, len(values))
	for name, v := range values {
		vec[name] = []float64{v}
	}
	return paint(s, m, quantity, quant.Scalar, vec)
}

// InitVector writes values[name] into every cell of each region of m, for a
// vector quantity. Every value must have three components.
func InitVector(s *quant.Store, m *Map, quantity string, values map[string][]float64) (*InitReport, error) {
	for name, v := range values {
		if len(v) != int(quant.Vector) {
			return nil, fmt.Errorf("%w: region %q value has %d components, want 3", quant.ErrArityMismatch, name, len(v))
		}
	}
	return paint(s, m, quantity, quant.Vector, values)
}

func paint(s *quant.Store, m *Map, quantity string, arity quant.Arity, values map[string][]float64) (*InitReport, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: build regions before initialising %q", ErrNoRegions, quantity)
	}
	if s.Size() != m.size {
		return nil, fmt.Errorf("%w: region map is %v, store is %v", quant.ErrShapeMismatch, m.size, s.Size())
	}

	// Resolve the table once per label.
	byID := make([][]float64, len(m.names))
	report := &InitReport{Quantity: quantity}
	for id, name := range m.names {
		if v, ok := values[name]; ok {
			byID[id] = v
			continue
		}
		if id != int(Background) && m.counts[id] > 0 {
			report.UnmappedRegions = append(report.UnmappedRegions, name)
		}
		report.Unmapped += m.counts[id]
	}
	for name := range values {
		if _, ok := m.ids[name]; !ok {
			report.UnusedNames = append(report.UnusedNames, name)
		}
	}
	sort.Strings(report.UnusedNames)

	painted, err := s.Paint(quantity, arity, func(idx int) ([]float64, bool) {
		v := byID[m.labels[idx]]
		return v, v != nil
	})
	if err != nil {
		return nil, fmt.Errorf("initialise %q from regions: %w", quantity, err)
	}
	report.Painted = painted

	diagf("initialised %s: %d cells painted, %d untouched", quantity, report.Painted, report.Unmapped)
	if len(report.UnmappedRegions) > 0 {
		opsf("initialising %s: no value for regions %v; cells left unchanged", quantity, report.UnmappedRegions)
	}
	if len(report.UnusedNames) > 0 {
		opsf("initialising %s: table names %v match no region", quantity, report.UnusedNames)
	}
	return report, nil
}
