// Package region partitions a grid into named regions and paints
// per-region values into the quantity store.
//
// A Map holds one label per cell. Label 0 is the background region, whose
// name is the empty string; named regions take labels 1..MaxRegions in the
// order they are first encountered while building. Labels are only stable
// within one Map, so anything compared across runs should key on names.
package region

import (
	"fmt"
	"sort"

	"github.com/banshee-data/micromag/internal/grid"
	"github.com/banshee-data/micromag/internal/quant"
)

// ID is a region label.
type ID uint8

// Background is the label of cells that belong to no named region.
const Background ID = 0

// MaxRegions is the number of named regions a Map can hold.
const MaxRegions = 255

// QuantityName is the store name under which a map is published.
const QuantityName = "regionDefinition"

// Map is a per-cell region labelling with its own name<->ID table.
type Map struct {
	size   grid.Size
	labels []ID
	names  []string // indexed by ID; names[0] is the background
	ids    map[string]ID
	counts []int // cells per ID
}

func newMap(size grid.Size) *Map {
	return &Map{
		size:   size,
		labels: make([]ID, size.NCells()),
		names:  []string{""},
		ids:    map[string]ID{"": Background},
		counts: []int{0},
	}
}

// assign returns the ID for name, allocating the next free one on first use.
func (m *Map) assign(name string) (ID, error) {
	if id, ok := m.ids[name]; ok {
		return id, nil
	}
	if len(m.names) > MaxRegions {
		return 0, fmt.Errorf("%w: %q would be region %d, limit is %d", ErrTooManyRegions, name, len(m.names), MaxRegions)
	}
	id := ID(len(m.names))
	m.names = append(m.names, name)
	m.ids[name] = id
	m.counts = append(m.counts, 0)
	return id, nil
}

func (m *Map) set(idx int, id ID) {
	m.labels[idx] = id
	m.counts[id]++
}

// Size returns the grid size the map was built for.
func (m *Map) Size() grid.Size { return m.size }

// Label returns the label of cell (i, j, k).
func (m *Map) Label(i, j, k int) ID { return m.labels[m.size.Index(i, j, k)] }

// LabelAt returns the label of the cell with linear index idx.
func (m *Map) LabelAt(idx int) ID { return m.labels[idx] }

// NameAt returns the region name of the cell with linear index idx.
func (m *Map) NameAt(idx int) string { return m.names[m.labels[idx]] }

// ID returns the label of a region name.
func (m *Map) ID(name string) (ID, bool) {
	id, ok := m.ids[name]
	return id, ok
}

// Name returns the region name of a label.
func (m *Map) Name(id ID) (string, bool) {
	if int(id) >= len(m.names) {
		return "", false
	}
	return m.names[id], true
}

// Names returns the named regions in label order, without the background.
func (m *Map) Names() []string { return append([]string(nil), m.names[1:]...) }

// Len returns the number of named regions.
func (m *Map) Len() int { return len(m.names) - 1 }

// Counts returns the number of cells per region name. The background is
// reported under "" when it holds any cell.
func (m *Map) Counts() map[string]int {
	out := make(map[string]int, len(m.names))
	for id, n := range m.counts {
		if n > 0 || id != int(Background) {
			out[m.names[id]] = n
		}
	}
	return out
}

// Labels returns a copy of the per-cell labels in grid index order.
func (m *Map) Labels() []ID { return append([]ID(nil), m.labels...) }

// Cells returns the linear indices of every cell labelled id.
func (m *Map) Cells(id ID) []int {
	if int(id) >= len(m.counts) {
		return nil
	}
	out := make([]int, 0, m.counts[id])
	for idx, l := range m.labels {
		if l == id {
			out = append(out, idx)
		}
	}
	return out
}

// AsArray returns the labels as a scalar array, the form published into the
// quantity store.
func (m *Map) AsArray() *quant.Array {
	a := quant.NewArray(1, m.size)
	for idx, l := range m.labels {
		a.Data[0][idx] = float64(l)
	}
	return a
}

// Publish registers the map as the read-only scalar quantity
// regionDefinition so it can be saved like any other field.
func (m *Map) Publish(s *quant.Store) error {
	if err := s.Register(QuantityName, quant.Scalar, true, "", "region label per cell"); err != nil {
		return fmt.Errorf("publish region map: %w", err)
	}
	if err := s.Derive(QuantityName, m.AsArray()); err != nil {
		return fmt.Errorf("publish region map: %w", err)
	}
	return nil
}

// logSummary writes the per-region cell counts to the diag and trace streams.
func (m *Map) logSummary(source string) {
	diagf("built %d regions from %s over %v", m.Len(), source, m.size)
	names := make([]string, 0, len(m.names))
	names = append(names, m.names...)
	sort.Strings(names)
	for _, name := range names {
		id := m.ids[name]
		label := name
		if id == Background {
			label = "(background)"
		}
		tracef("region %d %s: %d cells", id, label, m.counts[id])
	}
}
