package region

import (
	"fmt"

	"github.com/banshee-data/micromag/internal/grid"
)

// Params are the named parameters handed to a classifier.
type Params map[string]float64

// Classifier names the region of a point given in metres.
type Classifier interface {
	Classify(x, y, z float64, params Params) (string, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(x, y, z float64, params Params) (string, error)

// Classify calls f.
func (f ClassifierFunc) Classify(x, y, z float64, params Params) (string, error) {
	return f(x, y, z, params)
}

// BuildFromScript labels every cell by calling c at the cell centre. Names
// get labels the first time they are returned, in grid index order. An empty
// name is the background. The grid must be ready and is frozen on success.
func BuildFromScript(g *grid.Grid, c Classifier, params Params) (*Map, error) {
	if err := g.Ready(); err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: nil classifier", grid.ErrConfiguration)
	}
	size := g.GridSize()
	m := newMap(size)
	for k := 0; k < size.NZ; k++ {
		for j := 0; j < size.NY; j++ {
			for i := 0; i < size.NX; i++ {
				x, y, z := g.Center(i, j, k)
				name, err := c.Classify(x, y, z, params)
				if err != nil {
					return nil, fmt.Errorf("classify cell (%d,%d,%d): %w", i, j, k, err)
				}
				id, err := m.assign(name)
				if err != nil {
					return nil, err
				}
				m.set(size.Index(i, j, k), id)
			}
		}
	}
	g.Freeze()
	m.logSummary("script")
	return m, nil
}
