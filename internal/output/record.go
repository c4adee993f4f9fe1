// Package output encodes quantities for saving: plain text, compressed
// binary, PNG heat maps and interactive HTML charts.
package output

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/micromag/internal/quant"
)

// ErrUnknownFormat reports a format no persister handles.
var ErrUnknownFormat = errors.New("unknown output format")

// File formats understood by FileWriter.
const (
	FormatText   = "txt"
	FormatBinary = "bin"
	FormatPNG    = "png"
	FormatHTML   = "html"
)

// Record is one quantity handed to a persister.
type Record struct {
	Name string
	Unit string
	// Time and Step locate the record in the run.
	Time float64
	Step int
	// Value holds the uniform value when the quantity is uniform; nil
	// otherwise.
	Value []float64
	// Field is always the full per-cell data.
	Field   *quant.Array
	Format  string
	Options []string
	Path    string
}

// Persister stores records.
type Persister interface {
	Persist(rec *Record) error
}

// PersisterFunc adapts a function to the Persister interface.
type PersisterFunc func(rec *Record) error

// Persist calls f.
func (f PersisterFunc) Persist(rec *Record) error { return f(rec) }

// Router dispatches records to a persister by format.
type Router map[string]Persister

// Persist hands rec to the persister registered for rec.Format.
func (r Router) Persist(rec *Record) error {
	p, ok := r[rec.Format]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, rec.Format)
	}
	return p.Persist(rec)
}

// Extension returns the file extension used for a format.
func Extension(format string) string {
	switch format {
	case FormatText, FormatBinary, FormatPNG, FormatHTML:
		return format
	default:
		return strings.ToLower(format)
	}
}

// view selects the 2D slice an image format renders.
type view struct {
	comp  int
	layer int
	norm  bool
}

// parseView reads image options: "x", "y", "z", "norm", "comp=N" and
// "layer=K". Unknown options are ignored so text-format options such as
// "Text" can be passed through unchanged.
func parseView(rec *Record) (view, error) {
	var v view
	for _, opt := range rec.Options {
		key, val, hasVal := strings.Cut(strings.ToLower(strings.TrimSpace(opt)), "=")
		switch {
		case key == "x" || key == "y" || key == "z":
			v.comp = int(key[0] - 'x')
			v.norm = false
		case key == "norm":
			v.norm = true
		case key == "comp" && hasVal:
			n, err := strconv.Atoi(val)
			if err != nil {
				return view{}, fmt.Errorf("option %q: %w", opt, err)
			}
			v.comp = n
		case key == "layer" && hasVal:
			n, err := strconv.Atoi(val)
			if err != nil {
				return view{}, fmt.Errorf("option %q: %w", opt, err)
			}
			v.layer = n
		}
	}
	if v.comp < 0 || v.comp >= rec.Field.Comp {
		return view{}, fmt.Errorf("%w: component %d of %s", quant.ErrIndexOutOfRange, v.comp, rec.Name)
	}
	if v.layer < 0 || v.layer >= rec.Field.Size.NZ {
		return view{}, fmt.Errorf("%w: layer %d of %s", quant.ErrIndexOutOfRange, v.layer, rec.Name)
	}
	return v, nil
}

// value returns the viewed value of cell (i, j) in the selected layer.
func (v view) value(a *quant.Array, i, j int) float64 {
	idx := a.Size.Index(i, j, v.layer)
	if !v.norm {
		return a.Data[v.comp][idx]
	}
	sum := 0.0
	for c := range a.Data {
		sum += a.Data[c][idx] * a.Data[c][idx]
	}
	return math.Sqrt(sum)
}

func (v view) label(rec *Record) string {
	switch {
	case v.norm:
		return fmt.Sprintf("|%s|", rec.Name)
	case rec.Field.Comp == 1:
		return rec.Name
	default:
		return fmt.Sprintf("%s_%c", rec.Name, 'x'+rune(v.comp))
	}
}
