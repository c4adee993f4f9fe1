package output

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/micromag/internal/quant"
)

// layerGrid exposes one z layer of an array as a plotter.GridXYZ with cell
// indices as coordinates.
type layerGrid struct {
	a *quant.Array
	v view
}

func (g layerGrid) Dims() (c, r int)   { return g.a.Size.NX, g.a.Size.NY }
func (g layerGrid) Z(c, r int) float64 { return g.v.value(g.a, c, r) }
func (g layerGrid) X(c int) float64    { return float64(c) }
func (g layerGrid) Y(r int) float64    { return float64(r) }

// WritePNG renders one layer of one component as a heat map.
func WritePNG(w io.Writer, rec *Record) error {
	v, err := parseView(rec)
	if err != nil {
		return err
	}
	g := layerGrid{a: rec.Field, v: v}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s  t=%s  layer %d", v.label(rec), formatFloat(rec.Time), v.layer)
	p.X.Label.Text = "i"
	p.Y.Label.Text = "j"

	h := plotter.NewHeatMap(g, palette.Heat(64, 1))
	if h.Min == h.Max || math.IsNaN(h.Min) {
		// A flat field would divide by zero in the palette lookup.
		h.Max = h.Min + 1
	}
	p.Add(h)

	width := vg.Length(math.Max(4, math.Min(14, float64(rec.Field.Size.NX)/8))) * vg.Inch
	height := width * vg.Length(float64(rec.Field.Size.NY)/float64(rec.Field.Size.NX))
	if height < 3*vg.Inch {
		height = 3 * vg.Inch
	}
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("render png: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}
