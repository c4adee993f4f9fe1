// Package table records quantities over simulation time as a text table
// and renders them as line plots.
package table

import (
	"bytes"
	"fmt"
	"image/color"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/micromag/internal/fsutil"
)

// Table appends one row per call to a whitespace-separated text file. The
// first column is simulation time.
type Table struct {
	fs      fsutil.FileSystem
	path    string
	columns []string
	rows    [][]float64
	started bool
}

// New returns a table that writes to path. The column names exclude the
// leading time column.
func New(fs fsutil.FileSystem, path string, columns []string) *Table {
	if fs == nil {
		fs = fsutil.OSFileSystem{}
	}
	return &Table{fs: fs, path: path, columns: append([]string(nil), columns...)}
}

// Path returns the file the table writes to.
func (t *Table) Path() string { return t.path }

// Columns returns the column names, time first.
func (t *Table) Columns() []string { return append([]string{"t"}, t.columns...) }

// Rows returns the rows appended so far.
func (t *Table) Rows() [][]float64 { return t.rows }

// Append writes a row at time now. The file and its header are created on
// the first call.
func (t *Table) Append(now float64, values []float64) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("table %s: got %d values for %d columns", t.path, len(values), len(t.columns))
	}
	var buf bytes.Buffer
	if !t.started {
		if dir := filepath.Dir(t.path); dir != "." {
			if err := t.fs.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create table dir: %w", err)
			}
		}
		f, err := t.fs.Create(t.path)
		if err != nil {
			return fmt.Errorf("table %s: %w", t.path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("table %s: %w", t.path, err)
		}
		fmt.Fprintf(&buf, "# %s\n", strings.Join(t.Columns(), " "))
	}

	row := append([]float64{now}, values...)
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	buf.WriteString(strings.Join(parts, " "))
	buf.WriteByte('\n')

	f, err := t.fs.Append(t.path)
	if err != nil {
		return fmt.Errorf("table %s: %w", t.path, err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return fmt.Errorf("table %s: %w", t.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("table %s: %w", t.path, err)
	}
	t.started = true
	t.rows = append(t.rows, row)
	return nil
}

// PlotPath returns the path Plot writes to: the table path with a .png
// extension.
func (t *Table) PlotPath() string {
	return strings.TrimSuffix(t.path, filepath.Ext(t.path)) + ".png"
}

// Plot renders every column against time as a PNG line plot. It writes
// nothing when no rows have been appended.
func (t *Table) Plot() error {
	if len(t.rows) == 0 {
		return nil
	}
	p := plot.New()
	p.Title.Text = filepath.Base(t.path)
	p.X.Label.Text = "t (s)"
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	colors := lineColors(len(t.columns))
	for c, name := range t.columns {
		pts := make(plotter.XYs, len(t.rows))
		for i, row := range t.rows {
			pts[i] = plotter.XY{X: row[0], Y: row[c+1]}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("plot %s: %w", name, err)
		}
		line.Color = colors[c]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(name, line)
	}

	wt, err := p.WriterTo(10*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("render table plot: %w", err)
	}
	f, err := t.fs.Create(t.PlotPath())
	if err != nil {
		return fmt.Errorf("table plot: %w", err)
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write table plot: %w", err)
	}
	return f.Close()
}

// lineColors spreads n hues around the colour wheel.
func lineColors(n int) []color.Color {
	out := make([]color.Color, n)
	for i := range out {
		r, g, b := hslToRGB(float64(i)/float64(n), 0.7, 0.45)
		out[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return out
}

func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	return uint8(hueToRGB(p, q, h+1.0/3.0) * 255), uint8(hueToRGB(p, q, h) * 255), uint8(hueToRGB(p, q, h-1.0/3.0) * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	default:
		return p
	}
}
