package region

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sort"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/banshee-data/micromag/internal/grid"
)

// ImageOptions controls how image colours become region labels.
type ImageOptions struct {
	// Strict fails the build on the first colour missing from the palette.
	// Otherwise such cells take the background label and are reported.
	Strict bool
}

// BuildReport summarises an image build.
type BuildReport struct {
	// UnknownColors counts cells (per layer) whose colour had no palette
	// entry, keyed by "#rrggbb".
	UnknownColors map[string]int
	// UnknownCells is the total number of cells labelled background because
	// their colour was unknown, over all layers.
	UnknownCells int
	// Missing lists palette names that no cell matched.
	Missing []string
}

// DecodeImage reads a PNG, JPEG, GIF, BMP or TIFF file.
func DecodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open region image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode region image %s: %w", path, err)
	}
	diagf("decoded %s image %s (%dx%d)", format, path, img.Bounds().Dx(), img.Bounds().Dy())
	return img, nil
}

// BuildFromImage labels every cell from the image pixel nearest its centre
// in the xy plane and extrudes the result across all z layers. Image row 0
// is the top of the picture, which maps to the highest j. Colours are
// matched exactly on RGB. The grid must be ready and is frozen on success.
func BuildFromImage(g *grid.Grid, img image.Image, palette Palette, opts ImageOptions) (*Map, *BuildReport, error) {
	if err := g.Ready(); err != nil {
		return nil, nil, err
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, nil, fmt.Errorf("%w: empty image", grid.ErrConfiguration)
	}
	size := g.GridSize()
	m := newMap(size)
	report := &BuildReport{UnknownColors: make(map[string]int)}

	layer := make([]ID, size.NX*size.NY)
	for j := 0; j < size.NY; j++ {
		py := b.Min.Y + sample(size.NY-1-j, size.NY, b.Dy())
		for i := 0; i < size.NX; i++ {
			px := b.Min.X + sample(i, size.NX, b.Dx())
			c := color.NRGBAModel.Convert(img.At(px, py)).(color.NRGBA)
			name, ok := palette.lookup(c.R, c.G, c.B)
			if !ok {
				hex := hexColor(rgbKey(c.R, c.G, c.B))
				if opts.Strict {
					return nil, nil, fmt.Errorf("%w: %s at pixel (%d,%d)", ErrUnknownColor, hex, px, py)
				}
				report.UnknownColors[hex]++
				layer[j*size.NX+i] = Background
				continue
			}
			id, err := m.assign(name)
			if err != nil {
				return nil, nil, err
			}
			layer[j*size.NX+i] = id
		}
	}

	for k := 0; k < size.NZ; k++ {
		for j := 0; j < size.NY; j++ {
			for i := 0; i < size.NX; i++ {
				m.set(size.Index(i, j, k), layer[j*size.NX+i])
			}
		}
	}
	for _, n := range report.UnknownColors {
		report.UnknownCells += n * size.NZ
	}
	for _, e := range palette.entries {
		if _, ok := m.ids[e.Name]; !ok {
			report.Missing = append(report.Missing, e.Name)
		}
	}

	g.Freeze()
	m.logSummary("image")
	if report.UnknownCells > 0 {
		colours := make([]string, 0, len(report.UnknownColors))
		for hex := range report.UnknownColors {
			colours = append(colours, hex)
		}
		sort.Strings(colours)
		opsf("%d cells had colours missing from the palette %v; labelled background", report.UnknownCells, colours)
	}
	if len(report.Missing) > 0 {
		diagf("palette regions not present in image: %v", report.Missing)
	}
	return m, report, nil
}

// sample maps cell n of cells onto a pixel of an axis with the given
// length, taking the pixel under the cell centre.
func sample(n, cells, pixels int) int {
	p := int((float64(n) + 0.5) * float64(pixels) / float64(cells))
	if p >= pixels {
		p = pixels - 1
	}
	return p
}
