package output

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// WriteHTML renders one layer of one component as an interactive scatter
// heat map.
func WriteHTML(w io.Writer, rec *Record) error {
	v, err := parseView(rec)
	if err != nil {
		return err
	}
	a := rec.Field
	data := make([]opts.ScatterData, 0, a.Size.NX*a.Size.NY)
	lo, hi := 0.0, 0.0
	for j := 0; j < a.Size.NY; j++ {
		for i := 0; i < a.Size.NX; i++ {
			z := v.value(a, i, j)
			if len(data) == 0 || z < lo {
				lo = z
			}
			if len(data) == 0 || z > hi {
				hi = z
			}
			data = append(data, opts.ScatterData{Value: []interface{}{i, j, z}})
		}
	}
	if hi == lo {
		hi = lo + 1
	}

	label := v.label(rec)
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: label, Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: label, Subtitle: fmt.Sprintf("t=%s step=%d layer=%d grid=%v", formatFloat(rec.Time), rec.Step, v.layer, a.Size)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: a.Size.NX - 1, Name: "i", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: a.Size.NY - 1, Name: "j", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(lo),
			Max:        float32(hi),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	scatter.AddSeries(rec.Name, data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}
