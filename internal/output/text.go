package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteText writes a commented header followed by one line per cell:
// "i j k v0 [v1 v2]" in grid index order. Values round-trip exactly.
func WriteText(w io.Writer, rec *Record) error {
	bw := bufio.NewWriter(w)
	a := rec.Field
	fmt.Fprintf(bw, "# name: %s\n", rec.Name)
	if rec.Unit != "" {
		fmt.Fprintf(bw, "# unit: %s\n", rec.Unit)
	}
	fmt.Fprintf(bw, "# time: %s\n", formatFloat(rec.Time))
	fmt.Fprintf(bw, "# step: %d\n", rec.Step)
	fmt.Fprintf(bw, "# grid: %v\n", a.Size)
	fmt.Fprintf(bw, "# components: %d\n", a.Comp)
	if rec.Value != nil {
		fmt.Fprintf(bw, "# uniform: %s\n", joinFloats(rec.Value))
	}

	cols := []string{"i", "j", "k"}
	for c := 0; c < a.Comp; c++ {
		if a.Comp == 1 {
			cols = append(cols, rec.Name)
		} else {
			cols = append(cols, fmt.Sprintf("%s_%c", rec.Name, 'x'+rune(c)))
		}
	}
	fmt.Fprintf(bw, "# %s\n", strings.Join(cols, " "))

	n := a.Size.NCells()
	vals := make([]float64, a.Comp)
	for idx := 0; idx < n; idx++ {
		i, j, k := a.Size.Coords(idx)
		for c := range vals {
			vals[c] = a.Data[c][idx]
		}
		fmt.Fprintf(bw, "%d %d %d %s\n", i, j, k, joinFloats(vals))
	}
	return bw.Flush()
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func joinFloats(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = formatFloat(v)
	}
	return strings.Join(parts, " ")
}
