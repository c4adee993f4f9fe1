package quant

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ComponentStats holds per-component statistics over all cells.
type ComponentStats struct {
	Min, Max, Mean, StdDev float64
}

// Summary describes a quantity for logs and run statistics.
type Summary struct {
	Info
	Components []ComponentStats
}

// Summary computes min, max, mean and standard deviation of every component
// of the named quantity. Uniform quantities are summarised without
// materialising a per-cell array.
func (s *Store) Summary(name string) (Summary, error) {
	q, err := s.get(name)
	if err != nil {
		return Summary{}, err
	}
	out := Summary{Info: q.info, Components: make([]ComponentStats, q.info.Arity)}
	if q.info.Kind == Uniform {
		for c, v := range q.value {
			out.Components[c] = ComponentStats{Min: v, Max: v, Mean: v}
		}
		return out, nil
	}
	a := q.materialize(s.size)
	for c, data := range a.Data {
		mean, std := stat.MeanStdDev(data, nil)
		if len(data) < 2 {
			std = 0
		}
		out.Components[c] = ComponentStats{
			Min:    floats.Min(data),
			Max:    floats.Max(data),
			Mean:   mean,
			StdDev: std,
		}
	}
	return out, nil
}

// Norms returns the per-cell Euclidean norm of a vector array.
func Norms(a *Array) []float64 {
	n := a.Size.NCells()
	out := make([]float64, n)
	cell := make([]float64, a.Comp)
	for idx := 0; idx < n; idx++ {
		for c := range cell {
			cell[c] = a.Data[c][idx]
		}
		out[idx] = floats.Norm(cell, 2)
	}
	return out
}
