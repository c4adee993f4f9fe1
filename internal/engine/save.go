package engine

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/banshee-data/micromag/internal/output"
	"github.com/banshee-data/micromag/internal/quant"
	"github.com/banshee-data/micromag/internal/table"
)

// Save hands the current state of a quantity to the persister registered
// for format. An empty path uses the autosave naming scheme; the output
// counter only advances when such a save succeeds.
func (s *Simulation) Save(quantity, format string, options []string, path string) error {
	numbered := path == ""
	if numbered {
		path = s.nextOutputPath(quantity, format)
	}
	rec, err := s.record(quantity, format, options, path)
	if err != nil {
		return err
	}
	if err := s.router.Persist(rec); err != nil {
		return fmt.Errorf("save %s as %s: %w", quantity, format, err)
	}
	if numbered {
		s.outputID++
	}
	diagf("saved %s at t=%g to %s (%s)", quantity, rec.Time, path, format)
	return nil
}

// Autosave saves quantity every period of simulation time. Files are named
// after the quantity and a per-simulation output counter, for example
// m000003.txt.
func (s *Simulation) Autosave(quantity, format string, options []string, period float64) (uuid.UUID, error) {
	if _, err := s.info(quantity); err != nil {
		return uuid.Nil, err
	}
	if _, ok := s.router[format]; !ok {
		return uuid.Nil, fmt.Errorf("%w: %q", output.ErrUnknownFormat, format)
	}
	opts := append([]string(nil), options...)
	return s.sched.Add("autosave "+quantity, period, func(float64) error {
		return s.Save(quantity, format, opts, "")
	})
}

// Tabulate appends the time and the mean of every component of each
// quantity to a text table every period of simulation time. Vector columns
// are named q_x, q_y and q_z. The time column is always first, so "t" in
// quantities is ignored.
func (s *Simulation) Tabulate(quantities []string, path string, period float64) (uuid.UUID, error) {
	var names, columns []string
	for _, q := range quantities {
		if q == TimeQuantity {
			continue
		}
		info, err := s.info(q)
		if err != nil {
			return uuid.Nil, err
		}
		names = append(names, q)
		if info.Arity == quant.Vector {
			columns = append(columns, q+"_x", q+"_y", q+"_z")
		} else {
			columns = append(columns, q)
		}
	}
	tab := table.New(s.fs, s.files.Resolve(path), columns)
	id, err := s.sched.Add("table "+path, period, func(t float64) error {
		row := make([]float64, 0, len(columns))
		for _, q := range names {
			sum, err := s.store.Summary(q)
			if err != nil {
				return err
			}
			for _, c := range sum.Components {
				row = append(row, c.Mean)
			}
		}
		return tab.Append(t, row)
	})
	if err != nil {
		return uuid.Nil, err
	}
	s.tables = append(s.tables, tab)
	return id, nil
}

// Flush renders a plot of every table that has rows.
func (s *Simulation) Flush() error {
	var errs []error
	for _, tab := range s.tables {
		if err := tab.Plot(); err != nil {
			errs = append(errs, err)
			continue
		}
		diagf("plotted %s", tab.PlotPath())
	}
	return errors.Join(errs...)
}

func (s *Simulation) info(name string) (quant.Info, error) {
	if s.store == nil {
		return quant.Info{}, fmt.Errorf("%w: %q", quant.ErrUnknownQuantity, name)
	}
	return s.store.Info(name)
}

func (s *Simulation) nextOutputPath(quantity, format string) string {
	return fmt.Sprintf("%s%06d.%s", quantity, s.outputID, output.Extension(format))
}

func (s *Simulation) record(quantity, format string, options []string, path string) (*output.Record, error) {
	info, err := s.info(quantity)
	if err != nil {
		return nil, err
	}
	field, err := s.store.Field(quantity)
	if err != nil {
		return nil, err
	}
	rec := &output.Record{
		Name:    quantity,
		Unit:    info.Unit,
		Time:    s.Time(),
		Step:    s.steps,
		Field:   field,
		Format:  format,
		Options: options,
		Path:    path,
	}
	if info.Kind == quant.Uniform {
		if rec.Value, err = s.store.Value(quantity); err != nil {
			return nil, err
		}
	}
	return rec, nil
}
