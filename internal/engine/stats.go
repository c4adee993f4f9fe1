package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/micromag/internal/autosave"
	"github.com/banshee-data/micromag/internal/quant"
)

// Stats summarises a run.
type Stats struct {
	RunID      uuid.UUID
	State      State
	Steps      int
	Time       float64
	Wall       time.Duration
	Modules    []string
	Quantities []quant.Summary
	Schedule   []autosave.Status
}

// Stats reports progress and a summary of every quantity.
func (s *Simulation) Stats() Stats {
	st := Stats{
		RunID:    s.id,
		State:    s.state,
		Steps:    s.steps,
		Time:     s.Time(),
		Wall:     s.clock.Since(s.created),
		Modules:  s.Modules(),
		Schedule: s.sched.Directives(),
	}
	if s.store == nil {
		return st
	}
	for _, name := range s.store.Names() {
		sum, err := s.store.Summary(name)
		if err != nil {
			continue
		}
		st.Quantities = append(st.Quantities, sum)
	}
	return st
}
