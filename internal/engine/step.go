package engine

import (
	"context"
	"fmt"

	"github.com/banshee-data/micromag/internal/grid"
)

// Step advances the simulation by dt. Time moves first, then every hook
// runs in registration order against the new time. If a hook fails, time
// and every hook-owned quantity are put back to their pre-step state and a
// *PhysicsError is returned. After a successful step the autosave schedule
// is notified.
func (s *Simulation) Step() error {
	store, err := s.ensureStore()
	if err != nil {
		return err
	}
	dt, err := store.Scalar(DtQuantity)
	if err != nil {
		return fmt.Errorf("%w: time step: %v", grid.ErrConfiguration, err)
	}
	if err := checkDt(dt); err != nil {
		return err
	}

	t0 := s.Time()
	t1 := t0 + dt
	cp := store.Checkpoint(s.Hooks()...)
	if err := store.DeriveValue(TimeQuantity, []float64{t1}); err != nil {
		return err
	}

	ctx := &StepContext{Store: store, Grid: s.grid, T: t1, Dt: dt, Step: s.steps + 1}
	for _, h := range s.hooks {
		if err := h.fn(ctx); err != nil {
			store.Restore(cp)
			if rerr := store.DeriveValue(TimeQuantity, []float64{t0}); rerr != nil {
				opsf("restore t=%g after failed step: %v", t0, rerr)
			}
			opsf("step %d aborted by %s: %v", ctx.Step, h.name, err)
			return &PhysicsError{Hook: h.name, Step: ctx.Step, Time: t0, Err: err}
		}
	}

	s.steps++
	s.state = Running
	fired := s.sched.Notify(t1)
	tracef("step %d t=%g dt=%g autosaves=%d", s.steps, t1, dt, fired)
	return nil
}

// Run takes n steps, stopping early if ctx is cancelled between steps or a
// step fails.
func (s *Simulation) Run(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Step(); err != nil {
			return err
		}
	}
	return nil
}

// RunUntil steps until simulation time reaches end. dt must be positive.
func (s *Simulation) RunUntil(ctx context.Context, end float64) error {
	dt, err := s.Dt()
	if err != nil {
		return fmt.Errorf("%w: time step: %v", grid.ErrConfiguration, err)
	}
	if !(dt > 0) {
		return fmt.Errorf("%w: run until t=%g needs a positive dt, got %g", grid.ErrConfiguration, end, dt)
	}
	// Tolerate the rounding accumulated by repeated additions of dt.
	for s.Time() < end-dt*1e-6 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Step(); err != nil {
			return err
		}
	}
	return nil
}
