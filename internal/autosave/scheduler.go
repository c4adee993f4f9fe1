// Package autosave fires periodic actions as simulation time advances.
//
// Each directive has a period in simulation time. After every completed step
// the scheduler is notified of the new time; a directive whose next due time
// has been reached fires once and moves its due time forward by exactly one
// period. A step that jumps over several boundaries therefore fires each
// directive at most once, and the directive catches up over later steps.
package autosave

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// ErrInvalidPeriod reports a non-positive or non-finite period.
var ErrInvalidPeriod = errors.New("invalid autosave period")

// Action is invoked when a directive fires, with the current simulation time.
type Action func(t float64) error

// Status is a snapshot of one directive.
type Status struct {
	ID       uuid.UUID
	Label    string
	Period   float64
	NextDue  float64
	Fired    int
	Failures int
	LastErr  error
}

type directive struct {
	Status
	action Action
}

// Scheduler holds the autosave directives of one simulation. It is not safe
// for concurrent use.
type Scheduler struct {
	directives []*directive
}

// New returns an empty scheduler.
func New() *Scheduler { return &Scheduler{} }

// Add registers a directive that first fires once t reaches period.
func (s *Scheduler) Add(label string, period float64, action Action) (uuid.UUID, error) {
	if period <= 0 || math.IsNaN(period) || math.IsInf(period, 0) {
		return uuid.Nil, fmt.Errorf("%w: %s: %g", ErrInvalidPeriod, label, period)
	}
	if action == nil {
		return uuid.Nil, fmt.Errorf("autosave %s: nil action", label)
	}
	d := &directive{
		Status: Status{
			ID:      uuid.New(),
			Label:   label,
			Period:  period,
			NextDue: period,
		},
		action: action,
	}
	s.directives = append(s.directives, d)
	diagf("added %s every %g (id %s)", label, period, d.ID)
	return d.ID, nil
}

// Remove drops a directive. It reports whether the ID was known.
func (s *Scheduler) Remove(id uuid.UUID) bool {
	for i, d := range s.directives {
		if d.ID == id {
			s.directives = append(s.directives[:i], s.directives[i+1:]...)
			diagf("removed %s (id %s)", d.Label, id)
			return true
		}
	}
	return false
}

// Notify fires every directive due at time t and returns how many fired.
// Action errors are logged and counted on the directive; they do not stop
// the remaining directives.
func (s *Scheduler) Notify(t float64) int {
	fired := 0
	for _, d := range s.directives {
		if t < d.NextDue {
			continue
		}
		d.NextDue += d.Period
		s.fire(d, t)
		fired++
	}
	return fired
}

// FlushNow fires every directive at time t without moving due times.
func (s *Scheduler) FlushNow(t float64) {
	for _, d := range s.directives {
		s.fire(d, t)
	}
}

func (s *Scheduler) fire(d *directive, t float64) {
	d.Fired++
	if err := d.action(t); err != nil {
		d.Failures++
		d.LastErr = err
		opsf("%s at t=%g: %v", d.Label, t, err)
		return
	}
	tracef("%s fired at t=%g, next due %g", d.Label, t, d.NextDue)
}

// Len returns the number of directives.
func (s *Scheduler) Len() int { return len(s.directives) }

// Directives returns a snapshot of every directive in registration order.
func (s *Scheduler) Directives() []Status {
	out := make([]Status, len(s.directives))
	for i, d := range s.directives {
		out[i] = d.Status
	}
	return out
}
