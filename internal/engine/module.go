package engine

import (
	"fmt"

	"github.com/banshee-data/micromag/internal/grid"
	"github.com/banshee-data/micromag/internal/quant"
)

// Module is a named bundle of quantities and update hooks. Load runs once
// per simulation, after every module in Requires has loaded.
type Module struct {
	Name        string
	Description string
	Requires    []string
	Load        func(s *Simulation) error
}

// UpdateFunc recomputes the quantity it was registered for.
type UpdateFunc func(ctx *StepContext) error

// StepContext is handed to every hook during a step. T is the time the
// step advances to.
type StepContext struct {
	Store *quant.Store
	Grid  *grid.Grid
	T     float64
	Dt    float64
	Step  int
}

type hook struct {
	name string
	fn   UpdateFunc
}

// LoadModule loads the named module and, first, the modules it requires.
// Loading an already loaded module does nothing.
func (s *Simulation) LoadModule(name string) error {
	return s.loadModule(name, nil)
}

func (s *Simulation) loadModule(name string, chain []string) error {
	if s.loaded[name] {
		return nil
	}
	for _, c := range chain {
		if c == name {
			return fmt.Errorf("module %s: dependency cycle %v", name, append(chain, name))
		}
	}
	m, ok := s.modules[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownModule, name)
	}
	for _, dep := range m.Requires {
		if err := s.loadModule(dep, append(chain, name)); err != nil {
			return fmt.Errorf("module %s: %w", name, err)
		}
	}
	if _, err := s.ensureStore(); err != nil {
		return fmt.Errorf("module %s: %w", name, err)
	}
	if m.Load != nil {
		if err := m.Load(s); err != nil {
			return fmt.Errorf("module %s: %w", name, err)
		}
	}
	s.loaded[name] = true
	s.loadedOrder = append(s.loadedOrder, name)
	diagf("loaded module %s", name)
	return nil
}

// Modules lists the loaded modules in load order.
func (s *Simulation) Modules() []string {
	return append([]string(nil), s.loadedOrder...)
}

// RegisterHook registers name as a quantity of the given arity and appends
// fn to the hooks run on every step, in registration order. A read-only
// quantity can only be written by its hook through Store.Derive. A nil fn
// registers the quantity without a hook.
func (s *Simulation) RegisterHook(name string, arity quant.Arity, readOnly bool, fn UpdateFunc) error {
	store, err := s.ensureStore()
	if err != nil {
		return err
	}
	if err := store.Register(name, arity, readOnly, "", ""); err != nil {
		return err
	}
	if fn != nil {
		s.hooks = append(s.hooks, hook{name: name, fn: fn})
		diagf("registered hook %s (%v, read-only=%t)", name, arity, readOnly)
	}
	return nil
}

// Hooks lists the hook names in the order they run.
func (s *Simulation) Hooks() []string {
	out := make([]string, len(s.hooks))
	for i, h := range s.hooks {
		out[i] = h.name
	}
	return out
}
