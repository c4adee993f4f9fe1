// Package physics provides the modules a simulation can load by name.
//
//	hfield  the read-only effective field H, the sum of its contributions
//	zeeman  the applied field H_ext, a contribution to H
//	test    magnetisation m precessing about H, with the read-only torque
//
// The modules returned by one call to Modules share state, so each
// simulation needs its own set.
package physics

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/micromag/internal/engine"
	"github.com/banshee-data/micromag/internal/quant"
)

// Gamma0 is the gyromagnetic ratio times mu0, in m/(A s).
const Gamma0 = 2.211e5

// Quantity names.
const (
	Field         = "H"
	ExternalField = "H_ext"
	Magnetisation = "m"
	Torque        = "torque"
)

// Modules returns a fresh set of modules for one simulation.
func Modules() []engine.Module {
	h := &effectiveField{}
	return []engine.Module{
		{
			Name:        "hfield",
			Description: "effective field H, summed from the loaded field terms",
			Load:        h.load,
		},
		{
			Name:        "zeeman",
			Description: "externally applied field H_ext",
			Requires:    []string{"hfield"},
			Load: func(s *engine.Simulation) error {
				store, err := s.Store()
				if err != nil {
					return err
				}
				if err := store.Register(ExternalField, quant.Vector, false, "A/m", "applied field"); err != nil {
					return err
				}
				h.add(ExternalField)
				return nil
			},
		},
		{
			Name:        "test",
			Description: "toy precession of m about H",
			Requires:    []string{"zeeman"},
			Load:        loadPrecession,
		},
	}
}

// effectiveField sums its terms into H on every step.
type effectiveField struct {
	terms []string
}

func (h *effectiveField) add(term string) { h.terms = append(h.terms, term) }

func (h *effectiveField) load(s *engine.Simulation) error {
	store, err := s.Store()
	if err != nil {
		return err
	}
	if err := store.Register(Field, quant.Vector, true, "A/m", "effective field"); err != nil {
		return err
	}
	return s.RegisterHook(Field, quant.Vector, true, h.update)
}

func (h *effectiveField) update(ctx *engine.StepContext) error {
	sum := quant.NewArray(int(quant.Vector), ctx.Store.Size())
	for _, term := range h.terms {
		a, err := ctx.Store.Field(term)
		if err != nil {
			return fmt.Errorf("field term %s: %w", term, err)
		}
		for c := range sum.Data {
			for idx, v := range a.Data[c] {
				sum.Data[c][idx] += v
			}
		}
	}
	return ctx.Store.Derive(Field, sum)
}

func loadPrecession(s *engine.Simulation) error {
	store, err := s.Store()
	if err != nil {
		return err
	}
	if !store.Has(Magnetisation) {
		if err := store.SetValue(Magnetisation, []float64{1, 0, 0}); err != nil {
			return err
		}
	}
	if err := store.Register(Magnetisation, quant.Vector, false, "", "reduced magnetisation"); err != nil {
		return err
	}
	if err := store.Register(Torque, quant.Vector, true, "1/s", "precession torque -gamma0 m x H"); err != nil {
		return err
	}
	if err := s.RegisterHook(Torque, quant.Vector, true, updateTorque); err != nil {
		return err
	}
	return s.RegisterHook(Magnetisation, quant.Vector, false, integrate)
}

func updateTorque(ctx *engine.StepContext) error {
	m, err := ctx.Store.Field(Magnetisation)
	if err != nil {
		return err
	}
	h, err := ctx.Store.Field(Field)
	if err != nil {
		return err
	}
	out := quant.NewArray(int(quant.Vector), ctx.Store.Size())
	for idx := range out.Data[0] {
		tq := r3.Scale(-Gamma0, r3.Cross(vec(m, idx), vec(h, idx)))
		put(out, idx, tq)
	}
	return ctx.Store.Derive(Torque, out)
}

// integrate takes an explicit Euler step of m along the torque and
// renormalises every non-zero cell to unit length.
func integrate(ctx *engine.StepContext) error {
	m, err := ctx.Store.Field(Magnetisation)
	if err != nil {
		return err
	}
	tq, err := ctx.Store.Field(Torque)
	if err != nil {
		return err
	}
	for idx := range m.Data[0] {
		next := r3.Add(vec(m, idx), r3.Scale(ctx.Dt, vec(tq, idx)))
		if r3.Norm(next) > 0 {
			next = r3.Unit(next)
		}
		put(m, idx, next)
	}
	return ctx.Store.Derive(Magnetisation, m)
}

func vec(a *quant.Array, idx int) r3.Vec {
	return r3.Vec{X: a.Data[0][idx], Y: a.Data[1][idx], Z: a.Data[2][idx]}
}

func put(a *quant.Array, idx int, v r3.Vec) {
	a.Data[0][idx] = v.X
	a.Data[1][idx] = v.Y
	a.Data[2][idx] = v.Z
}
