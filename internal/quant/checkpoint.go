package quant

// Checkpoint holds copies of a set of quantities, representation included,
// so they can be put back exactly with Store.Restore.
type Checkpoint struct {
	saved map[string]Quantity
}

// Names lists the quantities held by the checkpoint.
func (c *Checkpoint) Names() []string {
	out := make([]string, 0, len(c.saved))
	for name := range c.saved {
		out = append(out, name)
	}
	return out
}

// Checkpoint copies the named quantities. Names that are not registered
// are skipped.
func (s *Store) Checkpoint(names ...string) *Checkpoint {
	cp := &Checkpoint{saved: make(map[string]Quantity, len(names))}
	for _, name := range names {
		if q, ok := s.quants[name]; ok {
			cp.saved[name] = q.clone()
		}
	}
	return cp
}

// Restore puts every quantity of the checkpoint back to the state it had
// when the checkpoint was taken. The read-only flag is left as it is now.
func (s *Store) Restore(cp *Checkpoint) {
	if cp == nil {
		return
	}
	for name, saved := range cp.saved {
		q, ok := s.quants[name]
		if !ok {
			continue
		}
		readOnly := q.info.ReadOnly
		*q = saved.clone()
		q.info.ReadOnly = readOnly
	}
}

func (q *Quantity) clone() Quantity {
	out := Quantity{info: q.info}
	if q.value != nil {
		out.value = append([]float64(nil), q.value...)
	}
	if q.field != nil {
		out.field = q.field.Clone()
	}
	if q.mask != nil {
		out.mask = q.mask.Clone()
	}
	return out
}
