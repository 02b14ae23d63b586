package ledger

// Snapshot is the resumable form of a Table. Derived outputs are not
// stored; Restore recomputes them.
type Snapshot struct {
	Source string        `json:"source"`
	Rows   []RowSnapshot `json:"rows"`
}

type RowSnapshot struct {
	Raw    RawRow             `json:"raw"`
	Edits  RawRow             `json:"edits,omitempty"`
	Inputs map[string]float64 `json:"inputs,omitempty"`
	Bank   string             `json:"bank"`
}

func (t *Table) Snapshot() Snapshot {
	s := Snapshot{Source: t.profile.Source, Rows: make([]RowSnapshot, len(t.rows))}
	for i := range t.rows {
		r := &t.rows[i]
		rs := RowSnapshot{
			Raw:   append(RawRow(nil), r.Raw...),
			Edits: append(RawRow(nil), r.Edits...),
			Bank:  r.Bank,
		}
		for in := Input(0); in < numInputs; in++ {
			if v := r.inputs[in]; v != 0 {
				if rs.Inputs == nil {
					rs.Inputs = make(map[string]float64)
				}
				rs.Inputs[in.Key()] = v
			}
		}
		s.Rows[i] = rs
	}
	return s
}

// Restore rebuilds a Table from a snapshot.
func Restore(s Snapshot) (*Table, error) {
	p, err := ProfileFor(s.Source)
	if err != nil {
		return nil, err
	}
	t := &Table{profile: p, rows: make([]Row, len(s.Rows))}
	for i, rs := range s.Rows {
		r := Row{
			Raw:   append(RawRow(nil), rs.Raw...),
			Edits: append(RawRow(nil), rs.Edits...),
			Bank:  rs.Bank,
		}
		for key, v := range rs.Inputs {
			in, ok := InputFor(key)
			if !ok {
				return nil, invalid(key, "unknown input in snapshot row %d", i)
			}
			r.inputs[in] = Coerce(v)
		}
		r.recompute()
		t.rows[i] = r
	}
	return t, nil
}
