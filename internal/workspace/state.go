package workspace

import (
	"time"

	"CashbookRecon/internal/ledger"
)

// RowState is the display form of one row. Index is the position in the
// active view; TableIndex the position in the full table.
type RowState struct {
	Index      int                `json:"index"`
	TableIndex int                `json:"tableIndex"`
	Record     ledger.Record      `json:"record"`
	Inputs     map[string]float64 `json:"inputs,omitempty"`
	Derived    *ledger.Derived    `json:"derived,omitempty"`
}

type State struct {
	ID        string     `json:"id"`
	Source    string     `json:"source"`
	Name      string     `json:"name"`
	PosID     string     `json:"posId"`
	Currency  string     `json:"currency"`
	Bank      string     `json:"bank"`
	Search    string     `json:"search,omitempty"`
	Total     int        `json:"total"`
	Columns   []string   `json:"columns"`
	Rows      []RowState `json:"rows"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// State returns the header and the rows of the active view.
func (w *Workspace) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	c := w.cursor()
	s := State{
		ID:        w.id,
		Source:    w.profile.Source,
		Name:      w.name,
		PosID:     w.posID,
		Currency:  w.currency,
		Bank:      w.bank,
		Total:     w.table.Len(),
		Columns:   w.columnsLocked(),
		Rows:      make([]RowState, 0, c.Len()),
		CreatedAt: w.createdAt,
		UpdatedAt: w.updatedAt,
	}
	if w.view != nil {
		s.Search = w.view.Term
	}
	for i := 0; i < c.Len(); i++ {
		r, err := c.Row(i)
		if err != nil {
			break
		}
		s.Rows = append(s.Rows, w.rowState(c, i, r))
	}
	return s
}

func (w *Workspace) columnsLocked() []string {
	if w.profile.Derive {
		return append(append([]string(nil), ledger.CanonicalFields...), ledger.FieldBank)
	}
	cols := []string{}
	for _, c := range w.table.Columns() {
		if c != ledger.FieldBank {
			cols = append(cols, c)
		}
	}
	return append(cols, ledger.FieldBank)
}

func (w *Workspace) rowState(c ledger.Cursor, i int, r *ledger.Row) RowState {
	rs := RowState{
		Index:      i,
		TableIndex: i,
		Record:     ledger.SerializeRow(w.profile, r, w.currency),
	}
	if v, ok := c.(*ledger.View); ok {
		rs.TableIndex, _ = v.Index(i)
	}
	if w.profile.Derive {
		inputs := ledger.AllInputs()
		rs.Inputs = make(map[string]float64, len(inputs))
		for _, in := range inputs {
			rs.Inputs[in.Key()] = r.Input(in)
		}
		d := r.Derived()
		rs.Derived = &d
	}
	return rs
}
