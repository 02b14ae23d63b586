package ledger

import (
	"strings"
)

// Row is the working unit of a ledger: the immutable source row, overrides
// of raw fields, the editable inputs and the derived outputs computed from
// them.
type Row struct {
	Raw   RawRow
	Edits RawRow
	Bank  string

	inputs  [numInputs]float64
	derived Derived
}

func newRow(raw RawRow, bank string) Row {
	r := Row{Raw: append(RawRow(nil), raw...), Bank: bank}
	r.recompute()
	return r
}

// Value resolves a field or column label, edits first.
func (r *Row) Value(label string) (any, bool) {
	if v, ok := Resolve(r.Edits, label); ok {
		return v, true
	}
	return Resolve(r.Raw, label)
}

// Cell returns the value of the column with exactly this label, edits
// first. Columns whose labels only normalize alike stay separate.
func (r *Row) Cell(label string) any {
	if v, ok := r.Edits.Get(label); ok {
		return v
	}
	v, _ := r.Raw.Get(label)
	return v
}

// Input returns the current value of an editable input.
func (r *Row) Input(in Input) float64 { return r.inputs[in] }

// Derived returns the derived outputs. They are never stale.
func (r *Row) Derived() Derived { return r.derived }

func (r *Row) formulaInputs() Inputs {
	gp, _ := r.Value(FieldGrossPremium)
	canc, _ := r.Value(FieldCancellation)
	return Inputs{
		GrossPremium:     Coerce(gp),
		Cancellation:     Coerce(canc),
		CommissionPct:    r.inputs[InputCommissionPct],
		Zinara:           r.inputs[InputZinara],
		PpaGross:         r.inputs[InputPpaGross],
		PpaPct:           r.inputs[InputPpaPct],
		ApprovedExpenses: r.inputs[InputApprovedExpenses],
	}
}

func (r *Row) recompute() {
	r.derived = Recompute(r.formulaInputs())
}

// Cursor is an indexed sequence of rows: a whole Table or a View over it.
type Cursor interface {
	Len() int
	Row(i int) (*Row, error)
	Profile() Profile
}

// Table is the ordered working set of one upload.
type Table struct {
	profile Profile
	rows    []Row
}

// Load builds a table from spreadsheet rows, stamping every row with bank
// and seeding all editable inputs to zero.
func Load(p Profile, rows []RawRow, bank string) (*Table, error) {
	bank = strings.TrimSpace(bank)
	if bank == "" {
		return nil, invalid("bank", "select a bank before uploading")
	}
	t := &Table{profile: p, rows: make([]Row, len(rows))}
	for i, raw := range rows {
		t.rows[i] = newRow(raw, bank)
	}
	return t, nil
}

func (t *Table) Len() int         { return len(t.rows) }
func (t *Table) Profile() Profile { return t.profile }

func (t *Table) Row(i int) (*Row, error) {
	if i < 0 || i >= len(t.rows) {
		return nil, invalid("row", "index %d out of range [0,%d)", i, len(t.rows))
	}
	return &t.rows[i], nil
}

// Clear discards every row. Calling it again is a no-op.
func (t *Table) Clear() {
	t.rows = nil
}

// Columns returns the union of source labels in first-seen order.
func (t *Table) Columns() []string {
	seen := make(map[string]bool)
	var cols []string
	for i := range t.rows {
		for _, c := range t.rows[i].Raw {
			if !seen[c.Label] {
				seen[c.Label] = true
				cols = append(cols, c.Label)
			}
		}
	}
	return cols
}

// View is a filtered view of a Table. It holds indices into the table, so
// edits made through it land on the table's rows.
type View struct {
	table *Table
	index []int
	Term  string
}

func (v *View) Len() int         { return len(v.index) }
func (v *View) Profile() Profile { return v.table.profile }

// Index maps a view position to its position in the table.
func (v *View) Index(i int) (int, error) {
	if i < 0 || i >= len(v.index) {
		return 0, invalid("row", "index %d out of range [0,%d)", i, len(v.index))
	}
	return v.index[i], nil
}

func (v *View) Row(i int) (*Row, error) {
	j, err := v.Index(i)
	if err != nil {
		return nil, err
	}
	return v.table.Row(j)
}

// Search narrows t to the rows matching term. An empty term is rejected.
func Search(t *Table, term string) (*View, error) {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return nil, invalid("term", "type a name to search for")
	}
	v := &View{table: t, index: []int{}, Term: strings.TrimSpace(term)}
	for i := range t.rows {
		if matches(&t.rows[i], t.profile.Search, needle) {
			v.index = append(v.index, i)
		}
	}
	return v, nil
}

func matches(r *Row, mode SearchMode, needle string) bool {
	if mode == SearchName {
		v, _ := r.Value(FieldName)
		return strings.ToLower(strings.TrimSpace(Stringify(v))) == needle
	}
	for _, c := range r.Raw {
		if strings.Contains(strings.ToLower(Stringify(r.Cell(c.Label))), needle) {
			return true
		}
	}
	return false
}

// EditCell sets one field of row i and recomputes that row before
// returning. On a View the change is made on the underlying table row.
func EditCell(c Cursor, i int, field string, value any) (*Row, error) {
	r, err := c.Row(i)
	if err != nil {
		return nil, err
	}
	if Normalize(field) == Normalize(FieldBank) {
		return nil, invalid(field, "the bank tag is fixed at upload")
	}
	if !c.Profile().Derive {
		col, ok := r.Raw.column(field)
		if !ok {
			return nil, invalid(field, "unknown column")
		}
		r.Edits = r.Edits.set(col, value)
		r.recompute()
		return r, nil
	}

	header, ok := CanonicalHeader(field)
	if !ok {
		return nil, invalid(field, "unknown field")
	}
	kind := KindOf(header)
	switch kind {
	case KindEditable:
		in, _ := InputFor(header)
		r.inputs[in] = Coerce(value)
	case KindRaw:
		r.Edits = r.Edits.with(header, value)
	default:
		return nil, invalid(field, "%s fields cannot be edited", kind)
	}
	r.recompute()
	return r, nil
}
