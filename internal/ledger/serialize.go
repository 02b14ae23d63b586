package ledger

import (
	"encoding/json"
	"strconv"
)

// Entry is one header of a serialized row.
type Entry struct {
	Header string
	Value  string
}

// Record is one row of a report's table_data. It marshals as a JSON object
// with its headers in order.
type Record []Entry

// Get returns the value stored under header, or "" when absent.
func (r Record) Get(header string) string {
	for _, e := range r {
		if e.Header == header {
			return e.Value
		}
	}
	return ""
}

// Has reports whether header is present.
func (r Record) Has(header string) bool {
	for _, e := range r {
		if e.Header == header {
			return true
		}
	}
	return false
}

func (r Record) MarshalJSON() ([]byte, error) {
	row := make(RawRow, len(r))
	for i, e := range r {
		row[i] = Cell{Label: e.Header, Value: e.Value}
	}
	return row.MarshalJSON()
}

// UnmarshalJSON accepts string and number leaves; numbers keep their
// source spelling.
func (r *Record) UnmarshalJSON(data []byte) error {
	var row RawRow
	if err := json.Unmarshal(data, &row); err != nil {
		return err
	}
	out := make(Record, len(row))
	for i, c := range row {
		out[i] = Entry{Header: c.Label, Value: Stringify(c.Value)}
	}
	*r = out
	return nil
}

// Serialize produces the table_data of c. This is the single place that
// decides the persisted and displayed shape of a row.
func Serialize(c Cursor, currency string) []Record {
	out := make([]Record, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		r, err := c.Row(i)
		if err != nil {
			break
		}
		out = append(out, SerializeRow(c.Profile(), r, currency))
	}
	return out
}

// SerializeRow is the record of a single row under profile p.
func SerializeRow(p Profile, r *Row, currency string) Record {
	if p.Derive {
		return serializeCashbook(r, currency)
	}
	return serializePassThrough(r)
}

func serializeCashbook(r *Row, currency string) Record {
	rec := make(Record, 0, len(CanonicalFields)+1)
	d := r.Derived()
	for _, h := range CanonicalFields {
		var s string
		switch fieldKinds[h] {
		case KindDerived:
			v, _ := d.Value(h)
			s = FormatAmount(v, currency)
		case KindEditable:
			in, _ := InputFor(h)
			s = strconv.FormatFloat(r.Input(in), 'f', -1, 64)
		default:
			v, ok := r.Value(h)
			s = Stringify(v)
			if (!ok || s == "") && (h == FieldGrossPremium || h == FieldCancellation) {
				s = "0"
			}
		}
		rec = append(rec, Entry{Header: h, Value: s})
	}
	return append(rec, Entry{Header: FieldBank, Value: r.Bank})
}

func serializePassThrough(r *Row) Record {
	rec := make(Record, 0, len(r.Raw)+1)
	for _, c := range r.Raw {
		if c.Label == FieldBank {
			continue
		}
		rec = append(rec, Entry{Header: c.Label, Value: Stringify(r.Cell(c.Label))})
	}
	return append(rec, Entry{Header: FieldBank, Value: r.Bank})
}
