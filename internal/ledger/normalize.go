package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Cell is one labelled value of a spreadsheet row.
type Cell struct {
	Label string
	Value any
}

// RawRow is a spreadsheet row with its column labels kept verbatim and in
// source order. The order decides which column wins when two labels
// normalize to the same field.
type RawRow []Cell

// Normalize folds a column label for comparison: trim, lowercase and drop
// every whitespace, underscore and slash.
func Normalize(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '_' || r == '/' {
			return -1
		}
		return r
	}, label)
}

// Resolve returns the value of the first cell whose normalized label equals
// the normalized field name.
func Resolve(row RawRow, field string) (any, bool) {
	want := Normalize(field)
	for _, c := range row {
		if Normalize(c.Label) == want {
			return c.Value, true
		}
	}
	return nil, false
}

// Get returns the value stored under the exact label.
func (r RawRow) Get(label string) (any, bool) {
	for _, c := range r {
		if c.Label == label {
			return c.Value, true
		}
	}
	return nil, false
}

// Labels returns the column labels in source order.
func (r RawRow) Labels() []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = c.Label
	}
	return out
}

// column finds the label of the column a field name refers to: the exact
// label if present, else the first label that normalizes the same.
func (r RawRow) column(field string) (string, bool) {
	if _, ok := r.Get(field); ok {
		return field, true
	}
	want := Normalize(field)
	for _, c := range r {
		if Normalize(c.Label) == want {
			return c.Label, true
		}
	}
	return "", false
}

// set returns a copy of r with the cell under the exact label set to v.
func (r RawRow) set(label string, v any) RawRow {
	out := make(RawRow, len(r), len(r)+1)
	copy(out, r)
	for i, c := range out {
		if c.Label == label {
			out[i].Value = v
			return out
		}
	}
	return append(out, Cell{Label: label, Value: v})
}

// with returns a copy of r where label is set to v, replacing an existing
// cell with the same normalized label or appending a new one.
func (r RawRow) with(label string, v any) RawRow {
	out := make(RawRow, len(r), len(r)+1)
	copy(out, r)
	want := Normalize(label)
	for i, c := range out {
		if Normalize(c.Label) == want {
			out[i].Value = v
			return out
		}
	}
	return append(out, Cell{Label: label, Value: v})
}

func (r RawRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c.Label)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(c.Value)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", c.Label, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping its key order. Numbers are
// kept as json.Number so the source spelling survives.
func (r *RawRow) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("row must be a JSON object")
	}
	row := RawRow{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		label, _ := tok.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("column %q: %w", label, err)
		}
		row = append(row, Cell{Label: label, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = row
	return nil
}
