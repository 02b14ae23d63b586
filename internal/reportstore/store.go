// Package reportstore persists saved reconciliation reports.
package reportstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"CashbookRecon/internal/ledger"
)

// DateFormat is the calendar date layout of Report.Date.
const DateFormat = "2006-01-02"

var ErrNotFound = errors.New("report not found")

// StoreError wraps a failure of the underlying database.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("report store %s: %v", e.Op, e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// NewReport is what a caller hands to Save.
type NewReport struct {
	Name      string          `json:"name"`
	PosID     string          `json:"posId"`
	Date      string          `json:"date"`
	Source    string          `json:"source"`
	Currency  string          `json:"currency,omitempty"`
	TableData []ledger.Record `json:"tableData"`
}

// Summary is one line of List.
type Summary struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	PosID     string    `json:"posId"`
	Date      string    `json:"date"`
	Source    string    `json:"source"`
	Currency  string    `json:"currency,omitempty"`
	Bank      string    `json:"bank"`
	RowCount  int       `json:"rowCount"`
	CreatedAt time.Time `json:"createdAt"`
}

// Report is a saved report including its table.
type Report struct {
	Summary
	TableData []ledger.Record `json:"table_data"`
}

// Store is the persistence boundary of the reconciliation core. Reports
// are created once and never updated.
type Store interface {
	Save(ctx context.Context, r NewReport) (int64, error)
	List(ctx context.Context) ([]Summary, error)
	Get(ctx context.Context, id int64) (*Report, error)
	Delete(ctx context.Context, id int64) error
}

// Validate checks the fields every store requires.
func (r *NewReport) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return &ledger.ValidationError{Field: "name", Reason: "a tenant name is required"}
	}
	if !ledger.ValidSource(r.Source) {
		return &ledger.ValidationError{Field: "source", Reason: fmt.Sprintf("unknown source %q", r.Source)}
	}
	if _, err := time.Parse(DateFormat, r.Date); err != nil {
		return &ledger.ValidationError{Field: "date", Reason: "date must be YYYY-MM-DD"}
	}
	if r.TableData == nil {
		return &ledger.ValidationError{Field: "tableData", Reason: "invalid or missing tableData"}
	}
	return nil
}

// bank is the Bank tag of the first row, "N/A" if there is none.
func (r *NewReport) bank() string {
	if len(r.TableData) > 0 {
		if b := r.TableData[0].Get(ledger.FieldBank); b != "" {
			return b
		}
	}
	return "N/A"
}

func (r *NewReport) tableJSON() ([]byte, error) {
	return json.Marshal(r.TableData)
}

func decodeTable(raw []byte) ([]ledger.Record, error) {
	var out []ledger.Record
	if len(raw) == 0 {
		return []ledger.Record{}, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Today returns the current calendar date in DateFormat.
func Today() string {
	return time.Now().Format(DateFormat)
}
