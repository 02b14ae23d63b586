// Package workspace holds the live, unsaved ledgers that users edit
// between upload and save.
package workspace

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"CashbookRecon/internal/ledger"
	"CashbookRecon/internal/logger"
	"CashbookRecon/internal/reportstore"
)

var ErrNotFound = errors.New("workspace not found")

// Workspace is one user's working ledger. All methods are safe for
// concurrent use; each call sees and leaves a consistent table.
type Workspace struct {
	mu sync.Mutex

	id         string
	profile    ledger.Profile
	name       string
	posID      string
	currency   string
	bank       string
	table      *ledger.Table
	view       *ledger.View
	createdAt  time.Time
	updatedAt  time.Time
	snapshotAt time.Time
	now        func() time.Time
}

// Options are the header fields of a workspace.
type Options struct {
	Source   string `json:"source"`
	Name     string `json:"name"`
	PosID    string `json:"posId"`
	Currency string `json:"currency"`
}

func newWorkspace(id string, opts Options, now func() time.Time) (*Workspace, error) {
	p, err := ledger.ProfileFor(opts.Source)
	if err != nil {
		return nil, err
	}
	currency, err := normalizeCurrency(opts.Currency)
	if err != nil {
		return nil, err
	}
	table, _ := ledger.Restore(ledger.Snapshot{Source: p.Source})
	at := now()
	return &Workspace{
		id:        id,
		profile:   p,
		name:      strings.TrimSpace(opts.Name),
		posID:     strings.TrimSpace(opts.PosID),
		currency:  currency,
		table:     table,
		createdAt: at,
		updatedAt: at,
		now:       now,
	}, nil
}

func normalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return ledger.DefaultCurrency, nil
	}
	if !ledger.SupportedCurrency(code) {
		return "", &ledger.ValidationError{Field: "currency", Reason: "unsupported currency " + code}
	}
	return code, nil
}

func (w *Workspace) ID() string { return w.id }

func (w *Workspace) Source() string { return w.profile.Source }

func (w *Workspace) UpdatedAt() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.updatedAt
}

func (w *Workspace) touch() { w.updatedAt = w.now() }

// cursor is the active view when a search is set, else the whole table.
func (w *Workspace) cursor() ledger.Cursor {
	if w.view != nil {
		return w.view
	}
	return w.table
}

// Load replaces the working set with rows stamped with bank. Any search is
// dropped. On error the previous table is kept.
func (w *Workspace) Load(rows []ledger.RawRow, bank string) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	t, err := ledger.Load(w.profile, rows, bank)
	if err != nil {
		return 0, err
	}
	w.table = t
	w.view = nil
	w.bank = strings.TrimSpace(bank)
	w.touch()
	logger.Audit("workspace %s: loaded %d %s rows for bank %q", w.id, t.Len(), w.profile.Source, w.bank)
	return t.Len(), nil
}

// Edit sets field of row i on the active view, or on the table when no
// search is set, and returns the recomputed row.
func (w *Workspace) Edit(i int, field string, value any) (RowState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	c := w.cursor()
	r, err := ledger.EditCell(c, i, field, value)
	if err != nil {
		return RowState{}, err
	}
	w.touch()
	return w.rowState(c, i, r), nil
}

// Search sets the active view. An empty term is rejected and the current
// view is left as it was.
func (w *Workspace) Search(term string) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	v, err := ledger.Search(w.table, term)
	if err != nil {
		return 0, err
	}
	w.view = v
	w.touch()
	return v.Len(), nil
}

func (w *Workspace) ResetSearch() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.view = nil
	w.touch()
}

// Clear discards all rows, the search and their edits. The bank and the
// header fields stay.
func (w *Workspace) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.table.Clear()
	w.view = nil
	w.touch()
	logger.Audit("workspace %s: cleared", w.id)
}

func (w *Workspace) SetCurrency(code string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, err := normalizeCurrency(code)
	if err != nil {
		return err
	}
	w.currency = c
	w.touch()
	return nil
}

// SetHeader updates the report name and POS id. Empty values leave the
// current value unchanged.
func (w *Workspace) SetHeader(name, posID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if s := strings.TrimSpace(name); s != "" {
		w.name = s
	}
	if s := strings.TrimSpace(posID); s != "" {
		w.posID = s
	}
	w.touch()
}

func (w *Workspace) reportLocked(today, name, posID string) (reportstore.NewReport, error) {
	r := reportstore.NewReport{
		Name:      name,
		PosID:     posID,
		Date:      today,
		Source:    w.profile.Source,
		Currency:  w.currency,
		TableData: ledger.Serialize(w.cursor(), w.currency),
	}
	if name == "" {
		return r, &ledger.ValidationError{Field: "name", Reason: "a report name is required"}
	}
	return r, r.Validate()
}

// Save serializes the active view, or the whole table, and persists it.
// The workspace is unchanged whether or not the store accepts it.
func (w *Workspace) Save(ctx context.Context, store reportstore.Store) (int64, error) {
	return w.SaveAs(ctx, store, "", "")
}

// SaveAs is Save with the report name and POS id replaced by the non-empty
// arguments. The replacement is kept only once the store accepts the report.
func (w *Workspace) SaveAs(ctx context.Context, store reportstore.Store, name, posID string) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if name = strings.TrimSpace(name); name == "" {
		name = w.name
	}
	if posID = strings.TrimSpace(posID); posID == "" {
		posID = w.posID
	}
	r, err := w.reportLocked(w.now().Format(reportstore.DateFormat), name, posID)
	if err != nil {
		return 0, err
	}
	id, err := store.Save(ctx, r)
	if err != nil {
		logger.Error("workspace %s: save failed: %v", w.id, err)
		return 0, err
	}
	if name != w.name || posID != w.posID {
		w.name, w.posID = name, posID
		w.touch()
	}
	logger.Audit("workspace %s: saved report %d (%s, %d rows)", w.id, id, r.Source, len(r.TableData))
	return id, nil
}
