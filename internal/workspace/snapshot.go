package workspace

import (
	"fmt"
	"time"

	"CashbookRecon/internal/ledger"

	"github.com/google/uuid"
)

// Snapshot is the resumable form of a workspace. It is what the snapshot
// job writes to disk and what clients download to resume later.
type Snapshot struct {
	ID        string          `json:"id"`
	Source    string          `json:"source"`
	Name      string          `json:"name"`
	PosID     string          `json:"posId"`
	Currency  string          `json:"currency"`
	Bank      string          `json:"bank"`
	Search    string          `json:"search,omitempty"`
	Table     ledger.Snapshot `json:"table"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (w *Workspace) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

func (w *Workspace) snapshotLocked() Snapshot {
	s := Snapshot{
		ID:        w.id,
		Source:    w.profile.Source,
		Name:      w.name,
		PosID:     w.posID,
		Currency:  w.currency,
		Bank:      w.bank,
		Table:     w.table.Snapshot(),
		CreatedAt: w.createdAt,
		UpdatedAt: w.updatedAt,
	}
	if w.view != nil {
		s.Search = w.view.Term
	}
	return s
}

// pendingSnapshot returns a snapshot when the workspace changed since the
// last one was written.
func (w *Workspace) pendingSnapshot() (Snapshot, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.snapshotAt.IsZero() && !w.updatedAt.After(w.snapshotAt) {
		return Snapshot{}, false
	}
	return w.snapshotLocked(), true
}

func (w *Workspace) markSnapshotted(at time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if at.After(w.snapshotAt) {
		w.snapshotAt = at
	}
}

func restoreWorkspace(s Snapshot, now func() time.Time) (*Workspace, error) {
	if _, err := uuid.Parse(s.ID); err != nil {
		return nil, &ledger.ValidationError{Field: "id", Reason: "snapshot id is not a uuid"}
	}
	w, err := newWorkspace(s.ID, Options{Source: s.Source, Name: s.Name, PosID: s.PosID, Currency: s.Currency}, now)
	if err != nil {
		return nil, err
	}
	if s.Table.Source == "" {
		s.Table.Source = w.profile.Source
	}
	table, err := ledger.Restore(s.Table)
	if err != nil {
		return nil, err
	}
	if table.Profile().Source != w.profile.Source {
		return nil, &ledger.ValidationError{
			Field:  "source",
			Reason: fmt.Sprintf("table source %q does not match workspace source %q", table.Profile().Source, w.profile.Source),
		}
	}
	w.table = table
	w.bank = s.Bank
	if s.Search != "" {
		if w.view, err = ledger.Search(table, s.Search); err != nil {
			return nil, err
		}
	}
	if !s.CreatedAt.IsZero() {
		w.createdAt = s.CreatedAt
	}
	if !s.UpdatedAt.IsZero() {
		w.updatedAt = s.UpdatedAt
	}
	return w, nil
}
