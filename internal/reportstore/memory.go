package reportstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"CashbookRecon/internal/ledger"
)

// MemoryStore keeps reports in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	nextID  int64
	reports map[int64]*Report
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reports: make(map[int64]*Report)}
}

func (m *MemoryStore) Save(ctx context.Context, r NewReport) (int64, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, storeErr("save", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.reports[m.nextID] = &Report{
		Summary: Summary{
			ID:        m.nextID,
			Name:      r.Name,
			PosID:     r.PosID,
			Date:      r.Date,
			Source:    r.Source,
			Currency:  r.Currency,
			Bank:      r.bank(),
			RowCount:  len(r.TableData),
			CreatedAt: time.Now().UTC(),
		},
		TableData: copyTable(r.TableData),
	}
	return m.nextID, nil
}

func (m *MemoryStore) List(ctx context.Context) ([]Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Summary, 0, len(m.reports))
	for _, r := range m.reports {
		out = append(out, r.Summary)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) Get(ctx context.Context, id int64) (*Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	cp.TableData = copyTable(r.TableData)
	return &cp, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reports[id]; !ok {
		return ErrNotFound
	}
	delete(m.reports, id)
	return nil
}

func copyTable(in []ledger.Record) []ledger.Record {
	out := make([]ledger.Record, len(in))
	for i, rec := range in {
		out[i] = append(ledger.Record(nil), rec...)
	}
	return out
}
