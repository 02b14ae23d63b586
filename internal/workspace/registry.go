package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"CashbookRecon/internal/logger"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Registry tracks live workspaces. Idle workspaces expire after the TTL;
// every read slides the expiry. When dir is set, snapshots of live
// workspaces are kept there as <id>.json.
type Registry struct {
	cache *cache.Cache
	dir   string
	now   func() time.Time
}

func NewRegistry(ttl, cleanup time.Duration, dir string, loc *time.Location) *Registry {
	if loc == nil {
		loc = time.Local
	}
	r := &Registry{
		cache: cache.New(ttl, cleanup),
		dir:   strings.TrimSpace(dir),
		now:   func() time.Time { return time.Now().In(loc) },
	}
	r.cache.OnEvicted(func(id string, _ interface{}) {
		r.removeSnapshot(id)
		logger.Info("workspace %s evicted", id)
	})
	return r
}

func (r *Registry) Create(opts Options) (*Workspace, error) {
	w, err := newWorkspace(uuid.New().String(), opts, r.now)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault(w.id, w)
	logger.Audit("workspace %s: created (%s)", w.id, w.profile.Source)
	return w, nil
}

func (r *Registry) Get(id string) (*Workspace, error) {
	v, ok := r.cache.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	w := v.(*Workspace)
	// Replace fails when a Delete or expiry got there first.
	if err := r.cache.Replace(id, w, cache.DefaultExpiration); err != nil {
		return nil, ErrNotFound
	}
	return w, nil
}

func (r *Registry) Delete(id string) error {
	if _, ok := r.cache.Get(id); !ok {
		return ErrNotFound
	}
	r.cache.Delete(id)
	logger.Audit("workspace %s: deleted", id)
	return nil
}

// List returns live workspaces, oldest first.
func (r *Registry) List() []*Workspace {
	items := r.cache.Items()
	out := make([]*Workspace, 0, len(items))
	for _, it := range items {
		out = append(out, it.Object.(*Workspace))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].createdAt.Equal(out[j].createdAt) {
			return out[i].id < out[j].id
		}
		return out[i].createdAt.Before(out[j].createdAt)
	})
	return out
}

func (r *Registry) Count() int { return r.cache.ItemCount() }

// Restore makes a snapshot live again, replacing any workspace with the
// same id. A snapshot without an id gets a fresh one.
func (r *Registry) Restore(s Snapshot) (*Workspace, error) {
	if strings.TrimSpace(s.ID) == "" {
		s.ID = uuid.New().String()
	}
	w, err := restoreWorkspace(s, r.now)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault(w.id, w)
	logger.Audit("workspace %s: restored with %d rows", w.id, w.table.Len())
	return w, nil
}

// SnapshotAll writes a snapshot of every workspace changed since its last
// snapshot. It returns how many were written.
func (r *Registry) SnapshotAll() (int, error) {
	if r.dir == "" {
		return 0, nil
	}
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return 0, err
	}
	var (
		written int
		errs    []error
	)
	for _, w := range r.List() {
		s, ok := w.pendingSnapshot()
		if !ok {
			continue
		}
		if err := r.writeSnapshot(s); err != nil {
			errs = append(errs, fmt.Errorf("workspace %s: %w", s.ID, err))
			continue
		}
		w.markSnapshotted(s.UpdatedAt)
		written++
	}
	return written, errors.Join(errs...)
}

func (r *Registry) writeSnapshot(s Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(r.dir, s.ID+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), r.snapshotPath(s.ID))
}

// RestoreAll loads every snapshot in the directory. Files that do not
// decode or restore are skipped and reported in the error.
func (r *Registry) RestoreAll() (int, error) {
	if r.dir == "" {
		return 0, nil
	}
	files, err := filepath.Glob(filepath.Join(r.dir, "*.json"))
	if err != nil {
		return 0, err
	}
	var (
		restored int
		errs     []error
	)
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		var s Snapshot
		if err := json.Unmarshal(data, &s); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(path), err))
			continue
		}
		w, err := r.Restore(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(path), err))
			continue
		}
		w.markSnapshotted(w.UpdatedAt())
		restored++
	}
	return restored, errors.Join(errs...)
}

func (r *Registry) snapshotPath(id string) string {
	return filepath.Join(r.dir, id+".json")
}

func (r *Registry) removeSnapshot(id string) {
	if r.dir == "" {
		return
	}
	if err := os.Remove(r.snapshotPath(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Error("removing snapshot of workspace %s: %v", id, err)
	}
}
