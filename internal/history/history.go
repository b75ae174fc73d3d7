package history

import (
	"sync"
	"time"

	"github.com/urlmon/urlmon/internal/domain"
)

// window holds one target's results, oldest first. Each window has its own
// lock so targets never contend with each other.
type window struct {
	mu      sync.Mutex
	entries []domain.CheckResult
}

// Store keeps a bounded, append-only result history per target. The bound
// is time-based: entries older than the retention period are removed by
// EvictExpired sweeps; Record itself never waits on eviction. The target
// set is fixed at construction, so the map itself is never written after
// New and needs no lock.
type Store struct {
	retention time.Duration
	windows   map[string]*window
}

func New(targets []domain.Target, retention time.Duration) *Store {
	s := &Store{
		retention: retention,
		windows:   make(map[string]*window, len(targets)),
	}
	for _, t := range targets {
		s.windows[t.Name] = &window{entries: make([]domain.CheckResult, 0, 64)}
	}
	return s
}

// Record appends one result to its target's window. Unknown target names
// return domain.ErrNotFound.
func (s *Store) Record(r domain.CheckResult) error {
	w, ok := s.windows[r.TargetName]
	if !ok {
		return domain.ErrNotFound
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(w.entries, r)
	return nil
}

// Recent returns up to limit of the newest entries, oldest first. limit <= 0
// means the whole window. The returned slice is a copy; an empty window
// yields an empty slice, not an error.
func (s *Store) Recent(name string, limit int) ([]domain.CheckResult, error) {
	w, ok := s.windows[name]
	if !ok {
		return nil, domain.ErrNotFound
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	n := len(w.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.CheckResult, n)
	copy(out, w.entries[len(w.entries)-n:])
	return out, nil
}

// Latest returns the newest entry for the target. ok is false when the
// target exists but has no history yet.
func (s *Store) Latest(name string) (domain.CheckResult, bool, error) {
	w, ok := s.windows[name]
	if !ok {
		return domain.CheckResult{}, false, domain.ErrNotFound
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.entries) == 0 {
		return domain.CheckResult{}, false, nil
	}
	return w.entries[len(w.entries)-1], true, nil
}

// EvictExpired drops every entry older than the retention period, measured
// against now, and reports how many were removed. Safe to run concurrently
// with Record; each window is swept under its own lock.
func (s *Store) EvictExpired(now time.Time) int {
	cutoff := now.Add(-s.retention)
	total := 0
	for _, w := range s.windows {
		w.mu.Lock()
		total += w.trim(cutoff)
		w.mu.Unlock()
	}
	return total
}

// trim removes entries at or before cutoff. Caller holds w.mu. Entries are
// kept only when strictly newer than the cutoff, so an entry exactly at the
// retention boundary is gone.
func (w *window) trim(cutoff time.Time) int {
	i := 0
	for i < len(w.entries) && !w.entries[i].CheckedAt.After(cutoff) {
		i++
	}
	if i == 0 {
		return 0
	}
	n := copy(w.entries, w.entries[i:])
	w.entries = w.entries[:n]
	return i
}
