package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/callsight/callsight/internal/domain"
)

// MemoryCallStore is an in-memory call store with the same semantics as the
// SQLite store. Used by tests and by serve --ephemeral.
type MemoryCallStore struct {
	mu        sync.RWMutex
	windows   map[string]map[int]domain.Window // call ID → window number → window
	analytics map[string][]domain.AnalyticsRecord
}

// NewMemoryCallStore creates an empty in-memory call store.
func NewMemoryCallStore() *MemoryCallStore {
	return &MemoryCallStore{
		windows:   make(map[string]map[int]domain.Window),
		analytics: make(map[string][]domain.AnalyticsRecord),
	}
}

// PutWindow inserts or replaces a window.
func (s *MemoryCallStore) PutWindow(ctx context.Context, w domain.Window) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}

	call, ok := s.windows[w.CallID]
	if !ok {
		call = make(map[int]domain.Window)
		s.windows[w.CallID] = call
	}
	call[w.WindowNum] = w
	return nil
}

// WindowsBefore returns windows of the call numbered below windowNum, oldest first.
func (s *MemoryCallStore) WindowsBefore(ctx context.Context, callID string, windowNum int) ([]domain.Window, error) {
	return s.collect(callID, func(n int) bool { return n < windowNum }), nil
}

// AllWindows returns every window of the call, oldest first.
func (s *MemoryCallStore) AllWindows(ctx context.Context, callID string) ([]domain.Window, error) {
	return s.collect(callID, func(int) bool { return true }), nil
}

func (s *MemoryCallStore) collect(callID string, keep func(int) bool) []domain.Window {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Window
	for n, w := range s.windows[callID] {
		if keep(n) {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WindowNum < out[j].WindowNum })
	return out
}

// PutAnalytics stores an analytics record.
func (s *MemoryCallStore) PutAnalytics(ctx context.Context, rec domain.AnalyticsRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.analytics[rec.ClientEmail]
	for i, existing := range records {
		if existing.CreatedAt.Equal(rec.CreatedAt) {
			records[i] = rec
			return nil
		}
	}
	s.analytics[rec.ClientEmail] = append(records, rec)
	return nil
}

// LatestAnalytics returns the client's most recent record, or nil.
func (s *MemoryCallStore) LatestAnalytics(ctx context.Context, clientEmail string) (*domain.AnalyticsRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.analytics[clientEmail]
	if len(records) == 0 {
		return nil, nil
	}
	latest := records[0]
	for _, rec := range records[1:] {
		if rec.CreatedAt.After(latest.CreatedAt) {
			latest = rec
		}
	}
	return &latest, nil
}
