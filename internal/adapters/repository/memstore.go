package repository

import (
	"context"
	"sync"

	"github.com/okian/doorlog/internal/domain/model"
)

// MemoryStore keeps telemetry in memory. It backs tests and dry runs.
type MemoryStore struct {
	mu         sync.RWMutex
	records    []model.TelemetryRecord
	boundaries int
	closed     bool
	failWith   error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// FailWith makes every following append return err. Passing nil clears it.
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	s.failWith = err
	s.mu.Unlock()
}

// Append stores one record.
func (s *MemoryStore) Append(_ context.Context, rec model.TelemetryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if s.failWith != nil {
		return s.failWith
	}
	s.records = append(s.records, rec)
	return nil
}

// AppendBoundary counts a marker.
func (s *MemoryStore) AppendBoundary(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if s.failWith != nil {
		return s.failWith
	}
	s.boundaries++
	return nil
}

// Records returns a copy of the stored records.
func (s *MemoryStore) Records(context.Context) ([]model.TelemetryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.TelemetryRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Boundaries returns the number of markers written.
func (s *MemoryStore) Boundaries(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.boundaries, nil
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*CSVStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
