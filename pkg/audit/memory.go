package audit

import (
	"context"
	"sync"
	"time"
)

// MemoryStorage is an in-memory Storage backend for tests and ephemeral
// deployments.
type MemoryStorage struct {
	mu      sync.RWMutex
	records []*Record
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Write persists one record.
func (m *MemoryStorage) Write(ctx context.Context, record *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

// Recent returns up to limit records, newest first.
func (m *MemoryStorage) Recent(ctx context.Context, limit int) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.records) {
		limit = len(m.records)
	}
	out := make([]*Record, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

// DeleteBefore removes records that started before the cutoff.
func (m *MemoryStorage) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.records[:0]
	var deleted int64
	for _, record := range m.records {
		if record.StartedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, record)
	}
	m.records = kept
	return deleted, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStorage) Close() error {
	return nil
}

// Len returns the number of stored records.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
