package progress

import (
	"context"
	"sync"
)

// Mock is an in-memory Gateway for testing.
type Mock struct {
	mu      sync.Mutex
	records map[string]Record // keyed by userID + "\x00" + audiobookID
	upserts int
	err     error
}

// Verify Mock implements Gateway at compile time.
var _ Gateway = (*Mock)(nil)

// NewMock creates an empty in-memory gateway.
func NewMock() *Mock {
	return &Mock{records: make(map[string]Record)}
}

func (m *Mock) key(userID, audiobookID string) string {
	return userID + "\x00" + audiobookID
}

func (m *Mock) Upsert(_ context.Context, userID string, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	if m.err != nil {
		return m.err
	}
	m.records[m.key(userID, rec.AudiobookID)] = rec
	return nil
}

func (m *Mock) Fetch(_ context.Context, userID, audiobookID string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	rec, ok := m.records[m.key(userID, audiobookID)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *Mock) FetchAll(_ context.Context, userID string) (map[string]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]Record)
	for k, rec := range m.records {
		if len(k) > len(userID) && k[:len(userID)] == userID && k[len(userID)] == 0 {
			out[rec.AudiobookID] = rec
		}
	}
	return out, nil
}

// Test helpers

// SetError makes every subsequent call fail with err.
func (m *Mock) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Seed stores a record directly.
func (m *Mock) Seed(userID string, rec Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[m.key(userID, rec.AudiobookID)] = rec
}

// Get returns the stored record, if any, without the Gateway error plumbing.
func (m *Mock) Get(userID, audiobookID string) (Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[m.key(userID, audiobookID)]
	return rec, ok
}

// UpsertCount reports how many Upsert calls were made, including failures.
func (m *Mock) UpsertCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upserts
}
