package session

import (
	"context"
	"sync"
	"time"

	"github.com/lanepark/chesshall/internal/domain"
)

// memoryStore is used for development without Redis and in tests. Each
// record carries its own mutex so read-modify-writes on one join code
// serialize while other codes proceed in parallel.
type memoryStore struct {
	mu      sync.RWMutex
	records map[string]*memoryRecord
}

type memoryRecord struct {
	mu  sync.Mutex
	rec *domain.Session
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() Store {
	return &memoryStore{records: make(map[string]*memoryRecord)}
}

func normCode(code string) string {
	return toLowerTrim(code)
}

func (m *memoryStore) Create(ctx context.Context, rec *domain.Session) error {
	code := normCode(rec.JoinCode)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[code]; exists {
		return ErrCodeTaken
	}
	m.records[code] = &memoryRecord{rec: rec.Clone()}
	return nil
}

func (m *memoryStore) Get(ctx context.Context, joinCode string) (*domain.Session, error) {
	m.mu.RLock()
	entry, ok := m.records[normCode(joinCode)]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.rec.Clone(), nil
}

func (m *memoryStore) Exists(ctx context.Context, joinCode string) (bool, error) {
	m.mu.RLock()
	_, ok := m.records[normCode(joinCode)]
	m.mu.RUnlock()
	return ok, nil
}

func (m *memoryStore) Update(ctx context.Context, joinCode string, fn func(*domain.Session) error) (*domain.Session, error) {
	m.mu.RLock()
	entry, ok := m.records[normCode(joinCode)]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	cur := entry.rec.Clone()
	if err := fn(cur); err != nil {
		return nil, err
	}
	cur.Version++
	cur.UpdatedAt = time.Now().UTC()
	entry.rec = cur
	return cur.Clone(), nil
}
