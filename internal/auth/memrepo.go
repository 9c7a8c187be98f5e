package auth

import (
	"context"
	"strings"
	"sync"
)

// memrepo is a development-only in-memory repository used when no
// database is configured.
type memrepo struct {
	mu         sync.RWMutex
	byID       map[string]*User
	byUsername map[string]*User
}

func NewMemoryRepository() Repository {
	return &memrepo{
		byID:       make(map[string]*User),
		byUsername: make(map[string]*User),
	}
}

func (m *memrepo) Create(ctx context.Context, u *User) error {
	key := strings.ToLower(u.Username)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byUsername[key]; exists {
		return ErrUsernameTaken
	}
	cp := *u
	m.byID[u.ID] = &cp
	m.byUsername[key] = &cp
	return nil
}

func (m *memrepo) ByUsername(ctx context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.byUsername[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memrepo) ByID(ctx context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}
