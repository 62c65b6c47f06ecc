package session

import (
	"context"
	"sync"
)

// session.Store interface implementation
var _ Store = (*Memory)(nil)

// Memory keeps sessions in process, they do not survive restarts
type Memory struct {
	mu sync.RWMutex
	db map[string]Session
}

func NewMemory() *Memory {
	return &Memory{
		db: make(map[string]Session),
	}
}

func (m *Memory) Save(_ context.Context, id string, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.db[id] = s
	return nil
}

func (m *Memory) Load(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.db[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.db, id)
	return nil
}
