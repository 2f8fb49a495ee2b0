package forms

import (
	"context"
	"sync"
)

// MemoryStore keeps forms in process memory. Parked forms never expire.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[int64]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[int64]State),
	}
}

// Get returns a copy of the user's state
func (m *MemoryStore) Get(_ context.Context, userID int64) (*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.states[userID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (m *MemoryStore) Set(_ context.Context, userID int64, state *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if state == nil || state.Step == StepIdle {
		delete(m.states, userID)
		return nil
	}
	m.states[userID] = *state
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, userID)
	return nil
}
