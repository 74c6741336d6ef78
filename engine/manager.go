package engine

import (
	"sync"

	"godrive/store"
	"godrive/transport"
)

// Manager keeps one engine per signed-in user. Dropping a session cancels its
// subscriptions so no notification still in flight can touch torn-down state.
type Manager struct {
	store     store.Client
	transport transport.Adapter

	mu       sync.Mutex
	sessions map[string]*Engine
}

func NewManager(st store.Client, tr transport.Adapter) *Manager {
	return &Manager{
		store:     st,
		transport: tr,
		sessions:  map[string]*Engine{},
	}
}

// Session returns the user's engine, starting one on first use.
func (m *Manager) Session(userID, email, token string) *Engine {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.sessions[userID]; ok {
		return e
	}
	e := New(m.store, m.transport, userID, email, token)
	m.sessions[userID] = e
	return e
}

// Drop tears down the user's session, if any.
func (m *Manager) Drop(userID string) {
	m.mu.Lock()
	e, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if ok {
		e.Close()
	}
}

// CloseAll tears down every session; used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Engine, 0, len(m.sessions))
	for _, e := range m.sessions {
		sessions = append(sessions, e)
	}
	m.sessions = map[string]*Engine{}
	m.mu.Unlock()

	for _, e := range sessions {
		e.Close()
	}
}
