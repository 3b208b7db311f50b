package session

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"railviz/internal/domain"
)

// Manager tracks live sessions by id
type Manager struct {
	cfg   Config
	hooks Hooks

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager
func NewManager(cfg Config, hooks Hooks) *Manager {
	return &Manager{
		cfg:      cfg,
		hooks:    hooks,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session rendering graph. Nothing is registered when
// the graph is rejected.
func (m *Manager) Create(ctx context.Context, graph *domain.Graph) (*Session, error) {
	return m.CreateWithID(ctx, uuid.NewString(), graph)
}

// CreateWithID is Create with a caller-chosen id
func (m *Manager) CreateWithID(ctx context.Context, id string, graph *domain.Graph) (*Session, error) {
	s := New(id, m.cfg, m.hooks)
	if err := s.Load(ctx, graph); err != nil {
		s.Close()
		return nil, err
	}

	m.mu.Lock()
	old := m.sessions[id]
	m.sessions[id] = s
	m.mu.Unlock()

	if old != nil {
		old.Close()
	}
	return s, nil
}

// Get returns a session by id
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// List returns the state of every session, oldest first
func (m *Manager) List() []State {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	states := make([]State, 0, len(sessions))
	for _, s := range sessions {
		states = append(states, s.State())
	}
	sort.Slice(states, func(i, j int) bool {
		if states[i].CreatedAt.Equal(states[j].CreatedAt) {
			return states[i].ID < states[j].ID
		}
		return states[i].CreatedAt.Before(states[j].CreatedAt)
	})
	return states
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Reload fully re-renders a session. A nil graph re-renders the payload the
// session already holds. The auto-fit runs again.
func (m *Manager) Reload(ctx context.Context, id string, graph *domain.Graph) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	if graph == nil {
		graph = s.Graph()
		if graph == nil {
			return ErrNotLoaded
		}
	}
	return s.Load(ctx, graph)
}

// Delete closes and forgets a session
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	s.Close()
	return nil
}

// Close closes every session
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
