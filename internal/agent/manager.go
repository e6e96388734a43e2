package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Manager keeps one live companion per user.
type Manager struct {
	deps Deps

	// inits collapses concurrent first requests for the same user.
	inits singleflight.Group

	mu     sync.Mutex
	agents map[string]*Companion
}

// NewManager creates a manager sharing deps across companions.
func NewManager(deps Deps) *Manager {
	return &Manager{deps: deps, agents: make(map[string]*Companion)}
}

// Get returns the user's companion, initializing it on first use. A failed
// initialization is not cached so the next call retries.
func (m *Manager) Get(ctx context.Context, userID string) (*Companion, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id cannot be empty")
	}

	if c := m.live(userID); c != nil {
		return c, nil
	}

	v, err, _ := m.inits.Do(userID, func() (any, error) {
		if c := m.live(userID); c != nil {
			return c, nil
		}
		c := New(userID, m.deps)
		if !c.Initialize(ctx) {
			return nil, fmt.Errorf("failed to initialize agent for user %s", userID)
		}
		m.mu.Lock()
		m.agents[userID] = c
		m.mu.Unlock()
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Companion), nil
}

func (m *Manager) live(userID string) *Companion {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.agents[userID]; ok && c.State() != StateDisposed {
		return c
	}
	return nil
}

// Dispose ends and forgets the user's companion.
func (m *Manager) Dispose(userID string) {
	m.mu.Lock()
	c, ok := m.agents[userID]
	delete(m.agents, userID)
	m.mu.Unlock()

	if ok {
		c.Dispose()
		slog.Info("agent disposed", "user_id", userID)
	}
}

// DisposeAll ends every live companion.
func (m *Manager) DisposeAll() {
	m.mu.Lock()
	agents := m.agents
	m.agents = make(map[string]*Companion)
	m.mu.Unlock()

	for _, c := range agents {
		c.Dispose()
	}
}

// Len returns the number of live companions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.agents)
}
