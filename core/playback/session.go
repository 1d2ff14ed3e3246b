package playback

import (
	"fmt"
	"sync"
)

// Manager owns the playback controllers. It is constructed once in
// server.Start and injected into the handlers — there is no package
// level session state. Each user gets at most one controller; a new
// load replaces what that controller was playing, never opens a second
// resource.
type Manager struct {
	engine Engine
	store  ProgressStore

	mu       sync.Mutex
	sessions map[string]*Controller
}

// NewManager creates a session manager using the given engine and
// progress store.
func NewManager(engine Engine, store ProgressStore) *Manager {
	return &Manager{
		engine:   engine,
		store:    store,
		sessions: make(map[string]*Controller),
	}
}

// sessionKey distinguishes authenticated users from anonymous clients.
// Playback itself does not require sign-in; anonymous sessions are
// keyed by a client-supplied identifier and get no persistence.
func sessionKey(userID int64, clientID string) string {
	if userID != 0 {
		return fmt.Sprintf("u:%d", userID)
	}
	return "c:" + clientID
}

// Session returns the controller for this user or client, creating it
// on first use.
func (m *Manager) Session(userID int64, clientID string) *Controller {
	key := sessionKey(userID, clientID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.sessions[key]; ok {
		return c
	}
	c := NewController(m.engine, m.store, userID)
	m.sessions[key] = c
	return c
}

// Peek returns the controller if one exists, nil otherwise.
func (m *Manager) Peek(userID int64, clientID string) *Controller {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[sessionKey(userID, clientID)]
}

// StopAll stops every live session. Used at shutdown so stop saves get
// a chance to run.
func (m *Manager) StopAll() {
	m.mu.Lock()
	sessions := make([]*Controller, 0, len(m.sessions))
	for _, c := range m.sessions {
		sessions = append(sessions, c)
	}
	m.mu.Unlock()

	for _, c := range sessions {
		c.Stop()
	}
}
