package session

import (
	"errors"
	"sync"

	"arena-matchmaking/models"
)

// ErrSessionClosed is returned by a closed MockSession.
var ErrSessionClosed = errors.New("session closed")

// MockSession is an in-memory session recording every event it receives.
// It is safe for concurrent use.
type MockSession struct {
	mu     sync.Mutex
	id     string
	events []models.Event
	closed bool
}

// NewMockSession creates a session with the given id.
func NewMockSession(id string) *MockSession {
	return &MockSession{id: id}
}

func (m *MockSession) ID() string {
	return m.id
}

func (m *MockSession) Send(ev models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrSessionClosed
	}
	m.events = append(m.events, ev)
	return nil
}

// Close makes further sends fail.
func (m *MockSession) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

// Events returns a copy of the received events.
func (m *MockSession) Events() []models.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Event, len(m.events))
	copy(out, m.events)
	return out
}

// EventsNamed returns the received events with the given name.
func (m *MockSession) EventsNamed(name string) []models.Event {
	var out []models.Event
	for _, ev := range m.Events() {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

// Reset clears the recorded events.
func (m *MockSession) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}
