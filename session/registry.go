package session

import (
	"sync"

	"arena-matchmaking/models"
	"go.uber.org/zap"
)

// Registry maps a player identity to its live connection
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
	logger   *zap.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]models.Session),
		logger:   logger,
	}
}

// Register binds the player to the connection, replacing any previous one
func (r *Registry) Register(playerID string, s models.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.sessions[playerID]; ok && prev.ID() != s.ID() {
		r.logger.Debug("Replacing player session",
			zap.String("player_id", playerID),
			zap.String("previous_session", prev.ID()),
			zap.String("session", s.ID()),
		)
	}
	r.sessions[playerID] = s
}

// Unregister removes the player's mapping
func (r *Registry) Unregister(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, playerID)
}

// UnregisterSession removes the mapping only while it still points at s.
// Returns false when the player has since registered another connection.
func (r *Registry) UnregisterSession(playerID string, s models.Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.sessions[playerID]
	if !ok || current.ID() != s.ID() {
		return false
	}
	delete(r.sessions, playerID)
	return true
}

// Lookup returns the player's current connection
func (r *Registry) Lookup(playerID string) (models.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[playerID]
	return s, ok
}

// Count returns the number of registered players
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
