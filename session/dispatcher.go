package session

import (
	"arena-matchmaking/metrics"
	"arena-matchmaking/models"
	"go.uber.org/zap"
)

// Dispatcher delivers lifecycle events to players.
// Delivery is at-most-once: events for absent or failing sessions are dropped.
type Dispatcher struct {
	registry *Registry
	metrics  metrics.Metrics
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher on top of the registry
func NewDispatcher(registry *Registry, m metrics.Metrics, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		metrics:  m,
		logger:   logger,
	}
}

// Notify sends the event to the player's registered session, if any
func (d *Dispatcher) Notify(playerID string, ev models.Event) {
	s, ok := d.registry.Lookup(playerID)
	if !ok {
		d.metrics.IncNotificationsDropped()
		d.logger.Debug("No session for player, dropping event",
			zap.String("player_id", playerID),
			zap.String("event", ev.Name),
		)
		return
	}
	d.deliver(playerID, s, ev)
}

// Deliver sends the event to a known session
func (d *Dispatcher) Deliver(playerID string, s models.Session, ev models.Event) {
	if s == nil {
		d.metrics.IncNotificationsDropped()
		return
	}
	d.deliver(playerID, s, ev)
}

func (d *Dispatcher) deliver(playerID string, s models.Session, ev models.Event) {
	if err := s.Send(ev); err != nil {
		d.metrics.IncNotificationsDropped()
		d.logger.Warn("Failed to deliver event",
			zap.String("player_id", playerID),
			zap.String("session", s.ID()),
			zap.String("event", ev.Name),
			zap.Error(err),
		)
		return
	}
	d.metrics.IncNotificationsSent()
}
