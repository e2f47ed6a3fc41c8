package service

import (
	"context"

	"arena-matchmaking/models"
)

// PlayerStore is the account store owning player records.
type PlayerStore interface {
	GetPlayer(ctx context.Context, playerID string) (*models.Player, error)
	// ApplySettlement atomically applies models.Settle to both accounts.
	ApplySettlement(ctx context.Context, winnerID, loserID string, delta int) (*models.Settlement, error)
}

// Archive keeps a durable copy of match records.
type Archive interface {
	SaveMatch(ctx context.Context, m *models.Match) error
}

// EventPublisher feeds lifecycle events to external read-models.
type EventPublisher interface {
	Publish(ctx context.Context, ev models.MatchEvent) error
}

// Notifier delivers real-time events to players.
type Notifier interface {
	Notify(playerID string, ev models.Event)
	Deliver(playerID string, s models.Session, ev models.Event)
}

// SettleFunc persists the rating exchange of a completed match.
type SettleFunc func(winnerID, loserID string, delta int) (*models.Settlement, error)
