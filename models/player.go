package models

import (
	"time"
)

// DefaultRating is the rating a freshly registered account starts with.
const DefaultRating = 1000

// Player is the read-only projection of an account held by the matchmaking core
type Player struct {
	ID          string `json:"id"`           // Account identifier
	DisplayName string `json:"display_name"` // Public name shown to opponents
	Rating      int    `json:"rating"`       // Current rating, never negative
	Wins        int    `json:"wins"`
	Losses      int    `json:"losses"`
	ExternalTag string `json:"external_tag"` // Opaque reference used by the result oracle
}

// NewPlayer creates a player with the default rating
func NewPlayer(id, displayName, externalTag string) *Player {
	return &Player{
		ID:          id,
		DisplayName: displayName,
		Rating:      DefaultRating,
		ExternalTag: externalTag,
	}
}

// Profile returns the public part of the player shown to an opponent
func (p *Player) Profile() Opponent {
	return Opponent{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		Rating:      p.Rating,
	}
}

// QueueEntry is a player waiting for an opponent
type QueueEntry struct {
	PlayerID    string    `json:"player_id"`
	DisplayName string    `json:"display_name"`
	Rating      int       `json:"rating"`    // Rating snapshot taken at admission
	JoinedAt    time.Time `json:"joined_at"` // Admission time
	Session     Session   `json:"-"`         // Connection that asked to be queued
}

// NewQueueEntry builds an entry from the player's current projection
func NewQueueEntry(p *Player, session Session, joinedAt time.Time) *QueueEntry {
	return &QueueEntry{
		PlayerID:    p.ID,
		DisplayName: p.DisplayName,
		Rating:      p.Rating,
		JoinedAt:    joinedAt,
		Session:     session,
	}
}

// Profile returns the public profile captured at admission
func (e *QueueEntry) Profile() Opponent {
	return Opponent{
		ID:          e.PlayerID,
		DisplayName: e.DisplayName,
		Rating:      e.Rating,
	}
}

// Session is a live connection able to receive events.
type Session interface {
	ID() string
	Send(ev Event) error
}
