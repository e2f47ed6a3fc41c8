package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultRatingDelta is the fixed rating exchanged on every completed match.
const DefaultRatingDelta = 30

// MatchState is the lifecycle state of a match
type MatchState string

const (
	MatchPending   MatchState = "pending"
	MatchCompleted MatchState = "completed"
	MatchDisputed  MatchState = "disputed"
)

// Terminal reports whether no further transition is allowed.
func (s MatchState) Terminal() bool {
	return s == MatchCompleted || s == MatchDisputed
}

// Outcome is a result declared by one participant from their own perspective
type Outcome string

const (
	OutcomeUnset Outcome = ""
	OutcomeWin   Outcome = "win"
	OutcomeLoss  Outcome = "loss"
)

// ParseOutcome accepts only "win" and "loss".
func ParseOutcome(s string) (Outcome, bool) {
	switch Outcome(s) {
	case OutcomeWin, OutcomeLoss:
		return Outcome(s), true
	default:
		return OutcomeUnset, false
	}
}

// Resolution names the path that moved a match to a terminal state
type Resolution string

const (
	ResolvedByDeclare Resolution = "declare"
	ResolvedByOracle  Resolution = "oracle"
)

// Match is a head-to-head pairing tracked from creation to resolution
type Match struct {
	ID          string     `json:"match_id"`
	PlayerA     string     `json:"player_a"` // The player whose admission formed the match
	PlayerB     string     `json:"player_b"` // The opponent found in the queue
	State       MatchState `json:"state"`
	DeclaredA   Outcome    `json:"declared_a,omitempty"`
	DeclaredB   Outcome    `json:"declared_b,omitempty"`
	Winner      string     `json:"winner,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	RatingDelta int        `json:"rating_delta"`
	ResolvedBy  Resolution `json:"resolved_by,omitempty"`
}

// NewMatch creates a pending match between two players
func NewMatch(playerA, playerB string, delta int, createdAt time.Time) *Match {
	return &Match{
		ID:          uuid.New().String(),
		PlayerA:     playerA,
		PlayerB:     playerB,
		State:       MatchPending,
		CreatedAt:   createdAt,
		RatingDelta: delta,
	}
}

// HasPlayer reports whether the player participates in the match
func (m *Match) HasPlayer(playerID string) bool {
	return m.PlayerA == playerID || m.PlayerB == playerID
}

// Opponent returns the other participant's id
func (m *Match) Opponent(playerID string) string {
	if m.PlayerA == playerID {
		return m.PlayerB
	}
	return m.PlayerA
}

// Loser returns the participant that is not the winner, empty when unresolved
func (m *Match) Loser() string {
	if m.Winner == "" {
		return ""
	}
	return m.Opponent(m.Winner)
}

// BothDeclared reports whether both participants submitted an outcome
func (m *Match) BothDeclared() bool {
	return m.DeclaredA != OutcomeUnset && m.DeclaredB != OutcomeUnset
}

// ConsistentWinner returns the winner when the two declarations agree.
func (m *Match) ConsistentWinner() (string, bool) {
	switch {
	case m.DeclaredA == OutcomeWin && m.DeclaredB == OutcomeLoss:
		return m.PlayerA, true
	case m.DeclaredA == OutcomeLoss && m.DeclaredB == OutcomeWin:
		return m.PlayerB, true
	default:
		return "", false
	}
}

// Clone returns a copy safe to hand out of the lifecycle lock
func (m *Match) Clone() *Match {
	c := *m
	if m.ResolvedAt != nil {
		t := *m.ResolvedAt
		c.ResolvedAt = &t
	}
	return &c
}
