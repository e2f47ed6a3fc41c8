package models

import (
	"encoding/json"
	"time"
)

// Event names of the real-time channel
const (
	EventRegisterUser  = "register_user"
	EventJoinQueue     = "join_queue"
	EventLeaveQueue    = "leave_queue"
	EventDeclareResult = "declare_result"

	EventQueueJoined   = "queue_joined"
	EventMatchFound    = "match_found"
	EventMatchResolved = "match_resolved"
	EventMatchDisputed = "match_disputed"
	EventError         = "error"
)

// Event is an outbound frame of the real-time channel
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data,omitempty"`
}

// InboundEvent is a frame received from a client
type InboundEvent struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// Opponent is the public profile sent with match_found
type Opponent struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Rating      int    `json:"rating"`
}

// QueueJoinedPayload acknowledges an admission
type QueueJoinedPayload struct {
	Position int `json:"position"`
}

// MatchFoundPayload is sent to each side of a new match
type MatchFoundPayload struct {
	MatchID  string   `json:"matchId"`
	Opponent Opponent `json:"opponent"`
}

// MatchResolvedPayload is sent to each side of a completed match
type MatchResolvedPayload struct {
	MatchID     string `json:"matchId"`
	Won         bool   `json:"won"`
	NewRating   int    `json:"newRating"`
	RatingDelta int    `json:"ratingDelta"`
}

// MatchDisputedPayload is sent when declarations conflict
type MatchDisputedPayload struct {
	MatchID string `json:"matchId"`
}

// ErrorPayload reports a rejected inbound event
type ErrorPayload struct {
	Event string `json:"event"`
	Error string `json:"error"`
}

// DeclareRequest is the payload of declare_result
type DeclareRequest struct {
	MatchID  string `json:"matchId"`
	PlayerID string `json:"playerId"`
	Result   string `json:"result"`
}

// VerifyRequest is the body of the oracle verification endpoint
type VerifyRequest struct {
	MatchID  string `json:"matchId"`
	PlayerID string `json:"playerId"`
	UserID   string `json:"userId,omitempty"` // Field name used by older clients
}

// Requester returns the requesting player id, accepting the legacy field
func (r VerifyRequest) Requester() string {
	if r.PlayerID != "" {
		return r.PlayerID
	}
	return r.UserID
}

// MatchEventKind classifies lifecycle records of the external event feed
type MatchEventKind string

const (
	MatchEventPaired   MatchEventKind = "paired"
	MatchEventResolved MatchEventKind = "resolved"
	MatchEventDisputed MatchEventKind = "disputed"
)

// MatchEvent is a lifecycle record published for external read-models
type MatchEvent struct {
	Kind       MatchEventKind `msgpack:"kind" json:"kind"`
	MatchID    string         `msgpack:"match_id" json:"match_id"`
	PlayerA    string         `msgpack:"player_a" json:"player_a"`
	PlayerB    string         `msgpack:"player_b" json:"player_b"`
	Winner     string         `msgpack:"winner,omitempty" json:"winner,omitempty"`
	Settlement *Settlement    `msgpack:"settlement,omitempty" json:"settlement,omitempty"`
	ResolvedBy Resolution     `msgpack:"resolved_by,omitempty" json:"resolved_by,omitempty"`
	At         time.Time      `msgpack:"at" json:"at"`
}
