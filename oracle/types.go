package oracle

import (
	"context"
	"strings"
	"time"
)

// Oracle confirms a match outcome independently of the players' declarations.
type Oracle interface {
	Lookup(ctx context.Context, q Query) (Result, error)
}

// Query identifies the two sides of a match by their external tags
type Query struct {
	TagA  string
	TagB  string
	Since time.Time // Battles before this instant are ignored when non-zero
}

// Verdict is what the oracle found for a query
type Verdict string

const (
	VerdictNotFound Verdict = "not_found"
	VerdictDraw     Verdict = "draw"
	VerdictAWins    Verdict = "a_wins"
	VerdictBWins    Verdict = "b_wins"
)

// Result is the answer of a lookup
type Result struct {
	Verdict    Verdict
	BattleTime time.Time
	CrownsA    int
	CrownsB    int
}

// NormalizeTag upper-cases a player tag and makes sure it starts with '#'.
func NormalizeTag(tag string) string {
	tag = strings.ToUpper(strings.TrimSpace(tag))
	if tag == "" {
		return ""
	}
	if !strings.HasPrefix(tag, "#") {
		tag = "#" + tag
	}
	return tag
}

// battle mirrors one entry of the battle log API
type battle struct {
	Type       string        `json:"type"`
	BattleTime string        `json:"battleTime"`
	Team       []participant `json:"team"`
	Opponent   []participant `json:"opponent"`
}

type participant struct {
	Tag    string `json:"tag"`
	Name   string `json:"name"`
	Crowns int    `json:"crowns"`
}

const battleTimeLayout = "20060102T150405.000Z"
