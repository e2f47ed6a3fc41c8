package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"arena-matchmaking/models"
)

// Transition is the outcome of a lifecycle operation
type Transition struct {
	Match           *models.Match      // Copy of the match after the operation
	Changed         bool               // The match reached a terminal state in this call
	AlreadyResolved bool               // The match was completed by an earlier call
	Settlement      *models.Settlement // Rating exchange of a completed match
}

type matchRecord struct {
	mu         sync.Mutex
	match      *models.Match
	settlement *models.Settlement
}

// Lifecycle owns every match and serializes transitions per match.
// A match leaves Pending exactly once, whichever path gets there first.
type Lifecycle struct {
	mu      sync.RWMutex
	matches map[string]*matchRecord
	delta   int
	clock   clockwork.Clock
}

// NewLifecycle creates an empty match table
func NewLifecycle(delta int, clock clockwork.Clock) *Lifecycle {
	return &Lifecycle{
		matches: make(map[string]*matchRecord),
		delta:   delta,
		clock:   clock,
	}
}

// Create registers a pending match between the two players
func (l *Lifecycle) Create(playerA, playerB string) *models.Match {
	m := models.NewMatch(playerA, playerB, l.delta, l.clock.Now())

	l.mu.Lock()
	l.matches[m.ID] = &matchRecord{match: m}
	l.mu.Unlock()

	return m.Clone()
}

// Get returns a copy of the match
func (l *Lifecycle) Get(matchID string) (*models.Match, error) {
	rec, err := l.record(matchID)
	if err != nil {
		return nil, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.match.Clone(), nil
}

// Authorize returns a copy of the match if the player participates in it
func (l *Lifecycle) Authorize(matchID, playerID string) (*models.Match, *models.Settlement, error) {
	rec, err := l.record(matchID)
	if err != nil {
		return nil, nil, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if !rec.match.HasPlayer(playerID) {
		return nil, nil, ErrNotParticipant
	}
	return rec.match.Clone(), rec.settlement, nil
}

// Declare records the player's outcome and resolves the match once both
// participants have declared. settle runs under the match lock; if it fails
// the declaration is not recorded.
func (l *Lifecycle) Declare(matchID, playerID string, outcome models.Outcome, settle SettleFunc) (Transition, error) {
	rec, err := l.record(matchID)
	if err != nil {
		return Transition{}, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	m := rec.match
	if !m.HasPlayer(playerID) {
		return Transition{}, ErrNotParticipant
	}
	if m.State.Terminal() {
		return Transition{}, ErrMatchClosed
	}

	next := m.Clone()
	switch playerID {
	case m.PlayerA:
		if m.DeclaredA != models.OutcomeUnset {
			return Transition{}, ErrAlreadyDeclared
		}
		next.DeclaredA = outcome
	default:
		if m.DeclaredB != models.OutcomeUnset {
			return Transition{}, ErrAlreadyDeclared
		}
		next.DeclaredB = outcome
	}

	if !next.BothDeclared() {
		rec.match = next
		return Transition{Match: next.Clone()}, nil
	}

	now := l.clock.Now()
	winner, ok := next.ConsistentWinner()
	if !ok {
		next.State = models.MatchDisputed
		next.ResolvedAt = &now
		next.ResolvedBy = models.ResolvedByDeclare
		rec.match = next
		return Transition{Match: next.Clone(), Changed: true}, nil
	}

	settlement, err := settle(winner, next.Opponent(winner), next.RatingDelta)
	if err != nil {
		return Transition{}, fmt.Errorf("failed to settle match %s: %w", matchID, err)
	}

	next.State = models.MatchCompleted
	next.Winner = winner
	next.ResolvedAt = &now
	next.ResolvedBy = models.ResolvedByDeclare
	rec.match = next
	rec.settlement = settlement

	return Transition{Match: next.Clone(), Changed: true, Settlement: settlement}, nil
}

// Resolve completes the match with an externally confirmed winner.
// A match completed earlier is reported as AlreadyResolved without settling again.
func (l *Lifecycle) Resolve(matchID, winner string, settle SettleFunc) (Transition, error) {
	rec, err := l.record(matchID)
	if err != nil {
		return Transition{}, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	m := rec.match
	if !m.HasPlayer(winner) {
		return Transition{}, ErrNotParticipant
	}
	switch m.State {
	case models.MatchCompleted:
		return Transition{Match: m.Clone(), AlreadyResolved: true, Settlement: rec.settlement}, nil
	case models.MatchDisputed:
		return Transition{}, ErrMatchClosed
	}

	settlement, err := settle(winner, m.Opponent(winner), m.RatingDelta)
	if err != nil {
		return Transition{}, fmt.Errorf("failed to settle match %s: %w", matchID, err)
	}

	now := l.clock.Now()
	next := m.Clone()
	next.State = models.MatchCompleted
	next.Winner = winner
	next.ResolvedAt = &now
	next.ResolvedBy = models.ResolvedByOracle
	rec.match = next
	rec.settlement = settlement

	return Transition{Match: next.Clone(), Changed: true, Settlement: settlement}, nil
}

// HasPending reports whether the player participates in a pending match
func (l *Lifecycle) HasPending(playerID string) bool {
	for _, m := range l.snapshot() {
		if m.State == models.MatchPending && m.HasPlayer(playerID) {
			return true
		}
	}
	return false
}

// PendingOlderThan returns pending matches created more than age ago
func (l *Lifecycle) PendingOlderThan(age time.Duration) []*models.Match {
	cutoff := l.clock.Now().Add(-age)

	var out []*models.Match
	for _, m := range l.snapshot() {
		if m.State == models.MatchPending && m.CreatedAt.Before(cutoff) {
			out = append(out, m)
		}
	}
	return out
}

// Count returns the number of matches per state
func (l *Lifecycle) Count() map[models.MatchState]int {
	counts := make(map[models.MatchState]int)
	for _, m := range l.snapshot() {
		counts[m.State]++
	}
	return counts
}

func (l *Lifecycle) record(matchID string) (*matchRecord, error) {
	l.mu.RLock()
	rec, ok := l.matches[matchID]
	l.mu.RUnlock()

	if !ok {
		return nil, ErrMatchNotFound
	}
	return rec, nil
}

func (l *Lifecycle) snapshot() []*models.Match {
	l.mu.RLock()
	recs := make([]*matchRecord, 0, len(l.matches))
	for _, rec := range l.matches {
		recs = append(recs, rec)
	}
	l.mu.RUnlock()

	out := make([]*models.Match, 0, len(recs))
	for _, rec := range recs {
		rec.mu.Lock()
		out = append(out, rec.match.Clone())
		rec.mu.Unlock()
	}
	return out
}
