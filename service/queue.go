package service

import (
	"sync"

	"github.com/jonboulle/clockwork"

	"arena-matchmaking/models"
)

// AdmitResult describes what happened to an admission request
type AdmitResult struct {
	Duplicate bool               // The player was already queued, nothing changed
	Position  int                // Queue size right after insertion
	Entry     *models.QueueEntry // The admitted entry
	Opponent  *models.QueueEntry // Set when the admission produced a pairing
}

// Pair is two entries removed from the queue together
type Pair struct {
	Player   *models.QueueEntry
	Opponent *models.QueueEntry
}

// Queue holds players waiting for an opponent in insertion order.
// Admission, pairing and removal share one lock, so an entry can end up in at
// most one pair.
type Queue struct {
	mu      sync.Mutex
	entries []*models.QueueEntry
	index   map[string]*models.QueueEntry
	rules   PairingRules
	clock   clockwork.Clock
}

// NewQueue creates an empty queue
func NewQueue(rules PairingRules, clock clockwork.Clock) *Queue {
	return &Queue{
		index: make(map[string]*models.QueueEntry),
		rules: rules,
		clock: clock,
	}
}

// Admit inserts the entry and immediately looks for an opponent.
// A second admission of a queued player is a no-op.
func (q *Queue) Admit(entry *models.QueueEntry) AdmitResult {
	q.mu.Lock()
	defer q.mu.Unlock()

	if existing, ok := q.index[entry.PlayerID]; ok {
		return AdmitResult{Duplicate: true, Position: q.positionLocked(existing.PlayerID), Entry: existing}
	}

	q.entries = append(q.entries, entry)
	q.index[entry.PlayerID] = entry
	result := AdmitResult{Position: len(q.entries), Entry: entry}

	if i := q.rules.findOpponent(q.entries, entry, q.clock.Now()); i >= 0 {
		result.Opponent = q.entries[i]
		q.removeLocked(entry.PlayerID)
		q.removeLocked(result.Opponent.PlayerID)
	}

	return result
}

// Withdraw removes the player, reporting whether an entry existed
func (q *Queue) Withdraw(playerID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.removeLocked(playerID)
}

// WithdrawSession removes the player only if the entry was queued by the given session
func (q *Queue) WithdrawSession(playerID string, s models.Session) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.index[playerID]
	if !ok || e.Session != s {
		return false
	}
	return q.removeLocked(playerID)
}

// Sweep re-runs pairing for every queued entry in insertion order
func (q *Queue) Sweep() []Pair {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.clock.Now()
	var pairs []Pair

	for i := 0; i < len(q.entries); {
		entry := q.entries[i]
		j := q.rules.findOpponent(q.entries, entry, now)
		if j < 0 {
			i++
			continue
		}
		opponent := q.entries[j]
		q.removeLocked(entry.PlayerID)
		q.removeLocked(opponent.PlayerID)
		pairs = append(pairs, Pair{Player: entry, Opponent: opponent})
		// Entry i was removed, the slice shifted under the same index
	}

	return pairs
}

// Size returns the number of queued players
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Contains reports whether the player is queued
func (q *Queue) Contains(playerID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.index[playerID]
	return ok
}

// Snapshot returns copies of the queued entries in insertion order
func (q *Queue) Snapshot() []models.QueueEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]models.QueueEntry, len(q.entries))
	for i, e := range q.entries {
		out[i] = *e
	}
	return out
}

func (q *Queue) positionLocked(playerID string) int {
	for i, e := range q.entries {
		if e.PlayerID == playerID {
			return i + 1
		}
	}
	return 0
}

func (q *Queue) removeLocked(playerID string) bool {
	if _, ok := q.index[playerID]; !ok {
		return false
	}
	delete(q.index, playerID)

	for i, e := range q.entries {
		if e.PlayerID == playerID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			break
		}
	}
	return true
}
