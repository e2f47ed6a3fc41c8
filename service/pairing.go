package service

import (
	"math"
	"time"

	"arena-matchmaking/models"
)

// PairingRules bound the rating difference between two paired players
type PairingRules struct {
	MaxRatingDiff int           // Window while both players are fresh
	RelaxAfter    time.Duration // Wait after which any difference is accepted
}

// ratingWindow returns the accepted rating difference for the given wait time
func (r PairingRules) ratingWindow(wait time.Duration) int {
	if wait > r.RelaxAfter {
		return math.MaxInt
	}
	return r.MaxRatingDiff
}

// eligible reports whether the candidate may be paired with the player.
// The longer of the two waits decides the window, so a player who has waited
// long enough is reachable by any newcomer.
func (r PairingRules) eligible(player, candidate *models.QueueEntry, now time.Time) (int, bool) {
	diff := ratingDiff(player.Rating, candidate.Rating)

	wait := now.Sub(player.JoinedAt)
	if cw := now.Sub(candidate.JoinedAt); cw > wait {
		wait = cw
	}

	return diff, diff <= r.ratingWindow(wait)
}

// findOpponent scans entries in insertion order and returns the index of the
// eligible candidate with the smallest rating difference, or -1.
// Ties keep the earliest inserted candidate.
func (r PairingRules) findOpponent(entries []*models.QueueEntry, player *models.QueueEntry, now time.Time) int {
	best := -1
	bestDiff := math.MaxInt

	for i, candidate := range entries {
		if candidate.PlayerID == player.PlayerID {
			continue
		}
		diff, ok := r.eligible(player, candidate, now)
		if !ok {
			continue
		}
		if diff < bestDiff {
			best = i
			bestDiff = diff
		}
	}

	return best
}

func ratingDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
