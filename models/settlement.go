package models

// Settle applies the rating exchange of a completed match.
// The loser's rating is clamped at zero, so below delta the exchange is not zero-sum.
func Settle(winner, loser Player, delta int) (Player, Player) {
	winner.Rating += delta
	winner.Wins++

	loser.Rating -= delta
	if loser.Rating < 0 {
		loser.Rating = 0
	}
	loser.Losses++

	return winner, loser
}

// Settlement is the outcome of applying Settle to both accounts
type Settlement struct {
	Winner Player `json:"winner"`
	Loser  Player `json:"loser"`
	Delta  int    `json:"delta"`
}
