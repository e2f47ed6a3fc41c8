package service

import "errors"

// Validation errors: the request is rejected and nothing changes.
var (
	ErrMatchNotFound   = errors.New("match not found")
	ErrPlayerNotFound  = errors.New("player not found")
	ErrNotParticipant  = errors.New("player is not a participant of this match")
	ErrInvalidOutcome  = errors.New(`result must be "win" or "loss"`)
	ErrAlreadyDeclared = errors.New("result already declared by this player")
	ErrMatchClosed     = errors.New("match is no longer pending")
	ErrPlayerBusy      = errors.New("player already has a pending match")
)

// Oracle path errors. The match stays pending for all of them.
var (
	ErrOracleNoRecord = errors.New("match not found in the battle log yet")
	ErrDraw           = errors.New("draw detected, draws are never settled")
	ErrUpstream       = errors.New("result oracle unavailable")
)

// IsValidation reports whether err rejects a malformed or unauthorized request.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrMatchNotFound,
		ErrPlayerNotFound,
		ErrNotParticipant,
		ErrInvalidOutcome,
		ErrAlreadyDeclared,
		ErrMatchClosed,
		ErrPlayerBusy,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsRetryable reports whether the caller may repeat the request later.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrOracleNoRecord) || errors.Is(err, ErrUpstream)
}
