package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"arena-matchmaking/models"
	"arena-matchmaking/service"
)

// VerifyHandler settles matches through the result oracle
type VerifyHandler struct {
	responder
	matcher *service.MatcherService
}

// NewVerifyHandler creates the verification handler
func NewVerifyHandler(matcher *service.MatcherService, logger *zap.Logger) *VerifyHandler {
	return &VerifyHandler{
		responder: responder{logger: logger},
		matcher:   matcher,
	}
}

// VerifyResponse is the body of a verification response
type VerifyResponse struct {
	Verified        bool             `json:"verified"`
	MatchID         string           `json:"matchId,omitempty"`
	Winner          *models.Opponent `json:"winner,omitempty"`
	Loser           *models.Opponent `json:"loser,omitempty"`
	AlreadyResolved bool             `json:"alreadyResolved,omitempty"`
	Error           string           `json:"error,omitempty"`
	Retryable       bool             `json:"retryable,omitempty"`
}

// VerifyMatch asks the oracle for the winner of a pending match
func (h *VerifyHandler) VerifyMatch(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondJSON(w, http.StatusBadRequest, VerifyResponse{Error: "Invalid request body"})
		return
	}
	if req.MatchID == "" || req.Requester() == "" {
		h.respondJSON(w, http.StatusBadRequest, VerifyResponse{Error: "matchId and playerId are required"})
		return
	}

	res, err := h.matcher.VerifyMatch(r.Context(), req.MatchID, req.Requester())
	if err != nil {
		status := verifyStatus(err)
		h.logger.Info("Match verification rejected",
			zap.String("match_id", req.MatchID),
			zap.String("player_id", req.Requester()),
			zap.Int("status", status),
			zap.Error(err),
		)
		h.respondJSON(w, status, VerifyResponse{
			MatchID:   req.MatchID,
			Error:     err.Error(),
			Retryable: service.IsRetryable(err),
		})
		return
	}

	resp := VerifyResponse{
		Verified:        true,
		MatchID:         res.Match.ID,
		AlreadyResolved: res.AlreadyResolved,
	}
	if st := res.Settlement; st != nil {
		winner, loser := st.Winner.Profile(), st.Loser.Profile()
		resp.Winner, resp.Loser = &winner, &loser
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// verifyStatus maps a verification error to an HTTP status
func verifyStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrNotParticipant):
		return http.StatusForbidden
	case errors.Is(err, service.ErrMatchNotFound),
		errors.Is(err, service.ErrPlayerNotFound),
		errors.Is(err, service.ErrOracleNoRecord):
		return http.StatusNotFound
	case errors.Is(err, service.ErrMatchClosed):
		return http.StatusConflict
	case errors.Is(err, service.ErrDraw):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
