package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"arena-matchmaking/models"
	"arena-matchmaking/service"
)

// MatchArchive is the durable match history
type MatchArchive interface {
	GetMatch(ctx context.Context, matchID string) (*models.Match, error)
	PlayerMatches(ctx context.Context, playerID string, limit int64) ([]*models.Match, error)
}

// QueueHandler serves the read side of the queue and the match table
type QueueHandler struct {
	responder
	matcher *service.MatcherService
	archive MatchArchive
}

// NewQueueHandler creates the queue handler. archive may be nil.
func NewQueueHandler(matcher *service.MatcherService, archive MatchArchive, logger *zap.Logger) *QueueHandler {
	return &QueueHandler{
		responder: responder{logger: logger},
		matcher:   matcher,
		archive:   archive,
	}
}

// GetQueueStatus returns the queue size and live counters
func (h *QueueHandler) GetQueueStatus(w http.ResponseWriter, r *http.Request) {
	status := h.matcher.Status()

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"queue_size":      status.QueueSize,
		"pending_matches": status.PendingMatches,
		"online_sessions": status.OnlineSessions,
		"timestamp":       time.Now().Unix(),
	})
}

// LeaveQueue removes a player from the queue
func (h *QueueHandler) LeaveQueue(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["player_id"]
	if playerID == "" {
		h.respondError(w, http.StatusBadRequest, "Player ID is required", nil)
		return
	}

	if !h.matcher.LeaveQueue(playerID) {
		h.respondError(w, http.StatusNotFound, "Player is not queued", nil)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"player_id": playerID,
		"status":    "removed",
	})
}

// GetMatch returns a match from the live table, falling back to the archive
func (h *QueueHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["match_id"]

	m, err := h.matcher.GetMatch(matchID)
	if errors.Is(err, service.ErrMatchNotFound) && h.archive != nil {
		m, err = h.archive.GetMatch(r.Context(), matchID)
	}
	if err != nil {
		h.respondError(w, http.StatusNotFound, "Match not found", err)
		return
	}

	h.respondJSON(w, http.StatusOK, m)
}

// GetPlayer returns the player's projection and queue membership
func (h *QueueHandler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["player_id"]

	p, err := h.matcher.GetPlayer(r.Context(), playerID)
	if errors.Is(err, service.ErrPlayerNotFound) {
		h.respondError(w, http.StatusNotFound, "Player not found", err)
		return
	}
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to load player", err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"player":   p,
		"in_queue": h.matcher.InQueue(playerID),
	})
}

// GetPlayerMatches returns the player's archived matches, newest first
func (h *QueueHandler) GetPlayerMatches(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		h.respondError(w, http.StatusServiceUnavailable, "Match archive is not configured", nil)
		return
	}

	playerID := mux.Vars(r)["player_id"]
	limit := int64(20)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			h.respondError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = v
	}

	matches, err := h.archive.PlayerMatches(r.Context(), playerID, limit)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to load match history", err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"player_id": playerID,
		"matches":   matches,
	})
}
