package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// responder writes JSON responses and logs failed requests
type responder struct {
	logger *zap.Logger
}

// respondJSON writes a JSON response
func (h responder) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// respondError writes an error in JSON format
func (h responder) respondError(w http.ResponseWriter, status int, message string, err error) {
	h.logger.Warn("Request error",
		zap.Int("status", status),
		zap.String("message", message),
		zap.Error(err),
	)

	errorResp := map[string]interface{}{
		"error": message,
	}
	if err != nil {
		errorResp["details"] = err.Error()
	}
	h.respondJSON(w, status, errorResp)
}
