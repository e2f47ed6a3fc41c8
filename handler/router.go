package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"arena-matchmaking/service"
)

// NewRouter registers every HTTP route. archive and metricsHandler may be nil.
func NewRouter(matcher *service.MatcherService, archive MatchArchive, metricsHandler http.Handler, logger *zap.Logger) *mux.Router {
	queueHandler := NewQueueHandler(matcher, archive, logger)
	verifyHandler := NewVerifyHandler(matcher, logger)
	wsHandler := NewWebSocketHandler(matcher, logger)

	router := mux.NewRouter()

	// Path used by existing clients
	router.HandleFunc("/api/verify-match", verifyHandler.VerifyMatch).Methods("POST")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/queue/status", queueHandler.GetQueueStatus).Methods("GET")
	api.HandleFunc("/queue/{player_id}", queueHandler.LeaveQueue).Methods("DELETE")
	api.HandleFunc("/matches/verify", verifyHandler.VerifyMatch).Methods("POST")
	api.HandleFunc("/matches/{match_id}", queueHandler.GetMatch).Methods("GET")
	api.HandleFunc("/players/{player_id}", queueHandler.GetPlayer).Methods("GET")
	api.HandleFunc("/players/{player_id}/matches", queueHandler.GetPlayerMatches).Methods("GET")

	router.HandleFunc("/ws", wsHandler.HandleWebSocket).Methods("GET")

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	if metricsHandler != nil {
		router.Handle("/metrics", metricsHandler).Methods("GET")
	}

	return router
}
