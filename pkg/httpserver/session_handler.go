package httpserver

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// SessionHandler serves the current bot session (bankroll, counters, open
// positions).
type SessionHandler struct {
	source SessionSource
	logger *zap.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(source SessionSource, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{source: source, logger: logger}
}

// Handle serves GET /session.
func (h *SessionHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session := h.source.Session()
	if session == nil {
		writeError(w, h.logger, "session not available", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(session); err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}
