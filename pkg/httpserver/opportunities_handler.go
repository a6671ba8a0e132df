package httpserver

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// OpportunitiesHandler serves the opportunities ranked during the most
// recent scan loop tick.
type OpportunitiesHandler struct {
	source OpportunitiesSource
	logger *zap.Logger
}

// NewOpportunitiesHandler creates an OpportunitiesHandler.
func NewOpportunitiesHandler(source OpportunitiesSource, logger *zap.Logger) *OpportunitiesHandler {
	return &OpportunitiesHandler{source: source, logger: logger}
}

// Handle serves GET /opportunities.
func (h *OpportunitiesHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	opps := h.source.Opportunities()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(opps); err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}
