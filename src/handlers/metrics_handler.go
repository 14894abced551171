package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/techhub5500/Yield-sub002/src/metrics"
	"github.com/techhub5500/Yield-sub002/src/utils"
)

// MetricsHandler serves the batch query surface. Requests fail with 400 only
// on malformed shapes; computation failures surface per-entry in the body.
type MetricsHandler struct {
	engine *metrics.Engine
}

func NewMetricsHandler(engine *metrics.Engine) *MetricsHandler {
	return &MetricsHandler{engine: engine}
}

func (h *MetricsHandler) HandleQueryMetrics(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "User not authenticated", http.StatusUnauthorized)
		return
	}

	var req struct {
		Metrics []metrics.MetricQuery `json:"metrics"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Metrics) == 0 {
		utils.SendJSONError(w, "metrics list cannot be empty", http.StatusBadRequest)
		return
	}

	results := h.engine.Run(r.Context(), userID, req.Metrics)
	utils.SendJSON(w, map[string]any{"results": results}, http.StatusOK)
}

func (h *MetricsHandler) HandleQueryCards(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "User not authenticated", http.StatusUnauthorized)
		return
	}

	var req struct {
		Cards []metrics.CardQuery `json:"cards"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Cards) == 0 {
		utils.SendJSONError(w, "cards list cannot be empty", http.StatusBadRequest)
		return
	}

	results := h.engine.RunCards(r.Context(), userID, req.Cards)
	utils.SendJSON(w, map[string]any{"cards": results}, http.StatusOK)
}
