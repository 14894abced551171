package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/techhub5500/Yield-sub002/src/orchestrator"
	"github.com/techhub5500/Yield-sub002/src/security/validation"
	"github.com/techhub5500/Yield-sub002/src/utils"
)

const maxChatMessageLength = 4000

// ChatHandler exposes the multi-agent orchestration entry point.
type ChatHandler struct {
	orchestrator *orchestrator.Service
}

func NewChatHandler(svc *orchestrator.Service) *ChatHandler {
	return &ChatHandler{orchestrator: svc}
}

func (h *ChatHandler) HandleOrchestrate(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "User not authenticated", http.StatusUnauthorized)
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Message = validation.CleanField(req.Message)
	if err := validation.ValidateStringNotEmpty(req.Message, "Message"); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateStringMaxLength(req.Message, maxChatMessageLength, "Message"); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result := h.orchestrator.Orchestrate(r.Context(), userID, req.Message)
	utils.SendJSON(w, result, http.StatusOK)
}
