package api

import (
	"encoding/json"
	"net/http"

	"github.com/confidant-ai/confidant/internal/api/respond"
	"github.com/confidant-ai/confidant/internal/services"
)

// AssistHandler is the HTTP entry point of the strategist loop.
type AssistHandler struct {
	svc *services.AssistService
}

func NewAssistHandler(svc *services.AssistService) *AssistHandler { return &AssistHandler{svc: svc} }

// Assist POST /api/profiles/{profileId}/assist
//
// Loop-level failures (round budget, model errors, malformed final answers)
// come back as 200 with the structured error field; only transport and
// profile problems map to HTTP errors.
func (h *AssistHandler) Assist(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileIDVar(w, r)
	if !ok {
		return
	}
	var req struct {
		OpponentMessage string `json:"opponentMessage"`
		UserThoughts    string `json:"userThoughts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON")
		return
	}
	res, err := h.svc.Assist(r.Context(), profileID, req.OpponentMessage, req.UserThoughts)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, res)
}
