package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/confidant-ai/confidant/internal/api/respond"
	"github.com/confidant-ai/confidant/internal/api/validate"
	"github.com/confidant-ai/confidant/internal/services"
)

// PersonaHandler serves persona documents, insights, and the incremental
// analysis trigger.
type PersonaHandler struct {
	personas *services.PersonaService
	timeline *services.TimelineService
}

func NewPersonaHandler(personas *services.PersonaService, timeline *services.TimelineService) *PersonaHandler {
	return &PersonaHandler{personas: personas, timeline: timeline}
}

func profileIDVar(w http.ResponseWriter, r *http.Request) (string, bool) {
	profileID := mux.Vars(r)["profileId"]
	if err := validate.ProfileID(profileID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return "", false
	}
	return profileID, true
}

// GetUserPersona GET /api/profiles/{profileId}/personas/user
func (h *PersonaHandler) GetUserPersona(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileIDVar(w, r)
	if !ok {
		return
	}
	p, err := h.personas.GetUser(r.Context(), profileID)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, p)
}

// PutUserPersona PUT /api/profiles/{profileId}/personas/user
func (h *PersonaHandler) PutUserPersona(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileIDVar(w, r)
	if !ok {
		return
	}
	var req struct {
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON")
		return
	}
	p, err := h.personas.PolishUserPersona(r.Context(), profileID, req.Description)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, p)
}

// GetOpponentPersona GET /api/profiles/{profileId}/personas/opponent
func (h *PersonaHandler) GetOpponentPersona(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileIDVar(w, r)
	if !ok {
		return
	}
	p, err := h.personas.GetOpponent(r.Context(), profileID)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, p)
}

// PutOpponentPersona PUT /api/profiles/{profileId}/personas/opponent
func (h *PersonaHandler) PutOpponentPersona(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileIDVar(w, r)
	if !ok {
		return
	}
	var req struct {
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON")
		return
	}
	p, err := h.personas.ExtractOpponentFacts(r.Context(), profileID, req.Description)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, p)
}

// GetInsights GET /api/profiles/{profileId}/insights
func (h *PersonaHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileIDVar(w, r)
	if !ok {
		return
	}
	insights, err := h.personas.ListInsights(r.Context(), profileID)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"insights": insights, "count": len(insights)})
}

// RunAnalysis POST /api/profiles/{profileId}/analysis
func (h *PersonaHandler) RunAnalysis(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileIDVar(w, r)
	if !ok {
		return
	}
	report, err := h.personas.RunIncremental(r.Context(), profileID)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, report)
}

// GetDateRange GET /api/profiles/{profileId}/daterange
func (h *PersonaHandler) GetDateRange(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileIDVar(w, r)
	if !ok {
		return
	}
	min, max, hasData, err := h.timeline.DateRange(r.Context(), profileID)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	if !hasData {
		respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"minDate": nil, "maxDate": nil})
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"minDate": min, "maxDate": max})
}

// GetTimeline GET /api/profiles/{profileId}/timeline
func (h *PersonaHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileIDVar(w, r)
	if !ok {
		return
	}
	nodes, err := h.timeline.Timeline(r.Context(), profileID)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"days": nodes, "count": len(nodes)})
}
