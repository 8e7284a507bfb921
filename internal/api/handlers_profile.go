package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/confidant-ai/confidant/internal/api/respond"
	"github.com/confidant-ai/confidant/internal/api/validate"
	"github.com/confidant-ai/confidant/internal/services"
)

// ProfileHandler is the thin HTTP transport over ProfileService.
type ProfileHandler struct {
	svc *services.ProfileService
}

func NewProfileHandler(svc *services.ProfileService) *ProfileHandler { return &ProfileHandler{svc: svc} }

// CreateProfile POST /api/profiles
func (h *ProfileHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProfileName  string `json:"profileName"`
		UserName     string `json:"userName"`
		OpponentName string `json:"opponentName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON")
		return
	}
	if err := validate.MaxLen("profileName", req.ProfileName, 100); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	p, err := h.svc.Create(r.Context(), req.ProfileName, req.OpponentName, req.UserName)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, p)
}

// ListProfiles GET /api/profiles
func (h *ProfileHandler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	ps, err := h.svc.List(r.Context())
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"profiles": ps, "count": len(ps)})
}

// GetProfile GET /api/profiles/{profileId}
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profileID := mux.Vars(r)["profileId"]
	if err := validate.ProfileID(profileID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	p, err := h.svc.Get(r.Context(), profileID)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, p)
}

// UpdateProfile PATCH /api/profiles/{profileId}
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	profileID := mux.Vars(r)["profileId"]
	if err := validate.ProfileID(profileID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	var req services.NameUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON")
		return
	}
	p, err := h.svc.UpdateNames(r.Context(), profileID, req)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, p)
}
