package api

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/confidant-ai/confidant/internal/api/respond"
	"github.com/confidant-ai/confidant/internal/api/validate"
	"github.com/confidant-ai/confidant/internal/model"
	"github.com/confidant-ai/confidant/internal/services"
)

// EventHandler records offline events, summarizing them through the model
// when the caller supplies raw inputs instead of a confirmed summary.
type EventHandler struct {
	events   *services.EventService
	timeline *services.TimelineService
	profiles *services.ProfileService
}

func NewEventHandler(events *services.EventService, timeline *services.TimelineService, profiles *services.ProfileService) *EventHandler {
	return &EventHandler{events: events, timeline: timeline, profiles: profiles}
}

// AppendEvent POST /api/profiles/{profileId}/events
//
// Multipart form: optional "summary" (a pre-confirmed summary, stored as-is),
// optional "description", optional "file" (a photo of the event), optional
// "timestamp" (RFC 3339, defaults to now). Without a summary, the model
// summarizes description and/or image; model failure still records the event
// with an error-text summary the user can edit.
func (h *EventHandler) AppendEvent(w http.ResponseWriter, r *http.Request) {
	profileID := mux.Vars(r)["profileId"]
	if err := validate.ProfileID(profileID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respond.WriteBadRequest(w, "invalid multipart form")
		return
	}

	p, err := h.profiles.Get(r.Context(), profileID)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}

	summary := r.FormValue("summary")
	description := r.FormValue("description")

	ts := time.Now().UTC()
	if raw := r.FormValue("timestamp"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respond.WriteBadRequest(w, "timestamp must be RFC 3339")
			return
		}
		ts = parsed.UTC()
	}

	var imageBytes []byte
	var imageHash string
	if f, _, err := r.FormFile("file"); err == nil {
		imageBytes, err = io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			respond.WriteBadRequest(w, "failed to read uploaded file")
			return
		}
		sum := sha256.Sum256(imageBytes)
		imageHash = hex.EncodeToString(sum[:])
	}

	var usage model.TokenUsage
	if summary == "" {
		if description == "" && len(imageBytes) == 0 {
			respond.WriteBadRequest(w, "a summary, description, or image is required")
			return
		}
		summary, usage = h.events.Analyze(r.Context(), p.UserName, p.OpponentName, description, imageBytes)
	}

	updated, err := h.timeline.AppendEvent(r.Context(), profileID, model.Event{
		Timestamp:       ts,
		Summary:         summary,
		OriginalText:    description,
		SourceImageHash: imageHash,
	})
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"profile": updated,
		"usage":   usage,
	})
}
