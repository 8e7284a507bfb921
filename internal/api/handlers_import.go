package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/confidant-ai/confidant/internal/api/respond"
	"github.com/confidant-ai/confidant/internal/api/validate"
	"github.com/confidant-ai/confidant/internal/model"
	"github.com/confidant-ai/confidant/internal/services"
	"github.com/confidant-ai/confidant/internal/vision"
)

// maxUploadBytes bounds one multipart upload (32 MiB, matching the form
// parser's in-memory budget).
const maxUploadBytes = 32 << 20

// ImportHandler ingests chat screenshots and manual messages.
type ImportHandler struct {
	parser   *vision.Parser
	timeline *services.TimelineService
}

func NewImportHandler(parser *vision.Parser, timeline *services.TimelineService) *ImportHandler {
	return &ImportHandler{parser: parser, timeline: timeline}
}

// ScreenshotResult reports one uploaded image's fate. Status is "imported",
// "skipped" (fingerprint already processed), or "failed" (unreadable image).
type ScreenshotResult struct {
	FileName  string          `json:"fileName"`
	ImageHash string          `json:"imageHash"`
	Status    string          `json:"status"`
	Messages  []model.Message `json:"messages,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// UploadScreenshots POST /api/profiles/{profileId}/screenshots
//
// Multipart form, one or more "files" parts. Each image is fingerprinted,
// deduplicated against the profile's processed sources, parsed, and the
// resulting messages committed. Usage is aggregated across images.
func (h *ImportHandler) UploadScreenshots(w http.ResponseWriter, r *http.Request) {
	profileID := mux.Vars(r)["profileId"]
	if err := validate.ProfileID(profileID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respond.WriteBadRequest(w, "invalid multipart form")
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		respond.WriteBadRequest(w, "no files uploaded")
		return
	}

	var usage model.TokenUsage
	results := make([]ScreenshotResult, 0, len(files))
	for _, fh := range files {
		res := ScreenshotResult{FileName: fh.Filename}

		f, err := fh.Open()
		if err != nil {
			res.Status = "failed"
			res.Error = err.Error()
			results = append(results, res)
			continue
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			res.Status = "failed"
			res.Error = err.Error()
			results = append(results, res)
			continue
		}

		sum := sha256.Sum256(data)
		res.ImageHash = hex.EncodeToString(sum[:])

		done, err := h.timeline.WasSourceProcessed(r.Context(), profileID, res.ImageHash)
		if err != nil {
			respond.WriteDomainError(w, err)
			return
		}
		if done {
			res.Status = "skipped"
			results = append(results, res)
			continue
		}

		msgs, u, err := h.parser.Parse(r.Context(), data, res.ImageHash)
		usage.Add(u)
		if err != nil {
			res.Status = "failed"
			res.Error = err.Error()
			results = append(results, res)
			continue
		}
		if _, err := h.timeline.AppendMessages(r.Context(), profileID, msgs); err != nil {
			respond.WriteDomainError(w, err)
			return
		}
		res.Status = "imported"
		res.Messages = msgs
		results = append(results, res)
	}

	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"usage":   usage,
	})
}

// AppendMessages POST /api/profiles/{profileId}/messages
func (h *ImportHandler) AppendMessages(w http.ResponseWriter, r *http.Request) {
	profileID := mux.Vars(r)["profileId"]
	if err := validate.ProfileID(profileID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	var req struct {
		Messages []model.Message `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON")
		return
	}
	p, err := h.timeline.AppendMessages(r.Context(), profileID, req.Messages)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, p)
}
