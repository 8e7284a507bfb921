package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/confidant-ai/confidant/internal/llm"
	"github.com/confidant-ai/confidant/internal/model"
	"github.com/confidant-ai/confidant/internal/prompts"
)

// EventService summarizes offline-event inputs through the language or
// vision model. Analyze never fails the request: model trouble is reported
// inside the summary text so the user can edit it before saving.
type EventService struct {
	chat   llm.Model
	vision llm.Model
	log    zerolog.Logger
}

func NewEventService(chat, vision llm.Model, log zerolog.Logger) *EventService {
	return &EventService{chat: chat, vision: vision, log: log}
}

// Analyze produces an event summary from a free-text description and/or a
// photo. With an image the vision model gets a prompt assembled from the base
// framing, the user's description when present, and the task instruction.
func (s *EventService) Analyze(ctx context.Context, userName, opponentName, description string, imageBytes []byte) (string, model.TokenUsage) {
	description = strings.TrimSpace(description)

	var (
		resp *llm.Response
		err  error
	)
	switch {
	case len(imageBytes) > 0:
		parts := []string{fmt.Sprintf(prompts.EventSummarizeImageBase, userName, opponentName)}
		if description != "" {
			parts = append(parts, fmt.Sprintf(prompts.EventSummarizeImageDesc, description))
		}
		parts = append(parts, fmt.Sprintf(prompts.EventSummarizeImageTask, userName, opponentName))

		dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(imageBytes)
		resp, err = s.vision.Complete(ctx, llm.Request{
			Messages:    []llm.Message{llm.UserImageMessage(strings.Join(parts, "\n"), dataURL)},
			Temperature: 0.2,
		})
	case description != "":
		prompt := fmt.Sprintf(prompts.EventSummarizeText, description, userName, opponentName)
		resp, err = s.chat.Complete(ctx, llm.Request{
			Messages:    []llm.Message{llm.UserMessage(prompt)},
			Temperature: 0.2,
		})
	default:
		return "error: a description or an image is required to summarize an event", model.TokenUsage{}
	}

	if err != nil {
		s.log.Warn().Err(err).Msg("event summarize model call failed")
		return "model analysis failed: " + err.Error(), model.TokenUsage{}
	}
	return strings.TrimSpace(resp.Content), resp.Usage
}
