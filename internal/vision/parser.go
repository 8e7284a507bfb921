// Package vision converts chat screenshots into timeline messages via the
// vision model collaborator.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/rs/zerolog"

	"github.com/confidant-ai/confidant/internal/llm"
	"github.com/confidant-ai/confidant/internal/model"
	"github.com/confidant-ai/confidant/internal/prompts"
	"github.com/confidant-ai/confidant/internal/timex"
)

// wireItem is the vision model's JSON contract for one message bubble.
type wireItem struct {
	Sender      string `json:"sender"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	ContentType string `json:"content_type"`
	Text        string `json:"text"`
}

type wireResponse struct {
	Messages []wireItem `json:"messages"`
}

var validKinds = map[model.ContentKind]bool{
	model.ContentText:     true,
	model.ContentImage:    true,
	model.ContentTransfer: true,
	model.ContentEmoji:    true,
	model.ContentSystem:   true,
	model.ContentVideo:    true,
	model.ContentUnknown:  true,
}

// Parser turns one screenshot into an ordered message list. Every accepted
// image yields at least one entry: model or schema failures produce an
// editable placeholder instead of losing the image's contribution.
type Parser struct {
	model      llm.Model
	normalizer *timex.Normalizer
	log        zerolog.Logger
}

func NewParser(m llm.Model, n *timex.Normalizer, log zerolog.Logger) *Parser {
	return &Parser{model: m, normalizer: n, log: log}
}

// Parse validates the image bytes, calls the vision model, and converts the
// transcription into messages. Malformed images fail with ErrValidation
// before any model call; everything after that point degrades to a
// placeholder rather than an error.
func (p *Parser) Parse(ctx context.Context, imageBytes []byte, fingerprint string) ([]model.Message, model.TokenUsage, error) {
	var usage model.TokenUsage

	if _, _, err := image.DecodeConfig(bytes.NewReader(imageBytes)); err != nil {
		return nil, usage, fmt.Errorf("%w: undecodable image: %v", model.ErrValidation, err)
	}

	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(imageBytes)
	resp, err := p.model.Complete(ctx, llm.Request{
		Messages: []llm.Message{llm.UserImageMessage(prompts.ScreenshotParse, dataURL)},
		JSONMode: true,
	})
	if err != nil {
		p.log.Warn().Err(err).Str("image", fingerprint).Msg("vision call failed, emitting placeholder")
		return []model.Message{p.placeholder(fingerprint, err.Error())}, usage, nil
	}
	usage = resp.Usage

	var wire wireResponse
	if err := json.Unmarshal([]byte(resp.Content), &wire); err != nil {
		reason := fmt.Sprintf("model returned invalid JSON: %v; raw output: %s", err, resp.Content)
		p.log.Warn().Str("image", fingerprint).Msg("vision response not valid JSON, emitting placeholder")
		return []model.Message{p.placeholder(fingerprint, reason)}, usage, nil
	}
	if bad := validate(wire); bad != "" {
		reason := fmt.Sprintf("model response failed schema check: %s; raw output: %s", bad, resp.Content)
		p.log.Warn().Str("image", fingerprint).Str("violation", bad).Msg("vision response rejected, emitting placeholder")
		return []model.Message{p.placeholder(fingerprint, reason)}, usage, nil
	}
	if len(wire.Messages) == 0 {
		// Never lose the image: even "no bubbles found" leaves an editable trace.
		return []model.Message{p.placeholder(fingerprint, "model found no messages in the screenshot")}, usage, nil
	}

	// Output order follows model order: the prompt asks for visual
	// top-to-bottom and no re-sort happens here.
	msgs := make([]model.Message, 0, len(wire.Messages))
	for _, item := range wire.Messages {
		ts, filledDate, filledTime := p.normalizer.Normalize(item.Date, item.Time)
		msgs = append(msgs, model.Message{
			MessageID:       model.NewMessageID(),
			Timestamp:       ts,
			Sender:          model.Sender(item.Sender),
			ContentType:     model.ContentKind(item.ContentType),
			Text:            item.Text,
			SourceImageHash: fingerprint,
			RawModelOutput:  resp.Content,
			AutoFilledDate:  filledDate,
			AutoFilledTime:  filledTime,
		})
	}
	return msgs, usage, nil
}

func validate(wire wireResponse) string {
	for i, item := range wire.Messages {
		switch model.Sender(item.Sender) {
		case model.SenderUser, model.SenderOpponent:
		default:
			return fmt.Sprintf("messages[%d].sender %q", i, item.Sender)
		}
		if !validKinds[model.ContentKind(item.ContentType)] {
			return fmt.Sprintf("messages[%d].content_type %q", i, item.ContentType)
		}
	}
	return ""
}

// placeholder builds the editable failure entry, timestamped "now" with both
// fill flags set so the user can correct it by hand.
func (p *Parser) placeholder(fingerprint, reason string) model.Message {
	return model.Message{
		MessageID:       model.NewMessageID(),
		Timestamp:       p.normalizer.Now().Truncate(time.Minute).UTC(),
		Sender:          model.SenderSystem,
		ContentType:     model.ContentSystem,
		Text:            "Screenshot parsing failed; please edit this entry by hand. Error: " + reason,
		SourceImageHash: fingerprint,
		IsEditable:      true,
		RawModelOutput:  reason,
		AutoFilledDate:  true,
		AutoFilledTime:  true,
	}
}
