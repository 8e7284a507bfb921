package vision

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/confidant-ai/confidant/internal/llm"
	"github.com/confidant-ai/confidant/internal/llm/llmtest"
	"github.com/confidant-ai/confidant/internal/model"
	"github.com/confidant-ai/confidant/internal/timex"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var cst = time.FixedZone("UTC+8", 8*3600)

func testNormalizer() *timex.Normalizer {
	return timex.NewNormalizer(fixedClock{t: time.Date(2025, 10, 26, 4, 0, 0, 0, time.UTC)}, cst)
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func newParser(m llm.Model) *Parser {
	return NewParser(m, testNormalizer(), zerolog.Nop())
}

func TestParseSuccess(t *testing.T) {
	scripted := llmtest.NewScripted(llmtest.Step{Response: &llm.Response{
		Content: `{"messages":[{"sender":"User 2","date":"2025-10-25","time":"09:30","content_type":"text","text":"你好"}]}`,
		Usage:   model.TokenUsage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120},
	}})
	p := newParser(scripted)

	msgs, usage, err := p.Parse(context.Background(), tinyPNG(t), "fp1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	m := msgs[0]
	require.Equal(t, model.SenderOpponent, m.Sender)
	require.Equal(t, model.ContentText, m.ContentType)
	require.Equal(t, "你好", m.Text)
	require.Equal(t, time.Date(2025, 10, 25, 1, 30, 0, 0, time.UTC), m.Timestamp)
	require.False(t, m.AutoFilledDate)
	require.False(t, m.AutoFilledTime)
	require.False(t, m.IsEditable)
	require.Equal(t, "fp1", m.SourceImageHash)
	require.NotEmpty(t, m.RawModelOutput)
	require.Equal(t, 120, usage.TotalTokens)
}

func TestParsePreservesModelOrder(t *testing.T) {
	scripted := llmtest.NewScripted(llmtest.Respond(
		`{"messages":[
			{"sender":"User 2","date":"2025-10-25","time":"10:00","content_type":"text","text":"second on screen"},
			{"sender":"User 1","date":"2025-10-25","time":"09:00","content_type":"text","text":"first on screen"}
		]}`))
	p := newParser(scripted)

	msgs, _, err := p.Parse(context.Background(), tinyPNG(t), "fp-order")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "second on screen", msgs[0].Text)
	require.Equal(t, "first on screen", msgs[1].Text)
}

func TestParseModelFailureYieldsPlaceholder(t *testing.T) {
	scripted := llmtest.NewScripted(llmtest.Fail(errors.New("connection reset")))
	p := newParser(scripted)

	msgs, usage, err := p.Parse(context.Background(), tinyPNG(t), "fp2")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.True(t, msgs[0].IsEditable)
	require.True(t, msgs[0].AutoFilledDate)
	require.True(t, msgs[0].AutoFilledTime)
	require.Equal(t, model.SenderSystem, msgs[0].Sender)
	require.Equal(t, model.ContentSystem, msgs[0].ContentType)
	require.Equal(t, "fp2", msgs[0].SourceImageHash)
	require.Zero(t, usage.TotalTokens)
}

func TestParseMalformedJSONYieldsPlaceholder(t *testing.T) {
	scripted := llmtest.NewScripted(llmtest.Step{Response: &llm.Response{
		Content: "sorry, I cannot read this image",
		Usage:   model.TokenUsage{TotalTokens: 40},
	}})
	p := newParser(scripted)

	msgs, usage, err := p.Parse(context.Background(), tinyPNG(t), "fp3")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.True(t, msgs[0].IsEditable)
	require.Contains(t, msgs[0].Text, "invalid JSON")
	// Usage reported by the failed-but-returned call is kept.
	require.Equal(t, 40, usage.TotalTokens)
}

func TestParseSchemaViolationYieldsPlaceholder(t *testing.T) {
	scripted := llmtest.NewScripted(llmtest.Respond(
		`{"messages":[{"sender":"User 9","content_type":"text","text":"hi"}]}`))
	p := newParser(scripted)

	msgs, _, err := p.Parse(context.Background(), tinyPNG(t), "fp4")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.True(t, msgs[0].IsEditable)
}

func TestParseRejectsUndecodableImage(t *testing.T) {
	scripted := llmtest.NewScripted()
	p := newParser(scripted)

	_, _, err := p.Parse(context.Background(), []byte("not an image"), "fp5")
	require.ErrorIs(t, err, model.ErrValidation)
	require.Zero(t, scripted.Calls(), "model must not be called for invalid images")
}

func TestParseNeverReturnsZeroEntries(t *testing.T) {
	for _, step := range []llmtest.Step{
		llmtest.Fail(errors.New("boom")),
		llmtest.Respond("{"),
		llmtest.Respond(`{"messages":[]}`),
		llmtest.Respond(`{"messages":[{"sender":"User 1","content_type":"text","text":"ok"}]}`),
	} {
		p := newParser(llmtest.NewScripted(step))
		msgs, _, err := p.Parse(context.Background(), tinyPNG(t), "fp")
		require.NoError(t, err)
		require.NotEmpty(t, msgs)
	}
}
