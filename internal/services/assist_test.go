package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/confidant-ai/confidant/internal/llm"
	"github.com/confidant-ai/confidant/internal/llm/llmtest"
	"github.com/confidant-ai/confidant/internal/model"
)

const assistNow = "2025-10-25T12:00:00Z" // local 2025-10-25 20:00 at UTC+8

func newAssistEnv(t *testing.T) (*testEnv, *model.Profile) {
	t.Helper()
	now, err := time.Parse(time.RFC3339, assistNow)
	require.NoError(t, err)
	env := newTestEnv(now)
	p := seedAnalysisProfile(t, env)
	return env, p
}

func TestAssistFinalAnswerFirstRound(t *testing.T) {
	env, p := newAssistEnv(t)
	chat := llmtest.NewScripted(
		llmtest.Respond(`{"strategy_analysis":"she is testing the waters","reply_options":["a","b","c"]}`),
	)
	svc := NewAssistService(env.store, chat, env.norm, 5, 5, nopLog())

	res, err := svc.Assist(context.Background(), p.ProfileID, "are you free saturday?", "I want to go but not seem eager")
	require.NoError(t, err)
	require.Empty(t, res.Error)
	require.Equal(t, "she is testing the waters", res.StrategyAnalysis)
	require.Len(t, res.ReplyOptions, 3)
	require.Equal(t, 1, chat.Calls())

	// Round requests carry the tool catalog and JSON mode.
	req := chat.Requests[0]
	require.True(t, req.JSONMode)
	require.Len(t, req.Tools, 4)
	require.Equal(t, llm.RoleSystem, req.Messages[0].Role)
	require.Contains(t, req.Messages[2].Content, "are you free saturday?")
}

func TestAssistToolRoundThenFinal(t *testing.T) {
	env, p := newAssistEnv(t)
	require.NoError(t, env.store.Personas().PutOpponent(context.Background(), &model.OpponentPersona{
		ProfileID: p.ProfileID, BasicInfo: map[string]string{"job": "nurse"}, ChatAnalysis: "warm but guarded",
	}))

	chat := llmtest.NewScripted(
		llmtest.RespondToolCalls(llm.ToolCall{ID: "call_1", Name: toolOpponentPersona, Arguments: "{}"}),
		llmtest.Respond(`{"strategy_analysis":"lead with the shared joke","reply_options":["x","y"]}`),
	)
	svc := NewAssistService(env.store, chat, env.norm, 5, 5, nopLog())

	res, err := svc.Assist(context.Background(), p.ProfileID, "haha remember that?", "unsure what she means")
	require.NoError(t, err)
	require.Empty(t, res.Error)
	require.Equal(t, 2, chat.Calls())

	// Second round must include the assistant turn and the tool result.
	second := chat.Requests[1]
	last := second.Messages[len(second.Messages)-1]
	require.Equal(t, llm.RoleTool, last.Role)
	require.Equal(t, "call_1", last.ToolCallID)
	require.Contains(t, last.Content, "nurse")
}

func TestAssistRoundBudgetExhaustion(t *testing.T) {
	env, p := newAssistEnv(t)
	// The script's last step repeats, so the model asks for tools forever.
	chat := llmtest.NewScripted(
		llmtest.RespondToolCalls(llm.ToolCall{ID: "c", Name: toolRecentEvents, Arguments: `{"days":3}`}),
	)
	svc := NewAssistService(env.store, chat, env.norm, 3, 5, nopLog())

	res, err := svc.Assist(context.Background(), p.ProfileID, "msg", "thoughts")
	require.NoError(t, err)
	require.NotEmpty(t, res.Error)
	require.Contains(t, res.Error, "3 rounds")
	require.Equal(t, 3, chat.Calls())
}

func TestAssistModelFailureIsStructured(t *testing.T) {
	env, p := newAssistEnv(t)
	chat := llmtest.NewScripted(llmtest.Fail(errors.New("upstream 500")))
	svc := NewAssistService(env.store, chat, env.norm, 5, 5, nopLog())

	res, err := svc.Assist(context.Background(), p.ProfileID, "msg", "thoughts")
	require.NoError(t, err)
	require.Contains(t, res.Error, "model call failed")
}

func TestAssistRejectsBadFinalAnswers(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"not json", "let me think about it"},
		{"missing fields", `{"strategy_analysis":"only half"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env, p := newAssistEnv(t)
			chat := llmtest.NewScripted(llmtest.Respond(tc.content))
			svc := NewAssistService(env.store, chat, env.norm, 5, 5, nopLog())

			res, err := svc.Assist(context.Background(), p.ProfileID, "msg", "thoughts")
			require.NoError(t, err)
			require.NotEmpty(t, res.Error)
			require.Empty(t, res.StrategyAnalysis)
		})
	}
}

func TestAssistUnknownToolKeepsLooping(t *testing.T) {
	env, p := newAssistEnv(t)
	chat := llmtest.NewScripted(
		llmtest.RespondToolCalls(llm.ToolCall{ID: "c1", Name: "made_up_tool", Arguments: "{}"}),
		llmtest.Respond(`{"strategy_analysis":"ok","reply_options":["a"]}`),
	)
	svc := NewAssistService(env.store, chat, env.norm, 5, 5, nopLog())

	res, err := svc.Assist(context.Background(), p.ProfileID, "msg", "thoughts")
	require.NoError(t, err)
	require.Empty(t, res.Error)

	second := chat.Requests[1]
	last := second.Messages[len(second.Messages)-1]
	require.Contains(t, last.Content, "not found")
}

func TestAssistProfileNotFound(t *testing.T) {
	env, _ := newAssistEnv(t)
	svc := NewAssistService(env.store, llmtest.NewScripted(), env.norm, 5, 5, nopLog())
	_, err := svc.Assist(context.Background(), "prof_missing", "msg", "thoughts")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestInitialContextContents(t *testing.T) {
	env, p := newAssistEnv(t)
	require.NoError(t, env.store.Personas().PutUser(context.Background(), &model.UserPersona{
		ProfileID: p.ProfileID, SelfSummary: "quiet observer",
	}))
	require.NoError(t, env.store.Insights().Put(context.Background(), p.ProfileID, []model.ContextualInsight{
		{InsightID: model.NewInsightID(), ProfileID: p.ProfileID, AnalysisDate: "2025-10-20", Summary: "first real talk"},
		{InsightID: model.NewInsightID(), ProfileID: p.ProfileID, AnalysisDate: "2025-10-23", Summary: "coffee went well"},
	}))

	chat := llmtest.NewScripted(llmtest.Respond(`{"strategy_analysis":"s","reply_options":[]}`))
	svc := NewAssistService(env.store, chat, env.norm, 5, 5, nopLog())
	_, err := svc.Assist(context.Background(), p.ProfileID, "msg", "thoughts")
	require.NoError(t, err)

	ctxMsg := chat.Requests[0].Messages[1].Content
	require.Contains(t, ctxMsg, "Today is: 2025-10-25")
	require.Contains(t, ctxMsg, "quiet observer")
	// Today has no entries, so the complementary log is the latest active day.
	require.Contains(t, ctxMsg, "Most recent active day (2025-10-23)")
	require.Contains(t, ctxMsg, "coffee together")
	require.Contains(t, ctxMsg, "[2025-10-23]: coffee went well")
	require.True(t, strings.Index(ctxMsg, "[2025-10-23]") < strings.Index(ctxMsg, "[2025-10-20]"))
}

func TestToolChatHistoryFiltersByLocalDate(t *testing.T) {
	env, p := newAssistEnv(t)
	tools := &assistTools{store: env.store, norm: env.norm}

	out := tools.dispatch(context.Background(), p.ProfileID, toolChatHistory, `{"dates":["2025-10-20","bogus"]}`)
	var msgs []model.Message
	require.NoError(t, json.Unmarshal([]byte(out), &msgs))
	require.Len(t, msgs, 2)
	require.Equal(t, "hey", msgs[0].Text)

	out = tools.dispatch(context.Background(), p.ProfileID, toolChatHistory, `{"dates":[]}`)
	require.Contains(t, out, "error")
}

func TestToolSearchInsightsIsCaseInsensitive(t *testing.T) {
	env, p := newAssistEnv(t)
	require.NoError(t, env.store.Insights().Put(context.Background(), p.ProfileID, []model.ContextualInsight{
		{InsightID: model.NewInsightID(), ProfileID: p.ProfileID, AnalysisDate: "2025-10-20", Summary: "Talked about Project Alpha"},
		{InsightID: model.NewInsightID(), ProfileID: p.ProfileID, AnalysisDate: "2025-10-23", Summary: "coffee"},
	}))
	tools := &assistTools{store: env.store, norm: env.norm}

	out := tools.dispatch(context.Background(), p.ProfileID, toolSearchInsights, `{"keyword":"project alpha"}`)
	var found []model.ContextualInsight
	require.NoError(t, json.Unmarshal([]byte(out), &found))
	require.Len(t, found, 1)
	require.Equal(t, model.CivilDate("2025-10-20"), found[0].AnalysisDate)
}

func TestToolRecentEventsCutoff(t *testing.T) {
	env, p := newAssistEnv(t)
	old := evtAt(time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC), "ancient picnic")
	require.NoError(t, env.store.Events().Put(context.Background(), p.ProfileID, []model.Event{
		old,
		evtAt(time.Date(2025, 10, 23, 5, 0, 0, 0, time.UTC), "coffee together"),
	}))
	tools := &assistTools{store: env.store, norm: env.norm}

	out := tools.dispatch(context.Background(), p.ProfileID, toolRecentEvents, `{"days":7}`)
	var evts []model.Event
	require.NoError(t, json.Unmarshal([]byte(out), &evts))
	require.Len(t, evts, 1)
	require.Equal(t, "coffee together", evts[0].Summary)
}
