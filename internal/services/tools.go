package services

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/confidant-ai/confidant/internal/llm"
	"github.com/confidant-ai/confidant/internal/model"
	"github.com/confidant-ai/confidant/internal/store"
	"github.com/confidant-ai/confidant/internal/timex"
)

// Tool argument shapes. Schemas are reflected from these, so the jsonschema
// tags are the tool contract the model sees.
type chatHistoryArgs struct {
	Dates []string `json:"dates" jsonschema:"required" jsonschema_description:"Dates to fetch, each formatted YYYY-MM-DD, e.g. [\"2025-10-26\",\"2025-10-24\"]"`
}

type recentEventsArgs struct {
	Days int `json:"days,omitempty" jsonschema_description:"How many recent days of events to fetch; defaults to 7"`
}

type searchInsightsArgs struct {
	Keyword string `json:"keyword" jsonschema:"required" jsonschema_description:"Keyword to match against insight summaries, case-insensitive"`
}

const (
	toolOpponentPersona = "get_opponent_persona_details"
	toolChatHistory     = "get_recent_chat_history"
	toolRecentEvents    = "get_recent_events"
	toolSearchInsights  = "search_insights_by_keyword"
)

// assistTools executes the strategist's tool calls against the store. Every
// call returns a JSON string; failures are encoded as {"error": ...} so the
// loop never aborts on a bad tool invocation.
type assistTools struct {
	store store.Store
	norm  *timex.Normalizer
}

// definitions declares the four tools offered to the strategist.
func (t *assistTools) definitions() []llm.Tool {
	return []llm.Tool{
		{
			Name:        toolOpponentPersona,
			Description: "Get the counterpart's full persona: accumulated basic_info facts and the running chat_analysis. Use when you need their background, contacts, or communication style.",
			Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		},
		{
			Name:        toolChatHistory,
			Description: "Get the detailed chat messages for specific calendar dates, when the summaries are not enough.",
			Parameters:  llm.GenerateSchema[chatHistoryArgs](),
		},
		{
			Name:        toolRecentEvents,
			Description: "Get the detailed offline events from the last N days.",
			Parameters:  llm.GenerateSchema[recentEventsArgs](),
		},
		{
			Name:        toolSearchInsights,
			Description: "Search all historical daily insight summaries for a keyword. Use to locate a past topic.",
			Parameters:  llm.GenerateSchema[searchInsightsArgs](),
		},
	}
}

// dispatch runs one named tool. Unknown names and argument problems come back
// as error JSON for the model to read.
func (t *assistTools) dispatch(ctx context.Context, profileID, name, arguments string) string {
	switch name {
	case toolOpponentPersona:
		return t.opponentPersona(ctx, profileID)
	case toolChatHistory:
		var args chatHistoryArgs
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return errJSON("invalid arguments: " + err.Error())
		}
		return t.chatHistory(ctx, profileID, args.Dates)
	case toolRecentEvents:
		var args recentEventsArgs
		if arguments != "" {
			if err := json.Unmarshal([]byte(arguments), &args); err != nil {
				return errJSON("invalid arguments: " + err.Error())
			}
		}
		return t.recentEvents(ctx, profileID, args.Days)
	case toolSearchInsights:
		var args searchInsightsArgs
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return errJSON("invalid arguments: " + err.Error())
		}
		return t.searchInsights(ctx, profileID, args.Keyword)
	}
	return errJSON("tool '" + name + "' not found")
}

func (t *assistTools) opponentPersona(ctx context.Context, profileID string) string {
	persona, err := t.store.Personas().GetOpponent(ctx, profileID)
	if err != nil {
		return errJSON("opponent persona not available: " + err.Error())
	}
	return mustJSON(map[string]any{
		"basicInfo":    persona.BasicInfo,
		"chatAnalysis": persona.ChatAnalysis,
		"lastUpdated":  persona.LastUpdated,
	})
}

func (t *assistTools) chatHistory(ctx context.Context, profileID string, dates []string) string {
	if len(dates) == 0 {
		return errJSON("no dates provided")
	}
	wanted := make(map[model.CivilDate]bool, len(dates))
	for _, ds := range dates {
		d, err := model.ParseCivilDate(ds)
		if err != nil {
			continue // skip malformed dates rather than failing the call
		}
		wanted[d] = true
	}
	if len(wanted) == 0 {
		return errJSON("no valid dates provided")
	}
	p, err := t.store.Profiles().Get(ctx, profileID)
	if err != nil {
		return errJSON("failed to load messages: " + err.Error())
	}
	loc := t.norm.Location()
	selected := make([]model.Message, 0)
	for _, m := range p.Messages {
		if wanted[model.CivilDateOf(m.Timestamp, loc)] {
			selected = append(selected, m)
		}
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Timestamp.Before(selected[j].Timestamp)
	})
	return mustJSON(selected)
}

func (t *assistTools) recentEvents(ctx context.Context, profileID string, days int) string {
	if days <= 0 {
		days = 7
	}
	evts, err := t.store.Events().List(ctx, profileID)
	if err != nil {
		return errJSON("failed to load events: " + err.Error())
	}
	cutoff := t.norm.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
	recent := make([]model.Event, 0)
	for _, e := range evts {
		if !e.Timestamp.UTC().Before(cutoff) {
			recent = append(recent, e)
		}
	}
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Timestamp.Before(recent[j].Timestamp)
	})
	return mustJSON(recent)
}

func (t *assistTools) searchInsights(ctx context.Context, profileID, keyword string) string {
	insights, err := t.store.Insights().List(ctx, profileID)
	if err != nil {
		return errJSON("failed to search insights: " + err.Error())
	}
	needle := strings.ToLower(keyword)
	found := make([]model.ContextualInsight, 0)
	for _, ins := range insights {
		if strings.Contains(strings.ToLower(ins.Summary), needle) {
			found = append(found, ins)
		}
	}
	sortInsightsDesc(found)
	return mustJSON(found)
}

func errJSON(msg string) string {
	return mustJSON(map[string]string{"error": msg})
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `{"error":"failed to encode tool result"}`
	}
	return string(b)
}
