package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/confidant-ai/confidant/internal/llm"
	"github.com/confidant-ai/confidant/internal/model"
	"github.com/confidant-ai/confidant/internal/prompts"
	"github.com/confidant-ai/confidant/internal/store"
	"github.com/confidant-ai/confidant/internal/timex"
)

// AssistService runs the bounded tool-calling strategist loop. Model
// failures, malformed final answers, and exhausting the round budget all
// produce a structured AssistResult carrying Error; a Go error only means
// the profile could not be loaded.
type AssistService struct {
	store        store.Store
	chat         llm.Model
	norm         *timex.Normalizer
	tools        *assistTools
	maxRounds    int
	insightCount int
	log          zerolog.Logger
}

// AssistResult is the loop's outcome. Exactly one of Error or the
// strategy/options pair is populated.
type AssistResult struct {
	StrategyAnalysis string   `json:"strategy_analysis,omitempty"`
	ReplyOptions     []string `json:"reply_options,omitempty"`
	Error            string   `json:"error,omitempty"`
}

func NewAssistService(s store.Store, chat llm.Model, norm *timex.Normalizer, maxRounds, insightCount int, log zerolog.Logger) *AssistService {
	return &AssistService{
		store:        s,
		chat:         chat,
		norm:         norm,
		tools:        &assistTools{store: s, norm: norm},
		maxRounds:    maxRounds,
		insightCount: insightCount,
		log:          log,
	}
}

// Loop states. Each round either requests tools (stay in the loop), yields a
// final answer, or fails; running out of rounds is a failure of its own.
type loopState int

const (
	stateCalling loopState = iota
	stateDone
	stateFailed
)

// Assist answers one "what do I say to this?" request. opponentMessage is the
// counterpart's latest message, userThoughts the user's private read on it.
func (s *AssistService) Assist(ctx context.Context, profileID, opponentMessage, userThoughts string) (*AssistResult, error) {
	if opponentMessage == "" {
		return nil, fmt.Errorf("opponent_message is required: %w", model.ErrValidation)
	}
	p, err := s.store.Profiles().Get(ctx, profileID)
	if err != nil {
		return nil, err
	}
	evts, err := s.store.Events().List(ctx, profileID)
	if err != nil {
		return nil, err
	}
	p.Events = evts

	conversation := []llm.Message{
		llm.SystemMessage(fmt.Sprintf(prompts.Strategist, p.UserName, p.OpponentName)),
		llm.SystemMessage(s.buildInitialContext(ctx, p, s.insightCount)),
		llm.UserMessage(fmt.Sprintf(
			"--- Request for help ---\n[Counterpart's latest message]: %s\n[My honest thoughts]: %s\n--- Begin your analysis ---",
			opponentMessage, userThoughts)),
	}

	state := stateCalling
	result := &AssistResult{}
	for round := 0; state == stateCalling; round++ {
		if round >= s.maxRounds {
			state = stateFailed
			result = &AssistResult{Error: fmt.Sprintf("reasoning did not converge within %d rounds", s.maxRounds)}
			break
		}
		s.log.Debug().Str("profile_id", profileID).Int("round", round+1).Int("messages", len(conversation)).Msg("assist round")

		resp, err := s.chat.Complete(ctx, llm.Request{
			Messages:    conversation,
			Tools:       s.tools.definitions(),
			JSONMode:    true,
			Temperature: 0.5,
		})
		if err != nil {
			state = stateFailed
			result = &AssistResult{Error: "model call failed: " + err.Error()}
			break
		}

		if len(resp.ToolCalls) > 0 {
			conversation = append(conversation, resp.AssistantTurn())
			for _, tc := range resp.ToolCalls {
				out := s.tools.dispatch(ctx, profileID, tc.Name, tc.Arguments)
				conversation = append(conversation, llm.ToolMessage(out, tc.ID))
			}
			continue // stateCalling
		}

		final, perr := parseFinalAnswer(resp.Content)
		if perr != nil {
			state = stateFailed
			result = &AssistResult{Error: perr.Error()}
			break
		}
		state = stateDone
		result = final
	}

	if state == stateFailed {
		s.log.Warn().Str("profile_id", profileID).Str("error", result.Error).Msg("assist loop failed")
	}
	return result, nil
}

// parseFinalAnswer validates the strategist's closing JSON. Both keys must be
// present for the answer to count.
func parseFinalAnswer(content string) (*AssistResult, error) {
	var wire struct {
		StrategyAnalysis *string  `json:"strategy_analysis"`
		ReplyOptions     []string `json:"reply_options"`
	}
	if err := json.Unmarshal([]byte(content), &wire); err != nil {
		return nil, fmt.Errorf("final reply is not valid JSON: %s", content)
	}
	if wire.StrategyAnalysis == nil || wire.ReplyOptions == nil {
		return nil, fmt.Errorf("final reply is missing required fields: %s", content)
	}
	return &AssistResult{StrategyAnalysis: *wire.StrategyAnalysis, ReplyOptions: wire.ReplyOptions}, nil
}
