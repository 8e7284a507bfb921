package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/confidant-ai/confidant/internal/llm"
	"github.com/confidant-ai/confidant/internal/model"
	"github.com/confidant-ai/confidant/internal/prompts"
	"github.com/confidant-ai/confidant/internal/store"
	"github.com/confidant-ai/confidant/internal/timex"
)

// PersonaService maintains the two persona documents and runs the
// day-by-day incremental analysis that turns timeline entries into
// contextual insights.
type PersonaService struct {
	store store.Store
	chat  llm.Model
	norm  *timex.Normalizer
	locks *ProfileLocks
	log   zerolog.Logger
}

func NewPersonaService(s store.Store, chat llm.Model, norm *timex.Normalizer, locks *ProfileLocks, log zerolog.Logger) *PersonaService {
	return &PersonaService{store: s, chat: chat, norm: norm, locks: locks, log: log}
}

// GetUser loads the user persona. Absent personas are model.ErrNotFound.
func (s *PersonaService) GetUser(ctx context.Context, profileID string) (*model.UserPersona, error) {
	return s.store.Personas().GetUser(ctx, profileID)
}

// GetOpponent loads the opponent persona. Absent personas are model.ErrNotFound.
func (s *PersonaService) GetOpponent(ctx context.Context, profileID string) (*model.OpponentPersona, error) {
	return s.store.Personas().GetOpponent(ctx, profileID)
}

// ListInsights returns the profile's insights, newest analysis date first.
func (s *PersonaService) ListInsights(ctx context.Context, profileID string) ([]model.ContextualInsight, error) {
	if _, err := s.store.Profiles().Get(ctx, profileID); err != nil {
		return nil, err
	}
	insights, err := s.store.Insights().List(ctx, profileID)
	if err != nil {
		return nil, err
	}
	sortInsightsDesc(insights)
	return insights, nil
}

// PolishUserPersona rewrites the user's raw self-description through the
// language model and stores the result, creating the persona lazily.
func (s *PersonaService) PolishUserPersona(ctx context.Context, profileID, description string) (*model.UserPersona, error) {
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("description is required: %w", model.ErrValidation)
	}
	if _, err := s.store.Profiles().Get(ctx, profileID); err != nil {
		return nil, err
	}
	resp, err := s.chat.Complete(ctx, llm.Request{
		Messages:    []llm.Message{llm.UserMessage(fmt.Sprintf(prompts.UserPersonaPolish, description))},
		Temperature: 0.3,
	})
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(profileID)
	defer unlock()
	persona, err := s.store.Personas().GetUser(ctx, profileID)
	if errors.Is(err, model.ErrNotFound) {
		persona = &model.UserPersona{ProfileID: profileID}
	} else if err != nil {
		return nil, err
	}
	persona.SelfSummary = strings.TrimSpace(resp.Content)
	persona.LastUpdated = s.norm.Now().UTC()
	if err := s.store.Personas().PutUser(ctx, persona); err != nil {
		return nil, fmt.Errorf("save user persona: %w", err)
	}
	return persona, nil
}

// ExtractOpponentFacts pulls labeled facts out of a free-text description and
// merges them into the opponent persona's basic info without overwriting
// established values.
func (s *PersonaService) ExtractOpponentFacts(ctx context.Context, profileID, description string) (*model.OpponentPersona, error) {
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("description is required: %w", model.ErrValidation)
	}
	if _, err := s.store.Profiles().Get(ctx, profileID); err != nil {
		return nil, err
	}
	resp, err := s.chat.Complete(ctx, llm.Request{
		Messages:    []llm.Message{llm.UserMessage(fmt.Sprintf(prompts.OpponentBasicExtract, description))},
		JSONMode:    true,
		Temperature: 0.0,
	})
	if err != nil {
		return nil, err
	}
	extracted, err := decodeFactMap([]byte(resp.Content))
	if err != nil {
		return nil, fmt.Errorf("fact extraction returned invalid JSON: %w", model.ErrUpstream)
	}

	unlock := s.locks.Lock(profileID)
	defer unlock()
	persona, err := s.loadOrNewOpponent(ctx, profileID)
	if err != nil {
		return nil, err
	}
	persona.BasicInfo = MergeBasicInfo(persona.BasicInfo, extracted)
	persona.LastUpdated = s.norm.Now().UTC()
	if err := s.store.Personas().PutOpponent(ctx, persona); err != nil {
		return nil, fmt.Errorf("save opponent persona: %w", err)
	}
	return persona, nil
}

// MergeBasicInfo folds newly extracted facts into existing ones without
// destroying information: a new key is adopted, an identical value is a
// no-op, and a genuinely different value for a known key is appended with
// " & " unless the stored value already contains it.
func MergeBasicInfo(existing, extracted map[string]string) map[string]string {
	merged := make(map[string]string, len(existing)+len(extracted))
	for k, v := range existing {
		merged[k] = v
	}
	for k, newVal := range extracted {
		old, ok := merged[k]
		if !ok || old == newVal {
			merged[k] = newVal
			continue
		}
		if !strings.Contains(old, newVal) {
			merged[k] = old + " & " + newVal
		}
	}
	return merged
}

// RunIncremental walks every local calendar day between the profile's first
// and last entry, analyzing each day that has entries and no insight yet. A
// day whose extraction call fails is skipped and remains eligible for the
// next run; a failed chat-analysis update keeps the previous analysis. All
// persona and insight writes happen once, after the walk.
func (s *PersonaService) RunIncremental(ctx context.Context, profileID string) (*model.AnalysisReport, error) {
	unlock := s.locks.Lock(profileID)
	defer unlock()

	p, err := s.store.Profiles().Get(ctx, profileID)
	if err != nil {
		return nil, err
	}
	evts, err := s.store.Events().List(ctx, profileID)
	if err != nil {
		return nil, err
	}
	p.Events = evts

	items := collectItems(p)
	if len(items) == 0 {
		return nil, fmt.Errorf("profile has no timeline entries to analyze: %w", model.ErrPrecondition)
	}
	loc := s.norm.Location()
	minDate := model.CivilDateOf(items[0].Timestamp, loc)
	maxDate := model.CivilDateOf(items[len(items)-1].Timestamp, loc)

	insights, err := s.store.Insights().List(ctx, profileID)
	if err != nil {
		return nil, err
	}
	analyzed := make(map[model.CivilDate]bool, len(insights))
	for _, ins := range insights {
		analyzed[ins.AnalysisDate] = true
	}
	persona, err := s.loadOrNewOpponent(ctx, profileID)
	if err != nil {
		return nil, err
	}

	report := &model.AnalysisReport{
		TotalDays:   minDate.DaysUntil(maxDate) + 1,
		NewInsights: []model.ContextualInsight{},
	}

	for d := minDate; d <= maxDate; d = d.Next() {
		if analyzed[d] {
			report.SkippedCount++
			continue
		}
		dayItems := itemsOnDate(items, d, loc)
		if len(dayItems) == 0 {
			report.SkippedCount++
			continue
		}

		ins, ok := s.analyzeDay(ctx, p, persona, d, dayItems)
		if !ok {
			report.SkippedCount++
			continue
		}
		insights = append(insights, ins)
		report.NewInsights = append(report.NewInsights, ins)
		report.ProcessedCount++
	}

	persona.LastUpdated = s.norm.Now().UTC()
	if err := s.store.Personas().PutOpponent(ctx, persona); err != nil {
		return nil, fmt.Errorf("save analysis results: %w: %v", model.ErrPersistence, err)
	}
	sortInsightsDesc(insights)
	if err := s.store.Insights().Put(ctx, profileID, insights); err != nil {
		return nil, fmt.Errorf("save analysis results: %w: %v", model.ErrPersistence, err)
	}
	s.log.Info().
		Str("profile_id", profileID).
		Int("total_days", report.TotalDays).
		Int("processed", report.ProcessedCount).
		Int("skipped", report.SkippedCount).
		Msg("incremental analysis complete")
	return report, nil
}

// analyzeDay runs the two model calls for one day and mutates persona in
// place. ok is false when the day must be skipped entirely.
func (s *PersonaService) analyzeDay(ctx context.Context, p *model.Profile, persona *model.OpponentPersona, d model.CivilDate, dayItems []model.TimelineItem) (model.ContextualInsight, bool) {
	loc := s.norm.Location()
	dayLog := formatDayLog(dayItems, p.UserName, p.OpponentName, loc)

	resp, err := s.chat.Complete(ctx, llm.Request{
		Messages: []llm.Message{llm.UserMessage(
			fmt.Sprintf(prompts.ExtractAndSummarize, p.UserName, p.OpponentName, dayLog))},
		JSONMode:    true,
		Temperature: 0.2,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("date", d.String()).Msg("extract/summarize call failed; day skipped")
		return model.ContextualInsight{}, false
	}
	var wire struct {
		ExtractedInfo map[string]any `json:"extracted_info"`
		Summary       string         `json:"summary"`
	}
	if err := json.Unmarshal([]byte(resp.Content), &wire); err != nil {
		s.log.Warn().Err(err).Str("date", d.String()).Msg("extract/summarize returned invalid JSON; day skipped")
		return model.ContextualInsight{}, false
	}
	if wire.Summary == "" {
		wire.Summary = "summary unavailable"
	}
	persona.BasicInfo = MergeBasicInfo(persona.BasicInfo, coerceFactMap(wire.ExtractedInfo))

	previous := persona.ChatAnalysis
	if previous == "" {
		previous = prompts.ChatAnalysisBootstrap
	}
	resp2, err := s.chat.Complete(ctx, llm.Request{
		Messages: []llm.Message{llm.UserMessage(
			fmt.Sprintf(prompts.ChatAnalysisUpdate, previous, dayLog))},
		Temperature: 0.4,
	})
	if err != nil {
		// Keep the previous analysis; the insight for the day still lands.
		s.log.Warn().Err(err).Str("date", d.String()).Msg("chat analysis update failed; previous analysis kept")
	} else {
		persona.ChatAnalysis = strings.TrimSpace(resp2.Content)
	}

	var msgCount, evtCount int
	ids := make([]string, 0, len(dayItems))
	for _, it := range dayItems {
		ids = append(ids, it.ID())
		if it.Kind == model.EntryMessage {
			msgCount++
		} else {
			evtCount++
		}
	}

	return model.ContextualInsight{
		InsightID:        model.NewInsightID(),
		ProfileID:        p.ProfileID,
		AnalysisDate:     d,
		Summary:          wire.Summary,
		ProcessedItemIDs: ids,
		ImportanceScore:  msgCount*1 + evtCount*10,
		CreationTime:     s.norm.Now().UTC(),
	}, true
}

func (s *PersonaService) loadOrNewOpponent(ctx context.Context, profileID string) (*model.OpponentPersona, error) {
	persona, err := s.store.Personas().GetOpponent(ctx, profileID)
	if errors.Is(err, model.ErrNotFound) {
		return &model.OpponentPersona{ProfileID: profileID, BasicInfo: map[string]string{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return persona, nil
}

// decodeFactMap parses a flat JSON object, tolerating non-string scalar
// values by rendering them as strings.
func decodeFactMap(body []byte) (map[string]string, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	return coerceFactMap(raw), nil
}

func coerceFactMap(raw map[string]any) map[string]string {
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			out[k] = val
		case nil:
			// drop nulls
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}

func sortInsightsDesc(insights []model.ContextualInsight) {
	sort.SliceStable(insights, func(i, j int) bool {
		return insights[i].AnalysisDate > insights[j].AnalysisDate
	})
}
