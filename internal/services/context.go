package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/confidant-ai/confidant/internal/model"
)

// buildInitialContext assembles the strategist's opening context: today's
// date, the user persona, the counterpart's running chat analysis, detailed
// logs for today plus one complementary day, and the K most recent insight
// summaries. Missing pieces degrade to placeholders; the context is always
// buildable.
//
// The complementary day is the previous active day when today has entries,
// or the most recent active day when it does not, so the model always sees
// the freshest real conversation.
func (s *AssistService) buildInitialContext(ctx context.Context, p *model.Profile, kInsights int) string {
	loc := s.norm.Location()
	today := model.CivilDateOf(s.norm.Now(), loc)

	userPersonaText := "(no user persona yet)"
	if up, err := s.store.Personas().GetUser(ctx, p.ProfileID); err == nil && up.SelfSummary != "" {
		userPersonaText = up.SelfSummary
	}
	chatAnalysis := "(no communication-style analysis yet)"
	if op, err := s.store.Personas().GetOpponent(ctx, p.ProfileID); err == nil && op.ChatAnalysis != "" {
		chatAnalysis = op.ChatAnalysis
	}

	items := collectItems(p)
	byDate := make(map[model.CivilDate][]model.TimelineItem)
	for _, it := range items {
		d := model.CivilDateOf(it.Timestamp, loc)
		byDate[d] = append(byDate[d], it)
	}
	activeDates := make([]model.CivilDate, 0, len(byDate))
	for d := range byDate {
		activeDates = append(activeDates, d)
	}
	// Newest first.
	sort.Slice(activeDates, func(i, j int) bool { return activeDates[i] > activeDates[j] })

	dayLog := func(d model.CivilDate) string {
		entries := byDate[d]
		if len(entries) == 0 {
			return "(no entries)"
		}
		return formatDayLog(entries, p.UserName, p.OpponentName, loc)
	}

	todayLog := dayLog(today)
	var compDate model.CivilDate
	var compLabel string
	if len(byDate[today]) > 0 {
		for _, d := range activeDates {
			if d < today {
				compDate = d
				break
			}
		}
		compLabel = "Previous active day"
	} else {
		if len(activeDates) > 0 {
			compDate = activeDates[0]
		}
		compLabel = "Most recent active day"
	}
	compLog := "(no entries)"
	if compDate != "" {
		compLog = dayLog(compDate)
		compLabel = fmt.Sprintf("%s (%s)", compLabel, compDate)
	} else {
		compLabel += " (none)"
	}

	insights, err := s.store.Insights().List(ctx, p.ProfileID)
	if err != nil {
		insights = nil
	}
	sortInsightsDesc(insights)
	if len(insights) > kInsights {
		insights = insights[:kInsights]
	}
	insightLines := make([]string, 0, len(insights))
	for _, ins := range insights {
		insightLines = append(insightLines, fmt.Sprintf("[%s]: %s", ins.AnalysisDate, ins.Summary))
	}
	insightsText := "(none)"
	if len(insightLines) > 0 {
		insightsText = strings.Join(insightLines, "\n")
	}

	parts := []string{
		"--- Initial context ---",
		"Today is: " + today.String(),
		"",
		"1. User persona:",
		userPersonaText,
		"",
		"2. Counterpart communication-style analysis:",
		chatAnalysis,
		"",
		fmt.Sprintf("3. Today's (%s) detailed log:", today),
		todayLog,
		"",
		"4. " + compLabel + " detailed log:",
		compLog,
		"",
		fmt.Sprintf("5. Earlier interaction summaries (%d):", len(insightLines)),
		insightsText,
		"--- End of initial context ---",
		"",
		"Hint: use " + toolOpponentPersona + " for the counterpart's background facts, and " + toolChatHistory + " for chat detail from dates not shown above.",
	}
	return strings.Join(parts, "\n")
}
