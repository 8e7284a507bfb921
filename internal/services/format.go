package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/confidant-ai/confidant/internal/model"
)

func nowUTC() time.Time { return time.Now().UTC() }

// collectItems merges a profile's messages and events into one timeline slice
// sorted by UTC instant (stable, so same-instant entries keep storage order).
func collectItems(p *model.Profile) []model.TimelineItem {
	items := make([]model.TimelineItem, 0, len(p.Messages)+len(p.Events))
	for _, m := range p.Messages {
		items = append(items, model.ItemOfMessage(m))
	}
	for _, e := range p.Events {
		items = append(items, model.ItemOfEvent(e))
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp.UTC().Before(items[j].Timestamp.UTC())
	})
	return items
}

// itemsOnDate filters sorted items to those falling on one local calendar day.
func itemsOnDate(items []model.TimelineItem, date model.CivilDate, loc *time.Location) []model.TimelineItem {
	var out []model.TimelineItem
	for _, it := range items {
		if model.CivilDateOf(it.Timestamp, loc) == date {
			out = append(out, it)
		}
	}
	return out
}

// senderName resolves a wire sender label to the profile's display name.
func senderName(s model.Sender, userName, opponentName string) string {
	switch s {
	case model.SenderUser:
		return userName
	case model.SenderOpponent:
		return opponentName
	}
	return "System"
}

// formatDayLog renders one day's items as the plain-text transcript the
// analysis and strategist prompts consume. Events are marked distinctly from
// chat messages so the model can tell the channels apart.
func formatDayLog(items []model.TimelineItem, userName, opponentName string, loc *time.Location) string {
	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		clock := it.Timestamp.In(loc).Format("15:04")
		switch it.Kind {
		case model.EntryMessage:
			m := it.Message
			fmt.Fprintf(&b, "[%s] %s: %s (Type: %s)", clock, senderName(m.Sender, userName, opponentName), m.Text, m.ContentType)
		case model.EntryEvent:
			fmt.Fprintf(&b, "[%s] [offline event]: %s", clock, it.Event.Summary)
		}
	}
	return b.String()
}
