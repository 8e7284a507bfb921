package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sender identifies who produced a message. The "User 1"/"User 2" labels are
// the wire contract with the vision model prompt; display names are resolved
// per profile when formatting.
type Sender string

const (
	SenderUser     Sender = "User 1"
	SenderOpponent Sender = "User 2"
	SenderSystem   Sender = "system"
)

// ContentKind tags what a message carries besides (or instead of) text.
type ContentKind string

const (
	ContentText     ContentKind = "text"
	ContentImage    ContentKind = "image"
	ContentTransfer ContentKind = "transfer"
	ContentEmoji    ContentKind = "emoji"
	ContentSystem   ContentKind = "system"
	ContentVideo    ContentKind = "video"
	ContentUnknown  ContentKind = "unknown"
)

// Message is one chat message on a profile's timeline. Timestamp is always a
// UTC instant; naive values never reach storage.
type Message struct {
	MessageID       string      `json:"messageId"`
	Timestamp       time.Time   `json:"timestamp"`
	Sender          Sender      `json:"sender"`
	ContentType     ContentKind `json:"contentType"`
	Text            string      `json:"text,omitempty"`
	SourceImageHash string      `json:"sourceImageHash,omitempty"`
	IsEditable      bool        `json:"isEditable"`
	RawModelOutput  string      `json:"rawModelOutput,omitempty"`
	AutoFilledDate  bool        `json:"autoFilledDate"`
	AutoFilledTime  bool        `json:"autoFilledTime"`
}

// Event is a manually logged offline occurrence (a date, a call, a gift).
type Event struct {
	EventID         string    `json:"eventId"`
	Timestamp       time.Time `json:"timestamp"`
	Summary         string    `json:"summary"`
	OriginalText    string    `json:"originalText,omitempty"`
	SourceImageHash string    `json:"sourceImageHash,omitempty"`
}

// Profile is one tracked relationship's complete dataset. Events live in a
// separate record; Get merges them in.
type Profile struct {
	ProfileID        string    `json:"profileId"`
	ProfileName      string    `json:"profileName"`
	UserName         string    `json:"userName"`
	OpponentName     string    `json:"opponentName"`
	CreationTime     time.Time `json:"creationTime"`
	ProcessedSources []string  `json:"processedSources"`
	Messages         []Message `json:"messages"`
	Events           []Event   `json:"events,omitempty"`
}

// UserPersona is the user's own free-text self-summary, polished by the model.
type UserPersona struct {
	ProfileID   string    `json:"profileId"`
	SelfSummary string    `json:"selfSummary"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// OpponentPersona accumulates durable knowledge about the counterpart:
// BasicInfo grows monotonically via merge; ChatAnalysis is replaced wholesale
// on each successful incremental pass.
type OpponentPersona struct {
	ProfileID    string            `json:"profileId"`
	BasicInfo    map[string]string `json:"basicInfo"`
	ChatAnalysis string            `json:"chatAnalysis,omitempty"`
	LastUpdated  time.Time         `json:"lastUpdated"`
}

// ContextualInsight is the immutable daily summary artifact. A date with an
// insight is never reprocessed.
type ContextualInsight struct {
	InsightID        string    `json:"insightId"`
	ProfileID        string    `json:"profileId"`
	AnalysisDate     CivilDate `json:"analysisDate"`
	Summary          string    `json:"summary"`
	ProcessedItemIDs []string  `json:"processedItemIds"`
	ImportanceScore  int       `json:"importanceScore"`
	CreationTime     time.Time `json:"creationTime"`
}

// TokenUsage mirrors the model collaborator's reported counters.
type TokenUsage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// Add accumulates counters from another usage report.
func (u *TokenUsage) Add(other TokenUsage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// ImportResult is the outcome of parsing one screenshot.
type ImportResult struct {
	ImageHash string     `json:"imageHash"`
	Messages  []Message  `json:"messages"`
	Usage     TokenUsage `json:"usage"`
}

// AnalysisReport aggregates one incremental analysis run.
type AnalysisReport struct {
	TotalDays      int                 `json:"totalDays"`
	ProcessedCount int                 `json:"processedCount"`
	SkippedCount   int                 `json:"skippedCount"`
	NewInsights    []ContextualInsight `json:"newInsights"`
}

// EntryKind discriminates the timeline sum type.
type EntryKind string

const (
	EntryMessage EntryKind = "message"
	EntryEvent   EntryKind = "event"
)

// TimelineItem is the tagged union of Message | Event. Exactly one of the
// payload pointers is non-nil, matching Kind.
type TimelineItem struct {
	Kind      EntryKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Message   *Message  `json:"message,omitempty"`
	Event     *Event    `json:"event,omitempty"`
}

// ID returns the underlying entry's identifier.
func (it TimelineItem) ID() string {
	switch it.Kind {
	case EntryMessage:
		return it.Message.MessageID
	case EntryEvent:
		return it.Event.EventID
	}
	return ""
}

// ItemOfMessage wraps a message as a timeline item.
func ItemOfMessage(m Message) TimelineItem {
	cp := m
	return TimelineItem{Kind: EntryMessage, Timestamp: m.Timestamp, Message: &cp}
}

// ItemOfEvent wraps an event as a timeline item.
func ItemOfEvent(e Event) TimelineItem {
	cp := e
	return TimelineItem{Kind: EntryEvent, Timestamp: e.Timestamp, Event: &cp}
}

// DateNode is one calendar day of the day-grouped timeline view.
type DateNode struct {
	Date           CivilDate      `json:"date"`
	ItemCount      int            `json:"itemCount"`
	InsightSummary string         `json:"insightSummary,omitempty"`
	Items          []TimelineItem `json:"items"`
}

func newID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}

// NewProfileID returns a fresh profile identifier ("prof_<32 hex>").
func NewProfileID() string { return newID("prof") }

// NewMessageID returns a fresh message identifier.
func NewMessageID() string { return newID("msg") }

// NewEventID returns a fresh event identifier.
func NewEventID() string { return newID("evt") }

// NewInsightID returns a fresh insight identifier.
func NewInsightID() string { return newID("ins") }
