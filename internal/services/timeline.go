package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/confidant-ai/confidant/internal/model"
	"github.com/confidant-ai/confidant/internal/store"
	"github.com/confidant-ai/confidant/internal/timex"
)

// TimelineService appends entries to a profile's timeline and answers
// date-bucketed queries over it. All timestamps are normalized to UTC before
// they touch storage; day bucketing happens in the configured local zone.
type TimelineService struct {
	store store.Store
	norm  *timex.Normalizer
	locks *ProfileLocks
	log   zerolog.Logger
}

func NewTimelineService(s store.Store, norm *timex.Normalizer, locks *ProfileLocks, log zerolog.Logger) *TimelineService {
	return &TimelineService{store: s, norm: norm, locks: locks, log: log}
}

// AppendMessages adds messages to the profile's timeline, re-sorts the whole
// list by UTC instant, and records each message's source fingerprint as
// processed in the same commit. Blank message IDs are assigned here.
func (s *TimelineService) AppendMessages(ctx context.Context, profileID string, msgs []model.Message) (*model.Profile, error) {
	if len(msgs) == 0 {
		return nil, fmt.Errorf("no messages to append: %w", model.ErrValidation)
	}
	unlock := s.locks.Lock(profileID)
	defer unlock()

	p, err := s.store.Profiles().Get(ctx, profileID)
	if err != nil {
		return nil, err
	}
	for i := range msgs {
		if msgs[i].MessageID == "" {
			msgs[i].MessageID = model.NewMessageID()
		}
		msgs[i].Timestamp = msgs[i].Timestamp.UTC()
	}
	p.Messages = append(p.Messages, msgs...)
	sort.SliceStable(p.Messages, func(i, j int) bool {
		return p.Messages[i].Timestamp.Before(p.Messages[j].Timestamp)
	})

	// Source fingerprints become "processed" in the same write that makes the
	// messages durable. Recording at upload time would let a failed commit
	// silently swallow a screenshot.
	seen := make(map[string]bool, len(p.ProcessedSources))
	for _, h := range p.ProcessedSources {
		seen[h] = true
	}
	for _, m := range msgs {
		if m.SourceImageHash != "" && !seen[m.SourceImageHash] {
			p.ProcessedSources = append(p.ProcessedSources, m.SourceImageHash)
			seen[m.SourceImageHash] = true
		}
	}

	if err := s.store.Profiles().Put(ctx, p); err != nil {
		return nil, fmt.Errorf("append messages: %w", err)
	}
	s.log.Debug().Str("profile_id", profileID).Int("count", len(msgs)).Msg("messages appended")

	evts, err := s.store.Events().List(ctx, profileID)
	if err != nil {
		return nil, err
	}
	p.Events = evts
	return p, nil
}

// AppendEvent adds one event to the profile's separate events record, kept
// sorted by UTC instant. Blank event IDs are assigned here.
func (s *TimelineService) AppendEvent(ctx context.Context, profileID string, ev model.Event) (*model.Profile, error) {
	unlock := s.locks.Lock(profileID)
	defer unlock()

	p, err := s.store.Profiles().Get(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if ev.EventID == "" {
		ev.EventID = model.NewEventID()
	}
	ev.Timestamp = ev.Timestamp.UTC()

	evts, err := s.store.Events().List(ctx, profileID)
	if err != nil {
		return nil, err
	}
	evts = append(evts, ev)
	sort.SliceStable(evts, func(i, j int) bool {
		return evts[i].Timestamp.Before(evts[j].Timestamp)
	})
	if err := s.store.Events().Put(ctx, profileID, evts); err != nil {
		return nil, fmt.Errorf("append event: %w", err)
	}
	p.Events = evts
	return p, nil
}

// WasSourceProcessed reports whether a screenshot fingerprint has already
// produced committed messages for this profile.
func (s *TimelineService) WasSourceProcessed(ctx context.Context, profileID, imageHash string) (bool, error) {
	p, err := s.store.Profiles().Get(ctx, profileID)
	if err != nil {
		return false, err
	}
	for _, h := range p.ProcessedSources {
		if h == imageHash {
			return true, nil
		}
	}
	return false, nil
}

// DateRange returns the local calendar dates of the profile's earliest and
// latest entries; ok is false when the timeline is empty.
func (s *TimelineService) DateRange(ctx context.Context, profileID string) (min, max model.CivilDate, ok bool, err error) {
	p, err := s.loadWithEvents(ctx, profileID)
	if err != nil {
		return "", "", false, err
	}
	items := collectItems(p)
	if len(items) == 0 {
		return "", "", false, nil
	}
	loc := s.norm.Location()
	return model.CivilDateOf(items[0].Timestamp, loc),
		model.CivilDateOf(items[len(items)-1].Timestamp, loc),
		true, nil
}

// Timeline builds the day-grouped view: one node per local calendar day with
// entries, newest day first, items within a day oldest first, with the day's
// insight summary attached when one exists.
func (s *TimelineService) Timeline(ctx context.Context, profileID string) ([]model.DateNode, error) {
	p, err := s.loadWithEvents(ctx, profileID)
	if err != nil {
		return nil, err
	}
	insights, err := s.store.Insights().List(ctx, profileID)
	if err != nil {
		return nil, err
	}
	summaries := make(map[model.CivilDate]string, len(insights))
	for _, ins := range insights {
		summaries[ins.AnalysisDate] = ins.Summary
	}

	loc := s.norm.Location()
	byDate := make(map[model.CivilDate][]model.TimelineItem)
	for _, it := range collectItems(p) {
		d := model.CivilDateOf(it.Timestamp, loc)
		byDate[d] = append(byDate[d], it)
	}
	dates := make([]model.CivilDate, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i] > dates[j] })

	nodes := make([]model.DateNode, 0, len(dates))
	for _, d := range dates {
		items := byDate[d]
		nodes = append(nodes, model.DateNode{
			Date:           d,
			ItemCount:      len(items),
			InsightSummary: summaries[d],
			Items:          items,
		})
	}
	return nodes, nil
}

func (s *TimelineService) loadWithEvents(ctx context.Context, profileID string) (*model.Profile, error) {
	p, err := s.store.Profiles().Get(ctx, profileID)
	if err != nil {
		return nil, err
	}
	evts, err := s.store.Events().List(ctx, profileID)
	if err != nil {
		return nil, err
	}
	p.Events = evts
	return p, nil
}
