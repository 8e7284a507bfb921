// Package storetest exercises a compliance suite against a store.Store
// implementation. Adapters run it from their own _test files with a clean,
// isolated store.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/confidant-ai/confidant/internal/model"
	"github.com/confidant-ai/confidant/internal/store"
)

// Run exercises every typed repository against makeStore's result.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	profileID := model.NewProfileID()

	// Absent profile → ErrNotFound; absent collections → empty defaults.
	if _, err := s.Profiles().Get(ctx, profileID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get absent profile: want ErrNotFound, got %v", err)
	}
	if evts, err := s.Events().List(ctx, profileID); err != nil || len(evts) != 0 {
		t.Fatalf("List absent events: n=%d err=%v", len(evts), err)
	}
	if ins, err := s.Insights().List(ctx, profileID); err != nil || len(ins) != 0 {
		t.Fatalf("List absent insights: n=%d err=%v", len(ins), err)
	}
	if _, err := s.Personas().GetUser(ctx, profileID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get absent user persona: want ErrNotFound, got %v", err)
	}

	// Profile round-trip; events must not leak into the profile record.
	prof := &model.Profile{
		ProfileID:        profileID,
		ProfileName:      "Boss",
		UserName:         "Me",
		OpponentName:     "Boss",
		CreationTime:     time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
		ProcessedSources: []string{"abc123"},
		Messages: []model.Message{{
			MessageID:   model.NewMessageID(),
			Timestamp:   time.Date(2025, 10, 20, 1, 30, 0, 0, time.UTC),
			Sender:      model.SenderOpponent,
			ContentType: model.ContentText,
			Text:        "hello",
		}},
		Events: []model.Event{{EventID: "should-not-persist"}},
	}
	if err := s.Profiles().Put(ctx, prof); err != nil {
		t.Fatalf("Put profile: %v", err)
	}
	got, err := s.Profiles().Get(ctx, profileID)
	if err != nil {
		t.Fatalf("Get profile: %v", err)
	}
	if got.ProfileName != "Boss" || len(got.Messages) != 1 || got.Messages[0].Text != "hello" {
		t.Fatalf("Get profile: unexpected content %+v", got)
	}
	if len(got.Events) != 0 {
		t.Fatalf("Get profile: events leaked into profile record")
	}
	if !got.Messages[0].Timestamp.Equal(prof.Messages[0].Timestamp) {
		t.Fatalf("Get profile: timestamp mismatch %v", got.Messages[0].Timestamp)
	}

	// List includes the profile. Membership, not cardinality: the backing
	// database may be shared across runs.
	lst, err := s.Profiles().List(ctx)
	if err != nil {
		t.Fatalf("List profiles: %v", err)
	}
	found := false
	for _, p := range lst {
		if p.ProfileID == profileID {
			found = true
		}
	}
	if !found {
		t.Fatalf("List profiles: created profile missing")
	}

	// Events record is independent of the profile record.
	evts := []model.Event{{
		EventID:   model.NewEventID(),
		Timestamp: time.Date(2025, 10, 21, 10, 0, 0, 0, time.UTC),
		Summary:   "dinner together",
	}}
	if err := s.Events().Put(ctx, profileID, evts); err != nil {
		t.Fatalf("Put events: %v", err)
	}
	gotEvts, err := s.Events().List(ctx, profileID)
	if err != nil || len(gotEvts) != 1 || gotEvts[0].Summary != "dinner together" {
		t.Fatalf("List events: %+v err=%v", gotEvts, err)
	}

	// Persona round-trips; BasicInfo survives and defaults to non-nil.
	if err := s.Personas().PutUser(ctx, &model.UserPersona{
		ProfileID: profileID, SelfSummary: "optimistic engineer", LastUpdated: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("PutUser: %v", err)
	}
	up, err := s.Personas().GetUser(ctx, profileID)
	if err != nil || up.SelfSummary != "optimistic engineer" {
		t.Fatalf("GetUser: %+v err=%v", up, err)
	}

	if err := s.Personas().PutOpponent(ctx, &model.OpponentPersona{
		ProfileID: profileID,
		BasicInfo: map[string]string{"job": "manager"},
	}); err != nil {
		t.Fatalf("PutOpponent: %v", err)
	}
	op, err := s.Personas().GetOpponent(ctx, profileID)
	if err != nil || op.BasicInfo["job"] != "manager" {
		t.Fatalf("GetOpponent: %+v err=%v", op, err)
	}

	// Insights round-trip with civil dates intact.
	ins := []model.ContextualInsight{{
		InsightID:        model.NewInsightID(),
		ProfileID:        profileID,
		AnalysisDate:     model.CivilDate("2025-10-20"),
		Summary:          "good day",
		ProcessedItemIDs: []string{prof.Messages[0].MessageID},
		ImportanceScore:  11,
		CreationTime:     time.Now().UTC(),
	}}
	if err := s.Insights().Put(ctx, profileID, ins); err != nil {
		t.Fatalf("Put insights: %v", err)
	}
	gotIns, err := s.Insights().List(ctx, profileID)
	if err != nil || len(gotIns) != 1 || gotIns[0].AnalysisDate != "2025-10-20" {
		t.Fatalf("List insights: %+v err=%v", gotIns, err)
	}

	// Overwrite semantics: Put replaces the whole record.
	if err := s.Events().Put(ctx, profileID, nil); err != nil {
		t.Fatalf("Put empty events: %v", err)
	}
	if gotEvts, err = s.Events().List(ctx, profileID); err != nil || len(gotEvts) != 0 {
		t.Fatalf("List after clearing events: n=%d err=%v", len(gotEvts), err)
	}

	if err := s.HealthPing(ctx); err != nil {
		t.Fatalf("HealthPing: %v", err)
	}
}
