package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/confidant-ai/confidant/internal/model"
)

func seedBasicProfile(t *testing.T, env *testEnv) *model.Profile {
	t.Helper()
	p := &model.Profile{
		ProfileID:    model.NewProfileID(),
		ProfileName:  "amy",
		UserName:     "Me",
		OpponentName: "Amy",
		CreationTime: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
	}
	env.seedProfile(t, p)
	return p
}

func TestAppendMessagesSortsByInstant(t *testing.T) {
	env := newTestEnv(time.Date(2025, 10, 25, 12, 0, 0, 0, time.UTC))
	svc := NewTimelineService(env.store, env.norm, env.locks, nopLog())
	p := seedBasicProfile(t, env)

	later := msgAt(time.Date(2025, 10, 20, 10, 0, 0, 0, time.UTC), model.SenderUser, "second")
	earlier := msgAt(time.Date(2025, 10, 20, 9, 0, 0, 0, time.UTC), model.SenderOpponent, "first")

	got, err := svc.AppendMessages(context.Background(), p.ProfileID, []model.Message{later, earlier})
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	require.Equal(t, "first", got.Messages[0].Text)
	require.Equal(t, "second", got.Messages[1].Text)

	// A second append interleaves, not concatenates.
	middle := msgAt(time.Date(2025, 10, 20, 9, 30, 0, 0, time.UTC), model.SenderUser, "between")
	got, err = svc.AppendMessages(context.Background(), p.ProfileID, []model.Message{middle})
	require.NoError(t, err)
	require.Equal(t, []string{"first", "between", "second"},
		[]string{got.Messages[0].Text, got.Messages[1].Text, got.Messages[2].Text})
}

func TestAppendMessagesAssignsIDsAndNormalizesUTC(t *testing.T) {
	env := newTestEnv(time.Date(2025, 10, 25, 12, 0, 0, 0, time.UTC))
	svc := NewTimelineService(env.store, env.norm, env.locks, nopLog())
	p := seedBasicProfile(t, env)

	m := model.Message{
		Timestamp:   time.Date(2025, 10, 20, 17, 0, 0, 0, cst), // 09:00 UTC
		Sender:      model.SenderUser,
		ContentType: model.ContentText,
		Text:        "hi",
	}
	got, err := svc.AppendMessages(context.Background(), p.ProfileID, []model.Message{m})
	require.NoError(t, err)
	require.NotEmpty(t, got.Messages[0].MessageID)
	require.Equal(t, time.UTC, got.Messages[0].Timestamp.Location())
	require.Equal(t, time.Date(2025, 10, 20, 9, 0, 0, 0, time.UTC), got.Messages[0].Timestamp)
}

func TestSourceFingerprintRecordedAtCommit(t *testing.T) {
	env := newTestEnv(time.Date(2025, 10, 25, 12, 0, 0, 0, time.UTC))
	svc := NewTimelineService(env.store, env.norm, env.locks, nopLog())
	p := seedBasicProfile(t, env)

	m := msgAt(time.Date(2025, 10, 20, 9, 0, 0, 0, time.UTC), model.SenderUser, "hi")
	m.SourceImageHash = "abc123"

	done, err := svc.WasSourceProcessed(context.Background(), p.ProfileID, "abc123")
	require.NoError(t, err)
	require.False(t, done)

	_, err = svc.AppendMessages(context.Background(), p.ProfileID, []model.Message{m})
	require.NoError(t, err)

	done, err = svc.WasSourceProcessed(context.Background(), p.ProfileID, "abc123")
	require.NoError(t, err)
	require.True(t, done)
}

func TestSourceFingerprintNotRecordedWhenCommitFails(t *testing.T) {
	env := newTestEnv(time.Date(2025, 10, 25, 12, 0, 0, 0, time.UTC))
	svc := NewTimelineService(env.store, env.norm, env.locks, nopLog())
	p := seedBasicProfile(t, env)

	env.records.failPut["profile"] = errors.New("disk full")
	m := msgAt(time.Date(2025, 10, 20, 9, 0, 0, 0, time.UTC), model.SenderUser, "hi")
	m.SourceImageHash = "abc123"
	_, err := svc.AppendMessages(context.Background(), p.ProfileID, []model.Message{m})
	require.Error(t, err)

	env.records.failPut = map[string]error{}
	done, err := svc.WasSourceProcessed(context.Background(), p.ProfileID, "abc123")
	require.NoError(t, err)
	require.False(t, done)
}

func TestAppendEventKeepsSeparateRecordSorted(t *testing.T) {
	env := newTestEnv(time.Date(2025, 10, 25, 12, 0, 0, 0, time.UTC))
	svc := NewTimelineService(env.store, env.norm, env.locks, nopLog())
	p := seedBasicProfile(t, env)

	_, err := svc.AppendEvent(context.Background(), p.ProfileID, evtAt(time.Date(2025, 10, 22, 10, 0, 0, 0, time.UTC), "dinner"))
	require.NoError(t, err)
	got, err := svc.AppendEvent(context.Background(), p.ProfileID, evtAt(time.Date(2025, 10, 21, 10, 0, 0, 0, time.UTC), "call"))
	require.NoError(t, err)
	require.Len(t, got.Events, 2)
	require.Equal(t, "call", got.Events[0].Summary)

	// The profile record itself must not carry events.
	stored, err := env.store.Profiles().Get(context.Background(), p.ProfileID)
	require.NoError(t, err)
	require.Empty(t, stored.Events)
}

func TestDateRangeUsesLocalDays(t *testing.T) {
	env := newTestEnv(time.Date(2025, 10, 25, 12, 0, 0, 0, time.UTC))
	svc := NewTimelineService(env.store, env.norm, env.locks, nopLog())
	p := seedBasicProfile(t, env)

	_, _, ok, err := svc.DateRange(context.Background(), p.ProfileID)
	require.NoError(t, err)
	require.False(t, ok)

	// 18:00 UTC on Oct 20 is already Oct 21 at UTC+8.
	_, err = svc.AppendMessages(context.Background(), p.ProfileID, []model.Message{
		msgAt(time.Date(2025, 10, 20, 18, 0, 0, 0, time.UTC), model.SenderUser, "late"),
	})
	require.NoError(t, err)
	_, err = svc.AppendEvent(context.Background(), p.ProfileID, evtAt(time.Date(2025, 10, 23, 2, 0, 0, 0, time.UTC), "brunch"))
	require.NoError(t, err)

	min, max, ok, err := svc.DateRange(context.Background(), p.ProfileID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, model.CivilDate("2025-10-21"), min)
	require.Equal(t, model.CivilDate("2025-10-23"), max)
}

func TestTimelineGroupsByDayNewestFirst(t *testing.T) {
	env := newTestEnv(time.Date(2025, 10, 25, 12, 0, 0, 0, time.UTC))
	svc := NewTimelineService(env.store, env.norm, env.locks, nopLog())
	p := seedBasicProfile(t, env)

	_, err := svc.AppendMessages(context.Background(), p.ProfileID, []model.Message{
		msgAt(time.Date(2025, 10, 20, 3, 0, 0, 0, time.UTC), model.SenderUser, "a"),
		msgAt(time.Date(2025, 10, 20, 4, 0, 0, 0, time.UTC), model.SenderOpponent, "b"),
		msgAt(time.Date(2025, 10, 22, 3, 0, 0, 0, time.UTC), model.SenderUser, "c"),
	})
	require.NoError(t, err)
	_, err = svc.AppendEvent(context.Background(), p.ProfileID, evtAt(time.Date(2025, 10, 22, 5, 0, 0, 0, time.UTC), "walk"))
	require.NoError(t, err)

	require.NoError(t, env.store.Insights().Put(context.Background(), p.ProfileID, []model.ContextualInsight{
		{InsightID: model.NewInsightID(), ProfileID: p.ProfileID, AnalysisDate: "2025-10-20", Summary: "good chat"},
	}))

	nodes, err := svc.Timeline(context.Background(), p.ProfileID)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	require.Equal(t, model.CivilDate("2025-10-22"), nodes[0].Date)
	require.Equal(t, 2, nodes[0].ItemCount)
	require.Equal(t, model.EntryEvent, nodes[0].Items[1].Kind)
	require.Equal(t, model.CivilDate("2025-10-20"), nodes[1].Date)
	require.Equal(t, "good chat", nodes[1].InsightSummary)
}

func TestAppendMessagesValidation(t *testing.T) {
	env := newTestEnv(time.Date(2025, 10, 25, 12, 0, 0, 0, time.UTC))
	svc := NewTimelineService(env.store, env.norm, env.locks, nopLog())

	_, err := svc.AppendMessages(context.Background(), "prof_missing", nil)
	require.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.AppendMessages(context.Background(), "prof_missing", []model.Message{
		msgAt(time.Now(), model.SenderUser, "x"),
	})
	require.ErrorIs(t, err, model.ErrNotFound)
}
