package timex

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var cst = time.FixedZone("UTC+8", 8*3600)

func newTestNormalizer(now time.Time) *Normalizer {
	return NewNormalizer(fixedClock{t: now}, cst)
}

func TestNormalizeBothValid(t *testing.T) {
	n := newTestNormalizer(time.Date(2025, 11, 1, 4, 0, 0, 0, time.UTC))
	ts, fd, ft := n.Normalize("2025-10-25", "09:30")
	require.False(t, fd)
	require.False(t, ft)
	require.Equal(t, time.Date(2025, 10, 25, 1, 30, 0, 0, time.UTC), ts)
}

func TestNormalizeSecondsAccepted(t *testing.T) {
	n := newTestNormalizer(time.Date(2025, 11, 1, 4, 0, 0, 0, time.UTC))
	ts, fd, ft := n.Normalize("2025-10-25", "09:30:45")
	require.False(t, fd)
	require.False(t, ft)
	require.Equal(t, time.Date(2025, 10, 25, 1, 30, 45, 0, time.UTC), ts)
}

func TestNormalizeMissingDateFallsBackToLocalToday(t *testing.T) {
	// 2025-10-31 20:00 UTC is already 2025-11-01 04:00 in UTC+8.
	n := newTestNormalizer(time.Date(2025, 10, 31, 20, 0, 0, 0, time.UTC))
	ts, fd, ft := n.Normalize("", "09:30")
	require.True(t, fd)
	require.False(t, ft)
	require.Equal(t, time.Date(2025, 11, 1, 1, 30, 0, 0, time.UTC), ts)
}

func TestNormalizeMissingTimeTruncatedToMinute(t *testing.T) {
	n := newTestNormalizer(time.Date(2025, 10, 25, 3, 15, 42, 500, time.UTC))
	ts, fd, ft := n.Normalize("2025-10-25", "")
	require.False(t, fd)
	require.True(t, ft)
	// 03:15:42 UTC is 11:15:42 local; seconds drop on fill.
	require.Equal(t, time.Date(2025, 10, 25, 3, 15, 0, 0, time.UTC), ts)
}

func TestNormalizeImpossibleValuesTreatedAsAbsent(t *testing.T) {
	now := time.Date(2025, 10, 25, 3, 15, 0, 0, time.UTC)
	n := newTestNormalizer(now)

	for _, tc := range []struct{ date, clock string }{
		{"2025-13-40", "09:30"},
		{"not-a-date", "09:30"},
		{"2025-10-25", "25:99"},
		{"2025-10-25", "soon"},
	} {
		ts, fd, ft := n.Normalize(tc.date, tc.clock)
		require.False(t, ts.IsZero(), "input %+v", tc)
		require.Equal(t, time.UTC, ts.Location())
		require.True(t, fd || ft, "input %+v must set a fill flag", tc)
	}
}

func TestNormalizeTotalFailureStillReturnsValidInstant(t *testing.T) {
	now := time.Date(2025, 10, 25, 3, 15, 30, 0, time.UTC)
	n := newTestNormalizer(now)
	ts, fd, ft := n.Normalize("", "")
	require.True(t, fd)
	require.True(t, ft)
	require.Equal(t, time.Date(2025, 10, 25, 3, 15, 0, 0, time.UTC), ts)
}
