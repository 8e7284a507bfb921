// Package timex provides the clock collaborator and the timestamp
// normalization rules for model-reported dates and times.
package timex

import "time"

// Clock supplies the current instant; injected so fill-in behavior is
// deterministic under test.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Normalizer converts an optional date string (YYYY-MM-DD) and time string
// (HH:MM or HH:MM:SS) into a canonical UTC instant. Model output is treated
// as local to the configured zone, never as UTC.
type Normalizer struct {
	clock Clock
	loc   *time.Location
}

func NewNormalizer(clock Clock, loc *time.Location) *Normalizer {
	return &Normalizer{clock: clock, loc: loc}
}

// Location returns the configured local timezone.
func (n *Normalizer) Location() *time.Location { return n.loc }

// Now returns the current instant in the configured local timezone.
func (n *Normalizer) Now() time.Time { return n.clock.Now().In(n.loc) }

// Normalize resolves dateStr and timeStr into a UTC instant. Absent or
// unparseable parts fall back to "today" and "now truncated to the minute"
// respectively, flagged via filledDate/filledTime. The fallback reference is
// captured once so the date and time halves cannot drift across midnight.
func (n *Normalizer) Normalize(dateStr, timeStr string) (ts time.Time, filledDate, filledTime bool) {
	now := n.clock.Now().In(n.loc)

	var year int
	var month time.Month
	var day int
	if d, err := time.ParseInLocation("2006-01-02", dateStr, n.loc); err == nil {
		year, month, day = d.Date()
	} else {
		year, month, day = now.Date()
		filledDate = true
	}

	var hour, minute, second int
	if t, err := parseClock(timeStr); err == nil {
		hour, minute, second = t.Clock()
	} else {
		hour, minute, second = now.Hour(), now.Minute(), 0
		filledTime = true
	}

	local := time.Date(year, month, day, hour, minute, second, 0, n.loc)
	return local.UTC(), filledDate, filledTime
}

func parseClock(s string) (time.Time, error) {
	if len(s) == 5 {
		s += ":00"
	}
	return time.Parse("15:04:05", s)
}
