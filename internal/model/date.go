package model

import (
	"fmt"
	"time"
)

const civilDateLayout = "2006-01-02"

// CivilDate is a calendar date in the profile's local timezone, ISO formatted
// (YYYY-MM-DD). Lexicographic order equals chronological order, so dates sort
// and compare as plain strings.
type CivilDate string

// CivilDateOf converts an instant to its calendar date in loc.
func CivilDateOf(t time.Time, loc *time.Location) CivilDate {
	return CivilDate(t.In(loc).Format(civilDateLayout))
}

// ParseCivilDate parses a YYYY-MM-DD string, rejecting impossible dates.
func ParseCivilDate(s string) (CivilDate, error) {
	t, err := time.Parse(civilDateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", s, err)
	}
	return CivilDate(t.Format(civilDateLayout)), nil
}

// Time returns midnight of the date in loc.
func (d CivilDate) Time(loc *time.Location) time.Time {
	t, err := time.ParseInLocation(civilDateLayout, string(d), loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Next returns the following calendar day.
func (d CivilDate) Next() CivilDate {
	return CivilDate(d.Time(time.UTC).AddDate(0, 0, 1).Format(civilDateLayout))
}

// DaysUntil returns the number of days from d to other (0 when equal).
func (d CivilDate) DaysUntil(other CivilDate) int {
	return int(other.Time(time.UTC).Sub(d.Time(time.UTC)) / (24 * time.Hour))
}

func (d CivilDate) String() string { return string(d) }
