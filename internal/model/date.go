package model

import (
	"encoding/json"
	"time"
)

// DateOnly is a calendar day. It marshals as "YYYY-MM-DD", tolerates ISO
// datetime strings on read, and treats unparseable input as absent.
type DateOnly struct {
	time.Time
}

const dayLayout = "2006-01-02"

// readLayouts covers the shapes backends are known to emit for dates.
var readLayouts = []string{
	dayLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// ParseDate parses a date string, trying day precision first. The second
// return is false when no layout matches.
func ParseDate(value string) (DateOnly, bool) {
	for _, layout := range readLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return DateOnly{Time: truncateToDay(t)}, true
		}
	}
	return DateOnly{}, false
}

// Today returns the current local calendar day.
func Today() DateOnly {
	return DateOnly{Time: truncateToDay(time.Now())}
}

// DateFromTime drops the time-of-day portion of t, keeping its calendar day.
func DateFromTime(t time.Time) DateOnly {
	return DateOnly{Time: truncateToDay(t)}
}

// All DateOnly values are anchored at UTC midnight so that comparisons
// between parsed dates and Today() are pure calendar-day comparisons,
// whatever zone the process runs in.
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// String renders the day, or "--" when the date is absent.
func (d DateOnly) String() string {
	if d.IsZero() {
		return "--"
	}
	return d.Format(dayLayout)
}

func (d DateOnly) AddDays(days int) DateOnly {
	return DateOnly{Time: d.AddDate(0, 0, days)}
}

func (d DateOnly) Before(other DateOnly) bool {
	return d.Time.Before(other.Time)
}

// EndOfMonth returns the last day of d's month.
func EndOfMonth(d DateOnly) DateOnly {
	firstOfNext := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location()).AddDate(0, 1, 0)
	return DateOnly{Time: firstOfNext.AddDate(0, 0, -1)}
}

func (d DateOnly) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(dayLayout))
}

// UnmarshalJSON is deliberately lenient: null, empty, and unparseable
// values all decode to the zero date without erroring.
func (d *DateOnly) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil || s == nil || *s == "" {
		*d = DateOnly{}
		return nil
	}
	parsed, ok := ParseDate(*s)
	if !ok {
		*d = DateOnly{}
		return nil
	}
	*d = parsed
	return nil
}
