package progress

import (
	"math"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Day truncates t to its calendar day. The year, month and day are read in t's
// own location and the result is midnight UTC, so two instants on the same
// local day compare equal regardless of zone.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

// DaysBetween returns the whole calendar days from a to b (negative if b is earlier).
// It counts through Unix seconds, since time.Duration saturates past ~292 years.
func DaysBetween(a, b time.Time) int {
	return int((Day(b).Unix() - Day(a).Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

func addDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// index folds records into one entry per calendar day. If the input violates
// the one-record-per-day rule, the record with more questions wins (then more
// minutes), which keeps the result independent of input order.
func index(records []ActivityRecord) map[time.Time]ActivityRecord {
	byDay := make(map[time.Time]ActivityRecord, len(records))
	for _, r := range records {
		r = r.Normalize()
		prev, ok := byDay[r.Date]
		if !ok || r.QuestionsSolved > prev.QuestionsSolved ||
			(r.QuestionsSolved == prev.QuestionsSolved && r.TimeStudiedMinutes > prev.TimeStudiedMinutes) {
			byDay[r.Date] = r
		}
	}
	return byDay
}

func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}
