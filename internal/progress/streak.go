package progress

import (
	"sort"
	"time"
)

// ComputeStreaks derives the current and longest streak as of asOf.
//
// The current streak counts consecutive active days walking backward from asOf,
// which itself must be active; a missing or zero-question record at asOf gives
// 0. The longest streak is the longest run of consecutive active days on or
// before asOf. Records dated after asOf are ignored by both.
func ComputeStreaks(records []ActivityRecord, asOf time.Time) StreakState {
	asOf = Day(asOf)
	byDay := index(records)

	var state StreakState
	for d := asOf; ; d = addDays(d, -1) {
		r, ok := byDay[d]
		if !ok || !r.Active() {
			break
		}
		state.CurrentStreak++
	}

	days := make([]time.Time, 0, len(byDay))
	for d, r := range byDay {
		if r.Active() && !d.After(asOf) {
			days = append(days, d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	run := 0
	for i, d := range days {
		if i > 0 && addDays(days[i-1], 1).Equal(d) {
			run++
		} else {
			run = 1
		}
		state.LongestStreak = max(state.LongestStreak, run)
	}

	return state
}
