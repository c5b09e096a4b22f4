package progress

import "time"

// earliestDay is the first day a series may contain.
var earliestDay = Day(time.Time{})

// Window returns the first and last day of the periodDays-long window ending at
// asOf, inclusive. The start never precedes earliestDay; when asOf itself is
// earlier, start is after end and the window is empty.
func Window(periodDays int, asOf time.Time) (start, end time.Time) {
	end = Day(asOf)
	periodDays = min(periodDays, DaysBetween(earliestDay, end)+1)
	if periodDays <= 0 {
		return addDays(end, 1), end
	}
	return addDays(end, -(periodDays - 1)), end
}

// ComputePeriodSummary aggregates the periodDays calendar days ending at asOf.
//
// AverageQuestionsPerDay divides by the window size, not the number of active
// days. DailySeries has one entry per day in the window, zero-filled where no
// record exists. A non-positive periodDays yields an empty summary.
func ComputePeriodSummary(records []ActivityRecord, periodDays int, asOf time.Time) PeriodSummary {
	summary := PeriodSummary{PeriodDays: max(periodDays, 0), DailySeries: []DailyPoint{}}
	if periodDays <= 0 {
		return summary
	}

	byDay := index(records)
	start, end := Window(periodDays, asOf)

	summary.DailySeries = make([]DailyPoint, 0, max(DaysBetween(start, end)+1, 0))
	for d := start; !d.After(end); d = addDays(d, 1) {
		r, ok := byDay[d]
		point := DailyPoint{Date: d}
		if ok {
			point.Questions = r.QuestionsSolved
			summary.TotalQuestions += r.QuestionsSolved
			summary.TotalTimeMinutes += r.TimeStudiedMinutes
			if r.Active() {
				summary.ActiveDayCount++
			}
		}
		summary.DailySeries = append(summary.DailySeries, point)
	}

	summary.AverageQuestionsPerDay = float64(summary.TotalQuestions) / float64(periodDays)
	return summary
}

// Consistency is the percentage of window days that were active.
func Consistency(s PeriodSummary) int {
	return percent(s.ActiveDayCount, s.PeriodDays)
}
