package progress

import (
	"math"
	"time"
)

// Insight is a rule-based recommendation derived from a summary.
type Insight struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	lowAverageThreshold     = 2.0
	lowConsistencyThreshold = 50
)

// Insights returns the recommendations that apply to a period summary and the
// current category breakdown. The closing encouragement is always present.
func Insights(s PeriodSummary, b CategoryBreakdown) []Insight {
	var out []Insight
	if s.AverageQuestionsPerDay < lowAverageThreshold {
		out = append(out, Insight{
			Code:    "low_average",
			Message: "Try to solve at least 2-3 questions daily to maintain momentum",
		})
	}
	if Consistency(s) < lowConsistencyThreshold {
		out = append(out, Insight{
			Code:    "low_consistency",
			Message: "Aim for more consistent daily practice to improve retention",
		})
	}
	for _, stats := range b {
		if stats.NotStarted > stats.Completed {
			out = append(out, Insight{
				Code:    "backlog",
				Message: "Consider focusing on completing started topics before adding new ones",
			})
			break
		}
	}
	return append(out, Insight{
		Code:    "keep_going",
		Message: "Keep up the great work! Consistency is key to mastering the material",
	})
}

// fallbackEstimateDays is used when nothing has been completed yet.
const fallbackEstimateDays = 365

// Estimate projects when the remaining topics will be completed.
type Estimate struct {
	DaysElapsed   int       `json:"daysElapsed"`
	RemainingDays int       `json:"remainingDays"`
	CompletionOn  time.Time `json:"estimatedCompletion"`
}

// EstimateCompletion extrapolates the completed-per-day rate since startDate.
// Elapsed time is at least one day so a same-day start does not divide by zero.
func EstimateCompletion(b CategoryBreakdown, startDate, asOf time.Time) Estimate {
	totals := b.Totals()
	elapsed := max(DaysBetween(startDate, asOf), 0)

	days := fallbackEstimateDays
	rate := float64(totals.Completed) / float64(max(elapsed, 1))
	if rate > 0 {
		days = int(math.Ceil(float64(totals.Total-totals.Completed) / rate))
	}

	return Estimate{
		DaysElapsed:   elapsed,
		RemainingDays: days,
		CompletionOn:  addDays(Day(asOf), days),
	}
}

// Milestone is a dated checkpoint within a goal.
type Milestone struct {
	Title      string    `json:"title"`
	TargetDate time.Time `json:"targetDate,omitempty"`
	Completed  bool      `json:"completed"`
}

// GoalTimeline describes where a goal stands relative to its target date.
type GoalTimeline struct {
	DaysRemaining   int  `json:"daysRemaining"`
	Overdue         bool `json:"overdue"`
	DueToday        bool `json:"dueToday"`
	MilestonesDone  int  `json:"milestonesDone"`
	MilestonesTotal int  `json:"milestonesTotal"`
}

// Timeline computes a goal's deadline position. A completed goal is never overdue.
func Timeline(target time.Time, completed bool, milestones []Milestone, asOf time.Time) GoalTimeline {
	tl := GoalTimeline{
		DaysRemaining:   DaysBetween(asOf, target),
		MilestonesTotal: len(milestones),
	}
	if !completed {
		tl.Overdue = tl.DaysRemaining < 0
		tl.DueToday = tl.DaysRemaining == 0
	}
	for _, m := range milestones {
		if m.Completed {
			tl.MilestonesDone++
		}
	}
	return tl
}
