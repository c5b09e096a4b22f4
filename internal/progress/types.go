// Package progress derives streaks, period summaries, category breakdowns and
// heatmap tiers from raw study activity. Every function is pure: no I/O, no
// shared state, and the same inputs with the same reference date always give
// the same result.
package progress

import (
	"strings"
	"time"
)

// Category is a subject area. The known set is closed for display purposes,
// but unknown values are kept as their own bucket rather than rejected.
type Category string

const (
	CategoryDSA            Category = "DSA"
	CategorySystemDesign   Category = "System Design"
	CategoryDesignPatterns Category = "Design Patterns"
	CategoryGenerativeAI   Category = "Generative AI"
	CategoryAgenticAI      Category = "Agentic AI"
)

// KnownCategories lists the built-in categories in display order.
var KnownCategories = []Category{
	CategoryDSA,
	CategorySystemDesign,
	CategoryDesignPatterns,
	CategoryGenerativeAI,
	CategoryAgenticAI,
}

// Known reports whether c is one of the built-in categories.
func (c Category) Known() bool {
	for _, k := range KnownCategories {
		if c == k {
			return true
		}
	}
	return false
}

// Status is the completion state of a topic.
type Status int

const (
	StatusNotStarted Status = iota
	StatusInProgress
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusInProgress:
		return "In Progress"
	case StatusCompleted:
		return "Completed"
	default:
		return "Not Started"
	}
}

// ParseStatus maps a wire status to a Status. Both the spaced form used by
// clients ("In Progress") and the compact form ("InProgress") are accepted.
// Anything unrecognised is NotStarted, so a topic always has exactly one status.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "")) {
	case "inprogress":
		return StatusInProgress
	case "completed":
		return StatusCompleted
	default:
		return StatusNotStarted
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	*s = ParseStatus(string(b))
	return nil
}

// LinkedTopic attributes part of a day's questions to a topic.
type LinkedTopic struct {
	TopicID        string `json:"topicId"`
	QuestionsCount int    `json:"questionsCount"`
}

// ActivityRecord is one day of logged study activity.
type ActivityRecord struct {
	Date               time.Time     `json:"date"`
	QuestionsSolved    int           `json:"questionsSolved"`
	TimeStudiedMinutes int           `json:"timeStudied"`
	LinkedTopics       []LinkedTopic `json:"linkedTopics"`
}

// Normalize resolves defaults once: the date is truncated to its calendar day,
// negative counts become zero and a nil topic list becomes empty.
func (r ActivityRecord) Normalize() ActivityRecord {
	r.Date = Day(r.Date)
	r.QuestionsSolved = max(r.QuestionsSolved, 0)
	r.TimeStudiedMinutes = max(r.TimeStudiedMinutes, 0)
	links := make([]LinkedTopic, 0, len(r.LinkedTopics))
	for _, l := range r.LinkedTopics {
		l.QuestionsCount = max(l.QuestionsCount, 0)
		links = append(links, l)
	}
	r.LinkedTopics = links
	return r
}

// Active reports whether the record counts toward a streak.
func (r ActivityRecord) Active() bool {
	return r.QuestionsSolved > 0
}

// Topic is the slice of a study topic the aggregator needs.
type Topic struct {
	ID       string   `json:"id"`
	Category Category `json:"category"`
	Status   Status   `json:"status"`
	Progress int      `json:"progress"`
}

// Normalize clamps Progress into [0,100].
func (t Topic) Normalize() Topic {
	t.Progress = min(max(t.Progress, 0), 100)
	return t
}

// StreakState holds the derived streak counters.
type StreakState struct {
	CurrentStreak int `json:"currentStreak"`
	LongestStreak int `json:"longestStreak"`
}

// DailyPoint is one day in a period series.
type DailyPoint struct {
	Date      time.Time `json:"date"`
	Questions int       `json:"questions"`
}

// PeriodSummary aggregates a trailing window of days.
type PeriodSummary struct {
	PeriodDays             int          `json:"period"`
	TotalQuestions         int          `json:"totalQuestions"`
	TotalTimeMinutes       int          `json:"totalTime"`
	AverageQuestionsPerDay float64      `json:"averageQuestions"`
	ActiveDayCount         int          `json:"studyDays"`
	DailySeries            []DailyPoint `json:"dailyData"`
}

// CategoryStats counts topics in one category by status.
type CategoryStats struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	InProgress int `json:"inProgress"`
	NotStarted int `json:"notStarted"`
}

// CompletionRate is the rounded completed percentage, or 0 for an empty bucket.
func (s CategoryStats) CompletionRate() int {
	return percent(s.Completed, s.Total)
}

// CategoryBreakdown maps each category to its status counts.
type CategoryBreakdown map[Category]CategoryStats
