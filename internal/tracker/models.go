// Package tracker stores topics, daily logs, goals and settings, and serves the
// derived analytics computed by package progress.
package tracker

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/p-n-ai/pai-progress/internal/progress"
)

var (
	// ErrNotFound is returned when a record does not exist for the user.
	ErrNotFound = errors.New("not found")
	// ErrInvalid is returned when input fails validation.
	ErrInvalid = errors.New("invalid input")
)

// Priority ranks how urgent a topic is.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// ParsePriority returns the matching priority, defaulting to Medium.
func ParsePriority(s string) Priority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow
	case "high":
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// Subtopic is a named part of a topic.
type Subtopic struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// Resource is a reference attached to a topic.
type Resource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Type  string `json:"type,omitempty"`
}

// Topic is a unit of study material owned by one user.
type Topic struct {
	ID          string            `json:"id"`
	UserID      string            `json:"-"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Category    progress.Category `json:"category"`
	Priority    Priority          `json:"priority"`
	Status      progress.Status   `json:"status"`
	Progress    int               `json:"progress"`
	Tags        []string          `json:"associatedTags"`
	Subtopics   []Subtopic        `json:"subtopics"`
	Resources   []Resource        `json:"resources"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// normalize fills defaults and validates the topic.
func (t Topic) normalize() (Topic, error) {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return t, fmt.Errorf("topic name is required: %w", ErrInvalid)
	}
	if t.Category == "" {
		t.Category = progress.CategoryDSA
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	t.Progress = min(max(t.Progress, 0), 100)
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.Subtopics == nil {
		t.Subtopics = []Subtopic{}
	}
	if t.Resources == nil {
		t.Resources = []Resource{}
	}
	return t, nil
}

// Aggregate returns the view of the topic the aggregator consumes.
func (t Topic) Aggregate() progress.Topic {
	return progress.Topic{ID: t.ID, Category: t.Category, Status: t.Status, Progress: t.Progress}.Normalize()
}

// TopicFilter narrows a topic listing. Empty fields match everything.
type TopicFilter struct {
	Search   string
	Category progress.Category
	Status   *progress.Status
}

// Match reports whether t passes the filter. Search is a case-insensitive
// substring match on name, description and tags.
func (f TopicFilter) Match(t Topic) bool {
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Search == "" {
		return true
	}
	q := strings.ToLower(f.Search)
	if strings.Contains(strings.ToLower(t.Name), q) || strings.Contains(strings.ToLower(t.Description), q) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// Mood is the self-reported feeling for a study day.
type Mood string

const (
	MoodExcellent    Mood = "Excellent"
	MoodGood         Mood = "Good"
	MoodAverage      Mood = "Average"
	MoodBelowAverage Mood = "Below Average"
	MoodPoor         Mood = "Poor"
)

// LinkedTopic ties part of a day's questions to a topic.
type LinkedTopic struct {
	TopicID        string `json:"topicId"`
	SubtopicName   string `json:"subtopicName,omitempty"`
	QuestionsCount int    `json:"questionsCount"`
}

// DailyLog is one calendar day of activity. (UserID, Date) is unique.
type DailyLog struct {
	ID              string        `json:"id"`
	UserID          string        `json:"-"`
	Date            time.Time     `json:"date"`
	QuestionsSolved int           `json:"questionsSolved"`
	TimeStudied     int           `json:"timeStudied"`
	Notes           string        `json:"notes"`
	Mood            Mood          `json:"mood"`
	LinkedTopics    []LinkedTopic `json:"linkedTopics"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

func (l DailyLog) normalize() (DailyLog, error) {
	if l.Date.IsZero() {
		return l, fmt.Errorf("log date is required: %w", ErrInvalid)
	}
	l.Date = progress.Day(l.Date)
	l.QuestionsSolved = max(l.QuestionsSolved, 0)
	l.TimeStudied = max(l.TimeStudied, 0)
	if l.LinkedTopics == nil {
		l.LinkedTopics = []LinkedTopic{}
	}
	for i := range l.LinkedTopics {
		l.LinkedTopics[i].QuestionsCount = max(l.LinkedTopics[i].QuestionsCount, 0)
	}
	return l, nil
}

// Record returns the aggregator view of the log.
func (l DailyLog) Record() progress.ActivityRecord {
	links := make([]progress.LinkedTopic, len(l.LinkedTopics))
	for i, lt := range l.LinkedTopics {
		links[i] = progress.LinkedTopic{TopicID: lt.TopicID, QuestionsCount: lt.QuestionsCount}
	}
	return progress.ActivityRecord{
		Date:               l.Date,
		QuestionsSolved:    l.QuestionsSolved,
		TimeStudiedMinutes: l.TimeStudied,
		LinkedTopics:       links,
	}.Normalize()
}

// Records converts logs for the aggregator.
func Records(logs []DailyLog) []progress.ActivityRecord {
	out := make([]progress.ActivityRecord, len(logs))
	for i, l := range logs {
		out[i] = l.Record()
	}
	return out
}

// GoalStatus is the lifecycle state of a goal.
type GoalStatus string

const (
	GoalActive    GoalStatus = "Active"
	GoalCompleted GoalStatus = "Completed"
	GoalPaused    GoalStatus = "Paused"
	GoalCancelled GoalStatus = "Cancelled"
)

// Valid reports whether s is a known goal status.
func (s GoalStatus) Valid() bool {
	switch s {
	case GoalActive, GoalCompleted, GoalPaused, GoalCancelled:
		return true
	}
	return false
}

// Goal is a dated learning target with optional milestones.
type Goal struct {
	ID          string               `json:"id"`
	UserID      string               `json:"-"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Category    progress.Category    `json:"category"`
	TargetDate  time.Time            `json:"targetDate"`
	Status      GoalStatus           `json:"status"`
	Progress    int                  `json:"progress"`
	Milestones  []progress.Milestone `json:"milestones"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

func (g Goal) normalize() (Goal, error) {
	g.Title = strings.TrimSpace(g.Title)
	if g.Title == "" {
		return g, fmt.Errorf("goal title is required: %w", ErrInvalid)
	}
	if g.TargetDate.IsZero() {
		return g, fmt.Errorf("goal target date is required: %w", ErrInvalid)
	}
	g.TargetDate = progress.Day(g.TargetDate)
	if g.Status == "" {
		g.Status = GoalActive
	}
	if !g.Status.Valid() {
		return g, fmt.Errorf("goal status %q: %w", g.Status, ErrInvalid)
	}
	g.Progress = min(max(g.Progress, 0), 100)
	if g.Milestones == nil {
		g.Milestones = []progress.Milestone{}
	}
	return g, nil
}

// GoalView is a goal with its deadline position.
type GoalView struct {
	Goal
	Timeline progress.GoalTimeline `json:"timeline"`
}

// Settings are per-user preferences.
type Settings struct {
	DailyGoal     int       `json:"dailyGoal"`
	Notifications bool      `json:"notifications"`
	DarkMode      bool      `json:"darkMode"`
	StartDate     time.Time `json:"startDate"`
}

const defaultDailyGoal = 3

// DefaultSettings returns the settings of a user who never saved any.
func DefaultSettings(now time.Time) Settings {
	return Settings{
		DailyGoal:     defaultDailyGoal,
		Notifications: true,
		StartDate:     progress.Day(now),
	}
}
