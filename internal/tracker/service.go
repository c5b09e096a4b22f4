package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/p-n-ai/pai-progress/internal/live"
	"github.com/p-n-ai/pai-progress/internal/progress"
	"github.com/p-n-ai/pai-progress/internal/report"
)

const (
	// DefaultPeriodDays is the analytics window used when none is requested.
	DefaultPeriodDays = 30
	// MaxPeriodDays bounds analytics windows.
	MaxPeriodDays = 365
	// DefaultLogLimit and MaxLogLimit bound log listings.
	DefaultLogLimit = 30
	MaxLogLimit     = 365

	dashboardPeriodDays = 30
	recentLogCount      = 5
	liveSummaryDays     = 7
)

// Live message types published after a log changes.
const (
	MessageStreak  = "streak"
	MessageSummary = "summary"
)

// AnalyticsCache stores derived analytics per user. Invalidate must make every
// earlier entry of the user unreachable. Load returns the version it looked
// under and Store writes under that version, so a value computed from data
// read before an invalidation is never served after it.
type AnalyticsCache interface {
	Load(ctx context.Context, userID, name string, dst any) (version int64, ok bool, err error)
	Store(ctx context.Context, userID string, version int64, name string, v any) error
	Invalidate(ctx context.Context, userID string) error
}

// Publisher pushes live updates to a user's connected clients.
type Publisher interface {
	Publish(userID string, msg live.Message)
}

// ServiceConfig wires the service's collaborators. Only Store is required.
type ServiceConfig struct {
	Store  Store
	Cache  AnalyticsCache
	Events EventLogger
	Live   Publisher
	Now    func() time.Time
}

// Service applies validation to store writes and computes analytics from the
// stored logs and topics.
type Service struct {
	store  Store
	cache  AnalyticsCache
	events EventLogger
	live   Publisher
	now    func() time.Time
}

// NewService creates a service from cfg.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		store:  cfg.Store,
		cache:  cfg.Cache,
		events: cfg.Events,
		live:   cfg.Live,
		now:    cfg.Now,
	}
	if s.events == nil {
		s.events = NopEventLogger{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Today returns the current calendar day.
func (s *Service) Today() time.Time {
	return progress.Day(s.now())
}

func (s *Service) asOf(t time.Time) time.Time {
	if t.IsZero() {
		return s.Today()
	}
	return progress.Day(t)
}

// ValidPeriod checks an analytics window length.
func ValidPeriod(days int) error {
	if days < 1 || days > MaxPeriodDays {
		return fmt.Errorf("period must be between 1 and %d days: %w", MaxPeriodDays, ErrInvalid)
	}
	return nil
}

// --- Topics ---

func (s *Service) ListTopics(ctx context.Context, userID string, filter TopicFilter) ([]Topic, error) {
	return s.store.ListTopics(ctx, userID, filter)
}

func (s *Service) GetTopic(ctx context.Context, userID, id string) (*Topic, error) {
	return s.store.GetTopic(ctx, userID, id)
}

func (s *Service) CreateTopic(ctx context.Context, userID string, t Topic) (*Topic, error) {
	t, err := t.normalize()
	if err != nil {
		return nil, err
	}
	created, err := s.store.CreateTopics(ctx, userID, []Topic{t})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	s.logEvent(ctx, userID, EventTopicCreated, map[string]any{"topic_id": created[0].ID, "category": created[0].Category})
	return &created[0], nil
}

// ImportTopics creates the given topics, skipping any whose name matches an
// existing topic of the user case-insensitively. It returns the created topics.
func (s *Service) ImportTopics(ctx context.Context, userID string, topics []Topic, source string) ([]Topic, error) {
	existing, err := s.store.ListTopics(ctx, userID, TopicFilter{})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(existing)+len(topics))
	for _, t := range existing {
		seen[strings.ToLower(t.Name)] = true
	}

	batch := make([]Topic, 0, len(topics))
	for _, t := range topics {
		t, err := t.normalize()
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(t.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		batch = append(batch, t)
	}
	if len(batch) == 0 {
		return []Topic{}, nil
	}

	created, err := s.store.CreateTopics(ctx, userID, batch)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	s.logEvent(ctx, userID, EventTopicsImported, map[string]any{
		"count":   len(created),
		"skipped": len(topics) - len(created),
		"source":  source,
	})
	return created, nil
}

func (s *Service) UpdateTopic(ctx context.Context, userID string, t Topic) (*Topic, error) {
	t, err := t.normalize()
	if err != nil {
		return nil, err
	}
	updated, err := s.store.UpdateTopic(ctx, userID, t)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	return updated, nil
}

func (s *Service) DeleteTopic(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteTopic(ctx, userID, id); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

// --- Logs ---

// UpsertLog stores the log for its day, replacing any earlier one, then pushes
// the refreshed streak and weekly summary to live subscribers.
func (s *Service) UpsertLog(ctx context.Context, userID string, l DailyLog) (*DailyLog, error) {
	l, err := l.normalize()
	if err != nil {
		return nil, err
	}
	saved, err := s.store.UpsertLog(ctx, userID, l)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	s.logEvent(ctx, userID, EventLogUpserted, map[string]any{
		"date":      saved.Date.Format(progress.DateLayout),
		"questions": saved.QuestionsSolved,
		"minutes":   saved.TimeStudied,
	})
	s.publishProgress(ctx, userID)
	return saved, nil
}

func (s *Service) publishProgress(ctx context.Context, userID string) {
	if s.live == nil {
		return
	}
	today := s.Today()
	streak, err := s.Streak(ctx, userID, today)
	if err != nil {
		slog.Warn("live streak update failed", "user_id", userID, "error", err)
		return
	}
	s.live.Publish(userID, live.Message{Type: MessageStreak, Data: streak})

	summary, err := s.Summary(ctx, userID, liveSummaryDays, today)
	if err != nil {
		slog.Warn("live summary update failed", "user_id", userID, "error", err)
		return
	}
	s.live.Publish(userID, live.Message{Type: MessageSummary, Data: summary})
}

// ListLogs returns up to limit logs, newest first. A non-positive limit means
// DefaultLogLimit; larger limits are capped at MaxLogLimit.
func (s *Service) ListLogs(ctx context.Context, userID string, limit int) ([]DailyLog, error) {
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	return s.store.ListLogs(ctx, userID, min(limit, MaxLogLimit))
}

// --- Analytics ---

// Streak computes the current and longest streaks as of asOf.
func (s *Service) Streak(ctx context.Context, userID string, asOf time.Time) (progress.StreakState, error) {
	asOf = s.asOf(asOf)
	return cached(ctx, s, userID, "streak:"+asOf.Format(progress.DateLayout), func() (progress.StreakState, error) {
		logs, err := s.store.LogsSince(ctx, userID, time.Time{})
		if err != nil {
			return progress.StreakState{}, err
		}
		return progress.ComputeStreaks(Records(logs), asOf), nil
	})
}

// Summary aggregates the periodDays days ending at asOf.
func (s *Service) Summary(ctx context.Context, userID string, periodDays int, asOf time.Time) (progress.PeriodSummary, error) {
	if err := ValidPeriod(periodDays); err != nil {
		return progress.PeriodSummary{}, err
	}
	asOf = s.asOf(asOf)
	name := fmt.Sprintf("summary:%d:%s", periodDays, asOf.Format(progress.DateLayout))
	return cached(ctx, s, userID, name, func() (progress.PeriodSummary, error) {
		records, err := s.windowRecords(ctx, userID, periodDays, asOf)
		if err != nil {
			return progress.PeriodSummary{}, err
		}
		return progress.ComputePeriodSummary(records, periodDays, asOf), nil
	})
}

// Heatmap classifies each day of the window ending at asOf.
func (s *Service) Heatmap(ctx context.Context, userID string, periodDays int, asOf time.Time) ([]progress.HeatmapCell, error) {
	if err := ValidPeriod(periodDays); err != nil {
		return nil, err
	}
	asOf = s.asOf(asOf)
	records, err := s.windowRecords(ctx, userID, periodDays, asOf)
	if err != nil {
		return nil, err
	}
	return progress.Heatmap(records, periodDays, asOf), nil
}

func (s *Service) windowRecords(ctx context.Context, userID string, periodDays int, asOf time.Time) ([]progress.ActivityRecord, error) {
	start, _ := progress.Window(periodDays, asOf)
	logs, err := s.store.LogsSince(ctx, userID, start)
	if err != nil {
		return nil, err
	}
	return Records(logs), nil
}

// Categories returns per-category topic counts.
func (s *Service) Categories(ctx context.Context, userID string) (progress.CategoryBreakdown, error) {
	return cached(ctx, s, userID, "categories", func() (progress.CategoryBreakdown, error) {
		topics, err := s.store.ListTopics(ctx, userID, TopicFilter{})
		if err != nil {
			return nil, err
		}
		return breakdown(topics), nil
	})
}

func breakdown(topics []Topic) progress.CategoryBreakdown {
	views := make([]progress.Topic, len(topics))
	for i, t := range topics {
		views[i] = t.Aggregate()
	}
	return progress.ComputeCategoryBreakdown(views)
}

// Insights returns the recommendations for the window ending at asOf.
func (s *Service) Insights(ctx context.Context, userID string, periodDays int, asOf time.Time) ([]progress.Insight, error) {
	summary, err := s.Summary(ctx, userID, periodDays, asOf)
	if err != nil {
		return nil, err
	}
	cats, err := s.Categories(ctx, userID)
	if err != nil {
		return nil, err
	}
	return progress.Insights(summary, cats), nil
}

// Dashboard is the overview shown on the home screen.
type Dashboard struct {
	AsOf              time.Time                 `json:"asOf"`
	TotalTopics       int                       `json:"totalTopics"`
	CompletedTopics   int                       `json:"completedTopics"`
	InProgressTopics  int                       `json:"inProgressTopics"`
	CompletionRate    int                       `json:"completionRate"`
	CategoryRates     map[progress.Category]int `json:"categoryRates"`
	Streak            progress.StreakState      `json:"streak"`
	Summary           progress.PeriodSummary    `json:"summary"`
	RecentLogs        []DailyLog                `json:"recentLogs"`
	Estimate          progress.Estimate         `json:"estimate"`
	TodayQuestions    int                       `json:"todayQuestions"`
	DailyGoal         int                       `json:"dailyGoal"`
	DailyGoalProgress int                       `json:"dailyGoalProgress"`
	ActiveGoals       int                       `json:"activeGoals"`
}

// Dashboard assembles the overview as of asOf.
func (s *Service) Dashboard(ctx context.Context, userID string, asOf time.Time) (*Dashboard, error) {
	asOf = s.asOf(asOf)

	cats, err := s.Categories(ctx, userID)
	if err != nil {
		return nil, err
	}
	streak, err := s.Streak(ctx, userID, asOf)
	if err != nil {
		return nil, err
	}
	summary, err := s.Summary(ctx, userID, dashboardPeriodDays, asOf)
	if err != nil {
		return nil, err
	}
	recent, err := s.store.ListLogs(ctx, userID, recentLogCount)
	if err != nil {
		return nil, err
	}
	settings, err := s.Settings(ctx, userID)
	if err != nil {
		return nil, err
	}
	goals, err := s.store.ListGoals(ctx, userID)
	if err != nil {
		return nil, err
	}

	totals := cats.Totals()
	d := &Dashboard{
		AsOf:             asOf,
		TotalTopics:      totals.Total,
		CompletedTopics:  totals.Completed,
		InProgressTopics: totals.InProgress,
		CompletionRate:   totals.CompletionRate(),
		CategoryRates:    cats.Rates(),
		Streak:           streak,
		Summary:          summary,
		RecentLogs:       recent,
		Estimate:         progress.EstimateCompletion(cats, settings.StartDate, asOf),
		DailyGoal:        settings.DailyGoal,
	}
	if n := len(summary.DailySeries); n > 0 {
		d.TodayQuestions = summary.DailySeries[n-1].Questions
	}
	if d.DailyGoal > 0 {
		d.DailyGoalProgress = min(d.TodayQuestions*100/d.DailyGoal, 100)
	}
	for _, g := range goals {
		if g.Status == GoalActive {
			d.ActiveGoals++
		}
	}
	return d, nil
}

// Report gathers the data rendered into the analytics workbook.
func (s *Service) Report(ctx context.Context, userID string, periodDays int, asOf time.Time) (report.Report, error) {
	asOf = s.asOf(asOf)
	summary, err := s.Summary(ctx, userID, periodDays, asOf)
	if err != nil {
		return report.Report{}, err
	}
	streak, err := s.Streak(ctx, userID, asOf)
	if err != nil {
		return report.Report{}, err
	}
	cats, err := s.Categories(ctx, userID)
	if err != nil {
		return report.Report{}, err
	}
	return report.Report{AsOf: asOf, Summary: summary, Streak: streak, Categories: cats}, nil
}

// --- Goals ---

func (s *Service) view(g Goal, asOf time.Time) GoalView {
	return GoalView{Goal: g, Timeline: progress.Timeline(g.TargetDate, g.Status == GoalCompleted, g.Milestones, asOf)}
}

// ListGoals returns every goal with its timeline as of asOf.
func (s *Service) ListGoals(ctx context.Context, userID string, asOf time.Time) ([]GoalView, error) {
	asOf = s.asOf(asOf)
	goals, err := s.store.ListGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]GoalView, len(goals))
	for i, g := range goals {
		out[i] = s.view(g, asOf)
	}
	return out, nil
}

func (s *Service) GetGoal(ctx context.Context, userID, id string) (*GoalView, error) {
	g, err := s.store.GetGoal(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	v := s.view(*g, s.Today())
	return &v, nil
}

func (s *Service) CreateGoal(ctx context.Context, userID string, g Goal) (*GoalView, error) {
	g, err := g.normalize()
	if err != nil {
		return nil, err
	}
	created, err := s.store.CreateGoal(ctx, userID, g)
	if err != nil {
		return nil, err
	}
	if created.Status == GoalCompleted {
		s.logEvent(ctx, userID, EventGoalCompleted, map[string]any{"goal_id": created.ID})
	}
	v := s.view(*created, s.Today())
	return &v, nil
}

// UpdateGoal replaces a goal. Moving a goal into Completed records a
// goal_completed event.
func (s *Service) UpdateGoal(ctx context.Context, userID string, g Goal) (*GoalView, error) {
	g, err := g.normalize()
	if err != nil {
		return nil, err
	}
	prev, err := s.store.GetGoal(ctx, userID, g.ID)
	if err != nil {
		return nil, err
	}
	updated, err := s.store.UpdateGoal(ctx, userID, g)
	if err != nil {
		return nil, err
	}
	if prev.Status != GoalCompleted && updated.Status == GoalCompleted {
		s.logEvent(ctx, userID, EventGoalCompleted, map[string]any{"goal_id": updated.ID})
	}
	v := s.view(*updated, s.Today())
	return &v, nil
}

func (s *Service) DeleteGoal(ctx context.Context, userID, id string) error {
	return s.store.DeleteGoal(ctx, userID, id)
}

// --- Settings ---

// Settings returns the user's saved settings. A user without saved settings
// gets the defaults, which are persisted so the start date stays fixed.
func (s *Service) Settings(ctx context.Context, userID string) (Settings, error) {
	st, ok, err := s.store.GetSettings(ctx, userID)
	if err != nil {
		return Settings{}, err
	}
	if ok {
		return st, nil
	}
	st = DefaultSettings(s.now())
	if err := s.store.PutSettings(ctx, userID, st); err != nil {
		return Settings{}, err
	}
	return st, nil
}

// maxDailyGoal bounds the daily question target.
const maxDailyGoal = 100

// PutSettings saves st. A zero start date keeps the stored one.
func (s *Service) PutSettings(ctx context.Context, userID string, st Settings) (Settings, error) {
	if st.DailyGoal < 1 || st.DailyGoal > maxDailyGoal {
		return Settings{}, fmt.Errorf("daily goal must be between 1 and %d: %w", maxDailyGoal, ErrInvalid)
	}
	if st.StartDate.IsZero() {
		current, err := s.Settings(ctx, userID)
		if err != nil {
			return Settings{}, err
		}
		st.StartDate = current.StartDate
	}
	st.StartDate = progress.Day(st.StartDate)
	if err := s.store.PutSettings(ctx, userID, st); err != nil {
		return Settings{}, err
	}
	s.invalidate(ctx, userID)
	return st, nil
}

// --- helpers ---

// cached serves name from the analytics cache when one is configured. Cache
// failures are logged and fall through to compute.
func cached[T any](ctx context.Context, s *Service, userID, name string, compute func() (T, error)) (T, error) {
	var (
		version  int64
		storable bool
	)
	if s.cache != nil {
		var v T
		ver, ok, err := s.cache.Load(ctx, userID, name, &v)
		switch {
		case err != nil:
			slog.Warn("analytics cache read failed", "user_id", userID, "entry", name, "error", err)
		case ok:
			return v, nil
		default:
			version, storable = ver, true
		}
	}

	v, err := compute()
	if err != nil {
		return v, err
	}
	if storable {
		if err := s.cache.Store(ctx, userID, version, name, v); err != nil {
			slog.Warn("analytics cache write failed", "user_id", userID, "entry", name, "error", err)
		}
	}
	return v, nil
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		slog.Warn("analytics cache invalidation failed", "user_id", userID, "error", err)
	}
}

func (s *Service) logEvent(ctx context.Context, userID, eventType string, data map[string]any) {
	if err := s.events.LogEvent(ctx, Event{UserID: userID, EventType: eventType, Data: data, CreatedAt: s.now()}); err != nil {
		slog.Warn("event logging failed", "type", eventType, "user_id", userID, "error", err)
	}
}
