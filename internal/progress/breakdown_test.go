package progress_test

import (
	"testing"
	"time"

	"github.com/p-n-ai/pai-progress/internal/progress"
)

func TestComputeCategoryBreakdown(t *testing.T) {
	topics := []progress.Topic{
		{Category: progress.CategoryDSA, Status: progress.StatusCompleted},
		{Category: progress.CategoryDSA, Status: progress.StatusNotStarted},
		{Category: progress.CategoryDSA, Status: progress.StatusInProgress},
	}

	got := progress.ComputeCategoryBreakdown(topics)

	want := progress.CategoryStats{Total: 3, Completed: 1, InProgress: 1, NotStarted: 1}
	if got[progress.CategoryDSA] != want {
		t.Errorf("DSA = %+v, want %+v", got[progress.CategoryDSA], want)
	}
	if rate := got[progress.CategoryDSA].CompletionRate(); rate != 33 {
		t.Errorf("CompletionRate = %d, want 33", rate)
	}
	if len(got) != 1 {
		t.Errorf("len = %d, want 1", len(got))
	}
}

func TestComputeCategoryBreakdown_TotalsBalance(t *testing.T) {
	topics := []progress.Topic{
		{Category: progress.CategorySystemDesign, Status: progress.StatusCompleted},
		{Category: "Rust", Status: progress.StatusInProgress},
		{Category: "Rust", Status: progress.ParseStatus("bogus")},
		{Category: progress.CategoryAgenticAI, Status: progress.StatusCompleted},
		{Category: progress.CategoryAgenticAI, Status: progress.StatusCompleted},
		{Category: "", Status: progress.StatusNotStarted},
	}

	got := progress.ComputeCategoryBreakdown(topics)

	for c, s := range got {
		if s.Total != s.Completed+s.InProgress+s.NotStarted {
			t.Errorf("%q: total %d != %d+%d+%d", c, s.Total, s.Completed, s.InProgress, s.NotStarted)
		}
	}
	if got["Rust"].Total != 2 {
		t.Errorf("unknown category bucket total = %d, want 2", got["Rust"].Total)
	}
	if got[progress.CategoryAgenticAI].CompletionRate() != 100 {
		t.Errorf("Agentic AI rate = %d, want 100", got[progress.CategoryAgenticAI].CompletionRate())
	}
	totals := got.Totals()
	if totals.Total != len(topics) {
		t.Errorf("Totals().Total = %d, want %d", totals.Total, len(topics))
	}
}

func TestComputeCategoryBreakdown_OrderIndependent(t *testing.T) {
	topics := []progress.Topic{
		{Category: progress.CategoryDSA, Status: progress.StatusCompleted},
		{Category: progress.CategoryGenerativeAI, Status: progress.StatusInProgress},
		{Category: progress.CategoryDSA, Status: progress.StatusInProgress},
	}
	reversed := []progress.Topic{topics[2], topics[1], topics[0]}

	a := progress.ComputeCategoryBreakdown(topics)
	b := progress.ComputeCategoryBreakdown(reversed)
	for c := range a {
		if a[c] != b[c] {
			t.Errorf("%q: %+v != %+v", c, a[c], b[c])
		}
	}
}

func TestCompletionRate_EmptyBucket(t *testing.T) {
	if got := (progress.CategoryStats{}).CompletionRate(); got != 0 {
		t.Errorf("CompletionRate = %d, want 0", got)
	}
}

func TestRates_IncludesKnownCategories(t *testing.T) {
	b := progress.ComputeCategoryBreakdown([]progress.Topic{{Category: "Go", Status: progress.StatusCompleted}})
	rates := b.Rates()
	for _, c := range progress.KnownCategories {
		if rate, ok := rates[c]; !ok || rate != 0 {
			t.Errorf("rates[%q] = %d, %v; want 0, true", c, rate, ok)
		}
	}
	if rates["Go"] != 100 {
		t.Errorf("rates[Go] = %d, want 100", rates["Go"])
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want progress.Status
	}{
		{"Completed", progress.StatusCompleted},
		{"In Progress", progress.StatusInProgress},
		{"InProgress", progress.StatusInProgress},
		{"in progress", progress.StatusInProgress},
		{"Not Started", progress.StatusNotStarted},
		{"", progress.StatusNotStarted},
		{"paused", progress.StatusNotStarted},
	}
	for _, tt := range tests {
		if got := progress.ParseStatus(tt.in); got != tt.want {
			t.Errorf("ParseStatus(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestClassifyIntensity(t *testing.T) {
	tests := []struct {
		questions int
		want      progress.Tier
	}{
		{-1, progress.TierNone},
		{0, progress.TierNone},
		{1, progress.TierLow},
		{2, progress.TierLow},
		{3, progress.TierMedium},
		{4, progress.TierMedium},
		{5, progress.TierHigh},
		{50, progress.TierHigh},
	}
	for _, tt := range tests {
		if got := progress.ClassifyIntensity(tt.questions); got != tt.want {
			t.Errorf("ClassifyIntensity(%d) = %q, want %q", tt.questions, got, tt.want)
		}
	}
}

func TestHeatmap(t *testing.T) {
	cells := progress.Heatmap([]progress.ActivityRecord{rec(0, 5), rec(-1, 3), rec(-2, 1)}, 4, today)
	want := []progress.Tier{progress.TierNone, progress.TierLow, progress.TierMedium, progress.TierHigh}
	if len(cells) != len(want) {
		t.Fatalf("len = %d, want %d", len(cells), len(want))
	}
	for i, c := range cells {
		if c.Tier != want[i] {
			t.Errorf("cells[%d].Tier = %q, want %q", i, c.Tier, want[i])
		}
	}
}

func TestInsights(t *testing.T) {
	idle := progress.ComputePeriodSummary(nil, 30, today)
	backlog := progress.ComputeCategoryBreakdown([]progress.Topic{
		{Category: progress.CategoryDSA, Status: progress.StatusNotStarted},
	})

	got := codes(progress.Insights(idle, backlog))
	for _, want := range []string{"low_average", "low_consistency", "backlog", "keep_going"} {
		if !got[want] {
			t.Errorf("missing insight %q", want)
		}
	}

	var busy []progress.ActivityRecord
	for i := 0; i < 7; i++ {
		busy = append(busy, rec(-i, 4))
	}
	done := progress.ComputeCategoryBreakdown([]progress.Topic{
		{Category: progress.CategoryDSA, Status: progress.StatusCompleted},
	})
	got = codes(progress.Insights(progress.ComputePeriodSummary(busy, 7, today), done))
	if len(got) != 1 || !got["keep_going"] {
		t.Errorf("insights = %v, want only keep_going", got)
	}
}

func codes(in []progress.Insight) map[string]bool {
	out := make(map[string]bool, len(in))
	for _, i := range in {
		out[i.Code] = true
	}
	return out
}

func TestEstimateCompletion(t *testing.T) {
	b := progress.ComputeCategoryBreakdown([]progress.Topic{
		{Category: progress.CategoryDSA, Status: progress.StatusCompleted},
		{Category: progress.CategoryDSA, Status: progress.StatusCompleted},
		{Category: progress.CategoryDSA, Status: progress.StatusNotStarted},
		{Category: progress.CategoryDSA, Status: progress.StatusNotStarted},
		{Category: progress.CategoryDSA, Status: progress.StatusInProgress},
	})

	got := progress.EstimateCompletion(b, day(-10), today)
	if got.DaysElapsed != 10 {
		t.Errorf("DaysElapsed = %d, want 10", got.DaysElapsed)
	}
	// 2 completed in 10 days = 0.2/day, 3 remaining => 15 days.
	if got.RemainingDays != 15 {
		t.Errorf("RemainingDays = %d, want 15", got.RemainingDays)
	}
	if !got.CompletionOn.Equal(day(15)) {
		t.Errorf("CompletionOn = %v, want %v", got.CompletionOn, day(15))
	}

	none := progress.EstimateCompletion(progress.CategoryBreakdown{}, today, today)
	if none.RemainingDays != 365 {
		t.Errorf("fallback RemainingDays = %d, want 365", none.RemainingDays)
	}
}

func TestTimeline(t *testing.T) {
	milestones := []progress.Milestone{{Title: "a", Completed: true}, {Title: "b"}}

	tests := []struct {
		name      string
		target    time.Time
		completed bool
		want      progress.GoalTimeline
	}{
		{"future", day(10), false, progress.GoalTimeline{DaysRemaining: 10, MilestonesDone: 1, MilestonesTotal: 2}},
		{"due today", day(0), false, progress.GoalTimeline{DaysRemaining: 0, DueToday: true, MilestonesDone: 1, MilestonesTotal: 2}},
		{"overdue", day(-3), false, progress.GoalTimeline{DaysRemaining: -3, Overdue: true, MilestonesDone: 1, MilestonesTotal: 2}},
		{"completed past target", day(-3), true, progress.GoalTimeline{DaysRemaining: -3, MilestonesDone: 1, MilestonesTotal: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := progress.Timeline(tt.target, tt.completed, milestones, today)
			if got != tt.want {
				t.Errorf("Timeline = %+v, want %+v", got, tt.want)
			}
		})
	}
}
