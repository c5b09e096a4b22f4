package display_test

import (
	"testing"

	"github.com/p-n-ai/pai-progress/internal/display"
	"github.com/p-n-ai/pai-progress/internal/progress"
	"github.com/p-n-ai/pai-progress/internal/tracker"
)

func TestCategory(t *testing.T) {
	tests := []struct {
		category progress.Category
		want     string
	}{
		{progress.CategoryDSA, "blue"},
		{progress.CategorySystemDesign, "purple"},
		{progress.CategoryDesignPatterns, "green"},
		{progress.CategoryGenerativeAI, "orange"},
		{progress.CategoryAgenticAI, "red"},
		{"Databases", display.Neutral},
		{"", display.Neutral},
	}
	for _, tt := range tests {
		got := display.Category(tt.category)
		if got.Color != tt.want || got.Label != string(tt.category) {
			t.Errorf("Category(%q) = %+v, want color %s", tt.category, got, tt.want)
		}
	}
}

func TestStatusAndPriority(t *testing.T) {
	if got := display.Status(progress.StatusCompleted); got.Color != "green" || got.Label != "Completed" {
		t.Errorf("Status(Completed) = %+v", got)
	}
	if got := display.Status(progress.Status(42)); got.Label != "Not Started" || got.Color != display.Neutral {
		t.Errorf("Status(42) = %+v", got)
	}
	if got := display.Priority(tracker.PriorityHigh); got.Color != "red" {
		t.Errorf("Priority(High) = %+v", got)
	}
	if got := display.GoalStatus("Someday"); got.Color != display.Neutral {
		t.Errorf("GoalStatus(Someday) = %+v", got)
	}
}

func TestLegendIsExhaustive(t *testing.T) {
	l := display.NewLegend()
	if len(l.Categories) != len(progress.KnownCategories) {
		t.Errorf("categories = %d, want %d", len(l.Categories), len(progress.KnownCategories))
	}
	if len(l.Statuses) != 3 || len(l.Priorities) != 3 || len(l.GoalStatuses) != 4 {
		t.Errorf("legend sizes = %d/%d/%d", len(l.Statuses), len(l.Priorities), len(l.GoalStatuses))
	}
	for _, tier := range progress.Tiers {
		if _, ok := l.Tiers[string(tier)]; !ok {
			t.Errorf("tier %s missing from legend", tier)
		}
	}
	if l.Tiers["none"].Color != display.Neutral {
		t.Errorf("none tier color = %s", l.Tiers["none"].Color)
	}
}
