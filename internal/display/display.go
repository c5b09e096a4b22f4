// Package display maps domain values to human labels and palette colors.
// Colors are palette names; clients pick the concrete shade for their theme.
package display

import (
	"github.com/p-n-ai/pai-progress/internal/progress"
	"github.com/p-n-ai/pai-progress/internal/tracker"
)

// Badge is how one value is shown.
type Badge struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// Neutral is used for values with no dedicated color.
const Neutral = "gray"

var categoryColors = map[progress.Category]string{
	progress.CategoryDSA:            "blue",
	progress.CategorySystemDesign:   "purple",
	progress.CategoryDesignPatterns: "green",
	progress.CategoryGenerativeAI:   "orange",
	progress.CategoryAgenticAI:      "red",
}

// Category returns the badge for c. Unknown categories keep their name and
// get the neutral color.
func Category(c progress.Category) Badge {
	color, ok := categoryColors[c]
	if !ok {
		color = Neutral
	}
	return Badge{Label: string(c), Color: color}
}

// Status returns the badge for a topic status.
func Status(s progress.Status) Badge {
	switch s {
	case progress.StatusCompleted:
		return Badge{Label: s.String(), Color: "green"}
	case progress.StatusInProgress:
		return Badge{Label: s.String(), Color: "yellow"}
	default:
		return Badge{Label: progress.StatusNotStarted.String(), Color: Neutral}
	}
}

// Priority returns the badge for a topic priority.
func Priority(p tracker.Priority) Badge {
	switch p {
	case tracker.PriorityHigh:
		return Badge{Label: string(p), Color: "red"}
	case tracker.PriorityMedium:
		return Badge{Label: string(p), Color: "yellow"}
	default:
		return Badge{Label: string(tracker.PriorityLow), Color: Neutral}
	}
}

// GoalStatus returns the badge for a goal status.
func GoalStatus(s tracker.GoalStatus) Badge {
	switch s {
	case tracker.GoalCompleted:
		return Badge{Label: string(s), Color: "green"}
	case tracker.GoalActive:
		return Badge{Label: string(s), Color: "blue"}
	case tracker.GoalPaused:
		return Badge{Label: string(s), Color: "yellow"}
	case tracker.GoalCancelled:
		return Badge{Label: string(s), Color: "red"}
	default:
		return Badge{Label: string(s), Color: Neutral}
	}
}

// Tier returns the heatmap badge for an intensity tier.
func Tier(t progress.Tier) Badge {
	switch t {
	case progress.TierHigh:
		return Badge{Label: "5+ questions", Color: "green-600"}
	case progress.TierMedium:
		return Badge{Label: "3-4 questions", Color: "green-400"}
	case progress.TierLow:
		return Badge{Label: "1-2 questions", Color: "green-200"}
	default:
		return Badge{Label: "No activity", Color: Neutral}
	}
}

// Legend collects every mapping, keyed by the wire value.
type Legend struct {
	Categories   map[string]Badge `json:"categories"`
	Statuses     map[string]Badge `json:"statuses"`
	Priorities   map[string]Badge `json:"priorities"`
	GoalStatuses map[string]Badge `json:"goalStatuses"`
	Tiers        map[string]Badge `json:"tiers"`
}

// NewLegend builds the full legend for clients.
func NewLegend() Legend {
	l := Legend{
		Categories:   make(map[string]Badge, len(progress.KnownCategories)),
		Statuses:     make(map[string]Badge, 3),
		Priorities:   make(map[string]Badge, 3),
		GoalStatuses: make(map[string]Badge, 4),
		Tiers:        make(map[string]Badge, len(progress.Tiers)),
	}
	for _, c := range progress.KnownCategories {
		l.Categories[string(c)] = Category(c)
	}
	for _, s := range []progress.Status{progress.StatusNotStarted, progress.StatusInProgress, progress.StatusCompleted} {
		l.Statuses[s.String()] = Status(s)
	}
	for _, p := range []tracker.Priority{tracker.PriorityLow, tracker.PriorityMedium, tracker.PriorityHigh} {
		l.Priorities[string(p)] = Priority(p)
	}
	for _, g := range []tracker.GoalStatus{tracker.GoalActive, tracker.GoalCompleted, tracker.GoalPaused, tracker.GoalCancelled} {
		l.GoalStatuses[string(g)] = GoalStatus(g)
	}
	for _, t := range progress.Tiers {
		l.Tiers[string(t)] = Tier(t)
	}
	return l
}
