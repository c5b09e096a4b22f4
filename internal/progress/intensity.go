package progress

import "time"

// Tier is a heatmap intensity bucket.
type Tier string

const (
	TierNone   Tier = "none"
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// Tiers lists every tier from lowest to highest.
var Tiers = []Tier{TierNone, TierLow, TierMedium, TierHigh}

// ClassifyIntensity buckets a day's question count. Negative counts are a
// caller error and are treated as none.
func ClassifyIntensity(questions int) Tier {
	switch {
	case questions >= 5:
		return TierHigh
	case questions >= 3:
		return TierMedium
	case questions >= 1:
		return TierLow
	default:
		return TierNone
	}
}

// HeatmapCell is one calendar day with its tier.
type HeatmapCell struct {
	Date      time.Time `json:"date"`
	Questions int       `json:"questions"`
	Tier      Tier      `json:"tier"`
}

// Heatmap classifies every day of the periodDays window ending at asOf.
func Heatmap(records []ActivityRecord, periodDays int, asOf time.Time) []HeatmapCell {
	series := ComputePeriodSummary(records, periodDays, asOf).DailySeries
	cells := make([]HeatmapCell, len(series))
	for i, p := range series {
		cells[i] = HeatmapCell{Date: p.Date, Questions: p.Questions, Tier: ClassifyIntensity(p.Questions)}
	}
	return cells
}
