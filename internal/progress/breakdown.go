package progress

// ComputeCategoryBreakdown groups topics by category and counts each status.
// Total always equals Completed + InProgress + NotStarted.
func ComputeCategoryBreakdown(topics []Topic) CategoryBreakdown {
	out := make(CategoryBreakdown)
	for _, t := range topics {
		stats := out[t.Category]
		stats.Total++
		switch t.Status {
		case StatusCompleted:
			stats.Completed++
		case StatusInProgress:
			stats.InProgress++
		default:
			stats.NotStarted++
		}
		out[t.Category] = stats
	}
	return out
}

// Totals sums every category.
func (b CategoryBreakdown) Totals() CategoryStats {
	var all CategoryStats
	for _, s := range b {
		all.Total += s.Total
		all.Completed += s.Completed
		all.InProgress += s.InProgress
		all.NotStarted += s.NotStarted
	}
	return all
}

// Rates returns the completion rate of every known category plus any other
// category present in b. Known categories with no topics report 0.
func (b CategoryBreakdown) Rates() map[Category]int {
	rates := make(map[Category]int, len(KnownCategories)+len(b))
	for _, c := range KnownCategories {
		rates[c] = 0
	}
	for c, s := range b {
		rates[c] = s.CompletionRate()
	}
	return rates
}
