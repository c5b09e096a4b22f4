// Package report renders progress analytics as an Excel workbook.
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-progress/internal/progress"
)

// Sheet names, in workbook order.
const (
	SheetSummary    = "Summary"
	SheetDaily      = "Daily"
	SheetCategories = "Categories"
)

// Report is everything the workbook shows.
type Report struct {
	AsOf       time.Time
	Summary    progress.PeriodSummary
	Streak     progress.StreakState
	Categories progress.CategoryBreakdown
}

// WriteWorkbook renders r as an .xlsx document to w.
func WriteWorkbook(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeSummary(f, r); err != nil {
		return err
	}
	if err := writeDaily(f, r.Summary.DailySeries); err != nil {
		return err
	}
	if err := writeCategories(f, r.Categories); err != nil {
		return err
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, r Report) error {
	rows := [][]any{
		{"Metric", "Value"},
		{"As of", r.AsOf.Format(progress.DateLayout)},
		{"Period (days)", r.Summary.PeriodDays},
		{"Total questions", r.Summary.TotalQuestions},
		{"Total time (minutes)", r.Summary.TotalTimeMinutes},
		{"Average questions per day", r.Summary.AverageQuestionsPerDay},
		{"Study days", r.Summary.ActiveDayCount},
		{"Consistency (%)", progress.Consistency(r.Summary)},
		{"Current streak", r.Streak.CurrentStreak},
		{"Longest streak", r.Streak.LongestStreak},
	}
	return writeRows(f, SheetSummary, rows)
}

func writeDaily(f *excelize.File, series []progress.DailyPoint) error {
	if _, err := f.NewSheet(SheetDaily); err != nil {
		return fmt.Errorf("create %s sheet: %w", SheetDaily, err)
	}
	rows := make([][]any, 0, len(series)+1)
	rows = append(rows, []any{"Date", "Questions", "Intensity"})
	for _, p := range series {
		rows = append(rows, []any{p.Date.Format(progress.DateLayout), p.Questions, string(progress.ClassifyIntensity(p.Questions))})
	}
	return writeRows(f, SheetDaily, rows)
}

func writeCategories(f *excelize.File, b progress.CategoryBreakdown) error {
	if _, err := f.NewSheet(SheetCategories); err != nil {
		return fmt.Errorf("create %s sheet: %w", SheetCategories, err)
	}
	categories := make([]progress.Category, 0, len(b))
	for c := range b {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	rows := [][]any{{"Category", "Total", "Completed", "In Progress", "Not Started", "Completion (%)"}}
	for _, c := range categories {
		s := b[c]
		rows = append(rows, []any{string(c), s.Total, s.Completed, s.InProgress, s.NotStarted, s.CompletionRate()})
	}
	return writeRows(f, SheetCategories, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
