package api

import (
	"net/http"

	"github.com/p-n-ai/pai-progress/internal/progress"
	"github.com/p-n-ai/pai-progress/internal/tracker"
)

type logRequest struct {
	Date            string                `json:"date"`
	QuestionsSolved int                   `json:"questionsSolved"`
	TimeStudied     int                   `json:"timeStudied"`
	Notes           string                `json:"notes"`
	Mood            tracker.Mood          `json:"mood"`
	LinkedTopics    []tracker.LinkedTopic `json:"linkedTopics"`
}

func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", tracker.DefaultLogLimit)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	logs, err := s.svc.ListLogs(r.Context(), userID(r), limit)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, logs)
}

// handleUpsertLog creates the log for a day or replaces the existing one.
func (s *Server) handleUpsertLog(w http.ResponseWriter, r *http.Request) {
	var req logRequest
	if err := decode(w, r, schemaLog, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	date, err := optionalDay("date", req.Date)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	saved, err := s.svc.UpsertLog(r.Context(), userID(r), tracker.DailyLog{
		Date:            date,
		QuestionsSolved: req.QuestionsSolved,
		TimeStudied:     req.TimeStudied,
		Notes:           req.Notes,
		Mood:            req.Mood,
		LinkedTopics:    req.LinkedTopics,
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	at, err := asOf(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	streak, err := s.svc.Streak(r.Context(), userID(r), at)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, streak)
}

type summaryResponse struct {
	progress.PeriodSummary
	Consistency int `json:"consistency"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	days, err := period(r, tracker.DefaultPeriodDays)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	at, err := asOf(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	summary, err := s.svc.Summary(r.Context(), userID(r), days, at)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summaryResponse{PeriodSummary: summary, Consistency: progress.Consistency(summary)})
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	days, err := period(r, heatmapPeriodDays)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	at, err := asOf(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	cells, err := s.svc.Heatmap(r.Context(), userID(r), days, at)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cells)
}
