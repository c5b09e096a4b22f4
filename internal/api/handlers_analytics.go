package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/p-n-ai/pai-progress/internal/display"
	"github.com/p-n-ai/pai-progress/internal/progress"
	"github.com/p-n-ai/pai-progress/internal/report"
	"github.com/p-n-ai/pai-progress/internal/tracker"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type categoriesResponse struct {
	Categories progress.CategoryBreakdown `json:"categories"`
	Rates      map[progress.Category]int  `json:"rates"`
	Totals     progress.CategoryStats     `json:"totals"`
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.svc.Categories(r.Context(), userID(r))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, categoriesResponse{Categories: cats, Rates: cats.Rates(), Totals: cats.Totals()})
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
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
	insights, err := s.svc.Insights(r.Context(), userID(r), days, at)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"insights": insights})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	at, err := asOf(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	d, err := s.svc.Dashboard(r.Context(), userID(r), at)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

type settingsRequest struct {
	DailyGoal     int    `json:"dailyGoal"`
	Notifications bool   `json:"notifications"`
	DarkMode      bool   `json:"darkMode"`
	StartDate     string `json:"startDate"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Settings(r.Context(), userID(r))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, st)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decode(w, r, schemaSettings, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	start, err := optionalDay("startDate", req.StartDate)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	saved, err := s.svc.PutSettings(r.Context(), userID(r), tracker.Settings{
		DailyGoal:     req.DailyGoal,
		Notifications: req.Notifications,
		DarkMode:      req.DarkMode,
		StartDate:     start,
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

// handleReport streams the analytics workbook. The workbook is rendered to a
// buffer first so failures still produce a JSON error.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
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
	rep, err := s.svc.Report(r.Context(), userID(r), days, at)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteWorkbook(&buf, rep); err != nil {
		respondErr(w, r, err)
		return
	}

	filename := fmt.Sprintf("progress-%s-%dd.xlsx", rep.AsOf.Format(progress.DateLayout), days)
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	s.hub.Serve(w, r, userID(r))
}

func handleDisplay(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, display.NewLegend())
}
