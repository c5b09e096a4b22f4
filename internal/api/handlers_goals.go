package api

import (
	"fmt"
	"net/http"

	"github.com/p-n-ai/pai-progress/internal/progress"
	"github.com/p-n-ai/pai-progress/internal/tracker"
)

type milestoneRequest struct {
	Title      string `json:"title"`
	TargetDate string `json:"targetDate"`
	Completed  bool   `json:"completed"`
}

type goalRequest struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Category    progress.Category  `json:"category"`
	TargetDate  string             `json:"targetDate"`
	Status      tracker.GoalStatus `json:"status"`
	Progress    int                `json:"progress"`
	Milestones  []milestoneRequest `json:"milestones"`
}

func (req goalRequest) goal() (tracker.Goal, error) {
	target, err := optionalDay("targetDate", req.TargetDate)
	if err != nil {
		return tracker.Goal{}, err
	}
	milestones := make([]progress.Milestone, len(req.Milestones))
	for i, m := range req.Milestones {
		d, err := optionalDay(fmt.Sprintf("milestones[%d].targetDate", i), m.TargetDate)
		if err != nil {
			return tracker.Goal{}, err
		}
		milestones[i] = progress.Milestone{Title: m.Title, TargetDate: d, Completed: m.Completed}
	}
	return tracker.Goal{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		TargetDate:  target,
		Status:      req.Status,
		Progress:    req.Progress,
		Milestones:  milestones,
	}, nil
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	at, err := asOf(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	goals, err := s.svc.ListGoals(r.Context(), userID(r), at)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, goals)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	g, err := s.svc.GetGoal(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, g)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	g, ok := s.decodeGoal(w, r)
	if !ok {
		return
	}
	created, err := s.svc.CreateGoal(r.Context(), userID(r), g)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	g, ok := s.decodeGoal(w, r)
	if !ok {
		return
	}
	g.ID = r.PathValue("id")
	updated, err := s.svc.UpdateGoal(r.Context(), userID(r), g)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteGoal(r.Context(), userID(r), r.PathValue("id")); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) decodeGoal(w http.ResponseWriter, r *http.Request) (tracker.Goal, bool) {
	var req goalRequest
	if err := decode(w, r, schemaGoal, &req); err != nil {
		respondErr(w, r, err)
		return tracker.Goal{}, false
	}
	g, err := req.goal()
	if err != nil {
		respondErr(w, r, err)
		return tracker.Goal{}, false
	}
	return g, true
}
