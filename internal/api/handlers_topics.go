package api

import (
	"net/http"
	"strings"

	"github.com/p-n-ai/pai-progress/internal/extract"
	"github.com/p-n-ai/pai-progress/internal/progress"
	"github.com/p-n-ai/pai-progress/internal/tracker"
)

type sessionRequest struct {
	UserID string `json:"userId"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decode(w, r, schemaSession, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	sess, err := s.sessions.Start(r.Context(), req.UserID)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())
	if err := s.sessions.End(r.Context(), sess.Token); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTopics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := tracker.TopicFilter{
		Search:   strings.TrimSpace(q.Get("search")),
		Category: progress.Category(q.Get("category")),
	}
	if v := q.Get("status"); v != "" {
		st := progress.ParseStatus(v)
		filter.Status = &st
	}
	topics, err := s.svc.ListTopics(r.Context(), userID(r), filter)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, topics)
}

func (s *Server) handleGetTopic(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.GetTopic(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

func (s *Server) handleCreateTopic(w http.ResponseWriter, r *http.Request) {
	var t tracker.Topic
	if err := decode(w, r, schemaTopic, &t); err != nil {
		respondErr(w, r, err)
		return
	}
	created, err := s.svc.CreateTopic(r.Context(), userID(r), t)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTopic(w http.ResponseWriter, r *http.Request) {
	var t tracker.Topic
	if err := decode(w, r, schemaTopic, &t); err != nil {
		respondErr(w, r, err)
		return
	}
	t.ID = r.PathValue("id")
	updated, err := s.svc.UpdateTopic(r.Context(), userID(r), t)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTopic(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteTopic(r.Context(), userID(r), r.PathValue("id")); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type importRequest struct {
	Source string   `json:"source"`
	Names  []string `json:"names"`
}

type importResponse struct {
	Imported []tracker.Topic `json:"imported"`
	Skipped  int             `json:"skipped"`
}

// handleImportTopics creates topics from names picked out of an extraction
// preview.
func (s *Server) handleImportTopics(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := decode(w, r, schemaImport, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	source := req.Source
	if source == "" {
		source = "upload"
	}
	s.importTopics(w, r, extract.ToTopics(req.Names, source), source)
}

func (s *Server) importTopics(w http.ResponseWriter, r *http.Request, topics []tracker.Topic, source string) {
	created, err := s.svc.ImportTopics(r.Context(), userID(r), topics, source)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, importResponse{Imported: created, Skipped: len(topics) - len(created)})
}
