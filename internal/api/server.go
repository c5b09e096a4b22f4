// Package api exposes the tracker over HTTP/JSON.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/p-n-ai/pai-progress/internal/catalog"
	"github.com/p-n-ai/pai-progress/internal/extract"
	"github.com/p-n-ai/pai-progress/internal/live"
	"github.com/p-n-ai/pai-progress/internal/session"
	"github.com/p-n-ai/pai-progress/internal/tracker"
)

const readyTimeout = 2 * time.Second

// HealthChecker is a dependency checked by /readyz.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Options wires the server's collaborators. Service and Sessions are required.
type Options struct {
	Service  *tracker.Service
	Sessions *session.Manager
	Hub      *live.Hub
	Catalogs *catalog.Loader
	// Checks are run by /readyz, keyed by dependency name.
	Checks         map[string]HealthChecker
	MaxUploadBytes int64
	MaxCandidates  int
	LogRequests    bool
}

// Server holds the HTTP handlers.
type Server struct {
	svc            *tracker.Service
	sessions       *session.Manager
	hub            *live.Hub
	catalogs       *catalog.Loader
	checks         map[string]HealthChecker
	maxUploadBytes int64
	maxCandidates  int
	logRequests    bool
}

// NewServer creates a server from opts.
func NewServer(opts Options) *Server {
	s := &Server{
		svc:            opts.Service,
		sessions:       opts.Sessions,
		hub:            opts.Hub,
		catalogs:       opts.Catalogs,
		checks:         opts.Checks,
		maxUploadBytes: opts.MaxUploadBytes,
		maxCandidates:  opts.MaxCandidates,
		logRequests:    opts.LogRequests,
	}
	if s.hub == nil {
		s.hub = live.NewHub()
	}
	if s.catalogs == nil {
		s.catalogs, _ = catalog.NewLoader("")
	}
	if s.maxUploadBytes <= 0 {
		s.maxUploadBytes = 10 << 20
	}
	if s.maxCandidates <= 0 {
		s.maxCandidates = extract.DefaultMaxCandidates
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	mux.HandleFunc("GET /api/display", handleDisplay)

	mux.HandleFunc("POST /api/session", s.handleStartSession)
	mux.HandleFunc("DELETE /api/session", s.requireSession(s.handleEndSession))

	mux.HandleFunc("GET /api/topics", s.requireSession(s.handleListTopics))
	mux.HandleFunc("POST /api/topics", s.requireSession(s.handleCreateTopic))
	mux.HandleFunc("POST /api/topics/import", s.requireSession(s.handleImportTopics))
	mux.HandleFunc("GET /api/topics/{id}", s.requireSession(s.handleGetTopic))
	mux.HandleFunc("PUT /api/topics/{id}", s.requireSession(s.handleUpdateTopic))
	mux.HandleFunc("DELETE /api/topics/{id}", s.requireSession(s.handleDeleteTopic))

	mux.HandleFunc("GET /api/logs", s.requireSession(s.handleListLogs))
	mux.HandleFunc("POST /api/logs", s.requireSession(s.handleUpsertLog))
	mux.HandleFunc("GET /api/logs/streak", s.requireSession(s.handleStreak))
	mux.HandleFunc("GET /api/logs/analytics", s.requireSession(s.handleSummary))
	mux.HandleFunc("GET /api/logs/heatmap", s.requireSession(s.handleHeatmap))

	mux.HandleFunc("GET /api/goals", s.requireSession(s.handleListGoals))
	mux.HandleFunc("POST /api/goals", s.requireSession(s.handleCreateGoal))
	mux.HandleFunc("GET /api/goals/{id}", s.requireSession(s.handleGetGoal))
	mux.HandleFunc("PUT /api/goals/{id}", s.requireSession(s.handleUpdateGoal))
	mux.HandleFunc("DELETE /api/goals/{id}", s.requireSession(s.handleDeleteGoal))

	mux.HandleFunc("GET /api/analytics/categories", s.requireSession(s.handleCategories))
	mux.HandleFunc("GET /api/analytics/insights", s.requireSession(s.handleInsights))
	mux.HandleFunc("GET /api/dashboard", s.requireSession(s.handleDashboard))

	mux.HandleFunc("GET /api/settings", s.requireSession(s.handleGetSettings))
	mux.HandleFunc("PUT /api/settings", s.requireSession(s.handlePutSettings))

	mux.HandleFunc("POST /api/documents/extract", s.requireSession(s.handleExtract))
	mux.HandleFunc("GET /api/catalogs", s.requireSession(s.handleListCatalogs))
	mux.HandleFunc("POST /api/catalogs/{id}/import", s.requireSession(s.handleImportCatalog))
	mux.HandleFunc("GET /api/reports/analytics.xlsx", s.requireSession(s.handleReport))

	mux.HandleFunc("GET /api/live", s.requireSession(s.handleLive))

	if s.logRequests {
		return logRequests(mux)
	}
	return mux
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	failed := map[string]string{}
	for name, c := range s.checks {
		if err := c.HealthCheck(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		respondJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "failed": failed})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
