package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/p-n-ai/pai-progress/internal/catalog"
	"github.com/p-n-ai/pai-progress/internal/extract"
	"github.com/p-n-ai/pai-progress/internal/tracker"
)

type extractResponse struct {
	Source     string         `json:"source"`
	Format     extract.Format `json:"format"`
	Candidates []string       `json:"candidates"`
}

// handleExtract parses an uploaded study guide and returns candidate topic
// names. Nothing is stored; the client confirms via /api/topics/import.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			respondError(w, http.StatusRequestEntityTooLarge, CodeTooLarge,
				fmt.Sprintf("document exceeds %d bytes", s.maxUploadBytes))
			return
		}
		respondErr(w, r, fmt.Errorf("multipart field \"file\" is required: %w", tracker.ErrInvalid))
		return
	}
	defer file.Close()

	format, err := extract.DetectFormat(header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	candidates, err := extract.Extract(file, format, s.maxCandidates)
	if err != nil {
		slog.Warn("document extraction failed", "file", header.Filename, "format", format, "error", err)
		respondErr(w, r, fmt.Errorf("could not read %s document: %w", format, tracker.ErrInvalid))
		return
	}

	respondJSON(w, http.StatusOK, extractResponse{
		Source:     filepath.Base(header.Filename),
		Format:     format,
		Candidates: candidates,
	})
}

type catalogSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	TopicCount  int    `json:"topicCount"`
}

func (s *Server) handleListCatalogs(w http.ResponseWriter, r *http.Request) {
	all := s.catalogs.All()
	out := make([]catalogSummary, len(all))
	for i, c := range all {
		out[i] = catalogSummary{ID: c.ID, Name: c.Name, Description: c.Description, TopicCount: len(c.Topics)}
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleImportCatalog(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c, ok := s.catalogs.Get(id)
	if !ok {
		respondErr(w, r, fmt.Errorf("catalog %s: %w", id, tracker.ErrNotFound))
		return
	}
	s.importTopics(w, r, catalog.ToTopics(c), "catalog:"+c.ID)
}
