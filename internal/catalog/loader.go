// Package catalog loads curated topic catalogs from YAML files.
package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/p-n-ai/pai-progress/internal/progress"
	"github.com/p-n-ai/pai-progress/internal/tracker"
)

// Loader loads and caches catalogs from the filesystem.
type Loader struct {
	rootDir  string
	catalogs map[string]Catalog
	mu       sync.RWMutex
}

// NewLoader creates a catalog loader and loads every catalog under rootDir.
// An empty rootDir yields an empty loader.
func NewLoader(rootDir string) (*Loader, error) {
	l := &Loader{
		rootDir:  rootDir,
		catalogs: make(map[string]Catalog),
	}
	if rootDir == "" {
		return l, nil
	}

	if err := l.loadAll(); err != nil {
		return nil, fmt.Errorf("loading catalogs: %w", err)
	}

	slog.Info("catalogs loaded", "catalogs", len(l.catalogs), "path", rootDir)
	return l, nil
}

// Get returns a catalog by ID.
func (l *Loader) Get(id string) (Catalog, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.catalogs[id]
	return c, ok
}

// All returns every loaded catalog ordered by ID.
func (l *Loader) All() []Catalog {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Catalog, 0, len(l.catalogs))
	for _, c := range l.catalogs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (l *Loader) loadAll() error {
	return filepath.WalkDir(l.rootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
			return l.loadCatalog(path)
		}
		return nil
	})
}

func (l *Loader) loadCatalog(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		slog.Warn("skipping invalid catalog YAML", "path", path, "error", err)
		return nil
	}

	if c.ID == "" {
		return nil // Not a catalog file
	}

	l.mu.Lock()
	if _, dup := l.catalogs[c.ID]; dup {
		slog.Warn("duplicate catalog id, keeping last", "id", c.ID, "path", path)
	}
	l.catalogs[c.ID] = c
	l.mu.Unlock()

	return nil
}

// ToTopics converts a catalog into new topics tagged with the catalog name.
func ToTopics(c Catalog) []tracker.Topic {
	topics := make([]tracker.Topic, 0, len(c.Topics))
	for _, seed := range c.Topics {
		category := progress.Category(seed.Category)
		if category == "" {
			category = progress.CategoryDSA
		}
		subtopics := make([]tracker.Subtopic, len(seed.Subtopics))
		for i, name := range seed.Subtopics {
			subtopics[i] = tracker.Subtopic{Name: name}
		}
		tags := append([]string{c.Name}, seed.Tags...)
		topics = append(topics, tracker.Topic{
			Name:        seed.Name,
			Description: seed.Description,
			Category:    category,
			Priority:    tracker.ParsePriority(seed.Priority),
			Status:      progress.StatusNotStarted,
			Tags:        tags,
			Subtopics:   subtopics,
		})
	}
	return topics
}
