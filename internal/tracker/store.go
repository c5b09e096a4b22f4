package tracker

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists one user's topics, logs, goals and settings. Every method is
// scoped by userID; records of other users are never visible.
type Store interface {
	ListTopics(ctx context.Context, userID string, filter TopicFilter) ([]Topic, error)
	GetTopic(ctx context.Context, userID, id string) (*Topic, error)
	CreateTopics(ctx context.Context, userID string, topics []Topic) ([]Topic, error)
	UpdateTopic(ctx context.Context, userID string, topic Topic) (*Topic, error)
	DeleteTopic(ctx context.Context, userID, id string) error

	// UpsertLog inserts or replaces the log for log.Date.
	UpsertLog(ctx context.Context, userID string, log DailyLog) (*DailyLog, error)
	// ListLogs returns up to limit logs, newest first.
	ListLogs(ctx context.Context, userID string, limit int) ([]DailyLog, error)
	// LogsSince returns every log dated on or after since, oldest first.
	LogsSince(ctx context.Context, userID string, since time.Time) ([]DailyLog, error)

	ListGoals(ctx context.Context, userID string) ([]Goal, error)
	GetGoal(ctx context.Context, userID, id string) (*Goal, error)
	CreateGoal(ctx context.Context, userID string, goal Goal) (*Goal, error)
	UpdateGoal(ctx context.Context, userID string, goal Goal) (*Goal, error)
	DeleteGoal(ctx context.Context, userID, id string) error

	// GetSettings returns the saved settings and whether any were saved.
	GetSettings(ctx context.Context, userID string) (Settings, bool, error)
	PutSettings(ctx context.Context, userID string, s Settings) error
}

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	mu       sync.RWMutex
	topics   map[string]map[string]*Topic
	logs     map[string]map[time.Time]*DailyLog
	goals    map[string]map[string]*Goal
	settings map[string]Settings
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		topics:   make(map[string]map[string]*Topic),
		logs:     make(map[string]map[time.Time]*DailyLog),
		goals:    make(map[string]map[string]*Goal),
		settings: make(map[string]Settings),
	}
}

func (s *MemoryStore) ListTopics(_ context.Context, userID string, filter TopicFilter) ([]Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Topic{}
	for _, t := range s.topics[userID] {
		if filter.Match(*t) {
			out = append(out, t.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) GetTopic(_ context.Context, userID, id string) (*Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.topics[userID][id]
	if !ok {
		return nil, fmt.Errorf("topic %s: %w", id, ErrNotFound)
	}
	cp := t.clone()
	return &cp, nil
}

func (s *MemoryStore) CreateTopics(_ context.Context, userID string, topics []Topic) ([]Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.topics[userID] == nil {
		s.topics[userID] = make(map[string]*Topic)
	}
	now := time.Now()
	out := make([]Topic, 0, len(topics))
	for _, t := range topics {
		t.ID = uuid.NewString()
		t.UserID = userID
		t.CreatedAt = now
		t.UpdatedAt = now
		stored := t.clone()
		s.topics[userID][t.ID] = &stored
		out = append(out, t.clone())
	}
	return out, nil
}

func (s *MemoryStore) UpdateTopic(_ context.Context, userID string, topic Topic) (*Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.topics[userID][topic.ID]
	if !ok {
		return nil, fmt.Errorf("topic %s: %w", topic.ID, ErrNotFound)
	}
	topic.UserID = userID
	topic.CreatedAt = existing.CreatedAt
	topic.UpdatedAt = time.Now()
	*existing = topic.clone()
	return &topic, nil
}

func (s *MemoryStore) DeleteTopic(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.topics[userID][id]; !ok {
		return fmt.Errorf("topic %s: %w", id, ErrNotFound)
	}
	delete(s.topics[userID], id)
	return nil
}

func (s *MemoryStore) UpsertLog(_ context.Context, userID string, log DailyLog) (*DailyLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.logs[userID] == nil {
		s.logs[userID] = make(map[time.Time]*DailyLog)
	}
	now := time.Now()
	log.UserID = userID
	log.UpdatedAt = now
	if existing, ok := s.logs[userID][log.Date]; ok {
		log.ID = existing.ID
		log.CreatedAt = existing.CreatedAt
	} else {
		log.ID = uuid.NewString()
		log.CreatedAt = now
	}
	stored := log.clone()
	s.logs[userID][log.Date] = &stored
	return &log, nil
}

func (s *MemoryStore) ListLogs(_ context.Context, userID string, limit int) ([]DailyLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]DailyLog, 0, len(s.logs[userID]))
	for _, l := range s.logs[userID] {
		out = append(out, l.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) LogsSince(_ context.Context, userID string, since time.Time) ([]DailyLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []DailyLog{}
	for d, l := range s.logs[userID] {
		if !d.Before(since) {
			out = append(out, l.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *MemoryStore) ListGoals(_ context.Context, userID string) ([]Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Goal{}
	for _, g := range s.goals[userID] {
		out = append(out, g.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].TargetDate.Equal(out[j].TargetDate) {
			return out[i].TargetDate.Before(out[j].TargetDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) GetGoal(_ context.Context, userID, id string) (*Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.goals[userID][id]
	if !ok {
		return nil, fmt.Errorf("goal %s: %w", id, ErrNotFound)
	}
	cp := g.clone()
	return &cp, nil
}

func (s *MemoryStore) CreateGoal(_ context.Context, userID string, goal Goal) (*Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.goals[userID] == nil {
		s.goals[userID] = make(map[string]*Goal)
	}
	now := time.Now()
	goal.ID = uuid.NewString()
	goal.UserID = userID
	goal.CreatedAt = now
	goal.UpdatedAt = now
	stored := goal.clone()
	s.goals[userID][goal.ID] = &stored
	return &goal, nil
}

func (s *MemoryStore) UpdateGoal(_ context.Context, userID string, goal Goal) (*Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.goals[userID][goal.ID]
	if !ok {
		return nil, fmt.Errorf("goal %s: %w", goal.ID, ErrNotFound)
	}
	goal.UserID = userID
	goal.CreatedAt = existing.CreatedAt
	goal.UpdatedAt = time.Now()
	*existing = goal.clone()
	return &goal, nil
}

func (s *MemoryStore) DeleteGoal(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.goals[userID][id]; !ok {
		return fmt.Errorf("goal %s: %w", id, ErrNotFound)
	}
	delete(s.goals[userID], id)
	return nil
}

func (s *MemoryStore) GetSettings(_ context.Context, userID string) (Settings, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.settings[userID]
	return st, ok, nil
}

func (s *MemoryStore) PutSettings(_ context.Context, userID string, st Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings[userID] = st
	return nil
}

// Records held by MemoryStore never share backing arrays with callers.

func (t Topic) clone() Topic {
	t.Tags = slices.Clone(t.Tags)
	t.Subtopics = slices.Clone(t.Subtopics)
	t.Resources = slices.Clone(t.Resources)
	return t
}

func (l DailyLog) clone() DailyLog {
	l.LinkedTopics = slices.Clone(l.LinkedTopics)
	return l
}

func (g Goal) clone() Goal {
	g.Milestones = slices.Clone(g.Milestones)
	return g
}
