package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Event types recorded by the service.
const (
	EventLogUpserted    = "log_upserted"
	EventTopicCreated   = "topic_created"
	EventTopicsImported = "topics_imported"
	EventGoalCompleted  = "goal_completed"
)

// Event is one entry of a user's activity trail. ID is assigned on insert by
// loggers that persist events.
type Event struct {
	ID        int64          `json:"id,omitempty"`
	UserID    string         `json:"userId"`
	EventType string         `json:"type"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"createdAt"`
}

var (
	errEventType = errors.New("event type is required")
	errEventUser = errors.New("event user is required")
)

// complete validates e and fills the timestamp and payload defaults.
func (e Event) complete() (Event, error) {
	switch {
	case e.EventType == "":
		return e, errEventType
	case e.UserID == "":
		return e, errEventUser
	}
	if e.Data == nil {
		e.Data = map[string]any{}
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	return e, nil
}

// EventLogger records activity events. Failures never fail the write that
// produced the event; the service only logs them.
type EventLogger interface {
	LogEvent(ctx context.Context, e Event) error
}

// NopEventLogger discards events.
type NopEventLogger struct{}

func (NopEventLogger) LogEvent(context.Context, Event) error { return nil }

// MemoryEventLogger keeps events in process, in arrival order.
type MemoryEventLogger struct {
	mu  sync.Mutex
	log []Event
}

func NewMemoryEventLogger() *MemoryEventLogger {
	return &MemoryEventLogger{}
}

func (l *MemoryEventLogger) LogEvent(_ context.Context, e Event) error {
	e, err := e.complete()
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	e.ID = int64(len(l.log) + 1)
	l.log = append(l.log, e)
	return nil
}

// Events returns a copy of everything recorded so far.
func (l *MemoryEventLogger) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.log))
	copy(out, l.log)
	return out
}

// Count returns how many events of eventType were recorded.
func (l *MemoryEventLogger) Count(eventType string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.log {
		if e.EventType == eventType {
			n++
		}
	}
	return n
}

// PostgresEventLogger appends events to the events table.
type PostgresEventLogger struct {
	pool *pgxpool.Pool
}

func NewPostgresEventLogger(pool *pgxpool.Pool) *PostgresEventLogger {
	return &PostgresEventLogger{pool: pool}
}

func (l *PostgresEventLogger) LogEvent(ctx context.Context, e Event) error {
	if l.pool == nil {
		return errors.New("event logger has no pool")
	}
	e, err := e.complete()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dbTimeout)
	defer cancel()

	// pgx encodes the map as jsonb.
	err = l.pool.QueryRow(ctx,
		`INSERT INTO events (user_id, event_type, data, created_at)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		e.UserID, e.EventType, e.Data, e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert %s event: %w", e.EventType, err)
	}
	slog.Debug("event recorded", "id", e.ID, "type", e.EventType, "user_id", e.UserID)
	return nil
}

// Recent returns up to limit of the user's events, newest first.
func (l *PostgresEventLogger) Recent(ctx context.Context, userID string, limit int) ([]Event, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := l.pool.Query(ctx,
		`SELECT id, user_id, event_type, data, created_at FROM events
		 WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Event, error) {
		var e Event
		err := row.Scan(&e.ID, &e.UserID, &e.EventType, &e.Data, &e.CreatedAt)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan events: %w", err)
	}
	return events, nil
}
