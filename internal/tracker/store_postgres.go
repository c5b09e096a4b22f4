package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/p-n-ai/pai-progress/internal/progress"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed store. The schema must already
// be applied (see database.Migrate).
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

const topicColumns = `id::text, name, description, category, priority, status, progress, tags, subtopics, resources, created_at, updated_at`

func (s *PostgresStore) ListTopics(ctx context.Context, userID string, filter TopicFilter) ([]Topic, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var where strings.Builder
	args := []any{userID}
	where.WriteString(`user_id = $1`)
	if filter.Category != "" {
		args = append(args, string(filter.Category))
		fmt.Fprintf(&where, ` AND category = $%d`, len(args))
	}
	if filter.Status != nil {
		args = append(args, filter.Status.String())
		fmt.Fprintf(&where, ` AND status = $%d`, len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		n := len(args)
		fmt.Fprintf(&where,
			` AND (name ILIKE $%[1]d OR description ILIKE $%[1]d OR EXISTS (SELECT 1 FROM unnest(tags) tag WHERE tag ILIKE $%[1]d))`, n)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+topicColumns+` FROM topics WHERE `+where.String()+` ORDER BY created_at DESC, id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query topics: %w", err)
	}
	defer rows.Close()

	out := []Topic{}
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, err
		}
		t.UserID = userID
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate topics: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) GetTopic(ctx context.Context, userID, id string) (*Topic, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("topic %s: %w", id, ErrNotFound)
	}

	t, err := scanTopic(s.pool.QueryRow(ctx,
		`SELECT `+topicColumns+` FROM topics WHERE id = $1::uuid AND user_id = $2`,
		id, userID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("topic %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	t.UserID = userID
	return t, nil
}

func (s *PostgresStore) CreateTopics(ctx context.Context, userID string, topics []Topic) ([]Topic, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	out := make([]Topic, 0, len(topics))
	for _, t := range topics {
		subtopics, resources, err := marshalTopicJSON(t)
		if err != nil {
			return nil, err
		}
		t.ID = uuid.NewString()
		t.UserID = userID
		err = tx.QueryRow(ctx,
			`INSERT INTO topics (id, user_id, name, description, category, priority, status, progress, tags, subtopics, resources)
			 VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb, $11::jsonb)
			 RETURNING created_at, updated_at`,
			t.ID, userID, t.Name, t.Description, string(t.Category), string(t.Priority),
			t.Status.String(), t.Progress, t.Tags, subtopics, resources,
		).Scan(&t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert topic: %w", err)
		}
		out = append(out, t)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit topics: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateTopic(ctx context.Context, userID string, t Topic) (*Topic, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := uuid.Parse(t.ID); err != nil {
		return nil, fmt.Errorf("topic %s: %w", t.ID, ErrNotFound)
	}
	subtopics, resources, err := marshalTopicJSON(t)
	if err != nil {
		return nil, err
	}

	err = s.pool.QueryRow(ctx,
		`UPDATE topics
		 SET name = $3, description = $4, category = $5, priority = $6, status = $7,
		     progress = $8, tags = $9, subtopics = $10::jsonb, resources = $11::jsonb, updated_at = NOW()
		 WHERE id = $1::uuid AND user_id = $2
		 RETURNING created_at, updated_at`,
		t.ID, userID, t.Name, t.Description, string(t.Category), string(t.Priority),
		t.Status.String(), t.Progress, t.Tags, subtopics, resources,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("topic %s: %w", t.ID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update topic: %w", err)
	}
	t.UserID = userID
	return &t, nil
}

func (s *PostgresStore) DeleteTopic(ctx context.Context, userID, id string) error {
	return s.deleteByID(ctx, "topics", "topic", userID, id)
}

const logColumns = `id::text, log_date, questions_solved, time_studied, notes, mood, linked_topics, created_at, updated_at`

func (s *PostgresStore) UpsertLog(ctx context.Context, userID string, l DailyLog) (*DailyLog, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	linked, err := json.Marshal(l.LinkedTopics)
	if err != nil {
		return nil, fmt.Errorf("marshal linked topics: %w", err)
	}

	out, err := scanLog(s.pool.QueryRow(ctx,
		`INSERT INTO daily_logs (id, user_id, log_date, questions_solved, time_studied, notes, mood, linked_topics)
		 VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8::jsonb)
		 ON CONFLICT (user_id, log_date) DO UPDATE
		 SET questions_solved = EXCLUDED.questions_solved,
		     time_studied     = EXCLUDED.time_studied,
		     notes            = EXCLUDED.notes,
		     mood             = EXCLUDED.mood,
		     linked_topics    = EXCLUDED.linked_topics,
		     updated_at       = NOW()
		 RETURNING `+logColumns,
		uuid.NewString(), userID, l.Date, l.QuestionsSolved, l.TimeStudied, l.Notes, string(l.Mood), string(linked),
	))
	if err != nil {
		return nil, fmt.Errorf("upsert log: %w", err)
	}
	out.UserID = userID
	return out, nil
}

func (s *PostgresStore) ListLogs(ctx context.Context, userID string, limit int) ([]DailyLog, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	query := `SELECT ` + logColumns + ` FROM daily_logs WHERE user_id = $1 ORDER BY log_date DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	return s.queryLogs(ctx, userID, query, args...)
}

func (s *PostgresStore) LogsSince(ctx context.Context, userID string, since time.Time) ([]DailyLog, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return s.queryLogs(ctx, userID,
		`SELECT `+logColumns+` FROM daily_logs WHERE user_id = $1 AND log_date >= $2 ORDER BY log_date ASC`,
		userID, progress.Day(since),
	)
}

func (s *PostgresStore) queryLogs(ctx context.Context, userID, query string, args ...any) ([]DailyLog, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	defer rows.Close()

	out := []DailyLog{}
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		l.UserID = userID
		out = append(out, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate logs: %w", err)
	}
	return out, nil
}

const goalColumns = `id::text, title, description, category, target_date, status, progress, milestones, created_at, updated_at`

func (s *PostgresStore) ListGoals(ctx context.Context, userID string) ([]Goal, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE user_id = $1 ORDER BY target_date ASC, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	out := []Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		g.UserID = userID
		out = append(out, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) GetGoal(ctx context.Context, userID, id string) (*Goal, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("goal %s: %w", id, ErrNotFound)
	}
	g, err := scanGoal(s.pool.QueryRow(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE id = $1::uuid AND user_id = $2`,
		id, userID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("goal %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	g.UserID = userID
	return g, nil
}

func (s *PostgresStore) CreateGoal(ctx context.Context, userID string, g Goal) (*Goal, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	milestones, err := json.Marshal(g.Milestones)
	if err != nil {
		return nil, fmt.Errorf("marshal milestones: %w", err)
	}
	g.ID = uuid.NewString()
	g.UserID = userID
	err = s.pool.QueryRow(ctx,
		`INSERT INTO goals (id, user_id, title, description, category, target_date, status, progress, milestones)
		 VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9::jsonb)
		 RETURNING created_at, updated_at`,
		g.ID, userID, g.Title, g.Description, string(g.Category), g.TargetDate,
		string(g.Status), g.Progress, string(milestones),
	).Scan(&g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert goal: %w", err)
	}
	return &g, nil
}

func (s *PostgresStore) UpdateGoal(ctx context.Context, userID string, g Goal) (*Goal, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := uuid.Parse(g.ID); err != nil {
		return nil, fmt.Errorf("goal %s: %w", g.ID, ErrNotFound)
	}
	milestones, err := json.Marshal(g.Milestones)
	if err != nil {
		return nil, fmt.Errorf("marshal milestones: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		`UPDATE goals
		 SET title = $3, description = $4, category = $5, target_date = $6, status = $7,
		     progress = $8, milestones = $9::jsonb, updated_at = NOW()
		 WHERE id = $1::uuid AND user_id = $2
		 RETURNING created_at, updated_at`,
		g.ID, userID, g.Title, g.Description, string(g.Category), g.TargetDate,
		string(g.Status), g.Progress, string(milestones),
	).Scan(&g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("goal %s: %w", g.ID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update goal: %w", err)
	}
	g.UserID = userID
	return &g, nil
}

func (s *PostgresStore) DeleteGoal(ctx context.Context, userID, id string) error {
	return s.deleteByID(ctx, "goals", "goal", userID, id)
}

func (s *PostgresStore) GetSettings(ctx context.Context, userID string) (Settings, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var st Settings
	err := s.pool.QueryRow(ctx,
		`SELECT daily_goal, notifications, dark_mode, start_date FROM user_settings WHERE user_id = $1`,
		userID,
	).Scan(&st.DailyGoal, &st.Notifications, &st.DarkMode, &st.StartDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return Settings{}, false, nil
	}
	if err != nil {
		return Settings{}, false, fmt.Errorf("get settings: %w", err)
	}
	st.StartDate = progress.Day(st.StartDate)
	return st, true, nil
}

func (s *PostgresStore) PutSettings(ctx context.Context, userID string, st Settings) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_settings (user_id, daily_goal, notifications, dark_mode, start_date)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO UPDATE
		 SET daily_goal = EXCLUDED.daily_goal,
		     notifications = EXCLUDED.notifications,
		     dark_mode = EXCLUDED.dark_mode,
		     start_date = EXCLUDED.start_date,
		     updated_at = NOW()`,
		userID, st.DailyGoal, st.Notifications, st.DarkMode, progress.Day(st.StartDate),
	)
	if err != nil {
		return fmt.Errorf("put settings: %w", err)
	}
	return nil
}

// deleteByID removes one row of table owned by userID. table is always a
// constant from this file.
func (s *PostgresStore) deleteByID(ctx context.Context, table, kind, userID, id string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	cmd, err := s.pool.Exec(ctx,
		`DELETE FROM `+table+` WHERE id = $1::uuid AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

func scanTopic(row pgx.Row) (*Topic, error) {
	var t Topic
	var category, priority, status string
	var subtopics, resources []byte
	err := row.Scan(
		&t.ID, &t.Name, &t.Description, &category, &priority, &status, &t.Progress,
		&t.Tags, &subtopics, &resources, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("scan topic: %w", err)
	}
	t.Category = progress.Category(category)
	t.Priority = ParsePriority(priority)
	t.Status = progress.ParseStatus(status)
	if t.Tags == nil {
		t.Tags = []string{}
	}
	t.Subtopics = []Subtopic{}
	t.Resources = []Resource{}
	if err := unmarshalIfPresent(subtopics, &t.Subtopics); err != nil {
		return nil, fmt.Errorf("decode subtopics: %w", err)
	}
	if err := unmarshalIfPresent(resources, &t.Resources); err != nil {
		return nil, fmt.Errorf("decode resources: %w", err)
	}
	return &t, nil
}

func scanLog(row pgx.Row) (*DailyLog, error) {
	var l DailyLog
	var mood string
	var linked []byte
	err := row.Scan(
		&l.ID, &l.Date, &l.QuestionsSolved, &l.TimeStudied, &l.Notes, &mood, &linked,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan log: %w", err)
	}
	l.Date = progress.Day(l.Date)
	l.Mood = Mood(mood)
	l.LinkedTopics = []LinkedTopic{}
	if err := unmarshalIfPresent(linked, &l.LinkedTopics); err != nil {
		return nil, fmt.Errorf("decode linked topics: %w", err)
	}
	return &l, nil
}

func scanGoal(row pgx.Row) (*Goal, error) {
	var g Goal
	var category, status string
	var milestones []byte
	err := row.Scan(
		&g.ID, &g.Title, &g.Description, &category, &g.TargetDate, &status, &g.Progress,
		&milestones, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("scan goal: %w", err)
	}
	g.Category = progress.Category(category)
	g.Status = GoalStatus(status)
	g.TargetDate = progress.Day(g.TargetDate)
	g.Milestones = []progress.Milestone{}
	if err := unmarshalIfPresent(milestones, &g.Milestones); err != nil {
		return nil, fmt.Errorf("decode milestones: %w", err)
	}
	return &g, nil
}

func marshalTopicJSON(t Topic) (string, string, error) {
	subtopics, err := json.Marshal(t.Subtopics)
	if err != nil {
		return "", "", fmt.Errorf("marshal subtopics: %w", err)
	}
	resources, err := json.Marshal(t.Resources)
	if err != nil {
		return "", "", fmt.Errorf("marshal resources: %w", err)
	}
	return string(subtopics), string(resources), nil
}

func unmarshalIfPresent(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
