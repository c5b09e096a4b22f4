// Package session issues and resolves bearer-token sessions. Credential
// verification happens upstream; a session only binds a token to a user ID.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned for unknown, ended or expired tokens.
var ErrNotFound = errors.New("session not found")

const tokenBytes = 32

// Session binds a bearer token to a user for a limited time.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	StartedAt time.Time `json:"startedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store persists sessions by token.
type Store interface {
	Save(ctx context.Context, s Session) error
	// Get returns ErrNotFound when the token is unknown.
	Get(ctx context.Context, token string) (Session, error)
	Delete(ctx context.Context, token string) error
}

// Manager starts, resolves and ends sessions.
type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewManager creates a manager issuing sessions valid for ttl.
func NewManager(store Store, ttl time.Duration) *Manager {
	return &Manager{store: store, ttl: ttl, now: time.Now}
}

// WithClock replaces the manager's time source.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Start issues a new session for userID.
func (m *Manager) Start(ctx context.Context, userID string) (Session, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Session{}, fmt.Errorf("user id is required")
	}
	token, err := newToken()
	if err != nil {
		return Session{}, err
	}
	now := m.now()
	s := Session{
		Token:     token,
		UserID:    userID,
		StartedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Save(ctx, s); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}
	return s, nil
}

// Lookup resolves a token to its live session.
func (m *Manager) Lookup(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrNotFound
	}
	s, err := m.store.Get(ctx, token)
	if err != nil {
		return Session{}, err
	}
	if s.Expired(m.now()) {
		_ = m.store.Delete(ctx, token)
		return Session{}, ErrNotFound
	}
	return s, nil
}

// End invalidates a token. Ending an unknown token is not an error.
func (m *Manager) End(ctx context.Context, token string) error {
	return m.store.Delete(ctx, token)
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
