// Package live fans out per-user progress updates to connected WebSocket clients.
package live

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const (
	subscriberBuffer = 8
	writeTimeout     = 5 * time.Second
)

// Message is one update pushed to a user's subscribers.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub tracks subscribers per user.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan Message]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan Message]struct{})}
}

// Subscribe registers a buffered channel for userID. The returned func
// unregisters it and closes the channel.
func (h *Hub) Subscribe(userID string) (<-chan Message, func()) {
	ch := make(chan Message, subscriberBuffer)

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan Message]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[userID], ch)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers msg to every subscriber of userID without blocking. A
// subscriber whose buffer is full misses the message.
func (h *Hub) Publish(userID string, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[userID] {
		select {
		case ch <- msg:
		default:
			slog.Warn("dropping live update for slow subscriber", "user_id", userID, "type", msg.Type)
		}
	}
}

// Subscribers returns how many subscribers userID has.
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

// Serve upgrades the request to a WebSocket and streams userID's updates until
// the client disconnects or ctx ends.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	updates, unsubscribe := h.Subscribe(userID)
	defer unsubscribe()

	// Clients only listen; CloseRead handles control frames and cancels ctx on close.
	ctx := conn.CloseRead(r.Context())

	slog.Info("live subscriber connected", "user_id", userID)
	for {
		select {
		case <-ctx.Done():
			slog.Info("live subscriber disconnected", "user_id", userID)
			return
		case msg := <-updates:
			if err := write(ctx, conn, msg); err != nil {
				slog.Warn("live write failed", "user_id", userID, "error", err)
				return
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}
