package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/skillforge-backend/internal/platform/logger"
)

const (
	DefaultHeartbeat  = 15 * time.Second
	defaultBufferSize = 32
)

// SSEHub is the process-wide registry of open event streams, keyed by user.
type SSEHub struct {
	mu        sync.RWMutex
	logger    *logger.Logger
	clients   map[uuid.UUID]map[*SSEClient]bool
	heartbeat time.Duration
	buffer    int
}

func NewSSEHub(log *logger.Logger, heartbeat time.Duration) *SSEHub {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	return &SSEHub{
		logger:    log.With("component", "SSEHub"),
		clients:   make(map[uuid.UUID]map[*SSEClient]bool),
		heartbeat: heartbeat,
		buffer:    defaultBufferSize,
	}
}

// Subscribe registers a new connection for userID.
func (hub *SSEHub) Subscribe(userID uuid.UUID) *SSEClient {
	client := &SSEClient{
		ID:       uuid.New(),
		UserID:   userID,
		Outbound: make(chan SSEMessage, hub.buffer),
		done:     make(chan struct{}),
	}
	client.Logger = hub.logger.With("clientID", client.ID.String())

	hub.mu.Lock()
	set, ok := hub.clients[userID]
	if !ok {
		set = make(map[*SSEClient]bool)
		hub.clients[userID] = set
	}
	set[client] = true
	hub.mu.Unlock()

	hub.logger.Debug("SSE client subscribed", "clientID", client.ID.String(), "user_id", userID.String())
	return client
}

// Unsubscribe removes client and closes its outbound channel. Safe to call twice.
func (hub *SSEHub) Unsubscribe(client *SSEClient) {
	if client == nil {
		return
	}
	client.once.Do(func() {
		hub.mu.Lock()
		if set, ok := hub.clients[client.UserID]; ok {
			delete(set, client)
			if len(set) == 0 {
				delete(hub.clients, client.UserID)
			}
		}
		close(client.done)
		close(client.Outbound)
		hub.mu.Unlock()
		hub.logger.Debug("SSE client unsubscribed", "clientID", client.ID.String())
	})
}

// Broadcast delivers msg to every connection of msg.Channel. A full client
// buffer drops the message for that client only.
func (hub *SSEHub) Broadcast(msg SSEMessage) {
	userID, err := uuid.Parse(strings.TrimSpace(msg.Channel))
	if err != nil {
		return
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	for c := range hub.clients[userID] {
		select {
		case c.Outbound <- msg:
		default:
			hub.logger.Warn("Dropping SSE message; outbound buffer full", "clientID", c.ID.String(), "event", string(msg.Event))
		}
	}
}

// Publish sends a typed event to userID. No open connection means no-op.
func (hub *SSEHub) Publish(userID uuid.UUID, event SSEEvent, data any) {
	hub.Broadcast(NewUserMessage(userID, event, data))
}

func (hub *SSEHub) ConnectionCount(userID uuid.UUID) int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.clients[userID])
}

func (hub *SSEHub) TotalConnections() int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	n := 0
	for _, set := range hub.clients {
		n += len(set)
	}
	return n
}

// Close drops every connection; used at shutdown.
func (hub *SSEHub) Close() {
	hub.mu.RLock()
	var all []*SSEClient
	for _, set := range hub.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	hub.mu.RUnlock()
	for _, c := range all {
		hub.Unsubscribe(c)
	}
}

// ServeHTTP streams client's events until the request ends or the client is
// unsubscribed. The caller owns Unsubscribe.
func (hub *SSEHub) ServeHTTP(w http.ResponseWriter, r *http.Request, client *SSEClient) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}
	ctx := r.Context()

	if !hub.write(w, client, SSEEventConnected, map[string]string{"client_id": client.ID.String()}, time.Now().UTC()) {
		return
	}
	flusher.Flush()

	heartbeat := time.NewTicker(hub.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			client.Logger.Debug("SSE client context done", "err", ctx.Err())
			return
		case <-client.done:
			return
		case now := <-heartbeat.C:
			if !hub.write(w, client, SSEEventHeartbeat, nil, now.UTC()) {
				return
			}
			flusher.Flush()
		case msg, ok := <-client.Outbound:
			if !ok {
				return
			}
			if !hub.write(w, client, msg.Event, msg.Data, msg.Timestamp) {
				return
			}
			flusher.Flush()
		}
	}
}

// write reports false once the connection is unusable. Payloads that fail to
// encode are skipped.
func (hub *SSEHub) write(w http.ResponseWriter, client *SSEClient, event SSEEvent, data any, ts time.Time) bool {
	frame, err := EncodeFrame(event, data, ts)
	if err != nil {
		client.Logger.Warn("Failed to marshal SSE message", "error", err, "event", string(event))
		return true
	}
	_, err = w.Write(frame)
	return err == nil
}

// EncodeFrame renders "event: <type>\ndata: <json>\n\n".
func EncodeFrame(event SSEEvent, data any, ts time.Time) ([]byte, error) {
	raw, err := json.Marshal(wirePayload{Type: event, Data: data, Timestamp: ts})
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event, raw)), nil
}
