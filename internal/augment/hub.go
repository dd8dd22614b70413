package augment

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// Hub tracks the websocket connection subscribed to each task. At most
// one connection per task, matching the push contract: open on task
// creation, replaced on reconnect, closed on teardown.
type Hub struct {
	mu    sync.Mutex
	conns map[string]*websocket.Conn
}

// NewHub creates an empty connection hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[string]*websocket.Conn)}
}

// Register attaches a connection to a task, closing any previous one.
func (h *Hub) Register(taskID string, conn *websocket.Conn) {
	h.mu.Lock()
	prev := h.conns[taskID]
	h.conns[taskID] = conn
	h.mu.Unlock()

	if prev != nil {
		_ = prev.Close(websocket.StatusPolicyViolation, "replaced by newer connection")
	}
}

// Unregister detaches a connection if it is still the one registered.
func (h *Hub) Unregister(taskID string, conn *websocket.Conn) {
	h.mu.Lock()
	if h.conns[taskID] == conn {
		delete(h.conns, taskID)
	}
	h.mu.Unlock()
}

// Send pushes one JSON frame to the task's subscriber, if any. Delivery
// is best effort: a broken connection is dropped silently.
func (h *Hub) Send(taskID string, frame any) {
	if h == nil {
		return
	}

	h.mu.Lock()
	conn := h.conns[taskID]
	h.mu.Unlock()
	if conn == nil {
		return
	}

	data, err := json.Marshal(frame)
	if err != nil {
		slog.Warn("failed to encode websocket frame", "task_id", taskID, "error", err)
		return
	}
	if err := conn.Write(context.Background(), websocket.MessageText, data); err != nil {
		slog.Debug("websocket push failed, dropping connection", "task_id", taskID, "error", err)
		h.mu.Lock()
		if h.conns[taskID] == conn {
			delete(h.conns, taskID)
		}
		h.mu.Unlock()
	}
}

// Close closes and removes the task's connection, if any.
func (h *Hub) Close(taskID string) {
	if h == nil {
		return
	}

	h.mu.Lock()
	conn := h.conns[taskID]
	delete(h.conns, taskID)
	h.mu.Unlock()

	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "task removed")
	}
}

// Len returns the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}
