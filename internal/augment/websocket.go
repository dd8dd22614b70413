package augment

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
)

// WSHandler upgrades /ws/{task_id} requests and streams task progress
// frames to the client.
type WSHandler struct {
	hub   *Hub
	isDev bool
}

// NewWSHandler creates the progress websocket handler.
func NewWSHandler(hub *Hub, isDev bool) *WSHandler {
	return &WSHandler{hub: hub, isDev: isDev}
}

// ServeHTTP implements http.Handler for the websocket upgrade.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")
	if taskID == "" {
		http.Error(w, "task_id required", http.StatusBadRequest)
		return
	}

	opts := &websocket.AcceptOptions{}
	if h.isDev {
		opts.OriginPatterns = []string{"*"}
	}

	ws, err := websocket.Accept(w, r, opts)
	if err != nil {
		slog.Error("failed to accept websocket", "error", err, "task_id", taskID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "connection ended"); closeErr != nil {
			slog.Debug("failed to close websocket", "error", closeErr, "task_id", taskID)
		}
	}()

	h.hub.Register(taskID, ws)
	defer h.hub.Unregister(taskID, ws)

	slog.Info("progress websocket connected", "task_id", taskID, "ip", r.RemoteAddr)

	connected, _ := json.Marshal(map[string]any{
		"type":    "connected",
		"task_id": taskID,
		"message": "WebSocket 연결이 설정되었습니다",
	})
	if err := ws.Write(r.Context(), websocket.MessageText, connected); err != nil {
		slog.Debug("failed to send connected frame", "error", err, "task_id", taskID)
		return
	}

	// Keep the connection alive, answering client pings. Progress frames
	// are pushed by the hub from the pipeline goroutine.
	for {
		_, message, err := ws.Read(r.Context())
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("websocket closed by client", "task_id", taskID)
			} else {
				slog.Debug("websocket read error", "error", err, "task_id", taskID)
			}
			return
		}

		if string(message) == "ping" {
			pong, _ := json.Marshal(map[string]string{"type": "pong"})
			if err := ws.Write(r.Context(), websocket.MessageText, pong); err != nil {
				slog.Debug("failed to send pong", "error", err, "task_id", taskID)
				return
			}
		}
	}
}
