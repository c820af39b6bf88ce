package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/chatlife/config"
	"github.com/pthm-cable/chatlife/game"
)

const (
	settingsActor  = "settings"
	maxConfigBytes = 1 << 20
	maxChatBytes   = 4096
)

// chatMessage is an inbound message from a chat source.
type chatMessage struct {
	Type string `json:"type"`
	User string `json:"user"`
	Text string `json:"text"`
}

// Handler returns the HTTP routes:
//
//	GET /ws       viewer websocket, receives snapshot frames
//	GET /chat     chat source websocket, sends chatMessage JSON
//	GET /config   active configuration as YAML
//	PUT /config   YAML overlay, applied at the next tick
//	GET /health   liveness
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /ws", h.handleViewer)
	mux.HandleFunc("GET /chat", h.handleChat)
	mux.HandleFunc("GET /config", h.handleGetConfig)
	mux.HandleFunc("PUT /config", h.handlePutConfig)

	return mux
}

func (h *Hub) handleViewer(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("viewer_upgrade_failed", "error", err)
		return
	}
	sub, latest := h.subscribe(conn)
	slog.Info("viewer_connected", "remote", r.RemoteAddr)

	if latest != nil {
		if err := sub.write(latest, h.writeTimeout); err != nil {
			h.unsubscribe(sub)
			return
		}
	}

	// Viewers only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.unsubscribe(sub)
			slog.Info("viewer_disconnected", "remote", r.RemoteAddr)
			return
		}
	}
}

func (h *Hub) handleChat(w http.ResponseWriter, r *http.Request) {
	if h.chat == nil {
		http.Error(w, "chat disabled", http.StatusServiceUnavailable)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("chat_upgrade_failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxChatBytes)

	h.addSource()
	defer h.removeSource()
	slog.Info("chat_source_connected", "remote", r.RemoteAddr)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("chat_source_read_failed", "error", err)
			}
			slog.Info("chat_source_disconnected", "remote", r.RemoteAddr)
			return
		}

		var msg chatMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			slog.Warn("chat_message_malformed", "error", err)
			continue
		}
		switch msg.Type {
		case "chat":
			h.chat.HandleMessage(msg.User, msg.Text)
		default:
			slog.Warn("chat_message_unknown_type", "type", msg.Type)
		}
	}
}

func (h *Hub) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	data, err := h.settings.Current().Marshal()
	if err != nil {
		slog.Error("config_marshal_failed", "error", err)
		http.Error(w, "marshal failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(data)
}

// handlePutConfig validates the overlay against the active configuration
// and queues it. The simulation re-validates when the command runs.
func (h *Hub) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxConfigBytes))
	if err != nil {
		http.Error(w, "read failed", http.StatusBadRequest)
		return
	}
	next, err := h.settings.Current().Overlay(body)
	if err != nil {
		status := http.StatusBadRequest
		var ce *config.ConfigurationError
		if errors.As(err, &ce) {
			status = http.StatusUnprocessableEntity
		}
		slog.Warn("config_put_rejected", "error", err)
		http.Error(w, err.Error(), status)
		return
	}
	if !h.sink.Enqueue(settingsActor, game.ApplyConfig{Config: next}) {
		http.Error(w, "too many pending updates", http.StatusTooManyRequests)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
