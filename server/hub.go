// Package server streams simulation snapshots to browsers over websockets
// and accepts chat traffic and settings from the network.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/chatlife/chat"
	"github.com/pthm-cable/chatlife/config"
	"github.com/pthm-cable/chatlife/game"
)

// Frame is one outbound message to viewers.
type Frame struct {
	Type          string              `json:"type"`
	Snapshot      *game.Snapshot      `json:"snapshot,omitempty"`
	Vote          *chat.VoteState     `json:"vote,omitempty"`
	Chat          *ChatStatus         `json:"chat,omitempty"`
	Notifications []game.Notification `json:"notifications,omitempty"`
}

// ChatStatus summarizes chat ingest.
type ChatStatus struct {
	Connected bool `json:"connected"`
	Chatters  int  `json:"chatters"`
	Messages  int  `json:"messages"`
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *subscriber) write(data []byte, timeout time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timeout > 0 {
		s.conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub fans snapshots out to viewers and feeds chat sources into the chat
// manager. Publish is called from the simulation goroutine; everything else
// runs on connection goroutines.
type Hub struct {
	chat     *chat.Manager
	settings *config.Store
	sink     chat.Sink

	writeTimeout time.Duration
	upgrader     websocket.Upgrader

	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	latest      []byte
	sources     int
	notices     []game.Notification

	frames chan Frame
}

// NewHub creates a hub. settings supplies GET /config and validates PUT
// bodies; accepted configurations are queued on sink.
func NewHub(cfg config.ServerConfig, settings *config.Store, sink chat.Sink, mgr *chat.Manager) *Hub {
	return &Hub{
		chat:         mgr,
		settings:     settings,
		sink:         sink,
		writeTimeout: time.Duration(cfg.WriteTimeout * float64(time.Second)),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		subscribers: make(map[*subscriber]struct{}),
		frames:      make(chan Frame, 1),
	}
}

// Notify buffers a notification for the next published frame.
func (h *Hub) Notify(n game.Notification) {
	h.mu.Lock()
	h.notices = append(h.notices, n)
	h.mu.Unlock()
}

// Publish hands a snapshot to the broadcaster. A frame still waiting to be
// sent is replaced; viewers only need the newest state.
func (h *Hub) Publish(snap game.Snapshot) {
	f := Frame{Type: "snapshot", Snapshot: &snap}
	if h.chat != nil {
		st := ChatStatus{Connected: h.chat.Connected(), Chatters: h.chat.Distinct(), Messages: h.chat.Messages()}
		f.Chat = &st
		if v := h.chat.Votes(); v != nil {
			vs := v.State()
			f.Vote = &vs
		}
	}
	h.mu.Lock()
	f.Notifications = h.notices
	h.notices = nil
	h.mu.Unlock()

	for {
		select {
		case h.frames <- f:
			return
		default:
		}
		select {
		case stale := <-h.frames:
			// Keep notifications from the frame being dropped.
			f.Notifications = append(stale.Notifications, f.Notifications...)
		default:
		}
	}
}

// Run marshals and broadcasts published frames until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case f := <-h.frames:
			data, err := json.Marshal(f)
			if err != nil {
				slog.Error("snapshot_marshal_failed", "error", err)
				continue
			}
			h.broadcast(data)
		}
	}
}

func (h *Hub) broadcast(data []byte) {
	h.mu.Lock()
	h.latest = data
	subs := make([]*subscriber, 0, len(h.subscribers))
	for s := range h.subscribers {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		if err := s.write(data, h.writeTimeout); err != nil {
			slog.Warn("viewer_write_failed", "error", err)
			h.unsubscribe(s)
		}
	}
}

func (h *Hub) subscribe(conn *websocket.Conn) (*subscriber, []byte) {
	s := &subscriber{conn: conn}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[s] = struct{}{}
	return s, h.latest
}

func (h *Hub) unsubscribe(s *subscriber) {
	h.mu.Lock()
	_, ok := h.subscribers[s]
	delete(h.subscribers, s)
	h.mu.Unlock()
	if ok {
		s.conn.Close()
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	subs := h.subscribers
	h.subscribers = make(map[*subscriber]struct{})
	h.mu.Unlock()
	for s := range subs {
		s.mu.Lock()
		s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
		s.mu.Unlock()
		s.conn.Close()
	}
}

// Viewers returns the number of connected viewers.
func (h *Hub) Viewers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// addSource records a chat source connecting; the chat manager is marked
// connected while at least one source is attached.
func (h *Hub) addSource() {
	h.mu.Lock()
	h.sources++
	first := h.sources == 1
	h.mu.Unlock()
	if first && h.chat != nil {
		h.chat.SetConnected(true)
	}
}

func (h *Hub) removeSource() {
	h.mu.Lock()
	h.sources--
	last := h.sources == 0
	h.mu.Unlock()
	if last && h.chat != nil {
		h.chat.SetConnected(false)
	}
}
