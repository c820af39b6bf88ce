package server

import (
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/chatlife/chat"
	"github.com/pthm-cable/chatlife/config"
	"github.com/pthm-cable/chatlife/game"
)

type fakeSink struct {
	mu   sync.Mutex
	cmds []game.Command
}

func (s *fakeSink) Enqueue(_ string, cmd game.Command) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cmds = append(s.cmds, cmd)
	return true
}

func (s *fakeSink) commands() []game.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]game.Command(nil), s.cmds...)
}

func newTestHub(t *testing.T) (*Hub, *httptest.Server, *fakeSink, *chat.Manager) {
	t.Helper()
	cfg := config.Defaults()
	sink := &fakeSink{}
	votes := chat.NewVoteManager(cfg, sink, rand.New(rand.NewSource(1)))
	mgr := chat.NewManager(cfg, sink, votes, rand.New(rand.NewSource(2)))
	hub := NewHub(cfg.Server, config.NewStore(cfg), sink, mgr)

	srv := httptest.NewServer(hub.Handler())
	t.Cleanup(srv.Close)
	return hub, srv, sink, mgr
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	})
	return conn
}

// eventually polls cond until it holds or a second passes.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestGetConfigReturnsYAML(t *testing.T) {
	_, srv, _, _ := newTestHub(t)

	resp, err := http.Get(srv.URL + "/config")
	if err != nil {
		t.Fatalf("GET /config: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	got, err := config.Parse(body)
	if err != nil {
		t.Fatalf("response does not parse: %v", err)
	}
	if got.Voting.Interval != config.Defaults().Voting.Interval {
		t.Errorf("voting.interval = %v", got.Voting.Interval)
	}
}

func TestPutConfig(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		queued  int
		checkFn func(t *testing.T, cfg *config.Config)
	}{
		{
			name:   "valid overlay",
			body:   "energy:\n  population_cap_max: 40\n",
			status: http.StatusAccepted,
			queued: 1,
			checkFn: func(t *testing.T, cfg *config.Config) {
				if cfg.Energy.PopulationCapMax != 40 {
					t.Errorf("population_cap_max = %v, want 40", cfg.Energy.PopulationCapMax)
				}
			},
		},
		{name: "invalid value", body: "entity:\n  max_health: -5\n", status: http.StatusUnprocessableEntity},
		{name: "malformed yaml", body: "entity: [", status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, srv, sink, _ := newTestHub(t)

			req, _ := http.NewRequest(http.MethodPut, srv.URL+"/config", strings.NewReader(tt.body))
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("PUT /config: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}

			cmds := sink.commands()
			if len(cmds) != tt.queued {
				t.Fatalf("queued %d commands, want %d", len(cmds), tt.queued)
			}
			if tt.checkFn != nil {
				apply, ok := cmds[0].(game.ApplyConfig)
				if !ok {
					t.Fatalf("queued %T, want game.ApplyConfig", cmds[0])
				}
				tt.checkFn(t, apply.Config)
			}
		})
	}
}

func TestChatSourceFeedsManager(t *testing.T) {
	_, srv, sink, mgr := newTestHub(t)
	conn := dial(t, srv, "/chat")

	eventually(t, "chat connected", mgr.Connected)

	conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
	conn.WriteJSON(chatMessage{Type: "chat", User: "alice", Text: "hello"})

	eventually(t, "message handled", func() bool { return mgr.Messages() == 1 })
	if _, ok := sink.commands()[0].(game.ChatMessage); !ok {
		t.Errorf("queued %T, want game.ChatMessage", sink.commands()[0])
	}

	conn.Close()
	eventually(t, "chat disconnected", func() bool { return !mgr.Connected() })
}

func TestViewerReceivesPublishedFrames(t *testing.T) {
	hub, srv, _, _ := newTestHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	conn := dial(t, srv, "/ws")
	eventually(t, "viewer subscribed", func() bool { return hub.Viewers() == 1 })

	hub.Notify(game.Notification{Kind: game.NotifyVote, Title: "Vote now!"})
	hub.Publish(game.Snapshot{Tick: 7, Living: 3})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}

	var frame struct {
		Type     string `json:"type"`
		Snapshot struct {
			Tick   int `json:"tick"`
			Living int `json:"living"`
		} `json:"snapshot"`
		Vote          *chat.VoteState `json:"vote"`
		Notifications []struct {
			Kind  string `json:"kind"`
			Title string `json:"title"`
		} `json:"notifications"`
	}
	if err := json.Unmarshal(payload, &frame); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if frame.Type != "snapshot" || frame.Snapshot.Tick != 7 || frame.Snapshot.Living != 3 {
		t.Errorf("frame = %+v", frame)
	}
	if frame.Vote == nil {
		t.Error("frame has no vote state")
	}
	if len(frame.Notifications) != 1 || frame.Notifications[0].Kind != "vote" {
		t.Errorf("notifications = %+v", frame.Notifications)
	}
}

func TestPublishKeepsNotificationsOfReplacedFrames(t *testing.T) {
	hub := NewHub(config.Defaults().Server, config.NewStore(config.Defaults()), &fakeSink{}, nil)

	hub.Notify(game.Notification{Title: "first"})
	hub.Publish(game.Snapshot{Tick: 1})
	hub.Notify(game.Notification{Title: "second"})
	hub.Publish(game.Snapshot{Tick: 2})

	f := <-hub.frames
	if f.Snapshot.Tick != 2 {
		t.Errorf("tick = %d, want newest frame", f.Snapshot.Tick)
	}
	if len(f.Notifications) != 2 || f.Notifications[0].Title != "first" {
		t.Errorf("notifications = %+v, want both in order", f.Notifications)
	}
}

func TestPacer(t *testing.T) {
	tests := []struct {
		name  string
		hz    float64
		steps []float64
		want  int
	}{
		{name: "four hertz over two seconds", hz: 4, steps: repeat(0.125, 16), want: 8},
		{name: "zero fires every call", hz: 0, steps: repeat(0.5, 4), want: 4},
		{name: "long stall fires once", hz: 10, steps: []float64{5}, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPacer(tt.hz)
			got := 0
			for _, dt := range tt.steps {
				if p.Due(dt) {
					got++
				}
			}
			if got != tt.want {
				t.Errorf("fired %d times, want %d", got, tt.want)
			}
		})
	}
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
