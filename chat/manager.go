// Package chat turns chat traffic into simulation commands: energy per
// message, organisms for first-time chatters and community votes.
package chat

import (
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pthm-cable/chatlife/config"
	"github.com/pthm-cable/chatlife/game"
)

// Sink accepts commands for the simulation. *game.Population implements it.
type Sink interface {
	Enqueue(actor string, cmd game.Command) bool
}

// Manager tracks distinct chatters and forwards messages as commands.
// It is safe for concurrent use.
type Manager struct {
	mu        sync.Mutex
	cfg       config.ChattersConfig
	perMsg    float64
	rng       *rand.Rand
	sink      Sink
	votes     *VoteManager
	chatters  map[string]struct{}
	messages  int
	connected bool
}

// NewManager creates a manager that sends commands to sink. votes may be nil.
func NewManager(cfg *config.Config, sink Sink, votes *VoteManager, rng *rand.Rand) *Manager {
	return &Manager{
		cfg:      cfg.Chatters,
		perMsg:   cfg.Energy.PerMessage,
		rng:      rng,
		sink:     sink,
		votes:    votes,
		chatters: make(map[string]struct{}),
	}
}

// Configure applies new chat settings. Known chatters are kept.
func (m *Manager) Configure(cfg *config.Config) {
	m.mu.Lock()
	m.cfg = cfg.Chatters
	m.perMsg = cfg.Energy.PerMessage
	m.mu.Unlock()
	if m.votes != nil {
		m.votes.Configure(cfg)
	}
}

// SpawnChance returns the probability that a newly seen chatter spawns an
// organism, given the number of distinct chatters seen so far. Tiers are
// checked in order; the first tier whose ceiling exceeds distinct wins.
func SpawnChance(cfg config.ChattersConfig, distinct int) float64 {
	for _, tier := range cfg.Tiers {
		if distinct < tier.Below {
			return tier.Chance
		}
	}
	return cfg.DefaultChance
}

// NormalizeName trims a chat user name and truncates it to maxLen runes.
func NormalizeName(user string, maxLen int) string {
	user = strings.TrimSpace(user)
	if maxLen > 0 && utf8.RuneCountInString(user) > maxLen {
		runes := []rune(user)
		user = string(runes[:maxLen])
	}
	return user
}

// HandleMessage processes one chat message from user.
func (m *Manager) HandleMessage(user, text string) {
	m.mu.Lock()
	name := NormalizeName(user, m.cfg.MaxNameLength)
	if name == "" {
		m.mu.Unlock()
		return
	}
	m.messages++

	key := strings.ToLower(name)
	spawn := false
	if _, seen := m.chatters[key]; !seen {
		m.chatters[key] = struct{}{}
		chance := SpawnChance(m.cfg, len(m.chatters))
		spawn = m.rng.Float64() < chance
	}
	perMsg := m.perMsg
	m.mu.Unlock()

	if m.votes != nil {
		if cmd := strings.TrimSpace(text); strings.HasPrefix(cmd, "!") {
			m.votes.Cast(key, cmd)
		}
	}

	if !m.sink.Enqueue(key, game.ChatMessage{Name: name, Energy: perMsg, Spawn: spawn}) {
		slog.Debug("chat_message_dropped", "user", key)
	}
}

// SetConnected records whether a chat source is attached. Disconnecting
// forgets every chatter.
func (m *Manager) SetConnected(connected bool) {
	m.mu.Lock()
	m.connected = connected
	if !connected {
		clear(m.chatters)
	}
	m.mu.Unlock()
	if m.votes != nil {
		m.votes.SetConnected(connected)
	}
	slog.Info("chat_connection", "connected", connected)
}

// Connected reports whether a chat source is attached.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Distinct returns the number of distinct chatters seen.
func (m *Manager) Distinct() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chatters)
}

// Messages returns the number of messages handled.
func (m *Manager) Messages() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.messages
}

// Votes returns the vote manager, or nil.
func (m *Manager) Votes() *VoteManager {
	return m.votes
}
