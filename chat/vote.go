package chat

import (
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"

	"github.com/pthm-cable/chatlife/config"
	"github.com/pthm-cable/chatlife/game"
)

// voteActor is the queue actor for vote outcomes.
const voteActor = "vote"

// Vote option commands with a built-in effect.
const (
	OptionFood  = "!food"
	OptionBomb  = "!bomb"
	OptionHeal  = "!heal"
	OptionSpawn = "!spawn"
)

var optionTitles = map[string]string{
	OptionFood:  "Food Rain",
	OptionBomb:  "Bomb",
	OptionHeal:  "Mass Heal",
	OptionSpawn: "Summon",
}

var optionDescriptions = map[string]string{
	OptionFood:  "Drop a batch of food",
	OptionBomb:  "Blast a random spot",
	OptionHeal:  "Restore everyone to full health",
	OptionSpawn: "Summon new organisms",
}

// OptionTally is one option's vote count.
type OptionTally struct {
	Command     string `json:"command"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Votes       int    `json:"votes"`
}

// VoteState is a copy of the vote manager state for display.
type VoteState struct {
	Enabled    bool          `json:"enabled"`
	Connected  bool          `json:"connected"`
	Active     bool          `json:"active"`
	Remaining  float64       `json:"remaining"`  // Seconds left in the active vote
	UntilNext  float64       `json:"until_next"` // Seconds until the next vote
	Options    []OptionTally `json:"options"`
	LastWinner string        `json:"last_winner,omitempty"`
}

// VoteManager runs periodic community votes. Timers only count down while a
// chat source is connected. It is safe for concurrent use.
type VoteManager struct {
	mu  sync.Mutex
	cfg config.VotingConfig

	width, height float64
	rng           *rand.Rand
	sink          Sink

	connected  bool
	active     bool
	remaining  float64
	untilNext  float64
	counts     []int
	voted      map[string]bool
	lastWinner string
}

// NewVoteManager creates a vote manager that sends outcomes to sink.
func NewVoteManager(cfg *config.Config, sink Sink, rng *rand.Rand) *VoteManager {
	return &VoteManager{
		cfg:       cfg.Voting,
		width:     cfg.Derived.WorldW,
		height:    cfg.Derived.WorldH,
		rng:       rng,
		sink:      sink,
		untilNext: cfg.Voting.Interval,
		voted:     make(map[string]bool),
	}
}

// Configure applies new vote settings. A shorter interval shortens the
// current countdown; an active vote keeps its tallies.
func (v *VoteManager) Configure(cfg *config.Config) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.cfg = cfg.Voting
	v.width, v.height = cfg.Derived.WorldW, cfg.Derived.WorldH
	if !v.active && v.untilNext > v.cfg.Interval {
		v.untilNext = v.cfg.Interval
	}
	if v.active && len(v.counts) != len(v.cfg.Options) {
		v.counts = make([]int, len(v.cfg.Options))
	}
	if !v.cfg.Enabled && v.active {
		v.active = false
		v.remaining = 0
	}
}

// SetConnected pauses or resumes the vote timers.
func (v *VoteManager) SetConnected(connected bool) {
	v.mu.Lock()
	v.connected = connected
	v.mu.Unlock()
}

// Update advances the timers by dt real seconds.
func (v *VoteManager) Update(dt float64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.cfg.Enabled {
		return
	}
	if v.active {
		v.remaining -= dt
		if v.remaining <= 0 {
			v.end()
		}
		return
	}
	if !v.connected {
		return
	}
	v.untilNext -= dt
	if v.untilNext <= 0 {
		v.start()
	}
}

func (v *VoteManager) start() {
	v.active = true
	v.remaining = v.cfg.Duration
	v.counts = make([]int, len(v.cfg.Options))
	clear(v.voted)
	slog.Info("vote_started", "options", v.cfg.Options, "duration", v.cfg.Duration)
	v.sink.Enqueue(voteActor, game.Announce{Notification: game.Notification{
		Kind:  game.NotifyVote,
		Title: "Vote now!",
		Text:  strings.Join(v.cfg.Options, "  "),
	}})
}

// Start begins a vote immediately if none is active.
func (v *VoteManager) Start() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.active && v.cfg.Enabled {
		v.start()
	}
}

// end closes the vote. The first option in configured order with the
// strictly highest count wins; a vote with no ballots has no winner.
func (v *VoteManager) end() {
	v.active = false
	v.remaining = 0
	v.untilNext = v.cfg.Interval + v.cfg.Cooldown

	winner, best := -1, 0
	for i, n := range v.counts {
		if n > best {
			winner, best = i, n
		}
	}
	if winner < 0 {
		slog.Info("vote_ended", "winner", "", "votes", 0)
		return
	}

	option := v.cfg.Options[winner]
	v.lastWinner = option
	slog.Info("vote_ended", "winner", option, "votes", best)
	v.execute(option)
}

func (v *VoteManager) execute(option string) {
	var cmd game.Command
	switch option {
	case OptionFood:
		cmd = game.SpawnFood{Count: v.cfg.FoodBatch}
	case OptionBomb:
		m := v.cfg.BombMargin
		cmd = game.AreaDamage{
			X:         span(v.rng, m, v.width-m),
			Y:         span(v.rng, m, v.height-m),
			Radius:    v.cfg.BombRadius,
			MaxDamage: v.cfg.BombDamage,
		}
	case OptionHeal:
		cmd = game.HealAll{}
	case OptionSpawn:
		cmd = game.SpawnOrganisms{Count: v.cfg.SpawnCount}
	default:
		slog.Warn("vote_option_unknown", "option", option)
		return
	}

	v.sink.Enqueue(voteActor, game.Announce{Notification: game.Notification{
		Kind:  game.NotifyVote,
		Title: Title(option),
		Text:  Description(option),
	}})
	v.sink.Enqueue(voteActor, cmd)
}

// span samples [lo, hi), collapsing to the midpoint when the range is inverted.
func span(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return (lo + hi) / 2
	}
	return lo + rng.Float64()*(hi-lo)
}

// Cast records user's vote for the option text names. Text is matched
// against the options exactly, then by edit distance. Each user votes once
// per round. Returns the option voted for, or "" if none.
func (v *VoteManager) Cast(user, text string) string {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.active || v.voted[user] {
		return ""
	}
	i := MatchOption(v.cfg.Options, text)
	if i < 0 || i >= len(v.counts) {
		return ""
	}
	v.counts[i]++
	v.voted[user] = true
	return v.cfg.Options[i]
}

// MatchOption returns the index of the option text names, or -1. Matching
// is case-insensitive; near misses within a length-scaled edit distance
// match the closest option, ties going to the earlier option.
func MatchOption(options []string, text string) int {
	text = strings.ToLower(strings.TrimSpace(text))
	if f := strings.Fields(text); len(f) > 0 {
		text = f[0]
	}
	if len(text) < 2 || !strings.HasPrefix(text, "!") {
		return -1
	}

	for i, opt := range options {
		if text == strings.ToLower(opt) {
			return i
		}
	}

	best, bestDist := -1, math.MaxInt
	for i, opt := range options {
		opt = strings.ToLower(opt)
		dist := levenshtein.ComputeDistance(text, opt)
		if dist > distanceLimit(len(opt)) {
			continue
		}
		if dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best
}

func distanceLimit(length int) int {
	switch {
	case length <= 5:
		return 1
	default:
		return 2
	}
}

// State returns a copy of the current vote state.
func (v *VoteManager) State() VoteState {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := VoteState{
		Enabled:    v.cfg.Enabled,
		Connected:  v.connected,
		Active:     v.active,
		Remaining:  math.Max(v.remaining, 0),
		UntilNext:  math.Max(v.untilNext, 0),
		LastWinner: v.lastWinner,
	}
	for i, opt := range v.cfg.Options {
		t := OptionTally{Command: opt, Title: Title(opt), Description: Description(opt)}
		if v.active && i < len(v.counts) {
			t.Votes = v.counts[i]
		}
		s.Options = append(s.Options, t)
	}
	return s
}

// Title returns the display title of a vote option.
func Title(option string) string {
	if t, ok := optionTitles[option]; ok {
		return t
	}
	return option
}

// Description returns a one-line summary of a vote option.
func Description(option string) string {
	return optionDescriptions[option]
}
