package telemetry

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/pthm-cable/chatlife/components"
)

// Board selects one of the leaderboard rankings.
type Board uint8

const (
	BoardEvolved Board = iota
	BoardSurvival
	BoardFoodEaten
	numBoards
)

var boardNames = [numBoards]string{"evolved", "survival", "food_eaten"}

func (b Board) String() string {
	if b < numBoards {
		return boardNames[b]
	}
	return "unknown"
}

// Next cycles to the following board.
func (b Board) Next() Board {
	return (b + 1) % numBoards
}

// LeaderEntry is one ranked organism. It copies the fields it needs so it
// stays valid after the organism dies or its storage moves.
type LeaderEntry struct {
	ID         uint32  `json:"id"`
	Name       string  `json:"name"`
	Value      string  `json:"value"`
	Generation int     `json:"generation"`
	Sides      int     `json:"sides"`
	Age        float64 `json:"age"`
	FoodEaten  int     `json:"food_eaten"`
	Hue        float64 `json:"hue"`
}

// Leaderboard ranks living prey, refreshed on a fixed sim-time interval.
type Leaderboard struct {
	size     int
	interval float64
	timer    float64
	boards   [numBoards][]LeaderEntry
}

// NewLeaderboard creates a leaderboard holding the top size entries per board.
func NewLeaderboard(size int, interval float64) *Leaderboard {
	if size < 1 {
		size = 5
	}
	return &Leaderboard{size: size, interval: interval}
}

// Configure changes the board size and refresh interval. Entries beyond
// the new size are dropped at once.
func (l *Leaderboard) Configure(size int, interval float64) {
	if size < 1 {
		size = 5
	}
	l.size = size
	l.interval = interval
	for b := range l.boards {
		if len(l.boards[b]) > size {
			l.boards[b] = l.boards[b][:size]
		}
	}
}

// Update advances the refresh timer and re-ranks when it elapses.
// Returns true if the boards were rebuilt.
func (l *Leaderboard) Update(dt float64, orgs []*components.Organism) bool {
	l.timer += dt
	if l.timer < l.interval {
		return false
	}
	l.timer = 0
	l.Rebuild(orgs)
	return true
}

// Rebuild ranks the given organisms immediately. Dead organisms and
// predators are never ranked.
func (l *Leaderboard) Rebuild(orgs []*components.Organism) {
	live := make([]*components.Organism, 0, len(orgs))
	for _, o := range orgs {
		if o.Alive && !o.IsPredator() {
			live = append(live, o)
		}
	}

	l.boards[BoardEvolved] = l.rank(live, func(a, b *components.Organism) bool {
		if a.Generation != b.Generation {
			return a.Generation > b.Generation
		}
		return a.Sides > b.Sides
	}, func(o *components.Organism) string {
		return fmt.Sprintf("G%d (%d sides)", o.Generation, o.Sides)
	})

	l.boards[BoardSurvival] = l.rank(live, func(a, b *components.Organism) bool {
		return a.Age > b.Age
	}, func(o *components.Organism) string {
		return fmt.Sprintf("%ds", int(o.Age))
	})

	l.boards[BoardFoodEaten] = l.rank(live, func(a, b *components.Organism) bool {
		return a.FoodEaten > b.FoodEaten
	}, func(o *components.Organism) string {
		return humanize.Comma(int64(o.FoodEaten)) + " food"
	})
}

func (l *Leaderboard) rank(
	live []*components.Organism,
	less func(a, b *components.Organism) bool,
	value func(o *components.Organism) string,
) []LeaderEntry {
	sorted := make([]*components.Organism, len(live))
	copy(sorted, live)
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })

	n := min(l.size, len(sorted))
	out := make([]LeaderEntry, n)
	for i, o := range sorted[:n] {
		out[i] = LeaderEntry{
			ID:         o.ID,
			Name:       o.Name,
			Value:      value(o),
			Generation: o.Generation,
			Sides:      o.Sides,
			Age:        o.Age,
			FoodEaten:  o.FoodEaten,
			Hue:        o.Hue,
		}
	}
	return out
}

// Entries returns a board's current ranking.
func (l *Leaderboard) Entries(b Board) []LeaderEntry {
	if b >= numBoards {
		return nil
	}
	return l.boards[b]
}

// MarshalJSON exports every board keyed by name.
func (l *Leaderboard) MarshalJSON() ([]byte, error) {
	out := make(map[string][]LeaderEntry, numBoards)
	for b := Board(0); b < numBoards; b++ {
		entries := l.boards[b]
		if entries == nil {
			entries = []LeaderEntry{}
		}
		out[b.String()] = entries
	}
	return json.Marshal(out)
}

// Clone returns a copy that does not share entries with l, for handing to
// another goroutine.
func (l *Leaderboard) Clone() *Leaderboard {
	out := &Leaderboard{size: l.size, interval: l.interval, timer: l.timer}
	for b := range l.boards {
		out.boards[b] = append([]LeaderEntry(nil), l.boards[b]...)
	}
	return out
}
