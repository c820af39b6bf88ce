package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Standard overlay IDs.
const (
	OverlayNames       OverlayID = "names"
	OverlayHealthBars  OverlayID = "health_bars"
	OverlayTrails      OverlayID = "trails"
	OverlayBiomes      OverlayID = "biomes"
	OverlayParticles   OverlayID = "particles"
	OverlayWeather     OverlayID = "weather"
	OverlayLeaderboard OverlayID = "leaderboard"
	OverlayVote        OverlayID = "vote"
	OverlayStats       OverlayID = "stats"
	OverlayPerf        OverlayID = "perf"
	OverlaySettings    OverlayID = "settings"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID          OverlayID   // Unique identifier
	Name        string      // Display name
	Description string      // What this overlay shows
	Key         int32       // Keyboard key to toggle (0 = no key)
	KeyLabel    string      // Key label for display (e.g., "S", "V")
	Category    string      // Grouping (e.g., "visual", "debug", "ai")
	Exclusive   []OverlayID // Other overlays to disable when this is enabled
}

// OverlayRegistry manages overlay state and metadata.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	byID        map[OverlayID]OverlayDescriptor
	enabled     map[OverlayID]bool
}

// NewOverlayRegistry creates a registry with default overlays.
func NewOverlayRegistry() *OverlayRegistry {
	reg := &OverlayRegistry{
		byID:    make(map[OverlayID]OverlayDescriptor),
		enabled: make(map[OverlayID]bool),
	}
	reg.registerDefaults()
	return reg
}

// registerDefaults adds standard overlays. World layers start enabled.
func (r *OverlayRegistry) registerDefaults() {
	world := []OverlayDescriptor{
		{ID: OverlayNames, Name: "Names", Description: "Organism names", Key: rl.KeyN, KeyLabel: "N"},
		{ID: OverlayHealthBars, Name: "Health Bars", Description: "Health under each organism", Key: rl.KeyH, KeyLabel: "H"},
		{ID: OverlayTrails, Name: "Trails", Description: "Motion trails behind fast organisms", Key: rl.KeyT, KeyLabel: "T"},
		{ID: OverlayBiomes, Name: "Biomes", Description: "Biome zones and labels", Key: rl.KeyB, KeyLabel: "B"},
		{ID: OverlayParticles, Name: "Particles", Description: "Birth, death and feeding effects", Key: rl.KeyX, KeyLabel: "X"},
		{ID: OverlayWeather, Name: "Weather", Description: "Rain and fog effects", Key: rl.KeyW, KeyLabel: "W"},
	}
	for _, d := range world {
		d.Category = "world"
		r.Register(d)
		r.enabled[d.ID] = true
	}

	r.Register(OverlayDescriptor{
		ID:          OverlayLeaderboard,
		Name:        "Leaderboard",
		Description: "Top organisms by board",
		Key:         rl.KeyL,
		KeyLabel:    "L",
		Category:    "panels",
	})
	r.enabled[OverlayLeaderboard] = true

	r.Register(OverlayDescriptor{
		ID:          OverlayVote,
		Name:        "Vote",
		Description: "Community vote tallies",
		Key:         rl.KeyV,
		KeyLabel:    "V",
		Category:    "panels",
	})
	r.enabled[OverlayVote] = true

	r.Register(OverlayDescriptor{
		ID:          OverlayStats,
		Name:        "Window Stats",
		Description: "Last telemetry window",
		Key:         rl.KeyS,
		KeyLabel:    "S",
		Category:    "panels",
		Exclusive:   []OverlayID{OverlaySettings},
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayPerf,
		Name:        "Performance",
		Description: "Per-phase tick timing",
		Key:         rl.KeyP,
		KeyLabel:    "P",
		Category:    "panels",
	})

	r.Register(OverlayDescriptor{
		ID:          OverlaySettings,
		Name:        "Settings",
		Description: "Live tuning sliders",
		Key:         rl.KeyO,
		KeyLabel:    "O",
		Category:    "panels",
		Exclusive:   []OverlayID{OverlayStats},
	})
}

// Register adds an overlay to the registry.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	r.descriptors = append(r.descriptors, desc)
	r.byID[desc.ID] = desc
	r.enabled[desc.ID] = false
}

// Toggle switches an overlay on/off and handles exclusivity.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	desc, ok := r.byID[id]
	if !ok {
		return false
	}

	newState := !r.enabled[id]
	r.enabled[id] = newState

	// If enabling, disable exclusive overlays
	if newState {
		for _, excl := range desc.Exclusive {
			r.enabled[excl] = false
		}
	}

	return newState
}

// SetEnabled explicitly sets an overlay's state.
func (r *OverlayRegistry) SetEnabled(id OverlayID, enabled bool) {
	desc, ok := r.byID[id]
	if !ok {
		return
	}

	r.enabled[id] = enabled

	// If enabling, disable exclusive overlays
	if enabled {
		for _, excl := range desc.Exclusive {
			r.enabled[excl] = false
		}
	}
}

// IsEnabled returns whether an overlay is active.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// ByCategory returns overlays filtered by category.
func (r *OverlayRegistry) ByCategory(category string) []OverlayDescriptor {
	var result []OverlayDescriptor
	for _, desc := range r.descriptors {
		if desc.Category == category {
			result = append(result, desc)
		}
	}
	return result
}

// Categories returns all unique categories in order.
func (r *OverlayRegistry) Categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, desc := range r.descriptors {
		if !seen[desc.Category] {
			seen[desc.Category] = true
			cats = append(cats, desc.Category)
		}
	}
	return cats
}

// HandleKeyPress checks if a key corresponds to an overlay toggle.
// Returns the overlay ID and new state if a toggle occurred.
func (r *OverlayRegistry) HandleKeyPress(key int32) (OverlayID, bool, bool) {
	for _, desc := range r.descriptors {
		if desc.Key == key {
			newState := r.Toggle(desc.ID)
			return desc.ID, newState, true
		}
	}
	return "", false, false
}
