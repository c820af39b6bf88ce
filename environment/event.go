package environment

import (
	"math/rand"

	"github.com/pthm-cable/chatlife/config"
)

// EventType is one of the random world events.
type EventType uint8

const (
	BloodMoon EventType = iota
	Aurora
	EvolutionBoom
	Famine
	Abundance

	numEventTypes = int(Abundance) + 1
)

type eventInfo struct {
	key, name, description string
}

var eventCatalog = [numEventTypes]eventInfo{
	BloodMoon:     {"blood_moon", "Blood Moon", "Collisions hit harder"},
	Aurora:        {"aurora", "Aurora", "Mutations are far more likely"},
	EvolutionBoom: {"evolution_boom", "Evolution Boom", "Everyone is ready to reproduce"},
	Famine:        {"famine", "Famine", "All food vanishes and none grows"},
	Abundance:     {"abundance", "Abundance", "Food floods the world"},
}

// String returns the display name.
func (t EventType) String() string {
	if int(t) < numEventTypes {
		return eventCatalog[t].name
	}
	return "Unknown"
}

// Key returns the configuration key for the event.
func (t EventType) Key() string {
	if int(t) < numEventTypes {
		return eventCatalog[t].key
	}
	return ""
}

// Description returns a one-line summary for notifications.
func (t EventType) Description() string {
	if int(t) < numEventTypes {
		return eventCatalog[t].description
	}
	return ""
}

var neutralEvent = config.EventEffect{CollisionDamage: 1, Mutation: 1, FoodSpawn: 1}

// Events triggers a random world event after a randomized idle period and
// keeps it active for a fixed duration.
type Events struct {
	cfg config.EventsConfig

	Current   EventType
	Active    bool
	Remaining float64 // Seconds left on the active event
	untilNext float64 // Seconds until the next trigger
	reroll    bool    // untilNext must be rolled before counting down
}

// NewEvents starts idle with a freshly rolled trigger countdown.
func NewEvents(cfg config.EventsConfig, rng *rand.Rand) *Events {
	e := &Events{cfg: cfg}
	e.rollNext(rng)
	return e
}

// Configure applies a new configuration. Disabling ends the active event.
func (e *Events) Configure(cfg config.EventsConfig) {
	e.cfg = cfg
	if !cfg.Enabled {
		e.Active = false
		e.Remaining = 0
		e.reroll = true
	}
	if e.untilNext > cfg.MaxInterval {
		e.untilNext = cfg.MaxInterval
	}
}

func (e *Events) rollNext(rng *rand.Rand) {
	e.untilNext = span(rng, e.cfg.MinInterval, e.cfg.MaxInterval)
	e.reroll = false
}

// Update advances the timers. When an event starts it is returned with
// started set so the caller can run its one-shot effect.
func (e *Events) Update(dt float64, rng *rand.Rand) (ev EventType, started bool) {
	if !e.cfg.Enabled {
		if e.Active {
			e.end(rng)
		}
		return 0, false
	}
	if e.reroll {
		e.rollNext(rng)
	}

	if e.Active {
		e.Remaining -= dt
		if e.Remaining <= 0 {
			e.end(rng)
		}
		return 0, false
	}

	e.untilNext -= dt
	if e.untilNext <= 0 {
		return e.Start(EventType(rng.Intn(numEventTypes))), true
	}
	return 0, false
}

// Start begins an event immediately, replacing any active one.
func (e *Events) Start(t EventType) EventType {
	e.Current = t
	e.Active = true
	e.Remaining = e.cfg.Duration
	return t
}

func (e *Events) end(rng *rand.Rand) {
	e.Active = false
	e.Remaining = 0
	e.rollNext(rng)
}

// Effect returns the active event's multipliers, neutral when idle.
func (e *Events) Effect() config.EventEffect {
	if !e.Active {
		return neutralEvent
	}
	if fx, ok := e.cfg.Types[e.Current.Key()]; ok {
		return fx
	}
	return neutralEvent
}

// BlocksFood reports whether the active event suppresses food spawning.
func (e *Events) BlocksFood() bool {
	return e.Active && e.Effect().FoodSpawn <= 0
}

// RemainingFraction returns the active event's remaining time in [0, 1].
func (e *Events) RemainingFraction() float64 {
	if !e.Active || e.cfg.Duration <= 0 {
		return 0
	}
	f := e.Remaining / e.cfg.Duration
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
