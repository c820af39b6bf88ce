// Package environment holds the world modulators: weather, biome zones and
// random world events. Each one computes multipliers the population and its
// organisms consume every tick.
package environment

import (
	"math/rand"

	"github.com/pthm-cable/chatlife/config"
)

// WeatherState is one of the fixed weather conditions.
type WeatherState uint8

const (
	Clear WeatherState = iota
	Rain
	Drought
	Fog

	numWeatherStates = int(Fog) + 1
)

var weatherKeys = [numWeatherStates]string{"clear", "rain", "drought", "fog"}
var weatherNames = [numWeatherStates]string{"Clear", "Rain", "Drought", "Fog"}

// String returns the display name.
func (s WeatherState) String() string {
	if int(s) < numWeatherStates {
		return weatherNames[s]
	}
	return "Unknown"
}

// Key returns the configuration key for the state.
func (s WeatherState) Key() string {
	if int(s) < numWeatherStates {
		return weatherKeys[s]
	}
	return ""
}

var neutralWeather = config.WeatherEffect{FoodSpawn: 1, Hunger: 1, Speed: 1, Detection: 1}

// Weather is a timed state machine. After a stable period it picks a new
// state, never the current one, and blends into it over a transition window.
type Weather struct {
	cfg config.WeatherConfig

	Current       WeatherState
	Next          WeatherState
	Progress      float64 // Transition progress in [0, 1)
	transitioning bool
	timer         float64 // Seconds of stable weather left
}

// NewWeather starts in Clear with a full stable period.
func NewWeather(cfg config.WeatherConfig) *Weather {
	return &Weather{cfg: cfg, Current: Clear, Next: Clear, timer: cfg.ChangeDuration}
}

// Configure applies a new configuration. Disabling resets to Clear.
func (w *Weather) Configure(cfg config.WeatherConfig) {
	w.cfg = cfg
	if !cfg.Enabled {
		w.reset()
	}
	if w.timer > cfg.ChangeDuration {
		w.timer = cfg.ChangeDuration
	}
}

func (w *Weather) reset() {
	w.Current, w.Next = Clear, Clear
	w.Progress = 0
	w.transitioning = false
	w.timer = w.cfg.ChangeDuration
}

// Transitioning reports whether a change is in progress.
func (w *Weather) Transitioning() bool {
	return w.transitioning
}

// Update advances the state machine and reports whether a transition
// completed during this call.
func (w *Weather) Update(dt float64, rng *rand.Rand) bool {
	if !w.cfg.Enabled {
		if w.Current != Clear || w.transitioning {
			w.reset()
		}
		return false
	}

	if w.transitioning {
		w.Progress += dt / w.cfg.TransitionDuration
		if w.Progress >= 1 {
			w.Current = w.Next
			w.Progress = 0
			w.transitioning = false
			w.timer = w.cfg.ChangeDuration
			return true
		}
		return false
	}

	w.timer -= dt
	if w.timer <= 0 {
		w.Next = w.pickNext(rng)
		w.Progress = 0
		w.transitioning = true
	}
	return false
}

// pickNext draws uniformly among the states other than Current.
func (w *Weather) pickNext(rng *rand.Rand) WeatherState {
	n := WeatherState(rng.Intn(numWeatherStates - 1))
	if n >= w.Current {
		n++
	}
	return n
}

func (w *Weather) effect(s WeatherState) config.WeatherEffect {
	if e, ok := w.cfg.States[s.Key()]; ok {
		return e
	}
	return neutralWeather
}

// Effect returns the active multipliers. During a transition the upcoming
// state fades in linearly with progress.
func (w *Weather) Effect() config.WeatherEffect {
	if !w.cfg.Enabled {
		return w.effect(Clear)
	}
	cur := w.effect(w.Current)
	if !w.transitioning {
		return cur
	}
	next := w.effect(w.Next)
	t := w.Progress
	return config.WeatherEffect{
		FoodSpawn: lerp(cur.FoodSpawn, next.FoodSpawn, t),
		Hunger:    lerp(cur.Hunger, next.Hunger, t),
		Speed:     lerp(cur.Speed, next.Speed, t),
		Detection: lerp(cur.Detection, next.Detection, t),
	}
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
