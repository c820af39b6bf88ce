package environment

import (
	"math/rand"

	"github.com/pthm-cable/chatlife/config"
)

// Modulators bundles the three environment modulators and answers the
// per-organism environment queries. Global effects are cached by Refresh
// so the per-organism queries stay cheap.
type Modulators struct {
	Weather *Weather
	Biomes  *Biomes
	Events  *Events

	weatherFx config.WeatherEffect
	eventFx   config.EventEffect
}

// New builds modulators for a world of the given size.
func New(cfg *config.Config, rng *rand.Rand) *Modulators {
	m := &Modulators{
		Weather: NewWeather(cfg.Weather),
		Biomes:  NewBiomes(cfg.Biomes),
		Events:  NewEvents(cfg.Events, rng),
	}
	m.Biomes.Generate(rng, cfg.Derived.WorldW, cfg.Derived.WorldH)
	m.Refresh()
	return m
}

// Configure pushes a new configuration into every modulator.
func (m *Modulators) Configure(cfg *config.Config) {
	m.Weather.Configure(cfg.Weather)
	m.Biomes.Configure(cfg.Biomes)
	m.Events.Configure(cfg.Events)
	m.Refresh()
}

// Refresh recomputes the cached global multipliers.
func (m *Modulators) Refresh() {
	m.weatherFx = m.Weather.Effect()
	m.eventFx = m.Events.Effect()
}

// WeatherEffect returns the cached weather multipliers.
func (m *Modulators) WeatherEffect() config.WeatherEffect { return m.weatherFx }

// EventEffect returns the cached event multipliers.
func (m *Modulators) EventEffect() config.EventEffect { return m.eventFx }

func (m *Modulators) HungerMult(x, y float64) float64 {
	return m.Biomes.Effect(x, y).Hunger * m.weatherFx.Hunger
}

func (m *Modulators) GrowthMult(x, y float64) float64 {
	return m.Biomes.Effect(x, y).Growth
}

func (m *Modulators) SpeedMult() float64 { return m.weatherFx.Speed }

func (m *Modulators) DetectionMult() float64 { return m.weatherFx.Detection }

func (m *Modulators) CollisionDamageMult() float64 { return m.eventFx.CollisionDamage }

func (m *Modulators) MutationMult() float64 { return m.eventFx.Mutation }

func (m *Modulators) PredatorImmune(x, y float64) bool {
	return m.Biomes.Effect(x, y).PredatorImmune
}

func (m *Modulators) PredatorAttraction(x, y float64) bool {
	return m.Biomes.Effect(x, y).PredatorAttraction
}

// FoodSpawnMult is the global food multiplier from weather and events.
func (m *Modulators) FoodSpawnMult() float64 {
	return m.weatherFx.FoodSpawn * m.eventFx.FoodSpawn
}
