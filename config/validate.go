package config

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// ConfigurationError reports a single rejected configuration value.
type ConfigurationError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config: %s=%g: %s", e.Field, e.Value, e.Reason)
}

// validator accumulates rejections so a single pass reports every bad field.
type validator struct {
	errs []error
}

func (v *validator) reject(field string, value float64, reason string) {
	v.errs = append(v.errs, &ConfigurationError{Field: field, Value: value, Reason: reason})
}

func (v *validator) finite(field string, value float64) bool {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		v.reject(field, value, "not a finite number")
		return false
	}
	return true
}

func (v *validator) positive(field string, value float64) {
	if v.finite(field, value) && value <= 0 {
		v.reject(field, value, "must be positive")
	}
}

func (v *validator) nonNegative(field string, value float64) {
	if v.finite(field, value) && value < 0 {
		v.reject(field, value, "must not be negative")
	}
}

func (v *validator) probability(field string, value float64) {
	if v.finite(field, value) && (value < 0 || value > 1) {
		v.reject(field, value, "must be within [0, 1]")
	}
}

func (v *validator) ordered(minField string, lo float64, maxField string, hi float64) {
	if v.finite(minField, lo) && v.finite(maxField, hi) && lo > hi {
		v.reject(minField, lo, fmt.Sprintf("must not exceed %s (%g)", maxField, hi))
	}
}

// Validate checks every externally tunable value that could cause a
// division by zero, an unbounded loop or an inverted range. Violations are
// returned as *ConfigurationError values joined with errors.Join.
func (c *Config) Validate() error {
	v := &validator{}

	v.positive("world.width", c.Derived.WorldW)
	v.positive("world.height", c.Derived.WorldH)
	v.positive("physics.max_dt", c.Physics.MaxDT)

	e := c.Entity
	v.positive("entity.min_size", e.MinSize)
	v.ordered("entity.min_size", e.MinSize, "entity.max_size", e.MaxSize)
	v.positive("entity.base_size", e.BaseSize)
	v.nonNegative("entity.base_speed", e.BaseSpeed)
	v.nonNegative("entity.speed_variance", e.SpeedVariance)
	v.nonNegative("entity.wander_strength", e.WanderStrength)
	v.positive("entity.max_health", e.MaxHealth)
	v.positive("entity.starting_health", e.StartingHealth)
	v.ordered("entity.starting_health", e.StartingHealth, "entity.max_health", e.MaxHealth)
	v.nonNegative("entity.decay_rate", e.DecayRate)
	v.nonNegative("entity.food_detection_range", e.FoodDetectionRange)
	v.nonNegative("entity.food_attraction_strength", e.FoodAttractionStrength)
	v.nonNegative("entity.eat_range", e.EatRange)
	v.nonNegative("entity.food_energy_gain", e.FoodEnergyGain)
	v.nonNegative("entity.growth_rate", e.GrowthRate)
	v.probability("entity.growth_health_fraction", e.GrowthHealthFraction)
	v.nonNegative("entity.collision_damage", e.CollisionDamage)
	v.nonNegative("entity.reproduction_threshold", e.ReproductionThreshold)
	v.nonNegative("entity.reproduction_cost", e.ReproductionCost)
	v.ordered("entity.reproduction_cost", e.ReproductionCost, "entity.reproduction_threshold", e.ReproductionThreshold)
	v.nonNegative("entity.reproduction_cooldown", e.ReproductionCooldown)
	v.nonNegative("entity.reproduction_gap", e.ReproductionGap)
	v.positive("entity.child_size_factor", e.ChildSizeFactor)
	v.probability("entity.mutation_chance", e.MutationChance)
	v.positive("entity.size_scaler", e.SizeScaler)
	v.positive("entity.health_scaler", e.HealthScaler)

	p := c.Predator
	v.probability("predator.spawn_chance", p.SpawnChance)
	v.positive("predator.spawn_interval", p.SpawnInterval)
	v.probability("predator.spawn_roll_chance", p.SpawnRollChance)
	v.positive("predator.base_size", p.BaseSize)
	v.nonNegative("predator.speed", p.Speed)
	v.positive("predator.max_health", p.MaxHealth)
	v.nonNegative("predator.detection_range", p.DetectionRange)
	v.nonNegative("predator.attack_damage", p.AttackDamage)
	v.nonNegative("predator.attack_scaler", p.AttackScaler)
	v.nonNegative("predator.attack_range", p.AttackRange)
	v.nonNegative("predator.attack_cooldown", p.AttackCooldown)
	v.nonNegative("predator.attack_heal", p.AttackHeal)
	v.nonNegative("predator.decay_factor", p.DecayFactor)

	f := c.Food
	v.positive("food.size", f.Size)
	v.positive("food.spawn_interval", f.SpawnInterval)
	v.nonNegative("food.spawn_amount", f.SpawnAmount)
	v.nonNegative("food.initial", float64(f.Initial))
	v.nonNegative("food.spawn_margin", f.SpawnMargin)
	v.nonNegative("food.drop_on_death", float64(f.DropOnDeath))
	v.nonNegative("food.drop_radius", f.DropRadius)
	v.positive("food.drop_growth_step", f.DropGrowthStep)
	v.positive("food.drop_sides_step", float64(f.DropSidesStep))

	en := c.Energy
	v.nonNegative("energy.min", en.Min)
	v.positive("energy.max", en.Max)
	v.ordered("energy.min", en.Min, "energy.max", en.Max)
	v.nonNegative("energy.decay_rate", en.DecayRate)
	v.nonNegative("energy.per_message", en.PerMessage)
	v.nonNegative("energy.population_cap_min", float64(en.PopulationCapMin))
	v.ordered("energy.population_cap_min", float64(en.PopulationCapMin),
		"energy.population_cap_max", float64(en.PopulationCapMax))

	v.nonNegative("population.floor", float64(c.Population.Floor))
	if len(c.Population.RespawnNames) == 0 {
		v.reject("population.respawn_names", 0, "must not be empty")
	}

	for i, tier := range c.Chatters.Tiers {
		v.probability(fmt.Sprintf("chatters.tiers[%d].chance", i), tier.Chance)
		if i > 0 && tier.Below <= c.Chatters.Tiers[i-1].Below {
			v.reject(fmt.Sprintf("chatters.tiers[%d].below", i), float64(tier.Below), "tiers must ascend")
		}
	}
	v.probability("chatters.default_chance", c.Chatters.DefaultChance)

	vo := c.Voting
	v.positive("voting.interval", vo.Interval)
	v.positive("voting.duration", vo.Duration)
	v.nonNegative("voting.cooldown", vo.Cooldown)
	v.positive("voting.bomb_radius", vo.BombRadius)
	v.nonNegative("voting.bomb_damage", vo.BombDamage)

	w := c.Weather
	v.positive("weather.change_duration", w.ChangeDuration)
	v.positive("weather.transition_duration", w.TransitionDuration)
	for name, s := range w.States {
		v.nonNegative("weather.states."+name+".food_spawn", s.FoodSpawn)
		v.nonNegative("weather.states."+name+".hunger", s.Hunger)
		v.nonNegative("weather.states."+name+".speed", s.Speed)
		v.nonNegative("weather.states."+name+".detection", s.Detection)
	}

	b := c.Biomes
	v.nonNegative("biomes.count", float64(b.Count))
	v.nonNegative("biomes.margin", b.Margin)
	v.positive("biomes.min_radius", b.MinRadius)
	v.ordered("biomes.min_radius", b.MinRadius, "biomes.max_radius", b.MaxRadius)
	v.positive("biomes.attraction_range_mult", b.AttractionRangeMult)
	for name, t := range b.Types {
		v.nonNegative("biomes.types."+name+".hunger", t.Hunger)
		v.nonNegative("biomes.types."+name+".growth", t.Growth)
		v.nonNegative("biomes.types."+name+".food_spawn", t.FoodSpawn)
	}

	ev := c.Events
	v.positive("events.min_interval", ev.MinInterval)
	v.ordered("events.min_interval", ev.MinInterval, "events.max_interval", ev.MaxInterval)
	v.positive("events.duration", ev.Duration)
	v.nonNegative("events.abundance_burst", float64(ev.AbundanceBurst))
	for name, t := range ev.Types {
		v.nonNegative("events.types."+name+".collision_damage", t.CollisionDamage)
		v.nonNegative("events.types."+name+".mutation", t.Mutation)
		v.nonNegative("events.types."+name+".food_spawn", t.FoodSpawn)
	}

	fx := c.Effects
	v.probability("effects.death_cam_chance", fx.DeathCamChance)
	v.nonNegative("effects.death_cam_duration", fx.DeathCamDuration)
	v.positive("effects.slow_mo_scale", fx.SlowMoScale)
	v.nonNegative("effects.max_particles", float64(fx.MaxParticles))

	v.positive("leaderboard.update_interval", c.Leaderboard.UpdateInterval)
	v.positive("telemetry.stats_window", c.Telemetry.StatsWindow)
	v.positive("server.snapshot_hz", c.Server.SnapshotHz)

	return errors.Join(v.errs...)
}

// Store holds the active configuration and falls back to the last value
// that passed validation when an update is rejected. It is safe for
// concurrent use.
type Store struct {
	mu  sync.RWMutex
	cur *Config
}

// NewStore returns a store seeded with cfg, which must already be valid.
func NewStore(cfg *Config) *Store {
	return &Store{cur: cfg}
}

// Current returns the last-known-good configuration.
func (s *Store) Current() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Apply validates next and swaps it in. On failure the previous
// configuration stays active and the validation error is returned.
func (s *Store) Apply(next *Config) error {
	next.computeDerived()
	if err := next.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.cur = next
	s.mu.Unlock()
	return nil
}
