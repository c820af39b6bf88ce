// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen      ScreenConfig      `yaml:"screen"`
	World       WorldConfig       `yaml:"world"`
	Physics     PhysicsConfig     `yaml:"physics"`
	Entity      EntityConfig      `yaml:"entity"`
	Predator    PredatorConfig    `yaml:"predator"`
	Food        FoodConfig        `yaml:"food"`
	Energy      EnergyConfig      `yaml:"energy"`
	Population  PopulationConfig  `yaml:"population"`
	Chatters    ChattersConfig    `yaml:"chatters"`
	Voting      VotingConfig      `yaml:"voting"`
	Weather     WeatherConfig     `yaml:"weather"`
	Biomes      BiomesConfig      `yaml:"biomes"`
	Events      EventsConfig      `yaml:"events"`
	Effects     EffectsConfig     `yaml:"effects"`
	Leaderboard LeaderboardConfig `yaml:"leaderboard"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Server      ServerConfig      `yaml:"server"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds simulation world dimensions.
type WorldConfig struct {
	Width  int `yaml:"width"`  // World width in world units (0 = use screen width)
	Height int `yaml:"height"` // World height in world units (0 = use screen height)
}

// PhysicsConfig holds simulation clock parameters.
type PhysicsConfig struct {
	MaxDT float64 `yaml:"max_dt"` // Upper bound on a single tick's real delta
}

// EntityConfig holds prey organism parameters.
type EntityConfig struct {
	BaseSize       float64 `yaml:"base_size"`
	MinSize        float64 `yaml:"min_size"`
	MaxSize        float64 `yaml:"max_size"`
	BaseSpeed      float64 `yaml:"base_speed"`
	SpeedVariance  float64 `yaml:"speed_variance"`
	WanderStrength float64 `yaml:"wander_strength"`

	MaxHealth      float64 `yaml:"max_health"`
	StartingHealth float64 `yaml:"starting_health"`
	DecayRate      float64 `yaml:"decay_rate"` // Health lost per second

	FoodDetectionRange     float64 `yaml:"food_detection_range"`
	FoodAttractionStrength float64 `yaml:"food_attraction_strength"`
	EatRange               float64 `yaml:"eat_range"`
	FoodEnergyGain         float64 `yaml:"food_energy_gain"`

	GrowthRate           float64 `yaml:"growth_rate"`            // Size units per second
	GrowthHealthFraction float64 `yaml:"growth_health_fraction"` // Grow only above this fraction of max health

	CollisionDamage float64 `yaml:"collision_damage"` // Damage per second of overlap

	ReproductionThreshold float64 `yaml:"reproduction_threshold"`
	ReproductionCost      float64 `yaml:"reproduction_cost"`
	ReproductionCooldown  float64 `yaml:"reproduction_cooldown"`
	ReproductionMinSize   float64 `yaml:"reproduction_min_size"`
	ReproductionGap       float64 `yaml:"reproduction_gap"`   // Child offset beyond parent radius
	ChildSizeFactor       float64 `yaml:"child_size_factor"`  // Child size basis = parent size * this
	MutationChance        float64 `yaml:"mutation_chance"`    // Per-birth probability

	SizeScaler   float64 `yaml:"size_scaler"`
	HealthScaler float64 `yaml:"health_scaler"`
}

// PredatorConfig holds predator variant parameters.
type PredatorConfig struct {
	SpawnChance      float64 `yaml:"spawn_chance"`       // Chance a floor respawn is a predator
	SpawnInterval    float64 `yaml:"spawn_interval"`     // Seconds between timed predator rolls
	SpawnRollChance  float64 `yaml:"spawn_roll_chance"`  // Probability per timed roll
	MinPopulation    int     `yaml:"min_population"`     // Timed spawn only above this population
	BaseSize         float64 `yaml:"base_size"`
	Speed            float64 `yaml:"speed"`
	MaxHealth        float64 `yaml:"max_health"`
	DetectionRange   float64 `yaml:"detection_range"`
	AttackDamage     float64 `yaml:"attack_damage"`
	AttackScaler     float64 `yaml:"attack_scaler"`
	AttackRange      float64 `yaml:"attack_range"`
	AttackCooldown   float64 `yaml:"attack_cooldown"`
	AttackHeal       float64 `yaml:"attack_heal"`
	DecayFactor      float64 `yaml:"decay_factor"` // Fraction of prey decay rate
	Hue              float64 `yaml:"hue"`
}

// FoodConfig holds consumable parameters.
type FoodConfig struct {
	Size           float64 `yaml:"size"`
	SpawnInterval  float64 `yaml:"spawn_interval"`
	SpawnAmount    float64 `yaml:"spawn_amount"`
	Initial        int     `yaml:"initial"`
	SpawnMargin    float64 `yaml:"spawn_margin"`
	DropOnDeath    int     `yaml:"drop_on_death"`
	DropRadius     float64 `yaml:"drop_radius"`
	DropGrowthStep float64 `yaml:"drop_growth_step"` // One extra drop per this much growth
	DropSidesStep  int     `yaml:"drop_sides_step"`  // One extra drop per this many sides above 3
	PulseRate      float64 `yaml:"pulse_rate"`       // Radians per second
}

// EnergyConfig holds the community energy model.
type EnergyConfig struct {
	Initial          float64 `yaml:"initial"`
	Min              float64 `yaml:"min"`
	Max              float64 `yaml:"max"`
	DecayRate        float64 `yaml:"decay_rate"`  // Energy lost per second
	PerMessage       float64 `yaml:"per_message"` // Energy added per chat message
	PopulationCapMin int     `yaml:"population_cap_min"`
	PopulationCapMax int     `yaml:"population_cap_max"`
}

// PopulationConfig holds population management parameters.
type PopulationConfig struct {
	Floor        int      `yaml:"floor"`
	InitialNames []string `yaml:"initial_names"`
	RespawnNames []string `yaml:"respawn_names"`
	ChatterGlow  float64  `yaml:"chatter_glow"`
}

// ChatterTier maps a distinct-chatter count ceiling to a spawn chance.
type ChatterTier struct {
	Below  int     `yaml:"below"`
	Chance float64 `yaml:"chance"`
}

// ChattersConfig holds chat-driven spawn parameters.
type ChattersConfig struct {
	Tiers         []ChatterTier `yaml:"tiers"`
	DefaultChance float64       `yaml:"default_chance"` // Chance once every tier is exceeded
	MaxNameLength int           `yaml:"max_name_length"`
}

// VotingConfig holds community vote parameters.
type VotingConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Interval   float64  `yaml:"interval"`
	Duration   float64  `yaml:"duration"`
	Cooldown   float64  `yaml:"cooldown"`
	Options    []string `yaml:"options"`
	FoodBatch  int      `yaml:"food_batch"`
	BombMargin float64  `yaml:"bomb_margin"`
	BombRadius float64  `yaml:"bomb_radius"`
	BombDamage float64  `yaml:"bomb_damage"`
	SpawnCount int      `yaml:"spawn_count"`
	SpawnNames []string `yaml:"spawn_names"`
}

// WeatherEffect holds the multipliers a weather state applies.
type WeatherEffect struct {
	FoodSpawn float64 `yaml:"food_spawn"`
	Hunger    float64 `yaml:"hunger"`
	Speed     float64 `yaml:"speed"`
	Detection float64 `yaml:"detection"`
}

// WeatherConfig holds the weather state machine parameters.
type WeatherConfig struct {
	Enabled            bool                     `yaml:"enabled"`
	ChangeDuration     float64                  `yaml:"change_duration"`
	TransitionDuration float64                  `yaml:"transition_duration"`
	States             map[string]WeatherEffect `yaml:"states"`
}

// BiomeEffect holds the multipliers and flags a biome type applies.
type BiomeEffect struct {
	Hunger             float64 `yaml:"hunger"`
	Growth             float64 `yaml:"growth"`
	FoodSpawn          float64 `yaml:"food_spawn"`
	PredatorImmune     bool    `yaml:"predator_immune"`
	PredatorAttraction bool    `yaml:"predator_attraction"`
}

// BiomesConfig holds biome zone generation parameters.
type BiomesConfig struct {
	Enabled              bool                   `yaml:"enabled"`
	Count                int                    `yaml:"count"`
	Margin               float64                `yaml:"margin"`
	MinRadius            float64                `yaml:"min_radius"`
	MaxRadius            float64                `yaml:"max_radius"`
	AttractionRangeMult  float64                `yaml:"attraction_range_mult"`
	Types                map[string]BiomeEffect `yaml:"types"`
}

// EventEffect holds the multipliers an active world event applies.
type EventEffect struct {
	CollisionDamage float64 `yaml:"collision_damage"`
	Mutation        float64 `yaml:"mutation"`
	FoodSpawn       float64 `yaml:"food_spawn"`
}

// EventsConfig holds random world event parameters.
type EventsConfig struct {
	Enabled        bool                   `yaml:"enabled"`
	MinInterval    float64                `yaml:"min_interval"`
	MaxInterval    float64                `yaml:"max_interval"`
	Duration       float64                `yaml:"duration"`
	AbundanceBurst int                    `yaml:"abundance_burst"`
	Types          map[string]EventEffect `yaml:"types"`
}

// EffectsConfig holds presentation-adjacent timings owned by the core.
type EffectsConfig struct {
	DeathCamChance     float64 `yaml:"death_cam_chance"`
	DeathCamDuration   float64 `yaml:"death_cam_duration"` // Real-time seconds
	SlowMoScale        float64 `yaml:"slow_mo_scale"`
	ScreenShake        float64 `yaml:"screen_shake"`
	ScreenShakeSeconds float64 `yaml:"screen_shake_seconds"`
	MaxParticles       int     `yaml:"max_particles"`
}

// LeaderboardConfig holds leaderboard parameters.
type LeaderboardConfig struct {
	Size           int     `yaml:"size"`
	UpdateInterval float64 `yaml:"update_interval"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"`
	Database    string  `yaml:"database"` // SQLite path; empty disables the run store
}

// ServerConfig holds the websocket server parameters.
type ServerConfig struct {
	Addr              string  `yaml:"addr"`
	SnapshotHz        float64 `yaml:"snapshot_hz"`
	CommandQueueLimit int     `yaml:"command_queue_limit"` // Pending commands allowed per actor
	WriteTimeout      float64 `yaml:"write_timeout"`       // Seconds
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	WorldW float64 // Effective world width
	WorldH float64 // Effective world height
}

// Defaults returns a fresh copy of the embedded defaults.
func Defaults() *Config {
	cfg, err := Parse(nil)
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return Parse(data)
}

// Parse merges a YAML document over the embedded defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	if len(data) > 0 {
		// Unmarshal into same struct - only overwrites fields present in data
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Overlay returns a copy of c with the YAML document data applied on top.
// Fields absent from data keep their current values.
func (c *Config) Overlay(data []byte) (*Config, error) {
	out := c.Clone()
	if err := yaml.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("parsing config overlay: %w", err)
	}
	out.computeDerived()
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	// World dimensions default to screen size if not specified
	worldW := c.World.Width
	if worldW == 0 {
		worldW = c.Screen.Width
	}
	worldH := c.World.Height
	if worldH == 0 {
		worldH = c.Screen.Height
	}
	c.Derived.WorldW = float64(worldW)
	c.Derived.WorldH = float64(worldH)
}

// Clone returns a deep copy safe to mutate independently.
func (c *Config) Clone() *Config {
	out := *c
	out.Population.InitialNames = append([]string(nil), c.Population.InitialNames...)
	out.Population.RespawnNames = append([]string(nil), c.Population.RespawnNames...)
	out.Chatters.Tiers = append([]ChatterTier(nil), c.Chatters.Tiers...)
	out.Voting.Options = append([]string(nil), c.Voting.Options...)
	out.Voting.SpawnNames = append([]string(nil), c.Voting.SpawnNames...)
	out.Weather.States = cloneMap(c.Weather.States)
	out.Biomes.Types = cloneMap(c.Biomes.Types)
	out.Events.Types = cloneMap(c.Events.Types)
	return &out
}

func cloneMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return nil
	}
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
