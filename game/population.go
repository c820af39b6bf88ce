// Package game owns the simulated world: organism and food storage, the
// energy model, the tick pipeline and the external command surface.
package game

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/chatlife/camera"
	"github.com/pthm-cable/chatlife/components"
	"github.com/pthm-cable/chatlife/config"
	"github.com/pthm-cable/chatlife/environment"
	"github.com/pthm-cable/chatlife/systems"
	"github.com/pthm-cable/chatlife/telemetry"
)

// Organism spawns outside reproduction keep this far from the walls.
const spawnMargin = 100.0

// Particle counts per visual effect.
const (
	birthParticles     = 6
	chatterParticles   = 12
	summonParticles    = 15
	deathParticles     = 15
	foodParticles      = 3
	healParticles      = 4
	explosionParticles = 50
)

// Options configures a Population beyond its Config.
type Options struct {
	Seed          int64
	LogStats      bool   // Log window stats and perf to slog
	OutputDir     string // CSV/JSON output directory, empty disables
	StatsCallback func(telemetry.WindowStats)
	Hooks         Hooks
}

// Population is the simulated world. All methods except Enqueue, Pending
// and Settings must be called from the simulation goroutine.
type Population struct {
	world *ecs.World
	rng   *rand.Rand
	seed  int64

	settings *config.Store
	cfg      *config.Config

	orgMap     *ecs.Map3[components.Position, components.Velocity, components.Organism]
	orgFilter  *ecs.Filter3[components.Position, components.Velocity, components.Organism]
	foodMap    *ecs.Map2[components.Position, components.Food]
	foodFilter *ecs.Filter2[components.Position, components.Food]

	env         *environment.Modulators
	particles   *systems.ParticleSystem
	grid        *systems.SpatialGrid
	focus       camera.Focus
	leaderboard *telemetry.Leaderboard

	// Telemetry
	collector     *telemetry.Collector
	perf          *telemetry.PerfCollector
	output        *telemetry.OutputManager
	store         *telemetry.Store
	logStats      bool
	statsCallback func(telemetry.WindowStats)
	lastStats     telemetry.WindowStats
	deathRecords  []telemetry.DeathRecord

	hooks Hooks
	queue *commandQueue

	energy        float64
	foodTimer     float64
	predatorTimer float64

	tick          int
	simTime       float64
	nextID        uint32
	births        int
	deaths        int
	maxGeneration int

	// Per-tick scratch, reused across ticks
	agents   []systems.Agent
	pellets  []systems.Pellet
	newborns []systems.Newborn
	drops    []components.Position
	doomed   []ecs.Entity
}

// New builds a population from cfg and seeds the initial world.
func New(cfg *config.Config, opts Options) (*Population, error) {
	cfg = cfg.Clone()
	settings := config.NewStore(config.Defaults())
	if err := settings.Apply(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	world := ecs.NewWorld()
	rng := rand.New(rand.NewSource(opts.Seed))

	p := &Population{
		world:         world,
		rng:           rng,
		seed:          opts.Seed,
		settings:      settings,
		cfg:           settings.Current(),
		orgMap:        ecs.NewMap3[components.Position, components.Velocity, components.Organism](world),
		orgFilter:     ecs.NewFilter3[components.Position, components.Velocity, components.Organism](world),
		foodMap:       ecs.NewMap2[components.Position, components.Food](world),
		foodFilter:    ecs.NewFilter2[components.Position, components.Food](world),
		logStats:      opts.LogStats,
		statsCallback: opts.StatsCallback,
		hooks:         opts.Hooks,
		perf:          telemetry.NewPerfCollector(60),
	}
	p.env = environment.New(p.cfg, rng)
	p.particles = systems.NewParticleSystem(rng, p.cfg.Effects.MaxParticles)
	p.grid = systems.NewSpatialGrid(p.cfg.Derived.WorldW, p.cfg.Derived.WorldH, 2*p.cfg.Entity.MaxSize)
	p.leaderboard = telemetry.NewLeaderboard(p.cfg.Leaderboard.Size, p.cfg.Leaderboard.UpdateInterval)
	p.collector = telemetry.NewCollector(p.cfg.Telemetry.StatsWindow)
	p.queue = newCommandQueue(p.cfg.Server.CommandQueueLimit)
	p.energy = systems.Clamp(p.cfg.Energy.Initial, p.cfg.Energy.Min, p.cfg.Energy.Max)

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	p.output = output
	if err := p.output.WriteConfig(p.cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	if path := p.cfg.Telemetry.Database; path != "" {
		store, err := telemetry.OpenStore(path)
		if err != nil {
			p.output.Close()
			return nil, fmt.Errorf("run store: %w", err)
		}
		p.store = store
		data, err := p.cfg.Marshal()
		if err != nil {
			slog.Error("failed to marshal config", "error", err)
		}
		if _, err := store.StartRun(opts.Seed, data); err != nil {
			slog.Error("failed to start run", "error", err)
		}
	}

	p.spawnInitial()
	slog.Info("population_created",
		"seed", opts.Seed,
		"width", p.cfg.Derived.WorldW,
		"height", p.cfg.Derived.WorldH,
		"organisms", len(p.cfg.Population.InitialNames),
		"food", p.cfg.Food.Initial,
		"biomes", len(p.env.Biomes.Zones),
	)
	return p, nil
}

// spawnInitial creates the named starting prey and the initial food.
func (p *Population) spawnInitial() {
	for _, name := range p.cfg.Population.InitialNames {
		x, y := p.randomPoint(spawnMargin)
		p.admit(systems.NewOrganism(p.rng, p.cfg, systems.Spawn{X: x, Y: y, Lineage: name}))
	}
	for range p.cfg.Food.Initial {
		x, y := p.randomPoint(p.cfg.Food.SpawnMargin)
		p.spawnFoodAt(x, y)
	}
}

// randomPoint draws a uniform point at least margin from every wall.
func (p *Population) randomPoint(margin float64) (float64, float64) {
	w, h := p.cfg.Derived.WorldW, p.cfg.Derived.WorldH
	return systems.RandRange(p.rng, margin, w-margin), systems.RandRange(p.rng, margin, h-margin)
}

// admit inserts a newborn into the world and assigns its ID.
// It must not run while a query holds component pointers.
func (p *Population) admit(n systems.Newborn) ecs.Entity {
	p.nextID++
	n.Org.ID = p.nextID
	systems.Reflect(&n.Pos, &n.Vel, n.Org.Size, p.cfg.Derived.WorldW, p.cfg.Derived.WorldH)

	e := p.orgMap.NewEntity(&n.Pos, &n.Vel, &n.Org)
	p.births++
	p.collector.RecordBirth(n.Org.Role)
	if n.Org.Generation > p.maxGeneration {
		p.maxGeneration = n.Org.Generation
	}
	if p.hooks.OnBirth != nil {
		p.hooks.OnBirth(n.Org)
	}
	return e
}

func (p *Population) spawnFoodAt(x, y float64) {
	pos := components.Position{
		X: systems.Clamp(x, 0, p.cfg.Derived.WorldW),
		Y: systems.Clamp(y, 0, p.cfg.Derived.WorldH),
	}
	food := components.Food{
		Size:       p.cfg.Food.Size,
		Alive:      true,
		PulsePhase: p.rng.Float64() * 2 * math.Pi,
	}
	p.foodMap.NewEntity(&pos, &food)
	p.collector.RecordFoodSpawned(1)
}

// spawnFoodTimed places n food items for the timed spawner. Each item
// consults the biome food multiplier at its position: below 1 it survives
// with that probability, above 1 the surplus becomes extra items inside
// the zone.
func (p *Population) spawnFoodTimed(n int) {
	for range n {
		x, y := p.randomPoint(p.cfg.Food.SpawnMargin)
		zone, inZone := p.env.Biomes.At(x, y)
		m := p.env.Biomes.Effect(x, y).FoodSpawn

		if m < 1 {
			if p.rng.Float64() < m {
				p.spawnFoodAt(x, y)
			}
			continue
		}

		p.spawnFoodAt(x, y)
		if !inZone {
			continue
		}
		surplus := m - 1
		extra := int(surplus)
		if p.rng.Float64() < surplus-float64(extra) {
			extra++
		}
		for range extra {
			angle := p.rng.Float64() * 2 * math.Pi
			r := zone.Radius * math.Sqrt(p.rng.Float64())
			p.spawnFoodAt(zone.X+math.Cos(angle)*r, zone.Y+math.Sin(angle)*r)
		}
	}
}

// PopulationCap is the living-organism limit implied by current energy.
func (p *Population) PopulationCap() int {
	e := p.cfg.Energy
	frac := 0.0
	if e.Max > 0 {
		frac = p.energy / e.Max
	}
	return int(math.Floor(systems.Lerp(float64(e.PopulationCapMin), float64(e.PopulationCapMax), frac)))
}

// AddEnergy adds amount and clamps to the configured energy range.
func (p *Population) AddEnergy(amount float64) {
	p.energy = systems.Clamp(p.energy+amount, p.cfg.Energy.Min, p.cfg.Energy.Max)
}

// energyFraction is energy as a fraction of max energy.
func (p *Population) energyFraction() float64 {
	if p.cfg.Energy.Max <= 0 {
		return 0
	}
	return p.energy / p.cfg.Energy.Max
}

// Living counts organisms that are alive right now.
func (p *Population) Living() int {
	n := 0
	query := p.orgFilter.Query()
	for query.Next() {
		_, _, org := query.Get()
		if org.Alive {
			n++
		}
	}
	return n
}

// FoodCount counts uneaten food.
func (p *Population) FoodCount() int {
	n := 0
	query := p.foodFilter.Query()
	for query.Next() {
		_, food := query.Get()
		if food.Alive {
			n++
		}
	}
	return n
}

// SpawnNamedOrganism spawns a chatter organism named after a chat user.
// It returns false without spawning when the population is at its cap.
func (p *Population) SpawnNamedOrganism(name string) bool {
	if name == "" {
		return false
	}
	if p.Living() >= p.PopulationCap() {
		slog.Debug("chatter_spawn_capped", "name", name)
		return false
	}

	x, y := p.randomPoint(spawnMargin)
	n := systems.NewOrganism(p.rng, p.cfg, systems.Spawn{X: x, Y: y, Lineage: name})
	systems.MarkChatter(&n, p.cfg.Population.ChatterGlow)
	p.admit(n)
	p.particles.Emit(x, y, systems.ParticleSpawn, chatterParticles)
	return true
}

// SpawnOrganisms adds n prey with vote names at random positions. Vote
// rewards are not limited by the cap.
func (p *Population) SpawnOrganisms(n int) {
	names := p.cfg.Voting.SpawnNames
	if len(names) == 0 {
		names = p.cfg.Population.RespawnNames
	}
	for range n {
		x, y := p.randomPoint(spawnMargin)
		name := names[p.rng.Intn(len(names))]
		p.admit(systems.NewOrganism(p.rng, p.cfg, systems.Spawn{X: x, Y: y, Lineage: name}))
		p.particles.Emit(x, y, systems.ParticleSpawn, summonParticles)
	}
}

// SpawnFoodBatch drops n food items at random positions.
func (p *Population) SpawnFoodBatch(n int) {
	for range n {
		x, y := p.randomPoint(p.cfg.Food.SpawnMargin)
		p.spawnFoodAt(x, y)
		p.particles.Emit(x, y, systems.ParticleFood, foodParticles)
	}
}

// AreaDamage damages organisms within radius of (cx, cy). Damage falls off
// linearly from maxDamage at the centre to zero at the edge. Returns the
// number of organisms hit.
func (p *Population) AreaDamage(cx, cy, radius, maxDamage float64) int {
	if radius <= 0 {
		return 0
	}
	hit := 0
	query := p.orgFilter.Query()
	for query.Next() {
		pos, _, org := query.Get()
		if !org.Alive {
			continue
		}
		d := systems.Distance(cx, cy, pos.X, pos.Y)
		if d >= radius {
			continue
		}
		systems.Damage(org, maxDamage*(1-d/radius))
		hit++
	}

	p.particles.Emit(cx, cy, systems.ParticleExplosion, explosionParticles)
	if p.hooks.OnScreenShake != nil {
		p.hooks.OnScreenShake(p.cfg.Effects.ScreenShake, p.cfg.Effects.ScreenShakeSeconds)
	}
	return hit
}

// HealAll restores every living organism to full health.
func (p *Population) HealAll() int {
	healed := 0
	query := p.orgFilter.Query()
	for query.Next() {
		pos, _, org := query.Get()
		if !org.Alive {
			continue
		}
		org.Health = org.MaxHealth
		p.particles.Emit(pos.X, pos.Y, systems.ParticleHeal, healParticles)
		healed++
	}
	return healed
}

// RegenerateBiomes rebuilds the biome layout for the current world size.
func (p *Population) RegenerateBiomes() {
	if !p.cfg.Biomes.Enabled {
		p.env.Biomes.Zones = nil
		return
	}
	p.env.Biomes.Generate(p.rng, p.cfg.Derived.WorldW, p.cfg.Derived.WorldH)
}

// ApplyConfig validates next and makes it the active configuration. An
// invalid configuration is rejected with a *config.ConfigurationError
// (possibly joined), reported through OnNotification, and the previous
// configuration stays active. Lowering the cap never kills organisms.
func (p *Population) ApplyConfig(next *config.Config) error {
	if next == nil {
		return nil
	}
	next = next.Clone()
	if err := p.settings.Apply(next); err != nil {
		slog.Warn("config_rejected", "error", err)
		p.notify(Notification{Kind: NotifyError, Title: "Settings rejected", Text: err.Error(), Err: err})
		return err
	}

	prev := p.cfg
	p.cfg = p.settings.Current()

	p.env.Configure(p.cfg)
	biomesChanged := p.cfg.Biomes.Count != prev.Biomes.Count ||
		p.cfg.Derived.WorldW != prev.Derived.WorldW ||
		p.cfg.Derived.WorldH != prev.Derived.WorldH
	if p.cfg.Biomes.Enabled && (len(p.env.Biomes.Zones) == 0 || biomesChanged) {
		p.RegenerateBiomes()
	}

	p.energy = systems.Clamp(p.energy, p.cfg.Energy.Min, p.cfg.Energy.Max)
	p.particles.SetMax(p.cfg.Effects.MaxParticles)
	p.leaderboard.Configure(p.cfg.Leaderboard.Size, p.cfg.Leaderboard.UpdateInterval)
	p.queue.setLimit(p.cfg.Server.CommandQueueLimit)

	slog.Info("config_applied")
	if p.hooks.OnConfigApplied != nil {
		p.hooks.OnConfigApplied(p.cfg)
	}
	p.notify(Notification{Kind: NotifyInfo, Title: "Settings applied"})
	return nil
}

// Settings exposes the configuration store. Safe for concurrent use.
func (p *Population) Settings() *config.Store {
	return p.settings
}

// Config returns the active configuration. Treat it as read-only.
func (p *Population) Config() *config.Config {
	return p.cfg
}

// Energy returns the current world energy.
func (p *Population) Energy() float64 { return p.energy }

// Tick returns the number of completed steps.
func (p *Population) Tick() int { return p.tick }

// SimTime returns elapsed simulated seconds.
func (p *Population) SimTime() float64 { return p.simTime }

// Births returns the total number of organisms admitted.
func (p *Population) Births() int { return p.births }

// Deaths returns the total number of organisms removed.
func (p *Population) Deaths() int { return p.deaths }

// Environment returns the weather, biome and event modulators.
func (p *Population) Environment() *environment.Modulators { return p.env }

// Focus returns the death-cam state.
func (p *Population) Focus() *camera.Focus { return &p.focus }

// Leaderboard returns the current rankings.
func (p *Population) Leaderboard() *telemetry.Leaderboard { return p.leaderboard }

// Particles returns the visual particle pool.
func (p *Population) Particles() *systems.ParticleSystem { return p.particles }

// Perf returns the step timing collector.
func (p *Population) Perf() *telemetry.PerfCollector { return p.perf }

// LastStats returns the most recently flushed stats window.
func (p *Population) LastStats() telemetry.WindowStats { return p.lastStats }

// Close flushes run output and releases the run store.
func (p *Population) Close() error {
	var firstErr error
	if err := p.output.WriteLeaderboard(p.leaderboard); err != nil {
		firstErr = err
	}
	if err := p.output.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if p.store != nil {
		p.saveDeaths()
		if err := p.store.EndRun(p.simTime, p.births, p.deaths, p.maxGeneration); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := p.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
