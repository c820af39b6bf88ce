package game

import (
	"errors"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/chatlife/components"
	"github.com/pthm-cable/chatlife/config"
	"github.com/pthm-cable/chatlife/environment"
	"github.com/pthm-cable/chatlife/telemetry"
)

// calmConfig returns defaults with every source of randomness in the world
// state switched off: no decay, collisions, weather, events or predators.
func calmConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Entity.DecayRate = 0
	cfg.Entity.CollisionDamage = 0
	cfg.Entity.MutationChance = 0
	cfg.Energy.DecayRate = 0
	cfg.Weather.Enabled = false
	cfg.Events.Enabled = false
	cfg.Biomes.Enabled = false
	cfg.Predator.SpawnInterval = 1e6
	cfg.Predator.SpawnChance = 0
	cfg.Effects.DeathCamChance = 0
	return cfg
}

func newTestPopulation(t *testing.T, cfg *config.Config, hooks Hooks) *Population {
	t.Helper()
	p, err := New(cfg, Options{Seed: 42, Hooks: hooks})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestNewSeedsInitialWorld(t *testing.T) {
	cfg := calmConfig()
	p := newTestPopulation(t, cfg, Hooks{})

	if got, want := p.Living(), len(cfg.Population.InitialNames); got != want {
		t.Errorf("living = %d, want %d", got, want)
	}
	if got := p.FoodCount(); got != cfg.Food.Initial {
		t.Errorf("food = %d, want %d", got, cfg.Food.Initial)
	}

	seen := make(map[uint32]bool)
	p.Organisms(func(_ ecs.Entity, pos *components.Position, _ *components.Velocity, org *components.Organism) {
		if org.ID == 0 || seen[org.ID] {
			t.Errorf("organism %q has duplicate or zero ID %d", org.Name, org.ID)
		}
		seen[org.ID] = true
		if pos.X < spawnMargin || pos.X > cfg.Derived.WorldW-spawnMargin {
			t.Errorf("organism %q spawned at x=%v inside the margin", org.Name, pos.X)
		}
	})
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Energy.Max = -1
	if _, err := New(cfg, Options{}); err == nil {
		t.Fatal("New accepted a negative max energy")
	}
}

func TestNewRejectsCostAboveThreshold(t *testing.T) {
	cfg := config.Defaults()
	cfg.Entity.ReproductionThreshold = 10
	cfg.Entity.ReproductionCost = 50

	_, err := New(cfg, Options{})
	var cerr *config.ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("error = %v, want *config.ConfigurationError", err)
	}
	if cerr.Field != "entity.reproduction_cost" {
		t.Errorf("field = %q, want entity.reproduction_cost", cerr.Field)
	}
}

func TestReproductionNeverLeavesNegativeHealth(t *testing.T) {
	cfg := calmConfig()
	cfg.Entity.ReproductionThreshold = 60
	cfg.Entity.ReproductionCost = 60
	p := newTestPopulation(t, cfg, Hooks{})

	p.Organisms(func(_ ecs.Entity, _ *components.Position, _ *components.Velocity, org *components.Organism) {
		org.SetSize(30, cfg.Entity.MinSize, cfg.Entity.MaxSize)
		org.Health = cfg.Entity.ReproductionThreshold
		org.SinceReproduction = cfg.Entity.ReproductionCooldown
	})

	births := p.Births()
	p.Step(0.1)
	if p.Births() == births {
		t.Fatal("no parent reproduced")
	}
	p.Organisms(func(_ ecs.Entity, _ *components.Position, _ *components.Velocity, org *components.Organism) {
		if org.Health < 0 {
			t.Errorf("%s health = %v, want >= 0", org.Name, org.Health)
		}
		if org.Alive && org.Health <= 0 {
			t.Errorf("%s alive with health %v", org.Name, org.Health)
		}
	})
}

func TestNewStartsStoredRun(t *testing.T) {
	cfg := calmConfig()
	cfg.Telemetry.Database = filepath.Join(t.TempDir(), "runs.db")
	p, err := New(cfg, Options{Seed: 7})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	id := p.store.RunID()
	if id == "" {
		t.Fatal("no run started")
	}
	run, err := p.store.Run(id)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.Seed != 7 {
		t.Errorf("seed = %d, want 7", run.Seed)
	}
}

func TestAddEnergyClamps(t *testing.T) {
	p := newTestPopulation(t, calmConfig(), Hooks{})
	cfg := p.Config()

	p.AddEnergy(10000)
	if p.Energy() != cfg.Energy.Max {
		t.Errorf("energy = %v, want max %v", p.Energy(), cfg.Energy.Max)
	}
	if got := p.PopulationCap(); got != cfg.Energy.PopulationCapMax {
		t.Errorf("cap at max energy = %d, want %d", got, cfg.Energy.PopulationCapMax)
	}

	p.AddEnergy(-10000)
	if p.Energy() != cfg.Energy.Min {
		t.Errorf("energy = %v, want min %v", p.Energy(), cfg.Energy.Min)
	}
}

func TestPopulationCapInterpolates(t *testing.T) {
	cfg := calmConfig()
	cfg.Energy.Min = 0
	cfg.Energy.Max = 100
	cfg.Energy.PopulationCapMin = 10
	cfg.Energy.PopulationCapMax = 30

	tests := []struct {
		energy float64
		want   int
	}{
		{0, 10},
		{50, 20},
		{99, 29},
		{100, 30},
	}
	for _, tt := range tests {
		cfg.Energy.Initial = tt.energy
		p := newTestPopulation(t, cfg.Clone(), Hooks{})
		if got := p.PopulationCap(); got != tt.want {
			t.Errorf("cap at energy %v = %d, want %d", tt.energy, got, tt.want)
		}
	}
}

func TestFloorHolds(t *testing.T) {
	cfg := calmConfig()
	cfg.Entity.DecayRate = 500
	p := newTestPopulation(t, cfg, Hooks{})

	for i := 0; i < 50; i++ {
		p.Step(0.05)
		if got := p.Living(); got < cfg.Population.Floor {
			t.Fatalf("tick %d: living %d below floor %d", p.Tick(), got, cfg.Population.Floor)
		}
	}
	if p.Deaths() == 0 {
		t.Error("expected organisms to starve")
	}
}

func TestFamineBlocksFood(t *testing.T) {
	cfg := calmConfig()
	cfg.Events.Enabled = true
	cfg.Events.MinInterval = 1e6
	cfg.Events.MaxInterval = 1e6
	cfg.Events.Duration = 1e6
	cfg.Energy.Initial = cfg.Energy.Max
	p := newTestPopulation(t, cfg, Hooks{})

	p.TriggerEvent(environment.Famine)
	for i := 0; i < 100; i++ {
		p.Step(0.1)
	}
	if got := p.FoodCount(); got != 0 {
		t.Errorf("food during famine = %d, want 0", got)
	}
}

func TestAbundanceBurst(t *testing.T) {
	cfg := calmConfig()
	cfg.Events.Enabled = true
	p := newTestPopulation(t, cfg, Hooks{})

	before := p.FoodCount()
	p.TriggerEvent(environment.Abundance)
	if got, want := p.FoodCount(), before+cfg.Events.AbundanceBurst; got != want {
		t.Errorf("food after abundance = %d, want %d", got, want)
	}
}

func TestStartEventCommand(t *testing.T) {
	cfg := calmConfig()
	cfg.Events.Enabled = true
	cfg.Events.MinInterval = 1e6
	cfg.Events.MaxInterval = 1e6
	var notes []Notification
	p := newTestPopulation(t, cfg, Hooks{OnNotification: func(n Notification) { notes = append(notes, n) }})

	p.Enqueue("local", StartEvent{Event: environment.Famine})
	p.Step(0)

	s := p.Snapshot(false)
	if s.Event == nil || s.Event.Key != "famine" {
		t.Fatalf("event = %+v, want famine", s.Event)
	}
	found := false
	for _, n := range notes {
		found = found || n.Kind == NotifyEvent
	}
	if !found {
		t.Errorf("notifications = %+v, want an event notice", notes)
	}
}

func TestReproductionAdmitsUpToCap(t *testing.T) {
	cfg := calmConfig()
	cfg.Population.InitialNames = []string{"Ada", "Bo"}
	cfg.Population.Floor = 1
	cfg.Energy.PopulationCapMin = 3
	cfg.Energy.PopulationCapMax = 3
	p := newTestPopulation(t, cfg, Hooks{})

	p.Organisms(func(_ ecs.Entity, _ *components.Position, _ *components.Velocity, org *components.Organism) {
		org.SetSize(30, cfg.Entity.MinSize, cfg.Entity.MaxSize)
		org.Health = org.MaxHealth
		org.SinceReproduction = cfg.Entity.ReproductionCooldown
	})

	births := p.Births()
	p.Step(0.1)
	if got := p.Births() - births; got != 1 {
		t.Errorf("births = %d, want exactly 1", got)
	}
	if got := p.Living(); got != 3 {
		t.Errorf("living = %d, want 3", got)
	}
}

func TestCommandsApplyAtTickBoundary(t *testing.T) {
	p := newTestPopulation(t, calmConfig(), Hooks{})
	before := p.Energy()

	if !p.Enqueue("alice", AddEnergy{Amount: 10}) {
		t.Fatal("Enqueue rejected a command")
	}
	if p.Energy() != before {
		t.Error("command applied before the tick boundary")
	}
	if p.Pending() != 1 {
		t.Errorf("pending = %d, want 1", p.Pending())
	}

	p.Step(0)
	if p.Energy() != before+10 {
		t.Errorf("energy = %v, want %v", p.Energy(), before+10)
	}
	if p.Pending() != 0 {
		t.Errorf("pending after step = %d", p.Pending())
	}
}

func TestNonFiniteEnergyDropped(t *testing.T) {
	p := newTestPopulation(t, calmConfig(), Hooks{})
	before := p.Energy()

	p.Enqueue("x", AddEnergy{Amount: math.NaN()})
	p.Enqueue("x", AddEnergy{Amount: math.Inf(1)})
	p.Step(0)
	if p.Energy() != before {
		t.Errorf("energy = %v after non-finite commands, want %v", p.Energy(), before)
	}
}

func TestQueueLimitPerActor(t *testing.T) {
	cfg := calmConfig()
	cfg.Server.CommandQueueLimit = 2
	p := newTestPopulation(t, cfg, Hooks{})

	results := []bool{
		p.Enqueue("alice", HealAll{}),
		p.Enqueue("alice", HealAll{}),
		p.Enqueue("alice", HealAll{}),
		p.Enqueue("bob", HealAll{}),
	}
	want := []bool{true, true, false, true}
	for i := range want {
		if results[i] != want[i] {
			t.Errorf("enqueue %d = %v, want %v", i, results[i], want[i])
		}
	}

	// The limit resets once the queue drains.
	p.Step(0)
	if !p.Enqueue("alice", HealAll{}) {
		t.Error("alice still limited after drain")
	}
}

func TestEnqueueConcurrent(t *testing.T) {
	cfg := calmConfig()
	cfg.Server.CommandQueueLimit = 0
	p := newTestPopulation(t, cfg, Hooks{})
	before := p.Energy()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 5; i++ {
				p.Enqueue("chat", AddEnergy{Amount: 1})
			}
		}()
	}
	wg.Wait()

	p.Step(0)
	if got := p.Energy(); got != before+20 {
		t.Errorf("energy = %v, want %v", got, before+20)
	}
}

func TestChatMessageSpawnsChatter(t *testing.T) {
	p := newTestPopulation(t, calmConfig(), Hooks{})
	living, energy := p.Living(), p.Energy()

	p.Enqueue("zed", ChatMessage{Name: "zed", Energy: 2, Spawn: true})
	p.Step(0)

	if p.Living() != living+1 {
		t.Errorf("living = %d, want %d", p.Living(), living+1)
	}
	if p.Energy() != energy+2 {
		t.Errorf("energy = %v, want %v", p.Energy(), energy+2)
	}

	var found bool
	p.Organisms(func(_ ecs.Entity, _ *components.Position, _ *components.Velocity, org *components.Organism) {
		if org.Lineage == "zed" {
			found = true
			if !org.IsChatter {
				t.Error("chatter flag not set")
			}
		}
	})
	if !found {
		t.Error("no organism named after the chatter")
	}
}

func TestSpawnNamedOrganismRespectsCap(t *testing.T) {
	cfg := calmConfig()
	cfg.Energy.PopulationCapMin = 6
	cfg.Energy.PopulationCapMax = 6
	p := newTestPopulation(t, cfg, Hooks{})

	if p.SpawnNamedOrganism("late") {
		t.Error("chatter spawned at the cap")
	}
	p.SpawnOrganisms(3)
	if got := p.Living(); got != 9 {
		t.Errorf("vote spawn living = %d, want 9 (cap ignored)", got)
	}
}

func TestAreaDamageFalloff(t *testing.T) {
	p := newTestPopulation(t, calmConfig(), Hooks{})
	cx, cy := p.Config().Derived.WorldW/2, p.Config().Derived.WorldH/2
	const radius, maxDamage = 400.0, 50.0

	want := make(map[uint32]float64)
	p.Organisms(func(_ ecs.Entity, pos *components.Position, _ *components.Velocity, org *components.Organism) {
		d := math.Hypot(pos.X-cx, pos.Y-cy)
		h := org.Health
		if d < radius {
			h -= maxDamage * (1 - d/radius)
		}
		want[org.ID] = h
	})

	var shook bool
	p.hooks.OnScreenShake = func(intensity, duration float64) { shook = true }
	p.AreaDamage(cx, cy, radius, maxDamage)

	p.Organisms(func(_ ecs.Entity, _ *components.Position, _ *components.Velocity, org *components.Organism) {
		if math.Abs(org.Health-want[org.ID]) > 1e-9 {
			t.Errorf("organism %d health = %v, want %v", org.ID, org.Health, want[org.ID])
		}
	})
	if !shook {
		t.Error("screen shake hook not called")
	}
}

func TestHealAll(t *testing.T) {
	p := newTestPopulation(t, calmConfig(), Hooks{})
	p.Organisms(func(_ ecs.Entity, _ *components.Position, _ *components.Velocity, org *components.Organism) {
		org.Health = 1
	})
	if got := p.HealAll(); got != p.Living() {
		t.Errorf("healed %d, want %d", got, p.Living())
	}
	p.Organisms(func(_ ecs.Entity, _ *components.Position, _ *components.Velocity, org *components.Organism) {
		if org.Health != org.MaxHealth {
			t.Errorf("%s health = %v, want %v", org.Name, org.Health, org.MaxHealth)
		}
	})
}

func TestApplyConfigRejectsInvalid(t *testing.T) {
	var notes []Notification
	p := newTestPopulation(t, calmConfig(), Hooks{
		OnNotification: func(n Notification) { notes = append(notes, n) },
	})
	good := p.Config().Entity.MaxHealth

	bad := p.Config().Clone()
	bad.Entity.MaxHealth = -1
	err := p.ApplyConfig(bad)

	var cerr *config.ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("error = %v, want *config.ConfigurationError", err)
	}
	if p.Config().Entity.MaxHealth != good {
		t.Errorf("max health = %v, want last good %v", p.Config().Entity.MaxHealth, good)
	}
	if len(notes) != 1 || notes[0].Kind != NotifyError {
		t.Errorf("notifications = %+v, want one error", notes)
	}
}

func TestApplyConfigLowerCapKeepsOrganisms(t *testing.T) {
	p := newTestPopulation(t, calmConfig(), Hooks{})
	p.SpawnOrganisms(20)
	living := p.Living()

	next := p.Config().Clone()
	next.Energy.PopulationCapMin = 2
	next.Energy.PopulationCapMax = 4
	if err := p.ApplyConfig(next); err != nil {
		t.Fatalf("ApplyConfig: %v", err)
	}
	p.Step(0.1)

	if got := p.Living(); got != living {
		t.Errorf("living = %d after lowering the cap, want %d", got, living)
	}
	if p.PopulationCap() > 4 {
		t.Errorf("cap = %d, want <= 4", p.PopulationCap())
	}
}

func TestApplyConfigDoesNotAlias(t *testing.T) {
	p := newTestPopulation(t, calmConfig(), Hooks{})
	next := p.Config().Clone()
	next.Food.Size = 9
	if err := p.ApplyConfig(next); err != nil {
		t.Fatalf("ApplyConfig: %v", err)
	}
	next.Food.Size = 1
	if p.Config().Food.Size != 9 {
		t.Errorf("active config changed through caller's copy")
	}
}

func TestDeathCamRunsOnRealClock(t *testing.T) {
	cfg := calmConfig()
	cfg.Effects.DeathCamChance = 1
	cfg.Effects.DeathCamDuration = 1.5
	cfg.Effects.SlowMoScale = 0.3

	var cams int
	var deaths int
	p := newTestPopulation(t, cfg, Hooks{
		OnDeathCam: func(x, y float64) { cams++ },
		OnDeath:    func(o components.Organism, x, y float64) { deaths++ },
	})

	killed := false
	p.Organisms(func(_ ecs.Entity, _ *components.Position, _ *components.Velocity, org *components.Organism) {
		if !killed {
			org.Kill()
			killed = true
		}
	})

	p.Step(0.1)
	if cams != 1 || deaths != 1 {
		t.Fatalf("death cam calls = %d, deaths = %d, want 1 and 1", cams, deaths)
	}
	if p.TimeScale() != 0.3 {
		t.Fatalf("time scale = %v, want 0.3", p.TimeScale())
	}

	start := p.SimTime()
	p.Step(0.1)
	if got := p.SimTime() - start; math.Abs(got-0.03) > 1e-9 {
		t.Errorf("slowed step advanced %v, want 0.03", got)
	}

	for i := 0; i < 15; i++ {
		p.Step(0.1)
	}
	if p.TimeScale() != 1 {
		t.Errorf("time scale after focus = %v, want 1", p.TimeScale())
	}
}

func TestDeathDropsFood(t *testing.T) {
	cfg := calmConfig()
	cfg.Food.SpawnInterval = 1e6
	cfg.Entity.EatRange = 0
	p := newTestPopulation(t, cfg, Hooks{})

	var victim components.Organism
	killed := false
	p.Organisms(func(_ ecs.Entity, _ *components.Position, _ *components.Velocity, org *components.Organism) {
		if !killed {
			org.Kill()
			victim = *org
			killed = true
		}
	})

	before := p.FoodCount()
	p.Step(0.01)
	want := dropCount(&victim, cfg.Food.DropOnDeath, cfg.Food.DropGrowthStep, cfg.Food.DropSidesStep)
	if got := p.FoodCount() - before; got != want {
		t.Errorf("dropped food = %d, want %d", got, want)
	}
}

func TestDropCount(t *testing.T) {
	tests := []struct {
		name  string
		size  float64
		birth float64
		sides int
		want  int
	}{
		{"fresh triangle", 10, 10, 3, 2},
		{"grown one step", 20, 10, 3, 3},
		{"grown two steps", 31, 10, 3, 4},
		{"many sides", 10, 10, 9, 4},
		{"shrunk", 5, 10, 3, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &components.Organism{Size: tt.size, BirthSize: tt.birth, Sides: tt.sides}
			if got := dropCount(o, 2, 10, 3); got != tt.want {
				t.Errorf("dropCount = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSnapshotMatchesWorld(t *testing.T) {
	p := newTestPopulation(t, calmConfig(), Hooks{})
	p.Step(0.1)

	s := p.Snapshot(true)
	if len(s.Organisms) != p.Living() || s.Living != p.Living() {
		t.Errorf("snapshot organisms = %d, living %d, want %d", len(s.Organisms), s.Living, p.Living())
	}
	if len(s.Food) != p.FoodCount() {
		t.Errorf("snapshot food = %d, want %d", len(s.Food), p.FoodCount())
	}
	if s.Event != nil {
		t.Errorf("event = %+v with events disabled", s.Event)
	}
	if s.Weather.Current != "clear" || s.Weather.Next != "clear" {
		t.Errorf("weather = %+v, want Clear", s.Weather)
	}
	if s.TimeScale != 1 {
		t.Errorf("time scale = %v", s.TimeScale)
	}
	for _, o := range s.Organisms {
		if o.HealthFraction < 0 || o.HealthFraction > 1 {
			t.Errorf("organism %d health fraction %v out of range", o.ID, o.HealthFraction)
		}
	}
}

func TestTelemetryCallback(t *testing.T) {
	cfg := calmConfig()
	cfg.Telemetry.StatsWindow = 1
	var windows int
	p, err := New(cfg, Options{
		Seed:          1,
		StatsCallback: func(telemetry.WindowStats) { windows++ },
	})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	for i := 0; i < 25; i++ {
		p.Step(0.1)
	}
	if windows != 2 {
		t.Errorf("windows flushed = %d, want 2", windows)
	}
	if p.LastStats().PreyCount != p.Living() {
		t.Errorf("last window prey = %d, want %d", p.LastStats().PreyCount, p.Living())
	}
}

func TestStepTimesEveryPhase(t *testing.T) {
	cfg := calmConfig()
	p := newTestPopulation(t, cfg, Hooks{})

	clock := time.Unix(0, 0)
	p.Perf().SetClock(func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	})

	p.Enqueue("alice", AddEnergy{Amount: 1})
	p.Enqueue("bob", AddEnergy{Amount: 1})
	p.Step(0.1)

	s := p.Perf().Stats()
	for _, ph := range telemetry.Phases {
		if s.PhaseAvg[ph] != time.Millisecond {
			t.Errorf("%s = %v, want 1ms", ph, s.PhaseAvg[ph])
		}
	}
	if want := float64(len(cfg.Population.InitialNames)); s.AvgOrganisms != want {
		t.Errorf("organisms = %v, want %v", s.AvgOrganisms, want)
	}
	if s.CommandsPerTick != 2 {
		t.Errorf("commands per tick = %v, want 2", s.CommandsPerTick)
	}
}
