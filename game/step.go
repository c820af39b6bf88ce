package game

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/chatlife/components"
	"github.com/pthm-cable/chatlife/environment"
	"github.com/pthm-cable/chatlife/systems"
	"github.com/pthm-cable/chatlife/telemetry"
)

// Step advances the world by one tick of realDt real seconds. The delta is
// clamped to the configured maximum and scaled by the death-cam time scale,
// which is sampled before the focus counts down.
func (p *Population) Step(realDt float64) {
	if realDt < 0 || math.IsNaN(realDt) {
		realDt = 0
	}
	if realDt > p.cfg.Physics.MaxDT {
		realDt = p.cfg.Physics.MaxDT
	}
	scale := p.focus.TimeScale()
	p.focus.Update(realDt)
	dt := realDt * scale

	p.perf.StartTick()

	p.perf.StartPhase(telemetry.PhaseCommands)
	drained := p.applyCommands()

	p.perf.StartPhase(telemetry.PhaseEnvironment)
	p.updateEnvironment(dt)
	p.AddEnergy(-p.cfg.Energy.DecayRate * dt)

	p.perf.StartPhase(telemetry.PhaseSpawning)
	p.updateFoodSpawner(dt)
	p.updatePredatorSpawner(dt)

	p.perf.StartPhase(telemetry.PhaseUpdate)
	p.updateOrganisms(dt)
	updated := len(p.agents)

	p.perf.StartPhase(telemetry.PhaseReproduction)
	p.updateReproduction()

	p.perf.StartPhase(telemetry.PhaseCleanup)
	p.cleanupDead()
	p.admitNewborns()
	p.enforceFloor()

	p.perf.StartPhase(telemetry.PhaseEffects)
	p.particles.Update(dt)
	p.ageFood(dt)
	p.updateLeaderboard(dt)

	p.perf.StartPhase(telemetry.PhaseTelemetry)
	p.tick++
	p.simTime += dt
	p.collector.Tick()
	p.flushTelemetry()

	p.perf.EndTick(telemetry.TickLoad{Commands: drained, Organisms: updated})
}

// TimeScale returns the multiplier the next Step applies to simulated time.
func (p *Population) TimeScale() float64 {
	return p.focus.TimeScale()
}

// updateEnvironment advances weather and events and runs event one-shots.
func (p *Population) updateEnvironment(dt float64) {
	env := p.env
	if env.Weather.Update(dt, p.rng) {
		p.collector.RecordWeatherShift()
		slog.Info("weather_changed", "weather", env.Weather.Current.String(), "tick", p.tick)
		p.notify(Notification{
			Kind:  NotifyWeather,
			Title: "Weather: " + env.Weather.Current.String(),
		})
	}

	if ev, started := env.Events.Update(dt, p.rng); started {
		p.beginEvent(ev)
	}
	env.Refresh()
}

// TriggerEvent starts a world event immediately, replacing any active one.
func (p *Population) TriggerEvent(ev environment.EventType) {
	p.env.Events.Start(ev)
	p.beginEvent(ev)
	p.env.Refresh()
}

func (p *Population) beginEvent(ev environment.EventType) {
	p.collector.RecordEventStart()
	slog.Info("event_started", "event", ev.String(), "tick", p.tick)
	p.notify(Notification{Kind: NotifyEvent, Title: ev.String(), Text: ev.Description()})

	switch ev {
	case environment.EvolutionBoom:
		cooldown := p.cfg.Entity.ReproductionCooldown
		query := p.orgFilter.Query()
		for query.Next() {
			_, _, org := query.Get()
			if org.Alive && !org.IsPredator() && org.SinceReproduction < cooldown {
				org.SinceReproduction = cooldown
			}
		}
	case environment.Famine:
		// Cleared food is removed by the cleanup pass.
		query := p.foodFilter.Query()
		for query.Next() {
			_, food := query.Get()
			food.Alive = false
		}
	case environment.Abundance:
		for range p.cfg.Events.AbundanceBurst {
			x, y := p.randomPoint(p.cfg.Food.SpawnMargin)
			p.spawnFoodAt(x, y)
		}
	}
}

// updateFoodSpawner drops food on a timer whose interval shrinks and whose
// batch grows with world energy.
func (p *Population) updateFoodSpawner(dt float64) {
	f := p.cfg.Food
	frac := p.energyFraction()
	interval := f.SpawnInterval / (0.5 + frac)

	p.foodTimer += dt
	if p.foodTimer < interval {
		return
	}
	p.foodTimer = 0
	if p.env.Events.BlocksFood() {
		return
	}
	n := int(math.Ceil(f.SpawnAmount * frac * p.env.FoodSpawnMult()))
	p.spawnFoodTimed(n)
}

// updatePredatorSpawner rolls for a predator on a fixed timer once the
// population is large enough.
func (p *Population) updatePredatorSpawner(dt float64) {
	pc := p.cfg.Predator
	p.predatorTimer += dt
	if p.predatorTimer < pc.SpawnInterval {
		return
	}
	p.predatorTimer = 0
	if p.Living() <= pc.MinPopulation || p.rng.Float64() >= pc.SpawnRollChance {
		return
	}
	x, y := p.randomPoint(spawnMargin)
	p.admit(systems.NewPredator(p.rng, p.cfg, x, y))
	p.particles.Emit(x, y, systems.ParticleSpawn, summonParticles)
	slog.Info("predator_spawned", "x", x, "y", y, "tick", p.tick)
}

// tickObserver forwards interactions raised during the update pass.
type tickObserver struct {
	p *Population
}

func (o tickObserver) Ate(a systems.Agent, pellet systems.Pellet) {
	o.p.collector.RecordFoodEaten()
	o.p.particles.Emit(pellet.Pos.X, pellet.Pos.Y, systems.ParticleFood, foodParticles)
}

func (o tickObserver) Attacked(predator, prey systems.Agent) {
	o.p.collector.RecordAttack(!prey.Org.Alive)
}

// gather fills the agent and pellet scratch slices. The pointers stay valid
// until the next structural change of the world.
func (p *Population) gather() {
	p.agents = p.agents[:0]
	query := p.orgFilter.Query()
	for query.Next() {
		pos, vel, org := query.Get()
		p.agents = append(p.agents, systems.Agent{Entity: query.Entity(), Pos: pos, Vel: vel, Org: org})
	}

	p.pellets = p.pellets[:0]
	fq := p.foodFilter.Query()
	for fq.Next() {
		pos, food := fq.Get()
		p.pellets = append(p.pellets, systems.Pellet{Entity: fq.Entity(), Pos: pos, Food: food})
	}
}

// updateOrganisms runs every living organism's behavior.
func (p *Population) updateOrganisms(dt float64) {
	p.gather()
	ctx := &systems.Context{
		DT:       dt,
		Width:    p.cfg.Derived.WorldW,
		Height:   p.cfg.Derived.WorldH,
		Food:     p.pellets,
		Agents:   p.agents,
		Env:      p.env,
		Rng:      p.rng,
		Cfg:      p.cfg,
		Observer: tickObserver{p},
	}
	if p.grid != nil {
		ctx.UseGrid(p.grid)
	}
	for _, a := range p.agents {
		systems.Update(a, ctx)
	}
}

// updateReproduction collects children from eligible prey. The cap is
// computed once; a child is accepted only while living plus accepted
// children stays below it.
func (p *Population) updateReproduction() {
	p.newborns = p.newborns[:0]
	limit := p.PopulationCap()
	living := 0
	for _, a := range p.agents {
		if a.Org.Alive {
			living++
		}
	}

	mult := p.env.MutationMult()
	for _, a := range p.agents {
		if living+len(p.newborns) >= limit {
			break
		}
		if !systems.CanReproduce(a.Org, p.cfg) {
			continue
		}
		p.newborns = append(p.newborns, systems.Reproduce(a, p.rng, p.cfg, mult))
	}
}

// cleanupDead removes dead organisms and eaten food, then scatters the
// food each dead organism drops.
func (p *Population) cleanupDead() {
	p.doomed = p.doomed[:0]
	p.drops = p.drops[:0]

	for _, a := range p.agents {
		if a.Org.Alive {
			continue
		}
		p.doomed = append(p.doomed, a.Entity)
		p.recordDeath(a)
	}

	fq := p.foodFilter.Query()
	for fq.Next() {
		_, food := fq.Get()
		if !food.Alive {
			p.doomed = append(p.doomed, fq.Entity())
		}
	}

	for _, e := range p.doomed {
		if p.world.Alive(e) {
			p.world.RemoveEntity(e)
		}
	}
	// Agent pointers are stale from here on.
	p.agents = p.agents[:0]
	p.pellets = p.pellets[:0]

	for _, pos := range p.drops {
		p.spawnFoodAt(pos.X, pos.Y)
	}
}

// recordDeath accounts for one dead organism and queues its dropped food.
func (p *Population) recordDeath(a systems.Agent) {
	o, pos := a.Org, a.Pos
	p.deaths++
	p.collector.RecordDeath(o.Role)
	p.particles.Emit(pos.X, pos.Y, systems.ParticleDeath, deathParticles)

	n := dropCount(o, p.cfg.Food.DropOnDeath, p.cfg.Food.DropGrowthStep, p.cfg.Food.DropSidesStep)
	for i := range n {
		angle := float64(i) / float64(n) * 2 * math.Pi
		p.drops = append(p.drops, components.Position{
			X: pos.X + math.Cos(angle)*p.cfg.Food.DropRadius,
			Y: pos.Y + math.Sin(angle)*p.cfg.Food.DropRadius,
		})
	}

	fx := p.cfg.Effects
	if p.rng.Float64() < fx.DeathCamChance && p.focus.Start(pos.X, pos.Y, fx.DeathCamDuration, fx.SlowMoScale) {
		if p.hooks.OnDeathCam != nil {
			p.hooks.OnDeathCam(pos.X, pos.Y)
		}
	}
	if p.hooks.OnDeath != nil {
		p.hooks.OnDeath(*o, pos.X, pos.Y)
	}

	if p.store != nil {
		p.deathRecords = append(p.deathRecords, telemetry.DeathRecord{
			SimTime:    p.simTime,
			OrganismID: o.ID,
			Name:       o.Name,
			Lineage:    o.Lineage,
			Role:       o.Role.String(),
			Generation: o.Generation,
			Age:        o.Age,
			Size:       o.Size,
			FoodEaten:  o.FoodEaten,
			Kills:      o.Kills,
			Children:   o.Children,
			Chatter:    o.IsChatter,
		})
	}
}

// dropCount is the food a dead organism leaves: a base amount plus one per
// growth step since birth and one per sidesStep sides above a triangle.
func dropCount(o *components.Organism, base int, growthStep float64, sidesStep int) int {
	n := base
	if growthStep > 0 {
		if grown := o.Size - o.BirthSize; grown > 0 {
			n += int(math.Floor(grown / growthStep))
		}
	}
	if sidesStep > 0 && o.Sides > 3 {
		n += (o.Sides - 3) / sidesStep
	}
	return max(n, 0)
}

// admitNewborns inserts the children collected during reproduction.
func (p *Population) admitNewborns() {
	for _, n := range p.newborns {
		p.admit(n)
		p.particles.Emit(n.Pos.X, n.Pos.Y, systems.ParticleSpawn, birthParticles)
	}
	p.newborns = p.newborns[:0]
}

// enforceFloor respawns organisms until the population floor is met.
func (p *Population) enforceFloor() {
	living := p.Living()
	floor := p.cfg.Population.Floor
	if living >= floor {
		return
	}
	names := p.cfg.Population.RespawnNames
	for ; living < floor; living++ {
		x, y := p.randomPoint(spawnMargin)
		if p.rng.Float64() < p.cfg.Predator.SpawnChance {
			p.admit(systems.NewPredator(p.rng, p.cfg, x, y))
		} else {
			name := "Respawn"
			if len(names) > 0 {
				name = names[p.rng.Intn(len(names))]
			}
			p.admit(systems.NewOrganism(p.rng, p.cfg, systems.Spawn{X: x, Y: y, Lineage: name}))
		}
		p.particles.Emit(x, y, systems.ParticleSpawn, summonParticles)
	}
	slog.Debug("population_floor", "floor", floor, "tick", p.tick)
}

// ageFood advances food age and its pulse animation.
func (p *Population) ageFood(dt float64) {
	rate := p.cfg.Food.PulseRate
	query := p.foodFilter.Query()
	for query.Next() {
		_, food := query.Get()
		food.Age += dt
		food.PulsePhase = math.Mod(food.PulsePhase+rate*dt, 2*math.Pi)
	}
}

// updateLeaderboard re-ranks living prey on the leaderboard's own timer.
func (p *Population) updateLeaderboard(dt float64) {
	var orgs []*components.Organism
	query := p.orgFilter.Query()
	for query.Next() {
		_, _, org := query.Get()
		orgs = append(orgs, org)
	}
	p.leaderboard.Update(dt, orgs)
}

// Organisms calls fn for every organism entity. fn must not add or remove
// entities.
func (p *Population) Organisms(fn func(e ecs.Entity, pos *components.Position, vel *components.Velocity, org *components.Organism)) {
	query := p.orgFilter.Query()
	for query.Next() {
		pos, vel, org := query.Get()
		fn(query.Entity(), pos, vel, org)
	}
}

// Foods calls fn for every food entity. fn must not add or remove entities.
func (p *Population) Foods(fn func(pos *components.Position, food *components.Food)) {
	query := p.foodFilter.Query()
	for query.Next() {
		pos, food := query.Get()
		fn(pos, food)
	}
}

// OrganismByID returns a copy of the organism with the given ID.
func (p *Population) OrganismByID(id uint32) (components.Organism, components.Position, bool) {
	var (
		found components.Organism
		at    components.Position
		ok    bool
	)
	query := p.orgFilter.Query()
	for query.Next() {
		pos, _, org := query.Get()
		if !ok && org.ID == id {
			found, at, ok = *org, *pos, true
		}
	}
	return found, at, ok
}

// String summarizes the population for logs.
func (p *Population) String() string {
	return fmt.Sprintf("tick=%d living=%d food=%d energy=%.1f cap=%d",
		p.tick, p.Living(), p.FoodCount(), p.energy, p.PopulationCap())
}
