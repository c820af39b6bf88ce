package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/chatlife/components"
	"github.com/pthm-cable/chatlife/config"
)

// Env answers the environment queries an organism makes during its update.
// Spatial queries take a world position; the rest are global.
type Env interface {
	HungerMult(x, y float64) float64
	GrowthMult(x, y float64) float64
	SpeedMult() float64
	DetectionMult() float64
	CollisionDamageMult() float64
	PredatorImmune(x, y float64) bool
	PredatorAttraction(x, y float64) bool
}

// NeutralEnv applies no modifiers.
type NeutralEnv struct{}

func (NeutralEnv) HungerMult(x, y float64) float64      { return 1 }
func (NeutralEnv) GrowthMult(x, y float64) float64      { return 1 }
func (NeutralEnv) SpeedMult() float64                   { return 1 }
func (NeutralEnv) DetectionMult() float64               { return 1 }
func (NeutralEnv) CollisionDamageMult() float64         { return 1 }
func (NeutralEnv) PredatorImmune(x, y float64) bool     { return false }
func (NeutralEnv) PredatorAttraction(x, y float64) bool { return false }

// Observer receives interaction events raised during updates. Methods are
// called synchronously from the update pass.
type Observer interface {
	Ate(a Agent, p Pellet)
	Attacked(predator, prey Agent)
}

// Context carries everything an organism update reads.
type Context struct {
	DT            float64
	Width, Height float64
	Food          []Pellet
	Agents        []Agent
	Env           Env
	Rng           *rand.Rand
	Cfg           *config.Config
	Observer      Observer // Optional

	// Grid indexes Agents by their positions at the start of the pass.
	// Without it collisions scan every agent.
	Grid     *SpatialGrid
	MaxReach float64 // Largest organism radius, for grid queries
	MaxStep  float64 // Farthest any organism travels in one pass
	nearby   []int
}

// UseGrid rebuilds g from ctx.Agents and sizes the query slack from the
// largest radius and the fastest organism.
func (ctx *Context) UseGrid(g *SpatialGrid) {
	g.Resize(ctx.Width, ctx.Height)
	g.Build(ctx.Agents)
	ctx.Grid = g
	ctx.MaxReach, ctx.MaxStep = 0, 0
	for _, a := range ctx.Agents {
		ctx.MaxReach = max(ctx.MaxReach, a.Org.Size)
		ctx.MaxStep = max(ctx.MaxStep, a.Org.Speed)
	}
	ctx.MaxStep *= ctx.Env.SpeedMult() * ctx.DT
}

// Update advances one organism by ctx.DT using the strategy for its role.
// Dead organisms are skipped.
func Update(a Agent, ctx *Context) {
	if !a.Org.Alive {
		return
	}
	switch a.Org.Role {
	case components.RolePredator:
		updatePredator(a, ctx)
	default:
		updatePrey(a, ctx)
	}
}

func updatePrey(a Agent, ctx *Context) {
	e := ctx.Cfg.Entity
	o, pos := a.Org, a.Pos

	o.SinceReproduction += ctx.DT
	if decay(o, e.DecayRate*o.DecayMult*ctx.Env.HungerMult(pos.X, pos.Y)*ctx.DT) {
		return
	}

	if o.Health > e.GrowthHealthFraction*o.MaxHealth && o.Size < e.MaxSize {
		o.SetSize(o.Size+e.GrowthRate*ctx.Env.GrowthMult(pos.X, pos.Y)*ctx.DT, e.MinSize, e.MaxSize)
	}

	forage(a, ctx)
	collide(a, ctx)
	wander(a, ctx)
	integrate(a, ctx)
	o.Age += ctx.DT
}

func updatePredator(a Agent, ctx *Context) {
	p := ctx.Cfg.Predator
	o := a.Org

	o.AttackCooldown -= ctx.DT
	if decay(o, ctx.Cfg.Entity.DecayRate*p.DecayFactor*ctx.DT) {
		return
	}

	if !hunt(a, ctx) {
		o.TargetID = 0
		wander(a, ctx)
	}
	integrate(a, ctx)
	o.Age += ctx.DT
}

// decay removes health and reports whether the organism died.
func decay(o *components.Organism, amount float64) bool {
	o.Health -= amount
	if o.Health > o.MaxHealth {
		o.Health = o.MaxHealth
	}
	if o.Health <= 0 {
		o.Kill()
		return true
	}
	return false
}

// Damage removes health from an organism, killing it at zero.
func Damage(o *components.Organism, amount float64) {
	if !o.Alive || amount <= 0 {
		return
	}
	o.Health -= amount
	if o.Health <= 0 {
		o.Kill()
	}
}

// Heal restores health up to the organism's maximum.
func Heal(o *components.Organism, amount float64) {
	o.Health = math.Min(o.Health+amount, o.MaxHealth)
}

// forage steers toward the nearest visible food and eats it when in range.
func forage(a Agent, ctx *Context) {
	e := ctx.Cfg.Entity
	pos, vel := a.Pos, a.Vel

	rangeLimit := e.FoodDetectionRange * ctx.Env.DetectionMult()
	nearest := -1
	nearestDist := math.Inf(1)
	for i := range ctx.Food {
		f := &ctx.Food[i]
		if !f.Food.Alive {
			continue
		}
		d := Distance(pos.X, pos.Y, f.Pos.X, f.Pos.Y)
		// Strict comparison keeps the first food found on ties.
		if d < nearestDist && d < rangeLimit {
			nearest, nearestDist = i, d
		}
	}
	if nearest < 0 {
		return
	}

	target := ctx.Food[nearest]
	if nearestDist > 0 {
		seek := e.FoodAttractionStrength * ctx.DT
		vel.X += (target.Pos.X - pos.X) / nearestDist * seek
		vel.Y += (target.Pos.Y - pos.Y) / nearestDist * seek
	}
	if nearestDist < e.EatRange {
		target.Food.Alive = false
		Heal(a.Org, e.FoodEnergyGain)
		a.Org.FoodEaten++
		if ctx.Observer != nil {
			ctx.Observer.Ate(a, target)
		}
	}
}

// collide resolves overlap between a and every other living organism.
// Both sides of a pair take damage, move apart by half the overlap and
// reverse heading, so each pair is resolved once per tick by whichever
// member updates first.
func collide(a Agent, ctx *Context) {
	dmg := ctx.Cfg.Entity.CollisionDamage * ctx.DT * ctx.Env.CollisionDamageMult()
	if ctx.Grid == nil {
		for _, b := range ctx.Agents {
			if !collidePair(a, b, dmg, ctx.Rng) {
				return
			}
		}
		return
	}

	// A neighbour may have moved up to MaxStep since the grid was built.
	// The extra cell absorbs separation pushes, which never exceed MaxSize.
	reach := a.Org.Size + ctx.MaxReach + ctx.MaxStep + ctx.Grid.CellSize()
	ctx.nearby = ctx.Grid.QueryInto(ctx.nearby[:0], a.Pos.X, a.Pos.Y, reach)
	for _, i := range ctx.nearby {
		if !collidePair(a, ctx.Agents[i], dmg, ctx.Rng) {
			return
		}
	}
}

// collidePair resolves a against b and reports whether a is still alive.
func collidePair(a, b Agent, dmg float64, rng *rand.Rand) bool {
	if b.Org == a.Org || !b.Org.Alive {
		return true
	}
	if Separate(a, b, rng) {
		Damage(a.Org, dmg)
		Damage(b.Org, dmg)
	}
	return a.Org.Alive
}

// Separate pushes two overlapping organisms apart along the axis between
// their centres and reverses both headings. It reports whether they overlapped.
func Separate(a, b Agent, rng *rand.Rand) bool {
	minDist := a.Org.Size + b.Org.Size
	d := Distance(a.Pos.X, a.Pos.Y, b.Pos.X, b.Pos.Y)
	if d >= minDist {
		return false
	}

	var nx, ny float64
	if d > 0 {
		nx, ny = (a.Pos.X-b.Pos.X)/d, (a.Pos.Y-b.Pos.Y)/d
	} else {
		nx, ny = randomUnit(rng)
	}
	push := (minDist - d) * 0.5
	a.Pos.X += nx * push
	a.Pos.Y += ny * push
	b.Pos.X -= nx * push
	b.Pos.Y -= ny * push

	a.Vel.X, a.Vel.Y = -a.Vel.X, -a.Vel.Y
	b.Vel.X, b.Vel.Y = -b.Vel.X, -b.Vel.Y
	return true
}

// hunt steers a predator at the nearest visible prey and attacks it when in
// range and off cooldown. It reports whether a target was found.
func hunt(a Agent, ctx *Context) bool {
	p := ctx.Cfg.Predator
	pos := a.Pos
	base := p.DetectionRange * ctx.Env.DetectionMult()
	attraction := ctx.Cfg.Biomes.AttractionRangeMult

	var target *Agent
	nearestDist := math.Inf(1)
	for i := range ctx.Agents {
		b := &ctx.Agents[i]
		if b.Org == a.Org || !b.Org.Alive || b.Org.IsPredator() {
			continue
		}
		if ctx.Env.PredatorImmune(b.Pos.X, b.Pos.Y) {
			continue
		}
		limit := base
		if ctx.Env.PredatorAttraction(b.Pos.X, b.Pos.Y) {
			limit *= attraction
		}
		d := Distance(pos.X, pos.Y, b.Pos.X, b.Pos.Y)
		if d < nearestDist && d < limit {
			target, nearestDist = b, d
		}
	}
	if target == nil {
		return false
	}

	o := a.Org
	o.TargetID = target.Org.ID
	if nearestDist > 0 {
		a.Vel.X = (target.Pos.X - pos.X) / nearestDist
		a.Vel.Y = (target.Pos.Y - pos.Y) / nearestDist
	}
	if nearestDist < p.AttackRange && o.AttackCooldown <= 0 {
		Damage(target.Org, p.AttackDamage*p.AttackScaler)
		o.AttackCooldown = p.AttackCooldown
		Heal(o, p.AttackHeal)
		if !target.Org.Alive {
			o.Kills++
		}
		if ctx.Observer != nil {
			ctx.Observer.Attacked(a, *target)
		}
	}
	return true
}

// wander perturbs the heading and renormalizes it.
func wander(a Agent, ctx *Context) {
	w := ctx.Cfg.Entity.WanderStrength
	a.Vel.X += RandRange(ctx.Rng, -w, w) * ctx.DT
	a.Vel.Y += RandRange(ctx.Rng, -w, w) * ctx.DT
	a.Vel.X, a.Vel.Y = normalize(a.Vel.X, a.Vel.Y)
}

// integrate moves the organism and reflects it off the world edges.
func integrate(a Agent, ctx *Context) {
	pos, vel, o := a.Pos, a.Vel, a.Org
	step := o.Speed * ctx.Env.SpeedMult() * ctx.DT
	pos.X += vel.X * step
	pos.Y += vel.Y * step
	Reflect(pos, vel, o.Size, ctx.Width, ctx.Height)
}

// Reflect clamps a position to [size, bound-size] on each axis and points
// the heading back into the world when it touched an edge.
func Reflect(pos *components.Position, vel *components.Velocity, size, width, height float64) {
	if pos.X < size {
		pos.X = size
		vel.X = math.Abs(vel.X)
	}
	if pos.X > width-size {
		pos.X = width - size
		vel.X = -math.Abs(vel.X)
	}
	if pos.Y < size {
		pos.Y = size
		vel.Y = math.Abs(vel.Y)
	}
	if pos.Y > height-size {
		pos.Y = height - size
		vel.Y = -math.Abs(vel.Y)
	}
}
