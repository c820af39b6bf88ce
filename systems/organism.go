package systems

import (
	"math"
	"math/rand"
	"unicode/utf8"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/chatlife/components"
	"github.com/pthm-cable/chatlife/config"
	"github.com/pthm-cable/chatlife/traits"
)

// PredatorLineage is the lineage and display name of every predator.
const PredatorLineage = "PREDATOR"

// Agent groups an organism entity with pointers into its components.
// Pointers are valid until the next structural change of the ECS world.
type Agent struct {
	Entity ecs.Entity
	Pos    *components.Position
	Vel    *components.Velocity
	Org    *components.Organism
}

// Pellet groups a food entity with pointers into its components.
type Pellet struct {
	Entity ecs.Entity
	Pos    *components.Position
	Food   *components.Food
}

// Newborn is an organism that has been built but not yet admitted into
// the ECS world.
type Newborn struct {
	Pos components.Position
	Vel components.Velocity
	Org components.Organism
}

// Spawn describes where and from what an organism is built.
type Spawn struct {
	X, Y    float64
	Lineage string // Ignored when Parent is set

	// Parent is nil for root spawns. Children inherit its lineage, stack,
	// primary mutation and a reduced size basis.
	Parent *components.Organism

	// MutationMult scales the per-birth mutation chance (1 = unmodified).
	MutationMult float64
}

// NewOrganism builds a prey organism. It rolls for a new mutation, folds the
// inherited stack into its multipliers and derives size, speed, health and
// name from the result. The caller assigns the ID.
func NewOrganism(rng *rand.Rand, cfg *config.Config, s Spawn) Newborn {
	e := cfg.Entity

	lineage := s.Lineage
	generation := 0
	var stack traits.Stack
	primary := traits.NoMutation
	sizeBasis := e.BaseSize
	if s.Parent != nil {
		lineage = s.Parent.Lineage
		generation = s.Parent.Generation + 1
		stack = s.Parent.Mutations
		primary = s.Parent.Primary
		sizeBasis = s.Parent.Size * e.ChildSizeFactor
	}

	mult := s.MutationMult
	if mult <= 0 {
		mult = 1
	}
	if rng.Float64() < e.MutationChance*mult {
		m := traits.Roll(rng)
		stack = stack.Add(m)
		primary = m
	}

	fx := traits.Compound(stack)

	org := components.Organism{
		Name:       traits.DisplayName(stack, lineage, generation),
		Lineage:    lineage,
		Generation: generation,
		Role:       components.RolePrey,
		Speed:      (e.BaseSpeed + RandRange(rng, -e.SpeedVariance, e.SpeedVariance)) * fx.Speed,
		Health:     e.StartingHealth * fx.Health * e.HealthScaler,
		MaxHealth:  e.MaxHealth * fx.Health * e.HealthScaler,
		DecayMult:  fx.Decay,
		Alive:      true,
		Mutations:  stack,
		Primary:    primary,
		Glow:       fx.Glow,
	}
	org.SetSize(sizeBasis*fx.Size*e.SizeScaler, e.MinSize, e.MaxSize)
	org.BirthSize = org.Size
	if org.Health > org.MaxHealth {
		org.Health = org.MaxHealth
	}
	if primary.Valid() {
		org.Hue = traits.Catalog[primary].Hue
	} else {
		org.Hue = rng.Float64() * 360
	}

	vx, vy := randomUnit(rng)
	return Newborn{
		Pos: components.Position{X: s.X, Y: s.Y},
		Vel: components.Velocity{X: vx, Y: vy},
		Org: org,
	}
}

// NewPredator builds a predator. Predators carry no mutations.
func NewPredator(rng *rand.Rand, cfg *config.Config, x, y float64) Newborn {
	p := cfg.Predator
	org := components.Organism{
		Name:      PredatorLineage,
		Lineage:   PredatorLineage,
		Role:      components.RolePredator,
		Speed:     p.Speed,
		Health:    p.MaxHealth * cfg.Entity.HealthScaler,
		MaxHealth: p.MaxHealth * cfg.Entity.HealthScaler,
		DecayMult: 1,
		Alive:     true,
		Primary:   traits.NoMutation,
		Hue:       p.Hue,
	}
	// Predators may exceed the prey size range.
	org.SetSize(p.BaseSize, cfg.Entity.MinSize, math.Max(cfg.Entity.MaxSize, p.BaseSize))
	org.BirthSize = org.Size

	vx, vy := randomUnit(rng)
	return Newborn{
		Pos: components.Position{X: x, Y: y},
		Vel: components.Velocity{X: vx, Y: vy},
		Org: org,
	}
}

// ChatterHue derives a stable hue from the first rune of a name.
func ChatterHue(name string) float64 {
	r, size := utf8.DecodeRuneInString(name)
	if size == 0 {
		return 0
	}
	return math.Mod(float64(r)*137.5, 360)
}

// MarkChatter flags a newborn as spawned on behalf of a chat participant.
func MarkChatter(n *Newborn, glow float64) {
	n.Org.IsChatter = true
	n.Org.Glow += glow
	n.Org.Hue = ChatterHue(n.Org.Lineage)
}
