package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/chatlife/components"
	"github.com/pthm-cable/chatlife/config"
)

// CanReproduce reports whether an organism meets the reproduction gate.
// It never mutates the organism. Predators are never eligible.
func CanReproduce(o *components.Organism, cfg *config.Config) bool {
	if !o.Alive || o.IsPredator() {
		return false
	}
	e := cfg.Entity
	return o.Health >= e.ReproductionThreshold &&
		o.SinceReproduction >= e.ReproductionCooldown &&
		o.Size > e.ReproductionMinSize
}

// Reproduce pays the reproduction cost, resets the cooldown and returns a
// child placed at a random angle just outside the parent's body. Callers
// gate it with CanReproduce; it has no failure mode of its own.
func Reproduce(a Agent, rng *rand.Rand, cfg *config.Config, mutationMult float64) Newborn {
	o := a.Org
	o.Health -= cfg.Entity.ReproductionCost
	if o.Health <= 0 {
		o.Health = 0
		o.Kill()
	}
	o.SinceReproduction = 0
	o.Children++

	angle := rng.Float64() * 2 * math.Pi
	dist := o.Size + cfg.Entity.ReproductionGap
	return NewOrganism(rng, cfg, Spawn{
		X:            a.Pos.X + math.Cos(angle)*dist,
		Y:            a.Pos.Y + math.Sin(angle)*dist,
		Parent:       o,
		MutationMult: mutationMult,
	})
}
