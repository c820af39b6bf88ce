// Package components defines ECS components for the simulation.
package components

import "github.com/pthm-cable/chatlife/traits"

// Role selects an organism's update strategy.
type Role uint8

const (
	RolePrey Role = iota
	RolePredator
)

// String returns the display name for a Role.
func (r Role) String() string {
	switch r {
	case RolePrey:
		return "prey"
	case RolePredator:
		return "predator"
	default:
		return "unknown"
	}
}

// Position represents an entity's world position.
type Position struct {
	X, Y float64
}

// Velocity is an organism's heading. It is renormalized to unit length each
// tick; the organism's Speed scales it during integration.
type Velocity struct {
	X, Y float64
}

// Organism bundles identity, vitality, genetics and role state.
type Organism struct {
	ID         uint32 `inspect:"label"`
	Name       string `inspect:"label"`
	Lineage    string `inspect:"skip"`
	Generation int    `inspect:"label"`
	Role       Role   `inspect:"label"`

	Speed     float64 `inspect:"label,fmt:%.1f"`
	Size      float64 `inspect:"bar,max:60"`
	BirthSize float64 `inspect:"skip"`
	Sides     int     `inspect:"label"`

	Health    float64 `inspect:"bar,maxfield:MaxHealth"`
	MaxHealth float64 `inspect:"label,fmt:%.0f"`
	DecayMult float64 `inspect:"skip"` // Compounded mutation decay multiplier
	Age       float64 `inspect:"label,fmt:%.1fs"`
	Alive     bool    `inspect:"bool"`

	SinceReproduction float64 `inspect:"label,fmt:%.1fs"`

	Mutations traits.Stack    `inspect:"bar,max:5,labels:SWF|TNK|RGN|MIC|TTN"`
	Primary   traits.Mutation `inspect:"label"`

	Hue       float64 `inspect:"skip"`
	Glow      float64 `inspect:"label,fmt:%.0f"`
	IsChatter bool    `inspect:"bool"`

	AttackCooldown float64 `inspect:"label,fmt:%.1fs"` // Predators only
	TargetID       uint32  `inspect:"skip"`            // Predators only, 0 = none

	FoodEaten int `inspect:"label"`
	Kills     int `inspect:"label"`
	Children  int `inspect:"label"`
}

// IsPredator reports whether the organism uses the predator strategy.
func (o *Organism) IsPredator() bool {
	return o.Role == RolePredator
}

// HealthFraction returns health as a fraction of max health.
func (o *Organism) HealthFraction() float64 {
	if o.MaxHealth <= 0 {
		return 0
	}
	return o.Health / o.MaxHealth
}

// SetSize clamps size to [minSize, maxSize] and recomputes the side count.
func (o *Organism) SetSize(size, minSize, maxSize float64) {
	if size < minSize {
		size = minSize
	}
	if size > maxSize {
		size = maxSize
	}
	o.Size = size
	o.Sides = SidesForSize(size)
}

// Kill marks the organism dead. Death is permanent.
func (o *Organism) Kill() {
	o.Health = 0
	o.Alive = false
}

// Food is a consumable pellet.
type Food struct {
	Size       float64
	Alive      bool
	Age        float64
	PulsePhase float64 // Radians, advances with age
}
