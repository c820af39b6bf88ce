// Package traits defines the mutation catalog and how inherited mutations
// compound into an organism's characteristics.
package traits

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
)

// Mutation identifies a catalog entry.
type Mutation uint8

const (
	Swift Mutation = iota // Faster, smaller
	Tank                  // Slower, larger, tougher
	Regen                 // Slower health decay, brighter glow
	Micro                 // Much smaller, faster
	Titan                 // Larger, tougher, slower

	// Count is the number of catalog entries.
	Count = int(Titan) + 1
)

// NoMutation marks an organism without a primary mutation.
const NoMutation Mutation = 255

// Effect is the modifier set a single copy of a mutation applies.
// Speed, Size, Health and Decay are multipliers; Glow is additive.
type Effect struct {
	Key    string
	Name   string
	Hue    float64
	Speed  float64
	Size   float64
	Health float64
	Decay  float64
	Glow   float64
}

// Catalog lists every mutation in draw order.
var Catalog = [Count]Effect{
	Swift: {Key: "SPEED", Name: "Swift", Hue: 180, Speed: 1.5, Size: 0.8, Health: 1, Decay: 1},
	Tank:  {Key: "TANK", Name: "Tank", Hue: 0, Speed: 0.7, Size: 1.3, Health: 1.5, Decay: 1},
	Regen: {Key: "REGEN", Name: "Regen", Hue: 120, Speed: 1, Size: 1, Health: 1, Decay: 0.5, Glow: 20},
	Micro: {Key: "TINY", Name: "Micro", Hue: 280, Speed: 1.3, Size: 0.5, Health: 1, Decay: 1},
	Titan: {Key: "GIANT", Name: "Titan", Hue: 40, Speed: 0.8, Size: 1.5, Health: 1.3, Decay: 1},
}

// String returns the display name.
func (m Mutation) String() string {
	if int(m) < Count {
		return Catalog[m].Name
	}
	return "none"
}

// Valid reports whether m refers to a catalog entry.
func (m Mutation) Valid() bool {
	return int(m) < Count
}

// Roll draws a mutation uniformly from the catalog.
func Roll(rng *rand.Rand) Mutation {
	return Mutation(rng.Intn(Count))
}

// Stack counts inherited copies of each mutation.
// It is a value type: assigning it copies it.
type Stack [Count]uint16

// Add returns a copy of s with one more copy of m.
func (s Stack) Add(m Mutation) Stack {
	if m.Valid() {
		s[m]++
	}
	return s
}

// Total returns the number of mutations in the stack.
func (s Stack) Total() int {
	n := 0
	for _, c := range s {
		n += int(c)
	}
	return n
}

// Multipliers are the compounded effects of a whole stack.
type Multipliers struct {
	Speed  float64
	Size   float64
	Health float64
	Decay  float64
	Glow   float64
}

// Identity is the multiplier set of an empty stack.
var Identity = Multipliers{Speed: 1, Size: 1, Health: 1, Decay: 1}

// Compound folds the stack: each multiplier is raised to its count and
// multiplied in, glow is added count times. The result depends only on the
// counts, never on the order mutations were acquired.
func Compound(s Stack) Multipliers {
	m := Identity
	for i, c := range s {
		if c == 0 {
			continue
		}
		e := Catalog[i]
		n := float64(c)
		m.Speed *= math.Pow(e.Speed, n)
		m.Size *= math.Pow(e.Size, n)
		m.Health *= math.Pow(e.Health, n)
		m.Decay *= math.Pow(e.Decay, n)
		m.Glow += e.Glow * n
	}
	return m
}

// Summary lists the stack in catalog order, e.g. "Swift x2, Regen".
func Summary(s Stack) string {
	parts := make([]string, 0, Count)
	for i, c := range s {
		switch {
		case c == 0:
		case c == 1:
			parts = append(parts, Catalog[i].Name)
		default:
			parts = append(parts, fmt.Sprintf("%s x%d", Catalog[i].Name, c))
		}
	}
	return strings.Join(parts, ", ")
}

// DisplayName builds an organism's name from its stack, lineage and generation.
func DisplayName(s Stack, lineage string, generation int) string {
	parts := make([]string, 0, 3)
	if sum := Summary(s); sum != "" {
		parts = append(parts, sum)
	}
	parts = append(parts, lineage)
	if generation > 0 {
		parts = append(parts, fmt.Sprintf("G%d", generation))
	}
	return strings.Join(parts, " ")
}
