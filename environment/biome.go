package environment

import (
	"math/rand"

	"github.com/pthm-cable/chatlife/config"
)

// BiomeType classifies a zone.
type BiomeType uint8

const (
	Safe BiomeType = iota
	Danger
	Fertile

	numBiomeTypes = int(Fertile) + 1
)

var biomeKeys = [numBiomeTypes]string{"safe", "danger", "fertile"}
var biomeNames = [numBiomeTypes]string{"Safe Zone", "Danger Zone", "Fertile Land"}

// String returns the display name.
func (t BiomeType) String() string {
	if int(t) < numBiomeTypes {
		return biomeNames[t]
	}
	return "Unknown"
}

// Key returns the configuration key for the type.
func (t BiomeType) Key() string {
	if int(t) < numBiomeTypes {
		return biomeKeys[t]
	}
	return ""
}

var neutralBiome = config.BiomeEffect{Hunger: 1, Growth: 1, FoodSpawn: 1}

// Zone is a circular biome region.
type Zone struct {
	X, Y   float64
	Radius float64
	Type   BiomeType
}

// Contains reports whether a point lies strictly inside the zone.
func (z Zone) Contains(x, y float64) bool {
	dx, dy := x-z.X, y-z.Y
	return dx*dx+dy*dy < z.Radius*z.Radius
}

// Biomes holds the zones of one generation. Zones may overlap; lookups
// resolve to the earliest generated zone.
type Biomes struct {
	cfg   config.BiomesConfig
	Zones []Zone
}

// NewBiomes returns an empty zone set; call Generate to populate it.
func NewBiomes(cfg config.BiomesConfig) *Biomes {
	return &Biomes{cfg: cfg}
}

// Configure applies a new configuration. Disabling clears the zones.
// Existing zones are otherwise kept until the next Generate.
func (b *Biomes) Configure(cfg config.BiomesConfig) {
	b.cfg = cfg
	if !cfg.Enabled {
		b.Zones = nil
	}
}

// Generate replaces the zones with Count fresh ones inside the world
// margins. Types are assigned round-robin.
func (b *Biomes) Generate(rng *rand.Rand, width, height float64) {
	b.Zones = b.Zones[:0]
	if !b.cfg.Enabled {
		return
	}
	for i := 0; i < b.cfg.Count; i++ {
		b.Zones = append(b.Zones, Zone{
			X:      span(rng, b.cfg.Margin, width-b.cfg.Margin),
			Y:      span(rng, b.cfg.Margin, height-b.cfg.Margin),
			Radius: span(rng, b.cfg.MinRadius, b.cfg.MaxRadius),
			Type:   BiomeType(i % numBiomeTypes),
		})
	}
}

// span samples [lo, hi), collapsing to the midpoint when the range is inverted.
func span(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return (lo + hi) / 2
	}
	return lo + rng.Float64()*(hi-lo)
}

// At returns the first zone containing the point.
func (b *Biomes) At(x, y float64) (Zone, bool) {
	for _, z := range b.Zones {
		if z.Contains(x, y) {
			return z, true
		}
	}
	return Zone{}, false
}

// Effect returns the modifiers at a point; neutral outside every zone.
func (b *Biomes) Effect(x, y float64) config.BiomeEffect {
	z, ok := b.At(x, y)
	if !ok {
		return neutralBiome
	}
	return b.TypeEffect(z.Type)
}

// TypeEffect returns the configured modifiers for a biome type.
func (b *Biomes) TypeEffect(t BiomeType) config.BiomeEffect {
	if e, ok := b.cfg.Types[t.Key()]; ok {
		return e
	}
	return neutralBiome
}
