package systems

import (
	"math/rand"
)

// ParticleType identifies the type of effect particle.
type ParticleType uint8

const (
	ParticleSpawn ParticleType = iota
	ParticleDeath
	ParticleHeal
	ParticleFood
	ParticleExplosion
)

// String returns the particle type name.
func (t ParticleType) String() string {
	switch t {
	case ParticleSpawn:
		return "spawn"
	case ParticleDeath:
		return "death"
	case ParticleHeal:
		return "heal"
	case ParticleFood:
		return "food"
	case ParticleExplosion:
		return "explosion"
	default:
		return "unknown"
	}
}

// EffectParticle represents a visual feedback particle.
type EffectParticle struct {
	X, Y       float64
	VelX, VelY float64
	Age        float64
	MaxAge     float64
	Type       ParticleType
	Size       float64
	Hue        float64
}

// Fade returns remaining life as a fraction in [0, 1].
func (p *EffectParticle) Fade() float64 {
	if p.MaxAge <= 0 {
		return 0
	}
	return Clamp01(1 - p.Age/p.MaxAge)
}

// particleGravity pulls particles down in world units per second squared.
const particleGravity = 200

// ParticleSystem manages effect particles for visual feedback.
type ParticleSystem struct {
	Particles    []EffectParticle
	maxParticles int
	rng          *rand.Rand
}

// NewParticleSystem creates a new particle system.
func NewParticleSystem(rng *rand.Rand, maxParticles int) *ParticleSystem {
	return &ParticleSystem{
		Particles:    make([]EffectParticle, 0, maxParticles),
		maxParticles: maxParticles,
		rng:          rng,
	}
}

// Update processes all particles.
func (s *ParticleSystem) Update(dt float64) {
	alive := 0
	for i := range s.Particles {
		p := &s.Particles[i]

		p.Age += dt
		if p.Age >= p.MaxAge {
			continue
		}

		p.X += p.VelX * dt
		p.Y += p.VelY * dt
		p.VelY += particleGravity * dt
		p.VelX *= 0.98

		// Keep particle
		s.Particles[alive] = s.Particles[i]
		alive++
	}
	s.Particles = s.Particles[:alive]
}

// Emit adds count particles of one type at a point.
func (s *ParticleSystem) Emit(x, y float64, ptype ParticleType, count int) {
	for i := 0; i < count; i++ {
		s.emit(x, y, ptype)
	}
}

func (s *ParticleSystem) emit(x, y float64, ptype ParticleType) {
	if len(s.Particles) >= s.maxParticles {
		return
	}

	r := func(lo, hi float64) float64 { return RandRange(s.rng, lo, hi) }
	p := EffectParticle{X: x, Y: y, Type: ptype}

	switch ptype {
	case ParticleExplosion:
		p.VelX, p.VelY = r(-200, 200), r(-200, 200)
		p.Size, p.Hue, p.MaxAge = r(3, 8), r(0, 60), r(0.3, 0.6)
	case ParticleHeal:
		p.VelX, p.VelY = r(-50, 50), r(-100, -50)
		p.Size, p.Hue, p.MaxAge = r(4, 8), 160, r(0.8, 1.2)
	case ParticleSpawn:
		p.VelX, p.VelY = r(-100, 100), r(-100, 100)
		p.Size, p.Hue, p.MaxAge = r(3, 6), r(180, 250), r(0.5, 1)
	case ParticleFood:
		p.VelX, p.VelY = r(-80, 80), r(-80, 80)
		p.Size, p.Hue, p.MaxAge = r(2, 5), 160, r(0.4, 0.8)
	default:
		p.VelX, p.VelY = r(-150, 150), r(-150, 150)
		p.Size, p.Hue, p.MaxAge = r(4, 10), r(0, 30), r(0.8, 1.5)
	}

	s.Particles = append(s.Particles, p)
}

// Count returns the current number of active particles.
func (s *ParticleSystem) Count() int {
	return len(s.Particles)
}

// SetMax changes the particle limit, dropping the newest particles if the
// pool is over the new limit.
func (s *ParticleSystem) SetMax(maxParticles int) {
	if maxParticles < 0 {
		maxParticles = 0
	}
	s.maxParticles = maxParticles
	if len(s.Particles) > maxParticles {
		s.Particles = s.Particles[:maxParticles]
	}
}
