package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/chatlife/game"
)

// ParticleRenderer renders effect particles.
type ParticleRenderer struct{}

// NewParticleRenderer creates a new particle renderer.
func NewParticleRenderer() *ParticleRenderer {
	return &ParticleRenderer{}
}

// Draw renders all particles in world coordinates. Particles carry their
// own hue; they fade and shrink as they age.
func (r *ParticleRenderer) Draw(particles []game.ParticleView) {
	for i := range particles {
		p := &particles[i]

		color := HSL(p.Hue, 0.8, 0.6, uint8(p.Fade*255))

		size := float32(p.Size)
		if size < 0.5 {
			size = 0.5
		}
		rl.DrawCircleV(rl.Vector2{X: float32(p.X), Y: float32(p.Y)}, size, color)
	}
}
