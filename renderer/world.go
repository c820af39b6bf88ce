package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/chatlife/camera"
	"github.com/pthm-cable/chatlife/game"
)

const (
	trailLength    = 10
	trailMinSpeed  = 70 // Prey slower than this leave no trail
	chatterGlow    = 15
	predatorGlow   = 20
	predatorSpikes = 8
	nameFontSize   = 12
	biomeFontSize  = 14
)

// WorldOptions toggles optional world layers.
type WorldOptions struct {
	Names      bool
	HealthBars bool
	Trails     bool
	Biomes     bool
}

// WorldRenderer draws biomes, food and organisms in world coordinates.
// Call it between rl.BeginMode2D and rl.EndMode2D.
type WorldRenderer struct {
	trails map[uint32]*trail
	seen   map[uint32]bool
}

type trail struct {
	points [trailLength]rl.Vector2
	n, head int
}

func (t *trail) push(p rl.Vector2) {
	t.head = (t.head + trailLength - 1) % trailLength
	t.points[t.head] = p
	if t.n < trailLength {
		t.n++
	}
}

// at returns the i-th newest point.
func (t *trail) at(i int) rl.Vector2 {
	return t.points[(t.head+i)%trailLength]
}

// NewWorldRenderer creates a world renderer.
func NewWorldRenderer() *WorldRenderer {
	return &WorldRenderer{
		trails: make(map[uint32]*trail),
		seen:   make(map[uint32]bool),
	}
}

// Track records organism positions for trails. Call once per simulation
// step; organisms missing from the snapshot lose their trail.
func (w *WorldRenderer) Track(orgs []game.OrganismView) {
	clear(w.seen)
	for i := range orgs {
		o := &orgs[i]
		w.seen[o.ID] = true
		t, ok := w.trails[o.ID]
		if !ok {
			t = &trail{}
			w.trails[o.ID] = t
		}
		t.push(rl.Vector2{X: float32(o.X), Y: float32(o.Y)})
	}
	for id := range w.trails {
		if !w.seen[id] {
			delete(w.trails, id)
		}
	}
}

// Draw renders the snapshot's world layers, culled to the camera view.
func (w *WorldRenderer) Draw(s *game.Snapshot, cam *camera.Camera, opts WorldOptions) {
	if opts.Biomes {
		for i := range s.Biomes {
			drawBiome(&s.Biomes[i])
		}
	}

	for i := range s.Food {
		f := &s.Food[i]
		if cam.IsVisible(float32(f.X), float32(f.Y), float32(f.Size)*2) {
			drawFood(f)
		}
	}

	for i := range s.Organisms {
		o := &s.Organisms[i]
		r := float32(o.Size + o.Glow + chatterGlow)
		if !cam.IsVisible(float32(o.X), float32(o.Y), r) {
			continue
		}
		if opts.Trails && (o.Predator || o.Speed > trailMinSpeed) {
			if t := w.trails[o.ID]; t != nil {
				drawTrail(t, o)
			}
		}
		drawOrganism(o, opts)
	}
}

func drawBiome(b *game.BiomeView) {
	style, ok := biomeStyles[b.Type]
	if !ok {
		return
	}
	center := rl.Vector2{X: float32(b.X), Y: float32(b.Y)}
	radius := float32(b.Radius)
	rl.DrawCircleV(center, radius, style.fill)

	// Dashed border.
	const dashes = 48
	step := float32(360) / dashes
	for i := 0; i < dashes; i += 2 {
		start := float32(i) * step
		rl.DrawRing(center, radius-1, radius+1, start, start+step, 4, style.border)
	}

	tw := rl.MeasureText(b.Name, biomeFontSize)
	rl.DrawText(b.Name, int32(b.X)-tw/2, int32(b.Y)-biomeFontSize/2, biomeFontSize, rl.Color{R: 255, G: 255, B: 255, A: 180})
}

func drawFood(f *game.FoodView) {
	pulse := math.Sin(f.PulsePhase)*0.3 + 1
	size := float32(f.Size * pulse)
	center := rl.Vector2{X: float32(f.X), Y: float32(f.Y)}
	rl.DrawCircleV(center, size, ColorFood)
	rl.DrawRing(center, size, size+2, 0, 360, 16, ColorFoodRim)
}

func drawTrail(t *trail, o *game.OrganismView) {
	color := HSL(o.Hue, 0.8, 0.6, 255)
	for i := 1; i < t.n; i++ {
		frac := float32(i) / float32(t.n)
		color.A = uint8((1 - frac) * 0.3 * 255)
		size := float32(o.Size) * (1 - frac) * 0.5
		rl.DrawCircleV(t.at(i), size, color)
	}
}

func drawOrganism(o *game.OrganismView, opts WorldOptions) {
	center := rl.Vector2{X: float32(o.X), Y: float32(o.Y)}
	size := float32(o.Size)
	health := clamp01(o.HealthFraction)

	var fill, outline, barFill, nameColor rl.Color
	glow := o.Glow
	if o.Chatter {
		glow += chatterGlow
	}

	if o.Predator {
		light := lerp(0.4, 0.6, health)
		fill = HSL(0, 0.9, light, 255)
		outline = HSL(0, 1, light+0.1, 255)
		barFill = rl.Red
		nameColor = rl.Color{R: 255, G: 100, B: 100, A: 230}
		drawGlow(center, size, predatorGlow, rl.Color{R: 255, G: 0, B: 0, A: 160})
		drawStar(center, size, size*0.5, predatorSpikes, fill, outline)
	} else {
		sat := lerp(0.4, 0.9, health)
		light := lerp(0.3, 0.7, health)
		fill = HSL(o.Hue, sat, light, 255)
		outline = HSL(o.Hue, sat, light+0.1, 255)
		barFill = ColorHealthOK
		if health <= 0.3 {
			barFill = ColorHealthLow
		}
		nameColor = ColorName
		if glow > 0 {
			drawGlow(center, size, float32(glow), HSL(o.Hue, 0.8, 0.6, 160))
		}
		sides := int32(max(o.Sides, 3))
		rl.DrawPoly(center, sides, size, -90, fill)
		rl.DrawPolyLinesEx(center, sides, size, -90, 2, outline)
	}

	barY := center.Y + size + 8
	if opts.HealthBars {
		barW := size * 2
		rl.DrawRectangleV(rl.Vector2{X: center.X - size, Y: barY}, rl.Vector2{X: barW, Y: 4}, ColorBarShadow)
		rl.DrawRectangleV(rl.Vector2{X: center.X - size, Y: barY}, rl.Vector2{X: barW * float32(health), Y: 4}, barFill)
	}
	if opts.Names && o.Name != "" {
		tw := rl.MeasureText(o.Name, nameFontSize)
		rl.DrawText(o.Name, int32(center.X)-tw/2, int32(barY)+8, nameFontSize, nameColor)
	}
}

// drawGlow approximates a blurred halo with a radial gradient.
func drawGlow(center rl.Vector2, size, glow float32, color rl.Color) {
	outer := color
	outer.A = 0
	rl.DrawCircleGradient(int32(center.X), int32(center.Y), size+glow, color, outer)
}

// drawStar draws a filled star with alternating outer and inner points.
func drawStar(center rl.Vector2, outer, inner float32, spikes int, fill, outline rl.Color) {
	n := spikes * 2
	pts := make([]rl.Vector2, n)
	for i := range pts {
		angle := math.Pi*float64(i)/float64(spikes) - math.Pi/2
		r := outer
		if i%2 == 1 {
			r = inner
		}
		pts[i] = rl.Vector2{
			X: center.X + r*float32(math.Cos(angle)),
			Y: center.Y + r*float32(math.Sin(angle)),
		}
	}
	for i := range pts {
		a, b := pts[i], pts[(i+1)%n]
		// DrawTriangle requires counter-clockwise winding (screen coords: Y down)
		rl.DrawTriangle(center, b, a, fill)
	}
	for i := range pts {
		rl.DrawLineEx(pts[i], pts[(i+1)%n], 3, outline)
	}
}
