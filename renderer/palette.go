package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Fixed colours.
var (
	ColorBackground = rl.Color{R: 16, G: 22, B: 36, A: 255}
	ColorFood       = rl.Color{R: 78, G: 204, B: 163, A: 255}
	ColorFoodRim    = rl.Color{R: 69, G: 179, B: 147, A: 255}
	ColorHealthOK   = rl.Color{R: 78, G: 204, B: 163, A: 255}
	ColorHealthLow  = rl.Color{R: 255, G: 107, B: 107, A: 255}
	ColorBarShadow  = rl.Color{R: 0, G: 0, B: 0, A: 128}
	ColorName       = rl.Color{R: 255, G: 255, B: 255, A: 204}
)

// weatherTints overlay the whole view while a weather state is active.
var weatherTints = map[string]rl.Color{
	"rain":    {R: 60, G: 90, B: 140, A: 38},
	"drought": {R: 200, G: 150, B: 60, A: 38},
	"fog":     {R: 180, G: 180, B: 190, A: 64},
}

// eventTints overlay the view while a world event runs.
var eventTints = map[string]rl.Color{
	"blood_moon":     {R: 150, G: 0, B: 0, A: 38},
	"aurora":         {R: 80, G: 220, B: 180, A: 26},
	"evolution_boom": {R: 255, G: 220, B: 80, A: 20},
	"famine":         {R: 90, G: 60, B: 30, A: 38},
	"abundance":      {R: 80, G: 200, B: 80, A: 20},
}

type biomeStyle struct {
	fill, border rl.Color
}

var biomeStyles = map[string]biomeStyle{
	"safe":    {fill: rl.Color{R: 78, G: 204, B: 163, A: 26}, border: rl.Color{R: 78, G: 204, B: 163, A: 90}},
	"danger":  {fill: rl.Color{R: 255, G: 80, B: 80, A: 26}, border: rl.Color{R: 255, G: 80, B: 80, A: 90}},
	"fertile": {fill: rl.Color{R: 200, G: 220, B: 80, A: 26}, border: rl.Color{R: 200, G: 220, B: 80, A: 90}},
}

// WeatherTint returns the overlay for the weather key, scaled by strength.
func WeatherTint(key string, strength float64) rl.Color {
	c, ok := weatherTints[key]
	if !ok {
		return rl.Color{}
	}
	c.A = uint8(float64(c.A) * clamp01(strength))
	return c
}

// EventTint returns the overlay for an event key.
func EventTint(key string) rl.Color {
	return eventTints[key]
}

// BlendTints combines two overlays into one for the background shader.
func BlendTints(a, b rl.Color) rl.Color {
	if a.A == 0 {
		return b
	}
	if b.A == 0 {
		return a
	}
	wa, wb := float32(a.A), float32(b.A)
	sum := wa + wb
	mix := func(x, y uint8) uint8 { return uint8((float32(x)*wa + float32(y)*wb) / sum) }
	return rl.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: uint8(min(sum, 255))}
}

// HSL converts hue in degrees and saturation/lightness in [0, 1] to RGB.
func HSL(h, s, l float64, alpha uint8) rl.Color {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return rl.Color{
		R: uint8(math.Round((r + m) * 255)),
		G: uint8(math.Round((g + m) * 255)),
		B: uint8(math.Round((b + m) * 255)),
		A: alpha,
	}
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
