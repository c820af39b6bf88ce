package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/chatlife/game"
)

const raindrops = 100

// WeatherRenderer draws screen-space weather effects over the world.
type WeatherRenderer struct {
	width, height float32
}

// NewWeatherRenderer creates a weather renderer for the given screen size.
func NewWeatherRenderer(width, height int32) *WeatherRenderer {
	return &WeatherRenderer{width: float32(width), height: float32(height)}
}

// Resize updates the screen dimensions.
func (w *WeatherRenderer) Resize(width, height float32) {
	w.width, w.height = width, height
}

// Draw renders effects for the visible weather. During a transition the
// incoming state fades in with the transition progress.
func (w *WeatherRenderer) Draw(time float64, weather game.WeatherView) {
	key, strength := weather.Current, 1.0
	if weather.Next != weather.Current {
		key, strength = weather.Next, weather.Progress
	}

	switch key {
	case "rain":
		w.drawRain(time, strength)
	case "fog":
		w.drawFog(time, strength)
	}
}

func (w *WeatherRenderer) drawRain(time, strength float64) {
	color := rl.Color{R: 150, G: 200, B: 255, A: uint8(77 * strength)}
	t := time * 1000
	for i := 0; i < raindrops; i++ {
		x := float32(math.Mod(t*0.1+float64(i*37), float64(w.width)))
		y := float32(math.Mod(t*0.5+float64(i*73), float64(w.height)))
		rl.DrawLineV(rl.Vector2{X: x, Y: y}, rl.Vector2{X: x + 2, Y: y + 10}, color)
	}
}

func (w *WeatherRenderer) drawFog(time, strength float64) {
	// Slow drifting bands.
	for i := 0; i < 4; i++ {
		phase := time*0.05 + float64(i)*1.7
		cx := float32((math.Sin(phase)*0.5 + 0.5)) * w.width
		cy := w.height * (0.2 + 0.2*float32(i))
		alpha := uint8(40 * strength)
		rl.DrawCircleGradient(int32(cx), int32(cy), w.width*0.35,
			rl.Color{R: 200, G: 200, B: 210, A: alpha}, rl.Color{R: 200, G: 200, B: 210, A: 0})
	}
}
