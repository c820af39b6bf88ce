package app

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/chatlife/game"
	"github.com/pthm-cable/chatlife/inspector"
)

// updateHover finds the organism under the mouse cursor.
func (a *App) updateHover() {
	a.hovered = -1
	m := rl.GetMousePosition()
	wx, wy := a.cam.ScreenToWorld(m.X, m.Y)
	id, ok := inspector.Pick(float64(wx), float64(wy), a.snap.Organisms)
	if !ok {
		return
	}
	for i := range a.snap.Organisms {
		if a.snap.Organisms[i].ID == id {
			a.hovered = i
			return
		}
	}
}

// drawTooltip renders a short summary next to the cursor for the hovered
// organism.
func (a *App) drawTooltip() {
	if a.hovered < 0 || a.hovered >= len(a.snap.Organisms) {
		return
	}
	o := &a.snap.Organisms[a.hovered]

	lines := []string{
		tooltipTitle(o),
		fmt.Sprintf("Health: %.0f%%", o.HealthFraction*100),
		fmt.Sprintf("Size: %.1f  Sides: %d", o.Size, o.Sides),
		fmt.Sprintf("Gen: %d  Mutations: %d", o.Generation, o.Mutations),
	}

	const fontSize, lineHeight, padding = 12, 15, 6
	width := int32(0)
	for _, l := range lines {
		width = max(width, rl.MeasureText(l, fontSize))
	}
	m := rl.GetMousePosition()
	x := int32(m.X) + 16
	y := int32(m.Y) + 16
	w := width + padding*2
	h := int32(len(lines))*lineHeight + padding*2
	if x+w > int32(a.screenW) {
		x = int32(m.X) - w - 8
	}
	if y+h > int32(a.screenH) {
		y = int32(m.Y) - h - 8
	}

	rl.DrawRectangle(x, y, w, h, rl.Color{R: 12, G: 16, B: 28, A: 230})
	rl.DrawRectangleLines(x, y, w, h, rl.Color{R: 78, G: 204, B: 163, A: 120})
	for i, l := range lines {
		color := rl.LightGray
		if i == 0 {
			color = rl.White
		}
		rl.DrawText(l, x+padding, y+padding+int32(i)*lineHeight, fontSize, color)
	}
}

func tooltipTitle(o *game.OrganismView) string {
	name := o.Name
	if name == "" {
		name = fmt.Sprintf("#%d", o.ID)
	}
	switch {
	case o.Predator:
		return name + " (predator)"
	case o.Chatter:
		return name + " (chatter)"
	default:
		return name
	}
}
