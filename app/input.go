package app

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/chatlife/environment"
	"github.com/pthm-cable/chatlife/game"
	"github.com/pthm-cable/chatlife/ui"
)

// eventKeys trigger world events directly.
var eventKeys = map[int32]environment.EventType{
	rl.KeyOne:   environment.BloodMoon,
	rl.KeyTwo:   environment.Aurora,
	rl.KeyThree: environment.EvolutionBoom,
	rl.KeyFour:  environment.Famine,
	rl.KeyFive:  environment.Abundance,
}

const controlsLegend = "[Space] Pause  [,/.] Speed  [Arrows/Wheel] Camera  [Home] Reset  [Tab] Overlays  [`] Board  [F1] Energy  [F2] Food  [F3] Vote  [F4] Biomes  [1-5] Events"

// handleInput processes keyboard and mouse input.
func (a *App) handleInput() {
	a.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		a.paused = !a.paused
	}

	// Steps-per-frame control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && a.speed > 1 {
		a.speed--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && a.speed < maxSpeed {
		a.speed++
	}

	if rl.IsKeyPressed(rl.KeyTab) {
		a.controls.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyEscape) {
		a.inspector.Deselect()
	}
	if rl.IsKeyPressed(rl.KeyGrave) {
		a.leaderboard.Next()
	}

	if key := rl.GetKeyPressed(); key != 0 {
		if id, on, ok := a.overlays.HandleKeyPress(key); ok {
			slog.Debug("overlay_toggled", "overlay", id, "enabled", on)
		}
		a.handleCommandKey(key)
	}

	a.handleCameraInput()
	a.handleMouse()
}

// handleCommandKey maps debug keys to commands. They go through the queue
// like any other producer.
func (a *App) handleCommandKey(key int32) {
	cfg := a.pop.Config()
	switch key {
	case rl.KeyF1:
		a.pop.Enqueue(localActor, game.AddEnergy{Amount: cfg.Energy.PerMessage * 10})
	case rl.KeyF2:
		a.pop.Enqueue(localActor, game.SpawnFood{Count: cfg.Voting.FoodBatch})
	case rl.KeyF3:
		if a.opts.Chat != nil && a.opts.Chat.Votes() != nil {
			a.opts.Chat.Votes().Start()
		}
	case rl.KeyF4:
		a.pop.Enqueue(localActor, game.RegenerateBiomes{})
	default:
		if ev, ok := eventKeys[key]; ok {
			a.pop.Enqueue(localActor, game.StartEvent{Event: ev})
		}
	}
}

// handleResize checks for window resize and propagates new dimensions.
func (a *App) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == a.screenW && h == a.screenH {
		return
	}
	a.screenW = w
	a.screenH = h

	a.cam.Resize(w, h)
	a.background.Resize(w, h)
	a.weather.Resize(w, h)
	a.layout()
}

// handleCameraInput processes camera pan/zoom controls. The death cam
// overrides manual control while it runs.
func (a *App) handleCameraInput() {
	if a.focusing {
		return
	}

	const panSpeed = 8.0

	if rl.IsKeyDown(rl.KeyRight) {
		a.cam.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		a.cam.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		a.cam.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		a.cam.Pan(0, -panSpeed)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 && !a.overPanel() {
		a.cam.ZoomBy(1 + wheel*0.1)
	}

	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		a.cam.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		a.cam.ZoomBy(0.8)
	}

	if rl.IsKeyPressed(rl.KeyHome) {
		a.cam.Reset()
	}
}

// handleMouse routes clicks to the inspector.
func (a *App) handleMouse() {
	if rl.IsMouseButtonPressed(rl.MouseButtonRight) {
		a.inspector.Deselect()
		return
	}
	if !rl.IsMouseButtonPressed(rl.MouseButtonLeft) || a.overPanel() {
		return
	}
	m := rl.GetMousePosition()
	wx, wy := a.cam.ScreenToWorld(m.X, m.Y)
	if !a.inspector.HandleClick(int32(m.X), int32(m.Y), float64(wx), float64(wy), a.snap.Organisms) {
		a.inspector.Deselect()
	}
}

// overPanel reports whether the mouse is over an interactive panel.
func (a *App) overPanel() bool {
	if !a.overlays.IsEnabled(ui.OverlaySettings) {
		return false
	}
	return rl.CheckCollisionPointRec(rl.GetMousePosition(), a.settings.Bounds())
}
