package app

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/chatlife/game"
	"github.com/pthm-cable/chatlife/inspector"
	"github.com/pthm-cable/chatlife/renderer"
	"github.com/pthm-cable/chatlife/ui"
)

const (
	panelGap    = 10
	columnLeft  = 10
	columnTop   = 170
	rightMargin = 270
)

// Draw renders the current snapshot.
func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(renderer.ColorBackground)

	a.drawBackground()

	rl.BeginMode2D(rl.Camera2D{
		Offset: rl.Vector2{X: a.screenW/2 + a.cam.OffsetX, Y: a.screenH/2 + a.cam.OffsetY},
		Target: rl.Vector2{X: a.cam.X, Y: a.cam.Y},
		Zoom:   a.cam.Zoom,
	})
	a.world.Draw(&a.snap, a.cam, renderer.WorldOptions{
		Names:      a.overlays.IsEnabled(ui.OverlayNames),
		HealthBars: a.overlays.IsEnabled(ui.OverlayHealthBars),
		Trails:     a.overlays.IsEnabled(ui.OverlayTrails),
		Biomes:     a.overlays.IsEnabled(ui.OverlayBiomes),
	})
	if a.overlays.IsEnabled(ui.OverlayParticles) {
		a.particles.Draw(a.snap.Particles)
	}
	if id, ok := a.inspector.Selected(); ok {
		if org, pos, found := a.pop.OrganismByID(id); found {
			inspector.DrawSelectionHighlight(pos.X, pos.Y, org.Size)
		}
	}
	rl.EndMode2D()

	if a.overlays.IsEnabled(ui.OverlayWeather) {
		a.weather.Draw(a.clock, a.snap.Weather)
	}

	a.drawUI()

	a.pop.Perf().RecordFrame()
	rl.EndDrawing()
}

func (a *App) drawBackground() {
	w := a.snap.Weather
	tint := renderer.WeatherTint(w.Current, 1)
	if w.Next != w.Current {
		tint = renderer.BlendTints(
			renderer.WeatherTint(w.Current, 1-w.Progress),
			renderer.WeatherTint(w.Next, w.Progress),
		)
	}
	if a.snap.Event != nil {
		tint = renderer.BlendTints(tint, renderer.EventTint(a.snap.Event.Key))
	}
	a.background.Draw(float32(a.clock), a.cam.X, a.cam.Y, a.cam.Zoom,
		float32(a.snap.Width), float32(a.snap.Height), tint)
}

func (a *App) drawUI() {
	data := ui.HUDDataFromSnapshot(&a.snap)
	data.Title = a.opts.Title
	data.Paused = a.paused
	data.Speed = a.speed
	data.FPS = rl.GetFPS()
	if a.opts.Chat != nil {
		data.Chatters = a.opts.Chat.Distinct()
		data.Connected = a.opts.Chat.Connected()
	}
	a.hud.Draw(data)
	a.banner.Draw(a.snap.Event, int32(a.screenW))

	top := int32(60)
	if a.snap.Event != nil {
		top += 50
	}
	a.feed.Draw(int32(a.screenW), top)

	a.drawColumn()

	// The inspector takes over the right side while something is selected.
	if id, ok := a.inspector.Selected(); ok {
		if org, pos, found := a.pop.OrganismByID(id); found {
			a.inspector.Draw(org, pos)
		} else {
			a.inspector.Deselect()
		}
	} else {
		a.drawRightColumn()
	}

	a.drawTooltip()
	a.hud.DrawControls(int32(a.screenH), controlsLegend)
}

// drawColumn stacks the left-hand panels below the HUD.
func (a *App) drawColumn() {
	y := int32(columnTop)

	a.controls.SetPosition(columnLeft, y)
	if a.controls.IsVisible() {
		y = a.controls.Draw(a.overlays) + panelGap
	}

	if a.overlays.IsEnabled(ui.OverlayStats) {
		a.stats.SetPosition(columnLeft, y)
		y = a.stats.Draw(a.pop.LastStats(), a.snap.MaxEnergy) + panelGap
	}

	if a.overlays.IsEnabled(ui.OverlaySettings) {
		a.settings.SetPosition(columnLeft, y)
		if next := a.settings.Draw(a.pop.Config()); next != nil {
			a.pop.Enqueue(settingsActor, game.ApplyConfig{Config: next})
		}
		b := a.settings.Bounds()
		y = int32(b.Y+b.Height) + panelGap
	}

	if a.overlays.IsEnabled(ui.OverlayPerf) {
		a.perf.SetPosition(columnLeft, y)
		a.perf.Draw(a.pop.Perf().Stats())
	}
}

// drawRightColumn stacks the leaderboard and vote panels on the right edge.
func (a *App) drawRightColumn() {
	x := int32(a.screenW) - rightMargin
	y := int32(panelGap)

	if a.overlays.IsEnabled(ui.OverlayLeaderboard) {
		a.leaderboard.SetPosition(x, y)
		y = a.leaderboard.Draw(a.snap.Leaderboard, func(h float64) rl.Color {
			return renderer.HSL(h, 0.7, 0.6, 255)
		}) + panelGap
	}

	if a.overlays.IsEnabled(ui.OverlayVote) && a.opts.Chat != nil {
		if v := a.opts.Chat.Votes(); v != nil {
			a.votes.SetPosition(x, y)
			a.votes.Draw(v.State(), a.pop.Config().Voting.Duration)
		}
	}
}
