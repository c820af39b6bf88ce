// Package app runs the desktop window: it steps the population once per
// frame, routes input, and draws snapshots with the renderer and ui packages.
package app

import (
	"context"
	"math/rand"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/chatlife/camera"
	"github.com/pthm-cable/chatlife/chat"
	"github.com/pthm-cable/chatlife/game"
	"github.com/pthm-cable/chatlife/inspector"
	"github.com/pthm-cable/chatlife/renderer"
	"github.com/pthm-cable/chatlife/server"
	"github.com/pthm-cable/chatlife/ui"
)

const (
	localActor    = "local"
	settingsActor = "settings"
	maxSpeed      = 10
	focusZoom     = 1.8
)

// Options configures the window loop.
type Options struct {
	Title    string
	MaxTicks int
	Chat     *chat.Manager // Optional
	Hub      *server.Hub   // Optional; receives snapshots at the server rate
}

// App owns the window-side state. All methods run on the goroutine that
// created the window, which is also the simulation goroutine.
type App struct {
	pop  *game.Population
	opts Options
	rng  *rand.Rand

	cam         *camera.Camera
	shake       camera.Shake
	focusing    bool
	resumeX     float32
	resumeY     float32
	resumeZoom  float32
	pacer       *server.Pacer
	snap        game.Snapshot
	hovered     int // Index into snap.Organisms, -1 for none
	paused      bool
	speed       int
	clock       float64
	screenW     float32
	screenH     float32
	pendingNote []game.Notification

	background *renderer.BackgroundRenderer
	world      *renderer.WorldRenderer
	particles  *renderer.ParticleRenderer
	weather    *renderer.WeatherRenderer

	overlays    *ui.OverlayRegistry
	hud         *ui.HUD
	banner      *ui.EventBanner
	feed        *ui.NotificationFeed
	controls    *ui.ControlsPanel
	stats       *ui.StatsPanel
	perf        *ui.PerfPanel
	leaderboard *ui.LeaderboardPanel
	votes       *ui.VotePanel
	settings    *ui.SettingsPanel
	inspector   *inspector.Inspector
}

// New creates an app. Call Hooks before building the population and
// Attach afterwards.
func New(opts Options, seed int64) *App {
	if opts.Title == "" {
		opts.Title = "Chat Life"
	}
	return &App{
		opts:        opts,
		rng:         rand.New(rand.NewSource(seed)),
		hovered:     -1,
		speed:       1,
		world:       renderer.NewWorldRenderer(),
		particles:   renderer.NewParticleRenderer(),
		overlays:    ui.NewOverlayRegistry(),
		hud:         ui.NewHUD(),
		banner:      ui.NewEventBanner(),
		feed:        ui.NewNotificationFeed(),
		controls:    ui.NewControlsPanel(10, 170, 220),
		stats:       ui.NewStatsPanel(10, 170),
		perf:        ui.NewPerfPanel(10, 170),
		leaderboard: ui.NewLeaderboardPanel(260),
		votes:       ui.NewVotePanel(260),
		settings:    ui.NewSettingsPanel(280),
	}
}

// Hooks wraps next with the app's own reactions: toasts and screen shake.
// next's callbacks still run.
func (a *App) Hooks(next game.Hooks) game.Hooks {
	h := next
	h.OnNotification = func(n game.Notification) {
		a.pendingNote = append(a.pendingNote, n)
		if next.OnNotification != nil {
			next.OnNotification(n)
		}
	}
	h.OnScreenShake = func(intensity, duration float64) {
		a.shake.Start(intensity, duration)
		if next.OnScreenShake != nil {
			next.OnScreenShake(intensity, duration)
		}
	}
	return h
}

// Open creates the window.
func (a *App) Open(width, height, targetFPS int) {
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(width), int32(height), a.opts.Title)
	rl.SetTargetFPS(int32(targetFPS))
	rl.SetExitKey(0)
}

// Attach binds the population. The window must already be open.
func (a *App) Attach(pop *game.Population) {
	a.pop = pop
	cfg := pop.Config()

	a.screenW = float32(rl.GetScreenWidth())
	a.screenH = float32(rl.GetScreenHeight())
	a.cam = camera.New(a.screenW, a.screenH, float32(cfg.Derived.WorldW), float32(cfg.Derived.WorldH))
	a.pacer = server.NewPacer(cfg.Server.SnapshotHz)

	a.background = renderer.NewBackgroundRenderer(int32(a.screenW), int32(a.screenH), renderer.ColorBackground)
	a.weather = renderer.NewWeatherRenderer(int32(a.screenW), int32(a.screenH))
	a.inspector = inspector.NewInspector(int32(a.screenW), int32(a.screenH))
	a.layout()

	a.snap = pop.Snapshot(true)
	a.world.Track(a.snap.Organisms)
}

// SetChat attaches the chat manager and the viewer hub. Either may be nil.
func (a *App) SetChat(mgr *chat.Manager, hub *server.Hub) {
	a.opts.Chat = mgr
	a.opts.Hub = hub
}

// Run drives the window until it closes, ctx is done or MaxTicks is reached.
func (a *App) Run(ctx context.Context) {
	for !rl.WindowShouldClose() && ctx.Err() == nil {
		a.Update(float64(rl.GetFrameTime()))
		a.Draw()

		if a.opts.MaxTicks > 0 && a.pop.Tick() >= a.opts.MaxTicks {
			return
		}
	}
}

// Update handles input and advances the simulation by one frame of real time.
func (a *App) Update(frameDt float64) {
	a.handleInput()

	if !a.paused {
		for range a.speed {
			a.pop.Step(frameDt)
		}
	}
	a.clock += frameDt

	if a.opts.Chat != nil {
		if v := a.opts.Chat.Votes(); v != nil {
			v.Update(frameDt)
		}
	}

	a.snap = a.pop.Snapshot(a.overlays.IsEnabled(ui.OverlayParticles))
	if !a.paused {
		a.world.Track(a.snap.Organisms)
	}
	if a.opts.Hub != nil && a.pacer.Due(frameDt) {
		a.opts.Hub.Publish(a.pop.Snapshot(false))
	}

	for _, n := range a.pendingNote {
		a.feed.Push(n)
	}
	a.pendingNote = a.pendingNote[:0]
	a.feed.Update(frameDt)

	a.shake.Update(frameDt)
	a.updateFocus()
	a.updateHover()
}

// updateFocus steers the camera to the death-cam target and back.
func (a *App) updateFocus() {
	switch {
	case a.snap.FocusActive && !a.focusing:
		a.focusing = true
		a.resumeX, a.resumeY, a.resumeZoom = a.cam.X, a.cam.Y, a.cam.Zoom
		a.cam.SetZoom(max(a.cam.Zoom, a.cam.MinZoom*focusZoom))
	case a.snap.FocusActive:
		a.cam.Follow(float32(a.snap.FocusX), float32(a.snap.FocusY), 0.1)
	case a.focusing:
		a.focusing = false
		a.cam.SetZoom(a.resumeZoom)
		a.cam.X, a.cam.Y = a.resumeX, a.resumeY
		a.cam.Pan(0, 0)
	}

	if a.shake.Active() {
		a.cam.OffsetX, a.cam.OffsetY = a.shake.Offset(a.rng)
	} else {
		a.cam.OffsetX, a.cam.OffsetY = 0, 0
	}
}

// layout anchors screen-edge panels for the current screen size. Stacked
// panels are positioned each frame in Draw.
func (a *App) layout() {
	w := int32(a.screenW)
	a.leaderboard.SetPosition(w-rightMargin, panelGap)
	a.settings.SetPosition(columnLeft, columnTop)
	a.inspector.Resize(w, int32(a.screenH))
}

// Close frees GPU resources and closes the window.
func (a *App) Close() {
	if a.background != nil {
		a.background.Unload()
	}
	rl.CloseWindow()
}
