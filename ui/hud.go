package ui

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/chatlife/game"
	"github.com/pthm-cable/chatlife/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title     string
	Living    int
	Cap       int
	Prey      int
	Predators int
	Food      int
	Births    int
	Deaths    int
	Energy    float64
	MaxEnergy float64
	Tick      int
	TimeScale float64
	Speed     int
	FPS       int32
	Paused    bool
	Weather   game.WeatherView
	Chatters  int
	Connected bool
}

// HUDDataFromSnapshot fills the simulation fields of HUDData.
func HUDDataFromSnapshot(s *game.Snapshot) HUDData {
	d := HUDData{
		Living:    s.Living,
		Cap:       s.PopulationCap,
		Food:      len(s.Food),
		Births:    s.Births,
		Deaths:    s.Deaths,
		Energy:    s.Energy,
		MaxEnergy: s.MaxEnergy,
		Tick:      s.Tick,
		TimeScale: s.TimeScale,
		Weather:   s.Weather,
	}
	for i := range s.Organisms {
		if s.Organisms[i].Predator {
			d.Predators++
		} else {
			d.Prey++
		}
	}
	return d
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD in the top-left corner.
func (h *HUD) Draw(data HUDData) {
	r := h.renderer
	const x, y, width = 10, 10, 300
	r.DrawPanel(x, y, width, 150)

	cx, cy := int32(x+10), int32(y+8)
	rl.DrawText(data.Title, cx, cy, 20, rl.White)
	cy += 26

	rl.DrawText(
		fmt.Sprintf("Alive: %d/%d | Prey: %d | Predators: %d", data.Living, data.Cap, data.Prey, data.Predators),
		cx, cy, 14, rl.LightGray,
	)
	cy += 18

	rl.DrawText(
		fmt.Sprintf("Food: %d | Births: %s | Deaths: %s", data.Food, humanize.Comma(int64(data.Births)), humanize.Comma(int64(data.Deaths))),
		cx, cy, 14, rl.LightGray,
	)
	cy += 18

	cy = r.DrawEnergyBar(cx, cy, "Energy", float32(data.Energy), float32(data.MaxEnergy), width-20)

	weather := data.Weather.Name
	if data.Weather.Next != "" && data.Weather.Next != data.Weather.Current {
		weather = fmt.Sprintf("%s -> %s (%.0f%%)", data.Weather.Name, data.Weather.Next, data.Weather.Progress*100)
	}
	rl.DrawText(fmt.Sprintf("Weather: %s", weather), cx, cy, 14, rl.LightGray)
	cy += 18

	chat := "Chat: offline"
	if data.Connected {
		chat = fmt.Sprintf("Chat: %d chatters", data.Chatters)
	}
	rl.DrawText(
		fmt.Sprintf("Tick: %s | Speed: %dx | FPS: %d | %s", humanize.Comma(int64(data.Tick)), data.Speed, data.FPS, chat),
		cx, cy, 12, rl.Gray,
	)
	cy += 16

	switch {
	case data.Paused:
		rl.DrawText("PAUSED", cx, cy, 14, r.Theme.Accent)
	case data.TimeScale < 1:
		rl.DrawText("SLOW MOTION", cx, cy, 14, r.Theme.BarFillLow)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// EventBanner renders the active world event across the top of the screen.
type EventBanner struct {
	renderer *Renderer
}

// NewEventBanner creates an event banner.
func NewEventBanner() *EventBanner {
	return &EventBanner{renderer: NewRenderer()}
}

// Draw renders the banner centred horizontally. ev may be nil.
func (b *EventBanner) Draw(ev *game.EventView, screenWidth int32) {
	if ev == nil {
		return
	}
	r := b.renderer
	const width, height = 360, 58
	x := (screenWidth - width) / 2
	y := int32(10)
	r.DrawPanel(x, y, width, height)

	tw := rl.MeasureText(ev.Name, 18)
	rl.DrawText(ev.Name, x+(width-tw)/2, y+6, 18, r.Theme.Accent)
	dw := rl.MeasureText(ev.Description, 12)
	rl.DrawText(ev.Description, x+(width-dw)/2, y+28, 12, rl.LightGray)
	r.DrawProgress(x+10, y+height-12, width-20, float32(ev.Remaining), r.Theme.Accent)
}

// PerfPanel renders the per-phase tick timing panel.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel. Phases are listed in step order.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	const width = 280
	height := int32(76 + 14*len(telemetry.Phases))
	p.renderer.DrawPanel(p.x, p.y, width, height)

	x := p.x + 10
	y := p.y + 8

	rl.DrawText("Tick Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(
		fmt.Sprintf("Avg: %s | p95 %s | %.0f fps", stats.AvgTick.Round(time.Microsecond), stats.P95Tick.Round(time.Microsecond), stats.FPS),
		x, y, 12, rl.Yellow,
	)
	y += 16
	rl.DrawText(
		fmt.Sprintf("%.0f organisms | %s each | %.1f cmds", stats.AvgOrganisms, stats.UpdatePerOrganism.Round(time.Microsecond/10), stats.CommandsPerTick),
		x, y, 12, rl.LightGray,
	)
	y += 16

	for _, phase := range telemetry.Phases {
		avg := stats.PhaseAvg[phase]
		pct := stats.PhasePct[phase]

		color := rl.LightGray
		if pct > 40 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-14s %8s %5.1f%%", phase, avg.Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
