package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/chatlife/telemetry"
)

// ControlsPanel renders the left-side controls panel with overlay toggles.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		visible:  false,
	}
}

// SetPosition updates the panel position.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x, c.y = x, y
}

// SetVisible shows or hides the panel.
func (c *ControlsPanel) SetVisible(visible bool) {
	c.visible = visible
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Draw renders the controls panel.
func (c *ControlsPanel) Draw(overlays *OverlayRegistry) int32 {
	if !c.visible {
		return c.y
	}

	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	// Calculate panel height based on content
	categories := overlays.Categories()
	totalItems := 0
	for _, cat := range categories {
		totalItems += len(overlays.ByCategory(cat)) + 1 // +1 for category header
	}
	panelHeight := int32(totalItems)*lineHeight + padding*3 + lineHeight // Extra for title

	// Draw panel background
	r.DrawPanel(c.x, c.y, c.width, panelHeight)

	y := c.y + padding

	rl.DrawText("Overlays", c.x+padding, y, 16, rl.White)
	y += lineHeight + 4

	// Draw overlays by category
	for _, category := range categories {
		// Category header
		catLabel := categoryLabel(category)
		rl.DrawText(catLabel, c.x+padding, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
		y += lineHeight

		// Overlays in this category
		for _, desc := range overlays.ByCategory(category) {
			enabled := overlays.IsEnabled(desc.ID)
			c.drawToggle(c.x+padding, y, desc, enabled, c.width-padding*2)
			y += lineHeight
		}

		y += 4 // Gap between categories
	}

	return y
}

// drawToggle draws a single overlay toggle line.
func (c *ControlsPanel) drawToggle(x, y int32, desc OverlayDescriptor, enabled bool, width int32) {
	r := c.renderer

	// Status indicator
	statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
	if enabled {
		statusColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
	}
	rl.DrawRectangle(x, y+2, 8, 8, statusColor)

	// Name
	nameColor := r.Theme.LabelColor
	if enabled {
		nameColor = rl.White
	}
	rl.DrawText(desc.Name, x+14, y, r.Theme.FontSize, nameColor)

	// Key binding (right aligned)
	if desc.KeyLabel != "" {
		keyText := fmt.Sprintf("[%s]", desc.KeyLabel)
		keyWidth := rl.MeasureText(keyText, r.Theme.FontSize)
		rl.DrawText(keyText, x+width-keyWidth, y, r.Theme.FontSize, rl.Color{R: 150, G: 150, B: 150, A: 255})
	}
}

// categoryLabel returns a display label for a category.
func categoryLabel(cat string) string {
	switch cat {
	case "world":
		return "World"
	case "panels":
		return "Panels"
	default:
		return cat
	}
}

// statsPanel lays out the most recent telemetry window.
var statsPanel = PanelDescriptor{
	ID:    "window_stats",
	Title: "Last Window",
	Width: 260,
	Sections: []SectionDescriptor{
		{
			ID:    "population",
			Title: "Population",
			Fields: []FieldDescriptor{
				{ID: "prey", Label: "Prey", Widget: WidgetText, Format: "%.0f", Getter: stat(func(s telemetry.WindowStats) float32 { return float32(s.PreyCount) })},
				{ID: "pred", Label: "Predators", Widget: WidgetText, Format: "%.0f", Getter: stat(func(s telemetry.WindowStats) float32 { return float32(s.PredCount) })},
				{ID: "births", Label: "Births", Widget: WidgetText, TextGetter: statText(func(s telemetry.WindowStats) string {
					return fmt.Sprintf("%d prey, %d pred", s.PreyBirths, s.PredBirths)
				})},
				{ID: "deaths", Label: "Deaths", Widget: WidgetText, TextGetter: statText(func(s telemetry.WindowStats) string {
					return fmt.Sprintf("%d prey, %d pred", s.PreyDeaths, s.PredDeaths)
				})},
				{ID: "generation", Label: "Max Gen", Widget: WidgetText, Format: "%.0f", Getter: stat(func(s telemetry.WindowStats) float32 { return float32(s.MaxGeneration) })},
			},
		},
		{
			ID:    "health",
			Title: "Health",
			Fields: []FieldDescriptor{
				{ID: "prey_health", Label: "Prey mean", Widget: WidgetBar, Range: DefaultRange(), Getter: stat(func(s telemetry.WindowStats) float32 { return float32(s.PreyHealthMean) })},
				{ID: "pred_health", Label: "Pred mean", Widget: WidgetBar, Range: DefaultRange(), Getter: stat(func(s telemetry.WindowStats) float32 { return float32(s.PredHealthMean) }),
					Visible: func(d any) bool { return d.(statsView).PredCount > 0 }},
				{ID: "energy", Label: "Energy", Widget: WidgetEnergyBar, Getter: stat(func(s telemetry.WindowStats) float32 { return float32(s.Energy) }),
					MaxGetter: func(d any) float32 { return float32(d.(statsView).MaxEnergy) }},
			},
		},
		{
			ID:    "hunting",
			Title: "Hunting",
			Fields: []FieldDescriptor{
				{ID: "kills", Label: "Kills", Widget: WidgetText, TextGetter: statText(func(s telemetry.WindowStats) string {
					return fmt.Sprintf("%d / %d attacks", s.Kills, s.Attacks)
				})},
				{ID: "food", Label: "Food eaten", Widget: WidgetText, Format: "%.0f", Getter: stat(func(s telemetry.WindowStats) float32 { return float32(s.FoodEaten) })},
			},
		},
		{
			ID:    "chat",
			Title: "Chat",
			Fields: []FieldDescriptor{
				{ID: "messages", Label: "Messages", Widget: WidgetText, Format: "%.0f", Getter: stat(func(s telemetry.WindowStats) float32 { return float32(s.ChatMessages) })},
				{ID: "chatters", Label: "Chatters", Widget: WidgetText, Format: "%.0f", Getter: stat(func(s telemetry.WindowStats) float32 { return float32(s.Chatters) })},
			},
		},
	},
}

// statsView is the data handed to statsPanel's getters.
type statsView struct {
	telemetry.WindowStats
	MaxEnergy float64
}

func stat(fn func(telemetry.WindowStats) float32) func(any) float32 {
	return func(d any) float32 { return fn(d.(statsView).WindowStats) }
}

func statText(fn func(telemetry.WindowStats) string) func(any) string {
	return func(d any) string { return fn(d.(statsView).WindowStats) }
}

// StatsPanel renders the most recent telemetry window.
type StatsPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewStatsPanel creates a stats panel.
func NewStatsPanel(x, y int32) *StatsPanel {
	return &StatsPanel{renderer: NewRenderer(), x: x, y: y}
}

// SetPosition updates the panel position.
func (q *StatsPanel) SetPosition(x, y int32) {
	q.x, q.y = x, y
}

// Width returns the panel width.
func (q *StatsPanel) Width() int32 { return statsPanel.Width }

// Draw renders the panel and returns its bottom edge. Nothing is drawn
// before the first window closes.
func (q *StatsPanel) Draw(s telemetry.WindowStats, maxEnergy float64) int32 {
	if s.Ticks == 0 {
		return q.y
	}
	return q.renderer.DrawPanelDescriptor(q.x, q.y, statsPanel, statsView{WindowStats: s, MaxEnergy: maxEnergy})
}
