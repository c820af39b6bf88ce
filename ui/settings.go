package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/chatlife/config"
)

// setting is one tunable value. Exactly one of float and int is set.
type setting struct {
	label    string
	min, max float32
	float    func(c *config.Config) *float64
	int      func(c *config.Config) *int
}

var settings = []setting{
	{label: "Vote interval (s)", min: 30, max: 600, float: func(c *config.Config) *float64 { return &c.Voting.Interval }},
	{label: "Vote duration (s)", min: 10, max: 120, float: func(c *config.Config) *float64 { return &c.Voting.Duration }},
	{label: "Vote cooldown (s)", min: 0, max: 300, float: func(c *config.Config) *float64 { return &c.Voting.Cooldown }},
	{label: "Food interval (s)", min: 0.1, max: 10, float: func(c *config.Config) *float64 { return &c.Food.SpawnInterval }},
	{label: "Food amount", min: 1, max: 20, float: func(c *config.Config) *float64 { return &c.Food.SpawnAmount }},
	{label: "Hunger (hp/s)", min: 0, max: 10, float: func(c *config.Config) *float64 { return &c.Entity.DecayRate }},
	{label: "Birth cooldown (s)", min: 1, max: 60, float: func(c *config.Config) *float64 { return &c.Entity.ReproductionCooldown }},
	{label: "Population floor", min: 0, max: 50, int: func(c *config.Config) *int { return &c.Population.Floor }},
	{label: "Cap at max energy", min: 10, max: 500, int: func(c *config.Config) *int { return &c.Energy.PopulationCapMax }},
}

// SettingsPanel edits a working copy of the configuration with sliders.
// Nothing changes in the simulation until Apply is pressed.
type SettingsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	working  *config.Config
	dirty    bool
}

// NewSettingsPanel creates a settings panel.
func NewSettingsPanel(width int32) *SettingsPanel {
	return &SettingsPanel{renderer: NewRenderer(), width: width}
}

// SetPosition updates the panel position.
func (s *SettingsPanel) SetPosition(x, y int32) {
	s.x, s.y = x, y
}

// Draw renders the sliders over a copy of current. When the user presses
// Apply, the edited copy is returned; otherwise nil.
func (s *SettingsPanel) Draw(current *config.Config) *config.Config {
	if s.working == nil || !s.dirty {
		s.working = current.Clone()
	}

	r := s.renderer
	rowHeight := int32(38)
	height := r.Theme.Padding*2 + 24 + int32(len(settings))*rowHeight + 34
	r.DrawPanel(s.x, s.y, s.width, height)

	x := float32(s.x + r.Theme.Padding)
	y := s.y + r.Theme.Padding
	rl.DrawText("Settings", int32(x), y, 16, rl.White)
	y += 24

	sliderW := float32(s.width - r.Theme.Padding*2 - 50)
	for _, st := range settings {
		rl.DrawText(st.label, int32(x), y, r.Theme.FontSize, r.Theme.LabelColor)
		bounds := rl.Rectangle{X: x, Y: float32(y + 14), Width: sliderW, Height: 16}

		var value string
		if st.float != nil {
			p := st.float(s.working)
			next := gui.SliderBar(bounds, "", "", float32(*p), st.min, st.max)
			if next != float32(*p) {
				*p = float64(next)
				s.dirty = true
			}
			value = fmt.Sprintf("%.1f", *p)
		} else {
			p := st.int(s.working)
			next := int(gui.SliderBar(bounds, "", "", float32(*p), st.min, st.max) + 0.5)
			if next != *p {
				*p = next
				s.dirty = true
			}
			value = fmt.Sprintf("%d", *p)
		}
		rl.DrawText(value, int32(x+sliderW+6), y+15, r.Theme.FontSize, r.Theme.ValueColor)
		y += rowHeight
	}

	var applied *config.Config
	buttonW := (sliderW - 10) / 2
	if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: buttonW, Height: 24}, "Apply") && s.dirty {
		applied = s.working
		s.working = nil
		s.dirty = false
	}
	if gui.Button(rl.Rectangle{X: x + buttonW + 10, Y: float32(y), Width: buttonW, Height: 24}, "Revert") {
		s.working = nil
		s.dirty = false
	}
	return applied
}

// Bounds returns the panel rectangle so input over it can be ignored by
// world interaction.
func (s *SettingsPanel) Bounds() rl.Rectangle {
	height := s.renderer.Theme.Padding*2 + 24 + int32(len(settings))*38 + 34
	return rl.Rectangle{X: float32(s.x), Y: float32(s.y), Width: float32(s.width), Height: float32(height)}
}
