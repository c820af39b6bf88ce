package inspector

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/chatlife/components"
	"github.com/pthm-cable/chatlife/game"
)

// Panel dimensions
const (
	PanelWidth   = 320
	PanelPadding = 10
	HeaderHeight = 30
	LabelWidth   = 130
)

// Panel colors
var (
	ColorPanelBg     = rl.Color{R: 12, G: 16, B: 28, A: 235}
	ColorPanelHeader = rl.Color{R: 30, G: 40, B: 58, A: 255}
	ColorPanelBorder = rl.Color{R: 78, G: 204, B: 163, A: 90}
	ColorHeaderText  = rl.Color{R: 255, G: 255, B: 255, A: 255}
	ColorCloseBtn    = rl.Color{R: 180, G: 80, B: 80, A: 255}
)

// Inspector manages organism selection and panel rendering. Selection is
// by organism ID so it survives entity storage moves.
type Inspector struct {
	selected     uint32
	hasSelected  bool
	panelX       int32
	panelY       int32
	panelHeight  int32
	screenWidth  int32
	screenHeight int32
}

// NewInspector creates a new inspector instance.
func NewInspector(screenWidth, screenHeight int32) *Inspector {
	ins := &Inspector{}
	ins.Resize(screenWidth, screenHeight)
	return ins
}

// Resize re-anchors the panel to the right edge.
func (ins *Inspector) Resize(screenWidth, screenHeight int32) {
	ins.screenWidth = screenWidth
	ins.screenHeight = screenHeight
	ins.panelX = screenWidth - PanelWidth - 10
	ins.panelY = 80
}

// Pick returns the ID of the organism under (wx, wy) in world coordinates,
// preferring the nearest when several overlap.
func Pick(wx, wy float64, orgs []game.OrganismView) (uint32, bool) {
	var best uint32
	bestDist := 0.0
	found := false
	for i := range orgs {
		o := &orgs[i]
		dx, dy := wx-o.X, wy-o.Y
		dist := dx*dx + dy*dy
		hit := o.Size + 5
		if dist < hit*hit && (!found || dist < bestDist) {
			best, bestDist, found = o.ID, dist, true
		}
	}
	return best, found
}

// HandleClick processes a left click at screen (sx, sy), which maps to
// world (wx, wy). It reports whether the click was consumed by the panel
// or selected an organism.
func (ins *Inspector) HandleClick(sx, sy int32, wx, wy float64, orgs []game.OrganismView) bool {
	if ins.hasSelected {
		closeX := ins.panelX + PanelWidth - 25
		closeY := ins.panelY + 5
		if sx >= closeX && sx <= closeX+20 && sy >= closeY && sy <= closeY+20 {
			ins.Deselect()
			return true
		}
		if sx >= ins.panelX && sx <= ins.panelX+PanelWidth && sy >= ins.panelY && sy <= ins.panelY+ins.panelHeight {
			return true
		}
	}

	if id, ok := Pick(wx, wy, orgs); ok {
		ins.Select(id)
		return true
	}
	return false
}

// Select selects an organism by ID.
func (ins *Inspector) Select(id uint32) {
	ins.selected = id
	ins.hasSelected = true
}

// Deselect clears the current selection.
func (ins *Inspector) Deselect() {
	ins.hasSelected = false
}

// Selected returns the currently selected organism ID.
func (ins *Inspector) Selected() (uint32, bool) {
	return ins.selected, ins.hasSelected
}

// Draw renders the inspector panel for org. Fields come from the
// component's inspect tags.
func (ins *Inspector) Draw(org components.Organism, pos components.Position) {
	if !ins.hasSelected {
		return
	}
	if !org.Alive {
		ins.Deselect()
		return
	}

	fields := visibleFields(&org)
	ins.panelHeight = ins.calculatePanelHeight(fields)

	rl.DrawRectangle(ins.panelX, ins.panelY, PanelWidth, ins.panelHeight, ColorPanelBg)
	rl.DrawRectangleLinesEx(
		rl.Rectangle{X: float32(ins.panelX), Y: float32(ins.panelY), Width: PanelWidth, Height: float32(ins.panelHeight)},
		1,
		ColorPanelBorder,
	)

	rl.DrawRectangle(ins.panelX, ins.panelY, PanelWidth, HeaderHeight, ColorPanelHeader)
	title := org.Name
	if title == "" {
		title = fmt.Sprintf("#%d", org.ID)
	}
	rl.DrawText(title, ins.panelX+PanelPadding, ins.panelY+7, 16, ColorHeaderText)

	closeX := ins.panelX + PanelWidth - 25
	closeY := ins.panelY + 5
	rl.DrawRectangle(closeX, closeY, 20, 20, ColorCloseBtn)
	rl.DrawText("X", closeX+6, closeY+3, 14, rl.White)

	y := ins.panelY + HeaderHeight + PanelPadding
	x := ins.panelX + PanelPadding

	y += DrawLabel(x, y, "Position", fmt.Sprintf("(%.0f, %.0f)", pos.X, pos.Y), nil)

	y += 4
	rl.DrawLine(x, y, ins.panelX+PanelWidth-PanelPadding, y, ColorPanelBorder)
	y += 8

	for _, f := range fields {
		y += DrawField(x, y, f)
	}
}

// visibleFields drops predator-only fields for prey.
func visibleFields(org *components.Organism) []Field {
	all := ExtractFields(org)
	if org.IsPredator() {
		return all
	}
	out := all[:0]
	for _, f := range all {
		if f.Name == "AttackCooldown" || f.Name == "Kills" {
			continue
		}
		out = append(out, f)
	}
	return out
}

func (ins *Inspector) calculatePanelHeight(fields []Field) int32 {
	height := int32(HeaderHeight + PanelPadding)
	height += 18 + 12 // position and separator
	for _, f := range fields {
		height += FieldHeight(f)
	}
	return height + PanelPadding
}

// DrawSelectionHighlight draws a ring around the selected organism. Call
// it in world space.
func DrawSelectionHighlight(x, y, size float64) {
	rl.DrawCircleLines(int32(x), int32(y), float32(size*1.8), rl.Yellow)
}
