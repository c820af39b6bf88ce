package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/chatlife/chat"
)

// VotePanel renders the community vote: live tallies while a vote runs and
// a countdown to the next one otherwise.
type VotePanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewVotePanel creates a vote panel.
func NewVotePanel(width int32) *VotePanel {
	return &VotePanel{renderer: NewRenderer(), width: width}
}

// SetPosition updates the panel position.
func (v *VotePanel) SetPosition(x, y int32) {
	v.x, v.y = x, y
}

// Draw renders the vote state and returns the panel's bottom edge.
func (v *VotePanel) Draw(s chat.VoteState, duration float64) int32 {
	if !s.Enabled {
		return v.y
	}
	r := v.renderer
	x := v.x + r.Theme.Padding

	if !s.Active {
		height := int32(40)
		r.DrawPanel(v.x, v.y, v.width, height)
		text := "Voting paused: no chat"
		if s.Connected {
			text = fmt.Sprintf("Next vote in %.0fs", s.UntilNext)
		}
		rl.DrawText(text, x, v.y+r.Theme.Padding, 14, r.Theme.LabelColor)
		if s.LastWinner != "" {
			rl.DrawText("Last: "+s.LastWinner, x, v.y+r.Theme.Padding+16, r.Theme.FontSize, rl.Gray)
		}
		return v.y + height
	}

	total := 0
	for _, o := range s.Options {
		total += o.Votes
	}

	rowHeight := int32(32)
	height := r.Theme.Padding*2 + 40 + int32(len(s.Options))*rowHeight
	r.DrawPanel(v.x, v.y, v.width, height)

	y := v.y + r.Theme.Padding
	rl.DrawText("VOTE NOW", x, y, 18, r.Theme.Accent)
	timer := fmt.Sprintf("%.0fs", s.Remaining)
	tw := rl.MeasureText(timer, 18)
	rl.DrawText(timer, v.x+v.width-r.Theme.Padding-tw, y, 18, rl.White)
	y += 22
	if duration > 0 {
		r.DrawProgress(x, y, v.width-r.Theme.Padding*2, float32(s.Remaining/duration), r.Theme.Accent)
	}
	y += 18

	inner := v.width - r.Theme.Padding*2
	for _, o := range s.Options {
		share := float32(0)
		if total > 0 {
			share = float32(o.Votes) / float32(total)
		}
		rl.DrawText(fmt.Sprintf("%s  %s", o.Command, o.Title), x, y, r.Theme.FontSize, rl.White)
		count := fmt.Sprintf("%d", o.Votes)
		cw := rl.MeasureText(count, r.Theme.FontSize)
		rl.DrawText(count, x+inner-cw, y, r.Theme.FontSize, r.Theme.ValueColor)
		r.DrawProgress(x, y+15, inner, share, r.Theme.BarFillHigh)
		y += rowHeight
	}
	return v.y + height
}
