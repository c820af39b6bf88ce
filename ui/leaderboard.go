package ui

import (
	"fmt"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/chatlife/telemetry"
)

var boardTitles = map[telemetry.Board]string{
	telemetry.BoardEvolved:   "Most Evolved",
	telemetry.BoardSurvival:  "Longest Lived",
	telemetry.BoardFoodEaten: "Top Eaters",
}

// LeaderboardPanel shows one leaderboard ranking. The shown board cycles
// with Next.
type LeaderboardPanel struct {
	renderer *Renderer
	board    telemetry.Board
	x, y     int32
	width    int32
}

// NewLeaderboardPanel creates a leaderboard panel showing the evolved board.
func NewLeaderboardPanel(width int32) *LeaderboardPanel {
	return &LeaderboardPanel{renderer: NewRenderer(), width: width}
}

// SetPosition updates the panel position.
func (l *LeaderboardPanel) SetPosition(x, y int32) {
	l.x, l.y = x, y
}

// Next switches to the following board.
func (l *LeaderboardPanel) Next() telemetry.Board {
	l.board = l.board.Next()
	return l.board
}

// Draw renders the selected board and returns the panel's bottom edge.
func (l *LeaderboardPanel) Draw(lb *telemetry.Leaderboard, hue func(h float64) rl.Color) int32 {
	if lb == nil {
		return l.y
	}
	r := l.renderer
	entries := lb.Entries(l.board)
	height := r.Theme.Padding*2 + 22 + int32(max(len(entries), 1))*(r.Theme.LineHeight+2)
	r.DrawPanel(l.x, l.y, l.width, height)

	x := l.x + r.Theme.Padding
	y := l.y + r.Theme.Padding
	rl.DrawText(boardTitles[l.board], x, y, 16, rl.White)
	y += 22

	if len(entries) == 0 {
		rl.DrawText("Nobody yet", x, y, r.Theme.FontSize, r.Theme.LabelColor)
		return l.y + height
	}

	for i, e := range entries {
		color := r.Theme.LabelColor
		if i == 0 {
			color = r.Theme.Accent
		}
		if hue != nil {
			rl.DrawRectangle(x, y+2, 8, 8, hue(e.Hue))
		}
		rl.DrawText(fmt.Sprintf("%d. %s", i+1, truncate(e.Name, 14)), x+14, y, r.Theme.FontSize, color)
		vw := rl.MeasureText(e.Value, r.Theme.FontSize)
		rl.DrawText(e.Value, l.x+l.width-r.Theme.Padding-vw, y, r.Theme.FontSize, r.Theme.ValueColor)
		y += r.Theme.LineHeight + 2
	}
	return l.y + height
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n-1])) + "."
}
