package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/chatlife/game"
)

const (
	notificationTTL  = 3.0
	notificationFade = 0.5
	maxNotifications = 5
)

type toast struct {
	n   game.Notification
	age float64
}

// NotificationFeed shows recent notifications as toasts that fade out.
type NotificationFeed struct {
	renderer *Renderer
	toasts   []toast
}

// NewNotificationFeed creates an empty feed.
func NewNotificationFeed() *NotificationFeed {
	return &NotificationFeed{renderer: NewRenderer()}
}

// Push adds a notification, evicting the oldest when full.
func (f *NotificationFeed) Push(n game.Notification) {
	f.toasts = append(f.toasts, toast{n: n})
	if len(f.toasts) > maxNotifications {
		f.toasts = f.toasts[len(f.toasts)-maxNotifications:]
	}
}

// Update ages toasts by dt real seconds and drops expired ones.
func (f *NotificationFeed) Update(dt float64) {
	kept := f.toasts[:0]
	for _, t := range f.toasts {
		t.age += dt
		if t.age < notificationTTL {
			kept = append(kept, t)
		}
	}
	f.toasts = kept
}

// Len returns the number of visible toasts.
func (f *NotificationFeed) Len() int { return len(f.toasts) }

var kindColors = map[game.NotificationKind]rl.Color{
	game.NotifyInfo:    {R: 78, G: 204, B: 163, A: 255},
	game.NotifyWeather: {R: 120, G: 170, B: 255, A: 255},
	game.NotifyEvent:   {R: 255, G: 209, B: 102, A: 255},
	game.NotifyVote:    {R: 200, G: 120, B: 255, A: 255},
	game.NotifyError:   {R: 255, G: 107, B: 107, A: 255},
}

// Draw stacks toasts downward from the top centre of the screen.
func (f *NotificationFeed) Draw(screenWidth, top int32) {
	r := f.renderer
	const width, height = 320, 44
	x := (screenWidth - width) / 2
	y := top
	for i := len(f.toasts) - 1; i >= 0; i-- {
		t := f.toasts[i]
		alpha := float32(1)
		if left := notificationTTL - t.age; left < notificationFade {
			alpha = float32(left / notificationFade)
		}

		accent := rl.Fade(kindColors[t.n.Kind], alpha)
		rl.DrawRectangle(x, y, width, height, rl.Fade(r.Theme.PanelBg, alpha))
		rl.DrawRectangle(x, y, 4, height, accent)
		rl.DrawText(t.n.Title, x+12, y+6, 16, accent)
		rl.DrawText(t.n.Text, x+12, y+26, r.Theme.FontSize, rl.Fade(rl.LightGray, alpha))
		y += height + 6
	}
}
