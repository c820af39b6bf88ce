package game

import (
	"github.com/pthm-cable/chatlife/components"
	"github.com/pthm-cable/chatlife/config"
)

// NotificationKind classifies a notification for display.
type NotificationKind uint8

const (
	NotifyInfo NotificationKind = iota
	NotifyWeather
	NotifyEvent
	NotifyVote
	NotifyError
)

func (k NotificationKind) String() string {
	switch k {
	case NotifyWeather:
		return "weather"
	case NotifyEvent:
		return "event"
	case NotifyVote:
		return "vote"
	case NotifyError:
		return "error"
	default:
		return "info"
	}
}

// MarshalText encodes the kind by name for JSON consumers.
func (k NotificationKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Notification is a short message for the presentation layer.
type Notification struct {
	Kind  NotificationKind `json:"kind"`
	Title string           `json:"title"`
	Text  string           `json:"text"`
	Err   error            `json:"-"`
}

// Hooks are callbacks into the presentation layer. Every hook is optional
// and runs synchronously on the simulation goroutine.
type Hooks struct {
	OnDeathCam     func(x, y float64)
	OnNotification func(Notification)
	OnScreenShake  func(intensity, duration float64)
	OnBirth        func(o components.Organism)
	OnDeath        func(o components.Organism, x, y float64)

	// OnConfigApplied receives each configuration accepted by ApplyConfig.
	OnConfigApplied func(cfg *config.Config)
}

func (p *Population) notify(n Notification) {
	if p.hooks.OnNotification != nil {
		p.hooks.OnNotification(n)
	}
}
