package game

import (
	"github.com/pthm-cable/chatlife/systems"
	"github.com/pthm-cable/chatlife/telemetry"
)

// OrganismView is the render-facing state of one organism.
type OrganismView struct {
	ID             uint32  `json:"id"`
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	Size           float64 `json:"size"`
	Speed          float64 `json:"speed"`
	Sides          int     `json:"sides"`
	Hue            float64 `json:"hue"`
	HealthFraction float64 `json:"health"`
	Name           string  `json:"name"`
	Glow           float64 `json:"glow"`
	Predator       bool    `json:"predator,omitempty"`
	Chatter        bool    `json:"chatter,omitempty"`
	Generation     int     `json:"generation"`
	Mutations      int     `json:"mutations"`
}

// FoodView is the render-facing state of one food item.
type FoodView struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Size       float64 `json:"size"`
	PulsePhase float64 `json:"pulse"`
}

// WeatherView describes the weather and any transition in progress.
// Current and Next are configuration keys; Name is the display name.
type WeatherView struct {
	Current  string  `json:"current"`
	Next     string  `json:"next"`
	Name     string  `json:"name"`
	Progress float64 `json:"progress"`
}

// BiomeView is one biome zone.
type BiomeView struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	Type   string  `json:"type"`
	Name   string  `json:"name"`
}

// EventView describes the active world event.
type EventView struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Remaining   float64 `json:"remaining"` // Fraction of the duration left
}

// ParticleView is one visual particle.
type ParticleView struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Size float64 `json:"size"`
	Hue  float64 `json:"hue"`
	Fade float64 `json:"fade"`
}

// Snapshot is a read-only copy of everything a presentation layer draws.
// It doubles as the websocket wire format.
type Snapshot struct {
	Tick          int     `json:"tick"`
	SimTime       float64 `json:"sim_time"`
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	Energy        float64 `json:"energy"`
	MaxEnergy     float64 `json:"max_energy"`
	PopulationCap int     `json:"population_cap"`
	Living        int     `json:"living"`
	Births        int     `json:"births"`
	Deaths        int     `json:"deaths"`

	Organisms []OrganismView `json:"organisms"`
	Food      []FoodView     `json:"food"`
	Particles []ParticleView `json:"particles,omitempty"`

	Weather WeatherView `json:"weather"`
	Biomes  []BiomeView `json:"biomes"`
	Event   *EventView  `json:"event,omitempty"`

	FocusActive bool    `json:"focus_active"`
	FocusX      float64 `json:"focus_x"`
	FocusY      float64 `json:"focus_y"`
	TimeScale   float64 `json:"time_scale"`

	Leaderboard *telemetry.Leaderboard `json:"leaderboard"`
}

// Snapshot copies the current world state. withParticles controls whether
// visual particles are included.
func (p *Population) Snapshot(withParticles bool) Snapshot {
	s := Snapshot{
		Tick:          p.tick,
		SimTime:       p.simTime,
		Width:         p.cfg.Derived.WorldW,
		Height:        p.cfg.Derived.WorldH,
		Energy:        p.energy,
		MaxEnergy:     p.cfg.Energy.Max,
		PopulationCap: p.PopulationCap(),
		Births:        p.births,
		Deaths:        p.deaths,
		FocusActive:   p.focus.Active,
		FocusX:        p.focus.X,
		FocusY:        p.focus.Y,
		TimeScale:     p.focus.TimeScale(),
		Leaderboard:   p.leaderboard.Clone(),
	}

	query := p.orgFilter.Query()
	for query.Next() {
		pos, _, org := query.Get()
		if !org.Alive {
			continue
		}
		s.Living++
		s.Organisms = append(s.Organisms, OrganismView{
			ID:             org.ID,
			X:              pos.X,
			Y:              pos.Y,
			Size:           org.Size,
			Speed:          org.Speed,
			Sides:          org.Sides,
			Hue:            org.Hue,
			HealthFraction: org.HealthFraction(),
			Name:           org.Name,
			Glow:           org.Glow,
			Predator:       org.IsPredator(),
			Chatter:        org.IsChatter,
			Generation:     org.Generation,
			Mutations:      org.Mutations.Total(),
		})
	}

	fq := p.foodFilter.Query()
	for fq.Next() {
		pos, food := fq.Get()
		if !food.Alive {
			continue
		}
		s.Food = append(s.Food, FoodView{X: pos.X, Y: pos.Y, Size: food.Size, PulsePhase: food.PulsePhase})
	}

	w := p.env.Weather
	s.Weather = WeatherView{Current: w.Current.Key(), Next: w.Current.Key(), Name: w.Current.String()}
	if w.Transitioning() {
		s.Weather.Next = w.Next.Key()
		s.Weather.Progress = w.Progress
	}

	for _, z := range p.env.Biomes.Zones {
		s.Biomes = append(s.Biomes, BiomeView{X: z.X, Y: z.Y, Radius: z.Radius, Type: z.Type.Key(), Name: z.Type.String()})
	}

	if ev := p.env.Events; ev.Active {
		s.Event = &EventView{
			Key:         ev.Current.Key(),
			Name:        ev.Current.String(),
			Description: ev.Current.Description(),
			Remaining:   ev.RemainingFraction(),
		}
	}

	if withParticles {
		s.Particles = particleViews(p.particles)
	}
	return s
}

func particleViews(ps *systems.ParticleSystem) []ParticleView {
	out := make([]ParticleView, 0, ps.Count())
	for i := range ps.Particles {
		pt := &ps.Particles[i]
		out = append(out, ParticleView{X: pt.X, Y: pt.Y, Size: pt.Size, Hue: pt.Hue, Fade: pt.Fade()})
	}
	return out
}
