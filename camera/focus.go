package camera

import "math/rand"

// Focus is the death-cam: a point of interest that slows simulated time
// while it is active. Its countdown runs on the real clock, so a slowed
// simulation does not stretch the focus.
type Focus struct {
	X, Y      float64
	Active    bool
	remaining float64
	scale     float64
}

// Start focuses on (x, y) for duration real seconds at the given time
// scale. It does nothing and returns false while a focus is already active.
func (f *Focus) Start(x, y, duration, scale float64) bool {
	if f.Active || duration <= 0 {
		return false
	}
	f.X, f.Y = x, y
	f.Active = true
	f.remaining = duration
	f.scale = scale
	return true
}

// Update counts the focus down by real elapsed time.
func (f *Focus) Update(realDt float64) {
	if !f.Active {
		return
	}
	f.remaining -= realDt
	if f.remaining <= 0 {
		f.Active = false
		f.remaining = 0
	}
}

// TimeScale is the multiplier applied to simulated time: the focus scale
// while active, otherwise 1.
func (f *Focus) TimeScale() float64 {
	if f.Active {
		return f.scale
	}
	return 1
}

// Remaining returns the real seconds left on the focus.
func (f *Focus) Remaining() float64 {
	return f.remaining
}

// Shake jitters the view for a short real-time window.
type Shake struct {
	Intensity float64
	remaining float64
}

// Start begins a shake, replacing any shake already running.
func (s *Shake) Start(intensity, duration float64) {
	s.Intensity = intensity
	s.remaining = duration
}

// Update counts the shake down by real elapsed time.
func (s *Shake) Update(realDt float64) {
	if s.remaining <= 0 {
		return
	}
	s.remaining -= realDt
	if s.remaining <= 0 {
		s.remaining = 0
		s.Intensity = 0
	}
}

// Active reports whether the shake is running.
func (s *Shake) Active() bool {
	return s.remaining > 0
}

// Offset returns a random screen offset within the current intensity.
func (s *Shake) Offset(rng *rand.Rand) (float32, float32) {
	if !s.Active() {
		return 0, 0
	}
	dx := (rng.Float64()*2 - 1) * s.Intensity
	dy := (rng.Float64()*2 - 1) * s.Intensity
	return float32(dx), float32(dy)
}
