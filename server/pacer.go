package server

// Pacer spaces snapshot publishes at a fixed real-time rate.
type Pacer struct {
	interval float64
	elapsed  float64
}

// NewPacer creates a pacer firing hz times per second. A non-positive hz
// fires on every call.
func NewPacer(hz float64) *Pacer {
	p := &Pacer{}
	if hz > 0 {
		p.interval = 1 / hz
	}
	return p
}

// Due advances the pacer by dt seconds and reports whether a publish is due.
// At most one publish is reported per call; missed intervals are dropped.
func (p *Pacer) Due(dt float64) bool {
	p.elapsed += dt
	if p.elapsed < p.interval {
		return false
	}
	p.elapsed -= p.interval
	if p.elapsed > p.interval {
		p.elapsed = 0
	}
	return true
}
