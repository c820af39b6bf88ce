package telemetry

import (
	"log/slog"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase identifies one stage of a simulation step.
type Phase uint8

const (
	PhaseCommands Phase = iota
	PhaseEnvironment
	PhaseSpawning
	PhaseUpdate
	PhaseReproduction
	PhaseCleanup
	PhaseEffects
	PhaseTelemetry
	numPhases
)

var phaseNames = [numPhases]string{
	"commands", "environment", "spawning", "update",
	"reproduction", "cleanup", "effects", "telemetry",
}

func (ph Phase) String() string {
	if ph >= numPhases {
		return "unknown"
	}
	return phaseNames[ph]
}

// Phases lists the step phases in execution order.
var Phases = []Phase{
	PhaseCommands, PhaseEnvironment, PhaseSpawning, PhaseUpdate,
	PhaseReproduction, PhaseCleanup, PhaseEffects, PhaseTelemetry,
}

// TickLoad is the work one tick performed. Phase costs are divided by it.
type TickLoad struct {
	Commands  int // Commands drained from the queue
	Organisms int // Organisms visited by the update pass
}

type tickSample struct {
	total  time.Duration
	phases [numPhases]time.Duration
	load   TickLoad
}

// PerfCollector times each step phase over a rolling window of ticks.
// It is owned by the simulation goroutine.
type PerfCollector struct {
	now func() time.Time

	ring   []tickSample
	next   int
	filled int

	cur       tickSample
	tickStart time.Time
	mark      time.Time
	phase     Phase
	open      bool

	lastFrame time.Time
	frame     time.Duration
}

// NewPerfCollector keeps the last window ticks; 60 is one second at 60 Hz.
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{
		now:  time.Now,
		ring: make([]tickSample, window),
	}
}

// SetClock replaces the time source.
func (p *PerfCollector) SetClock(now func() time.Time) {
	p.now = now
}

// StartTick discards any unfinished tick and starts timing a new one.
func (p *PerfCollector) StartTick() {
	p.cur = tickSample{}
	p.tickStart = p.now()
	p.open = false
}

// StartPhase closes the open phase, if any, and starts timing ph.
func (p *PerfCollector) StartPhase(ph Phase) {
	now := p.now()
	p.closePhase(now)
	p.phase, p.mark, p.open = ph, now, true
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.open && p.phase < numPhases {
		p.cur.phases[p.phase] += now.Sub(p.mark)
	}
	p.open = false
}

// EndTick closes the open phase and records the tick with its load.
func (p *PerfCollector) EndTick(load TickLoad) {
	now := p.now()
	p.closePhase(now)
	p.cur.total = now.Sub(p.tickStart)
	p.cur.load = load

	p.ring[p.next] = p.cur
	p.next = (p.next + 1) % len(p.ring)
	p.filled = min(p.filled+1, len(p.ring))
}

// RecordFrame marks a rendered frame. Only the window loop calls it.
func (p *PerfCollector) RecordFrame() {
	now := p.now()
	if !p.lastFrame.IsZero() {
		p.frame = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats summarises the window. Phase arrays are indexed by Phase.
type PerfStats struct {
	AvgTick        time.Duration
	P95Tick        time.Duration
	MaxTick        time.Duration
	TicksPerSecond float64

	PhaseAvg [numPhases]time.Duration
	PhasePct [numPhases]float64 // Share of the average tick

	AvgOrganisms      float64
	UpdatePerOrganism time.Duration // Update phase cost per organism visited
	CommandsPerTick   float64
	CommandCost       time.Duration // Commands phase cost per drained command

	FrameDuration time.Duration
	FPS           float64
}

// Stats aggregates the ticks currently in the window.
func (p *PerfCollector) Stats() PerfStats {
	var s PerfStats
	s.FrameDuration = p.frame
	if p.frame > 0 {
		s.FPS = float64(time.Second) / float64(p.frame)
	}
	if p.filled == 0 {
		return s
	}

	var (
		total     time.Duration
		phases    [numPhases]time.Duration
		organisms int
		commands  int
	)
	ticks := make([]float64, p.filled)
	for i, t := range p.ring[:p.filled] {
		total += t.total
		s.MaxTick = max(s.MaxTick, t.total)
		ticks[i] = float64(t.total)
		for ph, d := range t.phases {
			phases[ph] += d
		}
		organisms += t.load.Organisms
		commands += t.load.Commands
	}

	n := time.Duration(p.filled)
	s.AvgTick = total / n
	slices.Sort(ticks)
	s.P95Tick = time.Duration(stat.Quantile(0.95, stat.Empirical, ticks, nil))
	if s.AvgTick > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTick)
	}
	for ph := range phases {
		s.PhaseAvg[ph] = phases[ph] / n
		if s.AvgTick > 0 {
			s.PhasePct[ph] = float64(s.PhaseAvg[ph]) / float64(s.AvgTick) * 100
		}
	}

	s.AvgOrganisms = float64(organisms) / float64(p.filled)
	s.CommandsPerTick = float64(commands) / float64(p.filled)
	if organisms > 0 {
		s.UpdatePerOrganism = phases[PhaseUpdate] / time.Duration(organisms)
	}
	if commands > 0 {
		s.CommandCost = phases[PhaseCommands] / time.Duration(commands)
	}
	return s
}

// LogStats logs the window summary. Phases under 0.1% are omitted.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTick.Microseconds(),
		"p95_tick_us", s.P95Tick.Microseconds(),
		"max_tick_us", s.MaxTick.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
		"organisms", int(s.AvgOrganisms),
		"update_ns_per_organism", s.UpdatePerOrganism.Nanoseconds(),
	}
	if s.CommandsPerTick > 0 {
		attrs = append(attrs, "commands_per_tick", s.CommandsPerTick, "command_us", s.CommandCost.Microseconds())
	}
	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}
	for _, ph := range Phases {
		if pct := s.PhasePct[ph]; pct > 0.1 {
			attrs = append(attrs, ph.String()+"_pct", float64(int(pct*10))/10)
		}
	}
	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTick.Microseconds()),
		slog.Int64("p95_tick_us", s.P95Tick.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
		slog.Float64("organisms", s.AvgOrganisms),
		slog.Float64("commands_per_tick", s.CommandsPerTick),
	}
	for _, ph := range Phases {
		attrs = append(attrs, slog.Float64(ph.String()+"_pct", s.PhasePct[ph]))
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	SimTime             float64 `csv:"sim_time"`
	AvgTickUS           int64   `csv:"avg_tick_us"`
	P95TickUS           int64   `csv:"p95_tick_us"`
	MaxTickUS           int64   `csv:"max_tick_us"`
	TicksPerSec         float64 `csv:"ticks_per_sec"`
	FPS                 float64 `csv:"fps"`
	Organisms           float64 `csv:"organisms"`
	UpdateNSPerOrganism int64   `csv:"update_ns_per_organism"`
	CommandsPerTick     float64 `csv:"commands_per_tick"`
	CommandUS           int64   `csv:"command_us"`
	CommandsPct         float64 `csv:"commands_pct"`
	EnvironmentPct      float64 `csv:"environment_pct"`
	SpawningPct         float64 `csv:"spawning_pct"`
	UpdatePct           float64 `csv:"update_pct"`
	ReproductionPct     float64 `csv:"reproduction_pct"`
	CleanupPct          float64 `csv:"cleanup_pct"`
	EffectsPct          float64 `csv:"effects_pct"`
	TelemetryPct        float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the summary for perf.csv.
func (s PerfStats) ToCSV(simTime float64) PerfStatsCSV {
	return PerfStatsCSV{
		SimTime:             simTime,
		AvgTickUS:           s.AvgTick.Microseconds(),
		P95TickUS:           s.P95Tick.Microseconds(),
		MaxTickUS:           s.MaxTick.Microseconds(),
		TicksPerSec:         s.TicksPerSecond,
		FPS:                 s.FPS,
		Organisms:           s.AvgOrganisms,
		UpdateNSPerOrganism: s.UpdatePerOrganism.Nanoseconds(),
		CommandsPerTick:     s.CommandsPerTick,
		CommandUS:           s.CommandCost.Microseconds(),
		CommandsPct:         s.PhasePct[PhaseCommands],
		EnvironmentPct:      s.PhasePct[PhaseEnvironment],
		SpawningPct:         s.PhasePct[PhaseSpawning],
		UpdatePct:           s.PhasePct[PhaseUpdate],
		ReproductionPct:     s.PhasePct[PhaseReproduction],
		CleanupPct:          s.PhasePct[PhaseCleanup],
		EffectsPct:          s.PhasePct[PhaseEffects],
		TelemetryPct:        s.PhasePct[PhaseTelemetry],
	}
}
