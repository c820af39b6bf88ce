package telemetry

import (
	"testing"
	"time"
)

// fakeClock advances only when told to.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCollector(window int) (*PerfCollector, *fakeClock) {
	clk := &fakeClock{t: time.Unix(1000, 0)}
	pc := NewPerfCollector(window)
	pc.SetClock(clk.now)
	return pc, clk
}

func TestPerfCollectorPhaseAccounting(t *testing.T) {
	pc, clk := newTestCollector(10)

	pc.StartTick()
	pc.StartPhase(PhaseCommands)
	clk.advance(2 * time.Millisecond)
	pc.StartPhase(PhaseUpdate)
	clk.advance(6 * time.Millisecond)
	pc.EndTick(TickLoad{Commands: 4, Organisms: 3})

	s := pc.Stats()
	if s.AvgTick != 8*time.Millisecond {
		t.Errorf("AvgTick = %v, want 8ms", s.AvgTick)
	}
	if s.PhaseAvg[PhaseCommands] != 2*time.Millisecond {
		t.Errorf("commands = %v, want 2ms", s.PhaseAvg[PhaseCommands])
	}
	if s.PhasePct[PhaseUpdate] != 75 {
		t.Errorf("update pct = %v, want 75", s.PhasePct[PhaseUpdate])
	}
	if s.PhaseAvg[PhaseCleanup] != 0 {
		t.Errorf("cleanup = %v, want 0 for a phase never started", s.PhaseAvg[PhaseCleanup])
	}
	if s.UpdatePerOrganism != 2*time.Millisecond {
		t.Errorf("UpdatePerOrganism = %v, want 2ms", s.UpdatePerOrganism)
	}
	if s.CommandCost != 500*time.Microsecond {
		t.Errorf("CommandCost = %v, want 500us", s.CommandCost)
	}
	if s.TicksPerSecond != 125 {
		t.Errorf("TicksPerSecond = %v, want 125", s.TicksPerSecond)
	}
}

func TestPerfCollectorWindow(t *testing.T) {
	tests := []struct {
		name    string
		window  int
		ticksMS []int
		wantAvg time.Duration
		wantMax time.Duration
		wantP95 time.Duration
	}{
		{"partial", 5, []int{1, 3}, 2 * time.Millisecond, 3 * time.Millisecond, 3 * time.Millisecond},
		{"wrapped drops oldest", 2, []int{9, 2, 4}, 3 * time.Millisecond, 4 * time.Millisecond, 4 * time.Millisecond},
		{"tail", 20, []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 21}, 2 * time.Millisecond, 21 * time.Millisecond, time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc, clk := newTestCollector(tt.window)
			for _, ms := range tt.ticksMS {
				pc.StartTick()
				pc.StartPhase(PhaseUpdate)
				clk.advance(time.Duration(ms) * time.Millisecond)
				pc.EndTick(TickLoad{Organisms: 10})
			}

			s := pc.Stats()
			if s.AvgTick != tt.wantAvg {
				t.Errorf("AvgTick = %v, want %v", s.AvgTick, tt.wantAvg)
			}
			if s.MaxTick != tt.wantMax {
				t.Errorf("MaxTick = %v, want %v", s.MaxTick, tt.wantMax)
			}
			if s.P95Tick != tt.wantP95 {
				t.Errorf("P95Tick = %v, want %v", s.P95Tick, tt.wantP95)
			}
			if s.AvgOrganisms != 10 {
				t.Errorf("AvgOrganisms = %v, want 10", s.AvgOrganisms)
			}
		})
	}
}

func TestPerfCollectorStartTickDropsUnfinished(t *testing.T) {
	pc, clk := newTestCollector(4)

	pc.StartTick()
	pc.StartPhase(PhaseEnvironment)
	clk.advance(50 * time.Millisecond)

	pc.StartTick()
	pc.StartPhase(PhaseSpawning)
	clk.advance(time.Millisecond)
	pc.EndTick(TickLoad{})

	s := pc.Stats()
	if s.PhaseAvg[PhaseEnvironment] != 0 {
		t.Errorf("environment = %v, want 0", s.PhaseAvg[PhaseEnvironment])
	}
	if s.AvgTick != time.Millisecond {
		t.Errorf("AvgTick = %v, want 1ms", s.AvgTick)
	}
	if s.CommandCost != 0 || s.UpdatePerOrganism != 0 {
		t.Errorf("per-unit costs = %v, %v, want 0 with no load", s.CommandCost, s.UpdatePerOrganism)
	}
}

func TestPerfCollectorEmptyAndFrames(t *testing.T) {
	pc, clk := newTestCollector(10)

	s := pc.Stats()
	if s.AvgTick != 0 || s.FPS != 0 || s.AvgOrganisms != 0 {
		t.Errorf("empty stats = %+v, want zero", s)
	}

	pc.RecordFrame()
	clk.advance(20 * time.Millisecond)
	pc.RecordFrame()

	s = pc.Stats()
	if s.FrameDuration != 20*time.Millisecond {
		t.Errorf("FrameDuration = %v, want 20ms", s.FrameDuration)
	}
	if s.FPS != 50 {
		t.Errorf("FPS = %v, want 50", s.FPS)
	}
}

func TestPerfStatsCSVColumns(t *testing.T) {
	pc, clk := newTestCollector(1)
	pc.StartTick()
	for _, ph := range Phases {
		pc.StartPhase(ph)
		clk.advance(time.Millisecond)
	}
	pc.EndTick(TickLoad{Commands: 2, Organisms: 4})

	row := pc.Stats().ToCSV(12.5)
	if row.SimTime != 12.5 || row.AvgTickUS != 8000 {
		t.Errorf("row = %+v, want sim_time 12.5 and 8000us", row)
	}
	pcts := []float64{
		row.CommandsPct, row.EnvironmentPct, row.SpawningPct, row.UpdatePct,
		row.ReproductionPct, row.CleanupPct, row.EffectsPct, row.TelemetryPct,
	}
	for i, pct := range pcts {
		if pct != 12.5 {
			t.Errorf("%s pct = %v, want 12.5", Phases[i], pct)
		}
	}
	if row.UpdateNSPerOrganism != 250000 || row.CommandUS != 500 {
		t.Errorf("per-unit = %d ns, %d us, want 250000, 500", row.UpdateNSPerOrganism, row.CommandUS)
	}
}
