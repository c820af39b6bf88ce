package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/chatlife/components"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeDistribution(t *testing.T) {
	values := []float64{90, 10, 50, 30, 70}
	d := ComputeDistribution(values)

	if d.Mean != 50 {
		t.Errorf("mean = %v, want 50", d.Mean)
	}
	// Sample std of {10,30,50,70,90} is sqrt(1000).
	if math.Abs(d.Std-math.Sqrt(1000)) > 1e-9 {
		t.Errorf("std = %v, want %v", d.Std, math.Sqrt(1000))
	}
	if d.P50 != 50 {
		t.Errorf("p50 = %v, want 50", d.P50)
	}
	if values[0] != 90 {
		t.Error("ComputeDistribution sorted its input")
	}
}

func TestComputeDistributionSmall(t *testing.T) {
	if d := ComputeDistribution(nil); d != (Distribution{}) {
		t.Errorf("empty distribution = %+v, want zero", d)
	}
	d := ComputeDistribution([]float64{42})
	if d.Mean != 42 || d.Std != 0 || d.P90 != 42 {
		t.Errorf("single value distribution = %+v", d)
	}
}

func TestCollectorFlushResets(t *testing.T) {
	c := NewCollector(5)
	c.RecordBirth(components.RolePrey)
	c.RecordBirth(components.RolePredator)
	c.RecordDeath(components.RolePrey)
	c.RecordAttack(false)
	c.RecordAttack(true)
	c.RecordFoodEaten()
	c.RecordDroppedCommand()

	if c.ShouldFlush(4.9) {
		t.Fatal("ShouldFlush before the window elapsed")
	}
	if !c.ShouldFlush(5) {
		t.Fatal("ShouldFlush false at window end")
	}

	s := c.Flush(5, Sample{PreyCount: 3, PreyHealth: []float64{20, 40, 60}})
	if s.PreyBirths != 1 || s.PredBirths != 1 || s.PreyDeaths != 1 {
		t.Errorf("births/deaths = %d/%d/%d", s.PreyBirths, s.PredBirths, s.PreyDeaths)
	}
	if s.KillRate != 0.5 {
		t.Errorf("kill rate = %v, want 0.5", s.KillRate)
	}
	if s.PreyHealthMean != 40 {
		t.Errorf("prey health mean = %v, want 40", s.PreyHealthMean)
	}

	next := c.Flush(10, Sample{})
	if next.PreyBirths != 0 || next.Attacks != 0 || next.DroppedCommands != 0 {
		t.Errorf("counters not reset: %+v", next)
	}
	if next.WindowStart != 5 {
		t.Errorf("window start = %v, want 5", next.WindowStart)
	}
	if c.ShouldFlush(14) {
		t.Error("window did not restart at last flush")
	}
}
