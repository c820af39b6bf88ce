package components

import "testing"

func TestSidesForSize(t *testing.T) {
	tests := []struct {
		size float64
		want int
	}{
		{0, 3},
		{14.99, 3},
		{15, 4},
		{19.9, 4},
		{20, 5},
		{25, 6},
		{30, 7},
		{35, 8},
		{40, 9},
		{43, 10},
		{46, 11},
		{48.9, 11},
		{49, 12},
		{60, 12},
	}

	for _, tt := range tests {
		if got := SidesForSize(tt.size); got != tt.want {
			t.Errorf("SidesForSize(%v) = %d, want %d", tt.size, got, tt.want)
		}
	}
}

func TestSetSizeClampsAndReshapes(t *testing.T) {
	var o Organism
	o.SetSize(100, 5, 60)
	if o.Size != 60 || o.Sides != MaxSides {
		t.Errorf("SetSize(100) -> size %v sides %d, want 60 and %d", o.Size, o.Sides, MaxSides)
	}
	o.SetSize(1, 5, 60)
	if o.Size != 5 || o.Sides != MinSides {
		t.Errorf("SetSize(1) -> size %v sides %d, want 5 and %d", o.Size, o.Sides, MinSides)
	}
}

func TestHealthFraction(t *testing.T) {
	o := Organism{Health: 30, MaxHealth: 120}
	if got := o.HealthFraction(); got != 0.25 {
		t.Errorf("HealthFraction() = %v, want 0.25", got)
	}
	o.MaxHealth = 0
	if got := o.HealthFraction(); got != 0 {
		t.Errorf("HealthFraction() with zero max = %v, want 0", got)
	}
}
