package traits

import (
	"math"
	"math/rand"
	"testing"
)

func TestCompoundOrderIndependent(t *testing.T) {
	var a, b Stack
	a = a.Add(Swift).Add(Swift).Add(Tank)
	b = b.Add(Tank).Add(Swift).Add(Swift)

	ma, mb := Compound(a), Compound(b)
	if ma != mb {
		t.Errorf("Compound differs by order: %+v vs %+v", ma, mb)
	}
}

func TestCompound(t *testing.T) {
	tests := []struct {
		name  string
		stack Stack
		want  Multipliers
	}{
		{"empty", Stack{}, Identity},
		{"single swift", Stack{}.Add(Swift), Multipliers{Speed: 1.5, Size: 0.8, Health: 1, Decay: 1}},
		{"double swift", Stack{}.Add(Swift).Add(Swift), Multipliers{Speed: 2.25, Size: 0.64, Health: 1, Decay: 1}},
		{"regen twice glow adds", Stack{}.Add(Regen).Add(Regen), Multipliers{Speed: 1, Size: 1, Health: 1, Decay: 0.25, Glow: 40}},
		{"tank titan", Stack{}.Add(Tank).Add(Titan), Multipliers{Speed: 0.56, Size: 1.95, Health: 1.95, Decay: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compound(tt.stack)
			check := func(field string, g, w float64) {
				if math.Abs(g-w) > 1e-9 {
					t.Errorf("%s = %v, want %v", field, g, w)
				}
			}
			check("Speed", got.Speed, tt.want.Speed)
			check("Size", got.Size, tt.want.Size)
			check("Health", got.Health, tt.want.Health)
			check("Decay", got.Decay, tt.want.Decay)
			check("Glow", got.Glow, tt.want.Glow)
		})
	}
}

func TestAddDoesNotAlias(t *testing.T) {
	parent := Stack{}.Add(Tank)
	child := parent.Add(Tank)
	if parent[Tank] != 1 {
		t.Errorf("parent Tank count = %d, want 1", parent[Tank])
	}
	if child[Tank] != 2 {
		t.Errorf("child Tank count = %d, want 2", child[Tank])
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name       string
		stack      Stack
		lineage    string
		generation int
		want       string
	}{
		{"root", Stack{}, "Alice", 0, "Alice"},
		{"generation", Stack{}, "Alice", 3, "Alice G3"},
		{"one mutation", Stack{}.Add(Regen), "Bob", 1, "Regen Bob G1"},
		{"counted", Stack{}.Add(Titan).Add(Swift).Add(Swift), "Eve", 4, "Swift x2, Titan Eve G4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DisplayName(tt.stack, tt.lineage, tt.generation)
			if got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRollCoversCatalog(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	seen := make(map[Mutation]bool)
	for i := 0; i < 1000; i++ {
		m := Roll(rng)
		if !m.Valid() {
			t.Fatalf("Roll returned invalid mutation %d", m)
		}
		seen[m] = true
	}
	if len(seen) != Count {
		t.Errorf("Roll produced %d distinct mutations, want %d", len(seen), Count)
	}
}
