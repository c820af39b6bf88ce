package systems

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/chatlife/components"
	"github.com/pthm-cable/chatlife/config"
	"github.com/pthm-cable/chatlife/traits"
)

func eligibleParent(t *testing.T, cfg *config.Config, rng *rand.Rand) Agent {
	t.Helper()
	a := newAgent(NewOrganism(rng, cfg, Spawn{X: 400, Y: 300, Lineage: "Parent"}))
	a.Org.Health = 85
	a.Org.SinceReproduction = cfg.Entity.ReproductionCooldown
	a.Org.SetSize(25, cfg.Entity.MinSize, cfg.Entity.MaxSize)
	return a
}

func TestCanReproduceGate(t *testing.T) {
	cfg := config.Defaults()
	cfg.Entity.MutationChance = 0
	rng := rand.New(rand.NewSource(1))

	tests := []struct {
		name   string
		mutate func(o *components.Organism)
		want   bool
	}{
		{"eligible", func(o *components.Organism) {}, true},
		{"low health", func(o *components.Organism) { o.Health = 79 }, false},
		{"cooldown", func(o *components.Organism) { o.SinceReproduction = 9.9 }, false},
		{"too small", func(o *components.Organism) { o.SetSize(20, 5, 60) }, false},
		{"dead", func(o *components.Organism) { o.Kill() }, false},
		{"predator", func(o *components.Organism) { o.Role = components.RolePredator }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := eligibleParent(t, cfg, rng)
			tt.mutate(a.Org)
			if got := CanReproduce(a.Org, cfg); got != tt.want {
				t.Errorf("CanReproduce() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanReproduceHasNoSideEffects(t *testing.T) {
	cfg := config.Defaults()
	rng := rand.New(rand.NewSource(2))
	a := eligibleParent(t, cfg, rng)
	before := *a.Org

	for i := 0; i < 100; i++ {
		CanReproduce(a.Org, cfg)
	}
	if *a.Org != before {
		t.Errorf("CanReproduce mutated organism: %+v -> %+v", before, *a.Org)
	}
}

func TestReproduceCostKillsDrainedParent(t *testing.T) {
	cfg := config.Defaults()
	cfg.Entity.ReproductionCost = 50
	rng := rand.New(rand.NewSource(5))
	a := eligibleParent(t, cfg, rng)
	a.Org.Health = 30

	Reproduce(a, rng, cfg, 1)

	if a.Org.Health != 0 {
		t.Errorf("parent health = %v, want 0", a.Org.Health)
	}
	if a.Org.Alive {
		t.Error("parent still alive after paying more than its health")
	}
}

func TestReproduceContract(t *testing.T) {
	cfg := config.Defaults()
	rng := rand.New(rand.NewSource(3))
	a := eligibleParent(t, cfg, rng)
	a.Org.Generation = 4
	a.Org.Mutations = traits.Stack{}.Add(traits.Tank)
	a.Org.Primary = traits.Tank
	parentSize := a.Org.Size

	child := Reproduce(a, rng, cfg, 1)

	if a.Org.Health != 85-cfg.Entity.ReproductionCost {
		t.Errorf("parent health = %v, want %v", a.Org.Health, 85-cfg.Entity.ReproductionCost)
	}
	if a.Org.SinceReproduction != 0 {
		t.Errorf("parent SinceReproduction = %v, want 0", a.Org.SinceReproduction)
	}
	if child.Org.Generation != 5 {
		t.Errorf("child generation = %d, want 5", child.Org.Generation)
	}
	if child.Org.Lineage != "Parent" {
		t.Errorf("child lineage = %q, want Parent", child.Org.Lineage)
	}
	if child.Org.Mutations[traits.Tank] < 1 {
		t.Error("child lost inherited Tank mutation")
	}
	if CanReproduce(a.Org, cfg) {
		t.Error("parent still eligible immediately after reproducing")
	}

	gap := Distance(a.Pos.X, a.Pos.Y, child.Pos.X, child.Pos.Y)
	if math.Abs(gap-(parentSize+cfg.Entity.ReproductionGap)) > 1e-9 {
		t.Errorf("child offset = %v, want %v", gap, parentSize+cfg.Entity.ReproductionGap)
	}
}

func TestReproduceDoesNotAliasParentStack(t *testing.T) {
	cfg := config.Defaults()
	cfg.Entity.MutationChance = 1
	rng := rand.New(rand.NewSource(4))
	a := eligibleParent(t, cfg, rng)
	before := a.Org.Mutations

	child := Reproduce(a, rng, cfg, 1)

	if a.Org.Mutations != before {
		t.Error("child mutation roll changed the parent's stack")
	}
	if child.Org.Mutations.Total() != before.Total()+1 {
		t.Errorf("child stack total = %d, want %d", child.Org.Mutations.Total(), before.Total()+1)
	}
}

func TestMutationMultAmplifiesChance(t *testing.T) {
	cfg := config.Defaults()
	cfg.Entity.MutationChance = 0.1
	rng := rand.New(rand.NewSource(5))

	count := func(mult float64) int {
		n := 0
		for i := 0; i < 2000; i++ {
			if NewOrganism(rng, cfg, Spawn{Lineage: "X", MutationMult: mult}).Org.Mutations.Total() > 0 {
				n++
			}
		}
		return n
	}
	if base, boosted := count(1), count(5); boosted <= base*2 {
		t.Errorf("mutation count with mult 5 = %d, base = %d; want clear amplification", boosted, base)
	}
}

func TestNewOrganismAppliesMutations(t *testing.T) {
	cfg := config.Defaults()
	cfg.Entity.MutationChance = 0
	rng := rand.New(rand.NewSource(6))

	parent := components.Organism{
		Lineage:   "Big",
		Size:      50,
		Mutations: traits.Stack{}.Add(traits.Titan),
		Primary:   traits.Titan,
	}
	n := NewOrganism(rng, cfg, Spawn{Parent: &parent})

	wantSize := 50 * cfg.Entity.ChildSizeFactor * 1.5
	if math.Abs(n.Org.Size-wantSize) > 1e-9 {
		t.Errorf("size = %v, want %v", n.Org.Size, wantSize)
	}
	if math.Abs(n.Org.MaxHealth-130) > 1e-9 {
		t.Errorf("max health = %v, want 130", n.Org.MaxHealth)
	}
	if n.Org.Name != "Titan Big G1" {
		t.Errorf("name = %q, want %q", n.Org.Name, "Titan Big G1")
	}
	if n.Org.Hue != traits.Catalog[traits.Titan].Hue {
		t.Errorf("hue = %v, want Titan hue", n.Org.Hue)
	}
}

func TestChatterHue(t *testing.T) {
	if got, want := ChatterHue("A"), math.Mod(65*137.5, 360); got != want {
		t.Errorf("ChatterHue(A) = %v, want %v", got, want)
	}
	if got := ChatterHue(""); got != 0 {
		t.Errorf("ChatterHue(\"\") = %v, want 0", got)
	}
}

func TestParticlesExpire(t *testing.T) {
	ps := NewParticleSystem(rand.New(rand.NewSource(7)), 10)
	ps.Emit(0, 0, ParticleDeath, 25)
	if ps.Count() != 10 {
		t.Fatalf("Count() = %d, want cap of 10", ps.Count())
	}
	for i := 0; i < 20; i++ {
		ps.Update(0.1)
	}
	if ps.Count() != 0 {
		t.Errorf("Count() after 2s = %d, want 0", ps.Count())
	}
}
