package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsLoad(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if cfg.Derived.WorldW != float64(cfg.Screen.Width) {
		t.Errorf("WorldW = %v, want screen width %d", cfg.Derived.WorldW, cfg.Screen.Width)
	}
	if cfg.Population.Floor != 5 {
		t.Errorf("Population.Floor = %d, want 5", cfg.Population.Floor)
	}
	if len(cfg.Weather.States) != 4 {
		t.Errorf("len(Weather.States) = %d, want 4", len(cfg.Weather.States))
	}
	if cfg.Events.Types["famine"].FoodSpawn != 0 {
		t.Errorf("famine food_spawn = %v, want 0", cfg.Events.Types["famine"].FoodSpawn)
	}
}

func TestLoadMergesUserFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	body := []byte("entity:\n  decay_rate: 3\nworld:\n  width: 2000\n")
	if err := os.WriteFile(path, body, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Entity.DecayRate != 3 {
		t.Errorf("DecayRate = %v, want 3", cfg.Entity.DecayRate)
	}
	if cfg.Entity.MaxHealth != 100 {
		t.Errorf("MaxHealth = %v, want default 100", cfg.Entity.MaxHealth)
	}
	if cfg.Derived.WorldW != 2000 {
		t.Errorf("WorldW = %v, want 2000", cfg.Derived.WorldW)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load of missing file returned nil error")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"negative spawn interval", func(c *Config) { c.Food.SpawnInterval = -1 }, "food.spawn_interval"},
		{"zero max health", func(c *Config) { c.Entity.MaxHealth = 0 }, "entity.max_health"},
		{"inverted energy range", func(c *Config) { c.Energy.Min = 200 }, "energy.min"},
		{"inverted cap range", func(c *Config) { c.Energy.PopulationCapMin = 50 }, "energy.population_cap_min"},
		{"probability above one", func(c *Config) { c.Entity.MutationChance = 1.5 }, "entity.mutation_chance"},
		{"nan decay", func(c *Config) { c.Entity.DecayRate = math.NaN() }, "entity.decay_rate"},
		{"inverted event interval", func(c *Config) { c.Events.MinInterval = 500 }, "events.min_interval"},
		{"cost above threshold", func(c *Config) { c.Entity.ReproductionCost = 100 }, "entity.reproduction_cost"},
		{"unsorted tiers", func(c *Config) { c.Chatters.Tiers[1].Below = 5 }, "chatters.tiers[1].below"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			var ce *ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("error %v is not a *ConfigurationError", err)
			}
			if ce.Field != tt.field {
				t.Errorf("Field = %q, want %q", ce.Field, tt.field)
			}
		})
	}
}

func TestStoreKeepsLastKnownGood(t *testing.T) {
	good := Defaults()
	store := NewStore(good)

	bad := good.Clone()
	bad.Entity.MaxHealth = -10
	if err := store.Apply(bad); err == nil {
		t.Fatal("Apply(bad) = nil, want error")
	}
	if store.Current() != good {
		t.Error("store replaced config after rejected update")
	}

	next := good.Clone()
	next.Energy.PopulationCapMax = 60
	if err := store.Apply(next); err != nil {
		t.Fatalf("Apply(next) error: %v", err)
	}
	if store.Current().Energy.PopulationCapMax != 60 {
		t.Error("store did not take valid update")
	}
}

func TestCloneIsDeep(t *testing.T) {
	a := Defaults()
	b := a.Clone()
	b.Population.RespawnNames[0] = "Changed"
	b.Weather.States["rain"] = WeatherEffect{}
	if a.Population.RespawnNames[0] == "Changed" {
		t.Error("Clone shares RespawnNames backing array")
	}
	if a.Weather.States["rain"].Speed == 0 {
		t.Error("Clone shares Weather.States map")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Defaults()
	cfg.Entity.DecayRate = 2.25
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML error: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got.Entity.DecayRate != 2.25 {
		t.Errorf("DecayRate = %v, want 2.25", got.Entity.DecayRate)
	}
}

func TestOverlayKeepsCurrentValues(t *testing.T) {
	base := Defaults()
	base.Entity.DecayRate = 3.5

	got, err := base.Overlay([]byte("voting:\n  interval: 42\n"))
	if err != nil {
		t.Fatalf("Overlay error: %v", err)
	}
	if got.Voting.Interval != 42 {
		t.Errorf("Voting.Interval = %v, want 42", got.Voting.Interval)
	}
	if got.Entity.DecayRate != 3.5 {
		t.Errorf("Entity.DecayRate = %v, want 3.5 from base", got.Entity.DecayRate)
	}
	if base.Voting.Interval == 42 {
		t.Error("Overlay modified its receiver")
	}

	if _, err := base.Overlay([]byte("voting:\n  interval: -1\n")); err == nil {
		t.Error("Overlay accepted a negative interval")
	}
}
