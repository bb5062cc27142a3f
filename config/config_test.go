package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()

	if cfg.World.Width <= 0 || cfg.World.Height <= 0 {
		t.Error("default world has no area")
	}
	if cfg.World.Boundary != BoundaryTorus && cfg.World.Boundary != BoundaryBounded {
		t.Errorf("default boundary %q unknown", cfg.World.Boundary)
	}
	if cfg.Population.Initial <= 0 || cfg.Population.Max < cfg.Population.Initial {
		t.Errorf("default population bounds broken: initial=%d max=%d", cfg.Population.Initial, cfg.Population.Max)
	}

	if cfg.Derived.DT32 != float32(cfg.World.DT) {
		t.Error("derived DT32 not computed")
	}
	wantInputs := BaseInputs + HiddenSize*cfg.Neural.MemorySteps
	if cfg.Derived.NumInputs != wantInputs {
		t.Errorf("derived NumInputs = %d, want %d", cfg.Derived.NumInputs, wantInputs)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero width", func(c *Config) { c.World.Width = 0 }},
		{"bad boundary", func(c *Config) { c.World.Boundary = "sphere" }},
		{"zero cell size", func(c *Config) { c.World.GridCellSize = 0 }},
		{"zero dt", func(c *Config) { c.World.DT = 0 }},
		{"negative water radius", func(c *Config) { c.World.WaterRadius = -1 }},
		{"zero initial population", func(c *Config) { c.Population.Initial = 0 }},
		{"max below initial", func(c *Config) { c.Population.Max = c.Population.Initial - 1 }},
		{"zero max energy", func(c *Config) { c.Energy.Max = 0 }},
		{"initial energy above max", func(c *Config) { c.Energy.Initial = c.Energy.Max + 1 }},
		{"zero max hydration", func(c *Config) { c.Hydration.Max = 0 }},
		{"negative feed radius", func(c *Config) { c.Food.FeedRadius = -1 }},
		{"zero food clusters", func(c *Config) { c.Food.Clusters = 0 }},
		{"negative attack distance", func(c *Config) { c.Combat.AttackDistance = -1 }},
		{"mutation rate above one", func(c *Config) { c.Mutation.Rate = 1.5 }},
		{"negative crossover rate", func(c *Config) { c.Reproduction.CrossoverRate = -0.1 }},
		{"unknown neural kind", func(c *Config) { c.Neural.Kind = "lstm" }},
		{"negative memory steps", func(c *Config) { c.Neural.MemorySteps = -1 }},
		{"memory steps on fnn", func(c *Config) { c.Neural.Kind = ControllerFNN; c.Neural.MemorySteps = 2 }},
		{"zero stats window", func(c *Config) { c.Telemetry.StatsWindow = 0 }},
	}
	for _, tt := range tests {
		cfg := Default()
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: Validate accepted a broken config", tt.name)
		}
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	data := []byte("world:\n  width: 1234\npopulation:\n  initial: 7\n  max: 7\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writing override file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.World.Width != 1234 {
		t.Errorf("width = %g, want override 1234", cfg.World.Width)
	}
	if cfg.Population.Initial != 7 || cfg.Population.Max != 7 {
		t.Errorf("population = %d/%d, want 7/7", cfg.Population.Initial, cfg.Population.Max)
	}

	// Fields absent from the file keep their defaults.
	def := Default()
	if cfg.World.Height != def.World.Height {
		t.Errorf("height = %g, want default %g", cfg.World.Height, def.World.Height)
	}
	if cfg.Energy.Max != def.Energy.Max {
		t.Errorf("max energy = %g, want default %g", cfg.Energy.Max, def.Energy.Max)
	}

	if cfg.Derived.WorldW32 != 1234 {
		t.Errorf("derived width = %g, want 1234", cfg.Derived.WorldW32)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("world:\n  dt: -1\n"), 0644); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load accepted a config with negative dt")
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Load accepted a missing file")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.yaml")

	cfg := Default()
	cfg.World.Width = 777
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("reloading written config: %v", err)
	}
	if loaded.World.Width != 777 {
		t.Errorf("round-tripped width = %g, want 777", loaded.World.Width)
	}
	if loaded.Neural.Kind != cfg.Neural.Kind {
		t.Errorf("round-tripped neural kind = %q, want %q", loaded.Neural.Kind, cfg.Neural.Kind)
	}
}
