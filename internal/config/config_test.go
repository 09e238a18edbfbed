package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Engine != EngineSchrodinger {
		t.Errorf("expected engine schrodinger, got %s", cfg.Engine)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestPresetsValid(t *testing.T) {
	for _, name := range ListPresets() {
		t.Run(name, func(t *testing.T) {
			if err := GetPreset(name).Validate(); err != nil {
				t.Errorf("preset %s: %v", name, err)
			}
		})
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("sho1d")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Potential.Kind != "harmonic" {
		t.Errorf("expected harmonic potential, got %s", cfg.Potential.Kind)
	}

	cfg.Grid.Shape[0] = 7
	if Presets["sho1d"].Grid.Shape[0] == 7 {
		t.Error("GetPreset returned a shared grid shape")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresetsSorted(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("got %d names, want %d", len(names), len(Presets))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("names not sorted: %v", names)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown engine", func(c *Config) { c.Engine = "maxwell" }},
		{"extent mismatch", func(c *Config) { c.Grid.Extents = []float64{1, 2} }},
		{"no grid", func(c *Config) { c.Grid = GridConfig{} }},
		{"zero timestep", func(c *Config) { c.Dt, c.ImagDt = 0, 0 }},
		{"zero steps", func(c *Config) { c.Steps = 0 }},
		{"negative mass", func(c *Config) { c.Mass = -1 }},
		{"unknown units", func(c *Config) { c.Units = "imperial" }},
		{"bad component", func(c *Config) { c.Engine = EngineDirac; c.Initial.Component = 4 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("err = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestTimestep(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dt, cfg.ImagDt = 0, 0.01
	if got := cfg.Timestep(); got != complex(0, -0.01) {
		t.Errorf("Timestep = %v, want -0.01i", got)
	}
}

func TestUnitSystemMassOverride(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Units = "natural"
	cfg.Mass = 2
	u, err := cfg.UnitSystem()
	if err != nil {
		t.Fatal(err)
	}
	if u.Mass != 2 || u.C != 1 {
		t.Errorf("units = %+v, want natural with mass 2", u)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	want := GetPreset("dirac2d")
	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Engine != want.Engine || got.VectorPotential.Bz != want.VectorPotential.Bz {
		t.Errorf("round trip mismatch: got %+v", got)
	}
	if len(got.Grid.Shape) != 2 || got.Grid.Shape[1] != 64 {
		t.Errorf("grid shape = %v, want [64 64]", got.Grid.Shape)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("engine: maxwell\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}
