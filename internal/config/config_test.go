package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ar-nair/kinval/internal/mech"
	"github.com/ar-nair/kinval/internal/reactor"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mechanism != "isomerization" {
		t.Errorf("expected mechanism isomerization, got %s", cfg.Mechanism)
	}
	if cfg.Solver.Tolerance <= 0 {
		t.Error("tolerance should be positive")
	}
	if cfg.Workers < 1 {
		t.Error("workers should be at least 1")
	}
	if mech.Preset(cfg.Mechanism) == nil {
		t.Error("default mechanism is not a builtin preset")
	}
}

func TestLoadSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")

	cfg := DefaultConfig()
	cfg.Sensitive = []string{"cC3H6"}
	cfg.Temperatures = AxisConfig{Values: []float64{1000, 1300}, Units: []string{"K"}}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Temperatures.Values) != 2 {
		t.Errorf("temperatures lost in round trip: %v", loaded.Temperatures.Values)
	}
	if len(loaded.Sensitive) != 1 || loaded.Sensitive[0] != "cC3H6" {
		t.Errorf("sensitive species lost in round trip: %v", loaded.Sensitive)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partial.yaml")
	if err := os.WriteFile(path, []byte("mechanism: h2-oxidation\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mechanism != "h2-oxidation" {
		t.Errorf("mechanism = %s", cfg.Mechanism)
	}
	if cfg.Solver.MaxSteps != DefaultMaxSteps {
		t.Errorf("defaults not preserved: max_steps = %d", cfg.Solver.MaxSteps)
	}
}

func TestAxes_Resolution(t *testing.T) {
	m := mech.Isomerization()
	cfg := DefaultConfig()

	axes, err := cfg.Axes(m)
	if err != nil {
		t.Fatalf("Axes: %v", err)
	}

	conditions, err := reactor.Expand(axes)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(conditions) != 1 {
		t.Fatalf("expected 1 condition, got %d", len(conditions))
	}
	if conditions[0].Duration != 0.5e-3 {
		t.Errorf("duration = %v", conditions[0].Duration)
	}
}

func TestAxes_UnknownCompositionSpecies(t *testing.T) {
	m := mech.Isomerization()
	cfg := DefaultConfig()
	cfg.Compositions = []map[string]float64{{"CH4": 1.0}}

	if _, err := cfg.Axes(m); err == nil {
		t.Error("expected error for unknown composition species")
	}
}

func TestSensitiveSpecies_UnknownAborts(t *testing.T) {
	m := mech.Isomerization()
	cfg := DefaultConfig()
	cfg.Sensitive = []string{"NO2"}

	_, err := cfg.SensitiveSpecies(m)
	if !errors.Is(err, mech.ErrNoMatch) {
		t.Errorf("expected ErrNoMatch, got %v", err)
	}
}

func TestSensitiveSpecies_ByLabel(t *testing.T) {
	m := mech.Isomerization()
	cfg := DefaultConfig()
	cfg.Sensitive = []string{"cC3H6"}

	got, err := cfg.SensitiveSpecies(m)
	if err != nil {
		t.Fatalf("SensitiveSpecies: %v", err)
	}
	if len(got) != 1 || got[0] != m.Species[0] {
		t.Errorf("resolved %v, want [cC3H6]", got)
	}
}

func TestSensitiveSpecies_ByStructure(t *testing.T) {
	m := mech.Isomerization()
	cfg := DefaultConfig()
	// Structure names, not mechanism labels: identity resolution has to go
	// through graph matching.
	cfg.Sensitive = []string{"propene", "cyclopropane"}

	got, err := cfg.SensitiveSpecies(m)
	if err != nil {
		t.Fatalf("SensitiveSpecies: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("resolved %d species, want 2", len(got))
	}
	if got[0].Label != "C3H6" {
		t.Errorf("propene resolved to %s, want C3H6", got[0].Label)
	}
	if got[1].Label != "cC3H6" {
		t.Errorf("cyclopropane resolved to %s, want cC3H6", got[1].Label)
	}
}

func TestSensitiveSpecies_StructureNotInMechanism(t *testing.T) {
	m := mech.Isomerization()
	cfg := DefaultConfig()
	cfg.Sensitive = []string{"water"}

	_, err := cfg.SensitiveSpecies(m)
	if !errors.Is(err, mech.ErrNoMatch) {
		t.Errorf("expected ErrNoMatch, got %v", err)
	}
}
