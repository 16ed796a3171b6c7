package mech

import (
	"errors"
	"testing"
)

func TestResolve_RoundTrip(t *testing.T) {
	m := Isomerization()

	// A query carrying the same structure under a different label must map
	// to the mechanism's own entry.
	query := &Species{Label: "cyclopropane", Structure: Cyclopropane()}

	resolved, err := m.Resolve([]*Species{query})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	got := resolved[query]
	if got == nil {
		t.Fatal("query not in resolution map")
	}
	if got.Label != "cC3H6" || got.Index != 0 {
		t.Errorf("resolved to %s, want cC3H6(0)", got)
	}
}

func TestResolve_Uniqueness(t *testing.T) {
	m := HydrogenOxidation()

	queries := []*Species{
		{Label: "q1", Structure: water()},
		{Label: "q2", Structure: hydroxyl()},
	}

	resolved, err := m.Resolve(queries)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved[queries[0]] == resolved[queries[1]] {
		t.Error("structurally distinct queries mapped to the same species")
	}
}

func TestResolve_NoMatch(t *testing.T) {
	m := Isomerization()
	query := &Species{Label: "water", Structure: water()}

	_, err := m.Resolve([]*Species{query})
	if !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}

	var re *ResolveError
	if !errors.As(err, &re) || re.Label != "water" {
		t.Errorf("error does not carry the query label: %v", err)
	}
}

func TestResolve_AmbiguousMatch(t *testing.T) {
	// Malformed mechanism: same structure listed twice under different labels.
	s1 := &Species{Label: "C3H6(a)", Structure: Propene()}
	s2 := &Species{Label: "C3H6(b)", Structure: Propene()}
	m, err := NewMechanism("broken", []*Species{s1, s2}, nil)
	if err != nil {
		t.Fatalf("NewMechanism: %v", err)
	}

	query := &Species{Label: "propene", Structure: Propene()}
	_, err = m.Resolve([]*Species{query})
	if !errors.Is(err, ErrAmbiguousMatch) {
		t.Fatalf("expected ErrAmbiguousMatch, got %v", err)
	}
	if !IsAmbiguous(err) {
		t.Error("IsAmbiguous did not recognize the error")
	}
}

func TestResolve_MissingStructure(t *testing.T) {
	m := Isomerization()
	query := &Species{Label: "bare"}

	_, err := m.Resolve([]*Species{query})
	if !errors.Is(err, ErrNoStructure) {
		t.Fatalf("expected ErrNoStructure, got %v", err)
	}
}

func TestSpecies_EqualIgnoresLabel(t *testing.T) {
	a := &Species{Label: "one", Structure: Propene()}
	b := &Species{Label: "two", Structure: propeneShuffled()}

	if !a.Equal(b) {
		t.Error("same structure under different labels should be equal")
	}

	c := &Species{Label: "one", Structure: Cyclopropane()}
	if a.Equal(c) {
		t.Error("same label with different structure should not be equal")
	}
}

func TestMechanism_Indices(t *testing.T) {
	m := HydrogenOxidation()

	for i, s := range m.Species {
		if s.Index != i {
			t.Errorf("species %s has index %d at position %d", s.Label, s.Index, i)
		}
	}
	for i, r := range m.Reactions {
		if r.Index != i {
			t.Errorf("reaction %d has index %d", i, r.Index)
		}
	}
}

func TestReaction_Equation(t *testing.T) {
	m := Isomerization()
	if got := m.Reactions[0].Equation(); got != "cC3H6 <=> C3H6" {
		t.Errorf("Equation() = %q", got)
	}
}

func TestArrhenius_K(t *testing.T) {
	// With Ea=0 and N=0 the rate constant is just A.
	a := Arrhenius{A: 3.5}
	if k := a.K(1000); k != 3.5 {
		t.Errorf("K(1000) = %v, want 3.5", k)
	}

	// Raising T must raise k for positive Ea.
	b := Arrhenius{A: 1e10, Ea: 100e3}
	if b.K(1500) <= b.K(1000) {
		t.Error("rate constant not increasing with temperature")
	}
}

func TestPreset(t *testing.T) {
	for _, name := range PresetNames() {
		if Preset(name) == nil {
			t.Errorf("preset %q missing", name)
		}
	}
	if Preset("nonexistent") != nil {
		t.Error("expected nil for unknown preset")
	}
}

func TestNamedMolecule(t *testing.T) {
	if got := NamedMolecule("propene"); got == nil || !got.Isomorphic(Propene()) {
		t.Error("propene lookup did not match Propene()")
	}
	if got := NamedMolecule("cyclopropane"); got == nil || got.Isomorphic(Propene()) {
		t.Error("cyclopropane lookup matched the wrong isomer")
	}
	if NamedMolecule("unobtainium") != nil {
		t.Error("unknown name should return nil")
	}
}
