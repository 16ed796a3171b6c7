package store

import (
	"context"
	"testing"

	"github.com/ar-nair/kinval/internal/backend"
	"github.com/ar-nair/kinval/internal/mech"
	"github.com/ar-nair/kinval/internal/reactor"
	"github.com/ar-nair/kinval/internal/xval"
)

func demoBundles(t *testing.T) (*mech.Mechanism, []*xval.Bundle) {
	t.Helper()
	m := mech.Isomerization()

	opts := backend.DefaultOptions()
	opts.OutputPoints = 11
	kin := backend.NewKinetic(opts)
	if err := kin.Load(m, []*mech.Species{m.Species[0]}); err != nil {
		t.Fatal(err)
	}

	comp := map[*mech.Species]float64{m.Species[0]: 1.0}
	cond, err := reactor.NewCondition(reactor.ConstantPressure, comp, 1300, 1e5, 0.1e-3)
	if err != nil {
		t.Fatal(err)
	}

	batch := xval.NewBatch([]backend.Backend{kin}, []*reactor.Condition{cond})
	return m, batch.Run(context.Background())
}

func TestStore_SaveListLoad(t *testing.T) {
	m, bundles := demoBundles(t)

	s := New(t.TempDir())
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}

	runID, err := s.Save(m.Name, bundles)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	runs, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != runID {
		t.Fatalf("List = %+v, want one run %s", runs, runID)
	}

	meta, err := s.Load(runID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if meta.Mechanism != m.Name {
		t.Errorf("mechanism = %s, want %s", meta.Mechanism, m.Name)
	}
	if len(meta.Conditions) != 1 || !meta.Conditions[0].OK {
		t.Errorf("condition status = %+v", meta.Conditions)
	}
}

func TestStore_TrajectoryRoundTrip(t *testing.T) {
	m, bundles := demoBundles(t)

	s := New(t.TempDir())
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	runID, err := s.Save(m.Name, bundles)
	if err != nil {
		t.Fatal(err)
	}

	header, times, cols, err := s.LoadTable(runID, "cond0_kinetic.csv")
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	if header[0] != "time" {
		t.Errorf("first column = %q, want time", header[0])
	}
	if len(times) != 11 {
		t.Errorf("expected 11 rows, got %d", len(times))
	}

	orig := bundles[0].Results["kinetic"].Trajectories[m.Species[0]]
	got := cols[m.Species[0].Label]
	if len(got) != orig.Len() {
		t.Fatalf("column length %d, want %d", len(got), orig.Len())
	}
	for i := range got {
		if diff := got[i] - orig.Values[i]; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("row %d: %v != %v", i, got[i], orig.Values[i])
		}
	}
}

func TestStore_SensitivityFile(t *testing.T) {
	m, bundles := demoBundles(t)

	s := New(t.TempDir())
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	runID, err := s.Save(m.Name, bundles)
	if err != nil {
		t.Fatal(err)
	}

	header, _, cols, err := s.LoadTable(runID, "cond0_kinetic_sens.csv")
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}

	want := m.Species[0].Label + "/R0"
	if len(header) < 3 || header[1] != want {
		t.Errorf("header = %v, want %q at position 1", header, want)
	}
	if _, ok := cols[want+":degenerate"]; !ok {
		t.Error("degenerate flag column missing")
	}
}

func TestStore_ListEmpty(t *testing.T) {
	s := New(t.TempDir() + "/nonexistent")
	runs, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestStore_LoadMissing(t *testing.T) {
	s := New(t.TempDir())
	if _, err := s.Load("no-such-run"); err == nil {
		t.Error("expected error for missing run")
	}
	if _, _, _, err := s.LoadTable("no-such-run", "cond0_kinetic.csv"); err == nil {
		t.Error("expected error for missing table")
	}
}

func TestStore_ReferenceTables(t *testing.T) {
	m, bundles := demoBundles(t)

	s := New(t.TempDir())
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	runID, err := s.Save(m.Name, bundles)
	if err != nil {
		t.Fatal(err)
	}

	cond := bundles[0].Condition
	tables, err := s.ReferenceTables(runID, "kinetic", 1)
	if err != nil {
		t.Fatalf("ReferenceTables: %v", err)
	}

	ref := backend.NewReference("reference")
	ref.AddTable(cond, tables[0])
	if err := ref.Load(m, nil); err != nil {
		t.Fatal(err)
	}

	res, err := ref.Run(context.Background(), cond)
	if err != nil {
		t.Fatalf("reference Run: %v", err)
	}

	orig := bundles[0].Results["kinetic"].Trajectories[m.Species[0]]
	got, ok := res.Trajectories[m.Species[0]]
	if !ok {
		t.Fatal("reference backend lost the cC3H6 column")
	}
	if got.Len() != orig.Len() {
		t.Fatalf("reference has %d samples, original %d", got.Len(), orig.Len())
	}
	for i := range got.Values {
		if diff := got.Values[i] - orig.Values[i]; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("sample %d: reference %v, original %v", i, got.Values[i], orig.Values[i])
		}
	}

	if _, err := s.ReferenceTables(runID, "nope", 1); err == nil {
		t.Error("expected error for unknown backend files")
	}
}
