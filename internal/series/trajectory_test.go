package series

import (
	"errors"
	"math"
	"testing"
)

func mustNew(t *testing.T, times, values []float64) *Trajectory {
	t.Helper()
	tr, err := New(times, values)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tr
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		times   []float64
		values  []float64
		wantErr error
	}{
		{"ok", []float64{0, 1, 2}, []float64{1, 2, 3}, nil},
		{"single point", []float64{0}, []float64{1}, nil},
		{"length mismatch", []float64{0, 1}, []float64{1}, ErrLengthMismatch},
		{"repeated time", []float64{0, 1, 1}, []float64{1, 2, 3}, ErrNotMonotonic},
		{"decreasing", []float64{0, 2, 1}, []float64{1, 2, 3}, ErrNotMonotonic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.times, tt.values)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("New error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAt_Interpolation(t *testing.T) {
	tr := mustNew(t, []float64{0, 1, 2}, []float64{0, 10, 30})

	tests := []struct {
		t    float64
		want float64
	}{
		{0, 0},
		{0.5, 5},
		{1, 10},
		{1.5, 20},
		{2, 30},
	}

	for _, tt := range tests {
		got, err := tr.At(tt.t)
		if err != nil {
			t.Fatalf("At(%v): %v", tt.t, err)
		}
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("At(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestAt_OutsideRange(t *testing.T) {
	tr := mustNew(t, []float64{1, 2}, []float64{1, 2})

	if _, err := tr.At(0.5); err == nil {
		t.Error("expected error for t before range")
	}
	if _, err := tr.At(2.5); err == nil {
		t.Error("expected error for t after range")
	}
}

func TestClip(t *testing.T) {
	tr := mustNew(t, []float64{0, 1, 2, 3}, []float64{0, 10, 20, 30})

	clipped, err := tr.Clip(1.5)
	if err != nil {
		t.Fatalf("Clip: %v", err)
	}
	if clipped.Len() != 3 {
		t.Fatalf("expected 3 points, got %d", clipped.Len())
	}
	if clipped.End() != 1.5 {
		t.Errorf("expected end 1.5, got %v", clipped.End())
	}
	if math.Abs(clipped.Values[2]-15) > 1e-12 {
		t.Errorf("expected interpolated 15 at clip boundary, got %v", clipped.Values[2])
	}
}

func TestAlign_SharedGrid(t *testing.T) {
	a := mustNew(t, []float64{0, 2, 4}, []float64{0, 2, 4})
	b := mustNew(t, []float64{1, 3, 5}, []float64{10, 10, 10})

	ga, gb, err := Align(a, b, 5)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}

	if ga.Start() != 1 || ga.End() != 4 {
		t.Errorf("grid bounds [%v, %v], want [1, 4]", ga.Start(), ga.End())
	}
	if ga.Len() != 5 || gb.Len() != 5 {
		t.Errorf("grid lengths %d, %d, want 5", ga.Len(), gb.Len())
	}

	// a is the identity line, so resampled values equal the grid times.
	for i := range ga.Times {
		if math.Abs(ga.Values[i]-ga.Times[i]) > 1e-12 {
			t.Errorf("a at t=%v: got %v", ga.Times[i], ga.Values[i])
		}
		if gb.Values[i] != 10 {
			t.Errorf("b at t=%v: got %v, want 10", gb.Times[i], gb.Values[i])
		}
	}
}

func TestAlign_DisjointRanges(t *testing.T) {
	a := mustNew(t, []float64{0, 1}, []float64{0, 1})
	b := mustNew(t, []float64{2, 3}, []float64{0, 1})

	_, _, err := Align(a, b, 10)
	if !errors.Is(err, ErrNoOverlap) {
		t.Errorf("expected ErrNoOverlap, got %v", err)
	}
}

func TestMaxAbsDeviation(t *testing.T) {
	a := mustNew(t, []float64{0, 1, 2}, []float64{1, 2, 3})
	b := mustNew(t, []float64{0, 1, 2}, []float64{1, 2.5, 2.9})

	d, err := MaxAbsDeviation(a, b)
	if err != nil {
		t.Fatalf("MaxAbsDeviation: %v", err)
	}
	if math.Abs(d-0.5) > 1e-12 {
		t.Errorf("deviation = %v, want 0.5", d)
	}
}
