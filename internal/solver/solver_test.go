package solver

import (
	"math"
	"testing"
)

// Two-species first-order decay A -> B with rate constant k.
type decay struct {
	k float64
}

func (d *decay) Dim() int { return 2 }

func (d *decay) Derive(x State, t float64) State {
	r := d.k * x[0]
	return State{-r, r}
}

func (d *decay) exact(a0, t float64) float64 {
	return a0 * math.Exp(-d.k*t)
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"zeros", State{0.0, 0.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Norm(t *testing.T) {
	tests := []struct {
		state    State
		expected float64
	}{
		{State{3, 4}, 5.0},
		{State{1, 0}, 1.0},
		{State{0, 0}, 0.0},
	}

	for _, tt := range tests {
		if got := tt.state.Norm(); math.Abs(got-tt.expected) > 1e-10 {
			t.Errorf("Norm(%v) = %v, want %v", tt.state, got, tt.expected)
		}
	}
}

func TestState_Clone(t *testing.T) {
	s := State{1, 2, 3}
	c := s.Clone()
	c[0] = 99
	if s[0] == 99 {
		t.Error("Clone did not create independent copy")
	}
}

func TestEuler_Decay(t *testing.T) {
	sys := &decay{k: 2.0}
	integ := NewEuler()

	x := State{1.0, 0.0}
	dt := 1e-4
	steps := 10000

	for i := 0; i < steps; i++ {
		x = integ.Step(sys, x, float64(i)*dt, dt)
	}

	want := sys.exact(1.0, float64(steps)*dt)
	if math.Abs(x[0]-want) > 1e-3 {
		t.Errorf("Euler A(t) = %v, want %v", x[0], want)
	}
}

func TestRK4_Decay(t *testing.T) {
	sys := &decay{k: 2.0}
	integ := NewRK4()

	x := State{1.0, 0.0}
	dt := 0.01
	steps := 100

	for i := 0; i < steps; i++ {
		x = integ.Step(sys, x, float64(i)*dt, dt)
	}

	want := sys.exact(1.0, float64(steps)*dt)
	if math.Abs(x[0]-want) > 1e-8 {
		t.Errorf("RK4 A(t) = %v, want %v", x[0], want)
	}
}

func TestRK4_Conservation(t *testing.T) {
	sys := &decay{k: 5.0}
	integ := NewRK4()

	x := State{1.0, 0.0}
	dt := 0.01

	for i := 0; i < 200; i++ {
		x = integ.Step(sys, x, float64(i)*dt, dt)
	}

	total := x[0] + x[1]
	if math.Abs(total-1.0) > 1e-9 {
		t.Errorf("total moles drifted: %v", total)
	}
}

func TestRK45_Decay(t *testing.T) {
	sys := &decay{k: 2.0}
	integ := NewRK45()

	x := State{1.0, 0.0}
	dt := 0.01
	steps := 100

	for i := 0; i < steps; i++ {
		x = integ.Step(sys, x, float64(i)*dt, dt)
	}

	want := sys.exact(1.0, float64(steps)*dt)
	if math.Abs(x[0]-want) > 1e-8 {
		t.Errorf("RK45 A(t) = %v, want %v", x[0], want)
	}
}

func TestRK45_AdaptiveStep(t *testing.T) {
	sys := &decay{k: 2.0}
	integ := NewRK45()

	x, dtUsed, dtNext, err := integ.StepAdaptive(sys, State{1.0, 0.0}, 0, 0.1, 1e-8)

	if err != nil {
		t.Errorf("StepAdaptive returned error: %v", err)
	}
	if !x.IsValid() {
		t.Error("StepAdaptive produced invalid state")
	}
	if dtUsed <= 0 || dtUsed > 0.1 {
		t.Errorf("dtUsed = %f, want in (0, 0.1]", dtUsed)
	}
	if dtNext <= 0 {
		t.Errorf("StepAdaptive returned invalid next dt: %f", dtNext)
	}
}

func TestRK45_RejectsOversizedStep(t *testing.T) {
	sys := &decay{k: 1000.0}
	integ := NewRK45()

	// A 0.1 s trial on a 1 ms time-scale system must be rejected and
	// retried smaller, not accepted with a garbage error estimate.
	x, dtUsed, _, err := integ.StepAdaptive(sys, State{1.0, 0.0}, 0, 0.1, 1e-8)
	if err != nil {
		t.Fatalf("StepAdaptive returned error: %v", err)
	}
	if dtUsed >= 0.1 {
		t.Fatalf("oversized step accepted: dtUsed = %v", dtUsed)
	}

	want := sys.exact(1.0, dtUsed)
	if diff := math.Abs(x[0] - want); diff > 1e-6 {
		t.Errorf("A(%v) = %v, want %v (diff %v)", dtUsed, x[0], want, diff)
	}
}
