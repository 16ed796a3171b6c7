package solver

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// System is an autonomous-in-structure ODE right-hand side dx/dt = f(x, t).
type System interface {
	Derive(x State, t float64) State
	Dim() int
}

type Integrator interface {
	Step(sys System, x State, t, dt float64) State
}

type AdaptiveIntegrator interface {
	Integrator
	// StepAdaptive advances one accepted step of at most dt, returning the
	// size actually taken and the proposal for the next step.
	StepAdaptive(sys System, x State, t, dt, tol float64) (newX State, dtUsed, dtNext float64, err error)
}
