package solver

import (
	"errors"
	"math"
)

// Dormand-Prince 5(4) tableau. The last stage is evaluated at the fifth-order
// solution, so rkError spans seven stages.
var (
	rkNodes = [6]float64{1.0 / 5, 3.0 / 10, 4.0 / 5, 8.0 / 9, 1, 1}

	rkStages = [6][]float64{
		{1.0 / 5},
		{3.0 / 40, 9.0 / 40},
		{44.0 / 45, -56.0 / 15, 32.0 / 9},
		{19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
		{9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
		{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84},
	}

	rkSolution = [7]float64{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84, 0}

	rkError = [7]float64{
		35.0/384 - 5179.0/57600,
		0,
		500.0/1113 - 7571.0/16695,
		125.0/192 - 393.0/640,
		-2187.0/6784 + 92097.0/339200,
		11.0/84 - 187.0/2100,
		-1.0 / 40,
	}
)

// ErrStepUnderflow marks a step size driven below resolvable magnitude by
// repeated rejections, which in practice means the system is too stiff for
// an explicit method at the requested tolerance.
var ErrStepUnderflow = errors.New("solver: step size underflow")

const maxRejects = 16

type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

func (r *RK45) Step(sys System, x State, t, dt float64) State {
	newX, _, _, _ := r.StepAdaptive(sys, x, t, dt, 1e-6)
	return newX
}

// StepAdaptive advances one accepted step. A trial whose error estimate
// exceeds tol is rejected and retried at a smaller size, so the returned
// dtUsed may be below the requested dt; dtNext is the proposal for the
// following step.
func (r *RK45) StepAdaptive(sys System, x State, t, dt, tol float64) (newX State, dtUsed, dtNext float64, err error) {
	for reject := 0; ; reject++ {
		xNew, errRatio := r.trial(sys, x, t, dt, tol)
		if errRatio <= 1 {
			return xNew, dt, dt * r.growth(errRatio), nil
		}
		if reject >= maxRejects || dt <= math.SmallestNonzeroFloat64*(math.Abs(t)+1) {
			return nil, 0, 0, ErrStepUnderflow
		}
		dt *= math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
	}
}

// trial takes one candidate step and returns the fifth-order solution with
// its error estimate scaled against tol.
func (r *RK45) trial(sys System, x State, t, dt, tol float64) (State, float64) {
	n := len(x)
	var k [7]State
	k[0] = sys.Derive(x, t)

	stage := make(State, n)
	for s := 0; s < 6; s++ {
		coeffs := rkStages[s]
		for i := 0; i < n; i++ {
			acc := 0.0
			for j, c := range coeffs {
				acc += c * k[j][i]
			}
			stage[i] = x[i] + dt*acc
		}
		k[s+1] = sys.Derive(stage, t+rkNodes[s]*dt)
	}

	xNew := make(State, n)
	errMax := 0.0
	for i := 0; i < n; i++ {
		sol, est := 0.0, 0.0
		for s := 0; s < 7; s++ {
			sol += rkSolution[s] * k[s][i]
			est += rkError[s] * k[s][i]
		}
		xNew[i] = x[i] + dt*sol
		scale := math.Abs(x[i]) + math.Abs(dt*k[0][i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(dt*est)/scale)
	}
	return xNew, errMax / tol
}

func (r *RK45) growth(errRatio float64) float64 {
	if errRatio <= 0 {
		return r.maxScale
	}
	return math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
}
