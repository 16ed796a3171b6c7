package series

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNotMonotonic indicates a time grid that is not strictly increasing.
	ErrNotMonotonic = errors.New("series: time grid not strictly increasing")

	// ErrLengthMismatch indicates times and values of differing length.
	ErrLengthMismatch = errors.New("series: times and values length mismatch")

	// ErrNoOverlap indicates two trajectories with disjoint time ranges.
	ErrNoOverlap = errors.New("series: time ranges do not overlap")

	// ErrEmpty indicates an operation on an empty trajectory.
	ErrEmpty = errors.New("series: empty trajectory")
)

// Trajectory is an ordered sequence of (time, value) samples for one observable.
type Trajectory struct {
	Times  []float64
	Values []float64
}

// New validates the grid and wraps the slices without copying.
func New(times, values []float64) (*Trajectory, error) {
	if len(times) != len(values) {
		return nil, fmt.Errorf("%w: %d times, %d values", ErrLengthMismatch, len(times), len(values))
	}
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			return nil, fmt.Errorf("%w: t[%d]=%g after t[%d]=%g", ErrNotMonotonic, i, times[i], i-1, times[i-1])
		}
	}
	return &Trajectory{Times: times, Values: values}, nil
}

func (tr *Trajectory) Len() int { return len(tr.Times) }

func (tr *Trajectory) Start() float64 { return tr.Times[0] }

func (tr *Trajectory) End() float64 { return tr.Times[len(tr.Times)-1] }

// At returns the linearly interpolated value at time t. t must lie within
// [Start, End]; points outside the range are never extrapolated.
func (tr *Trajectory) At(t float64) (float64, error) {
	if tr.Len() == 0 {
		return 0, ErrEmpty
	}
	if t < tr.Start() || t > tr.End() {
		return 0, fmt.Errorf("series: t=%g outside [%g, %g]", t, tr.Start(), tr.End())
	}

	// Binary search for the bracketing interval.
	lo, hi := 0, tr.Len()-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if tr.Times[mid] <= t {
			lo = mid
		} else {
			hi = mid
		}
	}

	t0, t1 := tr.Times[lo], tr.Times[hi]
	if t == t0 || t0 == t1 {
		return tr.Values[lo], nil
	}
	frac := (t - t0) / (t1 - t0)
	return tr.Values[lo] + frac*(tr.Values[hi]-tr.Values[lo]), nil
}

// Clip returns a copy restricted to samples with t <= end. The sample at
// end itself is synthesized by interpolation when the grid skips over it.
func (tr *Trajectory) Clip(end float64) (*Trajectory, error) {
	if tr.Len() == 0 {
		return nil, ErrEmpty
	}
	times := make([]float64, 0, tr.Len())
	values := make([]float64, 0, tr.Len())
	for i, t := range tr.Times {
		if t > end {
			break
		}
		times = append(times, t)
		values = append(values, tr.Values[i])
	}
	if len(times) == 0 {
		return nil, fmt.Errorf("series: clip end %g before trajectory start %g", end, tr.Start())
	}
	if last := times[len(times)-1]; last < end && end <= tr.End() {
		v, err := tr.At(end)
		if err != nil {
			return nil, err
		}
		times = append(times, end)
		values = append(values, v)
	}
	return &Trajectory{Times: times, Values: values}, nil
}

// Overlap computes the intersection of two time ranges.
func Overlap(a, b *Trajectory) (start, end float64, err error) {
	if a.Len() == 0 || b.Len() == 0 {
		return 0, 0, ErrEmpty
	}
	start = math.Max(a.Start(), b.Start())
	end = math.Min(a.End(), b.End())
	if start >= end {
		return 0, 0, fmt.Errorf("%w: [%g, %g] vs [%g, %g]",
			ErrNoOverlap, a.Start(), a.End(), b.Start(), b.End())
	}
	return start, end, nil
}

// Align resamples both trajectories onto a shared n-point uniform grid bounded
// to the overlap of their time ranges. Disjoint ranges are an error, never an
// empty success.
func Align(a, b *Trajectory, n int) (*Trajectory, *Trajectory, error) {
	if n < 2 {
		return nil, nil, fmt.Errorf("series: alignment grid needs at least 2 points, got %d", n)
	}
	start, end, err := Overlap(a, b)
	if err != nil {
		return nil, nil, err
	}

	times := make([]float64, n)
	av := make([]float64, n)
	bv := make([]float64, n)
	step := (end - start) / float64(n-1)
	for i := 0; i < n; i++ {
		t := start + float64(i)*step
		if i == n-1 {
			t = end
		}
		times[i] = t
		if av[i], err = a.At(t); err != nil {
			return nil, nil, err
		}
		if bv[i], err = b.At(t); err != nil {
			return nil, nil, err
		}
	}

	bt := make([]float64, n)
	copy(bt, times)
	return &Trajectory{Times: times, Values: av}, &Trajectory{Times: bt, Values: bv}, nil
}

// MaxAbsDeviation reports the largest pointwise |a-b| over a shared grid.
// The trajectories must already be aligned.
func MaxAbsDeviation(a, b *Trajectory) (float64, error) {
	if a.Len() != b.Len() {
		return 0, fmt.Errorf("%w: %d vs %d points", ErrLengthMismatch, a.Len(), b.Len())
	}
	max := 0.0
	for i := range a.Values {
		if d := math.Abs(a.Values[i] - b.Values[i]); d > max {
			max = d
		}
	}
	return max, nil
}
