// Package sensitivity converts raw backend sensitivity output into the common
// normalized-coefficient form d(ln x)/d(ln k) and aligns sensitivity
// trajectories from heterogeneous sources for position-wise comparison.
package sensitivity

import (
	"fmt"
	"math"
	"sort"

	"github.com/ar-nair/kinval/internal/mech"
	"github.com/ar-nair/kinval/internal/series"
)

// DegenerateEps is the magnitude below which an observable or parameter is
// treated as zero during normalization.
const DegenerateEps = 1e-30

// Coefficient is one normalized sensitivity value. A degenerate point (the
// observable or parameter was ~0) is exactly zero and flagged, never NaN/Inf.
type Coefficient struct {
	Value      float64
	Degenerate bool
}

// Normalize converts an unnormalized derivative dx/dk into
// d(ln x)/d(ln k) = (k/x) * dx/dk.
func Normalize(param, observable, deriv float64) Coefficient {
	if math.Abs(param) < DegenerateEps || math.Abs(observable) < DegenerateEps {
		return Coefficient{Value: 0, Degenerate: true}
	}
	v := param / observable * deriv
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Coefficient{Value: 0, Degenerate: true}
	}
	return Coefficient{Value: v}
}

// Trace is the normalized sensitivity trajectory of one observable species
// with respect to one reaction's rate parameter.
type Trace struct {
	Species    *mech.Species
	Reaction   *mech.Reaction
	Times      []float64
	Values     []float64
	Degenerate []bool
}

// Trajectory exposes the trace's series for alignment and plotting.
func (tr *Trace) Trajectory() (*series.Trajectory, error) {
	return series.New(tr.Times, tr.Values)
}

// Record holds the normalized sensitivity traces of one run. The entries are
// always ordered by observable species index, then by the mechanism's
// canonical reaction index, independent of the order a backend emitted them.
type Record struct {
	Entries []*Trace
}

// NewRecord sorts the traces into canonical order.
func NewRecord(traces []*Trace) *Record {
	sorted := make([]*Trace, len(traces))
	copy(sorted, traces)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Species.Index != sorted[j].Species.Index {
			return sorted[i].Species.Index < sorted[j].Species.Index
		}
		return sorted[i].Reaction.Index < sorted[j].Reaction.Index
	})
	return &Record{Entries: sorted}
}

// Lookup finds the trace for an (observable, reaction) pair, nil if absent.
func (r *Record) Lookup(sp *mech.Species, rxn *mech.Reaction) *Trace {
	for _, e := range r.Entries {
		if e.Species == sp && e.Reaction == rxn {
			return e
		}
	}
	return nil
}

// RawTrace is unnormalized backend output: dx/dk sampled on the backend's own
// time grid, with the rate parameter value the derivative was taken at.
type RawTrace struct {
	Species  *mech.Species
	Reaction *mech.Reaction
	Param    float64
	Deriv    *series.Trajectory
}

// NormalizeRaw converts raw derivative traces into a canonical Record using
// the observable trajectories to evaluate x at each sample time.
func NormalizeRaw(raws []RawTrace, observables map[*mech.Species]*series.Trajectory) (*Record, error) {
	traces := make([]*Trace, 0, len(raws))
	for _, raw := range raws {
		obs, ok := observables[raw.Species]
		if !ok {
			return nil, fmt.Errorf("sensitivity: no observable trajectory for %s", raw.Species)
		}

		n := raw.Deriv.Len()
		tr := &Trace{
			Species:    raw.Species,
			Reaction:   raw.Reaction,
			Times:      make([]float64, n),
			Values:     make([]float64, n),
			Degenerate: make([]bool, n),
		}
		copy(tr.Times, raw.Deriv.Times)

		for i, t := range raw.Deriv.Times {
			x, err := obs.At(t)
			if err != nil {
				return nil, fmt.Errorf("sensitivity: %s at t=%g: %w", raw.Species, t, err)
			}
			c := Normalize(raw.Param, x, raw.Deriv.Values[i])
			tr.Values[i] = c.Value
			tr.Degenerate[i] = c.Degenerate
		}
		traces = append(traces, tr)
	}
	return NewRecord(traces), nil
}

// AlignTraces resamples two normalized traces onto a shared grid bounded to
// the overlap of their time ranges. A resampled point is flagged degenerate
// when either source sample bracketing it was.
func AlignTraces(a, b *Trace, n int) (*Trace, *Trace, error) {
	ta, err := a.Trajectory()
	if err != nil {
		return nil, nil, err
	}
	tb, err := b.Trajectory()
	if err != nil {
		return nil, nil, err
	}

	ga, gb, err := series.Align(ta, tb, n)
	if err != nil {
		return nil, nil, err
	}

	out := func(src *Trace, grid *series.Trajectory) *Trace {
		return &Trace{
			Species:    src.Species,
			Reaction:   src.Reaction,
			Times:      grid.Times,
			Values:     grid.Values,
			Degenerate: resampleFlags(src, grid.Times),
		}
	}
	return out(a, ga), out(b, gb), nil
}

func resampleFlags(src *Trace, grid []float64) []bool {
	flags := make([]bool, len(grid))
	for i, t := range grid {
		lo, hi := bracket(src.Times, t)
		flags[i] = src.Degenerate[lo] || src.Degenerate[hi]
	}
	return flags
}

func bracket(times []float64, t float64) (int, int) {
	lo, hi := 0, len(times)-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if times[mid] <= t {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo, hi
}
