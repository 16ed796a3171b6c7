package backend

import (
	"context"
	"fmt"
	"math"

	"github.com/ar-nair/kinval/internal/mech"
	"github.com/ar-nair/kinval/internal/reactor"
	"github.com/ar-nair/kinval/internal/sensitivity"
	"github.com/ar-nair/kinval/internal/series"
	"github.com/ar-nair/kinval/internal/solver"
)

// Options tune the native kinetic backend.
type Options struct {
	InitialStep  float64 // first trial step [s]
	Tolerance    float64 // local error tolerance for the adaptive integrator
	MaxSteps     int     // step budget per condition; exceeding it is an IntegrationError
	OutputPoints int     // samples on the uniform output grid
	PerturbEps   float64 // ln-space rate perturbation for sensitivities
}

// DefaultOptions mirror what the reference engines use for small mechanisms.
func DefaultOptions() Options {
	return Options{
		InitialStep:  1e-9,
		Tolerance:    1e-8,
		MaxSteps:     200000,
		OutputPoints: 101,
		PerturbEps:   1e-4,
	}
}

// Kinetic is the native ODE backend: it builds isothermal mass-action rate
// equations from the mechanism and integrates them with an adaptive RK45.
// Sensitivities come from forward perturbation of each reaction's rate
// constant in ln-space.
type Kinetic struct {
	name      string
	opts      Options
	mechanism *mech.Mechanism
	sensitive []*mech.Species
}

func NewKinetic(opts Options) *Kinetic {
	return &Kinetic{name: "kinetic", opts: opts}
}

// NewNamedKinetic runs the same engine under a distinct backend name, so two
// solver settings can be cross-validated against each other in one batch.
func NewNamedKinetic(name string, opts Options) *Kinetic {
	return &Kinetic{name: name, opts: opts}
}

func (k *Kinetic) Name() string { return k.name }

// Load verifies every rate form is representable and records the sensitivity
// selection. Troe and PLog rates are beyond this engine.
func (k *Kinetic) Load(m *mech.Mechanism, sensitive []*mech.Species) error {
	for _, r := range m.Reactions {
		switch r.Rate.Kind() {
		case mech.KindArrhenius, mech.KindThirdBody:
		default:
			return fmt.Errorf("%w: reaction %d (%s) has %s rate",
				ErrUnsupportedFeature, r.Index, r.Equation(), r.Rate.Kind())
		}
	}
	if err := checkSensitive(m, sensitive); err != nil {
		return err
	}
	k.mechanism = m
	k.sensitive = sensitive
	return nil
}

// batchSystem is the per-run ODE right-hand side over species concentrations
// [mol/m^3]. It is private scratch: one instance per integration.
type batchSystem struct {
	m       *mech.Mechanism
	typ     reactor.Type
	rates   []float64 // per-reaction rate constant at the run temperature
	effs    []map[int]float64
	isThird []bool
}

func newBatchSystem(m *mech.Mechanism, cond *reactor.Condition, scale func(rxn int) float64) *batchSystem {
	sys := &batchSystem{
		m:       m,
		typ:     cond.Type,
		rates:   make([]float64, m.NumReactions()),
		effs:    make([]map[int]float64, m.NumReactions()),
		isThird: make([]bool, m.NumReactions()),
	}
	for _, r := range m.Reactions {
		switch rate := r.Rate.(type) {
		case mech.Arrhenius:
			sys.rates[r.Index] = rate.K(cond.Temperature)
		case mech.ThirdBody:
			sys.rates[r.Index] = rate.K(cond.Temperature)
			sys.isThird[r.Index] = true
			effs := make(map[int]float64, len(rate.Efficiencies))
			for label, e := range rate.Efficiencies {
				if s, ok := m.ByLabel(label); ok {
					effs[s.Index] = e
				}
			}
			sys.effs[r.Index] = effs
		}
		sys.rates[r.Index] *= scale(r.Index)
	}
	return sys
}

func (s *batchSystem) Dim() int { return s.m.NumSpecies() }

func (s *batchSystem) Derive(c solver.State, t float64) solver.State {
	n := s.m.NumSpecies()
	dc := make(solver.State, n)

	for _, r := range s.m.Reactions {
		rate := s.rates[r.Index]
		for _, st := range r.Reactants {
			conc := c[st.Species.Index]
			if conc < 0 {
				conc = 0
			}
			rate *= math.Pow(conc, st.Coeff)
		}
		if s.isThird[r.Index] {
			rate *= s.collider(c, r.Index)
		}

		for _, st := range r.Reactants {
			dc[st.Species.Index] -= st.Coeff * rate
		}
		for _, st := range r.Products {
			dc[st.Species.Index] += st.Coeff * rate
		}
	}

	if s.typ == reactor.ConstantPressure {
		// Isothermal ideal gas at fixed pressure: total concentration is
		// pinned, so net mole production dilutes every species.
		total, net := 0.0, 0.0
		for i := 0; i < n; i++ {
			total += c[i]
			net += dc[i]
		}
		if total > 0 {
			for i := 0; i < n; i++ {
				dc[i] -= c[i] / total * net
			}
		}
	}
	return dc
}

func (s *batchSystem) collider(c solver.State, rxn int) float64 {
	m := 0.0
	for i := range c {
		eff := 1.0
		if e, ok := s.effs[rxn][i]; ok {
			eff = e
		}
		m += eff * c[i]
	}
	return m
}

// Run integrates one condition. The mechanism is shared read-only; all
// integration state is local, so concurrent Runs are safe.
func (k *Kinetic) Run(ctx context.Context, cond *reactor.Condition) (*Result, error) {
	if k.mechanism == nil {
		return nil, ErrNotLoaded
	}
	if cond.Type != reactor.ConstantPressure && cond.Type != reactor.ConstantVolume {
		return nil, fmt.Errorf("%w: reactor type %s", ErrUnsupportedFeature, cond.Type)
	}

	base, err := k.integrate(ctx, cond, func(int) float64 { return 1 })
	if err != nil {
		return nil, err
	}

	result := &Result{
		Backend:      k.Name(),
		Condition:    cond,
		Trajectories: base,
	}

	if len(k.sensitive) > 0 {
		rec, err := k.sensitivities(ctx, cond, base)
		if err != nil {
			return nil, err
		}
		result.Sensitivities = rec
	}
	return result, nil
}

// integrate runs the adaptive solver and resamples the solution as mole
// fractions on a uniform output grid. scale perturbs per-reaction rate
// constants for sensitivity runs.
func (k *Kinetic) integrate(ctx context.Context, cond *reactor.Condition, scale func(int) float64) (map[*mech.Species]*series.Trajectory, error) {
	m := k.mechanism
	sys := newBatchSystem(m, cond, scale)

	// Initial concentrations from mole fractions and the ideal gas law.
	ctot := cond.Pressure / (mech.GasConstant * cond.Temperature)
	x := make(solver.State, m.NumSpecies())
	for s, frac := range cond.Composition {
		x[s.Index] = frac * ctot
	}

	integ := solver.NewRK45()
	t := 0.0
	dt := k.opts.InitialStep
	steps := 0

	times := make([]float64, 0, 1024)
	states := make([]solver.State, 0, 1024)
	times = append(times, 0)
	states = append(states, x.Clone())

	for t < cond.Duration {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if steps++; steps > k.opts.MaxSteps {
			return nil, &IntegrationError{LastTime: t, Steps: steps - 1,
				Reason: fmt.Sprintf("step budget %d exhausted", k.opts.MaxSteps)}
		}

		if t+dt > cond.Duration {
			dt = cond.Duration - t
		}

		newX, dtUsed, dtNext, err := integ.StepAdaptive(sys, x, t, dt, k.opts.Tolerance)
		if err != nil {
			return nil, &IntegrationError{LastTime: t, Steps: steps, Reason: err.Error()}
		}
		if !newX.IsValid() {
			return nil, &IntegrationError{LastTime: t, Steps: steps,
				Reason: "state diverged (NaN/Inf)"}
		}

		t += dtUsed
		x = newX
		dt = dtNext
		times = append(times, t)
		states = append(states, x.Clone())
	}

	return k.resample(times, states, cond.Duration)
}

func (k *Kinetic) resample(times []float64, states []solver.State, duration float64) (map[*mech.Species]*series.Trajectory, error) {
	m := k.mechanism
	out := make(map[*mech.Species]*series.Trajectory, m.NumSpecies())

	raw := make([]float64, len(times))
	for _, sp := range m.Species {
		for i, st := range states {
			total := 0.0
			for _, c := range st {
				total += c
			}
			if total > 0 {
				raw[i] = st[sp.Index] / total
			} else {
				raw[i] = 0
			}
		}

		tr, err := series.New(times, append([]float64(nil), raw...))
		if err != nil {
			return nil, err
		}

		grid := make([]float64, k.opts.OutputPoints)
		vals := make([]float64, k.opts.OutputPoints)
		step := duration / float64(k.opts.OutputPoints-1)
		for i := range grid {
			ti := float64(i) * step
			if i == k.opts.OutputPoints-1 {
				ti = duration
			}
			grid[i] = ti
			if vals[i], err = tr.At(ti); err != nil {
				return nil, err
			}
		}
		if out[sp], err = series.New(grid, vals); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// sensitivities computes d(ln x_i)/d(ln k_j) for every sensitive species i
// and every mechanism reaction j by forward finite difference in ln k.
func (k *Kinetic) sensitivities(ctx context.Context, cond *reactor.Condition, base map[*mech.Species]*series.Trajectory) (*sensitivity.Record, error) {
	eps := k.opts.PerturbEps
	factor := math.Exp(eps)

	traces := make([]*sensitivity.Trace, 0, len(k.sensitive)*k.mechanism.NumReactions())
	for _, rxn := range k.mechanism.Reactions {
		perturbed, err := k.integrate(ctx, cond, func(j int) float64 {
			if j == rxn.Index {
				return factor
			}
			return 1
		})
		if err != nil {
			return nil, err
		}

		for _, sp := range k.sensitive {
			b := base[sp]
			p := perturbed[sp]

			tr := &sensitivity.Trace{
				Species:    sp,
				Reaction:   rxn,
				Times:      append([]float64(nil), b.Times...),
				Values:     make([]float64, b.Len()),
				Degenerate: make([]bool, b.Len()),
			}
			for i := range b.Times {
				dxdlnk := (p.Values[i] - b.Values[i]) / eps
				c := sensitivity.Normalize(1.0, b.Values[i], dxdlnk)
				tr.Values[i] = c.Value
				tr.Degenerate[i] = c.Degenerate
			}
			traces = append(traces, tr)
		}
	}
	return sensitivity.NewRecord(traces), nil
}
