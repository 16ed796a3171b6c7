package backend

import (
	"context"
	"fmt"

	"github.com/ar-nair/kinval/internal/mech"
	"github.com/ar-nair/kinval/internal/reactor"
	"github.com/ar-nair/kinval/internal/sensitivity"
	"github.com/ar-nair/kinval/internal/series"
)

// Table is one externally generated reference dataset for one condition: a
// time column plus one column per observable, named in the dataset's own
// scheme, and optionally raw (unnormalized) sensitivity columns.
type Table struct {
	Times   []float64
	Columns map[string][]float64

	Sensitivities []SensColumn
}

// SensColumn is a raw d(observable)/d(parameter) column from the dataset,
// with the rate-parameter value the derivative was evaluated at.
type SensColumn struct {
	Observable string
	Reaction   int
	Param      float64
	Values     []float64
}

// Reference serves pre-tabulated trajectories as a backend. Column names are
// matched to mechanism species by external ID first, then by label; columns
// naming nothing in the mechanism are dropped (the comparison assembler
// flags set disagreements downstream).
type Reference struct {
	name      string
	tables    map[string]*Table
	mechanism *mech.Mechanism
	sensitive []*mech.Species
}

func NewReference(name string) *Reference {
	return &Reference{name: name, tables: make(map[string]*Table)}
}

func (r *Reference) Name() string { return r.name }

// AddTable registers the dataset for one condition.
func (r *Reference) AddTable(cond *reactor.Condition, table *Table) {
	r.tables[cond.Key()] = table
}

func (r *Reference) Load(m *mech.Mechanism, sensitive []*mech.Species) error {
	if err := checkSensitive(m, sensitive); err != nil {
		return err
	}
	r.mechanism = m
	r.sensitive = sensitive
	return nil
}

func (r *Reference) match(name string) *mech.Species {
	for _, s := range r.mechanism.Species {
		if s.ExternalID != "" && s.ExternalID == name {
			return s
		}
	}
	for _, s := range r.mechanism.Species {
		if s.Label == name {
			return s
		}
	}
	return nil
}

func (r *Reference) Run(ctx context.Context, cond *reactor.Condition) (*Result, error) {
	if r.mechanism == nil {
		return nil, ErrNotLoaded
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	table, ok := r.tables[cond.Key()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoReferenceData, cond)
	}

	result := &Result{
		Backend:      r.name,
		Condition:    cond,
		Trajectories: make(map[*mech.Species]*series.Trajectory),
	}

	for name, values := range table.Columns {
		sp := r.match(name)
		if sp == nil {
			continue
		}
		tr, err := series.New(table.Times, values)
		if err != nil {
			return nil, fmt.Errorf("reference column %q: %w", name, err)
		}
		if tr.End() > cond.Duration {
			if tr, err = tr.Clip(cond.Duration); err != nil {
				return nil, fmt.Errorf("reference column %q: %w", name, err)
			}
		}
		result.Trajectories[sp] = tr
	}

	if len(r.sensitive) > 0 && len(table.Sensitivities) > 0 {
		rec, err := r.normalizeSens(table, cond.Duration, result.Trajectories)
		if err != nil {
			return nil, err
		}
		result.Sensitivities = rec
	}
	return result, nil
}

func (r *Reference) normalizeSens(table *Table, duration float64, observables map[*mech.Species]*series.Trajectory) (*sensitivity.Record, error) {
	raws := make([]sensitivity.RawTrace, 0, len(table.Sensitivities))
	for _, col := range table.Sensitivities {
		sp := r.match(col.Observable)
		if sp == nil {
			continue
		}
		if col.Reaction < 0 || col.Reaction >= r.mechanism.NumReactions() {
			return nil, fmt.Errorf("reference sensitivity column names reaction %d of %d",
				col.Reaction, r.mechanism.NumReactions())
		}
		deriv, err := series.New(table.Times, col.Values)
		if err != nil {
			return nil, err
		}
		if deriv.End() > duration {
			if deriv, err = deriv.Clip(duration); err != nil {
				return nil, err
			}
		}
		raws = append(raws, sensitivity.RawTrace{
			Species:  sp,
			Reaction: r.mechanism.Reactions[col.Reaction],
			Param:    col.Param,
			Deriv:    deriv,
		})
	}
	return sensitivity.NormalizeRaw(raws, observables)
}
