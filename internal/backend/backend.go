// Package backend defines the uniform simulation-engine contract and the two
// builtin engines: the native kinetic ODE backend and the reference-dataset
// backend. A loaded backend holds the mechanism read-only and keeps all
// per-run scratch private, so one backend may run many conditions
// concurrently.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/ar-nair/kinval/internal/mech"
	"github.com/ar-nair/kinval/internal/reactor"
	"github.com/ar-nair/kinval/internal/sensitivity"
	"github.com/ar-nair/kinval/internal/series"
)

var (
	// ErrUnsupportedFeature indicates a mechanism rate form or reactor type
	// the backend cannot represent. Raised before any integration work.
	ErrUnsupportedFeature = errors.New("backend: unsupported mechanism feature")

	// ErrNotLoaded indicates Run before a successful Load.
	ErrNotLoaded = errors.New("backend: mechanism not loaded")

	// ErrNoReferenceData indicates the reference backend has no table for
	// the requested condition.
	ErrNoReferenceData = errors.New("backend: no reference data for condition")

	// ErrIntegration is the class of per-condition numerical failures; the
	// concrete error is an IntegrationError wrapping it.
	ErrIntegration = errors.New("backend: integration failed")
)

// IntegrationError reports numerical non-convergence for one condition,
// carrying the last time the integrator successfully reached. Sibling
// conditions in a batch are unaffected.
type IntegrationError struct {
	LastTime float64
	Steps    int
	Reason   string
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("integration failed after %d steps at t=%.6g s: %s",
		e.Steps, e.LastTime, e.Reason)
}

func (e *IntegrationError) Unwrap() error { return ErrIntegration }

// Result is the complete output of one condition run: a mole-fraction
// trajectory per mechanism species and, when sensitivity was requested, the
// normalized sensitivity record. No artifacts are written; that is the
// caller's job.
type Result struct {
	Backend       string
	Condition     *reactor.Condition
	Trajectories  map[*mech.Species]*series.Trajectory
	Sensitivities *sensitivity.Record
}

// Backend is one concrete simulation engine. Load prepares it with a
// mechanism and the species to track sensitivity for; Run integrates one
// condition from t=0 to its duration on a monotonically increasing grid.
type Backend interface {
	Name() string
	Load(m *mech.Mechanism, sensitive []*mech.Species) error
	Run(ctx context.Context, cond *reactor.Condition) (*Result, error)
}

func checkSensitive(m *mech.Mechanism, sensitive []*mech.Species) error {
	for _, s := range sensitive {
		if s.Index < 0 || s.Index >= len(m.Species) || m.Species[s.Index] != s {
			return fmt.Errorf("backend: sensitive species %s is not owned by mechanism %s",
				s, m.Name)
		}
	}
	return nil
}
