// Package xval dispatches reactor conditions across simulation backends and
// assembles their outputs into comparison bundles.
package xval

import (
	"fmt"
	"sort"

	"github.com/ar-nair/kinval/internal/backend"
	"github.com/ar-nair/kinval/internal/mech"
	"github.com/ar-nair/kinval/internal/reactor"
	"github.com/ar-nair/kinval/internal/series"
)

// Mismatch flags a cross-backend disagreement on the set of tracked
// observables. It is a data-quality signal for the caller, never silently
// reconciled by dropping entries.
type Mismatch struct {
	Observable string   // species label, or "species/R<index>" for a sensitivity pair
	Missing    []string // backends that did not report it
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s missing from %v", m.Observable, m.Missing)
}

// Bundle groups every backend's output for one condition. Read-only once
// assembled.
type Bundle struct {
	Condition  *reactor.Condition
	Results    map[string]*backend.Result
	Failures   map[string]error
	Mismatches []Mismatch
}

// OK reports whether every backend completed this condition.
func (b *Bundle) OK() bool { return len(b.Failures) == 0 }

// Backends lists the backend names present in the bundle, sorted.
func (b *Bundle) Backends() []string {
	names := make([]string, 0, len(b.Results)+len(b.Failures))
	for name := range b.Results {
		names = append(names, name)
	}
	for name := range b.Failures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Pair aligns one observable's trajectories from two backends onto a shared
// grid for position-wise comparison.
func (b *Bundle) Pair(sp *mech.Species, backA, backB string, n int) (*series.Trajectory, *series.Trajectory, error) {
	ra, ok := b.Results[backA]
	if !ok {
		return nil, nil, fmt.Errorf("xval: no result from backend %q", backA)
	}
	rb, ok := b.Results[backB]
	if !ok {
		return nil, nil, fmt.Errorf("xval: no result from backend %q", backB)
	}
	ta, ok := ra.Trajectories[sp]
	if !ok {
		return nil, nil, fmt.Errorf("xval: backend %q did not track %s", backA, sp)
	}
	tb, ok := rb.Trajectories[sp]
	if !ok {
		return nil, nil, fmt.Errorf("xval: backend %q did not track %s", backB, sp)
	}
	return series.Align(ta, tb, n)
}

// Assemble builds the bundle for one condition from completed results and
// per-backend failures, flagging observable-set disagreements.
func Assemble(cond *reactor.Condition, results map[string]*backend.Result, failures map[string]error) *Bundle {
	b := &Bundle{
		Condition: cond,
		Results:   results,
		Failures:  failures,
	}
	b.Mismatches = findMismatches(results)
	return b
}

func findMismatches(results map[string]*backend.Result) []Mismatch {
	if len(results) < 2 {
		return nil
	}

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	// Union of tracked observables across backends.
	seen := make(map[string]map[string]bool) // observable -> backend set
	note := func(obs, backendName string) {
		if seen[obs] == nil {
			seen[obs] = make(map[string]bool)
		}
		seen[obs][backendName] = true
	}

	for name, res := range results {
		for sp := range res.Trajectories {
			note(sp.Label, name)
		}
		if res.Sensitivities != nil {
			for _, tr := range res.Sensitivities.Entries {
				note(fmt.Sprintf("%s/R%d", tr.Species.Label, tr.Reaction.Index), name)
			}
		}
	}

	observables := make([]string, 0, len(seen))
	for obs := range seen {
		observables = append(observables, obs)
	}
	sort.Strings(observables)

	var mismatches []Mismatch
	for _, obs := range observables {
		var missing []string
		for _, name := range names {
			if !seen[obs][name] {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			mismatches = append(mismatches, Mismatch{Observable: obs, Missing: missing})
		}
	}
	return mismatches
}
