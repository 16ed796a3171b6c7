package mech

import (
	"errors"
	"fmt"
)

// Domain errors for species resolution and mechanism construction.
var (
	// ErrNoMatch indicates no mechanism species is structurally isomorphic
	// to the queried species.
	ErrNoMatch = errors.New("mech: no structural match in mechanism")

	// ErrAmbiguousMatch indicates more than one mechanism species shares the
	// queried structure, which means the mechanism itself is malformed.
	ErrAmbiguousMatch = errors.New("mech: multiple structural matches in mechanism")

	// ErrNoStructure indicates a species without a molecular graph where one
	// is required.
	ErrNoStructure = errors.New("mech: species has no structure")
)

// ResolveError wraps a resolution failure with the offending query label.
type ResolveError struct {
	Label   string
	Wrapped error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolving %q: %v", e.Label, e.Wrapped)
}

func (e *ResolveError) Unwrap() error {
	return e.Wrapped
}
