package reactor

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ar-nair/kinval/internal/mech"
)

// CompositionTolerance is how far the initial mole fractions may sum from 1.
const CompositionTolerance = 1e-6

var (
	// ErrInconsistentAxes indicates condition axes that cannot be expanded:
	// an empty axis, or a unit list whose length matches neither 1 nor its
	// value list.
	ErrInconsistentAxes = errors.New("reactor: inconsistent condition axes")

	// ErrBadComposition indicates initial mole fractions that are negative
	// or do not sum to 1 within tolerance.
	ErrBadComposition = errors.New("reactor: invalid initial composition")

	// ErrBadState indicates a non-positive temperature, pressure or duration.
	ErrBadState = errors.New("reactor: invalid thermodynamic state")
)

// Type enumerates the supported reactor models.
type Type int

const (
	ConstantPressure Type = iota
	ConstantVolume
	// ConstantEnergy requires solving the energy equation; representable so
	// configurations can name it, but no builtin backend accepts it.
	ConstantEnergy
)

func (t Type) String() string {
	switch t {
	case ConstantPressure:
		return "constant-pressure"
	case ConstantVolume:
		return "constant-volume"
	case ConstantEnergy:
		return "constant-energy"
	default:
		return fmt.Sprintf("reactor-type(%d)", int(t))
	}
}

// ParseType maps a config string to a reactor Type.
func ParseType(s string) (Type, error) {
	switch s {
	case "constant-pressure", "constant_pressure":
		return ConstantPressure, nil
	case "constant-volume", "constant_volume":
		return ConstantVolume, nil
	case "constant-energy", "constant_energy":
		return ConstantEnergy, nil
	default:
		return 0, fmt.Errorf("reactor: unknown reactor type %q", s)
	}
}

// Condition is one fully specified simulation scenario. All fields are in
// base SI (K, Pa, s); conversion happens at construction and never again.
// Conditions are immutable once built.
type Condition struct {
	Type        Type
	Composition map[*mech.Species]float64
	Temperature float64
	Pressure    float64
	Duration    float64
}

// NewCondition validates and builds a condition from SI inputs.
func NewCondition(typ Type, comp map[*mech.Species]float64, T, P, duration float64) (*Condition, error) {
	if T <= 0 || P <= 0 || duration <= 0 {
		return nil, fmt.Errorf("%w: T=%g K, P=%g Pa, duration=%g s", ErrBadState, T, P, duration)
	}

	sum := 0.0
	for s, x := range comp {
		if x < 0 {
			return nil, fmt.Errorf("%w: %s has fraction %g", ErrBadComposition, s.Label, x)
		}
		sum += x
	}
	if math.Abs(sum-1.0) > CompositionTolerance {
		return nil, fmt.Errorf("%w: fractions sum to %.9g", ErrBadComposition, sum)
	}

	c := &Condition{
		Type:        typ,
		Composition: make(map[*mech.Species]float64, len(comp)),
		Temperature: T,
		Pressure:    P,
		Duration:    duration,
	}
	for s, x := range comp {
		c.Composition[s] = x
	}
	return c, nil
}

// Key is a stable identity string for keying results and reference tables.
func (c *Condition) Key() string {
	labels := make([]string, 0, len(c.Composition))
	for s := range c.Composition {
		labels = append(labels, fmt.Sprintf("%s=%.6g", s.Label, c.Composition[s]))
	}
	sort.Strings(labels)
	return fmt.Sprintf("%s/T%.6g/P%.6g/t%.6g/%s",
		c.Type, c.Temperature, c.Pressure, c.Duration, strings.Join(labels, ","))
}

func (c *Condition) String() string {
	return fmt.Sprintf("%s T=%g K P=%g Pa t=%g s", c.Type, c.Temperature, c.Pressure, c.Duration)
}
