package reactor

import (
	"fmt"

	"github.com/ar-nair/kinval/internal/mech"
)

// ValueAxis is one numeric condition axis with its units. Units may be empty
// (base SI assumed), a single entry shared by every value, or one entry per
// value; any other length is inconsistent.
type ValueAxis struct {
	Values []float64
	Units  []string
}

func (a ValueAxis) unit(i int) (string, error) {
	switch len(a.Units) {
	case 0:
		return "", nil
	case 1:
		return a.Units[0], nil
	case len(a.Values):
		return a.Units[i], nil
	default:
		return "", fmt.Errorf("%w: %d values with %d units",
			ErrInconsistentAxes, len(a.Values), len(a.Units))
	}
}

// convert applies fn to every value with its unit.
func (a ValueAxis) convert(fn func(float64, string) (float64, error)) ([]float64, error) {
	out := make([]float64, len(a.Values))
	for i, v := range a.Values {
		u, err := a.unit(i)
		if err != nil {
			return nil, err
		}
		if out[i], err = fn(v, u); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Axes is the full set of condition axes before expansion.
type Axes struct {
	Types        []Type
	Durations    ValueAxis
	Compositions []map[*mech.Species]float64
	Temperatures ValueAxis
	Pressures    ValueAxis
}

// Expand builds the Cartesian product of all five axes into individual
// conditions; the total count is the product of the axis lengths. Unit
// conversion happens here, once. An empty axis cannot be expanded.
func Expand(axes Axes) ([]*Condition, error) {
	if len(axes.Types) == 0 || len(axes.Durations.Values) == 0 ||
		len(axes.Compositions) == 0 || len(axes.Temperatures.Values) == 0 ||
		len(axes.Pressures.Values) == 0 {
		return nil, fmt.Errorf("%w: every axis needs at least one entry", ErrInconsistentAxes)
	}

	durations, err := axes.Durations.convert(ToSeconds)
	if err != nil {
		return nil, err
	}
	temps, err := axes.Temperatures.convert(ToKelvin)
	if err != nil {
		return nil, err
	}
	pressures, err := axes.Pressures.convert(ToPascal)
	if err != nil {
		return nil, err
	}

	total := len(axes.Types) * len(durations) * len(axes.Compositions) * len(temps) * len(pressures)
	conditions := make([]*Condition, 0, total)

	for _, typ := range axes.Types {
		for _, dur := range durations {
			for _, comp := range axes.Compositions {
				for _, T := range temps {
					for _, P := range pressures {
						c, err := NewCondition(typ, comp, T, P, dur)
						if err != nil {
							return nil, err
						}
						conditions = append(conditions, c)
					}
				}
			}
		}
	}
	return conditions, nil
}
