package reactor

import (
	"errors"
	"fmt"
)

// ErrUnknownUnit indicates a unit string the converter does not recognize.
var ErrUnknownUnit = errors.New("reactor: unknown unit")

const (
	pascalPerBar  = 1.0e5
	pascalPerAtm  = 101325.0
	pascalPerTorr = 101325.0 / 760.0
	zeroCelsius   = 273.15
)

// ToSeconds converts a duration in the given unit to seconds.
func ToSeconds(value float64, unit string) (float64, error) {
	switch unit {
	case "s", "":
		return value, nil
	case "ms":
		return value * 1e-3, nil
	case "us":
		return value * 1e-6, nil
	case "min":
		return value * 60, nil
	case "h":
		return value * 3600, nil
	default:
		return 0, fmt.Errorf("%w: time unit %q", ErrUnknownUnit, unit)
	}
}

// ToKelvin converts a temperature in the given unit to kelvin.
func ToKelvin(value float64, unit string) (float64, error) {
	switch unit {
	case "K", "":
		return value, nil
	case "C":
		return value + zeroCelsius, nil
	default:
		return 0, fmt.Errorf("%w: temperature unit %q", ErrUnknownUnit, unit)
	}
}

// ToPascal converts a pressure in the given unit to pascal.
func ToPascal(value float64, unit string) (float64, error) {
	switch unit {
	case "Pa", "":
		return value, nil
	case "kPa":
		return value * 1e3, nil
	case "bar":
		return value * pascalPerBar, nil
	case "atm":
		return value * pascalPerAtm, nil
	case "torr":
		return value * pascalPerTorr, nil
	default:
		return 0, fmt.Errorf("%w: pressure unit %q", ErrUnknownUnit, unit)
	}
}
