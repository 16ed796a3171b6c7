package mech

import "math"

// GasConstant in J/(mol K).
const GasConstant = 8.314462618

// RateKind enumerates the rate-parameter forms a mechanism may carry.
type RateKind int

const (
	KindArrhenius RateKind = iota
	KindThirdBody
	KindTroe
	KindPLog
)

func (k RateKind) String() string {
	switch k {
	case KindArrhenius:
		return "arrhenius"
	case KindThirdBody:
		return "third-body"
	case KindTroe:
		return "troe"
	case KindPLog:
		return "plog"
	default:
		return "unknown"
	}
}

// RateParams is the kind-specific rate parameter set of one reaction.
type RateParams interface {
	Kind() RateKind
}

// Arrhenius is the modified Arrhenius form k(T) = A T^n exp(-Ea/RT).
// A carries SI concentration units for the reaction order; Ea is in J/mol.
type Arrhenius struct {
	A  float64
	N  float64
	Ea float64
}

func (a Arrhenius) Kind() RateKind { return KindArrhenius }

// K evaluates the rate constant at temperature T [K].
func (a Arrhenius) K(T float64) float64 {
	return a.A * math.Pow(T, a.N) * math.Exp(-a.Ea/(GasConstant*T))
}

// ThirdBody is an Arrhenius rate scaled by the collider concentration, with
// per-species efficiency overrides keyed by species label.
type ThirdBody struct {
	Arrhenius
	Efficiencies map[string]float64
}

func (t ThirdBody) Kind() RateKind { return KindThirdBody }

// Troe is a falloff form. Declared so mechanisms can carry it; backends that
// cannot represent it must refuse the mechanism at load.
type Troe struct {
	Low, High      Arrhenius
	Alpha, T3, T1  float64
	T2             float64
}

func (t Troe) Kind() RateKind { return KindTroe }

// PLog is a pressure-interpolated list of Arrhenius fits.
type PLog struct {
	Pressures []float64
	Rates     []Arrhenius
}

func (p PLog) Kind() RateKind { return KindPLog }
