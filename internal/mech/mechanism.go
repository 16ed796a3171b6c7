package mech

import (
	"errors"
	"fmt"
)

// Species is one entry of a mechanism's species list. Identity is the
// molecular structure; the label is cosmetic and never participates in
// equality.
type Species struct {
	Label     string
	Index     int
	Structure *Molecule

	// ExternalID is an optional identifier from another naming scheme
	// (e.g. a CAS number or a reference-dataset column name).
	ExternalID string
}

// Equal reports structural identity, independent of label.
func (s *Species) Equal(other *Species) bool {
	if s.Structure == nil || other.Structure == nil {
		return false
	}
	return s.Structure.Isomorphic(other.Structure)
}

func (s *Species) String() string {
	return fmt.Sprintf("%s(%d)", s.Label, s.Index)
}

// Stoich pairs a species with its stoichiometric coefficient on one side of
// a reaction.
type Stoich struct {
	Species *Species
	Coeff   float64
}

// Reaction is owned by its mechanism and immutable once built.
type Reaction struct {
	Index     int
	Reactants []Stoich
	Products  []Stoich
	Rate      RateParams
}

// Equation renders "A + B <=> C" style text for reports.
func (r *Reaction) Equation() string {
	side := func(ss []Stoich) string {
		out := ""
		for i, s := range ss {
			if i > 0 {
				out += " + "
			}
			if s.Coeff != 1 {
				out += fmt.Sprintf("%g ", s.Coeff)
			}
			out += s.Species.Label
		}
		return out
	}
	return side(r.Reactants) + " <=> " + side(r.Products)
}

// Mechanism holds the full species and reaction lists. It is immutable after
// construction and safe to share read-only across concurrent runs.
type Mechanism struct {
	Name      string
	Species   []*Species
	Reactions []*Reaction

	byKey map[string][]*Species
}

// NewMechanism assigns indices and builds the canonical-key lookup. A
// mechanism listing two species with the same structure is representable (it
// happens in the wild); the resolver is where that malformation surfaces.
func NewMechanism(name string, species []*Species, reactions []*Reaction) (*Mechanism, error) {
	m := &Mechanism{
		Name:      name,
		Species:   species,
		Reactions: reactions,
		byKey:     make(map[string][]*Species, len(species)),
	}
	for i, s := range species {
		if s.Structure == nil {
			return nil, &ResolveError{Label: s.Label, Wrapped: ErrNoStructure}
		}
		s.Index = i
		key := s.Structure.CanonicalKey()
		m.byKey[key] = append(m.byKey[key], s)
	}
	for i, r := range reactions {
		r.Index = i
	}
	return m, nil
}

// NumSpecies returns the species count.
func (m *Mechanism) NumSpecies() int { return len(m.Species) }

// NumReactions returns the reaction count.
func (m *Mechanism) NumReactions() int { return len(m.Reactions) }

// ByLabel finds a species by its cosmetic label.
func (m *Mechanism) ByLabel(label string) (*Species, bool) {
	for _, s := range m.Species {
		if s.Label == label {
			return s, true
		}
	}
	return nil, false
}

// Resolve maps each query species to the mechanism species whose structure is
// isomorphic to it. An unmatched query is a hard failure: silently dropping a
// sensitive-species selection would produce misleading empty output downstream.
func (m *Mechanism) Resolve(queries []*Species) (map[*Species]*Species, error) {
	resolved := make(map[*Species]*Species, len(queries))
	for _, q := range queries {
		if q.Structure == nil {
			return nil, &ResolveError{Label: q.Label, Wrapped: ErrNoStructure}
		}
		matches := m.byKey[q.Structure.CanonicalKey()]
		switch len(matches) {
		case 0:
			return nil, &ResolveError{Label: q.Label, Wrapped: ErrNoMatch}
		case 1:
			resolved[q] = matches[0]
		default:
			return nil, &ResolveError{
				Label: q.Label,
				Wrapped: fmt.Errorf("%w: %s and %s", ErrAmbiguousMatch,
					matches[0], matches[1]),
			}
		}
	}
	return resolved, nil
}

// IsAmbiguous reports whether err marks a malformed mechanism rather than a
// bad query.
func IsAmbiguous(err error) bool {
	return errors.Is(err, ErrAmbiguousMatch)
}
