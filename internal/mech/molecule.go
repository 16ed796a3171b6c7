package mech

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
)

// Atom is one vertex of a molecular graph. Hydrogens are explicit.
type Atom struct {
	Symbol   string
	Charge   int
	Radicals int
}

// Bond connects atoms A and B (indices into Molecule.Atoms) with a bond
// order (1, 1.5, 2, 3).
type Bond struct {
	A, B  int
	Order float64
}

// Molecule is an undirected molecular graph.
type Molecule struct {
	Atoms []Atom
	Bonds []Bond

	key string // memoized canonical key
}

// NewMolecule copies the given atoms and bonds into a fresh molecule.
func NewMolecule(atoms []Atom, bonds []Bond) *Molecule {
	m := &Molecule{
		Atoms: make([]Atom, len(atoms)),
		Bonds: make([]Bond, len(bonds)),
	}
	copy(m.Atoms, atoms)
	copy(m.Bonds, bonds)
	return m
}

// Formula returns the Hill-ordered empirical formula.
func (m *Molecule) Formula() string {
	counts := make(map[string]int)
	for _, a := range m.Atoms {
		counts[a.Symbol]++
	}

	symbols := make([]string, 0, len(counts))
	for s := range counts {
		if s != "C" && s != "H" {
			symbols = append(symbols, s)
		}
	}
	sort.Strings(symbols)
	if counts["H"] > 0 {
		symbols = append([]string{"H"}, symbols...)
	}
	if counts["C"] > 0 {
		symbols = append([]string{"C"}, symbols...)
	}

	var b strings.Builder
	for _, s := range symbols {
		b.WriteString(s)
		if counts[s] > 1 {
			fmt.Fprintf(&b, "%d", counts[s])
		}
	}
	return b.String()
}

// CanonicalKey returns a string identifying the molecule up to graph
// isomorphism: any atom or bond reordering of the same structure yields the
// same key. Built by Morgan-style iterative neighborhood refinement, then a
// sorted serialization of the stable atom and edge invariants.
func (m *Molecule) CanonicalKey() string {
	if m.key != "" {
		return m.key
	}

	n := len(m.Atoms)
	if n == 0 {
		m.key = "empty"
		return m.key
	}

	adj := make([][]struct {
		to    int
		order float64
	}, n)
	for _, b := range m.Bonds {
		adj[b.A] = append(adj[b.A], struct {
			to    int
			order float64
		}{b.B, b.Order})
		adj[b.B] = append(adj[b.B], struct {
			to    int
			order float64
		}{b.A, b.Order})
	}

	// Initial invariant: element, charge, radicals, degree.
	inv := make([]string, n)
	for i, a := range m.Atoms {
		inv[i] = fmt.Sprintf("%s/%d/%d/%d", a.Symbol, a.Charge, a.Radicals, len(adj[i]))
	}

	// Refine until the partition stops splitting (bounded by n rounds).
	for round := 0; round < n; round++ {
		next := make([]string, n)
		for i := range m.Atoms {
			env := make([]string, 0, len(adj[i]))
			for _, e := range adj[i] {
				env = append(env, fmt.Sprintf("%g:%s", e.order, inv[e.to]))
			}
			sort.Strings(env)
			next[i] = hashString(inv[i] + "|" + strings.Join(env, ","))
		}
		if countClasses(next) == countClasses(inv) {
			inv = next
			break
		}
		inv = next
	}

	atomPart := make([]string, n)
	copy(atomPart, inv)
	sort.Strings(atomPart)

	edgePart := make([]string, 0, len(m.Bonds))
	for _, b := range m.Bonds {
		lo, hi := inv[b.A], inv[b.B]
		if lo > hi {
			lo, hi = hi, lo
		}
		edgePart = append(edgePart, fmt.Sprintf("%s-%g-%s", lo, b.Order, hi))
	}
	sort.Strings(edgePart)

	m.key = m.Formula() + "|" + hashString(strings.Join(atomPart, ";")+"#"+strings.Join(edgePart, ";"))
	return m.key
}

// Isomorphic reports whether two molecules share the same structure.
func (m *Molecule) Isomorphic(other *Molecule) bool {
	return m.CanonicalKey() == other.CanonicalKey()
}

func hashString(s string) string {
	h := fnv.New64a()
	h.Write([]byte(s))
	return fmt.Sprintf("%016x", h.Sum64())
}

func countClasses(inv []string) int {
	seen := make(map[string]struct{}, len(inv))
	for _, s := range inv {
		seen[s] = struct{}{}
	}
	return len(seen)
}
