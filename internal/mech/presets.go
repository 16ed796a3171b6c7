package mech

// Builtin demo mechanisms for the CLI and tests. Real workflows get their
// mechanisms from an external parser collaborator; these cover the same data
// shapes without one.

// Cyclopropane builds the three-membered carbon ring C3H6.
func Cyclopropane() *Molecule {
	atoms := []Atom{
		{Symbol: "C"}, {Symbol: "C"}, {Symbol: "C"},
		{Symbol: "H"}, {Symbol: "H"}, {Symbol: "H"},
		{Symbol: "H"}, {Symbol: "H"}, {Symbol: "H"},
	}
	bonds := []Bond{
		{A: 0, B: 1, Order: 1}, {A: 1, B: 2, Order: 1}, {A: 2, B: 0, Order: 1},
		{A: 0, B: 3, Order: 1}, {A: 0, B: 4, Order: 1},
		{A: 1, B: 5, Order: 1}, {A: 1, B: 6, Order: 1},
		{A: 2, B: 7, Order: 1}, {A: 2, B: 8, Order: 1},
	}
	return NewMolecule(atoms, bonds)
}

// Propene builds CH2=CH-CH3, the isomerization product of cyclopropane.
func Propene() *Molecule {
	atoms := []Atom{
		{Symbol: "C"}, {Symbol: "C"}, {Symbol: "C"},
		{Symbol: "H"}, {Symbol: "H"}, {Symbol: "H"},
		{Symbol: "H"}, {Symbol: "H"}, {Symbol: "H"},
	}
	bonds := []Bond{
		{A: 0, B: 1, Order: 2}, {A: 1, B: 2, Order: 1},
		{A: 0, B: 3, Order: 1}, {A: 0, B: 4, Order: 1},
		{A: 1, B: 5, Order: 1},
		{A: 2, B: 6, Order: 1}, {A: 2, B: 7, Order: 1}, {A: 2, B: 8, Order: 1},
	}
	return NewMolecule(atoms, bonds)
}

func diatomic(sym string, order float64) *Molecule {
	return NewMolecule(
		[]Atom{{Symbol: sym}, {Symbol: sym}},
		[]Bond{{A: 0, B: 1, Order: order}},
	)
}

func hydrogenAtom() *Molecule {
	return NewMolecule([]Atom{{Symbol: "H", Radicals: 1}}, nil)
}

func oxygenAtom() *Molecule {
	return NewMolecule([]Atom{{Symbol: "O", Radicals: 2}}, nil)
}

func hydroxyl() *Molecule {
	return NewMolecule(
		[]Atom{{Symbol: "O", Radicals: 1}, {Symbol: "H"}},
		[]Bond{{A: 0, B: 1, Order: 1}},
	)
}

func water() *Molecule {
	return NewMolecule(
		[]Atom{{Symbol: "O"}, {Symbol: "H"}, {Symbol: "H"}},
		[]Bond{{A: 0, B: 1, Order: 1}, {A: 0, B: 2, Order: 1}},
	)
}

func hydroperoxyl() *Molecule {
	return NewMolecule(
		[]Atom{{Symbol: "O", Radicals: 1}, {Symbol: "O"}, {Symbol: "H"}},
		[]Bond{{A: 0, B: 1, Order: 1}, {A: 1, B: 2, Order: 1}},
	)
}

// Isomerization is the minimal one-reaction demo: cyclopropane -> propene.
func Isomerization() *Mechanism {
	a := &Species{Label: "cC3H6", Structure: Cyclopropane()}
	b := &Species{Label: "C3H6", Structure: Propene()}

	rxn := &Reaction{
		Reactants: []Stoich{{Species: a, Coeff: 1}},
		Products:  []Stoich{{Species: b, Coeff: 1}},
		// High-pressure-limit fit for cyclopropane isomerization.
		Rate: Arrhenius{A: 1.0e15, N: 0, Ea: 274e3},
	}

	m, err := NewMechanism("isomerization", []*Species{a, b}, []*Reaction{rxn})
	if err != nil {
		panic(err)
	}
	return m
}

// HydrogenOxidation is a seven-species skeletal H2/O2 chain used to exercise
// multi-reaction sensitivity output and third-body rates.
func HydrogenOxidation() *Mechanism {
	h2 := &Species{Label: "H2", Structure: diatomic("H", 1)}
	o2 := &Species{Label: "O2", Structure: diatomic("O", 2)}
	h := &Species{Label: "H", Structure: hydrogenAtom()}
	o := &Species{Label: "O", Structure: oxygenAtom()}
	oh := &Species{Label: "OH", Structure: hydroxyl()}
	h2o := &Species{Label: "H2O", Structure: water()}
	ho2 := &Species{Label: "HO2", Structure: hydroperoxyl()}

	reactions := []*Reaction{
		{
			Reactants: []Stoich{{h2, 1}, {o2, 1}},
			Products:  []Stoich{{oh, 2}},
			Rate:      Arrhenius{A: 1.7e7, N: 0, Ea: 200e3},
		},
		{
			Reactants: []Stoich{{oh, 1}, {h2, 1}},
			Products:  []Stoich{{h2o, 1}, {h, 1}},
			Rate:      Arrhenius{A: 1.2e3, N: 1.3, Ea: 15e3},
		},
		{
			Reactants: []Stoich{{h, 1}, {o2, 1}},
			Products:  []Stoich{{oh, 1}, {o, 1}},
			Rate:      Arrhenius{A: 2.0e8, N: 0, Ea: 70e3},
		},
		{
			Reactants: []Stoich{{o, 1}, {h2, 1}},
			Products:  []Stoich{{oh, 1}, {h, 1}},
			Rate:      Arrhenius{A: 5.1e-2, N: 2.67, Ea: 26e3},
		},
		{
			Reactants: []Stoich{{h, 1}, {o2, 1}},
			Products:  []Stoich{{ho2, 1}},
			Rate: ThirdBody{
				Arrhenius:    Arrhenius{A: 2.1e6, N: -0.8, Ea: 0},
				Efficiencies: map[string]float64{"H2": 2.4, "H2O": 15.4},
			},
		},
	}

	m, err := NewMechanism("h2-oxidation",
		[]*Species{h2, o2, h, o, oh, h2o, ho2}, reactions)
	if err != nil {
		panic(err)
	}
	return m
}

// NamedMolecule returns a builtin structure by name, nil if unknown. These
// are the structure references a scenario may select species by; matching
// against a mechanism goes through Mechanism.Resolve, not label comparison.
func NamedMolecule(name string) *Molecule {
	switch name {
	case "cyclopropane":
		return Cyclopropane()
	case "propene":
		return Propene()
	case "hydrogen":
		return diatomic("H", 1)
	case "oxygen":
		return diatomic("O", 2)
	case "hydrogen-atom":
		return hydrogenAtom()
	case "oxygen-atom":
		return oxygenAtom()
	case "hydroxyl":
		return hydroxyl()
	case "water":
		return water()
	case "hydroperoxyl":
		return hydroperoxyl()
	default:
		return nil
	}
}

// Preset returns a builtin mechanism by name, nil if unknown.
func Preset(name string) *Mechanism {
	switch name {
	case "isomerization":
		return Isomerization()
	case "h2-oxidation":
		return HydrogenOxidation()
	default:
		return nil
	}
}

// PresetNames lists the builtin mechanisms.
func PresetNames() []string {
	return []string{"isomerization", "h2-oxidation"}
}
