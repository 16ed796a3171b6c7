package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ar-nair/kinval/internal/mech"
	"github.com/ar-nair/kinval/internal/reactor"
)

const (
	DefaultMechanism    = "isomerization"
	DefaultInitialStep  = 1e-9
	DefaultTolerance    = 1e-8
	DefaultMaxSteps     = 200000
	DefaultOutputPoints = 101
	DefaultPerturbEps   = 1e-4
	DefaultWorkers      = 4
	DefaultGridPoints   = 101
)

// AxisConfig is one numeric condition axis as written in YAML.
type AxisConfig struct {
	Values []float64 `yaml:"values"`
	Units  []string  `yaml:"units"`
}

// SolverConfig tunes the native kinetic backend.
type SolverConfig struct {
	InitialStep  float64 `yaml:"initial_step"`
	Tolerance    float64 `yaml:"tolerance"`
	MaxSteps     int     `yaml:"max_steps"`
	OutputPoints int     `yaml:"output_points"`
	PerturbEps   float64 `yaml:"perturb_eps"`
}

// Config is one cross-validation scenario file.
type Config struct {
	Mechanism    string               `yaml:"mechanism"`
	Sensitive    []string             `yaml:"sensitive_species"`
	Backends     []string             `yaml:"backends"`
	Reactors     []string             `yaml:"reactors"`
	Durations    AxisConfig           `yaml:"durations"`
	Temperatures AxisConfig           `yaml:"temperatures"`
	Pressures    AxisConfig           `yaml:"pressures"`
	Compositions []map[string]float64 `yaml:"compositions"`
	Solver       SolverConfig         `yaml:"solver"`

	// ReferenceRun points the "reference" backend at a stored run's
	// trajectory tables; ReferenceBackend names which backend's files to
	// read from it.
	ReferenceRun     string `yaml:"reference_run"`
	ReferenceBackend string `yaml:"reference_backend"`

	Workers    int    `yaml:"workers"`
	GridPoints int    `yaml:"grid_points"`
	OutputDir  string `yaml:"output_dir"`
}

func DefaultConfig() *Config {
	return &Config{
		Mechanism:    DefaultMechanism,
		Backends:     []string{"kinetic"},
		Reactors:     []string{"constant-pressure"},
		Durations:    AxisConfig{Values: []float64{0.5}, Units: []string{"ms"}},
		Temperatures: AxisConfig{Values: []float64{1300}, Units: []string{"K"}},
		Pressures:    AxisConfig{Values: []float64{1}, Units: []string{"bar"}},
		Compositions: []map[string]float64{{"cC3H6": 1.0}},
		Solver: SolverConfig{
			InitialStep:  DefaultInitialStep,
			Tolerance:    DefaultTolerance,
			MaxSteps:     DefaultMaxSteps,
			OutputPoints: DefaultOutputPoints,
			PerturbEps:   DefaultPerturbEps,
		},
		ReferenceBackend: "kinetic",
		Workers:          DefaultWorkers,
		GridPoints:       DefaultGridPoints,
		OutputDir:        ".kinval",
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Axes resolves the scenario's condition axes against the mechanism.
func (c *Config) Axes(m *mech.Mechanism) (reactor.Axes, error) {
	axes := reactor.Axes{
		Durations:    reactor.ValueAxis{Values: c.Durations.Values, Units: c.Durations.Units},
		Temperatures: reactor.ValueAxis{Values: c.Temperatures.Values, Units: c.Temperatures.Units},
		Pressures:    reactor.ValueAxis{Values: c.Pressures.Values, Units: c.Pressures.Units},
	}

	for _, name := range c.Reactors {
		typ, err := reactor.ParseType(name)
		if err != nil {
			return reactor.Axes{}, err
		}
		axes.Types = append(axes.Types, typ)
	}

	for _, comp := range c.Compositions {
		resolved := make(map[*mech.Species]float64, len(comp))
		for label, frac := range comp {
			sp, ok := m.ByLabel(label)
			if !ok {
				return reactor.Axes{}, fmt.Errorf("config: composition species %q not in mechanism %s", label, m.Name)
			}
			resolved[sp] = frac
		}
		axes.Compositions = append(axes.Compositions, resolved)
	}
	return axes, nil
}

// SensitiveSpecies resolves the sensitivity selection. An entry is either a
// species label in the mechanism or a named structure ("propene"); structure
// entries go through the mechanism's identity resolver, so labels never have
// to agree between the scenario and the mechanism. An unknown entry aborts
// the scenario; a silently dropped selection would yield misleading empty
// sensitivity output.
func (c *Config) SensitiveSpecies(m *mech.Mechanism) ([]*mech.Species, error) {
	out := make([]*mech.Species, 0, len(c.Sensitive))
	var queries []*mech.Species
	for _, name := range c.Sensitive {
		if sp, ok := m.ByLabel(name); ok {
			out = append(out, sp)
			continue
		}
		mol := mech.NamedMolecule(name)
		if mol == nil {
			return nil, fmt.Errorf("config: sensitive species %q not in mechanism %s: %w",
				name, m.Name, mech.ErrNoMatch)
		}
		q := &mech.Species{Label: name, Structure: mol}
		queries = append(queries, q)
		out = append(out, q)
	}

	if len(queries) > 0 {
		resolved, err := m.Resolve(queries)
		if err != nil {
			return nil, fmt.Errorf("config: sensitive species: %w", err)
		}
		for i, sp := range out {
			if match, ok := resolved[sp]; ok {
				out[i] = match
			}
		}
	}
	return out, nil
}
