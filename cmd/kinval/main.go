package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/ar-nair/kinval/internal/backend"
	"github.com/ar-nair/kinval/internal/config"
	"github.com/ar-nair/kinval/internal/mech"
	"github.com/ar-nair/kinval/internal/reactor"
	"github.com/ar-nair/kinval/internal/report"
	"github.com/ar-nair/kinval/internal/store"
	"github.com/ar-nair/kinval/internal/tui"
	"github.com/ar-nair/kinval/internal/xval"
)

var (
	dataDir   string
	live      bool
	workers   int
	noSave    bool
	condIndex int
	backName  string
	plotSens  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "kinval",
		Short: "chemical kinetics cross-validation lab",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".kinval", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [scenario.yaml]",
		Short: "run a cross-validation scenario",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	runCmd.Flags().BoolVar(&live, "live", false, "live progress view")
	runCmd.Flags().IntVar(&workers, "workers", 0, "worker pool size (0 = scenario setting)")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "skip writing results to the data directory")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id] [species]",
		Short: "plot a stored trajectory",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&condIndex, "cond", 0, "condition index")
	plotCmd.Flags().StringVar(&backName, "backend", "kinetic", "backend name")
	plotCmd.Flags().BoolVar(&plotSens, "sens", false, "plot sensitivities instead of mole fractions")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	initCmd := &cobra.Command{
		Use:   "init [scenario.yaml]",
		Short: "write a default scenario file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "scenario.yaml"
			if len(args) > 0 {
				path = args[0]
			}
			if err := config.Save(path, config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}

	mechsCmd := &cobra.Command{
		Use:   "mechs",
		Short: "list built-in mechanisms",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range mech.PresetNames() {
				m := mech.Preset(name)
				fmt.Printf("%-20s %d species, %d reactions\n", name, len(m.Species), len(m.Reactions))
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, initCmd, mechsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		loaded, err := config.Load(args[0])
		if err != nil {
			return fmt.Errorf("load scenario: %w", err)
		}
		cfg = loaded
	}
	if workers > 0 {
		cfg.Workers = workers
	}

	m := mech.Preset(cfg.Mechanism)
	if m == nil {
		return fmt.Errorf("unknown mechanism %q (available: %s)",
			cfg.Mechanism, strings.Join(mech.PresetNames(), ", "))
	}

	sensitive, err := cfg.SensitiveSpecies(m)
	if err != nil {
		return err
	}

	axes, err := cfg.Axes(m)
	if err != nil {
		return err
	}
	conditions, err := reactor.Expand(axes)
	if err != nil {
		return err
	}

	st := store.New(dataDir)

	backends, err := buildBackends(cfg, conditions, st)
	if err != nil {
		return err
	}
	names := make([]string, len(backends))
	for i, be := range backends {
		if err := be.Load(m, sensitive); err != nil {
			return fmt.Errorf("load backend %s: %w", be.Name(), err)
		}
		names[i] = be.Name()
	}

	fmt.Printf("mechanism %s: %d species, %d reactions\n", m.Name, len(m.Species), len(m.Reactions))
	fmt.Printf("%d condition(s) x %d backend(s), %d worker(s)\n", len(conditions), len(backends), cfg.Workers)

	batch := xval.NewBatch(backends, conditions)
	batch.SetWorkers(cfg.Workers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var bundles []*xval.Bundle
	if live {
		bundles, err = tui.Monitor(ctx, batch, conditions, names)
		if err != nil {
			return err
		}
	} else {
		progress := make(chan xval.Progress, len(conditions)*len(backends))
		batch.Notify(progress)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for ev := range progress {
				if ev.Err != nil {
					fmt.Printf("  fail  cond %d  %s: %v\n", ev.ConditionIndex, ev.Backend, ev.Err)
				} else {
					fmt.Printf("  ok    cond %d  %s\n", ev.ConditionIndex, ev.Backend)
				}
			}
		}()
		bundles = batch.Run(ctx)
		close(progress)
		<-done
	}

	fmt.Println()
	fmt.Print(report.Summary(bundles))

	if !noSave {
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(m.Name, bundles)
		if err != nil {
			return err
		}
		fmt.Printf("\nsaved run %s\n", runID)
	}
	return nil
}

func buildBackends(cfg *config.Config, conditions []*reactor.Condition, st *store.Store) ([]backend.Backend, error) {
	opts := backend.Options{
		InitialStep:  cfg.Solver.InitialStep,
		Tolerance:    cfg.Solver.Tolerance,
		MaxSteps:     cfg.Solver.MaxSteps,
		OutputPoints: cfg.Solver.OutputPoints,
		PerturbEps:   cfg.Solver.PerturbEps,
	}

	out := make([]backend.Backend, 0, len(cfg.Backends))
	for _, name := range cfg.Backends {
		switch name {
		case "kinetic":
			out = append(out, backend.NewKinetic(opts))
		case "kinetic-coarse":
			// Same engine under looser settings; useful as a sanity
			// cross-check when no external reference data exists.
			coarse := opts
			coarse.Tolerance *= 1e3
			coarse.InitialStep *= 10
			out = append(out, backend.NewNamedKinetic("kinetic-coarse", coarse))
		case "reference":
			if cfg.ReferenceRun == "" {
				return nil, fmt.Errorf("reference backend needs reference_run in the scenario")
			}
			tables, err := st.ReferenceTables(cfg.ReferenceRun, cfg.ReferenceBackend, len(conditions))
			if err != nil {
				return nil, err
			}
			ref := backend.NewReference("reference")
			for i, cond := range conditions {
				ref.AddTable(cond, tables[i])
			}
			out = append(out, ref)
		default:
			return nil, fmt.Errorf("unknown backend %q", name)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("scenario names no backends")
	}
	return out, nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tMECHANISM\tBACKENDS\tCONDITIONS")
	for _, run := range runs {
		ok := 0
		for _, c := range run.Conditions {
			if c.OK {
				ok++
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d ok\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Mechanism,
			strings.Join(run.Backends, ","),
			ok, len(run.Conditions))
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	file := fmt.Sprintf("cond%d_%s.csv", condIndex, backName)
	if plotSens {
		file = fmt.Sprintf("cond%d_%s_sens.csv", condIndex, backName)
	}

	st := store.New(dataDir)
	header, times, columns, err := st.LoadTable(runID, file)
	if err != nil {
		return err
	}

	var selected []string
	if len(args) > 1 {
		want := args[1]
		for name := range columns {
			if name == want || strings.HasPrefix(name, want+"/") {
				selected = append(selected, name)
			}
		}
		if len(selected) == 0 {
			return fmt.Errorf("no column %q in %s (have: %s)", want, file, strings.Join(header[1:], ", "))
		}
	} else {
		for name := range columns {
			if !strings.HasSuffix(name, ":degenerate") {
				selected = append(selected, name)
			}
		}
	}
	sort.Strings(selected)

	for _, name := range selected {
		if strings.HasSuffix(name, ":degenerate") {
			continue
		}
		graph := asciigraph.Plot(columns[name],
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s  t=[%.3g, %.3g]s", name, times[0], times[len(times)-1])),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}
