// Package report renders cross-validation bundles as terminal plots and
// condition summaries.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/ar-nair/kinval/internal/mech"
	"github.com/ar-nair/kinval/internal/sensitivity"
	"github.com/ar-nair/kinval/internal/series"
	"github.com/ar-nair/kinval/internal/xval"
)

const (
	plotWidth  = 80
	plotHeight = 12
	gridPoints = 81
)

// Comparison overlays one species' mole-fraction trajectories from two
// backends on a shared grid and reports the maximum deviation between them.
func Comparison(b *xval.Bundle, sp *mech.Species, backA, backB string) (string, error) {
	ta, tb, err := b.Pair(sp, backA, backB, gridPoints)
	if err != nil {
		return "", err
	}
	dev, err := series.MaxAbsDeviation(ta, tb)
	if err != nil {
		return "", err
	}

	caption := fmt.Sprintf("%s  x(%s)  t=[%.3g, %.3g]s", b.Condition, sp.Label, ta.Start(), ta.End())
	graph := asciigraph.PlotMany(
		[][]float64{ta.Values, tb.Values},
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(asciigraph.Cyan, asciigraph.Yellow),
		asciigraph.SeriesLegends(backA, backB),
	)

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s: %s vs %s", sp.Label, backA, backB)))
	sb.WriteString("\n")
	sb.WriteString(graph)
	sb.WriteString("\n")
	sb.WriteString(labelStyle.Render("max |deviation|: "))
	sb.WriteString(valueStyle.Render(fmt.Sprintf("%.6g", dev)))
	sb.WriteString("\n")
	return sb.String(), nil
}

// SensitivityComparison overlays the normalized sensitivity of one
// (observable, reaction) pair across two backends. Degenerate samples are
// flagged in the footer rather than dropped from the plot.
func SensitivityComparison(b *xval.Bundle, sp *mech.Species, rxn *mech.Reaction, backA, backB string) (string, error) {
	ra, ok := b.Results[backA]
	if !ok || ra.Sensitivities == nil {
		return "", fmt.Errorf("report: no sensitivities from backend %q", backA)
	}
	rb, ok := b.Results[backB]
	if !ok || rb.Sensitivities == nil {
		return "", fmt.Errorf("report: no sensitivities from backend %q", backB)
	}
	ea := ra.Sensitivities.Lookup(sp, rxn)
	eb := rb.Sensitivities.Lookup(sp, rxn)
	if ea == nil || eb == nil {
		return "", fmt.Errorf("report: sensitivity %s/R%d not tracked by both backends", sp.Label, rxn.Index)
	}
	ea, eb, err := sensitivity.AlignTraces(ea, eb, gridPoints)
	if err != nil {
		return "", err
	}

	caption := fmt.Sprintf("d(ln x[%s]) / d(ln k[R%d])", sp.Label, rxn.Index)
	graph := asciigraph.PlotMany(
		[][]float64{ea.Values, eb.Values},
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(asciigraph.Cyan, asciigraph.Yellow),
		asciigraph.SeriesLegends(backA, backB),
	)

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s / %s", sp.Label, rxn.Equation())))
	sb.WriteString("\n")
	sb.WriteString(graph)
	sb.WriteString("\n")
	if n := countDegenerate(ea) + countDegenerate(eb); n > 0 {
		sb.WriteString(warnStyle.Render(fmt.Sprintf("%d degenerate sample(s): observable below resolvable magnitude", n)))
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// Summary renders one status line per condition: completion, per-backend
// failures, and observable mismatches.
func Summary(bundles []*xval.Bundle) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("cross-validation: %d condition(s)", len(bundles))))
	sb.WriteString("\n\n")

	for i, b := range bundles {
		status := okStyle.Render("ok")
		if !b.OK() {
			status = failStyle.Render("failed")
		}
		sb.WriteString(fmt.Sprintf("  [%d] %s  %s\n", i, valueStyle.Render(b.Condition.String()), status))

		names := make([]string, 0, len(b.Failures))
		for name := range b.Failures {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			sb.WriteString(fmt.Sprintf("      %s %v\n", failStyle.Render(name+":"), b.Failures[name]))
		}
		for _, mm := range b.Mismatches {
			sb.WriteString("      " + warnStyle.Render("mismatch: "+mm.String()) + "\n")
		}
		for _, line := range deviationLines(b) {
			sb.WriteString("      " + line + "\n")
		}
	}
	return sb.String()
}

// deviationLines reports max abs deviation per species between the first two
// completed backends, largest first.
func deviationLines(b *xval.Bundle) []string {
	var completed []string
	for _, name := range b.Backends() {
		if _, ok := b.Results[name]; ok {
			completed = append(completed, name)
		}
	}
	if len(completed) < 2 {
		return nil
	}
	backA, backB := completed[0], completed[1]

	type entry struct {
		label string
		dev   float64
	}
	var entries []entry
	for sp := range b.Results[backA].Trajectories {
		ta, tb, err := b.Pair(sp, backA, backB, gridPoints)
		if err != nil {
			continue
		}
		dev, err := series.MaxAbsDeviation(ta, tb)
		if err != nil {
			continue
		}
		entries = append(entries, entry{sp.Label, dev})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].dev != entries[j].dev {
			return entries[i].dev > entries[j].dev
		}
		return entries[i].label < entries[j].label
	})

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%s %s vs %s: %s",
			labelStyle.Render(e.label),
			subtleStyle.Render(backA), subtleStyle.Render(backB),
			valueStyle.Render(fmt.Sprintf("%.6g", e.dev))))
	}
	return lines
}

func countDegenerate(tr *sensitivity.Trace) int {
	n := 0
	for _, d := range tr.Degenerate {
		if d {
			n++
		}
	}
	return n
}
