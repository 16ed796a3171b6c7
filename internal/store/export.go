package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/ar-nair/kinval/internal/backend"
)

// table is a time column plus named value columns sharing one grid.
type table struct {
	header []string
	times  []float64
	cols   [][]float64
}

func trajectoryTable(res *backend.Result) table {
	labels := make([]string, 0, len(res.Trajectories))
	for sp := range res.Trajectories {
		labels = append(labels, sp.Label)
	}
	sort.Strings(labels)

	t := table{header: append([]string{"time"}, labels...)}
	for _, label := range labels {
		for sp, tr := range res.Trajectories {
			if sp.Label == label {
				if t.times == nil {
					t.times = tr.Times
				}
				t.cols = append(t.cols, tr.Values)
				break
			}
		}
	}
	return t
}

func sensitivityTable(res *backend.Result) table {
	t := table{header: []string{"time"}}
	for _, tr := range res.Sensitivities.Entries {
		name := fmt.Sprintf("%s/R%d", tr.Species.Label, tr.Reaction.Index)
		t.header = append(t.header, name, name+":degenerate")
		if t.times == nil {
			t.times = tr.Times
		}
		flags := make([]float64, len(tr.Degenerate))
		for i, d := range tr.Degenerate {
			if d {
				flags[i] = 1
			}
		}
		t.cols = append(t.cols, tr.Values, flags)
	}
	return t
}

func writeCSVTable(path string, t table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(t.header); err != nil {
		return err
	}
	for i := range t.times {
		row := make([]string, 0, len(t.cols)+1)
		row = append(row, strconv.FormatFloat(t.times[i], 'g', 12, 64))
		for _, col := range t.cols {
			v := 0.0
			if i < len(col) {
				v = col[i]
			}
			row = append(row, strconv.FormatFloat(v, 'g', 12, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}
