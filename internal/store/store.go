package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ar-nair/kinval/internal/backend"
	"github.com/ar-nair/kinval/internal/xval"
)

// Store persists comparison batches under a base directory, one run
// directory per batch.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// ConditionStatus summarizes one condition's outcome in the run metadata.
type ConditionStatus struct {
	Key        string            `json:"key"`
	OK         bool              `json:"ok"`
	Failures   map[string]string `json:"failures,omitempty"`
	Mismatches []string          `json:"mismatches,omitempty"`
}

type RunMetadata struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Mechanism  string            `json:"mechanism"`
	Backends   []string          `json:"backends"`
	Conditions []ConditionStatus `json:"conditions"`
}

// Save writes the batch output: metadata.json plus, per condition and
// backend, a trajectory CSV and (when present) a sensitivity CSV.
func (s *Store) Save(mechanism string, bundles []*xval.Bundle) (string, error) {
	runID := fmt.Sprintf("%s_%s", mechanism, uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Timestamp: time.Now(),
		Mechanism: mechanism,
	}
	if len(bundles) > 0 {
		meta.Backends = bundles[0].Backends()
	}

	for ci, bundle := range bundles {
		status := ConditionStatus{
			Key: bundle.Condition.Key(),
			OK:  bundle.OK(),
		}
		for name, err := range bundle.Failures {
			if status.Failures == nil {
				status.Failures = make(map[string]string)
			}
			status.Failures[name] = err.Error()
		}
		for _, mm := range bundle.Mismatches {
			status.Mismatches = append(status.Mismatches, mm.String())
		}
		meta.Conditions = append(meta.Conditions, status)

		for name, res := range bundle.Results {
			if err := s.writeTrajectories(runDir, ci, name, res); err != nil {
				return "", err
			}
			if res.Sensitivities != nil {
				if err := s.writeSensitivities(runDir, ci, name, res); err != nil {
					return "", err
				}
			}
		}
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}
	return runID, nil
}

func (s *Store) writeTrajectories(runDir string, ci int, backendName string, res *backend.Result) error {
	return writeCSVTable(
		filepath.Join(runDir, fmt.Sprintf("cond%d_%s.csv", ci, backendName)),
		trajectoryTable(res),
	)
}

func (s *Store) writeSensitivities(runDir string, ci int, backendName string, res *backend.Result) error {
	return writeCSVTable(
		filepath.Join(runDir, fmt.Sprintf("cond%d_%s_sens.csv", ci, backendName)),
		sensitivityTable(res),
	)
}

// List reads every run's metadata under the base directory.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// ReferenceTables rebuilds reference-backend tables from one stored run's
// trajectory CSVs, in condition order. Sensitivity files are skipped: their
// stored values are already normalized, while the reference backend wants
// raw derivative columns.
func (s *Store) ReferenceTables(runID, backendName string, n int) ([]*backend.Table, error) {
	tables := make([]*backend.Table, n)
	for i := 0; i < n; i++ {
		file := fmt.Sprintf("cond%d_%s.csv", i, backendName)
		_, times, columns, err := s.LoadTable(runID, file)
		if err != nil {
			return nil, fmt.Errorf("store: reference run %s: %w", runID, err)
		}
		tables[i] = &backend.Table{Times: times, Columns: columns}
	}
	return tables, nil
}

// LoadTable reads one stored CSV back as header, times and value columns.
func (s *Store) LoadTable(runID, file string) ([]string, []float64, map[string][]float64, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, file))
	if err != nil {
		return nil, nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, nil, err
	}
	if len(records) < 2 {
		return nil, nil, nil, fmt.Errorf("store: %s has no data rows", file)
	}

	header := records[0]
	times := make([]float64, 0, len(records)-1)
	columns := make(map[string][]float64, len(header)-1)

	for _, record := range records[1:] {
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, nil, nil, err
		}
		times = append(times, t)
		for j := 1; j < len(record) && j < len(header); j++ {
			v, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, nil, nil, err
			}
			columns[header[j]] = append(columns[header[j]], v)
		}
	}
	return header, times, columns, nil
}
