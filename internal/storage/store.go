package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/qsim/internal/config"
	"github.com/san-kum/qsim/internal/scenario"
)

const (
	metadataFile    = "metadata.json"
	observablesFile = "observables.csv"
	densityFile     = "density.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Engine     string             `json:"engine"`
	Timestamp  time.Time          `json:"timestamp"`
	Dt         float64            `json:"dt"`
	ImagDt     float64            `json:"imag_dt,omitempty"`
	Steps      int                `json:"steps"`
	StepsTaken int                `json:"steps_taken"`
	Shape      []int              `json:"shape"`
	Metrics    map[string]float64 `json:"metrics"`
	Errors     []string           `json:"errors,omitempty"`
	Config     *config.Config     `json:"config"`
}

// Series is the scalar observable history of a run.
type Series struct {
	Times    []float64
	Norm     []float64
	Energy   []float64
	Position []float64
}

// Save writes a run directory holding metadata.json, observables.csv and density.csv.
func (s *Store) Save(name string, cfg *config.Config, rep *scenario.Report) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Name:       name,
		Engine:     rep.Engine,
		Timestamp:  now,
		Dt:         cfg.Dt,
		ImagDt:     cfg.ImagDt,
		Steps:      cfg.Steps,
		StepsTaken: rep.StepsTaken,
		Shape:      cfg.Grid.Shape,
		Metrics:    rep.Metrics,
		Errors:     rep.Errors,
		Config:     cfg,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	rows := make([][]float64, len(rep.Times))
	for i, t := range rep.Times {
		rows[i] = []float64{t, rep.Norm[i], rep.Energy[i], rep.Position[i]}
	}
	header := []string{"time", "norm", "energy", "position"}
	if err := writeCSV(filepath.Join(runDir, observablesFile), header, rows); err != nil {
		return "", err
	}

	if len(rep.Density) == 0 {
		return runID, nil
	}
	header = []string{"time"}
	for i := range rep.Density[0] {
		header = append(header, fmt.Sprintf("rho%d", i))
	}
	rows = make([][]float64, len(rep.Density))
	for i, d := range rep.Density {
		rows[i] = append([]float64{rep.Times[i]}, d...)
	}
	if err := writeCSV(filepath.Join(runDir, densityFile), header, rows); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, header []string, rows [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	record := make([]string, 0, len(header))
	for _, row := range rows {
		record = record[:0]
		for _, v := range row {
			record = append(record, strconv.FormatFloat(v, 'g', 12, 64))
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns stored runs, oldest first. Directories without readable metadata are skipped.
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
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadSeries(runID string) (*Series, error) {
	rows, err := s.readCSV(runID, observablesFile)
	if err != nil {
		return nil, err
	}
	out := &Series{}
	for _, row := range rows {
		if len(row) < 4 {
			continue
		}
		out.Times = append(out.Times, row[0])
		out.Norm = append(out.Norm, row[1])
		out.Energy = append(out.Energy, row[2])
		out.Position = append(out.Position, row[3])
	}
	return out, nil
}

// LoadDensity returns the sample times and the density snapshot taken at each.
func (s *Store) LoadDensity(runID string) ([]float64, [][]float64, error) {
	rows, err := s.readCSV(runID, densityFile)
	if err != nil {
		return nil, nil, err
	}
	times := make([]float64, 0, len(rows))
	density := make([][]float64, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		times = append(times, row[0])
		density = append(density, row[1:])
	}
	return times, density, nil
}

func (s *Store) readCSV(runID, name string) ([][]float64, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s/%s", ErrRunNotFound, runID, name)
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return [][]float64{}, nil
	}

	rows := make([][]float64, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make([]float64, 0, len(record))
		for _, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
