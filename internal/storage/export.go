package storage

import (
	"encoding/json"
	"io"
	"os"
)

type ExportData struct {
	Name       string             `json:"name"`
	Engine     string             `json:"engine"`
	Dt         float64            `json:"dt"`
	ImagDt     float64            `json:"imag_dt,omitempty"`
	StepsTaken int                `json:"steps_taken"`
	Shape      []int              `json:"shape"`
	Times      []float64          `json:"times"`
	Norm       []float64          `json:"norm"`
	Energy     []float64          `json:"energy"`
	Position   []float64          `json:"position"`
	Density    [][]float64        `json:"density,omitempty"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Export gathers a stored run into one document. Density is included only when asked for.
func (s *Store) Export(runID string, withDensity bool) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	series, err := s.LoadSeries(runID)
	if err != nil {
		return nil, err
	}
	data := &ExportData{
		Name:       meta.Name,
		Engine:     meta.Engine,
		Dt:         meta.Dt,
		ImagDt:     meta.ImagDt,
		StepsTaken: meta.StepsTaken,
		Shape:      meta.Shape,
		Times:      series.Times,
		Norm:       series.Norm,
		Energy:     series.Energy,
		Position:   series.Position,
		Metrics:    meta.Metrics,
	}
	if withDensity {
		if _, data.Density, err = s.LoadDensity(runID); err != nil {
			return nil, err
		}
	}
	return data, nil
}

func WriteJSON(w io.Writer, data *ExportData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// ExportJSON writes a stored run to path, or to stdout when path is empty or "-".
func (s *Store) ExportJSON(runID, path string, withDensity bool) error {
	data, err := s.Export(runID, withDensity)
	if err != nil {
		return err
	}
	if path == "" || path == "-" {
		return WriteJSON(os.Stdout, data)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteJSON(f, data)
}
