package config

import "sort"

var Presets = map[string]*Config{
	"sho1d": {
		Engine: EngineSchrodinger, Units: "hartree", Dt: 0.01, Steps: 2000, SampleEvery: 20,
		Grid:      GridConfig{Shape: []int{256}, Extents: []float64{20}},
		Potential: PotentialConfig{Kind: "harmonic", Strength: 1},
		Initial:   InitialConfig{Kind: "gaussian", Center: []float64{2}, Sigma: []float64{1}},
	},
	"free1d": {
		Engine: EngineSchrodinger, Units: "hartree", Dt: 0.005, Steps: 1000, SampleEvery: 10,
		Grid:      GridConfig{Shape: []int{512}, Extents: []float64{40}},
		Potential: PotentialConfig{Kind: "free"},
		Initial:   InitialConfig{Kind: "gaussian", Center: []float64{-8}, Sigma: []float64{1}, Momentum: []float64{4}},
	},
	"barrier1d": {
		Engine: EngineSchrodinger, Units: "hartree", Dt: 0.005, Steps: 1500, SampleEvery: 10,
		Grid:      GridConfig{Shape: []int{512}, Extents: []float64{60}},
		Potential: PotentialConfig{Kind: "barrier", Strength: 8, Width: 0.5},
		Initial:   InitialConfig{Kind: "gaussian", Center: []float64{-10}, Sigma: []float64{2}, Momentum: []float64{4}},
	},
	"ground1d": {
		Engine: EngineSchrodinger, Units: "hartree", ImagDt: 0.01, Steps: 2000, SampleEvery: 20, Normalize: true,
		Grid:      GridConfig{Shape: []int{128}, Extents: []float64{20}},
		Potential: PotentialConfig{Kind: "harmonic", Strength: 1},
		Initial:   InitialConfig{Kind: "gaussian", Center: []float64{0.5}, Sigma: []float64{1}},
		Eigen:     EigenConfig{States: 3, Tolerance: 1e-7, MaxSteps: 20000},
	},
	"gpe1d": {
		Engine: EngineGPE, Units: "hartree", Dt: 0.005, Steps: 2000, SampleEvery: 20,
		Grid:      GridConfig{Shape: []int{256}, Extents: []float64{20}},
		Potential: PotentialConfig{Kind: "harmonic", Strength: 1},
		Initial:   InitialConfig{Kind: "gaussian", Center: []float64{1}, Sigma: []float64{0.7}},
		Nonlinear: NonlinearConfig{Strength: 10},
	},
	"dirac1d": {
		Engine: EngineDirac, Units: "natural", Mass: 1, Dt: 0.05, Steps: 1000, SampleEvery: 10,
		Grid:      GridConfig{Shape: []int{512}, Extents: []float64{100}},
		Potential: PotentialConfig{Kind: "barrier", Strength: 2.5, Width: 4},
		Initial:   InitialConfig{Kind: "positive", Center: []float64{-20}, Sigma: []float64{4}, Momentum: []float64{1.5}},
	},
	"dirac2d": {
		Engine: EngineDirac, Units: "natural", Mass: 1, Dt: 0.05, Steps: 400, SampleEvery: 10,
		Grid:            GridConfig{Shape: []int{64, 64}, Extents: []float64{40, 40}},
		Potential:       PotentialConfig{Kind: "harmonic", Strength: 0.05},
		VectorPotential: VectorConfig{Bz: 0.2},
		Initial:         InitialConfig{Kind: "positive", Center: []float64{5, 0}, Sigma: []float64{2, 2}},
	},
	"kg_free1d": {
		Engine: EngineKleinGordon, Units: "hartree", Dt: 0.0001, Steps: 1000, SampleEvery: 10,
		Grid:      GridConfig{Shape: []int{512}, Extents: []float64{20}},
		Potential: PotentialConfig{Kind: "free"},
		Initial:   InitialConfig{Kind: "gaussian", Sigma: []float64{0.5}, Momentum: []float64{10}},
	},
	"kg_sho1d": {
		Engine: EngineKleinGordon, Units: "natural", Mass: 1, Dt: 0.01, Steps: 2000, SampleEvery: 20,
		Grid:      GridConfig{Shape: []int{256}, Extents: []float64{40}},
		Potential: PotentialConfig{Kind: "harmonic", Strength: 0.1},
		Initial:   InitialConfig{Kind: "gaussian", Center: []float64{3}, Sigma: []float64{1}},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
