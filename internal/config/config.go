package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/qsim/internal/units"
)

const (
	DefaultDt          = 0.01
	DefaultSteps       = 1000
	DefaultSampleEvery = 10
	DefaultPoints      = 256
	DefaultExtent      = 20.0
)

// Engine kinds.
const (
	EngineSchrodinger = "schrodinger"
	EngineGPE         = "gpe"
	EngineDirac       = "dirac"
	EngineKleinGordon = "kleingordon"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Engine          string          `yaml:"engine" json:"engine"`
	Units           string          `yaml:"units" json:"units"`
	C               float64         `yaml:"c,omitempty" json:"c,omitempty"`
	Mass            float64         `yaml:"mass,omitempty" json:"mass,omitempty"`
	Grid            GridConfig      `yaml:"grid" json:"grid"`
	Dt              float64         `yaml:"dt" json:"dt"`
	ImagDt          float64         `yaml:"imag_dt,omitempty" json:"imag_dt,omitempty"`
	Steps           int             `yaml:"steps" json:"steps"`
	SampleEvery     int             `yaml:"sample_every" json:"sample_every"`
	Normalize       bool            `yaml:"normalize,omitempty" json:"normalize,omitempty"`
	Factorized      bool            `yaml:"factorized,omitempty" json:"factorized,omitempty"`
	Workers         int             `yaml:"workers,omitempty" json:"workers,omitempty"`
	Potential       PotentialConfig `yaml:"potential" json:"potential"`
	VectorPotential VectorConfig    `yaml:"vector_potential,omitempty" json:"vector_potential,omitempty"`
	Initial         InitialConfig   `yaml:"initial" json:"initial"`
	Nonlinear       NonlinearConfig `yaml:"nonlinear,omitempty" json:"nonlinear,omitempty"`
	Eigen           EigenConfig     `yaml:"eigen,omitempty" json:"eigen,omitempty"`
}

type GridConfig struct {
	Shape   []int     `yaml:"shape" json:"shape"`
	Extents []float64 `yaml:"extents" json:"extents"`
}

// PotentialConfig selects a named scalar potential.
type PotentialConfig struct {
	Kind     string    `yaml:"kind" json:"kind"`
	Strength float64   `yaml:"strength,omitempty" json:"strength,omitempty"`
	Width    float64   `yaml:"width,omitempty" json:"width,omitempty"`
	Center   []float64 `yaml:"center,omitempty" json:"center,omitempty"`
}

// VectorConfig is a constant A plus the symmetric-gauge potential of a
// uniform field Bz, A = Bz/2·(-y, x, 0).
type VectorConfig struct {
	Ax float64 `yaml:"ax,omitempty" json:"ax,omitempty"`
	Ay float64 `yaml:"ay,omitempty" json:"ay,omitempty"`
	Az float64 `yaml:"az,omitempty" json:"az,omitempty"`
	Bz float64 `yaml:"bz,omitempty" json:"bz,omitempty"`
}

func (v VectorConfig) IsZero() bool {
	return v.Ax == 0 && v.Ay == 0 && v.Az == 0 && v.Bz == 0
}

type InitialConfig struct {
	Kind      string    `yaml:"kind" json:"kind"`
	Center    []float64 `yaml:"center,omitempty" json:"center,omitempty"`
	Sigma     []float64 `yaml:"sigma,omitempty" json:"sigma,omitempty"`
	Momentum  []float64 `yaml:"momentum,omitempty" json:"momentum,omitempty"`
	Component int       `yaml:"component,omitempty" json:"component,omitempty"`
}

type NonlinearConfig struct {
	Strength float64 `yaml:"strength" json:"strength"`
}

type EigenConfig struct {
	States    int     `yaml:"states" json:"states"`
	Tolerance float64 `yaml:"tolerance" json:"tolerance"`
	MaxSteps  int     `yaml:"max_steps" json:"max_steps"`
}

func DefaultConfig() *Config {
	return &Config{
		Engine: EngineSchrodinger,
		Units:  "hartree",
		Grid: GridConfig{
			Shape:   []int{DefaultPoints},
			Extents: []float64{DefaultExtent},
		},
		Dt:          DefaultDt,
		Steps:       DefaultSteps,
		SampleEvery: DefaultSampleEvery,
		Potential:   PotentialConfig{Kind: "free"},
		Initial: InitialConfig{
			Kind:  "gaussian",
			Sigma: []float64{1},
		},
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
	if err := cfg.Validate(); err != nil {
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

// Timestep returns dt - i·imag_dt. A positive imag_dt selects imaginary-time relaxation.
func (c *Config) Timestep() complex128 {
	return complex(c.Dt, -c.ImagDt)
}

// UnitSystem resolves the named unit system, applying the mass override.
func (c *Config) UnitSystem() (units.System, error) {
	u, err := units.Lookup(c.Units, c.C)
	if err != nil {
		return units.System{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Mass > 0 {
		u = u.WithMass(c.Mass)
	}
	return u, nil
}

func (c *Config) Validate() error {
	switch c.Engine {
	case EngineSchrodinger, EngineGPE, EngineDirac, EngineKleinGordon:
	default:
		return fmt.Errorf("%w: unknown engine: %s", ErrInvalidConfig, c.Engine)
	}
	if len(c.Grid.Shape) == 0 || len(c.Grid.Shape) != len(c.Grid.Extents) {
		return fmt.Errorf("%w: grid has %d axes and %d extents", ErrInvalidConfig, len(c.Grid.Shape), len(c.Grid.Extents))
	}
	if c.Dt == 0 && c.ImagDt == 0 {
		return fmt.Errorf("%w: dt and imag_dt are both zero", ErrInvalidConfig)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("%w: steps must be positive, got %d", ErrInvalidConfig, c.Steps)
	}
	if c.Mass < 0 {
		return fmt.Errorf("%w: negative mass %g", ErrInvalidConfig, c.Mass)
	}
	if c.Engine == EngineDirac && (c.Initial.Component < 0 || c.Initial.Component > 3) {
		return fmt.Errorf("%w: spinor component %d", ErrInvalidConfig, c.Initial.Component)
	}
	if _, err := c.UnitSystem(); err != nil {
		return err
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Grid.Shape = append([]int(nil), c.Grid.Shape...)
	out.Grid.Extents = append([]float64(nil), c.Grid.Extents...)
	out.Potential.Center = append([]float64(nil), c.Potential.Center...)
	out.Initial.Center = append([]float64(nil), c.Initial.Center...)
	out.Initial.Sigma = append([]float64(nil), c.Initial.Sigma...)
	out.Initial.Momentum = append([]float64(nil), c.Initial.Momentum...)
	return &out
}
