package dirac

import (
	"go.uber.org/zap"

	"github.com/san-kum/qsim/internal/units"
)

// VectorPotential holds grid-shaped A components. A nil component is zero.
type VectorPotential struct {
	X, Y, Z []float64
}

// Clone returns a deep copy. Nil components stay nil.
func (a *VectorPotential) Clone() *VectorPotential {
	if a == nil {
		return nil
	}
	cp := func(x []float64) []float64 {
		if x == nil {
			return nil
		}
		return append([]float64(nil), x...)
	}
	return &VectorPotential{X: cp(a.X), Y: cp(a.Y), Z: cp(a.Z)}
}

type settings struct {
	units      units.System
	mass       float64
	vector     *VectorPotential
	factorized bool
	massSet    bool
	logger     *zap.Logger
	workers    int
}

type Option func(*settings)

// WithUnits selects the unit system; the default is natural units.
func WithUnits(u units.System) Option {
	return func(s *settings) {
		s.units = u
	}
}

// WithMass sets the rest mass. Zero is allowed.
func WithMass(m float64) Option {
	if m < 0 {
		panic("dirac: WithMass requires a non-negative mass")
	}
	return func(s *settings) {
		s.mass = m
		s.massSet = true
	}
}

// WithVectorPotential sets the initial A. The engine keeps its own copy.
func WithVectorPotential(ax, ay, az []float64) Option {
	return func(s *settings) {
		s.vector = &VectorPotential{X: ax, Y: ay, Z: az}
	}
}

// WithFactorized keeps the free propagator as U·diag(phase)·Uᴴ and applies
// it in three passes instead of one combined matrix.
func WithFactorized(on bool) Option {
	return func(s *settings) {
		s.factorized = on
	}
}

// WithLogger sets the logger for operator rebuilds. The default is zap.NewNop.
func WithLogger(l *zap.Logger) Option {
	if l == nil {
		panic("dirac: WithLogger(nil)")
	}
	return func(s *settings) {
		s.logger = l
	}
}

// WithWorkers splits the 4×4 operator products across n goroutines.
func WithWorkers(n int) Option {
	return func(s *settings) {
		s.workers = n
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		units:   units.Natural(),
		logger:  zap.NewNop(),
		workers: 1,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if !s.massSet {
		s.mass = s.units.Mass
	}
	return s
}
