package splitstep

import (
	"go.uber.org/zap"

	"github.com/san-kum/qsim/internal/units"
)

type settings struct {
	units   units.System
	mass    float64
	logger  *zap.Logger
	workers int
}

// Option customizes an engine before its operators are built.
type Option func(*settings)

// WithUnits selects the unit system. The particle mass is taken from it unless WithMass is also given.
func WithUnits(u units.System) Option {
	return func(s *settings) {
		s.units = u
	}
}

// WithMass overrides the particle mass.
func WithMass(m float64) Option {
	if !(m > 0) {
		panic("splitstep: WithMass requires a positive mass")
	}
	return func(s *settings) {
		s.mass = m
	}
}

// WithLogger sets the logger for operator rebuilds. The default is zap.NewNop.
func WithLogger(l *zap.Logger) Option {
	if l == nil {
		panic("splitstep: WithLogger(nil)")
	}
	return func(s *settings) {
		s.logger = l
	}
}

// WithWorkers splits pointwise multiplies across n goroutines. The result does not depend on n.
func WithWorkers(n int) Option {
	return func(s *settings) {
		s.workers = n
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		units:   units.Metric(),
		logger:  zap.NewNop(),
		workers: 1,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.mass == 0 {
		s.mass = s.units.Mass
	}
	return s
}
