package kleingordon

import (
	"go.uber.org/zap"

	"github.com/san-kum/qsim/internal/units"
)

type settings struct {
	units   units.System
	mass    float64
	massSet bool
	logger  *zap.Logger
	workers int
}

type Option func(*settings)

// WithUnits selects the unit system; the default is Hartree units with c = 137.036.
func WithUnits(u units.System) Option {
	return func(s *settings) {
		s.units = u
	}
}

// WithMass sets the rest mass. Zero gives a massless field.
func WithMass(m float64) Option {
	if m < 0 {
		panic("kleingordon: WithMass requires a non-negative mass")
	}
	return func(s *settings) {
		s.mass = m
		s.massSet = true
	}
}

// WithLogger sets the logger that reports domain errors. The default is zap.NewNop.
func WithLogger(l *zap.Logger) Option {
	if l == nil {
		panic("kleingordon: WithLogger(nil)")
	}
	return func(s *settings) {
		s.logger = l
	}
}

// WithWorkers splits the 2×2 operator products across n goroutines.
func WithWorkers(n int) Option {
	return func(s *settings) {
		s.workers = n
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		units:   units.Hartree(units.HartreeC),
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
