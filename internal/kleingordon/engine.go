// Package kleingordon propagates the Klein-Gordon equation written as a
// first-order system for the pair (φ, ∂φ/∂t).
//
// In momentum space the free evolution is the 2×2 exponential of
// [[0, a], [-ω², 0]] with ω² = c²p²/ħ² + m²c⁴/ħ². A potential V enters
// through [[0, 1/2], [-c²V/ħ², 0]] applied for dt/2 on both sides of the
// momentum step; a = 1/2 in that case so the generators sum to the full
// equation of motion.
package kleingordon

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/san-kum/qsim/internal/grid"
	"github.com/san-kum/qsim/internal/relativistic"
	"github.com/san-kum/qsim/internal/spectral"
	"github.com/san-kum/qsim/internal/units"
	"github.com/san-kum/qsim/internal/wave"
)

// Engine is not safe for concurrent use.
type Engine struct {
	grid  *grid.Grid
	units units.System
	mass  float64
	dt    complex128

	v         []float64
	nonlinear wave.PotentialTerm

	omega2  []float64
	expP    wave.Mat2
	expV    *wave.Mat2
	coupled bool

	workers int
	logger  *zap.Logger
}

// New builds an engine on g. v may be nil for a free field.
func New(v []float64, g *grid.Grid, dt complex128, opts ...Option) (*Engine, error) {
	if g == nil {
		return nil, fmt.Errorf("kleingordon: %w: nil grid", wave.ErrInvalidGrid)
	}
	s := newSettings(opts)
	e := &Engine{
		grid:    g,
		units:   s.units,
		mass:    s.mass,
		workers: s.workers,
		logger:  s.logger,
	}

	c2 := s.units.C * s.units.C
	h2 := s.units.Hbar * s.units.Hbar
	rest := s.mass * s.mass * c2 * c2 / h2
	e.omega2 = g.MomentumSquared(s.units.Hbar)
	for i, p2 := range e.omega2 {
		e.omega2[i] = c2*p2/h2 + rest
	}

	e.dt = dt
	if err := e.SetPotential(v); err != nil {
		return nil, err
	}
	e.SetTimestep(dt)
	return e, nil
}

// SetTimestep rebuilds the momentum operator and, if set, the potential operator.
func (e *Engine) SetTimestep(dt complex128) {
	e.dt = dt
	e.rebuildMomentum()
	if e.v != nil {
		op, err := e.potentialOp(e.v)
		if err != nil {
			// e.v was validated by SetPotential.
			panic(err)
		}
		e.expV = &op
	}
	e.logger.Debug("rebuilt klein-gordon operators",
		zap.Complex128("dt", dt),
		zap.Ints("shape", e.grid.Shape()),
		zap.Bool("coupled", e.coupled))
}

// SetPotential replaces V. nil removes the potential. Negative, infinite or NaN
// samples are rejected with a *wave.DomainError and leave the engine unchanged.
func (e *Engine) SetPotential(v []float64) error {
	if v == nil {
		e.v, e.expV = nil, nil
		e.syncCoupling()
		return nil
	}
	if err := wave.CheckLength(len(v), e.grid.Size()); err != nil {
		return fmt.Errorf("kleingordon: potential: %w", err)
	}
	op, err := e.potentialOp(v)
	if err != nil {
		return err
	}
	e.v = append([]float64(nil), v...)
	e.expV = &op
	e.syncCoupling()
	return nil
}

// SetNonlinearTerm adds fn(φ) to V on every potential half step. nil removes it.
func (e *Engine) SetNonlinearTerm(fn wave.PotentialTerm) {
	e.nonlinear = fn
	e.syncCoupling()
}

func (e *Engine) hasPotential() bool {
	return e.v != nil || e.nonlinear != nil
}

// syncCoupling rebuilds the momentum operator when the potential appears or disappears.
func (e *Engine) syncCoupling() {
	if e.hasPotential() != e.coupled && e.expP.Len() > 0 {
		e.rebuildMomentum()
	}
}

func (e *Engine) rebuildMomentum() {
	e.coupled = e.hasPotential()
	a := complex(1, 0)
	if e.coupled {
		a = 0.5
	}
	n := len(e.omega2)
	e.expP = wave.NewMat2(n)
	wave.ParallelFor(n, 1024, e.workers, func(start, end int) {
		for i := start; i < end; i++ {
			e.expP.Set(i, relativistic.KGExp(a, complex(e.omega2[i], 0), e.dt))
		}
	})
}

func (e *Engine) potentialOp(v []float64) (wave.Mat2, error) {
	k := e.units.C * e.units.C / (e.units.Hbar * e.units.Hbar)
	tau := e.dt / 2
	op := wave.NewMat2(len(v))
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
			err := &wave.DomainError{Op: "klein-gordon potential", Index: i, Value: x}
			e.logger.Error("potential outside operator domain",
				zap.Int("index", i),
				zap.Float64("value", x))
			return wave.Mat2{}, err
		}
		op.Set(i, relativistic.KGExp(0.5, complex(k*x, 0), tau))
	}
	return op, nil
}

// Grid returns the grid the operators were built on.
func (e *Engine) Grid() *grid.Grid { return e.grid }

// Units returns the engine's unit system.
func (e *Engine) Units() units.System { return e.units }

// Mass returns the rest mass in engine units.
func (e *Engine) Mass() float64 { return e.mass }

// Timestep returns dt.
func (e *Engine) Timestep() complex128 { return e.dt }

// Potential returns a copy of V, or nil when none is set.
func (e *Engine) Potential() []float64 {
	if e.v == nil {
		return nil
	}
	return append([]float64(nil), e.v...)
}

// MomentumOp returns the momentum-space step operator.
func (e *Engine) MomentumOp() wave.Mat2 { return e.expP }

// Advance returns phi moved forward by one timestep. phi is not modified.
func (e *Engine) Advance(phi wave.Pair) (wave.Pair, error) {
	for k := range phi {
		if err := wave.CheckLength(len(phi[k]), e.grid.Size()); err != nil {
			return wave.Pair{}, fmt.Errorf("kleingordon: component %d: %w", k, err)
		}
	}

	out, err := e.halfPotential(phi)
	if err != nil {
		return wave.Pair{}, err
	}
	shape := e.grid.Shape()
	out = wave.Pair{spectral.Forward(out[0], shape), spectral.Forward(out[1], shape)}
	out = e.expP.MulVec(out, e.workers)
	out = wave.Pair{spectral.Inverse(out[0], shape), spectral.Inverse(out[1], shape)}
	return e.halfPotential(out)
}

func (e *Engine) halfPotential(phi wave.Pair) (wave.Pair, error) {
	if !e.hasPotential() {
		return phi.Clone(), nil
	}
	if e.nonlinear == nil {
		return e.expV.MulVec(phi, e.workers), nil
	}

	extra := e.nonlinear(phi[0])
	if err := wave.CheckLength(len(extra), e.grid.Size()); err != nil {
		return wave.Pair{}, fmt.Errorf("kleingordon: nonlinear term: %w", err)
	}
	veff := make([]float64, len(extra))
	copy(veff, extra)
	if e.v != nil {
		for i := range veff {
			veff[i] += e.v[i]
		}
	}
	op, err := e.potentialOp(veff)
	if err != nil {
		return wave.Pair{}, err
	}
	return op.MulVec(phi, e.workers), nil
}

// PositiveFrequency returns the pair (φ, -iωφ), whose free evolution
// carries only e^{-iωt} modes.
func (e *Engine) PositiveFrequency(phi wave.Field) wave.Pair {
	shape := e.grid.Shape()
	dot := wave.Field(spectral.Forward(phi, shape))
	for i := range dot {
		dot[i] *= complex(0, -math.Sqrt(e.omega2[i]))
	}
	return wave.Pair{phi.Clone(), spectral.Inverse(dot, shape)}
}

// Energy returns ½·Σ(|∂φ/∂t|² + ω²|φ̃|²/N + c²V|φ|²/ħ²), which the exact
// evolution conserves for real timesteps.
func (e *Engine) Energy(phi wave.Pair) float64 {
	n := float64(phi.Len())
	kinetic := phi[1].Norm2()

	field := 0.0
	for i, v := range spectral.Forward(phi[0], e.grid.Shape()) {
		field += e.omega2[i] * (real(v)*real(v) + imag(v)*imag(v))
	}
	field /= n

	pot := 0.0
	if e.v != nil {
		k := e.units.C * e.units.C / (e.units.Hbar * e.units.Hbar)
		for i, rho := range phi[0].Density() {
			pot += k * e.v[i] * rho
		}
	}
	return 0.5 * (kinetic + field + pot)
}
