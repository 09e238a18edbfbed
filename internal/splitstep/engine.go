package splitstep

import (
	"fmt"
	"math"
	"math/cmplx"

	"go.uber.org/zap"

	"github.com/san-kum/qsim/internal/grid"
	"github.com/san-kum/qsim/internal/spectral"
	"github.com/san-kum/qsim/internal/units"
	"github.com/san-kum/qsim/internal/wave"
)

// Engine propagates a scalar wavefunction under a real potential.
// It is not safe for concurrent use.
type Engine struct {
	grid      *grid.Grid
	units     units.System
	mass      float64
	v         []float64
	dt        complex128
	p2        []float64
	expV      wave.Field
	expK      wave.Field
	normalize bool
	workers   int
	logger    *zap.Logger
}

// New builds an engine for potential v sampled on g.
func New(v []float64, g *grid.Grid, dt complex128, opts ...Option) (*Engine, error) {
	if g == nil {
		return nil, fmt.Errorf("splitstep: %w: nil grid", wave.ErrInvalidGrid)
	}
	if err := wave.CheckLength(len(v), g.Size()); err != nil {
		return nil, fmt.Errorf("splitstep: potential: %w", err)
	}
	s := newSettings(opts)

	e := &Engine{
		grid:    g,
		units:   s.units,
		mass:    s.mass,
		v:       append([]float64(nil), v...),
		p2:      g.MomentumSquared(s.units.Hbar),
		workers: s.workers,
		logger:  s.logger,
	}
	e.SetTimestep(dt)
	return e, nil
}

// SetTimestep rebuilds both multipliers for dt, which may be complex.
func (e *Engine) SetTimestep(dt complex128) {
	e.dt = dt
	e.expV = e.potentialMultiplier(e.v)
	e.expK = e.kineticMultiplier()
	e.logger.Debug("rebuilt scalar operators",
		zap.Complex128("dt", dt),
		zap.Ints("shape", e.grid.Shape()),
		zap.Float64("mass", e.mass))
}

// SetPotential replaces V and rebuilds the potential multiplier only.
func (e *Engine) SetPotential(v []float64) error {
	if err := wave.CheckLength(len(v), e.grid.Size()); err != nil {
		return fmt.Errorf("splitstep: potential: %w", err)
	}
	e.v = append(e.v[:0], v...)
	e.expV = e.potentialMultiplier(e.v)
	return nil
}

// NormalizeAtEachStep toggles rescaling of every result to unit Σ|ψ|².
func (e *Engine) NormalizeAtEachStep(on bool) {
	e.normalize = on
}

// Timestep returns dt; a negative imaginary part means imaginary time.
func (e *Engine) Timestep() complex128 { return e.dt }

// Grid returns the grid the operators were built on.
func (e *Engine) Grid() *grid.Grid { return e.grid }

// Units returns the engine's unit system.
func (e *Engine) Units() units.System { return e.units }

// Mass returns the particle mass in engine units.
func (e *Engine) Mass() float64 { return e.mass }

// Normalizing reports whether Advance renormalizes its result.
func (e *Engine) Normalizing() bool { return e.normalize }

// Potential returns a copy of V.
func (e *Engine) Potential() []float64 { return append([]float64(nil), e.v...) }

// PotentialOp returns a copy of the half-step factor exp(-i·dt·V/2ħ).
func (e *Engine) PotentialOp() wave.Field { return e.expV.Clone() }

// KineticOp returns a copy of the momentum-space factor exp(-i·dt·p²/2mħ).
func (e *Engine) KineticOp() wave.Field { return e.expK.Clone() }

// potentialMultiplier returns exp(-i·dt·V/2ħ).
func (e *Engine) potentialMultiplier(v []float64) wave.Field {
	out := wave.NewField(len(v))
	k := -1i * e.dt / complex(2*e.units.Hbar, 0)
	for i, val := range v {
		out[i] = cmplx.Exp(k * complex(val, 0))
	}
	return out
}

// kineticMultiplier returns exp(-i·dt·p²/2mħ).
func (e *Engine) kineticMultiplier() wave.Field {
	out := wave.NewField(len(e.p2))
	k := -1i * e.dt / complex(2*e.mass*e.units.Hbar, 0)
	for i, p2 := range e.p2 {
		out[i] = cmplx.Exp(k * complex(p2, 0))
	}
	return out
}

// Advance returns psi moved forward by one timestep. psi is not modified.
func (e *Engine) Advance(psi wave.Field) wave.Field {
	out := e.linearStep(psi)
	if e.normalize {
		out = out.Normalize()
	}
	return out
}

// Step is Advance with a length check, for use as a propagator.
func (e *Engine) Step(psi wave.Field) (wave.Field, error) {
	if err := wave.CheckLength(len(psi), e.grid.Size()); err != nil {
		return nil, err
	}
	return e.Advance(psi), nil
}

func (e *Engine) linearStep(psi wave.Field) wave.Field {
	shape := e.grid.Shape()
	out := psi.Clone()
	e.mulInPlace(out, e.expV)
	out = wave.Field(spectral.Forward(out, shape))
	e.mulInPlace(out, e.expK)
	out = wave.Field(spectral.Inverse(out, shape))
	e.mulInPlace(out, e.expV)
	return out
}

func (e *Engine) mulInPlace(dst, op wave.Field) {
	wave.ParallelFor(len(dst), 4096, e.workers, func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] *= op[i]
		}
	})
}

// ExpectedEnergy returns ⟨T⟩ + ⟨V⟩, the kinetic part evaluated on the
// normalized momentum-space representation.
func (e *Engine) ExpectedEnergy(psi wave.Field) float64 {
	return e.ExpectedKinetic(psi) + e.ExpectedPotential(psi)
}

// ExpectedKinetic returns ⟨p²/2m⟩ evaluated in momentum space.
func (e *Engine) ExpectedKinetic(psi wave.Field) float64 {
	psiP := wave.Field(spectral.Forward(psi, e.grid.Shape()))
	norm := psiP.Norm2()
	if norm == 0 {
		return 0
	}
	t := 0.0
	for i, v := range psiP {
		t += (real(v)*real(v) + imag(v)*imag(v)) * e.p2[i]
	}
	return t / (2 * e.mass * norm)
}

// ExpectedPotential returns ⟨V⟩.
func (e *Engine) ExpectedPotential(psi wave.Field) float64 {
	return weightedMean(psi, e.v)
}

// ExpectedPosition returns ⟨x⟩ along axis.
func (e *Engine) ExpectedPosition(psi wave.Field, axis int) float64 {
	return weightedMean(psi, e.grid.Coordinates(axis))
}

// ExpectedMomentum returns ⟨p⟩ along axis.
func (e *Engine) ExpectedMomentum(psi wave.Field, axis int) float64 {
	psiP := wave.Field(spectral.Forward(psi, e.grid.Shape()))
	p := e.grid.Momenta(e.units.Hbar, 0)[axis]
	norm := psiP.Norm2()
	if norm == 0 {
		return 0
	}
	sum := 0.0
	for i, v := range psiP {
		sum += (real(v)*real(v) + imag(v)*imag(v)) * p[e.grid.AxisIndex(i, axis)]
	}
	return sum / norm
}

func weightedMean(psi wave.Field, w []float64) float64 {
	norm := psi.Norm2()
	if norm == 0 {
		return 0
	}
	sum := 0.0
	for i, v := range psi {
		sum += (real(v)*real(v) + imag(v)*imag(v)) * w[i]
	}
	return sum / norm
}

// Gaussian returns a normalized Gaussian packet centered at center (one entry per axis)
// with the given width and mean wavevector k (radians per unit length).
func Gaussian(g *grid.Grid, center, sigma, k []float64) wave.Field {
	psi := wave.NewField(g.Size())
	coords := make([][]float64, g.Rank())
	for axis := range coords {
		coords[axis] = g.Coordinates(axis)
	}
	for i := range psi {
		arg, phase := 0.0, 0.0
		for axis := range coords {
			d := coords[axis][i] - at(center, axis)
			s := at(sigma, axis)
			if s <= 0 {
				s = 1
			}
			arg += d * d / (2 * s * s)
			phase += at(k, axis) * coords[axis][i]
		}
		psi[i] = cmplx.Rect(math.Exp(-arg), phase)
	}
	return psi.Normalize()
}

func at(v []float64, i int) float64 {
	if i < len(v) {
		return v[i]
	}
	if len(v) == 1 {
		return v[0]
	}
	return 0
}
