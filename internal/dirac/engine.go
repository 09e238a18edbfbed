package dirac

import (
	"fmt"
	"math/cmplx"

	"go.uber.org/zap"

	"github.com/san-kum/qsim/internal/grid"
	"github.com/san-kum/qsim/internal/relativistic"
	"github.com/san-kum/qsim/internal/spectral"
	"github.com/san-kum/qsim/internal/units"
	"github.com/san-kum/qsim/internal/wave"
)

// Engine advances Dirac spinors by Strang splitting. It is not safe for
// concurrent use.
type Engine struct {
	grid    *grid.Grid
	units   units.System
	builder relativistic.Builder

	px, py, pz []float64

	dt     complex128
	v      []float64
	vector *VectorPotential

	free    wave.Mat4
	factors *relativistic.Factorized
	phase   wave.Field
	coupled *wave.Mat4

	factorized bool
	normalize  bool
	workers    int
	logger     *zap.Logger
}

// New builds a spinor engine for scalar potential v on g. v is copied.
func New(v []float64, g *grid.Grid, dt complex128, opts ...Option) (*Engine, error) {
	if g == nil {
		return nil, fmt.Errorf("dirac: %w: nil grid", wave.ErrInvalidGrid)
	}
	if err := wave.CheckLength(len(v), g.Size()); err != nil {
		return nil, fmt.Errorf("dirac: potential: %w", err)
	}
	s := newSettings(opts)
	if err := checkVector(s.vector, g.Size()); err != nil {
		return nil, err
	}

	e := &Engine{
		grid:  g,
		units: s.units,
		builder: relativistic.Builder{
			C:       s.units.C,
			Hbar:    s.units.Hbar,
			Mass:    s.mass,
			Workers: s.workers,
		},
		v:          append([]float64(nil), v...),
		vector:     s.vector.Clone(),
		factorized: s.factorized,
		workers:    s.workers,
		logger:     s.logger,
	}
	e.px, e.py, e.pz = g.MomentumComponents(s.units.Hbar, 0)
	e.SetTimestep(dt)
	return e, nil
}

func checkVector(a *VectorPotential, size int) error {
	if a == nil {
		return nil
	}
	for _, comp := range [][]float64{a.X, a.Y, a.Z} {
		if comp == nil {
			continue
		}
		if err := wave.CheckLength(len(comp), size); err != nil {
			return fmt.Errorf("dirac: vector potential: %w", err)
		}
	}
	return nil
}

// SetTimestep rebuilds the free propagator and the potential operator for dt.
func (e *Engine) SetTimestep(dt complex128) {
	e.dt = dt
	if e.factorized {
		e.factors = e.builder.FreeFactors(e.px, e.py, e.pz, dt)
		e.free = wave.Mat4{}
	} else {
		e.free = e.builder.FreePropagator(e.px, e.py, e.pz, dt)
		e.factors = nil
	}
	e.rebuildPotential()
	e.logger.Debug("rebuilt dirac operators",
		zap.Complex128("dt", dt),
		zap.Ints("shape", e.grid.Shape()),
		zap.Float64("mass", e.builder.Mass),
		zap.Bool("factorized", e.factorized))
}

// SetPotential replaces V and A and rebuilds the potential operator. A nil
// a selects the diagonal scalar-only operator. Both are copied.
func (e *Engine) SetPotential(v []float64, a *VectorPotential) error {
	if err := wave.CheckLength(len(v), e.grid.Size()); err != nil {
		return fmt.Errorf("dirac: potential: %w", err)
	}
	if err := checkVector(a, e.grid.Size()); err != nil {
		return err
	}
	e.v = append(e.v[:0], v...)
	e.vector = a.Clone()
	e.rebuildPotential()
	return nil
}

func (e *Engine) rebuildPotential() {
	e.phase = relativistic.ScalarPhase(e.v, e.dt, e.units.Hbar)
	if e.vector == nil {
		e.coupled = nil
		return
	}
	ax, ay, az := e.vectorComponents()
	op := e.builder.VectorPotential(ax, ay, az, e.dt)
	op = op.ScaleFields(e.phase)
	e.coupled = &op
}

func (e *Engine) vectorComponents() (ax, ay, az []float64) {
	n := e.grid.Size()
	fill := func(c []float64) []float64 {
		if c == nil {
			return make([]float64, n)
		}
		return c
	}
	return fill(e.vector.X), fill(e.vector.Y), fill(e.vector.Z)
}

// NormalizeAtEachStep makes Advance renormalize its result.
func (e *Engine) NormalizeAtEachStep(on bool) {
	e.normalize = on
}

// Grid returns the grid the operators were built on.
func (e *Engine) Grid() *grid.Grid { return e.grid }

// Units returns the engine's unit system.
func (e *Engine) Units() units.System { return e.units }

// Mass returns the rest mass in engine units.
func (e *Engine) Mass() float64 { return e.builder.Mass }

// Timestep returns dt.
func (e *Engine) Timestep() complex128 { return e.dt }

// Factorized reports whether the free step is applied as U·diag·Uᴴ.
func (e *Engine) Factorized() bool { return e.factorized }

// PotentialPhase returns a copy of exp(-i·dt·V/2ħ).
func (e *Engine) PotentialPhase() wave.Field { return e.phase.Clone() }

// CoupledPotential returns the 4×4 half-step potential operator, or nil when
// no vector potential is set.
func (e *Engine) CoupledPotential() *wave.Mat4 { return e.coupled }

// FreePropagator returns the combined free-particle operator.
func (e *Engine) FreePropagator() wave.Mat4 {
	if e.factors != nil {
		return e.factors.Combine()
	}
	return e.free
}

// Advance returns psi moved forward by one timestep. psi is not modified.
func (e *Engine) Advance(psi wave.Spinor) wave.Spinor {
	out := e.applyPotential(psi)
	out = e.transform(out, spectral.Forward)
	if e.factors != nil {
		out = e.factors.Apply(out)
	} else {
		out = e.free.MulVec(out, e.workers)
	}
	out = e.transform(out, spectral.Inverse)
	out = e.applyPotential(out)
	if e.normalize {
		out = out.Normalize()
	}
	return out
}

// Step is Advance with a length check on every component.
func (e *Engine) Step(psi wave.Spinor) (wave.Spinor, error) {
	for k := range psi {
		if err := wave.CheckLength(len(psi[k]), e.grid.Size()); err != nil {
			return wave.Spinor{}, fmt.Errorf("dirac: component %d: %w", k, err)
		}
	}
	return e.Advance(psi), nil
}

func (e *Engine) applyPotential(psi wave.Spinor) wave.Spinor {
	if e.coupled != nil {
		return e.coupled.MulVec(psi, e.workers)
	}
	out := wave.NewSpinor(psi.Len())
	wave.ParallelFor(psi.Len(), 4096, e.workers, func(start, end int) {
		for k := 0; k < 4; k++ {
			for i := start; i < end; i++ {
				out[k][i] = psi[k][i] * e.phase[i]
			}
		}
	})
	return out
}

func (e *Engine) transform(psi wave.Spinor, fn func([]complex128, []int) []complex128) wave.Spinor {
	shape := e.grid.Shape()
	var out wave.Spinor
	for k := range psi {
		out[k] = fn(psi[k], shape)
	}
	return out
}

// ExpectedEnergy returns ⟨c·α·p + β·mc²⟩ evaluated in momentum space plus
// ⟨V⟩ and the vector-potential coupling ⟨-A·α/2⟩.
func (e *Engine) ExpectedEnergy(psi wave.Spinor) float64 {
	norm := psi.Norm2()
	if norm == 0 {
		return 0
	}
	psiP := e.transform(psi, spectral.Forward)
	normP := psiP.Norm2()
	mc2 := e.builder.Mass * e.builder.C * e.builder.C

	free := 0.0
	for i := 0; i < psi.Len(); i++ {
		h := relativistic.Hamiltonian(e.px[i], e.py[i], e.pz[i], e.builder.C, mc2)
		free += quadratic(h, psiP, i)
	}

	pot := 0.0
	for i, rho := range psi.Density() {
		pot += e.v[i] * rho
	}

	coupling := 0.0
	if e.vector != nil {
		ax, ay, az := e.vectorComponents()
		for i := 0; i < psi.Len(); i++ {
			coupling -= 0.5 * quadratic(relativistic.Hamiltonian(ax[i], ay[i], az[i], 1, 0), psi, i)
		}
	}
	return free/normP + (pot+coupling)/norm
}

// quadratic returns Re(ψᴴ·h·ψ) at grid point i.
func quadratic(h relativistic.M4, psi wave.Spinor, i int) float64 {
	var s complex128
	for r := 0; r < 4; r++ {
		var row complex128
		for c := 0; c < 4; c++ {
			row += h[r][c] * psi[c][i]
		}
		s += cmplx.Conj(psi[r][i]) * row
	}
	return real(s)
}

// PositiveEnergy projects psi onto the positive-energy eigenspace of the
// free Hamiltonian.
func (e *Engine) PositiveEnergy(psi wave.Spinor) wave.Spinor {
	psiP := e.transform(psi, spectral.Forward)
	mc2 := e.builder.Mass * e.builder.C * e.builder.C
	out := wave.NewSpinor(psi.Len())

	wave.ParallelFor(psi.Len(), 1024, e.workers, func(start, end int) {
		for i := start; i < end; i++ {
			_, u := relativistic.Eigen(e.px[i], e.py[i], e.pz[i], e.builder.C, mc2)
			for col := 0; col < 2; col++ {
				var c complex128
				for r := 0; r < 4; r++ {
					c += cmplx.Conj(u[r][col]) * psiP[r][i]
				}
				for r := 0; r < 4; r++ {
					out[r][i] += c * u[r][col]
				}
			}
		}
	})
	return e.transform(out, spectral.Inverse)
}

// ExpectedPosition returns ⟨x⟩ along axis, weighted by the total density.
func (e *Engine) ExpectedPosition(psi wave.Spinor, axis int) float64 {
	rho := psi.Density()
	x := e.grid.Coordinates(axis)
	sum, norm := 0.0, 0.0
	for i, r := range rho {
		sum += r * x[i]
		norm += r
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}
