package scenario

import (
	"fmt"

	"github.com/san-kum/qsim/internal/config"
	"github.com/san-kum/qsim/internal/dirac"
	"github.com/san-kum/qsim/internal/grid"
	"github.com/san-kum/qsim/internal/splitstep"
	"github.com/san-kum/qsim/internal/units"
	"github.com/san-kum/qsim/internal/wave"
)

// ScalarState returns the normalized Gaussian packet described by ic. The
// configured momentum is divided by ħ to give the wavevector.
func ScalarState(g *grid.Grid, u units.System, ic config.InitialConfig) wave.Field {
	k := make([]float64, len(ic.Momentum))
	for i, p := range ic.Momentum {
		k[i] = p / u.Hbar
	}
	return splitstep.Gaussian(g, ic.Center, ic.Sigma, k)
}

// SpinorState places the scalar packet in spinor component ic.Component.
func SpinorState(g *grid.Grid, u units.System, ic config.InitialConfig) (wave.Spinor, error) {
	if ic.Component < 0 || ic.Component > 3 {
		return wave.Spinor{}, fmt.Errorf("spinor component %d out of range", ic.Component)
	}
	psi := wave.NewSpinor(g.Size())
	psi[ic.Component] = ScalarState(g, u, ic)
	return psi, nil
}

// VectorField samples the configured constant-plus-symmetric-gauge vector potential.
func VectorField(g *grid.Grid, vc config.VectorConfig) *dirac.VectorPotential {
	n := g.Size()
	a := &dirac.VectorPotential{
		X: make([]float64, n),
		Y: make([]float64, n),
		Z: make([]float64, n),
	}
	x := g.Coordinates(0)
	y := make([]float64, n)
	if g.Rank() > 1 {
		y = g.Coordinates(1)
	}
	for i := 0; i < n; i++ {
		a.X[i] = vc.Ax - 0.5*vc.Bz*y[i]
		a.Y[i] = vc.Ay + 0.5*vc.Bz*x[i]
		a.Z[i] = vc.Az
	}
	return a
}
