// Package splitstep implements the symmetric (Strang) split-step propagators
// for scalar wavefunctions.
//
//   - [Engine]: linear Schrödinger equation under a real potential
//   - [Nonlinear]: Gross-Pitaevskii style equations, with a caller supplied
//     phase applied before and after every linear step
//   - [Relax]: imaginary-time relaxation towards the lowest eigenstates
//
// Each step applies exp(-i·dt·V/2ħ) in position space, exp(-i·dt·p²/2mħ) in
// momentum space, then exp(-i·dt·V/2ħ) again, which is second order in dt.
// Complex timesteps are accepted as they are; a negative imaginary part
// damps high energy components.
//
//	g, _ := grid.New([]int{256}, []float64{20})
//	eng, _ := splitstep.New(v, g, 0.01, splitstep.WithUnits(units.Hartree(0)))
//	for i := 0; i < steps; i++ {
//	    psi = eng.Advance(psi)
//	}
package splitstep
