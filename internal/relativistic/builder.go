package relativistic

import (
	"math/cmplx"

	"github.com/san-kum/qsim/internal/wave"
)

// Builder evaluates Dirac operator exponentials on momentum or position grids.
type Builder struct {
	C       float64
	Hbar    float64
	Mass    float64
	Workers int
}

func (b Builder) restEnergy() float64 {
	return b.Mass * b.C * b.C
}

// Factorized is exp(-i·dt·H/ħ) kept as U·diag(Phase)·UInv.
type Factorized struct {
	U     wave.Mat4
	Phase [4]wave.Field
	UInv  wave.Mat4

	workers int
}

// Apply returns U·diag(Phase)·UInv·psi.
func (f *Factorized) Apply(psi wave.Spinor) wave.Spinor {
	out := f.UInv.MulVec(psi, f.workers)
	for k := 0; k < 4; k++ {
		ph := f.Phase[k]
		wave.ParallelFor(len(ph), 4096, f.workers, func(start, end int) {
			for i := start; i < end; i++ {
				out[k][i] *= ph[i]
			}
		})
	}
	return f.U.MulVec(out, f.workers)
}

// Combine multiplies the factors into a single operator.
func (f *Factorized) Combine() wave.Mat4 {
	n := f.U.Len()
	out := wave.NewMat4(n)
	wave.ParallelFor(n, 1024, f.workers, func(start, end int) {
		for idx := start; idx < end; idx++ {
			for i := 0; i < 4; i++ {
				for j := 0; j < 4; j++ {
					var s complex128
					for k := 0; k < 4; k++ {
						s += f.U[i][k][idx] * f.Phase[k][idx] * f.UInv[k][j][idx]
					}
					out[i][j][idx] = s
				}
			}
		}
	})
	return out
}

// FreeFactors returns the eigenbasis factorization of exp(-i·dt·H_free/ħ).
func (b Builder) FreeFactors(px, py, pz []float64, dt complex128) *Factorized {
	n := len(px)
	f := &Factorized{
		U:       wave.NewMat4(n),
		UInv:    wave.NewMat4(n),
		workers: b.Workers,
	}
	for k := range f.Phase {
		f.Phase[k] = wave.NewField(n)
	}
	mc2 := b.restEnergy()
	k := -1i * dt / complex(b.Hbar, 0)

	wave.ParallelFor(n, 512, b.Workers, func(start, end int) {
		for i := start; i < end; i++ {
			vals, u := Eigen(px[i], py[i], pz[i], b.C, mc2)
			f.U.Set(i, u)
			f.UInv.Set(i, Dagger(u))
			for j, v := range vals {
				f.Phase[j][i] = cmplx.Exp(k * complex(v, 0))
			}
		}
	})
	return f
}

// FreePropagator returns exp(-i·dt·(c·α·p + β·mc²)/ħ) at every momentum sample.
func (b Builder) FreePropagator(px, py, pz []float64, dt complex128) wave.Mat4 {
	mc2 := b.restEnergy()
	k := -1i * dt / complex(b.Hbar, 0)
	return expFromEigen(len(px), b.Workers, func(i int) ([4]float64, M4) {
		return Eigen(px[i], py[i], pz[i], b.C, mc2)
	}, k)
}

// VectorPotential returns exp(i·dt·A·α/(4ħ)) at every position sample.
func (b Builder) VectorPotential(ax, ay, az []float64, dt complex128) wave.Mat4 {
	k := 1i * dt / complex(4*b.Hbar, 0)
	return expFromEigen(len(ax), b.Workers, func(i int) ([4]float64, M4) {
		return Eigen(ax[i], ay[i], az[i], 1, 0)
	}, k)
}

// expFromEigen evaluates U·diag(exp(k·λ))·Uᴴ for the decomposition returned by eig.
func expFromEigen(n, workers int, eig func(i int) ([4]float64, M4), k complex128) wave.Mat4 {
	out := wave.NewMat4(n)
	wave.ParallelFor(n, 512, workers, func(start, end int) {
		for idx := start; idx < end; idx++ {
			vals, u := eig(idx)
			var ph [4]complex128
			for j, v := range vals {
				ph[j] = cmplx.Exp(k * complex(v, 0))
			}
			var m M4
			for i := 0; i < 4; i++ {
				for j := 0; j < 4; j++ {
					var s complex128
					for l := 0; l < 4; l++ {
						s += u[i][l] * ph[l] * cmplx.Conj(u[j][l])
					}
					m[i][j] = s
				}
			}
			out.Set(idx, m)
		}
	})
	return out
}

// ScalarPhase returns exp(-i·dt·V/(2ħ)).
func ScalarPhase(v []float64, dt complex128, hbar float64) wave.Field {
	out := wave.NewField(len(v))
	k := -1i * dt / complex(2*hbar, 0)
	for i, x := range v {
		out[i] = cmplx.Exp(k * complex(x, 0))
	}
	return out
}

// IsUnitary reports whether m·mᴴ is within tol of the identity.
func IsUnitary(m M4, tol float64) bool {
	return MaxAbsDiff(Mul(m, Dagger(m)), Identity()) <= tol
}
