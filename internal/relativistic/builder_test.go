package relativistic

import (
	"math"
	"math/cmplx"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/qsim/internal/wave"
)

// reference evaluates exp(-iτH) = cos(Eτ)·I - i·sin(Eτ)/E·H, valid since H² = E²·I.
func reference(px, py, pz, c, mc2, tau float64) M4 {
	h := Hamiltonian(px, py, pz, c, mc2)
	e := math.Sqrt(c*c*(px*px+py*py+pz*pz) + mc2*mc2)
	return Add(
		Scale(complex(math.Cos(e*tau), 0), Identity()),
		Scale(complex(0, -math.Sin(e*tau)/e), h),
	)
}

type momentum struct{ px, py, pz float64 }

var samples = []momentum{
	{0, 0, 0},
	{0.3, 0, 0},
	{0, -1.2, 0},
	{0, 0, 2.5},
	{0.4, -0.7, 1.1},
	{-3, 2, -1},
	{1e-9, 0, 0},
}

func columns(s []momentum) (px, py, pz []float64) {
	for _, m := range s {
		px = append(px, m.px)
		py = append(py, m.py)
		pz = append(pz, m.pz)
	}
	return px, py, pz
}

var _ = Describe("Eigen", func() {
	It("returns orthonormal eigenvectors with eigenvalues (+E, +E, -E, -E)", func() {
		for _, mc2 := range []float64{0, 1, 137.036} {
			for _, m := range samples {
				vals, u := Eigen(m.px, m.py, m.pz, 1, mc2)
				Expect(MaxAbsDiff(Mul(Dagger(u), u), Identity())).To(BeNumerically("<", 1e-12))

				if m == (momentum{}) && mc2 == 0 {
					continue
				}
				e := math.Sqrt(m.px*m.px + m.py*m.py + m.pz*m.pz + mc2*mc2)
				Expect(vals).To(Equal([4]float64{e, e, -e, -e}))

				h := Hamiltonian(m.px, m.py, m.pz, 1, mc2)
				hu := Mul(h, u)
				for j := 0; j < 4; j++ {
					for i := 0; i < 4; i++ {
						diff := cmplx.Abs(hu[i][j] - complex(vals[j], 0)*u[i][j])
						Expect(diff).To(BeNumerically("<", 1e-10*(1+e)))
					}
				}
			}
		}
	})

	It("perturbs the degenerate massless zero-momentum point", func() {
		vals, u := Eigen(0, 0, 0, 1, 0)
		Expect(vals[0]).To(BeNumerically(">", 0))
		Expect(vals[0]).To(BeNumerically("<", 1e-20))
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				Expect(cmplx.IsNaN(u[i][j])).To(BeFalse())
			}
		}
	})
})

var _ = Describe("Builder", func() {
	var (
		b          Builder
		px, py, pz []float64
	)

	BeforeEach(func() {
		b = Builder{C: 1, Hbar: 1, Mass: 1}
		px, py, pz = columns(samples)
	})

	Describe("FreePropagator", func() {
		It("matches the closed-form cos/sin expansion", func() {
			for _, tau := range []float64{0.01, 0.5, 3} {
				prop := b.FreePropagator(px, py, pz, complex(tau, 0))
				for i, m := range samples {
					want := reference(m.px, m.py, m.pz, b.C, 1, tau)
					Expect(MaxAbsDiff(prop.At(i), want)).To(BeNumerically("<", 1e-12))
				}
			}
		})

		It("is unitary for real timesteps", func() {
			prop := b.FreePropagator(px, py, pz, 0.37)
			for i := range samples {
				Expect(IsUnitary(prop.At(i), 1e-12)).To(BeTrue())
			}
		})

		It("stays finite for zero mass", func() {
			b.Mass = 0
			prop := b.FreePropagator(px, py, pz, 0.1)
			for i := range samples {
				Expect(IsUnitary(prop.At(i), 1e-12)).To(BeTrue())
			}
		})

		It("gives the same result with several workers", func() {
			n := 3000
			qx, qy, qz := make([]float64, n), make([]float64, n), make([]float64, n)
			for i := range qx {
				qx[i] = float64(i-n/2) * 0.01
				qy[i] = 0.5
			}
			single := b.FreePropagator(qx, qy, qz, 0.2)
			b.Workers = 4
			parallel := b.FreePropagator(qx, qy, qz, 0.2)
			Expect(single.Equal(&parallel)).To(BeTrue())
		})
	})

	Describe("FreeFactors", func() {
		It("combines to the single-matrix propagator", func() {
			dt := complex(0.25, 0)
			combined := b.FreePropagator(px, py, pz, dt)
			factors := b.FreeFactors(px, py, pz, dt)
			product := factors.Combine()
			for i := range samples {
				Expect(MaxAbsDiff(product.At(i), combined.At(i))).To(BeNumerically("<", 1e-12))
			}
		})

		It("applies like the combined operator", func() {
			dt := complex(0.25, 0)
			combined := b.FreePropagator(px, py, pz, dt)
			factors := b.FreeFactors(px, py, pz, dt)

			psi := wave.NewSpinor(len(px))
			for k := 0; k < 4; k++ {
				for i := range psi[k] {
					psi[k][i] = complex(float64(k+1), float64(i)) / 10
				}
			}
			want := combined.MulVec(psi, 1)
			got := factors.Apply(psi)
			for k := 0; k < 4; k++ {
				for i := range got[k] {
					Expect(cmplx.Abs(got[k][i] - want[k][i])).To(BeNumerically("<", 1e-12))
				}
			}
		})

		It("stores UInv as the conjugate transpose of U", func() {
			factors := b.FreeFactors(px, py, pz, 0.1)
			for i := range samples {
				Expect(MaxAbsDiff(factors.UInv.At(i), Dagger(factors.U.At(i)))).To(Equal(0.0))
			}
		})
	})

	Describe("VectorPotential", func() {
		It("is the identity where A vanishes", func() {
			zero := make([]float64, 4)
			op := b.VectorPotential(zero, zero, zero, 0.1)
			for i := 0; i < 4; i++ {
				Expect(MaxAbsDiff(op.At(i), Identity())).To(BeNumerically("<", 1e-12))
			}
		})

		It("matches cos(θ|A|)·I + i·sin(θ|A|)·α·Â with θ = dt/4ħ", func() {
			ax, ay, az := []float64{0.5, -2}, []float64{1, 0}, []float64{-0.3, 4}
			dt := 0.8
			op := b.VectorPotential(ax, ay, az, complex(dt, 0))
			for i := range ax {
				norm := math.Sqrt(ax[i]*ax[i] + ay[i]*ay[i] + az[i]*az[i])
				theta := dt / 4 * norm
				alphaA := Hamiltonian(ax[i]/norm, ay[i]/norm, az[i]/norm, 1, 0)
				want := Add(
					Scale(complex(math.Cos(theta), 0), Identity()),
					Scale(complex(0, math.Sin(theta)), alphaA),
				)
				Expect(MaxAbsDiff(op.At(i), want)).To(BeNumerically("<", 1e-12))
				Expect(IsUnitary(op.At(i), 1e-12)).To(BeTrue())
			}
		})
	})
})
