package dirac

import (
	"errors"
	"math"
	"math/cmplx"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/qsim/internal/grid"
	"github.com/san-kum/qsim/internal/units"
	"github.com/san-kum/qsim/internal/wave"
)

func packet(g *grid.Grid, sigma, k float64, component int) wave.Spinor {
	psi := wave.NewSpinor(g.Size())
	coords := make([][]float64, g.Rank())
	for axis := range coords {
		coords[axis] = g.Coordinates(axis)
	}
	for i := range psi[component] {
		r2 := 0.0
		for axis := range coords {
			r2 += coords[axis][i] * coords[axis][i]
		}
		psi[component][i] = cmplx.Rect(math.Exp(-r2/(2*sigma*sigma)), k*coords[0][i])
	}
	return psi.Normalize()
}

func harmonic(g *grid.Grid, k float64) []float64 {
	v := make([]float64, g.Size())
	for axis := 0; axis < g.Rank(); axis++ {
		for i, x := range g.Coordinates(axis) {
			v[i] += 0.5 * k * x * x
		}
	}
	return v
}

func maxDiff(a, b wave.Spinor) float64 {
	worst := 0.0
	for c := 0; c < 4; c++ {
		for i := range a[c] {
			worst = math.Max(worst, cmplx.Abs(a[c][i]-b[c][i]))
		}
	}
	return worst
}

var _ = Describe("Engine", func() {
	Describe("non-relativistic limit", func() {
		It("gives mc² + p²/2m for a low-momentum positive-energy plane wave", func() {
			g := grid.MustNew([]int{64}, []float64{10})
			u := units.Hartree(0)
			eng, err := New(make([]float64, 64), g, 0.01, WithUnits(u))
			Expect(err).NotTo(HaveOccurred())

			p := 2 * math.Pi / 10
			psi := wave.NewSpinor(64)
			for i, x := range g.Coordinates(0) {
				psi[0][i] = cmplx.Rect(1/8.0, p*x)
			}
			pos := eng.PositiveEnergy(psi).Normalize()

			want := u.C*u.C + p*p/2
			Expect(eng.ExpectedEnergy(pos)).To(BeNumerically("~", want, 1e-5))

			for i := 0; i < 100; i++ {
				pos = eng.Advance(pos)
			}
			Expect(eng.ExpectedEnergy(pos)).To(BeNumerically("~", want, 1e-5))
			Expect(pos.Norm2()).To(BeNumerically("~", 1, 1e-10))
		})
	})

	Describe("Advance", func() {
		var g *grid.Grid

		BeforeEach(func() {
			g = grid.MustNew([]int{16, 16}, []float64{10, 10})
		})

		It("preserves the norm with scalar and vector potentials", func() {
			ax := make([]float64, g.Size())
			for i, y := range g.Coordinates(1) {
				ax[i] = 0.3 * y
			}
			eng, err := New(harmonic(g, 1), g, 0.05, WithVectorPotential(ax, nil, nil))
			Expect(err).NotTo(HaveOccurred())

			psi := packet(g, 1, 1, 0)
			for i := 0; i < 20; i++ {
				psi = eng.Advance(psi)
			}
			Expect(psi.IsValid()).To(BeTrue())
			Expect(psi.Norm2()).To(BeNumerically("~", 1, 1e-10))
		})

		It("does not modify its input", func() {
			eng, err := New(harmonic(g, 1), g, 0.05)
			Expect(err).NotTo(HaveOccurred())
			psi := packet(g, 1, 0, 2)
			orig := psi.Clone()
			eng.Advance(psi)
			Expect(maxDiff(psi, orig)).To(Equal(0.0))
		})

		It("agrees between the factorized and combined free propagators", func() {
			combined, err := New(harmonic(g, 1), g, 0.05)
			Expect(err).NotTo(HaveOccurred())
			factorized, err := New(harmonic(g, 1), g, 0.05, WithFactorized(true))
			Expect(err).NotTo(HaveOccurred())
			Expect(factorized.Factorized()).To(BeTrue())

			a, b := packet(g, 1, 0.5, 0), packet(g, 1, 0.5, 0)
			for i := 0; i < 5; i++ {
				a = combined.Advance(a)
				b = factorized.Advance(b)
			}
			Expect(maxDiff(a, b)).To(BeNumerically("<", 1e-10))
		})

		It("renormalizes imaginary-time steps when asked", func() {
			eng, err := New(harmonic(g, 1), g, -0.05i)
			Expect(err).NotTo(HaveOccurred())
			eng.NormalizeAtEachStep(true)
			psi := eng.Advance(packet(g, 1, 0, 0))
			Expect(psi.Norm2()).To(BeNumerically("~", 1, 1e-12))
		})

		It("is independent of the worker count", func() {
			big := grid.MustNew([]int{64, 64}, []float64{10, 10})
			one, err := New(harmonic(big, 1), big, 0.05)
			Expect(err).NotTo(HaveOccurred())
			four, err := New(harmonic(big, 1), big, 0.05, WithWorkers(4))
			Expect(err).NotTo(HaveOccurred())

			psi := packet(big, 1, 1, 1)
			Expect(maxDiff(one.Advance(psi), four.Advance(psi))).To(Equal(0.0))
		})
	})

	Describe("zero mass", func() {
		It("stays finite including the zero-momentum bin", func() {
			g := grid.MustNew([]int{32}, []float64{10})
			eng, err := New(make([]float64, 32), g, 0.1, WithMass(0))
			Expect(err).NotTo(HaveOccurred())
			Expect(eng.Mass()).To(Equal(0.0))

			psi := packet(g, 1, 0, 0)
			for i := 0; i < 10; i++ {
				psi = eng.Advance(psi)
			}
			Expect(psi.IsValid()).To(BeTrue())
			Expect(psi.Norm2()).To(BeNumerically("~", 1, 1e-10))
		})
	})

	Describe("SetPotential", func() {
		var (
			g   *grid.Grid
			eng *Engine
		)

		BeforeEach(func() {
			g = grid.MustNew([]int{32}, []float64{10})
			var err error
			eng, err = New(make([]float64, 32), g, 0.02)
			Expect(err).NotTo(HaveOccurred())
		})

		It("builds bit-identical operators from identical inputs", func() {
			v := harmonic(g, 2)
			a := &VectorPotential{X: harmonic(g, 0.1)}

			Expect(eng.SetPotential(v, a)).To(Succeed())
			phase, coupled := eng.PotentialPhase(), *eng.CoupledPotential()
			Expect(eng.SetPotential(v, a)).To(Succeed())

			Expect(eng.PotentialPhase()).To(Equal(phase))
			again := eng.CoupledPotential()
			Expect(again.Equal(&coupled)).To(BeTrue())
		})

		It("uses the diagonal operator without a vector potential", func() {
			Expect(eng.SetPotential(harmonic(g, 1), nil)).To(Succeed())
			Expect(eng.CoupledPotential()).To(BeNil())
		})

		It("treats a zero vector potential like none", func() {
			v := harmonic(g, 1)
			Expect(eng.SetPotential(v, nil)).To(Succeed())
			plain := eng.Advance(packet(g, 1, 1, 0))

			zero := make([]float64, 32)
			Expect(eng.SetPotential(v, &VectorPotential{X: zero, Y: zero, Z: zero})).To(Succeed())
			coupled := eng.Advance(packet(g, 1, 1, 0))

			Expect(maxDiff(plain, coupled)).To(BeNumerically("<", 1e-12))
		})

		It("is unaffected by later changes to the caller's vector potential", func() {
			v := harmonic(g, 1)
			a := &VectorPotential{X: harmonic(g, 0.1), Y: harmonic(g, 0.05)}
			psi := packet(g, 1, 1, 0)

			Expect(eng.SetPotential(v, a)).To(Succeed())
			energy := eng.ExpectedEnergy(psi)
			coupled := *eng.CoupledPotential()

			for i := range a.X {
				a.X[i] = 100
				a.Y[i] = -100
			}
			a.Z = make([]float64, 32)

			Expect(eng.ExpectedEnergy(psi)).To(Equal(energy))
			Expect(eng.CoupledPotential().Equal(&coupled)).To(BeTrue())
		})

		It("rejects mismatched lengths", func() {
			err := eng.SetPotential(make([]float64, 5), nil)
			Expect(errors.Is(err, wave.ErrShapeMismatch)).To(BeTrue())

			err = eng.SetPotential(make([]float64, 32), &VectorPotential{Y: make([]float64, 4)})
			Expect(errors.Is(err, wave.ErrShapeMismatch)).To(BeTrue())
		})
	})

	Describe("New", func() {
		It("rejects a potential that does not fit the grid", func() {
			g := grid.MustNew([]int{8, 8}, []float64{1, 1})
			_, err := New(make([]float64, 8), g, 0.1)
			Expect(errors.Is(err, wave.ErrShapeMismatch)).To(BeTrue())
		})

		It("copies the vector potential passed as an option", func() {
			g := grid.MustNew([]int{16}, []float64{4})
			ax := harmonic(g, 0.2)
			eng, err := New(make([]float64, 16), g, 0.05, WithVectorPotential(ax, nil, nil))
			Expect(err).NotTo(HaveOccurred())
			psi := packet(g, 0.5, 0, 0)
			energy := eng.ExpectedEnergy(psi)

			for i := range ax {
				ax[i] = 0
			}
			Expect(eng.ExpectedEnergy(psi)).To(Equal(energy))
		})

		It("defaults to natural units with unit mass", func() {
			g := grid.MustNew([]int{8}, []float64{1})
			eng, err := New(make([]float64, 8), g, 0.1)
			Expect(err).NotTo(HaveOccurred())
			Expect(eng.Units().Name).To(Equal("natural"))
			Expect(eng.Mass()).To(Equal(1.0))
		})
	})

	Describe("ExpectedPosition", func() {
		It("follows a displaced packet", func() {
			g := grid.MustNew([]int{64}, []float64{20})
			eng, err := New(make([]float64, 64), g, 0.1)
			Expect(err).NotTo(HaveOccurred())

			psi := wave.NewSpinor(64)
			for i, x := range g.Coordinates(0) {
				psi[3][i] = complex(math.Exp(-(x-2)*(x-2)), 0)
			}
			Expect(eng.ExpectedPosition(psi, 0)).To(BeNumerically("~", 2, 1e-8))
		})
	})
})
