package splitstep

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/qsim/internal/grid"
	"github.com/san-kum/qsim/internal/units"
	"github.com/san-kum/qsim/internal/wave"
)

func harmonic(g *grid.Grid, omega float64) []float64 {
	x := g.Coordinates(0)
	v := make([]float64, len(x))
	for i, xi := range x {
		v[i] = 0.5 * omega * omega * xi * xi
	}
	return v
}

func TestFreeParticleNorm(t *testing.T) {
	tests := []struct {
		name    string
		shape   []int
		extents []float64
	}{
		{"1d-8", []int{8}, []float64{1}},
		{"1d-64", []int{64}, []float64{10}},
		{"2d", []int{16, 8}, []float64{4, 2}},
		{"3d", []int{4, 4, 4}, []float64{1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := grid.MustNew(tt.shape, tt.extents)
			eng, err := New(make([]float64, g.Size()), g, 0.01, WithUnits(units.Hartree(0)))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			sigma := make([]float64, g.Rank())
			for i, l := range tt.extents {
				sigma[i] = l / 10
			}
			psi := Gaussian(g, nil, sigma, nil)
			for i := 0; i < 10; i++ {
				psi = eng.Advance(psi)
			}
			if n := psi.Norm2(); math.Abs(n-1) > 1e-10 {
				t.Errorf("Norm2 = %.15f, want 1", n)
			}
		})
	}
}

func TestAdvanceSmallGrid(t *testing.T) {
	g := grid.MustNew([]int{8}, []float64{1})
	eng, err := New(make([]float64, 8), g, 0.01, WithUnits(units.Hartree(0)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	psi := Gaussian(g, []float64{0}, []float64{0.1}, nil)
	orig := psi.Clone()
	out := eng.Advance(psi)

	for i := range psi {
		if psi[i] != orig[i] {
			t.Fatalf("input mutated at %d", i)
		}
	}
	if n := out.Norm2(); math.Abs(n-1) > 1e-10 {
		t.Errorf("Norm2 = %.15f, want 1", n)
	}
	maxImag := 0.0
	for _, v := range out {
		maxImag = math.Max(maxImag, math.Abs(imag(v)))
	}
	if maxImag < 1e-6 {
		t.Errorf("max |Im psi| = %g, want a nonzero imaginary part", maxImag)
	}
}

func TestNewErrors(t *testing.T) {
	g := grid.MustNew([]int{16}, []float64{1})

	if _, err := New(make([]float64, 8), g, 0.1); !errors.Is(err, wave.ErrShapeMismatch) {
		t.Errorf("short potential: err = %v, want ErrShapeMismatch", err)
	}
	if _, err := New(nil, nil, 0.1); !errors.Is(err, wave.ErrInvalidGrid) {
		t.Errorf("nil grid: err = %v, want ErrInvalidGrid", err)
	}

	eng, err := New(make([]float64, 16), g, 0.1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := eng.SetPotential(make([]float64, 3)); !errors.Is(err, wave.ErrShapeMismatch) {
		t.Errorf("SetPotential: err = %v, want ErrShapeMismatch", err)
	}
	if _, err := eng.Step(wave.NewField(15)); !errors.Is(err, wave.ErrShapeMismatch) {
		t.Errorf("Step: err = %v, want ErrShapeMismatch", err)
	}
}

func TestSetPotentialDeterministic(t *testing.T) {
	g := grid.MustNew([]int{32}, []float64{10})
	v := harmonic(g, 1)
	eng, err := New(make([]float64, 32), g, 0.02, WithUnits(units.Hartree(0)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := eng.SetPotential(v); err != nil {
		t.Fatal(err)
	}
	first := eng.PotentialOp()
	if err := eng.SetPotential(v); err != nil {
		t.Fatal(err)
	}
	second := eng.PotentialOp()

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("operator differs at %d: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestEnergyDriftShrinksWithTimestep(t *testing.T) {
	g := grid.MustNew([]int{128}, []float64{20})
	v := harmonic(g, 1)
	psi0 := Gaussian(g, []float64{2}, []float64{1}, nil)

	drift := func(dt float64) float64 {
		eng, err := New(v, g, complex(dt, 0), WithUnits(units.Hartree(0)))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		e0 := eng.ExpectedEnergy(psi0)
		psi := psi0
		worst := 0.0
		for i := 0; i < int(math.Round(1/dt)); i++ {
			psi = eng.Advance(psi)
			worst = math.Max(worst, math.Abs(eng.ExpectedEnergy(psi)-e0))
		}
		return worst
	}

	coarse, fine := drift(0.05), drift(0.005)
	if fine >= coarse {
		t.Errorf("drift(dt=0.005) = %g, drift(dt=0.05) = %g, want smaller drift for smaller dt", fine, coarse)
	}
}

func TestExpectedValues(t *testing.T) {
	g := grid.MustNew([]int{128}, []float64{20})
	eng, err := New(harmonic(g, 1), g, 0.01, WithUnits(units.Hartree(0)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Coherent state: E = ω/2 + ω²x0²/2.
	psi := Gaussian(g, []float64{2}, []float64{1}, nil)
	if e := eng.ExpectedEnergy(psi); math.Abs(e-2.5) > 1e-6 {
		t.Errorf("ExpectedEnergy = %.8f, want 2.5", e)
	}
	if x := eng.ExpectedPosition(psi, 0); math.Abs(x-2) > 1e-6 {
		t.Errorf("ExpectedPosition = %.8f, want 2", x)
	}

	// k = 2π·3/L lands exactly on a grid frequency.
	k := 2 * math.Pi * 3 / 20
	moving := Gaussian(g, []float64{0}, []float64{1}, []float64{k})
	if p := eng.ExpectedMomentum(moving, 0); math.Abs(p-k) > 1e-6 {
		t.Errorf("ExpectedMomentum = %.8f, want %.8f", p, k)
	}
}

func TestNormalizeAtEachStep(t *testing.T) {
	g := grid.MustNew([]int{64}, []float64{10})
	eng, err := New(harmonic(g, 1), g, -0.01i, WithUnits(units.Hartree(0)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	psi := Gaussian(g, []float64{1}, []float64{1}, nil)

	if n := eng.Advance(psi).Norm2(); n >= 1 {
		t.Errorf("imaginary step without normalization: Norm2 = %g, want < 1", n)
	}
	eng.NormalizeAtEachStep(true)
	if n := eng.Advance(psi).Norm2(); math.Abs(n-1) > 1e-12 {
		t.Errorf("normalized imaginary step: Norm2 = %g, want 1", n)
	}
}

func TestNonlinearCallbackCount(t *testing.T) {
	g := grid.MustNew([]int{32}, []float64{10})
	eng, err := NewNonlinear(harmonic(g, 1), g, 0.01, WithUnits(units.Hartree(0)))
	if err != nil {
		t.Fatalf("NewNonlinear: %v", err)
	}

	calls := 0
	eng.SetNonlinearTerm(func(psi wave.Field) wave.Field {
		calls++
		return psi
	})
	psi := Gaussian(g, nil, []float64{1}, nil)
	eng.Advance(psi)
	if calls != 2 {
		t.Errorf("nonlinear term called %d times, want 2", calls)
	}

	eng.SetNonlinearTerm(nil)
	plain := eng.Engine.Advance(psi)
	got := eng.Advance(psi)
	for i := range plain {
		if plain[i] != got[i] {
			t.Fatalf("identity term differs from linear step at %d", i)
		}
	}
}

func TestGrossPitaevskii(t *testing.T) {
	g := grid.MustNew([]int{64}, []float64{10})
	eng, err := NewNonlinear(harmonic(g, 1), g, 0.01, WithUnits(units.Hartree(0)))
	if err != nil {
		t.Fatalf("NewNonlinear: %v", err)
	}
	eng.SetNonlinearTerm(GrossPitaevskii(50, 0.01, 1))

	psi := Gaussian(g, nil, []float64{0.5}, nil)
	for i := 0; i < 50; i++ {
		psi = eng.Advance(psi)
	}
	if n := psi.Norm2(); math.Abs(n-1) > 1e-10 {
		t.Errorf("Norm2 = %.15f, want 1", n)
	}

	zero := GrossPitaevskii(0, 0.01, 1)(psi)
	for i := range psi {
		if zero[i] != psi[i] {
			t.Fatalf("g=0 changed sample %d", i)
		}
	}
}

func TestRelaxHarmonicOscillator(t *testing.T) {
	g := grid.MustNew([]int{128}, []float64{20})
	eng, err := New(harmonic(g, 1), g, -0.01i, WithUnits(units.Hartree(0)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	psi0 := Gaussian(g, []float64{0.5}, []float64{1}, nil)
	cfg := RelaxConfig{States: 2, Tolerance: 1e-7, MaxSteps: 20000}
	states, err := Relax(context.Background(), eng, psi0, cfg)
	if err != nil {
		t.Fatalf("Relax: %v", err)
	}
	if len(states) != 2 {
		t.Fatalf("got %d states, want 2", len(states))
	}

	want := []float64{0.5, 1.5}
	for i, s := range states {
		if math.Abs(s.Energy-want[i]) > 1e-3 {
			t.Errorf("E%d = %.6f, want %.1f", i, s.Energy, want[i])
		}
	}
	if overlap := states[0].Psi.Dot(states[1].Psi); math.Hypot(real(overlap), imag(overlap)) > 1e-6 {
		t.Errorf("<psi0|psi1> = %v, want 0", overlap)
	}
}

func TestRelaxErrors(t *testing.T) {
	g := grid.MustNew([]int{32}, []float64{10})
	psi := Gaussian(g, nil, []float64{1}, nil)

	realEng, err := New(harmonic(g, 1), g, 0.01, WithUnits(units.Hartree(0)))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Relax(context.Background(), realEng, psi, DefaultRelaxConfig()); !errors.Is(err, ErrRealTimestep) {
		t.Errorf("real dt: err = %v, want ErrRealTimestep", err)
	}

	imagEng, err := New(harmonic(g, 1), g, -0.01i, WithUnits(units.Hartree(0)))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Relax(ctx, imagEng, psi, DefaultRelaxConfig()); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled: err = %v, want context.Canceled", err)
	}

	cfg := RelaxConfig{States: 1, Tolerance: 1e-12, MaxSteps: 3}
	if _, err := Relax(context.Background(), imagEng, Gaussian(g, []float64{1}, []float64{1}, nil), cfg); !errors.Is(err, ErrNotConverged) {
		t.Errorf("3 steps: err = %v, want ErrNotConverged", err)
	}
}
