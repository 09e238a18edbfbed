package relativistic

import (
	"math"
	"math/cmplx"
	"testing"
)

func TestCliffordAlgebra(t *testing.T) {
	alphas := []M4{AlphaX, AlphaY, AlphaZ}
	twoI := Scale(2, Identity())
	var zero M4

	for i, a := range alphas {
		for j, b := range alphas {
			want := zero
			if i == j {
				want = twoI
			}
			if got := Anticommutator(a, b); got != want {
				t.Errorf("{alpha%d, alpha%d} = %v, want %v", i, j, got, want)
			}
		}
		if got := Anticommutator(a, Beta); got != zero {
			t.Errorf("{alpha%d, beta} = %v, want 0", i, got)
		}
	}
	if got := Mul(Beta, Beta); got != Identity() {
		t.Errorf("beta^2 = %v, want I", got)
	}
}

func TestKron(t *testing.T) {
	want := M4{
		{0, 0, 1, 0},
		{0, 0, 0, -1},
		{1, 0, 0, 0},
		{0, -1, 0, 0},
	}
	if got := Kron(SigmaX, SigmaZ); got != want {
		t.Errorf("Kron(sx, sz) = %v, want %v", got, want)
	}
}

func TestKGExp(t *testing.T) {
	tests := []struct {
		name string
		a, b complex128
		tau  complex128
		want M2
	}{
		{
			name: "oscillator",
			a:    1, b: 4, tau: 0.3,
			want: M2{
				{complex(math.Cos(0.6), 0), complex(math.Sin(0.6)/2, 0)},
				{complex(-2*math.Sin(0.6), 0), complex(math.Cos(0.6), 0)},
			},
		},
		{
			name: "zero b",
			a:    0.5, b: 0, tau: 0.2,
			want: M2{{1, 0.1}, {0, 1}},
		},
		{
			name: "zero a",
			a:    0, b: 3, tau: 0.2,
			want: M2{{1, 0}, {-0.6, 1}},
		},
		{
			name: "negative b",
			a:    1, b: -1, tau: 0.5,
			want: M2{
				{complex(math.Cosh(0.5), 0), complex(math.Sinh(0.5), 0)},
				{complex(math.Sinh(0.5), 0), complex(math.Cosh(0.5), 0)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KGExp(tt.a, tt.b, tt.tau)
			for i := 0; i < 2; i++ {
				for j := 0; j < 2; j++ {
					if d := cmplx.Abs(got[i][j] - tt.want[i][j]); d > 1e-12 {
						t.Errorf("entry (%d,%d) = %v, want %v", i, j, got[i][j], tt.want[i][j])
					}
				}
			}
		})
	}
}

func TestKGExpGroupProperty(t *testing.T) {
	a, b := complex(0.5, 0), complex(2.3, 0)
	t1, t2 := complex(0.13, 0), complex(0.29, 0)

	m1, m2 := KGExp(a, b, t1), KGExp(a, b, t2)
	var prod M2
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			prod[i][j] = m1[i][0]*m2[0][j] + m1[i][1]*m2[1][j]
		}
	}
	want := KGExp(a, b, t1+t2)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if d := cmplx.Abs(prod[i][j] - want[i][j]); d > 1e-12 {
				t.Errorf("entry (%d,%d) = %v, want %v", i, j, prod[i][j], want[i][j])
			}
		}
	}

	det := want[0][0]*want[1][1] - want[0][1]*want[1][0]
	if d := cmplx.Abs(det - 1); d > 1e-12 {
		t.Errorf("det = %v, want 1", det)
	}
}

func TestKGExpSmallArgumentContinuity(t *testing.T) {
	// Either side of the series cutoff must agree.
	a := complex(1, 0)
	tau := complex(1, 0)
	below := KGExp(a, 0.99e-8, tau)
	above := KGExp(a, 1.01e-8, tau)
	if d := cmplx.Abs(below[0][1] - above[0][1]); d > 1e-9 {
		t.Errorf("sinc jump across cutoff: %g", d)
	}
}
