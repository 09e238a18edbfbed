package relativistic

import (
	"math"
	"math/cmplx"
)

// M2 and M4 are single-point matrices.
type (
	M2 = [2][2]complex128
	M4 = [4][4]complex128
)

var (
	SigmaX = M2{{0, 1}, {1, 0}}
	SigmaY = M2{{0, -1i}, {1i, 0}}
	SigmaZ = M2{{1, 0}, {0, -1}}
	I2     = M2{{1, 0}, {0, 1}}

	AlphaX = Kron(SigmaX, SigmaX)
	AlphaY = Kron(SigmaX, SigmaY)
	AlphaZ = Kron(SigmaX, SigmaZ)
	Beta   = Kron(SigmaZ, I2)
)

// Kron returns the Kronecker product a⊗b.
func Kron(a, b M2) M4 {
	var out M4
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			for k := 0; k < 2; k++ {
				for l := 0; l < 2; l++ {
					out[2*i+k][2*j+l] = a[i][j] * b[k][l]
				}
			}
		}
	}
	return out
}

func Identity() M4 {
	var out M4
	for i := 0; i < 4; i++ {
		out[i][i] = 1
	}
	return out
}

func Mul(a, b M4) M4 {
	var out M4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var s complex128
			for k := 0; k < 4; k++ {
				s += a[i][k] * b[k][j]
			}
			out[i][j] = s
		}
	}
	return out
}

func Add(a, b M4) M4 {
	var out M4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			out[i][j] = a[i][j] + b[i][j]
		}
	}
	return out
}

func Scale(c complex128, a M4) M4 {
	var out M4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			out[i][j] = c * a[i][j]
		}
	}
	return out
}

// Dagger returns the conjugate transpose.
func Dagger(a M4) M4 {
	var out M4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			out[i][j] = cmplx.Conj(a[j][i])
		}
	}
	return out
}

// Anticommutator returns ab + ba.
func Anticommutator(a, b M4) M4 {
	return Add(Mul(a, b), Mul(b, a))
}

// Hamiltonian returns c·α·p + β·mc² at a single momentum.
func Hamiltonian(px, py, pz, c, mc2 float64) M4 {
	h := Scale(complex(mc2, 0), Beta)
	h = Add(h, Scale(complex(c*px, 0), AlphaX))
	h = Add(h, Scale(complex(c*py, 0), AlphaY))
	h = Add(h, Scale(complex(c*pz, 0), AlphaZ))
	return h
}

// MaxAbsDiff returns the largest entrywise |a - b|, or NaN if any entry is NaN.
func MaxAbsDiff(a, b M4) float64 {
	worst := 0.0
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if d := cmplx.Abs(a[i][j] - b[i][j]); d > worst || math.IsNaN(d) {
				worst = d
			}
		}
	}
	return worst
}
