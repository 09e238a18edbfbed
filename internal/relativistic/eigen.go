package relativistic

import "math"

// Epsilon replaces px at points where the Hamiltonian vanishes identically
// (zero mass, zero momentum) so that the eigenbasis stays well defined.
const Epsilon = 1e-30

// Eigen diagonalizes c·α·p + β·mc². vals is (+E, +E, -E, -E) with
// E = √(c²p² + mc2²); the columns of u are the matching orthonormal eigenvectors.
func Eigen(px, py, pz, c, mc2 float64) (vals [4]float64, u M4) {
	e := math.Sqrt(c*c*(px*px+py*py+pz*pz) + mc2*mc2)
	if !(e > 0) {
		px, py, pz = Epsilon, 0, 0
		e = math.Sqrt(c*c*px*px + mc2*mc2)
	}
	a := e + mc2
	n := complex(math.Sqrt(a/(2*e)), 0)

	z := complex(c*pz/a, 0)
	plus := complex(c*px/a, c*py/a)
	minus := complex(c*px/a, -c*py/a)

	col := [4][4]complex128{
		{1, 0, z, plus},
		{0, 1, minus, -z},
		{-z, -plus, 1, 0},
		{-minus, z, 0, 1},
	}
	for j := 0; j < 4; j++ {
		for i := 0; i < 4; i++ {
			u[i][j] = n * col[j][i]
		}
	}
	vals = [4]float64{e, e, -e, -e}
	return vals, u
}
