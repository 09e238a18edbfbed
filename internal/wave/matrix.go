package wave

// Mat4 holds a 4x4 complex matrix per grid point, one Field per entry.
type Mat4 [4][4]Field

// Mat2 holds a 2x2 complex matrix per grid point.
type Mat2 [2][2]Field

func NewMat4(n int) Mat4 {
	var m Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			m[i][j] = NewField(n)
		}
	}
	return m
}

func Identity4(n int) Mat4 {
	m := NewMat4(n)
	for i := 0; i < 4; i++ {
		for k := 0; k < n; k++ {
			m[i][i][k] = 1
		}
	}
	return m
}

// DiagonalMat4 builds d·I at every grid point.
func DiagonalMat4(d Field) Mat4 {
	m := NewMat4(len(d))
	for i := 0; i < 4; i++ {
		copy(m[i][i], d)
	}
	return m
}

func (m *Mat4) Len() int { return len(m[0][0]) }

// At gathers the matrix at grid point idx.
func (m *Mat4) At(idx int) [4][4]complex128 {
	var a [4][4]complex128
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			a[i][j] = m[i][j][idx]
		}
	}
	return a
}

// Set scatters a into grid point idx.
func (m *Mat4) Set(idx int, a [4][4]complex128) {
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			m[i][j][idx] = a[i][j]
		}
	}
}

// MulVec returns m·v at every grid point.
func (m *Mat4) MulVec(v Spinor, workers int) Spinor {
	n := v.Len()
	out := NewSpinor(n)
	ParallelFor(n, 1024, workers, func(start, end int) {
		for k := start; k < end; k++ {
			x0, x1, x2, x3 := v[0][k], v[1][k], v[2][k], v[3][k]
			for i := 0; i < 4; i++ {
				out[i][k] = m[i][0][k]*x0 + m[i][1][k]*x1 + m[i][2][k]*x2 + m[i][3][k]*x3
			}
		}
	})
	return out
}

// Mul returns m·o at every grid point.
func (m *Mat4) Mul(o *Mat4, workers int) Mat4 {
	n := m.Len()
	out := NewMat4(n)
	ParallelFor(n, 1024, workers, func(start, end int) {
		for k := start; k < end; k++ {
			for i := 0; i < 4; i++ {
				for j := 0; j < 4; j++ {
					out[i][j][k] = m[i][0][k]*o[0][j][k] + m[i][1][k]*o[1][j][k] +
						m[i][2][k]*o[2][j][k] + m[i][3][k]*o[3][j][k]
				}
			}
		}
	})
	return out
}

// ScaleFields multiplies every entry pointwise by s.
func (m *Mat4) ScaleFields(s Field) Mat4 {
	var out Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			out[i][j] = m[i][j].Mul(s)
		}
	}
	return out
}

// Equal reports bit-identical entries.
func (m *Mat4) Equal(o *Mat4) bool {
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if !fieldsEqual(m[i][j], o[i][j]) {
				return false
			}
		}
	}
	return true
}

func NewMat2(n int) Mat2 {
	return Mat2{{NewField(n), NewField(n)}, {NewField(n), NewField(n)}}
}

func (m *Mat2) Len() int { return len(m[0][0]) }

func (m *Mat2) Set(idx int, a [2][2]complex128) {
	m[0][0][idx], m[0][1][idx] = a[0][0], a[0][1]
	m[1][0][idx], m[1][1][idx] = a[1][0], a[1][1]
}

func (m *Mat2) At(idx int) [2][2]complex128 {
	return [2][2]complex128{
		{m[0][0][idx], m[0][1][idx]},
		{m[1][0][idx], m[1][1][idx]},
	}
}

// MulVec returns m·v at every grid point.
func (m *Mat2) MulVec(v Pair, workers int) Pair {
	n := v.Len()
	out := NewPair(n)
	ParallelFor(n, 2048, workers, func(start, end int) {
		for k := start; k < end; k++ {
			x0, x1 := v[0][k], v[1][k]
			out[0][k] = m[0][0][k]*x0 + m[0][1][k]*x1
			out[1][k] = m[1][0][k]*x0 + m[1][1][k]*x1
		}
	})
	return out
}

func (m *Mat2) Equal(o *Mat2) bool {
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if !fieldsEqual(m[i][j], o[i][j]) {
				return false
			}
		}
	}
	return true
}

func fieldsEqual(a, b Field) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
