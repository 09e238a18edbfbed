package wave

import (
	"math"
	"math/cmplx"
)

// Field is a grid-shaped complex scalar stored row-major, last axis fastest.
type Field []complex128

// NonlinearTerm maps the current field to the field the scalar engines continue with.
// It must be a pure function of its input.
type NonlinearTerm func(psi Field) Field

// PotentialTerm maps the current field to a real correction added to the potential.
type PotentialTerm func(phi Field) []float64

func NewField(n int) Field {
	return make(Field, n)
}

// FromReal lifts a real array into a Field.
func FromReal(x []float64) Field {
	f := make(Field, len(x))
	for i, v := range x {
		f[i] = complex(v, 0)
	}
	return f
}

func (f Field) Clone() Field {
	c := make(Field, len(f))
	copy(c, f)
	return c
}

func (f Field) IsValid() bool {
	for _, v := range f {
		if cmplx.IsNaN(v) || cmplx.IsInf(v) {
			return false
		}
	}
	return true
}

// Norm2 returns the sum of squared magnitudes.
func (f Field) Norm2() float64 {
	sum := 0.0
	for _, v := range f {
		sum += real(v)*real(v) + imag(v)*imag(v)
	}
	return sum
}

// Normalize returns a copy rescaled so that Norm2 is 1. A zero field is returned unchanged.
func (f Field) Normalize() Field {
	n := f.Norm2()
	if n == 0 {
		return f.Clone()
	}
	return f.Scale(complex(1/math.Sqrt(n), 0))
}

func (f Field) Density() []float64 {
	d := make([]float64, len(f))
	for i, v := range f {
		d[i] = real(v)*real(v) + imag(v)*imag(v)
	}
	return d
}

func (f Field) Scale(c complex128) Field {
	result := make(Field, len(f))
	for i, v := range f {
		result[i] = v * c
	}
	return result
}

// Mul multiplies pointwise.
func (f Field) Mul(other Field) Field {
	result := make(Field, len(f))
	for i := range f {
		result[i] = f[i] * other[i]
	}
	return result
}

func (f Field) Sub(other Field) Field {
	result := make(Field, len(f))
	for i := range f {
		result[i] = f[i] - other[i]
	}
	return result
}

// Dot returns <f|other>, conjugating f.
func (f Field) Dot(other Field) complex128 {
	var sum complex128
	for i := range f {
		sum += cmplx.Conj(f[i]) * other[i]
	}
	return sum
}

// Spinor is a 4-component Dirac spinor.
type Spinor [4]Field

func NewSpinor(n int) Spinor {
	return Spinor{NewField(n), NewField(n), NewField(n), NewField(n)}
}

func (s Spinor) Len() int { return len(s[0]) }

func (s Spinor) Clone() Spinor {
	return Spinor{s[0].Clone(), s[1].Clone(), s[2].Clone(), s[3].Clone()}
}

func (s Spinor) IsValid() bool {
	for _, c := range s {
		if !c.IsValid() {
			return false
		}
	}
	return true
}

func (s Spinor) Norm2() float64 {
	sum := 0.0
	for _, c := range s {
		sum += c.Norm2()
	}
	return sum
}

func (s Spinor) Normalize() Spinor {
	n := s.Norm2()
	if n == 0 {
		return s.Clone()
	}
	k := complex(1/math.Sqrt(n), 0)
	return Spinor{s[0].Scale(k), s[1].Scale(k), s[2].Scale(k), s[3].Scale(k)}
}

// Density sums the component densities.
func (s Spinor) Density() []float64 {
	d := make([]float64, s.Len())
	for _, c := range s {
		for i, v := range c {
			d[i] += real(v)*real(v) + imag(v)*imag(v)
		}
	}
	return d
}

// Pair is a Klein-Gordon state: the field and its time derivative.
type Pair [2]Field

func NewPair(n int) Pair {
	return Pair{NewField(n), NewField(n)}
}

func (p Pair) Len() int { return len(p[0]) }

func (p Pair) Clone() Pair {
	return Pair{p[0].Clone(), p[1].Clone()}
}

func (p Pair) IsValid() bool {
	return p[0].IsValid() && p[1].IsValid()
}

// Norm2 measures the field component only.
func (p Pair) Norm2() float64 {
	return p[0].Norm2()
}

func (p Pair) Density() []float64 {
	return p[0].Density()
}
