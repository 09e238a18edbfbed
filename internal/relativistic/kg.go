package relativistic

import "math/cmplx"

// KGExp returns exp(τ·[[0, a], [-b, 0]]).
//
// With s = √(ab) the result is [[cos sτ, a·sin(sτ)/s], [-b·sin(sτ)/s, cos sτ]].
// sin(sτ)/s is replaced by its series near s = 0, so ab = 0 is exact.
func KGExp(a, b, tau complex128) M2 {
	s := cmplx.Sqrt(a * b)
	x := s * tau
	cos := cmplx.Cos(x)

	var sinc complex128
	if cmplx.Abs(x) < 1e-4 {
		x2 := x * x
		sinc = tau * (1 - x2/6 + x2*x2/120)
	} else {
		sinc = cmplx.Sin(x) / s
	}
	return M2{
		{cos, a * sinc},
		{-b * sinc, cos},
	}
}
