// Package spectral provides the multidimensional discrete Fourier transforms
// used to move fields between position and momentum space.
//
// Transforms are separable: a 1-D go-dsp transform is applied along every
// axis in turn. The inverse carries the 1/N factor, so Inverse(Forward(x))
// reproduces x:
//
//	psiP := spectral.Forward(psi, g.Shape())
//	psi = spectral.Inverse(psiP, g.Shape())
//
// [PowerSpectrum] is a 1-D helper for time series of observables.
package spectral
