package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Forward returns the unnormalized N-d DFT of data laid out row-major with the given shape.
func Forward(data []complex128, shape []int) []complex128 {
	return transform(data, shape, fft.FFT)
}

// Inverse returns the N-d inverse DFT, normalized by 1/len(data).
func Inverse(data []complex128, shape []int) []complex128 {
	return transform(data, shape, fft.IFFT)
}

func transform(data []complex128, shape []int, line func([]complex128) []complex128) []complex128 {
	out := make([]complex128, len(data))
	copy(out, data)

	stride := 1
	for axis := len(shape) - 1; axis >= 0; axis-- {
		n := shape[axis]
		if n > 1 {
			transformAxis(out, n, stride, line)
		}
		stride *= n
	}
	return out
}

// transformAxis applies line to every 1-D run of n samples spaced stride apart.
func transformAxis(data []complex128, n, stride int, line func([]complex128) []complex128) {
	buf := make([]complex128, n)
	block := n * stride
	for base := 0; base < len(data); base += block {
		for offset := 0; offset < stride; offset++ {
			start := base + offset
			for k := 0; k < n; k++ {
				buf[k] = data[start+k*stride]
			}
			res := line(buf)
			for k := 0; k < n; k++ {
				data[start+k*stride] = res[k]
			}
		}
	}
}

// PowerSpectrum returns |X_k| for the non-negative half of the spectrum of a real series.
func PowerSpectrum(series []float64) []float64 {
	spec := fft.FFTReal(series)
	ps := make([]float64, len(spec)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spec[i])
	}
	return ps
}
