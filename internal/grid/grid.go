// Package grid describes the periodic rectangular sample grid and its
// discrete momentum (spatial-frequency) lattice.
package grid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/qsim/internal/wave"
)

// Grid is an immutable 1-3 dimensional sample grid with physical extents.
// Flat indices are row-major with the last axis fastest.
type Grid struct {
	shape   []int
	extents []float64
	size    int
}

// New validates shape and extents. A length mismatch is reported as
// wave.ErrDimensionMismatch; any other violation as wave.ErrInvalidGrid.
func New(shape []int, extents []float64) (*Grid, error) {
	if len(shape) != len(extents) {
		return nil, fmt.Errorf("%w: %d axes, %d extents", wave.ErrDimensionMismatch, len(shape), len(extents))
	}
	if len(shape) < 1 || len(shape) > 3 {
		return nil, fmt.Errorf("%w: rank %d", wave.ErrInvalidGrid, len(shape))
	}
	size := 1
	for i, n := range shape {
		if n <= 0 {
			return nil, fmt.Errorf("%w: axis %d has %d samples", wave.ErrInvalidGrid, i, n)
		}
		if !(extents[i] > 0) || math.IsInf(extents[i], 0) {
			return nil, fmt.Errorf("%w: axis %d has extent %g", wave.ErrInvalidGrid, i, extents[i])
		}
		size *= n
	}

	g := &Grid{
		shape:   append([]int(nil), shape...),
		extents: append([]float64(nil), extents...),
		size:    size,
	}
	return g, nil
}

// MustNew is New for static configurations; it panics on error.
func MustNew(shape []int, extents []float64) *Grid {
	g, err := New(shape, extents)
	if err != nil {
		panic(err)
	}
	return g
}

// Rank is the number of axes.
func (g *Grid) Rank() int { return len(g.shape) }

// Size is the total number of grid points.
func (g *Grid) Size() int { return g.size }

// Shape returns a copy of the per-axis point counts.
func (g *Grid) Shape() []int {
	return append([]int(nil), g.shape...)
}

// Extents returns a copy of the per-axis box lengths.
func (g *Grid) Extents() []float64 {
	return append([]float64(nil), g.extents...)
}

// Spacing is the distance between neighbouring points along axis.
func (g *Grid) Spacing(axis int) float64 {
	return g.extents[axis] / float64(g.shape[axis])
}

// CellVolume is the product of the per-axis spacings.
func (g *Grid) CellVolume() float64 {
	v := 1.0
	for i := range g.shape {
		v *= g.Spacing(i)
	}
	return v
}

// Stride returns the flat-index step of axis.
func (g *Grid) Stride(axis int) int {
	s := 1
	for i := axis + 1; i < len(g.shape); i++ {
		s *= g.shape[i]
	}
	return s
}

// AxisIndex returns the index along axis of the flat index idx.
func (g *Grid) AxisIndex(idx, axis int) int {
	return (idx / g.Stride(axis)) % g.shape[axis]
}

// Axis returns the sample positions of axis, spanning [-L/2, L/2).
func (g *Grid) Axis(axis int) []float64 {
	n, l := g.shape[axis], g.extents[axis]
	x := make([]float64, n)
	if n == 1 {
		return x
	}
	floats.Span(x, -l/2, l/2-l/float64(n))
	return x
}

// Coordinates returns the grid-shaped coordinate of axis.
func (g *Grid) Coordinates(axis int) []float64 {
	return g.broadcast(axis, g.Axis(axis))
}

// Frequencies returns the spatial frequencies of axis in DFT order:
// index 0 is zero, the first half ascends, the second half holds the negatives.
func (g *Grid) Frequencies(axis int) []float64 {
	n, l := g.shape[axis], g.extents[axis]
	f := make([]float64, n)
	for i := 0; i < n; i++ {
		k := i
		if i >= (n+1)/2 {
			k = i - n
		}
		f[i] = float64(k) / l
	}
	return f
}

// Momenta returns p = 2π·ħ·f per axis. A non-zero eps replaces the zero-frequency
// bin of every axis.
func (g *Grid) Momenta(hbar, eps float64) [][]float64 {
	p := make([][]float64, len(g.shape))
	for axis := range g.shape {
		f := g.Frequencies(axis)
		floats.Scale(2*math.Pi*hbar, f)
		if eps != 0 {
			f[0] = eps
		}
		p[axis] = f
	}
	return p
}

// MomentumComponents returns grid-shaped px, py, pz. Axes beyond the rank are zero.
func (g *Grid) MomentumComponents(hbar, eps float64) (px, py, pz []float64) {
	p := g.Momenta(hbar, eps)
	comps := [3][]float64{}
	for axis := 0; axis < 3; axis++ {
		if axis < len(p) {
			comps[axis] = g.broadcast(axis, p[axis])
		} else {
			comps[axis] = make([]float64, g.size)
		}
	}
	return comps[0], comps[1], comps[2]
}

// MomentumSquared returns the grid-shaped |p|².
func (g *Grid) MomentumSquared(hbar float64) []float64 {
	p2 := make([]float64, g.size)
	for axis, p := range g.Momenta(hbar, 0) {
		floats.Add(p2, g.broadcast(axis, sq(p)))
	}
	return p2
}

func (g *Grid) broadcast(axis int, v []float64) []float64 {
	out := make([]float64, g.size)
	stride := g.Stride(axis)
	n := g.shape[axis]
	for idx := range out {
		out[idx] = v[(idx/stride)%n]
	}
	return out
}

func sq(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v * v
	}
	return out
}
