package scenario

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/qsim/internal/config"
	"github.com/san-kum/qsim/internal/grid"
)

// PotentialFunc samples a named potential on a grid.
type PotentialFunc func(g *grid.Grid, pc config.PotentialConfig) []float64

var potentials = map[string]PotentialFunc{
	"free":     free,
	"harmonic": harmonic,
	"barrier":  barrier,
	"well":     well,
	"coulomb":  softCoulomb,
}

// Potential samples the potential named by pc.Kind.
func Potential(g *grid.Grid, pc config.PotentialConfig) ([]float64, error) {
	kind := pc.Kind
	if kind == "" {
		kind = "free"
	}
	fn, ok := potentials[kind]
	if !ok {
		return nil, fmt.Errorf("unknown potential: %s", kind)
	}
	return fn(g, pc), nil
}

func ListPotentials() []string {
	names := make([]string, 0, len(potentials))
	for name := range potentials {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func free(g *grid.Grid, _ config.PotentialConfig) []float64 {
	return make([]float64, g.Size())
}

// harmonic is ½·k·|x - c|².
func harmonic(g *grid.Grid, pc config.PotentialConfig) []float64 {
	r2 := radius2(g, pc.Center)
	for i := range r2 {
		r2[i] *= 0.5 * pc.Strength
	}
	return r2
}

// barrier is a slab of height strength and the given width across the first axis.
func barrier(g *grid.Grid, pc config.PotentialConfig) []float64 {
	v := make([]float64, g.Size())
	c := component(pc.Center, 0)
	for i, x := range g.Coordinates(0) {
		if math.Abs(x-c) < pc.Width/2 {
			v[i] = pc.Strength
		}
	}
	return v
}

// well is zero inside a box of side width and strength outside it.
func well(g *grid.Grid, pc config.PotentialConfig) []float64 {
	v := make([]float64, g.Size())
	for i := range v {
		v[i] = pc.Strength
	}
	inside := make([]bool, g.Size())
	for i := range inside {
		inside[i] = true
	}
	for axis := 0; axis < g.Rank(); axis++ {
		c := component(pc.Center, axis)
		for i, x := range g.Coordinates(axis) {
			if math.Abs(x-c) >= pc.Width/2 {
				inside[i] = false
			}
		}
	}
	for i, in := range inside {
		if in {
			v[i] = 0
		}
	}
	return v
}

// softCoulomb is -strength/√(r² + width²); width defaults to 1.
func softCoulomb(g *grid.Grid, pc config.PotentialConfig) []float64 {
	a := pc.Width
	if a == 0 {
		a = 1
	}
	r2 := radius2(g, pc.Center)
	for i := range r2 {
		r2[i] = -pc.Strength / math.Sqrt(r2[i]+a*a)
	}
	return r2
}

func radius2(g *grid.Grid, center []float64) []float64 {
	r2 := make([]float64, g.Size())
	for axis := 0; axis < g.Rank(); axis++ {
		c := component(center, axis)
		for i, x := range g.Coordinates(axis) {
			r2[i] += (x - c) * (x - c)
		}
	}
	return r2
}

func component(v []float64, i int) float64 {
	if i < len(v) {
		return v[i]
	}
	return 0
}
