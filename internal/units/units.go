// Package units holds the physical constants an engine is built against.
// Engines never hardcode a unit system; they read ħ, c and the particle mass from a System.
package units

import (
	"fmt"
	"math"
	"strings"
)

// CODATA 2018 values.
const (
	ElectronMass      = 9.1093837015e-31
	ReducedPlanck     = 1.054571817e-34
	SpeedOfLight      = 299792458.0
	VacuumPermitivity = 8.8541878128e-12
	ElementaryCharge  = 1.602176634e-19

	// HartreeC is the speed of light in Hartree atomic units (1/α).
	HartreeC = 137.036
)

type System struct {
	Name     string  `yaml:"name" json:"name"`
	Hbar     float64 `yaml:"hbar" json:"hbar"`
	C        float64 `yaml:"c" json:"c"`
	Mass     float64 `yaml:"mass" json:"mass"`
	Charge   float64 `yaml:"charge" json:"charge"`
	Epsilon0 float64 `yaml:"epsilon0" json:"epsilon0"`
}

// Metric returns SI units with an electron as the particle.
func Metric() System {
	return System{
		Name:     "metric",
		Hbar:     ReducedPlanck,
		C:        SpeedOfLight,
		Mass:     ElectronMass,
		Charge:   ElementaryCharge,
		Epsilon0: VacuumPermitivity,
	}
}

// Hartree returns atomic units (ħ = mₑ = e = 4πε₀ = 1). A non-positive c selects HartreeC.
func Hartree(c float64) System {
	if c <= 0 {
		c = HartreeC
	}
	return System{
		Name:     "hartree",
		Hbar:     1,
		C:        c,
		Mass:     1,
		Charge:   1,
		Epsilon0: 1 / (4 * math.Pi),
	}
}

// Natural returns ħ = c = 1 with unit mass.
func Natural() System {
	return System{
		Name:     "natural",
		Hbar:     1,
		C:        1,
		Mass:     1,
		Charge:   1,
		Epsilon0: 1,
	}
}

// Lookup selects a system by name. c overrides the speed of light for hartree and natural units when positive.
func Lookup(name string, c float64) (System, error) {
	switch strings.ToLower(name) {
	case "metric", "si":
		return Metric(), nil
	case "hartree", "atomic", "":
		return Hartree(c), nil
	case "natural":
		s := Natural()
		if c > 0 {
			s.C = c
		}
		return s, nil
	default:
		return System{}, fmt.Errorf("unknown unit system: %s", name)
	}
}

func (s System) WithMass(m float64) System {
	s.Mass = m
	return s
}

// RestEnergy is mc².
func (s System) RestEnergy() float64 {
	return s.Mass * s.C * s.C
}

// CoulombConstant is 1/(4πε₀).
func (s System) CoulombConstant() float64 {
	return 1 / (4 * math.Pi * s.Epsilon0)
}
