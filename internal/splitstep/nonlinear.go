package splitstep

import (
	"math/cmplx"

	"github.com/san-kum/qsim/internal/grid"
	"github.com/san-kum/qsim/internal/wave"
)

// Nonlinear is a scalar engine with a state-dependent term applied on both
// sides of every linear step.
type Nonlinear struct {
	*Engine
	term wave.NonlinearTerm
}

func NewNonlinear(v []float64, g *grid.Grid, dt complex128, opts ...Option) (*Nonlinear, error) {
	e, err := New(v, g, dt, opts...)
	if err != nil {
		return nil, err
	}
	return &Nonlinear{Engine: e, term: identity}, nil
}

func identity(psi wave.Field) wave.Field { return psi }

// SetNonlinearTerm installs fn. A nil fn restores the identity.
func (n *Nonlinear) SetNonlinearTerm(fn wave.NonlinearTerm) {
	if fn == nil {
		fn = identity
	}
	n.term = fn
}

// Advance applies term, the linear step, then term again.
func (n *Nonlinear) Advance(psi wave.Field) wave.Field {
	out := n.term(psi.Clone())
	out = n.linearStep(out)
	out = n.term(out)
	if n.normalize {
		out = out.Normalize()
	}
	return out
}

func (n *Nonlinear) Step(psi wave.Field) (wave.Field, error) {
	if err := wave.CheckLength(len(psi), n.grid.Size()); err != nil {
		return nil, err
	}
	return n.Advance(psi), nil
}

// GrossPitaevskii returns the cubic phase term ψ·exp(-i·g|ψ|²·dt/4ħ).
func GrossPitaevskii(g float64, dt complex128, hbar float64) wave.NonlinearTerm {
	k := -1i * complex(g, 0) * dt / complex(4*hbar, 0)
	return func(psi wave.Field) wave.Field {
		out := make(wave.Field, len(psi))
		for i, v := range psi {
			d := real(v)*real(v) + imag(v)*imag(v)
			out[i] = v * cmplx.Exp(k*complex(d, 0))
		}
		return out
	}
}
