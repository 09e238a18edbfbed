package splitstep

import (
	"context"
	"errors"
	"fmt"
	"math/cmplx"

	"go.uber.org/zap"

	"github.com/san-kum/qsim/internal/wave"
)

var (
	ErrRealTimestep = errors.New("splitstep: relaxation requires a timestep with negative imaginary part")
	ErrNotConverged = errors.New("splitstep: relaxation did not converge")
)

type RelaxConfig struct {
	States    int     `yaml:"states" json:"states"`
	Tolerance float64 `yaml:"tolerance" json:"tolerance"`
	MaxSteps  int     `yaml:"max_steps" json:"max_steps"`
}

func DefaultRelaxConfig() RelaxConfig {
	return RelaxConfig{
		States:    1,
		Tolerance: 1e-7,
		MaxSteps:  50000,
	}
}

// Eigenstate is a converged stationary state and its energy.
type Eigenstate struct {
	Psi    wave.Field
	Energy float64
	Steps  int
}

// Relax finds the lowest cfg.States stationary states by imaginary-time
// propagation from psi0. Each state is kept orthogonal to those already found.
func Relax(ctx context.Context, eng *Engine, psi0 wave.Field, cfg RelaxConfig) ([]Eigenstate, error) {
	if imag(eng.dt) >= 0 {
		return nil, fmt.Errorf("%w: dt = %v", ErrRealTimestep, eng.dt)
	}
	if err := wave.CheckLength(len(psi0), eng.grid.Size()); err != nil {
		return nil, err
	}
	if cfg.States <= 0 {
		cfg.States = 1
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = DefaultRelaxConfig().Tolerance
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultRelaxConfig().MaxSteps
	}

	pool := wave.NewFieldPool(len(psi0))
	found := make([]Eigenstate, 0, cfg.States)
	for n := 0; n < cfg.States; n++ {
		psi := project(psi0, found, pool)
		steps := 0
		converged := false
		for ; steps < cfg.MaxSteps; steps++ {
			select {
			case <-ctx.Done():
				return found, ctx.Err()
			default:
			}

			next := project(eng.linearStep(psi), found, pool)
			diff := 0.0
			for i := range next {
				diff += cmplx.Abs(next[i] - psi[i])
			}
			psi = next
			if diff < cfg.Tolerance {
				converged = true
				steps++
				break
			}
		}
		if !converged {
			return found, fmt.Errorf("%w: state %d after %d steps", ErrNotConverged, n, steps)
		}

		state := Eigenstate{Psi: psi, Energy: eng.ExpectedEnergy(psi), Steps: steps}
		eng.logger.Debug("eigenstate converged",
			zap.Int("state", n),
			zap.Int("steps", steps),
			zap.Float64("energy", state.Energy))
		found = append(found, state)
	}
	return found, nil
}

// project removes the components of psi along each found state and
// normalizes the remainder. The projection scratch is recycled through pool.
func project(psi wave.Field, found []Eigenstate, pool *wave.FieldPool) wave.Field {
	tmp := pool.GetAndCopy(psi)
	for _, s := range found {
		c := s.Psi.Dot(tmp)
		for i := range tmp {
			tmp[i] -= c * s.Psi[i]
		}
	}
	out := tmp.Normalize()
	pool.Put(tmp)
	return out
}
