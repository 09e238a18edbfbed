// Package scenario turns a run configuration into a ready-to-run job: it
// samples the named potential, prepares the initial state and wires the
// matching engine.
package scenario

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"go.uber.org/zap"

	"github.com/san-kum/qsim/internal/config"
	"github.com/san-kum/qsim/internal/dirac"
	"github.com/san-kum/qsim/internal/grid"
	"github.com/san-kum/qsim/internal/kleingordon"
	"github.com/san-kum/qsim/internal/sim"
	"github.com/san-kum/qsim/internal/splitstep"
	"github.com/san-kum/qsim/internal/units"
	"github.com/san-kum/qsim/internal/wave"
)

type builder func(name string, cfg *config.Config, e env) (Job, error)

type env struct {
	grid   *grid.Grid
	units  units.System
	v      []float64
	dt     complex128
	simCfg sim.Config
	logger *zap.Logger
}

var builders = map[string]builder{
	config.EngineSchrodinger: buildSchrodinger,
	config.EngineGPE:         buildGPE,
	config.EngineDirac:       buildDirac,
	config.EngineKleinGordon: buildKleinGordon,
}

// Build validates cfg and returns a job for its engine. logger may be nil.
func Build(name string, cfg *config.Config, logger *zap.Logger) (Job, error) {
	e, err := prepare(cfg, logger)
	if err != nil {
		return nil, err
	}
	fn, ok := builders[cfg.Engine]
	if !ok {
		return nil, fmt.Errorf("unknown engine: %s", cfg.Engine)
	}
	j, err := fn(name, cfg, e)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", name, err)
	}
	e.logger.Debug("scenario built",
		zap.String("name", name),
		zap.String("engine", cfg.Engine),
		zap.Ints("shape", cfg.Grid.Shape),
		zap.Complex128("dt", e.dt))
	return j, nil
}

func prepare(cfg *config.Config, logger *zap.Logger) (env, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return env{}, err
	}
	g, err := grid.New(cfg.Grid.Shape, cfg.Grid.Extents)
	if err != nil {
		return env{}, err
	}
	u, err := cfg.UnitSystem()
	if err != nil {
		return env{}, err
	}
	v, err := Potential(g, cfg.Potential)
	if err != nil {
		return env{}, err
	}
	dt := cfg.Timestep()
	return env{
		grid:  g,
		units: u,
		v:     v,
		dt:    dt,
		simCfg: sim.Config{
			Steps:         cfg.Steps,
			Dt:            cmplx.Abs(dt),
			SampleEvery:   cfg.SampleEvery,
			ValidateState: true,
		},
		logger: logger,
	}, nil
}

func workers(cfg *config.Config) int {
	if cfg.Workers < 1 {
		return 1
	}
	return cfg.Workers
}

func scalarOptions(cfg *config.Config, e env) []splitstep.Option {
	return []splitstep.Option{
		splitstep.WithUnits(e.units),
		splitstep.WithLogger(e.logger),
		splitstep.WithWorkers(workers(cfg)),
	}
}

func scalarDiagnostics(eng *splitstep.Engine) diagnostics[wave.Field] {
	return diagnostics[wave.Field]{
		energy:   eng.ExpectedEnergy,
		norm:     wave.Field.Norm2,
		position: func(psi wave.Field) float64 { return eng.ExpectedPosition(psi, 0) },
		density:  wave.Field.Density,
	}
}

func buildSchrodinger(name string, cfg *config.Config, e env) (Job, error) {
	eng, err := splitstep.New(e.v, e.grid, e.dt, scalarOptions(cfg, e)...)
	if err != nil {
		return nil, err
	}
	eng.NormalizeAtEachStep(cfg.Normalize || imag(e.dt) != 0)
	psi := ScalarState(e.grid, e.units, cfg.Initial)
	return newJob(name, cfg.Engine, e, sim.Propagator[wave.Field](eng), psi, scalarDiagnostics(eng)), nil
}

func buildGPE(name string, cfg *config.Config, e env) (Job, error) {
	eng, err := splitstep.NewNonlinear(e.v, e.grid, e.dt, scalarOptions(cfg, e)...)
	if err != nil {
		return nil, err
	}
	eng.NormalizeAtEachStep(cfg.Normalize || imag(e.dt) != 0)
	// Σ|ψ|² = 1 on the grid, so |ψ|²/dV is the physical density.
	g := cfg.Nonlinear.Strength / e.grid.CellVolume()
	eng.SetNonlinearTerm(splitstep.GrossPitaevskii(g, e.dt, e.units.Hbar))
	psi := ScalarState(e.grid, e.units, cfg.Initial)
	return newJob(name, cfg.Engine, e, sim.Propagator[wave.Field](eng), psi, scalarDiagnostics(eng.Engine)), nil
}

func buildDirac(name string, cfg *config.Config, e env) (Job, error) {
	opts := []dirac.Option{
		dirac.WithUnits(e.units),
		dirac.WithMass(e.units.Mass),
		dirac.WithFactorized(cfg.Factorized),
		dirac.WithLogger(e.logger),
		dirac.WithWorkers(workers(cfg)),
	}
	if !cfg.VectorPotential.IsZero() {
		a := VectorField(e.grid, cfg.VectorPotential)
		opts = append(opts, dirac.WithVectorPotential(a.X, a.Y, a.Z))
	}
	eng, err := dirac.New(e.v, e.grid, e.dt, opts...)
	if err != nil {
		return nil, err
	}
	eng.NormalizeAtEachStep(cfg.Normalize || imag(e.dt) != 0)

	psi, err := SpinorState(e.grid, e.units, cfg.Initial)
	if err != nil {
		return nil, err
	}
	if cfg.Initial.Kind == "positive" {
		psi = eng.PositiveEnergy(psi).Normalize()
	}
	diag := diagnostics[wave.Spinor]{
		energy:   eng.ExpectedEnergy,
		norm:     wave.Spinor.Norm2,
		position: func(psi wave.Spinor) float64 { return eng.ExpectedPosition(psi, 0) },
		density:  wave.Spinor.Density,
	}
	return newJob(name, cfg.Engine, e, sim.Propagator[wave.Spinor](eng), psi, diag), nil
}

func buildKleinGordon(name string, cfg *config.Config, e env) (Job, error) {
	var v []float64
	if cfg.Potential.Kind != "" && cfg.Potential.Kind != "free" {
		v = e.v
	}
	eng, err := kleingordon.New(v, e.grid, e.dt,
		kleingordon.WithUnits(e.units),
		kleingordon.WithMass(e.units.Mass),
		kleingordon.WithLogger(e.logger),
		kleingordon.WithWorkers(workers(cfg)))
	if err != nil {
		return nil, err
	}

	phi := ScalarState(e.grid, e.units, cfg.Initial)
	pair := wave.Pair{phi, wave.NewField(len(phi))}
	if cfg.Initial.Kind == "positive" || moving(cfg.Initial.Momentum) {
		pair = eng.PositiveFrequency(phi)
	}

	x := e.grid.Coordinates(0)
	diag := diagnostics[wave.Pair]{
		energy: eng.Energy,
		norm:   wave.Pair.Norm2,
		position: func(p wave.Pair) float64 {
			sum, norm := 0.0, 0.0
			for i, rho := range p.Density() {
				sum += rho * x[i]
				norm += rho
			}
			if norm == 0 {
				return 0
			}
			return sum / norm
		},
		density: wave.Pair.Density,
	}
	prop := sim.PropagatorFunc[wave.Pair](eng.Advance)
	return newJob(name, cfg.Engine, e, prop, pair, diag), nil
}

func moving(p []float64) bool {
	for _, v := range p {
		if v != 0 {
			return true
		}
	}
	return false
}

// ListEngines returns the engine kinds Build understands.
func ListEngines() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newJob[S any](name, engine string, e env, prop sim.Propagator[S], initial S, diag diagnostics[S]) *job[S] {
	return &job[S]{
		name:    name,
		engine:  engine,
		grid:    e.grid,
		simCfg:  e.simCfg,
		prop:    prop,
		initial: initial,
		diag:    diag,
		state:   initial,
	}
}

// Eigenstates relaxes the lowest cfg.Eigen.States stationary states of a
// Schrödinger configuration. A real dt is turned into -i·|dt|.
func Eigenstates(ctx context.Context, cfg *config.Config, logger *zap.Logger) ([]splitstep.Eigenstate, error) {
	if cfg.Engine != config.EngineSchrodinger {
		return nil, fmt.Errorf("eigenstates need a %s engine, got %s", config.EngineSchrodinger, cfg.Engine)
	}
	e, err := prepare(cfg, logger)
	if err != nil {
		return nil, err
	}
	dt := e.dt
	if imag(dt) >= 0 {
		dt = complex(0, -math.Max(cmplx.Abs(dt), 1e-12))
	}
	eng, err := splitstep.New(e.v, e.grid, dt, scalarOptions(cfg, e)...)
	if err != nil {
		return nil, err
	}
	rc := splitstep.DefaultRelaxConfig()
	if cfg.Eigen.States > 0 {
		rc.States = cfg.Eigen.States
	}
	if cfg.Eigen.Tolerance > 0 {
		rc.Tolerance = cfg.Eigen.Tolerance
	}
	if cfg.Eigen.MaxSteps > 0 {
		rc.MaxSteps = cfg.Eigen.MaxSteps
	}
	return splitstep.Relax(ctx, eng, ScalarState(e.grid, e.units, cfg.Initial), rc)
}
