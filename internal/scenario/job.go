package scenario

import (
	"context"

	"github.com/san-kum/qsim/internal/grid"
	"github.com/san-kum/qsim/internal/observables"
	"github.com/san-kum/qsim/internal/sim"
)

// Job is a runnable simulation whose state type is hidden behind scalar diagnostics.
type Job interface {
	Name() string
	Engine() string
	Grid() *grid.Grid

	// Run executes the configured number of steps from the initial state.
	Run(ctx context.Context) (*Report, error)

	// Step advances the job's live state by one timestep.
	Step() error
	Time() float64
	Density() []float64
	Energy() float64
	Norm() float64
	Position() float64
}

// Report is the engine-independent summary of a run.
type Report struct {
	Name       string
	Engine     string
	Times      []float64
	Norm       []float64
	Energy     []float64
	Position   []float64
	Density    [][]float64
	Metrics    map[string]float64
	StepsTaken int
	Errors     []string
}

type diagnostics[S any] struct {
	energy   func(S) float64
	norm     func(S) float64
	position func(S) float64
	density  func(S) []float64
}

type job[S any] struct {
	name   string
	engine string
	grid   *grid.Grid
	simCfg sim.Config

	prop    sim.Propagator[S]
	initial S
	diag    diagnostics[S]

	state S
	t     float64
}

func (j *job[S]) Name() string { return j.name }
func (j *job[S]) Engine() string { return j.engine }
func (j *job[S]) Grid() *grid.Grid { return j.grid }
func (j *job[S]) Time() float64 { return j.t }
func (j *job[S]) Density() []float64 { return j.diag.density(j.state) }
func (j *job[S]) Energy() float64 { return j.diag.energy(j.state) }
func (j *job[S]) Norm() float64 { return j.diag.norm(j.state) }
func (j *job[S]) Position() float64 { return j.diag.position(j.state) }

func (j *job[S]) Step() error {
	next, err := j.prop.Step(j.state)
	if err != nil {
		return sim.SimError{Time: j.t, Message: err.Error(), Err: err}
	}
	j.state = next
	j.t += j.simCfg.Dt
	return nil
}

func (j *job[S]) Run(ctx context.Context) (*Report, error) {
	runner := sim.New(j.prop)
	runner.AddMetric(observables.NewDrift("norm_drift", j.diag.norm))
	runner.AddMetric(observables.NewEnergy(j.diag.energy))
	runner.AddMetric(observables.NewEnergyDrift(j.diag.energy))
	runner.AddMetric(observables.NewPosition(j.diag.position))

	res, err := runner.Run(ctx, j.initial, j.simCfg)
	if res == nil {
		return nil, err
	}

	rep := &Report{
		Name:       j.name,
		Engine:     j.engine,
		Times:      res.Times,
		Metrics:    res.Metrics,
		StepsTaken: res.StepsTaken,
	}
	for _, s := range res.Samples {
		rep.Norm = append(rep.Norm, j.diag.norm(s))
		rep.Energy = append(rep.Energy, j.diag.energy(s))
		rep.Position = append(rep.Position, j.diag.position(s))
		rep.Density = append(rep.Density, j.diag.density(s))
	}
	for _, e := range res.Errors {
		rep.Errors = append(rep.Errors, e.Error())
	}
	j.state, j.t = res.Final, float64(res.StepsTaken)*j.simCfg.Dt
	return rep, err
}
