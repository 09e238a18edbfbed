// Package sim drives any state propagator through a fixed number of steps,
// feeding metrics and observers and sampling the trajectory.
package sim

import "fmt"

// Propagator advances a state by one timestep. It must return a fresh state
// and leave its argument untouched.
type Propagator[S any] interface {
	Step(s S) (S, error)
}

// PropagatorFunc adapts a function to Propagator.
type PropagatorFunc[S any] func(s S) (S, error)

func (f PropagatorFunc[S]) Step(s S) (S, error) { return f(s) }

type Metric[S any] interface {
	Name() string
	Observe(s S, t float64)
	Value() float64
	Reset()
}

type Observer[S any] interface {
	OnStep(s S, step int, t float64)
}

// Validatable states can report NaN or Inf contamination.
type Validatable interface {
	IsValid() bool
}

type Config struct {
	Steps         int     `yaml:"steps" json:"steps"`
	Dt            float64 `yaml:"dt" json:"dt"`
	SampleEvery   int     `yaml:"sample_every" json:"sample_every"`
	ValidateState bool    `yaml:"validate_state" json:"validate_state"`
}

type Result[S any] struct {
	Times      []float64
	Samples    []S
	Final      S
	Metrics    map[string]float64
	StepsTaken int
	Errors     []error
}

// SimError locates a failure within a run.
type SimError struct {
	Time    float64
	Step    int
	Message string
	Err     error
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}

func (e SimError) Unwrap() error {
	return e.Err
}
