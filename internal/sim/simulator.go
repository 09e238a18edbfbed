package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/qsim/internal/wave"
)

type Runner[S any] struct {
	prop      Propagator[S]
	metrics   []Metric[S]
	observers []Observer[S]
}

func New[S any](prop Propagator[S]) *Runner[S] {
	return &Runner[S]{
		prop:      prop,
		metrics:   make([]Metric[S], 0),
		observers: make([]Observer[S], 0),
	}
}

func (r *Runner[S]) AddMetric(m Metric[S])     { r.metrics = append(r.metrics, m) }
func (r *Runner[S]) AddObserver(o Observer[S]) { r.observers = append(r.observers, o) }

// Run takes cfg.Steps steps from s0. The returned result holds every
// cfg.SampleEvery-th state, always including the initial and final ones.
// On cancellation the partial result is returned with ctx.Err().
func (r *Runner[S]) Run(ctx context.Context, s0 S, cfg Config) (*Result[S], error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	every := cfg.SampleEvery
	if every <= 0 {
		every = 1
	}

	result := &Result[S]{
		Times:   make([]float64, 0, cfg.Steps/every+2),
		Samples: make([]S, 0, cfg.Steps/every+2),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}
	for _, m := range r.metrics {
		m.Reset()
	}

	s := s0
	t := 0.0
	result.Samples = append(result.Samples, s)
	result.Times = append(result.Times, t)
	r.observe(s, t)

	for i := 0; i < cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			r.finish(result, s)
			return result, ctx.Err()
		default:
		}

		for _, obs := range r.observers {
			obs.OnStep(s, i, t)
		}

		next, err := r.prop.Step(s)
		if err != nil {
			result.Errors = append(result.Errors, SimError{Time: t, Step: i, Message: err.Error(), Err: err})
			break
		}
		if cfg.ValidateState && !valid(next) {
			result.Errors = append(result.Errors, SimError{
				Time: t, Step: i, Message: "invalid state (NaN/Inf)", Err: wave.ErrInvalidState,
			})
			break
		}

		s = next
		t += cfg.Dt
		result.StepsTaken++
		r.observe(s, t)

		if result.StepsTaken%every == 0 || result.StepsTaken == cfg.Steps {
			result.Samples = append(result.Samples, s)
			result.Times = append(result.Times, t)
		}
	}

	r.finish(result, s)
	return result, nil
}

// observe feeds every accepted state, initial and final included, to the metrics.
func (r *Runner[S]) observe(s S, t float64) {
	for _, m := range r.metrics {
		m.Observe(s, t)
	}
}

func (r *Runner[S]) finish(result *Result[S], s S) {
	result.Final = s
	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

// RunWithCallback steps until cfg.Steps is reached, callback returns false,
// or ctx is cancelled.
func (r *Runner[S]) RunWithCallback(ctx context.Context, s0 S, cfg Config, callback func(s S, step int, t float64) bool) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}

	s := s0
	t := 0.0
	for i := 0; i < cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !callback(s, i, t) {
			return nil
		}

		next, err := r.prop.Step(s)
		if err != nil {
			return SimError{Time: t, Step: i, Message: err.Error(), Err: err}
		}
		s = next
		t += cfg.Dt

		if cfg.ValidateState && !valid(s) {
			return SimError{Time: t, Step: i, Message: "invalid state (NaN/Inf)", Err: wave.ErrInvalidState}
		}
	}
	return nil
}

func validateConfig(cfg Config) error {
	if cfg.Steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", cfg.Steps)
	}
	if cfg.Dt == 0 {
		return fmt.Errorf("dt must be non-zero")
	}
	return nil
}

func valid[S any](s S) bool {
	if v, ok := any(s).(Validatable); ok {
		return v.IsValid()
	}
	return true
}
