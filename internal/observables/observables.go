// Package observables provides run metrics computed from propagated states.
package observables

import "math"

// Normed states expose Σ|ψ|².
type Normed interface {
	Norm2() float64
}

// Last reports the most recently observed value.
type Last[S any] struct {
	name    string
	f       func(S) float64
	value   float64
	samples int
}

func NewLast[S any](name string, f func(S) float64) *Last[S] {
	return &Last[S]{name: name, f: f}
}

func (l *Last[S]) Name() string { return l.name }

func (l *Last[S]) Observe(s S, t float64) {
	l.value = l.f(s)
	l.samples++
}

func (l *Last[S]) Value() float64 { return l.value }

func (l *Last[S]) Reset() {
	l.value = 0
	l.samples = 0
}

// Mean averages an observable over all observed steps.
type Mean[S any] struct {
	name    string
	f       func(S) float64
	total   float64
	samples int
}

func NewMean[S any](name string, f func(S) float64) *Mean[S] {
	return &Mean[S]{name: name, f: f}
}

func (m *Mean[S]) Name() string { return m.name }

func (m *Mean[S]) Observe(s S, t float64) {
	m.total += m.f(s)
	m.samples++
}

func (m *Mean[S]) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

func (m *Mean[S]) Reset() {
	m.total = 0
	m.samples = 0
}

// Drift is the largest relative departure from the first observed value.
type Drift[S any] struct {
	name    string
	f       func(S) float64
	initial float64
	current float64
	maxRel  float64
	samples int
}

func NewDrift[S any](name string, f func(S) float64) *Drift[S] {
	return &Drift[S]{name: name, f: f}
}

func (d *Drift[S]) Name() string { return d.name }

func (d *Drift[S]) Observe(s S, t float64) {
	v := d.f(s)
	if d.samples == 0 {
		d.initial = v
	}
	d.current = v
	d.samples++

	if d.initial != 0 {
		rel := math.Abs(v-d.initial) / math.Abs(d.initial)
		d.maxRel = math.Max(d.maxRel, rel)
	}
}

func (d *Drift[S]) Value() float64 { return d.maxRel }

func (d *Drift[S]) Reset() {
	d.initial = 0
	d.current = 0
	d.maxRel = 0
	d.samples = 0
}

func norm[S Normed](s S) float64 { return s.Norm2() }

func NewNorm[S Normed]() *Last[S] {
	return NewLast("norm", norm[S])
}

func NewNormDrift[S Normed]() *Drift[S] {
	return NewDrift("norm_drift", norm[S])
}

func NewEnergy[S any](energy func(S) float64) *Mean[S] {
	return NewMean("energy", energy)
}

func NewEnergyDrift[S any](energy func(S) float64) *Drift[S] {
	return NewDrift("energy_drift", energy)
}

// NewPosition reports the final ⟨x⟩ along one axis.
func NewPosition[S any](position func(S) float64) *Last[S] {
	return NewLast("position", position)
}
