// Package optim runs a configuration over a grid of parameter values and
// picks the point that minimizes a run metric.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/san-kum/qsim/internal/config"
	"github.com/san-kum/qsim/internal/scenario"
	"github.com/san-kum/qsim/internal/sim"
)

// Params lists the names Apply understands.
var Params = []string{"dt", "imag_dt", "mass", "strength", "width", "nonlinear", "sigma", "momentum"}

// Apply sets one named parameter on cfg.
func Apply(cfg *config.Config, param string, v float64) error {
	switch param {
	case "dt":
		cfg.Dt = v
	case "imag_dt":
		cfg.ImagDt = v
	case "mass":
		cfg.Mass = v
	case "strength":
		cfg.Potential.Strength = v
	case "width":
		cfg.Potential.Width = v
	case "nonlinear":
		cfg.Nonlinear.Strength = v
	case "sigma":
		cfg.Initial.Sigma = fill(cfg.Initial.Sigma, len(cfg.Grid.Shape), v)
	case "momentum":
		cfg.Initial.Momentum = fill(cfg.Initial.Momentum, len(cfg.Grid.Shape), 0)
		cfg.Initial.Momentum[0] = v
	default:
		return fmt.Errorf("unknown parameter: %s", param)
	}
	return nil
}

func fill(dst []float64, n int, v float64) []float64 {
	if len(dst) < n {
		dst = make([]float64, n)
	}
	for i := range dst {
		dst[i] = v
	}
	return dst
}

// Point is one grid point and the outcome of running it.
type Point struct {
	Params map[string]float64
	Report *scenario.Report
	Err    error
}

// Label formats the parameters in name order.
func (p Point) Label() string {
	names := make([]string, 0, len(p.Params))
	for k := range p.Params {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, k := range names {
		parts[i] = fmt.Sprintf("%s=%g", k, p.Params[k])
	}
	return strings.Join(parts, ",")
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Points returns the cartesian product of the ranges, the last parameter varying fastest.
func (g *GridSearch) Points() []map[string]float64 {
	var out []map[string]float64
	g.collect(0, map[string]float64{}, &out)
	return out
}

func (g *GridSearch) collect(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		p := make(map[string]float64, len(current))
		for k, v := range current {
			p[k] = v
		}
		*out = append(*out, p)
		return
	}
	for _, v := range g.ranges[depth] {
		current[g.paramNames[depth]] = v
		g.collect(depth+1, current, out)
	}
	delete(current, g.paramNames[depth])
}

// Run executes every grid point derived from base, at most limit at a time.
// A point that fails to build or run records its error and does not stop
// the others; only cancellation aborts the search.
func (g *GridSearch) Run(ctx context.Context, name string, base *config.Config, limit int, logger *zap.Logger) ([]Point, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, fmt.Errorf("optim: %d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	grid := g.Points()
	points := make([]Point, len(grid))
	cfgs := make([]*config.Config, len(grid))
	for i, params := range grid {
		points[i].Params = params
		cfg := base.Clone()
		for k, v := range params {
			if err := Apply(cfg, k, v); err != nil {
				return nil, err
			}
		}
		cfgs[i] = cfg
	}

	err := sim.ForEach(ctx, len(points), limit, func(ctx context.Context, i int) error {
		p := &points[i]
		job, err := scenario.Build(fmt.Sprintf("%s[%s]", name, p.Label()), cfgs[i], logger)
		if err != nil {
			p.Err = err
			return nil
		}
		p.Report, p.Err = job.Run(ctx)
		if errors.Is(p.Err, context.Canceled) || errors.Is(p.Err, context.DeadlineExceeded) {
			return p.Err
		}
		logger.Debug("grid point done", zap.String("point", p.Label()), zap.Error(p.Err))
		return nil
	})
	return points, err
}

// Best returns the point with the smallest finite value of metric among
// the runs that completed without errors.
func Best(points []Point, metric string) (Point, float64, bool) {
	best, bestVal, found := Point{}, math.Inf(1), false
	for _, p := range points {
		if p.Err != nil || p.Report == nil || len(p.Report.Errors) > 0 {
			continue
		}
		v, ok := p.Report.Metrics[metric]
		if !ok || math.IsNaN(v) {
			continue
		}
		if v < bestVal {
			best, bestVal, found = p, v, true
		}
	}
	return best, bestVal, found
}
