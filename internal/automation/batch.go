// Package automation runs scripted sequences of simulations described in YAML.
package automation

import (
	"context"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/qsim/internal/config"
	"github.com/san-kum/qsim/internal/optim"
	"github.com/san-kum/qsim/internal/scenario"
)

// Batch is a named list of runs executed in order.
type Batch struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Runs        []BatchRun `yaml:"runs"`
}

// BatchRun starts from a preset or a config file and applies overrides by
// parameter name. Config wins when both are given.
type BatchRun struct {
	Preset    string             `yaml:"preset"`
	Config    string             `yaml:"config"`
	Steps     int                `yaml:"steps"`
	Overrides map[string]float64 `yaml:"overrides"`
	SaveAs    string             `yaml:"save_as"`
}

// Outcome pairs a run with its resolved configuration and report.
type Outcome struct {
	Name   string
	Config *config.Config
	Report *scenario.Report
}

// SaveFunc persists a finished run.
type SaveFunc func(name string, cfg *config.Config, rep *scenario.Report) error

func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var b Batch
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	if len(b.Runs) == 0 {
		return nil, fmt.Errorf("batch %s has no runs", path)
	}
	return &b, nil
}

// Resolve builds the configuration of one run.
func (r BatchRun) Resolve() (string, *config.Config, error) {
	var (
		name = r.Preset
		cfg  *config.Config
	)
	switch {
	case r.Config != "":
		loaded, err := config.Load(r.Config)
		if err != nil {
			return "", nil, err
		}
		cfg = loaded
		if name == "" {
			name = r.Config
		}
	case r.Preset != "":
		cfg = config.GetPreset(r.Preset)
		if cfg == nil {
			return "", nil, fmt.Errorf("unknown preset: %s", r.Preset)
		}
	default:
		return "", nil, fmt.Errorf("run needs a preset or a config")
	}

	keys := make([]string, 0, len(r.Overrides))
	for k := range r.Overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := optim.Apply(cfg, k, r.Overrides[k]); err != nil {
			return "", nil, err
		}
	}
	if r.Steps > 0 {
		cfg.Steps = r.Steps
	}
	if r.SaveAs != "" {
		name = r.SaveAs
	}
	return name, cfg, cfg.Validate()
}

// RunBatch executes every run in order and stops at the first failure.
// save may be nil.
func RunBatch(ctx context.Context, b *Batch, logger *zap.Logger, save SaveFunc) ([]Outcome, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	outcomes := make([]Outcome, 0, len(b.Runs))

	for i, run := range b.Runs {
		name, cfg, err := run.Resolve()
		if err != nil {
			return outcomes, fmt.Errorf("run %d: %w", i+1, err)
		}
		logger.Info("batch run",
			zap.String("batch", b.Name),
			zap.Int("index", i+1),
			zap.Int("total", len(b.Runs)),
			zap.String("name", name))

		job, err := scenario.Build(name, cfg, logger)
		if err != nil {
			return outcomes, fmt.Errorf("run %d setup: %w", i+1, err)
		}
		rep, err := job.Run(ctx)
		if err != nil {
			return outcomes, fmt.Errorf("run %d: %w", i+1, err)
		}
		if save != nil {
			if err := save(name, cfg, rep); err != nil {
				return outcomes, fmt.Errorf("run %d save: %w", i+1, err)
			}
		}
		outcomes = append(outcomes, Outcome{Name: name, Config: cfg, Report: rep})
	}
	return outcomes, nil
}
