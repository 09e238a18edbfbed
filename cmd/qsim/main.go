package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/qsim/internal/automation"
	"github.com/san-kum/qsim/internal/config"
	"github.com/san-kum/qsim/internal/export"
	"github.com/san-kum/qsim/internal/optim"
	"github.com/san-kum/qsim/internal/scenario"
	"github.com/san-kum/qsim/internal/spectral"
	"github.com/san-kum/qsim/internal/storage"
	"github.com/san-kum/qsim/internal/viz"
)

var (
	dataDir     string
	verbose     bool
	configFile  string
	dt          float64
	imagDt      float64
	steps       int
	workers     int
	noSave      bool
	withDens    bool
	outPath     string
	svgPath     string
	sweepParam  string
	sweepVals   []float64
	sweepMetric string
	parallel    int

	logger = zap.NewNop()
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "qsim",
		Short:         "split-step quantum propagation lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(verbose)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".qsim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a simulation and store its observables",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addScenarioFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot stored observables",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().BoolVar(&withDens, "density", false, "also draw the final density")
	plotCmd.Flags().StringVar(&svgPath, "svg", "", "write the position trace as SVG")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "power spectrum of the position expectation",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(args[0], outPath, withDens)
		},
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "-", "output file")
	exportJSONCmd.Flags().BoolVar(&withDens, "density", false, "include density snapshots")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets, engines and potentials",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "step a simulation in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)

	eigenCmd := &cobra.Command{
		Use:   "eigen [preset]",
		Short: "relax the lowest stationary states in imaginary time",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEigen,
	}
	addScenarioFlags(eigenCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "run one preset across a parameter range in parallel",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addScenarioFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "dt", fmt.Sprintf("parameter to vary %v", optim.Params))
	sweepCmd.Flags().Float64SliceVar(&sweepVals, "values", nil, "parameter values")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "energy_drift", "metric to minimize")
	sweepCmd.Flags().IntVar(&parallel, "parallel", 4, "concurrent runs")

	batchCmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "run the simulations listed in a YAML batch file",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	batchCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the runs")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, analyzeCmd, exportJSONCmd, presetsCmd, liveCmd, eigenCmd, sweepCmd, batchCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{"stderr"}
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().Float64Var(&dt, "dt", 0, "real timestep")
	cmd.Flags().Float64Var(&imagDt, "imag-dt", 0, "imaginary timestep")
	cmd.Flags().IntVar(&steps, "steps", 0, "number of steps")
	cmd.Flags().IntVar(&workers, "workers", 0, "goroutines per operator application")
}

// loadConfig starts from the named preset (or the default), then the
// config file, then any flags that were set.
func loadConfig(cmd *cobra.Command, args []string) (string, *config.Config, error) {
	name, cfg := "default", config.DefaultConfig()
	if len(args) > 0 {
		name = args[0]
		cfg = config.GetPreset(name)
		if cfg == nil {
			return "", nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return "", nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if len(args) == 0 {
			name = "config"
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("imag-dt") {
		cfg.ImagDt = imagDt
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	return name, cfg, cfg.Validate()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	name, cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	job, err := scenario.Build(name, cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s (%s, grid %v, %d steps)...\n", name, cfg.Engine, cfg.Grid.Shape, cfg.Steps)
	start := time.Now()
	rep, err := job.Run(ctx)
	if rep == nil {
		return err
	}
	if errors.Is(err, context.Canceled) {
		fmt.Println("interrupted, keeping partial run")
	} else if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("steps: %d\n", rep.StepsTaken)
	for _, e := range rep.Errors {
		fmt.Printf("error: %s\n", e)
	}
	printMetrics(rep.Metrics)

	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(name, cfg, rep)
	if err != nil {
		return err
	}
	fmt.Printf("run id: %s\n", runID)
	return nil
}

func printMetrics(metrics map[string]float64) {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6g\n", name, metrics[name])
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tENGINE\tTIME\tGRID\tDT\tSTEPS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\t%d\n",
			run.ID,
			run.Engine,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Shape,
			formatDt(run.Dt, run.ImagDt),
			run.StepsTaken,
		)
	}
	return w.Flush()
}

func formatDt(re, im float64) string {
	if im == 0 {
		return fmt.Sprintf("%g", re)
	}
	return fmt.Sprintf("%g-%gi", re, im)
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(series.Times) < 2 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("engine: %s\n", meta.Engine)
	fmt.Printf("samples: %d\n\n", len(series.Times))

	for _, p := range []struct {
		caption string
		data    []float64
	}{
		{"energy", series.Energy},
		{"norm", series.Norm},
		{"<x>", series.Position},
	} {
		fmt.Println(asciigraph.Plot(p.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(p.caption+" vs time"),
		))
		fmt.Println()
	}

	if withDens && meta.Config != nil {
		_, density, err := st.LoadDensity(runID)
		if err != nil {
			return err
		}
		if len(density) > 0 {
			job, err := scenario.Build(meta.Name, meta.Config, logger)
			if err != nil {
				return err
			}
			c := viz.NewCanvas(72, 18)
			viz.DrawDensity(c, job.Grid(), density[len(density)-1], 0)
			fmt.Println("final density")
			fmt.Print(c.String())
		}
	}

	if svgPath != "" {
		svg := export.SeriesSVG(series.Times, series.Position, 800, 300, "#00ff88")
		if err := os.WriteFile(svgPath, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgPath)
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(series.Position) < 4 {
		return fmt.Errorf("no data")
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("engine: %s\n\n", meta.Engine)

	mean := floats.Sum(series.Position) / float64(len(series.Position))

	n := 1
	for n < len(series.Position) {
		n *= 2
	}
	padded := make([]float64, n)
	for i, x := range series.Position {
		padded[i] = x - mean
	}
	ps := spectral.PowerSpectrum(padded)

	fmt.Println(asciigraph.Plot(ps,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum (<x>)"),
	))
	fmt.Println()

	// Skip the DC bin.
	maxIdx := 1 + floats.MaxIdx(ps[1:])
	sample := series.Times[1] - series.Times[0]
	freq := float64(maxIdx) / (float64(n) * sample)
	fmt.Printf("dominant frequency: %.4f\n", freq)
	fmt.Printf("angular frequency: %.4f\n", 2*math.Pi*freq)
	if freq > 0 {
		fmt.Printf("period: %.4f\n", 1/freq)
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tENGINE\tUNITS\tGRID\tPOTENTIAL")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\n", name, p.Engine, p.Units, p.Grid.Shape, p.Potential.Kind)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nengines: %v\n", scenario.ListEngines())
	fmt.Printf("potentials: %v\n", scenario.ListPotentials())
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	name, cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	maxSteps := 0
	if cmd.Flags().Changed("steps") {
		maxSteps = cfg.Steps
	}
	return viz.Run(func() (scenario.Job, error) {
		return scenario.Build(name, cfg, logger)
	}, maxSteps)
}

func runEigen(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	states, err := scenario.Eigenstates(ctx, cfg, logger)
	if err != nil {
		return err
	}
	fmt.Printf("relaxed %d states in %v\n\n", len(states), time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "N\tENERGY\tSTEPS")
	for i, s := range states {
		fmt.Fprintf(w, "%d\t%.8f\t%d\n", i, s.Energy, s.Steps)
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	name, base, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if len(sweepVals) == 0 {
		return fmt.Errorf("--values is required")
	}

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	search := optim.NewGridSearch([]string{sweepParam}, [][]float64{sweepVals})
	points, err := search.Run(ctx, name, base, parallel, logger)
	if err != nil {
		return err
	}

	fmt.Printf("sweep of %s over %d values in %v\n\n", sweepParam, len(points), time.Since(start))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tENERGY\tENERGY_DRIFT\tNORM_DRIFT\tSTEPS\n", sweepParam)
	for _, p := range points {
		v := p.Params[sweepParam]
		if p.Err != nil {
			fmt.Fprintf(w, "%g\terror: %v\t\t\t\n", v, p.Err)
			continue
		}
		m := p.Report.Metrics
		fmt.Fprintf(w, "%g\t%.8g\t%.3e\t%.3e\t%d\n", v, m["energy"], m["energy_drift"], m["norm_drift"], p.Report.StepsTaken)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if best, v, ok := optim.Best(points, sweepMetric); ok {
		fmt.Printf("\nlowest %s: %.3e at %s\n", sweepMetric, v, best.Label())
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	b, err := automation.LoadBatch(args[0])
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	var save automation.SaveFunc
	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		save = func(name string, cfg *config.Config, rep *scenario.Report) error {
			runID, err := st.Save(name, cfg, rep)
			if err == nil {
				fmt.Printf("  saved %s\n", runID)
			}
			return err
		}
	}

	fmt.Printf("batch %s: %d runs\n", b.Name, len(b.Runs))
	out, err := automation.RunBatch(ctx, b, logger, save)
	for _, o := range out {
		fmt.Printf("  %s: %d steps, energy drift %.3e\n", o.Name, o.Report.StepsTaken, o.Report.Metrics["energy_drift"])
	}
	return err
}
