package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/drivesim/internal/analysis"
	"github.com/san-kum/drivesim/internal/config"
	"github.com/san-kum/drivesim/internal/engine"
	"github.com/san-kum/drivesim/internal/experiment"
	"github.com/san-kum/drivesim/internal/storage"
)

var (
	dataDir    string
	configFile string
	preset     string
	stopTime   float64
	speedRefHz float64
	switchFreq float64
	integrator string
	averaged   bool
	jsonOut    string
	channel    string
	logEvery   int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "drivesim",
		Short: "variable-speed AC drive simulator",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".drivesim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a closed-loop drive simulation",
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "2.2kw", "preset configuration")
	runCmd.Flags().Float64Var(&stopTime, "time", 0, "simulated horizon in seconds")
	runCmd.Flags().Float64Var(&speedRefHz, "ref", 0, "speed reference in electrical Hz")
	runCmd.Flags().Float64Var(&switchFreq, "fsw", 0, "switching frequency in Hz")
	runCmd.Flags().StringVar(&integrator, "integrator", "", "integrator name")
	runCmd.Flags().BoolVar(&averaged, "averaged", false, "replace PWM with averaged modulation")
	runCmd.Flags().IntVar(&logEvery, "log-every", 0, "record every n-th control step")
	runCmd.Flags().StringVar(&jsonOut, "json", "", "also export full run data to a JSON file")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored channel",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&channel, "channel", "speed", "channel to plot")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a stored channel",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&channel, "channel", "isa", "channel to analyze")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset configurations",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets()
			sort.Strings(names)
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}

	compareCmd := &cobra.Command{
		Use:   "compare [integrator1] [integrator2] ...",
		Short: "run the same scenario under different integrators",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareIntegrators,
	}
	compareCmd.Flags().StringVar(&preset, "preset", "2.2kw-averaged", "preset configuration")
	compareCmd.Flags().Float64Var(&stopTime, "time", 0, "simulated horizon in seconds")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, analyzeCmd, presetsCmd, compareCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildConfig resolves preset, config file and flag overrides in that order.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("time") {
		cfg.Sim.StopTime = stopTime
	}
	if cmd.Flags().Changed("ref") {
		cfg.Scenario.SpeedRefHz = speedRefHz
	}
	if cmd.Flags().Changed("fsw") {
		cfg.Sim.SwitchingFreq = switchFreq
	}
	if cmd.Flags().Changed("integrator") {
		cfg.Sim.Integrator = integrator
	}
	if cmd.Flags().Changed("averaged") {
		cfg.Sim.PWM = !averaged
	}
	if cmd.Flags().Changed("log-every") {
		cfg.Sim.LogEvery = logEvery
	}
	return cfg, nil
}

func metadata(cfg *config.Config) storage.RunMetadata {
	return storage.RunMetadata{
		Preset:        preset,
		SwitchingFreq: cfg.Sim.SwitchingFreq,
		PWM:           cfg.Sim.PWM,
		StopTime:      cfg.Sim.StopTime,
		Integrator:    cfg.Sim.Integrator,
		SpeedRefHz:    cfg.Scenario.SpeedRefHz,
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp, err := experiment.Build(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("running drive simulation (%.2fs horizon, %s)...\n",
		cfg.Sim.StopTime, modulationName(cfg))
	start := time.Now()

	rec, err := exp.Engine.Run(context.Background())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	meta := metadata(cfg)
	runID, err := st.Save(meta, rec)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("samples: %d\n", rec.Len())

	last := rec.Last()
	fmt.Printf("\nfinal state:\n")
	fmt.Printf("  speed: %.2f rad/s mechanical\n", last.Speed)
	fmt.Printf("  torque: %.2f N.m\n", last.Torque)
	fmt.Printf("  dc link: %.1f V\n", last.DCVoltage)

	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(rec.Metrics()))
	for name := range rec.Metrics() {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, rec.Metrics()[name])
	}

	if speed := rec.Channel("speed"); len(speed) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(decimate(speed, 160),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("mechanical speed (rad/s)"),
		))
	}

	if jsonOut != "" {
		meta.ID = runID
		if err := storage.ExportJSONFile(jsonOut, meta, rec); err != nil {
			return err
		}
		fmt.Printf("\nexported to %s\n", jsonOut)
	}
	return nil
}

func modulationName(cfg *config.Config) string {
	if cfg.Sim.PWM {
		return "pwm"
	}
	return "averaged"
}

// decimate thins a series to at most n points so wide runs still fit a
// terminal plot.
func decimate(data []float64, n int) []float64 {
	if len(data) <= n {
		return data
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = data[i*len(data)/n]
	}
	return out
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tHORIZON\tFSW\tMODE\tREF")

	for _, run := range runs {
		mode := "averaged"
		if run.PWM {
			mode = "pwm"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.0fHz\t%s\t%.0fHz\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.StopTime,
			run.SwitchingFreq,
			mode,
			run.SpeedRefHz,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	channels, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	data, ok := channels[channel]
	if !ok || len(data) == 0 {
		return fmt.Errorf("no channel %q in run %s", channel, runID)
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", len(data))
	fmt.Println(asciigraph.Plot(decimate(data, 160),
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("%s vs time", channel)),
	))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	channels, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	data, ok := channels[channel]
	if !ok || len(data) < 2 {
		return fmt.Errorf("no channel %q in run %s", channel, runID)
	}

	sampleRate := meta.SwitchingFreq
	if sampleRate == 0 {
		sampleRate = config.DefaultSwitchingFreq
	}

	spectrum := analysis.NewSpectrum(data, sampleRate)
	peak, mag := spectrum.Peak(1)

	fmt.Printf("frequency analysis: %s, channel %s\n", meta.ID, channel)
	fmt.Printf("dominant component: %.1f Hz (magnitude %.3f)\n", peak, mag)
	if peak > 0 {
		fmt.Printf("thd relative to %.1f Hz: %.4f\n", peak, spectrum.THD(peak))
	}

	quarter := spectrum.Mags
	if len(quarter) > 4 {
		quarter = quarter[:len(quarter)/4]
	}
	fmt.Println()
	fmt.Println(asciigraph.Plot(decimate(quarter, 160),
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("magnitude spectrum (low quarter)"),
	))
	return nil
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	base, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	ens := engine.NewEnsemble(func(idx int) (*engine.Engine, error) {
		cfg := *base
		cfg.Sim.Integrator = args[idx]
		exp, err := experiment.Build(&cfg)
		if err != nil {
			return nil, err
		}
		return exp.Engine, nil
	}, len(args))

	start := time.Now()
	recs, err := ens.Run(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("completed %d runs in %v\n\n", len(recs), time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tFINAL SPEED\tENERGY DRIFT\tDC RIPPLE\tSPEED RMS ERR")
	for i, rec := range recs {
		m := rec.Metrics()
		fmt.Fprintf(w, "%s\t%.3f\t%.6f\t%.6f\t%.3f\n",
			args[i],
			rec.Last().Speed,
			m["energy_drift"],
			m["dc_ripple"],
			m["speed_rms_error"],
		)
	}
	return w.Flush()
}
