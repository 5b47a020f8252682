package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kinetic-lang/kinetic/internal/analysis"
	"github.com/kinetic-lang/kinetic/internal/config"
	"github.com/kinetic-lang/kinetic/internal/parser"
	"github.com/kinetic-lang/kinetic/internal/runtime"
	"github.com/kinetic-lang/kinetic/internal/storage"
	"github.com/kinetic-lang/kinetic/internal/tui"
	"github.com/kinetic-lang/kinetic/internal/viz"
)

var (
	configFile string
	dataDir    string
	preset     string
	jsonOut    bool
	saveRun    bool
	detector   string
	plotEnergy bool
	exportFmt  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "kinetic",
		Short:         "particle scene language runner",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (overrides config)")

	runCmd := &cobra.Command{
		Use:   "run [file.kin]",
		Short: "run a program and print its detectors",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runProgram,
	}
	runCmd.Flags().StringVar(&preset, "preset", "", "run a built-in preset instead of a file")
	runCmd.Flags().BoolVar(&jsonOut, "json", false, "print the result as JSON")
	runCmd.Flags().BoolVar(&saveRun, "save", false, "record the run in the data directory")

	checkCmd := &cobra.Command{
		Use:   "check <file.kin>",
		Short: "parse and analyze without running",
		Args:  cobra.ExactArgs(1),
		RunE:  checkProgram,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [file.kin]",
		Short: "plot a detector value over the run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotProgram,
	}
	plotCmd.Flags().StringVar(&preset, "preset", "", "plot a built-in preset instead of a file")
	plotCmd.Flags().StringVar(&detector, "detector", "", "detector to plot (default: the first)")
	plotCmd.Flags().BoolVar(&plotEnergy, "energy", false, "plot kinetic energy instead of a detector")

	watchCmd := &cobra.Command{
		Use:   "watch [file.kin]",
		Short: "watch a file and rerun it live on change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if preset != "" {
				source, name, err := loadSource(nil)
				if err != nil {
					return err
				}
				return tui.RunSource(name, source, cfg)
			}
			if len(args) == 0 {
				return fmt.Errorf("a file argument or --preset is required")
			}
			return tui.Run(args[0], cfg)
		},
	}
	watchCmd.Flags().StringVar(&preset, "preset", "", "watch a built-in preset instead of a file")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		RunE:  listRuns,
	}

	exportCmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "export a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&exportFmt, "format", "json", "export format: json or csv")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in example programs",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, checkCmd, plotCmd, watchCmd, listCmd, exportCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	path := configFile
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	return cfg, nil
}

// loadSource resolves the program text from --preset or a file argument.
func loadSource(args []string) (source, name string, err error) {
	if preset != "" {
		src, ok := config.GetPreset(preset)
		if !ok {
			return "", "", fmt.Errorf("unknown preset %q (see 'kinetic presets')", preset)
		}
		return src, preset + ".kin", nil
	}
	if len(args) == 0 {
		return "", "", fmt.Errorf("a file argument or --preset is required")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", err
	}
	return string(data), args[0], nil
}

func runProgram(cmd *cobra.Command, args []string) error {
	source, name, err := loadSource(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sim, diags, err := runtime.BuildContext(source)
	for _, w := range diags.Warnings() {
		fmt.Fprintln(cmd.ErrOrStderr(), w.Render(source))
	}
	if err != nil {
		return err
	}

	var header []string
	var trace [][]float64
	if saveRun {
		header = traceHeader(sim)
	}

	for !sim.Done() {
		if saveRun {
			row, err := traceRow(sim)
			if err != nil {
				return err
			}
			trace = append(trace, row)
		}
		sim.Step()
	}

	detectors, err := runtime.EvaluateDetectors(sim)
	if err != nil {
		return err
	}

	if saveRun {
		row, err := traceRow(sim)
		if err != nil {
			return err
		}
		trace = append(trace, row)

		store, err := storage.Open(cfg.DataDir)
		if err != nil {
			return err
		}
		defer store.Close()
		id, err := store.SaveRun(name, sim.Dt(), sim.MaxSteps(), detectors, header, trace)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "saved run %s\n", id)
	}

	if jsonOut || cfg.Output == "json" {
		fmt.Fprintln(cmd.OutOrStdout(), "{")
		fmt.Fprintln(cmd.OutOrStdout(), `  "detectors": {`)
		for i, d := range detectors {
			comma := ","
			if i == len(detectors)-1 {
				comma = ""
			}
			fmt.Fprintf(cmd.OutOrStdout(), "    %q: %.12f%s\n", d.Name, d.Value, comma)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "  }")
		fmt.Fprintln(cmd.OutOrStdout(), "}")
		return nil
	}
	for _, d := range detectors {
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %.6f\n", d.Name, d.Value)
	}
	return nil
}

func traceHeader(sim *runtime.Context) []string {
	header := []string{"step", "time"}
	for _, p := range sim.Snapshot() {
		header = append(header, p.Name+".x", p.Name+".y")
	}
	if detectors, err := runtime.EvaluateDetectors(sim); err == nil {
		for _, d := range detectors {
			header = append(header, d.Name)
		}
	}
	return header
}

func traceRow(sim *runtime.Context) ([]float64, error) {
	row := []float64{float64(sim.StepCount()), sim.Time()}
	for _, p := range sim.Snapshot() {
		row = append(row, p.Pos.X, p.Pos.Y)
	}
	detectors, err := runtime.EvaluateDetectors(sim)
	if err != nil {
		return nil, err
	}
	for _, d := range detectors {
		row = append(row, d.Value)
	}
	return row, nil
}

func checkProgram(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	source := string(data)

	prog, err := parser.Parse(source)
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), err)
		os.Exit(1)
	}

	diags := analysis.Analyze(prog)
	for _, d := range diags {
		fmt.Fprintln(cmd.OutOrStdout(), d.Render(source))
		fmt.Fprintln(cmd.OutOrStdout())
	}
	if diags.HasErrors() {
		os.Exit(1)
	}
	if len(diags) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No issues found.")
	}
	return nil
}

func plotProgram(cmd *cobra.Command, args []string) error {
	source, _, err := loadSource(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sim, diags, err := runtime.BuildContext(source)
	for _, w := range diags.Warnings() {
		fmt.Fprintln(cmd.ErrOrStderr(), w.Render(source))
	}
	if err != nil {
		return err
	}

	series := viz.Series{Name: detector}
	if plotEnergy {
		series.Name = "kinetic energy"
	}

	record := func() error {
		if plotEnergy {
			series.Record(sim.World().KineticEnergy())
			return nil
		}
		detectors, err := runtime.EvaluateDetectors(sim)
		if err != nil {
			return err
		}
		if len(detectors) == 0 {
			return fmt.Errorf("program declares no detectors; try --energy")
		}
		if detector == "" {
			series.Name = detectors[0].Name
			series.Record(detectors[0].Value)
			return nil
		}
		for _, d := range detectors {
			if d.Name == detector {
				series.Record(d.Value)
				return nil
			}
		}
		return fmt.Errorf("no detector named %q", detector)
	}

	if err := record(); err != nil {
		return err
	}
	for !sim.Done() {
		sim.Step()
		if err := record(); err != nil {
			return err
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), series.Plot(cfg.PlotWidth, cfg.PlotHeight))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := storage.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no recorded runs")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFILE\tWHEN\tDT\tSTEPS")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%d\n",
			r.ID, r.File, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Dt, r.Steps)
	}
	return w.Flush()
}

func exportRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := storage.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	switch exportFmt {
	case "json":
		return store.ExportJSON(cmd.OutOrStdout(), args[0])
	case "csv":
		return store.ExportCSV(cmd.OutOrStdout(), args[0])
	default:
		return fmt.Errorf("unknown format %q (want json or csv)", exportFmt)
	}
}
