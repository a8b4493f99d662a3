package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/camellia2077/EV-TMS-PLOT/internal/analysis"
	"github.com/camellia2077/EV-TMS-PLOT/internal/engine"
	"github.com/camellia2077/EV-TMS-PLOT/internal/metrics"
	"github.com/camellia2077/EV-TMS-PLOT/internal/params"
	"github.com/camellia2077/EV-TMS-PLOT/internal/refrig"
	"github.com/camellia2077/EV-TMS-PLOT/internal/render"
	"github.com/camellia2077/EV-TMS-PLOT/internal/storage"
	"github.com/camellia2077/EV-TMS-PLOT/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string

	ambient     float64
	duration    float64
	dt          float64
	vStart      float64
	vEnd        float64
	rampUp      float64
	refrigerant string
	passengers  int

	outDir    string
	frameRate int
	speedup   int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "evtms",
		Short: "EV powertrain and cabin thermal co-simulation",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".evtms", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation",
		RunE:  runSimulation,
	}
	addScenarioFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "terminal plots of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "control transitions and temperature statistics",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	renderCmd := &cobra.Command{
		Use:   "render [run_id]",
		Short: "render charts of a stored run to PNG",
		Args:  cobra.ExactArgs(1),
		RunE:  renderRun,
	}
	renderCmd.Flags().StringVar(&outDir, "out", "", "output directory (default: the run directory)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "write run series as CSV to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "write run metadata and series as JSON to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run with a live terminal view",
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")
	liveCmd.Flags().IntVar(&speedup, "speedup", 10, "simulated steps per frame")

	cycleCmd := &cobra.Command{
		Use:   "cycle",
		Short: "resolve and print the refrigeration cycle",
		RunE:  showCycle,
	}
	addScenarioFlags(cycleCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list scenario presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range params.ListPresets() {
				fmt.Println(name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, analyzeCmd, renderCmd,
		exportCSVCmd, exportJSONCmd, liveCmd, cycleCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "scenario preset")
	cmd.Flags().Float64Var(&ambient, "ambient", 35.0, "ambient temperature [C]")
	cmd.Flags().Float64Var(&duration, "time", 2100.0, "duration [s]")
	cmd.Flags().Float64Var(&dt, "dt", 1.0, "timestep [s]")
	cmd.Flags().Float64Var(&vStart, "v-start", 60.0, "initial speed [km/h]")
	cmd.Flags().Float64Var(&vEnd, "v-end", 120.0, "final speed [km/h]")
	cmd.Flags().Float64Var(&rampUp, "ramp", 300.0, "speed ramp duration [s]")
	cmd.Flags().StringVar(&refrigerant, "refrigerant", "R1234yf", "working fluid")
	cmd.Flags().IntVar(&passengers, "passengers", 2, "cabin occupancy")
}

// buildParams resolves preset < config file < explicit flags.
func buildParams(cmd *cobra.Command) (*params.Params, error) {
	p := params.Default()
	if preset != "" {
		p = params.Preset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, params.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := params.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		p = loaded
	}
	if cmd.Flags().Changed("ambient") {
		p.Simulation.AmbientC = ambient
	}
	if cmd.Flags().Changed("time") {
		p.Simulation.DurationS = duration
	}
	if cmd.Flags().Changed("dt") {
		p.Simulation.DtS = dt
	}
	if cmd.Flags().Changed("v-start") {
		p.Speed.VStartKmh = vStart
	}
	if cmd.Flags().Changed("v-end") {
		p.Speed.VEndKmh = vEnd
	}
	if cmd.Flags().Changed("ramp") {
		p.Speed.RampUpS = rampUp
	}
	if cmd.Flags().Changed("refrigerant") {
		p.Refrigeration.Refrigerant = refrigerant
	}
	if cmd.Flags().Changed("passengers") {
		p.Vehicle.Passengers = passengers
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func setpointsOf(p *params.Params) refrig.Setpoints {
	return refrig.Setpoints{
		SuctionC:     p.Refrigeration.SuctionC,
		CondSatC:     p.Refrigeration.CondSatC,
		SubcoolExitC: p.Refrigeration.SubcoolExitC,
		EvapSatC:     p.Refrigeration.EvapSatC,
		DischargeC:   p.Refrigeration.DischargeC,
	}
}

func buildEngine(p *params.Params) (*engine.Engine, float64, error) {
	cop, _, err := refrig.ComputeCOP(setpointsOf(p), p.Refrigeration.Refrigerant)
	if err != nil {
		return nil, 0, err
	}
	e, err := engine.New(p, cop)
	if err != nil {
		return nil, 0, err
	}
	return e, cop, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	p, err := buildParams(cmd)
	if err != nil {
		return err
	}
	e, cop, err := buildEngine(p)
	if err != nil {
		return err
	}
	e.AddMetric(metrics.NewPeakTemperature(engine.ChMotor))
	e.AddMetric(metrics.NewPeakTemperature(engine.ChBattery))
	e.AddMetric(metrics.NewPeakTemperature(engine.ChCoolant))
	e.AddMetric(metrics.NewCompressorEnergy(p.Simulation.DtS))
	e.AddMetric(metrics.NewChillerDuty())

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("running %s / %.0f C ambient / %.0f s...\n",
		p.Refrigeration.Refrigerant, p.Simulation.AmbientC, p.Simulation.DurationS)
	start := time.Now()
	result, err := e.Run(context.Background())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(preset, p, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("samples: %d\n", len(result.History.Records))
	fmt.Printf("COP: %.3f\n", cop)
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.4f\n", name, val)
	}
	for _, adv := range result.Advisories {
		fmt.Printf("\nadvisory: %s\n", adv)
	}
	return nil
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
	fmt.Fprintln(w, "ID\tTIME\tPRESET\tREFRIG\tCOP\tAMBIENT\tDURATION\tDT")
	for _, run := range runs {
		presetName := run.Preset
		if presetName == "" {
			presetName = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%.1fC\t%.0fs\t%.2fs\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			presetName,
			run.Refrigerant,
			run.COP,
			run.AmbientC,
			run.Duration,
			run.Dt,
		)
	}
	return w.Flush()
}

func loadHistory(runID string) (*storage.RunMetadata, engine.History, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, engine.History{}, err
	}
	series, err := st.LoadSeries(runID)
	if err != nil {
		return nil, engine.History{}, err
	}
	return meta, series.History(meta.Dt), nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, h, err := loadHistory(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("refrigerant: %s (COP %.2f)\n", meta.Refrigerant, meta.COP)
	fmt.Printf("samples: %d\n\n", len(h.Records))

	for _, ch := range engine.Channels() {
		graph := asciigraph.Plot(h.TempSeries(ch),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(ch.String()+" [C]"),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	graph := asciigraph.Plot(h.Series(func(r engine.Record) float64 { return r.Out.PCompElec }),
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("compressor draw [W]"),
	)
	fmt.Println(graph)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, h, err := loadHistory(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("run: %s\n\n", meta.ID)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CHANNEL\tMIN\tMAX\tAT\tFINAL")
	for _, s := range analysis.Summarize(h) {
		fmt.Fprintf(w, "%s\t%.2fC\t%.2fC\t%.0fs\t%.2fC\n",
			s.Channel, s.MinC, s.MaxC, s.TMaxAt, s.FinalC)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\ncompressor energy: %.1f Wh\n", analysis.CompressorEnergyWh(h))
	fmt.Printf("chiller duty: %.1f%%\n", 100*analysis.ChillerDuty(h))

	transitions := analysis.ChillerTransitions(h)
	fmt.Printf("chiller transitions: %d\n", len(transitions))
	for _, tr := range transitions {
		state := "OFF"
		if tr.On {
			state = "ON"
		}
		fmt.Printf("  t=%.0fs %s\n", tr.Time, state)
	}

	extrema := analysis.LocalExtrema(h.Times(), h.TempSeries(engine.ChCoolant))
	if len(extrema) > 0 {
		fmt.Printf("\ncoolant extrema (%d):\n", len(extrema))
		for i, ex := range extrema {
			if i >= 10 {
				fmt.Printf("  ... %d more\n", len(extrema)-i)
				break
			}
			kind := "min"
			if ex.Max {
				kind = "max"
			}
			fmt.Printf("  t=%.0fs %.2fC (%s)\n", ex.Time, ex.Value, kind)
		}
	}
	return nil
}

func renderRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	_, h, err := loadHistory(runID)
	if err != nil {
		return err
	}
	p, err := storage.New(dataDir).LoadParams(runID)
	if err != nil {
		return err
	}
	dir := outDir
	if dir == "" {
		dir = filepath.Join(dataDir, runID)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	paths, err := render.All(h, p, dir)
	if err != nil {
		return err
	}
	for _, path := range paths {
		fmt.Println(path)
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	f, err := os.Open(filepath.Join(dataDir, args[0], "series.csv"))
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(os.Stdout, f)
	return err
}

func exportJSON(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
}

func runLive(cmd *cobra.Command, args []string) error {
	p, err := buildParams(cmd)
	if err != nil {
		return err
	}
	e, _, err := buildEngine(p)
	if err != nil {
		return err
	}
	m := viz.NewModel(e.Cursor, speedup, frameRate)
	prog := tea.NewProgram(m)
	_, err = prog.Run()
	return err
}

func showCycle(cmd *cobra.Command, args []string) error {
	p, err := buildParams(cmd)
	if err != nil {
		return err
	}
	cop, cd, err := refrig.ComputeCOP(setpointsOf(p), p.Refrigeration.Refrigerant)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "refrigerant\t%s\n", cd.Refrigerant)
	fmt.Fprintf(w, "evaporating pressure\t%.1f kPa\n", cd.PEvapKPa)
	fmt.Fprintf(w, "condensing pressure\t%.1f kPa\n", cd.PCondKPa)
	fmt.Fprintf(w, "h1 compressor in\t%.1f kJ/kg\n", cd.H1)
	fmt.Fprintf(w, "h2 compressor out\t%.1f kJ/kg\n", cd.H2)
	fmt.Fprintf(w, "h3 condenser out\t%.1f kJ/kg\n", cd.H3)
	fmt.Fprintf(w, "superheat\t%.1f K\n", cd.SuperheatC)
	fmt.Fprintf(w, "subcooling\t%.1f K\n", cd.SubcoolingC)
	fmt.Fprintf(w, "specific work\t%.1f kJ/kg\n", cd.WCompKJkg)
	fmt.Fprintf(w, "refrigeration effect\t%.1f kJ/kg\n", cd.QEvapKJkg)
	fmt.Fprintf(w, "COP\t%.3f\n", cop)
	return w.Flush()
}
