package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/pathintegral/mppi/internal/config"
	"github.com/pathintegral/mppi/internal/dynamo"
	"github.com/pathintegral/mppi/internal/experiment"
	"github.com/pathintegral/mppi/internal/integrators"
	"github.com/pathintegral/mppi/internal/metrics"
	"github.com/pathintegral/mppi/internal/mppi"
	"github.com/pathintegral/mppi/internal/optim"
	"github.com/pathintegral/mppi/internal/physics"
	"github.com/pathintegral/mppi/internal/sim"
	"github.com/pathintegral/mppi/internal/storage"
	"github.com/pathintegral/mppi/internal/tui"
)

var (
	dataDir    string
	configFile string
	preset     string

	dt         float64
	cycles     int
	seed       int64
	integrator string

	samples int
	horizon int
	lambda  float64
	sigma   float64

	theta float64
	omega float64
	pos   float64
	vel   float64
	goalX float64
	goalY float64

	jsonPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mppi",
		Short: "sampling-based receding-horizon control lab",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".mppi", "data directory")

	planCmd := &cobra.Command{
		Use:   "plan [world]",
		Short: "run a planning episode",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlan,
	}
	addEpisodeFlags(planCmd)
	planCmd.Flags().StringVar(&jsonPath, "json", "", "also export the episode as JSON to this path")

	liveCmd := &cobra.Command{
		Use:   "live [world]",
		Short: "run a planning episode with live visualization",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addEpisodeFlags(liveCmd)

	tuneCmd := &cobra.Command{
		Use:   "tune [world]",
		Short: "grid-search planner temperature and noise scale",
		Args:  cobra.ExactArgs(1),
		RunE:  runTune,
	}
	addEpisodeFlags(tuneCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [world]",
		Short: "list available presets for a world",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets(args[0])
			if len(names) == 0 {
				fmt.Printf("no presets for world: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range names {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	rootCmd.AddCommand(planCmd, liveCmd, tuneCmd, listCmd, plotCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addEpisodeFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "plant timestep")
	cmd.Flags().IntVar(&cycles, "cycles", config.DefaultCycles, "planning cycles")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator (euler|rk4)")
	cmd.Flags().IntVar(&samples, "samples", mppi.DefaultSamples, "sampled trajectories per cycle")
	cmd.Flags().IntVar(&horizon, "horizon", mppi.DefaultHorizon, "planning horizon")
	cmd.Flags().Float64Var(&lambda, "lambda", mppi.DefaultLambda, "softmin temperature")
	cmd.Flags().Float64Var(&sigma, "sigma", 1.0, "noise variance per action component")
	cmd.Flags().Float64Var(&theta, "theta", 0, "initial angle")
	cmd.Flags().Float64Var(&omega, "omega", 0.0, "initial angular velocity")
	cmd.Flags().Float64Var(&pos, "pos", 0.0, "initial position")
	cmd.Flags().Float64Var(&vel, "vel", 0.0, "initial velocity")
	cmd.Flags().Float64Var(&goalX, "goal-x", 2.0, "goal x (pointmass)")
	cmd.Flags().Float64Var(&goalY, "goal-y", 1.0, "goal y (pointmass)")
	cmd.Flags().StringVar(&configFile, "config", "", "experiment config file (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

// resolveConfig merges preset, config file and flags into one experiment
// config. Flags win over the file; the file wins over the preset.
func resolveConfig(cmd *cobra.Command, world string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.World = world

	if preset != "" {
		p := config.GetPreset(world, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(world))
		}
		*cfg = *p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		cfg.World = world
	}

	if cmd.Flags().Changed("dt") || cfg.Dt == 0 {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("cycles") || cfg.Cycles == 0 {
		cfg.Cycles = cycles
	}
	if cmd.Flags().Changed("integrator") || cfg.Integrator == "" {
		cfg.Integrator = integrator
	}
	if cmd.Flags().Changed("seed") || cfg.Planner.Seed == 0 {
		cfg.Planner.Seed = seed
	}
	if cmd.Flags().Changed("samples") {
		cfg.Planner.Samples = samples
	}
	if cmd.Flags().Changed("horizon") {
		cfg.Planner.Horizon = horizon
	}
	if cmd.Flags().Changed("lambda") {
		cfg.Planner.Lambda = lambda
	}
	if cmd.Flags().Changed("theta") {
		cfg.InitState.Theta = theta
	}
	if cmd.Flags().Changed("omega") {
		cfg.InitState.Omega = omega
	}
	if cmd.Flags().Changed("pos") {
		cfg.InitState.Pos = pos
	}
	if cmd.Flags().Changed("vel") {
		cfg.InitState.Vel = vel
	}
	if cmd.Flags().Changed("goal-x") {
		cfg.Goal.X = goalX
	}
	if cmd.Flags().Changed("goal-y") {
		cfg.Goal.Y = goalY
	}

	return cfg, nil
}

type setup struct {
	world   *sim.World
	planner *mppi.Controller
	obj     dynamo.Objective
	x0      dynamo.State
	info    storage.RunInfo
}

func buildSetup(cfg *config.Config, sigmaScale float64) (*setup, error) {
	var (
		sys dynamo.System
		obj dynamo.Objective
	)
	switch cfg.World {
	case "pendulum":
		sys = physics.NewPendulum()
		obj = sim.NewSwingUp()
	case "cartpole":
		sys = physics.NewCartPole()
		obj = sim.NewBalance()
	case "pointmass":
		sys = physics.NewPointMass()
		obj = sim.NewGoalReach(cfg.Goal.X, cfg.Goal.Y)
	default:
		return nil, fmt.Errorf("unknown world: %s", cfg.World)
	}

	var newInteg func() dynamo.Integrator
	switch cfg.Integrator {
	case "euler":
		newInteg = func() dynamo.Integrator { return integrators.NewEuler() }
	case "rk4":
		newInteg = func() dynamo.Integrator { return integrators.NewRK4() }
	default:
		return nil, fmt.Errorf("unknown integrator: %s", cfg.Integrator)
	}

	world := sim.NewWorld(sys, obj, newInteg, cfg.Dt)

	pcfg := cfg.Planner
	pcfg.NX = sys.StateDim()
	if len(pcfg.NoiseSigma) == 0 {
		nu := sys.ControlDim()
		pcfg.NoiseSigma = make([][]float64, nu)
		for i := range pcfg.NoiseSigma {
			pcfg.NoiseSigma[i] = make([]float64, nu)
			pcfg.NoiseSigma[i][i] = sigmaScale
		}
	} else if sigmaScale != 1.0 {
		scaled := make([][]float64, len(pcfg.NoiseSigma))
		for i, row := range pcfg.NoiseSigma {
			scaled[i] = make([]float64, len(row))
			for j, v := range row {
				scaled[i][j] = v * sigmaScale
			}
		}
		pcfg.NoiseSigma = scaled
	}
	if len(pcfg.UMin) == 0 {
		if a, ok := sys.(dynamo.Actuated); ok {
			lo, hi := a.ActuatorLimits()
			pcfg.UMin = append([]float64(nil), lo...)
			pcfg.UMax = append([]float64(nil), hi...)
		}
	}

	planner, err := mppi.New(pcfg, world)
	if err != nil {
		return nil, err
	}

	return &setup{
		world:   world,
		planner: planner,
		obj:     obj,
		x0:      dynamo.State(cfg.GetInitState()),
		info: storage.RunInfo{
			World:      cfg.World,
			Dt:         cfg.Dt,
			Seed:       pcfg.Seed,
			Integrator: cfg.Integrator,
			Lambda:     pcfg.Lambda,
			Samples:    planner.Config().Samples,
			Horizon:    planner.Config().Horizon,
		},
	}, nil
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	s, err := buildSetup(cfg, sigma)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ep := experiment.New(s.planner, s.world)
	ep.AddMetric(metrics.NewControlEffort())
	ep.AddMetric(metrics.NewObjectiveCost(s.obj))

	fmt.Printf("planning %s for %d cycles...\n", cfg.World, cfg.Cycles)
	start := time.Now()

	result, err := ep.Run(context.Background(), s.x0, cfg.Cycles)
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	runID, err := st.Save(s.info, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("final state: %v\n", result.States[len(result.States)-1])
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6f\n", name, val)
	}

	if jsonPath != "" {
		if err := storage.ExportJSON(jsonPath, s.info, result); err != nil {
			return err
		}
		fmt.Printf("exported: %s\n", jsonPath)
	}

	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	s, err := buildSetup(cfg, sigma)
	if err != nil {
		return err
	}

	model := tui.NewModel(s.planner, s.world, cfg.World, s.x0, cfg.Cycles)
	if cfg.World == "pointmass" {
		model.SetGoal(cfg.Goal.X, cfg.Goal.Y)
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}

	gs := optim.NewGridSearch(
		[]string{"lambda", "sigma"},
		[][]float64{
			{0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
			{0.25, 0.5, 1.0, 2.0, 4.0},
		},
	)

	fmt.Printf("tuning %s over %d cycles per point...\n", cfg.World, cfg.Cycles)

	s, err := buildSetup(cfg, 1.0)
	if err != nil {
		return err
	}
	baseSigma := s.planner.Config().NoiseSigma

	// One planner serves every grid point: each evaluation swaps the noise
	// distribution and temperature in place, then resets the sequence.
	evaluate := func(ctx context.Context, params map[string]float64) (float64, error) {
		scaled := make([][]float64, len(baseSigma))
		for i, row := range baseSigma {
			scaled[i] = make([]float64, len(row))
			for j, v := range row {
				scaled[i][j] = v * params["sigma"]
			}
		}
		if err := s.planner.UpdateParams(mppi.ParamUpdate{
			NoiseSigma: scaled,
			Lambda:     params["lambda"],
		}); err != nil {
			return 0, err
		}
		s.planner.Reset()

		ep := experiment.New(s.planner, s.world)
		result, err := ep.Run(ctx, s.x0, cfg.Cycles)
		if err != nil {
			return 0, err
		}

		// Score by accumulated plant cost along the executed trajectory.
		total := 0.0
		for _, x := range result.States {
			total += s.world.Cost(x)
		}
		return total, nil
	}

	best, score, err := gs.Search(context.Background(), evaluate)
	if err != nil {
		return err
	}
	if best == nil {
		return fmt.Errorf("no parameter point produced a valid episode")
	}

	fmt.Printf("best score: %.4f\n", score)
	fmt.Printf("  lambda: %.3f\n", best["lambda"])
	fmt.Printf("  sigma:  %.3f\n", best["sigma"])
	return nil
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
	fmt.Fprintln(w, "ID\tWORLD\tTIME\tCYCLES\tDT\tINTEG\tK\tT\tLAMBDA")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.3fs\t%s\t%d\t%d\t%.2f\n",
			run.ID,
			run.World,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Cycles,
			run.Dt,
			run.Integrator,
			run.Samples,
			run.Horizon,
			run.Lambda,
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

	states, _, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("world: %s\n", meta.World)
	fmt.Printf("samples: %d\n\n", len(states))

	numVars := len(states[0])
	if numVars > 6 {
		numVars = 6
	}

	for varIdx := 0; varIdx < numVars; varIdx++ {
		data := make([]float64, len(states))
		for i := range states {
			if varIdx < len(states[i]) {
				data[i] = states[i][varIdx]
			}
		}

		caption := fmt.Sprintf("x%d vs time", varIdx)
		switch meta.World {
		case "pendulum":
			if varIdx == 0 {
				caption = "theta (angle)"
			} else if varIdx == 1 {
				caption = "omega (angular velocity)"
			}
		case "cartpole":
			switch varIdx {
			case 0:
				caption = "cart position"
			case 1:
				caption = "cart velocity"
			case 2:
				caption = "pole angle"
			case 3:
				caption = "pole angular velocity"
			}
		case "pointmass":
			captions := []string{"x", "y", "vx", "vy"}
			if varIdx < len(captions) {
				caption = captions[varIdx]
			}
		}

		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}
