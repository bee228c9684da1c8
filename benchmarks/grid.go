package benchmarks

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/zeu5/state-abs/abstraction"
	"github.com/zeu5/state-abs/config"
	"github.com/zeu5/state-abs/grid"
	"github.com/zeu5/state-abs/planning"
	"github.com/zeu5/state-abs/util"
	"go.uber.org/zap"
)

var (
	height   int
	width    int
	goals    []string
	walls    []string
	discount float64
	slipProb float64
	stepCost float64
	plotFile string
)

func addGridFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&height, "height", 5, "Height of the grid")
	cmd.Flags().IntVar(&width, "width", 5, "Width of the grid")
	cmd.Flags().StringArrayVar(&goals, "goal", []string{"4,4"}, "Goal cell as i,j, repeat for several goals")
	cmd.Flags().StringArrayVar(&walls, "wall", []string{}, "Wall cell as i,j, repeat for several walls")
	cmd.Flags().Float64Var(&discount, "discount", 0.95, "Discount factor")
	cmd.Flags().Float64Var(&slipProb, "slip", 0, "Probability of slipping to a perpendicular direction")
	cmd.Flags().Float64Var(&stepCost, "step-cost", 0, "Cost of every step")
}

func parsePositions(values []string) ([]config.Position, error) {
	out := make([]config.Position, 0, len(values))
	for _, v := range values {
		parts := strings.Split(v, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid cell %q, expected i,j", v)
		}
		i, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid cell %q: %w", v, err)
		}
		j, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid cell %q: %w", v, err)
		}
		out = append(out, config.Position{I: i, J: j})
	}
	return out, nil
}

func applyGridFlags(cmd *cobra.Command, cfg *config.BuildConfig) error {
	flags := cmd.Flags()
	override := func(name string) bool {
		return flags.Lookup(name) != nil && (flags.Changed(name) || configPath == "")
	}
	if override("height") {
		cfg.Grid.Height = height
	}
	if override("width") {
		cfg.Grid.Width = width
	}
	if override("discount") {
		cfg.Grid.Discount = discount
	}
	if override("slip") {
		cfg.Grid.SlipProb = slipProb
	}
	if override("step-cost") {
		cfg.Grid.StepCost = stepCost
	}
	if override("goal") {
		positions, err := parsePositions(goals)
		if err != nil {
			return err
		}
		cfg.Grid.Goals = positions
	}
	if override("wall") {
		positions, err := parsePositions(walls)
		if err != nil {
			return err
		}
		cfg.Grid.Walls = positions
	}
	return nil
}

// runSummary is recorded in the save folder
type runSummary struct {
	Command        string              `json:"command"`
	Config         *config.BuildConfig `json:"config"`
	Tasks          int                 `json:"tasks"`
	GroundStates   int                 `json:"ground_states"`
	AbstractStates int                 `json:"abstract_states"`
	Duration       string              `json:"duration"`
}

func recordSummary(summary runSummary) error {
	if saveFile == "" {
		return nil
	}
	return util.WriteJSON(path.Join(saveFile, summary.Command+"_summary.json"), summary)
}

// GridAbstraction abstracts one grid world that has all the configured goals
func GridAbstraction(ctx context.Context, cfg *config.BuildConfig, logger *zap.Logger) (*abstraction.StateAbstraction, error) {
	pred, err := cfg.PredicateImpl()
	if err != nil {
		return nil, err
	}
	world := grid.NewGridWorld(cfg.GridConfig(), cfg.GoalPositions()...)
	planner := planning.NewValueIteration(cfg.ValueIterationConfig(logger))
	return abstraction.BuildFromMDP(ctx, world, planner, pred, cfg.BuilderConfig(logger))
}

// GridMultiAbstraction abstracts the uniform distribution of grid
// worlds with one goal each, reporting progress per task
func GridMultiAbstraction(ctx context.Context, cfg *config.BuildConfig, logger *zap.Logger, progress abstraction.ProgressFunc) (*abstraction.StateAbstraction, error) {
	pred, err := cfg.PredicateImpl()
	if err != nil {
		return nil, err
	}
	dist, err := grid.GoalDistribution(cfg.GridConfig(), cfg.GoalPositions())
	if err != nil {
		return nil, err
	}
	planner := planning.NewValueIteration(cfg.ValueIterationConfig(logger))
	builderConfig := cfg.BuilderConfig(logger)
	builderConfig.Progress = progress
	return abstraction.BuildMultiTask(ctx, dist, planner, pred, builderConfig)
}

func printGrid(cfg *config.BuildConfig, sa *abstraction.StateAbstraction) error {
	world := grid.NewGridWorld(cfg.GridConfig(), cfg.GoalPositions()...)
	ds, err := grid.NewAbstractionDataSet(world, sa)
	if err != nil {
		return err
	}
	fmt.Printf("Ground states: %d, Abstract states: %d\n", sa.NumGroundStates(), sa.NumAbstractStates())
	fmt.Print(ds.String())
	if plotFile != "" {
		title := fmt.Sprintf("%s, epsilon %g", cfg.Predicate, cfg.Epsilon)
		return ds.SavePlot(title, plotFile)
	}
	return nil
}

func addPlotFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&plotFile, "plot", "", "Save a heat map of the abstraction to the file (png, svg or pdf)")
}

func runGrid(cmd *cobra.Command, multi bool) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	start := time.Now()
	var sa *abstraction.StateAbstraction
	tasks := 1
	if multi {
		tasks = len(cfg.Grid.Goals)
		printer := NewProgressPrinter(ctx, 500*time.Millisecond)
		printer.Start()
		sa, err = GridMultiAbstraction(ctx, cfg, logger, printer.Update)
		printer.Stop()
	} else {
		sa, err = GridAbstraction(ctx, cfg, logger)
	}
	if err != nil {
		return err
	}
	if err := printGrid(cfg, sa); err != nil {
		return err
	}
	return recordSummary(runSummary{
		Command:        cmd.Name(),
		Config:         cfg,
		Tasks:          tasks,
		GroundStates:   sa.NumGroundStates(),
		AbstractStates: sa.NumAbstractStates(),
		Duration:       time.Since(start).String(),
	})
}

func GridCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Abstract a single grid world",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGrid(cmd, false)
		},
	}
	addGridFlags(cmd)
	addPlotFlag(cmd)
	return cmd
}

func GridMultiCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grid-multi",
		Short: "Abstract the distribution of grid worlds with one goal each",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGrid(cmd, true)
		},
	}
	addGridFlags(cmd)
	addPlotFlag(cmd)
	return cmd
}
