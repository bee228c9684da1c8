package benchmarks

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zeu5/state-abs/abstraction"
	"github.com/zeu5/state-abs/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath string
	saveFile   string
	debug      bool

	predicate           string
	epsilon             float64
	consolidation       string
	trackOptimalActions bool
	workers             int
	taskWorkers         int
)

func GetRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:          "state-abs",
		Short:        "Build state abstractions of decision processes and task distributions",
		SilenceUsage: true,
	}
	rootCommand.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file, flags override its values")
	rootCommand.PersistentFlags().StringVarP(&saveFile, "save", "s", "", "Save a summary of the run in the specified folder")
	rootCommand.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCommand.PersistentFlags().StringVarP(&predicate, "predicate", "p", "q-approx", fmt.Sprintf("Equivalence predicate, one of %v or a '+' conjunction", abstraction.PredicateNames()))
	rootCommand.PersistentFlags().Float64VarP(&epsilon, "epsilon", "e", 0, "Tolerance of the equivalence predicate")
	rootCommand.PersistentFlags().StringVar(&consolidation, "consolidation", string(abstraction.FirstOccurrence), "How equivalent pairs become clusters: first-occurrence or transitive")
	rootCommand.PersistentFlags().BoolVar(&trackOptimalActions, "track-actions", false, "Record the optimal actions of every ground state")
	rootCommand.PersistentFlags().IntVar(&workers, "workers", 1, "Goroutines comparing state pairs")
	rootCommand.PersistentFlags().IntVar(&taskWorkers, "task-workers", 0, "Tasks abstracted concurrently, 0 for all")
	// adding the subcommands here
	rootCommand.AddCommand(GridCommand())
	rootCommand.AddCommand(GridMultiCommand())
	rootCommand.AddCommand(ServeCommand())
	return rootCommand
}

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// loadConfig reads the configuration file, if any, and applies the
// flags that were set explicitly on top of it
func loadConfig(cmd *cobra.Command) (*config.BuildConfig, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	flags := cmd.Flags()
	if flags.Changed("predicate") || configPath == "" {
		cfg.Predicate = predicate
	}
	if flags.Changed("epsilon") || configPath == "" {
		cfg.Epsilon = epsilon
	}
	if flags.Changed("consolidation") || configPath == "" {
		cfg.Consolidation = consolidation
	}
	if flags.Changed("track-actions") || configPath == "" {
		cfg.TrackOptimalActions = trackOptimalActions
	}
	if flags.Changed("workers") || configPath == "" {
		cfg.Workers = workers
	}
	if flags.Changed("task-workers") || configPath == "" {
		cfg.TaskWorkers = taskWorkers
	}
	if err := applyGridFlags(cmd, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
