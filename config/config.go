// Package config holds the configuration of an abstraction run, read
// from a YAML file and overridden by command line flags
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/zeu5/state-abs/abstraction"
	"github.com/zeu5/state-abs/grid"
	"github.com/zeu5/state-abs/planning"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Position struct {
	I int `yaml:"i" json:"i" validate:"gte=0"`
	J int `yaml:"j" json:"j" validate:"gte=0"`
}

type GridSection struct {
	Height   int        `yaml:"height" json:"height" validate:"gte=1"`
	Width    int        `yaml:"width" json:"width" validate:"gte=1"`
	Start    Position   `yaml:"start" json:"start"`
	Goals    []Position `yaml:"goals" json:"goals" validate:"required,min=1,dive"`
	Walls    []Position `yaml:"walls" json:"walls" validate:"dive"`
	StepCost float64    `yaml:"step_cost" json:"step_cost" validate:"gte=0"`
	SlipProb float64    `yaml:"slip_prob" json:"slip_prob" validate:"gte=0,lte=1"`
	Discount float64    `yaml:"discount" json:"discount" validate:"gt=0,lte=1"`
}

type PlannerSection struct {
	Delta         float64 `yaml:"delta" json:"delta" validate:"gt=0"`
	MaxIterations int     `yaml:"max_iterations" json:"max_iterations" validate:"gte=1"`
	TieTolerance  float64 `yaml:"tie_tolerance" json:"tie_tolerance" validate:"gte=0"`
}

// BuildConfig is the configuration of one abstraction run
type BuildConfig struct {
	Predicate           string  `yaml:"predicate" json:"predicate" validate:"required"`
	Epsilon             float64 `yaml:"epsilon" json:"epsilon" validate:"gte=0"`
	Consolidation       string  `yaml:"consolidation" json:"consolidation" validate:"omitempty,oneof=first-occurrence transitive"`
	TrackOptimalActions bool    `yaml:"track_optimal_actions" json:"track_optimal_actions"`
	Workers             int     `yaml:"workers" json:"workers" validate:"gte=0"`
	TaskWorkers         int     `yaml:"task_workers" json:"task_workers" validate:"gte=0"`

	Grid    GridSection    `yaml:"grid" json:"grid"`
	Planner PlannerSection `yaml:"planner" json:"planner"`
}

// Default is a 5x5 grid with the goal in the top right corner
func Default() *BuildConfig {
	vi := planning.DefaultValueIterationConfig()
	return &BuildConfig{
		Predicate:     "q-approx",
		Epsilon:       0,
		Consolidation: string(abstraction.FirstOccurrence),
		Workers:       1,
		TaskWorkers:   0,
		Grid: GridSection{
			Height:   5,
			Width:    5,
			Start:    Position{0, 0},
			Goals:    []Position{{4, 4}},
			Discount: 0.95,
		},
		Planner: PlannerSection{
			Delta:         vi.Delta,
			MaxIterations: vi.MaxIterations,
			TieTolerance:  vi.TieTolerance,
		},
	}
}

// Load reads the YAML file on top of the defaults and validates the result
func Load(path string) (*BuildConfig, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(bs, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints, that the positions lie on the
// grid, that start and goals are not walls and that the predicate exists
func (c *BuildConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := abstraction.PredicateByName(c.Predicate); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	positions := append([]Position{c.Grid.Start}, c.Grid.Goals...)
	positions = append(positions, c.Grid.Walls...)
	for _, p := range positions {
		if p.I >= c.Grid.Height || p.J >= c.Grid.Width {
			return fmt.Errorf("invalid config: position (%d, %d) outside of %dx%d grid", p.I, p.J, c.Grid.Height, c.Grid.Width)
		}
	}
	walls := make(map[Position]bool, len(c.Grid.Walls))
	for _, w := range c.Grid.Walls {
		walls[w] = true
	}
	if walls[c.Grid.Start] {
		return fmt.Errorf("invalid config: start (%d, %d) is a wall", c.Grid.Start.I, c.Grid.Start.J)
	}
	for _, g := range c.Grid.Goals {
		if walls[g] {
			return fmt.Errorf("invalid config: goal (%d, %d) is a wall", g.I, g.J)
		}
	}
	return nil
}

func (c *BuildConfig) PredicateImpl() (abstraction.Predicate, error) {
	return abstraction.PredicateByName(c.Predicate)
}

func (c *BuildConfig) BuilderConfig(logger *zap.Logger) abstraction.BuilderConfig {
	return abstraction.BuilderConfig{
		Epsilon:             c.Epsilon,
		Consolidation:       abstraction.Consolidation(c.Consolidation),
		TrackOptimalActions: c.TrackOptimalActions,
		Workers:             c.Workers,
		TaskWorkers:         c.TaskWorkers,
		Logger:              logger,
	}
}

func (c *BuildConfig) ValueIterationConfig(logger *zap.Logger) planning.ValueIterationConfig {
	return planning.ValueIterationConfig{
		Delta:         c.Planner.Delta,
		MaxIterations: c.Planner.MaxIterations,
		TieTolerance:  c.Planner.TieTolerance,
		Logger:        logger,
	}
}

func (c *BuildConfig) GridConfig() grid.GridConfig {
	walls := make([]grid.Position, len(c.Grid.Walls))
	for i, w := range c.Grid.Walls {
		walls[i] = grid.Position{I: w.I, J: w.J}
	}
	return grid.GridConfig{
		Height:   c.Grid.Height,
		Width:    c.Grid.Width,
		Start:    grid.Position{I: c.Grid.Start.I, J: c.Grid.Start.J},
		Walls:    walls,
		StepCost: c.Grid.StepCost,
		SlipProb: c.Grid.SlipProb,
		Discount: c.Grid.Discount,
	}
}

func (c *BuildConfig) GoalPositions() []grid.Position {
	out := make([]grid.Position, len(c.Grid.Goals))
	for i, g := range c.Grid.Goals {
		out[i] = grid.Position{I: g.I, J: g.J}
	}
	return out
}
