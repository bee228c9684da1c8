package grid

import (
	"fmt"

	"github.com/zeu5/state-abs/types"
)

// GridConfig describes a grid world. Rows are indexed by I, columns by J
type GridConfig struct {
	Height   int
	Width    int
	Start    Position
	Walls    []Position
	StepCost float64
	// Probability of moving to one of the two perpendicular directions instead
	SlipProb float64
	Discount float64
}

func DefaultGridConfig(height, width int) GridConfig {
	return GridConfig{
		Height:   height,
		Width:    width,
		Start:    Position{0, 0},
		StepCost: 0,
		SlipProb: 0,
		Discount: 0.95,
	}
}

// GridWorld is a decision process where an agent moves on a grid
// until it reaches one of the goals
type GridWorld struct {
	config GridConfig
	goals  map[Position]bool
	walls  map[Position]bool
	name   string
}

var _ types.MDP = &GridWorld{}

func NewGridWorld(config GridConfig, goals ...Position) *GridWorld {
	g := &GridWorld{
		config: config,
		goals:  make(map[Position]bool),
		walls:  make(map[Position]bool),
	}
	for _, w := range config.Walls {
		g.walls[w] = true
	}
	for _, goal := range goals {
		g.goals[goal] = true
	}
	g.name = fmt.Sprintf("grid-%dx%d-goals%v", config.Height, config.Width, goals)
	return g
}

func (g *GridWorld) Name() string {
	return g.name
}

func (g *GridWorld) Height() int {
	return g.config.Height
}

func (g *GridWorld) Width() int {
	return g.config.Width
}

func (g *GridWorld) InitialState() types.State {
	start := g.config.Start
	return &start
}

func (g *GridWorld) Actions() []types.Action {
	return AllMovements
}

func (g *GridWorld) Discount() float64 {
	return g.config.Discount
}

func (g *GridWorld) IsWall(p Position) bool {
	return g.walls[p]
}

func (g *GridWorld) IsGoal(p Position) bool {
	return g.goals[p]
}

func (g *GridWorld) IsTerminal(s types.State) bool {
	pos, ok := s.(*Position)
	if !ok {
		return false
	}
	return g.goals[*pos]
}

// move returns the position after moving in the direction, staying in
// place when blocked by a wall or the border
func (g *GridWorld) move(from Position, direction string) Position {
	to := from
	switch direction {
	case "Up":
		to.I = min(g.config.Height-1, from.I+1)
	case "Down":
		to.I = max(0, from.I-1)
	case "Left":
		to.J = max(0, from.J-1)
	case "Right":
		to.J = min(g.config.Width-1, from.J+1)
	}
	if g.walls[to] {
		return from
	}
	return to
}

func (g *GridWorld) Transitions(s types.State, a types.Action) []types.Transition {
	pos := s.(*Position)
	movement := a.(*Movement)
	if g.goals[*pos] {
		return []types.Transition{{Next: pos, Prob: 1}}
	}

	probs := make(map[Position]float64)
	order := make([]Position, 0, 3)
	add := func(p Position, prob float64) {
		if prob <= 0 {
			return
		}
		if _, ok := probs[p]; !ok {
			order = append(order, p)
		}
		probs[p] += prob
	}
	add(g.move(*pos, movement.Direction), 1-g.config.SlipProb)
	for _, side := range perpendicular[movement.Direction] {
		add(g.move(*pos, side), g.config.SlipProb/2)
	}

	out := make([]types.Transition, len(order))
	for i, p := range order {
		next := p
		out[i] = types.Transition{Next: &next, Prob: probs[p]}
	}
	return out
}

func (g *GridWorld) Reward(_ types.State, _ types.Action, next types.State) float64 {
	pos, ok := next.(*Position)
	if ok && g.goals[*pos] {
		return 1 - g.config.StepCost
	}
	return -g.config.StepCost
}

// GoalDistribution is a uniform distribution over grid worlds that only
// differ in their goal location
func GoalDistribution(config GridConfig, goals []Position) (*types.TaskDistribution, error) {
	instances := make([]types.MDP, len(goals))
	for i, goal := range goals {
		instances[i] = NewGridWorld(config, goal)
	}
	return types.NewUniformDistribution(instances...)
}

type Position struct {
	I int
	J int
}

var _ types.State = &Position{}

func (p *Position) Hash() string {
	return fmt.Sprintf("(%d, %d)", p.I, p.J)
}

func (p *Position) Eq(other Position) bool {
	return p.I == other.I && p.J == other.J
}

func (p *Position) Actions() []types.Action {
	return AllMovements
}

type Movement struct {
	Direction string
}

var _ types.Action = &Movement{}

func (m *Movement) Hash() string {
	return m.Direction
}

var (
	MovementUp                      = &Movement{"Up"}
	MovementDown                    = &Movement{"Down"}
	MovementLeft                    = &Movement{"Left"}
	MovementRight                   = &Movement{"Right"}
	AllMovements     []types.Action = []types.Action{
		MovementUp,
		MovementDown,
		MovementLeft,
		MovementRight,
	}

	perpendicular = map[string][]string{
		"Up":    {"Left", "Right"},
		"Down":  {"Left", "Right"},
		"Left":  {"Up", "Down"},
		"Right": {"Up", "Down"},
	}
)
