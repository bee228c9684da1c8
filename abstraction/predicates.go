package abstraction

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/zeu5/state-abs/types"
	"gonum.org/v1/gonum/floats/scalar"
)

// Predicate decides whether two distinct ground states of the same
// decision process are equivalent within epsilon. Implementations must
// not mutate the plan and need not be transitive
type Predicate interface {
	Name() string
	Equivalent(s1, s2 types.State, plan types.Plan, actions []types.Action, epsilon float64) (bool, error)
}

// PredicateFunc adapts a function to the Predicate interface
type PredicateFunc struct {
	name string
	f    func(types.State, types.State, types.Plan, []types.Action, float64) (bool, error)
}

var _ Predicate = &PredicateFunc{}

func NewPredicateFunc(name string, f func(types.State, types.State, types.Plan, []types.Action, float64) (bool, error)) *PredicateFunc {
	return &PredicateFunc{name: name, f: f}
}

func (p *PredicateFunc) Name() string {
	return p.name
}

func (p *PredicateFunc) Equivalent(s1, s2 types.State, plan types.Plan, actions []types.Action, epsilon float64) (bool, error) {
	return p.f(s1, s2, plan, actions, epsilon)
}

// QApprox: for every action the optimal Q values differ by at most epsilon.
// With epsilon 0 this is the exact Q tie
func QApprox() Predicate {
	return NewPredicateFunc("q-approx", func(s1, s2 types.State, plan types.Plan, actions []types.Action, epsilon float64) (bool, error) {
		for _, a := range actions {
			if !scalar.EqualWithinAbs(plan.QValue(s1, a), plan.QValue(s2, a), epsilon) {
				return false, nil
			}
		}
		return true, nil
	})
}

// QDiscretized: for every action the Q values fall into the same bucket of width epsilon
func QDiscretized() Predicate {
	return NewPredicateFunc("q-disc", func(s1, s2 types.State, plan types.Plan, actions []types.Action, epsilon float64) (bool, error) {
		for _, a := range actions {
			q1 := plan.QValue(s1, a)
			q2 := plan.QValue(s2, a)
			if epsilon == 0 {
				if q1 != q2 {
					return false, nil
				}
				continue
			}
			if math.Floor(q1/epsilon) != math.Floor(q2/epsilon) {
				return false, nil
			}
		}
		return true, nil
	})
}

// VApprox: optimal state values differ by at most epsilon
func VApprox() Predicate {
	return NewPredicateFunc("v-approx", func(s1, s2 types.State, plan types.Plan, _ []types.Action, epsilon float64) (bool, error) {
		return scalar.EqualWithinAbs(plan.Value(s1), plan.Value(s2), epsilon), nil
	})
}

// AStar: same set of optimal actions and values within epsilon
func AStar() Predicate {
	return NewPredicateFunc("a-star", func(s1, s2 types.State, plan types.Plan, _ []types.Action, epsilon float64) (bool, error) {
		if !scalar.EqualWithinAbs(plan.Value(s1), plan.Value(s2), epsilon) {
			return false, nil
		}
		a1 := types.ActionHashes(plan.OptimalActions(s1))
		a2 := types.ActionHashes(plan.OptimalActions(s2))
		if len(a1) != len(a2) {
			return false, nil
		}
		sort.Strings(a1)
		sort.Strings(a2)
		for i := range a1 {
			if a1[i] != a2[i] {
				return false, nil
			}
		}
		return true, nil
	})
}

// All holds when every one of the predicates holds. Evaluation stops at
// the first predicate that fails or errors
func All(predicates ...Predicate) Predicate {
	names := make([]string, len(predicates))
	for i, p := range predicates {
		names[i] = p.Name()
	}
	return NewPredicateFunc(strings.Join(names, "+"), func(s1, s2 types.State, plan types.Plan, actions []types.Action, epsilon float64) (bool, error) {
		for _, p := range predicates {
			ok, err := p.Equivalent(s1, s2, plan, actions, epsilon)
			if err != nil {
				return false, fmt.Errorf("predicate %s: %w", p.Name(), err)
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	})
}

var predicates = map[string]func() Predicate{
	"q-approx": QApprox,
	"q-disc":   QDiscretized,
	"v-approx": VApprox,
	"a-star":   AStar,
}

// PredicateNames lists the predicates available through PredicateByName
func PredicateNames() []string {
	out := make([]string, 0, len(predicates))
	for name := range predicates {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// PredicateByName resolves a predicate name. Names joined with "+"
// select the conjunction of the named predicates
func PredicateByName(name string) (Predicate, error) {
	parts := strings.Split(name, "+")
	selected := make([]Predicate, 0, len(parts))
	for _, part := range parts {
		ctor, ok := predicates[strings.TrimSpace(part)]
		if !ok {
			return nil, fmt.Errorf("%w: %q, available: %s", ErrUnknownPredicate, part, strings.Join(PredicateNames(), ", "))
		}
		selected = append(selected, ctor())
	}
	if len(selected) == 1 {
		return selected[0], nil
	}
	return All(selected...), nil
}
