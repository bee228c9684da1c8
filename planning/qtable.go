package planning

import "math"

// QTable indexed by state and action hashes
type QTable struct {
	table map[string]map[string]float64
}

func NewQTable() *QTable {
	return &QTable{
		table: make(map[string]map[string]float64),
	}
}

// Get returns the value, or def when the entry does not exist. Does not insert
func (q *QTable) Get(state, action string, def float64) float64 {
	if _, ok := q.table[state]; !ok {
		return def
	}
	if val, ok := q.table[state][action]; ok {
		return val
	}
	return def
}

func (q *QTable) Set(state, action string, val float64) {
	if _, ok := q.table[state]; !ok {
		q.table[state] = make(map[string]float64)
	}
	q.table[state][action] = val
}

func (q *QTable) HasState(state string) bool {
	_, ok := q.table[state]
	return ok
}

// MaxAmong returns the best of the given actions and its value.
// Ties are resolved towards the first action in the slice
func (q *QTable) MaxAmong(state string, actions []string, def float64) (string, float64) {
	maxAction := ""
	maxVal := math.Inf(-1)
	for _, a := range actions {
		val := q.Get(state, a, def)
		if val > maxVal {
			maxAction = a
			maxVal = val
		}
	}
	if maxAction == "" {
		return "", def
	}
	return maxAction, maxVal
}

// ArgMaxAmong returns every action whose value is within tol of the best
func (q *QTable) ArgMaxAmong(state string, actions []string, tol float64) []string {
	_, maxVal := q.MaxAmong(state, actions, 0)
	out := make([]string, 0)
	for _, a := range actions {
		if maxVal-q.Get(state, a, 0) <= tol {
			out = append(out, a)
		}
	}
	return out
}
