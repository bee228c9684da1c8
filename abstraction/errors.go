package abstraction

import "errors"

// Contract violations. These are programming errors of the caller and
// are never retried
var (
	ErrEmptyMerge           = errors.New("merge requires at least one state abstraction")
	ErrDoubleAssignment     = errors.New("ground state already assigned to an abstract state")
	ErrEmptyCluster         = errors.New("cluster has no members")
	ErrUniverseMismatch     = errors.New("state abstractions cover different ground states")
	ErrUnknownState         = errors.New("ground state not part of the abstraction")
	ErrUnknownAbstractState = errors.New("abstract state does not exist")
	ErrNegativeEpsilon      = errors.New("epsilon must be non-negative")
	ErrUnknownPredicate     = errors.New("unknown equivalence predicate")
	ErrUnknownConsolidation = errors.New("unknown consolidation mode")
	ErrUnknownTask          = errors.New("task is neither a decision process nor a task distribution")
)
