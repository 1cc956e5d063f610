package driver

import (
	"github.com/perdasilva/ormodel/api/v1alpha1"
	"github.com/perdasilva/ormodel/pkg/solver"
)

// Outcome is how a solve or an enumeration ended.
type Outcome int

const (
	// OutcomePending is the outcome of a sequence that has not finished.
	OutcomePending Outcome = iota
	OutcomeOptimal
	OutcomeFeasible
	OutcomeInfeasible
	// OutcomeTimedOut is reported when the time limit expired before the
	// engine could decide. It never means infeasible.
	OutcomeTimedOut
	// OutcomeExhausted is reported when an enumeration produced every
	// solution.
	OutcomeExhausted
	// OutcomeLimited is reported when an enumeration stopped at its
	// solution limit.
	OutcomeLimited
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOptimal:
		return "optimal"
	case OutcomeFeasible:
		return "feasible"
	case OutcomeInfeasible:
		return "infeasible"
	case OutcomeTimedOut:
		return "timed out"
	case OutcomeExhausted:
		return "exhausted"
	case OutcomeLimited:
		return "limited"
	case OutcomeFailed:
		return "failed"
	}
	return "pending"
}

// State is the run state recording o.
func (o Outcome) State() v1alpha1.State {
	switch o {
	case OutcomeOptimal:
		return v1alpha1.StateOptimal
	case OutcomeFeasible:
		return v1alpha1.StateFeasible
	case OutcomeInfeasible:
		return v1alpha1.StateInfeasible
	case OutcomeTimedOut:
		return v1alpha1.StateTimedOut
	case OutcomeExhausted:
		return v1alpha1.StateExhausted
	case OutcomeLimited:
		return v1alpha1.StateLimited
	case OutcomeFailed:
		return v1alpha1.StateFailure
	}
	return v1alpha1.StateNoState
}

// HasSolution reports whether a solve with outcome o produced an
// assignment.
func (o Outcome) HasSolution() bool {
	return o == OutcomeOptimal || o == OutcomeFeasible
}

func outcomeOf(s solver.Status) Outcome {
	switch s {
	case solver.StatusOptimal:
		return OutcomeOptimal
	case solver.StatusFeasible:
		return OutcomeFeasible
	case solver.StatusInfeasible:
		return OutcomeInfeasible
	}
	return OutcomeTimedOut
}
