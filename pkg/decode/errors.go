package decode

import (
	"errors"
	"fmt"
)

var (
	// ErrDecodeCycle is matched by every CycleError.
	ErrDecodeCycle = errors.New("selected arcs revisit a stop")
	// ErrBrokenRoute is returned when no selected arc leaves a stop
	// before the route is complete.
	ErrBrokenRoute = errors.New("selected arcs do not form a route")
	// ErrBranchingRoute is returned when a stop has more than one
	// selected outbound arc.
	ErrBranchingRoute = errors.New("selected arcs branch")
)

// CycleError reports a route that returned to an already visited stop
// before reaching its end. Route holds the stops walked so far, ending
// with the revisited one.
type CycleError[N comparable] struct {
	Route []N
	At    N
}

func (e *CycleError[N]) Error() string {
	return fmt.Sprintf("route %v returns to %v", e.Route, e.At)
}

func (e *CycleError[N]) Is(target error) bool {
	return target == ErrDecodeCycle
}
