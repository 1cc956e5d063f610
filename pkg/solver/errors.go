package solver

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupported is returned when an engine cannot represent part of a model.
	ErrUnsupported = errors.New("unsupported by engine")
	// ErrUnbounded is returned when the objective can be improved without limit.
	ErrUnbounded = errors.New("objective is unbounded")
	// ErrObjectiveSet is returned when a second objective is set on a model.
	ErrObjectiveSet = errors.New("objective already set")
	// Done is returned by Iterator.Next when no further solutions exist.
	Done = errors.New("no more solutions")
)

// UnknownVariable is reported when a constraint references a variable
// that was not created by the model being compiled.
type UnknownVariable Var

func (e UnknownVariable) Error() string {
	return fmt.Sprintf("variable %q referenced but not declared in model", Var(e).String())
}

type compileErrors []error

func (errs compileErrors) Error() string {
	s := make([]string, len(errs))
	for i, err := range errs {
		s[i] = err.Error()
	}
	return fmt.Sprintf("%d errors encountered: %s", len(s), strings.Join(s, ", "))
}

func (errs compileErrors) Unwrap() []error {
	return errs
}

func (errs compileErrors) err() error {
	if len(errs) == 0 {
		return nil
	}
	return errs
}
