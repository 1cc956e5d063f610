// Package driver runs engines over compiled models, either once or as a
// lazy sequence of distinct solutions.
package driver

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/perdasilva/ormodel/pkg/solver"
)

type options struct {
	logger       *zap.Logger
	maxSolutions int
}

type Option func(*options)

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMaxSolutions stops an enumeration after n solutions. Zero or a
// negative n means no limit.
func WithMaxSolutions(n int) Option {
	return func(o *options) {
		o.maxSolutions = n
	}
}

func newOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Solve runs engine once over m.
func Solve(ctx context.Context, engine solver.Engine, m *solver.Model, opts ...Option) (Outcome, *solver.Solution, error) {
	o := newOptions(opts)
	sol, err := engine.Solve(ctx, m)
	if err != nil {
		o.logger.Error("solve failed", zap.String("model", m.Name()), zap.String("engine", engine.Name()), zap.Error(err))
		return OutcomeFailed, nil, err
	}
	outcome := outcomeOf(sol.Status())
	o.logger.Info("solved",
		zap.String("model", m.Name()),
		zap.String("engine", engine.Name()),
		zap.Stringer("outcome", outcome),
		zap.Float64("objective", sol.Objective()))
	return outcome, sol, nil
}

// Sequence is a finite, non-restartable, pull-based sequence of
// distinct solutions:
//
//	seq := driver.Enumerate(ctx, engine, m)
//	defer seq.Close()
//	for seq.Next() {
//		use(seq.Solution())
//	}
//	if err := seq.Err(); err != nil {
//		...
//	}
type Sequence struct {
	ctx     context.Context
	model   *solver.Model
	engine  solver.Engine
	opts    options
	it      solver.Iterator
	current *solver.Solution
	count   int
	outcome Outcome
	err     error
}

// Enumerate starts an enumeration of m. No solving happens until the
// first call to Next.
func Enumerate(ctx context.Context, engine solver.Engine, m *solver.Model, opts ...Option) *Sequence {
	return &Sequence{ctx: ctx, model: m, engine: engine, opts: newOptions(opts)}
}

// Next advances to the next solution and reports whether there is one.
func (s *Sequence) Next() bool {
	s.current = nil
	if s.outcome != OutcomePending {
		return false
	}
	if s.it == nil {
		it, err := s.engine.Enumerate(s.ctx, s.model)
		if err != nil {
			s.fail(err)
			return false
		}
		s.it = it
	}
	if s.opts.maxSolutions > 0 && s.count >= s.opts.maxSolutions {
		s.finish(OutcomeLimited)
		return false
	}
	sol, err := s.it.Next(s.ctx)
	switch {
	case errors.Is(err, solver.Done):
		s.finish(OutcomeExhausted)
		return false
	case err != nil:
		s.fail(err)
		return false
	case !sol.Status().HasValues():
		s.finish(OutcomeTimedOut)
		return false
	}
	s.count++
	s.current = sol
	return true
}

func (s *Sequence) fail(err error) {
	s.err = fmt.Errorf("enumerating %q with %s: %w", s.model.Name(), s.engine.Name(), err)
	s.finish(OutcomeFailed)
}

func (s *Sequence) finish(o Outcome) {
	s.outcome = o
	if s.it != nil {
		s.it.Close()
	}
	s.opts.logger.Info("enumeration finished",
		zap.String("model", s.model.Name()),
		zap.String("engine", s.engine.Name()),
		zap.Stringer("outcome", s.Outcome()),
		zap.Int("solutions", s.count))
}

// Solution is the solution produced by the last successful Next.
func (s *Sequence) Solution() *solver.Solution {
	return s.current
}

func (s *Sequence) Err() error {
	return s.err
}

// Count is the number of solutions produced so far.
func (s *Sequence) Count() int {
	return s.count
}

// Outcome reports how the sequence ended. An enumeration that ran out
// without producing any solution is infeasible.
func (s *Sequence) Outcome() Outcome {
	if s.outcome == OutcomeExhausted && s.count == 0 {
		return OutcomeInfeasible
	}
	return s.outcome
}

// Close releases the sequence. Further calls to Next return false.
func (s *Sequence) Close() {
	if s.outcome == OutcomePending {
		s.finish(OutcomeLimited)
	}
}

// ForEach drains seq, calling fn with the position and value of every
// solution. It stops at the first error returned by fn.
func ForEach(seq *Sequence, fn func(i int, sol *solver.Solution) error) error {
	defer seq.Close()
	for seq.Next() {
		if err := fn(seq.Count()-1, seq.Solution()); err != nil {
			return err
		}
	}
	return seq.Err()
}
