// Package tasks holds what the problem instances share: the Task
// contract, engine selection and the registry the CLI and the run
// controller look tasks up in.
package tasks

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/perdasilva/ormodel/api/v1alpha1"
	"github.com/perdasilva/ormodel/pkg/config"
	"github.com/perdasilva/ormodel/pkg/driver"
	"github.com/perdasilva/ormodel/pkg/report"
	"github.com/perdasilva/ormodel/pkg/solver"
	"github.com/perdasilva/ormodel/pkg/table"
)

// Env carries what a task needs besides its data.
type Env struct {
	// Engine overrides the default engine of the task when not nil.
	Engine solver.Engine
	Logger *zap.Logger
	Config *config.Config
	Mode   v1alpha1.Mode
}

// Defaults fills the zero fields of env.
func (env Env) Defaults() Env {
	if env.Logger == nil {
		env.Logger = zap.NewNop()
	}
	if env.Config == nil {
		env.Config = config.Default()
	}
	return env
}

// EngineOr returns the configured engine, or builds the named fallback.
func (env Env) EngineOr(name string) (solver.Engine, error) {
	if env.Engine != nil {
		return env.Engine, nil
	}
	if env.Config != nil && env.Config.Engine != "" {
		name = env.Config.Engine
	}
	var limit int
	if env.Config != nil {
		limit = env.Config.NodeLimit
	}
	opts := []solver.Option{solver.WithLogger(env.Logger)}
	if env.Config != nil && env.Config.TimeLimit > 0 {
		opts = append(opts, solver.WithTimeLimit(env.Config.TimeLimit))
	}
	if limit > 0 {
		opts = append(opts, solver.WithNodeLimit(limit))
	}
	return NewEngine(name, opts...)
}

// DriverOptions returns the enumeration options derived from env.
func (env Env) DriverOptions() []driver.Option {
	opts := []driver.Option{driver.WithLogger(env.Logger)}
	if env.Config != nil && env.Config.MaxSolutions > 0 {
		opts = append(opts, driver.WithMaxSolutions(env.Config.MaxSolutions))
	}
	return opts
}

// NewEngine builds an engine by name.
func NewEngine(name string, opts ...solver.Option) (solver.Engine, error) {
	switch name {
	case "sat":
		return solver.NewSATEngine(opts...), nil
	case "mip":
		return solver.NewMIPEngine(opts...), nil
	}
	return nil, fmt.Errorf("unknown engine %q", name)
}

// Result is what a task run produced.
type Result struct {
	Outcome   driver.Outcome
	Solutions int
	Objective *float64
	Report    *report.Report
}

// Objective returns a pointer to v for Result.Objective.
func Objective(v float64) *float64 {
	return &v
}

// Task compiles one kind of problem from a dataset, solves it and
// reports the decoded result.
type Task interface {
	Name() string
	Description() string
	DefaultDataset() string
	// DefaultMode is the mode used when a run does not name one.
	DefaultMode() v1alpha1.Mode
	Run(ctx context.Context, book *table.Book, env Env) (*Result, error)
}

// Registry finds tasks by name.
type Registry struct {
	tasks map[string]Task
}

func NewRegistry(ts ...Task) *Registry {
	r := &Registry{tasks: make(map[string]Task, len(ts))}
	for _, t := range ts {
		r.tasks[t.Name()] = t
	}
	return r
}

func (r *Registry) Lookup(name string) (Task, error) {
	t, ok := r.tasks[name]
	if !ok {
		return nil, fmt.Errorf("task %q: %w", name, table.ErrNotFound)
	}
	return t, nil
}

// Names lists the registered tasks in alphabetical order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
