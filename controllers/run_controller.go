/*
Copyright 2022.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package controllers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/perdasilva/ormodel/api/v1alpha1"
	"github.com/perdasilva/ormodel/pkg/config"
	"github.com/perdasilva/ormodel/pkg/datasets"
	"github.com/perdasilva/ormodel/pkg/tasks"
)

type statusOption func(status *v1alpha1.RunStatus)

func withReason(format string, args ...interface{}) statusOption {
	return func(status *v1alpha1.RunStatus) {
		status.Reason = fmt.Sprintf(format, args...)
	}
}

func withObjective(v *float64) statusOption {
	return func(status *v1alpha1.RunStatus) {
		status.Objective = v
	}
}

func withSolutions(n int) statusOption {
	return func(status *v1alpha1.RunStatus) {
		status.Solutions = n
	}
}

func withCleanStatus() statusOption {
	return func(status *v1alpha1.RunStatus) {
		status.Reason = v1alpha1.ReasonNoReason
		status.Solutions = 0
		status.Objective = nil
	}
}

// Result tells the caller whether the run needs another reconcile.
type Result struct {
	Requeue bool
}

// RunReconciler moves a Run from Pending to a terminal state by
// loading its dataset and running its task.
type RunReconciler struct {
	Registry *tasks.Registry
	Loader   datasets.Loader
	Config   *config.Config
	Logger   *zap.Logger

	mu      sync.Mutex
	results map[string]*tasks.Result
}

// Reconcile performs one state transition of run.
func (r *RunReconciler) Reconcile(ctx context.Context, run *v1alpha1.Run) (Result, error) {
	if run.Metadata.Name == "" {
		run.Metadata.Name = uuid.NewString()
	}
	switch run.Status.State {
	case v1alpha1.StateNoState:
		return r.transitionToState(run, v1alpha1.StatePending, withCleanStatus())
	case v1alpha1.StatePending:
		return r.handlePending(run)
	case v1alpha1.StateSolving, v1alpha1.StateEnumerating:
		return r.handleSolving(ctx, run)
	}
	return Result{}, nil
}

// RunToCompletion reconciles run until it reaches a terminal state.
func (r *RunReconciler) RunToCompletion(ctx context.Context, run *v1alpha1.Run) error {
	for !run.Status.State.Terminal() {
		res, err := r.Reconcile(ctx, run)
		if err != nil {
			return err
		}
		if !res.Requeue {
			break
		}
	}
	return nil
}

// Result returns what the task of a finished run produced.
func (r *RunReconciler) Result(name string) (*tasks.Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.results[name]
	return res, ok
}

func (r *RunReconciler) handlePending(run *v1alpha1.Run) (Result, error) {
	task, err := r.Registry.Lookup(run.Spec.Task)
	if err != nil {
		return r.transitionToState(run, v1alpha1.StateFailure, withReason("%s", err))
	}
	if run.Spec.Dataset == "" {
		run.Spec.Dataset = task.DefaultDataset()
	}
	if run.Spec.Mode == "" {
		run.Spec.Mode = task.DefaultMode()
	}
	switch run.Spec.Mode {
	case v1alpha1.ModeSingle:
		return r.transitionToState(run, v1alpha1.StateSolving)
	case v1alpha1.ModeEnumerate:
		return r.transitionToState(run, v1alpha1.StateEnumerating)
	}
	return r.transitionToState(run, v1alpha1.StateFailure, withReason("unknown mode %q", run.Spec.Mode))
}

func (r *RunReconciler) handleSolving(ctx context.Context, run *v1alpha1.Run) (Result, error) {
	logger := r.logger().With(zap.String("run", run.Metadata.Name), zap.String("task", run.Spec.Task))
	task, err := r.Registry.Lookup(run.Spec.Task)
	if err != nil {
		return r.transitionToState(run, v1alpha1.StateFailure, withReason("%s", err))
	}
	cfg, err := r.runConfig(run.Spec)
	if err != nil {
		return r.transitionToState(run, v1alpha1.StateFailure, withReason("invalid run: %s", err))
	}
	book, err := r.Loader.Load(ctx, run.Spec.Dataset)
	if err != nil {
		return r.transitionToState(run, v1alpha1.StateFailure, withReason("error loading dataset %s: %s", run.Spec.Dataset, err))
	}

	start := time.Now()
	logger.Info("running task", zap.String("dataset", run.Spec.Dataset), zap.String("mode", string(run.Spec.Mode)))
	res, err := task.Run(ctx, book, tasks.Env{Logger: logger, Config: cfg, Mode: run.Spec.Mode})
	if err != nil {
		logger.Error("task failed", zap.Error(err))
		return r.transitionToState(run, v1alpha1.StateFailure, withReason("%s", err))
	}
	logger.Info("task finished", zap.Stringer("outcome", res.Outcome), zap.Duration("elapsed", time.Since(start)))

	r.mu.Lock()
	if r.results == nil {
		r.results = make(map[string]*tasks.Result)
	}
	r.results[run.Metadata.Name] = res
	r.mu.Unlock()

	return r.transitionToState(run, res.Outcome.State(),
		withSolutions(res.Solutions),
		withObjective(res.Objective),
		withReason("%s", res.Outcome))
}

// runConfig overlays the run spec on the reconciler settings.
func (r *RunReconciler) runConfig(spec v1alpha1.RunSpec) (*config.Config, error) {
	cfg := config.Default()
	if r.Config != nil {
		copied := *r.Config
		cfg = &copied
	}
	if spec.Engine != "" {
		cfg.Engine = spec.Engine
	}
	if spec.MaxSolutions > 0 {
		cfg.MaxSolutions = spec.MaxSolutions
	}
	if spec.TimeLimit != "" {
		d, err := time.ParseDuration(spec.TimeLimit)
		if err != nil {
			return nil, err
		}
		cfg.TimeLimit = d
	}
	return cfg, cfg.Validate()
}

func (r *RunReconciler) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

func (r *RunReconciler) transitionToState(run *v1alpha1.Run, state v1alpha1.State, options ...statusOption) (Result, error) {
	run.Status.State = state
	run.Status.Reason = v1alpha1.ReasonNoReason
	for _, applyOption := range options {
		applyOption(&run.Status)
	}
	r.logger().Debug("run transitioned", zap.String("run", run.Metadata.Name), zap.String("state", string(state)))
	return Result{Requeue: !state.Terminal()}, nil
}
