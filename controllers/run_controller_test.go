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

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"

	"github.com/perdasilva/ormodel/api/v1alpha1"
	"github.com/perdasilva/ormodel/pkg/config"
	"github.com/perdasilva/ormodel/pkg/datasets"
	"github.com/perdasilva/ormodel/pkg/tasks/all"
)

var _ = Describe("RunReconciler", func() {
	var (
		ctx        context.Context
		reconciler *RunReconciler
	)

	BeforeEach(func() {
		ctx = context.Background()
		cfg := config.Default()
		cfg.Routing.Strategy = config.StrategyLazy
		loader, err := datasets.NewLoader(cfg.Data)
		Expect(err).NotTo(HaveOccurred())
		reconciler = &RunReconciler{Registry: all.Registry(), Loader: loader, Config: cfg}
	})

	run := func(spec v1alpha1.RunSpec) *v1alpha1.Run {
		r := v1alpha1.NewRun("", spec)
		r.Status.State = v1alpha1.StateNoState
		Expect(reconciler.RunToCompletion(ctx, r)).To(Succeed())
		return r
	}

	It("walks a run through its states", func() {
		r := v1alpha1.NewRun("walk", v1alpha1.RunSpec{Task: "supply"})
		r.Status.State = v1alpha1.StateNoState

		var states []v1alpha1.State
		for !r.Status.State.Terminal() {
			res, err := reconciler.Reconcile(ctx, r)
			Expect(err).NotTo(HaveOccurred())
			states = append(states, r.Status.State)
			Expect(res.Requeue).To(Equal(!r.Status.State.Terminal()))
		}
		Expect(states).To(Equal([]v1alpha1.State{
			v1alpha1.StatePending, v1alpha1.StateSolving, v1alpha1.StateOptimal,
		}))
		Expect(r.Spec.Dataset).To(Equal("supply"))
		Expect(r.Spec.Mode).To(Equal(v1alpha1.ModeSingle))
	})

	It("names unnamed runs", func() {
		r := run(v1alpha1.RunSpec{Task: "supply"})
		Expect(r.Metadata.Name).To(HaveLen(36))
		_, ok := reconciler.Result(r.Metadata.Name)
		Expect(ok).To(BeTrue())
	})

	It("finds who has the tiramisu", func() {
		r := run(v1alpha1.RunSpec{Task: "dining"})
		Expect(r.Status.State).To(Equal(v1alpha1.StateExhausted))
		Expect(r.Status.Solutions).To(Equal(1))
		res, ok := reconciler.Result(r.Metadata.Name)
		Expect(ok).To(BeTrue())
		Expect(res.Report.String()).To(ContainSubstring("Sophie has the tiramisu"))
	})

	It("solves the classic sudoku uniquely", func() {
		r := run(v1alpha1.RunSpec{Task: "sudoku", Dataset: "sudoku-classic"})
		Expect(r.Status.State).To(Equal(v1alpha1.StateExhausted))
		Expect(r.Status.Solutions).To(Equal(1))
	})

	It("enumerates project plans up to the solution limit", func() {
		r := run(v1alpha1.RunSpec{Task: "projects", MaxSolutions: 3})
		Expect(r.Status.State).To(Equal(v1alpha1.StateLimited))
		Expect(r.Status.Solutions).To(Equal(3))
	})

	DescribeTable("optimizes",
		func(spec v1alpha1.RunSpec, objective float64) {
			r := run(spec)
			Expect(r.Status.State).To(Equal(v1alpha1.StateOptimal))
			Expect(r.Status.Objective).NotTo(BeNil())
			Expect(*r.Status.Objective).To(BeNumerically("~", objective, 1e-6))
		},
		Entry("the most profitable project plan", v1alpha1.RunSpec{Task: "projects", Mode: v1alpha1.ModeSingle}, 800.0),
		Entry("the cheapest supply plan", v1alpha1.RunSpec{Task: "supply"}, 2260.0),
		Entry("the shortest tour", v1alpha1.RunSpec{Task: "routing"}, 1049.0),
		Entry("the fewest trains", v1alpha1.RunSpec{Task: "rail"}, 4.0),
	)

	DescribeTable("fails",
		func(spec v1alpha1.RunSpec, reason string) {
			r := run(spec)
			Expect(r.Status.State).To(Equal(v1alpha1.StateFailure))
			Expect(r.Status.Reason).To(ContainSubstring(reason))
		},
		Entry("an unknown task", v1alpha1.RunSpec{Task: "chess"}, "chess"),
		Entry("an unknown dataset", v1alpha1.RunSpec{Task: "supply", Dataset: "moon"}, "moon"),
		Entry("an unknown mode", v1alpha1.RunSpec{Task: "supply", Mode: "twice"}, "twice"),
		Entry("a bad time limit", v1alpha1.RunSpec{Task: "supply", TimeLimit: "soon"}, "invalid run"),
		Entry("an unknown engine", v1alpha1.RunSpec{Task: "supply", Engine: "quantum"}, "quantum"),
	)

	It("leaves terminal runs alone", func() {
		r := v1alpha1.NewRun("done", v1alpha1.RunSpec{Task: "supply"})
		r.Status.State = v1alpha1.StateInfeasible
		res, err := reconciler.Reconcile(ctx, r)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Requeue).To(BeFalse())
		Expect(r.Status.State).To(Equal(v1alpha1.StateInfeasible))
	})
})
