package solver

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	solveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ormodel_solve_duration_seconds",
		Help:    "Wall clock time of solver calls.",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"engine", "status"})

	solutionsFound = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ormodel_solutions_total",
		Help: "Solutions produced by solver engines.",
	}, []string{"engine"})

	simplexPivots = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ormodel_simplex_pivots_total",
		Help: "Simplex pivots performed by the MIP engine.",
	})

	branchNodes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ormodel_branch_nodes_total",
		Help: "Branch and bound nodes explored by the MIP engine.",
	})
)

func observeSolve(engine string, status Status, start time.Time) {
	solveDuration.WithLabelValues(engine, status.String()).Observe(time.Since(start).Seconds())
	if status.HasValues() {
		solutionsFound.WithLabelValues(engine).Inc()
	}
}
