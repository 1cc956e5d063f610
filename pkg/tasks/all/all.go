// Package all registers every built-in task.
package all

import (
	"github.com/perdasilva/ormodel/pkg/tasks"
	"github.com/perdasilva/ormodel/pkg/tasks/dining"
	"github.com/perdasilva/ormodel/pkg/tasks/projects"
	"github.com/perdasilva/ormodel/pkg/tasks/rail"
	"github.com/perdasilva/ormodel/pkg/tasks/routing"
	"github.com/perdasilva/ormodel/pkg/tasks/sudoku"
	"github.com/perdasilva/ormodel/pkg/tasks/supply"
)

func Registry() *tasks.Registry {
	return tasks.NewRegistry(
		dining.Task{},
		sudoku.Task{},
		projects.Task{},
		supply.Task{},
		routing.Task{},
		rail.Task{},
	)
}
