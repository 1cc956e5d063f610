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

package v1alpha1

const (
	ModeSingle    Mode = "single"
	ModeEnumerate Mode = "enumerate"

	StatePending     State = "Pending"
	StateSolving     State = "Solving"
	StateEnumerating State = "Enumerating"
	StateOptimal     State = "Optimal"
	StateFeasible    State = "Feasible"
	StateInfeasible  State = "Infeasible"
	StateTimedOut    State = "TimedOut"
	StateExhausted   State = "Exhausted"
	StateLimited     State = "Limited"
	StateFailure     State = "Failure"
	StateNoState     State = ""

	ReasonNoReason = ""
)

type Mode string
type State string

// Terminal reports whether no further transitions follow s.
func (s State) Terminal() bool {
	switch s {
	case StateOptimal, StateFeasible, StateInfeasible, StateTimedOut, StateExhausted, StateLimited, StateFailure:
		return true
	}
	return false
}

// RunSpec defines what a run of a task should do.
type RunSpec struct {
	Task    string `yaml:"task" json:"task"`
	Dataset string `yaml:"dataset" json:"dataset"`
	Engine  string `yaml:"engine" json:"engine"`
	Mode    Mode   `yaml:"mode" json:"mode"`

	// +optional
	MaxSolutions int `yaml:"maxSolutions,omitempty" json:"maxSolutions,omitempty"`

	// +optional
	TimeLimit string `yaml:"timeLimit,omitempty" json:"timeLimit,omitempty"`
}

// RunStatus defines the observed outcome of a run.
type RunStatus struct {
	State State `yaml:"state" json:"state"`

	// +optional
	Reason string `yaml:"reason,omitempty" json:"reason,omitempty"`

	// +optional
	Solutions int `yaml:"solutions" json:"solutions"`

	// +optional
	Objective *float64 `yaml:"objective,omitempty" json:"objective,omitempty"`
}

// Run records one execution of a task.
type Run struct {
	APIVersion string     `yaml:"apiVersion" json:"apiVersion"`
	Kind       string     `yaml:"kind" json:"kind"`
	Metadata   ObjectMeta `yaml:"metadata" json:"metadata"`

	Spec   RunSpec   `yaml:"spec" json:"spec"`
	Status RunStatus `yaml:"status,omitempty" json:"status,omitempty"`
}

func NewRun(name string, spec RunSpec) *Run {
	return &Run{
		APIVersion: GroupVersion,
		Kind:       KindRun,
		Metadata:   ObjectMeta{Name: name},
		Spec:       spec,
		Status:     RunStatus{State: StatePending},
	}
}
