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

import (
	yaml "gopkg.in/yaml.v2"
)

const (
	GroupVersion = "ormodel.io/v1alpha1"

	KindDataset = "Dataset"
	KindRun     = "Run"

	// SchemaVersion is the dataset schema written by this module.
	SchemaVersion = "1.0.0"

	// DefaultColumn names the value column of single-key tables.
	DefaultColumn = "value"
)

// Dataset is a named book of entity domains and sparse tables.
type Dataset struct {
	APIVersion string     `yaml:"apiVersion" json:"apiVersion"`
	Kind       string     `yaml:"kind" json:"kind"`
	Metadata   ObjectMeta `yaml:"metadata" json:"metadata"`

	Spec DatasetSpec `yaml:"spec" json:"spec"`
}

type ObjectMeta struct {
	Name string `yaml:"name" json:"name"`

	// +optional
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// DatasetSpec holds the content of a Dataset.
type DatasetSpec struct {
	SchemaVersion string `yaml:"schemaVersion" json:"schemaVersion"`

	// Domains maps a domain name to its ordered values.
	// +optional
	Domains yaml.MapSlice `yaml:"domains,omitempty" json:"domains,omitempty"`

	Tables []TableSpec `yaml:"tables" json:"tables"`
}

// TableSpec is one sparse table. Cells maps a row key either to a map
// of column key to value, or directly to a value for single-key tables.
// A null value marks an absent cell.
type TableSpec struct {
	Name string `yaml:"name" json:"name"`

	// +optional
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Column names the value column of a single-key table.
	// +optional
	Column string `yaml:"column,omitempty" json:"column,omitempty"`

	// Filter is an expression over row, col, value and text; cells for
	// which it is false are dropped at load time.
	// +optional
	Filter string `yaml:"filter,omitempty" json:"filter,omitempty"`

	Cells yaml.MapSlice `yaml:"cells" json:"cells"`
}
