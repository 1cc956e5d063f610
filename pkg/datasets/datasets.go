// Package datasets ships the built-in datasets of every task.
package datasets

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/perdasilva/ormodel/pkg/table"
)

//go:embed data/*.yaml
var files embed.FS

// Names lists the built-in datasets.
func Names() []string {
	entries, _ := files.ReadDir("data")
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(out)
	return out
}

// Raw returns the YAML document of a built-in dataset.
func Raw(name string) ([]byte, error) {
	data, err := files.ReadFile(path.Join("data", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", name, table.ErrNotFound)
	}
	return data, nil
}

// Load parses a built-in dataset.
func Load(name string) (*table.Book, error) {
	data, err := Raw(name)
	if err != nil {
		return nil, err
	}
	return table.FromYAML(data)
}
