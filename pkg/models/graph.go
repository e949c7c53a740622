package models

import (
	"sort"
	"strings"
)

// CycleSeparator joins the layers of a cycle for display
const CycleSeparator = " → "

// LayerGraph maps each layer to the sorted, de-duplicated layers it imports from
type LayerGraph map[string][]string

// Layers returns every layer that appears as a source or a target, sorted.
func (g LayerGraph) Layers() []string {
	seen := make(map[string]bool)
	for from, targets := range g {
		seen[from] = true
		for _, to := range targets {
			seen[to] = true
		}
	}
	layers := make([]string, 0, len(seen))
	for layer := range seen {
		layers = append(layers, layer)
	}
	sort.Strings(layers)
	return layers
}

// EdgeCount returns the number of layer-to-layer edges.
func (g LayerGraph) EdgeCount() int {
	n := 0
	for _, targets := range g {
		n += len(targets)
	}
	return n
}

// Cycle is a closed dependency loop; the first and last layers are equal
type Cycle []string

// String renders the cycle as an arrow-joined path.
func (c Cycle) String() string {
	return strings.Join(c, CycleSeparator)
}

// CycleEntry is the serialised form of a Cycle
type CycleEntry struct {
	Layers []string `json:"layers"`
	Path   string   `json:"path"` // human-readable, e.g. "a → b → a"
}

// Tangle is a strongly connected group of two or more layers
type Tangle struct {
	Layers []string `json:"layers"`
}

// DependencyReport is the layer graph section of a report
type DependencyReport struct {
	PackageName string       `json:"package_name"`
	LayerRoot   string       `json:"layer_root"`
	Layers      LayerGraph   `json:"layers"`
	Cycles      []CycleEntry `json:"cycles"`
	Tangles     []Tangle     `json:"tangles,omitempty"`
}
