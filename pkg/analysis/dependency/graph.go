package dependency

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/smith-xyz/pyhealth/pkg/models"
	"github.com/smith-xyz/pyhealth/pkg/source"
	"github.com/smith-xyz/pyhealth/pkg/syntax"
)

// RootLayer names files that sit directly in the layer root.
const RootLayer = "root"

// ImportRef is one import of another layer
type ImportRef struct {
	Layer string
	Path  string
	Line  int
}

// FileImports is the per-file result of the scan phase
type FileImports struct {
	Path    string
	Layer   string
	Imports []ImportRef
}

// Graph is the layer graph together with the first import that created each edge
type Graph struct {
	Layers   models.LayerGraph
	evidence map[[2]string]ImportRef
}

// Evidence returns the import that first established the edge from -> to,
// ordered by path then line.
func (g *Graph) Evidence(from, to string) (ImportRef, bool) {
	ref, ok := g.evidence[[2]string{from, to}]
	return ref, ok
}

// LayerOf returns the first path segment of absPath beneath layerRoot, or
// RootLayer for files directly inside it or outside it.
func LayerOf(layerRoot, absPath string) string {
	rel, err := filepath.Rel(layerRoot, absPath)
	if err != nil {
		return RootLayer
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 || parts[0] == ".." || parts[0] == "." {
		return RootLayer
	}
	return parts[0]
}

// Scan lists the layers one file imports. Only absolute imports whose first
// segment is the package name count; the second segment is the layer.
// Relative imports are ignored.
func (a *Analyzer) Scan(unit *source.Unit) FileImports {
	fi := FileImports{
		Path:  unit.Path,
		Layer: LayerOf(a.layerRoot, unit.AbsPath),
	}
	if a.packageName == "" {
		return fi
	}
	syntax.Inspect(unit.Root(), func(n syntax.Node) bool {
		switch n.Kind() {
		case syntax.KindImportFrom:
			if layer, ok := a.layerOfModule(n.Field("module_name")); ok {
				fi.Imports = append(fi.Imports, ImportRef{Layer: layer, Path: unit.Path, Line: n.StartLine()})
			}
			return false
		case syntax.KindImport:
			for _, c := range n.NamedChildren() {
				module := c
				if c.Type() == "aliased_import" {
					module = c.Field("name")
				}
				if layer, ok := a.layerOfModule(module); ok {
					fi.Imports = append(fi.Imports, ImportRef{Layer: layer, Path: unit.Path, Line: n.StartLine()})
				}
			}
			return false
		}
		return true
	}, nil)
	return fi
}

func (a *Analyzer) layerOfModule(module syntax.Node) (string, bool) {
	if module.Type() != "dotted_name" {
		return "", false
	}
	parts := strings.Split(module.Text(), ".")
	if len(parts) < 2 || strings.TrimSpace(parts[0]) != a.packageName {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// Build merges every file's imports into the layer graph. It runs after all
// files are scanned. Files in skipped layers contribute nothing; an edge is
// dropped when it points at its own layer, a skipped layer, or a layer with no
// analysed files.
func (a *Analyzer) Build(files []FileImports) *Graph {
	g := &Graph{
		Layers:   make(models.LayerGraph),
		evidence: make(map[[2]string]ImportRef),
	}
	for _, f := range files {
		if !a.classifier.IsSkippedLayer(f.Layer) {
			g.Layers[f.Layer] = []string{}
		}
	}

	targets := make(map[string]map[string]bool)
	for _, f := range files {
		if a.classifier.IsSkippedLayer(f.Layer) {
			continue
		}
		for _, ref := range f.Imports {
			if ref.Layer == f.Layer || a.classifier.IsSkippedLayer(ref.Layer) {
				continue
			}
			if _, known := g.Layers[ref.Layer]; !known {
				continue
			}
			if targets[f.Layer] == nil {
				targets[f.Layer] = make(map[string]bool)
			}
			targets[f.Layer][ref.Layer] = true

			key := [2]string{f.Layer, ref.Layer}
			if prev, ok := g.evidence[key]; !ok || ref.Path < prev.Path || (ref.Path == prev.Path && ref.Line < prev.Line) {
				g.evidence[key] = ref
			}
		}
	}

	for from, set := range targets {
		list := make([]string, 0, len(set))
		for to := range set {
			list = append(list, to)
		}
		sort.Strings(list)
		g.Layers[from] = list
	}
	return g
}
