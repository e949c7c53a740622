// Package dependency builds the layer import graph of a package and reports
// its dependency cycles.
package dependency

import (
	"fmt"
	"log/slog"

	"github.com/smith-xyz/pyhealth/pkg/analysis/rules"
	"github.com/smith-xyz/pyhealth/pkg/config"
	"github.com/smith-xyz/pyhealth/pkg/models"
	"github.com/smith-xyz/pyhealth/pkg/source"
	"github.com/smith-xyz/pyhealth/pkg/utils"
)

const RuleLayerCycle = "layer_cycle"

// Analyzer handles layer discovery, graph construction and cycle detection
type Analyzer struct {
	logger      *slog.Logger
	classifier  *rules.Classifier
	packageName string
	layerRoot   string
	rootDir     string
}

// NewAnalyzer creates a new dependency analyzer for a resolved project
func NewAnalyzer(logger *slog.Logger, project *config.Project, r *rules.Rules) *Analyzer {
	if project.PackageName == "" {
		logger.Warn("could not detect package name; set project.package_name for a complete dependency graph", "source_dir", project.SourceDir)
	}
	return &Analyzer{
		logger:      logger,
		classifier:  r.Classifier,
		packageName: project.PackageName,
		layerRoot:   project.LayerRoot,
		rootDir:     project.Root,
	}
}

// Name identifies the analyzer in reports and on the command line.
func (a *Analyzer) Name() string { return "dependencies" }

// Selection excludes test files.
func (a *Analyzer) Selection() source.Selection { return source.SourceFiles }

// Result is everything the dependency analysis produces
type Result struct {
	Graph    *Graph
	Cycles   []models.Cycle
	Findings []models.Finding
	Report   *models.DependencyReport
}

// Analyze builds the graph from every file's imports, then detects cycles.
func (a *Analyzer) Analyze(files []FileImports) *Result {
	graph := a.Build(files)
	cycles := FindCycles(graph.Layers)
	tangles := FindTangles(graph.Layers)
	a.logger.Debug("layer graph built", "layers", len(graph.Layers), "edges", graph.Layers.EdgeCount(), "cycles", len(cycles), "tangles", len(tangles))

	report := &models.DependencyReport{
		PackageName: a.packageName,
		LayerRoot:   a.rel(a.layerRoot),
		Layers:      graph.Layers,
		Cycles:      make([]models.CycleEntry, 0, len(cycles)),
		Tangles:     tangles,
	}
	var findings []models.Finding
	for _, c := range cycles {
		report.Cycles = append(report.Cycles, models.CycleEntry{Layers: c, Path: c.String()})
		findings = append(findings, a.cycleFinding(graph, c))
	}
	return &Result{Graph: graph, Cycles: cycles, Findings: findings, Report: report}
}

// cycleFinding anchors a cycle at the import that closes its first edge.
func (a *Analyzer) cycleFinding(graph *Graph, c models.Cycle) models.Finding {
	f := models.Finding{
		Category: models.CategoryCycle,
		Severity: models.SeverityHigh,
		Rule:     RuleLayerCycle,
		Message:  fmt.Sprintf("Circular dependency: %s", c),
		Score:    len(c) - 1,
	}
	if ref, ok := graph.Evidence(c[0], c[1]); ok {
		f.Path = ref.Path
		f.Line = ref.Line
	}
	return f.Sealed()
}

func (a *Analyzer) rel(path string) string {
	if a.rootDir == "" {
		return path
	}
	return utils.RelativePath(a.rootDir, path)
}
