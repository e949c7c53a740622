package dependency

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/smith-xyz/pyhealth/pkg/analysis/rules"
	"github.com/smith-xyz/pyhealth/pkg/config"
	"github.com/smith-xyz/pyhealth/pkg/models"
	"github.com/smith-xyz/pyhealth/pkg/source"
	"github.com/smith-xyz/pyhealth/pkg/testutil"
	"github.com/smith-xyz/pyhealth/pkg/utils"
)

const layeredFixture = `
-- src/shop/__init__.py --
-- src/shop/settings.py --
from shop.core import rules
-- src/shop/api/routes.py --
import os
import shop.db.session as session
from . import local
-- src/shop/core/service.py --
from shop.db import session
from shop.core import helpers
-- src/shop/db/session.py --
from shop.api import routes
from shop.templates import render
from other.db import thing
-- src/shop/templates/render.py --
from shop.api import routes
`

func newProject(t *testing.T, archive string) *config.Project {
	t.Helper()
	cfg, err := config.DefaultConfig()
	if err != nil {
		t.Fatalf("Failed to load default config: %v", err)
	}
	project, err := config.NewProject(cfg, testutil.WriteTree(t, archive))
	if err != nil {
		t.Fatalf("NewProject() failed: %v", err)
	}
	return project
}

func scanAll(t *testing.T, a *Analyzer, project *config.Project) []FileImports {
	t.Helper()
	filter, err := source.NewFilter(project.Files)
	if err != nil {
		t.Fatalf("NewFilter() failed: %v", err)
	}
	paths, err := filter.Discover(project.SourceDir, a.Selection())
	if err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}
	var files []FileImports
	for _, abs := range paths {
		u, err := source.Load(context.Background(), abs, project.Rel(abs))
		if err != nil {
			t.Fatalf("Load(%s) failed: %v", abs, err)
		}
		files = append(files, a.Scan(u))
		u.Close()
	}
	return files
}

func TestLayerOf(t *testing.T) {
	root := filepath.FromSlash("/p/src/shop")
	tests := []struct {
		path     string
		expected string
	}{
		{"/p/src/shop/api/routes.py", "api"},
		{"/p/src/shop/api/v1/routes.py", "api"},
		{"/p/src/shop/settings.py", RootLayer},
		{"/p/tests/test_x.py", RootLayer},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := LayerOf(root, filepath.FromSlash(tt.path)); got != tt.expected {
				t.Errorf("LayerOf(%q) = %q, want %q", tt.path, got, tt.expected)
			}
		})
	}
}

func TestScanAndBuild(t *testing.T) {
	project := newProject(t, layeredFixture)
	if project.PackageName != "shop" {
		t.Fatalf("PackageName = %q, want shop", project.PackageName)
	}
	a := NewAnalyzer(utils.DiscardLogger(), project, rules.NewRules(project.Config))
	graph := a.Build(scanAll(t, a, project))

	expected := models.LayerGraph{
		"api":  {"db"},
		"core": {"db"},
		"db":   {"api"},
	}
	if !reflect.DeepEqual(graph.Layers, expected) {
		t.Errorf("Build() = %v, want %v", graph.Layers, expected)
	}

	ref, ok := graph.Evidence("api", "db")
	if !ok || ref.Path != "src/shop/api/routes.py" || ref.Line != 2 {
		t.Errorf("Evidence(api, db) = (%+v, %v), want routes.py:2", ref, ok)
	}
	if _, ok := graph.Evidence("db", "templates"); ok {
		t.Error("edges into skipped layers should be dropped")
	}
	if _, ok := graph.Layers[RootLayer]; ok {
		t.Error("root layer is skipped by default")
	}
}

func TestScanWithoutPackageName(t *testing.T) {
	project := newProject(t, layeredFixture)
	project.PackageName = ""
	a := NewAnalyzer(utils.DiscardLogger(), project, rules.NewRules(project.Config))

	for _, f := range scanAll(t, a, project) {
		if len(f.Imports) != 0 {
			t.Errorf("Scan(%s) imports = %v, want none", f.Path, f.Imports)
		}
	}
}

func TestFindCycles(t *testing.T) {
	tests := []struct {
		name     string
		graph    models.LayerGraph
		expected []models.Cycle
	}{
		{
			name:     "acyclic",
			graph:    models.LayerGraph{"a": {"b"}, "b": {"c"}, "c": {}},
			expected: nil,
		},
		{
			name:     "triangle reported once",
			graph:    models.LayerGraph{"a": {"b"}, "b": {"c"}, "c": {"a"}},
			expected: []models.Cycle{{"a", "b", "c", "a"}},
		},
		{
			name:     "mutual import reported once",
			graph:    models.LayerGraph{"a": {"b"}, "b": {"a"}},
			expected: []models.Cycle{{"a", "b", "a"}},
		},
		{
			name:     "two independent loops",
			graph:    models.LayerGraph{"a": {"b"}, "b": {"a"}, "c": {"d"}, "d": {"c"}},
			expected: []models.Cycle{{"a", "b", "a"}, {"c", "d", "c"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindCycles(tt.graph)
			if len(got) == 0 && len(tt.expected) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("FindCycles() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestFindCyclesIsDeterministic(t *testing.T) {
	g := models.LayerGraph{"a": {"b", "c"}, "b": {"c"}, "c": {"a"}, "d": {"a"}}
	first := FindCycles(g)
	for i := 0; i < 20; i++ {
		if got := FindCycles(g); !reflect.DeepEqual(got, first) {
			t.Fatalf("FindCycles() run %d = %v, want %v", i, got, first)
		}
	}
}

func TestFindTangles(t *testing.T) {
	g := models.LayerGraph{"a": {"b"}, "b": {"c"}, "c": {"a"}, "d": {"a"}, "e": {"f"}, "f": {"e"}}
	expected := []models.Tangle{{Layers: []string{"a", "b", "c"}}, {Layers: []string{"e", "f"}}}
	if got := FindTangles(g); !reflect.DeepEqual(got, expected) {
		t.Errorf("FindTangles() = %v, want %v", got, expected)
	}
}

func TestAnalyze(t *testing.T) {
	project := newProject(t, layeredFixture)
	a := NewAnalyzer(utils.DiscardLogger(), project, rules.NewRules(project.Config))
	result := a.Analyze(scanAll(t, a, project))

	if len(result.Cycles) != 1 {
		t.Fatalf("Analyze() cycles = %v, want one", result.Cycles)
	}
	if got := result.Report.Cycles[0].Path; got != "api → db → api" {
		t.Errorf("cycle path = %q, want %q", got, "api → db → api")
	}
	if result.Report.LayerRoot != "src/shop" || result.Report.PackageName != "shop" {
		t.Errorf("report = %s in %s, want shop in src/shop", result.Report.PackageName, result.Report.LayerRoot)
	}

	if len(result.Findings) != 1 {
		t.Fatalf("Analyze() findings = %d, want 1", len(result.Findings))
	}
	f := result.Findings[0]
	if f.Category != models.CategoryCycle || f.Severity != models.SeverityHigh {
		t.Errorf("finding = %s/%s, want cycle/high", f.Category, f.Severity)
	}
	if f.Path != "src/shop/api/routes.py" || f.Line != 2 {
		t.Errorf("finding location = %s:%d, want src/shop/api/routes.py:2", f.Path, f.Line)
	}
	if f.Fingerprint == "" {
		t.Error("finding should be sealed")
	}
}
