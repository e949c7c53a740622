package generator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/smith-xyz/pyhealth/pkg/models"
	"github.com/smith-xyz/pyhealth/pkg/source"
	"github.com/smith-xyz/pyhealth/pkg/utils"
)

// Analyzer names accepted on the command line
const (
	AnalyzerComplexity   = "complexity"
	AnalyzerLength       = "length"
	AnalyzerPerformance  = "performance"
	AnalyzerNaming       = "naming"
	AnalyzerDataModel    = "datamodel"
	AnalyzerAsync        = "async"
	AnalyzerDocstring    = "docstring"
	AnalyzerDependencies = "dependencies"
	AnalyzerCoverage     = "coverage"
)

// AllAnalyzers lists every analyzer run by default
var AllAnalyzers = []string{
	AnalyzerComplexity,
	AnalyzerLength,
	AnalyzerPerformance,
	AnalyzerNaming,
	AnalyzerDataModel,
	AnalyzerAsync,
	AnalyzerDocstring,
	AnalyzerDependencies,
	AnalyzerCoverage,
}

// ErrUnknownAnalyzer is returned for an analyzer name that is not registered.
var ErrUnknownAnalyzer = errors.New("unknown analyzer")

// UnitAnalyzer is a matcher that looks at one file at a time and keeps no
// state between files.
type UnitAnalyzer interface {
	Name() string
	Selection() source.Selection
	AnalyzeUnit(ctx context.Context, unit *source.Unit) ([]models.Finding, error)
}

// Selection is the resolved set of analyzers for one run
type Selection map[string]bool

// SelectAnalyzers validates names. No names, or "all", selects every analyzer.
func SelectAnalyzers(names []string) (Selection, error) {
	sel := make(Selection)
	for _, name := range utils.TrimSpaceSlice(names) {
		name = strings.ToLower(name)
		switch {
		case name == "all":
			for _, n := range AllAnalyzers {
				sel[n] = true
			}
		case isRegistered(name):
			sel[name] = true
		default:
			return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownAnalyzer, name, strings.Join(AllAnalyzers, ", "))
		}
	}
	if len(sel) == 0 {
		for _, n := range AllAnalyzers {
			sel[n] = true
		}
	}
	return sel, nil
}

func isRegistered(name string) bool {
	for _, n := range AllAnalyzers {
		if n == name {
			return true
		}
	}
	return false
}

// Names returns the selected analyzer names, sorted.
func (s Selection) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
