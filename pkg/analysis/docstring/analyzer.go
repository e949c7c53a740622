// Package docstring scores the documentation of decorated tool callables
// against a five-point rubric.
package docstring

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/smith-xyz/pyhealth/pkg/analysis/shared"
	"github.com/smith-xyz/pyhealth/pkg/config"
	"github.com/smith-xyz/pyhealth/pkg/models"
	"github.com/smith-xyz/pyhealth/pkg/source"
	"github.com/smith-xyz/pyhealth/pkg/utils"
)

const RuleBelowTarget = "docstring_below_target"

// Analyzer scores decorated callables
type Analyzer struct {
	logger             *slog.Logger
	rubric             *Rubric
	decoratorObject    string
	decoratorAttribute string
	targetScore        int
	targetWithExamples int
	importRoots        []string
}

// NewAnalyzer creates a new docstring analyzer. importRoots are the
// directories absolute imports resolve against; without them every ancestor
// of the importing file is tried.
func NewAnalyzer(logger *slog.Logger, cfg *config.Config, importRoots ...string) (*Analyzer, error) {
	rubric, err := NewRubric(cfg.Docstrings)
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		logger:             logger,
		rubric:             rubric,
		decoratorObject:    cfg.Docstrings.DecoratorObject,
		decoratorAttribute: cfg.Docstrings.DecoratorAttribute,
		targetScore:        cfg.Docstrings.TargetScore,
		targetWithExamples: cfg.Docstrings.TargetWithExamples,
		importRoots:        importRoots,
	}, nil
}

// Name identifies the analyzer in reports and on the command line.
func (a *Analyzer) Name() string { return "docstring" }

// Selection excludes test files.
func (a *Analyzer) Selection() source.Selection { return source.SourceFiles }

// ScoreUnit scores every decorated callable in the file. A __doc__ assignment
// that resolves to a string takes precedence over the inline docstring.
func (a *Analyzer) ScoreUnit(ctx context.Context, unit *source.Unit) ([]models.ToolScore, error) {
	var tools []shared.FunctionNode
	for _, fn := range shared.Functions(unit.Root()) {
		if a.isTool(fn) {
			tools = append(tools, fn)
		}
	}
	if len(tools) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	overrides := resolveOverrides(ctx, unit.Root(), unit.AbsPath, a.importRoots)
	module := utils.ModuleName(unit.Path)

	scores := make([]models.ToolScore, 0, len(tools))
	for _, fn := range tools {
		doc := overrides[fn.Name]
		if doc == "" {
			if d, ok := fn.Docstring(); ok {
				doc = d.Value
			}
		}
		score := a.rubric.Score(strings.TrimSpace(doc))
		score.Module = module
		score.Name = fn.Name
		score.Path = unit.Path
		score.Line = fn.StartLine
		scores = append(scores, score)
	}
	return scores, nil
}

func (a *Analyzer) isTool(fn shared.FunctionNode) bool {
	for _, d := range fn.Decorators {
		if shared.MatchesDecorator(d, a.decoratorObject, a.decoratorAttribute) {
			return true
		}
	}
	return false
}

// Findings reports the tools scoring below the target.
func (a *Analyzer) Findings(scores []models.ToolScore) []models.Finding {
	var findings []models.Finding
	for _, s := range scores {
		if s.Score >= a.targetScore {
			continue
		}
		severity := models.SeverityMedium
		if s.Score <= 2 {
			severity = models.SeverityHigh
		}
		findings = append(findings, models.Finding{
			Path:     s.Path,
			Function: s.Name,
			Line:     s.Line,
			Category: models.CategoryDocstring,
			Severity: severity,
			Rule:     RuleBelowTarget,
			Message:  fmt.Sprintf("Tool '%s' scores %d/5 (target: %d) - missing: %s", s.Name, s.Score, a.targetScore, strings.Join(s.Gaps, ", ")),
			Score:    s.Score,
		}.Sealed())
	}
	return findings
}

// AnalyzeUnit scores the file and returns the below-target findings.
func (a *Analyzer) AnalyzeUnit(ctx context.Context, unit *source.Unit) ([]models.Finding, error) {
	scores, err := a.ScoreUnit(ctx, unit)
	if err != nil {
		return nil, err
	}
	return a.Findings(scores), nil
}

// Summarize counts scores against the targets. Targets are met when nothing is
// below the target score and enough tools carry examples.
func (a *Analyzer) Summarize(scores []models.ToolScore) *models.DocstringSummary {
	summary := &models.DocstringSummary{
		Total: len(scores),
		Tools: append([]models.ToolScore(nil), scores...),
	}
	for _, s := range scores {
		switch {
		case s.Score == 5:
			summary.Score5++
		case s.Score == 4:
			summary.Score4++
		}
		if s.Score < a.targetScore {
			summary.BelowTarget++
		}
		if s.HasExamples {
			summary.WithExamples++
		}
	}
	summary.TargetsMet = summary.BelowTarget == 0 && summary.WithExamples >= a.targetWithExamples
	sort.SliceStable(summary.Tools, func(i, j int) bool {
		x, y := summary.Tools[i], summary.Tools[j]
		if x.Score != y.Score {
			return x.Score < y.Score
		}
		if x.Module != y.Module {
			return x.Module < y.Module
		}
		return x.Name < y.Name
	})
	return summary
}
