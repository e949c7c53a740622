// Package complexity reports functions whose cyclomatic complexity or nesting
// depth exceeds the configured thresholds.
package complexity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/smith-xyz/pyhealth/pkg/analysis/metrics"
	"github.com/smith-xyz/pyhealth/pkg/analysis/shared"
	"github.com/smith-xyz/pyhealth/pkg/config"
	"github.com/smith-xyz/pyhealth/pkg/models"
	"github.com/smith-xyz/pyhealth/pkg/source"
)

const (
	RuleHighComplexity = "high_complexity"
	RuleDeepNesting    = "deep_nesting"
)

// Analyzer measures every function of a source file
type Analyzer struct {
	logger     *slog.Logger
	thresholds config.ThresholdConfig
}

// NewAnalyzer creates a new complexity analyzer
func NewAnalyzer(logger *slog.Logger, cfg *config.Config) *Analyzer {
	return &Analyzer{
		logger:     logger,
		thresholds: cfg.Thresholds,
	}
}

// Name identifies the analyzer in reports and on the command line.
func (a *Analyzer) Name() string { return "complexity" }

// Selection excludes test files.
func (a *Analyzer) Selection() source.Selection { return source.SourceFiles }

// AnalyzeUnit returns one finding per breached threshold per function. Nested
// functions are measured and reported on their own as well.
func (a *Analyzer) AnalyzeUnit(ctx context.Context, unit *source.Unit) ([]models.Finding, error) {
	var findings []models.Finding
	for _, fn := range shared.Functions(unit.Root()) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m := metrics.Measure(fn, unit.Lines)
		if m.Complexity > a.thresholds.Complexity {
			severity := models.SeverityMedium
			if m.Complexity > a.thresholds.HighComplexity {
				severity = models.SeverityHigh
			}
			findings = append(findings, a.finding(unit, m, models.CategoryComplexity, severity, RuleHighComplexity,
				fmt.Sprintf("High complexity: %d (target: ≤%d)", m.Complexity, a.thresholds.Complexity),
				m.Complexity, m.Complexity-a.thresholds.Complexity))
		}
		if m.Nesting > a.thresholds.Nesting {
			findings = append(findings, a.finding(unit, m, models.CategoryNesting, models.SeverityMedium, RuleDeepNesting,
				fmt.Sprintf("Deep nesting: %d levels (target: ≤%d)", m.Nesting, a.thresholds.Nesting),
				m.Nesting, m.Nesting-a.thresholds.Nesting))
		}
	}
	a.logger.Debug("complexity analysed", "file", unit.Path, "findings", len(findings))
	return findings, nil
}

func (a *Analyzer) finding(unit *source.Unit, m models.FunctionMetrics, category models.Category, severity models.Severity, rule, message string, score, excess int) models.Finding {
	measured := m
	return models.Finding{
		Path:     unit.Path,
		Function: m.Name,
		Line:     m.Line,
		Category: category,
		Severity: severity,
		Rule:     rule,
		Message:  message,
		Score:    score,
		Excess:   excess,
		Metrics:  &measured,
	}.Sealed()
}
