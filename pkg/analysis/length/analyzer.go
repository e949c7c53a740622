// Package length reports functions and files that exceed their logical line limits.
package length

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/smith-xyz/pyhealth/pkg/analysis/metrics"
	"github.com/smith-xyz/pyhealth/pkg/analysis/rules"
	"github.com/smith-xyz/pyhealth/pkg/analysis/shared"
	"github.com/smith-xyz/pyhealth/pkg/config"
	"github.com/smith-xyz/pyhealth/pkg/models"
	"github.com/smith-xyz/pyhealth/pkg/source"
)

const (
	RuleFunctionTooLong = "function_too_long"
	RuleFileTooLong     = "file_too_long"
)

// Analyzer checks function and file lengths
type Analyzer struct {
	logger           *slog.Logger
	maxFunctionLines int
	maxFileLines     int
	classifier       *rules.Classifier
}

// NewAnalyzer creates a new length analyzer
func NewAnalyzer(logger *slog.Logger, cfg *config.Config, r *rules.Rules) *Analyzer {
	return &Analyzer{
		logger:           logger,
		maxFunctionLines: cfg.Thresholds.MaxFunctionLines,
		maxFileLines:     cfg.Thresholds.MaxFileLines,
		classifier:       r.Classifier,
	}
}

// Name identifies the analyzer in reports and on the command line.
func (a *Analyzer) Name() string { return "length" }

// Selection excludes test files.
func (a *Analyzer) Selection() source.Selection { return source.SourceFiles }

// AnalyzeUnit reports every over-long function and, unless the file name is
// exempt, the file itself.
func (a *Analyzer) AnalyzeUnit(ctx context.Context, unit *source.Unit) ([]models.Finding, error) {
	var findings []models.Finding
	for _, fn := range shared.Functions(unit.Root()) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lines := metrics.LogicalLines(fn, unit.Lines)
		if lines <= a.maxFunctionLines {
			continue
		}
		excess := lines - a.maxFunctionLines
		findings = append(findings, models.Finding{
			Path:     unit.Path,
			Function: fn.Name,
			Line:     fn.StartLine,
			Category: models.CategoryLength,
			Severity: models.SeverityMedium,
			Rule:     RuleFunctionTooLong,
			Message:  fmt.Sprintf("Function '%s' has %d logical lines (max: %d, excess: %d)", fn.Name, lines, a.maxFunctionLines, excess),
			Score:    lines,
			Excess:   excess,
		}.Sealed())
	}

	if f, ok := a.fileSize(unit); ok {
		findings = append(findings, f)
	}
	return findings, nil
}

func (a *Analyzer) fileSize(unit *source.Unit) (models.Finding, bool) {
	if a.classifier.IsSizeExcluded(path.Base(unit.Path)) {
		a.logger.Debug("file exempt from size check", "file", unit.Path)
		return models.Finding{}, false
	}
	lines := metrics.FileLogicalLines(unit.Root(), unit.Lines)
	if lines <= a.maxFileLines {
		return models.Finding{}, false
	}
	excess := lines - a.maxFileLines
	return models.Finding{
		Path:     unit.Path,
		Line:     1,
		Category: models.CategoryFileSize,
		Severity: models.SeverityMedium,
		Rule:     RuleFileTooLong,
		Message:  fmt.Sprintf("%d lines (max: %d, excess: %d)", lines, a.maxFileLines, excess),
		Score:    lines,
		Excess:   excess,
	}.Sealed(), true
}
