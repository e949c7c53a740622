// Package datamodel enforces validated record classes and their placement in
// the designated models file.
package datamodel

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"

	"github.com/smith-xyz/pyhealth/pkg/analysis/rules"
	"github.com/smith-xyz/pyhealth/pkg/analysis/shared"
	"github.com/smith-xyz/pyhealth/pkg/config"
	"github.com/smith-xyz/pyhealth/pkg/models"
	"github.com/smith-xyz/pyhealth/pkg/source"
	"github.com/smith-xyz/pyhealth/pkg/syntax"
	"github.com/smith-xyz/pyhealth/pkg/utils"
)

const (
	RulePlainRecord = "plain_record_base"
	RuleWrongFile   = "model_in_wrong_file"
)

// Shape is what a class's bases say about it
type Shape struct {
	Plain     bool   // derives from a plain dict-shaped record base
	Validated bool   // derives from a validated model base
	PlainBase string // the matched plain base name
}

// IsModel reports whether the class is a data model of either kind.
func (s Shape) IsModel() bool {
	return s.Plain || s.Validated
}

// Analyzer checks class definitions in source files
type Analyzer struct {
	logger     *slog.Logger
	classifier *rules.Classifier
	modelsFile string
}

// NewAnalyzer creates a new data-model analyzer
func NewAnalyzer(logger *slog.Logger, cfg *config.Config, r *rules.Rules) *Analyzer {
	return &Analyzer{
		logger:     logger,
		classifier: r.Classifier,
		modelsFile: cfg.DataModels.ModelsFile,
	}
}

// Name identifies the analyzer in reports and on the command line.
func (a *Analyzer) Name() string { return "datamodel" }

// Selection excludes test files.
func (a *Analyzer) Selection() source.Selection { return source.SourceFiles }

// Classify inspects the positional bases of a class definition. Bases that are
// neither a bare name nor an attribute access are ignored.
func (a *Analyzer) Classify(class syntax.Node) Shape {
	var shape Shape
	for _, base := range shared.BaseClasses(class) {
		name, ok := shared.TrailingName(base)
		if !ok {
			continue
		}
		if a.classifier.IsPlainBase(name) && !shape.Plain {
			shape.Plain = true
			shape.PlainBase = name
		}
		if a.classifier.IsValidatedBase(name) {
			shape.Validated = true
		}
	}
	return shape
}

// AnalyzeUnit reports plain record classes, and any data model declared
// outside the models file when the file's directory already has one.
func (a *Analyzer) AnalyzeUnit(ctx context.Context, unit *source.Unit) ([]models.Finding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	inModelsFile := path.Base(unit.Path) == a.modelsFile
	siblingModels := ""
	if !inModelsFile && unit.AbsPath != "" && utils.FileExists(filepath.Join(filepath.Dir(unit.AbsPath), a.modelsFile)) {
		siblingModels = path.Join(path.Dir(unit.Path), a.modelsFile)
	}

	var findings []models.Finding
	syntax.Inspect(unit.Root(), func(n syntax.Node) bool {
		if n.Kind() != syntax.KindClass {
			return true
		}
		shape := a.Classify(n)
		name := shared.ClassName(n)
		if shape.Plain {
			findings = append(findings, a.finding(unit, n, models.SeverityHigh, RulePlainRecord,
				fmt.Sprintf("%s '%s' used - Pydantic BaseModel required", shape.PlainBase, name), ""))
		}
		if shape.IsModel() && siblingModels != "" {
			findings = append(findings, a.finding(unit, n, models.SeverityMedium, RuleWrongFile,
				fmt.Sprintf("Data model '%s' defined in wrong file - should be in %s", name, siblingModels), siblingModels))
		}
		return true
	}, nil)
	return findings, nil
}

func (a *Analyzer) finding(unit *source.Unit, class syntax.Node, severity models.Severity, rule, message, suggestion string) models.Finding {
	return models.Finding{
		Path:       unit.Path,
		Function:   shared.ClassName(class),
		Line:       class.StartLine(),
		Category:   models.CategoryDataModel,
		Severity:   severity,
		Rule:       rule,
		Message:    message,
		Suggestion: suggestion,
	}.Sealed()
}
