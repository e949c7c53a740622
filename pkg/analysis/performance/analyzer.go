// Package performance flags loop-bound anti-patterns: nested loops, per-item
// accumulation, repeated string splitting and expensive calls inside loops.
package performance

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/smith-xyz/pyhealth/pkg/analysis/rules"
	"github.com/smith-xyz/pyhealth/pkg/analysis/shared"
	"github.com/smith-xyz/pyhealth/pkg/config"
	"github.com/smith-xyz/pyhealth/pkg/models"
	"github.com/smith-xyz/pyhealth/pkg/source"
	"github.com/smith-xyz/pyhealth/pkg/syntax"
)

const (
	RuleNestedLoops  = "nested_loops"
	RuleAppendInLoop = "list_append_in_loop"
	RuleSplitInLoop  = "string_split_in_loop"
	RuleFileIOInLoop = "file_io_in_loop"
	RuleLenInLoop    = "len_in_loop"
)

// Analyzer walks one file at a time
type Analyzer struct {
	logger          *slog.Logger
	classifier      *rules.Classifier
	nestedLoopDepth int
}

// NewAnalyzer creates a new performance analyzer
func NewAnalyzer(logger *slog.Logger, cfg *config.Config, r *rules.Rules) *Analyzer {
	return &Analyzer{
		logger:          logger,
		classifier:      r.Classifier,
		nestedLoopDepth: cfg.Performance.NestedLoopDepth,
	}
}

// Name identifies the analyzer in reports and on the command line.
func (a *Analyzer) Name() string { return "performance" }

// Selection excludes test files.
func (a *Analyzer) Selection() source.Selection { return source.SourceFiles }

// visitor carries the per-file walk state.
type visitor struct {
	*Analyzer
	unit      *source.Unit
	loopDepth int
	functions []string
	findings  []models.Finding
}

// AnalyzeUnit walks the file once. Loop depth is not reset when entering a
// nested function, so a def inside a loop body still counts as inside the loop.
func (a *Analyzer) AnalyzeUnit(ctx context.Context, unit *source.Unit) ([]models.Finding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v := &visitor{Analyzer: a, unit: unit}
	syntax.Inspect(unit.Root(), v.enter, v.leave)
	a.logger.Debug("performance analysed", "file", unit.Path, "findings", len(v.findings))
	return v.findings, nil
}

func (v *visitor) enter(n syntax.Node) bool {
	switch n.Kind() {
	case syntax.KindFunction:
		v.functions = append(v.functions, n.Field("name").Text())
	case syntax.KindFor, syntax.KindWhile:
		v.loopDepth++
		if v.loopDepth >= v.nestedLoopDepth {
			msg := fmt.Sprintf("Nested loop detected (depth %d) - potential O(n²) or worse", v.loopDepth)
			if n.Kind() == syntax.KindWhile {
				msg = fmt.Sprintf("Nested while loop (depth %d) - potential O(n²) or worse", v.loopDepth)
			}
			v.add(n, models.SeverityHigh, RuleNestedLoops, msg)
		}
	case syntax.KindAttribute:
		if v.loopDepth > 0 {
			v.attribute(n)
		}
	case syntax.KindCall:
		if v.loopDepth > 0 {
			v.call(n)
		}
	}
	return true
}

func (v *visitor) leave(n syntax.Node) {
	switch n.Kind() {
	case syntax.KindFunction:
		v.functions = v.functions[:len(v.functions)-1]
	case syntax.KindFor, syntax.KindWhile:
		v.loopDepth--
	}
}

func (v *visitor) attribute(n syntax.Node) {
	object, member, ok := shared.AttributeParts(n)
	if !ok {
		return
	}
	if v.classifier.IsBatchMethod(member) && object.Kind() == syntax.KindIdentifier {
		v.add(n, models.SeverityMedium, RuleAppendInLoop, "List append in loop - consider list comprehension")
	}
	if v.classifier.IsSplitMethod(member) {
		v.add(n, models.SeverityMedium, RuleSplitInLoop, "String split in loop - consider moving outside")
	}
}

func (v *visitor) call(n syntax.Node) {
	name, ok := shared.CallTarget(n)
	if !ok {
		return
	}
	severity, ok := v.classifier.ExpensiveCallSeverity(name)
	if !ok {
		return
	}
	if name == "len" {
		v.add(n, severity, RuleLenInLoop, "len() in loop - consider caching")
		return
	}
	v.add(n, severity, RuleFileIOInLoop, fmt.Sprintf("File I/O (%s) in loop - major performance impact", name))
}

func (v *visitor) add(n syntax.Node, severity models.Severity, rule, message string) {
	var function string
	if len(v.functions) > 0 {
		function = v.functions[len(v.functions)-1]
	}
	v.findings = append(v.findings, models.Finding{
		Path:     v.unit.Path,
		Function: function,
		Line:     n.StartLine(),
		Column:   n.Column() + 1,
		Category: models.CategoryPerformance,
		Severity: severity,
		Rule:     rule,
		Message:  message,
	}.Sealed())
}
