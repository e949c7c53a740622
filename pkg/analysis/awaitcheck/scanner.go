package awaitcheck

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/smith-xyz/pyhealth/pkg/analysis/rules"
	"github.com/smith-xyz/pyhealth/pkg/analysis/shared"
	"github.com/smith-xyz/pyhealth/pkg/models"
	"github.com/smith-xyz/pyhealth/pkg/source"
	"github.com/smith-xyz/pyhealth/pkg/syntax"
)

const RuleUnawaited = "unawaited_coroutine"

// Scanner runs the scan phase against a closed NameSet
type Scanner struct {
	logger     *slog.Logger
	classifier *rules.Classifier
	names      NameSet
}

// NewScanner creates a scanner for the names collected from implementation files.
func NewScanner(logger *slog.Logger, r *rules.Rules, names NameSet) *Scanner {
	return &Scanner{
		logger:     logger,
		classifier: r.Classifier,
		names:      names,
	}
}

// Name identifies the analyzer in reports and on the command line.
func (s *Scanner) Name() string { return "async" }

// Selection keeps only test files.
func (s *Scanner) Selection() source.Selection { return source.TestFiles }

// AnalyzeUnit reports every call to a tracked coroutine that is not awaited,
// driven by async for or async with, or handed to an orchestration helper.
func (s *Scanner) AnalyzeUnit(ctx context.Context, unit *source.Unit) ([]models.Finding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.names.Len() == 0 {
		return nil, nil
	}

	var findings []models.Finding
	syntax.Inspect(unit.Root(), func(n syntax.Node) bool {
		if n.Kind() != syntax.KindCall {
			return true
		}
		name, ok := shared.CallTarget(n)
		if !ok || !s.names.Has(name) || s.consumed(n) {
			return true
		}
		var function string
		if fn, ok := shared.EnclosingFunction(n); ok {
			function = fn.Name
		}
		findings = append(findings, models.Finding{
			Path:       unit.Path,
			Function:   function,
			Line:       n.StartLine(),
			Column:     n.Column() + 1,
			Category:   models.CategoryAsync,
			Severity:   models.SeverityHigh,
			Rule:       RuleUnawaited,
			Message:    fmt.Sprintf("%s() is a coroutine and is never awaited", name),
			Suggestion: "await " + n.Text(),
		}.Sealed())
		return true
	}, nil)
	return findings, nil
}

// consumed reports whether the coroutine a call creates is driven by its context.
func (s *Scanner) consumed(call syntax.Node) bool {
	child, parent := outerParens(call)

	switch parent.Kind() {
	case syntax.KindAwait:
		return true
	case syntax.KindFor:
		return parent.IsAsync() && parent.Field("right").Same(child)
	case syntax.KindArguments:
		return s.isHelperCall(parent.Parent())
	case syntax.KindKeywordArgument:
		return parent.Field("value").Same(child) && s.isHelperCall(parent.Parent().Parent())
	}
	return inAsyncWith(child, parent)
}

func (s *Scanner) isHelperCall(call syntax.Node) bool {
	name, ok := shared.CallTarget(call)
	return ok && s.classifier.IsOrchestrationHelper(name)
}

// outerParens climbs out of any enclosing parentheses and returns the
// outermost parenthesised node with its parent.
func outerParens(n syntax.Node) (syntax.Node, syntax.Node) {
	parent := n.Parent()
	for parent.Kind() == syntax.KindParenthesized {
		n, parent = parent, parent.Parent()
	}
	return n, parent
}

// inAsyncWith reports whether child is the context expression of an async
// with item, optionally bound with as.
func inAsyncWith(child, parent syntax.Node) bool {
	if parent.Type() == "as_pattern" {
		inner := parent.NamedChildren()
		if len(inner) == 0 || !inner[0].Same(child) {
			return false
		}
		parent = parent.Parent()
	}
	if parent.Type() != "with_item" {
		return false
	}
	for p := parent.Parent(); !p.IsNil(); p = p.Parent() {
		switch p.Kind() {
		case syntax.KindWith:
			return p.IsAsync()
		case syntax.KindParenthesized:
			continue
		}
		if p.Type() != "with_clause" {
			return false
		}
	}
	return false
}
