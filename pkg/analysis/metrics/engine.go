// Package metrics computes the per-function and per-file measurements the
// complexity and length analyzers report on. Every function here is pure.
package metrics

import (
	"strings"

	"github.com/smith-xyz/pyhealth/pkg/analysis/shared"
	"github.com/smith-xyz/pyhealth/pkg/models"
	"github.com/smith-xyz/pyhealth/pkg/syntax"
)

// Measure returns the complexity, nesting depth and logical line count of a
// function. lines are the owning unit's source lines.
func Measure(fn shared.FunctionNode, lines []string) models.FunctionMetrics {
	return models.FunctionMetrics{
		Name:         fn.Name,
		Line:         fn.StartLine,
		EndLine:      fn.EndLine,
		Async:        fn.Async,
		Complexity:   Complexity(fn),
		Nesting:      Nesting(fn),
		LogicalLines: LogicalLines(fn, lines),
	}
}

// Complexity is the cyclomatic complexity of the whole function subtree,
// nested definitions included. It starts at 1 and adds one per decision point,
// operands-1 per boolean chain and one per comprehension filter.
func Complexity(fn shared.FunctionNode) int {
	complexity := 1
	syntax.Inspect(fn.Node, func(n syntax.Node) bool {
		switch kind := n.Kind(); {
		case kind.IsDecision():
			complexity++
		case kind == syntax.KindBoolOp:
			// a and b and c parses as two binary operators.
			complexity++
		case kind == syntax.KindComprehension:
			for _, c := range n.NamedChildren() {
				if c.Kind() == syntax.KindFilterClause {
					complexity++
				}
			}
		}
		return true
	}, nil)
	return complexity
}

// Nesting is the deepest block depth reached under the function. if, for,
// while, with and try each open one level; an elif sits one level below the
// branch before it.
func Nesting(fn shared.FunctionNode) int {
	return nestingDepth(fn.Node, 0)
}

func nestingDepth(n syntax.Node, depth int) int {
	deepest := depth
	elifs := 0
	isIf := n.Kind() == syntax.KindIf
	for _, c := range n.Children() {
		d := depth
		switch {
		case c.Kind().OpensBlock():
			d = depth + 1
		case isIf && c.Kind() == syntax.KindElif:
			elifs++
			d = depth + elifs
		case isIf && c.Kind() == syntax.KindElse:
			d = depth + elifs
		}
		if got := nestingDepth(c, d); got > deepest {
			deepest = got
		}
	}
	return deepest
}

// LogicalLines counts the lines of a function excluding its signature line,
// blank lines, comment-only lines and the leading docstring.
func LogicalLines(fn shared.FunctionNode, lines []string) int {
	skip := map[int]bool{fn.StartLine: true}
	if doc, ok := fn.Docstring(); ok {
		for l := doc.StartLine; l <= doc.EndLine; l++ {
			skip[l] = true
		}
	}
	return countLines(lines, fn.StartLine, fn.EndLine, skip)
}

// FileLogicalLines counts the non-blank, non-comment lines of a whole file
// that are not part of a module, class or function docstring.
func FileLogicalLines(root syntax.Node, lines []string) int {
	skip := make(map[int]bool)
	markDocstring := func(block syntax.Node) {
		if doc, ok := shared.LeadingDocstring(block); ok {
			for l := doc.StartLine; l <= doc.EndLine; l++ {
				skip[l] = true
			}
		}
	}
	markDocstring(root)
	syntax.Inspect(root, func(n syntax.Node) bool {
		switch n.Kind() {
		case syntax.KindFunction, syntax.KindClass:
			markDocstring(n.Field("body"))
		}
		return true
	}, nil)
	return countLines(lines, 1, len(lines), skip)
}

func countLines(lines []string, from, to int, skip map[int]bool) int {
	if to > len(lines) {
		to = len(lines)
	}
	count := 0
	for l := max(from, 1); l <= to; l++ {
		if skip[l] {
			continue
		}
		stripped := strings.TrimSpace(lines[l-1])
		if stripped == "" || strings.HasPrefix(stripped, "#") {
			continue
		}
		count++
	}
	return count
}
