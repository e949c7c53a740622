// Package shared holds the tree-walking helpers used by more than one analyzer.
package shared

import (
	"github.com/smith-xyz/pyhealth/pkg/syntax"
)

// FunctionNode is a view of a function or coroutine definition
type FunctionNode struct {
	Node       syntax.Node   // the function definition itself
	Name       string        // declared name
	StartLine  int           // line of the def keyword (decorators excluded)
	EndLine    int           // last line of the body
	Async      bool          // declared with async def
	Decorators []syntax.Node // decorator expressions, outermost first
	Body       syntax.Node   // the body block
}

// AsFunction returns the function view of a definition node.
func AsFunction(n syntax.Node) (FunctionNode, bool) {
	if n.Kind() != syntax.KindFunction {
		return FunctionNode{}, false
	}
	fn := FunctionNode{
		Node:      n,
		Name:      n.Field("name").Text(),
		StartLine: n.StartLine(),
		EndLine:   n.EndLine(),
		Async:     n.IsAsync(),
		Body:      n.Field("body"),
	}
	if parent := n.Parent(); parent.Kind() == syntax.KindDecorated {
		for _, c := range parent.NamedChildren() {
			if c.Kind() != syntax.KindDecorator {
				continue
			}
			if expr := c.NamedChildren(); len(expr) > 0 {
				fn.Decorators = append(fn.Decorators, expr[0])
			}
		}
	}
	return fn, true
}

// Statements returns the body statements, comments excluded.
func (f FunctionNode) Statements() []syntax.Node {
	return f.Body.Statements()
}

// Docstring returns the leading documentation string of the body, if any.
func (f FunctionNode) Docstring() (Docstring, bool) {
	return LeadingDocstring(f.Body)
}

// Functions returns every function definition under root in source order,
// nested definitions included.
func Functions(root syntax.Node) []FunctionNode {
	var out []FunctionNode
	syntax.Inspect(root, func(n syntax.Node) bool {
		if fn, ok := AsFunction(n); ok {
			out = append(out, fn)
		}
		return true
	}, nil)
	return out
}

// Docstring is a leading string-literal statement with its span
type Docstring struct {
	Value     string
	StartLine int
	EndLine   int
}

// LeadingDocstring reports the docstring of a block or module: its first
// statement, when that statement is an expression consisting only of a string.
func LeadingDocstring(block syntax.Node) (Docstring, bool) {
	stmts := block.Statements()
	if len(stmts) == 0 || stmts[0].Kind() != syntax.KindExprStatement {
		return Docstring{}, false
	}
	exprs := stmts[0].NamedChildren()
	if len(exprs) != 1 {
		return Docstring{}, false
	}
	value, ok := syntax.StringValue(exprs[0])
	if !ok {
		return Docstring{}, false
	}
	return Docstring{
		Value:     value,
		StartLine: stmts[0].StartLine(),
		EndLine:   stmts[0].EndLine(),
	}, true
}

// EnclosingFunction returns the nearest function definition containing n.
func EnclosingFunction(n syntax.Node) (FunctionNode, bool) {
	for p := n.Parent(); !p.IsNil(); p = p.Parent() {
		if fn, ok := AsFunction(p); ok {
			return fn, true
		}
	}
	return FunctionNode{}, false
}
