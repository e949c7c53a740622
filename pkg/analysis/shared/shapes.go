package shared

import (
	"github.com/smith-xyz/pyhealth/pkg/syntax"
)

// Unparen strips any number of enclosing parentheses.
func Unparen(n syntax.Node) syntax.Node {
	for n.Kind() == syntax.KindParenthesized {
		inner := n.NamedChildren()
		if len(inner) != 1 {
			return n
		}
		n = inner[0]
	}
	return n
}

// TrailingName returns the name of a bare identifier or the final member of an
// attribute access (a.b.c gives c). Other expressions have no name.
func TrailingName(expr syntax.Node) (string, bool) {
	expr = Unparen(expr)
	switch expr.Kind() {
	case syntax.KindIdentifier:
		return expr.Text(), true
	case syntax.KindAttribute:
		attr := expr.Field("attribute")
		if attr.IsNil() {
			return "", false
		}
		return attr.Text(), true
	}
	return "", false
}

// CallTarget returns the name a call invokes, using TrailingName on the callee.
func CallTarget(call syntax.Node) (string, bool) {
	if call.Kind() != syntax.KindCall {
		return "", false
	}
	return TrailingName(call.Field("function"))
}

// AttributeParts splits obj.attr into its object expression and member name.
func AttributeParts(expr syntax.Node) (object syntax.Node, member string, ok bool) {
	expr = Unparen(expr)
	if expr.Kind() != syntax.KindAttribute {
		return syntax.Node{}, "", false
	}
	attr := expr.Field("attribute")
	if attr.IsNil() {
		return syntax.Node{}, "", false
	}
	return expr.Field("object"), attr.Text(), true
}

// IsNameAttribute reports whether expr is exactly object.member with a bare
// identifier on the left.
func IsNameAttribute(expr syntax.Node, object, member string) bool {
	obj, name, ok := AttributeParts(expr)
	return ok && name == member && obj.Kind() == syntax.KindIdentifier && obj.Text() == object
}

// MatchesDecorator reports whether a decorator expression is object.member or
// a call of it, as in @mcp.tool and @mcp.tool(name="x").
func MatchesDecorator(expr syntax.Node, object, member string) bool {
	expr = Unparen(expr)
	if expr.Kind() == syntax.KindCall {
		expr = expr.Field("function")
	}
	return IsNameAttribute(expr, object, member)
}

// BaseClasses returns the positional base-class expressions of a class
// definition. Keyword arguments such as metaclass=... are skipped.
func BaseClasses(class syntax.Node) []syntax.Node {
	if class.Kind() != syntax.KindClass {
		return nil
	}
	supers := class.Field("superclasses")
	var bases []syntax.Node
	for _, arg := range supers.NamedChildren() {
		switch arg.Kind() {
		case syntax.KindKeywordArgument, syntax.KindComment:
			continue
		}
		if arg.Type() == "list_splat" || arg.Type() == "dictionary_splat" {
			continue
		}
		bases = append(bases, arg)
	}
	return bases
}

// ClassName returns the declared name of a class definition.
func ClassName(class syntax.Node) string {
	return class.Field("name").Text()
}

// CallArguments returns the positional and keyword-argument value expressions
// of a call.
func CallArguments(call syntax.Node) []syntax.Node {
	args := call.Field("arguments")
	if args.IsNil() {
		return nil
	}
	if args.Kind() != syntax.KindArguments {
		// f(x for x in xs) passes a bare generator expression.
		return []syntax.Node{args}
	}
	var out []syntax.Node
	for _, arg := range args.NamedChildren() {
		switch arg.Kind() {
		case syntax.KindComment:
			continue
		case syntax.KindKeywordArgument:
			if v := arg.Field("value"); !v.IsNil() {
				out = append(out, v)
			}
			continue
		}
		out = append(out, arg)
	}
	return out
}
