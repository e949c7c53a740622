package syntax

import "strings"

// StringValue returns the literal value of a string or implicitly concatenated
// string node with prefixes and quotes removed. Escape sequences are kept as
// written. ok is false for any other node and for bytes and f-string literals.
func StringValue(n Node) (value string, ok bool) {
	switch n.Kind() {
	case KindString:
		raw := n.Text()
		prefix := raw[:len(raw)-len(strings.TrimLeft(raw, "rRbBuUfF"))]
		if strings.ContainsAny(prefix, "bBfF") {
			return "", false
		}
		return unquote(raw), true
	case KindConcatString:
		var b strings.Builder
		for _, part := range n.NamedChildren() {
			v, ok := StringValue(part)
			if !ok {
				return "", false
			}
			b.WriteString(v)
		}
		return b.String(), true
	case KindParenthesized:
		inner := n.NamedChildren()
		if len(inner) == 1 {
			return StringValue(inner[0])
		}
	}
	return "", false
}

// IsStringLiteral reports whether the node is a plain or concatenated string.
func IsStringLiteral(n Node) bool {
	_, ok := StringValue(n)
	return ok
}

func unquote(raw string) string {
	raw = strings.TrimLeft(raw, "rRbBuUfF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(raw) >= 2*len(q) && strings.HasPrefix(raw, q) && strings.HasSuffix(raw, q) {
			return raw[len(q) : len(raw)-len(q)]
		}
	}
	return raw
}
