package syntax

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Node is a read-only view of one syntax tree node together with the source it spans.
// The zero Node is valid and reports IsNil.
type Node struct {
	n   *sitter.Node
	src []byte
}

func wrap(n *sitter.Node, src []byte) Node {
	if n == nil || n.IsNull() {
		return Node{}
	}
	return Node{n: n, src: src}
}

// IsNil reports whether the node is absent.
func (n Node) IsNil() bool {
	return n.n == nil
}

// Kind returns the node's tag.
func (n Node) Kind() Kind {
	if n.n == nil {
		return KindOther
	}
	return KindOf(n.n.Type())
}

// Type returns the raw grammar node type.
func (n Node) Type() string {
	if n.n == nil {
		return ""
	}
	return n.n.Type()
}

// Text returns the source text covered by the node.
func (n Node) Text() string {
	if n.n == nil {
		return ""
	}
	return n.n.Content(n.src)
}

// StartLine is the 1-based line the node starts on.
func (n Node) StartLine() int {
	if n.n == nil {
		return 0
	}
	return int(n.n.StartPoint().Row) + 1
}

// EndLine is the 1-based line the node ends on.
func (n Node) EndLine() int {
	if n.n == nil {
		return 0
	}
	end := n.n.EndPoint()
	// A node ending at column 0 stops before that line begins.
	if end.Column == 0 && end.Row > n.n.StartPoint().Row {
		return int(end.Row)
	}
	return int(end.Row) + 1
}

// Column is the 0-based column the node starts at.
func (n Node) Column() int {
	if n.n == nil {
		return 0
	}
	return int(n.n.StartPoint().Column)
}

// Children returns every child, named and anonymous, in source order.
func (n Node) Children() []Node {
	if n.n == nil {
		return nil
	}
	count := int(n.n.ChildCount())
	out := make([]Node, 0, count)
	for i := 0; i < count; i++ {
		if c := wrap(n.n.Child(i), n.src); !c.IsNil() {
			out = append(out, c)
		}
	}
	return out
}

// NamedChildren returns the named children in source order.
func (n Node) NamedChildren() []Node {
	if n.n == nil {
		return nil
	}
	count := int(n.n.NamedChildCount())
	out := make([]Node, 0, count)
	for i := 0; i < count; i++ {
		if c := wrap(n.n.NamedChild(i), n.src); !c.IsNil() {
			out = append(out, c)
		}
	}
	return out
}

// Statements returns the named children that are not comments.
func (n Node) Statements() []Node {
	var out []Node
	for _, c := range n.NamedChildren() {
		if c.Kind() != KindComment {
			out = append(out, c)
		}
	}
	return out
}

// Field returns the child stored under a grammar field name.
func (n Node) Field(name string) Node {
	if n.n == nil {
		return Node{}
	}
	return wrap(n.n.ChildByFieldName(name), n.src)
}

// Parent returns the enclosing node.
func (n Node) Parent() Node {
	if n.n == nil {
		return Node{}
	}
	return wrap(n.n.Parent(), n.src)
}

// Same reports whether both views point at the same tree node.
func (n Node) Same(other Node) bool {
	if n.n == nil || other.n == nil {
		return n.n == other.n
	}
	return n.n.Equal(other.n)
}

// IsAsync reports whether a function, for or with node carries the async keyword.
func (n Node) IsAsync() bool {
	if n.n == nil || n.n.ChildCount() == 0 {
		return false
	}
	first := n.n.Child(0)
	return first != nil && first.Type() == "async"
}

// HasError reports whether the subtree contains a syntax error.
func (n Node) HasError() bool {
	return n.n != nil && n.n.HasError()
}

// Inspect walks the subtree in depth-first order. enter returning false skips
// the node's children; leave, if non-nil, runs after the children are walked.
func Inspect(root Node, enter func(Node) bool, leave func(Node)) {
	if root.IsNil() {
		return
	}
	if !enter(root) {
		return
	}
	for _, c := range root.Children() {
		Inspect(c, enter, leave)
	}
	if leave != nil {
		leave(root)
	}
}

// FirstError returns the first node that is an ERROR or a missing token.
func FirstError(root Node) Node {
	var found Node
	Inspect(root, func(n Node) bool {
		if !found.IsNil() {
			return false
		}
		if n.Kind() == KindError || n.n.IsMissing() {
			found = n
			return false
		}
		return n.HasError()
	}, nil)
	return found
}
