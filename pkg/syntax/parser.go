// Package syntax adapts the tree-sitter Python grammar into the node views
// walked by the analyzers. Nothing outside this package touches tree-sitter.
package syntax

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ErrSyntax marks source text that does not parse cleanly.
var ErrSyntax = errors.New("syntax error")

// SyntaxError locates the first error node in an unparsable file.
type SyntaxError struct {
	Line   int
	Column int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d", e.Line, e.Column+1)
}

func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

// Tree owns a parsed syntax tree. Nodes obtained from it are valid until Close.
type Tree struct {
	tree *sitter.Tree
	src  []byte
}

// Root returns the module node.
func (t *Tree) Root() Node {
	if t == nil || t.tree == nil {
		return Node{}
	}
	return wrap(t.tree.RootNode(), t.src)
}

// Close releases the tree.
func (t *Tree) Close() {
	if t != nil && t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}

// Parse builds a syntax tree for one Python source file. A fresh parser is used
// per call so Parse is safe for concurrent use. When the tree contains syntax
// errors the tree is closed and a *SyntaxError is returned.
func Parse(ctx context.Context, src []byte) (*Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source: %w", err)
	}

	t := &Tree{tree: tree, src: src}
	root := t.Root()
	if root.IsNil() {
		t.Close()
		return nil, fmt.Errorf("parser returned no root node: %w", ErrSyntax)
	}
	if root.HasError() {
		bad := FirstError(root)
		synErr := &SyntaxError{Line: bad.StartLine(), Column: bad.Column()}
		t.Close()
		return nil, synErr
	}
	return t, nil
}
