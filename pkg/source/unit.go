// Package source loads analysable files into immutable source units.
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/smith-xyz/pyhealth/pkg/syntax"
	"github.com/smith-xyz/pyhealth/pkg/utils"
)

// ErrUnparsable marks a unit whose text did not parse into a tree.
var ErrUnparsable = errors.New("unparsable source")

// Unit is one analysable file. It is never modified after Load; Close releases
// its syntax tree once every analyzer has finished with it.
type Unit struct {
	Path     string   // relative to the project root, slash-separated
	AbsPath  string   // absolute filesystem path
	Content  []byte   // raw text
	Lines    []string // Content split on newlines, without terminators
	Hash     string   // xxh3 of Content
	ParseErr error    // non-nil when the text did not parse; wraps ErrUnparsable

	tree *syntax.Tree
}

// Load reads and parses one file. I/O failures are returned as errors; syntax
// errors are recorded on the unit so the caller can report it as skipped.
func Load(ctx context.Context, absPath, relPath string) (*Unit, error) {
	content, err := utils.ReadSourceFile(absPath)
	if err != nil {
		return nil, err
	}
	return FromBytes(ctx, relPath, absPath, content)
}

// FromBytes builds a unit from in-memory content.
func FromBytes(ctx context.Context, relPath, absPath string, content []byte) (*Unit, error) {
	u := &Unit{
		Path:    utils.NormalizePath(relPath),
		AbsPath: absPath,
		Content: content,
		Lines:   splitLines(content),
		Hash:    fmt.Sprintf("%016x", xxh3.Hash(content)),
	}

	tree, err := syntax.Parse(ctx, content)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		u.ParseErr = fmt.Errorf("%w: %s: %w", ErrUnparsable, u.Path, err)
		return u, nil
	}
	u.tree = tree
	return u, nil
}

// Parsed reports whether the unit has a syntax tree.
func (u *Unit) Parsed() bool {
	return u.tree != nil
}

// Root returns the module node, or a nil node for unparsable units.
func (u *Unit) Root() syntax.Node {
	return u.tree.Root()
}

// LineCount returns the number of source lines.
func (u *Unit) LineCount() int {
	return len(u.Lines)
}

// Line returns the text of a 1-based line, or "" when out of range.
func (u *Unit) Line(n int) string {
	if n < 1 || n > len(u.Lines) {
		return ""
	}
	return u.Lines[n-1]
}

// Close releases the syntax tree.
func (u *Unit) Close() {
	if u.tree != nil {
		u.tree.Close()
		u.tree = nil
	}
}

func splitLines(content []byte) []string {
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
