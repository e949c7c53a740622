// Package testutil materialises txtar fixture archives into temporary project trees.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"
)

// WriteTree writes every file of a txtar archive below a fresh temporary
// directory and returns that directory. Entries ending in "/" create empty
// directories.
func WriteTree(t testing.TB, archive string) string {
	t.Helper()
	root := t.TempDir()
	WriteTreeAt(t, root, archive)
	return root
}

// WriteTreeAt writes a txtar archive below dir.
func WriteTreeAt(t testing.TB, dir, archive string) {
	t.Helper()
	ar := txtar.Parse([]byte(strings.TrimLeft(archive, "\n")))
	for _, f := range ar.Files {
		path := filepath.Join(dir, filepath.FromSlash(f.Name))
		if strings.HasSuffix(f.Name, "/") {
			if err := os.MkdirAll(path, 0o755); err != nil {
				t.Fatalf("failed to create directory %s: %v", path, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create directory for %s: %v", path, err)
		}
		if err := os.WriteFile(path, f.Data, 0o644); err != nil {
			t.Fatalf("failed to write fixture %s: %v", path, err)
		}
	}
}

// Dedent strips the common leading indentation from a Go raw string so that
// Python snippets can be written indented inside test tables.
func Dedent(s string) string {
	lines := strings.Split(strings.TrimPrefix(s, "\n"), "\n")
	indent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return strings.Join(lines, "\n")
	}
	for i, line := range lines {
		if len(line) >= indent {
			lines[i] = line[indent:]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.Join(lines, "\n")
}
