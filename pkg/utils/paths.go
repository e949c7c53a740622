package utils

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizePath returns a slash-separated, NFC-normalised form of path. Report
// paths go through here so that the same file sorts and fingerprints identically
// on filesystems that store decomposed names.
func NormalizePath(path string) string {
	return norm.NFC.String(filepath.ToSlash(filepath.Clean(path)))
}

// RelativePath returns target relative to base in normalised form. When target
// is not under base it is returned normalised but unchanged.
func RelativePath(base, target string) string {
	rel, err := filepath.Rel(base, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return NormalizePath(target)
	}
	return NormalizePath(rel)
}

// ModuleName converts a relative .py path into a dotted module name.
func ModuleName(relPath string) string {
	p := strings.TrimSuffix(NormalizePath(relPath), ".py")
	return strings.ReplaceAll(p, "/", ".")
}
