package source

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/smith-xyz/pyhealth/pkg/config"
)

// Selection picks which files of a directory an analyzer wants
type Selection int

const (
	// SourceFiles excludes files matching a test-file pattern.
	SourceFiles Selection = iota
	// TestFiles keeps only files matching a test-file pattern.
	TestFiles
	// AllFiles keeps both.
	AllFiles
)

func (s Selection) String() string {
	switch s {
	case SourceFiles:
		return "source"
	case TestFiles:
		return "tests"
	default:
		return "all"
	}
}

// Filter decides which files are analysed
type Filter struct {
	suffixes     []string
	dirs         *config.DirSkipper
	testPatterns []glob.Glob
}

// NewFilter compiles the configured file patterns.
func NewFilter(files config.FilesConfig) (*Filter, error) {
	dirs, err := files.DirSkipper()
	if err != nil {
		return nil, err
	}
	f := &Filter{suffixes: files.Suffixes, dirs: dirs}
	for _, pattern := range files.TestFilePatterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to compile test file pattern %q: %w", pattern, err)
		}
		f.testPatterns = append(f.testPatterns, g)
	}
	return f, nil
}

// IsTestFile reports whether a file's base name matches a test-file pattern.
func (f *Filter) IsTestFile(path string) bool {
	name := filepath.Base(path)
	for _, g := range f.testPatterns {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// SkipDir reports whether a directory is a cache directory or excluded by pattern.
func (f *Filter) SkipDir(name string) bool {
	return f.dirs.Skip(name)
}

// HasSuffix reports whether a path ends in one of the analysed suffixes.
func (f *Filter) HasSuffix(path string) bool {
	for _, suffix := range f.suffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// InCache reports whether any segment of path is a cache directory marker.
func (f *Filter) InCache(path string) bool {
	for _, segment := range strings.Split(filepath.ToSlash(path), "/") {
		if f.dirs.IsCache(segment) {
			return true
		}
	}
	return false
}

// Selects reports whether a file path is analysed under sel.
func (f *Filter) Selects(path string, sel Selection) bool {
	if !f.HasSuffix(path) || f.InCache(path) {
		return false
	}
	switch sel {
	case SourceFiles:
		return !f.IsTestFile(path)
	case TestFiles:
		return f.IsTestFile(path)
	}
	return true
}

// Discover walks dir and returns the selected files as sorted absolute paths.
// An empty dir yields no files.
func (f *Filter) Discover(dir string, sel Selection) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && f.SkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if f.Selects(path, sel) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}
