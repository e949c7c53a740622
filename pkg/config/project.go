package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/smith-xyz/pyhealth/pkg/utils"
)

// ErrMissingRoot marks a run whose project or source directory does not exist.
var ErrMissingRoot = errors.New("analysis root does not exist")

// MissingRootError reports the resolved path that was checked.
type MissingRootError struct {
	Role string // "project root" or "source directory"
	Path string
}

func (e *MissingRootError) Error() string {
	return fmt.Sprintf("%s %s does not exist", e.Role, e.Path)
}

func (e *MissingRootError) Is(target error) bool {
	return target == ErrMissingRoot
}

// Project wraps the base Config with the resolved layout of the project being analysed.
type Project struct {
	*Config
	Root        string // absolute project root
	SourceDir   string // absolute source directory
	TestsDir    string // absolute tests directory, empty when the project has none
	PackageName string // top-level package under SourceDir, empty when undetected
	LayerRoot   string // directory whose children are dependency layers
}

// NewProject resolves the project layout under root. It fails with a
// *MissingRootError when root or the source directory does not exist.
func NewProject(cfg *Config, root string) (*Project, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root %s: %w", root, err)
	}
	if !utils.DirectoryExists(absRoot) {
		return nil, &MissingRootError{Role: "project root", Path: absRoot}
	}

	p := &Project{Config: cfg, Root: absRoot}
	skipper, err := cfg.Files.DirSkipper()
	if err != nil {
		return nil, err
	}

	p.SourceDir = p.resolveDir(cfg.Project.SourceDir, p.sourceCandidates(), skipper)
	if !utils.DirectoryExists(p.SourceDir) {
		return nil, &MissingRootError{Role: "source directory", Path: p.SourceDir}
	}
	p.TestsDir = p.resolveDir(cfg.Project.TestsDir, []string{"tests", "test"}, nil)
	if !utils.DirectoryExists(p.TestsDir) {
		p.TestsDir = ""
	}

	p.PackageName = cfg.Project.PackageName
	if p.PackageName == "" {
		p.PackageName = detectPackageName(p.SourceDir, skipper)
	}

	p.LayerRoot = p.SourceDir
	if p.PackageName != "" {
		if candidate := filepath.Join(p.SourceDir, p.PackageName); utils.DirectoryExists(candidate) {
			p.LayerRoot = candidate
		}
	}
	return p, nil
}

// Rel returns path relative to the project root using forward slashes.
func (p *Project) Rel(path string) string {
	rel, err := filepath.Rel(p.Root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func (p *Project) sourceCandidates() []string {
	projectName := strings.ReplaceAll(strings.ToLower(filepath.Base(p.Root)), "-", "_")
	return []string{
		"src",
		"lib",
		filepath.Join("src", projectName),
		projectName,
	}
}

// resolveDir applies an explicit override (relative to the root unless absolute),
// else the first candidate that is a directory. With a skipper, a candidate must
// also hold at least one Python file outside skipped directories. The first
// candidate is the fallback.
func (p *Project) resolveDir(override string, candidates []string, skipper *DirSkipper) string {
	if override != "" {
		if filepath.IsAbs(override) {
			return filepath.Clean(override)
		}
		return filepath.Join(p.Root, override)
	}
	for _, c := range candidates {
		dir := filepath.Join(p.Root, c)
		if !utils.DirectoryExists(dir) {
			continue
		}
		if skipper == nil || p.containsSuffix(dir, skipper) {
			return dir
		}
	}
	return filepath.Join(p.Root, candidates[0])
}

func (p *Project) containsSuffix(dir string, skipper *DirSkipper) bool {
	found := false
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || found {
			return filepath.SkipDir
		}
		if d.IsDir() {
			if path != dir && skipper.Skip(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		for _, suffix := range p.Files.Suffixes {
			if strings.HasSuffix(d.Name(), suffix) {
				found = true
				return filepath.SkipAll
			}
		}
		return nil
	})
	return found
}

// detectPackageName returns the first non-underscore directory under the source
// directory, or "" when a module file comes first (a flat layout). Entries are
// visited in name order.
func detectPackageName(sourceDir string, skipper *DirSkipper) string {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return ""
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() && !strings.HasPrefix(name, "_") && !strings.HasPrefix(name, ".") && !skipper.Skip(name) {
			return name
		}
		if !e.IsDir() && strings.HasSuffix(name, ".py") && name != "__init__.py" {
			return ""
		}
	}
	return strings.ReplaceAll(strings.ToLower(filepath.Base(filepath.Dir(sourceDir))), "-", "_")
}
