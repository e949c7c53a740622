package config

import (
	"fmt"

	"github.com/gobwas/glob"

	"github.com/smith-xyz/pyhealth/pkg/utils"
)

// DirSkipper matches the directory names a file walk never enters: cache
// markers and the exclude_dirs patterns.
type DirSkipper struct {
	cacheMarkers utils.StringSet
	excludeDirs  []glob.Glob
}

// DirSkipper compiles the configured cache markers and exclude patterns.
func (f FilesConfig) DirSkipper() (*DirSkipper, error) {
	s := &DirSkipper{cacheMarkers: utils.NewStringSet(f.CacheDirMarkers)}
	for _, pattern := range f.ExcludeDirs {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to compile exclude pattern %q: %w", pattern, err)
		}
		s.excludeDirs = append(s.excludeDirs, g)
	}
	return s, nil
}

// IsCache reports whether name is a cache directory marker.
func (s *DirSkipper) IsCache(name string) bool {
	return s.cacheMarkers.Has(name)
}

// Skip reports whether a directory with this base name is left unvisited.
func (s *DirSkipper) Skip(name string) bool {
	if s.IsCache(name) {
		return true
	}
	for _, g := range s.excludeDirs {
		if g.Match(name) {
			return true
		}
	}
	return false
}
