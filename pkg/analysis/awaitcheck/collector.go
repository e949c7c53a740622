// Package awaitcheck finds coroutine calls in test files that are never awaited.
// It runs as two explicit phases: a Collector reads implementation files and
// produces an immutable NameSet, then a Scanner checks test files against it.
package awaitcheck

import (
	"log/slog"

	"github.com/smith-xyz/pyhealth/pkg/analysis/rules"
	"github.com/smith-xyz/pyhealth/pkg/analysis/shared"
	"github.com/smith-xyz/pyhealth/pkg/source"
	"github.com/smith-xyz/pyhealth/pkg/utils"
)

// Definitions are the function names one implementation file declares
type Definitions struct {
	Path  string
	Async []string
	Sync  []string
}

// NameSet is the filtered set of coroutine names. It is never modified after Merge.
type NameSet struct {
	names utils.StringSet
}

// Has reports whether name is a tracked coroutine.
func (s NameSet) Has(name string) bool {
	return s.names.Has(name)
}

// Len returns the number of tracked names.
func (s NameSet) Len() int {
	return len(s.names)
}

// Sorted returns the tracked names in order.
func (s NameSet) Sorted() []string {
	return s.names.Sorted()
}

// Collector runs the collect phase
type Collector struct {
	logger     *slog.Logger
	classifier *rules.Classifier
}

// NewCollector creates a new collector
func NewCollector(logger *slog.Logger, r *rules.Rules) *Collector {
	return &Collector{
		logger:     logger,
		classifier: r.Classifier,
	}
}

// Selection reads implementation files only.
func (c *Collector) Selection() source.Selection { return source.SourceFiles }

// Definitions lists the async and sync function names of one file. Files are
// independent, so callers may run this in parallel.
func (c *Collector) Definitions(unit *source.Unit) Definitions {
	defs := Definitions{Path: unit.Path}
	for _, fn := range shared.Functions(unit.Root()) {
		if fn.Async {
			defs.Async = append(defs.Async, fn.Name)
		} else {
			defs.Sync = append(defs.Sync, fn.Name)
		}
	}
	return defs
}

// Merge closes the collect phase. Blocklisted names are dropped, and so is any
// name that is also defined as a plain function somewhere, since a call to it
// cannot be classified.
func (c *Collector) Merge(all []Definitions) NameSet {
	async := make(utils.StringSet)
	sync := make(utils.StringSet)
	for _, defs := range all {
		for _, name := range defs.Async {
			async[name] = struct{}{}
		}
		for _, name := range defs.Sync {
			sync[name] = struct{}{}
		}
	}

	names := make(utils.StringSet, len(async))
	for name := range async {
		switch {
		case c.classifier.IsBlocked(name):
		case sync.Has(name):
			c.logger.Debug("dropping dual-defined coroutine name", "name", name)
		default:
			names[name] = struct{}{}
		}
	}
	return NameSet{names: names}
}

// NewNameSet builds a NameSet directly, bypassing the collect phase.
func NewNameSet(names ...string) NameSet {
	return NameSet{names: utils.NewStringSet(names)}
}
