package rules

import (
	"github.com/smith-xyz/pyhealth/pkg/config"
	"github.com/smith-xyz/pyhealth/pkg/models"
	"github.com/smith-xyz/pyhealth/pkg/utils"
)

// Classifier answers name-membership questions against the configured name sets.
// It is built once per run and only read afterwards, so analyzers running in
// parallel may share it.
type Classifier struct {
	expensiveCalls       map[string]models.Severity
	batchMethods         utils.StringSet
	splitMethods         utils.StringSet
	asyncBlocklist       utils.StringSet
	orchestrationHelpers utils.StringSet
	plainBases           utils.StringSet
	validatedBases       utils.StringSet
	skipLayers           utils.StringSet
	sizeExcluded         utils.StringSet
}

// NewClassifier creates a new classifier with the given configuration
func NewClassifier(cfg *config.Config) *Classifier {
	c := &Classifier{
		expensiveCalls:       make(map[string]models.Severity, len(cfg.Performance.ExpensiveCalls)),
		batchMethods:         utils.NewStringSet(cfg.Performance.BatchMethods),
		splitMethods:         utils.NewStringSet(cfg.Performance.SplitMethods),
		asyncBlocklist:       utils.NewStringSet(cfg.AsyncCalls.Blocklist),
		orchestrationHelpers: utils.NewStringSet(cfg.AsyncCalls.OrchestrationHelpers),
		plainBases:           utils.NewStringSet(cfg.DataModels.PlainBases),
		validatedBases:       utils.NewStringSet(cfg.DataModels.ValidatedBases),
		skipLayers:           utils.NewStringSet(cfg.Dependencies.SkipLayers),
		sizeExcluded:         utils.NewStringSet(cfg.Thresholds.FileSizeExcluded),
	}
	for name, sev := range cfg.Performance.ExpensiveCalls {
		severity, err := models.ParseSeverity(sev)
		if err != nil {
			// Validate rejects unknown severities; a hand-built config lands here.
			severity = models.SeverityMedium
		}
		c.expensiveCalls[name] = severity
	}
	return c
}

// ExpensiveCallSeverity returns the severity of calling name inside a loop.
func (c *Classifier) ExpensiveCallSeverity(name string) (models.Severity, bool) {
	sev, ok := c.expensiveCalls[name]
	return sev, ok
}

// IsBatchMethod reports whether name is an accumulate-one-at-a-time method such as append.
func (c *Classifier) IsBatchMethod(name string) bool {
	return c.batchMethods.Has(name)
}

// IsSplitMethod reports whether name re-tokenises a string.
func (c *Classifier) IsSplitMethod(name string) bool {
	return c.splitMethods.Has(name)
}

// IsBlocked reports whether a coroutine name is too generic to track.
func (c *Classifier) IsBlocked(name string) bool {
	return c.asyncBlocklist.Has(name)
}

// IsOrchestrationHelper reports whether name schedules a coroutine passed to it.
func (c *Classifier) IsOrchestrationHelper(name string) bool {
	return c.orchestrationHelpers.Has(name)
}

// IsPlainBase reports whether a base class name declares an unvalidated record.
func (c *Classifier) IsPlainBase(name string) bool {
	return c.plainBases.Has(name)
}

// IsValidatedBase reports whether a base class name declares a validated record.
func (c *Classifier) IsValidatedBase(name string) bool {
	return c.validatedBases.Has(name)
}

// IsSkippedLayer reports whether a layer is left out of the dependency graph.
func (c *Classifier) IsSkippedLayer(layer string) bool {
	return c.skipLayers.Has(layer)
}

// IsSizeExcluded reports whether a file name is exempt from the file-size check.
func (c *Classifier) IsSizeExcluded(fileName string) bool {
	return c.sizeExcluded.Has(fileName)
}
