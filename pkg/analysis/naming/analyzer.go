// Package naming checks test function names against the prefix/delimiter convention.
package naming

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/smith-xyz/pyhealth/pkg/analysis/shared"
	"github.com/smith-xyz/pyhealth/pkg/config"
	"github.com/smith-xyz/pyhealth/pkg/models"
	"github.com/smith-xyz/pyhealth/pkg/source"
)

const RuleMissingDelimiter = "test_name_delimiter"

// Analyzer checks test files
type Analyzer struct {
	logger    *slog.Logger
	prefix    string
	delimiter string
}

// NewAnalyzer creates a new naming analyzer
func NewAnalyzer(logger *slog.Logger, cfg *config.Config) *Analyzer {
	return &Analyzer{
		logger:    logger,
		prefix:    cfg.Naming.Prefix,
		delimiter: cfg.Naming.Delimiter,
	}
}

// Name identifies the analyzer in reports and on the command line.
func (a *Analyzer) Name() string { return "naming" }

// Selection keeps only test files.
func (a *Analyzer) Selection() source.Selection { return source.TestFiles }

// Check reports whether name runs the prefix straight into a lowercase letter
// and, if so, returns the name with the delimiter inserted.
func (a *Analyzer) Check(name string) (suggestion string, violation bool) {
	rest, ok := strings.CutPrefix(name, a.prefix)
	if !ok || rest == "" {
		return "", false
	}
	r, _ := utf8.DecodeRuneInString(rest)
	if !unicode.IsLower(r) {
		return "", false
	}
	return a.prefix + a.delimiter + rest, true
}

// AnalyzeUnit checks every function and method name in a test file.
func (a *Analyzer) AnalyzeUnit(ctx context.Context, unit *source.Unit) ([]models.Finding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var findings []models.Finding
	for _, fn := range shared.Functions(unit.Root()) {
		suggestion, bad := a.Check(fn.Name)
		if !bad {
			continue
		}
		findings = append(findings, models.Finding{
			Path:       unit.Path,
			Function:   fn.Name,
			Line:       fn.StartLine,
			Category:   models.CategoryNaming,
			Severity:   models.SeverityMedium,
			Rule:       RuleMissingDelimiter,
			Message:    fmt.Sprintf("Test function '%s' should be '%s'", fn.Name, suggestion),
			Suggestion: suggestion,
		}.Sealed())
	}
	return findings, nil
}
