// Package output turns the findings of a run into a report and renders it.
package output

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/smith-xyz/pyhealth/pkg/config"
	"github.com/smith-xyz/pyhealth/pkg/models"
)

// Input is everything a run collected before aggregation
type Input struct {
	CreationInfo models.CreationInfo
	Project      models.ProjectInfo
	Status       models.RunStatus
	Findings     []models.Finding
	Dependencies *models.DependencyReport
	Docstrings   *models.DocstringSummary
	CoverageGaps []models.CoverageGap
	Skipped      []models.SkippedFile
}

// Aggregator sorts, groups and summarises findings
type Aggregator struct {
	logger     *slog.Logger
	thresholds config.ThresholdConfig
}

// NewAggregator creates a new report aggregator with the given configuration
func NewAggregator(logger *slog.Logger, cfg *config.Config) *Aggregator {
	return &Aggregator{logger: logger, thresholds: cfg.Thresholds}
}

// Aggregate builds the report. The input findings are copied, never modified.
func (a *Aggregator) Aggregate(in Input) *models.Report {
	findings := append([]models.Finding(nil), in.Findings...)
	models.SortFindings(findings)
	if findings == nil {
		findings = []models.Finding{}
	}

	skipped := append([]models.SkippedFile(nil), in.Skipped...)
	sort.Slice(skipped, func(i, j int) bool { return skipped[i].Path < skipped[j].Path })

	flagged := a.flaggedFunctions(findings)
	report := &models.Report{
		CreationInfo:      in.CreationInfo,
		Project:           in.Project,
		Status:            in.Status,
		Summary:           a.summarize(findings, flagged, in.Dependencies),
		Findings:          findings,
		ComplexityRanking: a.rank(flagged),
		FileRanking:       fileRanking(findings),
		Dependencies:      in.Dependencies,
		Docstrings:        in.Docstrings,
		CoverageGaps:      in.CoverageGaps,
		Skipped:           skipped,
	}
	a.logger.Debug("report aggregated", "findings", report.Summary.Total, "flagged_functions", len(flagged), "cycles", report.Summary.Cycles)
	return report
}

type functionKey struct {
	path string
	name string
	line int
}

// flaggedFunctions collects every function with a complexity or nesting
// finding, keyed by its definition.
func (a *Aggregator) flaggedFunctions(findings []models.Finding) []models.RankedFunction {
	index := make(map[functionKey]int)
	var flagged []models.RankedFunction
	for _, f := range findings {
		if (f.Category != models.CategoryComplexity && f.Category != models.CategoryNesting) || f.Metrics == nil {
			continue
		}
		key := functionKey{f.Path, f.Function, f.Metrics.Line}
		i, ok := index[key]
		if !ok {
			i = len(flagged)
			index[key] = i
			flagged = append(flagged, models.RankedFunction{
				Path:       f.Path,
				Function:   f.Function,
				Line:       f.Metrics.Line,
				Complexity: f.Metrics.Complexity,
				Nesting:    f.Metrics.Nesting,
				Issues:     []string{},
			})
		}
		flagged[i].Issues = append(flagged[i].Issues, issueLabel(f))
	}
	return flagged
}

func issueLabel(f models.Finding) string {
	if f.Category == models.CategoryNesting {
		return fmt.Sprintf("nesting %d", f.Metrics.Nesting)
	}
	return fmt.Sprintf("complexity %d", f.Metrics.Complexity)
}

// rank sorts flagged functions by complexity then nesting, both descending,
// and buckets them against the thresholds.
func (a *Aggregator) rank(flagged []models.RankedFunction) models.ComplexityRanking {
	sorted := append([]models.RankedFunction(nil), flagged...)
	sort.SliceStable(sorted, func(i, j int) bool {
		x, y := sorted[i], sorted[j]
		if x.Complexity != y.Complexity {
			return x.Complexity > y.Complexity
		}
		if x.Nesting != y.Nesting {
			return x.Nesting > y.Nesting
		}
		if x.Path != y.Path {
			return x.Path < y.Path
		}
		return x.Line < y.Line
	})

	ranking := models.ComplexityRanking{
		High:        []models.RankedFunction{},
		Medium:      []models.RankedFunction{},
		NestingOnly: []models.RankedFunction{},
	}
	for _, fn := range sorted {
		switch {
		case fn.Complexity > a.thresholds.HighComplexity:
			ranking.High = append(ranking.High, fn)
		case fn.Complexity > a.thresholds.Complexity:
			ranking.Medium = append(ranking.Medium, fn)
		case fn.Nesting > a.thresholds.Nesting:
			ranking.NestingOnly = append(ranking.NestingOnly, fn)
		}
	}
	return ranking
}

func (a *Aggregator) summarize(findings []models.Finding, flagged []models.RankedFunction, deps *models.DependencyReport) models.Summary {
	s := models.Summary{
		Total:            len(findings),
		BySeverity:       make(map[models.Severity]int),
		ByCategory:       make(map[models.Category]int),
		FlaggedFunctions: len(flagged),
	}
	for _, sev := range models.Severities {
		s.BySeverity[sev] = 0
	}
	for _, f := range findings {
		s.BySeverity[f.Severity]++
		s.ByCategory[f.Category]++
	}

	total := 0
	for _, fn := range flagged {
		total += fn.Complexity
		s.MaxComplexity = max(s.MaxComplexity, fn.Complexity)
	}
	if len(flagged) > 0 {
		s.AverageComplexity = float64(total) / float64(len(flagged))
	}
	if deps != nil {
		s.Cycles = len(deps.Cycles)
	}
	return s
}

// fileRanking groups length and file-size findings by file, most violations
// first, then most total excess, then path.
func fileRanking(findings []models.Finding) []models.FileViolations {
	byPath := make(map[string]*models.FileViolations)
	for _, f := range findings {
		if f.Category != models.CategoryLength && f.Category != models.CategoryFileSize {
			continue
		}
		fv, ok := byPath[f.Path]
		if !ok {
			fv = &models.FileViolations{Path: f.Path}
			byPath[f.Path] = fv
		}
		fv.Violations++
		fv.TotalExcess += f.Excess
	}

	ranking := make([]models.FileViolations, 0, len(byPath))
	for _, fv := range byPath {
		ranking = append(ranking, *fv)
	}
	sort.Slice(ranking, func(i, j int) bool {
		x, y := ranking[i], ranking[j]
		if x.Violations != y.Violations {
			return x.Violations > y.Violations
		}
		if x.TotalExcess != y.TotalExcess {
			return x.TotalExcess > y.TotalExcess
		}
		return x.Path < y.Path
	})
	return ranking
}

// HasViolations reports whether the report should fail a gate.
func HasViolations(r *models.Report) bool {
	return r.Summary.Total > 0 || r.Summary.Cycles > 0
}
