package models

import (
	"fmt"
	"sort"

	"github.com/zeebo/xxh3"
)

// Category classifies a Finding by the analyzer that produced it
type Category string

const (
	CategoryComplexity  Category = "complexity"
	CategoryNesting     Category = "nesting"
	CategoryLength      Category = "length"
	CategoryFileSize    Category = "file_size"
	CategoryPerformance Category = "performance"
	CategoryNaming      Category = "naming"
	CategoryDataModel   Category = "data-model"
	CategoryAsync       Category = "async"
	CategoryDocstring   Category = "docstring"
	CategoryCycle       Category = "cycle"
)

// Categories lists every category in report order
var Categories = []Category{
	CategoryComplexity,
	CategoryNesting,
	CategoryLength,
	CategoryFileSize,
	CategoryPerformance,
	CategoryNaming,
	CategoryDataModel,
	CategoryAsync,
	CategoryDocstring,
	CategoryCycle,
}

// Severity ranks how urgent a Finding is
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Severities lists every severity from most to least urgent
var Severities = []Severity{SeverityHigh, SeverityMedium, SeverityLow}

// Rank orders severities so that high sorts first.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	case SeverityLow:
		return 2
	}
	return 3
}

// ParseSeverity converts a configured severity name.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return Severity(s), nil
	}
	return "", fmt.Errorf("unknown severity %q", s)
}

// Finding is one reportable static-analysis result. Findings are never mutated
// after the analyzer that produced them returns.
type Finding struct {
	Path        string           `json:"path"`               // relative to the project root
	Function    string           `json:"function,omitempty"` // enclosing function or class, if any
	Line        int              `json:"line"`
	Column      int              `json:"column,omitempty"` // 1-based, when the analyzer records it
	Category    Category         `json:"category"`
	Severity    Severity         `json:"severity"`
	Rule        string           `json:"rule"`
	Message     string           `json:"message"`
	Score       int              `json:"score,omitempty"`  // complexity, nesting, line count or rubric score
	Excess      int              `json:"excess,omitempty"` // amount over the configured limit
	Suggestion  string           `json:"suggestion,omitempty"`
	Metrics     *FunctionMetrics `json:"metrics,omitempty"`
	Fingerprint string           `json:"fingerprint"`
}

// Sealed returns the finding with its fingerprint filled in.
func (f Finding) Sealed() Finding {
	f.Fingerprint = f.computeFingerprint()
	return f
}

func (f Finding) computeFingerprint() string {
	key := fmt.Sprintf("%s\x00%s\x00%d\x00%d\x00%s\x00%s\x00%s", f.Path, f.Function, f.Line, f.Column, f.Category, f.Rule, f.Message)
	return fmt.Sprintf("%016x", xxh3.HashString(key))
}

// SortFindings orders findings by path, position, category, rule and message.
func SortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		if a.Function != b.Function {
			return a.Function < b.Function
		}
		return a.Message < b.Message
	})
}
