package docstring

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/smith-xyz/pyhealth/pkg/config"
	"github.com/smith-xyz/pyhealth/pkg/models"
)

// Gap labels name the criteria a docstring is missing.
const (
	GapPurpose  = "Purpose (first sentence too short or missing)"
	GapUseWhen  = "USE WHEN"
	GapArgs     = "Input expectations (Args)"
	GapReturns  = "RETURNS"
	GapExamples = "Examples"
)

// Rubric scores docstrings from 1 to 5
type Rubric struct {
	minPurposeWords int
	useWhen         []string
	args            []string
	returns         []string
	examples        []string
	examplePattern  *regexp.Regexp
}

// NewRubric compiles the rubric markers. Section markers are matched
// case-insensitively; literal example markers are matched as written.
func NewRubric(cfg config.DocstringConfig) (*Rubric, error) {
	r := &Rubric{
		minPurposeWords: cfg.MinPurposeWords,
		useWhen:         lowerAll(cfg.UseWhenMarkers),
		args:            lowerAll(cfg.ArgsMarkers),
		returns:         lowerAll(cfg.ReturnsMarkers),
		examples:        cfg.ExampleMarkers,
	}
	if cfg.ExamplePattern != "" {
		re, err := regexp.Compile("(?i)" + cfg.ExamplePattern)
		if err != nil {
			return nil, fmt.Errorf("failed to compile example pattern: %w", err)
		}
		r.examplePattern = re
	}
	return r, nil
}

// Score rates one docstring. The four core criteria are purpose, use-when,
// args and returns. Fewer than four core criteria scores the count (at least
// 1); all four score 4, or 5 with examples.
func (r *Rubric) Score(doc string) models.ToolScore {
	lower := strings.ToLower(doc)
	s := models.ToolScore{
		HasPurpose:  strings.TrimSpace(doc) != "" && len(strings.Fields(doc)) >= r.minPurposeWords,
		HasUseWhen:  containsAny(lower, r.useWhen),
		HasArgs:     containsAny(lower, r.args),
		HasReturns:  containsAny(lower, r.returns),
		HasExamples: containsAny(doc, r.examples) || (r.examplePattern != nil && r.examplePattern.MatchString(doc)),
	}

	core := 0
	for _, met := range []struct {
		ok  bool
		gap string
	}{
		{s.HasPurpose, GapPurpose},
		{s.HasUseWhen, GapUseWhen},
		{s.HasArgs, GapArgs},
		{s.HasReturns, GapReturns},
	} {
		if met.ok {
			core++
		} else {
			s.Gaps = append(s.Gaps, met.gap)
		}
	}
	if !s.HasExamples {
		s.Gaps = append(s.Gaps, GapExamples)
	}

	switch {
	case core < 4:
		s.Score = max(1, core)
	case !s.HasExamples:
		s.Score = 4
	default:
		s.Score = 5
	}
	return s
}

func lowerAll(items []string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = strings.ToLower(item)
	}
	return out
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(s, m) {
			return true
		}
	}
	return false
}
