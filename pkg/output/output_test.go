package output

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/smith-xyz/pyhealth/pkg/config"
	"github.com/smith-xyz/pyhealth/pkg/models"
	"github.com/smith-xyz/pyhealth/pkg/utils"
)

func newAggregator(t *testing.T) *Aggregator {
	t.Helper()
	cfg, err := config.DefaultConfig()
	if err != nil {
		t.Fatalf("Failed to load default config: %v", err)
	}
	return NewAggregator(utils.DiscardLogger(), cfg)
}

func complexityFinding(path, fn string, line, complexity, nesting int, category models.Category) models.Finding {
	return models.Finding{
		Path:     path,
		Function: fn,
		Line:     line,
		Category: category,
		Severity: models.SeverityMedium,
		Rule:     string(category),
		Message:  fn,
		Metrics:  &models.FunctionMetrics{Name: fn, Line: line, Complexity: complexity, Nesting: nesting},
	}.Sealed()
}

func sampleInput() Input {
	return Input{
		CreationInfo: models.CreationInfo{ToolName: "pyhealth", ToolVersion: "v1.0.0"},
		Project:      models.ProjectInfo{Root: "/p", SourceDir: "/p/src", Files: 3},
		Status:       models.StatusComplete,
		Findings: []models.Finding{
			complexityFinding("b.py", "huge", 10, 18, 5, models.CategoryComplexity),
			complexityFinding("b.py", "huge", 10, 18, 5, models.CategoryNesting),
			complexityFinding("a.py", "mid", 3, 12, 2, models.CategoryComplexity),
			complexityFinding("a.py", "deep", 20, 6, 4, models.CategoryNesting),
			{Path: "a.py", Line: 1, Category: models.CategoryFileSize, Severity: models.SeverityMedium, Rule: "file_too_long", Excess: 50},
			{Path: "a.py", Line: 3, Category: models.CategoryLength, Severity: models.SeverityMedium, Rule: "function_too_long", Excess: 5},
			{Path: "c.py", Line: 3, Category: models.CategoryLength, Severity: models.SeverityMedium, Rule: "function_too_long", Excess: 70},
			{Path: "d.py", Line: 3, Category: models.CategoryLength, Severity: models.SeverityLow, Rule: "function_too_long", Excess: 2},
		},
		Dependencies: &models.DependencyReport{
			PackageName: "shop",
			Layers:      models.LayerGraph{"api": {"db"}, "db": {"api"}},
			Cycles:      []models.CycleEntry{{Layers: []string{"api", "db", "api"}, Path: "api → db → api"}},
		},
		Skipped: []models.SkippedFile{{Path: "z.py", Reason: "syntax error"}, {Path: "x.py", Reason: "syntax error"}},
	}
}

func TestAggregateRanking(t *testing.T) {
	report := newAggregator(t).Aggregate(sampleInput())
	r := report.ComplexityRanking

	if len(r.High) != 1 || r.High[0].Function != "huge" {
		t.Fatalf("High = %+v, want huge", r.High)
	}
	if want := []string{"complexity 18", "nesting 5"}; !reflect.DeepEqual(r.High[0].Issues, want) {
		t.Errorf("huge issues = %v, want %v", r.High[0].Issues, want)
	}
	if len(r.Medium) != 1 || r.Medium[0].Function != "mid" {
		t.Errorf("Medium = %+v, want mid", r.Medium)
	}
	if len(r.NestingOnly) != 1 || r.NestingOnly[0].Function != "deep" {
		t.Errorf("NestingOnly = %+v, want deep", r.NestingOnly)
	}
}

func TestAggregateSummary(t *testing.T) {
	s := newAggregator(t).Aggregate(sampleInput()).Summary

	if s.Total != 8 || s.Cycles != 1 {
		t.Errorf("Total, Cycles = %d, %d, want 8, 1", s.Total, s.Cycles)
	}
	if s.FlaggedFunctions != 3 || s.MaxComplexity != 18 {
		t.Errorf("FlaggedFunctions, MaxComplexity = %d, %d, want 3, 18", s.FlaggedFunctions, s.MaxComplexity)
	}
	if s.AverageComplexity != 12 {
		t.Errorf("AverageComplexity = %v, want 12", s.AverageComplexity)
	}
	if s.BySeverity[models.SeverityLow] != 1 || s.BySeverity[models.SeverityHigh] != 0 {
		t.Errorf("BySeverity = %v", s.BySeverity)
	}
	if s.ByCategory[models.CategoryLength] != 3 {
		t.Errorf("ByCategory[length] = %d, want 3", s.ByCategory[models.CategoryLength])
	}
}

func TestAggregateFileRanking(t *testing.T) {
	report := newAggregator(t).Aggregate(sampleInput())
	var got []string
	for _, fv := range report.FileRanking {
		got = append(got, fv.Path)
	}
	if want := []string{"a.py", "c.py", "d.py"}; !reflect.DeepEqual(got, want) {
		t.Errorf("FileRanking = %v, want %v", got, want)
	}
	if report.FileRanking[0].TotalExcess != 55 {
		t.Errorf("a.py total excess = %d, want 55", report.FileRanking[0].TotalExcess)
	}
}

func TestAggregateDoesNotMutateInput(t *testing.T) {
	in := sampleInput()
	before := append([]models.Finding(nil), in.Findings...)
	report := newAggregator(t).Aggregate(in)

	if !reflect.DeepEqual(in.Findings, before) {
		t.Error("Aggregate() reordered its input")
	}
	if report.Findings[0].Path != "a.py" || report.Skipped[0].Path != "x.py" {
		t.Errorf("Aggregate() did not sort: first finding %s, first skipped %s", report.Findings[0].Path, report.Skipped[0].Path)
	}
}

func TestAggregateEmpty(t *testing.T) {
	report := newAggregator(t).Aggregate(Input{Status: models.StatusComplete})
	if HasViolations(report) {
		t.Error("empty report should have no violations")
	}
	var buf bytes.Buffer
	if err := EncodeJSON(&buf, report); err != nil {
		t.Fatalf("EncodeJSON() failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"findings": []`) {
		t.Errorf("empty findings should encode as an array, got:\n%s", buf.String())
	}
}

func TestEncodeYAMLMatchesJSON(t *testing.T) {
	report := newAggregator(t).Aggregate(sampleInput())

	var jsonBuf, yamlBuf bytes.Buffer
	if err := EncodeJSON(&jsonBuf, report); err != nil {
		t.Fatalf("EncodeJSON() failed: %v", err)
	}
	if err := EncodeYAML(&yamlBuf, report); err != nil {
		t.Fatalf("EncodeYAML() failed: %v", err)
	}
	if strings.Contains(yamlBuf.String(), "{") {
		t.Errorf("YAML output should use block style:\n%s", yamlBuf.String())
	}

	var fromJSON, fromYAML any
	if err := json.Unmarshal(jsonBuf.Bytes(), &fromJSON); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	if err := yaml.Unmarshal(yamlBuf.Bytes(), &fromYAML); err != nil {
		t.Fatalf("yaml.Unmarshal() failed: %v", err)
	}
	jsonSummary := fromJSON.(map[string]any)["summary"].(map[string]any)
	yamlSummary := fromYAML.(map[string]any)["summary"].(map[string]any)
	if yamlSummary["total"] != 8 || jsonSummary["total"] != float64(8) {
		t.Errorf("summary totals = yaml %v json %v, want 8", yamlSummary["total"], jsonSummary["total"])
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
		wantErr  bool
	}{
		{"json", FormatJSON, false},
		{"YAML", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"md", FormatMarkdown, false},
		{"text", FormatText, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if got != tt.expected || (err != nil) != tt.wantErr {
				t.Errorf("ParseFormat(%q) = (%q, %v), want %q", tt.input, got, err, tt.expected)
			}
		})
	}
}

func TestRenderers(t *testing.T) {
	report := newAggregator(t).Aggregate(sampleInput())

	tests := []struct {
		format   Format
		contains []string
	}{
		{FormatText, []string{"pyhealth", "api → db → api", "length violations by file", "huge"}},
		{FormatMarkdown, []string{"# pyhealth report", "| medium |", "- api → db → api", "## Skipped files"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(&buf, report, tt.format); err != nil {
				t.Fatalf("Write(%s) failed: %v", tt.format, err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("Write(%s) output missing %q:\n%s", tt.format, want, buf.String())
				}
			}
			if strings.Contains(buf.String(), "\x1b[") {
				t.Errorf("Write(%s) to a buffer should not emit escape codes", tt.format)
			}
		})
	}
}

func TestCell(t *testing.T) {
	tests := []struct {
		input    string
		width    int
		expected string
	}{
		{"abc", 5, "abc  "},
		{"abcdefgh", 5, "abcd…"},
		{"日本語", 4, "日…"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := cell(tt.input, tt.width); got != tt.expected {
				t.Errorf("cell(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.expected)
			}
		})
	}
}
