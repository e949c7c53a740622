package docstring

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/smith-xyz/pyhealth/pkg/config"
	"github.com/smith-xyz/pyhealth/pkg/models"
	"github.com/smith-xyz/pyhealth/pkg/source"
	"github.com/smith-xyz/pyhealth/pkg/testutil"
	"github.com/smith-xyz/pyhealth/pkg/utils"
)

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.DefaultConfig()
	if err != nil {
		t.Fatalf("Failed to load default config: %v", err)
	}
	return cfg
}

func newAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(utils.DiscardLogger(), defaultConfig(t))
	if err != nil {
		t.Fatalf("NewAnalyzer() failed: %v", err)
	}
	return a
}

func TestRubricScore(t *testing.T) {
	r := newAnalyzer(t).rubric

	tests := []struct {
		name     string
		doc      string
		expected int
		gaps     []string
	}{
		{"empty", "", 1, []string{GapPurpose, GapUseWhen, GapArgs, GapReturns, GapExamples}},
		{"short purpose", "Fetch rows.", 1, []string{GapPurpose, GapUseWhen, GapArgs, GapReturns, GapExamples}},
		{"purpose args returns", "Fetch the rows of a table.\n\nArgs:\n    table: name\n\nReturns:\n    rows", 3, []string{GapUseWhen, GapExamples}},
		{"all core", "Fetch the rows of a table.\n\nUSE WHEN you need rows.\n\nParameters:\n    table: name\n\nReturn: rows", 4, []string{GapExamples}},
		{"with example section", "Fetch the rows of a table.\nUse when needed.\nArgs: t\nReturns: r\nExamples:\n    fetch('t')", 5, nil},
		{"with doctest", "Fetch the rows of a table.\nUse when needed.\nArgs: t\nReturns: r\n>>> fetch('t')", 5, nil},
		{"with input_examples", "Fetch the rows of a table.\nUse when needed.\nArgs: t\nReturns: r\ninput_examples=[...]", 5, nil},
		{"example word alone", "Fetch the rows of a table, for example all.\nUse when needed.\nArgs: t\nReturns: r", 4, []string{GapExamples}},
		{"examples without core", "Example: fetch()", 1, []string{GapPurpose, GapUseWhen, GapArgs, GapReturns}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Score(tt.doc)
			if got.Score != tt.expected {
				t.Errorf("Score(%q) = %d, want %d", tt.doc, got.Score, tt.expected)
			}
			if !reflect.DeepEqual(got.Gaps, tt.gaps) {
				t.Errorf("Score(%q) gaps = %v, want %v", tt.doc, got.Gaps, tt.gaps)
			}
		})
	}
}

const toolsFixture = `
-- src/app/tools/search.py --
from app.tools.docs import SEARCH_DOC
from .docs import MISSING_DOC
from .docs import SEARCH_DOC as FIND_DOC
from app.shared.texts import REPORT_DOC

LOCAL_DOC = """Look up one record by its key.

USE WHEN the key is known.

Args:
    key: record key

Returns:
    the record

Examples:
    lookup("a")
"""


@mcp.tool()
async def search(query: str):
    """Short."""


@mcp.tool
def lookup(key):
    pass


@mcp.tool(name="ghost")
def ghost():
    pass


@other.tool
def ignored():
    """Not a tool."""


@mcp.tool
def find(query):
    pass


@mcp.tool
def report():
    pass


search.__doc__ = SEARCH_DOC
lookup.__doc__ = LOCAL_DOC
ghost.__doc__ = MISSING_DOC
find.__doc__ = FIND_DOC
report.__doc__ = REPORT_DOC
-- src/app/tools/docs.py --
SEARCH_DOC = "Search every record for the query text. Use when browsing. Args: query. Returns: matches."
-- src/app/tools/texts.py --
REPORT_DOC = "Short."
-- src/app/shared/texts.py --
REPORT_DOC = "Report totals for every open account. Use when closing. Args: none. Returns: totals."
`

func TestScoreUnit(t *testing.T) {
	root := testutil.WriteTree(t, toolsFixture)
	rel := "src/app/tools/search.py"

	tests := []struct {
		name  string
		roots []string
	}{
		{"ancestor lookup", nil},
		{"source dir root", []string{filepath.Join(root, "src")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := source.Load(context.Background(), filepath.Join(root, filepath.FromSlash(rel)), rel)
			if err != nil {
				t.Fatalf("Load() failed: %v", err)
			}
			defer u.Close()

			a, err := NewAnalyzer(utils.DiscardLogger(), defaultConfig(t), tt.roots...)
			if err != nil {
				t.Fatalf("NewAnalyzer() failed: %v", err)
			}
			scores, err := a.ScoreUnit(context.Background(), u)
			if err != nil {
				t.Fatalf("ScoreUnit() failed: %v", err)
			}

			got := make(map[string]int)
			for _, s := range scores {
				got[s.Name] = s.Score
				if s.Module != "src.app.tools.search" {
					t.Errorf("Module = %q, want src.app.tools.search", s.Module)
				}
			}
			want := map[string]int{"search": 4, "lookup": 5, "ghost": 1, "find": 4, "report": 4}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("scores = %v, want %v", got, want)
			}

			findings := a.Findings(scores)
			if len(findings) != 1 || findings[0].Function != "ghost" || findings[0].Severity != models.SeverityHigh {
				t.Errorf("Findings() = %+v, want one high finding for ghost", findings)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	a := newAnalyzer(t)
	scores := []models.ToolScore{
		{Module: "m", Name: "b", Score: 5, HasExamples: true},
		{Module: "m", Name: "a", Score: 4},
		{Module: "m", Name: "c", Score: 2},
	}

	s := a.Summarize(scores)
	if s.Total != 3 || s.Score5 != 1 || s.Score4 != 1 || s.BelowTarget != 1 || s.WithExamples != 1 || s.TargetsMet {
		t.Errorf("Summarize() = %+v", s)
	}
	if s.Tools[0].Name != "c" || s.Tools[2].Name != "b" {
		t.Errorf("Summarize() tool order = %v", s.Tools)
	}

	var many []models.ToolScore
	for i := 0; i < 20; i++ {
		many = append(many, models.ToolScore{Score: 5, HasExamples: true})
	}
	if !a.Summarize(many).TargetsMet {
		t.Error("expected targets met with 20 tools at score 5")
	}
}
