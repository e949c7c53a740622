package performance

import (
	"context"
	"testing"

	"github.com/smith-xyz/pyhealth/pkg/analysis/rules"
	"github.com/smith-xyz/pyhealth/pkg/config"
	"github.com/smith-xyz/pyhealth/pkg/models"
	"github.com/smith-xyz/pyhealth/pkg/source"
	"github.com/smith-xyz/pyhealth/pkg/testutil"
	"github.com/smith-xyz/pyhealth/pkg/utils"
)

func analyze(t *testing.T, src string) []models.Finding {
	t.Helper()
	cfg, err := config.DefaultConfig()
	if err != nil {
		t.Fatalf("Failed to load default config: %v", err)
	}
	u, err := source.FromBytes(context.Background(), "src/app/loops.py", "/abs/src/app/loops.py", []byte(testutil.Dedent(src)))
	if err != nil {
		t.Fatalf("FromBytes() failed: %v", err)
	}
	if u.ParseErr != nil {
		t.Fatalf("fixture does not parse: %v", u.ParseErr)
	}
	t.Cleanup(u.Close)

	findings, err := NewAnalyzer(utils.DiscardLogger(), cfg, rules.NewRules(cfg)).AnalyzeUnit(context.Background(), u)
	if err != nil {
		t.Fatalf("AnalyzeUnit() failed: %v", err)
	}
	return findings
}

type hit struct {
	rule     string
	line     int
	severity models.Severity
	function string
}

func hits(findings []models.Finding) []hit {
	var out []hit
	for _, f := range findings {
		out = append(out, hit{f.Rule, f.Line, f.Severity, f.Function})
	}
	return out
}

func TestAnalyzeUnit(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected []hit
	}{
		{
			name: "single loop is fine",
			src: `
				def f(xs):
				    out = []
				    for x in xs:
				        out.extend(x)
				    return out
			`,
		},
		{
			name: "nested for and while",
			src: `
				def f(xs):
				    for x in xs:
				        while x:
				            for y in x:
				                pass
			`,
			expected: []hit{
				{RuleNestedLoops, 3, models.SeverityHigh, "f"},
				{RuleNestedLoops, 4, models.SeverityHigh, "f"},
			},
		},
		{
			name: "append on bare name only",
			src: `
				def f(xs):
				    for x in xs:
				        out.append(x)
				        self.out.append(x)
			`,
			expected: []hit{{RuleAppendInLoop, 3, models.SeverityMedium, "f"}},
		},
		{
			name: "split and expensive calls",
			src: `
				def f(paths):
				    for p in paths:
				        parts = p.split("/")
				        if os.path.exists(p):
				            data = read_file(p)
				        n = len(parts)
			`,
			expected: []hit{
				{RuleSplitInLoop, 3, models.SeverityMedium, "f"},
				{RuleFileIOInLoop, 4, models.SeverityMedium, "f"},
				{RuleFileIOInLoop, 5, models.SeverityMedium, "f"},
				{RuleLenInLoop, 6, models.SeverityLow, "f"},
			},
		},
		{
			name: "loop depth carries into nested def",
			src: `
				def outer(xs):
				    for x in xs:
				        def inner():
				            for y in x:
				                pass
			`,
			expected: []hit{{RuleNestedLoops, 4, models.SeverityHigh, "inner"}},
		},
		{
			name: "calls outside loops are ignored",
			src: `
				def f(p):
				    return len(read_file(p).split())
			`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := hits(analyze(t, tt.src))
			if len(got) != len(tt.expected) {
				t.Fatalf("findings = %+v, want %+v", got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("finding %d = %+v, want %+v", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestNestedLoopMessages(t *testing.T) {
	findings := analyze(t, `
		def f(xs):
		    while xs:
		        while xs:
		            for x in xs:
		                pass
	`)
	if len(findings) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(findings))
	}
	if want := "Nested while loop (depth 2) - potential O(n²) or worse"; findings[0].Message != want {
		t.Errorf("Message = %q, want %q", findings[0].Message, want)
	}
	if want := "Nested loop detected (depth 3) - potential O(n²) or worse"; findings[1].Message != want {
		t.Errorf("Message = %q, want %q", findings[1].Message, want)
	}
}
