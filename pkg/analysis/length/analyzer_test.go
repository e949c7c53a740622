package length

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/smith-xyz/pyhealth/pkg/analysis/rules"
	"github.com/smith-xyz/pyhealth/pkg/config"
	"github.com/smith-xyz/pyhealth/pkg/models"
	"github.com/smith-xyz/pyhealth/pkg/source"
	"github.com/smith-xyz/pyhealth/pkg/utils"
)

func analyze(t *testing.T, cfg *config.Config, relPath, src string) []models.Finding {
	t.Helper()
	u, err := source.FromBytes(context.Background(), relPath, "/abs/"+relPath, []byte(src))
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

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.DefaultConfig()
	if err != nil {
		t.Fatalf("Failed to load default config: %v", err)
	}
	return cfg
}

func functionWith(statements int) string {
	var b strings.Builder
	b.WriteString("def work():\n    \"\"\"Does work.\"\"\"\n")
	for i := 0; i < statements; i++ {
		fmt.Fprintf(&b, "    v%d = %d\n", i, i)
		if i%10 == 0 {
			b.WriteString("    # checkpoint\n\n")
		}
	}
	return b.String()
}

func TestFunctionLength(t *testing.T) {
	tests := []struct {
		statements int
		flagged    bool
	}{
		{30, false},
		{31, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d lines", tt.statements), func(t *testing.T) {
			findings := analyze(t, defaultConfig(t), "src/app/work.py", functionWith(tt.statements))
			if !tt.flagged {
				if len(findings) != 0 {
					t.Errorf("expected no findings, got %+v", findings)
				}
				return
			}
			if len(findings) != 1 {
				t.Fatalf("expected 1 finding, got %d", len(findings))
			}
			f := findings[0]
			if f.Rule != RuleFunctionTooLong || f.Excess != 1 || f.Score != 31 || f.Function != "work" {
				t.Errorf("finding = %+v", f)
			}
		})
	}
}

func TestFileSize(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Thresholds.MaxFileLines = 5
	cfg.Thresholds.MaxFunctionLines = 100

	src := "\"\"\"Module doc.\"\"\"\n# header\n\nimport os\nimport sys\n\na = 1\nb = 2\nc = 3\nd = 4\n"

	findings := analyze(t, cfg, "src/app/settings.py", src)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	f := findings[0]
	if f.Category != models.CategoryFileSize || f.Score != 6 || f.Excess != 1 || f.Line != 1 {
		t.Errorf("finding = %+v", f)
	}
	if f.Message != "6 lines (max: 5, excess: 1)" {
		t.Errorf("Message = %q", f.Message)
	}

	if got := analyze(t, cfg, "src/app/models.py", src); len(got) != 0 {
		t.Errorf("models.py should be exempt, got %+v", got)
	}
}
