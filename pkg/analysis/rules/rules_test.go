package rules

import (
	"testing"

	"github.com/smith-xyz/pyhealth/pkg/config"
	"github.com/smith-xyz/pyhealth/pkg/models"
)

func defaultRules(t *testing.T) *Rules {
	t.Helper()
	cfg, err := config.DefaultConfig()
	if err != nil {
		t.Fatalf("Failed to load default config: %v", err)
	}
	return NewRules(cfg)
}

func TestExpensiveCallSeverity(t *testing.T) {
	c := defaultRules(t).Classifier

	tests := []struct {
		name     string
		expected models.Severity
		found    bool
	}{
		{"read_file", models.SeverityMedium, true},
		{"write_file", models.SeverityMedium, true},
		{"exists", models.SeverityMedium, true},
		{"len", models.SeverityLow, true},
		{"print", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sev, ok := c.ExpensiveCallSeverity(tt.name)
			if sev != tt.expected || ok != tt.found {
				t.Errorf("ExpensiveCallSeverity(%q) = (%q, %v), want (%q, %v)", tt.name, sev, ok, tt.expected, tt.found)
			}
		})
	}
}

func TestUnknownSeverityFallsBack(t *testing.T) {
	cfg, err := config.DefaultConfig()
	if err != nil {
		t.Fatalf("Failed to load default config: %v", err)
	}
	cfg.Performance.ExpensiveCalls = map[string]string{"sleep": "critical"}

	sev, ok := NewClassifier(cfg).ExpensiveCallSeverity("sleep")
	if !ok || sev != models.SeverityMedium {
		t.Errorf("ExpensiveCallSeverity(%q) = (%q, %v), want (medium, true)", "sleep", sev, ok)
	}
}

func TestNameSets(t *testing.T) {
	c := defaultRules(t).Classifier

	tests := []struct {
		name     string
		check    func(string) bool
		input    string
		expected bool
	}{
		{"append is batch", c.IsBatchMethod, "append", true},
		{"extend is not batch", c.IsBatchMethod, "extend", false},
		{"split", c.IsSplitMethod, "split", true},
		{"blocked get", c.IsBlocked, "get", true},
		{"fetch not blocked", c.IsBlocked, "fetch", false},
		{"gather helper", c.IsOrchestrationHelper, "gather", true},
		{"map not helper", c.IsOrchestrationHelper, "map", false},
		{"TypedDict plain", c.IsPlainBase, "TypedDict", true},
		{"BaseModel validated", c.IsValidatedBase, "BaseModel", true},
		{"StrictBaseModel validated", c.IsValidatedBase, "StrictBaseModel", true},
		{"dataclass not validated", c.IsValidatedBase, "dataclass", false},
		{"templates skipped", c.IsSkippedLayer, "templates", true},
		{"core not skipped", c.IsSkippedLayer, "core", false},
		{"models.py size excluded", c.IsSizeExcluded, "models.py", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.check(tt.input); got != tt.expected {
				t.Errorf("check(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}
