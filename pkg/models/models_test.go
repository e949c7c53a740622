package models

import (
	"reflect"
	"testing"
)

func TestFindingFingerprint(t *testing.T) {
	base := Finding{
		Path:     "src/app/core.py",
		Function: "load",
		Line:     12,
		Category: CategoryPerformance,
		Severity: SeverityHigh,
		Rule:     "nested_loops",
		Message:  "Nested loop detected (depth 2) - potential O(n²) or worse",
	}

	first := base.Sealed()
	second := base.Sealed()
	if first.Fingerprint == "" {
		t.Fatal("Sealed() left the fingerprint empty")
	}
	if first.Fingerprint != second.Fingerprint {
		t.Errorf("fingerprint not stable: %q vs %q", first.Fingerprint, second.Fingerprint)
	}
	if base.Fingerprint != "" {
		t.Error("Sealed() mutated the receiver")
	}

	moved := base
	moved.Line = 13
	if moved.Sealed().Fingerprint == first.Fingerprint {
		t.Error("expected a different fingerprint for a different line")
	}
}

func TestSortFindings(t *testing.T) {
	findings := []Finding{
		{Path: "b.py", Line: 1, Category: CategoryNaming},
		{Path: "a.py", Line: 9, Category: CategoryLength},
		{Path: "a.py", Line: 2, Category: CategoryPerformance, Rule: "string_split_in_loop"},
		{Path: "a.py", Line: 2, Category: CategoryPerformance, Rule: "list_append_in_loop"},
	}

	SortFindings(findings)

	var got []string
	for _, f := range findings {
		got = append(got, f.Path+":"+f.Rule)
	}
	want := []string{"a.py:list_append_in_loop", "a.py:string_split_in_loop", "a.py:", "b.py:"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SortFindings() order = %v, want %v", got, want)
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		input   string
		want    Severity
		wantErr bool
	}{
		{"high", SeverityHigh, false},
		{"medium", SeverityMedium, false},
		{"low", SeverityLow, false},
		{"critical", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSeverity(tt.input)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("ParseSeverity(%q) = (%q, %v), want %q", tt.input, got, err, tt.want)
			}
		})
	}

	if SeverityHigh.Rank() >= SeverityMedium.Rank() || SeverityMedium.Rank() >= SeverityLow.Rank() {
		t.Error("expected high < medium < low in Rank order")
	}
}

func TestLayerGraph(t *testing.T) {
	g := LayerGraph{
		"core":  {"utils"},
		"tools": {"core", "utils"},
	}

	if got, want := g.Layers(), []string{"core", "tools", "utils"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Layers() = %v, want %v", got, want)
	}
	if g.EdgeCount() != 3 {
		t.Errorf("EdgeCount() = %d, want 3", g.EdgeCount())
	}

	if got := (Cycle{"a", "b", "a"}).String(); got != "a → b → a" {
		t.Errorf("Cycle.String() = %q", got)
	}
}
