package datamodel

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/smith-xyz/pyhealth/pkg/analysis/rules"
	"github.com/smith-xyz/pyhealth/pkg/config"
	"github.com/smith-xyz/pyhealth/pkg/models"
	"github.com/smith-xyz/pyhealth/pkg/source"
	"github.com/smith-xyz/pyhealth/pkg/testutil"
	"github.com/smith-xyz/pyhealth/pkg/utils"
)

const fixture = `
-- src/app/orders/service.py --
from typing import TypedDict
import pydantic


class OrderDict(TypedDict, total=False):
    id: int


class Order(pydantic.BaseModel):
    id: int


class Helper:
    pass
-- src/app/orders/models.py --
from pydantic import BaseModel


class Line(BaseModel):
    sku: str
-- src/app/billing/invoice.py --
class Invoice(StrictBaseModel):
    total: int
`

func analyzeFile(t *testing.T, root, rel string) []models.Finding {
	t.Helper()
	cfg, err := config.DefaultConfig()
	if err != nil {
		t.Fatalf("Failed to load default config: %v", err)
	}
	abs := filepath.Join(root, filepath.FromSlash(rel))
	u, err := source.Load(context.Background(), abs, rel)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	t.Cleanup(u.Close)

	findings, err := NewAnalyzer(utils.DiscardLogger(), cfg, rules.NewRules(cfg)).AnalyzeUnit(context.Background(), u)
	if err != nil {
		t.Fatalf("AnalyzeUnit() failed: %v", err)
	}
	return findings
}

func TestAnalyzeUnit(t *testing.T) {
	root := testutil.WriteTree(t, fixture)

	tests := []struct {
		file     string
		expected []string
	}{
		{"src/app/orders/service.py", []string{
			"TypedDict 'OrderDict' used - Pydantic BaseModel required",
			"Data model 'OrderDict' defined in wrong file - should be in src/app/orders/models.py",
			"Data model 'Order' defined in wrong file - should be in src/app/orders/models.py",
		}},
		{"src/app/orders/models.py", nil},
		{"src/app/billing/invoice.py", nil},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			findings := analyzeFile(t, root, tt.file)
			if len(findings) != len(tt.expected) {
				t.Fatalf("got %d findings %+v, want %d", len(findings), findings, len(tt.expected))
			}
			for i, f := range findings {
				if f.Message != tt.expected[i] {
					t.Errorf("finding %d message = %q, want %q", i, f.Message, tt.expected[i])
				}
			}
		})
	}
}

func TestPlainRecordWithoutModelsFile(t *testing.T) {
	root := testutil.WriteTree(t, fixture)
	if err := os.Remove(filepath.Join(root, "src/app/orders/models.py")); err != nil {
		t.Fatalf("failed to remove models.py: %v", err)
	}

	findings := analyzeFile(t, root, "src/app/orders/service.py")
	if len(findings) != 1 || findings[0].Rule != RulePlainRecord || findings[0].Line != 5 {
		t.Errorf("findings = %+v, want a single plain record finding on line 5", findings)
	}
}
