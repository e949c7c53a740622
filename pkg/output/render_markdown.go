package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/smith-xyz/pyhealth/pkg/models"
)

// Markdown returns the report as a markdown document.
func Markdown(r *models.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s report\n\n", r.CreationInfo.ToolName)
	fmt.Fprintf(&b, "- **Project:** `%s`\n", r.Project.Root)
	fmt.Fprintf(&b, "- **Status:** %s\n", r.Status)
	fmt.Fprintf(&b, "- **Files analysed:** %d\n", r.Project.Files)
	fmt.Fprintf(&b, "- **Findings:** %d (high %d, medium %d, low %d)\n", r.Summary.Total,
		r.Summary.BySeverity[models.SeverityHigh], r.Summary.BySeverity[models.SeverityMedium], r.Summary.BySeverity[models.SeverityLow])
	fmt.Fprintf(&b, "- **Cycles:** %d\n", r.Summary.Cycles)
	if r.Summary.FlaggedFunctions > 0 {
		fmt.Fprintf(&b, "- **Flagged functions:** %d (average complexity %.1f, max %d)\n",
			r.Summary.FlaggedFunctions, r.Summary.AverageComplexity, r.Summary.MaxComplexity)
	}

	if len(r.Findings) > 0 {
		b.WriteString("\n## Findings\n\n| Severity | Location | Rule | Message |\n|---|---|---|---|\n")
		for _, f := range r.Findings {
			fmt.Fprintf(&b, "| %s | `%s:%d` | %s | %s |\n", f.Severity, f.Path, f.Line, f.Rule, escapeCell(f.Message))
		}
	}

	ranked := append(append(append([]models.RankedFunction(nil), r.ComplexityRanking.High...), r.ComplexityRanking.Medium...), r.ComplexityRanking.NestingOnly...)
	if len(ranked) > 0 {
		b.WriteString("\n## Complexity ranking\n\n| Function | Complexity | Nesting | Location |\n|---|---|---|---|\n")
		for _, fn := range ranked {
			fmt.Fprintf(&b, "| `%s` | %d | %d | `%s:%d` |\n", fn.Function, fn.Complexity, fn.Nesting, fn.Path, fn.Line)
		}
	}

	if len(r.FileRanking) > 0 {
		b.WriteString("\n## Length violations by file\n\n| File | Violations | Total excess |\n|---|---|---|\n")
		for _, fv := range r.FileRanking {
			fmt.Fprintf(&b, "| `%s` | %d | %d |\n", fv.Path, fv.Violations, fv.TotalExcess)
		}
	}

	if deps := r.Dependencies; deps != nil {
		fmt.Fprintf(&b, "\n## Layers of `%s`\n\n", deps.PackageName)
		for _, layer := range sortedKeys(deps.Layers) {
			fmt.Fprintf(&b, "- **%s** → %s\n", layer, strings.Join(deps.Layers[layer], ", "))
		}
		if len(deps.Cycles) > 0 {
			b.WriteString("\n### Cycles\n\n")
			for _, c := range deps.Cycles {
				fmt.Fprintf(&b, "- %s\n", c.Path)
			}
		}
	}

	if s := r.Docstrings; s != nil {
		fmt.Fprintf(&b, "\n## Tool docstrings\n\n%d tools, %d at 5/5, %d at 4/5, %d below target, %d with examples. Targets met: %v.\n",
			s.Total, s.Score5, s.Score4, s.BelowTarget, s.WithExamples, s.TargetsMet)
	}

	if len(r.CoverageGaps) > 0 {
		b.WriteString("\n## Coverage gaps\n\n| File | Uncovered lines |\n|---|---|\n")
		for _, g := range r.CoverageGaps {
			fmt.Fprintf(&b, "| `%s` | %d |\n", g.Path, g.Missing)
		}
	}

	if len(r.Skipped) > 0 {
		b.WriteString("\n## Skipped files\n\n")
		for _, s := range r.Skipped {
			fmt.Fprintf(&b, "- `%s`: %s\n", s.Path, s.Reason)
		}
	}
	return b.String()
}

// RenderMarkdown writes the markdown report, styled with glamour when out is a
// terminal and raw otherwise.
func RenderMarkdown(out io.Writer, r *models.Report, styled bool, width int) error {
	md := Markdown(r)
	if styled {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err == nil {
			if rendered, err := renderer.Render(md); err == nil {
				md = rendered
			}
		}
	}
	_, err := io.WriteString(out, md)
	return err
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
