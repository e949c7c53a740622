package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/smith-xyz/pyhealth/pkg/models"
)

const (
	defaultWidth    = 100
	functionColumn  = 40
	pathColumn      = 48
	rankingListSize = 20
)

// TextRenderer writes a human-readable summary of a report. Colours follow the
// capabilities of the destination, so piped output stays plain.
type TextRenderer struct {
	out     io.Writer
	heading lipgloss.Style
	dim     lipgloss.Style
	sev     map[models.Severity]lipgloss.Style
	ok      lipgloss.Style
}

// NewTextRenderer creates a new text renderer writing to out
func NewTextRenderer(out io.Writer) *TextRenderer {
	r := lipgloss.NewRenderer(out)
	return &TextRenderer{
		out:     out,
		heading: r.NewStyle().Bold(true).Underline(true),
		dim:     r.NewStyle().Faint(true),
		ok:      r.NewStyle().Foreground(lipgloss.Color("2")),
		sev: map[models.Severity]lipgloss.Style{
			models.SeverityHigh:   r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
			models.SeverityMedium: r.NewStyle().Foreground(lipgloss.Color("3")),
			models.SeverityLow:    r.NewStyle().Foreground(lipgloss.Color("6")),
		},
	}
}

// Render writes the report.
func (t *TextRenderer) Render(report *models.Report) error {
	var b strings.Builder
	t.summary(&b, report)
	t.findings(&b, report.Findings)
	t.ranking(&b, report.ComplexityRanking)
	t.files(&b, report.FileRanking)
	t.dependencies(&b, report.Dependencies)
	t.docstrings(&b, report.Docstrings)
	t.coverage(&b, report.CoverageGaps)
	t.skipped(&b, report.Skipped)
	_, err := io.WriteString(t.out, b.String())
	return err
}

func (t *TextRenderer) section(b *strings.Builder, title string) {
	fmt.Fprintf(b, "\n%s\n", t.heading.Render(title))
}

func (t *TextRenderer) summary(b *strings.Builder, r *models.Report) {
	fmt.Fprintf(b, "%s %s  (%s)\n", t.heading.Render(r.CreationInfo.ToolName), r.CreationInfo.ToolVersion, r.Project.Root)
	if r.Status == models.StatusIncomplete {
		fmt.Fprintf(b, "%s\n", t.sev[models.SeverityHigh].Render("run incomplete"))
	}
	fmt.Fprintf(b, "files analysed: %d  findings: %d  cycles: %d\n", r.Project.Files, r.Summary.Total, r.Summary.Cycles)

	var parts []string
	for _, sev := range models.Severities {
		parts = append(parts, t.sev[sev].Render(fmt.Sprintf("%s %d", sev, r.Summary.BySeverity[sev])))
	}
	fmt.Fprintf(b, "%s\n", strings.Join(parts, "  "))
	if r.Summary.FlaggedFunctions > 0 {
		fmt.Fprintf(b, "flagged functions: %d  average complexity: %.1f  max complexity: %d\n",
			r.Summary.FlaggedFunctions, r.Summary.AverageComplexity, r.Summary.MaxComplexity)
	}
	if r.Summary.Total == 0 && r.Summary.Cycles == 0 {
		fmt.Fprintf(b, "%s\n", t.ok.Render("no violations"))
	}
}

func (t *TextRenderer) findings(b *strings.Builder, findings []models.Finding) {
	for _, cat := range models.Categories {
		var inCat []models.Finding
		for _, f := range findings {
			if f.Category == cat {
				inCat = append(inCat, f)
			}
		}
		if len(inCat) == 0 {
			continue
		}
		t.section(b, fmt.Sprintf("%s (%d)", cat, len(inCat)))
		for _, f := range inCat {
			location := fmt.Sprintf("%s:%d", f.Path, f.Line)
			fmt.Fprintf(b, "  %s %s %s\n", t.sev[f.Severity].Render(runewidth.FillRight(string(f.Severity), 6)), cell(location, pathColumn), f.Message)
			if f.Suggestion != "" {
				fmt.Fprintf(b, "         %s\n", t.dim.Render("suggestion: "+f.Suggestion))
			}
		}
	}
}

func (t *TextRenderer) ranking(b *strings.Builder, ranking models.ComplexityRanking) {
	groups := []struct {
		title string
		fns   []models.RankedFunction
	}{
		{"high complexity", ranking.High},
		{"medium complexity", ranking.Medium},
		{"deep nesting only", ranking.NestingOnly},
	}
	for _, g := range groups {
		if len(g.fns) == 0 {
			continue
		}
		t.section(b, fmt.Sprintf("%s (%d)", g.title, len(g.fns)))
		for i, fn := range g.fns {
			if i == rankingListSize {
				fmt.Fprintf(b, "  %s\n", t.dim.Render(fmt.Sprintf("... %d more", len(g.fns)-i)))
				break
			}
			fmt.Fprintf(b, "  %s  c=%-3d n=%-2d %s\n", cell(fn.Function, functionColumn), fn.Complexity, fn.Nesting,
				t.dim.Render(fmt.Sprintf("%s:%d", fn.Path, fn.Line)))
		}
	}
}

func (t *TextRenderer) files(b *strings.Builder, files []models.FileViolations) {
	if len(files) == 0 {
		return
	}
	t.section(b, "length violations by file")
	for _, fv := range files {
		fmt.Fprintf(b, "  %s  %d violation(s), excess %d\n", cell(fv.Path, pathColumn), fv.Violations, fv.TotalExcess)
	}
}

func (t *TextRenderer) dependencies(b *strings.Builder, deps *models.DependencyReport) {
	if deps == nil {
		return
	}
	t.section(b, fmt.Sprintf("layers of %s", deps.PackageName))
	for _, layer := range sortedKeys(deps.Layers) {
		targets := deps.Layers[layer]
		if len(targets) == 0 {
			fmt.Fprintf(b, "  %s\n", layer)
			continue
		}
		fmt.Fprintf(b, "  %s -> %s\n", layer, strings.Join(targets, ", "))
	}
	if len(deps.Cycles) == 0 {
		fmt.Fprintf(b, "  %s\n", t.ok.Render("no circular dependencies"))
		return
	}
	for _, c := range deps.Cycles {
		fmt.Fprintf(b, "  %s %s\n", t.sev[models.SeverityHigh].Render("cycle"), c.Path)
	}
	for _, tangle := range deps.Tangles {
		fmt.Fprintf(b, "  %s %s\n", t.dim.Render("tangle"), strings.Join(tangle.Layers, ", "))
	}
}

func (t *TextRenderer) docstrings(b *strings.Builder, s *models.DocstringSummary) {
	if s == nil {
		return
	}
	t.section(b, "tool docstrings")
	fmt.Fprintf(b, "  tools: %d  score 5: %d  score 4: %d  below target: %d  with examples: %d\n",
		s.Total, s.Score5, s.Score4, s.BelowTarget, s.WithExamples)
	if s.TargetsMet {
		fmt.Fprintf(b, "  %s\n", t.ok.Render("targets met"))
	} else {
		fmt.Fprintf(b, "  %s\n", t.sev[models.SeverityMedium].Render("targets not met"))
	}
}

func (t *TextRenderer) coverage(b *strings.Builder, gaps []models.CoverageGap) {
	if len(gaps) == 0 {
		return
	}
	t.section(b, fmt.Sprintf("top %d files by uncovered lines", len(gaps)))
	for i, g := range gaps {
		fmt.Fprintf(b, "  %2d. %s %d uncovered%s\n", i+1, cell(g.Path, pathColumn), g.Missing, linePreview(g.MissingLines))
	}
}

func (t *TextRenderer) skipped(b *strings.Builder, skipped []models.SkippedFile) {
	if len(skipped) == 0 {
		return
	}
	t.section(b, fmt.Sprintf("skipped (%d)", len(skipped)))
	for _, s := range skipped {
		fmt.Fprintf(b, "  %s %s\n", s.Path, t.dim.Render(s.Reason))
	}
}

// cell pads or truncates s to width display columns.
func cell(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		return runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}

func linePreview(lines []int) string {
	if len(lines) == 0 {
		return ""
	}
	shown := lines[:min(len(lines), 5)]
	parts := make([]string, len(shown))
	for i, l := range shown {
		parts[i] = fmt.Sprint(l)
	}
	suffix := ""
	if len(lines) > 5 {
		suffix = "..."
	}
	return fmt.Sprintf(" (e.g. %s%s)", strings.Join(parts, ", "), suffix)
}

func sortedKeys(g models.LayerGraph) []string {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
