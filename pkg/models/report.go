package models

// RunStatus describes whether a run covered every selected file
type RunStatus string

const (
	StatusComplete   RunStatus = "complete"
	StatusIncomplete RunStatus = "incomplete"
)

// Report is the structured result of one analysis run
type Report struct {
	CreationInfo      CreationInfo      `json:"creation_info"`
	Project           ProjectInfo       `json:"project"`
	Status            RunStatus         `json:"status"`
	Summary           Summary           `json:"summary"`
	Findings          []Finding         `json:"findings"`
	ComplexityRanking ComplexityRanking `json:"complexity_ranking"`
	FileRanking       []FileViolations  `json:"file_ranking"`
	Dependencies      *DependencyReport `json:"dependencies,omitempty"`
	Docstrings        *DocstringSummary `json:"docstrings,omitempty"`
	CoverageGaps      []CoverageGap     `json:"coverage_gaps,omitempty"`
	Skipped           []SkippedFile     `json:"skipped,omitempty"`
}

// CreationInfo records which tool produced the report
type CreationInfo struct {
	ToolName    string   `json:"tool_name"`
	ToolVersion string   `json:"tool_version"`
	Analyzers   []string `json:"analyzers"`
}

// ProjectInfo records the resolved layout that was analysed
type ProjectInfo struct {
	Root        string `json:"root"`
	SourceDir   string `json:"source_dir"`
	TestsDir    string `json:"tests_dir,omitempty"`
	PackageName string `json:"package_name,omitempty"`
	Files       int    `json:"files"`
	Fingerprint string `json:"fingerprint,omitempty"` // xxh3 over the path and hash of every file read
}

// Summary holds the counts over all findings
type Summary struct {
	Total             int              `json:"total"`
	BySeverity        map[Severity]int `json:"by_severity"`
	ByCategory        map[Category]int `json:"by_category"`
	FlaggedFunctions  int              `json:"flagged_functions"`
	AverageComplexity float64          `json:"average_complexity"` // over flagged functions only
	MaxComplexity     int              `json:"max_complexity"`     // over flagged functions only
	Cycles            int              `json:"cycles"`
}

// RankedFunction is one entry of the complexity ranking
type RankedFunction struct {
	Path       string   `json:"path"`
	Function   string   `json:"function"`
	Line       int      `json:"line"`
	Complexity int      `json:"complexity"`
	Nesting    int      `json:"nesting"`
	Issues     []string `json:"issues"`
}

// ComplexityRanking buckets flagged functions
type ComplexityRanking struct {
	High        []RankedFunction `json:"high"`         // complexity above the high threshold
	Medium      []RankedFunction `json:"medium"`       // complexity above the threshold, up to the high threshold
	NestingOnly []RankedFunction `json:"nesting_only"` // nesting over threshold, complexity within limits
}

// FileViolations groups length findings by file
type FileViolations struct {
	Path        string `json:"path"`
	Violations  int    `json:"violations"`
	TotalExcess int    `json:"total_excess"`
}

// ToolScore is the docstring rubric result for one decorated callable
type ToolScore struct {
	Module      string   `json:"module"`
	Name        string   `json:"name"`
	Path        string   `json:"path"`
	Line        int      `json:"line"`
	Score       int      `json:"score"`
	HasPurpose  bool     `json:"has_purpose"`
	HasUseWhen  bool     `json:"has_use_when"`
	HasArgs     bool     `json:"has_args"`
	HasReturns  bool     `json:"has_returns"`
	HasExamples bool     `json:"has_examples"`
	Gaps        []string `json:"gaps,omitempty"`
}

// DocstringSummary aggregates rubric scores against the configured targets
type DocstringSummary struct {
	Total        int         `json:"total"`
	Score5       int         `json:"score_5"`
	Score4       int         `json:"score_4"`
	BelowTarget  int         `json:"below_target"`
	WithExamples int         `json:"with_examples"`
	TargetsMet   bool        `json:"targets_met"`
	Tools        []ToolScore `json:"tools"`
}

// CoverageGap is one file's missing-line count from a coverage report
type CoverageGap struct {
	Path         string `json:"path"`
	Missing      int    `json:"missing"`
	MissingLines []int  `json:"missing_lines,omitempty"`
}
