package models

// FunctionMetrics holds the measurements of one function definition
type FunctionMetrics struct {
	Name         string `json:"name"`
	Line         int    `json:"line"`
	EndLine      int    `json:"end_line"`
	Async        bool   `json:"async,omitempty"`
	Complexity   int    `json:"complexity"`    // cyclomatic complexity, starting at 1
	Nesting      int    `json:"nesting"`       // maximum block nesting depth
	LogicalLines int    `json:"logical_lines"` // excludes the signature, blanks, comments and the docstring
}

// FileMetrics holds the per-file measurements
type FileMetrics struct {
	Path         string            `json:"path"`
	LogicalLines int               `json:"logical_lines"`
	Functions    []FunctionMetrics `json:"functions,omitempty"`
}

// SkippedFile records a file that could not be analysed
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
	Hash   string `json:"hash,omitempty"` // xxh3 of the content when the file was readable
}
