// Package coverage ranks files by uncovered lines from a coverage.py JSON report.
package coverage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/smith-xyz/pyhealth/pkg/models"
	"github.com/smith-xyz/pyhealth/pkg/utils"
)

// DefaultTop is the number of files kept when no limit is configured
const DefaultTop = 10

// ErrNoReport is returned when the coverage report file does not exist.
var ErrNoReport = errors.New("coverage report not found")

// Options filters and limits the ranking
type Options struct {
	Directory string // keep only paths containing this substring
	Module    string // keep only paths containing this substring
	Top       int
}

type report struct {
	Files map[string]fileEntry `json:"files"`
}

type fileEntry struct {
	MissingLines []int          `json:"missing_lines"`
	Summary      map[string]any `json:"summary"`
}

// Ranker reads coverage reports
type Ranker struct {
	logger *slog.Logger
}

// NewRanker creates a new coverage gap ranker
func NewRanker(logger *slog.Logger) *Ranker {
	return &Ranker{logger: logger}
}

// RankFile reads the report at path and ranks its files.
func (r *Ranker) RankFile(path string, opts Options) ([]models.CoverageGap, error) {
	if !utils.FileExists(path) {
		return nil, fmt.Errorf("%w: %s", ErrNoReport, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read coverage report %s: %w", path, err)
	}
	gaps, err := Rank(data, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to parse coverage report %s: %w", path, err)
	}
	r.logger.Debug("coverage gaps ranked", "report", path, "files", len(gaps))
	return gaps, nil
}

// Rank parses a coverage.py JSON document and returns the files with missing
// lines, most missing first, ties by path, cut to opts.Top.
func Rank(data []byte, opts Options) ([]models.CoverageGap, error) {
	var rep report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, err
	}

	var gaps []models.CoverageGap
	for path, entry := range rep.Files {
		count := missingCount(entry)
		if count <= 0 {
			continue
		}
		if opts.Directory != "" && !strings.Contains(path, opts.Directory) {
			continue
		}
		if opts.Module != "" && !strings.Contains(path, opts.Module) {
			continue
		}
		gaps = append(gaps, models.CoverageGap{
			Path:         utils.NormalizePath(path),
			Missing:      count,
			MissingLines: entry.MissingLines,
		})
	}

	sort.Slice(gaps, func(i, j int) bool {
		if gaps[i].Missing != gaps[j].Missing {
			return gaps[i].Missing > gaps[j].Missing
		}
		return gaps[i].Path < gaps[j].Path
	})

	top := opts.Top
	if top <= 0 {
		top = DefaultTop
	}
	if len(gaps) > top {
		gaps = gaps[:top]
	}
	return gaps, nil
}

// missingCount prefers the summary's missing_lines total and falls back to the
// length of the per-line list.
func missingCount(entry fileEntry) int {
	if entry.Summary == nil {
		return len(entry.MissingLines)
	}
	switch v := entry.Summary["missing_lines"].(type) {
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return len(entry.MissingLines)
}
