// Package generator runs the analyzers over a project and assembles the report.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/smith-xyz/pyhealth/pkg/analysis/awaitcheck"
	"github.com/smith-xyz/pyhealth/pkg/analysis/complexity"
	"github.com/smith-xyz/pyhealth/pkg/analysis/coverage"
	"github.com/smith-xyz/pyhealth/pkg/analysis/datamodel"
	"github.com/smith-xyz/pyhealth/pkg/analysis/dependency"
	"github.com/smith-xyz/pyhealth/pkg/analysis/docstring"
	"github.com/smith-xyz/pyhealth/pkg/analysis/length"
	"github.com/smith-xyz/pyhealth/pkg/analysis/naming"
	"github.com/smith-xyz/pyhealth/pkg/analysis/performance"
	"github.com/smith-xyz/pyhealth/pkg/analysis/rules"
	"github.com/smith-xyz/pyhealth/pkg/config"
	"github.com/smith-xyz/pyhealth/pkg/models"
	"github.com/smith-xyz/pyhealth/pkg/output"
	"github.com/smith-xyz/pyhealth/pkg/source"
	"github.com/smith-xyz/pyhealth/pkg/utils"
	"github.com/smith-xyz/pyhealth/pkg/version"
)

// ErrIncompleteRun is returned when the run was cancelled or timed out before
// every selected file was analysed.
var ErrIncompleteRun = errors.New("analysis run incomplete")

// Options controls one run
type Options struct {
	Root      string
	Analyzers []string
	Coverage  coverage.Options // Top falls back to the configured value
}

// Result carries the parts of a run that are not in the report itself
type Result struct {
	Report  *models.Report
	Project *config.Project
	Graph   *dependency.Result // nil unless the dependency analyzer ran
}

// Generator handles a complete analysis run
type Generator struct {
	logger  *slog.Logger
	verbose bool
	config  *config.Config
	instr   *utils.Instrumentation
}

// NewGenerator creates a new generator with the given configuration
func NewGenerator(logger *slog.Logger, cfg *config.Config, verbose bool) *Generator {
	return &Generator{
		logger:  logger,
		verbose: verbose,
		config:  cfg,
		instr:   utils.NewInstrumentation(logger, verbose),
	}
}

// run holds the analyzers and accumulated state of one Run call
type run struct {
	g        *Generator
	project  *config.Project
	sel      Selection
	filter   *source.Filter
	rules    *rules.Rules
	perFile  []UnitAnalyzer
	perTest  []UnitAnalyzer
	docs     *docstring.Analyzer
	deps     *dependency.Analyzer
	collect  *awaitcheck.Collector
	findings []models.Finding
	skipped  []models.SkippedFile
	hashes   []string // "path hash" per file read, sources first, each list in path order
	files    int
}

// fileResult is what one implementation file contributes. Results are stored
// by file index so that the merge order never depends on scheduling.
type fileResult struct {
	findings    []models.Finding
	scores      []models.ToolScore
	imports     *dependency.FileImports
	definitions *awaitcheck.Definitions
	skipped     *models.SkippedFile
	hash        string
}

// Run analyses the project under opts.Root. A missing root fails with a
// *config.MissingRootError before any file is read. When ctx ends early the
// returned report carries no findings, its status is incomplete, and the
// error wraps ErrIncompleteRun.
func (g *Generator) Run(ctx context.Context, opts Options) (*Result, error) {
	sel, err := SelectAnalyzers(opts.Analyzers)
	if err != nil {
		return nil, err
	}
	project, err := config.NewProject(g.config, opts.Root)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("project resolved", "root", project.Root, "source_dir", project.SourceDir, "tests_dir", project.TestsDir, "package", project.PackageName)

	r, err := g.newRun(project, sel)
	if err != nil {
		return nil, err
	}

	tracker := g.instr.NewPhaseTracker("analysis")
	result, err := r.execute(ctx, tracker, opts)
	tracker.Complete(r.files)
	if err != nil {
		if ctx.Err() != nil {
			g.logger.Warn("analysis run did not finish", "error", ctx.Err())
			return &Result{Report: r.incompleteReport(), Project: project}, fmt.Errorf("%w: %w", ErrIncompleteRun, ctx.Err())
		}
		return nil, err
	}
	return result, nil
}

func (g *Generator) newRun(project *config.Project, sel Selection) (*run, error) {
	filter, err := source.NewFilter(project.Files)
	if err != nil {
		return nil, fmt.Errorf("failed to compile file filters: %w", err)
	}
	cfg := project.Config
	r := &run{g: g, project: project, sel: sel, filter: filter, rules: rules.NewRules(cfg)}

	if sel[AnalyzerComplexity] {
		r.add(complexity.NewAnalyzer(g.logger, cfg))
	}
	if sel[AnalyzerLength] {
		r.add(length.NewAnalyzer(g.logger, cfg, r.rules))
	}
	if sel[AnalyzerPerformance] {
		r.add(performance.NewAnalyzer(g.logger, cfg, r.rules))
	}
	if sel[AnalyzerDataModel] {
		r.add(datamodel.NewAnalyzer(g.logger, cfg, r.rules))
	}
	if sel[AnalyzerNaming] {
		r.add(naming.NewAnalyzer(g.logger, cfg))
	}
	if sel[AnalyzerDocstring] {
		docs, err := docstring.NewAnalyzer(g.logger, cfg, project.SourceDir, project.Root)
		if err != nil {
			return nil, fmt.Errorf("failed to create docstring analyzer: %w", err)
		}
		r.docs = docs
	}
	if sel[AnalyzerDependencies] {
		r.deps = dependency.NewAnalyzer(g.logger, project, r.rules)
	}
	if sel[AnalyzerAsync] {
		r.collect = awaitcheck.NewCollector(g.logger, r.rules)
	}
	return r, nil
}

// add routes a per-file analyzer to the source pass, the test pass, or both.
func (r *run) add(a UnitAnalyzer) {
	switch a.Selection() {
	case source.SourceFiles:
		r.perFile = append(r.perFile, a)
	case source.TestFiles:
		r.perTest = append(r.perTest, a)
	default:
		r.perFile = append(r.perFile, a)
		r.perTest = append(r.perTest, a)
	}
}

func (r *run) needsSources() bool {
	return len(r.perFile) > 0 || r.docs != nil || r.deps != nil || r.collect != nil
}

func (r *run) needsTests() bool {
	return len(r.perTest) > 0 || r.collect != nil
}

func (r *run) execute(ctx context.Context, tracker *utils.PhaseTracker, opts Options) (*Result, error) {
	tracker.StartPhase("discover")
	var sources, tests []string
	var err error
	if r.needsSources() {
		if sources, err = r.filter.Discover(r.project.SourceDir, source.SourceFiles); err != nil {
			return nil, err
		}
	}
	if r.needsTests() && r.project.TestsDir != "" {
		if tests, err = r.filter.Discover(r.project.TestsDir, source.TestFiles); err != nil {
			return nil, err
		}
	}
	r.g.logger.Debug("files discovered", "sources", len(sources), "tests", len(tests))

	tracker.StartPhase("parse+analyze")
	results, err := r.analyzeSources(ctx, sources)
	if err != nil {
		return nil, err
	}

	var scores []models.ToolScore
	var imports []dependency.FileImports
	var definitions []awaitcheck.Definitions
	for _, res := range results {
		r.findings = append(r.findings, res.findings...)
		scores = append(scores, res.scores...)
		r.record(res)
		if res.imports != nil {
			imports = append(imports, *res.imports)
		}
		if res.definitions != nil {
			definitions = append(definitions, *res.definitions)
		}
	}

	// The scan phase needs the complete name set, so the collect phase closes here.
	tracker.StartPhase("collect")
	if r.collect != nil {
		names := r.collect.Merge(definitions)
		r.g.logger.Debug("coroutine names collected", "count", names.Len())
		r.add(awaitcheck.NewScanner(r.g.logger, r.rules, names))
	}

	tracker.StartPhase("scan")
	if err := r.analyzeTests(ctx, tests, r.perTest); err != nil {
		return nil, err
	}

	result := &Result{Project: r.project}
	var depReport *models.DependencyReport
	if r.deps != nil {
		tracker.StartPhase("graph")
		result.Graph = r.deps.Analyze(imports)
		r.findings = append(r.findings, result.Graph.Findings...)
		depReport = result.Graph.Report
	}

	var docSummary *models.DocstringSummary
	if r.docs != nil {
		r.findings = append(r.findings, r.docs.Findings(scores)...)
		docSummary = r.docs.Summarize(scores)
	}

	var gaps []models.CoverageGap
	if r.sel[AnalyzerCoverage] {
		tracker.StartPhase("coverage")
		if gaps, err = r.coverageGaps(opts.Coverage); err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tracker.StartPhase("aggregate")
	result.Report = output.NewAggregator(r.g.logger, r.project.Config).Aggregate(output.Input{
		CreationInfo: r.creationInfo(),
		Project:      r.projectInfo(),
		Status:       models.StatusComplete,
		Findings:     r.findings,
		Dependencies: depReport,
		Docstrings:   docSummary,
		CoverageGaps: gaps,
		Skipped:      r.skipped,
	})
	return result, nil
}

func (r *run) workers() int {
	if n := r.project.Run.Workers; n > 0 {
		return n
	}
	return runtime.GOMAXPROCS(0)
}

// analyzeSources loads each implementation file once and hands it to every
// per-file analyzer and every phase-one contributor.
func (r *run) analyzeSources(ctx context.Context, paths []string) ([]fileResult, error) {
	results := make([]fileResult, len(paths))
	progress := r.g.instr.NewProgressTracker("sources", len(paths))
	defer progress.Complete()

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(r.workers())
	for i, abs := range paths {
		group.Go(func() error {
			defer progress.Update(1)
			res, err := r.analyzeSource(gctx, abs)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	r.files += len(paths)
	return results, nil
}

func (r *run) analyzeSource(ctx context.Context, abs string) (fileResult, error) {
	unit, skipped, err := r.load(ctx, abs)
	if err != nil || skipped != nil {
		return fileResult{skipped: skipped}, err
	}
	defer unit.Close()

	res := fileResult{hash: unit.Path + " " + unit.Hash}
	for _, a := range r.perFile {
		findings, err := a.AnalyzeUnit(ctx, unit)
		if err != nil {
			return res, fmt.Errorf("%s analyzer failed on %s: %w", a.Name(), unit.Path, err)
		}
		res.findings = append(res.findings, findings...)
	}
	if r.docs != nil {
		scores, err := r.docs.ScoreUnit(ctx, unit)
		if err != nil {
			return res, fmt.Errorf("docstring analyzer failed on %s: %w", unit.Path, err)
		}
		res.scores = scores
	}
	if r.deps != nil {
		imports := r.deps.Scan(unit)
		res.imports = &imports
	}
	if r.collect != nil {
		defs := r.collect.Definitions(unit)
		res.definitions = &defs
	}
	return res, nil
}

func (r *run) analyzeTests(ctx context.Context, paths []string, analyzers []UnitAnalyzer) error {
	if len(analyzers) == 0 || len(paths) == 0 {
		return nil
	}
	results := make([]fileResult, len(paths))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(r.workers())
	for i, abs := range paths {
		group.Go(func() error {
			unit, skipped, err := r.load(gctx, abs)
			if err != nil || skipped != nil {
				results[i].skipped = skipped
				return err
			}
			defer unit.Close()
			results[i].hash = unit.Path + " " + unit.Hash
			for _, a := range analyzers {
				findings, err := a.AnalyzeUnit(gctx, unit)
				if err != nil {
					return fmt.Errorf("%s analyzer failed on %s: %w", a.Name(), unit.Path, err)
				}
				results[i].findings = append(results[i].findings, findings...)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}
	for _, res := range results {
		r.findings = append(r.findings, res.findings...)
		r.record(res)
	}
	r.files += len(paths)
	return nil
}

// record keeps the skip entry and content hash of one file.
func (r *run) record(res fileResult) {
	if res.skipped != nil {
		r.skipped = append(r.skipped, *res.skipped)
		if res.skipped.Hash != "" {
			r.hashes = append(r.hashes, res.skipped.Path+" "+res.skipped.Hash)
		}
	}
	if res.hash != "" {
		r.hashes = append(r.hashes, res.hash)
	}
}

// load reads one file. Unreadable or unparsable files come back as skipped;
// only context errors are returned.
func (r *run) load(ctx context.Context, abs string) (*source.Unit, *models.SkippedFile, error) {
	rel := r.project.Rel(abs)
	unit, err := source.Load(ctx, abs, rel)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		r.g.logger.Warn("skipping unreadable file", "file", rel, "error", err)
		return nil, &models.SkippedFile{Path: utils.NormalizePath(rel), Reason: err.Error()}, nil
	}
	if unit.ParseErr != nil {
		r.g.logger.Warn("skipping unparsable file", "file", unit.Path, "error", unit.ParseErr)
		unit.Close()
		return nil, &models.SkippedFile{Path: unit.Path, Reason: unit.ParseErr.Error(), Hash: unit.Hash}, nil
	}
	return unit, nil, nil
}

// coverageGaps ranks the configured coverage report. A missing report only
// fails the run when coverage was the sole analyzer requested.
func (r *run) coverageGaps(opts coverage.Options) ([]models.CoverageGap, error) {
	report := r.project.Coverage.Report
	if !filepath.IsAbs(report) {
		report = filepath.Join(r.project.Root, report)
	}
	if opts.Top <= 0 {
		opts.Top = r.project.Coverage.Top
	}
	gaps, err := coverage.NewRanker(r.g.logger).RankFile(report, opts)
	if errors.Is(err, coverage.ErrNoReport) && len(r.sel) > 1 {
		r.g.logger.Debug("no coverage report, skipping coverage gaps", "report", report)
		return nil, nil
	}
	return gaps, err
}

func (r *run) creationInfo() models.CreationInfo {
	return models.CreationInfo{
		ToolName:    version.ToolName,
		ToolVersion: version.GetVersionWithCommit(),
		Analyzers:   r.sel.Names(),
	}
}

func (r *run) projectInfo() models.ProjectInfo {
	info := models.ProjectInfo{
		Root:        utils.NormalizePath(r.project.Root),
		SourceDir:   r.project.Rel(r.project.SourceDir),
		PackageName: r.project.PackageName,
		Files:       r.files,
	}
	if r.project.TestsDir != "" {
		info.TestsDir = r.project.Rel(r.project.TestsDir)
	}
	if len(r.hashes) > 0 {
		h := xxh3.New()
		for _, entry := range r.hashes {
			h.WriteString(entry)
			h.WriteString("\n")
		}
		info.Fingerprint = fmt.Sprintf("%016x", h.Sum64())
	}
	return info
}

// incompleteReport is the report of a run that ended early. It carries no
// findings so that a truncated result is never mistaken for a clean one.
func (r *run) incompleteReport() *models.Report {
	info := r.projectInfo()
	info.Fingerprint = ""
	return &models.Report{
		CreationInfo: r.creationInfo(),
		Project:      info,
		Status:       models.StatusIncomplete,
		Findings:     []models.Finding{},
	}
}
