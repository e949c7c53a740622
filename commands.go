package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smith-xyz/pyhealth/pkg/analysis/coverage"
	"github.com/smith-xyz/pyhealth/pkg/config"
	"github.com/smith-xyz/pyhealth/pkg/generator"
	"github.com/smith-xyz/pyhealth/pkg/graphstore"
	"github.com/smith-xyz/pyhealth/pkg/output"
	"github.com/smith-xyz/pyhealth/pkg/utils"
	"github.com/smith-xyz/pyhealth/pkg/version"
)

// options holds the flags shared by every analysis command
type options struct {
	configPath string
	format     string
	output     string
	timeout    time.Duration
	verbose    bool
	analyzers  []string

	coverage coverage.Options

	neo4jURI  string
	neo4jUser string
	neo4jPass string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "pyhealth [project-root]",
		Short: "Static code-health checks for Python projects",
		Long: `pyhealth reads Python source without running it and reports cyclomatic
complexity, nesting depth, function and file length, performance smells in
loops, test naming, data-model placement, unawaited coroutines in tests,
tool docstring quality and circular dependencies between package layers.

Exit status is 0 when nothing was found, 1 when findings or cycles were
reported, 2 when the run could not start and 3 when it timed out.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(cmd, opts, args, opts.analyzers)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "configuration file (TOML or YAML); defaults to pyhealth.toml in the project root")
	flags.StringVarP(&opts.format, "format", "f", string(output.FormatJSON), "output format: "+formatNames())
	flags.StringVarP(&opts.output, "output", "o", "", "write the report to this file instead of stdout")
	flags.DurationVar(&opts.timeout, "timeout", 0, "abort the run after this long (0 disables)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose logging on stderr")
	root.Flags().StringSliceVar(&opts.analyzers, "analyzers", nil, "comma-separated analyzers to run (default all)")

	commands := []struct {
		name  string
		short string
	}{
		{generator.AnalyzerComplexity, "Report functions over the complexity or nesting limits"},
		{generator.AnalyzerLength, "Report functions and files over the logical line limits"},
		{generator.AnalyzerPerformance, "Report nested loops and expensive calls inside loops"},
		{generator.AnalyzerNaming, "Report test functions missing the name delimiter"},
		{generator.AnalyzerDataModel, "Report unvalidated records and models outside models.py"},
		{generator.AnalyzerAsync, "Report coroutine calls in tests that are never awaited"},
		{generator.AnalyzerDocstring, "Score tool docstrings against the rubric"},
	}
	for _, c := range commands {
		root.AddCommand(newAnalyzerCmd(opts, c.name, c.short))
	}
	root.AddCommand(newDepsCmd(opts), newCoverageCmd(opts), newAllCmd(opts), newVersionCmd())
	return root
}

func newAnalyzerCmd(opts *options, name, short string) *cobra.Command {
	return &cobra.Command{
		Use:   name + " [project-root]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(cmd, opts, args, []string{name})
		},
	}
}

func newAllCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "all [project-root]",
		Short: "Run every analyzer",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(cmd, opts, args, generator.AllAnalyzers)
		},
	}
}

func newDepsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps [project-root]",
		Short: "Build the layer import graph and report circular dependencies",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(cmd, opts, args, []string{generator.AnalyzerDependencies})
		},
	}
	cmd.Flags().StringVar(&opts.neo4jURI, "neo4j-uri", "", "also export the layer graph to this Neo4j bolt URI")
	cmd.Flags().StringVar(&opts.neo4jUser, "neo4j-user", "neo4j", "Neo4j username")
	cmd.Flags().StringVar(&opts.neo4jPass, "neo4j-pass", "", "Neo4j password (defaults to $NEO4J_PASSWORD)")
	return cmd
}

func newCoverageCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coverage [project-root]",
		Short: "Rank files by uncovered lines from a coverage.py JSON report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(cmd, opts, args, []string{generator.AnalyzerCoverage})
		},
	}
	cmd.Flags().IntVarP(&opts.coverage.Top, "top", "n", 0, "number of files to show (default from config)")
	cmd.Flags().StringVarP(&opts.coverage.Directory, "directory", "d", "", "only files whose path contains this substring")
	cmd.Flags().StringVarP(&opts.coverage.Module, "module", "m", "", "only files whose path contains this module name")
	return cmd
}

func newVersionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			if short {
				fmt.Fprintln(cmd.OutOrStdout(), version.GetVersionWithCommit())
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), version.GetFullVersionString())
			switch {
			case !version.IsValid():
				fmt.Fprintln(cmd.OutOrStdout(), "Release: development build")
			case !version.IsProduction():
				fmt.Fprintln(cmd.OutOrStdout(), "Release: pre-release")
			}
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "print only the version and commit")
	return cmd
}

func runAnalysis(cmd *cobra.Command, opts *options, args []string, analyzers []string) error {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	format, err := output.ParseFormat(opts.format)
	if err != nil {
		return &exitError{code: exitRunError, err: err}
	}
	cfg, err := config.Load(opts.configPath, root)
	if err != nil {
		return &exitError{code: exitRunError, err: err}
	}

	logger := utils.NewLoggerTo(cmd.ErrOrStderr(), opts.verbose)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	result, runErr := generator.NewGenerator(logger, cfg, opts.verbose).Run(ctx, generator.Options{
		Root:      root,
		Analyzers: analyzers,
		Coverage:  opts.coverage,
	})
	if runErr != nil && !errors.Is(runErr, generator.ErrIncompleteRun) {
		return &exitError{code: exitRunError, err: runErr}
	}

	if err := writeReport(cmd.OutOrStdout(), opts, result, format); err != nil {
		return &exitError{code: exitRunError, err: err}
	}
	if runErr != nil {
		return &exitError{code: exitIncomplete, err: runErr}
	}

	if opts.neo4jURI != "" && result.Graph != nil {
		if err := exportGraph(ctx, opts, result); err != nil {
			return &exitError{code: exitRunError, err: err}
		}
	}

	if output.HasViolations(result.Report) {
		return &exitError{code: exitViolations}
	}
	return nil
}

func writeReport(stdout io.Writer, opts *options, result *generator.Result, format output.Format) error {
	if opts.output == "" {
		return output.Write(stdout, result.Report, format)
	}
	file, err := utils.SafeCreateFile(opts.output)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", opts.output, err)
	}
	defer file.Close()
	if err := output.Write(file, result.Report, format); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", opts.output, err)
	}
	utils.NewVerboseLogger(opts.verbose).Logf("Report written to: %s\n", opts.output)
	return nil
}

func exportGraph(ctx context.Context, opts *options, result *generator.Result) error {
	password := opts.neo4jPass
	if password == "" {
		password = os.Getenv("NEO4J_PASSWORD")
	}
	logger := utils.NewLogger(opts.verbose)
	exporter, err := graphstore.Connect(ctx, logger, opts.neo4jURI, opts.neo4jUser, password)
	if err != nil {
		return err
	}
	defer exporter.Close(ctx)

	project := result.Project.PackageName
	if project == "" {
		project = result.Project.Root
	}
	return utils.NewInstrumentation(logger, opts.verbose).TimedOperation("neo4j export", func() error {
		return exporter.Export(ctx, project, result.Graph)
	})
}

func formatNames() string {
	names := make([]string, len(output.Formats))
	for i, f := range output.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
