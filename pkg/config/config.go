package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Embedded default configuration
//
//go:embed default_config.toml
var embeddedConfigData []byte

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// LocalConfigNames are the override files looked up in a project root.
var LocalConfigNames = []string{"pyhealth.toml", ".pyhealth.toml", "pyhealth.yaml", "pyhealth.yml"}

// Config holds the analysis configuration. It is plain data and is passed
// explicitly to every analyzer constructor.
type Config struct {
	Files        FilesConfig       `toml:"files" yaml:"files"`
	Project      ProjectSettings   `toml:"project" yaml:"project"`
	Thresholds   ThresholdConfig   `toml:"thresholds" yaml:"thresholds"`
	Performance  PerformanceConfig `toml:"performance" yaml:"performance"`
	Naming       NamingConfig      `toml:"naming" yaml:"naming"`
	DataModels   DataModelConfig   `toml:"data_models" yaml:"data_models"`
	AsyncCalls   AsyncCallConfig   `toml:"async_calls" yaml:"async_calls"`
	Docstrings   DocstringConfig   `toml:"docstrings" yaml:"docstrings"`
	Dependencies DependencyConfig  `toml:"dependencies" yaml:"dependencies"`
	Coverage     CoverageConfig    `toml:"coverage" yaml:"coverage"`
	Run          RunConfig         `toml:"run" yaml:"run"`
}

// FilesConfig selects which files are analysed.
type FilesConfig struct {
	Suffixes         []string `toml:"suffixes" yaml:"suffixes"`
	CacheDirMarkers  []string `toml:"cache_dir_markers" yaml:"cache_dir_markers"`
	ExcludeDirs      []string `toml:"exclude_dirs" yaml:"exclude_dirs"`
	TestFilePatterns []string `toml:"test_file_patterns" yaml:"test_file_patterns"`
}

// ProjectSettings overrides project layout detection.
type ProjectSettings struct {
	SourceDir   string `toml:"source_dir" yaml:"source_dir"`
	TestsDir    string `toml:"tests_dir" yaml:"tests_dir"`
	PackageName string `toml:"package_name" yaml:"package_name"`
}

// ThresholdConfig holds the limits findings are measured against.
type ThresholdConfig struct {
	Complexity       int      `toml:"complexity" yaml:"complexity"`
	HighComplexity   int      `toml:"high_complexity" yaml:"high_complexity"`
	Nesting          int      `toml:"nesting" yaml:"nesting"`
	MaxFunctionLines int      `toml:"max_function_lines" yaml:"max_function_lines"`
	MaxFileLines     int      `toml:"max_file_lines" yaml:"max_file_lines"`
	FileSizeExcluded []string `toml:"file_size_excluded" yaml:"file_size_excluded"`
}

// PerformanceConfig holds the call names the performance matcher looks for.
type PerformanceConfig struct {
	NestedLoopDepth int               `toml:"nested_loop_depth" yaml:"nested_loop_depth"`
	BatchMethods    []string          `toml:"batch_methods" yaml:"batch_methods"`
	SplitMethods    []string          `toml:"split_methods" yaml:"split_methods"`
	ExpensiveCalls  map[string]string `toml:"expensive_calls" yaml:"expensive_calls"`
}

// NamingConfig holds the test-name convention.
type NamingConfig struct {
	Prefix    string `toml:"prefix" yaml:"prefix"`
	Delimiter string `toml:"delimiter" yaml:"delimiter"`
}

// DataModelConfig holds the record base classes and the designated models file.
type DataModelConfig struct {
	PlainBases     []string `toml:"plain_bases" yaml:"plain_bases"`
	ValidatedBases []string `toml:"validated_bases" yaml:"validated_bases"`
	ModelsFile     string   `toml:"models_file" yaml:"models_file"`
}

// AsyncCallConfig holds the name sets used by the unawaited-call matcher.
type AsyncCallConfig struct {
	Blocklist            []string `toml:"blocklist" yaml:"blocklist"`
	OrchestrationHelpers []string `toml:"orchestration_helpers" yaml:"orchestration_helpers"`
}

// DocstringConfig holds the rubric markers and the decorator that marks a scored callable.
type DocstringConfig struct {
	DecoratorObject    string   `toml:"decorator_object" yaml:"decorator_object"`
	DecoratorAttribute string   `toml:"decorator_attribute" yaml:"decorator_attribute"`
	MinPurposeWords    int      `toml:"min_purpose_words" yaml:"min_purpose_words"`
	TargetScore        int      `toml:"target_score" yaml:"target_score"`
	TargetWithExamples int      `toml:"target_with_examples" yaml:"target_with_examples"`
	UseWhenMarkers     []string `toml:"use_when_markers" yaml:"use_when_markers"`
	ArgsMarkers        []string `toml:"args_markers" yaml:"args_markers"`
	ReturnsMarkers     []string `toml:"returns_markers" yaml:"returns_markers"`
	ExampleMarkers     []string `toml:"example_markers" yaml:"example_markers"`
	ExamplePattern     string   `toml:"example_pattern" yaml:"example_pattern"`
}

// DependencyConfig holds the layer graph settings.
type DependencyConfig struct {
	SkipLayers []string `toml:"skip_layers" yaml:"skip_layers"`
}

// CoverageConfig locates the coverage.py JSON report used by the coverage gap ranking.
type CoverageConfig struct {
	Report string `toml:"report" yaml:"report"`
	Top    int    `toml:"top" yaml:"top"`
}

// RunConfig controls how a run is scheduled.
type RunConfig struct {
	Workers int `toml:"workers" yaml:"workers"`
}

// DefaultConfig returns the embedded default configuration.
func DefaultConfig() (*Config, error) {
	var config Config
	if err := toml.Unmarshal(embeddedConfigData, &config); err != nil {
		return nil, fmt.Errorf("failed to parse embedded config: %w", err)
	}
	return &config, nil
}

// Load starts from the embedded defaults and applies one override file on top.
// An explicit path must exist. Otherwise the first of LocalConfigNames found in
// projectRoot is used, and no override at all is fine.
func Load(explicitPath, projectRoot string) (*Config, error) {
	config, err := DefaultConfig()
	if err != nil {
		return nil, err
	}

	path := explicitPath
	if path == "" {
		path = findLocalConfig(projectRoot)
	}
	if path != "" {
		if err := decodeInto(path, config); err != nil {
			return nil, err
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func findLocalConfig(projectRoot string) string {
	if projectRoot == "" {
		return ""
	}
	for _, name := range LocalConfigNames {
		candidate := filepath.Join(projectRoot, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

func decodeInto(path string, config *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path) // #nosec G304 - user-selected config file
		if err != nil {
			return fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	default:
		if _, err := toml.DecodeFile(path, config); err != nil {
			return fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}
	return nil
}

// Validate checks the values analyzers rely on.
func (c *Config) Validate() error {
	var problems []string
	t := c.Thresholds
	if t.Complexity < 1 || t.HighComplexity < t.Complexity {
		problems = append(problems, "thresholds.complexity must be >= 1 and <= thresholds.high_complexity")
	}
	if t.Nesting < 1 {
		problems = append(problems, "thresholds.nesting must be >= 1")
	}
	if t.MaxFunctionLines < 1 || t.MaxFileLines < 1 {
		problems = append(problems, "thresholds.max_function_lines and thresholds.max_file_lines must be >= 1")
	}
	if len(c.Files.Suffixes) == 0 {
		problems = append(problems, "files.suffixes must not be empty")
	}
	if _, err := c.Files.DirSkipper(); err != nil {
		problems = append(problems, fmt.Sprintf("files.exclude_dirs: %v", err))
	}
	if c.Performance.NestedLoopDepth < 2 {
		problems = append(problems, "performance.nested_loop_depth must be >= 2")
	}
	for name, sev := range c.Performance.ExpensiveCalls {
		if !validSeverity(sev) {
			problems = append(problems, fmt.Sprintf("performance.expensive_calls.%s has unknown severity %q", name, sev))
		}
	}
	if c.Naming.Prefix == "" || c.Naming.Delimiter == "" {
		problems = append(problems, "naming.prefix and naming.delimiter must be set")
	}
	if c.Docstrings.ExamplePattern != "" {
		if _, err := regexp.Compile(c.Docstrings.ExamplePattern); err != nil {
			problems = append(problems, fmt.Sprintf("docstrings.example_pattern: %v", err))
		}
	}
	if c.Run.Workers < 0 {
		problems = append(problems, "run.workers must be >= 0")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func validSeverity(s string) bool {
	switch s {
	case "high", "medium", "low":
		return true
	}
	return false
}
