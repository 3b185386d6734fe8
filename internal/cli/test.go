package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/mshdb/internal/errors"
	"github.com/roach88/mshdb/internal/harness"
	"github.com/roach88/mshdb/internal/logger"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update    bool   // regenerate golden files
	Filter    string // scenario filter (glob pattern)
	GoldenDir string // default: <scenarios-dir>/../golden
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run scenario files",
		Long: `Run YAML scenarios against the database operations.

Each scenario builds a database from inline data, applies its steps and
checks its assertions. When a golden file named after the scenario
exists, the rendered final state must match it.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  mshdb test ./testdata/scenarios
  mshdb test ./testdata/scenarios --filter "merge*"
  mshdb test ./testdata/scenarios --update
  mshdb test ./testdata/scenarios --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden", "", "golden file directory")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	s, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return s.commandError(fmt.Sprintf("scenarios directory not found: %s", scenariosDir), err)
	}
	if opts.GoldenDir == "" {
		opts.GoldenDir = filepath.Join(filepath.Dir(filepath.Clean(scenariosDir)), "golden")
	}

	scenarioFiles, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return s.commandError("failed to find scenarios", err)
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(scenarioFiles)),
		Total:     len(scenarioFiles),
	}
	for _, scenarioFile := range scenarioFiles {
		sr := runScenario(s, opts, scenarioFile)
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if err := s.success(result, func() error {
		if result.Total == 0 {
			fmt.Fprintln(s.out.Writer, "No scenarios found.")
			return nil
		}
		fmt.Fprintln(s.out.Writer)
		if result.Failed == 0 {
			s.out.Done("%d/%d scenarios passed", result.Passed, result.Total)
		} else {
			s.out.Warn("%d/%d scenarios passed, %d failed", result.Passed, result.Total, result.Failed)
		}
		return nil
	}); err != nil {
		return err
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// findScenarioFiles finds all YAML scenario files in a directory.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		// Only process .yaml and .yml files
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		// Apply filter if specified
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return errors.Wrap(err, "invalid filter pattern")
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// runScenario executes a single scenario and returns the result.
func runScenario(s *session, opts *TestOptions, scenarioFile string) ScenarioResult {
	name := strings.TrimSuffix(filepath.Base(scenarioFile), filepath.Ext(scenarioFile))
	failed := func(errs ...string) ScenarioResult {
		if !s.out.JSON() {
			fmt.Fprintf(s.out.Writer, "✗ %s\n", name)
			for _, e := range errs {
				fmt.Fprintf(s.out.Writer, "  %s\n", e)
			}
		}
		return ScenarioResult{Name: name, Pass: false, Errors: errs}
	}

	scenario, err := harness.LoadScenario(scenarioFile)
	if err != nil {
		return failed(fmt.Sprintf("failed to load scenario: %v", err))
	}
	name = scenario.Name

	result, err := harness.RunWithLogger(scenario, logger.Named("harness"))
	if err != nil {
		return failed(fmt.Sprintf("execution failed: %v", err))
	}
	rendered := harness.Render(scenario.Name, result)
	goldenPath := filepath.Join(opts.GoldenDir, scenario.Name+".golden")

	if opts.Update {
		if err := os.MkdirAll(opts.GoldenDir, 0o755); err != nil {
			return failed(fmt.Sprintf("failed to create golden directory: %v", err))
		}
		if err := os.WriteFile(goldenPath, []byte(rendered), 0o644); err != nil {
			return failed(fmt.Sprintf("failed to update golden file: %v", err))
		}
	} else if want, err := os.ReadFile(goldenPath); err == nil {
		if string(want) != rendered {
			return failed("golden file mismatch (run with --update to regenerate)")
		}
	} else if !os.IsNotExist(err) {
		return failed(fmt.Sprintf("golden comparison failed: %v", err))
	}

	if !result.Pass {
		return failed(result.Errors...)
	}
	if !s.out.JSON() {
		suffix := ""
		if opts.Update {
			suffix = " (golden updated)"
		}
		fmt.Fprintf(s.out.Writer, "✓ %s%s\n", scenario.Name, suffix)
	}
	return ScenarioResult{Name: scenario.Name, Pass: true}
}
