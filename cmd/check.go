package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/saltyorg/ftd/internal/ast"
	"github.com/saltyorg/ftd/internal/config"
	"github.com/saltyorg/ftd/internal/executor"
	"github.com/saltyorg/ftd/internal/host"
	"github.com/saltyorg/ftd/internal/interpreter"
	"github.com/saltyorg/ftd/internal/page"
	"github.com/saltyorg/ftd/internal/parser"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	checkExecute bool
	checkFormat  string
)

var checkCmd = &cobra.Command{
	Use:   "check [files...]",
	Short: "Check documents for errors",
	Long: `Parse and interpret FTD documents, reporting every error found.

Without arguments, checks every .ftd file under the package root. Imports are
resolved the same way render resolves them.

Use --execute to also execute each document into its element tree.
Use --format yaml for a machine-readable report.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if checkFormat != "text" && checkFormat != "yaml" {
			return fmt.Errorf("unknown format %q: want text or yaml", checkFormat)
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		files := args
		if len(files) == 0 {
			files, err = page.ListSources(cfg.RootPath())
			if err != nil {
				return fmt.Errorf("listing sources: %w", err)
			}
		}

		return runChecks(cmd.Context(), cfg, files)
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkExecute, "execute", true, "also execute each document")
	checkCmd.Flags().StringVar(&checkFormat, "format", "text", "output format: text or yaml")
	rootCmd.AddCommand(checkCmd)
}

// CheckResult holds the outcome of checking a set of documents.
type CheckResult struct {
	Passed []string
	Failed map[string]error
}

// runChecks checks every file and prints a summary.
func runChecks(ctx context.Context, cfg *config.Config, files []string) error {
	result := &CheckResult{Failed: make(map[string]error)}
	opts := hostOptions(cfg)

	for _, file := range files {
		if err := checkFile(ctx, cfg, file, opts); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			result.Failed[file] = err
			continue
		}
		result.Passed = append(result.Passed, file)
	}

	if checkFormat == "yaml" {
		if err := writeCheckReport(os.Stdout, newCheckReport(cfg, files, result)); err != nil {
			return err
		}
	} else {
		printCheckResults(cfg, files, result)
	}

	if len(result.Failed) > 0 {
		return fmt.Errorf("found %d invalid document(s)", len(result.Failed))
	}
	return nil
}

func checkFile(ctx context.Context, cfg *config.Config, file string, opts host.Options) error {
	doc, err := host.Interpret(ctx, cfg, file, opts)
	if err != nil {
		return err
	}
	if !checkExecute {
		return nil
	}
	_, err = host.Execute(ctx, doc, opts)
	return err
}

// printCheckResults prints the check results in the order files were given.
func printCheckResults(cfg *config.Config, files []string, result *CheckResult) {
	for _, file := range files {
		name := relativeTo(cfg.RootPath(), file)
		if err, failed := result.Failed[file]; failed {
			fmt.Printf("❌ %s: %v\n", name, err)
			continue
		}
		if IsVerbose() {
			fmt.Printf("✅ %s\n", name)
		}
	}

	fmt.Printf("\nCheck complete: %d valid, %d invalid\n", len(result.Passed), len(result.Failed))
}

func relativeTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}

// CheckReport is the YAML form of a CheckResult.
type CheckReport struct {
	Valid   int            `yaml:"valid"`
	Invalid int            `yaml:"invalid"`
	Passed  []string       `yaml:"passed,omitempty"`
	Errors  []CheckFailure `yaml:"errors,omitempty"`
}

// CheckFailure is one invalid document of a CheckReport.
type CheckFailure struct {
	File  string `yaml:"file"`
	Line  int    `yaml:"line,omitempty"`
	Error string `yaml:"error"`
}

// newCheckReport lists files relative to the package root, failures
// sorted by file.
func newCheckReport(cfg *config.Config, files []string, result *CheckResult) CheckReport {
	report := CheckReport{Valid: len(result.Passed), Invalid: len(result.Failed)}
	for _, file := range files {
		if _, failed := result.Failed[file]; !failed {
			report.Passed = append(report.Passed, relativeTo(cfg.RootPath(), file))
		}
	}
	for file, err := range result.Failed {
		report.Errors = append(report.Errors, CheckFailure{
			File:  relativeTo(cfg.RootPath(), file),
			Line:  errorLine(err),
			Error: err.Error(),
		})
	}
	sort.Slice(report.Errors, func(i, j int) bool { return report.Errors[i].File < report.Errors[j].File })
	return report
}

func writeCheckReport(w io.Writer, report CheckReport) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encoding check report: %w", err)
	}
	return enc.Close()
}

// errorLine is the source line an error points at, or 0.
func errorLine(err error) int {
	var perr *parser.Error
	var aerr *ast.Error
	var ierr *interpreter.Error
	var eerr *executor.Error
	switch {
	case errors.As(err, &ierr):
		return ierr.LineNumber
	case errors.As(err, &eerr):
		return eerr.LineNumber
	case errors.As(err, &aerr):
		return aerr.LineNumber
	case errors.As(err, &perr):
		return perr.LineNumber
	}
	return 0
}
