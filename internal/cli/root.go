package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/config"
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/logging"
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/reporter"
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/validator"
)

const (
	ExitOK           = 0 // Success
	ExitGateFail     = 1 // Coverage gate, policy, or --fail-new failed
	ExitInvalidInput = 2 // Scan, template, or submission could not be parsed
	ExitRuntimeError = 3 // I/O, permissions, or runtime error
)

// Version is reported by 'a11yhub version' and in SARIF exports
var Version = "0.3.0"

// SetVersion replaces Version with a build-time value, if one was set
func SetVersion(v string) {
	if v != "" {
		Version = v
	}
}

var (
	// Global config instance
	cfg *config.Config

	// Global flags
	configFile string
	verbose    bool
	debug      bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "a11yhub",
	Short: "a11yhub - accessibility audit findings and coverage gate",
	Long: `a11yhub turns accessibility scanner output (axe-core style JSON) into a
canonical, deduplicated finding set and enforces a coverage gate over the
audit checklist before any report is produced.

It provides:
- One finding per rule and selector pattern, merged across pages
- Stable finding ids and a 0-100 priority score
- A completeness gate over the checklist and tool execution log
- Text, JSON, and Markdown reports, stored runs, and re-audit diffs

Quick start:
  a11yhub template > checklist.yaml
  a11yhub findings ./scans -o findings.json
  a11yhub gate --findings findings.json --coverage coverage.yaml
  a11yhub audit ./scans --coverage coverage.yaml --format markdown

Other commands:
  a11yhub diff --fail-new
  a11yhub export --format sarif
  a11yhub summarize
  a11yhub watch ./scans --coverage coverage.yaml`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return &ValidationError{Message: fmt.Sprintf("failed to load config: %v", err)}
		}

		if verbose {
			cfg.Verbose = true
		}
		if debug {
			cfg.Debug = true
		}

		if err := logging.Init(cfg.Verbose, cfg.Debug); err != nil {
			return fmt.Errorf("failed to initialise logging: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

// Execute runs the root command and exits with the mapped exit code
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(HandleError(err))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default: ./a11yhub.yaml or ~/.a11yhub.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"debug mode (very verbose)")

	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(findingsCmd)
	rootCmd.AddCommand(gateCmd)
	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(explainScoreCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// versionCmd shows version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "a11yhub v%s\n", Version)
		fmt.Fprintln(cmd.OutOrStdout(), "Accessibility findings aggregator and coverage gate")
	},
}

// HandleError determines the appropriate exit code for an error
func HandleError(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		gateErr    *GateFailedError
		policyErr  *PolicyError
		validErr   *ValidationError
		submitErr  *validator.ValidationError
		newFindErr *NewFindingsError
	)
	switch {
	case errors.As(err, &gateErr), errors.As(err, &submitErr):
		return ExitGateFail
	case errors.Is(err, reporter.ErrGateNotPassed):
		return ExitGateFail
	case errors.As(err, &policyErr), errors.As(err, &newFindErr):
		return ExitGateFail
	case errors.As(err, &validErr):
		return ExitInvalidInput
	default:
		return ExitRuntimeError
	}
}

// ValidationError represents input that could not be parsed or accepted
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// GateFailedError is returned when the coverage gate rejects a submission
type GateFailedError struct {
	ErrorCount int
}

func (e *GateFailedError) Error() string {
	return fmt.Sprintf("coverage gate failed with %d error(s)", e.ErrorCount)
}

// PolicyError represents policy rule violations on a gate-passed run
type PolicyError struct {
	Violations []string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("policy check failed: %s", strings.Join(e.Violations, "; "))
}

// NewFindingsError is returned by diff --fail-new
type NewFindingsError struct {
	Count int
}

func (e *NewFindingsError) Error() string {
	return fmt.Sprintf("%d new finding(s) since baseline", e.Count)
}

// logVerbose prints a message at info level
func logVerbose(format string, args ...interface{}) {
	logging.Logger.Infof(format, args...)
}

// logDebug prints a message at debug level
func logDebug(format string, args ...interface{}) {
	logging.Logger.Debugf(format, args...)
}

// logError prints an error message
func logError(format string, args ...interface{}) {
	logging.Logger.Errorf(format, args...)
}
