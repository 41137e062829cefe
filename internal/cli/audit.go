package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

var (
	// Audit command flags
	auditFormat      string
	auditOutput      string
	auditCoverage    string
	auditFindings    string
	auditTemplate    string
	auditStore       bool
	auditStorageDir  string
	auditMetricsFile string
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit [path]...",
	Short: "Normalize scan results, enforce the coverage gate, and render the report",
	Long: `Run the full audit pipeline over scanner output.

The command will:
1. Read scan result JSON files (files, directories, or ** globs)
2. Normalize violations into one finding per rule and page
3. Merge findings that share a rule and selector pattern across pages
4. Validate the coverage submission against the checklist template
5. Refuse to render anything while the coverage gate fails
6. Store the run, compute the trend, and render the report
7. Enforce .a11yhub-policy.yaml when one is found

Exit codes:
  0  Gate passed and policy satisfied
  1  Coverage gate or policy failed
  2  Invalid scan, template, or submission input
  3  Runtime error

Example:
  a11yhub audit ./scans --coverage coverage.yaml
  a11yhub audit './scans/**/*.json' --coverage coverage.yaml --format markdown -o report.md
  a11yhub audit --findings findings.json --coverage coverage.yaml --format json`,
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().StringVarP(&auditFormat, "format", "f", "",
		"output format: text, json, or markdown (default from config)")
	auditCmd.Flags().StringVarP(&auditOutput, "output", "o", "",
		"output file path (default: stdout)")
	auditCmd.Flags().StringVarP(&auditCoverage, "coverage", "c", "",
		"coverage submission (JSON or YAML)")
	auditCmd.Flags().StringVar(&auditFindings, "findings", "",
		"use a finding set written by 'a11yhub findings' instead of scan paths")
	auditCmd.Flags().StringVarP(&auditTemplate, "template", "t", "",
		"checklist template (default from config, else built in)")
	auditCmd.Flags().BoolVar(&auditStore, "store", true,
		"store the run for trends and diffs")
	auditCmd.Flags().StringVar(&auditStorageDir, "storage-dir", "",
		"storage directory (default from config)")
	auditCmd.Flags().StringVar(&auditMetricsFile, "metrics-file", "",
		"write Prometheus textfile metrics (default from config)")
}

func runAudit(cmd *cobra.Command, args []string) error {
	pcfg := pipelineFromConfig(cfg)
	pcfg.ScanPaths = args
	pcfg.FindingsFile = auditFindings
	pcfg.SubmissionFile = auditCoverage
	pcfg.Output = auditOutput
	pcfg.Store = auditStore
	pcfg.Stdout = cmd.OutOrStdout()
	pcfg.Stderr = cmd.ErrOrStderr()

	// Flags win over config
	if auditFormat != "" {
		pcfg.Format = auditFormat
	}
	if auditTemplate != "" {
		pcfg.TemplateFile = auditTemplate
	}
	if auditStorageDir != "" {
		pcfg.StorageDir = auditStorageDir
	}
	if auditMetricsFile != "" {
		pcfg.MetricsFile = auditMetricsFile
	}

	if len(args) > 0 {
		logVerbose("Auditing scan results from: %s", strings.Join(args, ", "))
	}
	logDebug("Config: format=%s, store=%v, template=%q", pcfg.Format, pcfg.Store, pcfg.TemplateFile)

	_, err := RunPipeline(pcfg)
	return err
}
