package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/metrics"
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/reporter"
)

var (
	gateCoverage string
	gateFindings string
	gateTemplate string
	gateFormat   string
)

// gateCmd validates a coverage submission on its own
var gateCmd = &cobra.Command{
	Use:   "gate [path]...",
	Short: "Validate a coverage submission against the checklist",
	Long: `Check that the coverage submission is complete before any report is
produced. Every error is listed in one pass: missing, duplicate, or unknown
checklist items, rows without evidence or notes, FAIL rows without finding
ids or with ids that do not resolve, and tools missing from the execution log.

Findings come from scan paths or from --findings.

Exit codes:
  0  Gate passed
  1  Gate failed
  2  Invalid input

Example:
  a11yhub gate --findings findings.json --coverage coverage.yaml
  a11yhub gate ./scans --coverage coverage.json --format json`,
	RunE: runGateCmd,
}

func init() {
	gateCmd.Flags().StringVarP(&gateCoverage, "coverage", "c", "",
		"coverage submission (JSON or YAML)")
	gateCmd.Flags().StringVar(&gateFindings, "findings", "",
		"finding set written by 'a11yhub findings'")
	gateCmd.Flags().StringVarP(&gateTemplate, "template", "t", "",
		"checklist template (default from config, else built in)")
	gateCmd.Flags().StringVarP(&gateFormat, "format", "f", "text",
		"output format: text or json")
}

func runGateCmd(cmd *cobra.Command, args []string) error {
	if gateFormat != "text" && gateFormat != "json" {
		return &ValidationError{Message: fmt.Sprintf("unsupported format: %s (use text or json)", gateFormat)}
	}

	pcfg := pipelineFromConfig(cfg)
	pcfg.ScanPaths = args
	pcfg.FindingsFile = gateFindings
	pcfg = pcfg.withDefaults()
	if gateTemplate != "" {
		pcfg.TemplateFile = gateTemplate
	}

	input, err := loadFindings(pcfg)
	if err != nil {
		logError("Failed to load findings: %v", err)
		return err
	}

	result, err := runGate(pcfg.TemplateFile, gateCoverage, input.Findings)
	if err != nil {
		logError("Failed to run coverage gate: %v", err)
		return err
	}

	if cfg.MetricsFile != "" {
		recorder := metrics.NewRecorder()
		recorder.ObserveGate(result)
		writeMetrics(recorder, cfg.MetricsFile)
	}

	if err := writeGateResult(cmd, result); err != nil {
		return err
	}

	if !result.GatePassed {
		return &GateFailedError{ErrorCount: len(result.Errors)}
	}
	return nil
}

func writeGateResult(cmd *cobra.Command, result *models.CoverageGateResult) error {
	if gateFormat == "json" {
		return reporter.NewJSONReporter(cmd.OutOrStdout(), true).GenerateGate(result)
	}
	return reporter.NewTextReporter(cmd.OutOrStdout()).GenerateGate(result)
}
