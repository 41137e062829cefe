package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/reporter"
)

var (
	findingsFormat string
	findingsOutput string
)

// findingsCmd normalizes scans into a finding set without the gate
var findingsCmd = &cobra.Command{
	Use:   "findings <path>...",
	Short: "Normalize and merge scan results into a finding set",
	Long: `Build the canonical finding set from scanner output.

The finding set is a working artifact, not a deliverable: it is written
even though no coverage submission has been validated yet. Reference its
ids from the FAIL rows of the coverage submission, then run 'a11yhub gate'
or 'a11yhub audit --findings'.

Records that could not be read are listed as diagnostics; the run continues.

Example:
  a11yhub findings ./scans -o findings.json
  a11yhub findings './scans/**/*.json' --format text`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFindings,
}

func init() {
	findingsCmd.Flags().StringVarP(&findingsFormat, "format", "f", "json",
		"output format: json or text")
	findingsCmd.Flags().StringVarP(&findingsOutput, "output", "o", "",
		"output file path (default: stdout)")
}

func runFindings(cmd *cobra.Command, args []string) error {
	if findingsFormat != "json" && findingsFormat != "text" {
		return &ValidationError{Message: fmt.Sprintf("unsupported format: %s (use json or text)", findingsFormat)}
	}

	input, err := collectFindings(args, cfg.IDPrefix, cfg.Workers)
	if err != nil {
		logError("Failed to build findings: %v", err)
		return err
	}

	for _, d := range input.Diagnostics {
		logVerbose("Skipped record %s #%d: %s", d.Source, d.Index, d.Message)
	}

	writer, closeFn, err := openOutput(findingsOutput, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeFn()

	if findingsFormat == "text" {
		return reporter.NewTextReporter(writer).GenerateFindings(input.Findings, input.Diagnostics)
	}
	return reporter.NewJSONReporter(writer, true).GenerateFindings(&models.FindingSet{
		Findings:    input.Findings,
		Diagnostics: input.Diagnostics,
	})
}
