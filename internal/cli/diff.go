package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/aggregator"
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
)

var (
	diffFormat   string
	diffOutput   string
	diffBaseline string
	diffCurrent  string
	diffFailNew  bool
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show what changed between two audit runs",
	Long: `Compare an audit run against a baseline to plan the retest.

Findings are matched on their fingerprint (rule id plus selector pattern),
so ids renumbered between runs still line up. Each finding is reported as
new, resolved, or remaining.

By default compares the two most recent stored runs. --baseline and
--current accept a stored run id (or unique prefix) or a report file.

Exit codes:
  0  No new findings (or --fail-new not set)
  1  New findings detected (with --fail-new)

Example:
  a11yhub diff
  a11yhub diff --fail-new
  a11yhub diff --baseline 0192f3 --format json`,
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().StringVarP(&diffFormat, "format", "f", "text",
		"output format: text or json")
	diffCmd.Flags().StringVarP(&diffOutput, "output", "o", "",
		"write output to file instead of stdout")
	diffCmd.Flags().StringVar(&diffBaseline, "baseline", "",
		"baseline run id or report file (default: previous stored run)")
	diffCmd.Flags().StringVar(&diffCurrent, "current", "",
		"current run id or report file (default: latest stored run)")
	diffCmd.Flags().BoolVar(&diffFailNew, "fail-new", false,
		"exit 1 if new findings are found (for CI gating)")
}

// DiffResult is the structured output of a diff operation.
type DiffResult struct {
	Baseline  string           `json:"baseline"`
	Current   string           `json:"current"`
	New       []models.Finding `json:"new_findings"`
	Resolved  []models.Finding `json:"resolved_findings"`
	Remaining []models.Finding `json:"remaining_findings"`
	Summary   DiffSummary      `json:"summary"`
}

// DiffSummary holds aggregate counts for a diff.
type DiffSummary struct {
	BaselineTotal  int                     `json:"baseline_total"`
	CurrentTotal   int                     `json:"current_total"`
	NewCount       int                     `json:"new_count"`
	ResolvedCount  int                     `json:"resolved_count"`
	RemainingCount int                     `json:"remaining_count"`
	Delta          int                     `json:"delta"` // positive = more findings
	NewBySeverity  map[models.Severity]int `json:"new_by_severity"`
}

func runDiff(cmd *cobra.Command, args []string) error {
	if diffFormat != "text" && diffFormat != "json" {
		return &ValidationError{Message: fmt.Sprintf("unsupported format: %s (use text or json)", diffFormat)}
	}

	store, err := openStore(cfg.StorageDir)
	if err != nil {
		logError("Failed to get storage path: %v", err)
		return err
	}

	var baseline, current *models.AuditReport

	if diffCurrent != "" {
		if current, err = loadAuditReport(store, diffCurrent); err != nil {
			logError("Failed to load current run: %v", err)
			return err
		}
	}
	if diffBaseline != "" {
		if baseline, err = loadAuditReport(store, diffBaseline); err != nil {
			logError("Failed to load baseline: %v", err)
			return err
		}
	}

	if current == nil || baseline == nil {
		reports, err := store.GetLastNRuns(2)
		if err != nil {
			logDebug("Failed to load stored runs: %v", err)
		}
		switch {
		case current == nil && baseline == nil && len(reports) >= 2:
			baseline, current = reports[0], reports[1]
		case current == nil && len(reports) >= 1:
			current = reports[len(reports)-1]
		case baseline == nil && len(reports) >= 2:
			baseline = reports[len(reports)-2]
		}
	}

	if current == nil || baseline == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Need at least 2 stored runs for diff.")
		fmt.Fprintln(cmd.OutOrStdout(), "Run 'a11yhub audit' again after fixes, or pass --baseline.")
		return nil
	}

	logVerbose("Comparing %s (current) vs %s (baseline)", current.RunID, baseline.RunID)

	result := computeDiff(baseline, current)

	writer, closeFn, err := openOutput(diffOutput, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeFn()

	if err := outputDiff(writer, result, diffFormat); err != nil {
		return err
	}

	// CI gate
	if diffFailNew && result.Summary.NewCount > 0 {
		return &NewFindingsError{Count: result.Summary.NewCount}
	}
	return nil
}

// computeDiff matches findings by fingerprint between two runs
func computeDiff(baseline, current *models.AuditReport) *DiffResult {
	delta := aggregator.CompareFindings(baseline.Findings, current.Findings)

	newBySeverity := map[models.Severity]int{}
	for _, f := range delta.New {
		newBySeverity[f.Severity]++
	}

	return &DiffResult{
		Baseline:  runLabel(baseline),
		Current:   runLabel(current),
		New:       delta.New,
		Resolved:  delta.Resolved,
		Remaining: delta.Remaining,
		Summary: DiffSummary{
			BaselineTotal:  len(baseline.Findings),
			CurrentTotal:   len(current.Findings),
			NewCount:       len(delta.New),
			ResolvedCount:  len(delta.Resolved),
			RemainingCount: len(delta.Remaining),
			Delta:          len(current.Findings) - len(baseline.Findings),
			NewBySeverity:  newBySeverity,
		},
	}
}

func runLabel(report *models.AuditReport) string {
	ts := report.Timestamp.Format("2006-01-02 15:04:05")
	if report.RunID == "" {
		return ts
	}
	return fmt.Sprintf("%s (%s)", ts, report.RunID)
}

// outputDiff renders the diff result to the chosen format.
func outputDiff(w io.Writer, result *DiffResult, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "text":
		return printDiffText(w, result)
	default:
		return &ValidationError{Message: fmt.Sprintf("unsupported format: %s (use text or json)", format)}
	}
}

func printDiffText(w io.Writer, r *DiffResult) error {
	p := func(format string, args ...interface{}) {
		_, _ = fmt.Fprintf(w, format, args...)
	}

	p("a11yhub Re-audit Diff\n")
	p("==================================================\n\n")

	p("Baseline: %s\n", r.Baseline)
	p("Current:  %s\n\n", r.Current)

	deltaSign := "+"
	if r.Summary.Delta < 0 {
		deltaSign = ""
	}
	p("Findings: %d -> %d (%s%d)\n", r.Summary.BaselineTotal, r.Summary.CurrentTotal, deltaSign, r.Summary.Delta)
	p("New: %d   Resolved: %d   Remaining: %d\n\n", r.Summary.NewCount, r.Summary.ResolvedCount, r.Summary.RemainingCount)

	if len(r.New) > 0 {
		p("New Findings:\n")
		p("--------------------------------------------------\n")
		for _, f := range r.New {
			p("  [%s] %s %s (%s)\n", strings.ToUpper(string(f.Severity)), f.ID, f.Title, strings.Join(f.AffectedRoutes, ", "))
		}
		p("\n")
	}

	if len(r.Resolved) > 0 {
		p("Resolved Findings:\n")
		p("--------------------------------------------------\n")
		for _, f := range r.Resolved {
			p("  + %s %s\n", f.ID, f.Title)
		}
		p("\n")
	}

	if len(r.Remaining) > 0 {
		p("Remaining Findings:\n")
		p("--------------------------------------------------\n")
		for _, f := range r.Remaining {
			p("  - [%s] %s %s\n", strings.ToUpper(string(f.Severity)), f.ID, f.Title)
		}
		p("\n")
	}

	if len(r.Summary.NewBySeverity) > 0 {
		p("New by Severity:\n")
		for _, sev := range models.Severities {
			if n := r.Summary.NewBySeverity[sev]; n > 0 {
				p("  %s: %d\n", strings.ToUpper(string(sev)), n)
			}
		}
		p("\n")
	}

	if r.Summary.NewCount == 0 && r.Summary.ResolvedCount == 0 {
		p("No change since baseline.\n")
	} else if r.Summary.NewCount == 0 {
		p("No new findings, only fixes.\n")
	}

	return nil
}
