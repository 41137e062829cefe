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
	explainFormat   string
	explainRun      string
	explainFindings string
)

var explainScoreCmd = &cobra.Command{
	Use:   "explain-score [finding-id]...",
	Short: "Show how a finding's priority score was computed",
	Long: `Explain-score shows the three components of a priority score:

  1. Severity band   critical 50, high 35, medium 20, low 5
  2. Instance score  round(10 * log2(instances + 1)), capped at 30
  3. Fix bonus       +20 when a concrete remediation is attached

The total is clamped to 0-100. Findings come from the latest stored run,
from --run, or from a finding set given with --findings. With no ids,
every finding is explained.

Example:
  a11yhub explain-score A11Y-001
  a11yhub explain-score --findings findings.json A11Y-003 A11Y-007
  a11yhub explain-score --run 0192f3 --format json`,
	RunE: runExplainScore,
}

func init() {
	explainScoreCmd.Flags().StringVar(&explainFormat, "format", "text",
		"output format: text or json")
	explainScoreCmd.Flags().StringVar(&explainRun, "run", "",
		"stored run id or id prefix (default: latest run)")
	explainScoreCmd.Flags().StringVar(&explainFindings, "findings", "",
		"finding set written by 'a11yhub findings'")
}

// scoreExplanation holds the structured explanation of one finding
type scoreExplanation struct {
	FindingID    string                    `json:"finding_id"`
	Title        string                    `json:"title"`
	Severity     models.Severity           `json:"severity"`
	Instances    int                       `json:"instances"`
	FixAvailable bool                      `json:"fix_available"`
	Breakdown    aggregator.ScoreBreakdown `json:"breakdown"`
	Stored       int                       `json:"stored_score"`
	Formula      string                    `json:"formula"`
}

func runExplainScore(cmd *cobra.Command, args []string) error {
	if explainFormat != "text" && explainFormat != "json" {
		return &ValidationError{Message: fmt.Sprintf("unsupported format: %s (use text or json)", explainFormat)}
	}

	findings, err := explainSource()
	if err != nil {
		return err
	}

	explanations, err := explainFindingIDs(findings, args)
	if err != nil {
		return err
	}

	if explainFormat == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(explanations)
	}
	return writeExplainText(cmd.OutOrStdout(), explanations)
}

// explainSource loads the findings to explain
func explainSource() ([]models.Finding, error) {
	if explainFindings != "" {
		set, err := loadFindingSet(explainFindings)
		if err != nil {
			return nil, err
		}
		return set.Findings, nil
	}

	store, err := openStore(cfg.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage path: %w", err)
	}

	if explainRun != "" {
		report, err := loadAuditReport(store, explainRun)
		if err != nil {
			return nil, err
		}
		return report.Findings, nil
	}

	report, err := store.GetLatestRun()
	if err != nil {
		return nil, fmt.Errorf("no stored runs found, run 'a11yhub audit' first: %w", err)
	}
	return report.Findings, nil
}

// explainFindingIDs explains the requested findings, or all of them when
// ids is empty. Unknown ids are an input error.
func explainFindingIDs(findings []models.Finding, ids []string) ([]scoreExplanation, error) {
	if len(ids) == 0 {
		explanations := make([]scoreExplanation, 0, len(findings))
		for _, f := range findings {
			explanations = append(explanations, explainFinding(f))
		}
		return explanations, nil
	}

	index := models.FindingIndex(findings)
	explanations := make([]scoreExplanation, 0, len(ids))
	var unknown []string
	for _, id := range ids {
		f, ok := index[strings.TrimSpace(id)]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		explanations = append(explanations, explainFinding(*f))
	}
	if len(unknown) > 0 {
		return nil, &ValidationError{Message: "unknown finding id(s): " + strings.Join(unknown, ", ")}
	}
	return explanations, nil
}

func explainFinding(f models.Finding) scoreExplanation {
	b := aggregator.ExplainScore(f.Severity, f.Instances, f.FixAvailable)
	return scoreExplanation{
		FindingID:    f.ID,
		Title:        f.Title,
		Severity:     f.Severity,
		Instances:    f.Instances,
		FixAvailable: f.FixAvailable,
		Breakdown:    b,
		Stored:       f.PriorityScore,
		Formula: fmt.Sprintf("min(%d, %d + %d + %d) = %d",
			aggregator.MaxPriorityScore, b.SeverityBand, b.InstanceScore, b.FixBonus, b.Total),
	}
}

func writeExplainText(w io.Writer, explanations []scoreExplanation) error {
	p := func(format string, args ...interface{}) {
		_, _ = fmt.Fprintf(w, format, args...)
	}

	if len(explanations) == 0 {
		p("No findings to explain.\n")
		return nil
	}

	for i, e := range explanations {
		if i > 0 {
			p("\n")
		}
		p("%s  %s\n", e.FindingID, e.Title)
		p("  Severity band:  %3d  (%s)\n", e.Breakdown.SeverityBand, e.Severity)
		p("  Instance score: %3d  (%d instance(s))\n", e.Breakdown.InstanceScore, e.Instances)
		if e.FixAvailable {
			p("  Fix bonus:      %3d  (remediation attached)\n", e.Breakdown.FixBonus)
		} else {
			p("  Fix bonus:      %3d  (no remediation)\n", e.Breakdown.FixBonus)
		}
		p("  Priority:       %3d  %s\n", e.Breakdown.Total, e.Formula)
		if e.Stored != e.Breakdown.Total {
			p("  Note: stored score is %d; the finding was scored with different inputs\n", e.Stored)
		}
	}
	return nil
}
