package reporter

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/aggregator"
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
)

const separator = "--------------------------------------------------"

// maxTextFindings bounds the findings listed in the text summary
const maxTextFindings = 10

// TextReporter generates human-readable text reports
type TextReporter struct {
	writer io.Writer
}

// NewTextReporter creates a new text reporter
func NewTextReporter(writer io.Writer) *TextReporter {
	return &TextReporter{
		writer: writer,
	}
}

// Generate writes the audit summary for a gate-passed run
func (r *TextReporter) Generate(report *models.AuditReport) error {
	if err := CheckGate(report); err != nil {
		return err
	}

	r.printHeader()
	r.printf("Run ID:    %s\n", report.RunID)
	r.printf("Timestamp: %s\n", formatTimestamp(report.Timestamp))
	if report.Project != "" {
		r.printf("Project:   %s\n", report.Project)
	}
	r.printf("\n")

	r.printOverallSummary(report)
	r.printTopFindings(report.Findings)
	r.printCoverage(report.Gate)

	if len(report.Recommendations) > 0 {
		r.printRecommendations(report.Recommendations)
	}
	if len(report.SeverityHints) > 0 {
		r.printSeverityHints(report.SeverityHints)
	}
	if len(report.Diagnostics) > 0 {
		r.printf("\nSkipped records: %d (see JSON output for details)\n", len(report.Diagnostics))
	}

	if report.Trend != nil {
		r.printf("\n")
		r.printTrendInfo(report.Trend)
	}

	return nil
}

// GenerateGate prints every gate error followed by the tallies. It never
// refuses: a failing gate is exactly what operators need to read.
func (r *TextReporter) GenerateGate(result *models.CoverageGateResult) error {
	if result.GatePassed {
		r.printf("Coverage gate: PASSED\n")
	} else {
		r.printf("Coverage gate: FAILED (%d error(s))\n", len(result.Errors))
	}
	r.printf("%s\n", separator)

	for _, e := range result.Errors {
		r.printf("  %s\n", e.String())
	}
	if len(result.Errors) > 0 {
		r.printf("\n")
	}

	r.printTallies(result)
	return nil
}

// GenerateFindings prints a compact finding table with any diagnostics
func (r *TextReporter) GenerateFindings(findings []models.Finding, diagnostics []models.Diagnostic) error {
	r.printf("Findings: %d\n", len(findings))
	r.printf("%s\n", separator)
	for _, f := range findings {
		r.printf("  %-9s %-8s %3d  %-24s %d page(s)\n",
			f.ID, strings.ToUpper(string(f.Severity)), f.PriorityScore, f.RuleID, f.PagesAffected)
	}

	if len(diagnostics) > 0 {
		r.printf("\nDiagnostics: %d\n", len(diagnostics))
		for _, d := range diagnostics {
			where := d.Source
			if d.Route != "" {
				where = strings.TrimSpace(where + " " + d.Route)
			}
			r.printf("  %s #%d: %s\n", where, d.Index, d.Message)
		}
	}
	return nil
}

func (r *TextReporter) printHeader() {
	r.printf("╔════════════════════════════════════════════╗\n")
	r.printf("║         a11yhub Accessibility Audit        ║\n")
	r.printf("╚════════════════════════════════════════════╝\n\n")
}

func (r *TextReporter) printOverallSummary(report *models.AuditReport) {
	s := report.Summary

	r.printf("Overall Summary:\n")
	r.printf("%s\n", separator)
	r.printf("  Routes Scanned: %d\n", s.RoutesScanned)
	r.printf("  Total Findings: %d (%d instance(s))", s.TotalFindings, s.TotalInstances)

	if report.Trend != nil {
		indicator := aggregator.GetTrendIndicator(report.Trend.Direction)
		r.printf(" %s %.1f%% from previous run", indicator, report.Trend.ChangePercent)
	}
	r.printf("\n")
	r.printf("  Highest Priority: %d\n\n", s.MaxPriority)

	r.printf("Findings by Severity:\n")
	for _, sev := range models.Severities {
		r.printf("  %-8s %d\n", strings.ToUpper(string(sev)), s.FindingsBySeverity[sev])
	}
	r.printf("\n")

	if len(s.FindingsByComponent) > 0 {
		r.printf("Findings by Component:\n")
		for _, name := range sortedKeys(s.FindingsByComponent) {
			r.printf("  %s: %d\n", name, s.FindingsByComponent[name])
		}
		r.printf("\n")
	}
}

func (r *TextReporter) printTopFindings(findings []models.Finding) {
	if len(findings) == 0 {
		r.printf("No findings.\n\n")
		return
	}

	r.printf("Top Findings:\n")
	r.printf("%s\n", separator)

	n := len(findings)
	if n > maxTextFindings {
		n = maxTextFindings
	}
	for _, f := range findings[:n] {
		r.printf("  %s [%s] %s\n", f.ID, strings.ToUpper(string(f.Severity)), f.Title)
		r.printf("     rule=%s priority=%d pages=%d wcag=%s\n", f.RuleID, f.PriorityScore, f.PagesAffected, f.WCAG)
	}
	if len(findings) > n {
		r.printf("  ... and %d more\n", len(findings)-n)
	}
	r.printf("\n")
}

func (r *TextReporter) printCoverage(gate *models.CoverageGateResult) {
	r.printf("Coverage:\n")
	r.printf("%s\n", separator)
	r.printTallies(gate)
}

func (r *TextReporter) printTallies(gate *models.CoverageGateResult) {
	t := gate.Tallies
	r.printf("  PASS: %d  FAIL: %d  N/A: %d  INVALID: %d (template items: %d)\n",
		t.Pass, t.Fail, t.NA, t.Invalid, gate.TemplateSize)
}

func (r *TextReporter) printRecommendations(recommendations []models.Recommendation) {
	r.printf("\n")
	r.printf("Recommended Actions:\n")
	r.printf("%s\n", separator)

	for i, rec := range recommendations {
		r.printf("  %d. [%s] %s\n", i+1, strings.ToUpper(string(rec.Severity)), rec.Action)
		r.printf("     Impact: %s\n", rec.Impact)
	}
}

func (r *TextReporter) printSeverityHints(hints []models.SeverityHint) {
	r.printf("\n")
	r.printf("Severity Review (advisory):\n")
	r.printf("%s\n", separator)
	for _, h := range hints {
		r.printf("  %s declared %s, suggested at least %s: %s\n", h.FindingID, h.Declared, h.Minimum, h.Reason)
	}
}

func (r *TextReporter) printTrendInfo(trend *models.Trend) {
	r.printf("Trend Analysis:\n")
	r.printf("%s\n", separator)
	r.printf("  Direction: %s %s\n", trend.Direction, aggregator.GetTrendIndicator(trend.Direction))
	r.printf("  Change: %d → %d findings (%.1f%%)\n",
		trend.PreviousFindings,
		trend.CurrentFindings,
		trend.ChangePercent)

	if trend.NewFindings > 0 {
		r.printf("  New: %d\n", trend.NewFindings)
	}
	if trend.ResolvedFindings > 0 {
		r.printf("  Resolved: %d\n", trend.ResolvedFindings)
	}

	r.printf("  Compared With: %s\n", formatTimestamp(trend.ComparedWith))
}

// printf is a helper to write formatted output
func (r *TextReporter) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.writer, format, args...)
}

func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
