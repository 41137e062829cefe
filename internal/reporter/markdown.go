package reporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/aggregator"
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
)

// maxEvidence bounds the evidence listed per issue
const maxEvidence = 5

var retestChecklist = []string{
	"Verify each fixed issue with keyboard-only navigation.",
	"Verify with screen reader spot-check.",
	"Re-run automated checks and compare diffs.",
	"Attach updated evidence for each closed issue.",
}

var phaseNotes = map[string]string{
	aggregator.PhaseImmediate:   "Fix all Critical and High findings first.",
	aggregator.PhaseThisRelease: "Resolve remaining Medium findings tied to affected flows.",
	aggregator.PhaseBacklog:     "Track Low findings and close during related component updates.",
}

// MarkdownReporter renders the client-facing audit report
type MarkdownReporter struct {
	writer io.Writer
	opts   Options
}

// NewMarkdownReporter creates a new Markdown reporter
func NewMarkdownReporter(writer io.Writer, opts Options) *MarkdownReporter {
	return &MarkdownReporter{
		writer: writer,
		opts:   opts.withDefaults(),
	}
}

// Generate writes the report. The date comes from the run timestamp so
// identical runs render identically.
func (r *MarkdownReporter) Generate(report *models.AuditReport) error {
	if err := CheckGate(report); err != nil {
		return err
	}

	var b strings.Builder
	project := r.opts.Project
	if report.Project != "" {
		project = report.Project
	}

	fmt.Fprintf(&b, "# Accessibility Report - %s\n\n", project)

	r.executiveSummary(&b, report)
	r.findingsTable(&b, report.Findings)
	r.issueDetails(&b, report.Findings)
	r.remediationPlan(&b, report.Findings)
	r.coverage(&b, report.Gate)

	b.WriteString("## 6. Retest Checklist\n\n")
	for _, item := range retestChecklist {
		fmt.Fprintf(&b, "- %s\n", item)
	}

	_, err := io.WriteString(r.writer, b.String())
	return err
}

func (r *MarkdownReporter) executiveSummary(b *strings.Builder, report *models.AuditReport) {
	b.WriteString("## 1. Executive Summary\n\n")
	fmt.Fprintf(b, "- Date: %s\n", report.Timestamp.Format("2006-01-02"))
	fmt.Fprintf(b, "- Auditor: %s\n", r.opts.Auditor)
	fmt.Fprintf(b, "- Scope: %s\n", r.opts.Scope)
	fmt.Fprintf(b, "- Target: %s\n", r.opts.WCAGTarget)
	if report.RunID != "" {
		fmt.Fprintf(b, "- Run: %s\n", report.RunID)
	}
	fmt.Fprintf(b, "- Routes scanned: %d\n", report.Summary.RoutesScanned)
	fmt.Fprintf(b, "- Total findings: %d\n", len(report.Findings))

	split := make([]string, 0, len(models.Severities))
	for _, sev := range models.Severities {
		split = append(split, fmt.Sprintf("%s %d", severityLabel(sev), report.Summary.FindingsBySeverity[sev]))
	}
	fmt.Fprintf(b, "- Severity split: %s\n", strings.Join(split, ", "))

	if report.Trend != nil {
		fmt.Fprintf(b, "- Since previous run: %d new, %d resolved, %d remaining\n",
			report.Trend.NewFindings, report.Trend.ResolvedFindings, report.Trend.Remaining)
	}
	b.WriteString("\n")
}

func (r *MarkdownReporter) findingsTable(b *strings.Builder, findings []models.Finding) {
	b.WriteString("## 2. Findings Table\n\n")
	if len(findings) == 0 {
		b.WriteString("No findings were recorded for this run.\n\n")
		return
	}

	b.WriteString("| ID | Severity | WCAG | Area | Pages | Priority | Title |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	for _, f := range findings {
		fmt.Fprintf(b, "| %s | %s | %s | %s | %d | %d | %s |\n",
			f.ID, severityLabel(f.Severity), cell(f.WCAG), cell(f.Route), f.PagesAffected, f.PriorityScore, cell(f.Title))
	}
	b.WriteString("\n")
}

func (r *MarkdownReporter) issueDetails(b *strings.Builder, findings []models.Finding) {
	b.WriteString("## 3. Issue Details\n\n")
	for _, f := range findings {
		fmt.Fprintf(b, "### %s - %s\n\n", f.ID, f.Title)
		fmt.Fprintf(b, "- Severity: %s\n", severityLabel(f.Severity))
		wcag := f.WCAG
		if f.WCAGLevel != "" {
			wcag += " (Level " + f.WCAGLevel + ")"
		}
		fmt.Fprintf(b, "- WCAG Criterion: %s\n", wcag)
		fmt.Fprintf(b, "- Affected Area: %s\n", strings.Join(f.AffectedRoutes, ", "))
		fmt.Fprintf(b, "- URL: %s\n", f.URL)
		fmt.Fprintf(b, "- Selector/Component: `%s`", strings.Join(f.Selectors, "`, `"))
		if f.Component != "" {
			fmt.Fprintf(b, " (%s)", f.Component)
		}
		b.WriteString("\n")
		fmt.Fprintf(b, "- Instances: %d\n", f.Instances)
		fmt.Fprintf(b, "- Priority: %d\n\n", f.PriorityScore)

		if f.Description != "" {
			b.WriteString("**User Impact**\n\n")
			b.WriteString(f.Description + "\n\n")
		}

		b.WriteString("**Observed Evidence**\n\n")
		n := len(f.Evidence)
		if n > maxEvidence {
			n = maxEvidence
		}
		for i, e := range f.Evidence[:n] {
			fmt.Fprintf(b, "%d. `%s` on %s", i+1, e.Selector, e.Route)
			if e.FailureSummary != "" {
				fmt.Fprintf(b, ": %s", oneLine(e.FailureSummary))
			}
			b.WriteString("\n")
		}
		if len(f.Evidence) > n {
			fmt.Fprintf(b, "%d. ... %d more instance(s)\n", n+1, len(f.Evidence)-n)
		}
		b.WriteString("\n")

		b.WriteString("**Recommended Fix**\n\n")
		switch {
		case f.RecommendedFix != "":
			b.WriteString(f.RecommendedFix + "\n\n")
		case f.HelpURL != "":
			fmt.Fprintf(b, "See %s\n\n", f.HelpURL)
		default:
			b.WriteString("No automated remediation available; review manually.\n\n")
		}
	}
}

func (r *MarkdownReporter) remediationPlan(b *strings.Builder, findings []models.Finding) {
	b.WriteString("## 4. Remediation Plan\n\n")
	grouped := aggregator.NewRecommendationGenerator().GroupByPhase(findings)

	for _, phase := range []string{aggregator.PhaseImmediate, aggregator.PhaseThisRelease, aggregator.PhaseBacklog} {
		fmt.Fprintf(b, "- %s: %s", phase, phaseNotes[phase])
		if ids := findingIDs(grouped[phase]); len(ids) > 0 {
			fmt.Fprintf(b, " (%s)", strings.Join(ids, ", "))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func (r *MarkdownReporter) coverage(b *strings.Builder, gate *models.CoverageGateResult) {
	b.WriteString("## 5. Coverage\n\n")
	t := gate.Tallies
	fmt.Fprintf(b, "- Checklist items: %d\n", gate.TemplateSize)
	fmt.Fprintf(b, "- PASS %d, FAIL %d, N/A %d\n\n", t.Pass, t.Fail, t.NA)

	if len(gate.Rows) == 0 {
		return
	}
	b.WriteString("| Item | Status | Tool | Findings |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, row := range gate.Rows {
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n",
			cell(row.ID), row.Status, cell(row.ToolUsed), cell(strings.Join(row.FindingIDs, ", ")))
	}
	b.WriteString("\n")
}

func severityLabel(s models.Severity) string {
	str := string(s)
	if str == "" {
		return ""
	}
	return strings.ToUpper(str[:1]) + str[1:]
}

func findingIDs(findings []models.Finding) []string {
	ids := make([]string, 0, len(findings))
	for _, f := range findings {
		ids = append(ids, f.ID)
	}
	return ids
}

// cell makes a value safe inside a Markdown table row
func cell(s string) string {
	return strings.ReplaceAll(oneLine(s), "|", `\|`)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
