package tui

import (
	"fmt"
	"strings"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/aggregator"
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
)

// headerHeight is five content lines plus the border
const headerHeight = 7

// severityBarWidth is the number of cells in the severity distribution bar
const severityBarWidth = 20

// renderHeader summarizes the audit: project and gate, scope, severity
// distribution, conformance level and coverage, and trend.
func renderHeader(report *models.AuditReport, sparkline []int, width int) string {
	lines := []string{
		titleLine(report),
		scopeLine(report),
		severityLine(report.Summary),
		conformanceLine(report),
		trendLine(report.Trend, sparkline),
	}
	return styleHeader.Width(width).Render(strings.Join(lines, "\n"))
}

func titleLine(report *models.AuditReport) string {
	parts := []string{"a11yhub"}
	if report.Project != "" {
		parts = append(parts, report.Project)
	}
	if !report.Timestamp.IsZero() {
		parts = append(parts, "audited "+report.Timestamp.Format("2006-01-02"))
	}
	parts = append(parts, gateBadge(report.Gate))
	return strings.Join(parts, "  ")
}

func gateBadge(gate *models.CoverageGateResult) string {
	switch {
	case gate == nil:
		return styleMuted.Render("gate not run")
	case gate.GatePassed:
		return styleGatePassed.Render("GATE PASSED")
	default:
		return styleGateFailed.Render(fmt.Sprintf("GATE FAILED (%d errors)", len(gate.Errors)))
	}
}

func scopeLine(report *models.AuditReport) string {
	fixable := 0
	for _, f := range report.Findings {
		if f.FixAvailable {
			fixable++
		}
	}
	s := report.Summary
	return fmt.Sprintf("Pages: %d  Findings: %d  Instances: %d  Fixable: %d  Max priority: %s",
		s.RoutesScanned, s.TotalFindings, s.TotalInstances, fixable,
		priorityStyle(s.MaxPriority).Render(fmt.Sprintf("%d", s.MaxPriority)))
}

// severityLine draws a proportional bar followed by per-severity counts.
// Severities with no findings are left out.
func severityLine(s models.AuditSummary) string {
	total := 0
	for _, sev := range models.Severities {
		total += s.FindingsBySeverity[sev]
	}
	if total == 0 {
		return "Severity: " + styleMuted.Render("no findings")
	}

	var bar strings.Builder
	labels := make([]string, 0, len(models.Severities))
	for _, sev := range models.Severities {
		count := s.FindingsBySeverity[sev]
		if count == 0 {
			continue
		}
		cells := count * severityBarWidth / total
		if cells == 0 {
			cells = 1
		}
		style := severityStyle(sev)
		bar.WriteString(style.Render(strings.Repeat("█", cells)))
		labels = append(labels, style.Render(fmt.Sprintf("%s:%d", strings.ToUpper(string(sev)[:1]), count)))
	}
	return "Severity: " + bar.String() + "  " + strings.Join(labels, "  ")
}

// conformanceLine counts findings per WCAG level and shows coverage tallies
func conformanceLine(report *models.AuditReport) string {
	byLevel := make(map[string]int, len(wcagLevels))
	unmapped := 0
	for _, f := range report.Findings {
		if f.WCAGLevel == "" {
			unmapped++
			continue
		}
		byLevel[f.WCAGLevel]++
	}

	parts := make([]string, 0, len(wcagLevels)+1)
	for _, level := range wcagLevels {
		parts = append(parts, levelStyle(level).Render(fmt.Sprintf("%s:%d", level, byLevel[level])))
	}
	if unmapped > 0 {
		parts = append(parts, styleMuted.Render(fmt.Sprintf("unmapped:%d", unmapped)))
	}
	line := "WCAG: " + strings.Join(parts, "  ")

	if report.Gate != nil {
		t := report.Gate.Tallies
		line += fmt.Sprintf("   Coverage: %d pass  %d fail  %d n/a", t.Pass, t.Fail, t.NA)
	}
	return line
}

func trendLine(trend *models.Trend, sparkline []int) string {
	if trend == nil && len(sparkline) == 0 {
		return styleMuted.Render("No earlier runs")
	}

	var b strings.Builder
	b.WriteString("Trend:")
	if len(sparkline) > 0 {
		b.WriteString(" " + renderSparkline(sparkline))
	}
	if trend != nil {
		fmt.Fprintf(&b, "  %s %.1f%%", aggregator.GetTrendIndicator(trend.Direction), trend.ChangePercent)
		if trend.NewFindings > 0 || trend.ResolvedFindings > 0 {
			fmt.Fprintf(&b, "  +%d new  -%d resolved", trend.NewFindings, trend.ResolvedFindings)
		}
	}
	return b.String()
}

// renderSparkline scales values onto eight block heights and appends the
// first and last value
func renderSparkline(values []int) string {
	if len(values) == 0 {
		return ""
	}

	bars := []rune("▁▂▃▄▅▆▇█")
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	var b strings.Builder
	for _, v := range values {
		idx := len(bars) / 2
		if hi > lo {
			idx = (v - lo) * (len(bars) - 1) / (hi - lo)
		}
		b.WriteRune(bars[idx])
	}
	fmt.Fprintf(&b, " [%d→%d]", values[0], values[len(values)-1])
	return b.String()
}
