package tui

import (
	"fmt"
	"strings"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
)

// detailHeight is the fixed number of lines for the detail panel.
const detailHeight = 5

// renderDetail produces the detail view for a selected finding.
func renderDetail(f *models.Finding, width int) string {
	if f == nil {
		return styleDetailPanel.Width(width).Render("No finding selected")
	}

	var b strings.Builder

	sevStyled := severityStyle(f.Severity).Render(severityLabel(f.Severity))
	b.WriteString(fmt.Sprintf("%s  %s  %s\n", sevStyled, f.ID, f.Title))

	wcag := f.WCAG
	if f.WCAGLevel != "" {
		wcag += " " + f.WCAGLevel
	}
	b.WriteString(fmt.Sprintf("Rule: %s  WCAG: %s", f.RuleID, wcag))
	if f.Component != "" {
		b.WriteString(fmt.Sprintf("  Component: %s", f.Component))
	}
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("Selector: %s\n", strings.Join(f.Selectors, ", ")))

	parts := []string{
		fmt.Sprintf("Routes: %s", strings.Join(f.AffectedRoutes, ", ")),
		fmt.Sprintf("Instances: %d", f.Instances),
		"Priority: " + priorityStyle(f.PriorityScore).Render(fmt.Sprintf("%d", f.PriorityScore)),
	}
	if f.FixAvailable {
		parts = append(parts, "Fix available")
	}
	b.WriteString(strings.Join(parts, "  "))

	return styleDetailPanel.Width(width).Render(b.String())
}
