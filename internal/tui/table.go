package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
)

var tableColumns = []table.Column{
	{Title: "ID", Width: 10},
	{Title: "Severity", Width: 10},
	{Title: "Rule", Width: 22},
	{Title: "WCAG", Width: 12},
	{Title: "Area", Width: 20},
	{Title: "Pages", Width: 6},
	{Title: "Priority", Width: 8},
}

// buildRows converts findings to table rows.
func buildRows(findings []models.Finding) []table.Row {
	rows := make([]table.Row, 0, len(findings))
	for _, f := range findings {
		rows = append(rows, table.Row{
			f.ID,
			severityLabel(f.Severity),
			truncate(f.RuleID, tableColumns[2].Width),
			truncate(wcagLabel(f), tableColumns[3].Width),
			truncate(f.Route, tableColumns[4].Width),
			fmt.Sprintf("%d", f.PagesAffected),
			fmt.Sprintf("%d", f.PriorityScore),
		})
	}
	return rows
}

// wcagLabel shows the criterion with its level, e.g. "1.4.3 AA"
func wcagLabel(f models.Finding) string {
	if f.WCAGLevel == "" {
		return f.WCAG
	}
	return strings.TrimSpace(f.WCAG + " " + f.WCAGLevel)
}

func severityLabel(s models.Severity) string {
	return strings.ToUpper(string(s))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	const ellipsis = "..."
	if maxLen <= len(ellipsis) {
		return s[:maxLen]
	}
	return s[:maxLen-len(ellipsis)] + ellipsis
}

// newTable creates a bubbles table with standard columns and styling.
func newTable(rows []table.Row, height int) table.Model {
	t := table.New(
		table.WithColumns(tableColumns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorBorder).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(colorAccent).
		Bold(false)
	t.SetStyles(s)

	return t
}
