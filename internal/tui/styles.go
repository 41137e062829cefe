package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
)

// Severity colors
var (
	colorCritical = lipgloss.Color("#FF0000")
	colorHigh     = lipgloss.Color("#FF8800")
	colorMedium   = lipgloss.Color("#FFFF00")
	colorLow      = lipgloss.Color("#00FF00")
	colorMuted    = lipgloss.Color("#888888")
	colorAccent   = lipgloss.Color("#7B68EE")
	colorBorder   = lipgloss.Color("#444444")
)

// Panel styles
var (
	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)

	styleDetailPanel = lipgloss.NewStyle().
				Padding(0, 1).
				BorderStyle(lipgloss.NormalBorder()).
				BorderTop(true).
				BorderForeground(colorBorder)

	styleFooter = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	styleSearchPrompt = lipgloss.NewStyle().
				Foreground(colorAccent).Bold(true)

	styleMuted      = lipgloss.NewStyle().Foreground(colorMuted)
	styleGatePassed = lipgloss.NewStyle().Foreground(colorLow).Bold(true)
	styleGateFailed = lipgloss.NewStyle().Foreground(colorCritical).Bold(true)
)

// severityStyle returns the lipgloss style for a severity level.
func severityStyle(severity models.Severity) lipgloss.Style {
	switch severity {
	case models.SeverityCritical:
		return lipgloss.NewStyle().Foreground(colorCritical).Bold(true)
	case models.SeverityHigh:
		return lipgloss.NewStyle().Foreground(colorHigh).Bold(true)
	case models.SeverityMedium:
		return lipgloss.NewStyle().Foreground(colorMedium)
	case models.SeverityLow:
		return lipgloss.NewStyle().Foreground(colorLow)
	default:
		return lipgloss.NewStyle()
	}
}

// priorityStyle colors a 0-100 priority score by the band it falls in.
func priorityStyle(score int) lipgloss.Style {
	switch {
	case score >= 70:
		return lipgloss.NewStyle().Foreground(colorCritical).Bold(true)
	case score >= 50:
		return lipgloss.NewStyle().Foreground(colorHigh).Bold(true)
	case score >= 30:
		return lipgloss.NewStyle().Foreground(colorMedium)
	default:
		return lipgloss.NewStyle().Foreground(colorLow)
	}
}

// levelStyle shades WCAG levels: A failures block basic access, AAA ones
// are enhancements.
func levelStyle(level string) lipgloss.Style {
	switch level {
	case "A":
		return lipgloss.NewStyle().Foreground(colorCritical)
	case "AA":
		return lipgloss.NewStyle().Foreground(colorHigh)
	default:
		return lipgloss.NewStyle().Foreground(colorMuted)
	}
}
