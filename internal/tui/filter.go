package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
)

// filterState holds current active filters.
type filterState struct {
	Route       string
	Severity    models.Severity
	Level       string // WCAG conformance level: A, AA or AAA
	FixableOnly bool
	SearchText  string
}

// describe lists the active filters for the status line, or "" when none are set
func (f filterState) describe() string {
	var parts []string
	if f.Route != "" {
		parts = append(parts, "route "+f.Route)
	}
	if f.Severity != "" {
		parts = append(parts, "severity "+string(f.Severity))
	}
	if f.Level != "" {
		parts = append(parts, "level "+f.Level)
	}
	if f.FixableOnly {
		parts = append(parts, "fixable")
	}
	if f.SearchText != "" {
		parts = append(parts, fmt.Sprintf("search %q", f.SearchText))
	}
	if len(parts) == 0 {
		return ""
	}
	return "Filter: " + strings.Join(parts, ", ")
}

// wcagLevels is the cycle order of the level filter
var wcagLevels = []string{"A", "AA", "AAA"}

// sortField enumerates columns that can be sorted.
type sortField int

const (
	sortBySeverity sortField = iota
	sortByPriority
	sortByRule
	sortByRoute
	sortByPages
)

// sortFieldCount is the total number of sortable columns.
const sortFieldCount = 5

// applyFilters returns findings matching all active filters. The route
// filter matches any affected route, not only the primary one.
func applyFilters(findings []models.Finding, f filterState) []models.Finding {
	result := make([]models.Finding, 0, len(findings))
	searchLower := strings.ToLower(f.SearchText)

	for _, finding := range findings {
		if f.Route != "" && !affects(finding, f.Route) {
			continue
		}
		if f.Severity != "" && finding.Severity != f.Severity {
			continue
		}
		if f.Level != "" && finding.WCAGLevel != f.Level {
			continue
		}
		if f.FixableOnly && !finding.FixAvailable {
			continue
		}
		if searchLower != "" && !matchesSearch(finding, searchLower) {
			continue
		}
		result = append(result, finding)
	}
	return result
}

func affects(f models.Finding, route string) bool {
	if f.Route == route {
		return true
	}
	for _, r := range f.AffectedRoutes {
		if r == route {
			return true
		}
	}
	return false
}

func matchesSearch(f models.Finding, searchLower string) bool {
	fields := []string{f.ID, f.RuleID, f.Title, f.WCAG, f.Component, string(f.Severity)}
	fields = append(fields, f.Selectors...)
	fields = append(fields, f.AffectedRoutes...)
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), searchLower) {
			return true
		}
	}
	return false
}

// sortFindings sorts a slice of findings in place by the given field.
// Ties keep id order so the table never jumps.
func sortFindings(findings []models.Finding, field sortField) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		switch field {
		case sortBySeverity:
			if a.Severity.Rank() != b.Severity.Rank() {
				return a.Severity.Rank() < b.Severity.Rank()
			}
		case sortByPriority:
			if a.PriorityScore != b.PriorityScore {
				return a.PriorityScore > b.PriorityScore
			}
		case sortByRule:
			if a.RuleID != b.RuleID {
				return a.RuleID < b.RuleID
			}
		case sortByRoute:
			if a.Route != b.Route {
				return a.Route < b.Route
			}
		case sortByPages:
			if a.PagesAffected != b.PagesAffected {
				return a.PagesAffected > b.PagesAffected
			}
		}
		return a.ID < b.ID
	})
}

// uniqueRoutes returns deduplicated, sorted affected routes.
func uniqueRoutes(findings []models.Finding) []string {
	seen := make(map[string]bool)
	var routes []string
	add := func(r string) {
		if r != "" && !seen[r] {
			seen[r] = true
			routes = append(routes, r)
		}
	}
	for _, f := range findings {
		add(f.Route)
		for _, r := range f.AffectedRoutes {
			add(r)
		}
	}
	sort.Strings(routes)
	return routes
}

// nextSeverity cycles all -> critical -> high -> medium -> low -> all.
func nextSeverity(current models.Severity) models.Severity {
	if current == "" {
		return models.Severities[0]
	}
	for i, s := range models.Severities {
		if s == current && i+1 < len(models.Severities) {
			return models.Severities[i+1]
		}
	}
	return ""
}

// nextLevel cycles all -> A -> AA -> AAA -> all
func nextLevel(current string) string {
	if current == "" {
		return wcagLevels[0]
	}
	for i, l := range wcagLevels {
		if l == current && i+1 < len(wcagLevels) {
			return wcagLevels[i+1]
		}
	}
	return ""
}

// sortFieldName returns a human-readable name for the sort field.
func sortFieldName(f sortField) string {
	switch f {
	case sortBySeverity:
		return "severity"
	case sortByPriority:
		return "priority"
	case sortByRule:
		return "rule"
	case sortByRoute:
		return "route"
	case sortByPages:
		return "pages"
	default:
		return "unknown"
	}
}
