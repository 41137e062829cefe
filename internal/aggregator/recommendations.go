package aggregator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
)

// findingGroup represents findings sharing a component and severity
type findingGroup struct {
	component string
	severity  models.Severity
	count     int
	rules     map[string]bool
}

// RecommendationGenerator creates actionable recommendations from findings
type RecommendationGenerator struct{}

// NewRecommendationGenerator creates a new recommendation generator
func NewRecommendationGenerator() *RecommendationGenerator {
	return &RecommendationGenerator{}
}

// GenerateRecommendations groups findings by (component, severity)
func (r *RecommendationGenerator) GenerateRecommendations(findings []models.Finding) []models.Recommendation {
	groups := make(map[string]*findingGroup)

	for _, f := range findings {
		component := f.Component
		if component == "" {
			component = ComponentOther
		}
		key := component + ":" + string(f.Severity)
		g, exists := groups[key]
		if !exists {
			g = &findingGroup{
				component: component,
				severity:  f.Severity,
				rules:     make(map[string]bool),
			}
			groups[key] = g
		}
		g.count++
		g.rules[f.RuleID] = true
	}

	recommendations := make([]models.Recommendation, 0, len(groups))
	for _, group := range groups {
		recommendations = append(recommendations, models.Recommendation{
			Severity:  group.severity,
			Component: group.component,
			Action:    r.generateAction(group),
			Impact:    r.generateImpact(group),
			Count:     group.count,
		})
	}

	// critical first, then the largest groups
	sort.Slice(recommendations, func(i, j int) bool {
		a, b := recommendations[i], recommendations[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() < b.Severity.Rank()
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Component < b.Component
	})

	return recommendations
}

// generateAction creates actionable text based on component and rules
func (r *RecommendationGenerator) generateAction(group *findingGroup) string {
	rules := make([]string, 0, len(group.rules))
	for rule := range group.rules {
		rules = append(rules, rule)
	}
	sort.Strings(rules)

	var verb string
	switch group.component {
	case ComponentImages:
		verb = "Add text alternatives to"
	case ComponentForms:
		verb = "Label and describe"
	case ComponentLinks, ComponentButtons:
		verb = "Give accessible names to"
	case ComponentHeadings, ComponentLandmarks, ComponentDocument:
		verb = "Restructure"
	default:
		verb = "Fix"
	}

	return fmt.Sprintf("%s %d %s finding(s): %s", verb, group.count, group.component, strings.Join(rules, ", "))
}

// generateImpact describes the user impact at each severity
func (r *RecommendationGenerator) generateImpact(group *findingGroup) string {
	switch group.severity {
	case models.SeverityCritical:
		return "Blocks users of assistive technology from completing core tasks"
	case models.SeverityHigh:
		return "Seriously degrades the experience for keyboard and screen reader users"
	case models.SeverityMedium:
		return "Creates friction for users with disabilities"
	case models.SeverityLow:
		return "Minor annoyance; fix during regular maintenance"
	default:
		return "Unknown impact"
	}
}

// GetTopRecommendations returns the top N most urgent recommendations
func (r *RecommendationGenerator) GetTopRecommendations(recommendations []models.Recommendation, n int) []models.Recommendation {
	if n >= len(recommendations) {
		return recommendations
	}
	return recommendations[:n]
}

// Remediation plan phases
const (
	PhaseImmediate   = "Immediate"
	PhaseThisRelease = "This release"
	PhaseBacklog     = "Backlog"
)

// PlanPhase returns when findings of a severity should be fixed
func PlanPhase(severity models.Severity) string {
	switch severity {
	case models.SeverityCritical, models.SeverityHigh:
		return PhaseImmediate
	case models.SeverityMedium:
		return PhaseThisRelease
	default:
		return PhaseBacklog
	}
}

// GroupByPhase buckets findings into remediation plan phases
func (r *RecommendationGenerator) GroupByPhase(findings []models.Finding) map[string][]models.Finding {
	grouped := make(map[string][]models.Finding)
	for _, f := range findings {
		phase := PlanPhase(f.Severity)
		grouped[phase] = append(grouped[phase], f)
	}
	return grouped
}
