package aggregator

import (
	"regexp"
	"strings"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
)

type severityRule struct {
	pattern *regexp.Regexp
	minimum models.Severity
	reason  string
}

// Checked in order; the first match sets the minimum severity
var severityRules = []severityRule{
	{
		pattern: regexp.MustCompile(`(?i)core task blocked|cannot complete|keyboard trap|inaccessible login`),
		minimum: models.SeverityCritical,
		reason:  "Finding text indicates a blocker for core user tasks.",
	},
	{
		pattern: regexp.MustCompile(`(?i)checkout|payment|authentication|sign in|screen reader cannot`),
		minimum: models.SeverityHigh,
		reason:  "Finding impacts a critical flow or key assistive technology behavior.",
	},
	{
		pattern: regexp.MustCompile(`(?i)contrast|focus indicator|aria-|label missing`),
		minimum: models.SeverityMedium,
		reason:  "Finding indicates a notable accessibility barrier.",
	},
}

// SeverityGuard flags findings whose severity is lower than their text
// suggests. Hints are advisory only.
type SeverityGuard struct{}

// NewSeverityGuard creates a new severity guard
func NewSeverityGuard() *SeverityGuard {
	return &SeverityGuard{}
}

// Check returns one hint per finding declared below its inferred minimum
func (g *SeverityGuard) Check(findings []models.Finding) []models.SeverityHint {
	var hints []models.SeverityHint
	for _, f := range findings {
		minimum, reason, ok := InferMinimumSeverity(findingText(&f))
		if !ok {
			continue
		}
		if f.Severity.Rank() > minimum.Rank() {
			hints = append(hints, models.SeverityHint{
				FindingID: f.ID,
				Declared:  f.Severity,
				Minimum:   minimum,
				Reason:    reason,
			})
		}
	}
	return hints
}

// InferMinimumSeverity returns the minimum severity the text calls for
func InferMinimumSeverity(text string) (models.Severity, string, bool) {
	for _, rule := range severityRules {
		if rule.pattern.MatchString(text) {
			return rule.minimum, rule.reason, true
		}
	}
	return "", "", false
}

func findingText(f *models.Finding) string {
	parts := []string{f.RuleID, f.Title, f.Description, f.RecommendedFix}
	parts = append(parts, f.AffectedRoutes...)
	if len(f.AffectedRoutes) == 0 {
		parts = append(parts, f.Route)
	}
	for _, e := range f.Evidence {
		parts = append(parts, e.FailureSummary)
	}
	return strings.Join(parts, "\n")
}
