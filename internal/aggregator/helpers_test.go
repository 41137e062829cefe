package aggregator

import (
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
)

func violation(rule, impact string, targets ...string) models.RawViolation {
	v := models.RawViolation{
		RuleID: rule,
		Impact: impact,
		Help:   "Help for " + rule,
		Tags:   []string{"wcag2aa", "wcag143"},
		Nodes:  []models.ViolationNode{},
	}
	for _, t := range targets {
		v.Nodes = append(v.Nodes, models.ViolationNode{Target: t, HTML: "<div>" + t + "</div>"})
	}
	return v
}

func route(path string, violations ...models.RawViolation) models.RouteScanResult {
	if violations == nil {
		violations = []models.RawViolation{}
	}
	return models.RouteScanResult{
		Route:      path,
		URL:        "https://example.com" + path,
		Violations: violations,
	}
}

func finding(rule string, severity models.Severity, path string, selectors ...string) models.Finding {
	f := models.Finding{
		RuleID:    rule,
		Title:     rule,
		Severity:  severity,
		Route:     path,
		URL:       "https://example.com" + path,
		Selectors: selectors,
		Instances: len(selectors),
	}
	for _, s := range selectors {
		f.Evidence = append(f.Evidence, models.Evidence{Route: path, Selector: s, HTML: "<a>" + s + "</a>"})
	}
	return f
}
