package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
)

// Policy defines enforcement rules for audit results.
type Policy struct {
	Version string `yaml:"version"`
	Rules   Rules  `yaml:"rules"`
}

// Rules contains all configurable policy rules.
type Rules struct {
	MaxFindings   *int     `yaml:"max_findings,omitempty"`
	MaxCritical   *int     `yaml:"max_critical,omitempty"`
	MaxHigh       *int     `yaml:"max_high,omitempty"`
	MaxPriority   *int     `yaml:"max_priority,omitempty"`
	ForbidRules   []string `yaml:"forbid_rules,omitempty"`
	RequireRoutes []string `yaml:"require_routes,omitempty"`
}

// Violation is a single policy failure.
type Violation struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Result holds the outcome of a policy check.
type Result struct {
	Pass       bool        `json:"pass"`
	Violations []Violation `json:"violations"`
}

// PolicyFileNames are searched, in order, by FindPolicyFile.
var PolicyFileNames = []string{".a11yhub-policy.yaml", ".a11yhub-policy.yml"}

// LoadFromFile reads a policy file. A missing file yields a nil policy.
func LoadFromFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read policy: %w", err)
	}

	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse policy: %w", err)
	}

	return &p, nil
}

// FindPolicyFile searches for a policy file in dir and its parents up to
// the filesystem root.
func FindPolicyFile(dir string) string {
	for {
		for _, name := range PolicyFileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Evaluate checks an audit report against the policy rules.
func (p *Policy) Evaluate(report *models.AuditReport) *Result {
	if p == nil {
		return &Result{Pass: true}
	}

	var violations []Violation

	// max_findings
	if p.Rules.MaxFindings != nil && report.Summary.TotalFindings > *p.Rules.MaxFindings {
		violations = append(violations, Violation{
			Rule:    "max_findings",
			Message: fmt.Sprintf("total findings %d exceeds limit %d", report.Summary.TotalFindings, *p.Rules.MaxFindings),
		})
	}

	// max_critical
	if p.Rules.MaxCritical != nil {
		count := report.Summary.FindingsBySeverity[models.SeverityCritical]
		if count > *p.Rules.MaxCritical {
			violations = append(violations, Violation{
				Rule:    "max_critical",
				Message: fmt.Sprintf("critical findings %d exceeds limit %d", count, *p.Rules.MaxCritical),
			})
		}
	}

	// max_high
	if p.Rules.MaxHigh != nil {
		count := report.Summary.FindingsBySeverity[models.SeverityHigh]
		if count > *p.Rules.MaxHigh {
			violations = append(violations, Violation{
				Rule:    "max_high",
				Message: fmt.Sprintf("high findings %d exceeds limit %d", count, *p.Rules.MaxHigh),
			})
		}
	}

	// max_priority
	if p.Rules.MaxPriority != nil && report.Summary.MaxPriority > *p.Rules.MaxPriority {
		violations = append(violations, Violation{
			Rule:    "max_priority",
			Message: fmt.Sprintf("highest priority score %d exceeds limit %d", report.Summary.MaxPriority, *p.Rules.MaxPriority),
		})
	}

	// forbid_rules
	if len(p.Rules.ForbidRules) > 0 {
		counts := make(map[string]int)
		for _, f := range report.Findings {
			counts[f.RuleID]++
		}
		forbidden := append([]string(nil), p.Rules.ForbidRules...)
		sort.Strings(forbidden)
		for _, rule := range forbidden {
			if counts[rule] > 0 {
				violations = append(violations, Violation{
					Rule:    "forbid_rules",
					Message: fmt.Sprintf("forbidden rule %q has %d finding(s)", rule, counts[rule]),
				})
			}
		}
	}

	// require_routes
	if len(p.Rules.RequireRoutes) > 0 {
		scanned := make(map[string]bool)
		for _, route := range report.ScannedRoutes {
			scanned[route] = true
		}
		for _, route := range p.Rules.RequireRoutes {
			if !scanned[route] {
				violations = append(violations, Violation{
					Rule:    "require_routes",
					Message: fmt.Sprintf("required route %q was not scanned", route),
				})
			}
		}
	}

	return &Result{
		Pass:       len(violations) == 0,
		Violations: violations,
	}
}
