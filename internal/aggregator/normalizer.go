package aggregator

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
)

// ErrMissingRoutes is returned when the scan batch has no routes collection.
// It aborts the run; no partial findings are produced.
var ErrMissingRoutes = errors.New("scan batch has no routes collection")

// DefaultIDPrefix is the finding id prefix used when none is configured
const DefaultIDPrefix = "A11Y"

// WCAGNone marks a rule that maps to no success criterion
const WCAGNone = "N/A"

// Rule ids for findings synthesised from structural metadata
const (
	RuleStructureH1Count   = "structure-h1-count"
	RuleStructureMainCount = "structure-main-count"
)

var (
	wcagCriterionTag = regexp.MustCompile(`^wcag(\d)(\d)(\d{1,2})$`)
	wcagLevelTag     = regexp.MustCompile(`^wcag2\d?(a{1,3})$`)
)

// Option configures a Normalizer or an Aggregator
type Option func(*settings)

type settings struct {
	idPrefix string
}

// WithIDPrefix overrides the finding id prefix
func WithIDPrefix(prefix string) Option {
	return func(s *settings) {
		if p := strings.TrimSpace(prefix); p != "" {
			s.idPrefix = p
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{idPrefix: DefaultIDPrefix}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Normalizer converts raw per-route scan results into findings
type Normalizer struct {
	settings settings
}

// NewNormalizer creates a new normalizer
func NewNormalizer(opts ...Option) *Normalizer {
	return &Normalizer{settings: newSettings(opts)}
}

// NormalizeResult holds the findings of one batch and the records skipped
// while producing them
type NormalizeResult struct {
	Findings    []models.Finding
	Diagnostics []models.Diagnostic
}

// findingKey groups violations of one rule on one route
type findingKey struct {
	ruleID string
	route  string
}

// Normalize emits one finding per (rule, route) pair plus one finding per
// structural metadata deviation. Route order does not affect the output.
func (n *Normalizer) Normalize(batch *models.ScanBatch) (*NormalizeResult, error) {
	if batch == nil || batch.Routes == nil {
		return nil, ErrMissingRoutes
	}

	result := &NormalizeResult{
		Findings:    []models.Finding{},
		Diagnostics: append([]models.Diagnostic(nil), batch.Diagnostics...),
	}

	groups := make(map[findingKey]*models.Finding)
	fixes := make(map[findingKey]*models.Remediation)

	for i, route := range batch.Routes {
		if reason := checkRoute(route); reason != "" {
			result.Diagnostics = append(result.Diagnostics, models.Diagnostic{
				Source:  route.Source,
				Route:   route.Route,
				Index:   i,
				Message: reason,
			})
			continue
		}

		for vi, v := range route.Violations {
			severity, reason := checkViolation(v)
			if reason != "" {
				result.Diagnostics = append(result.Diagnostics, models.Diagnostic{
					Source:  route.Source,
					Route:   route.Route,
					Index:   vi,
					Message: reason,
				})
				continue
			}

			key := findingKey{ruleID: v.RuleID, route: route.Route}
			f, exists := groups[key]
			if !exists {
				f = newFinding(v, route, severity)
				groups[key] = f
			} else {
				mergeViolation(f, v, severity)
				if route.URL < f.URL {
					f.URL = route.URL
				}
			}
			appendEvidence(f, route.Route, v.Nodes)
			fixes[key] = pickFix(fixes[key], v.Fix)
		}

		for _, sf := range structuralFindings(route) {
			key := findingKey{ruleID: sf.RuleID, route: sf.Route}
			if f, exists := groups[key]; exists {
				f.Evidence = append(f.Evidence, sf.Evidence...)
				continue
			}
			sf := sf
			groups[key] = &sf
		}
	}

	for key, f := range groups {
		if fix := fixes[key]; fix.HasFix() {
			f.FixAvailable = true
			f.RecommendedFix = fix.Description
			if f.RecommendedFix == "" {
				f.RecommendedFix = fix.Code
			}
		}
		result.Findings = append(result.Findings, *f)
	}

	for i := range result.Findings {
		finalize(&result.Findings[i])
	}
	AssignIDs(result.Findings, n.settings.idPrefix)
	sortDiagnostics(result.Diagnostics)

	return result, nil
}

// checkRoute returns why a route record cannot be used, or ""
func checkRoute(route models.RouteScanResult) string {
	switch {
	case strings.TrimSpace(route.Route) == "":
		return "route record skipped: missing route path"
	case strings.TrimSpace(route.URL) == "":
		return "route record skipped: missing url"
	case route.Violations == nil:
		return "route record skipped: missing violations collection"
	}
	return ""
}

// checkViolation maps the impact and returns why a violation is unusable, or ""
func checkViolation(v models.RawViolation) (models.Severity, string) {
	if strings.TrimSpace(v.RuleID) == "" {
		return "", "violation skipped: missing rule id"
	}
	severity, ok := models.ParseImpact(v.Impact)
	if !ok {
		return "", fmt.Sprintf("violation %s skipped: unrecognised impact %q", v.RuleID, v.Impact)
	}
	return severity, ""
}

func newFinding(v models.RawViolation, route models.RouteScanResult, severity models.Severity) *models.Finding {
	wcag, level := ParseWCAG(v.Tags)
	return &models.Finding{
		RuleID:      v.RuleID,
		Title:       findingTitle(v),
		Description: v.Description,
		Severity:    severity,
		WCAG:        wcag,
		WCAGLevel:   level,
		HelpURL:     v.HelpURL,
		Route:       route.Route,
		URL:         route.URL,
	}
}

// mergeViolation folds a repeat report of the same rule on the same route.
// Text fields keep the smallest non-empty value so report order does not
// matter.
func mergeViolation(f *models.Finding, v models.RawViolation, severity models.Severity) {
	if severity.Rank() < f.Severity.Rank() {
		f.Severity = severity
	}
	f.Title = smallestText(f.Title, findingTitle(v))
	f.Description = smallestText(f.Description, v.Description)
	f.HelpURL = smallestText(f.HelpURL, v.HelpURL)

	wcag, level := ParseWCAG(v.Tags)
	f.WCAG = unionCriteria(f.WCAG, wcag)
	if level != "" && (f.WCAGLevel == "" || len(level) < len(f.WCAGLevel)) {
		f.WCAGLevel = level
	}
}

func smallestText(current, candidate string) string {
	if candidate == "" || (current != "" && current <= candidate) {
		return current
	}
	return candidate
}

// unionCriteria combines two "1.4.3, 2.4.4" lists into one sorted list
func unionCriteria(a, b string) string {
	seen := make(map[string]bool)
	var criteria []string
	for _, list := range []string{a, b} {
		if list == WCAGNone {
			continue
		}
		for _, c := range strings.Split(list, ",") {
			if c = strings.TrimSpace(c); c != "" && !seen[c] {
				seen[c] = true
				criteria = append(criteria, c)
			}
		}
	}
	if len(criteria) == 0 {
		return WCAGNone
	}
	sort.Strings(criteria)
	return strings.Join(criteria, ", ")
}

func appendEvidence(f *models.Finding, route string, nodes []models.ViolationNode) {
	if len(nodes) == 0 {
		f.Evidence = append(f.Evidence, models.Evidence{
			Route:    route,
			Selector: models.SelectorPlaceholder,
		})
		return
	}
	for _, node := range nodes {
		selector := strings.TrimSpace(node.Target)
		if selector == "" {
			selector = models.SelectorPlaceholder
		}
		f.Evidence = append(f.Evidence, models.Evidence{
			Route:          route,
			Selector:       selector,
			HTML:           node.HTML,
			FailureSummary: node.FailureSummary,
		})
	}
}

// pickFix keeps the usable remediation with the smallest description so the
// choice does not depend on violation order
func pickFix(current, candidate *models.Remediation) *models.Remediation {
	if !candidate.HasFix() {
		return current
	}
	if !current.HasFix() {
		return candidate
	}
	if candidate.Description+candidate.Code < current.Description+current.Code {
		return candidate
	}
	return current
}

// structuralFindings checks the page-level counts that must be exactly one
func structuralFindings(route models.RouteScanResult) []models.Finding {
	checks := []struct {
		key      string
		ruleID   string
		element  string
		title    string
		selector string
	}{
		{models.MetaH1Count, RuleStructureH1Count, "<h1>", "Page must contain exactly one level-one heading", "h1"},
		{models.MetaMainCount, RuleStructureMainCount, "<main>", "Page must contain exactly one main landmark", "main"},
	}

	var findings []models.Finding
	for _, c := range checks {
		count, ok := route.Metadata[c.key]
		if !ok || count == 1 {
			continue
		}
		findings = append(findings, models.Finding{
			RuleID:      c.ruleID,
			Title:       c.title,
			Description: fmt.Sprintf("Every page needs exactly one %s element.", c.element),
			Severity:    models.SeverityMedium,
			WCAG:        "1.3.1",
			WCAGLevel:   "A",
			Route:       route.Route,
			URL:         route.URL,
			Evidence: []models.Evidence{{
				Route:          route.Route,
				Selector:       c.selector,
				FailureSummary: fmt.Sprintf("Observed %d %s element(s) on %s; expected exactly 1.", count, c.element, route.Route),
			}},
		})
	}
	return findings
}

// finalize fills the derived fields of a single-route finding
func finalize(f *models.Finding) {
	sortEvidence(f.Evidence)
	f.Selectors = uniqueSelectors(f.Evidence)
	f.Instances = len(f.Evidence)
	if f.Instances == 0 {
		f.Instances = 1
	}
	f.PagesAffected = 1
	f.AffectedRoutes = []string{f.Route}
	f.AffectedURLs = []string{f.URL}
	f.PriorityScore = PriorityScore(f.Severity, f.Instances, f.FixAvailable)
	f.Component = ClassifyComponent(f.Evidence)
	f.Fingerprint = Fingerprint(f.RuleID, f.Selectors)
}

// findingTitle prefers the rule's help text, then its description, then its id
func findingTitle(v models.RawViolation) string {
	if t := strings.TrimSpace(v.Help); t != "" {
		return t
	}
	if t := strings.TrimSpace(v.Description); t != "" {
		return t
	}
	return v.RuleID
}

// ParseWCAG extracts success criteria ("1.4.3") and the conformance level
// ("AA") from axe tags. Rules without a criterion tag report "N/A".
func ParseWCAG(tags []string) (string, string) {
	seen := make(map[string]bool)
	var criteria []string
	level := ""

	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if m := wcagCriterionTag.FindStringSubmatch(tag); m != nil {
			c := m[1] + "." + m[2] + "." + m[3]
			if !seen[c] {
				seen[c] = true
				criteria = append(criteria, c)
			}
			continue
		}
		if m := wcagLevelTag.FindStringSubmatch(tag); m != nil {
			l := strings.ToUpper(m[1])
			// A criterion belongs to the lowest level that introduces it
			if level == "" || len(l) < len(level) {
				level = l
			}
		}
	}

	if len(criteria) == 0 {
		return WCAGNone, level
	}
	sort.Strings(criteria)
	return strings.Join(criteria, ", "), level
}

// AssignIDs sorts findings by severity, rule, selector pattern and route,
// then numbers them <prefix>-001, <prefix>-002, ...
func AssignIDs(findings []models.Finding, prefix string) {
	if prefix == "" {
		prefix = DefaultIDPrefix
	}

	sort.SliceStable(findings, func(i, j int) bool {
		return findingLess(&findings[i], &findings[j])
	})

	for i := range findings {
		findings[i].ID = fmt.Sprintf("%s-%03d", prefix, i+1)
	}
}

func findingLess(a, b *models.Finding) bool {
	if a.Severity.Rank() != b.Severity.Rank() {
		return a.Severity.Rank() < b.Severity.Rank()
	}
	if a.RuleID != b.RuleID {
		return a.RuleID < b.RuleID
	}
	pa, pb := strings.Join(SelectorPattern(a.Selectors), "\x00"), strings.Join(SelectorPattern(b.Selectors), "\x00")
	if pa != pb {
		return pa < pb
	}
	if a.Route != b.Route {
		return a.Route < b.Route
	}
	return a.URL < b.URL
}

func sortEvidence(evidence []models.Evidence) {
	sort.SliceStable(evidence, func(i, j int) bool {
		a, b := evidence[i], evidence[j]
		if a.Route != b.Route {
			return a.Route < b.Route
		}
		if a.Selector != b.Selector {
			return a.Selector < b.Selector
		}
		if a.HTML != b.HTML {
			return a.HTML < b.HTML
		}
		return a.FailureSummary < b.FailureSummary
	})
}

func uniqueSelectors(evidence []models.Evidence) []string {
	seen := make(map[string]bool, len(evidence))
	var selectors []string
	for _, e := range evidence {
		if !seen[e.Selector] {
			seen[e.Selector] = true
			selectors = append(selectors, e.Selector)
		}
	}
	if len(selectors) == 0 {
		return []string{models.SelectorPlaceholder}
	}
	sort.Strings(selectors)
	return selectors
}

func sortDiagnostics(diags []models.Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Route != b.Route {
			return a.Route < b.Route
		}
		if a.Index != b.Index {
			return a.Index < b.Index
		}
		return a.Message < b.Message
	})
}
