package aggregator

import (
	"sort"
	"strings"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
)

// Aggregator merges findings that describe the same defect on several routes
type Aggregator struct {
	settings settings
}

// New creates a new aggregator
func New(opts ...Option) *Aggregator {
	return &Aggregator{settings: newSettings(opts)}
}

// Merge collapses findings sharing (rule id, selector pattern) into one
// finding per identity. Findings whose pattern is only the placeholder are
// never merged. The input slice is not modified. The result is ordered by
// severity, then id, and does not depend on input order.
func (a *Aggregator) Merge(findings []models.Finding) []models.Finding {
	sorted := make([]models.Finding, len(findings))
	for i := range findings {
		sorted[i] = cloneFinding(findings[i])
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		ki, kj := identityKey(&sorted[i]), identityKey(&sorted[j])
		if ki != kj {
			return ki < kj
		}
		return routeLess(&sorted[i], &sorted[j])
	})

	var merged []models.Finding
	index := make(map[string]int)
	for _, f := range sorted {
		key := identityKey(&f)
		if IsPlaceholderPattern(SelectorPattern(f.Selectors)) {
			// Ambiguous: keep each route on its own
			merged = append(merged, f)
			continue
		}
		if i, ok := index[key]; ok {
			absorb(&merged[i], f)
			continue
		}
		index[key] = len(merged)
		merged = append(merged, f)
	}

	for i := range merged {
		refresh(&merged[i])
	}
	AssignIDs(merged, a.settings.idPrefix)

	if merged == nil {
		merged = []models.Finding{}
	}
	return merged
}

// identityKey is the merge identity of a finding
func identityKey(f *models.Finding) string {
	return f.RuleID + "\x00" + strings.Join(SelectorPattern(f.Selectors), "\x00")
}

func routeLess(a, b *models.Finding) bool {
	if a.Route != b.Route {
		return a.Route < b.Route
	}
	if a.URL != b.URL {
		return a.URL < b.URL
	}
	return a.ID < b.ID
}

// absorb folds other into f. Both share the same identity key.
func absorb(f *models.Finding, other models.Finding) {
	f.Instances += other.Instances
	f.Evidence = append(f.Evidence, other.Evidence...)
	f.Selectors = append(f.Selectors, other.Selectors...)
	f.AffectedRoutes = append(f.AffectedRoutes, routesOf(&other)...)
	f.AffectedURLs = append(f.AffectedURLs, urlsOf(&other)...)

	if other.Severity.Rank() < f.Severity.Rank() {
		f.Severity = other.Severity
	}
	if !f.FixAvailable && other.FixAvailable {
		f.FixAvailable = true
		f.RecommendedFix = other.RecommendedFix
	}
	if f.Description == "" {
		f.Description = other.Description
	}
	if f.HelpURL == "" {
		f.HelpURL = other.HelpURL
	}
}

// refresh recomputes every derived field of a (possibly merged) finding
func refresh(f *models.Finding) {
	f.AffectedRoutes = sortedSet(append(f.AffectedRoutes, routesOf(f)...))
	f.AffectedURLs = sortedSet(append(f.AffectedURLs, urlsOf(f)...))
	f.PagesAffected = len(f.AffectedRoutes)

	sortEvidence(f.Evidence)
	f.Evidence = dedupEvidence(f.Evidence)
	f.Selectors = sortedSet(f.Selectors)
	if len(f.Selectors) == 0 {
		f.Selectors = []string{models.SelectorPlaceholder}
	}

	if f.Instances < 1 {
		f.Instances = 1
	}
	f.PriorityScore = PriorityScore(f.Severity, f.Instances, f.FixAvailable)
	f.Component = ClassifyComponent(f.Evidence)
	f.Fingerprint = Fingerprint(f.RuleID, f.Selectors)
}

// dedupEvidence shows each literal markup snippet once. Entries without
// markup are kept unless they repeat route, selector and summary exactly.
func dedupEvidence(evidence []models.Evidence) []models.Evidence {
	seen := make(map[string]bool, len(evidence))
	out := make([]models.Evidence, 0, len(evidence))
	for _, e := range evidence {
		key := "html:" + e.HTML
		if e.HTML == "" {
			key = "loc:" + e.Route + "\x00" + e.Selector + "\x00" + e.FailureSummary
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}

func routesOf(f *models.Finding) []string {
	if len(f.AffectedRoutes) > 0 {
		return f.AffectedRoutes
	}
	return []string{f.Route}
}

func urlsOf(f *models.Finding) []string {
	if len(f.AffectedURLs) > 0 {
		return f.AffectedURLs
	}
	return []string{f.URL}
}

func sortedSet(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func cloneFinding(f models.Finding) models.Finding {
	f.Selectors = append([]string(nil), f.Selectors...)
	f.Evidence = append([]models.Evidence(nil), f.Evidence...)
	f.AffectedRoutes = append([]string(nil), f.AffectedRoutes...)
	f.AffectedURLs = append([]string(nil), f.AffectedURLs...)
	return f
}

// Summarize computes aggregate statistics for a finding set
func Summarize(findings []models.Finding, routesScanned int) models.AuditSummary {
	summary := models.AuditSummary{
		TotalFindings:       len(findings),
		RoutesScanned:       routesScanned,
		FindingsBySeverity:  make(map[models.Severity]int),
		FindingsByRoute:     make(map[string]int),
		FindingsByComponent: make(map[string]int),
	}

	for _, s := range models.Severities {
		summary.FindingsBySeverity[s] = 0
	}

	for _, f := range findings {
		summary.TotalInstances += f.Instances
		summary.FindingsBySeverity[f.Severity]++
		for _, route := range routesOf(&f) {
			summary.FindingsByRoute[route]++
		}
		component := f.Component
		if component == "" {
			component = ComponentOther
		}
		summary.FindingsByComponent[component]++
		if f.PriorityScore > summary.MaxPriority {
			summary.MaxPriority = f.PriorityScore
		}
	}

	return summary
}

// CountRoutes returns the number of distinct routes in a batch
func CountRoutes(batch *models.ScanBatch) int {
	if batch == nil {
		return 0
	}
	seen := make(map[string]bool, len(batch.Routes))
	for _, r := range batch.Routes {
		seen[r.Route] = true
	}
	return len(seen)
}
