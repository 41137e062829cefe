package models

// SelectorPlaceholder stands in when a finding has no concrete DOM target
const SelectorPlaceholder = "N/A"

// Finding is the canonical, deduplicated record of one rule violation type
// on one or more routes. Findings are built once per run and not modified
// after the aggregator returns them.
type Finding struct {
	ID             string     `json:"id"`
	RuleID         string     `json:"rule_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Severity       Severity   `json:"severity"`
	WCAG           string     `json:"wcag"`
	WCAGLevel      string     `json:"wcag_level,omitempty"`
	HelpURL        string     `json:"help_url,omitempty"`
	Route          string     `json:"area"`
	URL            string     `json:"url"`
	Selectors      []string   `json:"selectors"`
	Evidence       []Evidence `json:"evidence"`
	Instances      int        `json:"total_instances"`
	PriorityScore  int        `json:"priority_score"`
	FixAvailable   bool       `json:"fix_available"`
	RecommendedFix string     `json:"recommended_fix,omitempty"`
	PagesAffected  int        `json:"pages_affected"`
	AffectedRoutes []string   `json:"affected_routes"`
	AffectedURLs   []string   `json:"affected_urls"`
	Component      string     `json:"component,omitempty"` // advisory grouping only
	Fingerprint    string     `json:"fingerprint"`         // rule id + selector pattern
}

// Evidence is one observed instance of a finding
type Evidence struct {
	Route          string `json:"route"`
	Selector       string `json:"selector"`
	HTML           string `json:"html,omitempty"`
	FailureSummary string `json:"failure_summary,omitempty"`
}

// FindingSet is the on-disk envelope for a normalized finding collection
type FindingSet struct {
	Findings    []Finding    `json:"findings"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// FindingIndex returns the findings keyed by id
func FindingIndex(findings []Finding) map[string]*Finding {
	index := make(map[string]*Finding, len(findings))
	for i := range findings {
		index[findings[i].ID] = &findings[i]
	}
	return index
}
