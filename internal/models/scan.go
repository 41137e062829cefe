package models

// ScanBatch is the complete set of per-route results handed to the
// normalizer for one audit run
type ScanBatch struct {
	Routes      []RouteScanResult `json:"routes"`
	Diagnostics []Diagnostic      `json:"diagnostics,omitempty"` // records skipped while parsing
}

// RouteScanResult is the scanner output for a single audited page
type RouteScanResult struct {
	Route      string         `json:"route"`
	URL        string         `json:"url"`
	Violations []RawViolation `json:"violations"`
	Metadata   map[string]int `json:"metadata,omitempty"` // structural counts (h1_count, main_count)
	Source     string         `json:"-"`
}

// RawViolation is one rule violation as reported by the scanner
type RawViolation struct {
	RuleID      string          `json:"id"`
	Impact      string          `json:"impact"`
	Description string          `json:"description"`
	Help        string          `json:"help"`
	HelpURL     string          `json:"helpUrl,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	Nodes       []ViolationNode `json:"nodes"`
	Fix         *Remediation    `json:"fix,omitempty"`
}

// ViolationNode is a single DOM element that failed a rule
type ViolationNode struct {
	Target         string `json:"target"`
	HTML           string `json:"html"`
	FailureSummary string `json:"failureSummary,omitempty"`
}

// Remediation is a concrete fix attached to a violation by the ingestor
type Remediation struct {
	Description string `json:"description"`
	Code        string `json:"code,omitempty"`
}

// HasFix reports whether r carries a usable remediation
func (r *Remediation) HasFix() bool {
	return r != nil && (r.Description != "" || r.Code != "")
}

// Structural metadata keys understood by the normalizer
const (
	MetaH1Count   = "h1_count"
	MetaMainCount = "main_count"
)
