package models

import (
	"strings"
	"time"
)

// Severity is the canonical four-level urgency scale for findings
type Severity string

// Severity levels for findings
const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Severities lists every canonical level, most urgent first
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// Rank returns the sort position of a severity (0 = most urgent).
// Unknown severities sort after every known level.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// IsValid reports whether s is one of the canonical levels
func (s Severity) IsValid() bool {
	return s.Rank() < 4
}

// ParseImpact maps a scanner impact (or an already canonical severity) onto
// the canonical scale. Both the axe vocabulary (critical/serious/moderate/minor)
// and the report vocabulary (critical/high/medium/low) are accepted.
func ParseImpact(impact string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(impact)) {
	case "critical", "blocker":
		return SeverityCritical, true
	case "serious", "high":
		return SeverityHigh, true
	case "moderate", "medium":
		return SeverityMedium, true
	case "minor", "low", "info":
		return SeverityLow, true
	default:
		return "", false
	}
}

// Diagnostic records a skipped record inside an otherwise valid input
type Diagnostic struct {
	Source  string `json:"source,omitempty"` // file the record came from
	Route   string `json:"route,omitempty"`
	Index   int    `json:"index"` // position of the record in its collection
	Message string `json:"message"`
}

// AuditReport is one complete, gate-passed audit run
type AuditReport struct {
	RunID           string              `json:"run_id"`
	Timestamp       time.Time           `json:"timestamp"`
	Project         string              `json:"project,omitempty"`
	ScannedRoutes   []string            `json:"scanned_routes"`
	Findings        []Finding           `json:"findings"`
	Gate            *CoverageGateResult `json:"gate"`
	Summary         AuditSummary        `json:"summary"`
	Diagnostics     []Diagnostic        `json:"diagnostics,omitempty"`
	Trend           *Trend              `json:"trend,omitempty"`
	Recommendations []Recommendation    `json:"recommendations"`
	SeverityHints   []SeverityHint      `json:"severity_hints,omitempty"`
}

// AuditSummary provides aggregate statistics across all routes
type AuditSummary struct {
	TotalFindings       int              `json:"total_findings"`
	TotalInstances      int              `json:"total_instances"`
	RoutesScanned       int              `json:"routes_scanned"`
	FindingsBySeverity  map[Severity]int `json:"findings_by_severity"`
	FindingsByRoute     map[string]int   `json:"findings_by_route"`
	FindingsByComponent map[string]int   `json:"findings_by_component"`
	MaxPriority         int              `json:"max_priority"`
}

// Trend represents change between current and previous run
type Trend struct {
	Direction        string    `json:"direction"`      // "improving", "degrading", "stable"
	ChangePercent    float64   `json:"change_percent"` // negative = improvement
	PreviousFindings int       `json:"previous_findings"`
	CurrentFindings  int       `json:"current_findings"`
	ComparedWith     time.Time `json:"compared_with"`
	NewFindings      int       `json:"new_findings"`
	ResolvedFindings int       `json:"resolved_findings"`
	Remaining        int       `json:"remaining_findings"`
}

// Recommendation represents an actionable group of findings to fix
type Recommendation struct {
	Severity  Severity `json:"severity"`
	Component string   `json:"component"`
	Action    string   `json:"action"`
	Impact    string   `json:"impact"`
	Count     int      `json:"count"`
}

// SeverityHint is an advisory note that a finding's severity looks too low
// for what its text describes. Hints never affect the coverage gate.
type SeverityHint struct {
	FindingID string   `json:"finding_id"`
	Declared  Severity `json:"declared"`
	Minimum   Severity `json:"minimum"`
	Reason    string   `json:"reason"`
}

// TrendSummary provides historical trend analysis
type TrendSummary struct {
	TimeRange        string                      `json:"time_range"`
	RunsAnalyzed     int                         `json:"runs_analyzed"`
	FindingSparkline []int                       `json:"finding_sparkline"`
	BySeverity       map[Severity]*SeverityTrend `json:"by_severity"`
}

// SeverityTrend represents the trend for a single severity level
type SeverityTrend struct {
	Severity         Severity `json:"severity"`
	CurrentFindings  int      `json:"current_findings"`
	PreviousFindings int      `json:"previous_findings"`
	Change           int      `json:"change"`
	ChangePercent    float64  `json:"change_percent"`
}
