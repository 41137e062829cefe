package aggregator

import (
	"fmt"
	"strings"
	"time"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
)

// FindingDelta splits two finding sets by fingerprint. Ids are run-local,
// so they are never used to match findings across runs.
type FindingDelta struct {
	New       []models.Finding `json:"new"`
	Resolved  []models.Finding `json:"resolved"`
	Remaining []models.Finding `json:"remaining"`
}

// CompareFindings matches current findings against previous ones
func CompareFindings(previous, current []models.Finding) *FindingDelta {
	delta := &FindingDelta{
		New:       []models.Finding{},
		Resolved:  []models.Finding{},
		Remaining: []models.Finding{},
	}

	prevSet := make(map[string]bool, len(previous))
	for _, f := range previous {
		prevSet[fingerprintOf(&f)] = true
	}
	currSet := make(map[string]bool, len(current))
	for _, f := range current {
		fp := fingerprintOf(&f)
		currSet[fp] = true
		if prevSet[fp] {
			delta.Remaining = append(delta.Remaining, f)
		} else {
			delta.New = append(delta.New, f)
		}
	}
	for _, f := range previous {
		if !currSet[fingerprintOf(&f)] {
			delta.Resolved = append(delta.Resolved, f)
		}
	}

	return delta
}

func fingerprintOf(f *models.Finding) string {
	if f.Fingerprint != "" {
		return f.Fingerprint
	}
	return Fingerprint(f.RuleID, f.Selectors)
}

// TrendAnalyzer analyzes trends across multiple runs
type TrendAnalyzer struct{}

// NewTrendAnalyzer creates a new trend analyzer
func NewTrendAnalyzer() *TrendAnalyzer {
	return &TrendAnalyzer{}
}

// CalculateTrend compares the current run with the previous one
func (t *TrendAnalyzer) CalculateTrend(current, previous *models.AuditReport) *models.Trend {
	if previous == nil {
		return nil
	}

	delta := CompareFindings(previous.Findings, current.Findings)
	trend := &models.Trend{
		PreviousFindings: previous.Summary.TotalFindings,
		CurrentFindings:  current.Summary.TotalFindings,
		ComparedWith:     previous.Timestamp,
		NewFindings:      len(delta.New),
		ResolvedFindings: len(delta.Resolved),
		Remaining:        len(delta.Remaining),
	}

	change := trend.CurrentFindings - trend.PreviousFindings
	if trend.PreviousFindings > 0 {
		trend.ChangePercent = float64(change) / float64(trend.PreviousFindings) * 100.0
	}

	switch {
	case change < 0:
		trend.Direction = "improving"
	case change > 0:
		trend.Direction = "degrading"
	default:
		trend.Direction = "stable"
	}

	return trend
}

// AnalyzeLastNRuns analyzes trends across runs ordered oldest first
func (t *TrendAnalyzer) AnalyzeLastNRuns(runs []*models.AuditReport) *models.TrendSummary {
	if len(runs) == 0 {
		return nil
	}

	summary := &models.TrendSummary{
		RunsAnalyzed: len(runs),
		BySeverity:   make(map[models.Severity]*models.SeverityTrend),
	}

	if len(runs) > 1 {
		earliest := runs[0].Timestamp
		latest := runs[len(runs)-1].Timestamp
		days := int(latest.Sub(earliest).Hours() / 24)
		summary.TimeRange = fmt.Sprintf("Last %d days", days)
	} else {
		summary.TimeRange = "Single run"
	}

	summary.FindingSparkline = make([]int, len(runs))
	for i, run := range runs {
		summary.FindingSparkline[i] = run.Summary.TotalFindings
	}

	if len(runs) >= 2 {
		t.calculateSeverityTrends(runs[0], runs[len(runs)-1], summary)
	}

	return summary
}

// calculateSeverityTrends compares per-severity counts of the first and last run
func (t *TrendAnalyzer) calculateSeverityTrends(earliest, latest *models.AuditReport, summary *models.TrendSummary) {
	for _, severity := range models.Severities {
		previousCount := earliest.Summary.FindingsBySeverity[severity]
		currentCount := latest.Summary.FindingsBySeverity[severity]
		change := currentCount - previousCount

		changePercent := 0.0
		if previousCount > 0 {
			changePercent = float64(change) / float64(previousCount) * 100.0
		} else if currentCount > 0 {
			changePercent = 100.0
		}

		summary.BySeverity[severity] = &models.SeverityTrend{
			Severity:         severity,
			CurrentFindings:  currentCount,
			PreviousFindings: previousCount,
			Change:           change,
			ChangePercent:    changePercent,
		}
	}
}

// GenerateComparisonReport creates a plain-text comparison between two runs
func (t *TrendAnalyzer) GenerateComparisonReport(current, previous *models.AuditReport) string {
	if previous == nil {
		return "No previous run to compare with"
	}

	trend := t.CalculateTrend(current, previous)

	var b strings.Builder
	fmt.Fprintf(&b, "Comparison: %s vs %s\n\n", formatDate(current.Timestamp), formatDate(previous.Timestamp))
	fmt.Fprintf(&b, "Overall: %d → %d findings (%.1f%% %s)\n\n",
		trend.PreviousFindings, trend.CurrentFindings, trend.ChangePercent, trend.Direction)

	for _, s := range models.Severities {
		prevCount := previous.Summary.FindingsBySeverity[s]
		currCount := current.Summary.FindingsBySeverity[s]
		if prevCount == currCount {
			continue
		}
		fmt.Fprintf(&b, "%s: %d → %d (%+d)\n", s, prevCount, currCount, currCount-prevCount)
	}

	if trend.NewFindings > 0 {
		fmt.Fprintf(&b, "\nNew findings: %d\n", trend.NewFindings)
	}
	if trend.ResolvedFindings > 0 {
		fmt.Fprintf(&b, "\nResolved findings: %d\n", trend.ResolvedFindings)
	}

	return b.String()
}

// formatDate formats a timestamp for display
func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// GetTrendIndicator returns a visual indicator for trend direction
func GetTrendIndicator(direction string) string {
	switch direction {
	case "improving":
		return "↓"
	case "degrading":
		return "↑"
	case "stable":
		return "→"
	default:
		return "?"
	}
}
