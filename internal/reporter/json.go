package reporter

import (
	"encoding/json"
	"io"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
)

// JSONReporter generates machine-readable JSON reports
type JSONReporter struct {
	writer io.Writer
	pretty bool
}

// NewJSONReporter creates a new JSON reporter
func NewJSONReporter(writer io.Writer, pretty bool) *JSONReporter {
	return &JSONReporter{
		writer: writer,
		pretty: pretty,
	}
}

// Generate writes the full audit report
func (r *JSONReporter) Generate(report *models.AuditReport) error {
	if err := CheckGate(report); err != nil {
		return err
	}
	return r.write(report)
}

// GenerateSummaryOnly writes the report without finding evidence
func (r *JSONReporter) GenerateSummaryOnly(report *models.AuditReport) error {
	if err := CheckGate(report); err != nil {
		return err
	}

	summary := struct {
		RunID           string                  `json:"run_id"`
		Timestamp       string                  `json:"timestamp"`
		Project         string                  `json:"project,omitempty"`
		Summary         models.AuditSummary     `json:"summary"`
		Tallies         models.StatusTallies    `json:"tallies"`
		Trend           *models.Trend           `json:"trend,omitempty"`
		Recommendations []models.Recommendation `json:"recommendations"`
	}{
		RunID:           report.RunID,
		Timestamp:       report.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		Project:         report.Project,
		Summary:         report.Summary,
		Tallies:         report.Gate.Tallies,
		Trend:           report.Trend,
		Recommendations: report.Recommendations,
	}

	return r.write(summary)
}

// GenerateFindings writes a {"findings": [...]} set. Finding sets are
// intermediate artifacts and are not gated.
func (r *JSONReporter) GenerateFindings(set *models.FindingSet) error {
	if set.Findings == nil {
		set.Findings = []models.Finding{}
	}
	return r.write(set)
}

// GenerateGate writes a gate result regardless of its outcome
func (r *JSONReporter) GenerateGate(result *models.CoverageGateResult) error {
	return r.write(result)
}

func (r *JSONReporter) write(v interface{}) error {
	var data []byte
	var err error

	if r.pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return err
	}

	if _, err = r.writer.Write(data); err != nil {
		return err
	}

	// Add trailing newline for terminal output
	_, err = r.writer.Write([]byte("\n"))
	return err
}
