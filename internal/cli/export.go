package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
)

var (
	exportFormat string
	exportOutput string
	exportLastN  int
	exportRun    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored findings for tracking and code scanning",
	Long: `Export findings from stored audit runs. Only gate-passed runs are ever
stored, so every export reflects a complete audit.

Supported formats:
  csv    Tabular format for spreadsheets and issue trackers
  json   Structured JSON for programmatic consumption
  sarif  SARIF 2.1.0 for GitHub code scanning

Example:
  a11yhub export --format csv -o findings.csv
  a11yhub export --format sarif -o results.sarif
  a11yhub export --format json --last 5
  a11yhub export --run 0192f3 --format csv`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv",
		"output format: csv, json, or sarif")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "",
		"write output to file (default: stdout)")
	exportCmd.Flags().IntVarP(&exportLastN, "last", "n", 1,
		"number of recent runs to include")
	exportCmd.Flags().StringVar(&exportRun, "run", "",
		"export one stored run by id or id prefix")
}

// ExportRecord is a single row in the export.
type ExportRecord struct {
	RunID         string `json:"run_id"`
	RunTimestamp  string `json:"run_timestamp"`
	FindingID     string `json:"finding_id"`
	RuleID        string `json:"rule_id"`
	Title         string `json:"title"`
	Severity      string `json:"severity"`
	WCAG          string `json:"wcag"`
	WCAGLevel     string `json:"wcag_level"`
	Area          string `json:"area"`
	PagesAffected int    `json:"pages_affected"`
	Instances     int    `json:"instances"`
	PriorityScore int    `json:"priority_score"`
	Component     string `json:"component"`
	FixAvailable  bool   `json:"fix_available"`
	HelpURL       string `json:"help_url"`
	Fingerprint   string `json:"fingerprint"`
}

// FindingsExport is the full export payload.
type FindingsExport struct {
	ExportedAt   string         `json:"exported_at"`
	RunCount     int            `json:"run_count"`
	FindingCount int            `json:"finding_count"`
	Records      []ExportRecord `json:"records"`
}

func runExport(cmd *cobra.Command, args []string) error {
	switch exportFormat {
	case "csv", "json", "sarif":
	default:
		return &ValidationError{Message: fmt.Sprintf("unsupported format: %s (use csv, json, or sarif)", exportFormat)}
	}

	store, err := openStore(cfg.StorageDir)
	if err != nil {
		logError("Failed to get storage path: %v", err)
		return err
	}

	var reports []*models.AuditReport
	if exportRun != "" {
		report, err := loadAuditReport(store, exportRun)
		if err != nil {
			logError("Failed to load run: %v", err)
			return err
		}
		reports = []*models.AuditReport{report}
	} else {
		reports, err = store.GetLastNRuns(exportLastN)
		if err != nil || len(reports) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No stored runs found. Run 'a11yhub audit' first.")
			return nil
		}
	}

	logVerbose("Exporting %d runs", len(reports))

	writer, closeFn, err := openOutput(exportOutput, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeFn()

	switch exportFormat {
	case "csv":
		return writeCSV(writer, buildFindingsExport(reports, time.Now()))
	case "json":
		return writeExportJSON(writer, buildFindingsExport(reports, time.Now()))
	default:
		return writeSARIF(writer, reports)
	}
}

func buildFindingsExport(reports []*models.AuditReport, now time.Time) *FindingsExport {
	records := []ExportRecord{}

	for _, report := range reports {
		ts := report.Timestamp.UTC().Format(time.RFC3339)
		for _, f := range report.Findings {
			records = append(records, ExportRecord{
				RunID:         report.RunID,
				RunTimestamp:  ts,
				FindingID:     f.ID,
				RuleID:        f.RuleID,
				Title:         f.Title,
				Severity:      string(f.Severity),
				WCAG:          f.WCAG,
				WCAGLevel:     f.WCAGLevel,
				Area:          f.Route,
				PagesAffected: f.PagesAffected,
				Instances:     f.Instances,
				PriorityScore: f.PriorityScore,
				Component:     f.Component,
				FixAvailable:  f.FixAvailable,
				HelpURL:       f.HelpURL,
				Fingerprint:   f.Fingerprint,
			})
		}
	}

	// Severity first, then run, then finding id
	sort.SliceStable(records, func(i, j int) bool {
		si := models.Severity(records[i].Severity).Rank()
		sj := models.Severity(records[j].Severity).Rank()
		if si != sj {
			return si < sj
		}
		if records[i].RunTimestamp != records[j].RunTimestamp {
			return records[i].RunTimestamp < records[j].RunTimestamp
		}
		return records[i].FindingID < records[j].FindingID
	})

	return &FindingsExport{
		ExportedAt:   now.UTC().Format(time.RFC3339),
		RunCount:     len(reports),
		FindingCount: len(records),
		Records:      records,
	}
}

func writeCSV(w io.Writer, export *FindingsExport) error {
	writer := csv.NewWriter(w)

	header := []string{
		"run_id", "run_timestamp", "finding_id", "rule_id", "title", "severity",
		"wcag", "wcag_level", "area", "pages_affected", "instances",
		"priority_score", "component", "fix_available", "help_url", "fingerprint",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, r := range export.Records {
		row := []string{
			r.RunID, r.RunTimestamp, r.FindingID, r.RuleID, r.Title, r.Severity,
			r.WCAG, r.WCAGLevel, r.Area, strconv.Itoa(r.PagesAffected), strconv.Itoa(r.Instances),
			strconv.Itoa(r.PriorityScore), r.Component, strconv.FormatBool(r.FixAvailable), r.HelpURL, r.Fingerprint,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeExportJSON(w io.Writer, export *FindingsExport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(export)
}

// SARIF 2.1.0 output for code scanning integrations.
// Minimal structures, only what's needed for valid SARIF.

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string             `json:"id"`
	ShortDescription sarifMessage       `json:"shortDescription"`
	HelpURI          string             `json:"helpUri,omitempty"`
	DefaultConfig    sarifDefaultConfig `json:"defaultConfiguration"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	Level               string            `json:"level"`
	Message             sarifMessage      `json:"message"`
	Locations           []sarifLocation   `json:"locations"`
	PartialFingerprints map[string]string `json:"partialFingerprints,omitempty"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysical `json:"physicalLocation"`
}

type sarifPhysical struct {
	ArtifactLocation sarifArtifact `json:"artifactLocation"`
}

type sarifArtifact struct {
	URI string `json:"uri"`
}

func writeSARIF(w io.Writer, reports []*models.AuditReport) error {
	rulesMap := map[string]sarifRule{}
	results := []sarifResult{}

	for _, report := range reports {
		for _, f := range report.Findings {
			level := sarifLevel(f.Severity)
			rule, exists := rulesMap[f.RuleID]
			if !exists || levelRank(level) < levelRank(rule.DefaultConfig.Level) {
				rulesMap[f.RuleID] = sarifRule{
					ID:               f.RuleID,
					ShortDescription: sarifMessage{Text: f.Title},
					HelpURI:          f.HelpURL,
					DefaultConfig:    sarifDefaultConfig{Level: level},
				}
			}

			result := sarifResult{
				RuleID:    f.RuleID,
				Level:     level,
				Message:   sarifMessage{Text: formatFindingMessage(f)},
				Locations: findingLocations(f),
			}
			if f.Fingerprint != "" {
				result.PartialFingerprints = map[string]string{"a11yhubFingerprint/v1": f.Fingerprint}
			}
			results = append(results, result)
		}
	}

	rules := make([]sarifRule, 0, len(rulesMap))
	for _, r := range rulesMap {
		rules = append(rules, r)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })

	log := sarifLog{
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool: sarifTool{
				Driver: sarifDriver{
					Name:           "a11yhub",
					Version:        Version,
					InformationURI: "https://www.w3.org/WAI/standards-guidelines/wcag/",
					Rules:          rules,
				},
			},
			Results: results,
		}},
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(log)
}

func sarifLevel(severity models.Severity) string {
	switch severity {
	case models.SeverityCritical, models.SeverityHigh:
		return "error"
	case models.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}

func levelRank(level string) int {
	switch level {
	case "error":
		return 0
	case "warning":
		return 1
	default:
		return 2
	}
}

// findingLocations lists one location per affected page
func findingLocations(f models.Finding) []sarifLocation {
	urls := f.AffectedURLs
	if len(urls) == 0 && f.URL != "" {
		urls = []string{f.URL}
	}
	locations := make([]sarifLocation, 0, len(urls))
	for _, u := range urls {
		locations = append(locations, sarifLocation{
			PhysicalLocation: sarifPhysical{ArtifactLocation: sarifArtifact{URI: u}},
		})
	}
	return locations
}

func formatFindingMessage(f models.Finding) string {
	parts := []string{fmt.Sprintf("%s: %s", f.ID, f.Title)}
	if f.WCAG != "" {
		parts = append(parts, "WCAG "+f.WCAG)
	}
	if len(f.Selectors) > 0 {
		parts = append(parts, "Selectors: "+strings.Join(f.Selectors, ", "))
	}
	return strings.Join(parts, ". ")
}
