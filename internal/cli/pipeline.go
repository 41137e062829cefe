package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/aggregator"
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/checklist"
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/collector"
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/config"
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/logging"
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/metrics"
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/policy"
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/reporter"
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/storage"
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/validator"
)

// PipelineConfig holds options for the shared audit pipeline.
type PipelineConfig struct {
	ScanPaths      []string // scan result files, directories, or ** globs
	FindingsFile   string   // previously written finding set; replaces ScanPaths
	SubmissionFile string
	TemplateFile   string // empty selects the embedded checklist
	IDPrefix       string
	Workers        int

	Format      string
	Output      string
	Store       bool
	StorageDir  string
	MetricsFile string
	PolicyDir   string // where the policy search starts; empty means cwd
	Report      reporter.Options

	Stdout io.Writer
	Stderr io.Writer
	Now    func() time.Time
}

func (p PipelineConfig) withDefaults() PipelineConfig {
	if p.Stdout == nil {
		p.Stdout = os.Stdout
	}
	if p.Stderr == nil {
		p.Stderr = os.Stderr
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	if p.Format == "" {
		p.Format = "text"
	}
	if p.IDPrefix == "" {
		p.IDPrefix = aggregator.DefaultIDPrefix
	}
	return p
}

// pipelineFromConfig fills the pipeline options shared by audit and watch
func pipelineFromConfig(c *config.Config) PipelineConfig {
	return PipelineConfig{
		TemplateFile: c.TemplateFile,
		IDPrefix:     c.IDPrefix,
		Workers:      c.Workers,
		Format:       c.Format,
		StorageDir:   c.StorageDir,
		MetricsFile:  c.MetricsFile,
		Report: reporter.Options{
			Project:    c.Project,
			Auditor:    c.Auditor,
			Scope:      c.Scope,
			WCAGTarget: c.WCAGTarget,
		},
	}
}

// findingInput is a normalized, merged finding set and where it came from
type findingInput struct {
	Findings    []models.Finding
	Diagnostics []models.Diagnostic
	Routes      []string
}

// RunPipeline executes the audit pipeline:
// collect → normalize → merge → gate → trend → store → metrics → output → policy.
// Nothing is rendered or stored unless the coverage gate passes.
func RunPipeline(pcfg PipelineConfig) (*models.AuditReport, error) {
	pcfg = pcfg.withDefaults()

	if !config.IsValidFormat(pcfg.Format) {
		return nil, &ValidationError{Message: fmt.Sprintf("unsupported format: %s (use text, json, or markdown)", pcfg.Format)}
	}

	// Step 1: Findings from scans or a finding set
	input, err := loadFindings(pcfg)
	if err != nil {
		logError("Failed to load findings: %v", err)
		return nil, err
	}
	logVerbose("Loaded %d findings across %d routes (%d records skipped)",
		len(input.Findings), len(input.Routes), len(input.Diagnostics))

	// Step 2: Coverage gate
	gate, err := runGate(pcfg.TemplateFile, pcfg.SubmissionFile, input.Findings)
	if err != nil {
		logError("Failed to run coverage gate: %v", err)
		return nil, err
	}

	recorder := metrics.NewRecorder()

	if !gate.GatePassed {
		_ = reporter.NewTextReporter(pcfg.Stderr).GenerateGate(gate)
		recorder.ObserveGate(gate)
		writeMetrics(recorder, pcfg.MetricsFile)
		return nil, &GateFailedError{ErrorCount: len(gate.Errors)}
	}
	logVerbose("Coverage gate passed (%d rows)", len(gate.Rows))

	// Step 3: Assemble the report
	report := buildReport(input, gate, pcfg)

	// Step 4: Trend against the last stored run
	var store *storage.LocalStorage
	if pcfg.Store {
		store, err = openStore(pcfg.StorageDir)
		if err != nil {
			logError("Failed to get storage path: %v", err)
			return nil, err
		}

		if previous, err := store.GetLatestRun(); err == nil {
			logVerbose("Found previous run %s from %s", previous.RunID, previous.Timestamp)
			report.Trend = aggregator.NewTrendAnalyzer().CalculateTrend(report, previous)
		} else {
			logDebug("No previous run found: %v", err)
		}
	}

	// Step 5: Store
	if store != nil {
		info, err := store.SaveRun(report)
		if err != nil {
			logError("Failed to store report: %v", err)
			return nil, err
		}
		logVerbose("Stored run %s in: %s", info.RunID, info.Path)
	}

	// Step 6: Metrics textfile
	recorder.ObserveReport(report)
	writeMetrics(recorder, pcfg.MetricsFile)

	// Step 7: Output
	if err := generateOutput(report, pcfg); err != nil {
		logError("Failed to generate output: %v", err)
		return nil, err
	}

	// Step 8: Policy enforcement (if .a11yhub-policy.yaml exists)
	if err := enforcePolicy(report, pcfg.PolicyDir); err != nil {
		return report, err
	}

	return report, nil
}

// loadFindings reads either a finding set or scan results
func loadFindings(pcfg PipelineConfig) (*findingInput, error) {
	if pcfg.FindingsFile != "" {
		set, err := loadFindingSet(pcfg.FindingsFile)
		if err != nil {
			return nil, err
		}
		return &findingInput{
			Findings:    set.Findings,
			Diagnostics: set.Diagnostics,
			Routes:      routesOfFindings(set.Findings),
		}, nil
	}

	if len(pcfg.ScanPaths) == 0 {
		return nil, &ValidationError{Message: "no scan inputs given (pass paths or --findings)"}
	}
	return collectFindings(pcfg.ScanPaths, pcfg.IDPrefix, pcfg.Workers)
}

// collectFindings reads scan files and runs the normalizer and aggregator
func collectFindings(paths []string, idPrefix string, workers int) (*findingInput, error) {
	c := collector.New(collector.Config{
		MaxConcurrency: workers,
		Logger:         logging.Logger,
	})

	batch, err := c.CollectFromPaths(paths)
	if err != nil {
		return nil, &ValidationError{Message: "failed to collect scan results", Err: err}
	}

	normalized, err := aggregator.NewNormalizer(aggregator.WithIDPrefix(idPrefix)).Normalize(batch)
	if err != nil {
		return nil, &ValidationError{Message: "failed to normalize scan results", Err: err}
	}

	merged := aggregator.New(aggregator.WithIDPrefix(idPrefix)).Merge(normalized.Findings)
	logDebug("Merged %d route findings into %d", len(normalized.Findings), len(merged))

	return &findingInput{
		Findings:    merged,
		Diagnostics: normalized.Diagnostics,
		Routes:      routesOfBatch(batch),
	}, nil
}

// runGate loads the template and submission and validates them
func runGate(templateFile, submissionFile string, findings []models.Finding) (*models.CoverageGateResult, error) {
	tpl, err := checklist.Load(templateFile)
	if err != nil {
		return nil, &ValidationError{Message: "failed to load checklist template", Err: err}
	}
	if submissionFile == "" {
		return nil, &ValidationError{Message: "no coverage submission given (use --coverage)"}
	}
	sub, err := validator.LoadSubmission(submissionFile)
	if err != nil {
		return nil, &ValidationError{Message: "failed to load coverage submission", Err: err}
	}

	logDebug("Validating %d rows against %d template items", len(sub.Rows), len(tpl.Items))
	return validator.Validate(tpl, sub, findings), nil
}

func buildReport(input *findingInput, gate *models.CoverageGateResult, pcfg PipelineConfig) *models.AuditReport {
	report := &models.AuditReport{
		RunID:         newRunID(),
		Timestamp:     pcfg.Now().UTC().Truncate(time.Second),
		Project:       pcfg.Report.Project,
		ScannedRoutes: input.Routes,
		Findings:      input.Findings,
		Gate:          gate,
		Summary:       aggregator.Summarize(input.Findings, len(input.Routes)),
		Diagnostics:   input.Diagnostics,
	}

	report.Recommendations = aggregator.NewRecommendationGenerator().GenerateRecommendations(report.Findings)
	report.SeverityHints = aggregator.NewSeverityGuard().Check(report.Findings)

	logVerbose("Generated %d recommendations, %d severity hints",
		len(report.Recommendations), len(report.SeverityHints))
	return report
}

func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// generateOutput renders the report in the configured format
func generateOutput(report *models.AuditReport, pcfg PipelineConfig) error {
	writer, closeFn, err := openOutput(pcfg.Output, pcfg.Stdout)
	if err != nil {
		return err
	}
	defer closeFn()

	switch pcfg.Format {
	case "text":
		return reporter.NewTextReporter(writer).Generate(report)
	case "json":
		return reporter.NewJSONReporter(writer, true).Generate(report)
	case "markdown":
		return reporter.NewMarkdownReporter(writer, pcfg.Report).Generate(report)
	default:
		return &ValidationError{Message: fmt.Sprintf("unsupported format: %s (use text, json, or markdown)", pcfg.Format)}
	}
}

// openOutput returns the file at path, or fallback when path is empty
func openOutput(path string, fallback io.Writer) (io.Writer, func(), error) {
	if path == "" {
		return fallback, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func enforcePolicy(report *models.AuditReport, dir string) error {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil
		}
		dir = wd
	}

	policyPath := policy.FindPolicyFile(dir)
	if policyPath == "" {
		return nil
	}
	logVerbose("Found policy file: %s", policyPath)

	pol, err := policy.LoadFromFile(policyPath)
	if err != nil {
		logError("Failed to load policy: %v", err)
		return &ValidationError{Message: "invalid policy file", Err: err}
	}

	result := pol.Evaluate(report)
	if result.Pass {
		logVerbose("Policy check passed")
		return nil
	}

	messages := make([]string, 0, len(result.Violations))
	for _, v := range result.Violations {
		logError("Policy violation [%s]: %s", v.Rule, v.Message)
		messages = append(messages, v.Message)
	}
	return &PolicyError{Violations: messages}
}

func writeMetrics(recorder *metrics.Recorder, path string) {
	if path == "" {
		return
	}
	if err := recorder.WriteTextfile(path); err != nil {
		logError("Failed to write metrics: %v", err)
		return
	}
	logVerbose("Wrote metrics to %s", path)
}

// openStore resolves the storage directory the way the config does
func openStore(storageDir string) (*storage.LocalStorage, error) {
	c := config.DefaultConfig()
	if storageDir != "" {
		c.StorageDir = storageDir
	}
	path, err := c.GetStoragePath()
	if err != nil {
		return nil, err
	}
	return storage.NewLocal(path), nil
}

// loadFindingSet reads a {"findings": [...]} file. A missing findings
// collection or a repeated id is fatal; malformed records are dropped with
// a diagnostic.
func loadFindingSet(path string) (*models.FindingSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read findings: %w", err)
	}

	set, err := collector.ParseFindingSet(data, path)
	if err != nil {
		return nil, &ValidationError{Message: "invalid finding set", Err: err}
	}
	for _, d := range set.Diagnostics {
		logVerbose("%s: record #%d: %s", path, d.Index, d.Message)
	}
	return set, nil
}

// loadAuditReport reads a stored run by id prefix, or a report file path
func loadAuditReport(store *storage.LocalStorage, ref string) (*models.AuditReport, error) {
	if _, err := os.Stat(ref); err == nil {
		return storage.LoadReportFile(ref)
	}
	return store.LoadRun(ref)
}

func routesOfBatch(batch *models.ScanBatch) []string {
	seen := make(map[string]bool, len(batch.Routes))
	routes := []string{}
	for _, r := range batch.Routes {
		if r.Route == "" || seen[r.Route] {
			continue
		}
		seen[r.Route] = true
		routes = append(routes, r.Route)
	}
	sort.Strings(routes)
	return routes
}

func routesOfFindings(findings []models.Finding) []string {
	seen := make(map[string]bool)
	routes := []string{}
	add := func(route string) {
		if route != "" && !seen[route] {
			seen[route] = true
			routes = append(routes, route)
		}
	}
	for _, f := range findings {
		add(f.Route)
		for _, r := range f.AffectedRoutes {
			add(r)
		}
	}
	sort.Strings(routes)
	return routes
}
