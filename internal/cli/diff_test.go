package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/storage"
)

var (
	imageAlt = models.Finding{
		ID: "A11Y-001", RuleID: "image-alt", Title: "Images must have alternate text",
		Severity: models.SeverityCritical, Fingerprint: "image-alt|img.hero",
		AffectedRoutes: []string{"/", "/about"}, Instances: 2, PriorityScore: 66,
	}
	contrast = models.Finding{
		ID: "A11Y-002", RuleID: "color-contrast", Title: "Elements must meet minimum color contrast",
		Severity: models.SeverityHigh, Fingerprint: "color-contrast|.btn-primary",
		AffectedRoutes: []string{"/"}, Instances: 1, PriorityScore: 45,
	}
	labels = models.Finding{
		ID: "A11Y-003", RuleID: "label", Title: "Form elements must have labels",
		Severity: models.SeverityHigh, Fingerprint: "label|input#email",
		AffectedRoutes: []string{"/contact"}, Instances: 1, PriorityScore: 45,
	}
)

func reportWith(id string, ts time.Time, findings ...models.Finding) *models.AuditReport {
	return &models.AuditReport{
		RunID:     id,
		Timestamp: ts,
		Findings:  findings,
		Summary:   models.AuditSummary{TotalFindings: len(findings)},
	}
}

func resetDiffFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		diffFormat = "text"
		diffOutput = ""
		diffBaseline = ""
		diffCurrent = ""
		diffFailNew = false
	})
	diffFormat = "text"
}

func TestComputeDiff(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	baseline := reportWith("run-a", t0, imageAlt, contrast)

	// renumbered ids still match on fingerprint
	renumbered := contrast
	renumbered.ID = "A11Y-001"
	current := reportWith("run-b", t0.Add(24*time.Hour), renumbered, labels)

	result := computeDiff(baseline, current)

	if result.Summary.NewCount != 1 || result.New[0].RuleID != "label" {
		t.Errorf("new = %+v", result.New)
	}
	if result.Summary.ResolvedCount != 1 || result.Resolved[0].RuleID != "image-alt" {
		t.Errorf("resolved = %+v", result.Resolved)
	}
	if result.Summary.RemainingCount != 1 || result.Remaining[0].RuleID != "color-contrast" {
		t.Errorf("remaining = %+v", result.Remaining)
	}
	if result.Summary.Delta != 0 {
		t.Errorf("delta = %d, want 0", result.Summary.Delta)
	}
	if result.Summary.NewBySeverity[models.SeverityHigh] != 1 {
		t.Errorf("new by severity = %v", result.Summary.NewBySeverity)
	}
	if result.Baseline != "2026-03-01 12:00:00 (run-a)" {
		t.Errorf("baseline label = %q", result.Baseline)
	}
}

func TestComputeDiffNoChange(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	result := computeDiff(reportWith("a", t0, imageAlt), reportWith("b", t0, imageAlt))

	if result.Summary.NewCount != 0 || result.Summary.ResolvedCount != 0 || result.Summary.RemainingCount != 1 {
		t.Errorf("summary = %+v", result.Summary)
	}
}

func TestPrintDiffText(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		baseline *models.AuditReport
		current  *models.AuditReport
		want     []string
		notWant  []string
	}{
		{
			name:     "new and resolved",
			baseline: reportWith("a", t0, imageAlt),
			current:  reportWith("b", t0, contrast, labels),
			want: []string{
				"a11yhub Re-audit Diff",
				"Findings: 1 -> 2 (+1)",
				"New: 2   Resolved: 1   Remaining: 0",
				"New Findings:",
				"[HIGH] A11Y-003 Form elements must have labels (/contact)",
				"Resolved Findings:",
				"+ A11Y-001 Images must have alternate text",
				"HIGH: 2",
			},
			notWant: []string{"No change since baseline."},
		},
		{
			name:     "only fixes",
			baseline: reportWith("a", t0, imageAlt, contrast),
			current:  reportWith("b", t0, contrast),
			want:     []string{"Findings: 2 -> 1 (-1)", "No new findings, only fixes."},
			notWant:  []string{"New Findings:"},
		},
		{
			name:     "unchanged",
			baseline: reportWith("a", t0, contrast),
			current:  reportWith("b", t0, contrast),
			want:     []string{"Remaining Findings:", "No change since baseline."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := printDiffText(&buf, computeDiff(tt.baseline, tt.current)); err != nil {
				t.Fatalf("printDiffText: %v", err)
			}
			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("output should not contain %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestOutputDiffJSON(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	if err := outputDiff(&buf, computeDiff(reportWith("a", t0), reportWith("b", t0, labels)), "json"); err != nil {
		t.Fatalf("outputDiff: %v", err)
	}

	var decoded DiffResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Summary.NewCount != 1 || len(decoded.New) != 1 {
		t.Errorf("decoded = %+v", decoded.Summary)
	}

	if err := outputDiff(&buf, &DiffResult{}, "yaml"); HandleError(err) != ExitInvalidInput {
		t.Errorf("unknown format should be an input error, got %v", err)
	}
}

func TestRunDiffStoredRuns(t *testing.T) {
	c := testConfig(t)
	withTestConfig(t, c)
	resetDiffFlags(t)

	store := storage.NewLocal(c.StorageDir)
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, r := range []*models.AuditReport{
		reportWith("0192aaaa-0000-7000-8000-000000000001", t0, imageAlt, contrast),
		reportWith("0192bbbb-0000-7000-8000-000000000002", t0.Add(time.Hour), contrast, labels),
	} {
		if _, err := store.SaveRun(r); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}

	cmd, stdout, _ := newTestCmd()
	if err := runDiff(cmd, nil); err != nil {
		t.Fatalf("runDiff: %v", err)
	}
	if !strings.Contains(stdout.String(), "New: 1   Resolved: 1   Remaining: 1") {
		t.Errorf("unexpected diff output:\n%s", stdout.String())
	}

	// --fail-new turns new findings into a gate failure
	diffFailNew = true
	cmd, _, _ = newTestCmd()
	err := runDiff(cmd, nil)
	var newErr *NewFindingsError
	if !errors.As(err, &newErr) || newErr.Count != 1 {
		t.Fatalf("expected NewFindingsError{1}, got %v", err)
	}
	if HandleError(err) != ExitGateFail {
		t.Errorf("exit code = %d", HandleError(err))
	}

	// Explicit baseline by id prefix, current from a report file
	diffFailNew = false
	diffBaseline = "0192bbbb"
	diffCurrent = writeReportFile(t, reportWith("file-run", t0.Add(2*time.Hour), labels))
	diffFormat = "json"
	cmd, stdout, _ = newTestCmd()
	if err := runDiff(cmd, nil); err != nil {
		t.Fatalf("runDiff with refs: %v", err)
	}
	var decoded DiffResult
	if err := json.Unmarshal(stdout.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Summary.ResolvedCount != 1 || decoded.Summary.RemainingCount != 1 || decoded.Summary.NewCount != 0 {
		t.Errorf("summary = %+v", decoded.Summary)
	}
}

func TestRunDiffNeedsTwoRuns(t *testing.T) {
	withTestConfig(t, testConfig(t))
	resetDiffFlags(t)

	cmd, stdout, _ := newTestCmd()
	if err := runDiff(cmd, nil); err != nil {
		t.Fatalf("runDiff: %v", err)
	}
	if !strings.Contains(stdout.String(), "Need at least 2 stored runs for diff.") {
		t.Errorf("output = %q", stdout.String())
	}
}

func writeReportFile(t *testing.T, report *models.AuditReport) string {
	t.Helper()
	data, err := json.Marshal(report)
	if err != nil {
		t.Fatal(err)
	}
	return writeFile(t, t.TempDir(), "report.json", string(data))
}
