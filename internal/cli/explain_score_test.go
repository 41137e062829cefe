package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/storage"
)

func scoredFindings() []models.Finding {
	return []models.Finding{
		{ID: "A11Y-001", RuleID: "image-alt", Title: "Images must have alternate text", Severity: models.SeverityCritical,
			Route: "/", URL: "https://example.com/", Selectors: []string{"img.hero"},
			Instances: 3, FixAvailable: true, PriorityScore: 90},
		{ID: "A11Y-002", RuleID: "label", Title: "Form elements must have labels", Severity: models.SeverityHigh,
			Route: "/contact", URL: "https://example.com/contact", Selectors: []string{"#email"},
			Instances: 1, PriorityScore: 45},
		{ID: "A11Y-003", RuleID: "link-name", Title: "Links must have discernible text", Severity: models.SeverityLow,
			Route: "/", URL: "https://example.com/", Selectors: []string{"footer a"},
			Instances: 7, PriorityScore: 99},
	}
}

func resetExplainFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		explainFormat = "text"
		explainRun = ""
		explainFindings = ""
	})
	explainFormat = "text"
}

func TestExplainFinding(t *testing.T) {
	tests := []struct {
		name    string
		finding models.Finding
		band    int
		inst    int
		bonus   int
		total   int
		formula string
	}{
		{"critical with fix", scoredFindings()[0], 50, 20, 20, 90, "min(100, 50 + 20 + 20) = 90"},
		{"high single", scoredFindings()[1], 35, 10, 0, 45, "min(100, 35 + 10 + 0) = 45"},
		{"low capped instances", scoredFindings()[2], 5, 30, 0, 35, "min(100, 5 + 30 + 0) = 35"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := explainFinding(tt.finding)
			assert.Equal(t, tt.band, e.Breakdown.SeverityBand)
			assert.Equal(t, tt.inst, e.Breakdown.InstanceScore)
			assert.Equal(t, tt.bonus, e.Breakdown.FixBonus)
			assert.Equal(t, tt.total, e.Breakdown.Total)
			assert.Equal(t, tt.formula, e.Formula)
		})
	}
}

func TestExplainFindingIDs(t *testing.T) {
	findings := scoredFindings()

	all, err := explainFindingIDs(findings, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	some, err := explainFindingIDs(findings, []string{"A11Y-002", " A11Y-001 "})
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, "A11Y-002", some[0].FindingID)
	assert.Equal(t, "A11Y-001", some[1].FindingID)

	_, err = explainFindingIDs(findings, []string{"A11Y-001", "A11Y-404"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "A11Y-404")
	assert.Equal(t, ExitInvalidInput, HandleError(err))
}

func TestWriteExplainText(t *testing.T) {
	explanations, err := explainFindingIDs(scoredFindings(), nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeExplainText(&buf, explanations))
	out := buf.String()

	assert.Contains(t, out, "A11Y-001  Images must have alternate text")
	assert.Contains(t, out, "Severity band:   50  (critical)")
	assert.Contains(t, out, "(remediation attached)")
	assert.Contains(t, out, "(no remediation)")
	// A11Y-003 was stored with a score its inputs do not produce
	assert.Equal(t, 1, strings.Count(out, "Note: stored score is"))
	assert.Contains(t, out, "Note: stored score is 99")

	buf.Reset()
	require.NoError(t, writeExplainText(&buf, nil))
	assert.Equal(t, "No findings to explain.\n", buf.String())
}

func TestRunExplainScoreFromFindingsFile(t *testing.T) {
	withTestConfig(t, testConfig(t))
	resetExplainFlags(t)

	data, err := json.Marshal(models.FindingSet{Findings: scoredFindings()})
	require.NoError(t, err)
	explainFindings = writeFile(t, t.TempDir(), "findings.json", string(data))
	explainFormat = "json"

	cmd, stdout, _ := newTestCmd()
	require.NoError(t, runExplainScore(cmd, []string{"A11Y-002"}))

	var decoded []scoreExplanation
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, 45, decoded[0].Breakdown.Total)
	assert.Equal(t, 45, decoded[0].Stored)
}

func TestRunExplainScoreLatestRun(t *testing.T) {
	c := testConfig(t)
	withTestConfig(t, c)
	resetExplainFlags(t)

	store := storage.NewLocal(c.StorageDir)
	_, err := store.SaveRun(&models.AuditReport{
		RunID:     "0192cccc-0000-7000-8000-000000000003",
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Findings:  scoredFindings(),
	})
	require.NoError(t, err)

	cmd, stdout, _ := newTestCmd()
	require.NoError(t, runExplainScore(cmd, []string{"A11Y-001"}))
	assert.Contains(t, stdout.String(), "min(100, 50 + 20 + 20) = 90")

	explainRun = "0192cccc"
	cmd, stdout, _ = newTestCmd()
	require.NoError(t, runExplainScore(cmd, nil))
	assert.Contains(t, stdout.String(), "A11Y-003")
}

func TestRunExplainScoreErrors(t *testing.T) {
	withTestConfig(t, testConfig(t))
	resetExplainFlags(t)

	cmd, _, _ := newTestCmd()
	assert.Error(t, runExplainScore(cmd, nil), "no stored runs")

	explainFormat = "yaml"
	err := runExplainScore(cmd, nil)
	assert.Equal(t, ExitInvalidInput, HandleError(err))
}
