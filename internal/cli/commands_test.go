package cli

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/checklist"
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/collector"
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/validator"
)

func resetGateFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		gateCoverage = ""
		gateFindings = ""
		gateTemplate = ""
		gateFormat = "text"
	})
	gateFormat = "text"
}

func TestRunGateCmdPasses(t *testing.T) {
	c := testConfig(t)
	f := newAuditFixture(t, testCoverage)
	c.MetricsFile = filepath.Join(f.Dir, "gate.prom")
	withTestConfig(t, c)
	resetGateFlags(t)

	gateCoverage = f.Coverage
	gateTemplate = f.Template

	cmd, stdout, _ := newTestCmd()
	require.NoError(t, runGateCmd(cmd, []string{f.Scan}))
	assert.Contains(t, stdout.String(), "Coverage gate: PASSED")

	data, err := os.ReadFile(c.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "a11yhub_gate_passed 1")
}

func TestRunGateCmdFails(t *testing.T) {
	withTestConfig(t, testConfig(t))
	resetGateFlags(t)
	f := newAuditFixture(t, testCoverageIncomplete)

	gateCoverage = f.Coverage
	gateTemplate = f.Template
	gateFormat = "json"

	cmd, stdout, _ := newTestCmd()
	err := runGateCmd(cmd, []string{f.Scan})

	var gateErr *GateFailedError
	require.True(t, errors.As(err, &gateErr), "got %v", err)
	assert.Equal(t, ExitGateFail, HandleError(err))

	// The full result is still written
	var result models.CoverageGateResult
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
	assert.False(t, result.GatePassed)
	assert.Equal(t, gateErr.ErrorCount, len(result.Errors))

	codes := map[string]bool{}
	for _, e := range result.Errors {
		codes[e.Code] = true
	}
	assert.True(t, codes[validator.CodeMissingItem])
	assert.True(t, codes[validator.CodeDanglingFindingID])
	assert.True(t, codes[validator.CodeMissingTool])
}

func TestRunGateCmdInputErrors(t *testing.T) {
	withTestConfig(t, testConfig(t))
	resetGateFlags(t)
	f := newAuditFixture(t, testCoverage)

	// no coverage
	cmd, _, _ := newTestCmd()
	err := runGateCmd(cmd, []string{f.Scan})
	assert.Equal(t, ExitInvalidInput, HandleError(err))

	gateCoverage = f.Coverage
	gateFormat = "xml"
	err = runGateCmd(cmd, []string{f.Scan})
	assert.Equal(t, ExitInvalidInput, HandleError(err))
}

const validFinding = `{"id": "A11Y-001", "rule_id": "image-alt", "title": "Images must have alternate text",
  "severity": "critical", "area": "/", "url": "https://example.com/", "selectors": ["img.hero"]}`

func TestLoadFindingSetSkipsMalformedRecords(t *testing.T) {
	path := writeFile(t, t.TempDir(), "set.json",
		`{"findings": [{"id": "A11Y-001", "severity": "bogus"}, {"id": "A11Y-001"}, {"id": ""}]}`)

	set, err := loadFindingSet(path)
	require.NoError(t, err)
	assert.Empty(t, set.Findings)
	require.Len(t, set.Diagnostics, 3)
	assert.Contains(t, set.Diagnostics[0].Message, `unrecognized severity "bogus"`)
	assert.Contains(t, set.Diagnostics[1].Message, "missing title")
	assert.Contains(t, set.Diagnostics[2].Message, "missing id")
}

func TestRunGateCmdWithFindingsFile(t *testing.T) {
	withTestConfig(t, testConfig(t))
	resetGateFlags(t)
	f := newAuditFixture(t, testCoverage)

	gateCoverage = f.Coverage
	gateTemplate = f.Template
	gateFormat = "json"

	t.Run("malformed record is not referenceable", func(t *testing.T) {
		gateFindings = writeFile(t, f.Dir, "malformed.json", `{"findings": [`+validFinding+`,
  {"id": "A11Y-002", "title": "Contrast", "severity": "bogus", "area": "/", "url": "https://example.com/", "selectors": ["a"]}]}`)

		cmd, stdout, _ := newTestCmd()
		err := runGateCmd(cmd, nil)
		assert.Equal(t, ExitGateFail, HandleError(err))

		var result models.CoverageGateResult
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
		require.Len(t, result.Errors, 1)
		assert.Equal(t, validator.CodeDanglingFindingID, result.Errors[0].Code)
		assert.Contains(t, result.Errors[0].Message, "A11Y-002")
	})

	t.Run("duplicate id is fatal", func(t *testing.T) {
		gateFindings = writeFile(t, f.Dir, "duplicate.json", `{"findings": [`+validFinding+`, `+validFinding+`]}`)

		cmd, stdout, _ := newTestCmd()
		err := runGateCmd(cmd, nil)
		assert.True(t, errors.Is(err, collector.ErrDuplicateFindingID), "got %v", err)
		assert.Equal(t, ExitInvalidInput, HandleError(err))
		assert.Empty(t, stdout.String())
	})
}

func TestRunFindings(t *testing.T) {
	withTestConfig(t, testConfig(t))
	t.Cleanup(func() {
		findingsFormat = "json"
		findingsOutput = ""
	})
	f := newAuditFixture(t, testCoverage)
	findingsFormat = "json"

	cmd, stdout, _ := newTestCmd()
	require.NoError(t, runFindings(cmd, []string{filepath.Dir(f.Scan)}))

	set, err := loadFindingSet(writeFile(t, t.TempDir(), "set.json", stdout.String()))
	require.NoError(t, err)
	require.Len(t, set.Findings, 2)
	assert.Equal(t, "A11Y-001", set.Findings[0].ID)
	assert.Equal(t, []string{"/", "/about"}, set.Findings[0].AffectedRoutes)

	findingsFormat = "text"
	findingsOutput = filepath.Join(t.TempDir(), "findings.txt")
	cmd, _, _ = newTestCmd()
	require.NoError(t, runFindings(cmd, []string{f.Scan}))
	data, err := os.ReadFile(findingsOutput)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Findings: 2")
	assert.Contains(t, string(data), "image-alt")
}

func TestRunFindingsMissingCollection(t *testing.T) {
	withTestConfig(t, testConfig(t))
	path := writeFile(t, t.TempDir(), "bad.json", `{"route": "/", "url": "https://example.com/"}`)

	cmd, _, _ := newTestCmd()
	err := runFindings(cmd, []string{path})
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInput, HandleError(err))
}

func TestTemplateCommand(t *testing.T) {
	withTestConfig(t, testConfig(t))
	t.Cleanup(func() { templateSkeleton = false })

	cmd, stdout, _ := newTestCmd()
	require.NoError(t, templateCmd.RunE(cmd, nil))
	assert.Equal(t, string(checklist.DefaultYAML()), stdout.String())

	templateSkeleton = true
	cmd, stdout, _ = newTestCmd()
	require.NoError(t, templateCmd.RunE(cmd, nil))

	// The skeleton parses as a submission with one row per item
	sub, err := validator.ParseSubmission(stdout.Bytes())
	require.NoError(t, err)
	tpl, err := checklist.Default()
	require.NoError(t, err)
	assert.Len(t, sub.Rows, len(tpl.Items))
	assert.Len(t, sub.ExecutionLog, len(tpl.RequiredTools))
}

func TestTemplateSkeletonFromConfiguredFile(t *testing.T) {
	c := testConfig(t)
	f := newAuditFixture(t, testCoverage)
	c.TemplateFile = f.Template
	withTestConfig(t, c)
	t.Cleanup(func() { templateSkeleton = false })

	templateSkeleton = true
	cmd, stdout, _ := newTestCmd()
	require.NoError(t, templateCmd.RunE(cmd, nil))

	out := stdout.String()
	assert.Contains(t, out, "  # Perceivable\n")
	assert.Contains(t, out, "  - id: media-captions\n")
	assert.Contains(t, out, "  - tool: axe-core\n")
	assert.Equal(t, 3, strings.Count(out, "  - id: "))
}

func TestConfigCommands(t *testing.T) {
	c := testConfig(t)
	c.Project = "Example Store"
	withTestConfig(t, c)

	cmd, stdout, _ := newTestCmd()
	configSampleCmd.Run(cmd, nil)
	assert.Contains(t, stdout.String(), "storage_dir")

	cmd, stdout, _ = newTestCmd()
	require.NoError(t, configShowCmd.RunE(cmd, nil))

	var shown map[string]interface{}
	require.NoError(t, yaml.Unmarshal(stdout.Bytes(), &shown))
	assert.Equal(t, "Example Store", shown["project"])
	assert.Equal(t, "A11Y", shown["id_prefix"])
	assert.Equal(t, c.StorageDir, shown["storage_dir"])
}
