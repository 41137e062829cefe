package validator

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/checklist"
)

const yamlSubmission = `rows:
  - id: images
    status: pass
    tool_used: axe-core
    evidence: axe reported no image-alt violations
  - id: contrast
    status: FAIL
    evidence:
      - screenshot-01.png
      - axe output
    finding_ids: A11Y-001, A11Y-003
  - id: media
    status: NA
    notes: no media on the site
execution_log:
  - tool: axe-core
    command: npx axe https://example.com
    status: PASS
    summary: 2 violations
`

func TestParseSubmissionYAML(t *testing.T) {
	sub, err := ParseSubmission([]byte(yamlSubmission))
	require.NoError(t, err)
	require.Len(t, sub.Rows, 3)
	require.Len(t, sub.ExecutionLog, 1)
	assert.Empty(t, sub.ParseErrors)

	assert.Equal(t, "pass", sub.Rows[0].Status, "status is normalized by the gate, not the parser")
	assert.Equal(t, "screenshot-01.png; axe output", sub.Rows[1].Evidence)
	assert.Equal(t, []string{"A11Y-001", "A11Y-003"}, sub.Rows[1].FindingIDs)
	assert.Equal(t, "no media on the site", sub.Rows[2].Notes)
}

func TestParseSubmissionJSON(t *testing.T) {
	data := `{
  "rows": [{"id": "images", "status": "PASS", "evidence": "ok", "finding_ids": []}],
  "execution_log": [{"tool": "axe-core", "command": "axe", "status": "PASS", "summary": "clean"}]
}`
	sub, err := ParseSubmission([]byte(data))
	require.NoError(t, err)
	require.Len(t, sub.Rows, 1)
	assert.Empty(t, sub.Rows[0].FindingIDs)
	assert.Equal(t, "axe-core", sub.ExecutionLog[0].Tool)
}

func TestParseSubmissionMissingCollections(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty document", "", ErrMissingRows},
		{"no rows", "execution_log: []\n", ErrMissingRows},
		{"rows not a list", "rows: {}\nexecution_log: []\n", ErrMissingRows},
		{"no execution log", "rows: []\n", ErrMissingExecutionLog},
		{"null execution log", "rows: []\nexecution_log: null\n", ErrMissingExecutionLog},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSubmission([]byte(tt.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestParseSubmissionInvalidSyntax(t *testing.T) {
	_, err := ParseSubmission([]byte("rows: [\n"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMissingRows))
}

func TestParseSubmissionMalformedRecords(t *testing.T) {
	data := `rows:
  - just a string
  - id: contrast
    status: PASS
    evidence: {nested: true}
  - status: PASS
execution_log:
  - 42
  - command: axe
    status: PASS
    summary: ok
`
	sub, err := ParseSubmission([]byte(data))
	require.NoError(t, err)

	require.Len(t, sub.Rows, 1, "only rows with an id are kept")
	assert.Equal(t, "contrast", sub.Rows[0].ID)
	assert.Empty(t, sub.ExecutionLog)

	codes := make([]string, len(sub.ParseErrors))
	for i, e := range sub.ParseErrors {
		codes[i] = e.Code
	}
	assert.Equal(t, []string{CodeMalformedRow, CodeMalformedRow, CodeMalformedRow, CodeMalformedLogEntry, CodeMalformedLogEntry}, codes)
	assert.Equal(t, "contrast", sub.ParseErrors[1].ItemID)

	// The gate reports every parse defect
	result := Validate(testTemplate(), sub, testFindings())
	assert.False(t, result.GatePassed)
	assert.Equal(t, sub.ParseErrors, result.Errors[:len(sub.ParseErrors)])
}

func TestParseSubmissionKeepsScalarText(t *testing.T) {
	tpl, err := checklist.Parse([]byte(`name: numbered
items:
  - id: 1.10
    section: Perceivable
  - id: 2.4.7
    section: Operable
required_tools: [axe-core]
`))
	require.NoError(t, err)

	sub, err := ParseSubmission([]byte(`rows:
  - id: 1.10
    status: PASS
    evidence: 0.50
  - id: 2.4.7
    status: N/A
    notes: 007
execution_log:
  - tool: axe-core
    command: axe
    status: PASS
    summary: 1e3
`))
	require.NoError(t, err)
	require.Len(t, sub.Rows, 2)

	assert.Equal(t, "1.10", sub.Rows[0].ID)
	assert.Equal(t, "0.50", sub.Rows[0].Evidence)
	assert.Equal(t, "007", sub.Rows[1].Notes)
	assert.Equal(t, "1e3", sub.ExecutionLog[0].Summary)

	result := Validate(tpl, sub, nil)
	assert.True(t, result.GatePassed, "errors: %v", result.Errors)
}

func TestParseSubmissionAliasesAndTopLevel(t *testing.T) {
	sub, err := ParseSubmission([]byte(`rows:
  - &base
    id: images
    status: PASS
    evidence: ok
  - *base
execution_log: []
`))
	require.NoError(t, err)
	require.Len(t, sub.Rows, 2)
	assert.Equal(t, "images", sub.Rows[1].ID)

	_, err = ParseSubmission([]byte("- rows\n- execution_log\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected an object at the top level, got list")
}

func TestLoadSubmission(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coverage.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlSubmission), 0644))

	sub, err := LoadSubmission(path)
	require.NoError(t, err)
	assert.Len(t, sub.Rows, 3)

	_, err = LoadSubmission(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
