package cli

import (
	"path/filepath"
	"testing"
	"time"
)

const testScanBatch = `{
  "routes": [
    {
      "route": "/",
      "url": "https://example.com/",
      "violations": [
        {
          "id": "image-alt",
          "impact": "critical",
          "help": "Images must have alternate text",
          "helpUrl": "https://dequeuniversity.com/rules/axe/4.8/image-alt",
          "tags": ["wcag2a", "wcag111"],
          "nodes": [{"target": ["img.hero"], "html": "<img class=\"hero\" src=\"hero.png\">"}]
        },
        {
          "id": "color-contrast",
          "impact": "serious",
          "help": "Elements must meet minimum color contrast ratio thresholds",
          "tags": ["wcag2aa", "wcag143"],
          "nodes": [{"target": [".btn-primary"], "html": "<button class=\"btn-primary\">Buy</button>"}]
        }
      ]
    },
    {
      "route": "/about",
      "url": "https://example.com/about",
      "violations": [
        {
          "id": "image-alt",
          "impact": "critical",
          "help": "Images must have alternate text",
          "tags": ["wcag2a", "wcag111"],
          "nodes": [{"target": ["img.hero"], "html": "<img class=\"hero\" src=\"team.png\">"}]
        }
      ]
    }
  ]
}
`

const testTemplate = `name: test-checklist
version: "1"
required_tools:
  - axe-core
items:
  - id: images-text-alternatives
    section: Perceivable
    wcag: ["1.1.1"]
  - id: color-contrast
    section: Perceivable
    wcag: ["1.4.3"]
  - id: media-captions
    section: Perceivable
    wcag: ["1.2.2"]
`

const testCoverage = `rows:
  - id: images-text-alternatives
    status: FAIL
    tool_used: axe-core
    evidence: hero images have no alt text
    finding_ids: [A11Y-001]
  - id: color-contrast
    status: fail
    tool_used: axe-core
    evidence: primary button contrast is 2.9:1
    finding_ids: A11Y-002
  - id: media-captions
    status: n/a
    notes: the site has no audio or video
execution_log:
  - tool: axe-core
    command: npx @axe-core/cli https://example.com
    status: PASS
    summary: 3 violations on 2 pages
`

// testCoverageIncomplete lacks the media-captions row and the tool log entry
const testCoverageIncomplete = `rows:
  - id: images-text-alternatives
    status: FAIL
    evidence: hero images have no alt text
    finding_ids: [A11Y-001]
  - id: color-contrast
    status: FAIL
    evidence: primary button contrast is 2.9:1
    finding_ids: [A11Y-009]
execution_log: []
`

// auditFixture is one set of audit inputs on disk
type auditFixture struct {
	Dir      string
	Scan     string
	Template string
	Coverage string
}

func newAuditFixture(t *testing.T, coverage string) auditFixture {
	t.Helper()
	dir := t.TempDir()
	return auditFixture{
		Dir:      dir,
		Scan:     writeFile(t, dir, "scans/batch.json", testScanBatch),
		Template: writeFile(t, dir, "checklist.yaml", testTemplate),
		Coverage: writeFile(t, dir, "coverage.yaml", coverage),
	}
}

// pipelineConfig returns a pipeline over the fixture that writes into dir
func (f auditFixture) pipelineConfig() PipelineConfig {
	return PipelineConfig{
		ScanPaths:      []string{f.Scan},
		SubmissionFile: f.Coverage,
		TemplateFile:   f.Template,
		IDPrefix:       "A11Y",
		Workers:        2,
		Format:         "json",
		StorageDir:     filepath.Join(f.Dir, "store"),
		PolicyDir:      f.Dir,
		Now:            func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
}
