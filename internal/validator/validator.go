package validator

import (
	"fmt"
	"strings"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
)

// Gate error codes
const (
	CodeMissingTemplate           = "missing_template"
	CodeMissingSubmission         = "missing_submission"
	CodeInvalidTemplateItem       = "invalid_template_item"
	CodeDuplicateTemplateItem     = "duplicate_template_item"
	CodeMissingItem               = "missing_item"
	CodeDuplicateItem             = "duplicate_item"
	CodeUnknownItem               = "unknown_item"
	CodeInvalidStatus             = "invalid_status"
	CodeMissingEvidence           = "missing_evidence"
	CodeMissingFindingIDs         = "missing_finding_ids"
	CodeDanglingFindingID         = "dangling_finding_id"
	CodeMissingNotes              = "missing_notes"
	CodeZeroFindingsContradiction = "zero_findings_contradiction"
	CodeMissingTool               = "missing_tool"
	CodeDuplicateTool             = "duplicate_tool"
	CodeMissingCommand            = "missing_command"
	CodeInvalidToolStatus         = "invalid_tool_status"
	CodeMissingSummary            = "missing_summary"
	CodeMalformedRow              = "malformed_row"
	CodeMalformedLogEntry         = "malformed_log_entry"
)

// ValidationError wraps a failed gate so callers can treat it as an error
type ValidationError struct {
	Errors []models.GateError
}

func (e *ValidationError) Error() string {
	lines := make([]string, len(e.Errors))
	for i, ge := range e.Errors {
		lines[i] = ge.String()
	}
	return fmt.Sprintf("coverage gate failed with %d error(s):\n  - %s", len(e.Errors), strings.Join(lines, "\n  - "))
}

// AsError returns nil for a passing gate and a *ValidationError otherwise
func AsError(result *models.CoverageGateResult) error {
	if result == nil {
		return &ValidationError{Errors: []models.GateError{{Code: CodeMissingSubmission, Message: "no gate result"}}}
	}
	if result.GatePassed {
		return nil
	}
	return &ValidationError{Errors: result.Errors}
}

// NormalizeStatus maps a row status onto PASS, FAIL or N/A. Matching is
// case-insensitive and NA is accepted for N/A.
func NormalizeStatus(status string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case models.StatusPass:
		return models.StatusPass, true
	case models.StatusFail:
		return models.StatusFail, true
	case models.StatusNA, "NA":
		return models.StatusNA, true
	default:
		return strings.TrimSpace(status), false
	}
}

// NormalizeToolStatus maps an execution log status onto PASS, FAIL or SKIPPED
func NormalizeToolStatus(status string) (string, bool) {
	switch s := strings.ToUpper(strings.TrimSpace(status)); s {
	case models.ToolStatusPass, models.ToolStatusFail, models.ToolStatusSkipped:
		return s, true
	default:
		return strings.TrimSpace(status), false
	}
}

// gateRun accumulates errors for one Validate call
type gateRun struct {
	errors []models.GateError
}

func (g *gateRun) add(ge models.GateError) {
	g.errors = append(g.errors, ge)
}

// Validate cross-checks a coverage submission against the template and the
// finding set. Every defect is collected; the gate passes only when there
// are none. Validate has no side effects and tolerates nil inputs.
func Validate(tpl *models.ChecklistTemplate, sub *models.CoverageSubmission, findings []models.Finding) *models.CoverageGateResult {
	g := &gateRun{}
	result := &models.CoverageGateResult{
		Rows:         []models.CoverageRow{},
		FindingCount: len(findings),
	}

	if tpl == nil {
		g.add(models.GateError{Code: CodeMissingTemplate, Message: "no checklist template supplied"})
		tpl = &models.ChecklistTemplate{}
	}
	if sub == nil {
		g.add(models.GateError{Code: CodeMissingSubmission, Message: "no coverage submission supplied"})
		sub = &models.CoverageSubmission{}
	}

	itemIDs := g.checkTemplate(tpl)
	result.TemplateSize = len(itemIDs)

	g.errors = append(g.errors, sub.ParseErrors...)

	findingIDs := make(map[string]bool, len(findings))
	for _, f := range findings {
		findingIDs[f.ID] = true
	}

	rowsByID := make(map[string][]int)
	for i, row := range sub.Rows {
		id := strings.TrimSpace(row.ID)
		rowsByID[id] = append(rowsByID[id], i)

		normalized := row
		normalized.ID = id
		status, ok := NormalizeStatus(row.Status)
		normalized.Status = status
		result.Rows = append(result.Rows, normalized)
		tally(&result.Tallies, status, ok)
	}

	// Template items, in template order
	for _, id := range itemIDs {
		occurrences := rowsByID[id]
		switch {
		case len(occurrences) == 0:
			g.add(models.GateError{
				Code:    CodeMissingItem,
				ItemID:  id,
				Message: fmt.Sprintf("checklist item %q has no coverage row", id),
			})
			continue
		case len(occurrences) > 1:
			g.add(models.GateError{
				Code:    CodeDuplicateItem,
				ItemID:  id,
				Message: fmt.Sprintf("checklist item %q appears %d times in the submission", id, len(occurrences)),
			})
		}
		for _, i := range occurrences {
			g.checkRow(sub.Rows[i], id, findingIDs, len(findings))
		}
	}

	// Rows the template does not know, in submission order
	known := make(map[string]bool, len(itemIDs))
	for _, id := range itemIDs {
		known[id] = true
	}
	for i, row := range sub.Rows {
		id := strings.TrimSpace(row.ID)
		if id == "" {
			g.add(models.GateError{
				Code:    CodeMalformedRow,
				Message: fmt.Sprintf("row #%d has no id", i+1),
			})
			continue
		}
		if !known[id] {
			g.add(models.GateError{
				Code:    CodeUnknownItem,
				ItemID:  id,
				Message: fmt.Sprintf("row %q is not part of the checklist template", id),
			})
		}
	}

	g.checkExecutionLog(tpl.RequiredTools, sub.ExecutionLog)

	result.Errors = g.errors
	if result.Errors == nil {
		result.Errors = []models.GateError{}
	}
	result.GatePassed = len(result.Errors) == 0
	return result
}

// checkTemplate reports template defects and returns the unique item ids in order
func (g *gateRun) checkTemplate(tpl *models.ChecklistTemplate) []string {
	seen := make(map[string]bool, len(tpl.Items))
	ids := make([]string, 0, len(tpl.Items))
	for i, item := range tpl.Items {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			g.add(models.GateError{
				Code:    CodeInvalidTemplateItem,
				Message: fmt.Sprintf("template item #%d has no id", i+1),
			})
			continue
		}
		if seen[id] {
			g.add(models.GateError{
				Code:    CodeDuplicateTemplateItem,
				ItemID:  id,
				Message: fmt.Sprintf("template lists item %q more than once", id),
			})
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// checkRow validates the fields one status requires
func (g *gateRun) checkRow(row models.CoverageRow, id string, findingIDs map[string]bool, findingCount int) {
	status, ok := NormalizeStatus(row.Status)
	if !ok {
		g.add(models.GateError{
			Code:    CodeInvalidStatus,
			ItemID:  id,
			Message: fmt.Sprintf("item %q has status %q; expected PASS, FAIL or N/A", id, row.Status),
		})
		return
	}

	hasEvidence := strings.TrimSpace(row.Evidence) != ""

	switch status {
	case models.StatusPass:
		if !hasEvidence {
			g.add(models.GateError{
				Code:    CodeMissingEvidence,
				ItemID:  id,
				Message: fmt.Sprintf("PASS item %q needs evidence", id),
			})
		}

	case models.StatusFail:
		if !hasEvidence {
			g.add(models.GateError{
				Code:    CodeMissingEvidence,
				ItemID:  id,
				Message: fmt.Sprintf("FAIL item %q needs evidence", id),
			})
		}
		if findingCount == 0 {
			g.add(models.GateError{
				Code:    CodeZeroFindingsContradiction,
				ItemID:  id,
				Message: fmt.Sprintf("item %q is FAIL but the finding set is empty", id),
			})
		}

		referenced := 0
		for _, fid := range row.FindingIDs {
			fid = strings.TrimSpace(fid)
			if fid == "" {
				continue
			}
			referenced++
			if !findingIDs[fid] {
				g.add(models.GateError{
					Code:      CodeDanglingFindingID,
					ItemID:    id,
					FindingID: fid,
					Message:   fmt.Sprintf("item %q references unknown finding %q", id, fid),
				})
			}
		}
		if referenced == 0 {
			g.add(models.GateError{
				Code:    CodeMissingFindingIDs,
				ItemID:  id,
				Message: fmt.Sprintf("FAIL item %q must reference at least one finding", id),
			})
		}

	case models.StatusNA:
		if strings.TrimSpace(row.Notes) == "" {
			g.add(models.GateError{
				Code:    CodeMissingNotes,
				ItemID:  id,
				Message: fmt.Sprintf("N/A item %q needs notes explaining why it does not apply", id),
			})
		}
	}
}

// checkExecutionLog requires one complete entry per required tool. Extra
// tools are allowed but their entries must still be complete.
func (g *gateRun) checkExecutionLog(requiredTools []string, log []models.ExecutionLogEntry) {
	byTool := make(map[string][]int)
	for i, entry := range log {
		key := toolKey(entry.Tool)
		byTool[key] = append(byTool[key], i)
	}

	required := make(map[string]bool, len(requiredTools))
	for _, tool := range requiredTools {
		key := toolKey(tool)
		if key == "" || required[key] {
			continue
		}
		required[key] = true

		entries := byTool[key]
		switch {
		case len(entries) == 0:
			g.add(models.GateError{
				Code:    CodeMissingTool,
				Tool:    strings.TrimSpace(tool),
				Message: fmt.Sprintf("execution log has no entry for required tool %q", strings.TrimSpace(tool)),
			})
			continue
		case len(entries) > 1:
			g.add(models.GateError{
				Code:    CodeDuplicateTool,
				Tool:    strings.TrimSpace(tool),
				Message: fmt.Sprintf("execution log lists tool %q %d times", strings.TrimSpace(tool), len(entries)),
			})
		}
		for _, i := range entries {
			g.checkLogEntry(log[i])
		}
	}

	for i, entry := range log {
		key := toolKey(entry.Tool)
		if key == "" {
			g.add(models.GateError{
				Code:    CodeMalformedLogEntry,
				Message: fmt.Sprintf("execution log entry #%d has no tool name", i+1),
			})
			continue
		}
		if !required[key] {
			g.checkLogEntry(entry)
		}
	}
}

func (g *gateRun) checkLogEntry(entry models.ExecutionLogEntry) {
	tool := strings.TrimSpace(entry.Tool)
	if strings.TrimSpace(entry.Command) == "" {
		g.add(models.GateError{
			Code:    CodeMissingCommand,
			Tool:    tool,
			Message: fmt.Sprintf("tool %q has no command recorded", tool),
		})
	}
	if _, ok := NormalizeToolStatus(entry.Status); !ok {
		g.add(models.GateError{
			Code:    CodeInvalidToolStatus,
			Tool:    tool,
			Message: fmt.Sprintf("tool %q has status %q; expected PASS, FAIL or SKIPPED", tool, entry.Status),
		})
	}
	if strings.TrimSpace(entry.Summary) == "" {
		g.add(models.GateError{
			Code:    CodeMissingSummary,
			Tool:    tool,
			Message: fmt.Sprintf("tool %q has no summary", tool),
		})
	}
}

func toolKey(tool string) string {
	return strings.ToLower(strings.TrimSpace(tool))
}

func tally(t *models.StatusTallies, status string, ok bool) {
	if !ok {
		t.Invalid++
		return
	}
	switch status {
	case models.StatusPass:
		t.Pass++
	case models.StatusFail:
		t.Fail++
	case models.StatusNA:
		t.NA++
	}
}
