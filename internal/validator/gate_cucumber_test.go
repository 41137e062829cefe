//go:build cucumber

package validator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
)

// TestCoverageGateFeatures executes the coverage gate scenarios via godog.
func TestCoverageGateFeatures(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "coverage-gate",
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:    "pretty",
			Paths:     []string{filepath.Join("testdata", "coverage_gate.feature")},
			Strict:    true,
			TestingT:  t,
			Randomize: 0,
		},
	}
	if suite.Run() != 0 {
		t.Fatalf("non-zero godog status")
	}
}

// InitializeScenario wires step definitions for the coverage gate feature.
func InitializeScenario(ctx *godog.ScenarioContext) {
	state := &gateState{}
	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		*state = gateState{}
		return ctx, nil
	})

	ctx.Step(`^a checklist template with items "([^"]+)"$`, state.givenTemplate)
	ctx.Step(`^the required tools "([^"]+)"$`, state.givenRequiredTools)
	ctx.Step(`^the finding set contains "([^"]+)"$`, state.givenFindings)
	ctx.Step(`^the finding set is empty$`, state.givenNoFindings)
	ctx.Step(`^a complete coverage submission$`, state.givenCompleteSubmission)
	ctx.Step(`^the row "([^"]+)" is removed$`, state.removeRow)
	ctx.Step(`^the row "([^"]+)" references finding "([^"]+)"$`, state.referenceFinding)
	ctx.Step(`^the tool "([^"]+)" is removed from the execution log$`, state.removeTool)
	ctx.Step(`^the gate validates the submission$`, state.validate)
	ctx.Step(`^the gate passes$`, state.gatePasses)
	ctx.Step(`^the gate fails with error "([^"]+)" for "([^"]+)"$`, state.gateFailsWith)
	ctx.Step(`^the gate reports (\d+) errors$`, state.errorCount)
	ctx.Step(`^the tallies are (\d+) pass, (\d+) fail and (\d+) not applicable$`, state.tallies)
}

// gateState holds scenario state for the feature tests.
type gateState struct {
	template   models.ChecklistTemplate
	findings   []models.Finding
	submission *models.CoverageSubmission
	result     *models.CoverageGateResult
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (s *gateState) givenTemplate(items string) error {
	for _, id := range splitList(items) {
		s.template.Items = append(s.template.Items, models.ChecklistTemplateItem{ID: id, Section: "Test"})
	}
	return nil
}

func (s *gateState) givenRequiredTools(tools string) error {
	s.template.RequiredTools = splitList(tools)
	return nil
}

func (s *gateState) givenFindings(ids string) error {
	s.findings = nil
	for _, id := range splitList(ids) {
		s.findings = append(s.findings, models.Finding{ID: id, Severity: models.SeverityHigh})
	}
	return nil
}

func (s *gateState) givenNoFindings() error {
	s.findings = nil
	return nil
}

// givenCompleteSubmission marks the first item PASS, the second FAIL and the
// rest N/A, and logs every required tool
func (s *gateState) givenCompleteSubmission() error {
	if len(s.findings) == 0 {
		return fmt.Errorf("a complete submission needs at least one finding")
	}
	sub := &models.CoverageSubmission{}
	for i, item := range s.template.Items {
		row := models.CoverageRow{ID: item.ID}
		switch i {
		case 0:
			row.Status, row.Evidence = "PASS", "checked with axe-core"
		case 1:
			row.Status, row.Evidence, row.FindingIDs = "FAIL", "see findings", []string{s.findings[0].ID}
		default:
			row.Status, row.Notes = "N/A", "not present on the site"
		}
		sub.Rows = append(sub.Rows, row)
	}
	for _, tool := range s.template.RequiredTools {
		sub.ExecutionLog = append(sub.ExecutionLog, models.ExecutionLogEntry{
			Tool:    tool,
			Command: tool + " https://example.com",
			Status:  "PASS",
			Summary: "completed",
		})
	}
	s.submission = sub
	return nil
}

func (s *gateState) removeRow(id string) error {
	rows := s.submission.Rows[:0]
	for _, row := range s.submission.Rows {
		if row.ID != id {
			rows = append(rows, row)
		}
	}
	s.submission.Rows = rows
	return nil
}

func (s *gateState) referenceFinding(id, findingID string) error {
	for i := range s.submission.Rows {
		if s.submission.Rows[i].ID == id {
			s.submission.Rows[i].FindingIDs = append(s.submission.Rows[i].FindingIDs, findingID)
			return nil
		}
	}
	return fmt.Errorf("row %q not found", id)
}

func (s *gateState) removeTool(tool string) error {
	log := s.submission.ExecutionLog[:0]
	for _, entry := range s.submission.ExecutionLog {
		if entry.Tool != tool {
			log = append(log, entry)
		}
	}
	s.submission.ExecutionLog = log
	return nil
}

func (s *gateState) validate() error {
	s.result = Validate(&s.template, s.submission, s.findings)
	return nil
}

func (s *gateState) gatePasses() error {
	if !s.result.GatePassed {
		return fmt.Errorf("expected gate to pass, got %v", s.result.Errors)
	}
	return nil
}

func (s *gateState) gateFailsWith(code, subject string) error {
	if s.result.GatePassed {
		return fmt.Errorf("expected gate to fail")
	}
	for _, e := range s.result.Errors {
		if e.Code == code && (e.ItemID == subject || e.Tool == subject) {
			return nil
		}
	}
	return fmt.Errorf("no %s error for %s in %v", code, subject, s.result.Errors)
}

func (s *gateState) errorCount(n int) error {
	if len(s.result.Errors) != n {
		return fmt.Errorf("expected %d errors, got %d: %v", n, len(s.result.Errors), s.result.Errors)
	}
	return nil
}

func (s *gateState) tallies(pass, fail, na int) error {
	want := models.StatusTallies{Pass: pass, Fail: fail, NA: na}
	if s.result.Tallies != want {
		return fmt.Errorf("expected tallies %+v, got %+v", want, s.result.Tallies)
	}
	return nil
}
