package reporter

import (
	"errors"
	"fmt"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
)

// ErrGateNotPassed is returned when a deliverable is requested for a run
// whose coverage gate failed or never ran
var ErrGateNotPassed = errors.New("coverage gate has not passed")

// Options carries the report front matter that is not part of the run data
type Options struct {
	Project    string
	Auditor    string
	Scope      string
	WCAGTarget string
}

// DefaultOptions returns the front matter used when none is configured
func DefaultOptions() Options {
	return Options{
		Project:    "Untitled project",
		Auditor:    "Accessibility Team",
		Scope:      "In-scope pages and key user flows",
		WCAGTarget: "WCAG 2.1 AA",
	}
}

// CheckGate refuses any report without a passing gate result
func CheckGate(report *models.AuditReport) error {
	if report == nil || report.Gate == nil {
		return fmt.Errorf("%w: no gate result", ErrGateNotPassed)
	}
	if !report.Gate.GatePassed {
		return fmt.Errorf("%w: %d error(s)", ErrGateNotPassed, len(report.Gate.Errors))
	}
	return nil
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Project == "" {
		o.Project = d.Project
	}
	if o.Auditor == "" {
		o.Auditor = d.Auditor
	}
	if o.Scope == "" {
		o.Scope = d.Scope
	}
	if o.WCAGTarget == "" {
		o.WCAGTarget = d.WCAGTarget
	}
	return o
}
