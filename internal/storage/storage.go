package storage

import (
	"errors"
	"time"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
)

// ErrNoRuns is returned when the store holds no audit runs
var ErrNoRuns = errors.New("no runs found")

// RunInfo identifies one stored run
type RunInfo struct {
	RunID     string
	Timestamp time.Time
	Path      string
}

// Storage defines the interface for persisting audit runs
type Storage interface {
	// SaveRun stores a gate-passed audit report, assigning a run id if unset
	SaveRun(report *models.AuditReport) (*RunInfo, error)

	// LoadRun loads a run by id or unique id prefix
	LoadRun(runID string) (*models.AuditReport, error)

	// GetLatestRun retrieves the most recent run
	GetLatestRun() (*models.AuditReport, error)

	// GetLastNRuns retrieves the last N runs, oldest first
	GetLastNRuns(n int) ([]*models.AuditReport, error)

	// ListRuns returns all stored runs sorted chronologically
	ListRuns() ([]RunInfo, error)
}
