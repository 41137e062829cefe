package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
)

const (
	timestampLayout = "2006-01-02T15-04-05"
	runSuffix       = ".json"
)

// LocalStorage implements Storage on the local filesystem.
// Runs live in <baseDir>/runs/<timestamp>_<run id>.json.
type LocalStorage struct {
	baseDir string
	now     func() time.Time
}

// NewLocal creates a new local storage instance
func NewLocal(baseDir string) *LocalStorage {
	return &LocalStorage{
		baseDir: baseDir,
		now:     time.Now,
	}
}

func (s *LocalStorage) runsDir() string {
	return filepath.Join(s.baseDir, "runs")
}

// SaveRun writes the report to disk. Missing run ids are filled with a
// time-ordered UUID and a zero timestamp with the current time.
func (s *LocalStorage) SaveRun(report *models.AuditReport) (*RunInfo, error) {
	if report == nil {
		return nil, fmt.Errorf("cannot save nil report")
	}
	if report.Timestamp.IsZero() {
		report.Timestamp = s.now().UTC()
	}
	if report.RunID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate run id: %w", err)
		}
		report.RunID = id.String()
	}

	if err := s.EnsureDirectoryExists(); err != nil {
		return nil, err
	}

	info := RunInfo{
		RunID:     report.RunID,
		Timestamp: report.Timestamp.UTC().Truncate(time.Second),
	}
	info.Path = filepath.Join(s.runsDir(), formatFilename(info))

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}

	// Write then rename so a reader never sees a partial run
	tmp := info.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, info.Path); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("failed to store run: %w", err)
	}

	return &info, nil
}

// LoadRun loads a run by full id or by an unambiguous id prefix
func (s *LocalStorage) LoadRun(runID string) (*models.AuditReport, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, fmt.Errorf("run id is required")
	}

	runs, err := s.ListRuns()
	if err != nil {
		return nil, err
	}

	var matches []RunInfo
	for _, r := range runs {
		if r.RunID == runID {
			return LoadReportFile(r.Path)
		}
		if strings.HasPrefix(r.RunID, runID) {
			matches = append(matches, r)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("run not found: %s", runID)
	case 1:
		return LoadReportFile(matches[0].Path)
	default:
		return nil, fmt.Errorf("run id prefix %q is ambiguous (%d runs)", runID, len(matches))
	}
}

// GetLatestRun retrieves the most recent run
func (s *LocalStorage) GetLatestRun() (*models.AuditReport, error) {
	runs, err := s.ListRuns()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNoRuns
	}

	return LoadReportFile(runs[len(runs)-1].Path)
}

// GetLastNRuns retrieves the last N runs, oldest first
func (s *LocalStorage) GetLastNRuns(n int) ([]*models.AuditReport, error) {
	runs, err := s.ListRuns()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNoRuns
	}

	start := len(runs) - n
	if start < 0 {
		start = 0
	}

	selected := runs[start:]
	reports := make([]*models.AuditReport, 0, len(selected))
	for _, r := range selected {
		report, err := LoadReportFile(r.Path)
		if err != nil {
			// Skip runs that fail to load but continue with others
			continue
		}
		reports = append(reports, report)
	}

	return reports, nil
}

// ListRuns returns all stored runs sorted by timestamp, then run id
func (s *LocalStorage) ListRuns() ([]RunInfo, error) {
	entries, err := os.ReadDir(s.runsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return []RunInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read runs directory: %w", err)
	}

	runs := []RunInfo{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, ok := parseFilename(entry.Name())
		if !ok {
			continue
		}
		info.Path = filepath.Join(s.runsDir(), entry.Name())
		runs = append(runs, info)
	}

	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].Timestamp.Equal(runs[j].Timestamp) {
			return runs[i].Timestamp.Before(runs[j].Timestamp)
		}
		return runs[i].RunID < runs[j].RunID
	})

	return runs, nil
}

// LoadReportFile reads one stored report from an explicit path
func LoadReportFile(path string) (*models.AuditReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("report not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var report models.AuditReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}

	return &report, nil
}

func formatFilename(info RunInfo) string {
	return info.Timestamp.Format(timestampLayout) + "_" + info.RunID + runSuffix
}

// parseFilename reverses formatFilename. Anything else in runs/ is ignored.
func parseFilename(name string) (RunInfo, bool) {
	if !strings.HasSuffix(name, runSuffix) {
		return RunInfo{}, false
	}
	stem := strings.TrimSuffix(name, runSuffix)

	tsPart, id, ok := strings.Cut(stem, "_")
	if !ok || id == "" {
		return RunInfo{}, false
	}
	ts, err := time.Parse(timestampLayout, tsPart)
	if err != nil {
		return RunInfo{}, false
	}

	return RunInfo{RunID: id, Timestamp: ts}, true
}

// GetStoragePath returns the full path to the storage directory
func (s *LocalStorage) GetStoragePath() string {
	return s.baseDir
}

// EnsureDirectoryExists creates the runs directory if it doesn't exist
func (s *LocalStorage) EnsureDirectoryExists() error {
	if err := os.MkdirAll(s.runsDir(), 0755); err != nil {
		return fmt.Errorf("failed to create runs directory: %w", err)
	}
	return nil
}
