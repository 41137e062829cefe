package collector

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
)

// ErrDuplicateFindingID is returned when two findings in one set share an id.
// Coverage rows reference findings by id, so the set is rejected whole.
var ErrDuplicateFindingID = errors.New("duplicate finding id")

type wireFindingSet struct {
	Findings    *[]json.RawMessage  `json:"findings"`
	Diagnostics []models.Diagnostic `json:"diagnostics"`
}

// ParseFindingSet parses a {"findings": [...]} envelope written by
// 'a11yhub findings'. A missing findings array is fatal. A record that could
// not have come out of normalization is skipped with a diagnostic.
func ParseFindingSet(data []byte, source string) (*models.FindingSet, error) {
	var ws wireFindingSet
	if err := json.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("failed to parse finding set: %w", err)
	}
	if ws.Findings == nil {
		return nil, fmt.Errorf("%s: %w: 'findings'", source, ErrMissingCollection)
	}

	set := &models.FindingSet{
		Findings:    make([]models.Finding, 0, len(*ws.Findings)),
		Diagnostics: ws.Diagnostics,
	}
	seen := make(map[string]int, len(*ws.Findings))

	for i, raw := range *ws.Findings {
		f, err := parseFinding(raw)
		if err != nil {
			set.Diagnostics = append(set.Diagnostics, models.Diagnostic{
				Source:  source,
				Route:   f.Route,
				Index:   i,
				Message: fmt.Sprintf("finding skipped: %v", err),
			})
			continue
		}
		if first, dup := seen[f.ID]; dup {
			return nil, fmt.Errorf("%s: %w %q (records #%d and #%d)", source, ErrDuplicateFindingID, f.ID, first, i)
		}
		seen[f.ID] = i
		set.Findings = append(set.Findings, f)
	}

	return set, nil
}

// parseFinding decodes one record and checks the fields every normalized
// finding carries.
func parseFinding(data []byte) (models.Finding, error) {
	var f models.Finding
	if err := json.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("invalid record: %w", err)
	}

	f.ID = strings.TrimSpace(f.ID)
	f.Severity = models.Severity(strings.ToLower(strings.TrimSpace(string(f.Severity))))

	switch {
	case f.ID == "":
		return f, errors.New("missing id")
	case !f.Severity.IsValid():
		return f, fmt.Errorf("%s: unrecognized severity %q", f.ID, f.Severity)
	case strings.TrimSpace(f.Title) == "":
		return f, fmt.Errorf("%s: missing title", f.ID)
	case strings.TrimSpace(f.Route) == "":
		return f, fmt.Errorf("%s: missing route", f.ID)
	case strings.TrimSpace(f.URL) == "":
		return f, fmt.Errorf("%s: missing url", f.ID)
	case !hasSelector(f.Selectors):
		return f, fmt.Errorf("%s: no selector", f.ID)
	}
	return f, nil
}

func hasSelector(selectors []string) bool {
	for _, s := range selectors {
		if strings.TrimSpace(s) != "" {
			return true
		}
	}
	return false
}
