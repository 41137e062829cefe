package collector

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
)

// ErrMissingCollection is returned when a payload lacks a required
// top-level collection. It aborts the whole run.
var ErrMissingCollection = errors.New("missing required top-level collection")

type wireBatch struct {
	Routes *[]json.RawMessage `json:"routes"`
}

type wireRoute struct {
	Route      *string                    `json:"route"`
	URL        *string                    `json:"url"`
	Violations *[]json.RawMessage         `json:"violations"`
	Metadata   map[string]json.RawMessage `json:"metadata"`
}

type wireViolation struct {
	ID          string              `json:"id"`
	Impact      *string             `json:"impact"`
	Description string              `json:"description"`
	Help        string              `json:"help"`
	HelpURL     string              `json:"helpUrl"`
	Tags        []string            `json:"tags"`
	Nodes       []wireNode          `json:"nodes"`
	Fix         *models.Remediation `json:"fix"`
}

type wireNode struct {
	Target         json.RawMessage `json:"target"`
	HTML           string          `json:"html"`
	FailureSummary string          `json:"failureSummary"`
}

// ParseScanPayload detects the payload shape and parses it into a batch.
// source names the file for diagnostics.
func ParseScanPayload(data []byte, source string) (*models.ScanBatch, error) {
	kind, err := DetectPayloadKind(data)
	if err != nil {
		return nil, err
	}

	switch kind {
	case PayloadBatch:
		return ParseScanBatch(data, source)
	case PayloadRoute, PayloadAxe:
		batch := &models.ScanBatch{}
		route, diags, err := parseRoute(data, source, 0, kind == PayloadAxe)
		if err != nil {
			return nil, err
		}
		batch.Diagnostics = append(batch.Diagnostics, diags...)
		if route != nil {
			batch.Routes = append(batch.Routes, *route)
		}
		return batch, nil
	default:
		return nil, fmt.Errorf("unsupported payload kind: %s", kind)
	}
}

// ParseScanBatch parses a {"routes": [...]} envelope. A missing routes array
// is fatal; a malformed route record is skipped with a diagnostic.
func ParseScanBatch(data []byte, source string) (*models.ScanBatch, error) {
	var wb wireBatch
	if err := json.Unmarshal(data, &wb); err != nil {
		return nil, fmt.Errorf("failed to parse scan batch: %w", err)
	}
	if wb.Routes == nil {
		return nil, fmt.Errorf("%s: %w: 'routes'", source, ErrMissingCollection)
	}

	batch := &models.ScanBatch{Routes: []models.RouteScanResult{}}
	for i, raw := range *wb.Routes {
		route, diags, err := parseRoute(raw, source, i, false)
		if err != nil {
			// Inside a batch a broken route is a record-level defect
			batch.Diagnostics = append(batch.Diagnostics, models.Diagnostic{
				Source:  source,
				Index:   i,
				Message: err.Error(),
			})
			continue
		}
		batch.Diagnostics = append(batch.Diagnostics, diags...)
		batch.Routes = append(batch.Routes, *route)
	}

	return batch, nil
}

// parseRoute converts one route record. Missing route, url, or violations
// are returned as errors; the caller decides whether that is fatal.
func parseRoute(data []byte, source string, index int, axe bool) (*models.RouteScanResult, []models.Diagnostic, error) {
	var wr wireRoute
	if err := json.Unmarshal(data, &wr); err != nil {
		return nil, nil, fmt.Errorf("route #%d: invalid record: %w", index, err)
	}

	if wr.URL == nil || strings.TrimSpace(*wr.URL) == "" {
		return nil, nil, fmt.Errorf("route #%d: missing required field 'url'", index)
	}
	if wr.Violations == nil {
		return nil, nil, fmt.Errorf("route #%d: %w: 'violations'", index, ErrMissingCollection)
	}

	routePath := ""
	if wr.Route != nil {
		routePath = strings.TrimSpace(*wr.Route)
	} else if axe {
		routePath = routeFromURL(*wr.URL)
	}
	if routePath == "" {
		return nil, nil, fmt.Errorf("route #%d: missing required field 'route'", index)
	}

	result := &models.RouteScanResult{
		Route:      routePath,
		URL:        strings.TrimSpace(*wr.URL),
		Violations: make([]models.RawViolation, 0, len(*wr.Violations)),
		Source:     source,
	}

	var diags []models.Diagnostic
	for vi, raw := range *wr.Violations {
		v, err := parseViolation(raw)
		if err != nil {
			diags = append(diags, models.Diagnostic{
				Source:  source,
				Route:   routePath,
				Index:   vi,
				Message: fmt.Sprintf("violation skipped: %v", err),
			})
			continue
		}
		result.Violations = append(result.Violations, *v)
	}

	if len(wr.Metadata) > 0 {
		result.Metadata = make(map[string]int, len(wr.Metadata))
		keys := make([]string, 0, len(wr.Metadata))
		for k := range wr.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			var n int
			if err := json.Unmarshal(wr.Metadata[k], &n); err != nil {
				diags = append(diags, models.Diagnostic{
					Source:  source,
					Route:   routePath,
					Index:   index,
					Message: fmt.Sprintf("metadata %q is not an integer count", k),
				})
				continue
			}
			result.Metadata[k] = n
		}
	}

	return result, diags, nil
}

func parseViolation(data []byte) (*models.RawViolation, error) {
	var wv wireViolation
	if err := json.Unmarshal(data, &wv); err != nil {
		return nil, err
	}

	impact := ""
	if wv.Impact != nil {
		impact = *wv.Impact
	}

	v := &models.RawViolation{
		RuleID:      strings.TrimSpace(wv.ID),
		Impact:      impact,
		Description: wv.Description,
		Help:        wv.Help,
		HelpURL:     wv.HelpURL,
		Tags:        wv.Tags,
		Nodes:       make([]models.ViolationNode, 0, len(wv.Nodes)),
		Fix:         wv.Fix,
	}

	for i, n := range wv.Nodes {
		target, err := parseTarget(n.Target)
		if err != nil {
			return nil, fmt.Errorf("node #%d: %w", i, err)
		}
		v.Nodes = append(v.Nodes, models.ViolationNode{
			Target:         target,
			HTML:           n.HTML,
			FailureSummary: n.FailureSummary,
		})
	}

	return v, nil
}

// parseTarget flattens an axe target into one selector string. Targets are
// either a plain selector, a list of selectors (one per frame), or a list
// that nests shadow DOM paths.
func parseTarget(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return strings.TrimSpace(single), nil
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return "", fmt.Errorf("invalid target: %s", string(raw))
	}

	selectors := make([]string, 0, len(parts))
	for _, p := range parts {
		s, err := parseTarget(p)
		if err != nil {
			return "", err
		}
		if s != "" {
			selectors = append(selectors, s)
		}
	}
	return strings.Join(selectors, " >>> "), nil
}

// routeFromURL derives a route path from an absolute URL
func routeFromURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	if u.Path == "" {
		return "/"
	}
	return u.Path
}
