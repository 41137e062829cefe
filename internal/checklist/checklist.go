// Package checklist loads the audit checklist template the coverage gate
// validates submissions against.
package checklist

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
)

//go:embed default_template.yaml
var defaultTemplate []byte

// ErrNoItems is returned when a template declares no checklist items
var ErrNoItems = errors.New("checklist template has no items")

// Default returns a fresh copy of the built-in template
func Default() (*models.ChecklistTemplate, error) {
	return Parse(defaultTemplate)
}

// DefaultYAML returns the built-in template source
func DefaultYAML() []byte {
	return append([]byte(nil), defaultTemplate...)
}

// Load reads a template file. An empty path selects the built-in template.
func Load(path string) (*models.ChecklistTemplate, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}

	tpl, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tpl, nil
}

// Parse decodes a YAML template. Unknown keys are rejected so typos in
// field names do not silently drop requirements. Duplicate item ids are
// left for the gate to report.
func Parse(data []byte) (*models.ChecklistTemplate, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var tpl models.ChecklistTemplate
	if err := dec.Decode(&tpl); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoItems
		}
		return nil, fmt.Errorf("parse template: %w", err)
	}

	if len(tpl.Items) == 0 {
		return nil, ErrNoItems
	}
	return &tpl, nil
}

// Sections returns item ids grouped by section label, in template order
func Sections(tpl *models.ChecklistTemplate) ([]string, map[string][]string) {
	var order []string
	grouped := make(map[string][]string)
	for _, item := range tpl.Items {
		if _, seen := grouped[item.Section]; !seen {
			order = append(order, item.Section)
		}
		grouped[item.Section] = append(grouped[item.Section], item.ID)
	}
	return order, grouped
}
