package validator

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
)

// Fatal submission defects. Anything finer grained is recorded in
// CoverageSubmission.ParseErrors and reported by the gate.
var (
	ErrMissingRows         = errors.New("coverage submission has no 'rows' collection")
	ErrMissingExecutionLog = errors.New("coverage submission has no 'execution_log' collection")
)

// LoadSubmission reads a JSON or YAML coverage submission from disk
func LoadSubmission(path string) (*models.CoverageSubmission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read submission: %w", err)
	}
	sub, err := ParseSubmission(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sub, nil
}

// ParseSubmission decodes a coverage submission. JSON is accepted as a
// subset of YAML. Missing top-level collections are fatal; malformed rows
// or log entries become parse errors on the returned submission.
// Scalars keep their source text, so an id written as 1.10 stays "1.10".
func ParseSubmission(data []byte) (*models.CoverageSubmission, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse submission: %w", err)
	}

	var root *yaml.Node
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		root = resolve(doc.Content[0])
	}
	if root == nil || isNull(root) {
		return nil, ErrMissingRows
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse submission: expected an object at the top level, got %s", kindOf(root))
	}

	rowsNode := field(root, "rows")
	if rowsNode == nil || isNull(rowsNode) {
		return nil, ErrMissingRows
	}
	if rowsNode.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: 'rows' must be a list", ErrMissingRows)
	}

	logNode := field(root, "execution_log")
	if logNode == nil || isNull(logNode) {
		return nil, ErrMissingExecutionLog
	}
	if logNode.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: 'execution_log' must be a list", ErrMissingExecutionLog)
	}

	sub := &models.CoverageSubmission{
		Rows:         make([]models.CoverageRow, 0, len(rowsNode.Content)),
		ExecutionLog: make([]models.ExecutionLogEntry, 0, len(logNode.Content)),
	}

	for i, raw := range rowsNode.Content {
		row, problems := parseRow(resolve(raw))
		for _, p := range problems {
			sub.ParseErrors = append(sub.ParseErrors, models.GateError{
				Code:    CodeMalformedRow,
				ItemID:  row.ID,
				Message: fmt.Sprintf("row #%d: %s", i+1, p),
			})
		}
		if row.ID != "" {
			sub.Rows = append(sub.Rows, row)
		}
	}

	for i, raw := range logNode.Content {
		entry, problems := parseLogEntry(resolve(raw))
		for _, p := range problems {
			sub.ParseErrors = append(sub.ParseErrors, models.GateError{
				Code:    CodeMalformedLogEntry,
				Tool:    entry.Tool,
				Message: fmt.Sprintf("execution log entry #%d: %s", i+1, p),
			})
		}
		if entry.Tool != "" {
			sub.ExecutionLog = append(sub.ExecutionLog, entry)
		}
	}

	return sub, nil
}

// parseRow converts one row. A row without a usable id is dropped by the
// caller; the problem list says why.
func parseRow(n *yaml.Node) (models.CoverageRow, []string) {
	var row models.CoverageRow
	if n.Kind != yaml.MappingNode {
		return row, []string{fmt.Sprintf("expected an object, got %s", kindOf(n))}
	}

	var problems []string
	str := func(key string) string {
		s, err := scalar(field(n, key))
		if err != nil {
			problems = append(problems, fmt.Sprintf("field %q: %v", key, err))
		}
		return s
	}

	row.ID = strings.TrimSpace(str("id"))
	row.Status = str("status")
	row.ToolUsed = str("tool_used")
	row.Notes = str("notes")

	evidence, err := stringList(field(n, "evidence"))
	if err != nil {
		problems = append(problems, fmt.Sprintf("field \"evidence\": %v", err))
	}
	row.Evidence = strings.Join(evidence, "; ")

	ids, err := stringList(field(n, "finding_ids"))
	if err != nil {
		problems = append(problems, fmt.Sprintf("field \"finding_ids\": %v", err))
	}
	for _, id := range ids {
		// "A11Y-001, A11Y-002" is accepted as two ids
		for _, part := range strings.Split(id, ",") {
			if part = strings.TrimSpace(part); part != "" {
				row.FindingIDs = append(row.FindingIDs, part)
			}
		}
	}

	if row.ID == "" {
		problems = append(problems, "missing id")
	}
	return row, problems
}

func parseLogEntry(n *yaml.Node) (models.ExecutionLogEntry, []string) {
	var entry models.ExecutionLogEntry
	if n.Kind != yaml.MappingNode {
		return entry, []string{fmt.Sprintf("expected an object, got %s", kindOf(n))}
	}

	var problems []string
	str := func(key string) string {
		s, err := scalar(field(n, key))
		if err != nil {
			problems = append(problems, fmt.Sprintf("field %q: %v", key, err))
		}
		return s
	}

	entry.Tool = strings.TrimSpace(str("tool"))
	entry.Command = str("command")
	entry.Status = str("status")
	entry.Summary = str("summary")

	if entry.Tool == "" {
		problems = append(problems, "missing tool name")
	}
	return entry, problems
}

// field returns the value node stored under key in a mapping, or nil
func field(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return resolve(m.Content[i+1])
		}
	}
	return nil
}

// resolve follows aliases to the anchored node
func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

// scalar returns a scalar's text as written. Missing and null values are empty.
func scalar(n *yaml.Node) (string, error) {
	if n == nil || isNull(n) {
		return "", nil
	}
	if n.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("expected a scalar, got %s", kindOf(n))
	}
	return n.Value, nil
}

// stringList accepts a single scalar or a list of scalars
func stringList(n *yaml.Node) ([]string, error) {
	if n == nil || n.Kind != yaml.SequenceNode {
		s, err := scalar(n)
		if err != nil || strings.TrimSpace(s) == "" {
			return nil, err
		}
		return []string{s}, nil
	}

	out := make([]string, 0, len(n.Content))
	for _, item := range n.Content {
		s, err := scalar(resolve(item))
		if err != nil {
			return out, err
		}
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

func kindOf(n *yaml.Node) string {
	switch {
	case n == nil || isNull(n):
		return "null"
	case n.Kind == yaml.MappingNode:
		return "object"
	case n.Kind == yaml.SequenceNode:
		return "list"
	default:
		return strings.TrimPrefix(n.ShortTag(), "!!")
	}
}
