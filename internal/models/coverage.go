package models

// Coverage row statuses
const (
	StatusPass = "PASS"
	StatusFail = "FAIL"
	StatusNA   = "N/A"
)

// Execution log statuses
const (
	ToolStatusPass    = "PASS"
	ToolStatusFail    = "FAIL"
	ToolStatusSkipped = "SKIPPED"
)

// ChecklistTemplate is the authoritative list of audit domains and the
// tools that must appear in the execution log
type ChecklistTemplate struct {
	Name          string                  `yaml:"name" json:"name"`
	Version       string                  `yaml:"version" json:"version"`
	Items         []ChecklistTemplateItem `yaml:"items" json:"items"`
	RequiredTools []string                `yaml:"required_tools" json:"required_tools"`
}

// ChecklistTemplateItem is one required audit domain
type ChecklistTemplateItem struct {
	ID      string   `yaml:"id" json:"id"`
	Section string   `yaml:"section" json:"section"`
	WCAG    []string `yaml:"wcag" json:"wcag"`
}

// CoverageSubmission is the operator-authored checklist for one run
type CoverageSubmission struct {
	Rows         []CoverageRow       `yaml:"rows" json:"rows"`
	ExecutionLog []ExecutionLogEntry `yaml:"execution_log" json:"execution_log"`
	// ParseErrors holds defects found while reading the submission.
	// The gate reports each of them.
	ParseErrors []GateError `yaml:"-" json:"-"`
}

// CoverageRow is the operator's verdict on one checklist item
type CoverageRow struct {
	ID         string   `yaml:"id" json:"id"`
	Status     string   `yaml:"status" json:"status"`
	ToolUsed   string   `yaml:"tool_used" json:"tool_used"`
	Evidence   string   `yaml:"evidence" json:"evidence"`
	FindingIDs []string `yaml:"finding_ids" json:"finding_ids"`
	Notes      string   `yaml:"notes" json:"notes"`
}

// ExecutionLogEntry records one tool run
type ExecutionLogEntry struct {
	Tool    string `yaml:"tool" json:"tool"`
	Command string `yaml:"command" json:"command"`
	Status  string `yaml:"status" json:"status"`
	Summary string `yaml:"summary" json:"summary"`
}

// GateError is a single coverage gate defect
type GateError struct {
	Code      string `json:"code"`
	ItemID    string `json:"item_id,omitempty"`
	Tool      string `json:"tool,omitempty"`
	FindingID string `json:"finding_id,omitempty"`
	Message   string `json:"message"`
}

func (e GateError) String() string {
	return "[" + e.Code + "] " + e.Message
}

// StatusTallies counts normalized rows per status
type StatusTallies struct {
	Pass    int `json:"pass"`
	Fail    int `json:"fail"`
	NA      int `json:"na"`
	Invalid int `json:"invalid"`
}

// CoverageGateResult is the outcome of one gate validation
type CoverageGateResult struct {
	GatePassed   bool          `json:"gate_passed"`
	Tallies      StatusTallies `json:"tallies"`
	Rows         []CoverageRow `json:"rows"`
	Errors       []GateError   `json:"errors"`
	TemplateSize int           `json:"template_size"`
	FindingCount int           `json:"finding_count"`
}
