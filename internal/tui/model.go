package tui

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
)

// mode represents the current UI interaction mode.
type mode int

const (
	modeNormal mode = iota
	modeSearch
	modeFilterRoute
)

const defaultTableHeight = 15

// Model is the top-level Bubble Tea model for the findings browser.
type Model struct {
	// Data (immutable after init)
	report      *models.AuditReport
	trend       *models.TrendSummary
	allFindings []models.Finding

	// UI state
	table            table.Model
	searchInput      textinput.Model
	filteredFindings []models.Finding
	filters          filterState
	sortBy           sortField
	mode             mode
	routeChoices     []string
	routeCursor      int
	width            int
	height           int
	statusMsg        string
	// clipboard holds the last copied text; osc receives the OSC 52 escape
	clipboard string
	osc       io.Writer
}

// New creates a new TUI model from a stored run.
func New(report *models.AuditReport, trend *models.TrendSummary) Model {
	findings := make([]models.Finding, len(report.Findings))
	copy(findings, report.Findings)

	sortFindings(findings, sortBySeverity)
	t := newTable(buildRows(findings), defaultTableHeight)

	ti := textinput.New()
	ti.Placeholder = "search..."
	ti.CharLimit = 64

	return Model{
		report:           report,
		trend:            trend,
		allFindings:      findings,
		filteredFindings: findings,
		table:            t,
		searchInput:      ti,
		sortBy:           sortBySeverity,
		mode:             modeNormal,
		routeChoices:     uniqueRoutes(findings),
		width:            80,
		height:           24,
		osc:              os.Stdout,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width)
		tableH := msg.Height - headerHeight - detailHeight - 3
		if tableH < 3 {
			tableH = 3
		}
		m.table.SetHeight(tableH)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	switch m.mode {
	case modeSearch:
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	default:
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeSearch:
		return m.handleSearchKey(msg)
	case modeFilterRoute:
		return m.handleFilterRouteKey(msg)
	default:
		return m.handleNormalKey(msg)
	}
}

func (m Model) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Search):
		m.mode = modeSearch
		m.searchInput.Focus()
		return m, textinput.Blink
	case key.Matches(msg, keys.FilterRoute):
		m.mode = modeFilterRoute
		m.routeCursor = 0
		return m, nil
	case key.Matches(msg, keys.FilterSeverity):
		m.filters.Severity = nextSeverity(m.filters.Severity)
		m.refilter()
		return m, nil
	case key.Matches(msg, keys.FilterLevel):
		m.filters.Level = nextLevel(m.filters.Level)
		m.refilter()
		return m, nil
	case key.Matches(msg, keys.FixableOnly):
		m.filters.FixableOnly = !m.filters.FixableOnly
		m.refilter()
		return m, nil
	case key.Matches(msg, keys.Sort):
		m.sortBy = (m.sortBy + 1) % sortField(sortFieldCount)
		m.rebuildTable()
		m.statusMsg = fmt.Sprintf("Sort: %s", sortFieldName(m.sortBy))
		return m, nil
	case key.Matches(msg, keys.Copy):
		m.copySelectedFinding()
		return m, nil
	case key.Matches(msg, keys.ClearFilter):
		m.filters = filterState{}
		m.statusMsg = ""
		m.rebuildTable()
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.filters.SearchText = m.searchInput.Value()
		m.mode = modeNormal
		m.searchInput.Blur()
		m.refilter()
		return m, nil
	case "esc":
		m.mode = modeNormal
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleFilterRouteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.routeCursor > 0 {
			m.routeCursor--
		}
	case "down", "j":
		if m.routeCursor < len(m.routeChoices) {
			m.routeCursor++
		}
	case "enter":
		if m.routeCursor == 0 {
			m.filters.Route = ""
		} else if m.routeCursor <= len(m.routeChoices) {
			m.filters.Route = m.routeChoices[m.routeCursor-1]
		}
		m.mode = modeNormal
		m.refilter()
	case "esc":
		m.mode = modeNormal
	}
	return m, nil
}

func (m *Model) rebuildTable() {
	filtered := applyFilters(m.allFindings, m.filters)
	sortFindings(filtered, m.sortBy)
	m.filteredFindings = filtered
	m.table.SetRows(buildRows(filtered))
}

// refilter applies the current filters and reports them in the status line
func (m *Model) refilter() {
	m.rebuildTable()
	m.statusMsg = m.filters.describe()
}

func (m *Model) selectedFinding() *models.Finding {
	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(m.filteredFindings) {
		return nil
	}
	return &m.filteredFindings[cursor]
}

// copySelectedFinding copies the selected finding as a ready-to-file issue
// via OSC 52.
func (m *Model) copySelectedFinding() {
	f := m.selectedFinding()
	if f == nil {
		m.statusMsg = "Nothing to copy"
		return
	}
	m.clipboard = issueText(f)
	m.statusMsg = "Copied " + f.ID
	if m.osc != nil {
		fmt.Fprintf(m.osc, "\033]52;c;%s\a", base64.StdEncoding.EncodeToString([]byte(m.clipboard)))
	}
}

// issueText renders a finding the way it would be filed in a tracker
func issueText(f *models.Finding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] %s\n", f.ID, f.Severity, f.Title)
	fmt.Fprintf(&b, "Rule: %s  WCAG: %s\n", f.RuleID, wcagLabel(*f))
	fmt.Fprintf(&b, "Routes: %s\n", strings.Join(f.AffectedRoutes, ", "))
	if len(f.Selectors) > 0 {
		fmt.Fprintf(&b, "Selectors: %s\n", strings.Join(f.Selectors, ", "))
	}
	if f.RecommendedFix != "" {
		fmt.Fprintf(&b, "Fix: %s\n", f.RecommendedFix)
	}
	if f.HelpURL != "" {
		fmt.Fprintf(&b, "Reference: %s\n", f.HelpURL)
	}
	return b.String()
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	var sparkline []int
	if m.trend != nil {
		sparkline = m.trend.FindingSparkline
	}
	b.WriteString(renderHeader(m.report, sparkline, m.width))
	b.WriteString("\n")

	if m.mode == modeSearch {
		b.WriteString(styleSearchPrompt.Render("/ "))
		b.WriteString(m.searchInput.View())
		b.WriteString("\n")
	}

	if m.mode == modeFilterRoute {
		b.WriteString(m.renderRouteFilter())
		b.WriteString("\n")
	}

	b.WriteString(m.table.View())
	b.WriteString("\n")

	b.WriteString(renderDetail(m.selectedFinding(), m.width))
	b.WriteString("\n")

	b.WriteString(m.renderFooter())

	return b.String()
}

func (m *Model) renderRouteFilter() string {
	var b strings.Builder
	b.WriteString("Filter by route:\n")

	options := append([]string{"All"}, m.routeChoices...)
	for i, opt := range options {
		cursor := "  "
		if i == m.routeCursor {
			cursor = "> "
		}
		b.WriteString(fmt.Sprintf("%s%s\n", cursor, opt))
	}
	return b.String()
}

func (m *Model) renderFooter() string {
	left := "q:quit  /:search  r:route  v:severity  w:level  f:fixable  s:sort  c:copy  esc:clear"
	right := fmt.Sprintf("%d/%d findings", len(m.filteredFindings), len(m.allFindings))

	if m.statusMsg != "" {
		right = m.statusMsg + "  " + right
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	return styleFooter.Render(left + strings.Repeat(" ", gap) + right)
}

// Run starts the Bubble Tea program. Called from the summarize command.
func Run(report *models.AuditReport, trend *models.TrendSummary) error {
	m := New(report, trend)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
