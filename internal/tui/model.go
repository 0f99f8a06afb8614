// Package tui implements the interactive review screen for a finished reconciliation.
package tui

import (
	"fmt"

	"github.com/Veraticus/revenue-guardian/internal/engine"
	"github.com/Veraticus/revenue-guardian/internal/model"
	"github.com/Veraticus/revenue-guardian/internal/report"
	"github.com/Veraticus/revenue-guardian/internal/tui/themes"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
)

// Model holds the review TUI state.
type Model struct {
	theme        themes.Theme
	lastError    error
	report       *model.Report
	status       string
	filter       report.Filter
	invoices     []model.InvoiceLine
	clinical     []model.ClinicalLogEntry
	visible      []model.ReportRow
	config       Config
	keymap       KeyMap
	help         help.Model
	table        table.Model
	engineConfig engine.Config
	height       int
	width        int
	running      bool
	quitting     bool
}

// New creates a review model over a finished report. The invoice and clinical
// tables are kept so the engine can be re-run when the threshold changes.
func New(r *model.Report, invoices []model.InvoiceLine, clinical []model.ClinicalLogEntry, cfg engine.Config, opts ...Option) Model {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	t := table.New(
		table.WithColumns(columnsFor(config.Width)),
		table.WithFocused(true),
	)
	s := table.DefaultStyles()
	s.Header = config.Theme.Header
	s.Selected = config.Theme.Selected
	t.SetStyles(s)

	m := Model{
		theme:        config.Theme,
		report:       r,
		invoices:     invoices,
		clinical:     clinical,
		engineConfig: cfg,
		filter:       report.FilterAll,
		config:       config,
		keymap:       DefaultKeyMap(),
		help:         help.New(),
		table:        t,
		width:        config.Width,
		height:       config.Height,
	}
	m.resize()
	m.refreshRows()

	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case reconciledMsg:
		m.running = false
		if msg.err != nil {
			m.lastError = msg.err
			return m, nil
		}
		m.lastError = nil
		m.report = msg.report
		m.engineConfig = withThreshold(m.engineConfig, msg.threshold)
		m.status = fmt.Sprintf("Re-ran at threshold %d", msg.threshold)
		m.refreshRows()
		return m, nil

	case exportedMsg:
		if msg.err != nil {
			m.lastError = msg.err
			return m, nil
		}
		m.lastError = nil
		m.status = fmt.Sprintf("Exported %d files to %s", len(msg.bundle.Paths()), m.config.ExportDir)
		return m, nil

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// handleKey processes review shortcuts. Unhandled keys fall through to the table.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keymap.ForceQuit), key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return tea.Quit, true

	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
		return nil, true

	case key.Matches(msg, m.keymap.CycleFilter):
		m.filter = m.filter.Next()
		m.refreshRows()
		return nil, true

	case key.Matches(msg, m.keymap.RaiseThreshold):
		return m.adjustThreshold(ThresholdStep), true

	case key.Matches(msg, m.keymap.LowerThreshold):
		return m.adjustThreshold(-ThresholdStep), true

	case key.Matches(msg, m.keymap.Export):
		m.status = "Exporting..."
		return m.export(), true
	}

	return nil, false
}

// adjustThreshold schedules a re-run unless the threshold is already at its limit
// or a run is in flight.
func (m *Model) adjustThreshold(delta int) tea.Cmd {
	if m.running {
		return nil
	}

	next := min(max(m.engineConfig.MatchThreshold+delta, MinThreshold), MaxThreshold)
	if next == m.engineConfig.MatchThreshold {
		m.status = fmt.Sprintf("Threshold limited to %d-%d", MinThreshold, MaxThreshold)
		return nil
	}

	m.running = true
	m.status = fmt.Sprintf("Re-running at threshold %d...", next)
	return m.reconcile(next)
}

// refreshRows applies the current filter to the report rows.
func (m *Model) refreshRows() {
	m.visible = report.FilterRows(m.report.Rows, m.filter)

	rows := make([]table.Row, len(m.visible))
	for i, r := range m.visible {
		rows[i] = tableRow(r)
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

// resize fits the table to the terminal, leaving room for the header and footer.
func (m *Model) resize() {
	m.help.Width = m.width
	m.table.SetColumns(columnsFor(m.width))
	m.table.SetWidth(m.width)
	m.table.SetHeight(max(3, m.height-chromeHeight(m.help.ShowAll)))
}

// Report returns the report currently under review.
func (m Model) Report() *model.Report {
	return m.report
}

// Threshold returns the match threshold of the current report.
func (m Model) Threshold() int {
	return m.engineConfig.MatchThreshold
}

// Filter returns the active row filter.
func (m Model) Filter() report.Filter {
	return m.filter
}

// VisibleRows returns the rows that pass the active filter.
func (m Model) VisibleRows() []model.ReportRow {
	return m.visible
}
