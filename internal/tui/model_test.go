package tui

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Veraticus/revenue-guardian/internal/engine"
	"github.com/Veraticus/revenue-guardian/internal/model"
	"github.com/Veraticus/revenue-guardian/internal/report"
	"github.com/Veraticus/revenue-guardian/internal/tui/themes"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reviewDate = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func reviewFixture(t *testing.T) ([]model.InvoiceLine, []model.ClinicalLogEntry, *model.Report) {
	t.Helper()

	invoices := []model.InvoiceLine{
		{InvoiceID: "INV-1", VendorItemName: "Stryker Total Knee", Quantity: 1, UnitCost: decimal.NewFromInt(4500), InvoiceDate: reviewDate},
		{InvoiceID: "INV-2", VendorItemName: "Pacemaker Lead", Quantity: 2, UnitCost: decimal.NewFromInt(900), InvoiceDate: reviewDate},
	}
	clinical := []model.ClinicalLogEntry{
		{CaseID: "CASE-1", ItemDescription: "Knee Stryker Total", QtyUsed: 1, ProcedureDate: reviewDate},
		{CaseID: "CASE-2", ItemDescription: "Hip Stem", QtyUsed: 1, ProcedureDate: reviewDate.AddDate(0, 0, 30)},
	}

	eng, err := engine.New(engine.DefaultConfig(), engine.WithIDGenerator(func() string { return "run-0001-abcdef" }))
	require.NoError(t, err)
	r, err := eng.Reconcile(context.Background(), invoices, clinical)
	require.NoError(t, err)

	return invoices, clinical, r
}

func newTestModel(t *testing.T, opts ...Option) Model {
	t.Helper()
	invoices, clinical, r := reviewFixture(t)
	opts = append([]Option{WithTheme(themes.Plain), WithSize(120, 30)}, opts...)
	return New(r, invoices, clinical, engine.DefaultConfig(), opts...)
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// send applies a message and then every command it produces, one level deep.
func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	updated, ok := next.(Model)
	require.True(t, ok)
	return updated, cmd
}

func resolve(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	m, _ = send(t, m, cmd())
	return m
}

func TestNew(t *testing.T) {
	m := newTestModel(t)
	assert.Equal(t, report.FilterAll, m.Filter())
	assert.Len(t, m.VisibleRows(), 2)
	assert.Equal(t, 70, m.Threshold())
	assert.Nil(t, m.Init())
}

func TestCycleFilter(t *testing.T) {
	m := newTestModel(t)

	tests := []struct {
		want    report.Filter
		visible int
	}{
		{report.FilterHigh, 1},
		{report.FilterMedium, 0},
		{report.FilterLow, 1},
		{report.FilterAll, 2},
	}

	for _, tt := range tests {
		var cmd tea.Cmd
		m, cmd = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
		assert.Nil(t, cmd)
		assert.Equal(t, tt.want, m.Filter())
		assert.Len(t, m.VisibleRows(), tt.visible)
	}

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "INV-2", m.VisibleRows()[0].InvoiceID)
}

func TestAdjustThreshold(t *testing.T) {
	m := newTestModel(t)
	before := m.Report()

	m, cmd := send(t, m, keyRunes("+"))
	assert.True(t, m.running)
	m = resolve(t, m, cmd)

	assert.False(t, m.running)
	assert.Equal(t, 75, m.Threshold())
	assert.Equal(t, 75, m.engineConfig.RiskBoundaries.Review)
	assert.Equal(t, 75, m.Report().Settings.MatchThreshold)
	assert.NotSame(t, before, m.Report())
	assert.Contains(t, m.status, "threshold 75")

	m, cmd = send(t, m, keyRunes("-"))
	m = resolve(t, m, cmd)
	assert.Equal(t, 70, m.Threshold())
}

func TestAdjustThreshold_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := newTestModel(t, WithContext(ctx))
	before := m.Report()

	m, cmd := send(t, m, keyRunes("+"))
	m = resolve(t, m, cmd)

	assert.False(t, m.running)
	require.ErrorIs(t, m.lastError, context.Canceled)
	assert.Same(t, before, m.Report())
	assert.Equal(t, 70, m.Threshold())
}

func TestAdjustThreshold_Limits(t *testing.T) {
	tests := []struct {
		name  string
		start int
		key   string
	}{
		{"upper", MaxThreshold, "+"},
		{"lower", MinThreshold, "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t)
			m.engineConfig = withThreshold(m.engineConfig, tt.start)

			m, cmd := send(t, m, keyRunes(tt.key))
			assert.Nil(t, cmd)
			assert.False(t, m.running)
			assert.Equal(t, tt.start, m.Threshold())
			assert.Contains(t, m.status, "Threshold limited")
		})
	}
}

func TestAdjustThreshold_IgnoredWhileRunning(t *testing.T) {
	m := newTestModel(t)
	m, cmd := send(t, m, keyRunes("+"))
	require.NotNil(t, cmd)

	m, cmd = send(t, m, keyRunes("+"))
	assert.Nil(t, cmd)
	assert.Equal(t, 70, m.Threshold())
}

func TestWithThreshold(t *testing.T) {
	cfg := withThreshold(engine.DefaultConfig(), 95)
	assert.Equal(t, 95, cfg.MatchThreshold)
	assert.Equal(t, 90, cfg.RiskBoundaries.Review)
	require.NoError(t, cfg.Validate())

	cfg = withThreshold(engine.DefaultConfig(), 60)
	assert.Equal(t, 60, cfg.RiskBoundaries.Review)
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)
	m := newTestModel(t, WithExportDir(dir), WithClock(func() time.Time { return at }))

	m, cmd := send(t, m, keyRunes("e"))
	m = resolve(t, m, cmd)
	require.NoError(t, m.lastError)
	assert.Contains(t, m.status, "Exported 3 files")

	for _, name := range []string{
		"revenue_leakage_audit_20240305_093000.csv",
		"high_risk_items_20240305_093000.csv",
		"summary_statistics_20240305_093000.csv",
	} {
		_, err := os.Stat(dir + "/" + name)
		assert.NoError(t, err, name)
	}
}

func TestQuit(t *testing.T) {
	for _, msg := range []tea.KeyMsg{keyRunes("q"), {Type: tea.KeyCtrlC}} {
		m := newTestModel(t)
		m, cmd := send(t, m, msg)
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
		assert.Empty(t, m.View())
	}
}

func TestView(t *testing.T) {
	m := newTestModel(t)
	view := m.View()

	assert.Contains(t, view, "Revenue Guardian")
	assert.Contains(t, view, "run run-0001")
	assert.Contains(t, view, "All Items (2/2)")
	assert.Contains(t, view, "INV-1")
	assert.Contains(t, view, "REVENUE LEAKAGE")
	assert.Contains(t, view, "$1,800.00")

	m, _ = send(t, m, tea.WindowSizeMsg{Width: 90, Height: 20})
	assert.NotEmpty(t, m.View())
}

func TestErrorStatus(t *testing.T) {
	m := newTestModel(t)
	m, _ = send(t, m, exportedMsg{err: assert.AnError})
	assert.Contains(t, m.View(), "Error: ")
}
