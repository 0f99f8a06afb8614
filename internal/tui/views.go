package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/revenue-guardian/internal/model"
	"github.com/Veraticus/revenue-guardian/internal/report"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// headerHeight covers the title line and the bordered summary box.
const headerHeight = 6

func chromeHeight(fullHelp bool) int {
	if fullHelp {
		return headerHeight + 7
	}
	return headerHeight + 3
}

// columnsFor sizes the table columns to the terminal width.
func columnsFor(width int) []table.Column {
	available := max(width-4, 80)
	item := max(18, (available-54)/2)
	return []table.Column{
		{Title: "Invoice", Width: 10},
		{Title: "Vendor Item", Width: item},
		{Title: "Best Clinical Match", Width: item},
		{Title: "Score", Width: 5},
		{Title: "Days", Width: 4},
		{Title: "Risk", Width: 6},
		{Title: "Status", Width: 15},
		{Title: "Value", Width: 12},
	}
}

func tableRow(r model.ReportRow) table.Row {
	match := "-"
	if r.BestClinicalMatch != nil {
		match = *r.BestClinicalMatch
	}
	return table.Row{
		r.InvoiceID,
		r.VendorItemName,
		match,
		intCell(r.MatchScore),
		intCell(r.DayOffset),
		string(r.Risk),
		r.Status,
		report.FormatCurrency(r.DollarValue),
	}
}

func intCell(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		m.table.View(),
		m.renderStatusBar(),
		m.help.View(m.keymap),
	)
}

// renderHeader renders the title and the KPI box.
func (m Model) renderHeader() string {
	s := m.report.Summary

	title := m.theme.Title.Render("Revenue Guardian") + "  " +
		m.theme.Subtitle.Render(fmt.Sprintf("run %s · threshold %d · %s (%d/%d)",
			shortID(m.report.RunID), m.engineConfig.MatchThreshold, m.filter.Label(), len(m.visible), len(m.report.Rows)))

	kpis := strings.Join([]string{
		fmt.Sprintf("Invoices %s", m.theme.Bold.Render(strconv.Itoa(s.TotalLines))),
		fmt.Sprintf("Spend %s", m.theme.Bold.Render(report.FormatCurrency(s.TotalSpend))),
		fmt.Sprintf("Clinical %d", s.ClinicalEntries),
		fmt.Sprintf("Gaps %d", s.PotentialGaps),
		fmt.Sprintf("Reconciled %s", m.theme.StatusSuccess.Render(report.FormatRate(s.ReconciliationRate))),
		fmt.Sprintf("At risk %s", m.theme.StatusError.Render(report.FormatCurrency(s.DollarAtRisk))),
	}, "   ")

	buckets := make([]string, 0, len(model.RiskBuckets))
	for _, bucket := range model.RiskBuckets {
		stats := s.Buckets[bucket]
		buckets = append(buckets, m.theme.Risk(bucket).Render(
			fmt.Sprintf("%s %d (%s)", bucket, stats.Count, report.FormatCurrency(stats.Total))))
	}

	box := m.theme.RoundedBox.Render(lipgloss.JoinVertical(lipgloss.Left, kpis, strings.Join(buckets, "   ")))
	return lipgloss.JoinVertical(lipgloss.Left, title, box)
}

// renderStatusBar renders the line under the table.
func (m Model) renderStatusBar() string {
	switch {
	case m.lastError != nil:
		return m.theme.StatusError.Render("Error: " + m.lastError.Error())
	case m.status != "":
		return m.theme.StatusInfo.Render(m.status)
	default:
		return m.theme.StatusBar.Render(fmt.Sprintf("%d rows", len(m.visible)))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
