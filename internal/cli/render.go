package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/revenue-guardian/internal/inventory"
	"github.com/Veraticus/revenue-guardian/internal/model"
	"github.com/Veraticus/revenue-guardian/internal/report"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const (
	maxItemWidth = 36
	runIDWidth   = 8
)

// newTable builds a table with the shared header and cell styles.
// cellStyle may override the style of individual data cells.
func newTable(headers []string, rows [][]string, cellStyle func(row, col int) (lipgloss.Style, bool)) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SubtleStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			if cellStyle != nil {
				if style, ok := cellStyle(row, col); ok {
					return style.Padding(0, 1)
				}
			}
			return TableCellStyle
		})
}

// ReportTable renders audit rows as a table.
func ReportTable(rows []model.ReportRow) string {
	data := make([][]string, len(rows))
	for i, r := range rows {
		data[i] = []string{
			r.InvoiceID,
			truncate(r.VendorItemName, maxItemWidth),
			truncate(deref(r.BestClinicalMatch, "-"), maxItemWidth),
			orDash(r.CaseID),
			intCell(r.MatchScore),
			intCell(r.DayOffset),
			string(r.Risk),
			report.FormatCurrency(r.DollarValue),
		}
	}

	return newTable(
		[]string{"Invoice", "Vendor Item", "Best Clinical Match", "Case", "Score", "Days", "Risk", "Value"},
		data,
		func(row, col int) (lipgloss.Style, bool) {
			if col == 6 {
				return RiskStyle(rows[row].Risk), true
			}
			return lipgloss.Style{}, false
		},
	).String()
}

// SummaryLines renders the headline KPIs of a reconciliation run.
func SummaryLines(s model.SummaryReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Invoices processed: %s\n", BoldStyle.Render(strconv.Itoa(s.TotalLines)))
	fmt.Fprintf(&b, "Total spend:        %s\n", report.FormatCurrency(s.TotalSpend))
	fmt.Fprintf(&b, "Clinical entries:   %d\n", s.ClinicalEntries)
	fmt.Fprintf(&b, "Potential gaps:     %d\n", s.PotentialGaps)
	fmt.Fprintf(&b, "Matched:            %s\n", SuccessStyle.Render(fmt.Sprintf("%d (%s)", s.MatchedCount, report.FormatRate(s.ReconciliationRate))))
	fmt.Fprintf(&b, "Unmatched:          %s\n", ErrorStyle.Render(strconv.Itoa(s.UnmatchedCount)))
	fmt.Fprintf(&b, "Dollar at risk:     %s\n", ErrorStyle.Bold(true).Render(report.FormatCurrency(s.DollarAtRisk)))

	b.WriteString("\n")
	for _, bucket := range model.RiskBuckets {
		stats := s.Buckets[bucket]
		label := RiskStyle(bucket).Render(fmt.Sprintf("%-6s", bucket))
		fmt.Fprintf(&b, "%s %3d lines  %12s  avg %s\n",
			label, stats.Count, report.FormatCurrency(stats.Total), report.FormatCurrency(stats.Average))
	}

	return strings.TrimRight(b.String(), "\n")
}

// SummaryBox renders the run summary inside a bordered box.
func SummaryBox(s model.SummaryReport) string {
	return RenderBox(ChartIcon+" Reconciliation Summary", SummaryLines(s))
}

// RunsTable renders persisted runs, newest first as given.
func RunsTable(runs []model.RunRecord) string {
	data := make([][]string, len(runs))
	for i, r := range runs {
		data[i] = []string{
			shortID(r.ID),
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			strconv.Itoa(r.Summary.TotalLines),
			strconv.Itoa(r.Summary.MatchedCount),
			report.FormatRate(r.Summary.ReconciliationRate),
			report.FormatCurrency(r.Summary.DollarAtRisk),
			fmt.Sprintf("%s/%d", r.Settings.Algorithm, r.Settings.MatchThreshold),
		}
	}

	return newTable(
		[]string{"Run", "Created", "Lines", "Matched", "Rate", "At Risk", "Algorithm"},
		data, nil,
	).String()
}

// ExpiryTable renders expiration assessments.
func ExpiryTable(assessments []model.ExpirationAssessment) string {
	data := make([][]string, len(assessments))
	for i, a := range assessments {
		deplete := "-"
		if a.DaysToDeplete != nil {
			deplete = strconv.FormatFloat(*a.DaysToDeplete, 'f', 1, 64)
		}
		data[i] = []string{
			a.Item.ItemID,
			truncate(a.Item.Description, maxItemWidth),
			a.Item.LotNumber,
			a.Item.ExpirationDate.Format("2006-01-02"),
			strconv.Itoa(a.DaysToExpiry),
			deplete,
			strconv.Itoa(a.UnitsAtRisk),
			report.FormatCurrency(a.ValueAtRisk),
			string(a.Status),
		}
	}

	return newTable(
		[]string{"Item", "Description", "Lot", "Expires", "Days", "Deplete", "At Risk", "Value", "Status"},
		data,
		func(row, col int) (lipgloss.Style, bool) {
			if col == 8 {
				return ExpiryStyle(assessments[row].Status), true
			}
			return lipgloss.Style{}, false
		},
	).String()
}

// ExpirySummary renders totals per expiration status.
func ExpirySummary(totals map[model.ExpirationStatus]inventory.StatusTotals) string {
	var b strings.Builder
	for _, status := range inventory.Statuses {
		t := totals[status]
		label := ExpiryStyle(status).Render(fmt.Sprintf("%-14s", status))
		fmt.Fprintf(&b, "%s %3d lots  %4d units  %12s\n", label, t.Lots, t.UnitsAtRisk, report.FormatCurrency(t.ValueAtRisk))
	}
	return strings.TrimRight(b.String(), "\n")
}

// RecallTable renders recall alerts.
func RecallTable(alerts []model.RecallAlert) string {
	data := make([][]string, len(alerts))
	for i, a := range alerts {
		data[i] = []string{
			orDash(a.RecallID),
			a.Item.ItemID,
			truncate(a.Item.Description, maxItemWidth),
			a.Item.LotNumber,
			orDash(a.Item.Location),
			strconv.Itoa(a.Item.OnHand),
			report.FormatCurrency(a.ValueAtRisk),
			truncate(orDash(a.Reason), maxItemWidth),
		}
	}

	return newTable(
		[]string{"Recall", "Item", "Description", "Lot", "Location", "On Hand", "Value", "Reason"},
		data, nil,
	).String()
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}

func shortID(id string) string {
	if len(id) <= runIDWidth {
		return id
	}
	return id[:runIDWidth]
}

func deref(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func intCell(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}
