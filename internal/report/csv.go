package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/Veraticus/revenue-guardian/internal/model"
	"github.com/shopspring/decimal"
)

// Columns is the header of the detail report.
var Columns = []string{
	"Invoice_ID",
	"PO_Number",
	"Vendor_Item_Name",
	"Best_Clinical_Match",
	"Case_ID",
	"Match_Score",
	"Day_Offset",
	"Matched",
	"Risk_Bucket",
	"Status",
	"Dollar_Value",
}

// SummaryColumns is the header of the per-bucket block of the summary file.
var SummaryColumns = []string{"Risk_Bucket", "Count", "Total_Amount", "Avg_Amount"}

// WriteRows writes report rows as CSV. Missing match details become empty cells.
func WriteRows(w io.Writer, rows []model.ReportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		if err := cw.Write(rowRecord(row)); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSummary writes the per-bucket statistics followed by the run totals.
func WriteSummary(w io.Writer, summary model.SummaryReport) error {
	records := [][]string{SummaryColumns}
	for _, bucket := range model.RiskBuckets {
		stats := summary.Buckets[bucket]
		records = append(records, []string{
			string(bucket),
			strconv.Itoa(stats.Count),
			amount(stats.Total),
			amount(stats.Average),
		})
	}

	records = append(records,
		[]string{},
		[]string{"Metric", "Value"},
		[]string{"Total_Lines", strconv.Itoa(summary.TotalLines)},
		[]string{"Matched", strconv.Itoa(summary.MatchedCount)},
		[]string{"Unmatched", strconv.Itoa(summary.UnmatchedCount)},
		[]string{"Dollar_At_Risk", amount(summary.DollarAtRisk)},
		[]string{"Total_Spend", amount(summary.TotalSpend)},
		[]string{"Reconciliation_Rate", strconv.FormatFloat(summary.ReconciliationRate, 'f', 4, 64)},
		[]string{"Clinical_Entries", strconv.Itoa(summary.ClinicalEntries)},
		[]string{"Potential_Gaps", strconv.Itoa(summary.PotentialGaps)},
	)

	cw := csv.NewWriter(w)
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

func rowRecord(row model.ReportRow) []string {
	return []string{
		row.InvoiceID,
		row.PONumber,
		row.VendorItemName,
		optionalString(row.BestClinicalMatch),
		row.CaseID,
		optionalInt(row.MatchScore),
		optionalInt(row.DayOffset),
		strconv.FormatBool(row.Matched),
		string(row.Risk),
		row.Status,
		amount(row.DollarValue),
	}
}

func amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func optionalString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optionalInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
