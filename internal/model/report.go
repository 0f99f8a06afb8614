package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BucketStats aggregates the invoice lines that fell into one risk bucket.
type BucketStats struct {
	Total   decimal.Decimal
	Average decimal.Decimal
	Count   int
}

// SummaryReport holds the totals for a reconciliation run.
type SummaryReport struct {
	Buckets            map[RiskBucket]BucketStats
	DollarAtRisk       decimal.Decimal
	TotalSpend         decimal.Decimal
	ReconciliationRate float64
	TotalLines         int
	MatchedCount       int
	UnmatchedCount     int
	ClinicalEntries    int
	PotentialGaps      int
}

// ReportRow is one line of the audit report.
type ReportRow struct {
	BestClinicalMatch *string
	MatchScore        *int
	DayOffset         *int
	DollarValue       decimal.Decimal
	InvoiceID         string
	PONumber          string
	VendorItemName    string
	CaseID            string
	Risk              RiskBucket
	Status            string
	Matched           bool
}

// RunSettings records the engine configuration a report was produced with.
type RunSettings struct {
	Algorithm         string
	MatchThreshold    int
	DateWindowDays    int
	ReviewBoundary    int
	ConfidentBoundary int
	StemTokens        bool
}

// Report is the complete output of a reconciliation run.
type Report struct {
	CreatedAt      time.Time
	RunID          string
	InvoiceSource  string
	ClinicalSource string
	Rows           []ReportRow
	Results        []MatchResult
	Settings       RunSettings
	Summary        SummaryReport
}

// RunRecord is a persisted reconciliation run without its detail rows.
type RunRecord struct {
	CreatedAt      time.Time
	ID             string
	InvoiceSource  string
	ClinicalSource string
	Settings       RunSettings
	Summary        SummaryReport
}
