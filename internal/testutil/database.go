// Package testutil provides shared fixtures and database setup for tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/revenue-guardian/internal/model"
	"github.com/Veraticus/revenue-guardian/internal/service"
	"github.com/Veraticus/revenue-guardian/internal/storage"
	"github.com/shopspring/decimal"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage   service.Storage
	t         *testing.T
	Inventory []model.InventoryItem
	Runs      []*model.Report
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup func(context.Context, service.Storage) error
	Inventory   []model.InventoryItem
	Runs        []*model.Report
}

// SetupTestDB creates a migrated in-memory database seeded from opts.
// The database is closed when the test finishes.
func SetupTestDB(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	if len(opts.Inventory) > 0 {
		if err := store.SaveInventoryItems(ctx, opts.Inventory); err != nil {
			t.Fatalf("failed to seed inventory: %v", err)
		}
	}

	for _, run := range opts.Runs {
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("failed to seed run %s: %v", run.RunID, err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return &TestDB{
		Storage:   store,
		Inventory: opts.Inventory,
		Runs:      opts.Runs,
		t:         t,
	}
}

// InventoryFixture returns three lots relative to asOf: one expired, one that
// usage will not consume before expiry, and one comfortably in date.
func InventoryFixture(asOf time.Time) []model.InventoryItem {
	return []model.InventoryItem{
		{
			ItemID:         "IMP-100",
			Description:    "Cortical Bone Screw 3.5mm",
			LotNumber:      "LOT-A1",
			Manufacturer:   "Synthes",
			Location:       "OR Core",
			OnHand:         12,
			UnitCost:       decimal.NewFromInt(85),
			ExpirationDate: asOf.AddDate(0, 0, -3),
			AvgDailyUsage:  2,
		},
		{
			ItemID:         "IMP-200",
			Description:    "Cemented Hip Stem",
			LotNumber:      "LOT-B7",
			Manufacturer:   "Zimmer",
			Location:       "Ortho Cart 2",
			OnHand:         10,
			UnitCost:       decimal.NewFromInt(1200),
			ExpirationDate: asOf.AddDate(0, 0, 10),
			AvgDailyUsage:  0.5,
		},
		{
			ItemID:         "IMP-300",
			Description:    "Suture Anchor 5.0",
			LotNumber:      "LOT-C3",
			Manufacturer:   "Smith & Nephew",
			Location:       "Sports Med",
			OnHand:         4,
			UnitCost:       decimal.NewFromInt(425),
			ExpirationDate: asOf.AddDate(1, 0, 0),
			AvgDailyUsage:  1,
		},
	}
}

// ReportFixture returns a small finished report with one matched and one
// unmatched line.
func ReportFixture(id string, createdAt time.Time) *model.Report {
	score, offset := 100, 0
	match := "Knee Stryker Total"
	lowValue := decimal.NewFromInt(4500)
	highValue := decimal.NewFromInt(1800)

	return &model.Report{
		RunID:          id,
		CreatedAt:      createdAt,
		InvoiceSource:  "invoices.csv",
		ClinicalSource: "clinical.csv",
		Settings: model.RunSettings{
			Algorithm:         "jaro-winkler",
			MatchThreshold:    70,
			DateWindowDays:    2,
			ReviewBoundary:    70,
			ConfidentBoundary: 90,
		},
		Rows: []model.ReportRow{
			{
				InvoiceID:         "INV-1",
				PONumber:          "PO-1",
				VendorItemName:    "Stryker Total Knee",
				BestClinicalMatch: &match,
				CaseID:            "CASE-1",
				MatchScore:        &score,
				DayOffset:         &offset,
				Matched:           true,
				Risk:              model.RiskLow,
				Status:            model.RiskLow.Status(),
				DollarValue:       lowValue,
			},
			{
				InvoiceID:      "INV-2",
				PONumber:       "PO-2",
				VendorItemName: "Pacemaker Lead",
				Risk:           model.RiskHigh,
				Status:         model.RiskHigh.Status(),
				DollarValue:    highValue,
			},
		},
		Summary: model.SummaryReport{
			TotalLines:         2,
			MatchedCount:       1,
			UnmatchedCount:     1,
			DollarAtRisk:       highValue,
			TotalSpend:         lowValue.Add(highValue),
			ReconciliationRate: 0.5,
			ClinicalEntries:    1,
			PotentialGaps:      1,
			Buckets: map[model.RiskBucket]model.BucketStats{
				model.RiskHigh:   {Count: 1, Total: highValue, Average: highValue},
				model.RiskMedium: {Total: decimal.Zero, Average: decimal.Zero},
				model.RiskLow:    {Count: 1, Total: lowValue, Average: lowValue},
			},
		},
	}
}
