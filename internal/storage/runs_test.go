package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/revenue-guardian/internal/model"
	"github.com/Veraticus/revenue-guardian/internal/service"
	"github.com/shopspring/decimal"
)

func TestSQLiteStorage_SaveAndGetRun(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	createdAt := time.Date(2025, 10, 20, 9, 30, 0, 0, time.UTC)
	report := createTestReport("3f2a9c1e-0000-4000-8000-000000000001", createdAt)

	if err := store.SaveRun(ctx, report); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	record, err := store.GetRun(ctx, report.RunID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}

	if !record.CreatedAt.Equal(createdAt) {
		t.Errorf("CreatedAt = %v, want %v", record.CreatedAt, createdAt)
	}
	if record.InvoiceSource != "invoices.csv" || record.ClinicalSource != "clinical.csv" {
		t.Errorf("sources = %q/%q", record.InvoiceSource, record.ClinicalSource)
	}
	if record.Settings != report.Settings {
		t.Errorf("Settings = %+v, want %+v", record.Settings, report.Settings)
	}
	if record.Summary.TotalLines != 2 || record.Summary.MatchedCount != 1 || record.Summary.PotentialGaps != 1 {
		t.Errorf("Summary counts = %+v", record.Summary)
	}
	if !record.Summary.DollarAtRisk.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("DollarAtRisk = %s, want 1200", record.Summary.DollarAtRisk)
	}
	if !record.Summary.TotalSpend.Equal(decimal.RequireFromString("1450.50")) {
		t.Errorf("TotalSpend = %s, want 1450.50", record.Summary.TotalSpend)
	}
	if record.Summary.ReconciliationRate != 0.5 {
		t.Errorf("ReconciliationRate = %v, want 0.5", record.Summary.ReconciliationRate)
	}

	medium := record.Summary.Buckets[model.RiskMedium]
	if medium.Count != 1 || !medium.Total.Equal(decimal.RequireFromString("250.50")) {
		t.Errorf("Medium bucket = %+v", medium)
	}
	if len(record.Summary.Buckets) != len(model.RiskBuckets) {
		t.Errorf("got %d buckets, want %d", len(record.Summary.Buckets), len(model.RiskBuckets))
	}
}

func TestSQLiteStorage_GetRunRows(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	report := createTestReport("run-rows-1", time.Now())
	if err := store.SaveRun(ctx, report); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	rows, err := store.GetRunRows(ctx, report.RunID)
	if err != nil {
		t.Fatalf("GetRunRows() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	first := rows[0]
	if first.InvoiceID != "INV-1" || first.CaseID != "CASE-1" || !first.Matched {
		t.Errorf("first row = %+v", first)
	}
	if first.BestClinicalMatch == nil || *first.BestClinicalMatch != "Screw, 4mm, Titanium" {
		t.Errorf("BestClinicalMatch = %v", first.BestClinicalMatch)
	}
	if first.MatchScore == nil || *first.MatchScore != 85 {
		t.Errorf("MatchScore = %v, want 85", first.MatchScore)
	}
	if first.DayOffset == nil || *first.DayOffset != -1 {
		t.Errorf("DayOffset = %v, want -1", first.DayOffset)
	}
	if first.Risk != model.RiskMedium {
		t.Errorf("Risk = %s, want Medium", first.Risk)
	}

	second := rows[1]
	if second.BestClinicalMatch != nil || second.MatchScore != nil || second.DayOffset != nil {
		t.Errorf("expected nil match details, got %+v", second)
	}
	if second.Matched {
		t.Error("second row should be unmatched")
	}
	if !second.DollarValue.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("DollarValue = %s, want 1200", second.DollarValue)
	}
}

func TestSQLiteStorage_GetRunByPrefix(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	for _, id := range []string{"abcd1111", "abcd2222", "ffff0000"} {
		if err := store.SaveRun(ctx, createTestReport(id, time.Now())); err != nil {
			t.Fatalf("SaveRun(%s) error = %v", id, err)
		}
	}

	tests := []struct {
		name    string
		id      string
		want    string
		wantErr error
	}{
		{name: "exact", id: "abcd1111", want: "abcd1111"},
		{name: "unique prefix", id: "ffff", want: "ffff0000"},
		{name: "longer unique prefix", id: "abcd2", want: "abcd2222"},
		{name: "ambiguous prefix", id: "abcd", wantErr: ErrAmbiguous},
		{name: "too short", id: "ff", wantErr: ErrNotFound},
		{name: "unknown", id: "0000", wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := store.GetRun(ctx, tt.id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("GetRun(%q) error = %v, want %v", tt.id, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetRun(%q) error = %v", tt.id, err)
			}
			if record.ID != tt.want {
				t.Errorf("GetRun(%q).ID = %q, want %q", tt.id, record.ID, tt.want)
			}
		})
	}
}

func TestSQLiteStorage_ListRuns(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		if err := store.SaveRun(ctx, createTestReport(id, base.AddDate(0, 0, i))); err != nil {
			t.Fatalf("SaveRun(%s) error = %v", id, err)
		}
	}

	all, err := store.ListRuns(ctx, service.RunFilter{})
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d runs, want 3", len(all))
	}
	if all[0].ID != "run-c" || all[2].ID != "run-a" {
		t.Errorf("runs not newest first: %s, %s, %s", all[0].ID, all[1].ID, all[2].ID)
	}
	if len(all[1].Summary.Buckets) != 3 {
		t.Errorf("buckets not loaded for listed runs")
	}

	limited, err := store.ListRuns(ctx, service.RunFilter{Limit: 1})
	if err != nil {
		t.Fatalf("ListRuns(limit) error = %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "run-c" {
		t.Errorf("ListRuns(limit 1) = %+v", limited)
	}

	since := base.AddDate(0, 0, 1)
	recent, err := store.ListRuns(ctx, service.RunFilter{Since: &since})
	if err != nil {
		t.Fatalf("ListRuns(since) error = %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("ListRuns(since) returned %d runs, want 2", len(recent))
	}
}

func TestSQLiteStorage_DeleteRun(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	report := createTestReport("run-delete", time.Now())
	if err := store.SaveRun(ctx, report); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	if err := store.DeleteRun(ctx, report.RunID); err != nil {
		t.Fatalf("DeleteRun() error = %v", err)
	}

	if _, err := store.GetRun(ctx, report.RunID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRun() after delete error = %v, want ErrNotFound", err)
	}

	var remaining int
	if err := store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM run_rows WHERE run_id = ?`, report.RunID).Scan(&remaining); err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	if remaining != 0 {
		t.Errorf("%d run rows survived deletion", remaining)
	}

	if err := store.DeleteRun(ctx, report.RunID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteRun() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStorage_SaveRunValidation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	tests := []struct {
		report  *model.Report
		wantErr error
		name    string
	}{
		{name: "nil report", report: nil, wantErr: ErrNilParameter},
		{name: "missing id", report: createTestReport("", time.Now()), wantErr: ErrInvalidReport},
		{name: "missing time", report: createTestReport("run", time.Time{}), wantErr: ErrInvalidReport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := store.SaveRun(ctx, tt.report); !errors.Is(err, tt.wantErr) {
				t.Errorf("SaveRun() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	report := createTestReport("dup", time.Now())
	if err := store.SaveRun(ctx, report); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if err := store.SaveRun(ctx, report); err == nil {
		t.Error("expected error saving duplicate run ID")
	}
}
