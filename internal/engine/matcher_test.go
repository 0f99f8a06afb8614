package engine

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/Veraticus/revenue-guardian/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher_ThresholdBoundary(t *testing.T) {
	cfg := DefaultConfig()
	inv := invoice(t, "1001", "widget", 1, "10.00", "2024-01-10")

	tests := []struct {
		name        string
		score       int
		wantMatched bool
	}{
		{name: "exactly threshold", score: 70, wantMatched: true},
		{name: "one below threshold", score: 69, wantMatched: false},
		{name: "well above threshold", score: 95, wantMatched: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMatcher(cfg, stubScorer{"widget log": tt.score})
			result := m.Match(inv, []model.ClinicalLogEntry{
				clinicalEntry(t, "C1", "Widget Log", 1, "2024-01-10"),
			})

			require.True(t, result.HasCandidate())
			assert.Equal(t, tt.score, *result.Score)
			assert.Equal(t, tt.wantMatched, result.Matched)
		})
	}
}

func TestMatcher_TemporalBoundary(t *testing.T) {
	cfg := DefaultConfig()
	inv := invoice(t, "1001", "Stryker Knee Total", 1, "4500.00", "2024-01-10")

	tests := []struct {
		name        string
		date        string
		wantMatched bool
		wantOffset  int
	}{
		{name: "two days later passes", date: "2024-01-12", wantMatched: true, wantOffset: 2},
		{name: "two days earlier passes", date: "2024-01-08", wantMatched: true, wantOffset: -2},
		{name: "three days later fails", date: "2024-01-13", wantMatched: false, wantOffset: 3},
		{name: "three days earlier fails", date: "2024-01-07", wantMatched: false, wantOffset: -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMatcher(cfg, nil)
			result := m.Match(inv, []model.ClinicalLogEntry{
				clinicalEntry(t, "C1", "total knee stryker", 1, tt.date),
			})

			require.True(t, result.HasCandidate())
			assert.Equal(t, 100, *result.Score, "identical token sets score 100 regardless of the gate")
			assert.Equal(t, tt.wantOffset, *result.DayOffset)
			assert.Equal(t, tt.wantMatched, result.Matched)
			assert.Equal(t, tt.wantMatched, result.WithinWindow)
		})
	}
}

func TestMatcher_PrefersWindowOverHigherScore(t *testing.T) {
	m := NewMatcher(DefaultConfig(), stubScorer{"far": 100, "near": 75})
	inv := invoice(t, "1001", "item", 1, "1.00", "2024-01-10")

	result := m.Match(inv, []model.ClinicalLogEntry{
		clinicalEntry(t, "FAR", "far", 1, "2024-01-20"),
		clinicalEntry(t, "NEAR", "near", 1, "2024-01-11"),
	})

	require.True(t, result.HasCandidate())
	assert.Equal(t, "NEAR", result.Entry.CaseID)
	assert.Equal(t, 75, *result.Score)
	assert.True(t, result.Matched)
}

func TestMatcher_TieBreak(t *testing.T) {
	inv := invoice(t, "1001", "item", 1, "1.00", "2024-01-10")

	t.Run("smallest absolute offset wins", func(t *testing.T) {
		m := NewMatcher(DefaultConfig(), stubScorer{"a": 80, "b": 80, "c": 80})
		result := m.Match(inv, []model.ClinicalLogEntry{
			clinicalEntry(t, "A", "a", 1, "2024-01-12"),
			clinicalEntry(t, "B", "b", 1, "2024-01-09"),
			clinicalEntry(t, "C", "c", 1, "2024-01-08"),
		})
		assert.Equal(t, "B", result.Entry.CaseID)
		assert.Equal(t, -1, *result.DayOffset)
	})

	t.Run("first in input order wins", func(t *testing.T) {
		m := NewMatcher(DefaultConfig(), stubScorer{"a": 80, "b": 80})
		result := m.Match(inv, []model.ClinicalLogEntry{
			clinicalEntry(t, "A", "a", 1, "2024-01-11"),
			clinicalEntry(t, "B", "b", 1, "2024-01-09"),
		})
		assert.Equal(t, "A", result.Entry.CaseID)
	})

	t.Run("higher score beats closer date", func(t *testing.T) {
		m := NewMatcher(DefaultConfig(), stubScorer{"a": 80, "b": 81})
		result := m.Match(inv, []model.ClinicalLogEntry{
			clinicalEntry(t, "A", "a", 1, "2024-01-10"),
			clinicalEntry(t, "B", "b", 1, "2024-01-12"),
		})
		assert.Equal(t, "B", result.Entry.CaseID)
	})
}

func TestMatcher_BelowThresholdReportsClosestCandidate(t *testing.T) {
	m := NewMatcher(DefaultConfig(), stubScorer{"a": 40, "b": 55})
	inv := invoice(t, "1001", "item", 1, "1.00", "2024-01-10")

	result := m.Match(inv, []model.ClinicalLogEntry{
		clinicalEntry(t, "A", "a", 1, "2024-01-10"),
		clinicalEntry(t, "B", "b", 1, "2024-01-11"),
	})

	require.True(t, result.HasCandidate())
	assert.False(t, result.Matched)
	assert.True(t, result.WithinWindow)
	assert.Equal(t, "B", result.Entry.CaseID)
	assert.Equal(t, 55, *result.Score)
}

func TestMatcher_ScrewScenario(t *testing.T) {
	m := NewMatcher(DefaultConfig(), nil)
	inv := invoice(t, "1001", "Stryker Screw 4mm", 2, "150.00", "2024-01-10")

	t.Run("documented the next day", func(t *testing.T) {
		result := m.Match(inv, []model.ClinicalLogEntry{
			clinicalEntry(t, "CASE-1", "Screw, 4mm, Titanium", 2, "2024-01-11"),
		})

		require.True(t, result.HasCandidate())
		assert.GreaterOrEqual(t, *result.Score, 80)
		assert.Equal(t, 1, *result.DayOffset)
		assert.True(t, result.Matched)

		risk := Classify(result, DefaultConfig().RiskBoundaries)
		assert.Contains(t, []model.RiskBucket{model.RiskMedium, model.RiskLow}, risk)
	})

	t.Run("documented ten days later", func(t *testing.T) {
		result := m.Match(inv, []model.ClinicalLogEntry{
			clinicalEntry(t, "CASE-2", "Screw, 4mm, Titanium", 2, "2024-01-20"),
		})

		require.True(t, result.HasCandidate())
		assert.Equal(t, 10, *result.DayOffset)
		assert.False(t, result.WithinWindow)
		assert.False(t, result.Matched)
		assert.Equal(t, model.RiskHigh, Classify(result, DefaultConfig().RiskBoundaries))
	})

	t.Run("empty clinical table", func(t *testing.T) {
		result := m.Match(inv, nil)

		assert.False(t, result.HasCandidate())
		assert.Nil(t, result.Score)
		assert.Nil(t, result.Entry)
		assert.Nil(t, result.DayOffset)
		assert.False(t, result.Matched)
		assert.Equal(t, model.RiskHigh, Classify(result, DefaultConfig().RiskBoundaries))
	})
}

func TestMatcher_MatchAllPreservesOrder(t *testing.T) {
	invoices, clinical := matchFixture(t)

	serial := NewMatcher(DefaultConfig(), nil)
	want, err := serial.MatchAll(context.Background(), invoices, clinical, nil)
	require.NoError(t, err)
	require.Len(t, want, len(invoices))

	for i, result := range want {
		assert.Equal(t, invoices[i].PONumber, result.Invoice.PONumber)
	}

	for _, workers := range []int{2, 4, 16} {
		cfg := DefaultConfig()
		cfg.Workers = workers
		got, err := NewMatcher(cfg, nil).MatchAll(context.Background(), invoices, clinical, nil)
		require.NoError(t, err)
		assert.Equal(t, want, got, "workers=%d", workers)
	}
}

type countingProgress struct {
	n atomic.Int64
}

func (c *countingProgress) Advance() {
	c.n.Add(1)
}

func TestMatcher_MatchAllReportsProgress(t *testing.T) {
	invoices, clinical := matchFixture(t)

	for _, workers := range []int{1, 3} {
		cfg := DefaultConfig()
		cfg.Workers = workers
		progress := &countingProgress{}

		_, err := NewMatcher(cfg, nil).MatchAll(context.Background(), invoices, clinical, progress)
		require.NoError(t, err)
		assert.Equal(t, int64(len(invoices)), progress.n.Load())
	}
}

func TestMatcher_MatchAllHonorsCancellation(t *testing.T) {
	invoices, clinical := matchFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 4} {
		cfg := DefaultConfig()
		cfg.Workers = workers
		results, err := NewMatcher(cfg, nil).MatchAll(ctx, invoices, clinical, nil)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, results)
	}
}

func matchFixture(t *testing.T) ([]model.InvoiceLine, []model.ClinicalLogEntry) {
	t.Helper()
	invoices := []model.InvoiceLine{
		invoice(t, "PO-1001", "Stryker Knee System", 1, "4500.00", "2025-10-15"),
		invoice(t, "PO-1002", "Zimmer Hip Stem, Size 12", 1, "3200.00", "2025-10-15"),
		invoice(t, "PO-1003", "Medtronic Pedicle Screw 6.5mm", 4, "850.00", "2025-10-16"),
		invoice(t, "PO-1004", "DePuy Suture Anchor", 2, "420.00", "2025-10-17"),
		invoice(t, "PO-1005", "Synthes Locking Plate", 1, "1250.00", "2025-10-18"),
		invoice(t, "PO-1006", "Arthrex Interference Screw", 1, "390.00", "2025-10-20"),
	}
	clinical := []model.ClinicalLogEntry{
		clinicalEntry(t, "CASE-501", "Knee System, Stryker", 1, "2025-10-15"),
		clinicalEntry(t, "CASE-502", "hip stem zimmer sz 12", 1, "2025-10-16"),
		clinicalEntry(t, "CASE-503", "pedicle screw medtronic", 4, "2025-10-16"),
		clinicalEntry(t, "CASE-504", "locking plate synthes", 1, "2025-10-25"),
		clinicalEntry(t, "CASE-505", "anchor suture", 2, "2025-10-17"),
	}
	return invoices, clinical
}
