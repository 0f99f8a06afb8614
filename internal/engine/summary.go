package engine

import (
	"github.com/Veraticus/revenue-guardian/internal/model"
	"github.com/shopspring/decimal"
)

// Summarize aggregates match results into reconciliation totals.
func Summarize(results []model.MatchResult, boundaries RiskBoundaries) model.SummaryReport {
	summary := model.SummaryReport{
		Buckets:      make(map[model.RiskBucket]model.BucketStats, len(model.RiskBuckets)),
		DollarAtRisk: decimal.Zero,
		TotalSpend:   decimal.Zero,
		TotalLines:   len(results),
	}
	for _, bucket := range model.RiskBuckets {
		summary.Buckets[bucket] = model.BucketStats{Total: decimal.Zero, Average: decimal.Zero}
	}

	for _, result := range results {
		value := result.Invoice.Value()
		summary.TotalSpend = summary.TotalSpend.Add(value)

		if result.Matched {
			summary.MatchedCount++
		} else {
			summary.UnmatchedCount++
			summary.DollarAtRisk = summary.DollarAtRisk.Add(value)
		}

		bucket := Classify(result, boundaries)
		stats := summary.Buckets[bucket]
		stats.Count++
		stats.Total = stats.Total.Add(value)
		summary.Buckets[bucket] = stats
	}

	for bucket, stats := range summary.Buckets {
		if stats.Count > 0 {
			stats.Average = stats.Total.Div(decimal.NewFromInt(int64(stats.Count))).Round(2)
			summary.Buckets[bucket] = stats
		}
	}

	if summary.TotalLines > 0 {
		summary.ReconciliationRate = float64(summary.MatchedCount) / float64(summary.TotalLines)
	}

	return summary
}
