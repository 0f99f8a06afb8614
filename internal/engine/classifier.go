package engine

import "github.com/Veraticus/revenue-guardian/internal/model"

// Classify buckets a match result by risk of revenue leakage.
// Unmatched lines are always High risk, whatever their best score.
func Classify(result model.MatchResult, boundaries RiskBoundaries) model.RiskBucket {
	if !result.HasCandidate() || !result.Matched {
		return model.RiskHigh
	}

	score := result.ScoreValue()
	switch {
	case score < boundaries.Review:
		return model.RiskHigh
	case score < boundaries.Confident:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}
