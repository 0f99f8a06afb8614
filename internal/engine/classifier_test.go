package engine

import (
	"testing"

	"github.com/Veraticus/revenue-guardian/internal/model"
	"github.com/stretchr/testify/assert"
)

func scored(score int, matched bool) model.MatchResult {
	entry := model.ClinicalLogEntry{CaseID: "C1"}
	offset := 0
	return model.MatchResult{
		Entry:        &entry,
		Score:        &score,
		DayOffset:    &offset,
		WithinWindow: true,
		Matched:      matched,
	}
}

func TestClassify(t *testing.T) {
	boundaries := DefaultConfig().RiskBoundaries

	tests := []struct {
		name   string
		result model.MatchResult
		want   model.RiskBucket
	}{
		{name: "no candidate", result: model.MatchResult{}, want: model.RiskHigh},
		{name: "below review", result: scored(69, false), want: model.RiskHigh},
		{name: "at review", result: scored(70, true), want: model.RiskMedium},
		{name: "just below confident", result: scored(89, true), want: model.RiskMedium},
		{name: "at confident", result: scored(90, true), want: model.RiskLow},
		{name: "perfect", result: scored(100, true), want: model.RiskLow},
		{name: "high score but unmatched", result: scored(95, false), want: model.RiskHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.result, boundaries))
		})
	}
}

func TestClassify_CustomBoundaries(t *testing.T) {
	boundaries := RiskBoundaries{Review: 60, Confident: 80}

	assert.Equal(t, model.RiskHigh, Classify(scored(59, true), boundaries))
	assert.Equal(t, model.RiskMedium, Classify(scored(60, true), boundaries))
	assert.Equal(t, model.RiskLow, Classify(scored(80, true), boundaries))
}

func TestRiskBucket_Status(t *testing.T) {
	assert.Equal(t, "Match Found", model.RiskLow.Status())
	assert.Equal(t, "Review Required", model.RiskMedium.Status())
	assert.Equal(t, "REVENUE LEAKAGE", model.RiskHigh.Status())
}
