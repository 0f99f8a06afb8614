package config

import (
	"fmt"
	"strings"

	"github.com/Veraticus/revenue-guardian/internal/engine"
	"github.com/spf13/viper"
)

// Configuration keys for the reconciliation engine.
const (
	KeyMatchThreshold    = "engine.match_threshold"
	KeyDateWindowDays    = "engine.date_window_days"
	KeyReviewBoundary    = "engine.risk_boundaries.review"
	KeyConfidentBoundary = "engine.risk_boundaries.confident"
	KeyAlgorithm         = "engine.algorithm"
	KeyStemTokens        = "engine.stem_tokens"
	KeyWorkers           = "engine.workers"
)

// SetEngineDefaults registers the default engine settings with v.
func SetEngineDefaults(v *viper.Viper) {
	defaults := engine.DefaultConfig()
	v.SetDefault(KeyMatchThreshold, defaults.MatchThreshold)
	v.SetDefault(KeyDateWindowDays, defaults.DateWindowDays)
	v.SetDefault(KeyReviewBoundary, defaults.RiskBoundaries.Review)
	v.SetDefault(KeyConfidentBoundary, defaults.RiskBoundaries.Confident)
	v.SetDefault(KeyAlgorithm, string(defaults.Algorithm))
	v.SetDefault(KeyStemTokens, defaults.StemTokens)
	v.SetDefault(KeyWorkers, defaults.Workers)
}

// EngineConfigFromViper reads the engine settings from v and validates them.
func EngineConfigFromViper(v *viper.Viper) (engine.Config, error) {
	cfg := engine.Config{
		Algorithm:      engine.Algorithm(strings.ToLower(strings.TrimSpace(v.GetString(KeyAlgorithm)))),
		MatchThreshold: v.GetInt(KeyMatchThreshold),
		DateWindowDays: v.GetInt(KeyDateWindowDays),
		RiskBoundaries: engine.RiskBoundaries{
			Review:    v.GetInt(KeyReviewBoundary),
			Confident: v.GetInt(KeyConfidentBoundary),
		},
		StemTokens: v.GetBool(KeyStemTokens),
		Workers:    v.GetInt(KeyWorkers),
	}

	if err := cfg.Validate(); err != nil {
		return engine.Config{}, fmt.Errorf("engine settings: %w", err)
	}

	return cfg, nil
}
