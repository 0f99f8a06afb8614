package engine

import (
	"errors"
	"fmt"

	"github.com/Veraticus/revenue-guardian/internal/model"
)

// ErrInvalidConfig indicates an engine configuration value is out of range.
var ErrInvalidConfig = errors.New("invalid engine configuration")

// Algorithm names the string metric applied to token-sorted descriptions.
type Algorithm string

// Supported similarity algorithms.
const (
	AlgorithmJaroWinkler Algorithm = "jaro-winkler"
	AlgorithmIndel       Algorithm = "indel"
	AlgorithmLevenshtein Algorithm = "levenshtein"
)

// Algorithms lists every supported similarity algorithm.
var Algorithms = []Algorithm{AlgorithmJaroWinkler, AlgorithmIndel, AlgorithmLevenshtein}

// RiskBoundaries are the score floors for the Medium and Low risk buckets.
type RiskBoundaries struct {
	Review    int // Scores below this are High risk
	Confident int // Scores at or above this are Low risk
}

// Config holds configuration options for the reconciliation engine.
type Config struct {
	Algorithm      Algorithm
	RiskBoundaries RiskBoundaries
	MatchThreshold int
	DateWindowDays int
	Workers        int
	StemTokens     bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Algorithm:      AlgorithmJaroWinkler,
		MatchThreshold: 70,
		DateWindowDays: 2,
		RiskBoundaries: RiskBoundaries{
			Review:    70,
			Confident: 90,
		},
		Workers: 1,
	}
}

// ConfigurationError describes a rejected configuration value.
type ConfigurationError struct {
	Value  any
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s=%v %s", ErrInvalidConfig, e.Field, e.Value, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidConfig
}

// Validate checks that every value is within its allowed range.
func (c Config) Validate() error {
	if c.MatchThreshold < 0 || c.MatchThreshold > 100 {
		return &ConfigurationError{Field: "match_threshold", Value: c.MatchThreshold, Reason: "must be within [0, 100]"}
	}
	if c.DateWindowDays < 0 {
		return &ConfigurationError{Field: "date_window_days", Value: c.DateWindowDays, Reason: "cannot be negative"}
	}
	if c.RiskBoundaries.Review < 0 || c.RiskBoundaries.Review > 100 {
		return &ConfigurationError{Field: "risk_boundaries.review", Value: c.RiskBoundaries.Review, Reason: "must be within [0, 100]"}
	}
	if c.RiskBoundaries.Confident < 0 || c.RiskBoundaries.Confident > 100 {
		return &ConfigurationError{Field: "risk_boundaries.confident", Value: c.RiskBoundaries.Confident, Reason: "must be within [0, 100]"}
	}
	if c.RiskBoundaries.Review > c.RiskBoundaries.Confident {
		return &ConfigurationError{Field: "risk_boundaries.review", Value: c.RiskBoundaries.Review, Reason: "cannot exceed the confident boundary"}
	}
	if c.Workers < 1 {
		return &ConfigurationError{Field: "workers", Value: c.Workers, Reason: "must be at least 1"}
	}
	if !c.Algorithm.valid() {
		return &ConfigurationError{Field: "algorithm", Value: c.Algorithm, Reason: "is not a supported algorithm"}
	}
	return nil
}

// Settings returns the run settings recorded alongside a report.
func (c Config) Settings() model.RunSettings {
	return model.RunSettings{
		Algorithm:         string(c.Algorithm),
		MatchThreshold:    c.MatchThreshold,
		DateWindowDays:    c.DateWindowDays,
		ReviewBoundary:    c.RiskBoundaries.Review,
		ConfidentBoundary: c.RiskBoundaries.Confident,
		StemTokens:        c.StemTokens,
	}
}

func (a Algorithm) valid() bool {
	for _, known := range Algorithms {
		if a == known {
			return true
		}
	}
	return false
}
