package engine

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
	"github.com/surgebase/porter2"
)

// TokenSortScorer compares descriptions after sorting their tokens, so word
// order does not affect the score. Empty input on either side scores 0.
type TokenSortScorer struct {
	algorithm Algorithm
	stem      bool
}

// NewTokenSortScorer creates a scorer using the given metric.
func NewTokenSortScorer(algorithm Algorithm, stem bool) *TokenSortScorer {
	if algorithm == "" {
		algorithm = AlgorithmJaroWinkler
	}
	return &TokenSortScorer{
		algorithm: algorithm,
		stem:      stem,
	}
}

// Score returns the token-sort similarity of a and b in [0, 100].
func (s *TokenSortScorer) Score(a, b string) int {
	left := s.sortTokens(a)
	right := s.sortTokens(b)

	if left == "" || right == "" {
		return 0
	}
	if left == right {
		return 100
	}

	// Fixed argument order keeps asymmetric metric implementations symmetric.
	if left > right {
		left, right = right, left
	}

	var similarity float64
	switch s.algorithm {
	case AlgorithmIndel:
		similarity = indelSimilarity(left, right)
	case AlgorithmLevenshtein:
		similarity = edlibSimilarity(left, right, edlib.Levenshtein)
	default:
		similarity = edlibSimilarity(left, right, edlib.JaroWinkler)
	}

	return toPercent(similarity)
}

func (s *TokenSortScorer) sortTokens(text string) string {
	tokens := strings.Fields(text)
	if s.stem {
		for i, token := range tokens {
			tokens[i] = porter2.Stem(token)
		}
	}
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// indelSimilarity is 2·LCS / (|a| + |b|), the ratio used by token_sort_ratio.
func indelSimilarity(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 0
	}
	return float64(2*edlib.LCS(a, b)) / float64(total)
}

func edlibSimilarity(a, b string, algorithm edlib.Algorithm) float64 {
	score, err := edlib.StringsSimilarity(a, b, algorithm)
	if err != nil {
		return 0
	}
	return float64(score)
}

func toPercent(similarity float64) int {
	score := int(math.Round(similarity * 100))
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}
