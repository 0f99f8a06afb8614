package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var scorerPairs = [][2]string{
	{"stryker knee total", "total knee stryker"},
	{"stryker screw 4mm", "screw 4mm titanium"},
	{"zimmer hip stem", "hip stem zimmer biomet"},
	{"medtronic pedicle screw", "depuy anchor"},
	{"abc", "cba"},
	{"a", "ab"},
	{"plate", ""},
	{"", ""},
}

func TestTokenSortScorer_TokenOrderIndependent(t *testing.T) {
	for _, algorithm := range Algorithms {
		t.Run(string(algorithm), func(t *testing.T) {
			s := NewTokenSortScorer(algorithm, false)
			assert.Equal(t, 100, s.Score(
				Normalize("Knee Stryker Total"),
				Normalize("Total Knee Stryker"),
			))
		})
	}
}

func TestTokenSortScorer_Symmetric(t *testing.T) {
	for _, algorithm := range Algorithms {
		s := NewTokenSortScorer(algorithm, false)
		for _, pair := range scorerPairs {
			assert.Equal(t, s.Score(pair[0], pair[1]), s.Score(pair[1], pair[0]),
				"%s: %q vs %q", algorithm, pair[0], pair[1])
		}
	}
}

func TestTokenSortScorer_Range(t *testing.T) {
	for _, algorithm := range Algorithms {
		s := NewTokenSortScorer(algorithm, false)
		for _, pair := range scorerPairs {
			score := s.Score(pair[0], pair[1])
			assert.GreaterOrEqual(t, score, 0)
			assert.LessOrEqual(t, score, 100)
		}
	}
}

func TestTokenSortScorer_EmptyInputScoresZero(t *testing.T) {
	for _, algorithm := range Algorithms {
		s := NewTokenSortScorer(algorithm, false)
		assert.Equal(t, 0, s.Score("", ""), algorithm)
		assert.Equal(t, 0, s.Score("knee", ""), algorithm)
		assert.Equal(t, 0, s.Score("", "knee"), algorithm)
	}
}

func TestTokenSortScorer_ScrewScenario(t *testing.T) {
	a := Normalize("Stryker Screw 4mm")
	b := Normalize("Screw, 4mm, Titanium")

	jw := NewTokenSortScorer(AlgorithmJaroWinkler, false).Score(a, b)
	assert.GreaterOrEqual(t, jw, 80)
	assert.Less(t, jw, 90)

	// "4mm screw stryker" and "4mm screw titanium" share 11 characters in order.
	indel := NewTokenSortScorer(AlgorithmIndel, false).Score(a, b)
	assert.Equal(t, 63, indel)
}

func TestTokenSortScorer_Stemming(t *testing.T) {
	a := Normalize("Titanium Screws")
	b := Normalize("screw titanium")

	assert.Less(t, NewTokenSortScorer(AlgorithmIndel, false).Score(a, b), 100)
	assert.Equal(t, 100, NewTokenSortScorer(AlgorithmIndel, true).Score(a, b))
}

func TestNewTokenSortScorer_DefaultsToJaroWinkler(t *testing.T) {
	s := NewTokenSortScorer("", false)
	assert.Equal(t, AlgorithmJaroWinkler, s.algorithm)
}
