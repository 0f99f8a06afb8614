package model

// RiskBucket classifies how likely an invoice line represents revenue leakage.
type RiskBucket string

// Risk buckets, ordered from most to least severe.
const (
	RiskHigh   RiskBucket = "High"
	RiskMedium RiskBucket = "Medium"
	RiskLow    RiskBucket = "Low"
)

// RiskBuckets lists every bucket in reporting order.
var RiskBuckets = []RiskBucket{RiskHigh, RiskMedium, RiskLow}

// Status returns the human-readable status label for the bucket.
func (b RiskBucket) Status() string {
	switch b {
	case RiskLow:
		return "Match Found"
	case RiskMedium:
		return "Review Required"
	default:
		return "REVENUE LEAKAGE"
	}
}

// MatchCandidate pairs an invoice line with one clinical entry during a matching pass.
type MatchCandidate struct {
	Index        int // Position of the clinical entry in the input ordering
	Score        int
	DayOffset    int
	WithinWindow bool
}

// MatchResult is the outcome of searching the clinical log for one invoice line.
// Entry, Score and DayOffset are nil when there were no clinical entries at all.
type MatchResult struct {
	Entry        *ClinicalLogEntry
	Score        *int
	DayOffset    *int
	Invoice      InvoiceLine
	WithinWindow bool
	Matched      bool
}

// HasCandidate reports whether any clinical entry was considered.
func (r MatchResult) HasCandidate() bool {
	return r.Entry != nil && r.Score != nil
}

// ScoreValue returns the best score, or 0 when there was no candidate.
func (r MatchResult) ScoreValue() int {
	if r.Score == nil {
		return 0
	}
	return *r.Score
}
