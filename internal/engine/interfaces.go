package engine

// Scorer rates the similarity of two normalized descriptions.
// Implementations must return a value in [0, 100] and be symmetric.
type Scorer interface {
	Score(a, b string) int
}

// ProgressReporter is notified once for every invoice line matched.
// It may be called from several goroutines when workers > 1.
type ProgressReporter interface {
	Advance()
}
