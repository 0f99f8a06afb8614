package engine

import (
	"context"

	"github.com/Veraticus/revenue-guardian/internal/model"
	"golang.org/x/sync/errgroup"
)

// Matcher searches the clinical log for the best documentation of each invoice line.
type Matcher struct {
	scorer    Scorer
	threshold int
	window    int
	workers   int
}

// NewMatcher creates a matcher for the given configuration.
// A nil scorer selects the token-sort scorer named by cfg.Algorithm.
func NewMatcher(cfg Config, scorer Scorer) *Matcher {
	if scorer == nil {
		scorer = NewTokenSortScorer(cfg.Algorithm, cfg.StemTokens)
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Matcher{
		scorer:    scorer,
		threshold: cfg.MatchThreshold,
		window:    cfg.DateWindowDays,
		workers:   workers,
	}
}

// preparedEntry caches the normalized description of a clinical entry for one pass.
type preparedEntry struct {
	normalized string
	entry      model.ClinicalLogEntry
}

func prepare(clinical []model.ClinicalLogEntry) []preparedEntry {
	entries := make([]preparedEntry, len(clinical))
	for i, entry := range clinical {
		entries[i] = preparedEntry{
			entry:      entry,
			normalized: Normalize(entry.ItemDescription),
		}
	}
	return entries
}

// Match finds the best clinical entry for a single invoice line.
func (m *Matcher) Match(invoice model.InvoiceLine, clinical []model.ClinicalLogEntry) model.MatchResult {
	return m.match(invoice, prepare(clinical))
}

// MatchAll matches every invoice line and returns results in input order.
// The output is identical for any worker count.
func (m *Matcher) MatchAll(ctx context.Context, invoices []model.InvoiceLine, clinical []model.ClinicalLogEntry, progress ProgressReporter) ([]model.MatchResult, error) {
	entries := prepare(clinical)
	results := make([]model.MatchResult, len(invoices))

	if m.workers == 1 {
		for i, invoice := range invoices {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = m.match(invoice, entries)
			if progress != nil {
				progress.Advance()
			}
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)

	for i := range invoices {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = m.match(invoices[i], entries)
			if progress != nil {
				progress.Advance()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (m *Matcher) match(invoice model.InvoiceLine, entries []preparedEntry) model.MatchResult {
	result := model.MatchResult{Invoice: invoice}
	if len(entries) == 0 {
		return result
	}

	text := Normalize(invoice.VendorItemName)
	offsets := make([]int, len(entries))

	// Only entries inside the date window are scored.
	var best *model.MatchCandidate
	for i, e := range entries {
		offsets[i] = DayOffset(invoice.InvoiceDate, e.entry.ProcedureDate)
		if abs(offsets[i]) > m.window {
			continue
		}
		candidate := model.MatchCandidate{
			Index:        i,
			Score:        m.scorer.Score(text, e.normalized),
			DayOffset:    offsets[i],
			WithinWindow: true,
		}
		if best == nil || outranks(candidate, *best) {
			best = &candidate
		}
	}

	// Nothing inside the window: report the closest entry outside it.
	if best == nil {
		for i, e := range entries {
			candidate := model.MatchCandidate{
				Index:     i,
				Score:     m.scorer.Score(text, e.normalized),
				DayOffset: offsets[i],
			}
			if best == nil || outranks(candidate, *best) {
				best = &candidate
			}
		}
	}

	entry := entries[best.Index].entry
	score := best.Score
	offset := best.DayOffset

	result.Entry = &entry
	result.Score = &score
	result.DayOffset = &offset
	result.WithinWindow = best.WithinWindow
	result.Matched = best.WithinWindow && score >= m.threshold

	return result
}

// outranks orders candidates by score, then closeness in time, then input order.
func outranks(c, incumbent model.MatchCandidate) bool {
	if c.Score != incumbent.Score {
		return c.Score > incumbent.Score
	}
	if abs(c.DayOffset) != abs(incumbent.DayOffset) {
		return abs(c.DayOffset) < abs(incumbent.DayOffset)
	}
	return c.Index < incumbent.Index
}
