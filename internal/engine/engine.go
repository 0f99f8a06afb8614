// Package engine implements the reconciliation engine that matches vendor
// invoices against clinical documentation and classifies revenue leakage risk.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/revenue-guardian/internal/model"
	"github.com/google/uuid"
)

// Engine orchestrates a reconciliation run.
type Engine struct {
	scorer   Scorer
	progress ProgressReporter
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
	matcher  *Matcher
	config   Config
}

// Option is a functional option for configuring the engine.
type Option func(*Engine)

// WithScorer replaces the similarity scorer selected by the configuration.
func WithScorer(scorer Scorer) Option {
	return func(e *Engine) {
		e.scorer = scorer
	}
}

// WithProgress sets a reporter notified as invoice lines are matched.
func WithProgress(progress ProgressReporter) Option {
	return func(e *Engine) {
		e.progress = progress
	}
}

// WithLogger sets the logger used for run diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock overrides the time source used to stamp reports.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithIDGenerator overrides how run IDs are generated.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		e.newID = newID
	}
}

// New creates an engine, rejecting out-of-range configuration values.
func New(config Config, opts ...Option) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		config: config,
		logger: slog.Default(),
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(e)
	}
	e.matcher = NewMatcher(config, e.scorer)

	e.logger.Debug("reconciliation engine initialized",
		"match_threshold", config.MatchThreshold,
		"date_window_days", config.DateWindowDays,
		"algorithm", config.Algorithm,
		"workers", config.Workers)

	return e, nil
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config {
	return e.config
}

// Reconcile matches every invoice line against the clinical log and builds the report.
func (e *Engine) Reconcile(ctx context.Context, invoices []model.InvoiceLine, clinical []model.ClinicalLogEntry) (*model.Report, error) {
	e.logger.Info("starting reconciliation",
		"invoices", len(invoices),
		"clinical_entries", len(clinical))

	results, err := e.matcher.MatchAll(ctx, invoices, clinical, e.progress)
	if err != nil {
		return nil, fmt.Errorf("matching interrupted: %w", err)
	}

	summary := Summarize(results, e.config.RiskBoundaries)
	summary.ClinicalEntries = len(clinical)
	if gaps := len(invoices) - len(clinical); gaps > 0 {
		summary.PotentialGaps = gaps
	}

	report := &model.Report{
		RunID:     e.newID(),
		CreatedAt: e.now(),
		Settings:  e.config.Settings(),
		Results:   results,
		Rows:      BuildRows(results, e.config.RiskBoundaries),
		Summary:   summary,
	}

	e.logger.Info("reconciliation complete",
		"run_id", report.RunID,
		"matched", summary.MatchedCount,
		"unmatched", summary.UnmatchedCount,
		"dollar_at_risk", summary.DollarAtRisk.StringFixed(2))

	return report, nil
}

// BuildRows converts match results into audit report rows.
func BuildRows(results []model.MatchResult, boundaries RiskBoundaries) []model.ReportRow {
	rows := make([]model.ReportRow, len(results))
	for i, result := range results {
		risk := Classify(result, boundaries)
		row := model.ReportRow{
			InvoiceID:      result.Invoice.InvoiceID,
			PONumber:       result.Invoice.PONumber,
			VendorItemName: result.Invoice.VendorItemName,
			MatchScore:     result.Score,
			DayOffset:      result.DayOffset,
			Matched:        result.Matched,
			Risk:           risk,
			Status:         risk.Status(),
			DollarValue:    result.Invoice.Value(),
		}
		if result.Entry != nil {
			desc := result.Entry.ItemDescription
			row.BestClinicalMatch = &desc
			row.CaseID = result.Entry.CaseID
		}
		rows[i] = row
	}
	return rows
}
