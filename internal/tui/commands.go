package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/revenue-guardian/internal/engine"
	"github.com/Veraticus/revenue-guardian/internal/report"
	tea "github.com/charmbracelet/bubbletea"
)

const rerunTimeout = 30 * time.Second

// withThreshold moves the match threshold and the review boundary together,
// keeping the review boundary at or below the confident boundary.
func withThreshold(cfg engine.Config, threshold int) engine.Config {
	cfg.MatchThreshold = threshold
	cfg.RiskBoundaries.Review = min(threshold, cfg.RiskBoundaries.Confident)
	return cfg
}

// reconcile re-runs the engine over the loaded tables with a new threshold.
func (m Model) reconcile(threshold int) tea.Cmd {
	cfg := withThreshold(m.engineConfig, threshold)
	invoices, clinical := m.invoices, m.clinical
	parent, logger, now := m.config.Context, m.config.Logger, m.config.Now
	invoiceSource, clinicalSource := m.report.InvoiceSource, m.report.ClinicalSource

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, rerunTimeout)
		defer cancel()

		eng, err := engine.New(cfg, engine.WithLogger(logger), engine.WithClock(now))
		if err != nil {
			return reconciledMsg{threshold: threshold, err: err}
		}

		r, err := eng.Reconcile(ctx, invoices, clinical)
		if err != nil {
			return reconciledMsg{threshold: threshold, err: err}
		}
		r.InvoiceSource = invoiceSource
		r.ClinicalSource = clinicalSource

		return reconciledMsg{threshold: threshold, report: r}
	}
}

// export writes the current report as a CSV bundle.
func (m Model) export() tea.Cmd {
	r := m.report
	dir, now := m.config.ExportDir, m.config.Now

	return func() tea.Msg {
		bundle, err := report.Export(dir, r, now())
		if err != nil {
			return exportedMsg{err: fmt.Errorf("export failed: %w", err)}
		}
		return exportedMsg{bundle: bundle}
	}
}
