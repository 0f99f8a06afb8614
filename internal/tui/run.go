package tui

import (
	"context"
	"fmt"

	"github.com/Veraticus/revenue-guardian/internal/engine"
	"github.com/Veraticus/revenue-guardian/internal/model"
	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the review screen until the user quits and returns the report
// that was on screen at exit, which reflects any threshold changes.
func Run(ctx context.Context, r *model.Report, invoices []model.InvoiceLine, clinical []model.ClinicalLogEntry, cfg engine.Config, opts ...Option) (*model.Report, error) {
	opts = append([]Option{WithContext(ctx)}, opts...)
	m := New(r, invoices, clinical, cfg, opts...)

	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("review screen failed: %w", err)
	}

	if fm, ok := final.(Model); ok {
		return fm.Report(), nil
	}
	return r, nil
}
