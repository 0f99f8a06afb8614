package tui

import (
	"github.com/Veraticus/revenue-guardian/internal/model"
	"github.com/Veraticus/revenue-guardian/internal/report"
)

// reconciledMsg carries the result of re-running the engine.
type reconciledMsg struct {
	err       error
	report    *model.Report
	threshold int
}

// exportedMsg carries the result of writing the CSV bundle.
type exportedMsg struct {
	err    error
	bundle report.Bundle
}
