package report

import (
	"fmt"
	"strings"

	"github.com/Veraticus/revenue-guardian/internal/model"
)

// Filter selects a subset of report rows by risk bucket.
type Filter string

// Available filters, in display order.
const (
	FilterAll    Filter = "all"
	FilterHigh   Filter = "high"
	FilterMedium Filter = "medium"
	FilterLow    Filter = "low"
)

// Filters lists every filter in display order.
var Filters = []Filter{FilterAll, FilterHigh, FilterMedium, FilterLow}

// ParseFilter resolves a filter name, case-insensitively.
func ParseFilter(name string) (Filter, error) {
	f := Filter(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Filters {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown filter %q (expected all, high, medium or low)", name)
}

// Label returns the display name for the filter.
func (f Filter) Label() string {
	switch f {
	case FilterHigh:
		return "High Risk Only"
	case FilterMedium:
		return "Review Required"
	case FilterLow:
		return "Matched Items"
	default:
		return "All Items"
	}
}

// Next returns the filter that follows f, wrapping around.
func (f Filter) Next() Filter {
	for i, known := range Filters {
		if known == f {
			return Filters[(i+1)%len(Filters)]
		}
	}
	return FilterAll
}

// Matches reports whether a row passes the filter.
func (f Filter) Matches(row model.ReportRow) bool {
	switch f {
	case FilterHigh:
		return row.Risk == model.RiskHigh
	case FilterMedium:
		return row.Risk == model.RiskMedium
	case FilterLow:
		return row.Risk == model.RiskLow
	default:
		return true
	}
}

// FilterRows returns the rows that pass the filter, preserving order.
func FilterRows(rows []model.ReportRow, f Filter) []model.ReportRow {
	filtered := make([]model.ReportRow, 0, len(rows))
	for _, row := range rows {
		if f.Matches(row) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}
