// Package loader reads and validates the tabular inputs of the application.
package loader

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation is matched by every error the loader returns for bad input.
var ErrValidation = errors.New("validation failed")

// Specific validation failures wrapped by ValidationError.
var (
	ErrMissingColumn = errors.New("missing required column")
	ErrEmptyTable    = errors.New("table has no data rows")
	ErrMissingValue  = errors.New("value is required")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidNumber = errors.New("invalid number")
	ErrNegative      = errors.New("value cannot be negative")
	ErrRowShape      = errors.New("row has the wrong number of fields")
)

// ValidationError identifies the table cell that failed validation.
// Row is the 1-based data row; header problems use row 0.
type ValidationError struct {
	Err    error
	Table  string
	Column string
	Value  string
	Row    int
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Table)
	b.WriteString(" table")
	if e.Row > 0 {
		fmt.Fprintf(&b, " row %d", e.Row)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column %s", e.Column)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	if e.Value != "" {
		fmt.Fprintf(&b, " %q", e.Value)
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is reports ErrValidation as a match so callers can test the whole class.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
