package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// dateLayouts are the accepted calendar date formats, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
}

// schema describes the columns of one input table.
type schema struct {
	name       string
	required   []string
	optional   []string
	allowEmpty bool
}

// table is a parsed CSV with its header resolved to column positions.
type table struct {
	columns map[string]int
	name    string
	rows    [][]string
}

func readTable(r io.Reader, s schema) (*table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ValidationError{Table: s.name, Err: ErrEmptyTable}
	}
	if err != nil {
		return nil, &ValidationError{Table: s.name, Err: fmt.Errorf("unreadable header: %w", err)}
	}

	t := &table{
		name:    s.name,
		columns: make(map[string]int, len(header)),
	}
	for i, col := range header {
		col = strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
		if _, dup := t.columns[col]; !dup {
			t.columns[col] = i
		}
	}

	var missing []string
	for _, col := range s.required {
		if _, ok := t.columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{
			Table:  s.name,
			Column: strings.Join(missing, ", "),
			Err:    ErrMissingColumn,
		}
	}

	for {
		record, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}
		row := len(t.rows) + 1
		if readErr != nil {
			return nil, &ValidationError{Table: s.name, Row: row, Err: fmt.Errorf("unreadable row: %w", readErr)}
		}
		if len(record) != len(header) {
			return nil, &ValidationError{
				Table: s.name,
				Row:   row,
				Value: strconv.Itoa(len(record)),
				Err:   fmt.Errorf("%w: want %d", ErrRowShape, len(header)),
			}
		}
		t.rows = append(t.rows, record)
	}

	if len(t.rows) == 0 && !s.allowEmpty {
		return nil, &ValidationError{Table: s.name, Err: ErrEmptyTable}
	}

	return t, nil
}

// cell returns the trimmed value of a column, or "" when the column is absent.
func (t *table) cell(record []string, col string) string {
	i, ok := t.columns[col]
	if !ok {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func (t *table) fail(row int, col, value string, err error) error {
	return &ValidationError{Table: t.name, Row: row, Column: col, Value: value, Err: err}
}

func (t *table) text(record []string, row int, col string) (string, error) {
	v := t.cell(record, col)
	if v == "" {
		return "", t.fail(row, col, "", ErrMissingValue)
	}
	return v, nil
}

func (t *table) date(record []string, row int, col string) (time.Time, error) {
	v := t.cell(record, col)
	if v == "" {
		return time.Time{}, t.fail(row, col, "", ErrMissingValue)
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, v); err == nil {
			return d, nil
		}
	}
	return time.Time{}, t.fail(row, col, v, ErrInvalidDate)
}

// money parses a non-negative decimal, tolerating "$" and thousands separators.
func (t *table) money(record []string, row int, col string) (decimal.Decimal, error) {
	v := t.cell(record, col)
	if v == "" {
		return decimal.Zero, t.fail(row, col, "", ErrMissingValue)
	}
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(v)
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, t.fail(row, col, v, ErrInvalidNumber)
	}
	if d.IsNegative() {
		return decimal.Zero, t.fail(row, col, v, ErrNegative)
	}
	return d, nil
}

// maxCount bounds unit counts so quantity arithmetic cannot overflow.
var maxCount = decimal.NewFromInt(math.MaxInt32)

// count parses a non-negative whole number; "2.0" is accepted as 2.
func (t *table) count(record []string, row int, col string) (int, error) {
	v := t.cell(record, col)
	if v == "" {
		return 0, t.fail(row, col, "", ErrMissingValue)
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(v, ",", ""))
	if err != nil || !d.IsInteger() {
		return 0, t.fail(row, col, v, ErrInvalidNumber)
	}
	if d.IsNegative() {
		return 0, t.fail(row, col, v, ErrNegative)
	}
	if d.GreaterThan(maxCount) {
		return 0, t.fail(row, col, v, ErrInvalidNumber)
	}
	return int(d.IntPart()), nil
}

// rate parses an optional non-negative float; blank means zero.
func (t *table) rate(record []string, row int, col string) (float64, error) {
	v := t.cell(record, col)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, t.fail(row, col, v, ErrInvalidNumber)
	}
	if f < 0 {
		return 0, t.fail(row, col, v, ErrNegative)
	}
	return f, nil
}
