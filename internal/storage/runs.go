package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/revenue-guardian/internal/model"
	"github.com/Veraticus/revenue-guardian/internal/service"
)

// minRunPrefix is the shortest run ID prefix accepted by GetRun.
const minRunPrefix = 4

const runColumns = `id, created_at, invoice_source, clinical_source,
	algorithm, match_threshold, date_window_days, review_boundary, confident_boundary, stem_tokens,
	total_lines, matched_count, unmatched_count, clinical_entries, potential_gaps,
	dollar_at_risk, total_spend, reconciliation_rate`

type rowScanner interface {
	Scan(dest ...any) error
}

// SaveRun persists a reconciliation report with its summary and detail rows.
func (s *SQLiteStorage) SaveRun(ctx context.Context, report *model.Report) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateReport(report); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.saveRunTx(ctx, tx, report); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLiteStorage) saveRunTx(ctx context.Context, tx *sql.Tx, report *model.Report) error {
	settings := report.Settings
	summary := report.Summary

	_, err := tx.ExecContext(ctx, `
		INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.RunID, report.CreatedAt.UTC(), report.InvoiceSource, report.ClinicalSource,
		settings.Algorithm, settings.MatchThreshold, settings.DateWindowDays,
		settings.ReviewBoundary, settings.ConfidentBoundary, settings.StemTokens,
		summary.TotalLines, summary.MatchedCount, summary.UnmatchedCount,
		summary.ClinicalEntries, summary.PotentialGaps,
		summary.DollarAtRisk, summary.TotalSpend, summary.ReconciliationRate,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	for _, bucket := range model.RiskBuckets {
		stats := summary.Buckets[bucket]
		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_buckets (run_id, bucket, count, total, average)
			VALUES (?, ?, ?, ?, ?)
		`, report.RunID, string(bucket), stats.Count, stats.Total, stats.Average)
		if err != nil {
			return fmt.Errorf("failed to save bucket %s: %w", bucket, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_rows (
			run_id, position, invoice_id, po_number, vendor_item_name,
			best_clinical_match, case_id, match_score, day_offset,
			matched, risk, status, dollar_value
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, row := range report.Rows {
		_, err = stmt.ExecContext(ctx,
			report.RunID, i, row.InvoiceID, row.PONumber, row.VendorItemName,
			nullString(row.BestClinicalMatch), row.CaseID, nullInt(row.MatchScore), nullInt(row.DayOffset),
			row.Matched, string(row.Risk), row.Status, row.DollarValue,
		)
		if err != nil {
			return fmt.Errorf("failed to save row %d: %w", i, err)
		}
	}

	return nil
}

// GetRun retrieves a run by its ID or by an unambiguous ID prefix.
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (*model.RunRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	fullID, err := s.resolveRunID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	record, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, fullID))
	if err != nil {
		return nil, err
	}

	if err := s.loadBuckets(ctx, s.db, record); err != nil {
		return nil, err
	}

	return record, nil
}

func (s *SQLiteStorage) resolveRunID(ctx context.Context, q queryable, id string) (string, error) {
	id = strings.TrimSpace(id)

	var exists bool
	if err := q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM runs WHERE id = ?)`, id).Scan(&exists); err != nil {
		return "", fmt.Errorf("failed to look up run: %w", err)
	}
	if exists {
		return id, nil
	}
	if len(id) < minRunPrefix {
		return "", fmt.Errorf("%w: run %s", ErrNotFound, id)
	}

	rows, err := q.QueryContext(ctx, `SELECT id FROM runs WHERE substr(id, 1, ?) = ? LIMIT 2`, len(id), id)
	if err != nil {
		return "", fmt.Errorf("failed to look up run: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var matches []string
	for rows.Next() {
		var match string
		if err := rows.Scan(&match); err != nil {
			return "", fmt.Errorf("failed to scan run id: %w", err)
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("error iterating runs: %w", err)
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: run %s", ErrNotFound, id)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: run prefix %s", ErrAmbiguous, id)
	}
}

// ListRuns returns stored runs, newest first.
func (s *SQLiteStorage) ListRuns(ctx context.Context, filter service.RunFilter) ([]model.RunRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if filter.Since != nil {
		query += ` WHERE created_at >= ?`
		args = append(args, filter.Since.UTC())
	}
	query += ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.RunRecord
	for rows.Next() {
		record, scanErr := scanRun(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	// Close before issuing the bucket queries on the single connection.
	_ = rows.Close()

	for i := range records {
		if err := s.loadBuckets(ctx, s.db, &records[i]); err != nil {
			return nil, err
		}
	}

	return records, nil
}

// GetRunRows returns the detail rows of a run in their original order.
func (s *SQLiteStorage) GetRunRows(ctx context.Context, id string) ([]model.ReportRow, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	fullID, err := s.resolveRunID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT invoice_id, po_number, vendor_item_name, best_clinical_match, case_id,
			match_score, day_offset, matched, risk, status, dollar_value
		FROM run_rows
		WHERE run_id = ?
		ORDER BY position
	`, fullID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []model.ReportRow
	for rows.Next() {
		var (
			row       model.ReportRow
			bestMatch sql.NullString
			caseID    sql.NullString
			score     sql.NullInt64
			offset    sql.NullInt64
			risk      string
		)
		err := rows.Scan(
			&row.InvoiceID, &row.PONumber, &row.VendorItemName, &bestMatch, &caseID,
			&score, &offset, &row.Matched, &risk, &row.Status, &row.DollarValue,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}

		row.Risk = model.RiskBucket(risk)
		row.CaseID = caseID.String
		row.BestClinicalMatch = stringPtr(bestMatch)
		row.MatchScore = intPtr(score)
		row.DayOffset = intPtr(offset)
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}

	return result, nil
}

// DeleteRun removes a run and its rows.
func (s *SQLiteStorage) DeleteRun(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: run %s", ErrNotFound, id)
	}

	return nil
}

func scanRun(scanner rowScanner) (*model.RunRecord, error) {
	var (
		record         model.RunRecord
		invoiceSource  sql.NullString
		clinicalSource sql.NullString
	)

	err := scanner.Scan(
		&record.ID, &record.CreatedAt, &invoiceSource, &clinicalSource,
		&record.Settings.Algorithm, &record.Settings.MatchThreshold, &record.Settings.DateWindowDays,
		&record.Settings.ReviewBoundary, &record.Settings.ConfidentBoundary, &record.Settings.StemTokens,
		&record.Summary.TotalLines, &record.Summary.MatchedCount, &record.Summary.UnmatchedCount,
		&record.Summary.ClinicalEntries, &record.Summary.PotentialGaps,
		&record.Summary.DollarAtRisk, &record.Summary.TotalSpend, &record.Summary.ReconciliationRate,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	record.InvoiceSource = invoiceSource.String
	record.ClinicalSource = clinicalSource.String
	return &record, nil
}

func (s *SQLiteStorage) loadBuckets(ctx context.Context, q queryable, record *model.RunRecord) error {
	rows, err := q.QueryContext(ctx, `
		SELECT bucket, count, total, average
		FROM run_buckets
		WHERE run_id = ?
	`, record.ID)
	if err != nil {
		return fmt.Errorf("failed to query run buckets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	record.Summary.Buckets = make(map[model.RiskBucket]model.BucketStats, len(model.RiskBuckets))
	for rows.Next() {
		var (
			bucket string
			stats  model.BucketStats
		)
		if err := rows.Scan(&bucket, &stats.Count, &stats.Total, &stats.Average); err != nil {
			return fmt.Errorf("failed to scan run bucket: %w", err)
		}
		record.Summary.Buckets[model.RiskBucket(bucket)] = stats
	}

	return rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func intPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	n := int(ni.Int64)
	return &n
}
