package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Veraticus/revenue-guardian/internal/model"
)

// SaveRecallAlerts records alerts, skipping any already recorded for the same
// item, lot and recall. It returns how many alerts were new and sets their IDs.
func (s *SQLiteStorage) SaveRecallAlerts(ctx context.Context, alerts []model.RecallAlert) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateRecallAlerts(alerts); err != nil {
		return 0, err
	}
	if len(alerts) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO recall_alerts (
			item_id, lot_number, description, manufacturer, location, on_hand,
			unit_cost, expiration_date, recall_id, reason, value_at_risk, detected_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_id, lot_number, recall_id) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for i := range alerts {
		alert := &alerts[i]
		item := alert.Item
		result, execErr := stmt.ExecContext(ctx,
			item.ItemID, model.NormalizeLot(item.LotNumber), item.Description, item.Manufacturer,
			item.Location, item.OnHand, item.UnitCost, item.ExpirationDate.UTC(),
			alert.RecallID, alert.Reason, alert.ValueAtRisk, alert.DetectedAt.UTC(),
		)
		if execErr != nil {
			return 0, fmt.Errorf("failed to save recall alert for lot %s: %w", item.LotNumber, execErr)
		}

		affected, affErr := result.RowsAffected()
		if affErr != nil {
			return 0, fmt.Errorf("failed to check inserted rows: %w", affErr)
		}
		if affected == 0 {
			continue
		}

		id, idErr := result.LastInsertId()
		if idErr != nil {
			return 0, fmt.Errorf("failed to get alert ID: %w", idErr)
		}
		alert.ID = id
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit recall alerts: %w", err)
	}

	return inserted, nil
}

// ListRecallAlerts returns recorded alerts, newest first. A limit of zero
// returns every alert.
func (s *SQLiteStorage) ListRecallAlerts(ctx context.Context, limit int) ([]model.RecallAlert, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, item_id, lot_number, description, manufacturer, location, on_hand,
			unit_cost, expiration_date, recall_id, reason, value_at_risk, detected_at
		FROM recall_alerts
		ORDER BY detected_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recall alerts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	alerts := []model.RecallAlert{}
	for rows.Next() {
		var (
			alert        model.RecallAlert
			manufacturer sql.NullString
			location     sql.NullString
			reason       sql.NullString
		)
		err := rows.Scan(
			&alert.ID, &alert.Item.ItemID, &alert.Item.LotNumber, &alert.Item.Description,
			&manufacturer, &location, &alert.Item.OnHand, &alert.Item.UnitCost,
			&alert.Item.ExpirationDate, &alert.RecallID, &reason, &alert.ValueAtRisk, &alert.DetectedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recall alert: %w", err)
		}
		alert.Item.Manufacturer = manufacturer.String
		alert.Item.Location = location.String
		alert.Reason = reason.String
		alerts = append(alerts, alert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recall alerts: %w", err)
	}

	return alerts, nil
}
