package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/revenue-guardian/internal/model"
)

const inventoryColumns = `item_id, lot_number, description, manufacturer, location,
	on_hand, unit_cost, expiration_date, avg_daily_usage`

// SaveInventoryItems inserts or updates inventory lots keyed by item and lot.
func (s *SQLiteStorage) SaveInventoryItems(ctx context.Context, items []model.InventoryItem) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateInventoryItems(items); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO inventory_items (`+inventoryColumns+`, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_id, lot_number) DO UPDATE SET
			description = excluded.description,
			manufacturer = excluded.manufacturer,
			location = excluded.location,
			on_hand = excluded.on_hand,
			unit_cost = excluded.unit_cost,
			expiration_date = excluded.expiration_date,
			avg_daily_usage = excluded.avg_daily_usage,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC()
	for _, item := range items {
		_, err := stmt.ExecContext(ctx,
			item.ItemID, model.NormalizeLot(item.LotNumber), item.Description,
			item.Manufacturer, item.Location, item.OnHand, item.UnitCost,
			item.ExpirationDate.UTC(), item.AvgDailyUsage, now,
		)
		if err != nil {
			return fmt.Errorf("failed to save inventory item %s/%s: %w", item.ItemID, item.LotNumber, err)
		}
	}

	return tx.Commit()
}

// GetInventory returns every stored lot, soonest expiration first.
func (s *SQLiteStorage) GetInventory(ctx context.Context) ([]model.InventoryItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	return s.queryInventory(ctx, s.db, `
		SELECT `+inventoryColumns+`
		FROM inventory_items
		ORDER BY expiration_date, item_id, lot_number
	`)
}

// FindInventoryByLots returns the stored lots whose lot number is in lots.
// Lot numbers are compared after normalization.
func (s *SQLiteStorage) FindInventoryByLots(ctx context.Context, lots []string) ([]model.InventoryItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if lots == nil {
		return nil, fmt.Errorf("%w: lots", ErrNilParameter)
	}

	seen := make(map[string]bool, len(lots))
	args := make([]any, 0, len(lots))
	for _, lot := range lots {
		normalized := model.NormalizeLot(lot)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		args = append(args, normalized)
	}
	if len(args) == 0 {
		return []model.InventoryItem{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(args)), ",")
	return s.queryInventory(ctx, s.db, `
		SELECT `+inventoryColumns+`
		FROM inventory_items
		WHERE lot_number IN (`+placeholders+`)
		ORDER BY item_id, lot_number
	`, args...)
}

func (s *SQLiteStorage) queryInventory(ctx context.Context, q queryable, query string, args ...any) ([]model.InventoryItem, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := []model.InventoryItem{}
	for rows.Next() {
		var (
			item         model.InventoryItem
			manufacturer sql.NullString
			location     sql.NullString
		)
		err := rows.Scan(
			&item.ItemID, &item.LotNumber, &item.Description, &manufacturer, &location,
			&item.OnHand, &item.UnitCost, &item.ExpirationDate, &item.AvgDailyUsage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		item.Manufacturer = manufacturer.String
		item.Location = location.String
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inventory: %w", err)
	}

	return items, nil
}
