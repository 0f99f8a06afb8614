package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Reconciliation run history",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS runs (
					id TEXT PRIMARY KEY,
					created_at DATETIME NOT NULL,
					invoice_source TEXT,
					clinical_source TEXT,
					algorithm TEXT NOT NULL,
					match_threshold INTEGER NOT NULL,
					date_window_days INTEGER NOT NULL,
					review_boundary INTEGER NOT NULL,
					confident_boundary INTEGER NOT NULL,
					stem_tokens INTEGER NOT NULL DEFAULT 0,
					total_lines INTEGER NOT NULL,
					matched_count INTEGER NOT NULL,
					unmatched_count INTEGER NOT NULL,
					clinical_entries INTEGER NOT NULL,
					potential_gaps INTEGER NOT NULL,
					dollar_at_risk TEXT NOT NULL,
					total_spend TEXT NOT NULL,
					reconciliation_rate REAL NOT NULL
				)`,
				`CREATE INDEX idx_runs_created_at ON runs(created_at)`,

				`CREATE TABLE IF NOT EXISTS run_buckets (
					run_id TEXT NOT NULL,
					bucket TEXT NOT NULL,
					count INTEGER NOT NULL,
					total TEXT NOT NULL,
					average TEXT NOT NULL,
					PRIMARY KEY (run_id, bucket),
					FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
				)`,

				`CREATE TABLE IF NOT EXISTS run_rows (
					run_id TEXT NOT NULL,
					position INTEGER NOT NULL,
					invoice_id TEXT NOT NULL,
					po_number TEXT NOT NULL,
					vendor_item_name TEXT NOT NULL,
					best_clinical_match TEXT,
					case_id TEXT,
					match_score INTEGER,
					day_offset INTEGER,
					matched INTEGER NOT NULL,
					risk TEXT NOT NULL,
					status TEXT NOT NULL,
					dollar_value TEXT NOT NULL,
					PRIMARY KEY (run_id, position),
					FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX idx_run_rows_risk ON run_rows(run_id, risk)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Inventory lots",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS inventory_items (
					item_id TEXT NOT NULL,
					lot_number TEXT NOT NULL,
					description TEXT NOT NULL,
					manufacturer TEXT,
					location TEXT,
					on_hand INTEGER NOT NULL,
					unit_cost TEXT NOT NULL,
					expiration_date DATE NOT NULL,
					avg_daily_usage REAL NOT NULL DEFAULT 0,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					PRIMARY KEY (item_id, lot_number)
				)`,
				`CREATE INDEX idx_inventory_lot ON inventory_items(lot_number)`,
				`CREATE INDEX idx_inventory_expiration ON inventory_items(expiration_date)`,
			)
		},
	},
	{
		Version:     3,
		Description: "Recall alerts",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS recall_alerts (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					item_id TEXT NOT NULL,
					lot_number TEXT NOT NULL,
					description TEXT NOT NULL,
					manufacturer TEXT,
					location TEXT,
					on_hand INTEGER NOT NULL,
					unit_cost TEXT NOT NULL,
					expiration_date DATE NOT NULL,
					recall_id TEXT NOT NULL DEFAULT '',
					reason TEXT,
					value_at_risk TEXT NOT NULL,
					detected_at DATETIME NOT NULL,
					UNIQUE (item_id, lot_number, recall_id)
				)`,
				`CREATE INDEX idx_recall_alerts_detected ON recall_alerts(detected_at)`,
			)
		},
	},
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Migrate runs all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	// Get current version
	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	// Apply migrations
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		// Update version
		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	// Verify we're at the expected schema version
	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
