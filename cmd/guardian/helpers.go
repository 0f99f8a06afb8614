package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Veraticus/revenue-guardian/internal/cli"
	"github.com/Veraticus/revenue-guardian/internal/common"
	"github.com/Veraticus/revenue-guardian/internal/config"
	"github.com/Veraticus/revenue-guardian/internal/model"
	"github.com/Veraticus/revenue-guardian/internal/report"
	"github.com/Veraticus/revenue-guardian/internal/service"
	"github.com/Veraticus/revenue-guardian/internal/sheets"
	"github.com/Veraticus/revenue-guardian/internal/storage"
	"github.com/spf13/viper"
)

const (
	defaultDatabasePath = "$HOME/.local/share/guardian/guardian.db" // used when the home directory cannot be resolved
	dateLayout          = "2006-01-02"
)

// newReportWriter builds the Google Sheets writer. Tests replace it.
var newReportWriter = func(ctx context.Context) (service.ReportWriter, error) {
	cfg, err := config.LoadSheetsConfig(viper.GetViper())
	if err != nil {
		return nil, common.NewUserError("Google Sheets is not configured; run 'guardian auth sheets' first", err)
	}
	writer, err := sheets.NewWriter(ctx, *cfg, slog.Default())
	if err != nil {
		return nil, err
	}
	return writer, nil
}

// databasePath resolves the configured database location.
func databasePath() string {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		if resolved, err := config.DefaultDatabasePath(); err == nil {
			return resolved
		}
		dbPath = defaultDatabasePath
	}
	return config.ExpandPath(dbPath)
}

// openStorage opens the database without migrating it.
func openStorage() (*storage.SQLiteStorage, error) {
	return storage.NewSQLiteStorage(databasePath())
}

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	store, err := openStorage()
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func closeStorage(store service.Storage) {
	if err := store.Close(); err != nil {
		common.LogError(err, "failed to close storage", common.Fields{"path": databasePath()})
	}
}

// parseDate parses a YYYY-MM-DD flag value, returning fallback when empty.
func parseDate(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, common.NewUserError(fmt.Sprintf("invalid date %q (expected YYYY-MM-DD)", value), err)
	}
	return t, nil
}

// today returns the current local date at midnight UTC.
func today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// exportBundle writes the CSV bundle and lists the files written.
func exportBundle(w io.Writer, dir string, r *model.Report) error {
	bundle, err := report.Export(dir, r, time.Now())
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrExportFailed, err)
	}
	if _, err := fmt.Fprintln(w, cli.FormatSuccess("Exported CSV bundle:")); err != nil {
		return err
	}
	for _, path := range bundle.Paths() {
		if _, err := fmt.Fprintln(w, "  "+path); err != nil {
			return err
		}
	}
	return nil
}

// writeSheets pushes the report to Google Sheets.
func writeSheets(ctx context.Context, r *model.Report) error {
	writer, err := newReportWriter(ctx)
	if err != nil {
		return err
	}
	if err := writer.Write(ctx, r); err != nil {
		return fmt.Errorf("%w: %w", common.ErrExportFailed, err)
	}
	return nil
}

// reportFromRun rebuilds a report from a persisted run and its rows.
func reportFromRun(run *model.RunRecord, rows []model.ReportRow) *model.Report {
	return &model.Report{
		RunID:          run.ID,
		CreatedAt:      run.CreatedAt,
		InvoiceSource:  run.InvoiceSource,
		ClinicalSource: run.ClinicalSource,
		Settings:       run.Settings,
		Summary:        run.Summary,
		Rows:           rows,
	}
}

// printRows renders the summary box and the filtered rows, capped at limit when positive.
func printRows(w io.Writer, r *model.Report, filter report.Filter, limit int) error {
	rows := report.FilterRows(r.Rows, filter)
	shown := rows
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}

	var err error
	write := func(s string) {
		if err == nil {
			_, err = fmt.Fprintln(w, s)
		}
	}

	write(cli.SummaryBox(r.Summary))
	write("")
	write(cli.SubtitleStyle.Render(fmt.Sprintf("%s: %d of %d rows", filter.Label(), len(rows), len(r.Rows))))
	if len(shown) > 0 {
		write(cli.ReportTable(shown))
	}
	if len(shown) < len(rows) {
		write(cli.SubtleStyle.Render(fmt.Sprintf("… %d more rows (use --limit 0 to show all)", len(rows)-len(shown))))
	}

	return err
}
