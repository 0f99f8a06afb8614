package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Veraticus/revenue-guardian/internal/common"
	"github.com/Veraticus/revenue-guardian/internal/model"
	"github.com/Veraticus/revenue-guardian/internal/report"
	"github.com/Veraticus/revenue-guardian/internal/service"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var _ service.ReportWriter = (*Writer)(nil)

// detailColumns is the width of the audit detail table.
var detailColumns = len(report.Columns)

// dollarColumn is the zero-based index of Dollar_Value in the detail table.
var dollarColumn = detailColumns - 1

// Writer implements the ReportWriter interface for Google Sheets.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// sheetLayout is the prepared grid plus the row positions formatting needs.
type sheetLayout struct {
	values         [][]any
	sectionRows    []int
	detailHeader   int
	detailRowCount int
}

// NewWriter creates a new Google Sheets report writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Create the Sheets service
	service, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Writer{
		config:  config,
		service: service,
		logger:  logger,
	}, nil
}

// Write implements the ReportWriter interface.
func (w *Writer) Write(ctx context.Context, r *model.Report) error {
	if r == nil {
		return fmt.Errorf("report is required")
	}

	w.logger.Info("starting report generation",
		"run_id", r.RunID,
		"rows", len(r.Rows))

	// Get or create spreadsheet
	spreadsheetID, sheetID, err := w.getOrCreateSpreadsheet(ctx)
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	// Clear existing data
	if clearErr := w.clearSheet(ctx, spreadsheetID); clearErr != nil {
		return fmt.Errorf("failed to clear sheet: %w", clearErr)
	}

	// Prepare the data
	layout := prepareReportData(r)

	// Write data in batches with retry
	retryOpts := service.RetryOptions{
		Operation:    "write report rows",
		Attrs:        []any{"run_id", r.RunID, "rows", len(r.Rows)},
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	err = common.WithRetry(ctx, func() error {
		return classifyError(w.writeData(ctx, spreadsheetID, layout.values))
	}, retryOpts)

	if err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	// Apply formatting if enabled
	if w.config.EnableFormatting {
		retryOpts.Operation = "apply sheet formatting"
		err = common.WithRetry(ctx, func() error {
			return classifyError(w.applyFormatting(ctx, spreadsheetID, sheetID, layout))
		}, retryOpts)
		if err != nil {
			w.logger.Warn("failed to apply formatting", "error", err)
			// Don't fail the whole operation if formatting fails
		}
	}

	w.logger.Info("report generation completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", len(layout.values))

	return nil
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		// Use service account authentication
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		// Use OAuth2 authentication
		client := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{sheets.SpreadsheetsScope},
		}

		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}

		tokenSource = client.TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

// getOrCreateSpreadsheet gets an existing spreadsheet or creates a new one,
// returning its ID and the ID of the sheet the report is written to.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, int64, error) {
	if w.config.SpreadsheetID != "" {
		// Verify the spreadsheet exists and is accessible
		existing, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
		if err != nil {
			return "", 0, fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
		}
		var sheetID int64
		if len(existing.Sheets) > 0 && existing.Sheets[0].Properties != nil {
			sheetID = existing.Sheets[0].Properties.SheetId
		}
		return w.config.SpreadsheetID, sheetID, nil
	}

	// Create a new spreadsheet
	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
		Sheets: []*sheets.Sheet{
			{
				Properties: &sheets.SheetProperties{
					Title: w.config.SheetTitle,
				},
			},
		},
	}

	created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", 0, fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	var sheetID int64
	if len(created.Sheets) > 0 && created.Sheets[0].Properties != nil {
		sheetID = created.Sheets[0].Properties.SheetId
	}
	return created.SpreadsheetId, sheetID, nil
}

// clearSheet clears all data from the sheet.
func (w *Writer) clearSheet(ctx context.Context, spreadsheetID string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, "A:Z", &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// prepareReportData lays out the title, summary, risk breakdown and detail rows.
func prepareReportData(r *model.Report) sheetLayout {
	summary := r.Summary
	// Title(2) + empty(1) + summary(9) + empty(1) + breakdown(2+buckets) + empty(2) + details(2) + rows
	estimatedRows := 19 + len(model.RiskBuckets) + len(r.Rows)
	layout := sheetLayout{values: make([][]any, 0, estimatedRows)}

	section := func(title string) {
		layout.sectionRows = append(layout.sectionRows, len(layout.values))
		layout.values = append(layout.values, []any{title})
	}

	layout.values = append(layout.values,
		[]any{"Revenue Leakage Audit", r.CreatedAt.Format("Jan 2, 2006 15:04")},
		[]any{"Run", r.RunID, "Invoices", r.InvoiceSource, "Clinical", r.ClinicalSource},
		[]any{}, // Empty row
	)

	section("Summary")
	layout.values = append(layout.values,
		[]any{"Invoices Processed", summary.TotalLines},
		[]any{"Matched", summary.MatchedCount},
		[]any{"Unmatched", summary.UnmatchedCount},
		[]any{"Dollar At Risk", summary.DollarAtRisk.InexactFloat64()},
		[]any{"Total Spend", summary.TotalSpend.InexactFloat64()},
		[]any{"Reconciliation Rate", report.FormatRate(summary.ReconciliationRate)},
		[]any{"Clinical Logs", summary.ClinicalEntries},
		[]any{"Potential Gaps", summary.PotentialGaps},
		[]any{}, // Empty row
	)

	section("Risk Breakdown")
	layout.values = append(layout.values, []any{"Risk", "Status", "Count", "Total", "Average"})
	for _, bucket := range model.RiskBuckets {
		stats := summary.Buckets[bucket]
		layout.values = append(layout.values, []any{
			string(bucket),
			bucket.Status(),
			stats.Count,
			stats.Total.InexactFloat64(),
			stats.Average.InexactFloat64(),
		})
	}

	layout.values = append(layout.values,
		[]any{}, // Empty row
		[]any{}, // Empty row
	)
	section("Audit Details")

	layout.detailHeader = len(layout.values)
	header := make([]any, len(report.Columns))
	for i, col := range report.Columns {
		header[i] = col
	}
	layout.values = append(layout.values, header)

	for _, row := range r.Rows {
		layout.values = append(layout.values, []any{
			row.InvoiceID,
			row.PONumber,
			row.VendorItemName,
			optionalCell(row.BestClinicalMatch),
			row.CaseID,
			optionalCell(row.MatchScore),
			optionalCell(row.DayOffset),
			row.Matched,
			string(row.Risk),
			row.Status,
			row.DollarValue.InexactFloat64(),
		})
	}
	layout.detailRowCount = len(r.Rows)

	return layout
}

func optionalCell[T any](v *T) any {
	if v == nil {
		return ""
	}
	return *v
}

// writeData writes the data to the spreadsheet.
func (w *Writer) writeData(ctx context.Context, spreadsheetID string, values [][]any) error {
	// Write in batches to avoid API limits
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(values))

		batch := values[i:end]
		valueRange := &sheets.ValueRange{
			Values: batch,
		}

		rangeStr := fmt.Sprintf("A%d", i+1)
		_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, rangeStr, valueRange).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()

		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("wrote batch", "start_row", i+1, "rows", len(batch))
	}

	return nil
}

// formattingRequests builds the batch update that styles a written report.
func formattingRequests(sheetID int64, layout sheetLayout) []*sheets.Request {
	bold := func(row int64, size int64) *sheets.Request {
		return &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    row,
					EndRowIndex:      row + 1,
					StartColumnIndex: 0,
					EndColumnIndex:   int64(detailColumns),
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{
							Bold:     true,
							FontSize: size,
						},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		}
	}

	// Format title
	requests := []*sheets.Request{bold(0, 16)}

	// Format section headers and the detail header
	for _, row := range layout.sectionRows {
		requests = append(requests, bold(int64(row), 12))
	}
	requests = append(requests, bold(int64(layout.detailHeader), 10))

	// Format the dollar column of the detail rows
	if layout.detailRowCount > 0 {
		start := int64(layout.detailHeader + 1)
		requests = append(requests, &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    start,
					EndRowIndex:      start + int64(layout.detailRowCount),
					StartColumnIndex: int64(dollarColumn),
					EndColumnIndex:   int64(dollarColumn + 1),
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						NumberFormat: &sheets.NumberFormat{
							Type:    "CURRENCY",
							Pattern: "$#,##0.00",
						},
					},
				},
				Fields: "userEnteredFormat.numberFormat",
			},
		})
	}

	requests = append(requests,
		// Auto-resize columns
		&sheets.Request{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   int64(detailColumns),
				},
			},
		},
		// Freeze title row
		&sheets.Request{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId: sheetID,
					GridProperties: &sheets.GridProperties{
						FrozenRowCount: 1,
					},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	)

	return requests
}

// applyFormatting applies formatting to the spreadsheet.
func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, sheetID int64, layout sheetLayout) error {
	batchUpdate := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: formattingRequests(sheetID, layout),
	}

	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, batchUpdate).Context(ctx).Do()
	return err
}

// classifyError marks Sheets API failures that retrying cannot fix.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	case apiErr.Code >= 400 && apiErr.Code < 500:
		return &common.RetryableError{Err: err, Retryable: false}
	default:
		return err
	}
}
