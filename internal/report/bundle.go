package report

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/revenue-guardian/internal/model"
)

// TimestampLayout formats the timestamp embedded in export file names.
const TimestampLayout = "20060102_150405"

// Bundle lists the files written by Export.
type Bundle struct {
	Full     string
	HighRisk string
	Summary  string
}

// Paths returns the bundle files in write order.
func (b Bundle) Paths() []string {
	return []string{b.Full, b.HighRisk, b.Summary}
}

// Export writes the full audit, the high-risk subset and the summary
// statistics into dir, creating it if needed.
func Export(dir string, r *model.Report, at time.Time) (Bundle, error) {
	if r == nil {
		return Bundle{}, fmt.Errorf("report is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return Bundle{}, fmt.Errorf("failed to create export directory: %w", err)
	}

	ts := at.Format(TimestampLayout)
	bundle := Bundle{
		Full:     filepath.Join(dir, "revenue_leakage_audit_"+ts+".csv"),
		HighRisk: filepath.Join(dir, "high_risk_items_"+ts+".csv"),
		Summary:  filepath.Join(dir, "summary_statistics_"+ts+".csv"),
	}

	var full, high, summary bytes.Buffer
	if err := WriteRows(&full, r.Rows); err != nil {
		return Bundle{}, err
	}
	if err := WriteRows(&high, FilterRows(r.Rows, FilterHigh)); err != nil {
		return Bundle{}, err
	}
	if err := WriteSummary(&summary, r.Summary); err != nil {
		return Bundle{}, err
	}

	files := []struct {
		path string
		data []byte
	}{
		{bundle.Full, full.Bytes()},
		{bundle.HighRisk, high.Bytes()},
		{bundle.Summary, summary.Bytes()},
	}
	for _, f := range files {
		if err := os.WriteFile(f.path, f.data, 0o600); err != nil {
			return Bundle{}, fmt.Errorf("failed to write %s: %w", f.path, err)
		}
	}

	slog.Info("Exported report bundle", "dir", dir, "run_id", r.RunID, "rows", len(r.Rows))
	return bundle, nil
}
