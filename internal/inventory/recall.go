package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/revenue-guardian/internal/model"
	"github.com/shopspring/decimal"
)

// RecallStore is the persistence the recall checker needs.
type RecallStore interface {
	FindInventoryByLots(ctx context.Context, lots []string) ([]model.InventoryItem, error)
	SaveRecallAlerts(ctx context.Context, alerts []model.RecallAlert) (int, error)
}

// MatchRecalls returns one alert per inventory lot and recall notice that
// share a lot number. Alerts follow the item order, then the recall order.
func MatchRecalls(items []model.InventoryItem, recalls []model.RecalledLot, detectedAt time.Time) []model.RecallAlert {
	byLot := make(map[string][]model.RecalledLot, len(recalls))
	for _, recall := range recalls {
		lot := model.NormalizeLot(recall.LotNumber)
		if lot == "" {
			continue
		}
		byLot[lot] = append(byLot[lot], recall)
	}

	alerts := []model.RecallAlert{}
	for _, item := range items {
		for _, recall := range byLot[model.NormalizeLot(item.LotNumber)] {
			alerts = append(alerts, model.RecallAlert{
				Item:        item,
				RecallID:    recall.RecallID,
				Reason:      recall.Reason,
				ValueAtRisk: item.Value(),
				DetectedAt:  detectedAt,
			})
		}
	}
	return alerts
}

// RecallResult is the outcome of checking stored inventory against a recall list.
type RecallResult struct {
	TotalValue decimal.Decimal
	Alerts     []model.RecallAlert
	New        int // Alerts not recorded by an earlier check
}

// RecallChecker checks stored inventory against recall lists and records alerts.
type RecallChecker struct {
	store  RecallStore
	logger *slog.Logger
	now    func() time.Time
}

// NewRecallChecker creates a checker over the given store.
func NewRecallChecker(store RecallStore, logger *slog.Logger) *RecallChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecallChecker{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Check looks up every recalled lot in inventory and saves the resulting alerts.
func (c *RecallChecker) Check(ctx context.Context, recalls []model.RecalledLot) (*RecallResult, error) {
	lots := make([]string, 0, len(recalls))
	for _, recall := range recalls {
		lots = append(lots, recall.LotNumber)
	}

	items, err := c.store.FindInventoryByLots(ctx, lots)
	if err != nil {
		return nil, fmt.Errorf("failed to look up recalled lots: %w", err)
	}

	result := &RecallResult{
		Alerts:     MatchRecalls(items, recalls, c.now().UTC()),
		TotalValue: decimal.Zero,
	}
	for _, alert := range result.Alerts {
		result.TotalValue = result.TotalValue.Add(alert.ValueAtRisk)
	}

	if len(result.Alerts) > 0 {
		result.New, err = c.store.SaveRecallAlerts(ctx, result.Alerts)
		if err != nil {
			return nil, fmt.Errorf("failed to save recall alerts: %w", err)
		}
	}

	c.logger.Info("Recall check complete",
		"recalled_lots", len(recalls),
		"affected_lots", len(items),
		"alerts", len(result.Alerts),
		"new_alerts", result.New,
		"value_at_risk", result.TotalValue.StringFixed(2))

	return result, nil
}
