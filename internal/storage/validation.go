// Package storage provides the data persistence layer for revenue guardian.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/revenue-guardian/internal/model"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrNilParameter     = errors.New("parameter cannot be nil")
	ErrEmptySlice       = errors.New("slice cannot be empty")
	ErrInvalidReport    = errors.New("invalid report")
	ErrInvalidInventory = errors.New("invalid inventory item")
	ErrInvalidAlert     = errors.New("invalid recall alert")
)

// Lookup errors.
var (
	ErrNotFound  = errors.New("not found")
	ErrAmbiguous = errors.New("identifier matches more than one record")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateReport validates a report before it is persisted.
func validateReport(report *model.Report) error {
	if report == nil {
		return fmt.Errorf("%w: report", ErrNilParameter)
	}
	if strings.TrimSpace(report.RunID) == "" {
		return fmt.Errorf("%w: missing run ID", ErrInvalidReport)
	}
	if report.CreatedAt.IsZero() {
		return fmt.Errorf("%w: missing creation time", ErrInvalidReport)
	}
	return nil
}

// validateInventoryItems validates a slice of inventory items.
func validateInventoryItems(items []model.InventoryItem) error {
	if items == nil {
		return fmt.Errorf("%w: items", ErrNilParameter)
	}
	if len(items) == 0 {
		return fmt.Errorf("%w: items", ErrEmptySlice)
	}

	for i, item := range items {
		if err := validateInventoryItem(&item); err != nil {
			return fmt.Errorf("item at index %d: %w", i, err)
		}
	}
	return nil
}

// validateInventoryItem validates a single inventory item.
func validateInventoryItem(item *model.InventoryItem) error {
	if item == nil {
		return fmt.Errorf("%w: item", ErrNilParameter)
	}
	if strings.TrimSpace(item.ItemID) == "" {
		return fmt.Errorf("%w: missing item ID", ErrInvalidInventory)
	}
	if strings.TrimSpace(item.LotNumber) == "" {
		return fmt.Errorf("%w: missing lot number", ErrInvalidInventory)
	}
	if item.OnHand < 0 {
		return fmt.Errorf("%w: on hand quantity cannot be negative", ErrInvalidInventory)
	}
	if item.ExpirationDate.IsZero() {
		return fmt.Errorf("%w: missing expiration date", ErrInvalidInventory)
	}
	return nil
}

// validateRecallAlerts validates a slice of recall alerts.
func validateRecallAlerts(alerts []model.RecallAlert) error {
	if alerts == nil {
		return fmt.Errorf("%w: alerts", ErrNilParameter)
	}

	for i, alert := range alerts {
		if err := validateInventoryItem(&alert.Item); err != nil {
			return fmt.Errorf("alert at index %d: %w", i, err)
		}
		if alert.DetectedAt.IsZero() {
			return fmt.Errorf("alert at index %d: %w: missing detection time", i, ErrInvalidAlert)
		}
	}
	return nil
}
