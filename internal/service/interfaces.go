// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/revenue-guardian/internal/model"
)

// RunFilter narrows run history queries.
type RunFilter struct {
	Since *time.Time
	Limit int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Reconciliation run history
	SaveRun(ctx context.Context, report *model.Report) error
	GetRun(ctx context.Context, id string) (*model.RunRecord, error)
	GetRunRows(ctx context.Context, id string) ([]model.ReportRow, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.RunRecord, error)
	DeleteRun(ctx context.Context, id string) error

	// Inventory operations
	SaveInventoryItems(ctx context.Context, items []model.InventoryItem) error
	GetInventory(ctx context.Context) ([]model.InventoryItem, error)
	FindInventoryByLots(ctx context.Context, lots []string) ([]model.InventoryItem, error)

	// Recall alerts
	SaveRecallAlerts(ctx context.Context, alerts []model.RecallAlert) (int, error)
	ListRecallAlerts(ctx context.Context, limit int) ([]model.RecallAlert, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// ReportWriter publishes a finished reconciliation report to an external destination.
type ReportWriter interface {
	Write(ctx context.Context, report *model.Report) error
}

// RetryOptions configures retry behavior for operations.
// Operation and Attrs label the retry log lines and the final error.
type RetryOptions struct {
	Operation    string
	Attrs        []any
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
