package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InventoryItem is a stocked lot of a supply item.
type InventoryItem struct {
	ExpirationDate time.Time
	UnitCost       decimal.Decimal
	ItemID         string
	Description    string
	LotNumber      string
	Manufacturer   string
	Location       string
	OnHand         int
	AvgDailyUsage  float64 // Average daily usage (ADU), in units
}

// Value returns the on-hand value of the lot.
func (i InventoryItem) Value() decimal.Decimal {
	return i.UnitCost.Mul(decimal.NewFromInt(int64(i.OnHand)))
}

// NormalizeLot canonicalizes a lot number for comparison.
func NormalizeLot(lot string) string {
	return strings.ToUpper(strings.TrimSpace(lot))
}

// RecalledLot is an externally supplied recall notice for a lot.
type RecalledLot struct {
	LotNumber string
	RecallID  string
	Reason    string
}

// RecallAlert flags an inventory lot that appears on a recall list.
type RecallAlert struct {
	DetectedAt  time.Time
	ValueAtRisk decimal.Decimal
	RecallID    string
	Reason      string
	Item        InventoryItem
	ID          int64
}

// ExpirationStatus classifies a lot by its expiration outlook.
type ExpirationStatus string

// Expiration statuses.
const (
	ExpirationExpired      ExpirationStatus = "EXPIRED"
	ExpirationAtRisk       ExpirationStatus = "AT_RISK"
	ExpirationExpiringSoon ExpirationStatus = "EXPIRING_SOON"
	ExpirationOK           ExpirationStatus = "OK"
)

// ExpirationAssessment is the burn-rate outcome for one inventory lot.
// DaysToDeplete is nil when the lot has no recorded usage.
type ExpirationAssessment struct {
	DaysToDeplete *float64
	ValueAtRisk   decimal.Decimal
	Status        ExpirationStatus
	Item          InventoryItem
	DaysToExpiry  int
	UnitsAtRisk   int
}
