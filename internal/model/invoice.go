// Package model defines the core domain models used throughout the application.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceLine is a single row of a vendor invoice for a bill-only implant.
type InvoiceLine struct {
	InvoiceDate    time.Time
	UnitCost       decimal.Decimal
	InvoiceID      string
	PONumber       string
	VendorItemName string // Raw item text as billed by the vendor
	Quantity       int
}

// Value returns the billed dollar value of the line (quantity × unit cost).
func (l InvoiceLine) Value() decimal.Decimal {
	return l.UnitCost.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// ClinicalLogEntry is a documented implant usage from the clinical record.
type ClinicalLogEntry struct {
	ProcedureDate   time.Time
	CaseID          string
	ItemDescription string // Raw item text as charted by clinical staff
	POReference     string // Optional; empty when the chart carries no PO
	QtyUsed         int
}
