package engine

import (
	"testing"
	"time"

	"github.com/Veraticus/revenue-guardian/internal/model"
	"github.com/shopspring/decimal"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

func invoice(t *testing.T, po, item string, qty int, cost string, date string) model.InvoiceLine {
	t.Helper()
	return model.InvoiceLine{
		InvoiceID:      "INV-" + po,
		PONumber:       po,
		VendorItemName: item,
		Quantity:       qty,
		UnitCost:       decimal.RequireFromString(cost),
		InvoiceDate:    mustDate(t, date),
	}
}

func clinicalEntry(t *testing.T, caseID, desc string, qty int, date string) model.ClinicalLogEntry {
	t.Helper()
	return model.ClinicalLogEntry{
		CaseID:          caseID,
		ItemDescription: desc,
		QtyUsed:         qty,
		ProcedureDate:   mustDate(t, date),
	}
}

// stubScorer returns a fixed score per normalized clinical description.
type stubScorer map[string]int

func (s stubScorer) Score(_, b string) int {
	return s[b]
}
