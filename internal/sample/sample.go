// Package sample embeds a small demonstration dataset for the reconcile command.
package sample

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/Veraticus/revenue-guardian/internal/loader"
	"github.com/Veraticus/revenue-guardian/internal/model"
)

//go:embed data/invoices.csv
var invoicesCSV []byte

//go:embed data/clinical.csv
var clinicalCSV []byte

// InvoicesCSV returns the raw demo invoice table.
func InvoicesCSV() []byte { return bytes.Clone(invoicesCSV) }

// ClinicalCSV returns the raw demo clinical log.
func ClinicalCSV() []byte { return bytes.Clone(clinicalCSV) }

// Load parses both demo tables.
func Load() ([]model.InvoiceLine, []model.ClinicalLogEntry, error) {
	invoices, err := loader.LoadInvoices(bytes.NewReader(invoicesCSV))
	if err != nil {
		return nil, nil, fmt.Errorf("demo invoices: %w", err)
	}

	clinical, err := loader.LoadClinical(bytes.NewReader(clinicalCSV))
	if err != nil {
		return nil, nil, fmt.Errorf("demo clinical log: %w", err)
	}

	return invoices, clinical, nil
}
