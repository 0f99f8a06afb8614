package loader

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Veraticus/revenue-guardian/internal/model"
)

// LoadInvoices reads vendor invoice lines. At least one row is required.
func LoadInvoices(r io.Reader) ([]model.InvoiceLine, error) {
	t, err := readTable(r, invoiceSchema)
	if err != nil {
		return nil, err
	}

	lines := make([]model.InvoiceLine, 0, len(t.rows))
	for i, record := range t.rows {
		row := i + 1
		line := model.InvoiceLine{InvoiceID: t.cell(record, ColInvoiceID)}

		if line.PONumber, err = t.text(record, row, ColPONumber); err != nil {
			return nil, err
		}
		if line.VendorItemName, err = t.text(record, row, ColVendorItemName); err != nil {
			return nil, err
		}
		if line.Quantity, err = t.count(record, row, ColQuantity); err != nil {
			return nil, err
		}
		if line.UnitCost, err = t.money(record, row, ColUnitCost); err != nil {
			return nil, err
		}
		if line.InvoiceDate, err = t.date(record, row, ColInvoiceDate); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	return lines, nil
}

// LoadClinical reads clinical documentation entries. The table may be empty.
func LoadClinical(r io.Reader) ([]model.ClinicalLogEntry, error) {
	t, err := readTable(r, clinicalSchema)
	if err != nil {
		return nil, err
	}

	entries := make([]model.ClinicalLogEntry, 0, len(t.rows))
	for i, record := range t.rows {
		row := i + 1
		entry := model.ClinicalLogEntry{
			CaseID:      t.cell(record, ColCaseID),
			POReference: t.cell(record, ColPORefOptional),
		}

		if entry.ItemDescription, err = t.text(record, row, ColClinicalItemDesc); err != nil {
			return nil, err
		}
		if entry.QtyUsed, err = t.count(record, row, ColQtyUsed); err != nil {
			return nil, err
		}
		if entry.ProcedureDate, err = t.date(record, row, ColImplantDate); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// LoadInventory reads stocked inventory lots.
func LoadInventory(r io.Reader) ([]model.InventoryItem, error) {
	t, err := readTable(r, inventorySchema)
	if err != nil {
		return nil, err
	}

	items := make([]model.InventoryItem, 0, len(t.rows))
	for i, record := range t.rows {
		row := i + 1
		item := model.InventoryItem{
			Manufacturer: t.cell(record, ColManufacturer),
			Location:     t.cell(record, ColLocation),
		}

		if item.ItemID, err = t.text(record, row, ColItemID); err != nil {
			return nil, err
		}
		if item.Description, err = t.text(record, row, ColItemDescription); err != nil {
			return nil, err
		}
		lot, lotErr := t.text(record, row, ColLotNumber)
		if lotErr != nil {
			return nil, lotErr
		}
		item.LotNumber = model.NormalizeLot(lot)
		if item.OnHand, err = t.count(record, row, ColOnHand); err != nil {
			return nil, err
		}
		if item.UnitCost, err = t.money(record, row, ColUnitCost); err != nil {
			return nil, err
		}
		if item.ExpirationDate, err = t.date(record, row, ColExpirationDate); err != nil {
			return nil, err
		}
		if item.AvgDailyUsage, err = t.rate(record, row, ColAvgDailyUsage); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, nil
}

// LoadRecalls reads a list of recalled lot numbers.
func LoadRecalls(r io.Reader) ([]model.RecalledLot, error) {
	t, err := readTable(r, recallSchema)
	if err != nil {
		return nil, err
	}

	lots := make([]model.RecalledLot, 0, len(t.rows))
	for i, record := range t.rows {
		lot, lotErr := t.text(record, i+1, ColLotNumber)
		if lotErr != nil {
			return nil, lotErr
		}
		lots = append(lots, model.RecalledLot{
			LotNumber: model.NormalizeLot(lot),
			RecallID:  t.cell(record, ColRecallID),
			Reason:    t.cell(record, ColReason),
		})
	}

	return lots, nil
}

// LoadInvoicesFile reads vendor invoice lines from a CSV file.
func LoadInvoicesFile(path string) ([]model.InvoiceLine, error) {
	return loadFile(path, LoadInvoices)
}

// LoadClinicalFile reads clinical documentation entries from a CSV file.
func LoadClinicalFile(path string) ([]model.ClinicalLogEntry, error) {
	return loadFile(path, LoadClinical)
}

// LoadInventoryFile reads inventory lots from a CSV file.
func LoadInventoryFile(path string) ([]model.InventoryItem, error) {
	return loadFile(path, LoadInventory)
}

// LoadRecallsFile reads a recall list from a CSV file.
func LoadRecallsFile(path string) ([]model.RecalledLot, error) {
	return loadFile(path, LoadRecalls)
}

func loadFile[T any](path string, load func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path) // #nosec G304 -- path is supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	records, err := load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	slog.Debug("Loaded input file", "path", path, "rows", len(records))
	return records, nil
}
