package loader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const invoiceHeader = "Invoice_ID,PO_Number,Vendor_Item_Name,Quantity,Unit_Cost,Invoice_Date\n"

func TestLoadInvoices(t *testing.T) {
	input := invoiceHeader +
		"INV-1,PO-1001,Stryker Screw 4mm,2,\"$1,234.50\",2025-10-14\n" +
		"INV-2,PO-1002,Synthes Plate,1,450,10/15/2025\n"

	lines, err := LoadInvoices(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, "INV-1", lines[0].InvoiceID)
	assert.Equal(t, "PO-1001", lines[0].PONumber)
	assert.Equal(t, "Stryker Screw 4mm", lines[0].VendorItemName)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.True(t, decimal.RequireFromString("1234.50").Equal(lines[0].UnitCost))
	assert.Equal(t, time.Date(2025, 10, 14, 0, 0, 0, 0, time.UTC), lines[0].InvoiceDate)

	assert.Equal(t, time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC), lines[1].InvoiceDate)
	assert.True(t, decimal.NewFromInt(450).Equal(lines[1].UnitCost))
}

func TestLoadInvoices_HeaderHandling(t *testing.T) {
	t.Run("byte order mark and padding", func(t *testing.T) {
		input := "\ufeffInvoice_ID, PO_Number ,Vendor_Item_Name,Quantity,Unit_Cost,Invoice_Date,Extra\n" +
			"INV-1,PO-1,Plate,1,10,2025-01-02,ignored\n"

		lines, err := LoadInvoices(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, "PO-1", lines[0].PONumber)
	})

	t.Run("columns in any order", func(t *testing.T) {
		input := "Invoice_Date,Unit_Cost,Quantity,Vendor_Item_Name,PO_Number,Invoice_ID\n" +
			"2025-01-02,10,3,Plate,PO-9,INV-9\n"

		lines, err := LoadInvoices(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, 3, lines[0].Quantity)
		assert.Equal(t, "INV-9", lines[0].InvoiceID)
	})
}

func TestLoadInvoices_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		row     int
		column  string
	}{
		{
			name:    "no input",
			input:   "",
			wantErr: ErrEmptyTable,
		},
		{
			name:    "header only",
			input:   invoiceHeader,
			wantErr: ErrEmptyTable,
		},
		{
			name:    "missing columns",
			input:   "Invoice_ID,PO_Number,Quantity\nINV-1,PO-1,1\n",
			wantErr: ErrMissingColumn,
			column:  "Vendor_Item_Name, Unit_Cost, Invoice_Date",
		},
		{
			name:    "bad date",
			input:   invoiceHeader + "INV-1,PO-1,Plate,1,10,2025-01-02\nINV-2,PO-2,Plate,1,10,yesterday\n",
			wantErr: ErrInvalidDate,
			row:     2,
			column:  ColInvoiceDate,
		},
		{
			name:    "bad cost",
			input:   invoiceHeader + "INV-1,PO-1,Plate,1,ten,2025-01-02\n",
			wantErr: ErrInvalidNumber,
			row:     1,
			column:  ColUnitCost,
		},
		{
			name:    "negative cost",
			input:   invoiceHeader + "INV-1,PO-1,Plate,1,-5,2025-01-02\n",
			wantErr: ErrNegative,
			row:     1,
			column:  ColUnitCost,
		},
		{
			name:    "fractional quantity",
			input:   invoiceHeader + "INV-1,PO-1,Plate,1.5,5,2025-01-02\n",
			wantErr: ErrInvalidNumber,
			row:     1,
			column:  ColQuantity,
		},
		{
			name:    "quantity out of range",
			input:   invoiceHeader + "INV-1,PO-1,Plate,99999999999999999999,5,2025-01-02\n",
			wantErr: ErrInvalidNumber,
			row:     1,
			column:  ColQuantity,
		},
		{
			name:    "blank item name",
			input:   invoiceHeader + "INV-1,PO-1,  ,1,5,2025-01-02\n",
			wantErr: ErrMissingValue,
			row:     1,
			column:  ColVendorItemName,
		},
		{
			name:    "short row",
			input:   invoiceHeader + "INV-1,PO-1,Plate\n",
			wantErr: ErrRowShape,
			row:     1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, err := LoadInvoices(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Nil(t, lines)
			assert.ErrorIs(t, err, ErrValidation)
			assert.ErrorIs(t, err, tt.wantErr)

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, "invoice", vErr.Table)
			assert.Equal(t, tt.row, vErr.Row)
			if tt.column != "" {
				assert.Equal(t, tt.column, vErr.Column)
			}
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{
		Table:  "invoice",
		Row:    3,
		Column: ColInvoiceDate,
		Value:  "13/45/2025",
		Err:    ErrInvalidDate,
	}
	assert.Equal(t, `invoice table row 3 column Invoice_Date: invalid date "13/45/2025"`, err.Error())
}

func TestLoadClinical(t *testing.T) {
	t.Run("with optional reference", func(t *testing.T) {
		input := "Case_ID,Clinical_Item_Desc,Qty_Used,Implant_Date,PO_Ref_Optional\n" +
			"CASE-1,\"Screw, 4mm, Titanium\",2,2025-10-15,PO-1001\n" +
			"CASE-2,Plate,1,2025-10-16,\n"

		entries, err := LoadClinical(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "Screw, 4mm, Titanium", entries[0].ItemDescription)
		assert.Equal(t, "PO-1001", entries[0].POReference)
		assert.Equal(t, 2, entries[0].QtyUsed)
		assert.Empty(t, entries[1].POReference)
	})

	t.Run("without optional column", func(t *testing.T) {
		input := "Case_ID,Clinical_Item_Desc,Qty_Used,Implant_Date\nCASE-1,Plate,1,2025-10-16\n"

		entries, err := LoadClinical(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Empty(t, entries[0].POReference)
	})

	t.Run("empty table is allowed", func(t *testing.T) {
		entries, err := LoadClinical(strings.NewReader("Case_ID,Clinical_Item_Desc,Qty_Used,Implant_Date\n"))
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("missing description", func(t *testing.T) {
		input := "Case_ID,Clinical_Item_Desc,Qty_Used,Implant_Date\nCASE-1,,1,2025-10-16\n"

		_, err := LoadClinical(strings.NewReader(input))
		assert.ErrorIs(t, err, ErrMissingValue)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestLoadInventory(t *testing.T) {
	input := "Item_ID,Item_Description,Lot_Number,On_Hand,Unit_Cost,Expiration_Date,Avg_Daily_Usage,Manufacturer\n" +
		"SKU-1,Hip Stem,  lot-a1 ,10,1200.00,2026-03-01,0.5,Zimmer\n" +
		"SKU-2,Bone Screw,LOT-B2,40,85,2026-01-15,,\n"

	items, err := LoadInventory(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "LOT-A1", items[0].LotNumber)
	assert.Equal(t, 10, items[0].OnHand)
	assert.InDelta(t, 0.5, items[0].AvgDailyUsage, 1e-9)
	assert.Equal(t, "Zimmer", items[0].Manufacturer)
	assert.Empty(t, items[0].Location)

	assert.Zero(t, items[1].AvgDailyUsage)
	assert.Empty(t, items[1].Manufacturer)
}

func TestLoadCounts_Range(t *testing.T) {
	t.Run("largest accepted quantity", func(t *testing.T) {
		lines, err := LoadInvoices(strings.NewReader(invoiceHeader + "INV-1,PO-1,Plate,2147483647,1,2025-01-02\n"))
		require.NoError(t, err)
		assert.Equal(t, 2147483647, lines[0].Quantity)
	})

	t.Run("on hand too large", func(t *testing.T) {
		input := "Item_ID,Item_Description,Lot_Number,On_Hand,Unit_Cost,Expiration_Date\n" +
			"SKU-1,Hip Stem,LOT-1,2147483648,10,2026-03-01\n"

		_, err := LoadInventory(strings.NewReader(input))
		assert.ErrorIs(t, err, ErrInvalidNumber)

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, ColOnHand, vErr.Column)
		assert.Equal(t, 1, vErr.Row)
	})

	t.Run("qty used too large", func(t *testing.T) {
		input := "Case_ID,Clinical_Item_Desc,Qty_Used,Implant_Date\nCASE-1,Hip Stem,1e30,2025-10-16\n"

		_, err := LoadClinical(strings.NewReader(input))
		assert.ErrorIs(t, err, ErrInvalidNumber)
	})
}

func TestLoadInventory_BadUsage(t *testing.T) {
	tests := []struct {
		name    string
		usage   string
		wantErr error
	}{
		{"not a number", "fast", ErrInvalidNumber},
		{"negative", "-1", ErrNegative},
		{"nan", "NaN", ErrInvalidNumber},
		{"infinite", "Inf", ErrInvalidNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := "Item_ID,Item_Description,Lot_Number,On_Hand,Unit_Cost,Expiration_Date,Avg_Daily_Usage\n" +
				"SKU-1,Hip Stem,LOT-1,1,10,2026-03-01," + tt.usage + "\n"

			_, err := LoadInventory(strings.NewReader(input))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadRecalls(t *testing.T) {
	input := "Lot_Number,Recall_ID,Reason\nlot-a1,RC-7,Packaging breach\nLOT-Z9,,\n"

	lots, err := LoadRecalls(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, lots, 2)
	assert.Equal(t, "LOT-A1", lots[0].LotNumber)
	assert.Equal(t, "RC-7", lots[0].RecallID)
	assert.Equal(t, "Packaging breach", lots[0].Reason)
	assert.Equal(t, "LOT-Z9", lots[1].LotNumber)
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "invoices.csv")
	require.NoError(t, os.WriteFile(path, []byte(invoiceHeader+"INV-1,PO-1,Plate,1,10,2025-01-02\n"), 0o600))

	lines, err := LoadInvoicesFile(path)
	require.NoError(t, err)
	assert.Len(t, lines, 1)

	_, err = LoadClinicalFile(filepath.Join(dir, "missing.csv"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("Lot_Number\n\"unterminated\n"), 0o600))
	_, err = LoadRecallsFile(bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), bad)
}
