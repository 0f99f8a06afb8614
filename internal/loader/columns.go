package loader

// Invoice table columns.
const (
	ColInvoiceID      = "Invoice_ID"
	ColPONumber       = "PO_Number"
	ColVendorItemName = "Vendor_Item_Name"
	ColQuantity       = "Quantity"
	ColUnitCost       = "Unit_Cost"
	ColInvoiceDate    = "Invoice_Date"
)

// Clinical log columns.
const (
	ColCaseID           = "Case_ID"
	ColClinicalItemDesc = "Clinical_Item_Desc"
	ColQtyUsed          = "Qty_Used"
	ColImplantDate      = "Implant_Date"
	ColPORefOptional    = "PO_Ref_Optional"
)

// Inventory columns.
const (
	ColItemID          = "Item_ID"
	ColItemDescription = "Item_Description"
	ColLotNumber       = "Lot_Number"
	ColOnHand          = "On_Hand"
	ColExpirationDate  = "Expiration_Date"
	ColManufacturer    = "Manufacturer"
	ColLocation        = "Location"
	ColAvgDailyUsage   = "Avg_Daily_Usage"
)

// Recall list columns.
const (
	ColRecallID = "Recall_ID"
	ColReason   = "Reason"
)

var (
	invoiceSchema = schema{
		name:     "invoice",
		required: []string{ColInvoiceID, ColPONumber, ColVendorItemName, ColQuantity, ColUnitCost, ColInvoiceDate},
	}
	clinicalSchema = schema{
		name:       "clinical",
		required:   []string{ColCaseID, ColClinicalItemDesc, ColQtyUsed, ColImplantDate},
		optional:   []string{ColPORefOptional},
		allowEmpty: true,
	}
	inventorySchema = schema{
		name:     "inventory",
		required: []string{ColItemID, ColItemDescription, ColLotNumber, ColOnHand, ColUnitCost, ColExpirationDate},
		optional: []string{ColManufacturer, ColLocation, ColAvgDailyUsage},
	}
	recallSchema = schema{
		name:     "recall",
		required: []string{ColLotNumber},
		optional: []string{ColRecallID, ColReason},
	}
)
