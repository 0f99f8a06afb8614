package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/revenue-guardian/internal/inventory"
	"github.com/Veraticus/revenue-guardian/internal/model"
	"github.com/Veraticus/revenue-guardian/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssessStoredInventory(t *testing.T) {
	asOf := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	db := testutil.SetupTestDB(t, testutil.TestDBOptions{Inventory: testutil.InventoryFixture(asOf)})

	items, err := db.Storage.GetInventory(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)

	byLot := make(map[string]model.ExpirationAssessment)
	for _, a := range inventory.AssessAll(items, asOf, inventory.DefaultWarningDays) {
		byLot[a.Item.LotNumber] = a
	}

	assert.Equal(t, model.ExpirationExpired, byLot["LOT-A1"].Status)
	assert.Equal(t, 12, byLot["LOT-A1"].UnitsAtRisk)

	assert.Equal(t, model.ExpirationAtRisk, byLot["LOT-B7"].Status)
	assert.Equal(t, 5, byLot["LOT-B7"].UnitsAtRisk)
	assert.True(t, decimal.NewFromInt(6000).Equal(byLot["LOT-B7"].ValueAtRisk))

	assert.Equal(t, model.ExpirationOK, byLot["LOT-C3"].Status)
}

func TestRecallCheckAgainstStore(t *testing.T) {
	asOf := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	db := testutil.SetupTestDB(t, testutil.TestDBOptions{Inventory: testutil.InventoryFixture(asOf)})
	checker := inventory.NewRecallChecker(db.Storage, nil)
	recalls := []model.RecalledLot{
		{LotNumber: "lot-b7", RecallID: "RC-7", Reason: "Sterile barrier breach"},
		{LotNumber: "LOT-NOPE", RecallID: "RC-8"},
	}

	first, err := checker.Check(context.Background(), recalls)
	require.NoError(t, err)
	require.Len(t, first.Alerts, 1)
	assert.Equal(t, "IMP-200", first.Alerts[0].Item.ItemID)
	assert.Equal(t, 1, first.New)
	assert.True(t, decimal.NewFromInt(12000).Equal(first.TotalValue))

	second, err := checker.Check(context.Background(), recalls)
	require.NoError(t, err)
	assert.Len(t, second.Alerts, 1)
	assert.Equal(t, 0, second.New)

	stored, err := db.Storage.ListRecallAlerts(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}
